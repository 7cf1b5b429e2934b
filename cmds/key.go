package cmds

import (
	"fmt"
	"io"

	"github.com/ayanworks/arnima-agent-go/agent/edge"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// KeyCmd generates a RAW wallet key.
type KeyCmd struct{}

func (c KeyCmd) Validate() error { return nil }

func (c KeyCmd) Exec(w io.Writer) (err error) {
	defer err2.Handle(&err, "key cmd")

	key := try.To1(edge.GenerateWalletKey())
	fmt.Fprintln(w, key)
	return nil
}
