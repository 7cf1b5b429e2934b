package cmds

import (
	"fmt"
	"io"

	"github.com/ayanworks/arnima-agent-go/agent/utils"
)

type VersionCmd struct{}

func (c VersionCmd) Validate() error { return nil }

func (c VersionCmd) Exec(w io.Writer) error {
	fmt.Fprintln(w, utils.Version)
	return nil
}
