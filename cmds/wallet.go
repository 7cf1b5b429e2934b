package cmds

import (
	"fmt"
	"io"

	"github.com/ayanworks/arnima-agent-go/agent/edge"
	"github.com/ayanworks/arnima-agent-go/agent/ssi"
	"github.com/hyperledger/aries-framework-go/component/storageutil/mem"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// ExportCmd writes an encrypted backup of an existing wallet. It works on the
// wallet alone, no agent records are needed.
type ExportCmd struct {
	WalletName string
	WalletKey  string
	ExportPath string
	ExportKey  string
}

func (c ExportCmd) Validate() (err error) {
	defer err2.Handle(&err)

	try.To(NotNull("wallet name", c.WalletName))
	try.To(NotNull("wallet key", c.WalletKey))
	try.To(NotNull("export path", c.ExportPath))
	try.To(NotNull("export key", c.ExportKey))
	return nil
}

func (c ExportCmd) Exec(w io.Writer) (err error) {
	defer err2.Handle(&err, "export cmd")

	wallet := edge.IndyProviders(mem.NewProvider()).Wallet
	cfg := ssi.WalletCfg{Name: c.WalletName, Key: c.WalletKey}

	handle := try.To1(wallet.Open(cfg))
	defer func() {
		_ = wallet.Close(handle)
	}()

	try.To(wallet.Export(handle, c.ExportPath, c.ExportKey))
	fmt.Fprintln(w, "wallet exported to", c.ExportPath)
	return nil
}

// ImportCmd restores a wallet backup into a fresh wallet. Run it before the
// service command on a reinstalled device.
type ImportCmd struct {
	WalletName string
	WalletKey  string
	ImportPath string
	ImportKey  string
}

func (c ImportCmd) Validate() (err error) {
	defer err2.Handle(&err)

	try.To(NotNull("wallet name", c.WalletName))
	try.To(NotNull("wallet key", c.WalletKey))
	try.To(NotNull("import path", c.ImportPath))
	try.To(NotNull("import key", c.ImportKey))
	return nil
}

func (c ImportCmd) Exec(w io.Writer) (err error) {
	defer err2.Handle(&err, "import cmd")

	wallet := edge.IndyProviders(mem.NewProvider()).Wallet
	cfg := ssi.WalletCfg{Name: c.WalletName, Key: c.WalletKey}

	try.To(wallet.Import(cfg, c.ImportPath, c.ImportKey))
	fmt.Fprintln(w, "wallet imported from", c.ImportPath)
	return nil
}
