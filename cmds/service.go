package cmds

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ayanworks/arnima-agent-go/agent/bus"
	"github.com/ayanworks/arnima-agent-go/agent/edge"
	"github.com/ayanworks/arnima-agent-go/agent/utils"
	"github.com/golang/glog"
	"github.com/hyperledger/aries-framework-go/component/storageutil/mem"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// ServiceCmd provisions a wallet and runs the agent until interrupted.
// Records live in process memory; persistent stores come from embedders
// using the edge package directly.
type ServiceCmd struct {
	WalletName string
	WalletKey  string
	Label      string
	Seed       string

	HostAddr string

	PoolName    string
	GenesisPath string

	MediatorInvitation string
	MediatorWsURL      string

	Timeout        time.Duration
	PickupInterval time.Duration
}

func (c ServiceCmd) Validate() (err error) {
	defer err2.Handle(&err)

	try.To(NotNull("wallet name", c.WalletName))
	try.To(NotNull("wallet key", c.WalletKey))
	try.To(NotNull("label", c.Label))
	if c.GenesisPath != "" {
		try.To(NotNull("pool name", c.PoolName))
	}
	return nil
}

func (c ServiceCmd) Exec(w io.Writer) (err error) {
	defer err2.Handle(&err, "service cmd")

	if c.Timeout > 0 {
		utils.Settings.SetTimeout(c.Timeout)
	}
	if c.PickupInterval > 0 {
		utils.Settings.SetPickupInterval(c.PickupInterval)
	}

	a := edge.New(edge.IndyProviders(mem.NewProvider()), edge.Options{
		WalletName:    c.WalletName,
		WalletKey:     c.WalletKey,
		Label:         c.Label,
		Seed:          c.Seed,
		HostAddr:      c.HostAddr,
		MediatorWsURL: c.MediatorWsURL,
	})

	try.To(a.Provision())
	try.To(a.Open())

	if c.PoolName != "" && c.GenesisPath != "" {
		try.To(a.CreatePool(c.PoolName, c.GenesisPath))
		try.To(a.SelectPool(c.PoolName))
	}

	try.To(a.Start())
	defer a.Stop()

	if c.MediatorInvitation != "" {
		try.To(c.connectMediator(a))
	}

	url, _ := try.To2(a.CreateInvitation("cli"))
	fmt.Fprintln(w, url)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	<-interrupt
	glog.V(1).Infoln("shutting down")
	return nil
}

// connectMediator runs the handshake and requests mediation as soon as the
// connection completes.
func (c ServiceCmd) connectMediator(a *edge.Agent) (err error) {
	defer err2.Handle(&err, "connect mediator")

	conn := try.To1(a.ConnectWithMediator(c.MediatorInvitation))

	a.Bus().AddListener(func(e bus.Event) {
		if e.Type != bus.EventConnectionCompleted || e.ConnectionID != conn.ID {
			return
		}
		if err := a.RequestMediation(conn.ID); err != nil {
			glog.Errorln("mediation request:", err)
		}
	})
	return nil
}
