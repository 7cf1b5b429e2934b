// Package edge is the holder facade: one object owning the wallet, the
// record stores, the dispatch loop and the transports, exposing the
// operations a wallet app calls.
package edge

import (
	"crypto/rand"

	"github.com/ayanworks/arnima-agent-go/agent/bus"
	"github.com/ayanworks/arnima-agent-go/agent/dispatch"
	"github.com/ayanworks/arnima-agent-go/agent/psm"
	"github.com/ayanworks/arnima-agent-go/agent/ssi"
	"github.com/ayanworks/arnima-agent-go/agent/trans"
	"github.com/ayanworks/arnima-agent-go/agent/utils"
	"github.com/golang/glog"
	"github.com/hyperledger/aries-framework-go/spi/storage"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
	"github.com/mr-tron/base58"
)

// Providers bundles the external collaborators of one agent instance.
type Providers struct {
	Storage   storage.Provider
	Crypto    ssi.Crypto
	Wallet    ssi.Wallet
	Anoncreds ssi.Anoncreds
	Ledger    ssi.Ledger
	Pool      ssi.Pool
}

// Options is the static configuration of one agent instance.
type Options struct {
	WalletName string
	WalletKey  string
	Label      string
	Seed       string

	// HostAddr is our public inbound address. Empty means no inbound
	// transport of our own, all traffic flows through a mediator.
	HostAddr string

	// MediatorWsURL is the push socket of the mediator, optional.
	MediatorWsURL string
}

// Agent is the holder facade.
type Agent struct {
	providers Providers
	opts      Options

	ssi  *ssi.Agent
	loop *dispatch.Loop

	server *trans.Server
	pickup *trans.Pickup
	ws     *trans.WsClient
}

func New(p Providers, opts Options) *Agent {
	return &Agent{providers: p, opts: opts}
}

// GenerateWalletKey returns a fresh RAW-derivation wallet key: 32 random
// bytes, base58.
func GenerateWalletKey() (key string, err error) {
	defer err2.Handle(&err, "generate wallet key")

	buf := make([]byte, 32)
	_ = try.To1(rand.Read(buf))
	return base58.Encode(buf), nil
}

func (e *Agent) walletCfg() ssi.WalletCfg {
	return ssi.WalletCfg{Name: e.opts.WalletName, Key: e.opts.WalletKey}
}

// Provision creates the wallet with its public DID and master secret and
// persists the provisioning record. Run once per wallet.
func (e *Agent) Provision() (err error) {
	defer err2.Handle(&err, "provision")

	try.To(e.providers.Wallet.Create(e.walletCfg()))
	handle := try.To1(e.providers.Wallet.Open(e.walletCfg()))
	defer func() {
		if cerr := e.providers.Wallet.Close(handle); cerr != nil {
			glog.Warningln("closing wallet:", cerr)
		}
	}()

	publicDID, verKey := try.To2(e.providers.Wallet.CreateDID(handle, e.opts.Seed))
	masterSecretID := try.To1(e.providers.Wallet.CreateMasterSecret(handle,
		e.opts.WalletName))

	db := try.To1(psm.Open(e.providers.Storage))
	try.To(db.SaveProvision(&psm.ProvisionRec{
		WalletName:     e.opts.WalletName,
		Label:          e.opts.Label,
		PublicDID:      publicDID,
		VerKey:         verKey,
		MasterSecretID: masterSecretID,
		ServiceEndpoint: func() string {
			if e.opts.HostAddr != "" {
				return e.opts.HostAddr
			}
			return ssi.QueueEndpoint
		}(),
	}))
	glog.V(1).Infoln("provisioned wallet", e.opts.WalletName, "DID", publicDID)
	return nil
}

// Open opens the wallet and the selected ledger pool and builds the live
// agent context and dispatch loop. Routing granted by a mediator in an
// earlier session is restored from the mediator record.
func (e *Agent) Open() (err error) {
	defer err2.Handle(&err, "open agent")

	db := try.To1(psm.Open(e.providers.Storage))
	prov := try.To1(db.GetProvision())

	walletH := try.To1(e.providers.Wallet.Open(e.walletCfg()))

	poolH := 0
	if selected, err := db.SelectedPool(); err == nil {
		poolH = try.To1(e.providers.Pool.Open(selected.Name))
	}

	a := &ssi.Agent{
		WalletH:        walletH,
		PoolH:          poolH,
		Label:          prov.Label,
		PublicDID:      prov.PublicDID,
		VerKey:         prov.VerKey,
		MasterSecretID: prov.MasterSecretID,
		Crypto:         e.providers.Crypto,
		Wallet:         e.providers.Wallet,
		Anoncreds:      e.providers.Anoncreds,
		Ledger:         e.providers.Ledger,
		DB:             db,
		Bus:            bus.NewStation(),
	}
	a.SetRouting(prov.ServiceEndpoint, prov.RoutingKeys)
	if rec, err := db.GetMediator(); err == nil && rec.Granted {
		a.SetRouting(rec.Endpoint, rec.RoutingKeys)
	}

	utils.Settings.SetLabel(prov.Label)
	utils.Settings.SetHostAddr(e.opts.HostAddr)

	e.ssi = a
	e.loop = dispatch.New(a)
	return nil
}

// Start spins up the dispatch loop and whatever transports the
// configuration allows.
func (e *Agent) Start() (err error) {
	defer err2.Handle(&err, "start agent")

	e.loop.Start()

	if e.opts.HostAddr != "" {
		e.server = trans.StartServer(e.opts.HostAddr, e.loop)
	}
	if e.opts.MediatorWsURL != "" {
		e.ws = trans.NewWsClient(e.ssi, e.loop, e.opts.MediatorWsURL)
		try.To(e.ws.Start())
	}
	if rec, err := e.ssi.DB.GetMediator(); err == nil && rec.Granted {
		e.pickup = try.To1(trans.StartPickup(e.ssi, e.loop))
	}

	// catch anything queued while we were offline
	e.loop.Notify()
	return nil
}

func (e *Agent) Stop() {
	if e.pickup != nil {
		e.pickup.Stop()
	}
	if e.ws != nil {
		e.ws.Stop()
	}
	if e.server != nil {
		e.server.Stop()
	}
	if e.loop != nil {
		e.loop.Stop()
	}
	if e.ssi != nil {
		if e.ssi.PoolH != 0 {
			if err := e.providers.Pool.Close(e.ssi.PoolH); err != nil {
				glog.Warningln("closing pool:", err)
			}
		}
		if err := e.providers.Wallet.Close(e.ssi.WalletH); err != nil {
			glog.Warningln("closing wallet:", err)
		}
	}
}

// Bus exposes the event station for UI listeners.
func (e *Agent) Bus() *bus.Station {
	return e.ssi.Bus
}

// ExportWallet writes an encrypted wallet backup.
func (e *Agent) ExportWallet(path, backupKey string) error {
	return e.providers.Wallet.Export(e.ssi.WalletH, path, backupKey)
}

// ImportWallet restores a wallet backup into a fresh wallet. Run instead of
// Provision on a reinstalled device, before Open.
func (e *Agent) ImportWallet(path, backupKey string) error {
	return e.providers.Wallet.Import(e.walletCfg(), path, backupKey)
}

// CreatePool stores a named ledger pool configuration.
func (e *Agent) CreatePool(name, genesisPath string) (err error) {
	defer err2.Handle(&err, "create pool")

	try.To(e.providers.Pool.CreateConfig(name, genesisPath))
	try.To(e.ssi.DB.SavePool(&psm.PoolRec{Name: name, GenesisPath: genesisPath}))
	return nil
}

// SelectPool marks the pool used for ledger reads and opens it.
func (e *Agent) SelectPool(name string) (err error) {
	defer err2.Handle(&err, "select pool")

	try.To(e.ssi.DB.SelectPool(name))
	if e.ssi.PoolH != 0 {
		try.To(e.providers.Pool.Close(e.ssi.PoolH))
	}
	e.ssi.PoolH = try.To1(e.providers.Pool.Open(name))
	return nil
}
