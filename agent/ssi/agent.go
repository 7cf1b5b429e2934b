package ssi

import (
	"sync"

	"github.com/ayanworks/arnima-agent-go/agent/bus"
	"github.com/ayanworks/arnima-agent-go/agent/psm"
)

// QueueEndpoint is the reserved service endpoint of an agent that has no
// inbound transport of its own; counterparties and mediators hold messages
// for pickup instead of posting them.
const QueueEndpoint = "didcomm:transport/queue"

// Agent is the explicit context passed into every protocol service call. It
// is built once when the wallet is opened and its routing part is refreshed
// when a mediator grants mediation.
type Agent struct {
	WalletH int
	PoolH   int

	Label          string
	PublicDID      string
	VerKey         string
	MasterSecretID string

	Crypto    Crypto
	Wallet    Wallet
	Anoncreds Anoncreds
	Ledger    Ledger
	DB        *psm.DB
	Bus       *bus.Station

	mu          sync.RWMutex
	endpoint    string
	routingKeys []string
}

// Endpoint returns the agent's current public service endpoint. Until a
// mediator grant arrives this is the queue endpoint or a configured host.
func (a *Agent) Endpoint() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.endpoint
}

func (a *Agent) RoutingKeys() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	keys := make([]string, len(a.routingKeys))
	copy(keys, a.routingKeys)
	return keys
}

// SetRouting installs the routing configuration every subsequent outbound
// envelope advertises, for every connection.
func (a *Agent) SetRouting(endpoint string, routingKeys []string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.endpoint = endpoint
	a.routingKeys = routingKeys
}
