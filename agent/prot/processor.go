// Package prot is the handler registry the dispatch loop routes through.
// Each protocol package registers its handlers in init() keyed by the Aries
// payload type URI.
package prot

import (
	"encoding/json"
	"sync"

	"github.com/ayanworks/arnima-agent-go/agent/psm"
	"github.com/ayanworks/arnima-agent-go/agent/ssi"
	"github.com/ayanworks/arnima-agent-go/std/decorator"
	"github.com/golang/glog"
)

// Header is the part every wire message shares.
type Header struct {
	Type   string            `json:"@type,omitempty"`
	ID     string            `json:"@id,omitempty"`
	Thread *decorator.Thread `json:"~thread,omitempty"`
}

// ExchangeKey is the record correlation key of the message.
func (h *Header) ExchangeKey() string {
	return decorator.ExchangeKey(h.Thread, h.ID)
}

// Packet is one decrypted inbound message together with its resolved owner
// connection and the agent context.
type Packet struct {
	Receiver   *ssi.Agent
	Connection *psm.ConnectionRec

	Message json.RawMessage
	Header  Header

	SenderVerKey    string
	RecipientVerKey string

	// Requeue re-injects a wire message into the inbox, used when a
	// pickup batch unwraps nested deliveries.
	Requeue func(cipher []byte) error
}

// Decode unmarshals the packet body into a concrete message struct.
func (p *Packet) Decode(v interface{}) error {
	return json.Unmarshal(p.Message, v)
}

// Handler processes one inbound message. keep=true retains the inbox entry
// for an explicit holder decision instead of deleting it.
type Handler func(packet *Packet) (keep bool, err error)

var (
	handlersMu sync.RWMutex
	handlers   = make(map[string]Handler)
)

// Add registers a handler for a payload type. Called from protocol package
// init() funcs.
func Add(typeID string, h Handler) {
	handlersMu.Lock()
	defer handlersMu.Unlock()

	if _, ok := handlers[typeID]; ok {
		glog.Warningln("overriding handler for", typeID)
	}
	handlers[typeID] = h
}

func Find(typeID string) (Handler, bool) {
	handlersMu.RLock()
	defer handlersMu.RUnlock()

	h, ok := handlers[typeID]
	return h, ok
}
