// Package bus is the fire-and-forget event station towards the holder UI.
// One notification is sent per state transition of interest; listeners must
// never block protocol processing.
package bus

import (
	"sync"

	"github.com/golang/glog"
)

const (
	EventConnectionCompleted  = "connectionCompleted"
	EventConnectionActive     = "connectionActive"
	EventCredentialOffer      = "credentialOfferReceived"
	EventCredentialStored     = "credentialStored"
	EventPresentationRequest  = "presentationRequested"
	EventPresentationVerified = "presentationVerified"
	EventMessageReceived      = "messageReceived"
	EventProblemReport        = "problemReport"
)

// Event carries a human readable summary and the machine readable payload of
// one state transition.
type Event struct {
	Type         string
	ConnectionID string
	Summary      string
	Payload      interface{}
}

type Listener func(Event)

type Station struct {
	mu        sync.RWMutex
	listeners []Listener
}

func NewStation() *Station {
	return &Station{}
}

func (s *Station) AddListener(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Notify delivers the event to every listener on a separate goroutine so a
// slow UI cannot stall the dispatch loop.
func (s *Station) Notify(e Event) {
	if s == nil {
		return
	}
	s.mu.RLock()
	listeners := make([]Listener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.RUnlock()

	glog.V(3).Infoln("event:", e.Type, e.Summary)
	go func() {
		for _, l := range listeners {
			l(e)
		}
	}()
}
