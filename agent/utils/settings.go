// Package utils holds the process wide settings hub.
package utils

import (
	"sync"
	"time"
)

const Version = "0.1.0"

const (
	DefaultTimeout        = 15 * time.Second
	DefaultPickupInterval = 30 * time.Second
)

// Hub is the settings object. Set once at startup, read everywhere.
type Hub struct {
	mu sync.RWMutex

	timeout        time.Duration
	pickupInterval time.Duration
	label          string
	hostAddr       string
}

var Settings = &Hub{
	timeout:        DefaultTimeout,
	pickupInterval: DefaultPickupInterval,
}

// Timeout is the bound for every outbound send; after it the send is
// abandoned and surfaced as a transient failure, there is no retry.
func (h *Hub) Timeout() time.Duration {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.timeout
}

func (h *Hub) SetTimeout(d time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.timeout = d
}

func (h *Hub) PickupInterval() time.Duration {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.pickupInterval
}

func (h *Hub) SetPickupInterval(d time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pickupInterval = d
}

func (h *Hub) Label() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.label
}

func (h *Hub) SetLabel(s string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.label = s
}

func (h *Hub) HostAddr() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.hostAddr
}

func (h *Hub) SetHostAddr(s string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hostAddr = s
}
