package common

import (
	"errors"

	"github.com/ayanworks/arnima-agent-go/std/decorator"
	"github.com/google/uuid"
)

// ErrInvalidMessage is returned when an inbound message lacks a field the
// protocol requires.
var ErrInvalidMessage = errors.New("invalid message")

type Ack struct {
	Type   string            `json:"@type,omitempty"`
	ID     string            `json:"@id,omitempty"`
	Status string            `json:"status,omitempty"`
	Thread *decorator.Thread `json:"~thread,omitempty"`
}

func NewAck(typeID, thid string) *Ack {
	return &Ack{
		Type:   typeID,
		ID:     uuid.New().String(),
		Status: "OK",
		Thread: decorator.NewThread(thid, ""),
	}
}

type ProblemReport struct {
	Type        string            `json:"@type,omitempty"`
	ID          string            `json:"@id,omitempty"`
	Thread      *decorator.Thread `json:"~thread,omitempty"`
	Description *Description      `json:"description,omitempty"`
	ExplainLtxt string            `json:"explain-ltxt,omitempty"`
}

type Description struct {
	Code string `json:"code,omitempty"`
	En   string `json:"en,omitempty"`
}
