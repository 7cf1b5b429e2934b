// Package trustping implements the trust_ping 1.0 wire messages.
package trustping

import (
	"github.com/ayanworks/arnima-agent-go/agent/pltype"
	"github.com/ayanworks/arnima-agent-go/std/decorator"
	"github.com/google/uuid"
)

type Ping struct {
	Type              string               `json:"@type,omitempty"`
	ID                string               `json:"@id,omitempty"`
	Comment           string               `json:"comment,omitempty"`
	ResponseRequested bool                 `json:"response_requested"`
	Thread            *decorator.Thread    `json:"~thread,omitempty"`
	Transport         *decorator.Transport `json:"~transport,omitempty"`
}

type Response struct {
	Type      string               `json:"@type,omitempty"`
	ID        string               `json:"@id,omitempty"`
	Comment   string               `json:"comment,omitempty"`
	Thread    *decorator.Thread    `json:"~thread,omitempty"`
	Transport *decorator.Transport `json:"~transport,omitempty"`
}

func NewPing(responseRequested bool) *Ping {
	return &Ping{
		Type:              pltype.TrustPingPing,
		ID:                uuid.New().String(),
		ResponseRequested: responseRequested,
	}
}

func NewResponse(thid string) *Response {
	return &Response{
		Type:   pltype.TrustPingResponse,
		ID:     uuid.New().String(),
		Thread: decorator.NewThread(thid, ""),
	}
}
