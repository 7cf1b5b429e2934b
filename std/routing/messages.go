// Package routing implements the routing 1.0 forward envelope and the
// coordinate-mediation / messagepickup 1.0 wire messages.
package routing

import (
	"encoding/json"
	"time"

	"github.com/ayanworks/arnima-agent-go/agent/pltype"
	"github.com/ayanworks/arnima-agent-go/std/decorator"
	"github.com/google/uuid"
)

// Forward is one hop of a routed message. Msg carries the previously packed
// ciphertext verbatim.
type Forward struct {
	Type string          `json:"@type,omitempty"`
	ID   string          `json:"@id,omitempty"`
	To   string          `json:"to,omitempty"`
	Msg  json.RawMessage `json:"msg,omitempty"`
}

func NewForward(to string, msg []byte) *Forward {
	return &Forward{
		Type: pltype.RoutingForward,
		ID:   uuid.New().String(),
		To:   to,
		Msg:  json.RawMessage(msg),
	}
}

type MediationRequest struct {
	Type      string               `json:"@type,omitempty"`
	ID        string               `json:"@id,omitempty"`
	SentTime  string               `json:"sent_time,omitempty"`
	L10n      *decorator.L10n      `json:"~l10n,omitempty"`
	Transport *decorator.Transport `json:"~transport,omitempty"`
}

func NewMediationRequest() *MediationRequest {
	return &MediationRequest{
		Type:     pltype.MediationRequest,
		ID:       uuid.New().String(),
		SentTime: time.Now().UTC().Format(time.RFC3339),
		L10n:     &decorator.L10n{Locale: "en"},
	}
}

type MediationGrant struct {
	Type        string            `json:"@type,omitempty"`
	ID          string            `json:"@id,omitempty"`
	Endpoint    string            `json:"endpoint,omitempty"`
	RoutingKeys []string          `json:"routing_keys,omitempty"`
	Thread      *decorator.Thread `json:"~thread,omitempty"`
}

type MediationDeny struct {
	Type   string            `json:"@type,omitempty"`
	ID     string            `json:"@id,omitempty"`
	Thread *decorator.Thread `json:"~thread,omitempty"`
}

const (
	KeyActionAdd    = "add"
	KeyActionRemove = "remove"
)

type KeyUpdate struct {
	RecipientKey string `json:"recipient_key"`
	Action       string `json:"action"`
	Result       string `json:"result,omitempty"`
}

type KeylistUpdate struct {
	Type      string               `json:"@type,omitempty"`
	ID        string               `json:"@id,omitempty"`
	Updates   []KeyUpdate          `json:"updates"`
	Transport *decorator.Transport `json:"~transport,omitempty"`
}

func NewKeylistUpdate(recipientKey string) *KeylistUpdate {
	return &KeylistUpdate{
		Type: pltype.KeylistUpdate,
		ID:   uuid.New().String(),
		Updates: []KeyUpdate{{
			RecipientKey: recipientKey,
			Action:       KeyActionAdd,
		}},
	}
}

type KeylistUpdateResponse struct {
	Type    string            `json:"@type,omitempty"`
	ID      string            `json:"@id,omitempty"`
	Updated []KeyUpdate       `json:"updated,omitempty"`
	Thread  *decorator.Thread `json:"~thread,omitempty"`
}

const DefaultBatchSize = 10

type BatchPickup struct {
	Type      string               `json:"@type,omitempty"`
	ID        string               `json:"@id,omitempty"`
	BatchSize int                  `json:"batch_size"`
	Transport *decorator.Transport `json:"~transport,omitempty"`
}

func NewBatchPickup(batchSize int) *BatchPickup {
	return &BatchPickup{
		Type:      pltype.BatchPickup,
		ID:        uuid.New().String(),
		BatchSize: batchSize,
	}
}

type BatchMessage struct {
	ID      string          `json:"id,omitempty"`
	Message json.RawMessage `json:"message"`
}

type Batch struct {
	Type     string            `json:"@type,omitempty"`
	ID       string            `json:"@id,omitempty"`
	Messages []BatchMessage    `json:"messages~attach"`
	Thread   *decorator.Thread `json:"~thread,omitempty"`
}
