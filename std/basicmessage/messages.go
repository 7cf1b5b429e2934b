// Package basicmessage implements the basicmessage 1.0 wire message.
package basicmessage

import (
	"time"

	"github.com/ayanworks/arnima-agent-go/agent/pltype"
	"github.com/ayanworks/arnima-agent-go/std/decorator"
	"github.com/google/uuid"
)

type Message struct {
	Type     string            `json:"@type,omitempty"`
	ID       string            `json:"@id,omitempty"`
	SentTime string            `json:"sent_time,omitempty"`
	Content  string            `json:"content,omitempty"`
	L10n     *decorator.L10n   `json:"~l10n,omitempty"`
	Thread   *decorator.Thread `json:"~thread,omitempty"`
}

func New(content string) *Message {
	return &Message{
		Type:     pltype.BasicMessage,
		ID:       uuid.New().String(),
		SentTime: time.Now().UTC().Format(time.RFC3339),
		Content:  content,
		L10n:     &decorator.L10n{Locale: "en"},
	}
}
