// Package decorator implements Aries message decorators: ~thread, ~transport
// and ~l10n.
package decorator

// Thread is the ~thread decorator which correlates a message to the exchange
// it continues.
type Thread struct {
	ID  string `json:"thid,omitempty"`
	PID string `json:"pthid,omitempty"`
}

// Transport is the ~transport decorator. ReturnRouteAll asks the counterparty
// to inline its reply on the same channel instead of opening a new one.
type Transport struct {
	ReturnRoute string `json:"return_route,omitempty"`
}

// L10n is the ~l10n decorator.
type L10n struct {
	Locale string `json:"locale,omitempty"`
}

const ReturnRouteAll = "all"

func NewThread(ID, PID string) *Thread {
	return &Thread{ID: ID, PID: PID}
}

func ReturnRoute() *Transport {
	return &Transport{ReturnRoute: ReturnRouteAll}
}

// ExchangeKey is the correlation key every state machine uses for record
// lookups: the thread ID when one exists, the message ID otherwise. Create
// and update paths must key records through this one function.
func ExchangeKey(thread *Thread, msgID string) string {
	if thread != nil && thread.ID != "" {
		return thread.ID
	}
	return msgID
}
