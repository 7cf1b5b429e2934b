// Package comm builds outbound envelopes and sends them over HTTP.
package comm

import (
	"github.com/ayanworks/arnima-agent-go/agent/psm"
	"github.com/ayanworks/arnima-agent-go/agent/ssi"
	"github.com/ayanworks/arnima-agent-go/std/common"
	"github.com/ayanworks/arnima-agent-go/std/decorator"
	"github.com/ayanworks/arnima-agent-go/std/didexchange"
)

// Outbound is one message ready for packing: the payload plus the resolved
// keys and endpoint of the counterparty.
type Outbound struct {
	Connection    *psm.ConnectionRec
	Payload       interface{}
	Endpoint      string
	RecipientKeys []string
	RoutingKeys   []string
	SenderVerKey  string
}

// NewOutbound resolves the counterparty endpoint and keys from the
// connection's view of their DID document. An invitation override is used
// before the handshake has given us their document.
func NewOutbound(
	conn *psm.ConnectionRec,
	payload interface{},
	invitation *didexchange.Invitation,
) (
	out *Outbound,
	err error,
) {
	out = &Outbound{
		Connection:   conn,
		Payload:      payload,
		SenderVerKey: conn.VerKey,
	}

	if invitation != nil {
		out.Endpoint = invitation.ServiceEndpoint
		out.RecipientKeys = invitation.RecipientKeys
		out.RoutingKeys = invitation.RoutingKeys
		return out, nil
	}

	if conn.TheirDIDDoc == nil {
		return nil, common.ErrInvalidMessage
	}
	out.Endpoint = conn.TheirDIDDoc.Endpoint()
	out.RecipientKeys = conn.TheirDIDDoc.RecipientKeys()
	out.RoutingKeys = conn.TheirDIDDoc.RoutingKeys()
	if len(out.RecipientKeys) == 0 {
		return nil, ErrMissingRecipientKeys
	}
	return out, nil
}

// TransportDecorator returns the ~transport decorator an outbound payload
// must carry when our own endpoint is the pick-up-later queue: the
// counterparty inlines its reply on the HTTP response instead of opening a
// channel towards us.
func TransportDecorator(a *ssi.Agent) *decorator.Transport {
	if a.Endpoint() == ssi.QueueEndpoint || a.Endpoint() == "" {
		return decorator.ReturnRoute()
	}
	return nil
}
