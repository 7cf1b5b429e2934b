package edge

import (
	"encoding/json"
	"time"

	"github.com/ayanworks/arnima-agent-go/agent/prot"
	"github.com/ayanworks/arnima-agent-go/agent/psm"
	"github.com/ayanworks/arnima-agent-go/agent/sec"
	"github.com/ayanworks/arnima-agent-go/protocol/basicmessage"
	"github.com/ayanworks/arnima-agent-go/protocol/connection"
	"github.com/ayanworks/arnima-agent-go/protocol/issuecredential"
	"github.com/ayanworks/arnima-agent-go/protocol/mediator"
	"github.com/ayanworks/arnima-agent-go/protocol/presentproof"
	"github.com/ayanworks/arnima-agent-go/protocol/trustping"
	"github.com/ayanworks/arnima-agent-go/std/didexchange"
	stdissue "github.com/ayanworks/arnima-agent-go/std/issuecredential"
	stdproof "github.com/ayanworks/arnima-agent-go/std/presentproof"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// CreateInvitation returns the invitation URL for a new pairwise
// relationship.
func (e *Agent) CreateInvitation(alias string) (url string, conn *psm.ConnectionRec, err error) {
	defer err2.Handle(&err, "create invitation")

	inv, conn := try.To2(connection.CreateInvitation(e.ssi, alias))
	url = try.To1(didexchange.EncodeInvitationURL(inv))
	return url, conn, nil
}

// AcceptInvitation starts the handshake against a received invitation URL.
func (e *Agent) AcceptInvitation(invitationURL, alias string) (conn *psm.ConnectionRec, err error) {
	defer err2.Handle(&err, "accept invitation")

	inv := try.To1(didexchange.DecodeInvitationURL(invitationURL))
	return try.To1(connection.AcceptInvitation(e.ssi, inv, alias)), nil
}

// ConnectWithMediator runs the handshake against a mediator invitation and
// flags the connection; call RequestMediation once the handshake completes.
func (e *Agent) ConnectWithMediator(invitationURL string) (conn *psm.ConnectionRec, err error) {
	defer err2.Handle(&err, "connect with mediator")

	conn = try.To1(e.AcceptInvitation(invitationURL, "mediator"))
	conn.Mediator = true
	try.To(e.ssi.DB.UpdateConnection(conn))
	return conn, nil
}

// RequestMediation asks the connected mediator to route for us.
func (e *Agent) RequestMediation(connectionID string) (err error) {
	defer err2.Handle(&err, "request mediation")

	conn := try.To1(e.ssi.DB.GetConnection(connectionID))
	return mediator.RequestMediation(e.ssi, conn)
}

// PickupMessages polls the mediator once, outside the periodic schedule.
func (e *Agent) PickupMessages() (err error) {
	defer err2.Handle(&err, "pickup messages")

	response := try.To1(mediator.Pickup(e.ssi))
	if len(response) > 0 {
		try.To(e.loop.Add(response))
	}
	return nil
}

// PingConnection sends an explicit trust ping.
func (e *Agent) PingConnection(connectionID string) (err error) {
	defer err2.Handle(&err, "ping connection")

	conn := try.To1(e.ssi.DB.GetConnection(connectionID))
	return trustping.SendPing(e.ssi, conn)
}

// SendBasicMessage sends free text over a connection.
func (e *Agent) SendBasicMessage(connectionID, content string) (err error) {
	defer err2.Handle(&err, "send basic message")

	conn := try.To1(e.ssi.DB.GetConnection(connectionID))
	return basicmessage.SendMessage(e.ssi, conn, content)
}

// ProposeCredential proposes credential issuance to the connected issuer.
func (e *Agent) ProposeCredential(
	connectionID string,
	attributes []stdissue.PreviewAttribute,
	schemaID, credDefID, issuerDID, comment string,
) (
	rec *psm.CredentialRec,
	err error,
) {
	defer err2.Handle(&err, "propose credential")

	conn := try.To1(e.ssi.DB.GetConnection(connectionID))
	return issuecredential.SendProposal(e.ssi, conn,
		stdissue.NewPreview(attributes), schemaID, credDefID, issuerDID, comment)
}

// AcceptCredentialOffer answers a retained offer with a credential request.
func (e *Agent) AcceptCredentialOffer(thID string) (*psm.CredentialRec, error) {
	return issuecredential.AcceptOffer(e.ssi, thID)
}

// ProposePresentation proposes what we are willing to prove.
func (e *Agent) ProposePresentation(
	connectionID string,
	attributes []stdproof.PreviewAttribute,
	comment string,
) (
	rec *psm.PresentationRec,
	err error,
) {
	defer err2.Handle(&err, "propose presentation")

	conn := try.To1(e.ssi.DB.GetConnection(connectionID))
	return presentproof.SendProposal(e.ssi, conn,
		stdproof.NewPreview(attributes), comment)
}

// RequestPresentation sends a proof request as verifier.
func (e *Agent) RequestPresentation(connectionID string, proofReq []byte, comment string) (rec *psm.PresentationRec, err error) {
	defer err2.Handle(&err, "request presentation")

	conn := try.To1(e.ssi.DB.GetConnection(connectionID))
	return presentproof.RequestPresentation(e.ssi, conn, proofReq, comment)
}

// SendProof answers a retained proof request with a presentation. A nil
// selection picks the first matching credential per referent.
func (e *Agent) SendProof(thID string, reveal bool, selection []stdproof.PreviewAttribute) (*psm.PresentationRec, error) {
	return presentproof.CreatePresentation(e.ssi, thID, reveal, selection)
}

// ActionMessage is one retained inbox entry waiting for a holder decision.
type ActionMessage struct {
	EntryID  string
	Type     string
	ThID     string
	Received time.Time
}

// GetActionMessages lists the pending offers and proof requests the holder
// still has to act on.
func (e *Agent) GetActionMessages() (messages []ActionMessage, err error) {
	defer err2.Handle(&err, "action messages")

	pipe := sec.NewPipe(e.ssi)
	entries := try.To1(e.ssi.DB.ActionInbox())

	messages = make([]ActionMessage, 0, len(entries))
	for _, entry := range entries {
		unpacked := try.To1(pipe.Unpack(entry.Message))

		var header prot.Header
		try.To(json.Unmarshal(unpacked.Message, &header))

		messages = append(messages, ActionMessage{
			EntryID:  entry.ID,
			Type:     header.Type,
			ThID:     entry.ThID,
			Received: entry.CreatedAt,
		})
	}
	return messages, nil
}

// DismissActionMessage drops a retained entry without acting on it.
func (e *Agent) DismissActionMessage(entryID string) error {
	return e.ssi.DB.DeleteInbox(entryID)
}
