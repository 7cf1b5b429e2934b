// Package connection implements the connections 1.0 handshake for both
// roles: inviter (create invitation, answer the request with a signed
// response) and invitee (accept invitation, verify the response).
package connection

import (
	"github.com/ayanworks/arnima-agent-go/agent/bus"
	"github.com/ayanworks/arnima-agent-go/agent/comm"
	"github.com/ayanworks/arnima-agent-go/agent/pltype"
	"github.com/ayanworks/arnima-agent-go/agent/prot"
	"github.com/ayanworks/arnima-agent-go/agent/psm"
	"github.com/ayanworks/arnima-agent-go/agent/sec"
	"github.com/ayanworks/arnima-agent-go/agent/ssi"
	"github.com/ayanworks/arnima-agent-go/protocol/mediator"
	"github.com/ayanworks/arnima-agent-go/protocol/trustping"
	"github.com/ayanworks/arnima-agent-go/std/common"
	"github.com/ayanworks/arnima-agent-go/std/decorator"
	"github.com/ayanworks/arnima-agent-go/std/did"
	"github.com/ayanworks/arnima-agent-go/std/didexchange"
	"github.com/golang/glog"
	"github.com/google/uuid"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

func init() {
	prot.Add(pltype.AriesConnectionRequest, handleRequest)
	prot.Add(pltype.AriesConnectionResponse, handleResponse)
}

// CreateInvitation builds an invitation around a fresh pairwise key and
// stores the connection INVITED. The new key is registered with the mediator
// so forwarded requests reach us.
func CreateInvitation(a *ssi.Agent, alias string) (inv *didexchange.Invitation, conn *psm.ConnectionRec, err error) {
	defer err2.Handle(&err, "create invitation")

	pwDID, verKey := try.To2(a.Wallet.CreateDID(a.WalletH, ""))
	mediator.AddKey(a, verKey)

	inv = &didexchange.Invitation{
		Type:            pltype.AriesConnectionInvitation,
		ID:              uuid.New().String(),
		Label:           a.Label,
		RecipientKeys:   []string{verKey},
		RoutingKeys:     a.RoutingKeys(),
		ServiceEndpoint: a.Endpoint(),
	}

	conn = &psm.ConnectionRec{
		ID:         uuid.New().String(),
		DID:        pwDID,
		VerKey:     verKey,
		DIDDoc:     did.NewDoc(pwDID, verKey, a.Endpoint(), a.RoutingKeys()),
		Invitation: inv,
		Alias:      alias,
		State:      pltype.StateInit,
	}
	try.To(a.DB.AddConnection(conn))

	conn.State = pltype.StateInvited
	try.To(a.DB.UpdateConnection(conn))
	return inv, conn, nil
}

// AcceptInvitation starts the invitee side: a fresh pairwise DID, a
// connection request towards the inviter, and a REQUESTED record. The
// request @id is the thread the inviter's response comes back on.
func AcceptInvitation(a *ssi.Agent, inv *didexchange.Invitation, alias string) (conn *psm.ConnectionRec, err error) {
	defer err2.Handle(&err, "accept invitation")

	pwDID, verKey := try.To2(a.Wallet.CreateDID(a.WalletH, ""))
	mediator.AddKey(a, verKey)

	doc := did.NewDoc(pwDID, verKey, a.Endpoint(), a.RoutingKeys())
	request := &didexchange.Request{
		Type:  pltype.AriesConnectionRequest,
		ID:    uuid.New().String(),
		Label: a.Label,
		Connection: &didexchange.Connection{
			DID:    pwDID,
			DIDDoc: doc,
		},
		Transport: comm.TransportDecorator(a),
	}

	conn = &psm.ConnectionRec{
		ID:         uuid.New().String(),
		DID:        pwDID,
		VerKey:     verKey,
		DIDDoc:     doc,
		TheirLabel: inv.Label,
		Invitation: inv,
		Alias:      alias,
		State:      pltype.StateInit,
	}
	try.To(a.DB.AddConnection(conn))

	// a failed send leaves the record in INIT, never REQUESTED
	out := try.To1(comm.NewOutbound(conn, request, inv))
	try.To1(comm.SendPL(sec.NewPipe(a), out))

	conn.State = pltype.StateRequested
	try.To(a.DB.UpdateConnection(conn))
	return conn, nil
}

// handleRequest runs on the inviter: store the counterparty document and
// answer with a response signed by the invitation key.
func handleRequest(p *prot.Packet) (keep bool, err error) {
	defer err2.Handle(&err, "handle connection request")

	request := &didexchange.Request{}
	try.To(p.Decode(request))

	if request.Connection == nil || request.Connection.DIDDoc == nil {
		return false, common.ErrInvalidMessage
	}
	theirKeys := request.Connection.DIDDoc.RecipientKeys()
	if len(theirKeys) == 0 {
		return false, comm.ErrMissingRecipientKeys
	}

	conn := p.Connection
	conn.TheirDID = request.Connection.DID
	conn.TheirDIDDoc = request.Connection.DIDDoc
	conn.TheirVerKey = theirKeys[0]
	conn.TheirLabel = request.Label
	conn.State = pltype.StateResponded
	try.To(p.Receiver.DB.UpdateConnection(conn))

	// the invitation key signs so the invitee can tie the response to the
	// invitation it acted on
	signature := try.To1(didexchange.SignConnection(
		p.Receiver.Crypto, p.Receiver.WalletH, conn.VerKey,
		&didexchange.Connection{DID: conn.DID, DIDDoc: conn.DIDDoc}))

	response := &didexchange.Response{
		Type:                pltype.AriesConnectionResponse,
		ID:                  uuid.New().String(),
		Thread:              &decorator.Thread{ID: p.Header.ExchangeKey()},
		ConnectionSignature: signature,
		Transport:           comm.TransportDecorator(p.Receiver),
	}

	out := try.To1(comm.NewOutbound(conn, response, nil))
	try.To1(comm.SendPL(sec.NewPipe(p.Receiver), out))
	return false, nil
}

// handleResponse runs on the invitee: verify the signature, complete the
// record, and confirm with a trust ping.
func handleResponse(p *prot.Packet) (keep bool, err error) {
	defer err2.Handle(&err, "handle connection response")

	response := &didexchange.Response{}
	try.To(p.Decode(response))

	if response.ConnectionSignature == nil {
		return false, common.ErrInvalidMessage
	}
	connection := try.To1(response.ConnectionSignature.Verify(p.Receiver.Crypto))

	conn := p.Connection
	if inv := conn.Invitation; inv != nil &&
		!keyListed(inv.RecipientKeys, response.ConnectionSignature.SignVerKey) {
		glog.Warningln("response signer is not an invitation key:",
			response.ConnectionSignature.SignVerKey)
		return false, didexchange.ErrSignatureInvalid
	}

	if connection.DIDDoc == nil {
		return false, common.ErrInvalidMessage
	}
	theirKeys := connection.DIDDoc.RecipientKeys()
	if len(theirKeys) == 0 {
		return false, comm.ErrMissingRecipientKeys
	}

	conn.TheirDID = connection.DID
	conn.TheirDIDDoc = connection.DIDDoc
	conn.TheirVerKey = theirKeys[0]
	conn.State = pltype.StateComplete
	try.To(p.Receiver.DB.UpdateConnection(conn))

	p.Receiver.Bus.Notify(bus.Event{
		Type:         bus.EventConnectionCompleted,
		ConnectionID: conn.ID,
		Summary:      "connection with " + conn.TheirLabel + " is ready",
		Payload:      conn,
	})

	try.To(trustping.SendPing(p.Receiver, conn))
	return false, nil
}

func keyListed(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}
