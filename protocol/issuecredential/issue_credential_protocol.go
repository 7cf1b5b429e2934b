// Package issuecredential implements the holder side of issue-credential
// 1.0: proposing, receiving offers, requesting and storing credentials.
package issuecredential

import (
	"encoding/json"
	"errors"

	"github.com/ayanworks/arnima-agent-go/agent/bus"
	"github.com/ayanworks/arnima-agent-go/agent/comm"
	"github.com/ayanworks/arnima-agent-go/agent/pltype"
	"github.com/ayanworks/arnima-agent-go/agent/prot"
	"github.com/ayanworks/arnima-agent-go/agent/psm"
	"github.com/ayanworks/arnima-agent-go/agent/sec"
	"github.com/ayanworks/arnima-agent-go/agent/ssi"
	"github.com/ayanworks/arnima-agent-go/std/common"
	"github.com/ayanworks/arnima-agent-go/std/issuecredential"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// ErrCredentialStoreFailed is returned when the wallet reports success but
// yields no credential ID.
var ErrCredentialStoreFailed = errors.New("credential was not stored")

func init() {
	prot.Add(pltype.IssueCredentialOffer, handleOffer)
	prot.Add(pltype.IssueCredentialIssue, handleIssue)
	prot.Add(pltype.IssueCredentialACK, handleAck)
}

// SendProposal proposes credential issuance to the issuer and records the
// exchange PROPOSAL_SENT. The proposal @id becomes the exchange thread.
func SendProposal(
	a *ssi.Agent,
	conn *psm.ConnectionRec,
	preview *issuecredential.Preview,
	schemaID, credDefID, issuerDID, comment string,
) (
	rec *psm.CredentialRec,
	err error,
) {
	defer err2.Handle(&err, "send credential proposal")

	propose := issuecredential.NewPropose(preview, schemaID, credDefID,
		issuerDID, comment)

	out := try.To1(comm.NewOutbound(conn, propose, nil))
	try.To1(comm.SendPL(sec.NewPipe(a), out))

	rec = &psm.CredentialRec{
		ID:           propose.ID,
		ConnectionID: conn.ID,
		SchemaID:     schemaID,
		CredDefID:    credDefID,
		Preview:      try.To1(json.Marshal(preview)),
		State:        pltype.StateProposalSent,
	}
	try.To(a.DB.AddCredential(rec))
	return rec, nil
}

// handleOffer records the offer and keeps the inbox entry: accepting an
// offer is always an explicit holder decision.
func handleOffer(p *prot.Packet) (keep bool, err error) {
	defer err2.Handle(&err, "handle credential offer")

	offer := &issuecredential.Offer{}
	try.To(p.Decode(offer))

	offerData := try.To1(issuecredential.OfferData(offer))
	var offerInfo struct {
		SchemaID  string `json:"schema_id"`
		CredDefID string `json:"cred_def_id"`
	}
	try.To(json.Unmarshal(offerData, &offerInfo))

	db := p.Receiver.DB
	thID := p.Header.ExchangeKey()

	// a proposal we sent earlier continues on the same thread
	rec, err := db.GetCredential(thID)
	fresh := err != nil
	if fresh {
		rec = &psm.CredentialRec{
			ID:           thID,
			ConnectionID: p.Connection.ID,
		}
	}
	rec.SchemaID = offerInfo.SchemaID
	rec.CredDefID = offerInfo.CredDefID
	rec.Offer = json.RawMessage(offerData)
	if offer.CredentialPreview != nil {
		rec.Preview = try.To1(json.Marshal(offer.CredentialPreview))
	}
	rec.State = pltype.StateOfferReceived
	if fresh {
		try.To(db.AddCredential(rec))
	} else {
		try.To(db.UpdateCredential(rec))
	}

	p.Receiver.Bus.Notify(bus.Event{
		Type:         bus.EventCredentialOffer,
		ConnectionID: p.Connection.ID,
		Summary:      "credential offer from " + p.Connection.TheirLabel,
		Payload:      rec,
	})
	return true, nil
}

// AcceptOffer builds the credential request against the ledger credential
// definition and sends it on the offer thread.
func AcceptOffer(a *ssi.Agent, thID string) (rec *psm.CredentialRec, err error) {
	defer err2.Handle(&err, "accept credential offer")

	rec = try.To1(a.DB.GetCredential(thID))
	if rec.State != pltype.StateOfferReceived {
		return nil, common.ErrInvalidMessage
	}
	conn := try.To1(a.DB.GetConnection(rec.ConnectionID))

	credDef := try.To1(a.Ledger.ReadCredDef(a.PoolH, conn.DID, rec.CredDefID))
	credReq, credReqMeta := try.To2(a.Anoncreds.CreateCredentialReq(
		a.WalletH, conn.DID, string(rec.Offer), credDef, a.MasterSecretID))

	request := issuecredential.NewRequest(thID, []byte(credReq))
	request.Transport = comm.TransportDecorator(a)

	out := try.To1(comm.NewOutbound(conn, request, nil))
	try.To1(comm.SendPL(sec.NewPipe(a), out))

	rec.Request = credReq
	rec.RequestMetadata = credReqMeta
	rec.State = pltype.StateRequestSent
	try.To(a.DB.UpdateCredential(rec))
	return rec, nil
}

// handleIssue stores the issued credential into the wallet and acks the
// issuer.
func handleIssue(p *prot.Packet) (keep bool, err error) {
	defer err2.Handle(&err, "handle credential issue")

	issue := &issuecredential.Issue{}
	try.To(p.Decode(issue))
	credData := try.To1(issuecredential.CredentialData(issue))

	a := p.Receiver
	thID := p.Header.ExchangeKey()
	rec := try.To1(a.DB.GetCredential(thID))
	conn := p.Connection

	var credInfo struct {
		RevRegID string `json:"rev_reg_id"`
	}
	try.To(json.Unmarshal(credData, &credInfo))

	revRegDef := ""
	if credInfo.RevRegID != "" {
		revRegDef = try.To1(a.Ledger.ReadRevRegDef(a.PoolH, conn.DID,
			credInfo.RevRegID))
	}

	credDef := try.To1(a.Ledger.ReadCredDef(a.PoolH, conn.DID, rec.CredDefID))
	credID := try.To1(a.Anoncreds.StoreCredential(a.WalletH,
		rec.RequestMetadata, string(credData), credDef, revRegDef))
	if credID == "" {
		return false, ErrCredentialStoreFailed
	}

	rec.CredentialID = credID
	rec.RevRegID = credInfo.RevRegID
	rec.State = pltype.StateIssued
	try.To(a.DB.UpdateCredential(rec))

	ack := common.NewAck(pltype.IssueCredentialACK, thID)
	out := try.To1(comm.NewOutbound(conn, ack, nil))
	try.To1(comm.SendPL(sec.NewPipe(a), out))

	rec.State = pltype.StateAcked
	try.To(a.DB.UpdateCredential(rec))

	a.Bus.Notify(bus.Event{
		Type:         bus.EventCredentialStored,
		ConnectionID: conn.ID,
		Summary:      "credential stored as " + credID,
		Payload:      rec,
	})
	return false, nil
}

func handleAck(p *prot.Packet) (keep bool, err error) {
	defer err2.Handle(&err, "handle credential ack")

	rec, err := p.Receiver.DB.GetCredential(p.Header.ExchangeKey())
	if err != nil {
		glog.Warningln("credential ack without a record:", p.Header.ExchangeKey())
		return false, nil
	}
	rec.State = pltype.StateAcked
	try.To(p.Receiver.DB.UpdateCredential(rec))
	return false, nil
}
