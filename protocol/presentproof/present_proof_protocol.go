// Package presentproof implements present-proof 1.0 for both roles: the
// holder side with automatic credential selection, and the verifier side
// gathering ledger artifacts for proof verification.
package presentproof

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ayanworks/arnima-agent-go/agent/bus"
	"github.com/ayanworks/arnima-agent-go/agent/comm"
	"github.com/ayanworks/arnima-agent-go/agent/pltype"
	"github.com/ayanworks/arnima-agent-go/agent/prot"
	"github.com/ayanworks/arnima-agent-go/agent/psm"
	"github.com/ayanworks/arnima-agent-go/agent/sec"
	"github.com/ayanworks/arnima-agent-go/agent/ssi"
	"github.com/ayanworks/arnima-agent-go/std/common"
	"github.com/ayanworks/arnima-agent-go/std/presentproof"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// ErrNoMatchingCredential is returned when the wallet holds no credential
// satisfying a proof request referent.
var ErrNoMatchingCredential = errors.New("no matching credential")

// fetchPage bounds one chunk of the paged wallet credential search.
const fetchPage = 50

// autoAcceptTag in a request comment marks the request as fully automated;
// no holder interaction is needed before presenting.
const autoAcceptTag = "auto-accept"

func init() {
	prot.Add(pltype.PresentProofRequest, handleRequest)
	prot.Add(pltype.PresentProofPresentation, handlePresentation)
	prot.Add(pltype.PresentProofACK, handleAck)
}

// SendProposal proposes a presentation to the verifier. The proposal preview
// doubles as the credential selection when the request comes back.
func SendProposal(
	a *ssi.Agent,
	conn *psm.ConnectionRec,
	preview *presentproof.Preview,
	comment string,
) (
	rec *psm.PresentationRec,
	err error,
) {
	defer err2.Handle(&err, "send presentation proposal")

	propose := presentproof.NewPropose(preview, comment)

	out := try.To1(comm.NewOutbound(conn, propose, nil))
	try.To1(comm.SendPL(sec.NewPipe(a), out))

	rec = &psm.PresentationRec{
		ID:           propose.ID,
		ConnectionID: conn.ID,
		Proposal:     try.To1(json.Marshal(preview)),
		State:        pltype.StateProposalSent,
	}
	try.To(a.DB.AddPresentation(rec))
	return rec, nil
}

// RequestPresentation sends a proof request as verifier and records the
// exchange REQUEST_SENT keyed by the request @id.
func RequestPresentation(
	a *ssi.Agent,
	conn *psm.ConnectionRec,
	proofReq []byte,
	comment string,
) (
	rec *psm.PresentationRec,
	err error,
) {
	defer err2.Handle(&err, "request presentation")

	request := presentproof.NewRequest(proofReq, comment)
	request.Transport = comm.TransportDecorator(a)

	out := try.To1(comm.NewOutbound(conn, request, nil))
	try.To1(comm.SendPL(sec.NewPipe(a), out))

	rec = &psm.PresentationRec{
		ID:           request.ID,
		ConnectionID: conn.ID,
		ProofRequest: json.RawMessage(proofReq),
		State:        pltype.StateRequestSent,
	}
	try.To(a.DB.AddPresentation(rec))
	return rec, nil
}

// handleRequest records the proof request. Auto-accept requests flow
// straight into presentation creation; everything else waits for an explicit
// holder decision.
func handleRequest(p *prot.Packet) (keep bool, err error) {
	defer err2.Handle(&err, "handle presentation request")

	request := &presentproof.Request{}
	try.To(p.Decode(request))
	reqData := try.To1(presentproof.RequestData(request))

	db := p.Receiver.DB
	thID := p.Header.ExchangeKey()

	rec, err := db.GetPresentation(thID)
	fresh := err != nil
	if fresh {
		rec = &psm.PresentationRec{
			ID:           thID,
			ConnectionID: p.Connection.ID,
		}
	}
	rec.ProofRequest = json.RawMessage(reqData)
	rec.State = pltype.StateRequestReceived
	if fresh {
		try.To(db.AddPresentation(rec))
	} else {
		try.To(db.UpdatePresentation(rec))
	}

	if autoAccept(request.Comment) {
		_ = try.To1(CreatePresentation(p.Receiver, thID, true, nil))
		return false, nil
	}

	p.Receiver.Bus.Notify(bus.Event{
		Type:         bus.EventPresentationRequest,
		ConnectionID: p.Connection.ID,
		Summary:      "proof requested by " + p.Connection.TheirLabel,
		Payload:      rec,
	})
	return true, nil
}

// autoAccept recognizes the two comment forms that bypass holder
// interaction: the plain automation tag and the passwordless-auth payload.
func autoAccept(comment string) bool {
	if comment == autoAcceptTag {
		return true
	}
	var payload struct {
		AuthType string `json:"authType"`
	}
	if err := json.Unmarshal([]byte(comment), &payload); err != nil {
		return false
	}
	return payload.AuthType == "passwordless"
}

// CreatePresentation selects credentials for every referent of the recorded
// proof request, assembles the proof and sends it on the request thread.
// With no explicit selection the record's earlier proposal preview is used;
// with neither, the first matching credential wins.
func CreatePresentation(
	a *ssi.Agent,
	thID string,
	reveal bool,
	selection []presentproof.PreviewAttribute,
) (
	rec *psm.PresentationRec,
	err error,
) {
	defer err2.Handle(&err, "create presentation")

	rec = try.To1(a.DB.GetPresentation(thID))
	conn := try.To1(a.DB.GetConnection(rec.ConnectionID))

	var proofReq ProofRequest
	try.To(json.Unmarshal(rec.ProofRequest, &proofReq))

	if selection == nil && len(rec.Proposal) > 0 {
		preview := &presentproof.Preview{}
		try.To(json.Unmarshal(rec.Proposal, preview))
		selection = preview.Attributes
	}

	search := try.To1(a.Anoncreds.SearchCredentialsForProofReq(a.WalletH,
		string(rec.ProofRequest)))
	defer func() {
		if err := a.Anoncreds.CloseCredentialsSearch(search); err != nil {
			glog.Warningln("closing credential search:", err)
		}
	}()

	requested := newRequestedCredentials()
	schemas := make(map[string]json.RawMessage)
	credDefs := make(map[string]json.RawMessage)
	revStates := make(map[string]map[string]json.RawMessage)

	// non-revocation states are expensive to build, one per registry is
	// enough for the whole presentation
	revCache := make(map[string]revState)

	pick := func(referent string, names []string, interval *NonRevoked) (info CredInfo, ts *int64, err error) {
		defer err2.Handle(&err, "referent %s", referent)

		creds := try.To1(fetchCredentials(a, search, referent))
		chosen, found := chooseCredential(creds, names, selection)
		if !found {
			return CredInfo{}, nil, ErrNoMatchingCredential
		}

		if interval == nil {
			interval = proofReq.NonRevoked
		}
		if interval != nil && chosen.RevRegID != "" {
			state := try.To1(nonRevocationState(a, conn, chosen, interval, revCache))
			if revStates[chosen.RevRegID] == nil {
				revStates[chosen.RevRegID] = make(map[string]json.RawMessage)
			}
			revStates[chosen.RevRegID][strconv.FormatInt(state.timestamp, 10)] =
				json.RawMessage(state.stateJSON)
			ts = &state.timestamp
		}

		if _, ok := schemas[chosen.SchemaID]; !ok {
			schemas[chosen.SchemaID] = json.RawMessage(
				try.To1(a.Ledger.ReadSchema(a.PoolH, conn.DID, chosen.SchemaID)))
		}
		if _, ok := credDefs[chosen.CredDefID]; !ok {
			credDefs[chosen.CredDefID] = json.RawMessage(
				try.To1(a.Ledger.ReadCredDef(a.PoolH, conn.DID, chosen.CredDefID)))
		}
		return chosen, ts, nil
	}

	for referent, attr := range proofReq.RequestedAttributes {
		info, ts := try.To2(pick(referent, attr.attrNames(), attr.NonRevoked))
		requested.RequestedAttributes[referent] = requestedAttr{
			CredID:    info.Referent,
			Revealed:  reveal,
			Timestamp: ts,
		}
	}
	for referent, pred := range proofReq.RequestedPredicates {
		info, ts := try.To2(pick(referent, []string{pred.Name}, pred.NonRevoked))
		requested.RequestedPredicates[referent] = requestedPred{
			CredID:    info.Referent,
			Timestamp: ts,
		}
	}

	proof := try.To1(a.Anoncreds.CreateProof(a.WalletH,
		string(rec.ProofRequest),
		string(try.To1(json.Marshal(requested))),
		a.MasterSecretID,
		try.To1(jsonByID(schemas)),
		try.To1(jsonByID(credDefs)),
		string(try.To1(json.Marshal(revStates)))))

	presentation := presentproof.NewPresentation(thID, []byte(proof))
	presentation.Transport = comm.TransportDecorator(a)

	out := try.To1(comm.NewOutbound(conn, presentation, nil))
	try.To1(comm.SendPL(sec.NewPipe(a), out))

	rec.Presentation = json.RawMessage(proof)
	rec.State = pltype.StatePresentationSent
	try.To(a.DB.UpdatePresentation(rec))
	return rec, nil
}

func fetchCredentials(a *ssi.Agent, search int, referent string) (creds []Credential, err error) {
	defer err2.Handle(&err, "fetch credentials")

	for {
		batchJSON := try.To1(a.Anoncreds.FetchCredentialsForProofReq(
			search, referent, fetchPage))

		batch := make([]Credential, 0, fetchPage)
		try.To(json.Unmarshal([]byte(batchJSON), &batch))
		creds = append(creds, batch...)

		if len(batch) < fetchPage {
			return creds, nil
		}
	}
}

// chooseCredential returns the first candidate the selection allows. An
// empty selection accepts the first candidate outright.
func chooseCredential(
	creds []Credential,
	names []string,
	selection []presentproof.PreviewAttribute,
) (
	info CredInfo,
	found bool,
) {
	for _, c := range creds {
		if matchesSelection(c.CredInfo, names, selection) {
			return c.CredInfo, true
		}
	}
	return CredInfo{}, false
}

// matchesSelection requires every requested name to be vouched for by a
// selection entry; a credential no entry covers is rejected.
func matchesSelection(
	info CredInfo,
	names []string,
	selection []presentproof.PreviewAttribute,
) bool {
	if len(selection) == 0 {
		return true
	}
	for _, name := range names {
		if !nameCovered(info, name, selection) {
			return false
		}
	}
	return true
}

func nameCovered(
	info CredInfo,
	name string,
	selection []presentproof.PreviewAttribute,
) bool {
	for _, sel := range selection {
		if sel.Name != name {
			continue
		}
		if sel.CredDefID != "" && sel.CredDefID != info.CredDefID {
			continue
		}
		if sel.Value != "" && info.Attrs[name] != sel.Value {
			continue
		}
		return true
	}
	return false
}

type revState struct {
	stateJSON string
	timestamp int64
}

func nonRevocationState(
	a *ssi.Agent,
	conn *psm.ConnectionRec,
	info CredInfo,
	interval *NonRevoked,
	cache map[string]revState,
) (
	state revState,
	err error,
) {
	defer err2.Handle(&err, "non-revocation state")

	if state, ok := cache[info.RevRegID]; ok {
		return state, nil
	}

	to := interval.To
	if to == 0 {
		to = time.Now().Unix()
	}

	revRegDef := try.To1(a.Ledger.ReadRevRegDef(a.PoolH, conn.DID, info.RevRegID))
	delta, timestamp := try.To2(a.Ledger.ReadRevRegDelta(a.PoolH, conn.DID,
		info.RevRegID, interval.From, to))
	stateJSON := try.To1(a.Anoncreds.CreateRevocationState(revRegDef, delta,
		timestamp, info.CredRevID))

	state = revState{stateJSON: stateJSON, timestamp: timestamp}
	cache[info.RevRegID] = state
	return state, nil
}

// handlePresentation runs on the verifier: gather the ledger artifacts the
// proof identifiers reference and verify.
func handlePresentation(p *prot.Packet) (keep bool, err error) {
	defer err2.Handle(&err, "handle presentation")

	presentation := &presentproof.Presentation{}
	try.To(p.Decode(presentation))
	proofData := try.To1(presentproof.PresentationData(presentation))

	a := p.Receiver
	thID := p.Header.ExchangeKey()
	rec := try.To1(a.DB.GetPresentation(thID))
	conn := p.Connection

	// a failed verification leaves the record here, never VERIFIED
	rec.Presentation = json.RawMessage(proofData)
	rec.State = pltype.StatePresentationReceived
	try.To(a.DB.UpdatePresentation(rec))

	var proof struct {
		Identifiers []struct {
			SchemaID  string `json:"schema_id"`
			CredDefID string `json:"cred_def_id"`
			RevRegID  string `json:"rev_reg_id,omitempty"`
			Timestamp *int64 `json:"timestamp,omitempty"`
		} `json:"identifiers"`
	}
	try.To(json.Unmarshal(proofData, &proof))

	schemas := make(map[string]json.RawMessage)
	credDefs := make(map[string]json.RawMessage)
	revRegDefs := make(map[string]json.RawMessage)
	revRegs := make(map[string]map[string]json.RawMessage)

	for _, ident := range proof.Identifiers {
		if _, ok := schemas[ident.SchemaID]; !ok {
			schemas[ident.SchemaID] = json.RawMessage(
				try.To1(a.Ledger.ReadSchema(a.PoolH, conn.DID, ident.SchemaID)))
		}
		if _, ok := credDefs[ident.CredDefID]; !ok {
			credDefs[ident.CredDefID] = json.RawMessage(
				try.To1(a.Ledger.ReadCredDef(a.PoolH, conn.DID, ident.CredDefID)))
		}
		if ident.RevRegID == "" || ident.Timestamp == nil {
			continue
		}
		if _, ok := revRegDefs[ident.RevRegID]; !ok {
			revRegDefs[ident.RevRegID] = json.RawMessage(
				try.To1(a.Ledger.ReadRevRegDef(a.PoolH, conn.DID, ident.RevRegID)))
		}
		reg, timestamp := try.To2(a.Ledger.ReadRevReg(a.PoolH, conn.DID,
			ident.RevRegID, *ident.Timestamp))
		if revRegs[ident.RevRegID] == nil {
			revRegs[ident.RevRegID] = make(map[string]json.RawMessage)
		}
		revRegs[ident.RevRegID][strconv.FormatInt(timestamp, 10)] =
			json.RawMessage(reg)
	}

	ok := try.To1(a.Anoncreds.VerifyProof(
		string(rec.ProofRequest),
		string(proofData),
		try.To1(jsonByID(schemas)),
		try.To1(jsonByID(credDefs)),
		try.To1(jsonByID(revRegDefs)),
		string(try.To1(json.Marshal(revRegs)))))

	rec.Verified = ok
	rec.State = pltype.StateVerified
	try.To(a.DB.UpdatePresentation(rec))

	ack := common.NewAck(pltype.PresentProofACK, thID)
	out := try.To1(comm.NewOutbound(conn, ack, nil))
	try.To1(comm.SendPL(sec.NewPipe(a), out))

	a.Bus.Notify(bus.Event{
		Type:         bus.EventPresentationVerified,
		ConnectionID: conn.ID,
		Summary:      fmt.Sprintf("presentation verified: %v", ok),
		Payload:      rec,
	})
	return false, nil
}

func handleAck(p *prot.Packet) (keep bool, err error) {
	defer err2.Handle(&err, "handle presentation ack")

	rec, err := p.Receiver.DB.GetPresentation(p.Header.ExchangeKey())
	if err != nil {
		glog.Warningln("presentation ack without a record:", p.Header.ExchangeKey())
		return false, nil
	}
	rec.State = pltype.StateAcked
	try.To(p.Receiver.DB.UpdatePresentation(rec))
	return false, nil
}
