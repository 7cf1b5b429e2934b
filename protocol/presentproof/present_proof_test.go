package presentproof

import (
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/ayanworks/arnima-agent-go/agent/bus"
	"github.com/ayanworks/arnima-agent-go/agent/comm"
	"github.com/ayanworks/arnima-agent-go/agent/pltype"
	"github.com/ayanworks/arnima-agent-go/agent/prot"
	"github.com/ayanworks/arnima-agent-go/agent/psm"
	"github.com/ayanworks/arnima-agent-go/agent/ssi"
	"github.com/ayanworks/arnima-agent-go/std/common"
	"github.com/ayanworks/arnima-agent-go/std/did"
	"github.com/ayanworks/arnima-agent-go/std/presentproof"
	"github.com/hyperledger/aries-framework-go/component/storageutil/mem"
	"github.com/lainio/err2/assert"
	"github.com/lainio/err2/try"
)

type envelope struct {
	Sender     string          `json:"sender"`
	Recipients []string        `json:"recipients"`
	Msg        json.RawMessage `json:"msg"`
}

type fakeCrypto struct{}

func (fakeCrypto) Pack(_ int, senderVK string, msg []byte, recipientKeys ...string) ([]byte, error) {
	return json.Marshal(envelope{
		Sender:     senderVK,
		Recipients: recipientKeys,
		Msg:        json.RawMessage(msg),
	})
}

func (fakeCrypto) Unpack(_ int, data []byte) (*ssi.Unpacked, error) {
	var e envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &ssi.Unpacked{
		Message:         e.Msg,
		SenderVerKey:    e.Sender,
		RecipientVerKey: e.Recipients[0],
	}, nil
}

func (fakeCrypto) SignMsg(_ int, verKey string, msg []byte) ([]byte, error) {
	return append([]byte(verKey+":"), msg...), nil
}

func (fakeCrypto) VerifySignature(string, []byte, []byte) (bool, error) {
	return true, nil
}

type fakeLedger struct {
	ssi.Ledger

	deltaReads int
}

func (*fakeLedger) ReadSchema(_ int, _, id string) (string, error) {
	return `{"schema":"` + id + `"}`, nil
}

func (*fakeLedger) ReadCredDef(_ int, _, id string) (string, error) {
	return `{"credDef":"` + id + `"}`, nil
}

func (*fakeLedger) ReadRevRegDef(_ int, _, id string) (string, error) {
	return `{"revRegDef":"` + id + `"}`, nil
}

func (l *fakeLedger) ReadRevRegDelta(_ int, _, _ string, _, _ int64) (string, int64, error) {
	l.deltaReads++
	return `{"delta":true}`, 777, nil
}

func (*fakeLedger) ReadRevReg(_ int, _, id string, _ int64) (string, int64, error) {
	return `{"revReg":"` + id + `"}`, 777, nil
}

type proofCall struct {
	proofReq       string
	requestedCreds string
	revStates      string
}

type fakeAnoncreds struct {
	ssi.Anoncreds

	credsByReferent map[string][]Credential
	revStateCalls   int
	verifyResult    bool
	verifyErr       error

	proofCalls  []proofCall
	verifyCalls int
}

func (*fakeAnoncreds) SearchCredentialsForProofReq(int, string) (int, error) {
	return 7, nil
}

func (c *fakeAnoncreds) FetchCredentialsForProofReq(_ int, referent string, _ int) (string, error) {
	data, err := json.Marshal(c.credsByReferent[referent])
	return string(data), err
}

func (*fakeAnoncreds) CloseCredentialsSearch(int) error { return nil }

func (c *fakeAnoncreds) CreateProof(_ int, proofReq, requestedCreds, _, _, _, revStates string) (string, error) {
	c.proofCalls = append(c.proofCalls, proofCall{
		proofReq:       proofReq,
		requestedCreds: requestedCreds,
		revStates:      revStates,
	})
	return `{"proof":true,"identifiers":[]}`, nil
}

func (c *fakeAnoncreds) CreateRevocationState(string, string, int64, string) (string, error) {
	c.revStateCalls++
	return `{"revState":true}`, nil
}

func (c *fakeAnoncreds) VerifyProof(string, string, string, string, string, string) (bool, error) {
	c.verifyCalls++
	if c.verifyErr != nil {
		return false, c.verifyErr
	}
	return c.verifyResult, nil
}

func newTestAgent(t *testing.T, creds *fakeAnoncreds, ledger *fakeLedger) (*ssi.Agent, *psm.ConnectionRec) {
	t.Helper()

	db := try.To1(psm.Open(mem.NewProvider()))
	a := &ssi.Agent{
		Label:          "holder",
		MasterSecretID: "master-secret",
		Crypto:         fakeCrypto{},
		Anoncreds:      creds,
		Ledger:         ledger,
		DB:             db,
		Bus:            bus.NewStation(),
	}
	a.SetRouting(ssi.QueueEndpoint, nil)

	conn := &psm.ConnectionRec{
		ID:          "conn-1",
		DID:         "did-holder-1",
		VerKey:      "vk-holder-1",
		TheirDID:    "did-verifier-1",
		TheirVerKey: "vk-verifier-1",
		TheirLabel:  "verifier",
		TheirDIDDoc: did.NewDoc("did-verifier-1", "vk-verifier-1",
			"http://verifier", nil),
		State: pltype.StateComplete,
	}
	try.To(a.DB.AddConnection(conn))
	return a, conn
}

func captureSends(t *testing.T) *[][]byte {
	t.Helper()

	sent := &[][]byte{}
	prev := comm.SendAndWaitReq
	comm.SendAndWaitReq = func(_ string, msg io.Reader, _ time.Duration) ([]byte, error) {
		data, err := io.ReadAll(msg)
		*sent = append(*sent, data)
		return nil, err
	}
	t.Cleanup(func() { comm.SendAndWaitReq = prev })
	return sent
}

func sentPayload(t *testing.T, cipher []byte) []byte {
	t.Helper()

	var e envelope
	try.To(json.Unmarshal(cipher, &e))
	return e.Msg
}

func nameCredential(referent, name, value, credDefID string) Credential {
	return Credential{CredInfo: CredInfo{
		Referent:  referent,
		Attrs:     map[string]string{name: value},
		SchemaID:  "sch:1",
		CredDefID: credDefID,
	}}
}

func proofRequestJSON(t *testing.T, req *ProofRequest) []byte {
	t.Helper()
	return try.To1(json.Marshal(req))
}

func simpleProofRequest() *ProofRequest {
	return &ProofRequest{
		Name:    "login",
		Version: "1.0",
		Nonce:   "12345",
		RequestedAttributes: map[string]AttrInfo{
			"attr1_referent": {Name: "name"},
		},
		RequestedPredicates: map[string]PredicateInfo{},
	}
}

func requestPacket(t *testing.T, a *ssi.Agent, conn *psm.ConnectionRec, proofReq []byte, comment string) *prot.Packet {
	t.Helper()

	request := presentproof.NewRequest(proofReq, comment)
	request.ID = "preq-1"
	msg := try.To1(json.Marshal(request))
	var header prot.Header
	try.To(json.Unmarshal(msg, &header))

	return &prot.Packet{
		Receiver:   a,
		Connection: conn,
		Message:    msg,
		Header:     header,
	}
}

func TestRequestIsKeptForHolderDecision(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	a, conn := newTestAgent(t, &fakeAnoncreds{}, &fakeLedger{})

	requested := make(chan bus.Event, 1)
	a.Bus.AddListener(func(e bus.Event) {
		if e.Type == bus.EventPresentationRequest {
			requested <- e
		}
	})

	keep := try.To1(handleRequest(requestPacket(t, a, conn,
		proofRequestJSON(t, simpleProofRequest()), "please login")))
	assert.That(keep)

	rec := try.To1(a.DB.GetPresentation("preq-1"))
	assert.Equal(rec.State, pltype.StateRequestReceived)
	assert.NotEmpty(string(rec.ProofRequest))

	select {
	case e := <-requested:
		assert.Equal(e.ConnectionID, conn.ID)
	case <-time.After(time.Second):
		t.Fatal("no presentation-request event")
	}
}

func TestAutoAcceptRequestPresentsImmediately(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	creds := &fakeAnoncreds{credsByReferent: map[string][]Credential{
		"attr1_referent": {nameCredential("cred-1", "name", "alice", "cd:1")},
	}}
	a, conn := newTestAgent(t, creds, &fakeLedger{})
	sent := captureSends(t)

	keep := try.To1(handleRequest(requestPacket(t, a, conn,
		proofRequestJSON(t, simpleProofRequest()), autoAcceptTag)))
	assert.That(!keep)

	rec := try.To1(a.DB.GetPresentation("preq-1"))
	assert.Equal(rec.State, pltype.StatePresentationSent)

	assert.SLen(*sent, 1)
	presentation := &presentproof.Presentation{}
	try.To(json.Unmarshal(sentPayload(t, (*sent)[0]), presentation))
	assert.Equal(presentation.Type, pltype.PresentProofPresentation)
	assert.Equal(presentation.Thread.ID, "preq-1")
}

func TestCreatePresentationSelectsFirstMatch(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	creds := &fakeAnoncreds{credsByReferent: map[string][]Credential{
		"attr1_referent": {
			nameCredential("cred-1", "name", "alice", "cd:1"),
			nameCredential("cred-2", "name", "alice", "cd:2"),
		},
	}}
	a, conn := newTestAgent(t, creds, &fakeLedger{})
	captureSends(t)

	_ = try.To1(handleRequest(requestPacket(t, a, conn,
		proofRequestJSON(t, simpleProofRequest()), "")))
	rec := try.To1(CreatePresentation(a, "preq-1", true, nil))

	assert.Equal(rec.State, pltype.StatePresentationSent)
	assert.NotEmpty(string(rec.Presentation))

	assert.SLen(creds.proofCalls, 1)
	var requested struct {
		RequestedAttributes map[string]requestedAttr `json:"requested_attributes"`
	}
	try.To(json.Unmarshal([]byte(creds.proofCalls[0].requestedCreds), &requested))
	assert.Equal(requested.RequestedAttributes["attr1_referent"].CredID, "cred-1")
	assert.That(requested.RequestedAttributes["attr1_referent"].Revealed)
}

func TestCreatePresentationHonorsSelection(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	creds := &fakeAnoncreds{credsByReferent: map[string][]Credential{
		"attr1_referent": {
			nameCredential("cred-1", "name", "alice", "cd:1"),
			nameCredential("cred-2", "name", "alice", "cd:2"),
		},
	}}
	a, conn := newTestAgent(t, creds, &fakeLedger{})
	captureSends(t)

	_ = try.To1(handleRequest(requestPacket(t, a, conn,
		proofRequestJSON(t, simpleProofRequest()), "")))
	_ = try.To1(CreatePresentation(a, "preq-1", false,
		[]presentproof.PreviewAttribute{{Name: "name", CredDefID: "cd:2"}}))

	var requested struct {
		RequestedAttributes map[string]requestedAttr `json:"requested_attributes"`
	}
	try.To(json.Unmarshal([]byte(creds.proofCalls[0].requestedCreds), &requested))
	assert.Equal(requested.RequestedAttributes["attr1_referent"].CredID, "cred-2")
	assert.That(!requested.RequestedAttributes["attr1_referent"].Revealed)
}

// A selection that covers none of the requested names must not let a
// candidate through.
func TestCreatePresentationRejectsUncoveredName(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	creds := &fakeAnoncreds{credsByReferent: map[string][]Credential{
		"attr1_referent": {nameCredential("cred-1", "email", "a@b.c", "cd:1")},
	}}
	a, conn := newTestAgent(t, creds, &fakeLedger{})
	captureSends(t)

	req := simpleProofRequest()
	req.RequestedAttributes["attr1_referent"] = AttrInfo{Name: "email"}
	_ = try.To1(handleRequest(requestPacket(t, a, conn,
		proofRequestJSON(t, req), "")))

	_, err := CreatePresentation(a, "preq-1", true,
		[]presentproof.PreviewAttribute{{Name: "name", CredDefID: "cd:9"}})
	assert.That(errors.Is(err, ErrNoMatchingCredential))
	assert.SLen(creds.proofCalls, 0)

	rec := try.To1(a.DB.GetPresentation("preq-1"))
	assert.Equal(rec.State, pltype.StateRequestReceived)
}

// One mismatching selection entry must not veto a name another entry covers.
func TestCreatePresentationTriesEverySelectionEntry(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	creds := &fakeAnoncreds{credsByReferent: map[string][]Credential{
		"attr1_referent": {
			nameCredential("cred-1", "name", "alice", "cd:1"),
			nameCredential("cred-2", "name", "alice", "cd:2"),
		},
	}}
	a, conn := newTestAgent(t, creds, &fakeLedger{})
	captureSends(t)

	_ = try.To1(handleRequest(requestPacket(t, a, conn,
		proofRequestJSON(t, simpleProofRequest()), "")))
	_ = try.To1(CreatePresentation(a, "preq-1", true,
		[]presentproof.PreviewAttribute{
			{Name: "name", CredDefID: "cd:9"},
			{Name: "name", CredDefID: "cd:2"},
		}))

	var requested struct {
		RequestedAttributes map[string]requestedAttr `json:"requested_attributes"`
	}
	try.To(json.Unmarshal([]byte(creds.proofCalls[0].requestedCreds), &requested))
	assert.Equal(requested.RequestedAttributes["attr1_referent"].CredID, "cred-2")
}

func TestCreatePresentationNoMatchingCredential(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	creds := &fakeAnoncreds{credsByReferent: map[string][]Credential{}}
	a, conn := newTestAgent(t, creds, &fakeLedger{})
	captureSends(t)

	_ = try.To1(handleRequest(requestPacket(t, a, conn,
		proofRequestJSON(t, simpleProofRequest()), "")))

	_, err := CreatePresentation(a, "preq-1", true, nil)
	assert.That(errors.Is(err, ErrNoMatchingCredential))

	rec := try.To1(a.DB.GetPresentation("preq-1"))
	assert.Equal(rec.State, pltype.StateRequestReceived)
}

// Two referents backed by credentials from the same revocation registry must
// share one computed non-revocation state.
func TestRevocationStateBuiltOncePerRegistry(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	revocable := func(referent, name string) Credential {
		c := nameCredential(referent, name, "v", "cd:1")
		c.CredInfo.RevRegID = "rev:1"
		c.CredInfo.CredRevID = "5"
		return c
	}
	creds := &fakeAnoncreds{credsByReferent: map[string][]Credential{
		"attr1_referent": {revocable("cred-1", "name")},
		"attr2_referent": {revocable("cred-2", "age")},
	}}
	ledger := &fakeLedger{}
	a, conn := newTestAgent(t, creds, ledger)
	captureSends(t)

	req := &ProofRequest{
		Name:    "kyc",
		Version: "1.0",
		Nonce:   "987",
		RequestedAttributes: map[string]AttrInfo{
			"attr1_referent": {Name: "name"},
			"attr2_referent": {Name: "age"},
		},
		RequestedPredicates: map[string]PredicateInfo{},
		NonRevoked:          &NonRevoked{To: 1700000000},
	}
	_ = try.To1(handleRequest(requestPacket(t, a, conn,
		proofRequestJSON(t, req), "")))
	_ = try.To1(CreatePresentation(a, "preq-1", true, nil))

	assert.Equal(creds.revStateCalls, 1)
	assert.Equal(ledger.deltaReads, 1)

	var requested struct {
		RequestedAttributes map[string]requestedAttr `json:"requested_attributes"`
	}
	try.To(json.Unmarshal([]byte(creds.proofCalls[0].requestedCreds), &requested))
	assert.That(requested.RequestedAttributes["attr1_referent"].Timestamp != nil)
	assert.Equal(*requested.RequestedAttributes["attr1_referent"].Timestamp, int64(777))
}

// A provider failure during verification must leave the record
// PRESENTATION_RECEIVED with the presentation stored, never VERIFIED.
func TestFailedVerificationLeavesPresentationReceived(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	creds := &fakeAnoncreds{verifyErr: errors.New("pool gone")}
	a, conn := newTestAgent(t, creds, &fakeLedger{})
	captureSends(t)

	rec := try.To1(RequestPresentation(a, conn,
		proofRequestJSON(t, simpleProofRequest()), ""))

	proof := `{"proof":{},"identifiers":[{"schema_id":"sch:1","cred_def_id":"cd:1"}]}`
	presentation := presentproof.NewPresentation(rec.ID, []byte(proof))
	msg := try.To1(json.Marshal(presentation))
	var header prot.Header
	try.To(json.Unmarshal(msg, &header))

	_, err := handlePresentation(&prot.Packet{
		Receiver:   a,
		Connection: conn,
		Message:    msg,
		Header:     header,
	})
	assert.Error(err)

	rec = try.To1(a.DB.GetPresentation(rec.ID))
	assert.Equal(rec.State, pltype.StatePresentationReceived)
	assert.NotEmpty(string(rec.Presentation))
	assert.That(!rec.Verified)
}

func TestVerifyPresentation(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	creds := &fakeAnoncreds{verifyResult: true}
	a, conn := newTestAgent(t, creds, &fakeLedger{})
	sent := captureSends(t)

	rec := try.To1(RequestPresentation(a, conn,
		proofRequestJSON(t, simpleProofRequest()), "login please"))
	assert.Equal(rec.State, pltype.StateRequestSent)
	assert.SLen(*sent, 1)

	proof := `{"proof":{},"identifiers":[{"schema_id":"sch:1","cred_def_id":"cd:1"}]}`
	presentation := presentproof.NewPresentation(rec.ID, []byte(proof))
	msg := try.To1(json.Marshal(presentation))
	var header prot.Header
	try.To(json.Unmarshal(msg, &header))

	verified := make(chan bus.Event, 1)
	a.Bus.AddListener(func(e bus.Event) {
		if e.Type == bus.EventPresentationVerified {
			verified <- e
		}
	})

	keep := try.To1(handlePresentation(&prot.Packet{
		Receiver:   a,
		Connection: conn,
		Message:    msg,
		Header:     header,
	}))
	assert.That(!keep)
	assert.Equal(creds.verifyCalls, 1)

	rec = try.To1(a.DB.GetPresentation(rec.ID))
	assert.Equal(rec.State, pltype.StateVerified)
	assert.That(rec.Verified)

	// request + ack
	assert.SLen(*sent, 2)
	ack := &common.Ack{}
	try.To(json.Unmarshal(sentPayload(t, (*sent)[1]), ack))
	assert.Equal(ack.Type, pltype.PresentProofACK)
	assert.Equal(ack.Thread.ID, rec.ID)

	select {
	case <-verified:
	case <-time.After(time.Second):
		t.Fatal("no presentation-verified event")
	}
}
