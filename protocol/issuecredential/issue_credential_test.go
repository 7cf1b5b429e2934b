package issuecredential

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
	"github.com/ayanworks/arnima-agent-go/std/decorator"
	"github.com/ayanworks/arnima-agent-go/std/did"
	"github.com/ayanworks/arnima-agent-go/std/issuecredential"
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
}

func (fakeLedger) ReadCredDef(_ int, _, id string) (string, error) {
	return `{"id":"` + id + `"}`, nil
}

type fakeAnoncreds struct {
	ssi.Anoncreds

	storedCredID string
}

func (fakeAnoncreds) CreateCredentialReq(_ int, proverDID, _, _, _ string) (string, string, error) {
	return `{"prover_did":"` + proverDID + `"}`, `{"nonce":"meta"}`, nil
}

func (c fakeAnoncreds) StoreCredential(int, string, string, string, string) (string, error) {
	return c.storedCredID, nil
}

func newTestAgent(t *testing.T, creds fakeAnoncreds) (*ssi.Agent, *psm.ConnectionRec) {
	t.Helper()

	db := try.To1(psm.Open(mem.NewProvider()))
	a := &ssi.Agent{
		Label:          "holder",
		MasterSecretID: "master-secret",
		Crypto:         fakeCrypto{},
		Anoncreds:      creds,
		Ledger:         fakeLedger{},
		DB:             db,
		Bus:            bus.NewStation(),
	}
	a.SetRouting(ssi.QueueEndpoint, nil)

	conn := &psm.ConnectionRec{
		ID:          "conn-1",
		DID:         "did-holder-1",
		VerKey:      "vk-holder-1",
		TheirDID:    "did-issuer-1",
		TheirVerKey: "vk-issuer-1",
		TheirLabel:  "issuer",
		TheirDIDDoc: did.NewDoc("did-issuer-1", "vk-issuer-1",
			"http://issuer", nil),
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

const testOffer = `{"schema_id":"sch:1","cred_def_id":"cd:1","nonce":"123"}`

func offerPacket(t *testing.T, a *ssi.Agent, conn *psm.ConnectionRec) *prot.Packet {
	t.Helper()

	offer := &issuecredential.Offer{
		Type: pltype.IssueCredentialOffer,
		ID:   "offer-1",
		CredentialPreview: issuecredential.NewPreview(
			[]issuecredential.PreviewAttribute{{Name: "name", Value: "alice"}}),
		OffersAttach: []common.Attachment{
			common.NewAttachment(pltype.LibindyCredOfferID, []byte(testOffer)),
		},
	}
	msg := try.To1(json.Marshal(offer))
	var header prot.Header
	try.To(json.Unmarshal(msg, &header))

	return &prot.Packet{
		Receiver:   a,
		Connection: conn,
		Message:    msg,
		Header:     header,
	}
}

func TestOfferIsKeptForHolderDecision(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	a, conn := newTestAgent(t, fakeAnoncreds{})

	offered := make(chan bus.Event, 1)
	a.Bus.AddListener(func(e bus.Event) {
		if e.Type == bus.EventCredentialOffer {
			offered <- e
		}
	})

	keep := try.To1(handleOffer(offerPacket(t, a, conn)))
	assert.That(keep)

	rec := try.To1(a.DB.GetCredential("offer-1"))
	assert.Equal(rec.State, pltype.StateOfferReceived)
	assert.Equal(rec.SchemaID, "sch:1")
	assert.Equal(rec.CredDefID, "cd:1")
	assert.Equal(string(rec.Offer), testOffer)

	select {
	case e := <-offered:
		assert.Equal(e.ConnectionID, conn.ID)
	case <-time.After(time.Second):
		t.Fatal("no credential-offer event")
	}
}

func TestAcceptOfferSendsRequestOnThread(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	a, conn := newTestAgent(t, fakeAnoncreds{})
	_ = try.To1(handleOffer(offerPacket(t, a, conn)))
	sent := captureSends(t)

	rec := try.To1(AcceptOffer(a, "offer-1"))
	assert.Equal(rec.State, pltype.StateRequestSent)
	assert.NotEmpty(rec.Request)
	assert.Equal(rec.RequestMetadata, `{"nonce":"meta"}`)

	assert.SLen(*sent, 1)
	request := &issuecredential.Request{}
	try.To(json.Unmarshal(sentPayload(t, (*sent)[0]), request))
	assert.Equal(request.Type, pltype.IssueCredentialRequest)
	assert.Equal(request.Thread.ID, "offer-1")
	assert.SLen(request.RequestsAttach, 1)
}

func TestAcceptOfferRequiresAnOffer(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	a, _ := newTestAgent(t, fakeAnoncreds{})

	_, err := AcceptOffer(a, "no-such-thread")
	assert.That(err != nil)
}

func issuePacket(t *testing.T, a *ssi.Agent, conn *psm.ConnectionRec, cred string) *prot.Packet {
	t.Helper()

	issue := &issuecredential.Issue{
		Type: pltype.IssueCredentialIssue,
		ID:   "issue-1",
		CredentialsAttach: []common.Attachment{
			common.NewAttachment(pltype.LibindyCredID, []byte(cred)),
		},
		Thread: decorator.NewThread("offer-1", ""),
	}
	msg := try.To1(json.Marshal(issue))
	var header prot.Header
	try.To(json.Unmarshal(msg, &header))

	return &prot.Packet{
		Receiver:   a,
		Connection: conn,
		Message:    msg,
		Header:     header,
	}
}

func TestIssueStoresCredentialAndAcks(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	a, conn := newTestAgent(t, fakeAnoncreds{storedCredID: "cred-42"})
	sent := captureSends(t)
	_ = try.To1(handleOffer(offerPacket(t, a, conn)))
	_ = try.To1(AcceptOffer(a, "offer-1"))

	stored := make(chan bus.Event, 1)
	a.Bus.AddListener(func(e bus.Event) {
		if e.Type == bus.EventCredentialStored {
			stored <- e
		}
	})

	keep := try.To1(handleIssue(issuePacket(t, a, conn, `{"values":{}}`)))
	assert.That(!keep)

	rec := try.To1(a.DB.GetCredential("offer-1"))
	assert.Equal(rec.State, pltype.StateAcked)
	assert.Equal(rec.CredentialID, "cred-42")

	// request + ack
	assert.SLen(*sent, 2)
	ack := &common.Ack{}
	try.To(json.Unmarshal(sentPayload(t, (*sent)[1]), ack))
	assert.Equal(ack.Type, pltype.IssueCredentialACK)
	assert.Equal(ack.Thread.ID, "offer-1")
	assert.Equal(ack.Status, "OK")

	select {
	case e := <-stored:
		assert.Equal(e.ConnectionID, conn.ID)
	case <-time.After(time.Second):
		t.Fatal("no credential-stored event")
	}
}

func TestIssueFailsWithoutCredentialID(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	a, conn := newTestAgent(t, fakeAnoncreds{storedCredID: ""})
	captureSends(t)
	_ = try.To1(handleOffer(offerPacket(t, a, conn)))
	_ = try.To1(AcceptOffer(a, "offer-1"))

	_, err := handleIssue(issuePacket(t, a, conn, `{"values":{}}`))
	assert.That(errors.Is(err, ErrCredentialStoreFailed))

	rec := try.To1(a.DB.GetCredential("offer-1"))
	assert.Equal(rec.State, pltype.StateRequestSent)
}
