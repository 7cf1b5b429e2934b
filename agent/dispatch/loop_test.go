package dispatch

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/ayanworks/arnima-agent-go/agent/prot"
	"github.com/ayanworks/arnima-agent-go/agent/psm"
	"github.com/ayanworks/arnima-agent-go/agent/ssi"
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

func newTestAgent(t *testing.T) *ssi.Agent {
	t.Helper()

	db := try.To1(psm.Open(mem.NewProvider()))
	a := &ssi.Agent{
		Label:  "holder",
		Crypto: fakeCrypto{},
		DB:     db,
	}
	try.To(db.AddConnection(&psm.ConnectionRec{
		ID:     "conn-1",
		DID:    "did-holder-1",
		VerKey: "vk-holder-1",
	}))
	return a
}

// cipherFor packs a plain wire message the way the fake crypto expects it.
func cipherFor(t *testing.T, recipientKey string, msg string) []byte {
	t.Helper()

	data := try.To1(fakeCrypto{}.Pack(0, "vk-sender-1", []byte(msg), recipientKey))
	return data
}

// recorder registers a one-off handler type and records the IDs it sees.
type recorder struct {
	mu   sync.Mutex
	seen []string
	keep bool
}

func (r *recorder) handle(p *prot.Packet) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, p.Header.ID)
	return r.keep, nil
}

func (r *recorder) ids() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.seen...)
}

func TestConnectionlessMessageIsDiscarded(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	a := newTestAgent(t)
	l := New(a)

	rec := &recorder{}
	prot.Add("test/1.0/orphan", rec.handle)

	try.To(l.Add(cipherFor(t, "vk-unknown-1",
		`{"@type":"test/1.0/orphan","@id":"m1"}`)))
	l.Drain()

	// the handler never ran and the entry is gone, not retried
	assert.SLen(rec.ids(), 0)
	pending := try.To1(a.DB.PendingInbox())
	assert.SLen(pending, 0)
}

func TestUnknownTypeIsDiscarded(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	a := newTestAgent(t)
	l := New(a)

	try.To(l.Add(cipherFor(t, "vk-holder-1",
		`{"@type":"test/1.0/never-registered","@id":"m1"}`)))
	l.Drain()

	pending := try.To1(a.DB.PendingInbox())
	assert.SLen(pending, 0)
}

func TestDrainProcessesInArrivalOrder(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	a := newTestAgent(t)
	l := New(a)

	rec := &recorder{}
	prot.Add("test/1.0/ordered", rec.handle)

	for _, id := range []string{"m1", "m2", "m3"} {
		try.To(l.Add(cipherFor(t, "vk-holder-1",
			`{"@type":"test/1.0/ordered","@id":"`+id+`"}`)))
	}
	l.Drain()

	assert.Equal(len(rec.ids()), 3)
	assert.Equal(rec.ids()[0], "m1")
	assert.Equal(rec.ids()[1], "m2")
	assert.Equal(rec.ids()[2], "m3")

	pending := try.To1(a.DB.PendingInbox())
	assert.SLen(pending, 0)
}

func TestKeepTagsEntryForHolderAction(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	a := newTestAgent(t)
	l := New(a)

	rec := &recorder{keep: true}
	prot.Add("test/1.0/action", rec.handle)

	try.To(l.Add(cipherFor(t, "vk-holder-1",
		`{"@type":"test/1.0/action","@id":"m1","~thread":{"thid":"th1"}}`)))
	l.Drain()

	// processed but retained for an explicit decision, keyed by thread
	pending := try.To1(a.DB.PendingInbox())
	assert.SLen(pending, 0)

	action := try.To1(a.DB.ActionInbox())
	assert.SLen(action, 1)
	assert.That(action[0].IsProcessed)
	assert.That(!action[0].AutoProcessed)
	assert.Equal(action[0].ThID, "th1")
}

// A notify during an active drain must coalesce into exactly one follow-up
// drain instead of being dropped.
func TestNotifyDuringDrainCoalesces(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	a := newTestAgent(t)
	l := New(a)

	// fill the trigger slot, then notify again
	l.Notify()
	l.Notify()
	assert.That(l.pending.Load())

	l.Start()
	defer l.Stop()

	rec := &recorder{}
	prot.Add("test/1.0/late", rec.handle)
	try.To(l.Add(cipherFor(t, "vk-holder-1",
		`{"@type":"test/1.0/late","@id":"m1"}`)))

	deadline := time.After(2 * time.Second)
	for {
		if len(rec.ids()) == 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("message was never dispatched")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
