// Package dispatch owns the inbox and the serialized drain loop. A single
// worker processes entries strictly in arrival order; new-message triggers
// arriving during a drain coalesce into one follow-up drain through the
// pending flag.
package dispatch

import (
	"encoding/json"
	"sync/atomic"

	"github.com/ayanworks/arnima-agent-go/agent/prot"
	"github.com/ayanworks/arnima-agent-go/agent/psm"
	"github.com/ayanworks/arnima-agent-go/agent/sec"
	"github.com/ayanworks/arnima-agent-go/agent/ssi"
	"github.com/golang/glog"
	"github.com/google/uuid"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

type Loop struct {
	agent *ssi.Agent
	pipe  sec.Pipe

	trigger chan struct{}
	stop    chan struct{}
	stopped chan struct{}
	pending atomic.Bool
}

func New(a *ssi.Agent) *Loop {
	return &Loop{
		agent:   a,
		pipe:    sec.NewPipe(a),
		trigger: make(chan struct{}, 1),
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Add persists one raw wire message into the inbox and triggers a drain.
func (l *Loop) Add(cipher []byte) (err error) {
	defer err2.Handle(&err, "inbox add")

	try.To(l.agent.DB.AddInbox(&psm.InboxRec{
		ID:            uuid.New().String(),
		Message:       cipher,
		AutoProcessed: true,
	}))
	l.Notify()
	return nil
}

// Notify requests a drain. When one is already running the request is
// coalesced into the pending flag and honored right after it.
func (l *Loop) Notify() {
	select {
	case l.trigger <- struct{}{}:
	default:
		l.pending.Store(true)
	}
}

func (l *Loop) Start() {
	go l.run()
}

func (l *Loop) Stop() {
	close(l.stop)
	<-l.stopped
}

func (l *Loop) run() {
	defer close(l.stopped)
	defer err2.Catch(func(err error) {
		glog.Errorln("dispatch loop:", err)
	})

	for {
		select {
		case <-l.stop:
			return
		case <-l.trigger:
			l.Drain()
			if l.pending.Swap(false) {
				l.Notify()
			}
		}
	}
}

// Drain processes every unprocessed inbox entry once, in arrival order. A
// failing entry is logged and skipped so one bad message never blocks the
// rest of the inbox.
func (l *Loop) Drain() {
	entries, err := l.agent.DB.PendingInbox()
	if err != nil {
		glog.Errorln("inbox listing:", err)
		return
	}

	for _, entry := range entries {
		select {
		case <-l.stop:
			return
		default:
		}
		if err := l.process(entry); err != nil {
			glog.Errorf("inbox %s: %v", entry.ID, err)
		}
	}
}

func (l *Loop) process(entry *psm.InboxRec) (err error) {
	defer err2.Handle(&err, "process inbox entry")

	unpacked := try.To1(l.pipe.Unpack(entry.Message))

	var header prot.Header
	try.To(json.Unmarshal(unpacked.Message, &header))

	// connection-less messages have no owner to notify; they are dropped,
	// not retried
	conn, err := l.agent.DB.ConnectionByVerKey(unpacked.RecipientVerKey)
	if err != nil {
		glog.Warningf("discarding %s: no connection for recipient key", header.Type)
		return l.agent.DB.DeleteInbox(entry.ID)
	}

	handler, ok := prot.Find(header.Type)
	if !ok {
		glog.Warningln("discarding unknown message type:", header.Type)
		return l.agent.DB.DeleteInbox(entry.ID)
	}

	glog.V(3).Infoln("dispatch:", header.Type)

	packet := &prot.Packet{
		Receiver:        l.agent,
		Connection:      conn,
		Message:         unpacked.Message,
		Header:          header,
		SenderVerKey:    unpacked.SenderVerKey,
		RecipientVerKey: unpacked.RecipientVerKey,
		Requeue:         l.Add,
	}

	keep := try.To1(handler(packet))
	if keep {
		// holder action needed: tag and retain
		entry.AutoProcessed = false
		entry.IsProcessed = true
		entry.ThID = header.ExchangeKey()
		return l.agent.DB.UpdateInbox(entry)
	}
	return l.agent.DB.DeleteInbox(entry.ID)
}
