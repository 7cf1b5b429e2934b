// Package trans owns the inbound transports of the agent: the mediator push
// socket, the periodic batch-pickup poller and the plain HTTP inbound
// endpoint. Every transport ends in the same place, the dispatch inbox.
package trans

import (
	"encoding/json"

	"github.com/ayanworks/arnima-agent-go/agent/dispatch"
	"github.com/ayanworks/arnima-agent-go/agent/ssi"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
	"golang.org/x/net/websocket"
)

// PushMessage is one stored wire message pushed over the mediator socket.
type PushMessage struct {
	ID      string          `json:"id"`
	Message json.RawMessage `json:"message"`
}

// ackRequest confirms received message IDs so the mediator can drop them.
type ackRequest struct {
	PublicKey  string   `json:"publicKey"`
	MessageIDs []string `json:"messageIds"`
}

// WsClient keeps one websocket open towards the mediator and feeds pushed
// messages into the inbox.
type WsClient struct {
	URL string

	agent *ssi.Agent
	loop  *dispatch.Loop
	conn  *websocket.Conn
	stop  chan struct{}
}

func NewWsClient(a *ssi.Agent, loop *dispatch.Loop, url string) *WsClient {
	return &WsClient{
		URL:   url,
		agent: a,
		loop:  loop,
		stop:  make(chan struct{}),
	}
}

func (c *WsClient) Start() (err error) {
	defer err2.Handle(&err, "mediator socket")

	c.conn = try.To1(websocket.Dial(c.URL, "", "http://localhost/"))
	go c.listen()
	return nil
}

func (c *WsClient) Stop() {
	close(c.stop)
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

func (c *WsClient) listen() {
	defer err2.Catch(func(err error) {
		glog.Errorln("mediator socket:", err)
	})

	for {
		var data []byte
		if err := websocket.Message.Receive(c.conn, &data); err != nil {
			select {
			case <-c.stop:
				return
			default:
			}
			glog.Warningln("mediator socket closed:", err)
			return
		}

		messages := make([]PushMessage, 0)
		if err := json.Unmarshal(data, &messages); err != nil {
			glog.Warningln("unparseable push frame:", err)
			continue
		}

		ids := make([]string, 0, len(messages))
		for _, m := range messages {
			if err := c.loop.Add(m.Message); err != nil {
				glog.Errorln("queueing pushed message:", err)
				continue
			}
			ids = append(ids, m.ID)
		}
		if len(ids) > 0 {
			c.ack(ids)
		}
	}
}

// ack is best effort; unacked messages come back on the next pickup and the
// inbox dedupes nothing, so handlers must stay idempotent on replays.
func (c *WsClient) ack(ids []string) {
	err := websocket.JSON.Send(c.conn, ackRequest{
		PublicKey:  c.agent.VerKey,
		MessageIDs: ids,
	})
	if err != nil {
		glog.Warningln("push ack:", err)
	}
}
