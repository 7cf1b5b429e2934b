// Package trustping implements the trust_ping 1.0 protocol. A ping finalizes
// a connection handshake; a ping response marks the relationship active.
package trustping

import (
	"github.com/ayanworks/arnima-agent-go/agent/bus"
	"github.com/ayanworks/arnima-agent-go/agent/comm"
	"github.com/ayanworks/arnima-agent-go/agent/pltype"
	"github.com/ayanworks/arnima-agent-go/agent/prot"
	"github.com/ayanworks/arnima-agent-go/agent/psm"
	"github.com/ayanworks/arnima-agent-go/agent/sec"
	"github.com/ayanworks/arnima-agent-go/agent/ssi"
	"github.com/ayanworks/arnima-agent-go/std/trustping"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

func init() {
	prot.Add(pltype.TrustPingPing, handlePing)
	prot.Add(pltype.TrustPingResponse, handlePingResponse)
}

// SendPing sends a ping requesting a response and records it SENT.
func SendPing(a *ssi.Agent, conn *psm.ConnectionRec) (err error) {
	defer err2.Handle(&err, "send trust ping")

	ping := trustping.NewPing(true)
	ping.Transport = comm.TransportDecorator(a)

	out := try.To1(comm.NewOutbound(conn, ping, nil))
	try.To1(comm.SendPL(sec.NewPipe(a), out))

	try.To(a.DB.AddTrustPing(&psm.TrustPingRec{
		ID:           ping.ID,
		ConnectionID: conn.ID,
		Status:       pltype.StateSent,
	}))
	return nil
}

func handlePing(p *prot.Packet) (keep bool, err error) {
	defer err2.Handle(&err, "handle ping")

	conn := p.Connection
	if conn.State != pltype.StateComplete {
		conn.State = pltype.StateComplete
		try.To(p.Receiver.DB.UpdateConnection(conn))
		p.Receiver.Bus.Notify(bus.Event{
			Type:         bus.EventConnectionCompleted,
			ConnectionID: conn.ID,
			Summary:      "connection with " + conn.TheirLabel + " is ready",
			Payload:      conn,
		})
	}

	ping := &trustping.Ping{}
	try.To(p.Decode(ping))

	if ping.ResponseRequested {
		response := trustping.NewResponse(p.Header.ExchangeKey())
		response.Transport = comm.TransportDecorator(p.Receiver)

		out := try.To1(comm.NewOutbound(conn, response, nil))
		try.To1(comm.SendPL(sec.NewPipe(p.Receiver), out))
	}
	return false, nil
}

func handlePingResponse(p *prot.Packet) (keep bool, err error) {
	defer err2.Handle(&err, "handle ping response")

	rec, err := p.Receiver.DB.GetTrustPing(p.Header.ExchangeKey())
	if err != nil {
		glog.Warningln("ping response without a sent ping:", p.Header.ExchangeKey())
		return false, nil
	}

	rec.Status = pltype.StateActive
	try.To(p.Receiver.DB.UpdateTrustPing(rec))

	p.Receiver.Bus.Notify(bus.Event{
		Type:         bus.EventConnectionActive,
		ConnectionID: rec.ConnectionID,
		Summary:      "connection is active",
		Payload:      rec,
	})
	return false, nil
}
