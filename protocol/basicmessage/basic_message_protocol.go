// Package basicmessage implements basicmessage 1.0 plus the generic
// problem-report handler; both surface straight to the event station.
package basicmessage

import (
	"github.com/ayanworks/arnima-agent-go/agent/bus"
	"github.com/ayanworks/arnima-agent-go/agent/comm"
	"github.com/ayanworks/arnima-agent-go/agent/pltype"
	"github.com/ayanworks/arnima-agent-go/agent/prot"
	"github.com/ayanworks/arnima-agent-go/agent/psm"
	"github.com/ayanworks/arnima-agent-go/agent/sec"
	"github.com/ayanworks/arnima-agent-go/agent/ssi"
	"github.com/ayanworks/arnima-agent-go/std/basicmessage"
	"github.com/ayanworks/arnima-agent-go/std/common"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

func init() {
	prot.Add(pltype.BasicMessage, handleMessage)
	prot.Add(pltype.ProblemReport, handleProblemReport)
}

// SendMessage sends one basic message over the connection.
func SendMessage(a *ssi.Agent, conn *psm.ConnectionRec, content string) (err error) {
	defer err2.Handle(&err, "send basic message")

	message := basicmessage.New(content)

	out := try.To1(comm.NewOutbound(conn, message, nil))
	try.To1(comm.SendPL(sec.NewPipe(a), out))
	return nil
}

func handleMessage(p *prot.Packet) (keep bool, err error) {
	defer err2.Handle(&err, "handle basic message")

	message := &basicmessage.Message{}
	try.To(p.Decode(message))

	p.Receiver.Bus.Notify(bus.Event{
		Type:         bus.EventMessageReceived,
		ConnectionID: p.Connection.ID,
		Summary:      p.Connection.TheirLabel + ": " + message.Content,
		Payload:      message,
	})
	return false, nil
}

func handleProblemReport(p *prot.Packet) (keep bool, err error) {
	defer err2.Handle(&err, "handle problem report")

	report := &common.ProblemReport{}
	try.To(p.Decode(report))

	summary := report.ExplainLtxt
	if summary == "" && report.Description != nil {
		summary = report.Description.En
	}
	glog.Warningf("problem report from %s: %s", p.Connection.TheirLabel, summary)

	// a correlated exchange is failed for good
	thID := p.Header.ExchangeKey()
	db := p.Receiver.DB
	if rec, err := db.GetPresentation(thID); err == nil {
		rec.State = pltype.StateFailed
		try.To(db.UpdatePresentation(rec))
	} else if rec, err := db.GetCredential(thID); err == nil {
		rec.State = pltype.StateFailed
		try.To(db.UpdateCredential(rec))
	}

	p.Receiver.Bus.Notify(bus.Event{
		Type:         bus.EventProblemReport,
		ConnectionID: p.Connection.ID,
		Summary:      summary,
		Payload:      report,
	})
	return false, nil
}
