// Package mediator implements the holder side of coordinate-mediation 1.0
// and messagepickup 1.0: requesting mediation, registering pairwise keys
// with the mediator, and draining batches of stored messages.
package mediator

import (
	"github.com/ayanworks/arnima-agent-go/agent/comm"
	"github.com/ayanworks/arnima-agent-go/agent/pltype"
	"github.com/ayanworks/arnima-agent-go/agent/prot"
	"github.com/ayanworks/arnima-agent-go/agent/psm"
	"github.com/ayanworks/arnima-agent-go/agent/sec"
	"github.com/ayanworks/arnima-agent-go/agent/ssi"
	"github.com/ayanworks/arnima-agent-go/std/decorator"
	"github.com/ayanworks/arnima-agent-go/std/routing"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

func init() {
	prot.Add(pltype.MediationGrant, handleGrant)
	prot.Add(pltype.MediationDeny, handleDeny)
	prot.Add(pltype.KeylistUpdateResponse, handleKeylistUpdateResponse)
	prot.Add(pltype.Batch, handleBatch)
}

// RequestMediation asks the connected agent to mediate for us and records
// the connection as the selected mediator.
func RequestMediation(a *ssi.Agent, conn *psm.ConnectionRec) (err error) {
	defer err2.Handle(&err, "request mediation")

	request := routing.NewMediationRequest()
	request.Transport = decorator.ReturnRoute()

	out := try.To1(comm.NewOutbound(conn, request, nil))
	try.To1(comm.SendPL(sec.NewPipe(a), out))

	conn.Mediator = true
	try.To(a.DB.UpdateConnection(conn))

	try.To(a.DB.SaveMediator(&psm.MediatorRec{
		ConnectionID: conn.ID,
		VerKey:       conn.VerKey,
	}))
	return nil
}

// AddKey registers a fresh pairwise verkey with the mediator so messages
// packed to it get forwarded to us. A missing or ungranted mediator makes
// this a no-op; a send failure is logged, the key can be re-registered.
func AddKey(a *ssi.Agent, verKey string) {
	rec, err := a.DB.GetMediator()
	if err != nil || !rec.Granted {
		glog.V(3).Infoln("no mediator, skipping keylist update for", verKey)
		return
	}

	err = func() (err error) {
		defer err2.Handle(&err)

		conn := try.To1(a.DB.GetConnection(rec.ConnectionID))

		update := routing.NewKeylistUpdate(verKey)
		update.Transport = decorator.ReturnRoute()

		out := try.To1(comm.NewOutbound(conn, update, nil))
		try.To1(comm.SendPL(sec.NewPipe(a), out))
		return nil
	}()
	if err != nil {
		glog.Errorln("keylist update:", err)
	}
}

// Pickup sends a batch-pickup to the mediator. The mediator replies inline
// thanks to the return-route directive; the caller feeds the response back
// into the inbox.
func Pickup(a *ssi.Agent) (response []byte, err error) {
	defer err2.Handle(&err, "batch pickup")

	rec := try.To1(a.DB.GetMediator())
	conn := try.To1(a.DB.GetConnection(rec.ConnectionID))

	pickup := routing.NewBatchPickup(routing.DefaultBatchSize)
	pickup.Transport = decorator.ReturnRoute()

	out := try.To1(comm.NewOutbound(conn, pickup, nil))
	return try.To1(comm.SendPL(sec.NewPipe(a), out)), nil
}

func handleGrant(p *prot.Packet) (keep bool, err error) {
	defer err2.Handle(&err, "handle mediation grant")

	grant := &routing.MediationGrant{}
	try.To(p.Decode(grant))

	db := p.Receiver.DB
	rec, err := db.GetMediator()
	if err != nil {
		rec = &psm.MediatorRec{
			ConnectionID: p.Connection.ID,
			VerKey:       p.Connection.VerKey,
		}
	}
	rec.Endpoint = grant.Endpoint
	rec.RoutingKeys = grant.RoutingKeys
	rec.Granted = true
	try.To(db.SaveMediator(rec))

	// from now on every outbound envelope for every connection advertises
	// the granted endpoint and routing key
	p.Receiver.SetRouting(grant.Endpoint, grant.RoutingKeys)

	if prov, err := db.GetProvision(); err == nil {
		prov.ServiceEndpoint = grant.Endpoint
		prov.RoutingKeys = grant.RoutingKeys
		try.To(db.SaveProvision(prov))
	}

	glog.V(1).Infoln("mediation granted, endpoint:", grant.Endpoint)
	return false, nil
}

func handleDeny(p *prot.Packet) (keep bool, err error) {
	glog.Warningln("mediation denied by", p.Connection.TheirLabel)
	return false, nil
}

func handleKeylistUpdateResponse(p *prot.Packet) (keep bool, err error) {
	defer err2.Handle(&err, "handle keylist update response")

	response := &routing.KeylistUpdateResponse{}
	try.To(p.Decode(response))

	for _, u := range response.Updated {
		glog.V(1).Infof("keylist %s %s: %s", u.Action, u.RecipientKey, u.Result)
	}
	return false, nil
}

// handleBatch unwraps every picked-up message and re-injects it into the
// inbox as if it had been delivered independently.
func handleBatch(p *prot.Packet) (keep bool, err error) {
	defer err2.Handle(&err, "handle batch")

	batch := &routing.Batch{}
	try.To(p.Decode(batch))

	glog.V(3).Infoln("batch of", len(batch.Messages), "messages")
	for _, m := range batch.Messages {
		try.To(p.Requeue([]byte(m.Message)))
	}
	return false, nil
}
