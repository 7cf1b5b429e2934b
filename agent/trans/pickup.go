package trans

import (
	"time"

	"github.com/ayanworks/arnima-agent-go/agent/dispatch"
	"github.com/ayanworks/arnima-agent-go/agent/ssi"
	"github.com/ayanworks/arnima-agent-go/agent/utils"
	"github.com/ayanworks/arnima-agent-go/protocol/mediator"
	"github.com/go-co-op/gocron"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// Pickup polls the mediator for stored messages on a fixed interval. The
// socket push is the fast path; polling catches what a dropped socket missed.
type Pickup struct {
	cron *gocron.Scheduler
}

func StartPickup(a *ssi.Agent, loop *dispatch.Loop) (p *Pickup, err error) {
	defer err2.Handle(&err, "start pickup")

	cron := gocron.NewScheduler(time.Now().Location())
	try.To1(cron.Every(utils.Settings.PickupInterval()).Do(func() {
		defer err2.Catch(func(err error) {
			glog.Warningln("batch pickup:", err)
		})

		response := try.To1(mediator.Pickup(a))
		if len(response) > 0 {
			try.To(loop.Add(response))
		}
	}))
	cron.StartAsync()
	return &Pickup{cron: cron}, nil
}

func (p *Pickup) Stop() {
	p.cron.Stop()
}
