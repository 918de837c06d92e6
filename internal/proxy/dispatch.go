package proxy

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/kerneld-io/kerneld/internal/obs"
)

// sourceRequest pairs an accepted request with the id of the ingress that
// produced it, the unit the dispatch channel funnels.
type sourceRequest struct {
	sourceID string
	req      ProxyRequest
}

// Dispatcher funnels every accepted request through a single unbuffered
// channel and, for each, spawns a task that resolves a route, looks up the
// egress, and relays it — adapted from a generic queue-worker shape into a
// fixed one-channel/one-dispatcher pipeline: only the worker-per-job
// dispatch pattern is kept, not the job-queue abstraction itself.
type Dispatcher struct {
	router   *Router
	egresses map[string]*Egress
	queue    chan sourceRequest
}

// NewDispatcher creates a dispatcher over a fixed router and egress set.
func NewDispatcher(router *Router, egresses map[string]*Egress) *Dispatcher {
	return &Dispatcher{
		router:   router,
		egresses: egresses,
		queue:    make(chan sourceRequest),
	}
}

// Submit hands an accepted request to the dispatch loop. It blocks until Run
// receives the request; Run starts a goroutine per request and returns to
// its receive at once, so the wait is short while Run is consuming. There is
// no queue behind the channel: after Run has returned, Submit blocks for
// good.
func (d *Dispatcher) Submit(sourceID string, req ProxyRequest) {
	d.queue <- sourceRequest{sourceID: sourceID, req: req}
}

// Run consumes the dispatch channel until ctx is canceled, spawning one
// task per request.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case sr := <-d.queue:
			go d.dispatch(ctx, sr)
		}
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, sr sourceRequest) {
	corrID := fmt.Sprintf("req-%s", uuid.New().String()[:8])
	log := obs.Logger.WithField("component", "proxy.dispatch").
		WithField("corr_id", corrID).
		WithField("source", sr.sourceID).
		WithField("remote", sr.req.Remote.Address())

	destID, err := d.router.Route(sr.sourceID, sr.req.Remote)
	if err != nil {
		log.Warnf("routing failed: %v", err)
		sr.req.Client.Close()
		return
	}

	egress, ok := d.egresses[destID]
	if !ok {
		log.Warnf("routed to unknown egress %q", destID)
		sr.req.Client.Close()
		return
	}

	up, down, err := egress.Send(ctx, sr.req)
	if err != nil {
		log.WithField("dest", destID).Warnf("forward failed: %v", err)
		return
	}
	log.WithField("dest", destID).Debugf("forwarded %d up / %d down bytes", up, down)
}
