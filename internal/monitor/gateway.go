package monitor

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/vipul43/kiwis-monitor/internal/models"
)

// eventSubject is the push-channel topic for one (user, kind, run)
func eventSubject(userID string, kind models.JobKind, runID string) string {
	return fmt.Sprintf("sync.events.%s.%s.%s", userID, kind, runID)
}

// Gateway ingests one run's event stream over two independent transports: a
// push subscription and a polling loop against the sync_event table. Both
// feed the ledger; only admitted events are forwarded downstream. Either
// transport may fail on its own — push setup failure degrades the gateway to
// polling only, and poll errors are retried on the fixed interval.
//
// A gateway is bound to a single run ID. When the run ID changes the owner
// stops this gateway (teardown completes synchronously), resets the ledger,
// and builds a fresh one.
type Gateway struct {
	userID   string
	kind     models.JobKind
	runID    string
	ledger   *Ledger
	events   EventSource
	push     PushBus
	interval time.Duration
	pageSize int
	deliver  func(models.SyncEvent)

	ctx    context.Context
	cancel context.CancelFunc
	sub    PushSubscription
	wg     sync.WaitGroup
}

func newGateway(
	userID string,
	kind models.JobKind,
	runID string,
	ledger *Ledger,
	events EventSource,
	push PushBus,
	interval time.Duration,
	pageSize int,
	deliver func(models.SyncEvent),
) *Gateway {
	return &Gateway{
		userID:   userID,
		kind:     kind,
		runID:    runID,
		ledger:   ledger,
		events:   events,
		push:     push,
		interval: interval,
		pageSize: pageSize,
		deliver:  deliver,
	}
}

// Start opens the push subscription and starts the polling loop
func (g *Gateway) Start(parent context.Context) {
	g.ctx, g.cancel = context.WithCancel(parent)

	if g.push != nil {
		subject := eventSubject(g.userID, g.kind, g.runID)
		sub, err := g.push.Subscribe(subject, g.offer)
		if err != nil {
			// Push is an optimization; polling is the correctness backstop.
			log.Printf("Warning: push subscription for %s run %s failed, continuing on polling only: %v", g.kind, g.runID, err)
		} else {
			g.sub = sub
		}
	}

	g.wg.Add(1)
	go g.pollLoop()
}

func (g *Gateway) pollLoop() {
	defer g.wg.Done()

	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	// Poll immediately on start, then on the fixed interval
	g.poll()

	for {
		select {
		case <-g.ctx.Done():
			return
		case <-ticker.C:
			g.poll()
		}
	}
}

func (g *Gateway) poll() {
	events, err := g.events.EventsSince(g.ctx, g.userID, g.kind, g.runID, g.ledger.Cursor(g.kind), g.pageSize)
	if err != nil {
		if g.ctx.Err() != nil {
			return
		}
		// Retried on the next tick; no backoff growth
		log.Printf("Warning: failed to poll %s events: %v", g.kind, err)
		return
	}

	for _, event := range events {
		g.offer(event)
	}
}

// offer is the single admission path for both transports
func (g *Gateway) offer(event models.SyncEvent) {
	if event.JobKind != g.kind || event.RunID != g.runID {
		// Event from another run; never admitted against this ledger
		return
	}
	if g.ctx.Err() != nil {
		// Torn down; a late in-flight response must not touch the ledger
		// the next run will use.
		return
	}
	if g.ledger.Admit(g.kind, event) {
		g.deliver(event)
	}
}

// Stop cancels the poll loop and the push subscription and waits for both to
// wind down. Must complete before the ledger is reset for the next run.
func (g *Gateway) Stop() {
	if g.cancel != nil {
		g.cancel()
	}
	if g.sub != nil {
		if err := g.sub.Unsubscribe(); err != nil {
			log.Printf("Warning: failed to unsubscribe %s push channel: %v", g.kind, err)
		}
		g.sub = nil
	}
	g.wg.Wait()
}
