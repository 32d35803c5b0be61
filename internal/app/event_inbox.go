package app

import (
	"context"
	"log"
	"time"

	"github.com/hlafethi/coworkmy-booking/internal/clock"
	"github.com/hlafethi/coworkmy-booking/internal/domain"
)

// EventHandler consumes payment events; a non-nil error requests a retry.
type EventHandler interface {
	Handle(ctx context.Context, ev domain.PaymentEvent) error
}

// EventStore persists gateway events between receipt and reconciliation.
type EventStore interface {
	InsertEvent(ctx context.Context, ev domain.PaymentEvent, receivedAt time.Time) error
	ListPendingEvents(ctx context.Context, limit int) ([]domain.PaymentEvent, error)
	MarkEventProcessed(ctx context.Context, id string, at time.Time) error
}

// EventInbox is the durable buffer between webhook receipt and
// reconciliation. Ingest writes the event to storage before the transport
// acknowledges the gateway, so an acknowledged event survives restarts;
// Run drains stored events in arrival order and marks each one processed
// only once the handler has settled it.
type EventInbox struct {
	store        EventStore
	handler      EventHandler
	clock        clock.Clock
	logger       *log.Logger
	wake         chan struct{}
	pollInterval time.Duration
	backoff      time.Duration
	maxAttempts  int
	batchSize    int
}

const (
	defaultInboxPoll   = 5 * time.Second
	defaultInboxBatch  = 64
	defaultMaxAttempts = 5
	defaultBackoff     = 2 * time.Second
)

func NewEventInbox(store EventStore, handler EventHandler, clk clock.Clock, logger *log.Logger) *EventInbox {
	if logger == nil {
		logger = log.Default()
	}
	return &EventInbox{
		store:        store,
		handler:      handler,
		clock:        clk,
		logger:       logger,
		wake:         make(chan struct{}, 1),
		pollInterval: defaultInboxPoll,
		backoff:      defaultBackoff,
		maxAttempts:  defaultMaxAttempts,
		batchSize:    defaultInboxBatch,
	}
}

// Ingest durably records an event for asynchronous processing. A nil
// return means the event is safe to acknowledge: it will be processed even
// if the process stops before the worker reaches it. Redelivery of an
// already stored event id is a no-op success.
func (q *EventInbox) Ingest(ctx context.Context, ev domain.PaymentEvent) error {
	if err := q.store.InsertEvent(ctx, ev, q.clock.Now()); err != nil {
		return err
	}
	select {
	case q.wake <- struct{}{}:
	default:
	}
	return nil
}

// Run drains stored events until ctx is cancelled. Cancellation loses
// nothing: events not yet marked processed stay in storage and are picked
// up by the next drain, or by the next process start.
func (q *EventInbox) Run(ctx context.Context) {
	for {
		q.drain(ctx)
		select {
		case <-ctx.Done():
			return
		case <-q.wake:
		case <-time.After(q.pollInterval):
		}
	}
}

func (q *EventInbox) drain(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		events, err := q.store.ListPendingEvents(ctx, q.batchSize)
		if err != nil {
			q.logger.Printf("event inbox list failed err=%v", err)
			return
		}
		if len(events) == 0 {
			return
		}
		for _, ev := range events {
			if !q.process(ctx, ev) {
				return
			}
		}
		if len(events) < q.batchSize {
			return
		}
	}
}

// process settles one event. A false return means a persistent failure:
// the event stays pending and the drain pass stops, leaving it for the
// next pass.
func (q *EventInbox) process(ctx context.Context, ev domain.PaymentEvent) bool {
	for attempt := 1; ; attempt++ {
		err := q.handler.Handle(ctx, ev)
		if err == nil {
			break
		}
		if attempt >= q.maxAttempts {
			q.logger.Printf("event deferred after %d attempts event=%s session=%s err=%v", attempt, ev.ID, ev.SessionRef, err)
			return false
		}
		q.logger.Printf("event retry attempt=%d event=%s session=%s err=%v", attempt, ev.ID, ev.SessionRef, err)

		select {
		case <-ctx.Done():
			return false
		case <-time.After(q.backoff * time.Duration(attempt)):
		}
	}

	// The handler discards duplicate event ids, so a crash between Handle
	// and the mark below only costs a redundant redelivery.
	if err := q.store.MarkEventProcessed(ctx, ev.ID, q.clock.Now()); err != nil {
		q.logger.Printf("event mark processed failed event=%s err=%v", ev.ID, err)
		return false
	}
	return true
}
