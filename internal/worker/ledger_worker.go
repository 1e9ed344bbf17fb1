// Package worker turns change events into ledger rows.
package worker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"expensetracker/internal/amqp"
	"expensetracker/internal/api"
	"expensetracker/internal/cache"
	"expensetracker/internal/core"
	"expensetracker/internal/ledger"
	"expensetracker/internal/log"
)

const (
	seenEventsMax = 10000
	seenEventsTTL = 24 * time.Hour
)

// Fetcher reads the current state of an entity. *api.Client satisfies it.
type Fetcher interface {
	GetSubscription(ctx context.Context, id string) (core.Subscription, error)
	GetInvoice(ctx context.Context, id string) (core.Invoice, error)
}

var _ Fetcher = (*api.Client)(nil)

// Stats counts handled events.
type Stats struct {
	Appended   int64
	Duplicates int64
	Skipped    int64
	Failed     int64
}

// LedgerWorker handles change events from AMQP: created and updated
// entities are fetched and appended, deletions become tombstones.
type LedgerWorker struct {
	fetcher Fetcher
	ledger  ledger.Writer
	logger  *log.Logger
	now     func() time.Time

	// Redelivered events are appended once. inflight holds ids claimed by
	// a running HandleEvent so concurrent deliveries cannot both append.
	seen     *cache.LRUCache[struct{}]
	mu       sync.Mutex
	inflight map[string]struct{}

	appended   atomic.Int64
	duplicates atomic.Int64
	skipped    atomic.Int64
	failed     atomic.Int64
}

func NewLedgerWorker(fetcher Fetcher, w ledger.Writer, logger *log.Logger) *LedgerWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &LedgerWorker{
		fetcher:  fetcher,
		ledger:   w,
		logger:   logger.WithComponent(log.ComponentWorker),
		now:      time.Now,
		seen:     cache.NewLRUCache[struct{}](seenEventsMax, seenEventsTTL),
		inflight: make(map[string]struct{}),
	}
}

// SeenEvents exposes the duplicate filter so a cache.Manager can sweep it.
func (w *LedgerWorker) SeenEvents() cache.Cleaner { return w.seen }

// HandleEvent processes a single change event. A returned error requeues
// the message.
func (w *LedgerWorker) HandleEvent(ctx context.Context, ev amqp.ChangeEvent) error {
	if err := ev.Validate(); err != nil {
		// Requeueing an invalid event would loop forever.
		w.skipped.Add(1)
		w.logger.WarnContext(ctx, "Skipping invalid change event", log.FieldError, err)
		return nil
	}
	if !w.claim(ev.EventID) {
		w.duplicates.Add(1)
		w.logger.DebugContext(ctx, "Skipping duplicate change event", log.FieldEventID, ev.EventID)
		return nil
	}
	appended := false
	defer func() { w.release(ev.EventID, appended) }()

	w.logger.InfoContext(ctx, "Processing change event",
		log.FieldEntity, ev.Entity,
		log.FieldAction, ev.Action,
		log.FieldEntityID, ev.ID)

	row, ok, err := w.buildRow(ctx, ev)
	if err != nil {
		w.failed.Add(1)
		return err
	}
	if !ok {
		w.skipped.Add(1)
		return nil
	}

	ref, err := w.ledger.Append(ctx, row)
	if err != nil {
		w.failed.Add(1)
		return fmt.Errorf("append to ledger: %w", err)
	}
	appended = true
	w.appended.Add(1)

	w.logger.InfoContext(ctx, "Ledger row appended",
		log.FieldEntity, ev.Entity,
		log.FieldAction, ev.Action,
		log.FieldEntityID, ev.ID,
		log.FieldLedgerRef, ref)
	return nil
}

// claim reserves id for the caller. It fails when id was already
// appended or another delivery is processing it. Events without an id
// are always claimed.
func (w *LedgerWorker) claim(id string) bool {
	if id == "" {
		return true
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, busy := w.inflight[id]; busy {
		return false
	}
	if _, done := w.seen.Get(id); done {
		return false
	}
	w.inflight[id] = struct{}{}
	return true
}

// release drops the reservation; appended ids are remembered as seen.
func (w *LedgerWorker) release(id string, appended bool) {
	if id == "" {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.inflight, id)
	if appended {
		w.seen.Set(id, struct{}{})
	}
}

// buildRow reports ok=false when the entity vanished before it could be
// read; the matching delete event records the tombstone.
func (w *LedgerWorker) buildRow(ctx context.Context, ev amqp.ChangeEvent) (ledger.Row, bool, error) {
	now := w.now()
	if ev.Action == amqp.ActionDeleted {
		return ledger.Tombstone(ev, now), true, nil
	}

	var (
		row ledger.Row
		err error
	)
	switch ev.Entity {
	case amqp.EntitySubscription:
		var s core.Subscription
		if s, err = w.fetcher.GetSubscription(ctx, ev.ID); err == nil {
			row = ledger.SubscriptionRow(ev, s, now)
		}
	case amqp.EntityInvoice:
		var inv core.Invoice
		if inv, err = w.fetcher.GetInvoice(ctx, ev.ID); err == nil {
			row = ledger.InvoiceRow(ev, inv, now)
		}
	}

	switch {
	case err == nil:
		return row, true, nil
	case api.IsNotFound(err):
		w.logger.WarnContext(ctx, "Entity no longer exists, skipping",
			log.FieldEntity, ev.Entity,
			log.FieldEntityID, ev.ID)
		return ledger.Row{}, false, nil
	default:
		return ledger.Row{}, false, fmt.Errorf("fetch %s %s: %w", ev.Entity, ev.ID, err)
	}
}

func (w *LedgerWorker) Stats() Stats {
	return Stats{
		Appended:   w.appended.Load(),
		Duplicates: w.duplicates.Load(),
		Skipped:    w.skipped.Load(),
		Failed:     w.failed.Load(),
	}
}
