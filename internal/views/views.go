// Package views holds the server-side state of each page: the loaded
// source list, the active filters, loading flags and the error message.
// One set of views exists per browser session; every method is safe for
// concurrent use.
//
// All backend traffic goes through the fail-open api.Service. A failed
// call never panics or returns an error to the handler; it leaves a
// human-readable message in the view state instead.
package views

import (
	"context"
	"io"
	"sync"
	"time"

	"expensetracker/internal/amqp"
	"expensetracker/internal/api"
	"expensetracker/internal/core"
	"expensetracker/internal/log"
)

// User-facing error messages.
const (
	ErrLoadSubscriptions   = "Failed to load subscriptions"
	ErrDeleteSubscription  = "Failed to delete subscription"
	ErrToggleSubscription  = "Failed to update subscription status"
	ErrCreateSubscription  = "Failed to create subscription"
	ErrUpdateSubscription  = "Failed to update subscription"
	ErrRequiredFields      = "Please fill in all required fields"
	ErrLoadInvoices        = "Failed to load invoices"
	ErrDeleteInvoice       = "Failed to delete invoice"
	ErrUpdateInvoiceStatus = "Failed to update invoice status"
	ErrUploadAttachment    = "Failed to upload attachment"
	ErrInvoiceNotFound     = "Invoice not found"
	ErrSubscriptionMissing = "Subscription not found"
	ErrLoadMonthlySummary  = "Failed to load monthly summary"
	ErrLoadYearlySummary   = "Failed to load yearly summary"
)

const (
	ConfirmDeleteSubscription = "Are you sure you want to delete this subscription? This action cannot be undone."
	ConfirmDeleteInvoice      = "Are you sure you want to delete this invoice? This action cannot be undone."
)

type (
	SubscriptionStore interface {
		Subscriptions(ctx context.Context) api.Result[[]core.Subscription]
		AddSubscription(ctx context.Context, s core.Subscription) api.Result[core.Subscription]
		UpdateSubscription(ctx context.Context, s core.Subscription) api.Result[core.Subscription]
		DeleteSubscription(ctx context.Context, id string) api.Result[bool]
	}

	InvoiceStore interface {
		Invoices(ctx context.Context) api.Result[[]core.Invoice]
		UpdateInvoice(ctx context.Context, inv core.Invoice) api.Result[core.Invoice]
		DeleteInvoice(ctx context.Context, id string) api.Result[bool]
		UploadInvoiceFile(ctx context.Context, filename string, r io.Reader) api.Result[api.UploadResult]
	}

	SummaryStore interface {
		MonthlySummary(ctx context.Context, year, month int) api.Result[core.ExpensesSummary]
		YearlySummary(ctx context.Context, year int) api.Result[core.ExpensesSummary]
	}

	// EventPublisher announces successful mutations. *amqp.Client
	// satisfies it.
	EventPublisher interface {
		Publish(ctx context.Context, ev amqp.ChangeEvent) error
	}

	// Confirmer asks the user to confirm a destructive action.
	Confirmer interface {
		Confirm(message string) bool
	}
)

// Confirmation is a Confirmer with a fixed answer, e.g. the value of a
// form field set by the browser's confirm dialog.
type Confirmation bool

func (c Confirmation) Confirm(string) bool { return bool(c) }

// Deps are the collaborators shared by every view.
type Deps struct {
	Logger *log.Logger
	Events EventPublisher
	Now    func() time.Time
}

func (d Deps) withDefaults(view string) Deps {
	if d.Logger == nil {
		d.Logger = log.Discard()
	}
	d.Logger = d.Logger.WithComponent(log.ComponentView).With(log.FieldView, view)
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

// lifecycle guards a view against responses that arrive after it was
// closed, or after a newer load superseded the one they belong to.
type lifecycle struct {
	mu     sync.Mutex
	life   context.Context
	cancel context.CancelFunc
	closed bool
	gen    uint64
}

func (l *lifecycle) start() {
	l.life, l.cancel = context.WithCancel(context.Background())
}

// bind derives a context that is cancelled when either ctx or the view
// ends.
func (l *lifecycle) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(l.life, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// beginLocked starts a new load generation. Callers hold mu.
func (l *lifecycle) beginLocked() uint64 {
	l.gen++
	return l.gen
}

// currentLocked reports whether a response for gen may still be applied.
func (l *lifecycle) currentLocked(gen uint64) bool {
	return !l.closed && gen == l.gen
}

// Close tears the view down: in-flight requests are cancelled and late
// responses are discarded.
func (l *lifecycle) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	l.cancel()
}

func (l *lifecycle) Closed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

func publish(ctx context.Context, d Deps, entity amqp.Entity, action amqp.Action, id string) {
	if d.Events == nil || id == "" {
		return
	}
	ev := amqp.NewChangeEvent(entity, action, id)
	if err := d.Events.Publish(context.WithoutCancel(ctx), ev); err != nil {
		d.Logger.WarnContext(ctx, "Failed to publish change event",
			log.FieldEntity, entity,
			log.FieldAction, action,
			log.FieldEntityID, id,
			log.FieldError, err)
	}
}
