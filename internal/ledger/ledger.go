// Package ledger keeps an append-only record of expense changes. Rows are
// never rewritten: an update appends a new row and a delete appends a
// tombstone.
package ledger

import (
	"context"
	"time"

	"expensetracker/internal/amqp"
	"expensetracker/internal/core"
)

// Writer appends one row and returns a reference to where it landed.
type Writer interface {
	Append(ctx context.Context, r Row) (ref string, err error)
}

// Row is one ledger line.
type Row struct {
	RecordedAt time.Time
	EventID    string
	Entity     amqp.Entity
	Action     amqp.Action
	ID         string
	Name       string
	Category   string
	Amount     core.Amount
	Date       core.Date
	// Status is "active"/"inactive" for subscriptions and the payment
	// status for invoices.
	Status string
}

// Header names the columns written by Values.
var Header = []string{
	"Recorded At", "Event", "Entity", "Action", "ID",
	"Name", "Category", "Amount", "Date", "Status",
}

// Values renders the row in Header order.
func (r Row) Values() []any {
	date := ""
	if !r.Date.IsZero() {
		date = r.Date.String()
	}
	return []any{
		r.RecordedAt.UTC().Format(time.RFC3339),
		r.EventID,
		string(r.Entity),
		string(r.Action),
		r.ID,
		r.Name,
		r.Category,
		r.Amount.Float(),
		date,
		r.Status,
	}
}

func base(ev amqp.ChangeEvent, now time.Time) Row {
	return Row{
		RecordedAt: now,
		EventID:    ev.EventID,
		Entity:     ev.Entity,
		Action:     ev.Action,
		ID:         ev.ID,
	}
}

// Tombstone is the row for a deleted entity. Only the identity is known.
func Tombstone(ev amqp.ChangeEvent, now time.Time) Row {
	r := base(ev, now)
	r.Status = "deleted"
	return r
}

func SubscriptionRow(ev amqp.ChangeEvent, s core.Subscription, now time.Time) Row {
	r := base(ev, now)
	r.Name = s.Name
	r.Category = s.Category
	r.Amount = s.Amount
	r.Date = s.PaymentDate
	r.Status = "inactive"
	if s.IsActive {
		r.Status = "active"
	}
	return r
}

func InvoiceRow(ev amqp.ChangeEvent, inv core.Invoice, now time.Time) Row {
	r := base(ev, now)
	r.Name = inv.Name
	if inv.InvoiceNumber != "" {
		r.Name = inv.Name + " (" + inv.InvoiceNumber + ")"
	}
	r.Category = inv.Category
	r.Amount = inv.Amount
	r.Date = inv.PaymentDate
	r.Status = string(inv.PaymentStatus)
	return r
}
