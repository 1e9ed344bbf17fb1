package views

import (
	"context"
	"io"
	"strings"

	"expensetracker/internal/amqp"
	"expensetracker/internal/core"
	"expensetracker/internal/listing"
	"expensetracker/internal/log"
)

// InvoicesState is an immutable snapshot of the invoices view for
// rendering.
type InvoicesState struct {
	Items      []core.Invoice
	Categories []string
	Statuses   []core.PaymentStatus

	Status   string
	Category string
	Search   string

	Total        core.Amount
	OverdueCount int
	SourceCount  int

	Loading bool
	Error   string
}

// InvoicesView lists invoices with status, category and search filters.
type InvoicesView struct {
	lifecycle
	store InvoiceStore
	deps  Deps

	all        []core.Invoice
	filtered   []core.Invoice
	categories []string

	status   string
	category string
	search   string

	loading bool
	err     string
}

func NewInvoicesView(store InvoiceStore, deps Deps) *InvoicesView {
	v := &InvoicesView{
		store:    store,
		deps:     deps.withDefaults("invoices"),
		status:   listing.All,
		category: listing.All,
		loading:  true,
	}
	v.start()
	return v
}

// Load fetches the full invoice list and re-applies the current filters.
func (v *InvoicesView) Load(ctx context.Context) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	gen := v.beginLocked()
	v.loading = true
	v.err = ""
	v.mu.Unlock()

	ctx, done := v.bind(ctx)
	defer done()
	res := v.store.Invoices(ctx)

	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.currentLocked(gen) {
		v.deps.Logger.DebugContext(ctx, "Discarding stale invoice load")
		return
	}
	v.loading = false
	if !res.Ok() {
		v.err = ErrLoadInvoices
		v.all = nil
		v.categories = nil
		v.filtered = []core.Invoice{}
		return
	}
	v.all = res.Value
	v.categories = listing.Categories(v.all)
	v.applyLocked()
	v.deps.Logger.DebugContext(ctx, "Invoices loaded", log.FieldCount, len(v.all))
}

func (v *InvoicesView) applyLocked() {
	v.filtered = listing.Apply(v.all,
		listing.StatusIs[core.Invoice](v.status),
		listing.CategoryIs[core.Invoice](v.category),
		listing.Search[core.Invoice](v.search),
	)
}

// SetFilters changes every filter at once without reloading.
func (v *InvoicesView) SetFilters(status, category, search string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.status = orAll(status)
	v.category = orAll(category)
	v.search = search
	v.applyLocked()
}

func (v *InvoicesView) SetStatusFilter(status string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.status = orAll(status)
	v.applyLocked()
}

func (v *InvoicesView) SetCategoryFilter(category string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.category = orAll(category)
	v.applyLocked()
}

func (v *InvoicesView) SetSearch(term string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.search = term
	v.applyLocked()
}

// Delete removes an invoice after confirmation and reloads the list. It
// reports whether the invoice was deleted.
func (v *InvoicesView) Delete(ctx context.Context, id string, confirm Confirmer) bool {
	if confirm == nil || !confirm.Confirm(ConfirmDeleteInvoice) {
		return false
	}
	if v.Closed() {
		return false
	}

	bctx, done := v.bind(ctx)
	res := v.store.DeleteInvoice(bctx, id)
	done()

	if !res.Ok() || !res.Value {
		v.fail(ErrDeleteInvoice)
		return false
	}
	if v.Closed() {
		return false
	}
	publish(ctx, v.deps, amqp.EntityInvoice, amqp.ActionDeleted, id)
	v.Load(ctx)
	return true
}

// UpdatePaymentStatus replaces the invoice with a copy carrying status.
func (v *InvoicesView) UpdatePaymentStatus(ctx context.Context, id string, status core.PaymentStatus) bool {
	if !status.Valid() {
		v.fail(ErrUpdateInvoiceStatus)
		return false
	}
	inv, ok := v.find(id)
	if !ok {
		v.fail(ErrInvoiceNotFound)
		return false
	}
	inv.PaymentStatus = status

	bctx, done := v.bind(ctx)
	res := v.store.UpdateInvoice(bctx, inv)
	done()

	if !res.Ok() {
		v.fail(ErrUpdateInvoiceStatus)
		return false
	}
	if v.Closed() {
		return false
	}
	publish(ctx, v.deps, amqp.EntityInvoice, amqp.ActionUpdated, id)
	v.Load(ctx)
	return true
}

// AttachFile uploads a document and stores its URL on the invoice. An
// upload that returns no URL counts as failed.
func (v *InvoicesView) AttachFile(ctx context.Context, id, filename string, r io.Reader) bool {
	inv, ok := v.find(id)
	if !ok {
		v.fail(ErrInvoiceNotFound)
		return false
	}

	bctx, done := v.bind(ctx)
	defer done()

	up := v.store.UploadInvoiceFile(bctx, filename, r)
	if !up.Ok() || strings.TrimSpace(up.Value.FileURL) == "" {
		v.fail(ErrUploadAttachment)
		return false
	}

	inv.AttachmentURL = up.Value.FileURL
	res := v.store.UpdateInvoice(bctx, inv)
	if !res.Ok() {
		v.fail(ErrUploadAttachment)
		return false
	}
	if v.Closed() {
		return false
	}
	publish(ctx, v.deps, amqp.EntityInvoice, amqp.ActionUpdated, id)
	v.Load(ctx)
	return true
}

func (v *InvoicesView) find(id string) (core.Invoice, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, inv := range v.all {
		if inv.ID == id {
			return inv, true
		}
	}
	return core.Invoice{}, false
}

// fail records a mutation error, leaving the list untouched.
func (v *InvoicesView) fail(msg string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.closed {
		v.err = msg
	}
}

func (v *InvoicesView) Snapshot() InvoicesState {
	v.mu.Lock()
	defer v.mu.Unlock()
	items := make([]core.Invoice, len(v.filtered))
	copy(items, v.filtered)
	return InvoicesState{
		Items:        items,
		Categories:   append([]string(nil), v.categories...),
		Statuses:     core.PaymentStatuses,
		Status:       v.status,
		Category:     v.category,
		Search:       v.search,
		Total:        listing.Total(v.filtered),
		OverdueCount: listing.Count(v.filtered, listing.StatusIs[core.Invoice](string(core.StatusOverdue))),
		SourceCount:  len(v.all),
		Loading:      v.loading,
		Error:        v.err,
	}
}

func orAll(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return listing.All
	}
	return s
}
