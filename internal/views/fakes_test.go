package views

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"expensetracker/internal/amqp"
	"expensetracker/internal/api"
	"expensetracker/internal/core"
)

var errBackend = errors.New("backend down")

// fakeStore implements every store interface over in-memory lists.
type fakeStore struct {
	mu sync.Mutex

	subs     []core.Subscription
	invoices []core.Invoice
	monthly  map[int]core.ExpensesSummary
	yearly   core.ExpensesSummary

	failList, failUpdate, failDelete, failCreate, failMonthly, failYearly bool
	uploadURL                                                             string

	listCalls  int
	updates    []any
	deletes    []string
	creates    []core.Subscription
	monthCalls []int
	beforeList func()
}

func result[T any](op string, v T, fail bool, fallback T) api.Result[T] {
	if fail {
		return api.Result[T]{Value: fallback, Err: errBackend, Op: op}
	}
	return api.Result[T]{Value: v, Op: op}
}

func (f *fakeStore) Subscriptions(ctx context.Context) api.Result[[]core.Subscription] {
	f.mu.Lock()
	f.listCalls++
	out := append([]core.Subscription{}, f.subs...)
	fail := f.failList
	f.mu.Unlock()
	if f.beforeList != nil {
		f.beforeList()
	}
	return result("getSubscriptions", out, fail, []core.Subscription{})
}

func (f *fakeStore) AddSubscription(ctx context.Context, s core.Subscription) api.Result[core.Subscription] {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates = append(f.creates, s)
	if f.failCreate {
		return result("addSubscription", core.Subscription{}, true, core.Subscription{})
	}
	s.ID = "new-sub"
	f.subs = append(f.subs, s)
	return result("addSubscription", s, false, core.Subscription{})
}

func (f *fakeStore) UpdateSubscription(ctx context.Context, s core.Subscription) api.Result[core.Subscription] {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, s)
	if f.failUpdate {
		return result("updateSubscription", core.Subscription{}, true, core.Subscription{})
	}
	for i := range f.subs {
		if f.subs[i].ID == s.ID {
			f.subs[i] = s
		}
	}
	return result("updateSubscription", s, false, core.Subscription{})
}

func (f *fakeStore) DeleteSubscription(ctx context.Context, id string) api.Result[bool] {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, id)
	if f.failDelete {
		return result("deleteSubscription", false, true, false)
	}
	kept := f.subs[:0]
	for _, s := range f.subs {
		if s.ID != id {
			kept = append(kept, s)
		}
	}
	f.subs = kept
	return result("deleteSubscription", true, false, false)
}

func (f *fakeStore) Invoices(ctx context.Context) api.Result[[]core.Invoice] {
	f.mu.Lock()
	f.listCalls++
	out := append([]core.Invoice{}, f.invoices...)
	fail := f.failList
	f.mu.Unlock()
	if f.beforeList != nil {
		f.beforeList()
	}
	return result("getInvoices", out, fail, []core.Invoice{})
}

func (f *fakeStore) UpdateInvoice(ctx context.Context, inv core.Invoice) api.Result[core.Invoice] {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, inv)
	if f.failUpdate {
		return result("updateInvoice", core.Invoice{}, true, core.Invoice{})
	}
	for i := range f.invoices {
		if f.invoices[i].ID == inv.ID {
			f.invoices[i] = inv
		}
	}
	return result("updateInvoice", inv, false, core.Invoice{})
}

func (f *fakeStore) DeleteInvoice(ctx context.Context, id string) api.Result[bool] {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, id)
	if f.failDelete {
		return result("deleteInvoice", false, true, false)
	}
	kept := f.invoices[:0]
	for _, inv := range f.invoices {
		if inv.ID != id {
			kept = append(kept, inv)
		}
	}
	f.invoices = kept
	return result("deleteInvoice", true, false, false)
}

func (f *fakeStore) UploadInvoiceFile(ctx context.Context, filename string, r io.Reader) api.Result[api.UploadResult] {
	_, _ = io.Copy(io.Discard, r)
	f.mu.Lock()
	defer f.mu.Unlock()
	return result("uploadInvoiceFile", api.UploadResult{FileURL: f.uploadURL}, false, api.UploadResult{})
}

func (f *fakeStore) MonthlySummary(ctx context.Context, year, month int) api.Result[core.ExpensesSummary] {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.monthCalls = append(f.monthCalls, month)
	if f.failMonthly || month < 1 || month > 12 {
		return result("getMonthlySummary", core.EmptySummary(), true, core.EmptySummary())
	}
	s, ok := f.monthly[month]
	if !ok {
		s = core.EmptySummary()
	}
	return result("getMonthlySummary", s, false, core.EmptySummary())
}

func (f *fakeStore) YearlySummary(ctx context.Context, year int) api.Result[core.ExpensesSummary] {
	f.mu.Lock()
	defer f.mu.Unlock()
	return result("getYearlySummary", f.yearly, f.failYearly, core.EmptySummary())
}

type fakePublisher struct {
	mu     sync.Mutex
	events []amqp.ChangeEvent
	err    error
}

func (p *fakePublisher) Publish(ctx context.Context, ev amqp.ChangeEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

type recordingConfirmer struct {
	answer   bool
	messages []string
}

func (c *recordingConfirmer) Confirm(msg string) bool {
	c.messages = append(c.messages, msg)
	return c.answer
}

var fixedNow = time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC)

func testDeps(pub EventPublisher) Deps {
	return Deps{Events: pub, Now: func() time.Time { return fixedNow }}
}

func sub(id, name, category string, active bool, cycle core.BillingCycle, amount float64) core.Subscription {
	s := core.NewSubscription(category, fixedNow)
	s.ID = id
	s.Name = name
	s.Amount = core.NewAmount(amount)
	s.IsActive = active
	s.BillingCycle = cycle
	return s
}

func inv(id, name, number string, status core.PaymentStatus, category, amount string) core.Invoice {
	return core.Invoice{
		Expense: core.Expense{
			ID:          id,
			Name:        name,
			Category:    category,
			Amount:      core.CoerceAmount(amount),
			PaymentDate: core.DateOf(fixedNow),
		},
		Type:          core.TypeInvoice,
		InvoiceNumber: number,
		PaymentStatus: status,
	}
}
