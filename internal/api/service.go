package api

import (
	"context"
	"errors"
	"io"

	"expensetracker/internal/core"
	"expensetracker/internal/log"
)

// Result is the tagged outcome of a fail-open call. On failure Value holds
// the safe fallback and Err the reason, so callers can either degrade
// silently or branch on Err.
type Result[T any] struct {
	Value T
	Err   error
	Op    string
}

func (r Result[T]) Ok() bool { return r.Err == nil }

// Unwrap returns the strict (value, error) pair.
func (r Result[T]) Unwrap() (T, error) { return r.Value, r.Err }

// FailureRecorder persists failed operations so an empty result can later
// be told apart from a failed request.
type FailureRecorder interface {
	RecordFailure(ctx context.Context, op string, err error) error
}

// Service applies the fail-open policy on top of a Client: every failure is
// logged with its operation tag, optionally recorded, and replaced by a
// fallback value.
type Service struct {
	client   *Client
	logger   *log.Logger
	recorder FailureRecorder
}

func NewService(client *Client, logger *log.Logger, recorder FailureRecorder) *Service {
	if logger == nil {
		logger = log.Discard()
	}
	return &Service{
		client:   client,
		logger:   logger.WithComponent(log.ComponentAPI),
		recorder: recorder,
	}
}

// Client exposes the strict layer for callers that want plain errors.
func (s *Service) Client() *Client { return s.client }

func run[T any](ctx context.Context, s *Service, op string, fallback T, call func() (T, error)) Result[T] {
	v, err := call()
	if err == nil {
		return Result[T]{Value: v, Op: op}
	}
	s.logger.Failure(ctx, op, err, "timeout", IsTimeout(err))
	// Cancellation is the caller walking away, not a backend failure.
	if s.recorder != nil && !errors.Is(err, context.Canceled) {
		if rerr := s.recorder.RecordFailure(context.WithoutCancel(ctx), op, err); rerr != nil {
			s.logger.WarnContext(ctx, "Failed to record failure", log.FieldOperation, op, log.FieldError, rerr)
		}
	}
	return Result[T]{Value: fallback, Err: err, Op: op}
}

func (s *Service) Subscriptions(ctx context.Context) Result[[]core.Subscription] {
	return run(ctx, s, "getSubscriptions", []core.Subscription{}, func() ([]core.Subscription, error) {
		return s.client.ListSubscriptions(ctx)
	})
}

func (s *Service) Subscription(ctx context.Context, id string) Result[core.Subscription] {
	return run(ctx, s, "getSubscription id="+id, core.Subscription{}, func() (core.Subscription, error) {
		return s.client.GetSubscription(ctx, id)
	})
}

func (s *Service) AddSubscription(ctx context.Context, sub core.Subscription) Result[core.Subscription] {
	return run(ctx, s, "addSubscription", core.Subscription{}, func() (core.Subscription, error) {
		return s.client.CreateSubscription(ctx, sub)
	})
}

func (s *Service) UpdateSubscription(ctx context.Context, sub core.Subscription) Result[core.Subscription] {
	return run(ctx, s, "updateSubscription", core.Subscription{}, func() (core.Subscription, error) {
		return s.client.UpdateSubscription(ctx, sub)
	})
}

func (s *Service) DeleteSubscription(ctx context.Context, id string) Result[bool] {
	return run(ctx, s, "deleteSubscription", false, func() (bool, error) {
		return true, s.client.DeleteSubscription(ctx, id)
	})
}

func (s *Service) Invoices(ctx context.Context) Result[[]core.Invoice] {
	return run(ctx, s, "getInvoices", []core.Invoice{}, func() ([]core.Invoice, error) {
		return s.client.ListInvoices(ctx)
	})
}

func (s *Service) Invoice(ctx context.Context, id string) Result[core.Invoice] {
	return run(ctx, s, "getInvoice id="+id, core.Invoice{}, func() (core.Invoice, error) {
		return s.client.GetInvoice(ctx, id)
	})
}

func (s *Service) AddInvoice(ctx context.Context, inv core.Invoice) Result[core.Invoice] {
	return run(ctx, s, "addInvoice", core.Invoice{}, func() (core.Invoice, error) {
		return s.client.CreateInvoice(ctx, inv)
	})
}

func (s *Service) UpdateInvoice(ctx context.Context, inv core.Invoice) Result[core.Invoice] {
	return run(ctx, s, "updateInvoice", core.Invoice{}, func() (core.Invoice, error) {
		return s.client.UpdateInvoice(ctx, inv)
	})
}

func (s *Service) DeleteInvoice(ctx context.Context, id string) Result[bool] {
	return run(ctx, s, "deleteInvoice", false, func() (bool, error) {
		return true, s.client.DeleteInvoice(ctx, id)
	})
}

func (s *Service) MonthlySummary(ctx context.Context, year, month int) Result[core.ExpensesSummary] {
	return run(ctx, s, "getMonthlySummary", core.EmptySummary(), func() (core.ExpensesSummary, error) {
		return s.client.MonthlySummary(ctx, year, month)
	})
}

func (s *Service) YearlySummary(ctx context.Context, year int) Result[core.ExpensesSummary] {
	return run(ctx, s, "getYearlySummary", core.EmptySummary(), func() (core.ExpensesSummary, error) {
		return s.client.YearlySummary(ctx, year)
	})
}

func (s *Service) UploadInvoiceFile(ctx context.Context, filename string, r io.Reader) Result[UploadResult] {
	return run(ctx, s, "uploadInvoiceFile", UploadResult{FileURL: ""}, func() (UploadResult, error) {
		return s.client.UploadInvoiceFile(ctx, filename, r)
	})
}
