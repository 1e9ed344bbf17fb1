package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

const (
	CycleMonthly BillingCycle = "monthly"
	CycleYearly  BillingCycle = "yearly"
)

const (
	StatusPaid    PaymentStatus = "paid"
	StatusPending PaymentStatus = "pending"
	StatusOverdue PaymentStatus = "overdue"
)

const (
	TypeSubscription = "subscription"
	TypeInvoice      = "invoice"
)

type (
	Frequency     string
	BillingCycle  string
	PaymentStatus string

	// Expense is the base record shared by subscriptions and invoices.
	// ID, CreatedAt and UpdatedAt are assigned by the backend.
	Expense struct {
		ID          string     `json:"id,omitempty"`
		Name        string     `json:"name"`
		Amount      Amount     `json:"amount"`
		Category    string     `json:"category"`
		PaymentDate Date       `json:"paymentDate"`
		DueDate     *Date      `json:"dueDate,omitempty"`
		IsRecurring bool       `json:"isRecurring"`
		Frequency   Frequency  `json:"frequency,omitempty"`
		Notes       string     `json:"notes,omitempty"`
		CreatedAt   *Timestamp `json:"createdAt,omitempty"`
		UpdatedAt   *Timestamp `json:"updatedAt,omitempty"`
	}

	Subscription struct {
		Expense
		Type         string       `json:"type"`
		BillingCycle BillingCycle `json:"billingCycle"`
		StartDate    Date         `json:"startDate"`
		EndDate      *Date        `json:"endDate,omitempty"`
		IsActive     bool         `json:"isActive"`
	}

	Invoice struct {
		Expense
		Type          string        `json:"type"`
		InvoiceNumber string        `json:"invoiceNumber"`
		PaymentStatus PaymentStatus `json:"paymentStatus"`
		AttachmentURL string        `json:"attachmentUrl,omitempty"`
	}
)

var (
	ErrEmptyName        = errors.New("empty name")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyCategory    = errors.New("empty category")
	ErrMissingPayment   = errors.New("missing payment date")
	ErrMissingStart     = errors.New("missing start date")
	ErrInvalidFrequency = errors.New("invalid frequency")
	ErrInvalidCycle     = errors.New("invalid billing cycle")
	ErrInvalidStatus    = errors.New("invalid payment status")
)

// PaymentStatuses lists the statuses in display order.
var PaymentStatuses = []PaymentStatus{StatusPaid, StatusPending, StatusOverdue}

func (f Frequency) Valid() bool {
	switch f {
	case Daily, Weekly, Monthly, Yearly:
		return true
	}
	return false
}

func (c BillingCycle) Valid() bool {
	return c == CycleMonthly || c == CycleYearly
}

func (s PaymentStatus) Valid() bool {
	switch s {
	case StatusPaid, StatusPending, StatusOverdue:
		return true
	}
	return false
}

// ForCreate returns a copy stripped of the server-assigned fields.
func (e Expense) ForCreate() Expense {
	e.ID = ""
	e.CreatedAt = nil
	e.UpdatedAt = nil
	return e
}

// The accessors below let the listing package work on any expense kind.

func (e Expense) CategoryLabel() string { return e.Category }

func (e Expense) Value() Amount { return e.Amount }

func (s Subscription) SearchFields() []string {
	return []string{s.Name, s.Notes}
}

func (s Subscription) Active() bool { return s.IsActive }

// MonthlyCost spreads a yearly charge over twelve months.
func (s Subscription) MonthlyCost() Amount {
	if s.BillingCycle == CycleYearly {
		return s.Amount.DivInt(12)
	}
	return s.Amount
}

// Validate checks the fields the subscription form requires before submit.
func (s Subscription) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return ErrEmptyName
	}
	if !s.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(s.Category) == "" {
		return ErrEmptyCategory
	}
	if s.PaymentDate.IsZero() {
		return ErrMissingPayment
	}
	if s.StartDate.IsZero() {
		return ErrMissingStart
	}
	if s.Frequency != "" && !s.Frequency.Valid() {
		return ErrInvalidFrequency
	}
	if s.BillingCycle != "" && !s.BillingCycle.Valid() {
		return ErrInvalidCycle
	}
	return nil
}

func (i Invoice) SearchFields() []string {
	return []string{i.Name, i.InvoiceNumber, i.Notes}
}

func (i Invoice) Status() string { return string(i.PaymentStatus) }

// NewSubscription returns the defaults a blank subscription form starts from.
func NewSubscription(category string, today time.Time) Subscription {
	d := DateOf(today)
	return Subscription{
		Expense: Expense{
			Category:    category,
			PaymentDate: d,
			IsRecurring: true,
			Frequency:   Monthly,
		},
		Type:         TypeSubscription,
		BillingCycle: CycleMonthly,
		StartDate:    d,
		IsActive:     true,
	}
}
