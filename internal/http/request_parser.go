// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data:
// period parameters, list filters and the subscription form body.

package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"expensetracker/internal/core"
	"expensetracker/internal/listing"
)

// maxFormBytes bounds url-encoded and JSON bodies.
const maxFormBytes = 64 << 10

// MonthParams holds parsed year/month values from request parameters.
type MonthParams struct {
	Year  int
	Month int
}

// ParseMonthParams extracts year and month from query parameters, using now
// as the default. Out-of-range months are kept: the backend answers them
// with an empty summary.
func ParseMonthParams(query url.Values, now time.Time) MonthParams {
	params := MonthParams{
		Year:  now.Year(),
		Month: int(now.Month()),
	}

	if v := strings.TrimSpace(query.Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil {
			params.Year = y
		}
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		if m, err := strconv.Atoi(v); err == nil {
			params.Month = m
		}
	}

	return params
}

// ParseBool reads a checkbox or flag value.
func ParseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

// SubscriptionFilters are the list filters of the subscriptions page.
type SubscriptionFilters struct {
	ShowActive   bool
	ShowInactive bool
	Category     string
	Search       string
}

func ParseSubscriptionFilters(query url.Values) SubscriptionFilters {
	return SubscriptionFilters{
		ShowActive:   ParseBool(query.Get("active")),
		ShowInactive: ParseBool(query.Get("inactive")),
		Category:     orAll(sanitizeInput(query.Get("category"))),
		Search:       stripControl(query.Get("search")),
	}
}

// InvoiceFilters are the list filters of the invoices page.
type InvoiceFilters struct {
	Status   string
	Category string
	Search   string
}

func ParseInvoiceFilters(query url.Values) InvoiceFilters {
	return InvoiceFilters{
		Status:   orAll(sanitizeInput(query.Get("status"))),
		Category: orAll(sanitizeInput(query.Get("category"))),
		Search:   stripControl(query.Get("search")),
	}
}

func orAll(s string) string {
	if s == "" {
		return listing.All
	}
	return s
}

// valueGetter is satisfied by url.Values and RequestBodyParser.
type valueGetter interface {
	Get(key string) string
}

// ParseSubscriptionForm overlays the submitted fields on base. Unparseable
// amounts and dates become zero values so that form validation rejects
// them with the usual message.
func ParseSubscriptionForm(form valueGetter, base core.Subscription) core.Subscription {
	s := base
	s.Name = sanitizeInput(form.Get("name"))
	s.Amount = core.CoerceAmount(form.Get("amount"))
	s.Category = sanitizeInput(form.Get("category"))
	s.Notes = sanitizeInput(form.Get("notes"))
	s.PaymentDate = parseDate(form.Get("paymentDate"))
	s.StartDate = parseDate(form.Get("startDate"))
	s.EndDate = nil
	if d := parseDate(form.Get("endDate")); !d.IsZero() {
		s.EndDate = &d
	}
	if f := core.Frequency(strings.TrimSpace(form.Get("frequency"))); f.Valid() {
		s.Frequency = f
	}
	if c := core.BillingCycle(strings.TrimSpace(form.Get("billingCycle"))); c.Valid() {
		s.BillingCycle = c
	}
	s.IsActive = ParseBool(form.Get("isActive"))
	s.IsRecurring = ParseBool(form.Get("isRecurring"))
	return s
}

func parseDate(v string) core.Date {
	if strings.TrimSpace(v) == "" {
		return core.Date{}
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return core.Date{}
	}
	return d
}

// sanitizeInput removes control characters other than tab and newlines
// and trims whitespace.
func sanitizeInput(s string) string {
	return stripControl(strings.TrimSpace(s))
}

// stripControl drops control characters but keeps surrounding spaces;
// search terms match whitespace literally.
func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data, commonly used with HTMX.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]interface{}
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser reads at most maxFormBytes of the request body.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxFormBytes+1))
	if p.err == nil && len(p.body) > maxFormBytes {
		p.err = errBodyTooLarge
	}
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if p.body[0] == '{' {
		p.jsonData = make(map[string]interface{})
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}
