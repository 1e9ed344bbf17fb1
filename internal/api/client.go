// Package api is the single point of contact with the expense REST backend.
//
// Client is the strict layer: every call returns (value, error). Service
// wraps a Client with the fail-open policy the views rely on; see
// service.go.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"expensetracker/internal/core"
)

// DefaultTimeout bounds every backend request.
const DefaultTimeout = 30 * time.Second

const maxErrorBody = 512

// Config is resolved once at startup and passed to NewClient.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client talks to the backend. It holds no data, only connection settings,
// and is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Code)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// UploadResult is the backend's reply to a file upload.
type UploadResult struct {
	FileURL string `json:"fileUrl"`
}

func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("api base URL is required")
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse api base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid api base URL scheme %q", u.Scheme)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{baseURL: base, http: hc}, nil
}

// BaseURL returns the configured API root, e.g. http://localhost:8083/api.
func (c *Client) BaseURL() string { return c.baseURL }

// IsTimeout reports whether err came from a request deadline.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// IsNotFound reports whether the backend answered 404.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusNotFound
}

// Subscriptions

func (c *Client) ListSubscriptions(ctx context.Context) ([]core.Subscription, error) {
	var out []core.Subscription
	if err := c.getJSON(ctx, "/subscriptions", &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []core.Subscription{}
	}
	return out, nil
}

func (c *Client) GetSubscription(ctx context.Context, id string) (core.Subscription, error) {
	var out core.Subscription
	err := c.getJSON(ctx, "/subscriptions/"+url.PathEscape(id), &out)
	return out, err
}

// CreateSubscription posts s without its server-assigned fields.
func (c *Client) CreateSubscription(ctx context.Context, s core.Subscription) (core.Subscription, error) {
	s.Expense = s.Expense.ForCreate()
	s.Type = core.TypeSubscription
	var out core.Subscription
	err := c.sendJSON(ctx, http.MethodPost, "/subscriptions", s, &out)
	return out, err
}

// UpdateSubscription replaces the whole resource keyed by s.ID.
func (c *Client) UpdateSubscription(ctx context.Context, s core.Subscription) (core.Subscription, error) {
	if s.ID == "" {
		return core.Subscription{}, errors.New("update subscription: missing id")
	}
	var out core.Subscription
	err := c.sendJSON(ctx, http.MethodPut, "/subscriptions/"+url.PathEscape(s.ID), s, &out)
	return out, err
}

func (c *Client) DeleteSubscription(ctx context.Context, id string) error {
	return c.delete(ctx, "/subscriptions/"+url.PathEscape(id))
}

// Invoices

func (c *Client) ListInvoices(ctx context.Context) ([]core.Invoice, error) {
	var out []core.Invoice
	if err := c.getJSON(ctx, "/invoices", &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []core.Invoice{}
	}
	return out, nil
}

func (c *Client) GetInvoice(ctx context.Context, id string) (core.Invoice, error) {
	var out core.Invoice
	err := c.getJSON(ctx, "/invoices/"+url.PathEscape(id), &out)
	return out, err
}

func (c *Client) CreateInvoice(ctx context.Context, inv core.Invoice) (core.Invoice, error) {
	inv.Expense = inv.Expense.ForCreate()
	inv.Type = core.TypeInvoice
	var out core.Invoice
	err := c.sendJSON(ctx, http.MethodPost, "/invoices", inv, &out)
	return out, err
}

func (c *Client) UpdateInvoice(ctx context.Context, inv core.Invoice) (core.Invoice, error) {
	if inv.ID == "" {
		return core.Invoice{}, errors.New("update invoice: missing id")
	}
	var out core.Invoice
	err := c.sendJSON(ctx, http.MethodPut, "/invoices/"+url.PathEscape(inv.ID), inv, &out)
	return out, err
}

func (c *Client) DeleteInvoice(ctx context.Context, id string) error {
	return c.delete(ctx, "/invoices/"+url.PathEscape(id))
}

// UploadInvoiceFile sends the file as multipart field "file".
func (c *Client) UploadInvoiceFile(ctx context.Context, filename string, r io.Reader) (UploadResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return UploadResult{}, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return UploadResult{}, fmt.Errorf("copy upload body: %w", err)
	}
	if err := mw.Close(); err != nil {
		return UploadResult{}, fmt.Errorf("close multipart writer: %w", err)
	}

	var out UploadResult
	err = c.do(ctx, http.MethodPost, "/invoices/upload", &buf, mw.FormDataContentType(), &out)
	return out, err
}

// Summaries

func (c *Client) MonthlySummary(ctx context.Context, year, month int) (core.ExpensesSummary, error) {
	var out core.ExpensesSummary
	path := fmt.Sprintf("/summary/monthly?year=%d&month=%d", year, month)
	if err := c.getJSON(ctx, path, &out); err != nil {
		return core.ExpensesSummary{}, err
	}
	if out.ByCategory == nil {
		out.ByCategory = core.CategoryTotals{}
	}
	return out, nil
}

func (c *Client) YearlySummary(ctx context.Context, year int) (core.ExpensesSummary, error) {
	var out core.ExpensesSummary
	path := fmt.Sprintf("/summary/yearly?year=%d", year)
	if err := c.getJSON(ctx, path, &out); err != nil {
		return core.ExpensesSummary{}, err
	}
	if out.ByCategory == nil {
		out.ByCategory = core.CategoryTotals{}
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, "", out)
}

func (c *Client) sendJSON(ctx context.Context, method, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%s %s: marshal body: %w", method, path, err)
	}
	return c.do(ctx, method, path, bytes.NewReader(body), "application/json", out)
}

func (c *Client) delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, "", nil)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s %s: build request: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Method: method,
			Path:   path,
			Code:   resp.StatusCode,
			Body:   strings.TrimSpace(string(snippet)),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: read body: %w", method, path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s %s: decode body: %w", method, path, err)
	}
	return nil
}
