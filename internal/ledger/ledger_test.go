package ledger

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	goption "google.golang.org/api/option"

	"expensetracker/internal/amqp"
	"expensetracker/internal/core"
)

var recorded = time.Date(2025, 3, 15, 9, 30, 0, 0, time.UTC)

func invoiceEvent() amqp.ChangeEvent {
	return amqp.ChangeEvent{EventID: "ev-1", Entity: amqp.EntityInvoice, Action: amqp.ActionUpdated, ID: "i1"}
}

func TestRowValues(t *testing.T) {
	inv := core.Invoice{
		Expense: core.Expense{
			Name:        "Acme",
			Amount:      core.NewAmount(250.5),
			Category:    "Office",
			PaymentDate: core.NewDate(2025, 3, 1),
		},
		InvoiceNumber: "INV-1",
		PaymentStatus: core.StatusOverdue,
	}
	vals := InvoiceRow(invoiceEvent(), inv, recorded).Values()

	if len(vals) != len(Header) {
		t.Fatalf("got %d values for %d columns", len(vals), len(Header))
	}
	want := []any{"2025-03-15T09:30:00Z", "ev-1", "invoice", "updated", "i1", "Acme (INV-1)", "Office", 250.5, "2025-03-01", "overdue"}
	for i := range want {
		if vals[i] != want[i] {
			t.Errorf("column %s = %v, want %v", Header[i], vals[i], want[i])
		}
	}
}

func TestSubscriptionRowAndTombstone(t *testing.T) {
	s := core.NewSubscription("Streaming", recorded)
	s.Name = "Netflix"
	s.Amount = core.NewAmount(15.99)
	s.IsActive = false

	ev := amqp.ChangeEvent{EventID: "ev-2", Entity: amqp.EntitySubscription, Action: amqp.ActionCreated, ID: "s1"}
	if r := SubscriptionRow(ev, s, recorded); r.Status != "inactive" || r.Name != "Netflix" || r.Date != s.PaymentDate {
		t.Fatalf("row = %+v", r)
	}

	ev.Action = amqp.ActionDeleted
	r := Tombstone(ev, recorded)
	vals := r.Values()
	if r.Status != "deleted" || vals[5] != "" || vals[8] != "" || vals[7] != 0.0 {
		t.Fatalf("tombstone values = %v", vals)
	}
}

func TestMemoryAppend(t *testing.T) {
	m := NewMemory()
	ref, err := m.Append(context.Background(), Tombstone(invoiceEvent(), recorded))
	if err != nil || ref != "mem:1" {
		t.Fatalf("ref=%q err=%v", ref, err)
	}
	ref, _ = m.Append(context.Background(), Tombstone(invoiceEvent(), recorded))
	if ref != "mem:2" || len(m.Rows()) != 2 {
		t.Fatalf("ref=%q rows=%d", ref, len(m.Rows()))
	}
}

type sheetsRequest struct {
	path  string
	query string
	body  map[string]any
}

func newFakeSheets(t *testing.T, status int) (*httptest.Server, *[]sheetsRequest) {
	t.Helper()
	var (
		mu   sync.Mutex
		reqs []sheetsRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		var body map[string]any
		_ = json.Unmarshal(data, &body)
		mu.Lock()
		reqs = append(reqs, sheetsRequest{path: r.URL.Path, query: r.URL.RawQuery, body: body})
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			io.WriteString(w, `{"error":{"code":403,"message":"permission denied"}}`)
			return
		}
		io.WriteString(w, `{"spreadsheetId":"sheet-1","updates":{"updatedRange":"Ledger!A7:J7","updatedRows":1}}`)
	}))
	t.Cleanup(srv.Close)
	return srv, &reqs
}

func newTestSheets(t *testing.T, url string) *Sheets {
	t.Helper()
	s, err := NewSheets(context.Background(),
		SheetsConfig{SpreadsheetID: "sheet-1", SheetName: "Ledger"},
		nil,
		goption.WithEndpoint(url+"/"),
		goption.WithoutAuthentication(),
	)
	if err != nil {
		t.Fatalf("NewSheets: %v", err)
	}
	return s
}

func TestSheetsAppend(t *testing.T) {
	srv, reqs := newFakeSheets(t, http.StatusOK)
	s := newTestSheets(t, srv.URL)

	ref, err := s.Append(context.Background(), Tombstone(invoiceEvent(), recorded))
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if ref != "Ledger!A7:J7" {
		t.Fatalf("ref = %q", ref)
	}

	if len(*reqs) != 1 {
		t.Fatalf("requests = %d", len(*reqs))
	}
	req := (*reqs)[0]
	if !strings.Contains(req.path, "/spreadsheets/sheet-1/values/") || !strings.HasSuffix(req.path, ":append") {
		t.Errorf("path = %q", req.path)
	}
	if !strings.Contains(req.query, "valueInputOption=USER_ENTERED") || !strings.Contains(req.query, "insertDataOption=INSERT_ROWS") {
		t.Errorf("query = %q", req.query)
	}
	values, _ := req.body["values"].([]any)
	if len(values) != 1 {
		t.Fatalf("body = %v", req.body)
	}
	if row, _ := values[0].([]any); len(row) != len(Header) || row[1] != "ev-1" {
		t.Fatalf("row = %v", values[0])
	}
}

func TestSheetsAppendError(t *testing.T) {
	srv, _ := newFakeSheets(t, http.StatusForbidden)
	s := newTestSheets(t, srv.URL)

	if _, err := s.Append(context.Background(), Tombstone(invoiceEvent(), recorded)); err == nil || !strings.Contains(err.Error(), "append to sheet Ledger") {
		t.Fatalf("err = %v", err)
	}
}

func TestNewSheetsValidation(t *testing.T) {
	if _, err := NewSheets(context.Background(), SheetsConfig{}, nil); err == nil {
		t.Fatal("expected missing spreadsheet id error")
	}
	_, err := NewSheets(context.Background(), SheetsConfig{SpreadsheetID: "x"}, nil)
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("err = %v", err)
	}
	_, err = NewSheets(context.Background(), SheetsConfig{SpreadsheetID: "x", CredentialsFile: "/does/not/exist.json"}, nil)
	if err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Fatalf("err = %v", err)
	}
}
