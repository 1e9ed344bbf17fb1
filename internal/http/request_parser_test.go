package http

import (
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"expensetracker/internal/core"
)

func TestParseMonthParams(t *testing.T) {
	now := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name      string
		query     string
		wantYear  int
		wantMonth int
	}{
		{"defaults", "", 2025, 3},
		{"explicit", "year=2024&month=11", 2024, 11},
		{"garbage falls back", "year=abc&month=x", 2025, 3},
		{"out of range month kept", "month=13", 2025, 13},
		{"whitespace", "year=%202023%20", 2023, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			if err != nil {
				t.Fatal(err)
			}
			got := ParseMonthParams(q, now)
			if got.Year != tt.wantYear || got.Month != tt.wantMonth {
				t.Fatalf("got %d/%d, want %d/%d", got.Year, got.Month, tt.wantYear, tt.wantMonth)
			}
		})
	}
}

func TestParseBool(t *testing.T) {
	for _, v := range []string{"1", "true", "on", "YES", " true "} {
		if !ParseBool(v) {
			t.Errorf("ParseBool(%q) = false", v)
		}
	}
	for _, v := range []string{"", "0", "false", "off", "maybe"} {
		if ParseBool(v) {
			t.Errorf("ParseBool(%q) = true", v)
		}
	}
}

func TestParseFilters(t *testing.T) {
	q := url.Values{"active": {"true"}, "search": {"  net\x00flix "}}
	sf := ParseSubscriptionFilters(q)
	if !sf.ShowActive || sf.ShowInactive || sf.Category != "all" || sf.Search != "  netflix " {
		t.Fatalf("subscription filters = %+v", sf)
	}

	inf := ParseInvoiceFilters(url.Values{"status": {"paid"}, "category": {"Utilities"}})
	if inf.Status != "paid" || inf.Category != "Utilities" || inf.Search != "" {
		t.Fatalf("invoice filters = %+v", inf)
	}
}

func TestParseSubscriptionForm(t *testing.T) {
	base := core.NewSubscription("Entertainment", time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC))
	base.ID = "42"

	form := url.Values{
		"name":         {" Netflix "},
		"amount":       {"15.99"},
		"category":     {"Streaming"},
		"paymentDate":  {"2025-04-01"},
		"startDate":    {"2025-01-01"},
		"endDate":      {"2025-12-31"},
		"frequency":    {"yearly"},
		"billingCycle": {"bogus"},
		"isActive":     {"on"},
	}
	got := ParseSubscriptionForm(form, base)

	if got.ID != "42" || got.Type != core.TypeSubscription {
		t.Fatalf("base fields lost: %+v", got)
	}
	if got.Name != "Netflix" || got.Amount.String() != "15.99" || got.Category != "Streaming" {
		t.Fatalf("parsed %+v", got)
	}
	if got.PaymentDate.String() != "2025-04-01" || got.EndDate == nil || got.EndDate.String() != "2025-12-31" {
		t.Fatalf("dates %s %v", got.PaymentDate, got.EndDate)
	}
	if got.Frequency != core.Frequency("yearly") || got.BillingCycle != base.BillingCycle {
		t.Fatalf("enums %s %s", got.Frequency, got.BillingCycle)
	}
	if !got.IsActive || got.IsRecurring {
		t.Fatalf("flags active=%v recurring=%v", got.IsActive, got.IsRecurring)
	}
}

func TestParseSubscriptionFormInvalidValuesBecomeZero(t *testing.T) {
	got := ParseSubscriptionForm(url.Values{"amount": {"ten"}, "paymentDate": {"15/03/2025"}}, core.Subscription{})
	if !got.Amount.IsZero() || !got.PaymentDate.IsZero() || got.EndDate != nil {
		t.Fatalf("got %+v", got)
	}
	if got.Validate() == nil {
		t.Fatal("zero values should fail validation")
	}
}

func TestRequestBodyParser(t *testing.T) {
	t.Run("form", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/", strings.NewReader("name=Gym&confirmed=true"))
		p := NewRequestBodyParser(r)
		if err := p.Parse(); err != nil {
			t.Fatal(err)
		}
		if p.IsJSON() || p.Get("name") != "Gym" || p.Get("confirmed") != "true" {
			t.Fatalf("parsed name=%q", p.Get("name"))
		}
	})

	t.Run("json", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"Gym","amount":12.5,"isActive":true}`))
		p := NewRequestBodyParser(r)
		if err := p.Parse(); err != nil {
			t.Fatal(err)
		}
		if !p.IsJSON() || p.Get("amount") != "12.5" || p.Get("isActive") != "true" || p.Get("missing") != "" {
			t.Fatalf("json values %q %q", p.Get("amount"), p.Get("isActive"))
		}
	})

	t.Run("empty", func(t *testing.T) {
		p := NewRequestBodyParser(httptest.NewRequest("POST", "/", nil))
		if err := p.Parse(); err != nil || p.Get("x") != "" {
			t.Fatalf("err=%v", err)
		}
	})

	t.Run("too large", func(t *testing.T) {
		body := "name=" + strings.Repeat("a", maxFormBytes)
		p := NewRequestBodyParser(httptest.NewRequest("POST", "/", strings.NewReader(body)))
		if err := p.Parse(); err != errBodyTooLarge {
			t.Fatalf("err = %v", err)
		}
	})

	t.Run("bad json", func(t *testing.T) {
		p := NewRequestBodyParser(httptest.NewRequest("POST", "/", strings.NewReader("{nope")))
		if p.Parse() == nil {
			t.Fatal("expected an error")
		}
	})
}
