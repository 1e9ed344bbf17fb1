package core

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestSubscriptionValidate(t *testing.T) {
	good := NewSubscription("Software", time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC))
	good.Name = "Editor"
	good.Amount = NewAmount(9.99)
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Subscription)
		want   error
	}{
		{"empty name", func(s *Subscription) { s.Name = "  " }, ErrEmptyName},
		{"zero amount", func(s *Subscription) { s.Amount = Amount{} }, ErrInvalidAmount},
		{"negative amount", func(s *Subscription) { s.Amount = NewAmount(-1) }, ErrInvalidAmount},
		{"empty category", func(s *Subscription) { s.Category = "" }, ErrEmptyCategory},
		{"no payment date", func(s *Subscription) { s.PaymentDate = Date{} }, ErrMissingPayment},
		{"no start date", func(s *Subscription) { s.StartDate = Date{} }, ErrMissingStart},
		{"bad frequency", func(s *Subscription) { s.Frequency = "hourly" }, ErrInvalidFrequency},
		{"bad cycle", func(s *Subscription) { s.BillingCycle = "weekly" }, ErrInvalidCycle},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := good
			tc.mutate(&s)
			if err := s.Validate(); err != tc.want {
				t.Fatalf("Validate() = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestMonthlyCost(t *testing.T) {
	yearly := Subscription{Expense: Expense{Amount: NewAmount(1200)}, BillingCycle: CycleYearly}
	if got := yearly.MonthlyCost(); !got.Equal(NewAmount(100).Decimal) {
		t.Fatalf("yearly monthly cost = %s, want 100", got)
	}
	monthly := Subscription{Expense: Expense{Amount: NewAmount(50)}, BillingCycle: CycleMonthly}
	if got := monthly.MonthlyCost(); !got.Equal(NewAmount(50).Decimal) {
		t.Fatalf("monthly cost = %s, want 50", got)
	}
}

func TestInvoiceDecodeCoercesStringAmount(t *testing.T) {
	body := `{"id":"inv_1","name":"Acme","amount":"250.50","category":"Office",
		"paymentDate":"2025-01-15T00:00:00.000Z","isRecurring":false,
		"createdAt":"2025-01-10T08:30:00Z","updatedAt":"2025-01-10T08:30:00Z",
		"type":"invoice","invoiceNumber":"INV-1","paymentStatus":"overdue"}`

	var inv Invoice
	if err := json.Unmarshal([]byte(body), &inv); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if inv.ID != "inv_1" || inv.InvoiceNumber != "INV-1" {
		t.Fatalf("unexpected invoice: %+v", inv)
	}
	if inv.Amount.String() != "250.5" {
		t.Fatalf("amount = %s, want 250.5", inv.Amount)
	}
	if inv.PaymentDate.String() != "2025-01-15" {
		t.Fatalf("payment date = %s", inv.PaymentDate)
	}
	if inv.CreatedAt == nil || inv.CreatedAt.Year() != 2025 {
		t.Fatalf("createdAt not decoded: %+v", inv.CreatedAt)
	}
}

func TestAmountDecodeFallsBackToZero(t *testing.T) {
	for _, raw := range []string{`"abc"`, `""`, `null`} {
		var a Amount
		if err := json.Unmarshal([]byte(raw), &a); err != nil {
			t.Fatalf("%s: unexpected error %v", raw, err)
		}
		if !a.IsZero() {
			t.Fatalf("%s: expected zero, got %s", raw, a)
		}
	}
}

func TestCreatePayloadOmitsServerFields(t *testing.T) {
	ts := Timestamp{Time: time.Now()}
	s := NewSubscription("Streaming", time.Date(2025, 5, 2, 0, 0, 0, 0, time.UTC))
	s.ID = "sub_9"
	s.Name = "Video"
	s.Amount = NewAmount(12)
	s.CreatedAt = &ts
	s.UpdatedAt = &ts
	s.Expense = s.Expense.ForCreate()

	out, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	body := string(out)
	for _, field := range []string{`"id"`, `"createdAt"`, `"updatedAt"`} {
		if strings.Contains(body, field) {
			t.Fatalf("payload should not contain %s: %s", field, body)
		}
	}
	for _, want := range []string{`"amount":12`, `"startDate":"2025-05-02"`, `"type":"subscription"`, `"billingCycle":"monthly"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("payload missing %s: %s", want, body)
		}
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"2025-03-15", "2025-03-15", false},
		{"2025-03-15T00:00:00Z", "2025-03-15", false},
		{"2025-03-15T08:00:00.000+02:00", "2025-03-15", false},
		{"2024-01-15T00:00:00", "2024-01-15", false},
		{"2024-01-15T10:30:00.1234567", "2024-01-15", false},
		{" 2024-01-15 ", "2024-01-15", false},
		{"15/01/2024", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseDate(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseDate(%q) err = %v", tt.in, err)
		}
		if got.String() != tt.want {
			t.Fatalf("ParseDate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
