package listing

import (
	"testing"
	"time"

	"expensetracker/internal/core"
)

func invoice(name, number string, status core.PaymentStatus, category, amount string) core.Invoice {
	return core.Invoice{
		Expense: core.Expense{
			Name:     name,
			Category: category,
			Amount:   core.CoerceAmount(amount),
		},
		Type:          core.TypeInvoice,
		InvoiceNumber: number,
		PaymentStatus: status,
	}
}

func subscription(name, category string, active bool, cycle core.BillingCycle, amount float64) core.Subscription {
	return core.Subscription{
		Expense:      core.Expense{Name: name, Category: category, Amount: core.NewAmount(amount)},
		Type:         core.TypeSubscription,
		BillingCycle: cycle,
		IsActive:     active,
	}
}

func invoiceFilter(status, category, term string) []Predicate[core.Invoice] {
	return []Predicate[core.Invoice]{
		StatusIs[core.Invoice](status),
		CategoryIs[core.Invoice](category),
		Search[core.Invoice](term),
	}
}

func TestApplyDefaultsReturnEverything(t *testing.T) {
	items := []core.Invoice{
		invoice("Acme", "INV-1", core.StatusOverdue, "Office", "10"),
		invoice("Globex", "INV-2", core.StatusPaid, "Travel", "20"),
		invoice("Initech", "INV-3", core.StatusPending, "", "30"),
	}
	got := Apply(items, invoiceFilter(All, All, "")...)
	if len(got) != len(items) {
		t.Fatalf("expected %d items, got %d", len(items), len(got))
	}
}

func TestApplyAllPredicatesMustPass(t *testing.T) {
	items := []core.Invoice{
		invoice("Acme hosting", "INV-1", core.StatusOverdue, "Office", "10"),
		invoice("Acme travel", "INV-2", core.StatusOverdue, "Travel", "20"),
		invoice("Globex", "INV-3", core.StatusPaid, "Office", "30"),
	}

	tests := []struct {
		name                   string
		status, category, term string
		want                   []string
	}{
		{"status only", "overdue", All, "", []string{"INV-1", "INV-2"}},
		{"category only", All, "Office", "", []string{"INV-1", "INV-3"}},
		{"status and category", "overdue", "Office", "", []string{"INV-1"}},
		{"search by name", All, All, "acme", []string{"INV-1", "INV-2"}},
		{"search and status", "paid", All, "acme", nil},
		{"no match", "pending", All, "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Apply(items, invoiceFilter(tt.status, tt.category, tt.term)...)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d items, want %d", len(got), len(tt.want))
			}
			for i, inv := range got {
				if inv.InvoiceNumber != tt.want[i] {
					t.Errorf("item %d = %s, want %s", i, inv.InvoiceNumber, tt.want[i])
				}
			}
		})
	}
}

func TestSearchInvoiceNumberCaseInsensitive(t *testing.T) {
	items := []core.Invoice{invoice("Acme", "INV-1", core.StatusOverdue, "Office", "250.50")}
	got := Apply(items, Search[core.Invoice]("inv-1"))
	if len(got) != 1 {
		t.Fatalf("expected inv-1 to match INV-1")
	}
}

func TestSearchNotes(t *testing.T) {
	sub := subscription("Music", "Streaming", true, core.CycleMonthly, 10)
	sub.Notes = "Family PLAN"
	if !Search[core.Subscription]("family plan")(sub) {
		t.Fatal("expected notes to be searched")
	}
	if Search[core.Subscription]("video")(sub) {
		t.Fatal("unexpected match")
	}
}

func TestSearchKeepsWhitespace(t *testing.T) {
	spaced := subscription("Apple Music", "Streaming", true, core.CycleMonthly, 10)
	single := subscription("Spotify", "Streaming", true, core.CycleMonthly, 10)
	got := Apply([]core.Subscription{spaced, single}, Search[core.Subscription](" "))
	if len(got) != 1 || got[0].Name != "Apple Music" {
		t.Fatalf("whitespace search = %+v", got)
	}
	if !Search[core.Subscription]("")(single) {
		t.Fatal("empty term should match everything")
	}
}

func TestApplyDoesNotMutateSource(t *testing.T) {
	items := []core.Invoice{
		invoice("A", "1", core.StatusPaid, "x", "1"),
		invoice("B", "2", core.StatusOverdue, "x", "1"),
	}
	_ = Apply(items, StatusIs[core.Invoice]("overdue"))
	if items[0].InvoiceNumber != "1" || items[1].InvoiceNumber != "2" || len(items) != 2 {
		t.Fatalf("source list changed: %+v", items)
	}
}

func TestActiveState(t *testing.T) {
	subs := []core.Subscription{
		subscription("on", "A", true, core.CycleMonthly, 1),
		subscription("off", "A", false, core.CycleMonthly, 1),
	}
	cases := []struct {
		active, inactive bool
		want             int
	}{
		{true, false, 1},
		{false, true, 1},
		{true, true, 2},
		{false, false, 0},
	}
	for _, tc := range cases {
		got := Apply(subs, ActiveState[core.Subscription](tc.active, tc.inactive))
		if len(got) != tc.want {
			t.Errorf("ActiveState(%v,%v) kept %d, want %d", tc.active, tc.inactive, len(got), tc.want)
		}
	}
}

func TestCategoriesSortedUniqueIdempotent(t *testing.T) {
	items := []core.Invoice{
		invoice("a", "1", core.StatusPaid, "Travel", "1"),
		invoice("b", "2", core.StatusPaid, "Office", "1"),
		invoice("c", "3", core.StatusPaid, "Travel", "1"),
		invoice("d", "4", core.StatusPaid, "", "1"),
		invoice("e", "5", core.StatusPaid, "Cloud", "1"),
	}
	first := Categories(items)
	want := []string{"Cloud", "Office", "Travel"}
	if len(first) != len(want) {
		t.Fatalf("Categories() = %v, want %v", first, want)
	}
	for i := range want {
		if first[i] != want[i] {
			t.Fatalf("Categories() = %v, want %v", first, want)
		}
	}

	// Reversed input yields the same set.
	rev := make([]core.Invoice, len(items))
	for i := range items {
		rev[len(items)-1-i] = items[i]
	}
	second := Categories(rev)
	for i := range want {
		if second[i] != first[i] {
			t.Fatalf("order dependent result: %v vs %v", first, second)
		}
	}
}

func TestTotalAndCount(t *testing.T) {
	items := []core.Invoice{invoice("Acme", "INV-1", core.StatusOverdue, "Office", "250.50")}
	if got := Total(items); got.String() != "250.5" {
		t.Fatalf("Total() = %s, want 250.5", got)
	}
	overdue := Count(items, StatusIs[core.Invoice](string(core.StatusOverdue)))
	if overdue != 1 {
		t.Fatalf("overdue = %d, want 1", overdue)
	}
}

func TestMonthlyEquivalent(t *testing.T) {
	subs := []core.Subscription{
		subscription("yearly", "A", true, core.CycleYearly, 1200),
		subscription("monthly", "A", true, core.CycleMonthly, 50),
	}
	if got := MonthlyEquivalent(subs); got.String() != "150" {
		t.Fatalf("MonthlyEquivalent() = %s, want 150", got)
	}
	if got := MonthlyEquivalent(subs[:1]); got.String() != "100" {
		t.Fatalf("yearly 1200 contributes %s, want 100", got)
	}
}

func TestTopCategories(t *testing.T) {
	totals := core.CategoryTotals{
		"Food":      core.NewAmount(300),
		"Rent":      core.NewAmount(1200),
		"Cloud":     core.NewAmount(300),
		"Transport": core.NewAmount(80),
	}
	top := TopCategories(totals, 3)
	want := []string{"Rent", "Cloud", "Food"}
	if len(top) != 3 {
		t.Fatalf("len = %d, want 3", len(top))
	}
	for i := range want {
		if top[i].Category != want[i] {
			t.Fatalf("TopCategories = %+v, want order %v", top, want)
		}
	}
	if all := TopCategories(totals, 10); len(all) != 4 {
		t.Fatalf("limit above size should keep all, got %d", len(all))
	}
}

func TestDaysUntil(t *testing.T) {
	today := time.Date(2025, 6, 10, 15, 30, 0, 0, time.UTC)
	cases := []struct {
		date core.Date
		want string
	}{
		{core.NewDate(2025, 6, 10), "Due today"},
		{core.NewDate(2025, 6, 11), "1 day left"},
		{core.NewDate(2025, 6, 20), "10 days left"},
		{core.NewDate(2025, 6, 9), "1 day overdue"},
		{core.NewDate(2025, 6, 1), "9 days overdue"},
	}
	for _, tc := range cases {
		if got := DaysUntil(tc.date, today); got != tc.want {
			t.Errorf("DaysUntil(%s) = %q, want %q", tc.date, got, tc.want)
		}
	}
}
