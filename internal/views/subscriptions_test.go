package views

import (
	"context"
	"testing"

	"expensetracker/internal/amqp"
	"expensetracker/internal/core"
)

func seededSubscriptions() *fakeStore {
	return &fakeStore{subs: []core.Subscription{
		sub("1", "Cloud storage", "Cloud Services", true, core.CycleYearly, 1200),
		sub("2", "Music", "Streaming", true, core.CycleMonthly, 50),
		sub("3", "Old gym", "Health", false, core.CycleMonthly, 30),
	}}
}

func TestSubscriptionsDefaultFilters(t *testing.T) {
	v := NewSubscriptionsView(seededSubscriptions(), testDeps(nil))
	v.Load(context.Background())

	s := v.Snapshot()
	if !s.ShowActive || s.ShowInactive || s.Category != "all" {
		t.Fatalf("unexpected default filters: %+v", s)
	}
	if len(s.Items) != 2 {
		t.Fatalf("default view should hide inactive, got %d items", len(s.Items))
	}
	if s.MonthlyTotal.String() != "150" {
		t.Fatalf("monthly total = %s, want 150", s.MonthlyTotal)
	}
	want := []string{"Cloud Services", "Health", "Streaming"}
	for i := range want {
		if s.Categories[i] != want[i] {
			t.Fatalf("categories = %v, want %v", s.Categories, want)
		}
	}
}

func TestSubscriptionsFilters(t *testing.T) {
	store := seededSubscriptions()
	v := NewSubscriptionsView(store, testDeps(nil))
	v.Load(context.Background())

	tests := []struct {
		name             string
		active, inactive bool
		category, search string
		want             int
	}{
		{"inactive only", false, true, "all", "", 1},
		{"everything", true, true, "", "", 3},
		{"category", true, true, "Streaming", "", 1},
		{"search notes and name", true, true, "all", "MUSIC", 1},
		{"nothing", false, false, "all", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v.SetFilters(tt.active, tt.inactive, tt.category, tt.search)
			if got := len(v.Snapshot().Items); got != tt.want {
				t.Fatalf("got %d items, want %d", got, tt.want)
			}
		})
	}
	if store.listCalls != 1 {
		t.Fatalf("filters must not reload, list calls = %d", store.listCalls)
	}
}

func TestSubscriptionsToggleActive(t *testing.T) {
	store := seededSubscriptions()
	pub := &fakePublisher{}
	v := NewSubscriptionsView(store, testDeps(pub))
	v.Load(context.Background())

	if !v.ToggleActive(context.Background(), "3") {
		t.Fatalf("toggle failed: %q", v.Snapshot().Error)
	}
	sent := store.updates[0].(core.Subscription)
	if !sent.IsActive || sent.Name != "Old gym" {
		t.Fatalf("full resource not sent: %+v", sent)
	}
	if len(v.Snapshot().Items) != 3 {
		t.Fatal("reactivated subscription should be visible after reload")
	}
	if len(pub.events) != 1 || pub.events[0].Entity != amqp.EntitySubscription || pub.events[0].Action != amqp.ActionUpdated {
		t.Fatalf("events = %+v", pub.events)
	}

	store.failUpdate = true
	if v.ToggleActive(context.Background(), "1") {
		t.Fatal("toggle should fail")
	}
	if v.Snapshot().Error != ErrToggleSubscription {
		t.Fatalf("error = %q", v.Snapshot().Error)
	}
}

func TestSubscriptionsDelete(t *testing.T) {
	store := seededSubscriptions()
	v := NewSubscriptionsView(store, testDeps(nil))
	v.Load(context.Background())

	c := &recordingConfirmer{answer: false}
	v.Delete(context.Background(), "1", c)
	if len(store.deletes) != 0 || c.messages[0] != ConfirmDeleteSubscription {
		t.Fatal("declined confirmation must not call the backend")
	}

	store.failDelete = true
	if v.Delete(context.Background(), "1", Confirmation(true)) {
		t.Fatal("delete should fail")
	}
	if s := v.Snapshot(); s.Error != ErrDeleteSubscription || s.SourceCount != 3 {
		t.Fatalf("failed delete changed state: %+v", s)
	}

	store.failDelete = false
	if !v.Delete(context.Background(), "1", Confirmation(true)) {
		t.Fatal("delete failed")
	}
	if s := v.Snapshot(); s.SourceCount != 2 || s.Error != "" {
		t.Fatalf("after delete: %+v", s)
	}
}

func TestSubscriptionsFormCreateReloads(t *testing.T) {
	store := seededSubscriptions()
	pub := &fakePublisher{}
	v := NewSubscriptionsView(store, testDeps(pub))
	v.Load(context.Background())

	v.OpenAdd()
	f := v.Form()
	m := f.Snapshot().Model
	m.Name = "News"
	m.Amount = core.NewAmount(9)
	f.SetModel(m)

	saved, ok := f.Submit(context.Background())
	if !ok {
		t.Fatalf("submit failed: %q", f.Snapshot().Error)
	}
	if saved.ID != "new-sub" || saved.Name != "News" {
		t.Fatalf("saved = %+v", saved)
	}
	if f.Snapshot().Visible {
		t.Fatal("form should close after save")
	}
	if store.listCalls != 2 {
		t.Fatalf("expected reload after save, list calls = %d", store.listCalls)
	}
	if len(pub.events) != 1 || pub.events[0].Action != amqp.ActionCreated || pub.events[0].ID != "new-sub" {
		t.Fatalf("events = %+v", pub.events)
	}
}

func TestSubscriptionsOpenEdit(t *testing.T) {
	v := NewSubscriptionsView(seededSubscriptions(), testDeps(nil))
	v.Load(context.Background())

	if !v.OpenEdit("2") {
		t.Fatal("OpenEdit failed")
	}
	fs := v.Snapshot().Form
	if !fs.Visible || !fs.IsEdit || fs.Model.Name != "Music" {
		t.Fatalf("form state = %+v", fs)
	}
	if v.OpenEdit("missing") {
		t.Fatal("OpenEdit should fail for unknown id")
	}
}
