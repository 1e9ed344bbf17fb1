package views

import (
	"context"

	"expensetracker/internal/amqp"
	"expensetracker/internal/core"
	"expensetracker/internal/listing"
	"expensetracker/internal/log"
)

type SubscriptionsState struct {
	Items      []core.Subscription
	Categories []string

	ShowActive   bool
	ShowInactive bool
	Category     string
	Search       string

	MonthlyTotal core.Amount
	Total        core.Amount
	SourceCount  int

	Loading bool
	Error   string

	Form FormState
}

// SubscriptionsView lists subscriptions and owns the add/edit form.
type SubscriptionsView struct {
	lifecycle
	store SubscriptionStore
	deps  Deps
	form  *SubscriptionForm

	all        []core.Subscription
	filtered   []core.Subscription
	categories []string

	showActive   bool
	showInactive bool
	category     string
	search       string

	loading bool
	err     string
}

func NewSubscriptionsView(store SubscriptionStore, deps Deps) *SubscriptionsView {
	v := &SubscriptionsView{
		store:        store,
		deps:         deps.withDefaults("subscriptions"),
		showActive:   true,
		showInactive: false,
		category:     listing.All,
		loading:      true,
	}
	v.start()
	v.form = NewSubscriptionForm(store, deps, v.formSaved)
	return v
}

// Form returns the embedded subscription form.
func (v *SubscriptionsView) Form() *SubscriptionForm { return v.form }

// Load fetches the full list and re-applies the current filters.
func (v *SubscriptionsView) Load(ctx context.Context) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	gen := v.beginLocked()
	v.loading = true
	v.err = ""
	v.mu.Unlock()

	ctx, done := v.bind(ctx)
	defer done()
	res := v.store.Subscriptions(ctx)

	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.currentLocked(gen) {
		v.deps.Logger.DebugContext(ctx, "Discarding stale subscription load")
		return
	}
	v.loading = false
	if !res.Ok() {
		v.err = ErrLoadSubscriptions
		v.all = nil
		v.categories = nil
		v.filtered = []core.Subscription{}
		return
	}
	v.all = res.Value
	v.categories = listing.Categories(v.all)
	v.applyLocked()
	v.deps.Logger.DebugContext(ctx, "Subscriptions loaded", log.FieldCount, len(v.all))
}

func (v *SubscriptionsView) applyLocked() {
	v.filtered = listing.Apply(v.all,
		listing.ActiveState[core.Subscription](v.showActive, v.showInactive),
		listing.CategoryIs[core.Subscription](v.category),
		listing.Search[core.Subscription](v.search),
	)
}

// SetFilters changes every filter at once without reloading.
func (v *SubscriptionsView) SetFilters(showActive, showInactive bool, category, search string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.showActive = showActive
	v.showInactive = showInactive
	v.category = orAll(category)
	v.search = search
	v.applyLocked()
}

func (v *SubscriptionsView) SetCategoryFilter(category string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.category = orAll(category)
	v.applyLocked()
}

func (v *SubscriptionsView) SetSearch(term string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.search = term
	v.applyLocked()
}

// Delete removes a subscription after confirmation and reloads the list.
func (v *SubscriptionsView) Delete(ctx context.Context, id string, confirm Confirmer) bool {
	if confirm == nil || !confirm.Confirm(ConfirmDeleteSubscription) {
		return false
	}
	if v.Closed() {
		return false
	}

	bctx, done := v.bind(ctx)
	res := v.store.DeleteSubscription(bctx, id)
	done()

	if !res.Ok() || !res.Value {
		v.fail(ErrDeleteSubscription)
		return false
	}
	if v.Closed() {
		return false
	}
	publish(ctx, v.deps, amqp.EntitySubscription, amqp.ActionDeleted, id)
	v.Load(ctx)
	return true
}

// ToggleActive flips isActive with a full-resource update.
func (v *SubscriptionsView) ToggleActive(ctx context.Context, id string) bool {
	sub, ok := v.find(id)
	if !ok {
		v.fail(ErrSubscriptionMissing)
		return false
	}
	sub.IsActive = !sub.IsActive

	bctx, done := v.bind(ctx)
	res := v.store.UpdateSubscription(bctx, sub)
	done()

	if !res.Ok() {
		v.fail(ErrToggleSubscription)
		return false
	}
	if v.Closed() {
		return false
	}
	publish(ctx, v.deps, amqp.EntitySubscription, amqp.ActionUpdated, id)
	v.Load(ctx)
	return true
}

// OpenAdd shows the form with defaults.
func (v *SubscriptionsView) OpenAdd() {
	v.form.Open(nil)
}

// OpenEdit shows the form pre-filled with the subscription id.
func (v *SubscriptionsView) OpenEdit(id string) bool {
	sub, ok := v.find(id)
	if !ok {
		v.fail(ErrSubscriptionMissing)
		return false
	}
	v.form.Open(&sub)
	return true
}

func (v *SubscriptionsView) formSaved(ctx context.Context, saved core.Subscription, created bool) {
	if v.Closed() {
		return
	}
	action := amqp.ActionUpdated
	if created {
		action = amqp.ActionCreated
	}
	publish(ctx, v.deps, amqp.EntitySubscription, action, saved.ID)
	v.Load(ctx)
}

func (v *SubscriptionsView) find(id string) (core.Subscription, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, s := range v.all {
		if s.ID == id {
			return s, true
		}
	}
	return core.Subscription{}, false
}

func (v *SubscriptionsView) fail(msg string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.closed {
		v.err = msg
	}
}

// Close tears down the view and its form.
func (v *SubscriptionsView) Close() {
	v.form.Close()
	v.lifecycle.Close()
}

func (v *SubscriptionsView) Snapshot() SubscriptionsState {
	form := v.form.Snapshot()

	v.mu.Lock()
	defer v.mu.Unlock()
	items := make([]core.Subscription, len(v.filtered))
	copy(items, v.filtered)
	return SubscriptionsState{
		Items:        items,
		Categories:   append([]string(nil), v.categories...),
		ShowActive:   v.showActive,
		ShowInactive: v.showInactive,
		Category:     v.category,
		Search:       v.search,
		MonthlyTotal: listing.MonthlyEquivalent(v.filtered),
		Total:        listing.Total(v.filtered),
		SourceCount:  len(v.all),
		Loading:      v.loading,
		Error:        v.err,
		Form:         form,
	}
}
