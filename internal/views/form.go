package views

import (
	"context"
	"slices"
	"strings"

	"expensetracker/internal/core"
)

// PresetCategories are offered by the subscription form; the first one is
// the default for a new subscription.
var PresetCategories = []string{
	"Entertainment",
	"Utilities",
	"Software",
	"Cloud Services",
	"Streaming",
	"Education",
	"Health",
	"Finance",
	"Shopping",
	"Other",
}

// Option is a value/label pair for a select input.
type Option struct {
	Value string
	Label string
}

var (
	FrequencyOptions = []Option{
		{string(core.Monthly), "Monthly"},
		{string(core.Yearly), "Yearly"},
		{string(core.Weekly), "Weekly"},
		{string(core.Daily), "Daily"},
	}
	BillingCycleOptions = []Option{
		{string(core.CycleMonthly), "Monthly"},
		{string(core.CycleYearly), "Yearly"},
	}
)

type FormState struct {
	Visible    bool
	IsEdit     bool
	Loading    bool
	Error      string
	Model      core.Subscription
	Categories []string
	Frequency  []Option
	Cycles     []Option
}

// SavedFunc runs after a successful submit with the backend's copy of the
// subscription.
type SavedFunc func(ctx context.Context, saved core.Subscription, created bool)

// SubscriptionForm edits a draft copy of a subscription. Nothing reaches
// the backend until Submit passes validation.
type SubscriptionForm struct {
	lifecycle
	store   SubscriptionStore
	deps    Deps
	onSaved SavedFunc

	visible bool
	isEdit  bool
	loading bool
	err     string
	model   core.Subscription
}

func NewSubscriptionForm(store SubscriptionStore, deps Deps, onSaved SavedFunc) *SubscriptionForm {
	f := &SubscriptionForm{
		store:   store,
		deps:    deps.withDefaults("subscription_form"),
		onSaved: onSaved,
	}
	f.start()
	f.model = f.defaults()
	return f
}

func (f *SubscriptionForm) defaults() core.Subscription {
	category := ""
	if len(PresetCategories) > 0 {
		category = PresetCategories[0]
	}
	return core.NewSubscription(category, f.deps.Now())
}

// Open shows the form. A subscription with an id switches to edit mode on
// a copy of it; nil or an id-less value starts from the defaults.
func (f *SubscriptionForm) Open(sub *core.Subscription) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.visible = true
	f.loading = false
	f.err = ""
	if sub != nil && sub.ID != "" {
		f.isEdit = true
		f.model = *sub
		return
	}
	f.isEdit = false
	f.model = f.defaults()
}

// Cancel hides the form and discards the draft.
func (f *SubscriptionForm) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resetLocked()
	f.visible = false
}

// SetModel replaces the draft, keeping the id of the subscription being
// edited.
func (f *SubscriptionForm) SetModel(m core.Subscription) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.isEdit {
		m.ID = f.model.ID
		m.CreatedAt = f.model.CreatedAt
		m.UpdatedAt = f.model.UpdatedAt
	} else {
		m.ID = ""
	}
	m.Type = core.TypeSubscription
	f.model = m
}

// Submit validates the draft and creates or updates it. On success it
// returns the saved subscription with its backend id, runs the saved
// callback and resets the form; on failure the form stays open with an
// error.
func (f *SubscriptionForm) Submit(ctx context.Context) (core.Subscription, bool) {
	f.mu.Lock()
	if f.closed || f.loading {
		f.mu.Unlock()
		return core.Subscription{}, false
	}
	model := f.model
	model.Name = strings.TrimSpace(model.Name)
	model.Category = strings.TrimSpace(model.Category)
	if err := model.Validate(); err != nil {
		f.err = ErrRequiredFields
		f.mu.Unlock()
		return core.Subscription{}, false
	}
	isEdit := f.isEdit
	f.loading = true
	f.err = ""
	f.mu.Unlock()

	bctx, done := f.bind(ctx)
	var (
		saved core.Subscription
		ok    bool
	)
	if isEdit {
		res := f.store.UpdateSubscription(bctx, model)
		saved, ok = res.Value, res.Ok()
	} else {
		res := f.store.AddSubscription(bctx, model)
		saved, ok = res.Value, res.Ok()
	}
	done()

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return core.Subscription{}, false
	}
	if !ok {
		f.loading = false
		if isEdit {
			f.err = ErrUpdateSubscription
		} else {
			f.err = ErrCreateSubscription
		}
		f.mu.Unlock()
		return core.Subscription{}, false
	}
	f.resetLocked()
	f.visible = false
	f.mu.Unlock()

	if saved.ID == "" {
		saved.ID = model.ID
	}
	if f.onSaved != nil {
		f.onSaved(ctx, saved, !isEdit)
	}
	return saved, true
}

func (f *SubscriptionForm) resetLocked() {
	f.model = f.defaults()
	f.isEdit = false
	f.loading = false
	f.err = ""
}

func (f *SubscriptionForm) Snapshot() FormState {
	f.mu.Lock()
	defer f.mu.Unlock()
	// A subscription edited with a custom category keeps it selectable.
	categories := PresetCategories
	if c := f.model.Category; c != "" && !slices.Contains(categories, c) {
		categories = append(slices.Clone(categories), c)
	}
	return FormState{
		Visible:    f.visible,
		IsEdit:     f.isEdit,
		Loading:    f.loading,
		Error:      f.err,
		Model:      f.model,
		Categories: categories,
		Frequency:  FrequencyOptions,
		Cycles:     BillingCycleOptions,
	}
}
