package views

import (
	"context"

	"golang.org/x/sync/errgroup"

	"expensetracker/internal/core"
	"expensetracker/internal/listing"
	"expensetracker/internal/log"
)

type DashboardState struct {
	Year      int
	Month     int
	MonthName string

	Monthly core.ExpensesSummary
	Yearly  core.ExpensesSummary
	// MonthlyCategories is Monthly.ByCategory ranked by amount.
	MonthlyCategories []core.CategoryAmount

	MonthlyLoading bool
	YearlyLoading  bool
	Loading        bool

	MonthlyError string
	YearlyError  string
	Error        string
}

// summaryPair tracks the two summaries shown on the dashboard and the
// reports page. Each request owns its slot, loading flag and error.
type summaryPair struct {
	monthly, yearly               core.ExpensesSummary
	monthlyLoading, yearlyLoading bool
	monthlyErr, yearlyErr         string
}

func newSummaryPair() summaryPair {
	return summaryPair{
		monthly:        core.EmptySummary(),
		yearly:         core.EmptySummary(),
		monthlyLoading: true,
		yearlyLoading:  true,
	}
}

func (p *summaryPair) startLocked() {
	p.monthlyLoading, p.yearlyLoading = true, true
	p.monthlyErr, p.yearlyErr = "", ""
}

func (p *summaryPair) firstError() string {
	if p.monthlyErr != "" {
		return p.monthlyErr
	}
	return p.yearlyErr
}

// DashboardView shows this month's and this year's summaries.
type DashboardView struct {
	lifecycle
	store SummaryStore
	deps  Deps

	year, month int
	summaryPair
}

func NewDashboardView(store SummaryStore, deps Deps) *DashboardView {
	v := &DashboardView{
		store:       store,
		deps:        deps.withDefaults("dashboard"),
		summaryPair: newSummaryPair(),
	}
	now := v.deps.Now()
	v.year, v.month = now.Year(), int(now.Month())
	v.start()
	return v
}

// Load fetches the monthly and yearly summaries concurrently. Each
// response is applied as it arrives.
func (v *DashboardView) Load(ctx context.Context) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	now := v.deps.Now()
	v.year, v.month = now.Year(), int(now.Month())
	year, month := v.year, v.month
	gen := v.beginLocked()
	v.startLocked()
	v.mu.Unlock()

	ctx, done := v.bind(ctx)
	defer done()

	var g errgroup.Group
	g.Go(func() error {
		res := v.store.MonthlySummary(ctx, year, month)
		v.mu.Lock()
		defer v.mu.Unlock()
		if !v.currentLocked(gen) {
			return nil
		}
		v.monthlyLoading = false
		v.monthly = res.Value
		if !res.Ok() {
			v.monthlyErr = ErrLoadMonthlySummary
		}
		return nil
	})
	g.Go(func() error {
		res := v.store.YearlySummary(ctx, year)
		v.mu.Lock()
		defer v.mu.Unlock()
		if !v.currentLocked(gen) {
			return nil
		}
		v.yearlyLoading = false
		v.yearly = res.Value
		if !res.Ok() {
			v.yearlyErr = ErrLoadYearlySummary
		}
		return nil
	})
	_ = g.Wait()

	v.deps.Logger.DebugContext(ctx, "Dashboard loaded", log.FieldYear, year, log.FieldMonth, month)
}

func (v *DashboardView) Snapshot() DashboardState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return DashboardState{
		Year:              v.year,
		Month:             v.month,
		MonthName:         listing.MonthName(v.month),
		Monthly:           v.monthly,
		Yearly:            v.yearly,
		MonthlyCategories: listing.TopCategories(v.monthly.ByCategory, -1),
		MonthlyLoading:    v.monthlyLoading,
		YearlyLoading:     v.yearlyLoading,
		Loading:           v.monthlyLoading || v.yearlyLoading,
		MonthlyError:      v.monthlyErr,
		YearlyError:       v.yearlyErr,
		Error:             v.firstError(),
	}
}
