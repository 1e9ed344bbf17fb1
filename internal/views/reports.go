package views

import (
	"context"
	"strconv"

	"golang.org/x/sync/errgroup"

	"expensetracker/internal/core"
	"expensetracker/internal/listing"
	"expensetracker/internal/log"
)

// TopCategoryLimit is how many categories the reports page ranks.
const TopCategoryLimit = 5

// trendConcurrency bounds the monthly requests made for the trend.
const trendConcurrency = 4

type TrendState struct {
	Label  string
	Month  int
	Amount core.Amount
}

type ReportsState struct {
	Year      int
	Month     int
	MonthName string
	Years     []int
	Months    []Option

	Monthly core.ExpensesSummary
	Yearly  core.ExpensesSummary

	TopCategories  []core.CategoryAmount
	CategoryLabels []string
	CategoryValues []core.Amount
	Trend          []TrendState

	MonthlyLoading bool
	YearlyLoading  bool
	TrendLoading   bool
	Loading        bool

	MonthlyError string
	YearlyError  string
	Error        string
}

// ReportsView shows the summaries of a selected year and month, the top
// categories and a January-to-month spending trend.
type ReportsView struct {
	lifecycle
	store SummaryStore
	deps  Deps

	year, month int
	summaryPair
	trend        []core.TrendPoint
	trendLoading bool
}

func NewReportsView(store SummaryStore, deps Deps) *ReportsView {
	v := &ReportsView{
		store:        store,
		deps:         deps.withDefaults("reports"),
		summaryPair:  newSummaryPair(),
		trendLoading: true,
	}
	now := v.deps.Now()
	v.year, v.month = now.Year(), int(now.Month())
	v.start()
	return v
}

// SetPeriod selects a year and month and reloads. Out-of-range months are
// passed through; the backend rejects them and the view falls back to the
// empty summary.
func (v *ReportsView) SetPeriod(ctx context.Context, year, month int) {
	v.mu.Lock()
	v.year, v.month = year, month
	v.mu.Unlock()
	v.Load(ctx)
}

// Load fetches the monthly and yearly summaries and the trend
// concurrently.
func (v *ReportsView) Load(ctx context.Context) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	year, month := v.year, v.month
	gen := v.beginLocked()
	v.startLocked()
	v.trendLoading = true
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
	g.Go(func() error {
		trend := v.loadTrend(ctx, year, month)
		v.mu.Lock()
		defer v.mu.Unlock()
		if !v.currentLocked(gen) {
			return nil
		}
		v.trendLoading = false
		v.trend = trend
		return nil
	})
	_ = g.Wait()

	v.deps.Logger.DebugContext(ctx, "Reports loaded", log.FieldYear, year, log.FieldMonth, month)
}

// loadTrend returns the monthly totals from January to month. A month
// whose summary fails counts as zero.
func (v *ReportsView) loadTrend(ctx context.Context, year, month int) []core.TrendPoint {
	if month < 1 || month > 12 {
		return nil
	}
	points := make([]core.TrendPoint, month)
	var g errgroup.Group
	g.SetLimit(trendConcurrency)
	for m := 1; m <= month; m++ {
		g.Go(func() error {
			res := v.store.MonthlySummary(ctx, year, m)
			points[m-1] = core.TrendPoint{Month: m, Amount: res.Value.Total}
			return nil
		})
	}
	_ = g.Wait()
	return points
}

func (v *ReportsView) Snapshot() ReportsState {
	v.mu.Lock()
	defer v.mu.Unlock()

	labels := v.monthly.ByCategory.Keys()
	values := make([]core.Amount, len(labels))
	for i, k := range labels {
		values[i] = v.monthly.ByCategory[k]
	}
	trend := make([]TrendState, len(v.trend))
	for i, p := range v.trend {
		name := listing.MonthName(p.Month)
		trend[i] = TrendState{Label: name[:3], Month: p.Month, Amount: p.Amount}
	}

	return ReportsState{
		Year:           v.year,
		Month:          v.month,
		MonthName:      listing.MonthName(v.month),
		Years:          yearChoices(v.deps.Now().Year(), v.year),
		Months:         monthChoices(),
		Monthly:        v.monthly,
		Yearly:         v.yearly,
		TopCategories:  listing.TopCategories(v.monthly.ByCategory, TopCategoryLimit),
		CategoryLabels: labels,
		CategoryValues: values,
		Trend:          trend,
		MonthlyLoading: v.monthlyLoading,
		YearlyLoading:  v.yearlyLoading,
		TrendLoading:   v.trendLoading,
		Loading:        v.monthlyLoading || v.yearlyLoading || v.trendLoading,
		MonthlyError:   v.monthlyErr,
		YearlyError:    v.yearlyErr,
		Error:          v.firstError(),
	}
}

// ChartData returns the category labels and values of the selected month.
func (v *ReportsView) ChartData() ([]string, []core.Amount) {
	s := v.Snapshot()
	return s.CategoryLabels, s.CategoryValues
}

func yearChoices(current, selected int) []int {
	years := make([]int, 0, 6)
	for y := current; y > current-5; y-- {
		years = append(years, y)
	}
	if selected > current || selected <= current-5 {
		years = append(years, selected)
	}
	return years
}

func monthChoices() []Option {
	out := make([]Option, 12)
	for m := 1; m <= 12; m++ {
		out[m-1] = Option{Value: strconv.Itoa(m), Label: listing.MonthName(m)}
	}
	return out
}
