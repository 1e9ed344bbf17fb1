package core

import "sort"

// CategoryTotals maps a category label to the amount spent in it.
type CategoryTotals map[string]Amount

// Keys returns the category labels in sorted order.
func (c CategoryTotals) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Category string
	Amount   Amount
}

// ExpensesSummary is computed by the backend for a month or a year.
type ExpensesSummary struct {
	Total          Amount         `json:"total"`
	ByCategory     CategoryTotals `json:"byCategory"`
	MonthlyAverage Amount         `json:"monthlyAverage"`
	YearlyTotal    Amount         `json:"yearlyTotal"`
}

// EmptySummary is the zero summary shown when nothing could be loaded.
func EmptySummary() ExpensesSummary {
	return ExpensesSummary{ByCategory: CategoryTotals{}}
}

// TrendPoint is one month of a spending trend.
type TrendPoint struct {
	Month  int
	Amount Amount
}
