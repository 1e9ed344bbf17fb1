// Package listing holds the pure list logic shared by every list view:
// filter predicates, category extraction, derived totals and display
// formatting. Nothing here mutates its input.
package listing

import (
	"sort"
	"strings"

	"expensetracker/internal/core"
)

// All is the wildcard value of status and category selectors.
const All = "all"

type (
	// Categorized items carry a free-text category label.
	Categorized interface {
		CategoryLabel() string
	}

	// Searchable items expose the fields free-text search looks at.
	Searchable interface {
		SearchFields() []string
	}

	// Priced items carry an amount.
	Priced interface {
		Value() core.Amount
	}

	// Statused items carry an exact-match status label.
	Statused interface {
		Status() string
	}

	// Activatable items can be active or inactive.
	Activatable interface {
		Active() bool
	}

	Predicate[T any] func(T) bool
)

// Apply returns a new slice with the items that satisfy every predicate.
// Predicates run in the order given, so callers pass status, category,
// then search.
func Apply[T any](items []T, preds ...Predicate[T]) []T {
	out := make([]T, 0, len(items))
next:
	for _, it := range items {
		for _, p := range preds {
			if p != nil && !p(it) {
				continue next
			}
		}
		out = append(out, it)
	}
	return out
}

// StatusIs matches the exact status, or everything for "all" and "".
func StatusIs[T Statused](status string) Predicate[T] {
	return func(it T) bool {
		return status == All || status == "" || it.Status() == status
	}
}

// ActiveState keeps active items when showActive is set and inactive
// ones when showInactive is set.
func ActiveState[T Activatable](showActive, showInactive bool) Predicate[T] {
	return func(it T) bool {
		if it.Active() {
			return showActive
		}
		return showInactive
	}
}

// CategoryIs matches the exact category, or everything for "all" and "".
func CategoryIs[T Categorized](category string) Predicate[T] {
	return func(it T) bool {
		return category == All || category == "" || it.CategoryLabel() == category
	}
}

// Search is a case-insensitive substring match over the item's search
// fields. An empty term matches everything; whitespace is matched as
// typed.
func Search[T Searchable](term string) Predicate[T] {
	needle := strings.ToLower(term)
	return func(it T) bool {
		if needle == "" {
			return true
		}
		for _, f := range it.SearchFields() {
			if f != "" && strings.Contains(strings.ToLower(f), needle) {
				return true
			}
		}
		return false
	}
}

// Categories returns the sorted, de-duplicated, non-empty category labels.
func Categories[T Categorized](items []T) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		c := it.CategoryLabel()
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Total sums the amounts of items.
func Total[T Priced](items []T) core.Amount {
	var sum core.Amount
	for _, it := range items {
		sum = sum.Add(it.Value())
	}
	return sum
}

// Count returns how many items satisfy pred.
func Count[T any](items []T, pred Predicate[T]) int {
	n := 0
	for _, it := range items {
		if pred(it) {
			n++
		}
	}
	return n
}

// MonthlyEquivalent sums subscription costs normalised to one month.
func MonthlyEquivalent(subs []core.Subscription) core.Amount {
	var sum core.Amount
	for _, s := range subs {
		sum = sum.Add(s.MonthlyCost())
	}
	return sum
}

// TopCategories ranks categories by amount, highest first, and keeps at
// most limit entries. Equal amounts are ordered by name.
func TopCategories(totals core.CategoryTotals, limit int) []core.CategoryAmount {
	ranked := make([]core.CategoryAmount, 0, len(totals))
	for name, amt := range totals {
		ranked = append(ranked, core.CategoryAmount{Category: name, Amount: amt})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if c := ranked[i].Amount.Cmp(ranked[j].Amount.Decimal); c != 0 {
			return c > 0
		}
		return ranked[i].Category < ranked[j].Category
	})
	if limit >= 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
