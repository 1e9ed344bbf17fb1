package listing

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"expensetracker/internal/core"
)

var monthNames = [...]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// MonthName returns the English month name for 1-12, "" otherwise.
func MonthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return monthNames[month-1]
}

// FormatCurrency formats an amount as US dollars, e.g. "$1,234.56".
func FormatCurrency(a core.Amount) string {
	d := a.Round(2)
	neg := d.IsNegative()
	if neg {
		d = d.Neg()
	}
	fixed := d.StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")
	s := "$" + groupThousands(intPart) + "." + frac
	if neg {
		return "-" + s
	}
	return s
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// FormatDate renders a day as "Jan 2, 2006".
func FormatDate(d core.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.Format("Jan 2, 2006")
}

// FormatPercentage renders value/total as a percentage with one decimal.
func FormatPercentage(value, total core.Amount) string {
	if total.IsZero() {
		return "0%"
	}
	pct := value.Decimal.Div(total.Decimal).Mul(decimal.NewFromInt(100))
	return pct.StringFixed(1) + "%"
}

// DaysUntil describes how far date is from today, counted in calendar days.
func DaysUntil(date core.Date, today time.Time) string {
	from := core.DateOf(today)
	days := int(date.Sub(from.Time).Hours() / 24)
	switch {
	case days == 0:
		return "Due today"
	case days > 0:
		return fmt.Sprintf("%d %s left", days, plural(days))
	default:
		return fmt.Sprintf("%d %s overdue", -days, plural(-days))
	}
}

func plural(n int) string {
	if n == 1 {
		return "day"
	}
	return "days"
}

// StatusBadgeClass maps an invoice payment status to its badge class.
func StatusBadgeClass(status core.PaymentStatus) string {
	switch status {
	case core.StatusPaid:
		return "bg-success"
	case core.StatusPending:
		return "bg-warning"
	case core.StatusOverdue:
		return "bg-danger"
	default:
		return "bg-secondary"
	}
}

// ActiveBadgeClass maps a subscription's active flag to its badge class.
func ActiveBadgeClass(active bool) string {
	if active {
		return "bg-success"
	}
	return "bg-secondary"
}
