// Package catalog holds the pure classification and display-formatting
// helpers shared by the API handlers and the dashboard client code.
package catalog

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Bucket classifies a part's stock level against its minimum threshold.
type Bucket string

const (
	NoStock Bucket = "no_stock"
	Low     Bucket = "low"
	Medium  Bucket = "medium"
	Normal  Bucket = "normal"
)

// Status is the result of classifying a stock level.
type Status struct {
	Bucket   Bucket `json:"bucket"`
	Severity int    `json:"severity"`
}

// StockStatus classifies current stock against the minimum threshold.
// The rules form a priority chain, first match wins:
// zero stock, then at-or-below minimum, then at-or-below twice the
// minimum, then normal. Severity ranks no_stock highest (3) down to
// normal (0).
func StockStatus(current, minimum int) Status {
	switch {
	case current == 0:
		return Status{Bucket: NoStock, Severity: 3}
	case current <= minimum:
		return Status{Bucket: Low, Severity: 2}
	case current <= 2*minimum:
		return Status{Bucket: Medium, Severity: 1}
	default:
		return Status{Bucket: Normal, Severity: 0}
	}
}

// categoryColors maps catalog categories to display color tokens.
var categoryColors = map[string]string{
	"maintenance":  "green",
	"engine":       "red",
	"brakes":       "orange",
	"electrical":   "yellow",
	"transmission": "blue",
	"suspension":   "purple",
	"tires":        "teal",
	"bodywork":     "pink",
}

// CategoryColor returns the display color token for a category, falling
// back to "gray" for unknown categories.
func CategoryColor(category string) string {
	if c, ok := categoryColors[strings.ToLower(category)]; ok {
		return c
	}
	return "gray"
}

// FormatPrice renders an amount as "$12.500,50": dot as thousands
// separator, comma for decimals, always two decimal places. Rounding
// happens here only; callers keep full float precision until display.
func FormatPrice(amount float64) string {
	neg := amount < 0
	cents := int64(math.Round(math.Abs(amount) * 100))
	whole := cents / 100
	frac := cents % 100

	s := strconv.FormatInt(whole, 10)
	var b strings.Builder
	b.Grow(len(s) + len(s)/3 + 6)
	if neg {
		b.WriteByte('-')
	}
	b.WriteByte('$')

	rem := len(s) % 3
	if rem == 0 {
		rem = 3
	}
	b.WriteString(s[:rem])
	for i := rem; i < len(s); i += 3 {
		b.WriteByte('.')
		b.WriteString(s[i : i+3])
	}
	b.WriteString(fmt.Sprintf(",%02d", frac))
	return b.String()
}

// FormatDuration renders minutes as "45min", "2h" or "1h 30min".
func FormatDuration(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%dmin", minutes)
	}
	h, m := minutes/60, minutes%60
	if m == 0 {
		return fmt.Sprintf("%dh", h)
	}
	return fmt.Sprintf("%dh %dmin", h, m)
}
