package format

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode"

	"github.com/dustin/go-humanize"
	"github.com/ppiankov/claimview/internal/model"
)

// Placeholder is shown for missing values
const Placeholder = "-"

// DefaultCurrency is used when neither the claim nor the caller names one
const DefaultCurrency = "CHF"

var acronyms = map[string]string{
	"vin":  "VIN",
	"vat":  "VAT",
	"id":   "ID",
	"lob":  "LOB",
	"fnol": "FNOL",
	"url":  "URL",
}

// HumanizeField turns a field identifier into a display label:
// "total_amount_incl_vat" -> "Total Amount Incl VAT", "licensePlate" -> "License Plate"
func HumanizeField(name string) string {
	words := splitWords(name)
	for i, w := range words {
		lower := strings.ToLower(w)
		if a, ok := acronyms[lower]; ok {
			words[i] = a
			continue
		}
		r := []rune(lower)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// splitWords splits on separators and lower-to-upper case boundaries
func splitWords(s string) []string {
	var words []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
	}

	var prev rune
	for _, r := range s {
		switch {
		case r == '_' || r == '-' || unicode.IsSpace(r):
			flush()
		case unicode.IsUpper(r) && (unicode.IsLower(prev) || unicode.IsDigit(prev)):
			flush()
			cur = append(cur, r)
		default:
			cur = append(cur, r)
		}
		prev = r
	}
	flush()
	return words
}

// FormatValue renders a fact value for display
func FormatValue(v model.FactValue) string {
	switch v.Kind {
	case model.ValueText:
		if strings.TrimSpace(v.Text) == "" {
			return Placeholder
		}
		return v.Text
	case model.ValueList:
		if len(v.Items) == 0 {
			return Placeholder
		}
		return strings.Join(v.Items, ", ")
	default:
		return Placeholder
	}
}

// FormatCurrency renders an amount with thousands separators and two decimals
func FormatCurrency(amount float64, currency string) string {
	if currency == "" {
		currency = DefaultCurrency
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return Placeholder
	}
	return currency + " " + humanize.FormatFloat("#,###.##", amount)
}

// FormatPercent renders a 0..1 score as a whole percentage
func FormatPercent(score float64) string {
	return fmt.Sprintf("%d%%", int(math.Round(score*100)))
}

// FormatTimestamp renders a time in UTC, minutes precision
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return Placeholder
	}
	return t.UTC().Format("2006-01-02 15:04")
}

// Truncate shortens s to maxLen runes, appending "..." if truncated
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
