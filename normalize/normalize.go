// Package normalize contains the pure normalization helpers shared by the
// extraction strategies: locale-agnostic price parsing, text cleanup, and
// per-platform image URL canonicalization.
package normalize

import (
	"regexp"
	"strconv"
	"strings"
)

// MaxTextLength caps cleaned text fields (titles, descriptions).
const MaxTextLength = 5000

var (
	currencySymbols = []string{"R$", "$", "€", "£", "¥", "₹", "₽", "kr", "zł", "Kč"}

	isoCodePattern  = regexp.MustCompile(`(?i)\b(USD|EUR|GBP|JPY|CAD|AUD|CHF|CNY|SEK|NOK|DKK|PLN|BRL|MXN|INR|RUB|TRY|KRW)\b`)
	numericToken    = regexp.MustCompile(`[0-9]+(?:\.[0-9]+)?`)
	whitespaceRuns  = regexp.MustCompile(`\s+`)
)

// FormatPrice parses a localized price string into decimal currency units.
// Currency symbols, ISO codes and whitespace are stripped first. A comma
// with no dot is a decimal separator; when both appear, dots are thousands
// separators and the final comma is the decimal separator. Returns 0 when
// no numeric token survives.
func FormatPrice(raw string) float64 {
	s := raw
	for _, sym := range currencySymbols {
		s = strings.ReplaceAll(s, sym, "")
	}
	s = isoCodePattern.ReplaceAllString(s, "")
	s = whitespaceRuns.ReplaceAllString(s, "")

	hasComma := strings.Contains(s, ",")
	hasDot := strings.Contains(s, ".")
	switch {
	case hasComma && !hasDot:
		s = strings.Replace(s, ",", ".", 1)
		s = strings.ReplaceAll(s, ",", "")
	case hasComma && hasDot:
		s = strings.ReplaceAll(s, ".", "")
		if idx := strings.LastIndex(s, ","); idx >= 0 {
			s = strings.ReplaceAll(s[:idx], ",", "") + "." + s[idx+1:]
		}
	}

	token := numericToken.FindString(s)
	if token == "" {
		return 0
	}
	value, err := strconv.ParseFloat(token, 64)
	if err != nil || value < 0 {
		return 0
	}
	return value
}

// PriceFrom coerces an arbitrary decoded JSON value into a price. Numeric
// input passes through unchanged; strings go through FormatPrice.
func PriceFrom(v any) float64 {
	switch value := v.(type) {
	case float64:
		if value < 0 {
			return 0
		}
		return value
	case int:
		if value < 0 {
			return 0
		}
		return float64(value)
	case string:
		return FormatPrice(value)
	default:
		return 0
	}
}

// FloatFrom coerces a decoded JSON value into a float (rating values).
// Returns the value and whether parsing succeeded.
func FloatFrom(v any) (float64, bool) {
	switch value := v.(type) {
	case float64:
		return value, true
	case int:
		return float64(value), true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

// IntFrom coerces a decoded JSON value into an int (review counts).
func IntFrom(v any) (int, bool) {
	switch value := v.(type) {
	case float64:
		return int(value), true
	case int:
		return value, true
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

// CleanText trims, collapses internal whitespace runs to a single space,
// and truncates to MaxTextLength runes.
func CleanText(s string) string {
	cleaned := strings.Join(strings.Fields(s), " ")
	runes := []rune(cleaned)
	if len(runes) > MaxTextLength {
		cleaned = string(runes[:MaxTextLength])
	}
	return cleaned
}
