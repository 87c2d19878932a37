// Package slug builds URL-safe keys for persisted products and their page
// snapshots.
package slug

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const maxLength = 80

var (
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9-]+`)
	hyphenRuns      = regexp.MustCompile(`-+`)
)

// Generate creates a URL-friendly slug from a string.
func Generate(s string) string {
	if s == "" {
		return ""
	}

	s = strings.ToLower(s)
	s = transliterate(s)
	s = strings.ReplaceAll(s, " ", "-")
	s = strings.ReplaceAll(s, "_", "-")
	s = nonAlphanumeric.ReplaceAllString(s, "")
	s = hyphenRuns.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")

	if len(s) > maxLength {
		s = s[:maxLength]
		s = strings.TrimRight(s, "-")
	}
	return s
}

// FromProduct builds a product slug from the title, qualified by the
// platform product id when available so same-named products on one
// platform stay distinct. Falls back to the id alone for titleless input.
func FromProduct(title, externalID string) string {
	titleSlug := Generate(title)
	idSlug := Generate(externalID)
	switch {
	case titleSlug != "" && idSlug != "":
		combined := titleSlug + "-" + idSlug
		if len(combined) > maxLength {
			keep := maxLength - len(idSlug) - 1
			if keep < 1 {
				return idSlug
			}
			combined = strings.TrimRight(titleSlug[:keep], "-") + "-" + idSlug
		}
		return combined
	case titleSlug != "":
		return titleSlug
	default:
		return idSlug
	}
}

// MakeUnique appends a numeric suffix to disambiguate a colliding slug.
func MakeUnique(s string, counter int) string {
	if counter == 0 {
		return s
	}
	return s + "-" + strconv.Itoa(counter)
}

// transliterate converts unicode characters to ASCII equivalents by
// decomposing and stripping nonspacing marks.
func transliterate(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}
