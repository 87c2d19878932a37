package normalize

import (
	"net/url"
	"regexp"
	"strings"
)

// MaxImages caps the final image list on a normalized record.
const MaxImages = 30

// junkKeywords marks URLs that point at sprites, placeholders, tracking
// pixels, UI chrome and other non-product assets.
var junkKeywords = []string{
	"placeholder",
	"sprite",
	"pixel",
	"tracking",
	"spacer",
	"blank",
	"transparent",
	"icon",
	"logo",
	"favicon",
	"spinner",
	"loader",
	"loading",
	"badge",
	"flag",
	"avatar",
	"1x1",
	".svg",
}

var (
	amazonSizeToken   = regexp.MustCompile(`\._[A-Za-z0-9,_]+_\.`)
	ebayThumbToken    = regexp.MustCompile(`s-l\d+`)
	aliResizeSuffix   = regexp.MustCompile(`(\.(?:jpe?g|png|webp))_\d+x\d+(?:q\d+)?\.(?:jpe?g|png|webp)$`)
	shopifySizeSuffix = regexp.MustCompile(`_(?:small|medium|large|grande|compact|thumb|icon|\d+x\d*)(\.(?:jpe?g|png|webp|gif))`)
)

// NormalizeImageURL canonicalizes a product image URL for the given
// platform. It returns "" for junk assets (the caller drops empties),
// upgrades protocol-relative URLs to https, and rewrites platform thumbnail
// tokens to request the high-resolution variant.
func NormalizeImageURL(raw, platform string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || strings.HasPrefix(trimmed, "data:") {
		return ""
	}

	lower := strings.ToLower(trimmed)
	for _, keyword := range junkKeywords {
		if strings.Contains(lower, keyword) {
			return ""
		}
	}

	if strings.HasPrefix(trimmed, "//") {
		trimmed = "https:" + trimmed
	}

	switch platform {
	case "amazon":
		trimmed = amazonSizeToken.ReplaceAllString(trimmed, "._SL1500_.")
	case "ebay":
		trimmed = ebayThumbToken.ReplaceAllString(trimmed, "s-l1600")
	case "aliexpress":
		trimmed = aliResizeSuffix.ReplaceAllString(trimmed, "$1")
	case "shopify":
		trimmed = shopifySizeSuffix.ReplaceAllString(trimmed, "$1")
		trimmed = stripQueryParams(trimmed, "width", "height")
	}

	return trimmed
}

// NormalizeImages canonicalizes, filters and de-duplicates an image URL
// list, preserving order and capping at max (MaxImages when max <= 0).
func NormalizeImages(urls []string, platform string, max int) []string {
	if max <= 0 {
		max = MaxImages
	}
	normalized := make([]string, 0, len(urls))
	seen := make(map[string]bool)
	for _, raw := range urls {
		u := NormalizeImageURL(raw, platform)
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		normalized = append(normalized, u)
		if len(normalized) >= max {
			break
		}
	}
	return normalized
}

// stripQueryParams removes the named query parameters, leaving the rest of
// the URL untouched. Unparseable URLs pass through unchanged.
func stripQueryParams(raw string, names ...string) string {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.RawQuery == "" {
		return raw
	}
	query := parsed.Query()
	changed := false
	for _, name := range names {
		if query.Has(name) {
			query.Del(name)
			changed = true
		}
	}
	if !changed {
		return raw
	}
	parsed.RawQuery = query.Encode()
	return parsed.String()
}
