// Package platform decides whether a URL is a recognized product page and
// which e-commerce platform it belongs to, using a registry of per-platform
// regex patterns.
package platform

import (
	"net/url"
	"regexp"
	"strings"
)

// Pattern is one registry entry. Host selects the entry, Excludes veto the
// URL outright, ProductIDs resolve the platform-native product id, and the
// optional PathGate restricts catch-all entries to product-shaped paths.
type Pattern struct {
	Name       string
	Host       *regexp.Regexp
	ProductIDs []*regexp.Regexp
	Excludes   []*regexp.Regexp
	PathGate   *regexp.Regexp
}

// Detection identifies a product page. ProductID is empty when the platform
// was recognized but no id pattern matched.
type Detection struct {
	Platform  string
	ProductID string
}

// Detector matches URLs against an immutable registry, injected at
// construction so tests can supply fixtures.
type Detector struct {
	registry []Pattern
}

// NewDetector creates a detector over the given registry. Entries are tried
// in registration order; the first host match wins.
func NewDetector(registry []Pattern) *Detector {
	return &Detector{registry: registry}
}

// Detect returns the platform and product id for a product-page URL, or nil
// when the URL is not recognized as a product page. Exclusion patterns take
// precedence over product-id extraction: an excluded URL is never a product
// page even if an id pattern would match.
func (d *Detector) Detect(rawURL string) *Detection {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return nil
	}
	host := strings.ToLower(parsed.Hostname())

	for _, entry := range d.registry {
		if !entry.Host.MatchString(host) {
			continue
		}
		if entry.PathGate != nil && !entry.PathGate.MatchString(parsed.Path) {
			continue
		}

		for _, exclude := range entry.Excludes {
			if exclude.MatchString(rawURL) {
				return nil
			}
		}

		detection := &Detection{Platform: entry.Name}
		for _, idPattern := range entry.ProductIDs {
			if match := idPattern.FindStringSubmatch(rawURL); len(match) > 1 {
				detection.ProductID = match[1]
				break
			}
		}
		return detection
	}
	return nil
}

// DefaultRegistry returns the built-in platform registry. The generic
// shopify entry matches any host with a /products/ path, so it must stay
// last.
func DefaultRegistry() []Pattern {
	return []Pattern{
		{
			Name: "amazon",
			Host: regexp.MustCompile(`(^|\.)amazon\.[a-z.]+$`),
			ProductIDs: []*regexp.Regexp{
				regexp.MustCompile(`/dp/([A-Z0-9]{10})`),
				regexp.MustCompile(`/gp/product/([A-Z0-9]{10})`),
				regexp.MustCompile(`/product/([A-Z0-9]{10})`),
			},
			Excludes: []*regexp.Regexp{
				regexp.MustCompile(`/s\?`),
				regexp.MustCompile(`/s/ref=`),
				regexp.MustCompile(`/gp/cart`),
				regexp.MustCompile(`/wishlist`),
				regexp.MustCompile(`/ap/signin`),
				regexp.MustCompile(`/gp/bestsellers`),
				regexp.MustCompile(`/hz/`),
			},
		},
		{
			Name: "ebay",
			Host: regexp.MustCompile(`(^|\.)ebay\.[a-z.]+$`),
			ProductIDs: []*regexp.Regexp{
				regexp.MustCompile(`/itm/(?:[^/]+/)?(\d+)`),
			},
			Excludes: []*regexp.Regexp{
				regexp.MustCompile(`/sch/`),
				regexp.MustCompile(`/cart`),
				regexp.MustCompile(`/usr/`),
				regexp.MustCompile(`/b/`),
			},
		},
		{
			Name: "aliexpress",
			Host: regexp.MustCompile(`(^|\.)aliexpress\.[a-z.]+$`),
			ProductIDs: []*regexp.Regexp{
				regexp.MustCompile(`/item/(\d+)\.html`),
			},
			Excludes: []*regexp.Regexp{
				regexp.MustCompile(`/wholesale`),
				regexp.MustCompile(`/category/`),
				regexp.MustCompile(`/store/`),
			},
		},
		{
			Name: "etsy",
			Host: regexp.MustCompile(`(^|\.)etsy\.com$`),
			ProductIDs: []*regexp.Regexp{
				regexp.MustCompile(`/listing/(\d+)`),
			},
			Excludes: []*regexp.Regexp{
				regexp.MustCompile(`/search`),
				regexp.MustCompile(`/c/`),
			},
		},
		{
			Name: "walmart",
			Host: regexp.MustCompile(`(^|\.)walmart\.[a-z.]+$`),
			ProductIDs: []*regexp.Regexp{
				regexp.MustCompile(`/ip/(?:[^/]+/)?(\d+)`),
			},
			Excludes: []*regexp.Regexp{
				regexp.MustCompile(`/search`),
				regexp.MustCompile(`/browse/`),
				regexp.MustCompile(`/cart`),
			},
		},
		{
			Name:     "shopify",
			Host:     regexp.MustCompile(`.`),
			PathGate: regexp.MustCompile(`/products/[a-z0-9-]+`),
			ProductIDs: []*regexp.Regexp{
				regexp.MustCompile(`/products/([a-z0-9-]+)`),
			},
			Excludes: []*regexp.Regexp{
				regexp.MustCompile(`/collections/[^/]+/?$`),
				regexp.MustCompile(`/cart`),
				regexp.MustCompile(`/account`),
			},
		},
	}
}
