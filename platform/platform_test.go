package platform

import (
	"regexp"
	"testing"
)

func TestDetect(t *testing.T) {
	detector := NewDetector(DefaultRegistry())

	tests := []struct {
		name          string
		url           string
		wantPlatform  string
		wantProductID string
		wantNil       bool
	}{
		{
			name:          "amazon product page",
			url:           "https://www.amazon.fr/dp/B08N5WRWNW",
			wantPlatform:  "amazon",
			wantProductID: "B08N5WRWNW",
		},
		{
			name:          "amazon gp product path",
			url:           "https://www.amazon.com/gp/product/B000123456?th=1",
			wantPlatform:  "amazon",
			wantProductID: "B000123456",
		},
		{
			name:    "amazon search page excluded",
			url:     "https://www.amazon.fr/s?k=shoes",
			wantNil: true,
		},
		{
			name:    "amazon cart excluded despite dp-like id",
			url:     "https://www.amazon.com/gp/cart/view.html",
			wantNil: true,
		},
		{
			name:         "amazon product page without resolvable id",
			url:          "https://www.amazon.de/some-product-name/ref=xyz",
			wantPlatform: "amazon",
		},
		{
			name:          "ebay item page",
			url:           "https://www.ebay.com/itm/265432198765",
			wantPlatform:  "ebay",
			wantProductID: "265432198765",
		},
		{
			name:          "ebay item page with seo slug",
			url:           "https://www.ebay.co.uk/itm/vintage-camera/165000000001",
			wantPlatform:  "ebay",
			wantProductID: "165000000001",
		},
		{
			name:    "ebay search excluded",
			url:     "https://www.ebay.com/sch/i.html?_nkw=camera",
			wantNil: true,
		},
		{
			name:          "aliexpress item",
			url:           "https://www.aliexpress.com/item/1005001234567890.html",
			wantPlatform:  "aliexpress",
			wantProductID: "1005001234567890",
		},
		{
			name:          "etsy listing",
			url:           "https://www.etsy.com/listing/912345678/handmade-mug",
			wantPlatform:  "etsy",
			wantProductID: "912345678",
		},
		{
			name:          "walmart item",
			url:           "https://www.walmart.com/ip/Wireless-Mouse/577489512",
			wantPlatform:  "walmart",
			wantProductID: "577489512",
		},
		{
			name:          "shopify style store",
			url:           "https://shop.example.com/products/ceramic-mug",
			wantPlatform:  "shopify",
			wantProductID: "ceramic-mug",
		},
		{
			name:    "shopify collection listing excluded",
			url:     "https://shop.example.com/collections/mugs",
			wantNil: true,
		},
		{
			name:    "plain non-product page",
			url:     "https://blog.example.com/posts/hello",
			wantNil: true,
		},
		{
			name:    "invalid url",
			url:     "://not-a-url",
			wantNil: true,
		},
		{
			name:    "relative url without host",
			url:     "/dp/B08N5WRWNW",
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := detector.Detect(tt.url)
			if tt.wantNil {
				if got != nil {
					t.Fatalf("Detect(%q) = %+v, want nil", tt.url, got)
				}
				return
			}
			if got == nil {
				t.Fatalf("Detect(%q) = nil, want platform %q", tt.url, tt.wantPlatform)
			}
			if got.Platform != tt.wantPlatform {
				t.Errorf("Platform = %q, want %q", got.Platform, tt.wantPlatform)
			}
			if got.ProductID != tt.wantProductID {
				t.Errorf("ProductID = %q, want %q", got.ProductID, tt.wantProductID)
			}
		})
	}
}

// Exclusion must win even when a product-id pattern also matches.
func TestDetectExclusionPrecedence(t *testing.T) {
	registry := []Pattern{
		{
			Name: "fixture",
			Host: regexp.MustCompile(`(^|\.)fixture\.test$`),
			ProductIDs: []*regexp.Regexp{
				regexp.MustCompile(`/p/(\d+)`),
			},
			Excludes: []*regexp.Regexp{
				regexp.MustCompile(`preview=1`),
			},
		},
	}
	detector := NewDetector(registry)

	if got := detector.Detect("https://www.fixture.test/p/123"); got == nil || got.ProductID != "123" {
		t.Fatalf("expected product detection, got %+v", got)
	}
	if got := detector.Detect("https://www.fixture.test/p/123?preview=1"); got != nil {
		t.Errorf("exclusion did not take precedence: %+v", got)
	}
}

// First host match wins when registry entries overlap.
func TestDetectFirstMatchWins(t *testing.T) {
	registry := []Pattern{
		{Name: "first", Host: regexp.MustCompile(`overlap\.test$`)},
		{Name: "second", Host: regexp.MustCompile(`overlap\.test$`)},
	}
	detector := NewDetector(registry)

	got := detector.Detect("https://overlap.test/anything")
	if got == nil || got.Platform != "first" {
		t.Errorf("Detect = %+v, want platform \"first\"", got)
	}
}
