package quality

import (
	"fmt"

	"github.com/prodpipe/extractor/models"
)

// Category names used by the field table and the rollup.
const (
	CategoryIdentification = "identification"
	CategoryContent        = "content"
	CategoryMedia          = "media"
	CategoryVariants       = "variants"
	CategoryPricing        = "pricing"
	CategoryMetadata       = "metadata"
)

// FieldRule binds one scored field to its category, base weight and scoring
// function. The scoring function is total: it must handle any record shape,
// falling back to the field's minimum score rather than failing.
type FieldRule struct {
	Name     string
	Category string
	Weight   float64
	Score    func(r *models.ProductRecord) (raw float64, value string)
}

// Config is the scorer's immutable configuration, injected at construction
// so tests can supply fixture tables.
type Config struct {
	Fields          []FieldRule
	CategoryWeights map[string]float64
	CategoryOrder   []string
	// Platform name -> category name -> weight multiplier. Missing entries
	// default to 1.
	PlatformMultipliers map[string]map[string]float64
}

// DefaultConfig returns the production scoring tables: 15 fields across 6
// categories, with per-platform category emphasis.
func DefaultConfig() Config {
	return Config{
		Fields: defaultFields(),
		CategoryWeights: map[string]float64{
			CategoryIdentification: 20,
			CategoryContent:        20,
			CategoryMedia:          20,
			CategoryVariants:       10,
			CategoryPricing:        20,
			CategoryMetadata:       10,
		},
		CategoryOrder: []string{
			CategoryIdentification,
			CategoryContent,
			CategoryMedia,
			CategoryVariants,
			CategoryPricing,
			CategoryMetadata,
		},
		PlatformMultipliers: map[string]map[string]float64{
			"amazon":     {CategoryMedia: 1.2, CategoryMetadata: 1.2},
			"shopify":    {CategoryVariants: 1.2, CategoryContent: 1.1},
			"aliexpress": {CategoryVariants: 1.3, CategoryMedia: 1.1},
			"ebay":       {CategoryPricing: 1.1, CategoryMetadata: 1.1},
		},
	}
}

func defaultFields() []FieldRule {
	return []FieldRule{
		{Name: "title", Category: CategoryIdentification, Weight: 12, Score: scoreTitle},
		{Name: "brand", Category: CategoryIdentification, Weight: 5, Score: scoreBrand},
		{Name: "sku", Category: CategoryIdentification, Weight: 3, Score: scoreSKU},
		{Name: "description", Category: CategoryContent, Weight: 12, Score: scoreDescription},
		{Name: "specifications", Category: CategoryContent, Weight: 8, Score: scoreSpecifications},
		{Name: "images", Category: CategoryMedia, Weight: 14, Score: scoreImages},
		{Name: "videos", Category: CategoryMedia, Weight: 6, Score: scoreVideos},
		{Name: "variants", Category: CategoryVariants, Weight: 6, Score: scoreVariants},
		{Name: "variant_images", Category: CategoryVariants, Weight: 4, Score: scoreVariantImages},
		{Name: "price", Category: CategoryPricing, Weight: 12, Score: scorePrice},
		{Name: "original_price", Category: CategoryPricing, Weight: 4, Score: scoreOriginalPrice},
		{Name: "currency", Category: CategoryPricing, Weight: 4, Score: scoreCurrency},
		{Name: "rating", Category: CategoryMetadata, Weight: 4, Score: scoreRating},
		{Name: "reviews_count", Category: CategoryMetadata, Weight: 3, Score: scoreReviewsCount},
		{Name: "shipping_info", Category: CategoryMetadata, Weight: 3, Score: scoreShippingInfo},
	}
}

func scoreTitle(r *models.ProductRecord) (float64, string) {
	length := len([]rune(r.Title))
	value := summarizeText(r.Title, 60)
	switch {
	case length == 0:
		return 0, "missing"
	case length < 10:
		return 20, value
	case length < 30:
		return 60, value
	case length <= 150:
		return 100, value
	default:
		return 80, value
	}
}

func scoreBrand(r *models.ProductRecord) (float64, string) {
	if r.Brand == "" {
		return 0, "missing"
	}
	return 100, r.Brand
}

// scoreSKU looks at the platform-native external id first, then at variant
// SKUs. A record with neither is soft-failed, not zeroed: many platforms
// simply do not expose one.
func scoreSKU(r *models.ProductRecord) (float64, string) {
	if r.ExternalID != "" {
		return 100, r.ExternalID
	}
	for _, v := range r.Variants {
		if v.SKU != "" {
			return 70, "variant-level only"
		}
	}
	return 40, "missing"
}

func scoreDescription(r *models.ProductRecord) (float64, string) {
	length := len([]rune(r.Description))
	value := fmt.Sprintf("%d chars", length)
	switch {
	case length == 0:
		return 0, "missing"
	case length < 50:
		return 30, value
	case length < 100:
		return 50, value
	case length < 250:
		return 85, value
	default:
		return 100, value
	}
}

func scoreSpecifications(r *models.ProductRecord) (float64, string) {
	count := len(r.Specifications)
	value := fmt.Sprintf("%d entries", count)
	switch {
	case count == 0:
		return 40, "none"
	case count <= 2:
		return 60, value
	case count <= 5:
		return 80, value
	default:
		return 100, value
	}
}

// scoreImages models diminishing returns: very large galleries score
// slightly below the 5-9 sweet spot.
func scoreImages(r *models.ProductRecord) (float64, string) {
	count := len(r.Images)
	value := fmt.Sprintf("%d images", count)
	switch {
	case count == 0:
		return 0, "none"
	case count == 1:
		return 40, value
	case count == 2:
		return 60, value
	case count <= 4:
		return 80, value
	case count < 10:
		return 100, value
	default:
		return 95, value
	}
}

func scoreVideos(r *models.ProductRecord) (float64, string) {
	if len(r.Videos) == 0 {
		return 50, "none"
	}
	return 100, fmt.Sprintf("%d videos", len(r.Videos))
}

// scoreVariants averages per-variant completeness sub-checks (price, sku,
// options, image at 25 points each). Single-variant products without a
// variant list are not penalized.
func scoreVariants(r *models.ProductRecord) (float64, string) {
	if len(r.Variants) == 0 {
		return 50, "none"
	}
	total := 0.0
	for _, v := range r.Variants {
		sub := 0.0
		if v.Price > 0 {
			sub += 25
		}
		if v.SKU != "" {
			sub += 25
		}
		if len(v.Options) > 0 {
			sub += 25
		}
		if v.ImageURL != "" {
			sub += 25
		}
		total += sub
	}
	raw := total / float64(len(r.Variants))
	if raw > 100 {
		raw = 100
	}
	return raw, fmt.Sprintf("%d variants", len(r.Variants))
}

func scoreVariantImages(r *models.ProductRecord) (float64, string) {
	if len(r.Variants) <= 1 {
		return 50, "not applicable"
	}
	withImage := 0
	for _, v := range r.Variants {
		if v.ImageURL != "" {
			withImage++
		}
	}
	value := fmt.Sprintf("%d/%d with image", withImage, len(r.Variants))
	switch {
	case withImage == len(r.Variants):
		return 100, value
	case withImage > 0:
		return 70, value
	default:
		return 30, value
	}
}

func scorePrice(r *models.ProductRecord) (float64, string) {
	if r.Price > 0 {
		return 100, fmt.Sprintf("%.2f", r.Price)
	}
	return 0, "missing"
}

func scoreOriginalPrice(r *models.ProductRecord) (float64, string) {
	switch {
	case r.OriginalPrice <= 0:
		return 50, "not shown"
	case r.OriginalPrice > r.Price:
		return 100, fmt.Sprintf("%.2f", r.OriginalPrice)
	default:
		return 70, fmt.Sprintf("%.2f", r.OriginalPrice)
	}
}

func scoreCurrency(r *models.ProductRecord) (float64, string) {
	switch {
	case r.Currency == "":
		return 50, "missing"
	case len(r.Currency) == 3:
		return 100, r.Currency
	default:
		return 0, r.Currency
	}
}

func scoreRating(r *models.ProductRecord) (float64, string) {
	if r.Rating == nil {
		return 40, "missing"
	}
	rating := *r.Rating
	if rating < 0 || rating > 5 {
		return 0, fmt.Sprintf("%.1f (out of range)", rating)
	}
	return 100, fmt.Sprintf("%.1f", rating)
}

func scoreReviewsCount(r *models.ProductRecord) (float64, string) {
	count := r.ReviewsCount
	value := fmt.Sprintf("%d reviews", count)
	switch {
	case count <= 0:
		return 40, "none"
	case count < 10:
		return 60, value
	case count < 50:
		return 80, value
	default:
		return 100, value
	}
}

func scoreShippingInfo(r *models.ProductRecord) (float64, string) {
	if len(r.ShippingInfo) == 0 {
		return 40, "none"
	}
	return 100, fmt.Sprintf("%d entries", len(r.ShippingInfo))
}

func summarizeText(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
