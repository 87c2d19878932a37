package extractor

import "github.com/prodpipe/extractor/models"

// Partial is the result of a single extraction strategy. Pointer fields
// distinguish "not found" from a legitimate zero value, so merging
// overwrites only the fields a strategy actually set.
type Partial struct {
	Title          *string
	Description    *string
	Brand          *string
	Category       *string
	Price          *float64
	OriginalPrice  *float64
	Currency       *string
	SKU            *string
	Rating         *float64
	ReviewsCount   *int
	Images         []string
	Videos         []string
	Variants       []models.Variant
	Specifications map[string]string
	ShippingInfo   map[string]any
}

// IsEmpty reports whether the strategy found nothing at all.
func (p *Partial) IsEmpty() bool {
	if p == nil {
		return true
	}
	return p.Title == nil && p.Description == nil && p.Brand == nil &&
		p.Category == nil && p.Price == nil && p.OriginalPrice == nil &&
		p.Currency == nil && p.SKU == nil && p.Rating == nil &&
		p.ReviewsCount == nil && len(p.Images) == 0 && len(p.Videos) == 0 &&
		len(p.Variants) == 0 && len(p.Specifications) == 0 && len(p.ShippingInfo) == 0
}

// merge folds src into dst with object-spread semantics: every scalar
// field src actually set overwrites dst, fields src left nil keep the
// earlier value. Images and videos are unioned (images are deduplicated
// later, during normalization), variants are concatenated.
func merge(dst, src *Partial) {
	if src == nil {
		return
	}
	if src.Title != nil {
		dst.Title = src.Title
	}
	if src.Description != nil {
		dst.Description = src.Description
	}
	if src.Brand != nil {
		dst.Brand = src.Brand
	}
	if src.Category != nil {
		dst.Category = src.Category
	}
	if src.Price != nil {
		dst.Price = src.Price
	}
	if src.OriginalPrice != nil {
		dst.OriginalPrice = src.OriginalPrice
	}
	if src.Currency != nil {
		dst.Currency = src.Currency
	}
	if src.SKU != nil {
		dst.SKU = src.SKU
	}
	if src.Rating != nil {
		dst.Rating = src.Rating
	}
	if src.ReviewsCount != nil {
		dst.ReviewsCount = src.ReviewsCount
	}
	dst.Images = append(dst.Images, src.Images...)
	dst.Videos = unionStrings(dst.Videos, src.Videos)
	dst.Variants = append(dst.Variants, src.Variants...)
	if src.Specifications != nil {
		dst.Specifications = src.Specifications
	}
	if src.ShippingInfo != nil {
		dst.ShippingInfo = src.ShippingInfo
	}
}

// unionStrings appends the elements of extra not already present,
// preserving first-seen order.
func unionStrings(base, extra []string) []string {
	if len(extra) == 0 {
		return base
	}
	seen := make(map[string]bool, len(base))
	for _, s := range base {
		seen[s] = true
	}
	for _, s := range extra {
		if !seen[s] {
			seen[s] = true
			base = append(base, s)
		}
	}
	return base
}

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func intPtr(i int) *int { return &i }
