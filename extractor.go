// Package extractor turns raw product-page HTML into a normalized
// ProductRecord. Generic strategies (structured data, meta tags, DOM
// heuristics) run in a fixed order and merge with spread semantics, a
// later strategy overwriting the fields it sets. Platform specific
// extractors registered in a Registry take precedence over all of them.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"github.com/prodpipe/extractor/models"
	"github.com/prodpipe/extractor/normalize"
	"github.com/prodpipe/extractor/slug"
)

// ErrNoProduct is returned when no strategy found a product title. A
// page without a title is treated as not being a product page at all.
var ErrNoProduct = errors.New("no product data found in page")

// minDescriptionLength is the cutoff below which a description earns no
// completeness credit.
const minDescriptionLength = 50

// Extractor runs the extraction pipeline. The zero value is not usable;
// construct with New.
type Extractor struct {
	strategies []Strategy
	registry   Registry
}

// New builds an Extractor with the default generic strategies. registry
// may be nil when no specialized extractors are wired in.
func New(registry Registry) *Extractor {
	return &Extractor{
		strategies: defaultStrategies(),
		registry:   registry,
	}
}

// Extract parses html and assembles a ProductRecord for the given page.
// platform and productID come from URL detection and may be empty; an
// empty platform skips the specialized registry and image rewriting.
// Returns ErrNoProduct when nothing resembling a product was found.
func (e *Extractor) Extract(ctx context.Context, html, pageURL, platform, productID string) (*models.ProductRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}
	return e.ExtractDocument(ctx, doc, pageURL, platform, productID)
}

// ExtractDocument is Extract for an already-parsed document.
func (e *Extractor) ExtractDocument(ctx context.Context, doc *goquery.Document, pageURL, platform, productID string) (*models.ProductRecord, error) {
	merged := &Partial{}

	var specialPart *Partial
	if e.registry != nil && platform != "" {
		if special, ok := e.registry.Lookup(platform); ok {
			part, err := special.Extract(ctx, doc, pageURL)
			if err != nil {
				return nil, fmt.Errorf("%s extractor: %w", platform, err)
			}
			specialPart = part
		}
	}

	for _, strategy := range e.strategies {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		part := strategy.Extract(ctx, doc)
		if part == nil || part.IsEmpty() {
			slog.Debug("strategy found nothing", "strategy", strategy.Name())
			continue
		}
		merge(merged, part)
	}

	// The specialized result merges last: its fields overwrite whatever
	// the generic strategies produced.
	merge(merged, specialPart)

	if merged.Title == nil {
		return nil, ErrNoProduct
	}
	return e.buildRecord(merged, pageURL, platform, productID), nil
}

// buildRecord converts the merged partial into the final record:
// normalization, identifiers, completeness score and warnings.
func (e *Extractor) buildRecord(p *Partial, pageURL, platform, productID string) *models.ProductRecord {
	rec := &models.ProductRecord{
		ID:          uuid.NewString(),
		Title:       deref(p.Title),
		Description: deref(p.Description),
		Brand:       deref(p.Brand),
		Category:    deref(p.Category),
		Currency:    deref(p.Currency),
		URL:         pageURL,
		Platform:    platform,
		ExtractedAt: time.Now().UTC(),
	}
	if p.Price != nil {
		rec.Price = *p.Price
	}
	if p.OriginalPrice != nil {
		rec.OriginalPrice = *p.OriginalPrice
	}
	if p.Rating != nil {
		rec.Rating = p.Rating
	}
	if p.ReviewsCount != nil {
		rec.ReviewsCount = *p.ReviewsCount
	}

	rec.Images = normalize.NormalizeImages(p.Images, platform, normalize.MaxImages)
	rec.Videos = p.Videos
	rec.Variants = p.Variants
	rec.Specifications = p.Specifications
	rec.ShippingInfo = p.ShippingInfo

	rec.ExternalID = productID
	if rec.ExternalID == "" && p.SKU != nil {
		rec.ExternalID = *p.SKU
	}
	rec.Slug = slug.FromProduct(rec.Title, rec.ExternalID)

	rec.QualityScore = completenessScore(rec)
	rec.Warnings = buildWarnings(rec)
	return rec
}

// completenessScore is a cheap additive pre-score computed at extraction
// time, before the full quality report. It only reflects which fields
// were found, capped at 100.
func completenessScore(rec *models.ProductRecord) int {
	score := 0
	if rec.Title != "" {
		score += 20
	}
	if len(rec.Description) >= minDescriptionLength {
		score += 15
	}
	if rec.Price > 0 {
		score += 20
	}
	if len(rec.Images) >= 1 {
		score += 10
	}
	if len(rec.Images) >= 3 {
		score += 10
	}
	if len(rec.Variants) > 0 {
		score += 10
	}
	if rec.ReviewsCount > 0 || rec.Rating != nil {
		score += 5
	}
	if len(rec.Videos) > 0 {
		score += 5
	}
	if rec.Brand != "" {
		score += 5
	}
	if score > 100 {
		score = 100
	}
	return score
}

func buildWarnings(rec *models.ProductRecord) []string {
	var warnings []string
	if rec.Price <= 0 {
		warnings = append(warnings, "no price found")
	}
	if len(rec.Images) == 0 {
		warnings = append(warnings, "no images found")
	}
	if rec.Description == "" {
		warnings = append(warnings, "no description found")
	}
	if rec.ExternalID == "" {
		warnings = append(warnings, "no external id found")
	}
	return warnings
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
