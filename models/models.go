package models

import "time"

// ProductRecord is the output of a page extraction attempt and the input to
// quality scoring. All fields except URL, Platform and ExtractedAt are
// optional; absent values are the zero value (Rating uses a pointer because
// a rating of 0 is a valid value).
type ProductRecord struct {
	ID             string            `json:"id,omitempty"`
	Title          string            `json:"title,omitempty"`
	Description    string            `json:"description,omitempty"`
	Brand          string            `json:"brand,omitempty"`
	Category       string            `json:"category,omitempty"`
	Price          float64           `json:"price,omitempty"`          // normalized decimal currency units
	OriginalPrice  float64           `json:"original_price,omitempty"` // pre-discount price if shown
	Currency       string            `json:"currency,omitempty"`       // ISO 4217, 3 chars
	Images         []string          `json:"images"`                   // deduplicated, junk-filtered URLs
	Videos         []string          `json:"videos,omitempty"`
	Variants       []Variant         `json:"variants,omitempty"`
	Reviews        []map[string]any  `json:"reviews,omitempty"` // opaque review objects
	Rating         *float64          `json:"rating,omitempty"`  // 0-5
	ReviewsCount   int               `json:"reviews_count,omitempty"`
	Specifications map[string]string `json:"specifications,omitempty"`
	ShippingInfo   map[string]any    `json:"shipping_info,omitempty"`
	ExternalID     string            `json:"external_id,omitempty"` // platform product id
	URL            string            `json:"url"`
	Platform       string            `json:"platform"`
	Slug           string            `json:"slug,omitempty"`
	ExtractedAt    time.Time         `json:"extracted_at"`
	QualityScore   int               `json:"quality_score,omitempty"` // heuristic pre-score, replaced by the scorer
	Warnings       []string          `json:"warnings,omitempty"`      // non-fatal processing notes
}

// Variant is a purchasable variation of a product (size, color, ...).
type Variant struct {
	Price    float64           `json:"price,omitempty"`
	SKU      string            `json:"sku,omitempty"`
	Options  map[string]string `json:"options,omitempty"`
	ImageURL string            `json:"image_url,omitempty"`
}

// Quality levels in descending order.
const (
	QualityExcellent    = "excellent"
	QualityGood         = "good"
	QualityAcceptable   = "acceptable"
	QualityPoor         = "poor"
	QualityInsufficient = "insufficient"
)

// Issue severities in descending order.
const (
	SeverityCritical  = "critical"
	SeverityImportant = "important"
	SeverityWarning   = "warning"
)

// ScoreReport is the quality scorer's explainable output. It is derived
// purely from a ProductRecord snapshot and is never mutated after creation.
type ScoreReport struct {
	Score           int                      `json:"score"` // 0-100
	QualityLevel    string                   `json:"quality_level"`
	Categories      map[string]CategoryScore `json:"categories"`
	Fields          map[string]FieldScore    `json:"fields"`
	Issues          []Issue                  `json:"issues"` // sorted critical > important > warning
	Recommendations []Recommendation         `json:"recommendations"`
	CanImport       bool                     `json:"can_import"`
	IsRecommended   bool                     `json:"is_recommended"`
	Platform        string                   `json:"platform"`
	ProcessingTime  float64                  `json:"processing_time_ms"`
}

// CategoryScore is the rollup of all field scores in one category.
type CategoryScore struct {
	Score      float64      `json:"score"`
	MaxScore   float64      `json:"max_score"`
	Percentage int          `json:"percentage"`
	Fields     []FieldBrief `json:"fields"`
}

// FieldBrief summarizes one field's contribution inside a category rollup.
type FieldBrief struct {
	Name   string  `json:"name"`
	Score  float64 `json:"score"` // raw score, 0-100
	Weight float64 `json:"weight"`
}

// FieldScore is the full per-field scoring detail.
type FieldScore struct {
	RawScore      float64 `json:"raw_score"`
	Weight        float64 `json:"weight"` // platform-adjusted weight
	WeightedScore float64 `json:"weighted_score"`
	Category      string  `json:"category"`
	Value         string  `json:"value"` // summarized field value
}

// Issue flags a concrete data problem found in the record.
type Issue struct {
	Severity string `json:"severity"`
	Field    string `json:"field"`
	Message  string `json:"message"`
	Impact   string `json:"impact"`
}

// Recommendation suggests an improvement, with the expected benefit.
type Recommendation struct {
	Priority string `json:"priority"` // high or medium
	Category string `json:"category"`
	Action   string `json:"action"`
	Benefit  string `json:"benefit"`
}

// QuickCheck is the condensed import-gating view of a score report.
type QuickCheck struct {
	CanImport      bool    `json:"can_import"`
	Score          int     `json:"score"`
	QualityLevel   string  `json:"quality_level"`
	CriticalIssues []Issue `json:"critical_issues"`
}

// Comparison ranks two records scored under the same platform.
type Comparison struct {
	ScoreA     int    `json:"score_a"`
	ScoreB     int    `json:"score_b"`
	Difference int    `json:"difference"`
	Winner     string `json:"winner"` // "a", "b" or "tie"
}
