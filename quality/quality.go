// Package quality grades a normalized ProductRecord for catalog import:
// per-field raw scores, weighted category rollups with platform emphasis,
// an overall 0-100 score, and an explainable issue/recommendation list.
package quality

import (
	"math"
	"sort"
	"time"

	"github.com/prodpipe/extractor/models"
)

// Classification thresholds on the overall score.
const (
	ThresholdExcellent  = 85
	ThresholdGood       = 70
	ThresholdAcceptable = 55
	ThresholdImport     = 40
)

// Scorer computes score reports from immutable configuration. It holds no
// mutable state: Calculate is safe to call concurrently.
type Scorer struct {
	config Config
}

// New creates a scorer over the given configuration.
func New(config Config) *Scorer {
	return &Scorer{config: config}
}

// NewDefault creates a scorer with the production tables.
func NewDefault() *Scorer {
	return New(DefaultConfig())
}

// Calculate scores a record for the given platform. It is a pure function
// of its inputs and never fails: malformed or missing data degrades to the
// per-field minimum scores.
func (s *Scorer) Calculate(record *models.ProductRecord, platform string) *models.ScoreReport {
	start := time.Now()
	if record == nil {
		record = &models.ProductRecord{}
	}

	multipliers := s.config.PlatformMultipliers[platform]

	report := &models.ScoreReport{
		Platform:   platform,
		Categories: make(map[string]models.CategoryScore, len(s.config.CategoryWeights)),
		Fields:     make(map[string]models.FieldScore, len(s.config.Fields)),
	}

	// Per-field scores rolled into category buckets.
	type bucket struct {
		score    float64
		maxScore float64
		fields   []models.FieldBrief
	}
	buckets := make(map[string]*bucket, len(s.config.CategoryWeights))

	for _, field := range s.config.Fields {
		raw, value := field.Score(record)
		adjusted := field.Weight * multiplierFor(multipliers, field.Category)
		weighted := raw / 100 * adjusted

		report.Fields[field.Name] = models.FieldScore{
			RawScore:      raw,
			Weight:        adjusted,
			WeightedScore: weighted,
			Category:      field.Category,
			Value:         value,
		}

		b := buckets[field.Category]
		if b == nil {
			b = &bucket{}
			buckets[field.Category] = b
		}
		b.score += weighted
		b.maxScore += adjusted
		b.fields = append(b.fields, models.FieldBrief{Name: field.Name, Score: raw, Weight: adjusted})
	}

	// Category rollups and the blended overall score. The category weight is
	// applied twice: implicitly through the field percentage, explicitly
	// through the category base weight. This is the documented scoring
	// behavior and must stay bit-for-bit reproducible.
	weightedSum := 0.0
	totalWeight := 0.0
	for _, name := range s.config.CategoryOrder {
		b := buckets[name]
		if b == nil {
			continue
		}
		percentage := 0
		if b.maxScore > 0 {
			percentage = int(math.Round(b.score / b.maxScore * 100))
		}
		report.Categories[name] = models.CategoryScore{
			Score:      b.score,
			MaxScore:   b.maxScore,
			Percentage: percentage,
			Fields:     b.fields,
		}

		adjusted := s.config.CategoryWeights[name] * multiplierFor(multipliers, name)
		weightedSum += float64(percentage) * adjusted
		totalWeight += adjusted
	}

	if totalWeight > 0 {
		report.Score = int(math.Round(weightedSum / totalWeight))
	}

	report.QualityLevel = classify(report.Score)
	report.CanImport = report.Score >= ThresholdImport
	report.IsRecommended = report.Score >= ThresholdAcceptable
	report.Issues = buildIssues(record)
	report.Recommendations = s.buildRecommendations(record, report)
	report.ProcessingTime = float64(time.Since(start).Microseconds()) / 1000

	return report
}

// QuickCheck returns the condensed import-gating view of a record.
func (s *Scorer) QuickCheck(record *models.ProductRecord, platform string) models.QuickCheck {
	report := s.Calculate(record, platform)
	critical := []models.Issue{}
	for _, issue := range report.Issues {
		if issue.Severity == models.SeverityCritical {
			critical = append(critical, issue)
		}
	}
	return models.QuickCheck{
		CanImport:      report.CanImport,
		Score:          report.Score,
		QualityLevel:   report.QualityLevel,
		CriticalIssues: critical,
	}
}

// Compare scores two records under the same platform and names the better
// import candidate.
func (s *Scorer) Compare(a, b *models.ProductRecord, platform string) models.Comparison {
	reportA := s.Calculate(a, platform)
	reportB := s.Calculate(b, platform)

	winner := "tie"
	if reportA.Score > reportB.Score {
		winner = "a"
	} else if reportB.Score > reportA.Score {
		winner = "b"
	}
	return models.Comparison{
		ScoreA:     reportA.Score,
		ScoreB:     reportB.Score,
		Difference: reportA.Score - reportB.Score,
		Winner:     winner,
	}
}

func multiplierFor(multipliers map[string]float64, category string) float64 {
	if multipliers == nil {
		return 1
	}
	if m, ok := multipliers[category]; ok {
		return m
	}
	return 1
}

func classify(score int) string {
	switch {
	case score >= ThresholdExcellent:
		return models.QualityExcellent
	case score >= ThresholdGood:
		return models.QualityGood
	case score >= ThresholdAcceptable:
		return models.QualityAcceptable
	case score >= ThresholdImport:
		return models.QualityPoor
	default:
		return models.QualityInsufficient
	}
}

var severityRank = map[string]int{
	models.SeverityCritical:  0,
	models.SeverityImportant: 1,
	models.SeverityWarning:   2,
}

// buildIssues evaluates the fixed rule set against the raw record (not the
// weighted scores) and sorts by severity, stable otherwise.
func buildIssues(record *models.ProductRecord) []models.Issue {
	issues := []models.Issue{}

	if len([]rune(record.Title)) < 10 {
		issues = append(issues, models.Issue{
			Severity: models.SeverityCritical,
			Field:    "title",
			Message:  "title is missing or shorter than 10 characters",
			Impact:   "the product cannot be listed without a usable title",
		})
	}
	if record.Price <= 0 {
		issues = append(issues, models.Issue{
			Severity: models.SeverityCritical,
			Field:    "price",
			Message:  "price is missing or not positive",
			Impact:   "the product cannot be sold without a valid price",
		})
	}
	if len(record.Images) == 0 {
		issues = append(issues, models.Issue{
			Severity: models.SeverityImportant,
			Field:    "images",
			Message:  "no product images",
			Impact:   "listings without images convert poorly",
		})
	}
	if len([]rune(record.Description)) < 100 {
		issues = append(issues, models.Issue{
			Severity: models.SeverityImportant,
			Field:    "description",
			Message:  "description is missing or shorter than 100 characters",
			Impact:   "buyers lack the detail needed to decide",
		})
	}
	if count := len(record.Images); count >= 1 && count <= 2 {
		issues = append(issues, models.Issue{
			Severity: models.SeverityWarning,
			Field:    "images",
			Message:  "only 1-2 product images",
			Impact:   "more angles improve buyer confidence",
		})
	}
	if record.Brand == "" {
		issues = append(issues, models.Issue{
			Severity: models.SeverityWarning,
			Field:    "brand",
			Message:  "brand is missing",
			Impact:   "reduces buyer trust and search visibility",
		})
	}
	if len(record.Variants) > 0 {
		missingSKU := 0
		missingImage := 0
		for _, v := range record.Variants {
			if v.SKU == "" {
				missingSKU++
			}
			if v.ImageURL == "" {
				missingImage++
			}
		}
		if missingSKU*2 > len(record.Variants) {
			issues = append(issues, models.Issue{
				Severity: models.SeverityWarning,
				Field:    "variants",
				Message:  "more than half of the variants have no SKU",
				Impact:   "inventory sync will be unreliable",
			})
		}
		if len(record.Variants) > 1 && missingImage == len(record.Variants) {
			issues = append(issues, models.Issue{
				Severity: models.SeverityWarning,
				Field:    "variants",
				Message:  "no variant carries its own image",
				Impact:   "buyers cannot see the variation they select",
			})
		}
	}

	sort.SliceStable(issues, func(i, j int) bool {
		return severityRank[issues[i].Severity] < severityRank[issues[j].Severity]
	})
	return issues
}

// buildRecommendations is conditional on category percentages and field raw
// scores, so it reads the already-built report rather than the record.
func (s *Scorer) buildRecommendations(record *models.ProductRecord, report *models.ScoreReport) []models.Recommendation {
	recommendations := []models.Recommendation{}

	rawScore := func(field string) float64 {
		return report.Fields[field].RawScore
	}
	categoryPct := func(category string) int {
		return report.Categories[category].Percentage
	}

	if categoryPct(CategoryMedia) < 70 {
		if rawScore("images") < 80 {
			recommendations = append(recommendations, models.Recommendation{
				Priority: "high",
				Category: CategoryMedia,
				Action:   "add more product images (5-9 is the sweet spot)",
				Benefit:  "richer galleries measurably increase conversion",
			})
		}
		if rawScore("videos") < 60 {
			recommendations = append(recommendations, models.Recommendation{
				Priority: "medium",
				Category: CategoryMedia,
				Action:   "add a product video",
				Benefit:  "video halves return rates on visual products",
			})
		}
	}
	if categoryPct(CategoryContent) < 70 && rawScore("description") < 60 {
		recommendations = append(recommendations, models.Recommendation{
			Priority: "high",
			Category: CategoryContent,
			Action:   "expand the description to at least 250 characters",
			Benefit:  "detailed descriptions rank and convert better",
		})
	}
	if len(record.Variants) > 0 && categoryPct(CategoryVariants) < 60 {
		recommendations = append(recommendations, models.Recommendation{
			Priority: "medium",
			Category: CategoryVariants,
			Action:   "fill in missing variant SKUs",
			Benefit:  "complete SKUs keep inventory sync reliable",
		})
	}
	if categoryPct(CategoryPricing) < 70 && rawScore("price") == 0 {
		recommendations = append(recommendations, models.Recommendation{
			Priority: "high",
			Category: CategoryPricing,
			Action:   "set a valid positive price",
			Benefit:  "the product cannot be imported for sale without one",
		})
	}

	return recommendations
}
