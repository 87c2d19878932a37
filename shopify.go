package extractor

import (
	"context"
	"encoding/json"

	"github.com/PuerkitoBio/goquery"

	"github.com/prodpipe/extractor/models"
	"github.com/prodpipe/extractor/normalize"
)

// ShopifyExtractor reads the product JSON that Shopify themes embed in
// the page. It recovers variants and per-variant images, which the
// generic strategies cannot see.
type ShopifyExtractor struct{}

func (ShopifyExtractor) Platform() string { return "shopify" }

func (ShopifyExtractor) Capabilities() []string {
	return []string{"title", "description", "brand", "price", "images", "variants", "variant_images", "sku"}
}

// shopifyProduct mirrors the subset of the theme product JSON we read.
// Prices are integer cents.
type shopifyProduct struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Vendor      string           `json:"vendor"`
	Type        string           `json:"type"`
	Price       json.Number      `json:"price"`
	Images      []string         `json:"images"`
	Options     []string         `json:"options"`
	Variants    []shopifyVariant `json:"variants"`
}

type shopifyVariant struct {
	Title         string      `json:"title"`
	SKU           string      `json:"sku"`
	Price         json.Number `json:"price"`
	Option1       string      `json:"option1"`
	Option2       string      `json:"option2"`
	Option3       string      `json:"option3"`
	FeaturedImage *struct {
		Src string `json:"src"`
	} `json:"featured_image"`
}

func (ShopifyExtractor) Extract(_ context.Context, doc *goquery.Document, _ string) (*Partial, error) {
	var product *shopifyProduct
	doc.Find(`script[type="application/json"][data-product-json], script[id^="ProductJson"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var p shopifyProduct
		if err := json.Unmarshal([]byte(s.Text()), &p); err != nil || p.Title == "" {
			return true
		}
		product = &p
		return false
	})
	if product == nil {
		return fallbackVariants(doc), nil
	}

	out := &Partial{
		Title:  strPtr(normalize.CleanText(product.Title)),
		Images: product.Images,
	}
	if desc := normalize.CleanText(product.Description); desc != "" {
		out.Description = strPtr(desc)
	}
	if product.Vendor != "" {
		out.Brand = strPtr(product.Vendor)
	}
	if product.Type != "" {
		out.Category = strPtr(product.Type)
	}
	if price := centsToPrice(product.Price); price > 0 {
		out.Price = floatPtr(price)
	}
	for i, v := range product.Variants {
		variant := models.Variant{
			SKU:     v.SKU,
			Price:   centsToPrice(v.Price),
			Options: variantOptions(product.Options, v),
		}
		if v.FeaturedImage != nil {
			variant.ImageURL = v.FeaturedImage.Src
		}
		out.Variants = append(out.Variants, variant)
		if i == 0 && v.SKU != "" {
			out.SKU = strPtr(v.SKU)
		}
	}
	return out, nil
}

// fallbackVariants reads the variant picker when no product JSON is
// present, which happens on heavily customized themes.
func fallbackVariants(doc *goquery.Document) *Partial {
	out := &Partial{}
	doc.Find(`select[name="id"] option, select[data-variant-select] option`).Each(func(_ int, s *goquery.Selection) {
		if v, ok := variantFromOption(s, "Title"); ok {
			out.Variants = append(out.Variants, v)
		}
	})
	if out.IsEmpty() {
		return nil
	}
	return out
}

func variantOptions(names []string, v shopifyVariant) map[string]string {
	values := []string{v.Option1, v.Option2, v.Option3}
	opts := make(map[string]string)
	for i, val := range values {
		if val == "" {
			continue
		}
		name := "Option " + string(rune('1'+i))
		if i < len(names) && names[i] != "" {
			name = names[i]
		}
		opts[name] = val
	}
	if len(opts) == 0 && v.Title != "" && v.Title != "Default Title" {
		opts["Title"] = v.Title
	}
	return opts
}

func centsToPrice(n json.Number) float64 {
	if n == "" {
		return 0
	}
	if cents, err := n.Int64(); err == nil {
		return float64(cents) / 100
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return 0
}
