package extractor

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/prodpipe/extractor/models"
	"github.com/prodpipe/extractor/normalize"
)

// maxHeuristicImages caps how many gallery candidates the DOM strategy
// collects before normalization prunes and dedupes them.
const maxHeuristicImages = 20

// Strategy extracts a Partial from a parsed document. Strategies run in
// a fixed order and must not mutate the document.
type Strategy interface {
	Name() string
	Extract(ctx context.Context, doc *goquery.Document) *Partial
}

// defaultStrategies returns the generic strategies in merge order:
// structured data first, meta tags second, DOM heuristics last. Later
// results overwrite the fields they set.
func defaultStrategies() []Strategy {
	return []Strategy{
		structuredDataStrategy{},
		metaTagStrategy{},
		domHeuristicStrategy{},
	}
}

// structuredDataStrategy reads schema.org Product objects out of
// application/ld+json script blocks. Arrays and @graph wrappers are
// unwrapped, and the first Product node wins.
type structuredDataStrategy struct{}

func (structuredDataStrategy) Name() string { return "structured-data" }

func (structuredDataStrategy) Extract(_ context.Context, doc *goquery.Document) *Partial {
	var product map[string]any
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var raw any
		if err := json.Unmarshal([]byte(s.Text()), &raw); err != nil {
			return true
		}
		if p := findProductNode(raw); p != nil {
			product = p
			return false
		}
		return true
	})
	if product == nil {
		return nil
	}

	out := &Partial{}
	if title := normalize.CleanText(jsonString(product["name"])); title != "" {
		out.Title = strPtr(title)
	}
	if desc := normalize.CleanText(jsonString(product["description"])); desc != "" {
		out.Description = strPtr(desc)
	}
	if brand := brandName(product["brand"]); brand != "" {
		out.Brand = strPtr(brand)
	}
	if sku := jsonString(product["sku"]); sku != "" {
		out.SKU = strPtr(sku)
	}
	out.Images = jsonStrings(product["image"])

	if offer := firstOffer(product["offers"]); offer != nil {
		if price := normalize.PriceFrom(offer["price"]); price > 0 {
			out.Price = floatPtr(price)
		} else if price := normalize.PriceFrom(offer["lowPrice"]); price > 0 {
			out.Price = floatPtr(price)
		}
		// highPrice on an AggregateOffer is the pre-discount list price.
		if orig := offerOriginalPrice(offer); out.Price != nil && orig > *out.Price {
			out.OriginalPrice = floatPtr(orig)
		}
		if cur := jsonString(offer["priceCurrency"]); cur != "" {
			out.Currency = strPtr(strings.ToUpper(cur))
		}
	}
	if agg, ok := product["aggregateRating"].(map[string]any); ok {
		if rating, ok := normalize.FloatFrom(agg["ratingValue"]); ok {
			out.Rating = floatPtr(rating)
		}
		if count, ok := normalize.IntFrom(agg["reviewCount"]); ok {
			out.ReviewsCount = intPtr(count)
		} else if count, ok := normalize.IntFrom(agg["ratingCount"]); ok {
			out.ReviewsCount = intPtr(count)
		}
	}
	if out.IsEmpty() {
		return nil
	}
	return out
}

// findProductNode walks a decoded JSON-LD value looking for a node whose
// @type is (or includes) "Product".
func findProductNode(v any) map[string]any {
	switch node := v.(type) {
	case []any:
		for _, item := range node {
			if p := findProductNode(item); p != nil {
				return p
			}
		}
	case map[string]any:
		if isProductType(node["@type"]) {
			return node
		}
		if graph, ok := node["@graph"]; ok {
			return findProductNode(graph)
		}
	}
	return nil
}

func isProductType(v any) bool {
	switch t := v.(type) {
	case string:
		return t == "Product"
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok && s == "Product" {
				return true
			}
		}
	}
	return false
}

func firstOffer(v any) map[string]any {
	switch offers := v.(type) {
	case map[string]any:
		return offers
	case []any:
		for _, item := range offers {
			if m, ok := item.(map[string]any); ok {
				return m
			}
		}
	}
	return nil
}

func offerOriginalPrice(offer map[string]any) float64 {
	for _, key := range []string{"highPrice", "listPrice"} {
		if price := normalize.PriceFrom(offer[key]); price > 0 {
			return price
		}
	}
	return 0
}

func brandName(v any) string {
	switch b := v.(type) {
	case string:
		return normalize.CleanText(b)
	case map[string]any:
		return normalize.CleanText(jsonString(b["name"]))
	}
	return ""
}

func jsonString(v any) string {
	s, _ := v.(string)
	return s
}

func jsonStrings(v any) []string {
	switch val := v.(type) {
	case string:
		if val == "" {
			return nil
		}
		return []string{val}
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			switch img := item.(type) {
			case string:
				out = append(out, img)
			case map[string]any:
				if u := jsonString(img["url"]); u != "" {
					out = append(out, u)
				}
			}
		}
		return out
	case map[string]any:
		if u := jsonString(val["url"]); u != "" {
			return []string{u}
		}
	}
	return nil
}

// metaTagStrategy reads Open Graph and product: meta tags. A result
// without a title is discarded because og tags on non-product pages
// still carry images and descriptions.
type metaTagStrategy struct{}

func (metaTagStrategy) Name() string { return "meta-tag" }

func (metaTagStrategy) Extract(_ context.Context, doc *goquery.Document) *Partial {
	content := func(property string) string {
		val, _ := doc.Find(`meta[property="` + property + `"]`).First().Attr("content")
		if val == "" {
			val, _ = doc.Find(`meta[name="` + property + `"]`).First().Attr("content")
		}
		return normalize.CleanText(val)
	}

	title := content("og:title")
	if title == "" {
		return nil
	}

	out := &Partial{Title: strPtr(title)}
	if desc := content("og:description"); desc != "" {
		out.Description = strPtr(desc)
	}
	if brand := content("product:brand"); brand != "" {
		out.Brand = strPtr(brand)
	} else if brand := content("og:brand"); brand != "" {
		out.Brand = strPtr(brand)
	}
	doc.Find(`meta[property="og:image"]`).Each(func(_ int, s *goquery.Selection) {
		if u, ok := s.Attr("content"); ok && u != "" {
			out.Images = append(out.Images, u)
		}
	})
	if amount := content("product:price:amount"); amount != "" {
		if price := normalize.FormatPrice(amount); price > 0 {
			out.Price = floatPtr(price)
		}
	}
	if amount := content("product:original_price:amount"); amount != "" {
		if price := normalize.FormatPrice(amount); price > 0 {
			out.OriginalPrice = floatPtr(price)
		}
	}
	if cur := content("product:price:currency"); cur != "" {
		out.Currency = strPtr(strings.ToUpper(cur))
	}
	return out
}

// domHeuristicStrategy scrapes common product-page selectors. It is the
// last resort and intentionally conservative: a candidate list per
// field, first non-empty match wins.
type domHeuristicStrategy struct{}

func (domHeuristicStrategy) Name() string { return "dom-heuristic" }

var (
	titleSelectors = []string{
		"#productTitle",
		"h1[itemprop='name']",
		".product-title",
		".product-name h1",
		".product__title",
		"h1",
	}
	priceSelectors = []string{
		"[itemprop='price']",
		".a-price .a-offscreen",
		".price--current",
		".product-price",
		".product__price",
		".price",
		"[data-price]",
	}
	descriptionSelectors = []string{
		"[itemprop='description']",
		"#productDescription",
		".product-description",
		".product__description",
	}
	brandSelectors = []string{
		"[itemprop='brand']",
		"#bylineInfo",
		".product-brand",
	}
	gallerySelectors = []string{
		".product-gallery img",
		".product-images img",
		".product__media img",
		"#altImages img",
		"#imgTagWrapperId img",
		"img[itemprop='image']",
	}
)

func (domHeuristicStrategy) Extract(_ context.Context, doc *goquery.Document) *Partial {
	out := &Partial{}

	if title := firstText(doc, titleSelectors); title != "" {
		out.Title = strPtr(title)
	}
	if raw := firstPriceText(doc); raw != "" {
		if price := normalize.FormatPrice(raw); price > 0 {
			out.Price = floatPtr(price)
		}
	}
	if desc := firstText(doc, descriptionSelectors); desc != "" {
		out.Description = strPtr(desc)
	}
	if brand := firstText(doc, brandSelectors); brand != "" {
		out.Brand = strPtr(brand)
	}
	out.Images = galleryImages(doc)

	if out.IsEmpty() {
		return nil
	}
	return out
}

func firstText(doc *goquery.Document, selectors []string) string {
	for _, sel := range selectors {
		if text := normalize.CleanText(doc.Find(sel).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

func firstPriceText(doc *goquery.Document) string {
	for _, sel := range priceSelectors {
		node := doc.Find(sel).First()
		if content, ok := node.Attr("content"); ok && content != "" {
			return content
		}
		if val, ok := node.Attr("data-price"); ok && val != "" {
			return val
		}
		if text := normalize.CleanText(node.Text()); text != "" {
			return text
		}
	}
	return ""
}

func galleryImages(doc *goquery.Document) []string {
	var images []string
	for _, sel := range gallerySelectors {
		doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			src := imageSource(s)
			if src != "" {
				images = append(images, src)
			}
			return len(images) < maxHeuristicImages
		})
		if len(images) > 0 {
			break
		}
	}
	if len(images) == 0 {
		doc.Find("main img, #main img, .main img").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if src := imageSource(s); src != "" {
				images = append(images, src)
			}
			return len(images) < maxHeuristicImages
		})
	}
	return images
}

// imageSource prefers lazy-loading attributes over src, which on many
// storefronts holds a placeholder until the gallery script runs.
func imageSource(s *goquery.Selection) string {
	for _, attr := range []string{"data-src", "data-old-hires", "data-zoom-image", "src"} {
		if val, ok := s.Attr(attr); ok && val != "" {
			return val
		}
	}
	return ""
}

// variantFromOption is a helper for specialized extractors that read
// select-based variant pickers.
func variantFromOption(s *goquery.Selection, optionName string) (models.Variant, bool) {
	label := normalize.CleanText(s.Text())
	if label == "" {
		return models.Variant{}, false
	}
	v := models.Variant{Options: map[string]string{optionName: label}}
	if sku, ok := s.Attr("data-sku"); ok {
		v.SKU = sku
	}
	if raw, ok := s.Attr("data-price"); ok {
		v.Price = normalize.FormatPrice(raw)
	}
	return v, true
}
