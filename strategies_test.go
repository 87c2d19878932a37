package extractor

import (
	"context"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func parseHTML(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parsing fixture html: %v", err)
	}
	return doc
}

func TestStructuredDataStrategy(t *testing.T) {
	html := `<html><head>
	<script type="application/ld+json">
	{
		"@context": "https://schema.org",
		"@type": "Product",
		"name": "Wireless Mouse Ergonomic Design",
		"description": "A comfortable wireless mouse.",
		"brand": {"@type": "Brand", "name": "Acme"},
		"sku": "WM-100",
		"image": ["https://cdn.example.com/a.jpg", "https://cdn.example.com/b.jpg"],
		"offers": {"@type": "Offer", "price": "29.99", "priceCurrency": "usd"},
		"aggregateRating": {"ratingValue": 4.5, "reviewCount": 128}
	}
	</script>
	</head><body></body></html>`

	p := structuredDataStrategy{}.Extract(context.Background(), parseHTML(t, html))
	if p == nil {
		t.Fatal("expected a result")
	}
	if got := *p.Title; got != "Wireless Mouse Ergonomic Design" {
		t.Errorf("title = %q", got)
	}
	if p.Brand == nil || *p.Brand != "Acme" {
		t.Errorf("brand = %v", p.Brand)
	}
	if p.Price == nil || *p.Price != 29.99 {
		t.Errorf("price = %v", p.Price)
	}
	if p.Currency == nil || *p.Currency != "USD" {
		t.Errorf("currency = %v, want normalized to upper case", p.Currency)
	}
	if p.SKU == nil || *p.SKU != "WM-100" {
		t.Errorf("sku = %v", p.SKU)
	}
	if len(p.Images) != 2 {
		t.Errorf("images = %v", p.Images)
	}
	if p.Rating == nil || *p.Rating != 4.5 {
		t.Errorf("rating = %v", p.Rating)
	}
	if p.ReviewsCount == nil || *p.ReviewsCount != 128 {
		t.Errorf("reviews count = %v", p.ReviewsCount)
	}
}

func TestStructuredDataStrategyGraphWrapper(t *testing.T) {
	html := `<html><head><script type="application/ld+json">
	{
		"@context": "https://schema.org",
		"@graph": [
			{"@type": "WebPage", "name": "Some page"},
			{"@type": ["Product", "Thing"], "name": "Graph Product", "offers": [{"price": 12.5, "priceCurrency": "EUR"}]}
		]
	}
	</script></head><body></body></html>`

	p := structuredDataStrategy{}.Extract(context.Background(), parseHTML(t, html))
	if p == nil {
		t.Fatal("expected a result")
	}
	if *p.Title != "Graph Product" {
		t.Errorf("title = %q", *p.Title)
	}
	if p.Price == nil || *p.Price != 12.5 {
		t.Errorf("price = %v", p.Price)
	}
}

func TestStructuredDataStrategySkipsBrokenBlocks(t *testing.T) {
	html := `<html><head>
	<script type="application/ld+json">{not valid json</script>
	<script type="application/ld+json">{"@type": "Product", "name": "Second Block"}</script>
	</head><body></body></html>`

	p := structuredDataStrategy{}.Extract(context.Background(), parseHTML(t, html))
	if p == nil || *p.Title != "Second Block" {
		t.Fatalf("got %+v, want product from second block", p)
	}
}

func TestStructuredDataStrategyNoProduct(t *testing.T) {
	html := `<html><head><script type="application/ld+json">
	{"@type": "Article", "name": "Not a product"}
	</script></head><body></body></html>`

	if p := (structuredDataStrategy{}).Extract(context.Background(), parseHTML(t, html)); p != nil {
		t.Errorf("got %+v, want nil for non-product json-ld", p)
	}
}

func TestStructuredDataStrategyOriginalPrice(t *testing.T) {
	html := `<html><head><script type="application/ld+json">
	{
		"@type": "Product",
		"name": "Discounted Lamp",
		"offers": {"@type": "AggregateOffer", "lowPrice": "39.99", "highPrice": "59.99", "priceCurrency": "USD"}
	}
	</script></head><body></body></html>`

	p := structuredDataStrategy{}.Extract(context.Background(), parseHTML(t, html))
	if p == nil || p.Price == nil {
		t.Fatalf("got %+v, want price", p)
	}
	if *p.Price != 39.99 {
		t.Errorf("price = %v", *p.Price)
	}
	if p.OriginalPrice == nil || *p.OriginalPrice != 59.99 {
		t.Errorf("original price = %v, want the pre-discount high price", p.OriginalPrice)
	}

	// highPrice equal to the selling price is not a discount.
	flat := `<html><head><script type="application/ld+json">
	{"@type": "Product", "name": "Flat Lamp", "offers": {"price": "39.99", "highPrice": "39.99"}}
	</script></head><body></body></html>`
	p = structuredDataStrategy{}.Extract(context.Background(), parseHTML(t, flat))
	if p == nil || p.OriginalPrice != nil {
		t.Errorf("original price = %v, want unset when no markdown", p.OriginalPrice)
	}
}

func TestMetaTagStrategy(t *testing.T) {
	html := `<html><head>
	<meta property="og:title" content="Meta Product">
	<meta property="og:description" content="Described via og tags.">
	<meta property="og:image" content="https://cdn.example.com/og1.jpg">
	<meta property="og:image" content="https://cdn.example.com/og2.jpg">
	<meta property="product:price:amount" content="49,90">
	<meta property="product:original_price:amount" content="69,90">
	<meta property="product:price:currency" content="brl">
	<meta property="product:brand" content="MetaBrand">
	</head><body></body></html>`

	p := metaTagStrategy{}.Extract(context.Background(), parseHTML(t, html))
	if p == nil {
		t.Fatal("expected a result")
	}
	if *p.Title != "Meta Product" {
		t.Errorf("title = %q", *p.Title)
	}
	if p.Price == nil || *p.Price != 49.90 {
		t.Errorf("price = %v", p.Price)
	}
	if p.OriginalPrice == nil || *p.OriginalPrice != 69.90 {
		t.Errorf("original price = %v", p.OriginalPrice)
	}
	if p.Currency == nil || *p.Currency != "BRL" {
		t.Errorf("currency = %v", p.Currency)
	}
	if p.Brand == nil || *p.Brand != "MetaBrand" {
		t.Errorf("brand = %v", p.Brand)
	}
	if len(p.Images) != 2 {
		t.Errorf("images = %v", p.Images)
	}
}

func TestMetaTagStrategyRequiresTitle(t *testing.T) {
	html := `<html><head>
	<meta property="og:description" content="Only a description.">
	<meta property="og:image" content="https://cdn.example.com/img.jpg">
	</head><body></body></html>`

	if p := (metaTagStrategy{}).Extract(context.Background(), parseHTML(t, html)); p != nil {
		t.Errorf("got %+v, want nil without og:title", p)
	}
}

func TestDOMHeuristicStrategy(t *testing.T) {
	html := `<html><body>
	<h1 id="productTitle">  DOM   Product  </h1>
	<span class="price">$19.99</span>
	<div class="product-description">Found in the DOM.</div>
	<div class="product-gallery">
		<img src="https://cdn.example.com/1.jpg">
		<img data-src="https://cdn.example.com/2.jpg" src="placeholder.gif">
	</div>
	</body></html>`

	p := domHeuristicStrategy{}.Extract(context.Background(), parseHTML(t, html))
	if p == nil {
		t.Fatal("expected a result")
	}
	if *p.Title != "DOM Product" {
		t.Errorf("title = %q, want whitespace collapsed", *p.Title)
	}
	if p.Price == nil || *p.Price != 19.99 {
		t.Errorf("price = %v", p.Price)
	}
	if len(p.Images) != 2 {
		t.Fatalf("images = %v", p.Images)
	}
	if p.Images[1] != "https://cdn.example.com/2.jpg" {
		t.Errorf("image[1] = %q, want lazy-load attribute preferred", p.Images[1])
	}
}

func TestDOMHeuristicStrategyPriceFromContentAttr(t *testing.T) {
	html := `<html><body>
	<h1>Attr Price Product</h1>
	<span itemprop="price" content="1234.56">R$ 1.234,56</span>
	</body></html>`

	p := domHeuristicStrategy{}.Extract(context.Background(), parseHTML(t, html))
	if p == nil || p.Price == nil {
		t.Fatalf("got %+v, want price", p)
	}
	if *p.Price != 1234.56 {
		t.Errorf("price = %v, want content attribute to win over text", *p.Price)
	}
}

func TestDOMHeuristicStrategyEmptyPage(t *testing.T) {
	if p := (domHeuristicStrategy{}).Extract(context.Background(), parseHTML(t, `<html><body><p>nothing here</p></body></html>`)); p != nil {
		t.Errorf("got %+v, want nil", p)
	}
}
