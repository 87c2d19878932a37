package extractor

import (
	"context"
	"testing"
)

const shopifyPageHTML = `<html><head>
<meta property="og:title" content="OG Fallback Title">
</head><body>
<script type="application/json" data-product-json>
{
	"title": "Cotton T-Shirt",
	"description": "Soft cotton t-shirt available in several colors.",
	"vendor": "ThreadWorks",
	"type": "Apparel",
	"price": 2499,
	"images": ["https://cdn.shopify.com/s/files/tee_small.jpg"],
	"options": ["Color", "Size"],
	"variants": [
		{"title": "Red / M", "sku": "TEE-R-M", "price": 2499, "option1": "Red", "option2": "M",
		 "featured_image": {"src": "https://cdn.shopify.com/s/files/tee-red.jpg"}},
		{"title": "Blue / M", "sku": "TEE-B-M", "price": 2599, "option1": "Blue", "option2": "M"}
	]
}
</script>
</body></html>`

func TestShopifyExtractorProductJSON(t *testing.T) {
	p, err := ShopifyExtractor{}.Extract(context.Background(), parseHTML(t, shopifyPageHTML), "https://shop.example.com/products/cotton-t-shirt")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if p == nil {
		t.Fatal("expected a result")
	}
	if *p.Title != "Cotton T-Shirt" {
		t.Errorf("title = %q", *p.Title)
	}
	if p.Price == nil || *p.Price != 24.99 {
		t.Errorf("price = %v, want cents converted", p.Price)
	}
	if p.Brand == nil || *p.Brand != "ThreadWorks" {
		t.Errorf("brand = %v", p.Brand)
	}
	if len(p.Variants) != 2 {
		t.Fatalf("variants = %+v", p.Variants)
	}
	first := p.Variants[0]
	if first.SKU != "TEE-R-M" || first.Price != 24.99 {
		t.Errorf("variant[0] = %+v", first)
	}
	if first.Options["Color"] != "Red" || first.Options["Size"] != "M" {
		t.Errorf("variant[0] options = %v", first.Options)
	}
	if first.ImageURL != "https://cdn.shopify.com/s/files/tee-red.jpg" {
		t.Errorf("variant[0] image = %q", first.ImageURL)
	}
	if p.SKU == nil || *p.SKU != "TEE-R-M" {
		t.Errorf("sku = %v, want first variant sku", p.SKU)
	}
}

func TestShopifyExtractorFallbackVariants(t *testing.T) {
	html := `<html><body>
	<select name="id">
		<option data-sku="V-1" data-price="19.99">Small</option>
		<option data-sku="V-2" data-price="21.99">Large</option>
	</select>
	</body></html>`

	p, err := ShopifyExtractor{}.Extract(context.Background(), parseHTML(t, html), "https://shop.example.com/products/x")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if p == nil || len(p.Variants) != 2 {
		t.Fatalf("got %+v, want 2 variants from the picker", p)
	}
	if p.Variants[0].SKU != "V-1" || p.Variants[0].Price != 19.99 {
		t.Errorf("variant[0] = %+v", p.Variants[0])
	}
	if p.Variants[1].Options["Title"] != "Large" {
		t.Errorf("variant[1] options = %v", p.Variants[1].Options)
	}
}

func TestSpecializedExtractorTakesPrecedence(t *testing.T) {
	reg := NewStaticRegistry(ShopifyExtractor{})
	rec, err := New(reg).Extract(context.Background(), shopifyPageHTML, "https://shop.example.com/products/cotton-t-shirt", "shopify", "cotton-t-shirt")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if rec.Title != "Cotton T-Shirt" {
		t.Errorf("title = %q, want the specialized extractor to win over og:title", rec.Title)
	}
	if len(rec.Variants) != 2 {
		t.Errorf("variants = %+v", rec.Variants)
	}
	if len(rec.Images) != 1 || rec.Images[0] != "https://cdn.shopify.com/s/files/tee.jpg" {
		t.Errorf("images = %v, want shopify size suffix stripped", rec.Images)
	}
}

func TestStaticRegistryLookup(t *testing.T) {
	reg := NewStaticRegistry(ShopifyExtractor{})
	if _, ok := reg.Lookup("shopify"); !ok {
		t.Error("shopify should resolve")
	}
	if _, ok := reg.Lookup("amazon"); ok {
		t.Error("amazon should not resolve")
	}
	if got := reg.Platforms(); len(got) != 1 || got[0] != "shopify" {
		t.Errorf("platforms = %v", got)
	}
	var empty *StaticRegistry
	if _, ok := empty.Lookup("shopify"); ok {
		t.Error("nil registry should resolve nothing")
	}
}
