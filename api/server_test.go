package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/prodpipe/extractor/models"
)

// newTestServer runs without a database so handler tests need no
// PostgreSQL. Product store endpoints are covered by their 503 path.
func newTestServer(t *testing.T) *Server {
	t.Helper()
	server, err := NewServer(Config{
		Addr:         ":0",
		SnapshotPath: t.TempDir(),
		CORSEnabled:  true,
		Registry:     prometheus.NewRegistry(),
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return server
}

func postJSON(t *testing.T, handler http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshaling request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return out
}

const productPageHTML = `<html><head>
<script type="application/ld+json">
{
	"@type": "Product",
	"name": "Wireless Mouse Ergonomic Design",
	"description": "A comfortable wireless mouse with an ergonomic design, adjustable DPI settings and a long-lasting rechargeable battery for daily use.",
	"brand": {"name": "Acme"},
	"image": ["https://c.example.com/1.jpg", "https://c.example.com/2.jpg", "https://c.example.com/3.jpg", "https://c.example.com/4.jpg"],
	"offers": {"price": "29.99", "priceCurrency": "USD"}
}
</script></head><body></body></html>`

func TestHandleHealth(t *testing.T) {
	server := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody[map[string]any](t, rec)
	if body["status"] != "healthy" {
		t.Errorf("status field = %v", body["status"])
	}
}

func TestHandleExtract(t *testing.T) {
	server := newTestServer(t)
	rec := postJSON(t, server.Handler(), "/api/extract", models.ExtractRequest{
		URL:  "https://www.amazon.com/dp/B08N5WRWNW",
		HTML: productPageHTML,
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	resp := decodeBody[models.ExtractResponse](t, rec)
	if resp.Platform != "amazon" {
		t.Errorf("platform = %q", resp.Platform)
	}
	if resp.ProductID != "B08N5WRWNW" {
		t.Errorf("product id = %q", resp.ProductID)
	}
	if resp.Record == nil || resp.Record.Title != "Wireless Mouse Ergonomic Design" {
		t.Fatalf("record = %+v", resp.Record)
	}
	if resp.Record.ExternalID != "B08N5WRWNW" {
		t.Errorf("external id = %q", resp.Record.ExternalID)
	}
	if resp.Report == nil {
		t.Fatal("expected a score report")
	}
	if resp.Report.Score < 70 {
		t.Errorf("score = %d, want a good record to clear 70", resp.Report.Score)
	}
	if !resp.Report.CanImport {
		t.Error("record should be importable")
	}
}

func TestHandleExtractValidation(t *testing.T) {
	server := newTestServer(t)

	tests := []struct {
		name string
		req  models.ExtractRequest
	}{
		{"missing url", models.ExtractRequest{HTML: "<html></html>"}},
		{"missing html", models.ExtractRequest{URL: "https://example.com/p"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, server.Handler(), "/api/extract", tt.req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestHandleExtractNoProduct(t *testing.T) {
	server := newTestServer(t)
	rec := postJSON(t, server.Handler(), "/api/extract", models.ExtractRequest{
		URL:  "https://example.com/about",
		HTML: "<html><body><p>About us</p></body></html>",
	})

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
}

func TestHandleScore(t *testing.T) {
	server := newTestServer(t)
	rec := postJSON(t, server.Handler(), "/api/score", models.ScoreRequest{
		Record: &models.ProductRecord{
			Title:  "Standalone Record Scoring",
			Price:  12.50,
			Images: []string{"https://c.example.com/1.jpg"},
		},
		Platform: "ebay",
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	report := decodeBody[models.ScoreReport](t, rec)
	if report.Score <= 0 {
		t.Errorf("score = %d", report.Score)
	}
	if len(report.Categories) != 6 {
		t.Errorf("categories = %d, want 6", len(report.Categories))
	}
	if report.Platform != "ebay" {
		t.Errorf("platform = %q", report.Platform)
	}
}

func TestHandleScoreRequiresRecord(t *testing.T) {
	server := newTestServer(t)
	rec := postJSON(t, server.Handler(), "/api/score", models.ScoreRequest{Platform: "amazon"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleQuickCheck(t *testing.T) {
	server := newTestServer(t)
	rec := postJSON(t, server.Handler(), "/api/quick-check", models.ScoreRequest{
		Record: &models.ProductRecord{Title: "Very Sparse"},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	check := decodeBody[models.QuickCheck](t, rec)
	if check.CanImport {
		t.Error("a near-empty record should not be importable")
	}
	if len(check.CriticalIssues) == 0 {
		t.Error("expected critical issues reported")
	}
}

func TestHandleCompare(t *testing.T) {
	server := newTestServer(t)
	strong := &models.ProductRecord{
		Title:       "Comparison Winner Product",
		Description: "This record carries enough detail to outscore its sibling in every category that matters for the comparison.",
		Price:       49.99,
		Currency:    "USD",
		Brand:       "Acme",
		Images:      []string{"https://c.example.com/1.jpg", "https://c.example.com/2.jpg", "https://c.example.com/3.jpg", "https://c.example.com/4.jpg", "https://c.example.com/5.jpg"},
	}
	weak := &models.ProductRecord{Title: "Thin Listing"}

	rec := postJSON(t, server.Handler(), "/api/compare", models.CompareRequest{
		RecordA: strong,
		RecordB: weak,
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	comparison := decodeBody[models.Comparison](t, rec)
	if comparison.Winner != "a" {
		t.Errorf("winner = %q", comparison.Winner)
	}
	if comparison.Difference <= 0 {
		t.Errorf("difference = %d", comparison.Difference)
	}
}

func TestHandleDetect(t *testing.T) {
	server := newTestServer(t)

	tests := []struct {
		name          string
		url           string
		wantPlatform  string
		wantID        string
		wantSupported bool
	}{
		{"amazon product", "https://www.amazon.fr/dp/B08N5WRWNW", "amazon", "B08N5WRWNW", true},
		{"amazon search", "https://www.amazon.com/s?k=shoes", "", "", false},
		{"shopify product", "https://shop.example.com/products/cotton-t-shirt", "shopify", "cotton-t-shirt", true},
		{"plain page", "https://example.com/blog/post", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, server.Handler(), "/api/detect", models.DetectRequest{URL: tt.url})
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			resp := decodeBody[models.DetectResponse](t, rec)
			if resp.Platform != tt.wantPlatform {
				t.Errorf("platform = %q, want %q", resp.Platform, tt.wantPlatform)
			}
			if resp.ProductID != tt.wantID {
				t.Errorf("product id = %q, want %q", resp.ProductID, tt.wantID)
			}
			if resp.Supported != tt.wantSupported {
				t.Errorf("supported = %v, want %v", resp.Supported, tt.wantSupported)
			}
		})
	}
}

func TestHandleDetectCapabilities(t *testing.T) {
	server := newTestServer(t)
	rec := postJSON(t, server.Handler(), "/api/detect", models.DetectRequest{
		URL: "https://shop.example.com/products/cotton-t-shirt",
	})

	resp := decodeBody[models.DetectResponse](t, rec)
	if len(resp.Capabilities) == 0 {
		t.Error("expected capabilities for the shopify extractor")
	}
}

func TestProductEndpointsWithoutDatabase(t *testing.T) {
	server := newTestServer(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/products"},
		{http.MethodGet, "/api/products/some-id"},
		{http.MethodDelete, "/api/products/some-id"},
		{http.MethodGet, "/api/products/some-id/snapshot"},
	}
	for _, p := range paths {
		req := httptest.NewRequest(p.method, p.path, nil)
		rec := httptest.NewRecorder()
		server.Handler().ServeHTTP(rec, req)
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("%s %s: status = %d, want 503", p.method, p.path, rec.Code)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	server := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/extract", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS headers")
	}
}

func TestMethodNotAllowed(t *testing.T) {
	server := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/extract", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", rec.Code)
	}
}
