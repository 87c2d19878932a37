// Package api exposes the extraction pipeline over HTTP. The service
// never fetches pages itself: callers submit the URL plus the HTML they
// already have, and get back a normalized record with its quality
// report.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/prodpipe/extractor"
	"github.com/prodpipe/extractor/db"
	"github.com/prodpipe/extractor/metrics"
	"github.com/prodpipe/extractor/models"
	"github.com/prodpipe/extractor/platform"
	"github.com/prodpipe/extractor/quality"
	"github.com/prodpipe/extractor/storage"
)

// maxBodyBytes caps request bodies. Product pages routinely run to a
// few megabytes of HTML.
const maxBodyBytes = 10 << 20

// Server represents the API server.
type Server struct {
	db          *db.DB
	detector    *platform.Detector
	extractor   *extractor.Extractor
	scorer      *quality.Scorer
	snapshots   storage.SnapshotStore
	metrics     *metrics.Metrics
	registry    extractor.Registry
	addr        string
	server      *http.Server
	mux         *http.ServeMux
	corsEnabled bool
}

// Config contains server configuration. An empty DBConfig.DSN runs the
// server without persistence: extraction and scoring still work, the
// product store endpoints return 503.
type Config struct {
	Addr         string
	DBConfig     db.Config
	SnapshotPath string
	CORSEnabled  bool
	Registry     prometheus.Registerer // nil means prometheus.DefaultRegisterer
}

// DefaultConfig returns default server configuration.
func DefaultConfig() Config {
	return Config{
		Addr:         ":8080",
		SnapshotPath: storage.DefaultConfig().BasePath,
		CORSEnabled:  true,
	}
}

// NewServer creates a new API server.
func NewServer(config Config) (*Server, error) {
	var database *db.DB
	if config.DBConfig.DSN != "" {
		var err error
		database, err = db.New(config.DBConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
	} else {
		slog.Warn("no database configured, product store endpoints disabled")
	}

	var snapshots storage.SnapshotStore
	if config.SnapshotPath != "" {
		store, err := storage.New(storage.Config{BasePath: config.SnapshotPath})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize snapshot storage: %w", err)
		}
		snapshots = store
	}

	registerer := config.Registry
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	specialized := extractor.NewStaticRegistry(extractor.ShopifyExtractor{})

	s := &Server{
		db:          database,
		detector:    platform.NewDetector(platform.DefaultRegistry()),
		extractor:   extractor.New(specialized),
		scorer:      quality.NewDefault(),
		snapshots:   snapshots,
		metrics:     metrics.New(registerer, "prodpipe"),
		registry:    specialized,
		addr:        config.Addr,
		mux:         http.NewServeMux(),
		corsEnabled: config.CORSEnabled,
	}

	s.registerRoutes()

	s.server = &http.Server{
		Addr:         config.Addr,
		Handler:      otelhttp.NewHandler(s.middleware(s.mux), "api"),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// registerRoutes sets up all API routes.
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.Handle("/metrics", promhttp.Handler())
	s.mux.HandleFunc("/api/extract", s.handleExtract)
	s.mux.HandleFunc("/api/score", s.handleScore)
	s.mux.HandleFunc("/api/quick-check", s.handleQuickCheck)
	s.mux.HandleFunc("/api/compare", s.handleCompare)
	s.mux.HandleFunc("/api/detect", s.handleDetect)
	s.mux.HandleFunc("/api/products", s.handleProducts)
	s.mux.HandleFunc("/api/products/", s.handleProduct) // /api/products/{id} and /api/products/{id}/snapshot
}

// Handler returns the assembled handler, used by tests.
func (s *Server) Handler() http.Handler {
	return s.middleware(s.mux)
}

// DB returns the database wrapper for metrics collection. Nil when the
// server runs without persistence.
func (s *Server) DB() *db.DB {
	return s.db
}

// Start starts the API server.
func (s *Server) Start() error {
	slog.Info("starting API server", "addr", s.addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("shutting down API server")
	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// middleware applies CORS and request logging to all routes.
func (s *Server) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.corsEnabled {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

		start := time.Now()
		next.ServeHTTP(w, r)

		// Skip health checks to reduce noise.
		if r.URL.Path != "/health" && r.URL.Path != "/metrics" {
			slog.Info("request completed",
				"method", r.Method,
				"path", r.URL.Path,
				"duration", time.Since(start).String(),
			)
		}
	})
}

// handleHealth returns server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	response := map[string]any{
		"status": "healthy",
		"time":   time.Now(),
	}
	if s.db != nil {
		count, err := s.db.Count("")
		if err != nil {
			respondError(w, http.StatusInternalServerError, "failed to get count")
			return
		}
		response["products"] = count
	}

	respondJSON(w, http.StatusOK, response)
}

// handleExtract runs the full pipeline on caller-supplied HTML: detect
// the platform, extract, score, and optionally persist.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req models.ExtractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.URL == "" {
		respondError(w, http.StatusBadRequest, "url is required")
		return
	}
	if req.HTML == "" {
		respondError(w, http.StatusBadRequest, "html is required")
		return
	}

	platformName, productID := "", ""
	if detection := s.detector.Detect(req.URL); detection != nil {
		platformName = detection.Platform
		productID = detection.ProductID
	}

	start := time.Now()
	record, err := s.extractor.Extract(r.Context(), req.HTML, req.URL, platformName, productID)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		if errors.Is(err, extractor.ErrNoProduct) {
			s.metrics.ObserveExtraction(platformName, "no_product", elapsed)
			respondError(w, http.StatusUnprocessableEntity, "no product data found in page")
			return
		}
		s.metrics.ObserveExtraction(platformName, "error", elapsed)
		slog.Error("extraction failed", "url", req.URL, "error", err)
		respondError(w, http.StatusInternalServerError, "extraction failed")
		return
	}
	s.metrics.ObserveExtraction(platformName, "success", elapsed)

	report := s.scorer.Calculate(record, platformName)
	s.metrics.ObserveScore(report.QualityLevel, report.Score)

	store := req.Store == nil || *req.Store
	if store && s.db != nil {
		if err := s.db.SaveProduct(record, report); err != nil {
			slog.Error("failed to save product", "url", req.URL, "error", err)
			// Still return the result even if the save fails.
		} else if s.snapshots != nil {
			if _, err := s.snapshots.SaveSnapshot(r.Context(), req.HTML, record.Slug); err != nil {
				slog.Error("failed to save snapshot", "slug", record.Slug, "error", err)
			}
		}
	}

	respondJSON(w, http.StatusOK, models.ExtractResponse{
		Platform:  platformName,
		ProductID: productID,
		Record:    record,
		Report:    report,
	})
}

// handleScore produces a quality report for an already-extracted record.
func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeScoreRequest(w, r)
	if !ok {
		return
	}

	report := s.scorer.Calculate(req.Record, req.Platform)
	s.metrics.ObserveScore(report.QualityLevel, report.Score)
	respondJSON(w, http.StatusOK, report)
}

// handleQuickCheck returns the pass/fail summary without the full
// report.
func (s *Server) handleQuickCheck(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeScoreRequest(w, r)
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, s.scorer.QuickCheck(req.Record, req.Platform))
}

func decodeScoreRequest(w http.ResponseWriter, r *http.Request) (models.ScoreRequest, bool) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return models.ScoreRequest{}, false
	}

	var req models.ScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return models.ScoreRequest{}, false
	}
	if req.Record == nil {
		respondError(w, http.StatusBadRequest, "record is required")
		return models.ScoreRequest{}, false
	}
	return req, true
}

// handleCompare scores two records and names the better import
// candidate.
func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req models.CompareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.RecordA == nil || req.RecordB == nil {
		respondError(w, http.StatusBadRequest, "record_a and record_b are required")
		return
	}

	respondJSON(w, http.StatusOK, s.scorer.Compare(req.RecordA, req.RecordB, req.Platform))
}

// handleDetect reports which platform a URL belongs to and whether a
// specialized extractor is wired for it.
func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req models.DetectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.URL == "" {
		respondError(w, http.StatusBadRequest, "url is required")
		return
	}

	detection := s.detector.Detect(req.URL)
	if detection == nil {
		respondJSON(w, http.StatusOK, models.DetectResponse{})
		return
	}

	response := models.DetectResponse{
		Platform:  detection.Platform,
		ProductID: detection.ProductID,
		Supported: true,
	}
	if special, ok := s.registry.Lookup(detection.Platform); ok {
		response.Capabilities = special.Capabilities()
	}

	respondJSON(w, http.StatusOK, response)
}

// handleProducts lists stored products with pagination and an optional
// platform filter.
func (s *Server) handleProducts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if !s.requireDB(w) {
		return
	}

	limit := 20
	offset := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		fmt.Sscanf(limitStr, "%d", &limit)
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		fmt.Sscanf(offsetStr, "%d", &offset)
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	platformFilter := r.URL.Query().Get("platform")

	stored, err := s.db.List(limit, offset, platformFilter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "database error")
		return
	}

	products := make([]*models.ProductRecord, 0, len(stored))
	for _, item := range stored {
		products = append(products, item.Record)
	}

	count, _ := s.db.Count(platformFilter)

	respondJSON(w, http.StatusOK, models.ProductListResponse{
		Products: products,
		Total:    count,
		Limit:    limit,
		Offset:   offset,
	})
}

// handleProduct routes /api/products/{id} and /api/products/{id}/snapshot.
func (s *Server) handleProduct(w http.ResponseWriter, r *http.Request) {
	if !s.requireDB(w) {
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/products/")
	if path == "" {
		respondError(w, http.StatusBadRequest, "id is required")
		return
	}

	if strings.HasSuffix(path, "/snapshot") {
		id := strings.TrimSuffix(path, "/snapshot")
		if r.Method != http.MethodGet {
			respondError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		s.handleProductSnapshot(w, r, id)
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.handleGetProduct(w, r, path)
	case http.MethodDelete:
		s.handleDeleteProduct(w, r, path)
	default:
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleGetProduct retrieves a stored product with its latest report.
func (s *Server) handleGetProduct(w http.ResponseWriter, _ *http.Request, id string) {
	stored, err := s.db.GetByID(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "database error")
		return
	}
	if stored == nil {
		respondError(w, http.StatusNotFound, "product not found")
		return
	}

	respondJSON(w, http.StatusOK, stored)
}

// handleDeleteProduct deletes a stored product.
func (s *Server) handleDeleteProduct(w http.ResponseWriter, _ *http.Request, id string) {
	if err := s.db.DeleteByID(id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			respondError(w, http.StatusNotFound, "product not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to delete product")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "product deleted successfully",
	})
}

// handleProductSnapshot serves the archived HTML an extraction ran on.
func (s *Server) handleProductSnapshot(w http.ResponseWriter, r *http.Request, id string) {
	if s.snapshots == nil {
		respondError(w, http.StatusNotFound, "snapshot storage not configured")
		return
	}

	stored, err := s.db.GetByID(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "database error")
		return
	}
	if stored == nil {
		respondError(w, http.StatusNotFound, "product not found")
		return
	}
	if stored.Record.Slug == "" {
		respondError(w, http.StatusNotFound, "snapshot not available")
		return
	}

	html, err := s.snapshots.ReadSnapshot(r.Context(), snapshotKeyFor(stored))
	if err != nil {
		respondError(w, http.StatusNotFound, "snapshot not available")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(html))
}

// snapshotKeyFor rebuilds the snapshot key from the save timestamp and
// slug. Collision-suffixed snapshots of older extractions are not
// resolvable this way and return the original.
func snapshotKeyFor(stored *db.StoredProduct) string {
	t := stored.UpdatedAt
	return fmt.Sprintf("%04d/%02d/%s.html", t.Year(), int(t.Month()), stored.Record.Slug)
}

func (s *Server) requireDB(w http.ResponseWriter) bool {
	if s.db == nil {
		respondError(w, http.StatusServiceUnavailable, "product store not configured")
		return false
	}
	return true
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
