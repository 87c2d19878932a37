// Package db persists extracted products and their quality reports in
// PostgreSQL. Records are stored as JSON blobs with a few indexed
// columns pulled out for filtering, and every save appends to a score
// history table so quality trends survive re-extraction.
package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/prodpipe/extractor/models"
)

// ErrNotFound is returned when an operation targets a product that is
// not stored.
var ErrNotFound = errors.New("product not found")

// DB wraps the database connection and provides data access methods.
type DB struct {
	conn *sql.DB
}

// Config contains database configuration.
type Config struct {
	DSN string // PostgreSQL connection string
}

// StoredProduct is a product row joined with its latest quality report.
type StoredProduct struct {
	Record    *models.ProductRecord `json:"record"`
	Report    *models.ScoreReport   `json:"report,omitempty"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
}

// ScoreHistoryEntry is one point in a product's quality trend.
type ScoreHistoryEntry struct {
	Score        int       `json:"score"`
	QualityLevel string    `json:"quality_level"`
	ScoredAt     time.Time `json:"scored_at"`
}

// New opens a connection, configures the pool and runs migrations.
func New(config Config) (*DB, error) {
	conn, err := sql.Open("postgres", config.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	if err := Migrate(conn); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &DB{conn: conn}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// DB returns the underlying connection for metrics collection.
func (db *DB) DB() *sql.DB {
	return db.conn
}

// SaveProduct upserts a product keyed by URL and appends a score
// history row. Both writes happen in one transaction; report may be nil
// when the caller stored a record without scoring it.
func (db *DB) SaveProduct(record *models.ProductRecord, report *models.ScoreReport) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	recordJSON, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	score := record.QualityScore
	qualityLevel := ""
	var reportJSON []byte
	if report != nil {
		score = report.Score
		qualityLevel = report.QualityLevel
		reportJSON, err = json.Marshal(report)
		if err != nil {
			return fmt.Errorf("failed to marshal report: %w", err)
		}
	}

	query := `
		INSERT INTO products (id, url, platform, slug, external_id, data, report, score, quality_level, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT(url) DO UPDATE SET
			id = excluded.id,
			platform = excluded.platform,
			slug = excluded.slug,
			external_id = excluded.external_id,
			data = excluded.data,
			report = excluded.report,
			score = excluded.score,
			quality_level = excluded.quality_level,
			updated_at = excluded.updated_at
	`

	now := time.Now()
	_, err = tx.Exec(
		query,
		record.ID,
		record.URL,
		record.Platform,
		record.Slug,
		record.ExternalID,
		string(recordJSON),
		nullableString(reportJSON),
		score,
		qualityLevel,
		record.ExtractedAt,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to save product: %w", err)
	}

	_, err = tx.Exec(
		"INSERT INTO product_score_history (product_url, score, quality_level, scored_at) VALUES ($1, $2, $3, $4)",
		record.URL,
		score,
		qualityLevel,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to record score history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetByID retrieves a stored product by record ID. Returns nil when no
// row matches.
func (db *DB) GetByID(id string) (*StoredProduct, error) {
	return db.getOne("SELECT data, report, created_at, updated_at FROM products WHERE id = $1", id)
}

// GetByURL retrieves a stored product by page URL. Returns nil when no
// row matches.
func (db *DB) GetByURL(url string) (*StoredProduct, error) {
	return db.getOne("SELECT data, report, created_at, updated_at FROM products WHERE url = $1", url)
}

// GetBySlug retrieves a stored product by slug. Returns nil when no row
// matches.
func (db *DB) GetBySlug(slug string) (*StoredProduct, error) {
	return db.getOne("SELECT data, report, created_at, updated_at FROM products WHERE slug = $1 LIMIT 1", slug)
}

func (db *DB) getOne(query string, arg any) (*StoredProduct, error) {
	var (
		recordJSON string
		reportJSON sql.NullString
		createdAt  time.Time
		updatedAt  time.Time
	)
	err := db.conn.QueryRow(query, arg).Scan(&recordJSON, &reportJSON, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query product: %w", err)
	}
	return scanStoredProduct(recordJSON, reportJSON, createdAt, updatedAt)
}

// List returns stored products ordered newest first, optionally
// filtered by platform.
func (db *DB) List(limit, offset int, platform string) ([]*StoredProduct, error) {
	query := `
		SELECT data, report, created_at, updated_at FROM products
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	args := []any{limit, offset}
	if platform != "" {
		query = `
			SELECT data, report, created_at, updated_at FROM products
			WHERE platform = $3
			ORDER BY created_at DESC
			LIMIT $1 OFFSET $2
		`
		args = append(args, platform)
	}

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var results []*StoredProduct
	for rows.Next() {
		var (
			recordJSON string
			reportJSON sql.NullString
			createdAt  time.Time
			updatedAt  time.Time
		)
		if err := rows.Scan(&recordJSON, &reportJSON, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		stored, err := scanStoredProduct(recordJSON, reportJSON, createdAt, updatedAt)
		if err != nil {
			return nil, err
		}
		results = append(results, stored)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return results, nil
}

// Count returns the number of stored products, optionally filtered by
// platform.
func (db *DB) Count(platform string) (int, error) {
	query := "SELECT COUNT(*) FROM products"
	args := []any{}
	if platform != "" {
		query += " WHERE platform = $1"
		args = append(args, platform)
	}

	var count int
	if err := db.conn.QueryRow(query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return count, nil
}

// DeleteByID deletes a stored product. Its score history is kept for
// trend reporting.
func (db *DB) DeleteByID(id string) error {
	result, err := db.conn.Exec("DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("id %s: %w", id, ErrNotFound)
	}

	return nil
}

// URLExists reports whether a product with this URL is already stored.
func (db *DB) URLExists(url string) (bool, error) {
	var exists bool
	query := "SELECT EXISTS(SELECT 1 FROM products WHERE url = $1)"
	if err := db.conn.QueryRow(query, url).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check URL existence: %w", err)
	}
	return exists, nil
}

// ScoreHistory returns the score trend for a product URL, oldest first.
func (db *DB) ScoreHistory(url string) ([]ScoreHistoryEntry, error) {
	rows, err := db.conn.Query(
		"SELECT score, quality_level, scored_at FROM product_score_history WHERE product_url = $1 ORDER BY scored_at",
		url,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query score history: %w", err)
	}
	defer rows.Close()

	var history []ScoreHistoryEntry
	for rows.Next() {
		var entry ScoreHistoryEntry
		if err := rows.Scan(&entry.Score, &entry.QualityLevel, &entry.ScoredAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		history = append(history, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return history, nil
}

// ProductStats contains aggregate statistics for metrics collection.
type ProductStats struct {
	TotalStored  int
	AverageScore float64
}

// GetProductStats returns aggregates over stored products for Prometheus.
func (db *DB) GetProductStats() (*ProductStats, error) {
	stats := &ProductStats{}

	if err := db.conn.QueryRow("SELECT COUNT(*) FROM products").Scan(&stats.TotalStored); err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	if err := db.conn.QueryRow("SELECT COALESCE(AVG(score), 0) FROM products").Scan(&stats.AverageScore); err != nil {
		return nil, fmt.Errorf("failed to average scores: %w", err)
	}

	return stats, nil
}

func scanStoredProduct(recordJSON string, reportJSON sql.NullString, createdAt, updatedAt time.Time) (*StoredProduct, error) {
	var record models.ProductRecord
	if err := json.Unmarshal([]byte(recordJSON), &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record: %w", err)
	}

	stored := &StoredProduct{
		Record:    &record,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
	if reportJSON.Valid && reportJSON.String != "" && reportJSON.String != "null" {
		var report models.ScoreReport
		if err := json.Unmarshal([]byte(reportJSON.String), &report); err != nil {
			return nil, fmt.Errorf("failed to unmarshal report: %w", err)
		}
		stored.Report = &report
	}

	return stored, nil
}

func nullableString(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
