// Package storage archives the raw HTML that extractions were run
// against, so low-quality results can be debugged later against the
// exact page the caller submitted. Snapshots go to the local filesystem
// or to S3-compatible object storage.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// SnapshotStore persists raw page HTML keyed by a path the store
// returns. Keys are stable and safe to store alongside the product row.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, html, slug string) (string, error)
	ReadSnapshot(ctx context.Context, key string) (string, error)
	DeleteSnapshot(ctx context.Context, key string) error
}

// Config contains filesystem storage configuration.
type Config struct {
	BasePath string // Base directory for all snapshots
}

// DefaultConfig returns default filesystem storage configuration.
func DefaultConfig() Config {
	return Config{
		BasePath: "./snapshots",
	}
}

// Storage stores snapshots on the local filesystem under
// snapshots/YYYY/MM/slug.html.
type Storage struct {
	config Config
}

// New creates a filesystem snapshot store, creating the base directory
// if needed.
func New(config Config) (*Storage, error) {
	if err := os.MkdirAll(config.BasePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base storage directory: %w", err)
	}

	return &Storage{config: config}, nil
}

// SaveSnapshot writes the HTML and returns the path relative to the
// base directory. An existing file with the same slug gets a numeric
// suffix rather than being overwritten.
func (s *Storage) SaveSnapshot(_ context.Context, html, slug string) (string, error) {
	dirPath := filepath.Join(s.config.BasePath, snapshotDir(time.Now()))
	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return "", fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	filename := slug + ".html"
	filePath := filepath.Join(dirPath, filename)

	counter := 1
	for fileExists(filePath) {
		filename = fmt.Sprintf("%s-%d.html", slug, counter)
		filePath = filepath.Join(dirPath, filename)
		counter++
	}

	if err := os.WriteFile(filePath, []byte(html), 0644); err != nil {
		return "", fmt.Errorf("failed to write snapshot file: %w", err)
	}

	relPath, err := filepath.Rel(s.config.BasePath, filePath)
	if err != nil {
		return "", fmt.Errorf("failed to get relative path: %w", err)
	}

	return relPath, nil
}

// ReadSnapshot reads a snapshot previously saved by SaveSnapshot.
func (s *Storage) ReadSnapshot(_ context.Context, key string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.config.BasePath, key))
	if err != nil {
		return "", fmt.Errorf("failed to read snapshot file: %w", err)
	}

	return string(data), nil
}

// DeleteSnapshot removes a snapshot. Deleting a missing snapshot is not
// an error.
func (s *Storage) DeleteSnapshot(_ context.Context, key string) error {
	if err := os.Remove(filepath.Join(s.config.BasePath, key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete snapshot file: %w", err)
	}

	return nil
}

// GetFullPath returns the full filesystem path for a snapshot key.
func (s *Storage) GetFullPath(key string) string {
	return filepath.Join(s.config.BasePath, key)
}

// snapshotDir buckets snapshots by year and month so directories stay
// a manageable size.
func snapshotDir(now time.Time) string {
	return filepath.Join(fmt.Sprintf("%04d", now.Year()), fmt.Sprintf("%02d", int(now.Month())))
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
