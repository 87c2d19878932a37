package extractor

import (
	"context"

	"github.com/PuerkitoBio/goquery"
)

// SpecializedExtractor is a platform-specific extractor. When one is
// registered for the detected platform it runs before the generic
// strategies, and the generic strategies then fill whatever it missed.
type SpecializedExtractor interface {
	// Platform returns the identifier this extractor handles, for
	// example "amazon".
	Platform() string

	// Extract pulls product data out of the parsed document. A nil
	// Partial means the page did not look like a product page to
	// this extractor.
	Extract(ctx context.Context, doc *goquery.Document, pageURL string) (*Partial, error)

	// Capabilities names the fields this extractor can produce, used
	// for diagnostics and the /api/detect response.
	Capabilities() []string
}

// Registry resolves specialized extractors by platform.
type Registry interface {
	Lookup(platform string) (SpecializedExtractor, bool)
	Platforms() []string
}

// StaticRegistry is a fixed map of specialized extractors. The zero
// value is usable and resolves nothing.
type StaticRegistry struct {
	byPlatform map[string]SpecializedExtractor
	order      []string
}

// NewStaticRegistry builds a registry from the given extractors. Later
// entries with a duplicate platform replace earlier ones.
func NewStaticRegistry(extractors ...SpecializedExtractor) *StaticRegistry {
	r := &StaticRegistry{byPlatform: make(map[string]SpecializedExtractor, len(extractors))}
	for _, e := range extractors {
		if _, seen := r.byPlatform[e.Platform()]; !seen {
			r.order = append(r.order, e.Platform())
		}
		r.byPlatform[e.Platform()] = e
	}
	return r
}

func (r *StaticRegistry) Lookup(platform string) (SpecializedExtractor, bool) {
	if r == nil || r.byPlatform == nil {
		return nil, false
	}
	e, ok := r.byPlatform[platform]
	return e, ok
}

func (r *StaticRegistry) Platforms() []string {
	if r == nil {
		return nil
	}
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
