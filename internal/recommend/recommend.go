// Package recommend turns a user's stated preferences into a short, shuffled
// batch of internships from the predicted sector.
package recommend

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/your-org/internmatch/internal/catalog"
	"github.com/your-org/internmatch/internal/classify"
)

// DefaultBatchSize is how many recommendations one search yields.
const DefaultBatchSize = 5

// ErrUnavailable is returned when no model or no catalog is loaded.
var ErrUnavailable = errors.New("model or data not loaded")

// Preferences are the free-text search inputs.
type Preferences struct {
	Education string `json:"education"`
	Skills    string `json:"skills"`
	Sector    string `json:"sector_interest"`
	Location  string `json:"location_interest"`
}

// Text is the document fed to the classifier.
func (p Preferences) Text() string {
	return strings.Join([]string{p.Sector, p.Skills, p.Education, p.Location}, " ")
}

// Result is one recommendation batch.
type Result struct {
	PredictedSector string               `json:"predicted_sector"`
	Items           []catalog.Internship `json:"items"`
}

// Recommender pairs a model bundle with the catalog it recommends from.
// It is immutable apart from its random source.
type Recommender struct {
	bundle    *classify.Bundle
	catalog   *catalog.Catalog
	batchSize int
	loadedAt  time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

// Option configures a Recommender.
type Option func(*Recommender)

// WithBatchSize overrides DefaultBatchSize.
func WithBatchSize(n int) Option {
	return func(r *Recommender) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

// WithRand fixes the shuffle source.
func WithRand(rng *rand.Rand) Option {
	return func(r *Recommender) { r.rng = rng }
}

// New returns a Recommender. Either argument may be nil; Recommend then
// reports ErrUnavailable.
func New(bundle *classify.Bundle, cat *catalog.Catalog, opts ...Option) *Recommender {
	r := &Recommender{
		bundle:    bundle,
		catalog:   cat,
		batchSize: DefaultBatchSize,
		loadedAt:  time.Now(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.rng == nil {
		r.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return r
}

// Available reports whether both model and catalog are loaded.
func (r *Recommender) Available() bool {
	return r != nil && r.bundle != nil && r.catalog.Len() > 0
}

// Bundle returns the loaded model, or nil.
func (r *Recommender) Bundle() *classify.Bundle {
	if r == nil {
		return nil
	}
	return r.bundle
}

// Catalog returns the loaded catalog, or nil.
func (r *Recommender) Catalog() *catalog.Catalog {
	if r == nil {
		return nil
	}
	return r.catalog
}

// LoadedAt is when this Recommender was built.
func (r *Recommender) LoadedAt() time.Time {
	if r == nil {
		return time.Time{}
	}
	return r.loadedAt
}

// Recommend predicts a sector from prefs and returns up to the batch size
// internships from it in random order. An empty batch is not an error.
func (r *Recommender) Recommend(ctx context.Context, prefs Preferences) (Result, error) {
	return r.RecommendN(ctx, prefs, 0)
}

// RecommendN is Recommend with an explicit batch size; limit <= 0 uses the
// configured size.
func (r *Recommender) RecommendN(ctx context.Context, prefs Preferences, limit int) (Result, error) {
	if !r.Available() {
		return Result{}, ErrUnavailable
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if limit <= 0 {
		limit = r.batchSize
	}

	sector := r.bundle.PredictText(prefs.Text())
	items := r.catalog.BySector(sector)

	r.mu.Lock()
	r.rng.Shuffle(len(items), func(i, j int) { items[i], items[j] = items[j], items[i] })
	r.mu.Unlock()

	if len(items) > limit {
		items = items[:limit]
	}
	return Result{PredictedSector: sector, Items: items}, nil
}
