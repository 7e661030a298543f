package recommend

import (
	"errors"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/your-org/internmatch/internal/catalog"
	"github.com/your-org/internmatch/internal/classify"
)

// Holder publishes the current Recommender to concurrent readers.
type Holder struct {
	p atomic.Pointer[Recommender]
}

// NewHolder returns a Holder serving r.
func NewHolder(r *Recommender) *Holder {
	h := &Holder{}
	h.Store(r)
	return h
}

// Load returns the current Recommender. It may be nil or unavailable;
// callers check Available.
func (h *Holder) Load() *Recommender { return h.p.Load() }

// Store replaces the current Recommender.
func (h *Holder) Store(r *Recommender) { h.p.Store(r) }

// Source describes where the model bundle and catalog live.
type Source struct {
	ModelPath   string
	CatalogPath string
	BatchSize   int
	Logger      *zap.Logger
}

// Load reads both files. A missing file leaves that half empty and is only
// logged, so a fresh checkout can still serve pages; unreadable or corrupt
// files are errors.
func (s Source) Load() (*Recommender, error) {
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	cat, err := catalog.Load(s.CatalogPath)
	switch {
	case errors.Is(err, catalog.ErrCatalogMissing):
		logger.Warn("Internship catalog not found; no internships will be available", zap.String("path", s.CatalogPath))
		cat = nil
	case err != nil:
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	bundle, err := classify.LoadBundle(s.ModelPath)
	switch {
	case errors.Is(err, classify.ErrModelMissing):
		logger.Warn("Model bundle not found; predictions won't work", zap.String("path", s.ModelPath))
		bundle = nil
	case err != nil:
		return nil, fmt.Errorf("load model: %w", err)
	}

	r := New(bundle, cat, WithBatchSize(s.BatchSize))
	fields := []zap.Field{zap.Int("internships", cat.Len()), zap.Bool("available", r.Available())}
	if bundle != nil {
		fields = append(fields, zap.String("model", bundle.Name), zap.Float64("accuracy", bundle.Accuracy))
	}
	logger.Info("Loaded recommender", fields...)
	return r, nil
}
