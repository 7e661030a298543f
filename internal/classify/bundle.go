package classify

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/your-org/internmatch/internal/textvec"
)

// BundleVersion is bumped whenever the on-disk layout changes.
const BundleVersion = 1

// ErrModelMissing is returned by LoadBundle when the file does not exist.
var ErrModelMissing = errors.New("model bundle not found")

// Bundle is a trained classifier together with the vectorizer it was fitted
// against and the class labels its indices refer to.
type Bundle struct {
	Version    int                 `json:"version"`
	Kind       string              `json:"kind"`
	Name       string              `json:"name"`
	Accuracy   float64             `json:"accuracy"`
	TrainedAt  time.Time           `json:"trained_at"`
	Classes    []string            `json:"classes"`
	Vectorizer *textvec.Vectorizer `json:"vectorizer"`
	Model      json.RawMessage     `json:"model"`

	classifier Classifier
}

var registry = map[string]func() Classifier{
	"logistic_regression": func() Classifier { return &LogisticRegression{} },
	"decision_tree":       func() Classifier { return &DecisionTree{} },
	"random_forest":       func() Classifier { return &RandomForest{} },
	"gaussian_nb":         func() Classifier { return &GaussianNB{} },
	"linear_svm":          func() Classifier { return &LinearSVM{} },
}

// NewBundle wraps a fitted classifier.
func NewBundle(vec *textvec.Vectorizer, classes []string, model Classifier, accuracy float64, trainedAt time.Time) (*Bundle, error) {
	if _, ok := registry[model.Kind()]; !ok {
		return nil, fmt.Errorf("unknown model kind %q", model.Kind())
	}
	if err := model.Validate(vec.Dim(), len(classes)); err != nil {
		return nil, err
	}
	raw, err := json.Marshal(model)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", model.Kind(), err)
	}
	return &Bundle{
		Version:    BundleVersion,
		Kind:       model.Kind(),
		Name:       model.Name(),
		Accuracy:   accuracy,
		TrainedAt:  trainedAt.UTC(),
		Classes:    classes,
		Vectorizer: vec,
		Model:      raw,
		classifier: model,
	}, nil
}

// Classifier returns the decoded model.
func (b *Bundle) Classifier() Classifier { return b.classifier }

// PredictText vectorizes text and returns the predicted class label.
func (b *Bundle) PredictText(text string) string {
	return b.Classes[b.classifier.Predict(b.Vectorizer.Transform(text))]
}

// Save writes the bundle as JSON, replacing path atomically.
func (b *Bundle) Save(path string) error {
	data, err := json.Marshal(b)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".model-*.json")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// LoadBundle reads and validates a bundle written by Save.
func LoadBundle(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrModelMissing, path)
		}
		return nil, err
	}
	b, err := DecodeBundle(data)
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", path, err)
	}
	return b, nil
}

// DecodeBundle parses and validates bundle JSON.
func DecodeBundle(data []byte) (*Bundle, error) {
	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, err
	}
	if b.Version != BundleVersion {
		return nil, fmt.Errorf("unsupported bundle version %d", b.Version)
	}
	factory, ok := registry[b.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown model kind %q", b.Kind)
	}
	if b.Vectorizer == nil {
		return nil, errors.New("bundle has no vectorizer")
	}
	if err := b.Vectorizer.Validate(); err != nil {
		return nil, err
	}
	if len(b.Classes) == 0 {
		return nil, errors.New("bundle has no classes")
	}
	model := factory()
	if err := json.Unmarshal(b.Model, model); err != nil {
		return nil, fmt.Errorf("decode %s: %w", b.Kind, err)
	}
	if err := model.Validate(b.Vectorizer.Dim(), len(b.Classes)); err != nil {
		return nil, err
	}
	b.classifier = model
	return &b, nil
}
