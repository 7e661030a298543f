// Package classify trains the sector classifiers behind recommendations and
// persists the winner together with its vectorizer.
package classify

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/your-org/internmatch/internal/textvec"
)

// Classifier predicts a class index for a vectorized document.
type Classifier interface {
	// Kind is the stable identifier stored in model bundles.
	Kind() string
	// Name is the human readable label used in reports.
	Name() string
	Fit(ds Dataset) error
	Predict(x textvec.Vector) int
	// Validate checks fitted parameters against the expected shape.
	Validate(dim, nClasses int) error
}

// Dataset is a labelled set of sparse vectors.
type Dataset struct {
	X       []textvec.Vector
	Y       []int
	Classes []string
	Dim     int
}

// ErrEmptyDataset is returned when fitting on zero samples.
var ErrEmptyDataset = errors.New("empty dataset")

func (ds Dataset) check() error {
	if len(ds.X) == 0 {
		return ErrEmptyDataset
	}
	if len(ds.X) != len(ds.Y) {
		return fmt.Errorf("dataset has %d samples but %d labels", len(ds.X), len(ds.Y))
	}
	if len(ds.Classes) == 0 || ds.Dim <= 0 {
		return fmt.Errorf("dataset needs classes and a positive dimension (classes=%d dim=%d)", len(ds.Classes), ds.Dim)
	}
	for _, y := range ds.Y {
		if y < 0 || y >= len(ds.Classes) {
			return fmt.Errorf("label %d out of range", y)
		}
	}
	return nil
}

// Subset returns the samples at idx.
func (ds Dataset) Subset(idx []int) Dataset {
	out := Dataset{
		X:       make([]textvec.Vector, len(idx)),
		Y:       make([]int, len(idx)),
		Classes: ds.Classes,
		Dim:     ds.Dim,
	}
	for k, i := range idx {
		out.X[k] = ds.X[i]
		out.Y[k] = ds.Y[i]
	}
	return out
}

func (ds Dataset) dense() [][]float64 {
	out := make([][]float64, len(ds.X))
	for i, x := range ds.X {
		out[i] = x.Dense(ds.Dim)
	}
	return out
}

// EncodeLabels maps string labels to indices into the sorted distinct classes.
func EncodeLabels(labels []string) (y []int, classes []string) {
	seen := make(map[string]struct{})
	for _, l := range labels {
		if _, ok := seen[l]; !ok {
			seen[l] = struct{}{}
			classes = append(classes, l)
		}
	}
	sort.Strings(classes)
	pos := make(map[string]int, len(classes))
	for i, c := range classes {
		pos[c] = i
	}
	y = make([]int, len(labels))
	for i, l := range labels {
		y[i] = pos[l]
	}
	return y, classes
}

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// argmax returns the first index of the largest value.
func argmax(xs []float64) int {
	best := 0
	for i := 1; i < len(xs); i++ {
		if xs[i] > xs[best] {
			best = i
		}
	}
	return best
}

func majority(counts []int) int {
	best := 0
	for i := 1; i < len(counts); i++ {
		if counts[i] > counts[best] {
			best = i
		}
	}
	return best
}

func checkMatrix(name string, m [][]float64, rows, cols int) error {
	if len(m) != rows {
		return fmt.Errorf("%s: expected %d rows, got %d", name, rows, len(m))
	}
	for i, row := range m {
		if len(row) != cols {
			return fmt.Errorf("%s: row %d has %d columns, expected %d", name, i, len(row), cols)
		}
	}
	return nil
}
