package classify

import (
	"fmt"
	"math"

	"github.com/your-org/internmatch/internal/textvec"
)

// GaussianNB models every feature as a per-class normal distribution.
type GaussianNB struct {
	// VarSmoothing is added to every variance as a fraction of the largest
	// feature variance.
	VarSmoothing float64 `json:"var_smoothing"`

	Theta    [][]float64 `json:"theta"`
	Var      [][]float64 `json:"var"`
	LogPrior []float64   `json:"log_prior"`
}

func NewGaussianNB() *GaussianNB {
	return &GaussianNB{VarSmoothing: 1e-9}
}

func (m *GaussianNB) Kind() string { return "gaussian_nb" }
func (m *GaussianNB) Name() string { return "Naive Bayes" }

func (m *GaussianNB) Fit(ds Dataset) error {
	if err := ds.check(); err != nil {
		return err
	}
	k, d := len(ds.Classes), ds.Dim
	X := ds.dense()

	counts := make([]float64, k)
	m.Theta = make([][]float64, k)
	m.Var = make([][]float64, k)
	for c := 0; c < k; c++ {
		m.Theta[c] = make([]float64, d)
		m.Var[c] = make([]float64, d)
	}
	for i, row := range X {
		c := ds.Y[i]
		counts[c]++
		for j, v := range row {
			m.Theta[c][j] += v
		}
	}
	for c := 0; c < k; c++ {
		if counts[c] == 0 {
			continue
		}
		for j := range m.Theta[c] {
			m.Theta[c][j] /= counts[c]
		}
	}
	for i, row := range X {
		c := ds.Y[i]
		for j, v := range row {
			diff := v - m.Theta[c][j]
			m.Var[c][j] += diff * diff
		}
	}

	// epsilon follows the largest overall feature variance
	var maxVar float64
	mean := make([]float64, d)
	for _, row := range X {
		for j, v := range row {
			mean[j] += v
		}
	}
	n := float64(len(X))
	for j := range mean {
		mean[j] /= n
	}
	for j := 0; j < d; j++ {
		var s float64
		for _, row := range X {
			diff := row[j] - mean[j]
			s += diff * diff
		}
		maxVar = math.Max(maxVar, s/n)
	}
	eps := m.VarSmoothing * maxVar
	if eps == 0 {
		eps = m.VarSmoothing
	}

	m.LogPrior = make([]float64, k)
	for c := 0; c < k; c++ {
		for j := range m.Var[c] {
			if counts[c] > 0 {
				m.Var[c][j] /= counts[c]
			}
			m.Var[c][j] += eps
		}
		if counts[c] == 0 {
			// finite so the bundle stays valid JSON
			m.LogPrior[c] = -math.MaxFloat64
		} else {
			m.LogPrior[c] = math.Log(counts[c] / n)
		}
	}
	return nil
}

func (m *GaussianNB) Predict(x textvec.Vector) int {
	d := 0
	if len(m.Theta) > 0 {
		d = len(m.Theta[0])
	}
	dense := x.Dense(d)
	scores := make([]float64, len(m.Theta))
	for c := range m.Theta {
		s := m.LogPrior[c]
		for j, v := range dense {
			diff := v - m.Theta[c][j]
			s -= 0.5 * (math.Log(2*math.Pi*m.Var[c][j]) + diff*diff/m.Var[c][j])
		}
		scores[c] = s
	}
	return argmax(scores)
}

func (m *GaussianNB) Validate(dim, nClasses int) error {
	if err := checkMatrix("naive bayes means", m.Theta, nClasses, dim); err != nil {
		return err
	}
	if err := checkMatrix("naive bayes variances", m.Var, nClasses, dim); err != nil {
		return err
	}
	if len(m.LogPrior) != nClasses {
		return fmt.Errorf("naive bayes: expected %d priors, got %d", nClasses, len(m.LogPrior))
	}
	return nil
}
