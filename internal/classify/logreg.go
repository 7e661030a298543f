package classify

import (
	"fmt"
	"math"

	"github.com/your-org/internmatch/internal/textvec"
)

// LogisticRegression is a multinomial (softmax) model trained with full
// batch gradient descent and L2 regularization.
type LogisticRegression struct {
	MaxIter      int     `json:"max_iter"`
	LearningRate float64 `json:"learning_rate"`
	L2           float64 `json:"l2"`

	W [][]float64 `json:"w"`
	B []float64   `json:"b"`
}

// NewLogisticRegression returns a model with the default hyper-parameters.
func NewLogisticRegression() *LogisticRegression {
	return &LogisticRegression{MaxIter: 500, LearningRate: 1.0, L2: 1e-4}
}

func (m *LogisticRegression) Kind() string { return "logistic_regression" }
func (m *LogisticRegression) Name() string { return "Logistic Regression" }

func (m *LogisticRegression) Fit(ds Dataset) error {
	if err := ds.check(); err != nil {
		return err
	}
	k, d, n := len(ds.Classes), ds.Dim, float64(len(ds.X))
	m.W = make([][]float64, k)
	for c := range m.W {
		m.W[c] = make([]float64, d)
	}
	m.B = make([]float64, k)

	gradW := make([][]float64, k)
	for c := range gradW {
		gradW[c] = make([]float64, d)
	}
	gradB := make([]float64, k)
	probs := make([]float64, k)

	for iter := 0; iter < m.MaxIter; iter++ {
		for c := range gradW {
			clear(gradW[c])
		}
		clear(gradB)

		for i, x := range ds.X {
			m.softmax(x, probs)
			for c := 0; c < k; c++ {
				g := probs[c]
				if ds.Y[i] == c {
					g -= 1
				}
				if g == 0 {
					continue
				}
				gradB[c] += g
				row := gradW[c]
				for j, idx := range x.Indices {
					row[idx] += g * x.Values[j]
				}
			}
		}

		var maxStep float64
		for c := 0; c < k; c++ {
			for j := 0; j < d; j++ {
				step := m.LearningRate * (gradW[c][j]/n + m.L2*m.W[c][j])
				m.W[c][j] -= step
				maxStep = math.Max(maxStep, math.Abs(step))
			}
			step := m.LearningRate * gradB[c] / n
			m.B[c] -= step
			maxStep = math.Max(maxStep, math.Abs(step))
		}
		if maxStep < 1e-7 {
			break
		}
	}
	return nil
}

// softmax writes class probabilities for x into out.
func (m *LogisticRegression) softmax(x textvec.Vector, out []float64) {
	maxZ := math.Inf(-1)
	for c := range m.W {
		out[c] = x.Dot(m.W[c]) + m.B[c]
		maxZ = math.Max(maxZ, out[c])
	}
	var sum float64
	for c := range out {
		out[c] = math.Exp(out[c] - maxZ)
		sum += out[c]
	}
	for c := range out {
		out[c] /= sum
	}
}

func (m *LogisticRegression) Predict(x textvec.Vector) int {
	scores := make([]float64, len(m.W))
	for c := range m.W {
		scores[c] = x.Dot(m.W[c]) + m.B[c]
	}
	return argmax(scores)
}

func (m *LogisticRegression) Validate(dim, nClasses int) error {
	if err := checkMatrix("logistic regression weights", m.W, nClasses, dim); err != nil {
		return err
	}
	if len(m.B) != nClasses {
		return fmt.Errorf("logistic regression: expected %d biases, got %d", nClasses, len(m.B))
	}
	return nil
}
