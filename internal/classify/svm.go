package classify

import (
	"fmt"

	"github.com/your-org/internmatch/internal/textvec"
)

// LinearSVM is a one-vs-rest linear SVM trained with Pegasos
// (stochastic sub-gradient descent on the hinge loss).
type LinearSVM struct {
	Lambda float64 `json:"lambda"`
	Epochs int     `json:"epochs"`
	Seed   uint64  `json:"seed"`

	W [][]float64 `json:"w"`
	B []float64   `json:"b"`
}

func NewLinearSVM(seed uint64) *LinearSVM {
	return &LinearSVM{Lambda: 1e-3, Epochs: 30, Seed: seed}
}

func (m *LinearSVM) Kind() string { return "linear_svm" }
func (m *LinearSVM) Name() string { return "SVM" }

func (m *LinearSVM) Fit(ds Dataset) error {
	if err := ds.check(); err != nil {
		return err
	}
	if m.Lambda <= 0 || m.Epochs <= 0 {
		return fmt.Errorf("linear svm needs positive lambda and epochs (lambda=%v epochs=%d)", m.Lambda, m.Epochs)
	}
	k := len(ds.Classes)
	m.W = make([][]float64, k)
	m.B = make([]float64, k)
	rng := newRand(m.Seed)
	for c := 0; c < k; c++ {
		m.W[c], m.B[c] = m.fitBinary(ds, c, rng.Uint64())
	}
	return nil
}

// fitBinary trains class c against the rest. The bias is a regularized
// weight on a constant feature stored at v[dim], and the weight vector is
// kept as scale*v so the per-step shrink is O(1).
func (m *LinearSVM) fitBinary(ds Dataset, c int, seed uint64) ([]float64, float64) {
	dim := ds.Dim
	v := make([]float64, dim+1)
	scale := 1.0
	rng := newRand(seed)

	t := 0
	for epoch := 0; epoch < m.Epochs; epoch++ {
		for _, i := range rng.Perm(len(ds.X)) {
			t++
			eta := 1 / (m.Lambda * float64(t))
			y := -1.0
			if ds.Y[i] == c {
				y = 1
			}
			x := ds.X[i]
			margin := y * scale * (x.Dot(v[:dim]) + v[dim])

			shrink := 1 - eta*m.Lambda
			if shrink <= 0 {
				clear(v)
				scale = 1
			} else {
				scale *= shrink
			}
			if scale < 1e-9 {
				for j := range v {
					v[j] *= scale
				}
				scale = 1
			}
			if margin < 1 {
				step := eta * y / scale
				for j, idx := range x.Indices {
					v[idx] += step * x.Values[j]
				}
				v[dim] += step
			}
		}
	}
	for j := range v {
		v[j] *= scale
	}
	return v[:dim], v[dim]
}

func (m *LinearSVM) Predict(x textvec.Vector) int {
	scores := make([]float64, len(m.W))
	for c := range m.W {
		scores[c] = x.Dot(m.W[c]) + m.B[c]
	}
	return argmax(scores)
}

func (m *LinearSVM) Validate(dim, nClasses int) error {
	if err := checkMatrix("svm weights", m.W, nClasses, dim); err != nil {
		return err
	}
	if len(m.B) != nClasses {
		return fmt.Errorf("svm: expected %d biases, got %d", nClasses, len(m.B))
	}
	return nil
}
