package classify

import (
	"fmt"
	"math"

	"github.com/your-org/internmatch/internal/textvec"
)

// RandomForest bags decision trees grown on bootstrap samples with sqrt(dim)
// candidate features per split, and predicts by majority vote.
type RandomForest struct {
	NTrees int    `json:"n_trees"`
	Seed   uint64 `json:"seed"`

	Trees    []*DecisionTree `json:"trees"`
	NClasses int             `json:"n_classes"`
}

func NewRandomForest(seed uint64) *RandomForest {
	return &RandomForest{NTrees: 50, Seed: seed}
}

func (m *RandomForest) Kind() string { return "random_forest" }
func (m *RandomForest) Name() string { return "Random Forest" }

func (m *RandomForest) Fit(ds Dataset) error {
	if err := ds.check(); err != nil {
		return err
	}
	if m.NTrees <= 0 {
		return fmt.Errorf("random forest needs at least one tree, got %d", m.NTrees)
	}
	X := ds.dense()
	rng := newRand(m.Seed)
	maxFeatures := max(1, int(math.Sqrt(float64(ds.Dim))))

	m.NClasses = len(ds.Classes)
	m.Trees = make([]*DecisionTree, m.NTrees)
	for t := range m.Trees {
		sample := make([]int, len(X))
		for i := range sample {
			sample[i] = rng.IntN(len(X))
		}
		tree := &DecisionTree{MinSamplesSplit: 2, MaxFeatures: maxFeatures, Seed: rng.Uint64()}
		tree.fitDense(X, ds.Y, len(ds.Classes), sample, newRand(tree.Seed))
		m.Trees[t] = tree
	}
	return nil
}

func (m *RandomForest) Predict(x textvec.Vector) int {
	votes := make([]int, max(m.NClasses, 1))
	for _, t := range m.Trees {
		if c := t.Predict(x); c < len(votes) {
			votes[c]++
		}
	}
	return majority(votes)
}

func (m *RandomForest) Validate(dim, nClasses int) error {
	if m.NClasses != nClasses {
		return fmt.Errorf("random forest: expected %d classes, got %d", nClasses, m.NClasses)
	}
	if len(m.Trees) == 0 {
		return fmt.Errorf("random forest has no trees")
	}
	for i, t := range m.Trees {
		if t == nil {
			return fmt.Errorf("random forest tree %d is missing", i)
		}
		if err := t.Validate(dim, nClasses); err != nil {
			return fmt.Errorf("random forest tree %d: %w", i, err)
		}
	}
	return nil
}
