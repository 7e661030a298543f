package classify

import (
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/your-org/internmatch/internal/textvec"
)

// DecisionTree is a CART classifier split on gini impurity. Nodes are stored
// flat so the tree serializes as a plain list.
type DecisionTree struct {
	MaxDepth        int    `json:"max_depth,omitempty"`
	MinSamplesSplit int    `json:"min_samples_split"`
	// MaxFeatures limits the features examined per split; zero means all.
	MaxFeatures int    `json:"max_features,omitempty"`
	Seed        uint64 `json:"seed"`

	Nodes []TreeNode `json:"nodes"`
}

// TreeNode is either a leaf (Left < 0) or a split on Feature <= Threshold.
type TreeNode struct {
	Feature   int     `json:"f,omitempty"`
	Threshold float64 `json:"t,omitempty"`
	Left      int     `json:"l"`
	Right     int     `json:"r"`
	Class     int     `json:"c"`
}

func NewDecisionTree(seed uint64) *DecisionTree {
	return &DecisionTree{MinSamplesSplit: 2, Seed: seed}
}

func (m *DecisionTree) Kind() string { return "decision_tree" }
func (m *DecisionTree) Name() string { return "Decision Tree" }

func (m *DecisionTree) Fit(ds Dataset) error {
	if err := ds.check(); err != nil {
		return err
	}
	idx := make([]int, len(ds.X))
	for i := range idx {
		idx[i] = i
	}
	m.fitDense(ds.dense(), ds.Y, len(ds.Classes), idx, newRand(m.Seed))
	return nil
}

// fitDense grows the tree over the rows of X selected by idx. Random forests
// call it directly with bootstrap samples.
func (m *DecisionTree) fitDense(X [][]float64, y []int, nClasses int, idx []int, rng *rand.Rand) {
	b := &treeBuilder{tree: m, X: X, y: y, nClasses: nClasses, rng: rng}
	if len(X) > 0 {
		b.dim = len(X[0])
	}
	m.Nodes = m.Nodes[:0]
	b.grow(idx, 0)
}

type treeBuilder struct {
	tree     *DecisionTree
	X        [][]float64
	y        []int
	nClasses int
	dim      int
	rng      *rand.Rand
}

func (b *treeBuilder) grow(idx []int, depth int) int {
	counts := make([]int, b.nClasses)
	for _, i := range idx {
		counts[b.y[i]]++
	}
	node := len(b.tree.Nodes)
	b.tree.Nodes = append(b.tree.Nodes, TreeNode{Left: -1, Right: -1, Class: majority(counts)})

	if isPure(counts) || len(idx) < max(b.tree.MinSamplesSplit, 2) ||
		(b.tree.MaxDepth > 0 && depth >= b.tree.MaxDepth) {
		return node
	}

	feature, threshold, ok := b.bestSplit(idx, counts)
	if !ok {
		return node
	}
	var left, right []int
	for _, i := range idx {
		if b.X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.tree.Nodes[node].Feature = feature
	b.tree.Nodes[node].Threshold = threshold
	b.tree.Nodes[node].Left = l
	b.tree.Nodes[node].Right = r
	return node
}

func (b *treeBuilder) candidateFeatures() []int {
	k := b.tree.MaxFeatures
	if k <= 0 || k >= b.dim {
		all := make([]int, b.dim)
		for i := range all {
			all[i] = i
		}
		return all
	}
	return b.rng.Perm(b.dim)[:k]
}

// bestSplit finds the split with the lowest weighted gini impurity.
func (b *treeBuilder) bestSplit(idx []int, parent []int) (feature int, threshold float64, ok bool) {
	n := float64(len(idx))
	bestScore := gini(parent, len(idx))
	order := make([]int, len(idx))
	left := make([]int, b.nClasses)
	right := make([]int, b.nClasses)

	for _, f := range b.candidateFeatures() {
		if constantFeature(b.X, idx, f) {
			continue
		}
		copy(order, idx)
		sort.Slice(order, func(i, j int) bool { return b.X[order[i]][f] < b.X[order[j]][f] })

		clear(left)
		copy(right, parent)
		for k := 0; k < len(order)-1; k++ {
			c := b.y[order[k]]
			left[c]++
			right[c]--
			cur, next := b.X[order[k]][f], b.X[order[k+1]][f]
			if cur == next {
				continue
			}
			nl := k + 1
			nr := len(order) - nl
			score := (float64(nl)*gini(left, nl) + float64(nr)*gini(right, nr)) / n
			if score < bestScore-1e-12 {
				bestScore = score
				feature, threshold, ok = f, (cur+next)/2, true
			}
		}
	}
	return feature, threshold, ok
}

func constantFeature(X [][]float64, idx []int, f int) bool {
	first := X[idx[0]][f]
	for _, i := range idx[1:] {
		if X[i][f] != first {
			return false
		}
	}
	return true
}

func gini(counts []int, n int) float64 {
	if n == 0 {
		return 0
	}
	g := 1.0
	for _, c := range counts {
		p := float64(c) / float64(n)
		g -= p * p
	}
	return g
}

func isPure(counts []int) bool {
	nonZero := 0
	for _, c := range counts {
		if c > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

func (m *DecisionTree) Predict(x textvec.Vector) int {
	if len(m.Nodes) == 0 {
		return 0
	}
	node := m.Nodes[0]
	for node.Left >= 0 {
		if x.At(node.Feature) <= node.Threshold {
			node = m.Nodes[node.Left]
		} else {
			node = m.Nodes[node.Right]
		}
	}
	return node.Class
}

func (m *DecisionTree) Validate(dim, nClasses int) error {
	if len(m.Nodes) == 0 {
		return fmt.Errorf("decision tree has no nodes")
	}
	for i, n := range m.Nodes {
		if n.Class < 0 || n.Class >= nClasses {
			return fmt.Errorf("decision tree node %d: class %d out of range", i, n.Class)
		}
		if n.Left < 0 {
			continue
		}
		if n.Feature < 0 || n.Feature >= dim {
			return fmt.Errorf("decision tree node %d: feature %d out of range", i, n.Feature)
		}
		// children are always appended after their parent
		if n.Left <= i || n.Right <= i || n.Left >= len(m.Nodes) || n.Right >= len(m.Nodes) {
			return fmt.Errorf("decision tree node %d: invalid children %d/%d", i, n.Left, n.Right)
		}
	}
	return nil
}
