package classify

import (
	"fmt"
	"math"
	"strings"
)

// Split shuffles 0..n-1 with seed and holds out ceil(n*testSize) indices.
func Split(n int, testSize float64, seed uint64) (train, test []int, err error) {
	if n < 2 {
		return nil, nil, fmt.Errorf("need at least 2 samples to split, got %d", n)
	}
	if testSize <= 0 || testSize >= 1 {
		return nil, nil, fmt.Errorf("test size must be in (0, 1), got %v", testSize)
	}
	nTest := int(math.Ceil(float64(n) * testSize))
	nTest = min(max(nTest, 1), n-1)

	perm := newRand(seed).Perm(n)
	return perm[nTest:], perm[:nTest], nil
}

// Accuracy is the fraction of matching predictions.
func Accuracy(yTrue, yPred []int) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	hits := 0
	for i := range yTrue {
		if i < len(yPred) && yTrue[i] == yPred[i] {
			hits++
		}
	}
	return float64(hits) / float64(len(yTrue))
}

// ClassMetrics holds the per-class scores of a Report.
type ClassMetrics struct {
	Label     string
	Precision float64
	Recall    float64
	F1        float64
	Support   int
}

// Report is a per-class precision / recall / F1 summary.
type Report struct {
	Classes     []ClassMetrics
	Accuracy    float64
	MacroAvg    ClassMetrics
	WeightedAvg ClassMetrics
	Total       int
}

// NewReport scores predictions. Classes absent from both yTrue and yPred
// are left out. Undefined ratios count as zero.
func NewReport(yTrue, yPred []int, classes []string) Report {
	k := len(classes)
	tp := make([]int, k)
	predicted := make([]int, k)
	support := make([]int, k)
	for i, y := range yTrue {
		support[y]++
		p := yPred[i]
		predicted[p]++
		if p == y {
			tp[y]++
		}
	}

	r := Report{Accuracy: Accuracy(yTrue, yPred), Total: len(yTrue)}
	for c := 0; c < k; c++ {
		if support[c] == 0 && predicted[c] == 0 {
			continue
		}
		m := ClassMetrics{
			Label:     classes[c],
			Precision: ratio(tp[c], predicted[c]),
			Recall:    ratio(tp[c], support[c]),
			Support:   support[c],
		}
		if m.Precision+m.Recall > 0 {
			m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
		}
		r.Classes = append(r.Classes, m)
	}

	r.MacroAvg = ClassMetrics{Label: "macro avg", Support: r.Total}
	r.WeightedAvg = ClassMetrics{Label: "weighted avg", Support: r.Total}
	if n := float64(len(r.Classes)); n > 0 {
		for _, m := range r.Classes {
			r.MacroAvg.Precision += m.Precision / n
			r.MacroAvg.Recall += m.Recall / n
			r.MacroAvg.F1 += m.F1 / n
			if r.Total > 0 {
				w := float64(m.Support) / float64(r.Total)
				r.WeightedAvg.Precision += m.Precision * w
				r.WeightedAvg.Recall += m.Recall * w
				r.WeightedAvg.F1 += m.F1 * w
			}
		}
	}
	return r
}

func ratio(a, b int) float64 {
	if b == 0 {
		return 0
	}
	return float64(a) / float64(b)
}

// String renders the report as an aligned text table.
func (r Report) String() string {
	width := len("weighted avg")
	for _, m := range r.Classes {
		width = max(width, len(m.Label))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%*s %9s %9s %9s %9s\n\n", width, "", "precision", "recall", "f1-score", "support")
	for _, m := range r.Classes {
		fmt.Fprintf(&b, "%*s %9.2f %9.2f %9.2f %9d\n", width, m.Label, m.Precision, m.Recall, m.F1, m.Support)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "%*s %9s %9s %9.2f %9d\n", width, "accuracy", "", "", r.Accuracy, r.Total)
	for _, m := range []ClassMetrics{r.MacroAvg, r.WeightedAvg} {
		fmt.Fprintf(&b, "%*s %9.2f %9.2f %9.2f %9d\n", width, m.Label, m.Precision, m.Recall, m.F1, m.Support)
	}
	return b.String()
}
