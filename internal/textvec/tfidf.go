// Package textvec turns free text into L2-normalized TF-IDF vectors.
package textvec

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
)

// DefaultMaxFeatures caps the vocabulary size when Fit is given zero.
const DefaultMaxFeatures = 1000

// ErrEmptyVocabulary is returned when no document yields a usable token.
var ErrEmptyVocabulary = errors.New("empty vocabulary; documents contain only stop words")

// Vectorizer is a fitted TF-IDF model. The zero value is unfitted.
type Vectorizer struct {
	Vocabulary []string  `json:"vocabulary"`
	IDF        []float64 `json:"idf"`

	once  sync.Once
	index map[string]int
}

// Fit learns the vocabulary and inverse document frequencies from docs.
// The vocabulary keeps the maxFeatures most frequent terms (ties broken
// alphabetically) and is indexed alphabetically.
func Fit(docs []string, maxFeatures int) (*Vectorizer, error) {
	if maxFeatures <= 0 {
		maxFeatures = DefaultMaxFeatures
	}

	total := make(map[string]int)
	df := make(map[string]int)
	for _, doc := range docs {
		for term, n := range termCounts(doc) {
			total[term] += n
			df[term]++
		}
	}
	if len(total) == 0 {
		return nil, ErrEmptyVocabulary
	}

	terms := make([]string, 0, len(total))
	for t := range total {
		terms = append(terms, t)
	}
	sort.Slice(terms, func(i, j int) bool {
		if total[terms[i]] != total[terms[j]] {
			return total[terms[i]] > total[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > maxFeatures {
		terms = terms[:maxFeatures]
	}
	sort.Strings(terms)

	n := float64(len(docs))
	idf := make([]float64, len(terms))
	for i, t := range terms {
		idf[i] = math.Log((1+n)/(1+float64(df[t]))) + 1
	}

	return &Vectorizer{Vocabulary: terms, IDF: idf}, nil
}

// Dim is the vocabulary size.
func (v *Vectorizer) Dim() int { return len(v.Vocabulary) }

// Transform vectorizes one document. Out-of-vocabulary terms are ignored.
func (v *Vectorizer) Transform(doc string) Vector {
	v.buildIndex()
	weights := make(map[int]float64)
	for term, n := range termCounts(doc) {
		if i, ok := v.index[term]; ok {
			weights[i] = float64(n) * v.IDF[i]
		}
	}
	vec := NewVector(weights)
	if norm := vec.Norm(); norm > 0 {
		for k := range vec.Values {
			vec.Values[k] /= norm
		}
	}
	return vec
}

// TransformAll vectorizes every document.
func (v *Vectorizer) TransformAll(docs []string) []Vector {
	out := make([]Vector, len(docs))
	for i, d := range docs {
		out[i] = v.Transform(d)
	}
	return out
}

// Validate checks a deserialized vectorizer.
func (v *Vectorizer) Validate() error {
	if len(v.Vocabulary) == 0 {
		return ErrEmptyVocabulary
	}
	if len(v.Vocabulary) != len(v.IDF) {
		return fmt.Errorf("vocabulary has %d terms but idf has %d weights", len(v.Vocabulary), len(v.IDF))
	}
	v.buildIndex()
	if len(v.index) != len(v.Vocabulary) {
		return errors.New("vocabulary contains duplicate terms")
	}
	return nil
}

func (v *Vectorizer) buildIndex() {
	v.once.Do(func() {
		v.index = make(map[string]int, len(v.Vocabulary))
		for i, t := range v.Vocabulary {
			v.index[t] = i
		}
	})
}
