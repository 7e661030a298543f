package classify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/your-org/internmatch/internal/textvec"
)

// DefaultTestSize is the held-out fraction used when Options.TestSize is zero.
const DefaultTestSize = 0.2

// Options configures TrainBest.
type Options struct {
	TestSize    float64
	Seed        uint64
	MaxFeatures int
	// Candidates overrides DefaultCandidates when non-empty.
	Candidates []Classifier
	// OnResult, if set, sees each candidate's evaluation in candidate order.
	OnResult func(Result)
	Logger   *zap.Logger
	Now      func() time.Time
}

// Result is the held-out evaluation of one candidate.
type Result struct {
	Name     string
	Kind     string
	Accuracy float64
	Report   Report
	Duration time.Duration
	Err      error

	model Classifier
}

// DefaultCandidates lists every classifier the trainer compares, in the
// order used to break accuracy ties.
func DefaultCandidates(seed uint64) []Classifier {
	return []Classifier{
		NewLogisticRegression(),
		NewDecisionTree(seed),
		NewRandomForest(seed),
		NewGaussianNB(),
		NewLinearSVM(seed),
	}
}

// ErrNoModel is returned when every candidate failed to train.
var ErrNoModel = errors.New("no candidate model trained successfully")

// TrainBest vectorizes docs, fits every candidate on the training split
// concurrently, and bundles the candidate with the best held-out accuracy.
// Ties go to the earlier candidate. Failed candidates are reported in the
// results but do not abort training.
func TrainBest(ctx context.Context, docs, labels []string, opts Options) (*Bundle, []Result, error) {
	if len(docs) != len(labels) {
		return nil, nil, fmt.Errorf("%d documents but %d labels", len(docs), len(labels))
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	vec, err := textvec.Fit(docs, opts.MaxFeatures)
	if err != nil {
		return nil, nil, fmt.Errorf("fit vectorizer: %w", err)
	}
	y, classes := EncodeLabels(labels)
	ds := Dataset{X: vec.TransformAll(docs), Y: y, Classes: classes, Dim: vec.Dim()}
	logger.Info("Vectorized catalog",
		zap.Int("documents", len(docs)),
		zap.Int("features", ds.Dim),
		zap.Int("classes", len(classes)))

	testSize := opts.TestSize
	if testSize == 0 {
		testSize = DefaultTestSize
	}
	trainIdx, testIdx, err := Split(len(docs), testSize, opts.Seed)
	if err != nil {
		return nil, nil, err
	}
	train, test := ds.Subset(trainIdx), ds.Subset(testIdx)

	candidates := opts.Candidates
	if len(candidates) == 0 {
		candidates = DefaultCandidates(opts.Seed)
	}

	results := make([]Result, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	for i, model := range candidates {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			res := Result{Name: model.Name(), Kind: model.Kind(), model: model}
			if err := model.Fit(train); err != nil {
				res.Err = err
				logger.Warn("Candidate failed to train", zap.String("model", res.Name), zap.Error(err))
			} else {
				pred := make([]int, len(test.X))
				for j, x := range test.X {
					pred[j] = model.Predict(x)
				}
				res.Report = NewReport(test.Y, pred, classes)
				res.Accuracy = res.Report.Accuracy
			}
			res.Duration = time.Since(start)
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	if opts.OnResult != nil {
		for _, r := range results {
			opts.OnResult(r)
		}
	}

	best := pickBest(results)
	if best < 0 {
		return nil, results, ErrNoModel
	}

	winner := results[best]
	logger.Info("Selected best model", zap.String("model", winner.Name), zap.Float64("accuracy", winner.Accuracy))
	bundle, err := NewBundle(vec, classes, winner.model, winner.Accuracy, now())
	if err != nil {
		return nil, results, err
	}
	return bundle, results, nil
}

// pickBest returns the index of the most accurate successful result, the
// earliest on ties, or -1.
func pickBest(results []Result) int {
	best := -1
	for i, r := range results {
		if r.Err != nil {
			continue
		}
		if best < 0 || r.Accuracy > results[best].Accuracy {
			best = i
		}
	}
	return best
}
