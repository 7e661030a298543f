package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/your-org/internmatch/internal/catalog"
	"github.com/your-org/internmatch/internal/classify"
)

var (
	trainCatalog string
	trainOutput  string
	trainQuiet   bool
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train every candidate classifier and save the most accurate one",
	Long: `Loads the internship catalog, fits each candidate classifier on a
train/test split, prints a classification report per candidate and a
comparison table, and saves the winner (with its vectorizer) as the model
bundle used by "serve" and "mcp".`,
	RunE: runTrain,
}

func init() {
	trainCmd.Flags().StringVar(&trainCatalog, "catalog", "", "catalog CSV (default: data.catalog from config)")
	trainCmd.Flags().StringVarP(&trainOutput, "output", "o", "", "model bundle path (default: data.model from config)")
	trainCmd.Flags().BoolVarP(&trainQuiet, "quiet", "q", false, "skip per-candidate reports")
}

func runTrain(cmd *cobra.Command, args []string) error {
	catalogPath := cfg.CatalogPath()
	if trainCatalog != "" {
		catalogPath = trainCatalog
	}
	modelPath := cfg.ModelPath()
	if trainOutput != "" {
		modelPath = trainOutput
	}

	cat, err := catalog.Load(catalogPath)
	if errors.Is(err, catalog.ErrCatalogMissing) {
		return fmt.Errorf("%s not found; place the internship catalog there or pass --catalog", catalogPath)
	}
	if err != nil {
		return err
	}
	logger.Info("Loaded catalog", zap.String("path", catalogPath), zap.Int("internships", cat.Len()))

	out := cmd.OutOrStdout()
	docs, labels := cat.Documents()
	bundle, results, err := classify.TrainBest(cmd.Context(), docs, labels, classify.Options{
		TestSize:    cfg.Training.TestSize,
		Seed:        cfg.Training.Seed,
		MaxFeatures: cfg.Training.MaxFeatures,
		Logger:      logger,
		OnResult: func(r classify.Result) {
			if !trainQuiet {
				printReport(out, r)
			}
		},
	})
	if len(results) > 0 {
		printComparison(out, results)
	}
	if err != nil {
		return err
	}

	if err := bundle.Save(modelPath); err != nil {
		return fmt.Errorf("save model: %w", err)
	}
	fmt.Fprintf(out, "\nBest model: %s (accuracy %.4f)\nSaved to %s\n", bundle.Name, bundle.Accuracy, modelPath)
	return nil
}

func printReport(w io.Writer, r classify.Result) {
	fmt.Fprintf(w, "\n=== %s ===\n", r.Name)
	if r.Err != nil {
		fmt.Fprintf(w, "failed: %v\n", r.Err)
		return
	}
	fmt.Fprintf(w, "Accuracy: %.4f\n\n%s", r.Accuracy, r.Report)
}

func printComparison(w io.Writer, results []classify.Result) {
	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 48))
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "MODEL\tACCURACY\tTIME")
	for _, r := range results {
		acc := fmt.Sprintf("%.4f", r.Accuracy)
		if r.Err != nil {
			acc = "failed"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Name, acc, r.Duration.Round(time.Millisecond))
	}
	tw.Flush()
}
