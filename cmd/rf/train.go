package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"

	"github.com/epsilon-ml/rf/dataset"
	"github.com/epsilon-ml/rf/forest"
	"github.com/epsilon-ml/rf/internal/logger"
)

var (
	trainData    string
	trainModel   string
	trainTrees   int
	trainDepth   int
	trainWorkers int
	trainSeed    uint64
	trainProfile bool
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Fit a forest on a labeled CSV file",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTrain()
	},
}

func init() {
	trainCmd.Flags().StringVar(&trainData, "data", "", "csv file with training data, label first")
	trainCmd.Flags().StringVar(&trainModel, "model", "rf.model", "file to write the fitted model")
	trainCmd.Flags().IntVar(&trainTrees, "trees", 10, "number of trees")
	trainCmd.Flags().IntVar(&trainDepth, "max-depth", 10, "max depth to grow trees")
	trainCmd.Flags().IntVar(&trainWorkers, "workers", 1, "number of workers for fitting trees")
	trainCmd.Flags().Uint64Var(&trainSeed, "seed", 0, "rng seed; fits are reproducible per seed")
	trainCmd.Flags().BoolVar(&trainProfile, "profile", false, "write a cpu profile")
	_ = trainCmd.MarkFlagRequired("data")
}

func runTrain() error {
	log := logger.WithComponent("train")

	f, err := os.Open(trainData)
	if err != nil {
		return fmt.Errorf("opening %s: %w", trainData, err)
	}
	defer f.Close()

	X, y, s, nf, err := dataset.ParseCSV(f, true)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", trainData, err)
	}

	clf := forest.NewClassifier(
		forest.NumTrees(trainTrees),
		forest.MaxDepth(trainDepth),
		forest.NumWorkers(trainWorkers),
		forest.Seed(trainSeed),
		forest.Logger(log),
	)

	if trainProfile {
		defer profile.Start(profile.CPUProfile).Stop()
	}

	start := time.Now()
	if err := clf.Fit(X, y, s, nf); err != nil {
		return err
	}
	log.Info().Dur("elapsed", time.Since(start)).Msg("fit complete")

	out, err := os.Create(trainModel)
	if err != nil {
		return fmt.Errorf("creating %s: %w", trainModel, err)
	}
	defer out.Close()

	if err := clf.Save(out); err != nil {
		return fmt.Errorf("writing model to %s: %w", trainModel, err)
	}

	return report(os.Stderr, clf, X, y, s)
}

// report prints training-set accuracy and the confusion matrix.
func report(w io.Writer, clf *forest.Classifier, X []float32, y []int32, s int) error {
	pred, err := clf.PredictBatch(dataset.Transpose(X, clf.NFeatures, s), s)
	if err != nil {
		return err
	}

	confusion := make([][]int, clf.NClasses)
	for i := range confusion {
		confusion[i] = make([]int, clf.NClasses)
	}

	correct := 0
	for i := range y {
		confusion[y[i]][pred[i]]++
		if pred[i] == y[i] {
			correct++
		}
	}

	fmt.Fprintf(w, "Confusion Matrix\n")
	fmt.Fprintf(w, "----------------\n")
	fmt.Fprintf(w, "%-10s ", "")
	for class := 0; class < clf.NClasses; class++ {
		fmt.Fprintf(w, "%-10d ", class)
	}
	fmt.Fprintf(w, "\n")

	for actual := range confusion {
		fmt.Fprintf(w, "%-10d ", actual)
		for predicted := range confusion[actual] {
			fmt.Fprintf(w, "%-10d ", confusion[actual][predicted])
		}
		fmt.Fprintf(w, "\n")
	}

	fmt.Fprintf(w, "\nTraining Accuracy: %.2f%%\n", 100*float64(correct)/float64(s))
	return nil
}
