package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/epsilon-ml/rf/dataset"
	"github.com/epsilon-ml/rf/forest"
)

var (
	predictData   string
	predictModel  string
	predictOutput string
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Classify a CSV file with a fitted model",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPredict()
	},
}

func init() {
	predictCmd.Flags().StringVar(&predictData, "data", "", "csv file with samples, no label column")
	predictCmd.Flags().StringVar(&predictModel, "model", "rf.model", "fitted model file")
	predictCmd.Flags().StringVar(&predictOutput, "predictions", "", "output file, one label per line (default stdout)")
	_ = predictCmd.MarkFlagRequired("data")
}

func runPredict() error {
	clf, err := loadModel(predictModel)
	if err != nil {
		return err
	}

	f, err := os.Open(predictData)
	if err != nil {
		return fmt.Errorf("opening %s: %w", predictData, err)
	}
	defer f.Close()

	X, _, s, nf, err := dataset.ParseCSV(f, false)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", predictData, err)
	}

	pred, err := clf.PredictBatch(dataset.Transpose(X, nf, s), s)
	if err != nil {
		return err
	}

	out := io.Writer(os.Stdout)
	if predictOutput != "" {
		o, err := os.Create(predictOutput)
		if err != nil {
			return fmt.Errorf("creating %s: %w", predictOutput, err)
		}
		defer o.Close()
		out = o
	}

	return writePred(out, pred)
}

func loadModel(path string) (*forest.Classifier, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening model %s: %w", path, err)
	}
	defer f.Close()

	clf := forest.NewClassifier()
	if err := clf.Load(f); err != nil {
		return nil, fmt.Errorf("reading model %s: %w", path, err)
	}
	return clf, nil
}

func writePred(w io.Writer, pred []int32) error {
	wtr := bufio.NewWriter(w)

	for _, p := range pred {
		if _, err := wtr.WriteString(strconv.FormatInt(int64(p), 10)); err != nil {
			return err
		}
		if err := wtr.WriteByte('\n'); err != nil {
			return err
		}
	}

	return wtr.Flush()
}
