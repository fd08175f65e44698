package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/epsilon-ml/rf/dataset"
	"github.com/epsilon-ml/rf/internal/logger"
)

var (
	genSamples int
	genSeed    uint64
	genOutput  string
)

var genCmd = &cobra.Command{
	Use:   "gen",
	Short: "Generate the synthetic media dataset as CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGen()
	},
}

func init() {
	genCmd.Flags().IntVar(&genSamples, "samples", 60000, "number of samples")
	genCmd.Flags().Uint64Var(&genSeed, "seed", 0, "rng seed")
	genCmd.Flags().StringVar(&genOutput, "out", "media.csv", "output csv file")
}

func runGen() error {
	X, y := dataset.GenerateMedia(genSamples, genSeed)

	out, err := os.Create(genOutput)
	if err != nil {
		return fmt.Errorf("creating %s: %w", genOutput, err)
	}
	defer out.Close()

	if err := dataset.WriteCSV(out, X, y, genSamples, dataset.MediaFeatures); err != nil {
		return fmt.Errorf("writing %s: %w", genOutput, err)
	}

	logger.WithComponent("gen").Info().
		Int("samples", genSamples).
		Str("file", genOutput).
		Msg("dataset written")
	return nil
}
