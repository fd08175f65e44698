// rf trains, evaluates, and serves binned random-forest classification
// models.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/epsilon-ml/rf/internal/logger"
)

var logMode string

var rootCmd = &cobra.Command{
	Use:   "rf",
	Short: "Random forest classifier",
	Long:  `Train, evaluate, and serve random-forest classification models built on quantile-binned features.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		switch logger.Mode(logMode) {
		case logger.ModePretty, logger.ModeJSON, logger.ModeDisabled:
			logger.InitWithMode(logger.Mode(logMode), zerolog.InfoLevel)
		default:
			logger.InitWithMode(logger.ModePretty, zerolog.InfoLevel)
		}
	},
}

func main() {
	rootCmd.PersistentFlags().StringVar(&logMode, "log", "pretty", "log mode: pretty, json, disabled")

	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(predictCmd)
	rootCmd.AddCommand(genCmd)
	rootCmd.AddCommand(serveCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
