package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/epsilon-ml/rf/internal/config"
	"github.com/epsilon-ml/rf/internal/logger"
	"github.com/epsilon-ml/rf/internal/server"
)

var (
	serveConfig string
	serveModel  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve predictions from a fitted model over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveConfig, "config", "", "config file (optional; env vars apply)")
	serveCmd.Flags().StringVar(&serveModel, "model", "", "fitted model file, overrides config")
}

func runServe() error {
	log := logger.WithComponent("server")

	cfg, err := config.Load(serveConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if serveModel != "" {
		cfg.Server.ModelPath = serveModel
	}

	clf, err := loadModel(cfg.Server.ModelPath)
	if err != nil {
		return err
	}

	srv := server.New(clf, log)
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)

	log.Info().
		Str("addr", addr).
		Int("trees", clf.NTrees).
		Int("classes", clf.NClasses).
		Msg("serving predictions")

	return http.ListenAndServe(addr, srv.Router())
}
