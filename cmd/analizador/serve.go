package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	analysishttp "eddp/analizador_cfdi/internal/adapters/http/analysis"
	healthhttp "eddp/analizador_cfdi/internal/adapters/http/health"
	"eddp/analizador_cfdi/internal/application/analysis"
	apphealth "eddp/analizador_cfdi/internal/application/health"
	"eddp/analizador_cfdi/internal/application/scanner"
	"eddp/analizador_cfdi/internal/infrastructure/config"
	"eddp/analizador_cfdi/internal/infrastructure/http/server"
	"eddp/analizador_cfdi/internal/infrastructure/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start the HTTP server exposing the scan and KPI endpoints under /api/v1.

Configuration comes from the environment (or a .env file in the working
directory): HTTP_PORT, LOG_LEVEL, AUTH_ENABLED and friends.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg.App.Name, cfg.Log.Level, cfg.App.Environment)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	analyzer := analysis.NewService(log, scanner.New(log), analysis.Config{
		DefaultRFC: cfg.Scan.DefaultRFC,
		Roots:      cfg.Scan.Roots,
	})

	healthService := apphealth.NewService(apphealth.Metadata{
		Service:     cfg.App.Name,
		Version:     cfg.App.Version,
		Environment: cfg.App.Environment,
	}, analyzer)

	healthHandler := healthhttp.NewHandler(healthService)

	srv, err := server.New(server.Options{
		Config:          cfg,
		Logger:          log,
		HealthHandler:   http.HandlerFunc(healthHandler.Status),
		AnalysisHandler: analysishttp.NewHandler(analyzer),
	})
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}
	defer srv.Close()

	log.Info("Starting HTTP server", "address", cfg.HTTP.Address())
	return srv.Run(ctx)
}
