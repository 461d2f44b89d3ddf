package main

import (
	"log/slog"
	"os"

	"discover-release/internal/config"
	"discover-release/internal/provider/factory"
	"discover-release/internal/service"
	"discover-release/internal/ui/prompt"
	"discover-release/pkg/formatter"
)

// appContainer holds all the shared dependencies for the application
// This includes configuration, services, formatters, and the logger
type appContainer struct {
	Config          *config.Config
	ProviderFactory *factory.Factory
	ReleaseService  *service.ReleaseService
	ReportFormatter *formatter.ReportFormatter
	Prompter        prompt.Prompter
	Logger          *slog.Logger
}

// Creates and initializes a new application container
func newApp(logger *slog.Logger) (*appContainer, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	serviceLogger := logger.With("service", cfg.ServiceName, "environment", cfg.Environment)

	providerFactory := factory.NewFactory(cfg, serviceLogger)
	releaseService := service.NewReleaseService(providerFactory, cfg, serviceLogger)
	reportFormatter := formatter.NewReportFormatter()
	prompter := prompt.NewStandardPrompter(os.Stdin, os.Stdout)

	return &appContainer{
		Config:          cfg,
		ProviderFactory: providerFactory,
		ReleaseService:  releaseService,
		ReportFormatter: reportFormatter,
		Prompter:        prompter,
		Logger:          serviceLogger,
	}, nil
}
