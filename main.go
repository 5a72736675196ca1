package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	appconfig "masterflow/config"
	"masterflow/logger"
	"masterflow/pipeline"
)

func main() {
	log := logger.GetLogger()

	// Load environment variables from .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Error loading .env file")
	}

	configPath := flag.String("config", "config/config.yml", "Path to configuration file")
	credentialsPath := flag.String("credentials", "", "Path to credentials file (overrides config)")
	segment := flag.String("segment", "", "Fetch a single segment (overrides config), e.g. NSECM")
	outputDir := flag.String("output", "", "Output directory (overrides config)")

	flag.Parse()

	cfg, err := appconfig.LoadConfig(*configPath)
	if err != nil {
		log.WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}

	if *credentialsPath != "" {
		cfg.Marketdata.CredentialsFile = *credentialsPath
	}
	if *segment != "" {
		cfg.Marketdata.Segments = []string{*segment}
	}
	if *outputDir != "" {
		cfg.Output.Dir = *outputDir
	}

	// Flag overrides mutate the loaded config, so validation must run again.
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Error("Invalid configuration override")
		os.Exit(1)
	}

	if err := log.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.MaxAge); err != nil {
		log.WithError(err).Error("Failed to configure logger")
		os.Exit(1)
	}

	log.WithFields(logger.Fields{
		"service": cfg.Masterflow.Name,
		"version": cfg.Masterflow.Version,
	}).Info("starting masterflow")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Logging.Metrics {
		logger.InitCloudWatch(cfg.Storage.S3.Region, cfg.Logging.Namespace, cfg.Logging.DashboardName)
	}

	if strings.ToLower(cfg.Logging.Level) == "report" {
		logger.StartReport(ctx, log, 30*time.Second)
	}

	creds, err := appconfig.ResolveCredentials(cfg.Marketdata.CredentialsFile, os.Stdin, os.Stdout)
	if err != nil {
		if errors.Is(err, appconfig.ErrMissingCredentials) {
			log.Error("api credentials required: set XTS_API_KEY and XTS_SECRET_KEY or provide a credentials file")
		} else {
			log.WithError(err).Error("failed to resolve credentials")
		}
		os.Exit(1)
	}

	run, err := pipeline.New(cfg, creds)
	if err != nil {
		log.WithError(err).Error("failed to create pipeline")
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- run.Run(ctx)
	}()

	exitCode := 0
	select {
	case sig := <-sigChan:
		log.WithFields(logger.Fields{"signal": sig.String()}).Warn("interrupted by operator")
		cancel()
		<-errChan
		exitCode = 1
	case err := <-errChan:
		if err != nil {
			log.WithError(err).Error("pipeline failed")
			exitCode = 1
		}
	}

	logger.LogRunReport(context.Background(), log)

	if exitCode == 0 {
		log.Info("masterflow completed successfully")
	}
	os.Exit(exitCode)
}
