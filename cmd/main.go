// Ollama context filter proxy entrypoint.
//
// Listens on a localhost port, strips bulky system-prompt sections for
// allow-listed small models, and forwards everything to the local Ollama
// server. Point the coding agent at http://localhost:11435/v1 instead of
// http://localhost:11434/v1.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"

	"github.com/ctxfilter/ollama-context-filter/internal/config"
	"github.com/ctxfilter/ollama-context-filter/internal/filter"
	"github.com/ctxfilter/ollama-context-filter/internal/gateway"
	"github.com/ctxfilter/ollama-context-filter/internal/monitoring"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	port := flag.Int("port", 0, "listen port (overrides config)")
	logLevel := flag.String("log-level", "info", "log level (trace, debug, info, warn, error)")
	flag.Parse()

	// .env is optional; ignore absence.
	_ = godotenv.Load()

	setupLogging(*logLevel)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("proxy exited with error")
	}
}

// setupLogging configures zerolog: console writer on a terminal, JSON lines
// otherwise (so piped/supervised output stays machine-readable).
func setupLogging(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if term.IsTerminal(int(os.Stdout.Fd())) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.TimeOnly})
	}
}

func run(cfg *config.Config) error {
	policy := filter.NewPolicy(cfg.Filter.Models)
	engine := filter.NewEngine(policy)
	reporter := monitoring.NewReporter(cfg.Reporter)

	tracker, err := monitoring.NewTracker(cfg.Monitoring.Telemetry)
	if err != nil {
		return fmt.Errorf("failed to init telemetry: %w", err)
	}
	defer func() { _ = tracker.Close() }()

	metrics := monitoring.NewMetricsCollector()

	var history *monitoring.History
	if cfg.Monitoring.HistoryDBPath != "" {
		history, err = monitoring.OpenHistory(cfg.Monitoring.HistoryDBPath)
		if err != nil {
			return fmt.Errorf("failed to open history db: %w", err)
		}
		defer func() { _ = history.Close() }()
	}

	g := gateway.New(cfg, engine, reporter, tracker, metrics, history)

	tracker.RecordInit(&monitoring.InitEvent{
		Timestamp:       time.Now(),
		Event:           "proxy_init",
		ServerPort:      cfg.Server.Port,
		UpstreamURL:     cfg.Upstream.URL(),
		AllowedModels:   policy.Models(),
		DetailedLogging: cfg.Reporter.Detailed,
		ShowFullContent: cfg.Reporter.ShowFullContent,
		MaxPreviewLen:   cfg.Reporter.MaxPreviewLen,
		TelemetryPath:   cfg.Monitoring.Telemetry.LogPath,
		FilterLogPath:   cfg.Monitoring.Telemetry.FilterLogPath,
		HistoryDBPath:   cfg.Monitoring.HistoryDBPath,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf("localhost:%d", cfg.Server.Port),
		Handler:      g.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Int("port", cfg.Server.Port).
			Str("upstream", cfg.Upstream.URL()).
			Strs("models", cfg.Filter.Models).
			Msg("context filter proxy listening")
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutdown failed: %w", err)
		}
	}
	return nil
}
