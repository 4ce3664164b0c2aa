package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joseph-ayodele/papertrans/internal/app"
	"github.com/joseph-ayodele/papertrans/internal/common"
	"github.com/joseph-ayodele/papertrans/internal/export"
	"github.com/joseph-ayodele/papertrans/internal/ingest"
	"github.com/joseph-ayodele/papertrans/internal/pipeline"
	"github.com/joseph-ayodele/papertrans/internal/server"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	// Parse CLI flags
	var (
		manifest   = flag.String("manifest", "", "paper list JSON (required)")
		pdfDir     = flag.String("pdf-dir", "", "directory holding downloaded PDFs (defaults to <manifest dir>/pdfs)")
		outDir     = flag.String("out", "", "output directory (overrides config)")
		configPath = flag.String("config", "", "optional YAML config file")
		report     = flag.String("report", "", "XLSX run report path (defaults to <out>/report.xlsx)")
		healthAddr = flag.String("health-addr", "", "serve gRPC health on this address, e.g. :8081")
		html       = flag.Bool("html", false, "also write an HTML page per document")
		debug      = flag.Bool("debug", false, "debug logging")
	)
	flag.Parse()

	if *manifest == "" {
		printError("Error: --manifest is required\n")
		os.Exit(2)
	}
	if *pdfDir == "" {
		*pdfDir = filepath.Join(filepath.Dir(*manifest), "pdfs")
	}

	// Setup logger
	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := common.LoadConfig(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *outDir != "" {
		cfg.Output.Dir = *outDir
	}
	if *html {
		cfg.Output.HTML = true
	}
	if *report != "" {
		cfg.Output.Report = *report
	}
	if cfg.Output.Report == "" {
		cfg.Output.Report = filepath.Join(cfg.Output.Dir, "report.xlsx")
	}
	if *healthAddr != "" {
		cfg.Server.HealthAddr = *healthAddr
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Context with signal
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if cfg.Concurrency.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Concurrency.RunTimeout)
		defer cancel()
	}

	var health *server.HealthServer
	var popts []pipeline.Option
	if cfg.Server.HealthAddr != "" {
		lis, err := net.Listen("tcp", cfg.Server.HealthAddr)
		if err != nil {
			logger.Error("listen", "addr", cfg.Server.HealthAddr, "error", err)
			os.Exit(1)
		}
		health = server.NewHealthServer(logger)
		go func() {
			if err := health.Serve(lis); err != nil {
				logger.Error("grpc serve", "error", err)
			}
		}()
		defer health.Stop()
		popts = append(popts, pipeline.WithProgress(health.Progress))
	}

	a, err := app.New(ctx, cfg, logger, app.WithPipelineOptions(popts...))
	if err != nil {
		logger.Error("failed to initialize pipeline", "error", err)
		os.Exit(1)
	}
	defer a.Close()
	if health != nil {
		go health.WatchCache(ctx, a.Cache, 30*time.Second)
	}

	docs, results, err := ingest.NewFSIngestor(*pdfDir, logger).Ingest(ctx, *manifest)
	if err != nil {
		logger.Error("ingest failed", "manifest", *manifest, "error", err)
		os.Exit(1)
	}
	for _, r := range results {
		if r.Err != "" {
			logger.Warn("paper skipped", "id", r.ID, "reason", r.Err)
		}
	}

	if health != nil {
		health.RunStarted()
	}
	res, runErr := a.Orchestrator.Run(ctx, docs)
	if health != nil {
		health.RunFinished(res, runErr)
	}

	// Outputs are written even for an interrupted run; reassembled documents stay published.
	svc := export.NewService(cfg.Output.Dir, cfg.Output.HTML, logger)
	if err := svc.WriteOutputs(context.Background(), res); err != nil {
		logger.Error("write outputs", "error", err)
		os.Exit(1)
	}
	if err := svc.WriteReport(cfg.Output.Report, res); err != nil {
		logger.Error("write report", "path", cfg.Output.Report, "error", err)
		os.Exit(1)
	}

	ok, degraded, failed, skipped := res.Counts()
	logger.Info("run complete",
		"run_id", res.RunID,
		"reassembled", ok,
		"degraded", degraded,
		"failed", failed,
		"skipped", skipped,
		"report", cfg.Output.Report,
	)

	switch {
	case runErr == nil:
	case errors.Is(runErr, common.ErrFatalConfiguration):
		logger.Error("run aborted", "error", runErr)
		os.Exit(1)
	default:
		logger.Warn("run interrupted", "error", runErr)
		os.Exit(3)
	}
}
