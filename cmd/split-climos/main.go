// Command split-climos separates concatenated climatology files (such as
// msaClimMean outputs of generate-climos) into one file per averaging
// interval. Files that already contain a single interval are left alone.
//
// Usage:
//
//	split-climos -o /data/climo/split input1.nc [input2.nc ...]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/climtools/dataprep/internal/adapter/http"
	"github.com/climtools/dataprep/internal/cdo"
	"github.com/climtools/dataprep/internal/config"
	"github.com/climtools/dataprep/internal/observability"
	"github.com/climtools/dataprep/internal/pipeline"
)

func main() {
	outDir := flag.String("o", "", "output directory (required)")
	flag.Parse()

	if *outDir == "" || flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: split-climos -o OUTDIR file.nc ...")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	workDir, err := os.MkdirTemp(cfg.WorkDir, "split-climos-")
	if err != nil {
		logger.Error("failed to create work directory", "error", err)
		os.Exit(1)
	}
	defer os.RemoveAll(workDir)

	tool := cdo.New(cfg.CDOBin, workDir, logger, metrics)
	splitter := pipeline.NewSplitter(tool, *outDir, logger, metrics)

	var srv *httpadapter.Server
	if cfg.MetricsAddr != "" {
		srv = httpadapter.NewServer(cfg.MetricsAddr, "split-climos", splitter, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
	}

	runErr := splitter.Run(ctx, flag.Args())

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
	}

	if runErr != nil {
		logger.Error("run failed", "error", runErr)
		os.Exit(1)
	}
}
