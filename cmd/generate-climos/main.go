// Command generate-climos produces multi-year climatological means and
// standard deviations from climate model output files.
//
// Usage:
//
//	generate-climos -o /data/climo \
//	  [-operation mean] \
//	  [-resolutions monthly,seasonal,yearly] \
//	  [-table extra_variables.yaml] \
//	  [-split-intervals] [-split-vars] [-convert-longitudes] \
//	  input1.nc [input2.nc ...]
//
// Environment configuration (CDO_BIN, WORK_DIR, LOG_LEVEL, LOG_FORMAT,
// METRICS_ADDR) is documented in internal/config.
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
	"github.com/climtools/dataprep/internal/climo"
	"github.com/climtools/dataprep/internal/config"
	"github.com/climtools/dataprep/internal/observability"
	"github.com/climtools/dataprep/internal/pipeline"
)

func main() {
	opts, files, err := parseArgs()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
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

	// Intermediate CDO outputs live in a per-run directory so an aborted run
	// leaves nothing behind in WORK_DIR itself.
	workDir, err := os.MkdirTemp(cfg.WorkDir, "generate-climos-")
	if err != nil {
		logger.Error("failed to create work directory", "error", err)
		os.Exit(1)
	}
	defer os.RemoveAll(workDir)

	tool := cdo.New(cfg.CDOBin, workDir, logger, metrics)
	gen := pipeline.NewGenerator(tool, logger, metrics)

	var srv *httpadapter.Server
	if cfg.MetricsAddr != "" {
		srv = httpadapter.NewServer(cfg.MetricsAddr, "generate-climos", gen, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
	}

	runErr := gen.Run(ctx, files, opts)

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

func parseArgs() (pipeline.Options, []string, error) {
	outDir := flag.String("o", "", "output directory (required)")
	operation := flag.String("operation", "mean", "climatological statistic: mean or std")
	resolutions := flag.String("resolutions", "monthly,seasonal,yearly", "comma-separated output time resolutions")
	tablePath := flag.String("table", "", "YAML file extending the variable classification table")
	splitIntervals := flag.Bool("split-intervals", false, "write one output file per averaging interval")
	splitVars := flag.Bool("split-vars", false, "write one output file per dependent variable")
	convertLongitudes := flag.Bool("convert-longitudes", false, "shift longitudes from [0, 360) to [-180, 180)")
	flag.Parse()

	var opts pipeline.Options
	if *outDir == "" {
		return opts, nil, errors.New("missing required flag: -o")
	}
	if flag.NArg() == 0 {
		return opts, nil, errors.New("no input files given")
	}

	stat, err := climo.ParseClimatologicalStatistic(*operation)
	if err != nil {
		return opts, nil, err
	}
	res, err := climo.ParseResolutions(*resolutions)
	if err != nil {
		return opts, nil, err
	}

	table := climo.DefaultTable()
	if *tablePath != "" {
		if table, err = climo.LoadTable(*tablePath); err != nil {
			return opts, nil, err
		}
	}

	opts = pipeline.Options{
		Statistic:         stat,
		Resolutions:       res,
		Table:             table,
		SplitIntervals:    *splitIntervals,
		SplitVars:         *splitVars,
		ConvertLongitudes: *convertLongitudes,
		OutDir:            *outDir,
		ToolName:          "generate-climos",
		ToolArgs:          os.Args[1:],
	}
	return opts, flag.Args(), nil
}
