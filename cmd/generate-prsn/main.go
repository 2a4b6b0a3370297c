// Command generate-prsn derives a snowfall flux (prsn) file from matching
// precipitation, daily-minimum and daily-maximum temperature files of the
// same model run.
//
// Usage:
//
//	generate-prsn -o /data/derived \
//	  -pr pr_day_CanESM2_historical_r1i1p1_19500101-21001231.nc \
//	  -tasmin tasmin_day_CanESM2_historical_r1i1p1_19500101-21001231.nc \
//	  -tasmax tasmax_day_CanESM2_historical_r1i1p1_19500101-21001231.nc
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/climtools/dataprep/internal/config"
	"github.com/climtools/dataprep/internal/observability"
	"github.com/climtools/dataprep/internal/prsn"
)

func main() {
	prPath := flag.String("pr", "", "precipitation input file (required)")
	tasmin := flag.String("tasmin", "", "daily minimum temperature input file (required)")
	tasmax := flag.String("tasmax", "", "daily maximum temperature input file (required)")
	outDir := flag.String("o", "", "output directory (required)")
	flag.Parse()

	if *prPath == "" || *tasmin == "" || *tasmax == "" || *outDir == "" {
		fmt.Fprintln(os.Stderr, "usage: generate-prsn -o OUTDIR -pr FILE -tasmin FILE -tasmax FILE")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := observability.NewLogger(cfg)

	in := prsn.Inputs{Pr: *prPath, Tasmin: *tasmin, Tasmax: *tasmax}
	out, err := prsn.Generate(in, *outDir, logger)
	if err != nil {
		logger.Error("prsn generation failed", "error", err)
		os.Exit(1)
	}
	logger.Info("done", "output", out)
}
