// Package pipeline orchestrates the data-prep tools: the climatology
// generator, the climatology splitter, and the file plumbing they share.
// Each input file is processed in isolation; a failure aborts that file's
// outputs but never the batch.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/climtools/dataprep/internal/cdo"
	"github.com/climtools/dataprep/internal/climo"
	"github.com/climtools/dataprep/internal/meta"
	"github.com/climtools/dataprep/internal/nc"
	"github.com/climtools/dataprep/internal/observability"
)

// StatsTool is the subset of the CDO driver the generator uses.
type StatsTool interface {
	SelectDate(ctx context.Context, in string, start, end time.Time) (string, error)
	SelectVariable(ctx context.Context, in, name string) (string, error)
	Concatenate(ctx context.Context, inputs ...string) (string, error)
	Aggregate(ctx context.Context, in, operator string) (string, error)
}

// Options are the per-run settings of the climatology generator.
type Options struct {
	Statistic   climo.Statistic
	Resolutions []climo.Resolution
	Table       climo.Table

	SplitIntervals    bool
	SplitVars         bool
	ConvertLongitudes bool

	OutDir string

	// Recorded in output history attributes.
	ToolName string
	ToolArgs []string
}

// Generator produces climatological means and standard deviations from
// model output files.
type Generator struct {
	tool    StatsTool
	logger  *slog.Logger
	metrics *observability.Metrics
	ready   atomic.Bool
}

// NewGenerator creates a Generator using the given statistics tool.
func NewGenerator(tool StatsTool, logger *slog.Logger, metrics *observability.Metrics) *Generator {
	return &Generator{tool: tool, logger: logger, metrics: metrics}
}

// CheckReadiness returns nil once at least one file has been processed to
// completion.
func (g *Generator) CheckReadiness(_ context.Context) error {
	if !g.ready.Load() {
		return errors.New("no files processed yet")
	}
	return nil
}

// Run processes each input file in turn. Per-file failures are logged and
// counted; Run returns an error only if every file failed.
func (g *Generator) Run(ctx context.Context, files []string, opts Options) error {
	g.metrics.RunActive.Set(1)
	defer g.metrics.RunActive.Set(0)

	failed := 0
	for _, path := range files {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		outputs, err := g.ProcessFile(ctx, path, opts)
		if err != nil {
			g.logger.Error("file failed", "file", path, "error", err)
			g.metrics.FilesFailed.Inc()
			failed++
			continue
		}
		g.logger.Info("file complete", "file", path, "outputs", len(outputs))
		g.metrics.FilesProcessed.Inc()
		g.ready.Store(true)
	}
	if failed > 0 && failed == len(files) {
		return fmt.Errorf("all %d input files failed", failed)
	}
	return nil
}

// ProcessFile generates climatology outputs for every standard period the
// file covers and returns their paths.
func (g *Generator) ProcessFile(ctx context.Context, path string, opts Options) ([]string, error) {
	startLine := meta.HistoryEntry("start", opts.ToolName, opts.ToolArgs)

	ds, err := nc.Open(path)
	if err != nil {
		return nil, err
	}
	defer ds.Close()

	info, err := ds.Info()
	if err != nil {
		return nil, err
	}
	if info.MultiYearMean {
		return nil, fmt.Errorf("%s is already a multi-year climatology (frequency %q)", path, info.Frequency)
	}

	table := opts.Table
	if table == nil {
		table = climo.DefaultTable()
	}
	category, err := table.ResolveCategory(info.DependentVars)
	if err != nil {
		return nil, err
	}

	plan, err := climo.BuildPlan(category, info.Native, opts.Resolutions, opts.Statistic)
	if err != nil {
		return nil, err
	}
	g.metrics.PlanEntries.Observe(float64(len(plan.Entries)))
	if plan.Empty() {
		g.logger.Warn("none of the selected output resolutions can be generated",
			"file", path,
			"requested", plan.Requested,
			"native", plan.Native,
			"category", plan.Category,
		)
		return nil, nil
	}

	periods := meta.AvailablePeriods(info.Start, info.End)
	if len(periods) == 0 {
		g.logger.Warn("file does not cover any standard climatological period",
			"file", path, "start", info.Start, "end", info.End)
		return nil, nil
	}

	var outputs []string
	for _, period := range periods {
		out, err := g.processPeriod(ctx, path, info, plan, period, opts, startLine)
		if err != nil {
			return nil, fmt.Errorf("period %s: %w", period.Code, err)
		}
		outputs = append(outputs, out...)
	}
	return outputs, nil
}

// intervalGroup is one output file in the making: a raw statistics-tool
// result covering one or more time resolutions.
type intervalGroup struct {
	path        string
	resolutions []climo.Resolution
}

func (g *Generator) processPeriod(ctx context.Context, path string, info nc.FileInfo, plan climo.Plan, period meta.Period, opts Options, startLine string) ([]string, error) {
	g.logger.Info("generating climatology",
		"file", path, "period", period.Code, "frequency", meta.FrequencyCode(plan.Resolutions(), opts.Statistic))

	subset, err := g.tool.SelectDate(ctx, path, period.Start, period.End)
	if err != nil {
		return nil, err
	}

	var intervals []intervalGroup
	for _, entry := range plan.Entries {
		cur := subset
		if op, ok, err := cdo.CombiningOperator(entry); err != nil {
			return nil, err
		} else if ok {
			if cur, err = g.tool.Aggregate(ctx, cur, op); err != nil {
				return nil, err
			}
		}
		climOp, err := cdo.ClimatologicalOperator(entry.Target, entry.Climatological)
		if err != nil {
			return nil, err
		}
		if cur, err = g.tool.Aggregate(ctx, cur, climOp); err != nil {
			return nil, err
		}
		intervals = append(intervals, intervalGroup{path: cur, resolutions: []climo.Resolution{entry.Target}})
	}

	if !opts.SplitIntervals && len(intervals) > 1 {
		paths := make([]string, len(intervals))
		for i, iv := range intervals {
			paths[i] = iv.path
		}
		combined, err := g.tool.Concatenate(ctx, paths...)
		if err != nil {
			return nil, err
		}
		intervals = []intervalGroup{{path: combined, resolutions: plan.Resolutions()}}
	}

	var outputs []string
	for _, iv := range intervals {
		varGroups := [][]string{info.DependentVars}
		if opts.SplitVars && len(info.DependentVars) > 1 {
			varGroups = nil
			for _, v := range info.DependentVars {
				varGroups = append(varGroups, []string{v})
			}
		}
		for _, vars := range varGroups {
			raw := iv.path
			if len(vars) < len(info.DependentVars) {
				if raw, err = g.tool.SelectVariable(ctx, raw, vars[0]); err != nil {
					return nil, err
				}
			}
			out, err := g.finish(raw, vars, iv.resolutions, info, period, opts, startLine)
			if err != nil {
				return nil, err
			}
			outputs = append(outputs, out)
			g.metrics.OutputFiles.WithLabelValues(resolutionLabel(iv.resolutions)).Inc()
		}
	}
	return outputs, nil
}

// finish rewrites a raw statistics-tool output into its final form under
// the output directory.
func (g *Generator) finish(rawPath string, vars []string, resolutions []climo.Resolution, info nc.FileInfo, period meta.Period, opts Options, startLine string) (string, error) {
	raw, err := nc.Open(rawPath)
	if err != nil {
		return "", err
	}
	defer raw.Close()

	frequency := meta.FrequencyCode(resolutions, opts.Statistic)
	name := meta.ClimoFilename(vars, frequency, info.Metadata, period.Start, period.End)
	outPath := filepath.Join(opts.OutDir, name)

	spec := nc.FinishSpec{
		Resolutions:       resolutions,
		Statistic:         opts.Statistic,
		Start:             period.Start,
		End:               period.End,
		ConvertLongitudes: opts.ConvertLongitudes,
		ConvertPrUnits:    true,
		TrackingID:        info.Metadata.TrackingID,
		History: []string{
			startLine,
			meta.HistoryEntry("end", opts.ToolName, opts.ToolArgs),
		},
	}
	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return "", err
	}
	if err := nc.FinishClimo(raw, outPath, spec); err != nil {
		return "", err
	}
	g.logger.Info("wrote climatology", "output", outPath)
	return outPath, nil
}

func resolutionLabel(rs []climo.Resolution) string {
	if len(rs) == 1 {
		return rs[0].String()
	}
	return "mixed"
}
