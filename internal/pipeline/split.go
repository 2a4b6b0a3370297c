package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/climtools/dataprep/internal/meta"
	"github.com/climtools/dataprep/internal/nc"
	"github.com/climtools/dataprep/internal/observability"
)

// SplitTool is the subset of the CDO driver the splitter uses.
type SplitTool interface {
	SelectTimesteps(ctx context.Context, in string, first, count int) (string, error)
	SetAttribute(ctx context.Context, in, name, value string) (string, error)
}

// Splitter separates a concatenated climatology file (e.g. msaClimMean)
// into one file per averaging interval.
type Splitter struct {
	tool    SplitTool
	outDir  string
	logger  *slog.Logger
	metrics *observability.Metrics
	ready   atomic.Bool
}

// NewSplitter creates a Splitter writing outputs under outDir.
func NewSplitter(tool SplitTool, outDir string, logger *slog.Logger, metrics *observability.Metrics) *Splitter {
	return &Splitter{tool: tool, outDir: outDir, logger: logger, metrics: metrics}
}

// CheckReadiness returns nil once at least one file has been split.
func (s *Splitter) CheckReadiness(_ context.Context) error {
	if !s.ready.Load() {
		return errors.New("no files processed yet")
	}
	return nil
}

// Run splits each input file in turn. Per-file failures are logged and
// counted; Run returns an error only if every file failed.
func (s *Splitter) Run(ctx context.Context, files []string) error {
	s.metrics.RunActive.Set(1)
	defer s.metrics.RunActive.Set(0)

	failed := 0
	for _, path := range files {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		outputs, err := s.ProcessFile(ctx, path)
		if err != nil {
			s.logger.Error("file failed", "file", path, "error", err)
			s.metrics.FilesFailed.Inc()
			failed++
			continue
		}
		s.logger.Info("file complete", "file", path, "outputs", len(outputs))
		s.metrics.FilesProcessed.Inc()
		s.ready.Store(true)
	}
	if failed > 0 && failed == len(files) {
		return fmt.Errorf("all %d input files failed", failed)
	}
	return nil
}

// ProcessFile splits one concatenated climatology file and returns the
// paths of the per-interval outputs.
func (s *Splitter) ProcessFile(ctx context.Context, path string) ([]string, error) {
	ds, err := nc.Open(path)
	if err != nil {
		return nil, err
	}
	frequency, _ := ds.Attr("frequency")
	ds.Close()

	segments, err := meta.SplitSegments(frequency)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(segments) == 1 {
		s.logger.Info("file contains a single interval, nothing to split",
			"file", path, "frequency", frequency)
		return nil, nil
	}

	if err := os.MkdirAll(s.outDir, 0o755); err != nil {
		return nil, err
	}

	base := filepath.Base(path)
	var outputs []string
	for _, seg := range segments {
		part, err := s.tool.SelectTimesteps(ctx, path, seg.FirstStep, seg.Steps)
		if err != nil {
			return nil, err
		}
		part, err = s.tool.SetAttribute(ctx, part, "frequency", seg.Frequency)
		if err != nil {
			return nil, err
		}

		name := strings.Replace(base, "_"+frequency+"_", "_"+seg.Frequency+"_", 1)
		outPath := filepath.Join(s.outDir, name)
		if err := moveFile(part, outPath); err != nil {
			return nil, err
		}
		s.logger.Info("wrote interval file", "output", outPath, "frequency", seg.Frequency)
		s.metrics.OutputFiles.WithLabelValues(seg.Resolution.String()).Inc()
		outputs = append(outputs, outPath)
	}
	return outputs, nil
}
