// Package cdo drives the CDO (Climate Data Operators) binary as a
// subprocess. Every operation reads one or more netCDF files and writes a
// new file into the tool's work directory; inputs are never modified.
package cdo

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/climtools/dataprep/internal/observability"
)

// Commander runs an external command and returns its combined output. The
// real implementation shells out; tests substitute a fake.
type Commander interface {
	Run(ctx context.Context, bin string, args ...string) ([]byte, error)
}

type execCommander struct{}

func (execCommander) Run(ctx context.Context, bin string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, bin, args...).CombinedOutput()
}

// Tool invokes CDO operators, managing intermediate files in a work
// directory.
type Tool struct {
	bin       string
	workDir   string
	commander Commander
	logger    *slog.Logger
	metrics   *observability.Metrics
	seq       atomic.Int64
}

// New creates a Tool that runs the given CDO binary and writes intermediate
// files under workDir.
func New(bin, workDir string, logger *slog.Logger, metrics *observability.Metrics) *Tool {
	return &Tool{
		bin:       bin,
		workDir:   workDir,
		commander: execCommander{},
		logger:    logger,
		metrics:   metrics,
	}
}

// tempPath returns a fresh output path in the work directory. The operator
// name is embedded so leftover intermediates are identifiable.
func (t *Tool) tempPath(operator string) string {
	n := t.seq.Add(1)
	name := strings.NewReplacer(",", "_", "=", "_", "/", "_").Replace(operator)
	return filepath.Join(t.workDir, fmt.Sprintf("%04d_%s.nc", n, name))
}

// run invokes one CDO operator with the given inputs and returns the output
// path.
func (t *Tool) run(ctx context.Context, operator string, inputs ...string) (string, error) {
	output := t.tempPath(operator)
	args := make([]string, 0, len(inputs)+2)
	args = append(args, operator)
	args = append(args, inputs...)
	args = append(args, output)

	opName, _, _ := strings.Cut(operator, ",")
	start := time.Now()
	out, err := t.commander.Run(ctx, t.bin, args...)
	elapsed := time.Since(start)

	t.metrics.CDODuration.WithLabelValues(opName).Observe(elapsed.Seconds())
	if err != nil {
		t.metrics.CDOInvocations.WithLabelValues(opName, "error").Inc()
		t.logger.Error("cdo failed",
			"operator", operator,
			"inputs", inputs,
			"error", err,
			"output", strings.TrimSpace(string(out)),
		)
		return "", fmt.Errorf("cdo %s: %w: %s", operator, err, strings.TrimSpace(string(out)))
	}
	t.metrics.CDOInvocations.WithLabelValues(opName, "success").Inc()
	t.logger.Debug("cdo completed", "operator", operator, "duration", elapsed, "output_file", output)
	return output, nil
}

// SelectDate subsets a file to the date range [start, end].
func (t *Tool) SelectDate(ctx context.Context, in string, start, end time.Time) (string, error) {
	op := fmt.Sprintf("seldate,%s,%s", start.Format("2006-01-02"), end.Format("2006-01-02"))
	return t.run(ctx, op, in)
}

// SelectTimesteps subsets a file to the 1-based time steps [first,
// first+count-1].
func (t *Tool) SelectTimesteps(ctx context.Context, in string, first, count int) (string, error) {
	op := fmt.Sprintf("seltimestep,%d/%d", first, first+count-1)
	return t.run(ctx, op, in)
}

// SelectVariable subsets a file to one named variable.
func (t *Tool) SelectVariable(ctx context.Context, in, name string) (string, error) {
	return t.run(ctx, "select,name="+name, in)
}

// Concatenate joins files along the time axis, in argument order.
func (t *Tool) Concatenate(ctx context.Context, inputs ...string) (string, error) {
	if len(inputs) == 1 {
		return inputs[0], nil
	}
	return t.run(ctx, "copy", inputs...)
}

// Aggregate applies a statistical operator such as ymonmean or yearsum.
func (t *Tool) Aggregate(ctx context.Context, in, operator string) (string, error) {
	return t.run(ctx, operator, in)
}

// SetAttribute sets a global attribute on a copy of the file.
func (t *Tool) SetAttribute(ctx context.Context, in, name, value string) (string, error) {
	return t.run(ctx, fmt.Sprintf("setattribute,%s=%s", name, value), in)
}
