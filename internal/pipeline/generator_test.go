package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/climtools/dataprep/internal/climo"
	"github.com/climtools/dataprep/internal/nc"
	"github.com/climtools/dataprep/internal/observability"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// makeInput builds a small input file with one dependent variable covering
// 1961-01-01 through 1990-12-30 in a 365_day calendar.
func makeInput(t *testing.T, dir, varName, frequency string) string {
	t.Helper()
	path := filepath.Join(dir, varName+"_"+frequency+"_in.nc")

	timeAttrs := nc.AttrList{}
	timeAttrs.Add("units", "days since 1961-01-01").Add("calendar", "365_day")

	varAttrs := nc.AttrList{}
	varAttrs.Add("units", "K").Add("cell_methods", "time: mean")

	globals := nc.AttrList{}
	globals.Add("frequency", frequency).
		Add("model_id", "CanESM2").
		Add("experiment_id", "historical").
		Add("tracking_id", "feed-1234").
		Add("realization", int32(1)).
		Add("initialization_method", int32(1)).
		Add("physics_version", int32(1))

	// 1990-12-30 is 10948 days after 1961-01-01 in a 365_day calendar.
	err := nc.WriteFile(path, []nc.WriteVar{
		{Name: "time", Values: []float64{0, 10948}, Dims: []string{"time"}, Attrs: timeAttrs},
		{Name: "lat", Values: []float64{50}, Dims: []string{"lat"}},
		{Name: "lon", Values: []float64{120}, Dims: []string{"lon"}},
		{
			Name:   varName,
			Values: [][][]float32{{{1}}, {{2}}},
			Dims:   []string{"time", "lat", "lon"},
			Attrs:  varAttrs,
		},
	}, globals)
	require.NoError(t, err)
	return path
}

// makeRawClimo builds a file shaped like statistics-tool output with the
// given number of time steps.
func makeRawClimo(t *testing.T, dir string, varName string, steps int) string {
	t.Helper()
	path := filepath.Join(dir, fmt.Sprintf("raw_%s_%d.nc", varName, steps))

	timeVals := make([]float64, steps)
	values := make([][][]float32, steps)
	for i := range timeVals {
		timeVals[i] = float64(i)
		values[i] = [][]float32{{float32(i)}}
	}

	timeAttrs := nc.AttrList{}
	timeAttrs.Add("units", "days since 1961-01-01").Add("calendar", "365_day")
	varAttrs := nc.AttrList{}
	varAttrs.Add("units", "K").Add("cell_methods", "time: mean")
	globals := nc.AttrList{}
	globals.Add("history", "tool output")

	err := nc.WriteFile(path, []nc.WriteVar{
		{Name: "time", Values: timeVals, Dims: []string{"time"}, Attrs: timeAttrs},
		{Name: "lat", Values: []float64{50}, Dims: []string{"lat"}},
		{Name: "lon", Values: []float64{120}, Dims: []string{"lon"}},
		{Name: varName, Values: values, Dims: []string{"time", "lat", "lon"}, Attrs: varAttrs},
	}, globals)
	require.NoError(t, err)
	return path
}

// fakeStatsTool records operator calls and hands back canned files.
type fakeStatsTool struct {
	calls []string

	// aggregateResults maps operator name to the file returned for it.
	aggregateResults map[string]string
	concatResult     string
	selectVarResult  string
}

func (f *fakeStatsTool) SelectDate(_ context.Context, in string, start, end time.Time) (string, error) {
	f.calls = append(f.calls, fmt.Sprintf("seldate,%s,%s", start.Format("2006-01-02"), end.Format("2006-01-02")))
	return in, nil
}

func (f *fakeStatsTool) SelectVariable(_ context.Context, in, name string) (string, error) {
	f.calls = append(f.calls, "select,name="+name)
	if f.selectVarResult != "" {
		return f.selectVarResult, nil
	}
	return in, nil
}

func (f *fakeStatsTool) Concatenate(_ context.Context, inputs ...string) (string, error) {
	if len(inputs) == 1 {
		return inputs[0], nil
	}
	f.calls = append(f.calls, fmt.Sprintf("copy(%d)", len(inputs)))
	return f.concatResult, nil
}

func (f *fakeStatsTool) Aggregate(_ context.Context, in, operator string) (string, error) {
	f.calls = append(f.calls, operator)
	if out, ok := f.aggregateResults[operator]; ok {
		return out, nil
	}
	return in, nil
}

func newTestGenerator(fake *fakeStatsTool) *Generator {
	return NewGenerator(fake, discardLogger(), observability.NewMetricsForTesting())
}

func TestProcessFileAnnualPoint(t *testing.T) {
	dir := t.TempDir()
	input := makeInput(t, dir, "tasmax", "day")
	raw := makeRawClimo(t, dir, "tasmax", 1)

	fake := &fakeStatsTool{aggregateResults: map[string]string{"timmean": raw}}
	gen := newTestGenerator(fake)

	outDir := filepath.Join(dir, "out")
	outputs, err := gen.ProcessFile(context.Background(), input, Options{
		Statistic:   climo.StatMean,
		Resolutions: []climo.Resolution{climo.Yearly},
		OutDir:      outDir,
		ToolName:    "generate-climos",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"seldate,1961-01-01,1990-12-30", "timmean"}, fake.calls)

	require.Len(t, outputs, 1)
	assert.Equal(t, "tasmax_aClimMean_CanESM2_historical_r1i1p1_19610101-19901230.nc",
		filepath.Base(outputs[0]))

	out, err := nc.Open(outputs[0])
	require.NoError(t, err)
	defer out.Close()
	freq, _ := out.Attr("frequency")
	assert.Equal(t, "aClimMean", freq)
	tid, _ := out.Attr("climo_tracking_id")
	assert.Equal(t, "feed-1234", tid)
}

func TestProcessFileCountMaterializesIntermediate(t *testing.T) {
	dir := t.TempDir()
	input := makeInput(t, dir, "fdETCCDI", "day")
	raw := makeRawClimo(t, dir, "fdETCCDI", 1)

	fake := &fakeStatsTool{aggregateResults: map[string]string{"timmean": raw}}
	gen := newTestGenerator(fake)

	_, err := gen.ProcessFile(context.Background(), input, Options{
		Statistic:   climo.StatMean,
		Resolutions: []climo.Resolution{climo.Yearly},
		OutDir:      filepath.Join(dir, "out"),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"seldate,1961-01-01,1990-12-30", "yearsum", "timmean"}, fake.calls)
}

func TestProcessFileConcatenatesIntervals(t *testing.T) {
	dir := t.TempDir()
	input := makeInput(t, dir, "tasmax", "day")
	raw17 := makeRawClimo(t, dir, "tasmax", 17)

	fake := &fakeStatsTool{concatResult: raw17}
	gen := newTestGenerator(fake)

	outputs, err := gen.ProcessFile(context.Background(), input, Options{
		Statistic:   climo.StatMean,
		Resolutions: []climo.Resolution{climo.Monthly, climo.Seasonal, climo.Yearly},
		OutDir:      filepath.Join(dir, "out"),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"seldate,1961-01-01,1990-12-30",
		"ymonmean", "yseasmean", "timmean",
		"copy(3)",
	}, fake.calls)

	require.Len(t, outputs, 1)
	assert.Equal(t, "tasmax_msaClimMean_CanESM2_historical_r1i1p1_19610101-19901230.nc",
		filepath.Base(outputs[0]))
}

func TestProcessFileEmptyPlanWarnsAndSkips(t *testing.T) {
	dir := t.TempDir()
	// Yearly-resolution input cannot produce monthly or seasonal outputs.
	input := makeInput(t, dir, "tasmax", "yr")

	fake := &fakeStatsTool{}
	gen := newTestGenerator(fake)

	outputs, err := gen.ProcessFile(context.Background(), input, Options{
		Statistic:   climo.StatMean,
		Resolutions: []climo.Resolution{climo.Monthly, climo.Seasonal},
		OutDir:      filepath.Join(dir, "out"),
	})
	require.NoError(t, err)
	assert.Empty(t, outputs)
	assert.Empty(t, fake.calls)
}

func TestProcessFileDurationCoarseningFails(t *testing.T) {
	dir := t.TempDir()
	input := makeInput(t, dir, "cddETCCDI", "mon")

	gen := newTestGenerator(&fakeStatsTool{})

	_, err := gen.ProcessFile(context.Background(), input, Options{
		Statistic:   climo.StatMean,
		Resolutions: []climo.Resolution{climo.Yearly},
		OutDir:      filepath.Join(dir, "out"),
	})
	require.Error(t, err)
	var nonAgg climo.NonAggregatableError
	assert.True(t, errors.As(err, &nonAgg))
}

func TestProcessFileRejectsClimatologyInput(t *testing.T) {
	dir := t.TempDir()
	input := makeInput(t, dir, "tasmax", "mClimMean")

	gen := newTestGenerator(&fakeStatsTool{})

	_, err := gen.ProcessFile(context.Background(), input, Options{
		Statistic:   climo.StatMean,
		Resolutions: []climo.Resolution{climo.Yearly},
		OutDir:      filepath.Join(dir, "out"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "multi-year climatology")
}

func TestProcessFileUnknownVariable(t *testing.T) {
	dir := t.TempDir()
	input := makeInput(t, dir, "mystery", "day")

	gen := newTestGenerator(&fakeStatsTool{})

	_, err := gen.ProcessFile(context.Background(), input, Options{
		Statistic:   climo.StatMean,
		Resolutions: []climo.Resolution{climo.Yearly},
		OutDir:      filepath.Join(dir, "out"),
	})
	require.Error(t, err)
	var unsupported climo.UnsupportedVariableError
	require.True(t, errors.As(err, &unsupported))
	assert.Equal(t, "mystery", unsupported.Variable)
}

func TestRunIsolatesFailures(t *testing.T) {
	dir := t.TempDir()
	good := makeInput(t, dir, "tasmax", "day")
	raw := makeRawClimo(t, dir, "tasmax", 1)

	fake := &fakeStatsTool{aggregateResults: map[string]string{"timmean": raw}}
	gen := newTestGenerator(fake)

	opts := Options{
		Statistic:   climo.StatMean,
		Resolutions: []climo.Resolution{climo.Yearly},
		OutDir:      filepath.Join(dir, "out"),
	}

	require.Error(t, gen.CheckReadiness(context.Background()))

	err := gen.Run(context.Background(), []string{filepath.Join(dir, "missing.nc"), good}, opts)
	require.NoError(t, err)
	assert.NoError(t, gen.CheckReadiness(context.Background()))
}

func TestRunAllFilesFailed(t *testing.T) {
	dir := t.TempDir()
	gen := newTestGenerator(&fakeStatsTool{})

	err := gen.Run(context.Background(), []string{filepath.Join(dir, "a.nc"), filepath.Join(dir, "b.nc")}, Options{
		Statistic:   climo.StatMean,
		Resolutions: []climo.Resolution{climo.Yearly},
		OutDir:      dir,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 2 input files failed")
}
