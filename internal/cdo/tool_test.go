package cdo

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/climtools/dataprep/internal/observability"
)

type fakeCommander struct {
	calls  [][]string
	output []byte
	err    error
}

func (f *fakeCommander) Run(_ context.Context, bin string, args ...string) ([]byte, error) {
	call := append([]string{bin}, args...)
	f.calls = append(f.calls, call)
	return f.output, f.err
}

func newTestTool(t *testing.T, fake *fakeCommander) *Tool {
	t.Helper()
	return &Tool{
		bin:       "cdo",
		workDir:   t.TempDir(),
		commander: fake,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics:   observability.NewMetricsForTesting(),
	}
}

func TestSelectDate(t *testing.T) {
	fake := &fakeCommander{}
	tool := newTestTool(t, fake)

	out, err := tool.SelectDate(context.Background(), "in.nc",
		time.Date(1971, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2000, 12, 30, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	require.Len(t, fake.calls, 1)
	call := fake.calls[0]
	assert.Equal(t, "cdo", call[0])
	assert.Equal(t, "seldate,1971-01-01,2000-12-30", call[1])
	assert.Equal(t, "in.nc", call[2])
	assert.Equal(t, out, call[3])
	assert.True(t, strings.HasPrefix(out, tool.workDir), "output %s not under work dir", out)
	assert.Contains(t, out, "seldate")
}

func TestSelectTimesteps(t *testing.T) {
	fake := &fakeCommander{}
	tool := newTestTool(t, fake)

	_, err := tool.SelectTimesteps(context.Background(), "in.nc", 13, 4)
	require.NoError(t, err)
	assert.Equal(t, "seltimestep,13/16", fake.calls[0][1])
}

func TestSelectVariable(t *testing.T) {
	fake := &fakeCommander{}
	tool := newTestTool(t, fake)

	_, err := tool.SelectVariable(context.Background(), "in.nc", "tasmax")
	require.NoError(t, err)
	assert.Equal(t, "select,name=tasmax", fake.calls[0][1])
}

func TestConcatenate(t *testing.T) {
	t.Run("multiple inputs run copy", func(t *testing.T) {
		fake := &fakeCommander{}
		tool := newTestTool(t, fake)

		out, err := tool.Concatenate(context.Background(), "a.nc", "b.nc", "c.nc")
		require.NoError(t, err)
		require.Len(t, fake.calls, 1)
		assert.Equal(t, []string{"cdo", "copy", "a.nc", "b.nc", "c.nc", out}, fake.calls[0])
	})

	t.Run("single input passes through", func(t *testing.T) {
		fake := &fakeCommander{}
		tool := newTestTool(t, fake)

		out, err := tool.Concatenate(context.Background(), "a.nc")
		require.NoError(t, err)
		assert.Equal(t, "a.nc", out)
		assert.Empty(t, fake.calls)
	})
}

func TestAggregate(t *testing.T) {
	fake := &fakeCommander{}
	tool := newTestTool(t, fake)

	_, err := tool.Aggregate(context.Background(), "in.nc", "ymonmean")
	require.NoError(t, err)
	assert.Equal(t, "ymonmean", fake.calls[0][1])
}

func TestSetAttribute(t *testing.T) {
	fake := &fakeCommander{}
	tool := newTestTool(t, fake)

	_, err := tool.SetAttribute(context.Background(), "in.nc", "frequency", "mClimMean")
	require.NoError(t, err)
	assert.Equal(t, "setattribute,frequency=mClimMean", fake.calls[0][1])
}

func TestRunError(t *testing.T) {
	fake := &fakeCommander{
		output: []byte("cdo seldate: Unsupported file structure"),
		err:    errors.New("exit status 1"),
	}
	tool := newTestTool(t, fake)

	_, err := tool.SelectDate(context.Background(), "in.nc",
		time.Date(1961, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(1990, 12, 30, 0, 0, 0, 0, time.UTC))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "seldate")
	assert.Contains(t, err.Error(), "Unsupported file structure")
}

func TestTempPathsAreDistinct(t *testing.T) {
	fake := &fakeCommander{}
	tool := newTestTool(t, fake)

	a, err := tool.Aggregate(context.Background(), "in.nc", "ymonmean")
	require.NoError(t, err)
	b, err := tool.Aggregate(context.Background(), "in.nc", "ymonmean")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
