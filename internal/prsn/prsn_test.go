package prsn

import (
	"io"
	"log/slog"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/climtools/dataprep/internal/nc"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixtureSpec struct {
	varName string
	units   string
	values  [][][]float32
	model   string
}

func writeFixture(t *testing.T, dir string, spec fixtureSpec) string {
	t.Helper()
	if spec.model == "" {
		spec.model = "CanESM2"
	}
	basename := spec.varName + "_day_" + spec.model + "_historical_r1i1p1_19600101-19601231.nc"
	path := filepath.Join(dir, basename)

	timeAttrs := nc.AttrList{}
	timeAttrs.Add("units", "days since 1960-01-01").Add("calendar", "365_day")
	varAttrs := nc.AttrList{}
	varAttrs.Add("units", spec.units).Add("original_name", "RAW_"+spec.varName)

	globals := nc.AttrList{}
	globals.Add("frequency", "day").
		Add("project_id", "CMIP5").
		Add("institute_id", "CCCma").
		Add("model_id", spec.model).
		Add("experiment_id", "historical").
		Add("realization", int32(1)).
		Add("initialization_method", int32(1)).
		Add("physics_version", int32(1))

	err := nc.WriteFile(path, []nc.WriteVar{
		{Name: "time", Values: []float64{0, 1}, Dims: []string{"time"}, Attrs: timeAttrs},
		{Name: "lat", Values: []float64{50}, Dims: []string{"lat"}},
		{Name: "lon", Values: []float64{-120, -119}, Dims: []string{"lon"}},
		{Name: spec.varName, Values: spec.values, Dims: []string{"time", "lat", "lon"}, Attrs: varAttrs},
	}, globals)
	require.NoError(t, err)
	return path
}

func TestGenerate(t *testing.T) {
	dir := t.TempDir()

	// First longitude is below freezing both days; second is not.
	in := Inputs{
		Pr: writeFixture(t, dir, fixtureSpec{
			varName: "pr", units: "kg m-2 s-1",
			values: [][][]float32{{{1, 2}}, {{3, 4}}},
		}),
		Tasmin: writeFixture(t, dir, fixtureSpec{
			varName: "tasmin", units: "K",
			values: [][][]float32{{{260, 270}}, {{250, 272}}},
		}),
		Tasmax: writeFixture(t, dir, fixtureSpec{
			varName: "tasmax", units: "K",
			values: [][][]float32{{{270, 280}}, {{260, 280}}},
		}),
	}

	outDir := filepath.Join(dir, "out")
	outPath, err := Generate(in, outDir, discardLogger())
	require.NoError(t, err)
	assert.Equal(t, "prsn_day_CanESM2_historical_r1i1p1_19600101-19601231.nc",
		filepath.Base(outPath))

	out, err := nc.Open(outPath)
	require.NoError(t, err)
	defer out.Close()

	vg, err := out.Getter("prsn")
	require.NoError(t, err)
	raw, err := vg.Values()
	require.NoError(t, err)
	values := raw.([][][]float32)

	// Means: day 1 = {265, 275}, day 2 = {255, 276}; freezing at 273.15 K.
	assert.Equal(t, float32(1), values[0][0][0])
	assert.True(t, math.IsNaN(float64(values[0][0][1])))
	assert.Equal(t, float32(3), values[1][0][0])
	assert.True(t, math.IsNaN(float64(values[1][0][1])))

	name, _ := out.VarAttr("prsn", "standard_name")
	assert.Equal(t, "snowfall_flux", name)
	long, _ := out.VarAttr("prsn", "long_name")
	assert.Equal(t, "Precipitation as Snow", long)
	assert.False(t, out.VarHasAttr("prsn", "original_name"))

	// Other variables come through unchanged.
	lg, err := out.Getter("lon")
	require.NoError(t, err)
	lraw, err := lg.Values()
	require.NoError(t, err)
	assert.Equal(t, []float64{-120, -119}, lraw)
}

func TestGenerateCelsiusFreezing(t *testing.T) {
	dir := t.TempDir()

	in := Inputs{
		Pr: writeFixture(t, dir, fixtureSpec{
			varName: "pr", units: "mm d-1",
			values: [][][]float32{{{5, 5}}, {{5, 5}}},
		}),
		Tasmin: writeFixture(t, dir, fixtureSpec{
			varName: "tasmin", units: "degC",
			values: [][][]float32{{{-10, 1}}, {{-10, 1}}},
		}),
		Tasmax: writeFixture(t, dir, fixtureSpec{
			varName: "tasmax", units: "degC",
			values: [][][]float32{{{-2, 5}}, {{-2, 5}}},
		}),
	}

	outPath, err := Generate(in, filepath.Join(dir, "out"), discardLogger())
	require.NoError(t, err)

	out, err := nc.Open(outPath)
	require.NoError(t, err)
	defer out.Close()

	vg, err := out.Getter("prsn")
	require.NoError(t, err)
	raw, err := vg.Values()
	require.NoError(t, err)
	values := raw.([][][]float32)

	assert.Equal(t, float32(5), values[0][0][0])
	assert.True(t, math.IsNaN(float64(values[0][0][1])))
}

func TestGenerateMismatchedRuns(t *testing.T) {
	dir := t.TempDir()

	in := Inputs{
		Pr: writeFixture(t, dir, fixtureSpec{
			varName: "pr", units: "kg m-2 s-1",
			values: [][][]float32{{{1, 2}}, {{3, 4}}},
		}),
		Tasmin: writeFixture(t, dir, fixtureSpec{
			varName: "tasmin", units: "K", model: "BNU-ESM",
			values: [][][]float32{{{260, 270}}, {{250, 272}}},
		}),
		Tasmax: writeFixture(t, dir, fixtureSpec{
			varName: "tasmax", units: "K",
			values: [][][]float32{{{270, 280}}, {{260, 280}}},
		}),
	}

	_, err := Generate(in, filepath.Join(dir, "out"), discardLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disagree on model")
}

func TestGenerateUnrecognizedPrUnits(t *testing.T) {
	dir := t.TempDir()

	in := Inputs{
		Pr: writeFixture(t, dir, fixtureSpec{
			varName: "pr", units: "m",
			values: [][][]float32{{{1, 2}}, {{3, 4}}},
		}),
		Tasmin: writeFixture(t, dir, fixtureSpec{
			varName: "tasmin", units: "K",
			values: [][][]float32{{{260, 270}}, {{250, 272}}},
		}),
		Tasmax: writeFixture(t, dir, fixtureSpec{
			varName: "tasmax", units: "K",
			values: [][][]float32{{{270, 280}}, {{260, 280}}},
		}),
	}

	_, err := Generate(in, filepath.Join(dir, "out"), discardLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "precipitation units")
}

func TestGenerateMismatchedTemperatureUnits(t *testing.T) {
	dir := t.TempDir()

	in := Inputs{
		Pr: writeFixture(t, dir, fixtureSpec{
			varName: "pr", units: "kg m-2 s-1",
			values: [][][]float32{{{1, 2}}, {{3, 4}}},
		}),
		Tasmin: writeFixture(t, dir, fixtureSpec{
			varName: "tasmin", units: "degC",
			values: [][][]float32{{{-10, 1}}, {{-10, 1}}},
		}),
		Tasmax: writeFixture(t, dir, fixtureSpec{
			varName: "tasmax", units: "K",
			values: [][][]float32{{{270, 280}}, {{260, 280}}},
		}),
	}

	_, err := Generate(in, filepath.Join(dir, "out"), discardLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "temperature units")
}
