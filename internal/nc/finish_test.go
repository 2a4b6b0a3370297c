package nc

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/climtools/dataprep/internal/climo"
)

// writeRawClimoFixture builds a file shaped like statistics-tool output for
// an annual climatology of pr over 1971-2000: one time step, per-second
// units, longitudes in [0, 360).
func writeRawClimoFixture(t *testing.T, dir string, prAttrs AttrList) string {
	t.Helper()
	path := filepath.Join(dir, "raw_climo.nc")

	timeAttrs := AttrList{}
	timeAttrs.Add("units", "days since 1971-01-01").Add("calendar", "365_day")

	globals := AttrList{}
	globals.Add("frequency", "day").
		Add("model_id", "CanESM2").
		Add("history", "earlier line")

	err := WriteFile(path, []WriteVar{
		{Name: "time", Values: []float64{5400}, Dims: []string{"time"}, Attrs: timeAttrs},
		{Name: "lat", Values: []float64{0, 10}, Dims: []string{"lat"}},
		{Name: "lon", Values: []float64{0, 120, 240}, Dims: []string{"lon"}},
		{
			Name: "pr",
			Values: [][][]float32{
				{{1, 2, 3}, {4, 5, 6}},
			},
			Dims:  []string{"time", "lat", "lon"},
			Attrs: prAttrs,
		},
	}, globals)
	require.NoError(t, err)
	return path
}

func annualFinishSpec() FinishSpec {
	return FinishSpec{
		Resolutions:       []climo.Resolution{climo.Yearly},
		Statistic:         climo.StatMean,
		Start:             date(1971, 1, 1),
		End:               date(2000, 12, 30),
		ConvertLongitudes: true,
		ConvertPrUnits:    true,
		TrackingID:        "deadbeef-0000",
		History:           []string{"new line"},
	}
}

func TestFinishClimo(t *testing.T) {
	dir := t.TempDir()
	prAttrs := AttrList{}
	prAttrs.Add("units", "kg m-2 s-1").Add("cell_methods", "time: mean")
	in, err := Open(writeRawClimoFixture(t, dir, prAttrs))
	require.NoError(t, err)
	defer in.Close()

	outPath := filepath.Join(dir, "finished.nc")
	require.NoError(t, FinishClimo(in, outPath, annualFinishSpec()))

	out, err := Open(outPath)
	require.NoError(t, err)
	defer out.Close()

	t.Run("climatological time and bounds", func(t *testing.T) {
		tg, err := out.Getter("time")
		require.NoError(t, err)
		raw, err := tg.Values()
		require.NoError(t, err)
		// July 2 of the middle year, 1986, in a 365_day calendar:
		// 15*365 + 181 + 1 = 5657 days after 1971-01-01.
		assert.Equal(t, []float64{5657}, raw)

		v, ok := out.VarAttr("time", "climatology")
		assert.True(t, ok)
		assert.Equal(t, "climatology_bnds", v)

		bg, err := out.Getter("climatology_bnds")
		require.NoError(t, err)
		braw, err := bg.Values()
		require.NoError(t, err)
		// 1971-01-01 through 2001-01-01 is 30 years of 365 days.
		assert.Equal(t, [][]float64{{0, 10950}}, braw)
	})

	t.Run("longitudes shifted and data rotated", func(t *testing.T) {
		lg, err := out.Getter("lon")
		require.NoError(t, err)
		raw, err := lg.Values()
		require.NoError(t, err)
		assert.Equal(t, []float64{-120, 0, 120}, raw)

		pg, err := out.Getter("pr")
		require.NoError(t, err)
		praw, err := pg.Values()
		require.NoError(t, err)
		// Values scaled to per-day, then rotated with the longitude axis.
		expected := [][][]float32{
			{{3 * 86400, 1 * 86400, 2 * 86400}, {6 * 86400, 4 * 86400, 5 * 86400}},
		}
		assert.Equal(t, expected, praw)
	})

	t.Run("pr attributes", func(t *testing.T) {
		v, ok := out.VarAttr("pr", "units")
		assert.True(t, ok)
		assert.Equal(t, "kg m-2 d-1", v)

		v, ok = out.VarAttr("pr", "cell_methods")
		assert.True(t, ok)
		assert.Equal(t, "time: mean time: mean over days", v)
	})

	t.Run("global attributes", func(t *testing.T) {
		v, _ := out.Attr("frequency")
		assert.Equal(t, "aClimMean", v)
		v, _ = out.Attr("climo_start_time")
		assert.Equal(t, "1971-01-01T00:00:00Z", v)
		v, _ = out.Attr("climo_end_time")
		assert.Equal(t, "2000-12-30T00:00:00Z", v)
		v, _ = out.Attr("climo_tracking_id")
		assert.Equal(t, "deadbeef-0000", v)
		v, _ = out.Attr("history")
		assert.Equal(t, "new line\nearlier line", v)
	})
}

func TestFinishClimoPackedPr(t *testing.T) {
	dir := t.TempDir()
	prAttrs := AttrList{}
	prAttrs.Add("units", "kg m-2 s-1").
		Add("cell_methods", "time: mean").
		Add("scale_factor", float64(0.5)).
		Add("add_offset", float64(2))
	in, err := Open(writeRawClimoFixture(t, dir, prAttrs))
	require.NoError(t, err)
	defer in.Close()

	outPath := filepath.Join(dir, "finished_packed.nc")
	require.NoError(t, FinishClimo(in, outPath, annualFinishSpec()))

	out, err := Open(outPath)
	require.NoError(t, err)
	defer out.Close()

	pg, err := out.Getter("pr")
	require.NoError(t, err)

	scale, ok := attrFloat(pg.Attributes(), "scale_factor")
	require.True(t, ok)
	assert.Equal(t, 0.5*86400, scale)
	offset, ok := attrFloat(pg.Attributes(), "add_offset")
	require.True(t, ok)
	assert.Equal(t, 2.0*86400, offset)

	// Packed values stay as stored; only the packing parameters change.
	praw, err := pg.Values()
	require.NoError(t, err)
	expected := [][][]float32{
		{{3, 1, 2}, {6, 4, 5}},
	}
	assert.Equal(t, expected, praw)
}

func TestFinishClimoStepCountMismatch(t *testing.T) {
	dir := t.TempDir()
	prAttrs := AttrList{}
	prAttrs.Add("units", "kg m-2 s-1")
	in, err := Open(writeRawClimoFixture(t, dir, prAttrs))
	require.NoError(t, err)
	defer in.Close()

	spec := annualFinishSpec()
	spec.Resolutions = []climo.Resolution{climo.Monthly}

	err = FinishClimo(in, filepath.Join(dir, "bad.nc"), spec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 12 time steps")
}
