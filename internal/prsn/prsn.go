// Package prsn derives snowfall flux (prsn) from precipitation and daily
// temperature extremes: wherever the mean of tasmin and tasmax is below
// freezing, precipitation is taken to have fallen as snow; elsewhere the
// output is missing.
package prsn

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/batchatco/go-native-netcdf/netcdf/cdf"

	"github.com/climtools/dataprep/internal/meta"
	"github.com/climtools/dataprep/internal/nc"
	"github.com/climtools/dataprep/internal/units"
)

// chunkSize is the number of time steps read per iteration; full fields at
// daily resolution over 150 years do not fit in memory.
const chunkSize = 100

const kelvinFreezing = 273.15

// validPrUnits are the precipitation units we know how to interpret.
var validPrUnits = []units.Unit{
	units.MustParse("kg m-2 s-1"),
	units.MustParse("mm s-1"),
	units.MustParse("kg m-2 d-1"),
	units.MustParse("mm d-1"),
}

// Inputs are the three source files for a prsn derivation.
type Inputs struct {
	Pr     string
	Tasmin string
	Tasmax string
}

// Generate derives a prsn file from the inputs and writes it to outDir
// under the pr file's name with the variable component replaced. Returns
// the output path.
func Generate(in Inputs, outDir string, logger *slog.Logger) (string, error) {
	prDS, err := nc.Open(in.Pr)
	if err != nil {
		return "", err
	}
	defer prDS.Close()
	tnDS, err := nc.Open(in.Tasmin)
	if err != nil {
		return "", err
	}
	defer tnDS.Close()
	txDS, err := nc.Open(in.Tasmax)
	if err != nil {
		return "", err
	}
	defer txDS.Close()

	pr, tn, tx, err := checkInputs(prDS, tnDS, txDS, logger)
	if err != nil {
		return "", err
	}

	tnUnits, _ := tnDS.VarAttr("tasmin", "units")
	freezing := freezingPoint(tnUnits)

	values, err := derive(pr, tn, tx, freezing)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", err
	}
	outPath := filepath.Join(outDir, meta.ReplaceVariable(filepath.Base(in.Pr), "prsn"))
	if err := writeOutput(prDS, outPath, values); err != nil {
		return "", err
	}
	logger.Info("wrote snowfall file", "output", outPath)
	return outPath, nil
}

// checkInputs runs the pre-processing checks: the three datasets must
// describe the same model run, carry their expected variables, agree on
// temperature units, use recognized precipitation units, and have the same
// time length.
func checkInputs(prDS, tnDS, txDS *nc.Dataset, logger *slog.Logger) (pr, tn, tx api.VarGetter, err error) {
	prInfo, err := prDS.Info()
	if err != nil {
		return nil, nil, nil, err
	}
	tnInfo, err := tnDS.Info()
	if err != nil {
		return nil, nil, nil, err
	}
	txInfo, err := txDS.Info()
	if err != nil {
		return nil, nil, nil, err
	}

	type field struct {
		name   string
		values [3]string
	}
	fields := []field{
		{"project", [3]string{prInfo.Metadata.Project, tnInfo.Metadata.Project, txInfo.Metadata.Project}},
		{"model", [3]string{prInfo.Metadata.Model, tnInfo.Metadata.Model, txInfo.Metadata.Model}},
		{"institute", [3]string{prInfo.Metadata.Institution, tnInfo.Metadata.Institution, txInfo.Metadata.Institution}},
		{"experiment", [3]string{prInfo.Metadata.Experiment, tnInfo.Metadata.Experiment, txInfo.Metadata.Experiment}},
		{"ensemble member", [3]string{prInfo.Metadata.EnsembleMember, tnInfo.Metadata.EnsembleMember, txInfo.Metadata.EnsembleMember}},
	}
	for _, f := range fields {
		if f.values[0] != f.values[1] || f.values[1] != f.values[2] {
			return nil, nil, nil, fmt.Errorf("input files disagree on %s: %q, %q, %q",
				f.name, f.values[0], f.values[1], f.values[2])
		}
	}

	if pr, err = prDS.Getter("pr"); err != nil {
		return nil, nil, nil, err
	}
	if tn, err = tnDS.Getter("tasmin"); err != nil {
		return nil, nil, nil, err
	}
	if tx, err = txDS.Getter("tasmax"); err != nil {
		return nil, nil, nil, err
	}

	tnUnits, _ := tnDS.VarAttr("tasmin", "units")
	txUnits, _ := txDS.VarAttr("tasmax", "units")
	if tnUnits != txUnits {
		return nil, nil, nil, fmt.Errorf("temperature units do not match: tasmin %q, tasmax %q", tnUnits, txUnits)
	}

	prUnitsStr, _ := prDS.VarAttr("pr", "units")
	parsed, err := units.Parse(prUnitsStr)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("pr units %q: %w", prUnitsStr, err)
	}
	recognized := false
	for _, u := range validPrUnits {
		if parsed.Equal(u) {
			recognized = true
			break
		}
	}
	if !recognized {
		return nil, nil, nil, fmt.Errorf("unexpected precipitation units %q", prUnitsStr)
	}

	if pr.Len() != tn.Len() || tn.Len() != tx.Len() {
		return nil, nil, nil, fmt.Errorf("time lengths do not match: pr %d, tasmin %d, tasmax %d",
			pr.Len(), tn.Len(), tx.Len())
	}

	logger.Debug("pre-processing checks passed", "steps", pr.Len(), "freezing_units", tnUnits)
	return pr, tn, tx, nil
}

// freezingPoint returns the freezing temperature in the given units.
// Kelvin data freezes at 273.15; anything else is taken as Celsius.
func freezingPoint(unit string) float64 {
	if unit == "K" || unit == "k" {
		return kelvinFreezing
	}
	return 0
}

// derive computes the full prsn field chunk by chunk along the time axis.
func derive(pr, tn, tx api.VarGetter, freezing float64) ([][][]float32, error) {
	total := pr.Len()
	out := make([][][]float32, 0, total)

	for start := int64(0); start < total; start += chunkSize {
		end := start + chunkSize
		if end > total {
			end = total
		}
		prChunk, err := floatChunk(pr, start, end)
		if err != nil {
			return nil, fmt.Errorf("read pr: %w", err)
		}
		tnChunk, err := floatChunk(tn, start, end)
		if err != nil {
			return nil, fmt.Errorf("read tasmin: %w", err)
		}
		txChunk, err := floatChunk(tx, start, end)
		if err != nil {
			return nil, fmt.Errorf("read tasmax: %w", err)
		}

		masked, err := maskChunk(prChunk, tnChunk, txChunk, freezing)
		if err != nil {
			return nil, err
		}
		out = append(out, masked...)
	}
	return out, nil
}

func floatChunk(vg api.VarGetter, start, end int64) ([][][]float32, error) {
	raw, err := vg.GetSlice(start, end)
	if err != nil {
		return nil, err
	}
	chunk, ok := raw.([][][]float32)
	if !ok {
		return nil, fmt.Errorf("values are %T, expected float32 fields over time, lat, lon", raw)
	}
	return chunk, nil
}

// maskChunk keeps precipitation where the daily mean temperature is below
// freezing and writes NaN elsewhere.
func maskChunk(pr, tn, tx [][][]float32, freezing float64) ([][][]float32, error) {
	nan := float32(math.NaN())
	out := make([][][]float32, len(pr))
	for i := range pr {
		if i >= len(tn) || i >= len(tx) {
			return nil, fmt.Errorf("input fields are not the same shape")
		}
		out[i] = make([][]float32, len(pr[i]))
		for j := range pr[i] {
			if len(pr[i][j]) != len(tn[i][j]) || len(pr[i][j]) != len(tx[i][j]) {
				return nil, fmt.Errorf("input fields are not the same shape")
			}
			row := make([]float32, len(pr[i][j]))
			for k := range pr[i][j] {
				mean := (float64(tn[i][j][k]) + float64(tx[i][j][k])) / 2
				if mean < freezing {
					row[k] = pr[i][j][k]
				} else {
					row[k] = nan
				}
			}
			out[i][j] = row
		}
	}
	return out, nil
}

// writeOutput clones the pr file with the pr variable renamed to prsn and
// its data replaced by the derived field.
func writeOutput(prDS *nc.Dataset, outPath string, values [][][]float32) error {
	cw, err := cdf.OpenWriter(outPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", outPath, err)
	}

	for _, name := range prDS.Variables() {
		vg, err := prDS.Getter(name)
		if err != nil {
			return err
		}

		if name == "pr" {
			attrs, err := nc.BuildAttrs(vg.Attributes(), map[string]any{
				"standard_name": "snowfall_flux",
				"long_name":     "Precipitation as Snow",
			}, "original_name", "comment")
			if err != nil {
				return err
			}
			err = cw.AddVar("prsn", api.Variable{
				Values:     values,
				Dimensions: vg.Dimensions(),
				Attributes: attrs,
			})
			if err != nil {
				return fmt.Errorf("write %s: prsn: %w", outPath, err)
			}
			continue
		}

		raw, err := vg.Values()
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		attrs, err := nc.BuildAttrs(vg.Attributes(), nil)
		if err != nil {
			return err
		}
		err = cw.AddVar(name, api.Variable{
			Values:     raw,
			Dimensions: vg.Dimensions(),
			Attributes: attrs,
		})
		if err != nil {
			return fmt.Errorf("write %s: variable %s: %w", outPath, name, err)
		}
	}

	globals, err := nc.BuildAttrs(prDS.Attributes(), nil)
	if err != nil {
		return err
	}
	if err := cw.AddAttributes(globals); err != nil {
		return fmt.Errorf("write %s: global attributes: %w", outPath, err)
	}
	if err := cw.Close(); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}
	return nil
}
