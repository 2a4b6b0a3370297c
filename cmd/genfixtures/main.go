// Command genfixtures writes small synthetic netCDF files for exercising the
// data-prep tools without real model output: a 30-year daily temperature
// file, a yearly Climdex count file, and a short pr/tasmin/tasmax trio for
// generate-prsn. Values are deterministic so runs are reproducible.
//
// Usage:
//
//	go run ./cmd/genfixtures -o data/fixtures
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"

	"github.com/climtools/dataprep/internal/nc"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	outDir := flag.String("o", "", "output directory for fixture files")
	flag.Parse()

	if *outDir == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -o")
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return err
	}

	fixtures := []struct {
		name  string
		write func(path string) error
	}{
		{"tasmax_day_CanESM2_historical_r1i1p1_19610101-19901231.nc", writeDailyTasmax},
		{"fdETCCDI_yr_CanESM2_historical_r1i1p1_1961-1990.nc", writeYearlyFrostDays},
		{"pr_day_CanESM2_historical_r1i1p1_19710101-19710110.nc", prsnInput("pr", "kg m-2 s-1", 2e-5)},
		{"tasmin_day_CanESM2_historical_r1i1p1_19710101-19710110.nc", prsnInput("tasmin", "K", 265)},
		{"tasmax_day_CanESM2_historical_r1i1p1_19710101-19710110.nc", prsnInput("tasmax", "K", 275)},
	}

	for _, f := range fixtures {
		path := filepath.Join(*outDir, f.name)
		if err := f.write(path); err != nil {
			return fmt.Errorf("writing %s: %w", f.name, err)
		}
		log.Printf("wrote %s", path)
	}
	return nil
}

var (
	lats = []float64{45, 50}
	lons = []float64{235, 240, 245}
)

func globalAttrs(frequency string) nc.AttrList {
	g := nc.AttrList{}
	g.Add("project_id", "CMIP5").
		Add("institute_id", "CCCma").
		Add("model_id", "CanESM2").
		Add("experiment_id", "historical").
		Add("frequency", frequency).
		Add("realization", int32(1)).
		Add("initialization_method", int32(1)).
		Add("physics_version", int32(1)).
		Add("tracking_id", "fixture-0000")
	return g
}

func timeAttrs() nc.AttrList {
	a := nc.AttrList{}
	a.Add("units", "days since 1961-01-01").
		Add("calendar", "365_day").
		Add("standard_name", "time")
	return a
}

func coordVars(times []float64) []nc.WriteVar {
	latAttrs := nc.AttrList{}
	latAttrs.Add("units", "degrees_north").Add("standard_name", "latitude")
	lonAttrs := nc.AttrList{}
	lonAttrs.Add("units", "degrees_east").Add("standard_name", "longitude")

	return []nc.WriteVar{
		{Name: "time", Values: times, Dims: []string{"time"}, Attrs: timeAttrs()},
		{Name: "lat", Values: lats, Dims: []string{"lat"}, Attrs: latAttrs},
		{Name: "lon", Values: lons, Dims: []string{"lon"}, Attrs: lonAttrs},
	}
}

// field builds a time-lat-lon grid from a per-step scalar function, with a
// small spatial gradient so neighbouring cells differ.
func field(steps int, at func(step int) float64) [][][]float32 {
	out := make([][][]float32, steps)
	for t := range out {
		base := at(t)
		out[t] = make([][]float32, len(lats))
		for j := range lats {
			row := make([]float32, len(lons))
			for k := range lons {
				row[k] = float32(base + float64(j) - float64(k)/2)
			}
			out[t][j] = row
		}
	}
	return out
}

func writeDailyTasmax(path string) error {
	const steps = 30 * 365
	times := make([]float64, steps)
	for i := range times {
		times[i] = float64(i)
	}

	// Seasonal cycle around 285 K.
	values := field(steps, func(t int) float64 {
		return 285 + 12*math.Sin(2*math.Pi*float64(t%365)/365)
	})

	attrs := nc.AttrList{}
	attrs.Add("units", "K").
		Add("standard_name", "air_temperature").
		Add("cell_methods", "time: maximum")

	vars := append(coordVars(times), nc.WriteVar{
		Name: "tasmax", Values: values, Dims: []string{"time", "lat", "lon"}, Attrs: attrs,
	})
	return nc.WriteFile(path, vars, globalAttrs("day"))
}

func writeYearlyFrostDays(path string) error {
	const steps = 30
	times := make([]float64, steps)
	for i := range times {
		times[i] = float64(i*365 + 182)
	}

	values := field(steps, func(t int) float64 {
		return 120 - float64(t)
	})

	attrs := nc.AttrList{}
	attrs.Add("units", "days").
		Add("long_name", "Number of Frost Days")

	vars := append(coordVars(times), nc.WriteVar{
		Name: "fdETCCDI", Values: values, Dims: []string{"time", "lat", "lon"}, Attrs: attrs,
	})
	return nc.WriteFile(path, vars, globalAttrs("yr"))
}

// prsnInput returns a writer for one of the three generate-prsn input files,
// ten daily steps starting 1971-01-01.
func prsnInput(varName, units string, base float64) func(path string) error {
	return func(path string) error {
		const steps = 10
		times := make([]float64, steps)
		for i := range times {
			times[i] = float64(10*365 + i)
		}

		values := field(steps, func(t int) float64 {
			return base + float64(t)/10
		})

		attrs := nc.AttrList{}
		attrs.Add("units", units)

		vars := append(coordVars(times), nc.WriteVar{
			Name: varName, Values: values, Dims: []string{"time", "lat", "lon"}, Attrs: attrs,
		})
		return nc.WriteFile(path, vars, globalAttrs("day"))
	}
}
