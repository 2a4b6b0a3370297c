package nc

import (
	"fmt"
	"time"

	"github.com/climtools/dataprep/internal/climo"
	"github.com/climtools/dataprep/internal/meta"
)

// FileInfo summarizes the facts about an input file that drive processing
// decisions.
type FileInfo struct {
	Path          string
	DependentVars []string
	Native        climo.Resolution
	Frequency     string
	MultiYearMean bool
	Start         time.Time
	End           time.Time
	Time          meta.TimeEncoding
	Metadata      meta.FileMetadata
}

// Info inspects an open dataset and summarizes it.
func (d *Dataset) Info() (FileInfo, error) {
	info := FileInfo{Path: d.path}

	var err error
	info.DependentVars, err = d.DependentVariables()
	if err != nil {
		return info, err
	}

	tg, err := d.Getter("time")
	if err != nil {
		return info, fmt.Errorf("%s: no time variable: %w", d.path, err)
	}
	units, _ := attrString(tg.Attributes(), "units")
	calendar, _ := attrString(tg.Attributes(), "calendar")
	info.Time, err = meta.ParseTimeEncoding(units, calendar)
	if err != nil {
		return info, fmt.Errorf("%s: %w", d.path, err)
	}

	raw, err := tg.Values()
	if err != nil {
		return info, fmt.Errorf("%s: read time values: %w", d.path, err)
	}
	steps, err := Float64s(raw)
	if err != nil {
		return info, fmt.Errorf("%s: time values: %w", d.path, err)
	}
	if len(steps) == 0 {
		return info, fmt.Errorf("%s: time variable is empty", d.path)
	}
	info.Start = info.Time.Decode(steps[0])
	info.End = info.Time.Decode(steps[len(steps)-1])

	info.Frequency, _ = d.Attr("frequency")
	info.MultiYearMean = meta.IsClimatology(info.Frequency) || d.VarHasAttr("time", "climatology")
	info.Native = nativeResolution(info.Frequency, info.Time, steps)

	info.Metadata = d.fileMetadata()
	return info, nil
}

func (d *Dataset) fileMetadata() meta.FileMetadata {
	md := meta.FileMetadata{}
	md.Project, _ = d.Attr("project_id")
	md.Institution, _ = d.Attr("institute_id")
	md.Model, _ = d.Attr("model_id")
	md.Experiment, _ = d.Attr("experiment_id")
	md.TrackingID, _ = d.Attr("tracking_id")
	md.Frequency, _ = d.Attr("frequency")
	md.History, _ = d.Attr("history")

	if em, ok := d.Attr("ensemble_member"); ok {
		md.EnsembleMember = em
	} else {
		r, rok := attrFloat(d.group.Attributes(), "realization")
		i, iok := attrFloat(d.group.Attributes(), "initialization_method")
		p, pok := attrFloat(d.group.Attributes(), "physics_version")
		if rok && iok && pok {
			md.EnsembleMember = fmt.Sprintf("r%di%dp%d", int(r), int(i), int(p))
		}
	}
	return md
}

// nativeResolution determines the time resolution of a file, preferring the
// frequency attribute and falling back to the spacing of time steps.
func nativeResolution(frequency string, enc meta.TimeEncoding, steps []float64) climo.Resolution {
	switch frequency {
	case "day", "daily", "1day":
		return climo.Daily
	case "mon", "monthly", "monClim", "mClim":
		return climo.Monthly
	case "sem", "seasonal", "semClim", "sClim":
		return climo.Seasonal
	case "yr", "year", "annual", "aClim":
		return climo.Yearly
	}

	if len(steps) < 2 {
		return climo.ResolutionUnknown
	}
	delta := enc.Days(steps[1] - steps[0])
	switch {
	case delta <= 1.5:
		return climo.Daily
	case delta >= 28 && delta <= 31:
		return climo.Monthly
	case delta >= 88 && delta <= 93:
		return climo.Seasonal
	case delta >= 359 && delta <= 367:
		return climo.Yearly
	default:
		return climo.ResolutionUnknown
	}
}
