package meta

import (
	"sort"
	"strings"
	"time"
)

// FileMetadata holds the global attributes that identify a model-output
// file and feed into output filenames.
type FileMetadata struct {
	Project        string
	Institution    string
	Model          string
	Experiment     string
	EnsembleMember string
	TrackingID     string
	Frequency      string
	History        string
}

// ClimoFilename builds the CMOR-style basename for a climatology output
// file:
//
//	<variables>_<frequency>_<model>_<experiment>_<run>_<start>-<end>.nc
//
// Multiple variables are joined with "+" in sorted order (variable names may
// themselves contain underscores, so readers locate the frequency component
// to split the name). Empty metadata components are omitted.
func ClimoFilename(variables []string, frequency string, md FileMetadata, start, end time.Time) string {
	sorted := make([]string, len(variables))
	copy(sorted, variables)
	sort.Strings(sorted)

	parts := []string{strings.Join(sorted, "+"), frequency}
	for _, p := range []string{md.Model, md.Experiment, md.EnsembleMember} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	parts = append(parts, start.Format("20060102")+"-"+end.Format("20060102"))
	return strings.Join(parts, "_") + ".nc"
}

// ReplaceVariable swaps the leading variable component of a CMOR-style
// basename, preserving the rest. Used when a tool derives a new variable
// from an existing file (pr -> prsn).
func ReplaceVariable(basename, newVar string) string {
	_, rest, ok := strings.Cut(basename, "_")
	if !ok {
		return newVar
	}
	return newVar + "_" + rest
}
