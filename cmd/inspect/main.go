// Command inspect reports, without running any statistics, what
// generate-climos would do with each input file: the variables and their
// category, the native time resolution, the aggregation operators per
// requested output resolution, and the standard periods the file covers.
//
// Usage:
//
//	inspect [-operation mean] [-resolutions monthly,seasonal,yearly] \
//	  [-table extra_variables.yaml] input1.nc [input2.nc ...]
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/climtools/dataprep/internal/cdo"
	"github.com/climtools/dataprep/internal/climo"
	"github.com/climtools/dataprep/internal/meta"
	"github.com/climtools/dataprep/internal/nc"
)

func main() {
	operation := flag.String("operation", "mean", "climatological statistic: mean or std")
	resolutions := flag.String("resolutions", "monthly,seasonal,yearly", "comma-separated output time resolutions")
	tablePath := flag.String("table", "", "YAML file extending the variable classification table")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: inspect [flags] file.nc ...")
		os.Exit(2)
	}

	stat, err := climo.ParseClimatologicalStatistic(*operation)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	requested, err := climo.ParseResolutions(*resolutions)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	table := climo.DefaultTable()
	if *tablePath != "" {
		if table, err = climo.LoadTable(*tablePath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
	}

	failed := 0
	for _, path := range flag.Args() {
		if err := inspect(path, table, requested, stat); err != nil {
			fmt.Printf("\n=== %s ===\n  ERROR: %v\n", path, err)
			failed++
		}
	}
	if failed > 0 {
		fmt.Printf("\n%d of %d files could not be inspected.\n", failed, flag.NArg())
		os.Exit(1)
	}
}

func inspect(path string, table climo.Table, requested []climo.Resolution, stat climo.Statistic) error {
	ds, err := nc.Open(path)
	if err != nil {
		return err
	}
	defer ds.Close()

	info, err := ds.Info()
	if err != nil {
		return err
	}

	fmt.Printf("\n=== %s ===\n", path)
	fmt.Printf("  model run:  %s %s %s %s\n",
		orUnknown(info.Metadata.Project), orUnknown(info.Metadata.Model),
		orUnknown(info.Metadata.Experiment), orUnknown(info.Metadata.EnsembleMember))
	fmt.Printf("  range:      %s .. %s (%s calendar)\n",
		info.Start.Format("2006-01-02"), info.End.Format("2006-01-02"), info.Time.Calendar)
	fmt.Printf("  native:     %s (frequency %q)\n", info.Native, info.Frequency)

	if info.MultiYearMean {
		fmt.Println("  already a multi-year climatology; generate-climos would reject it")
		return nil
	}

	category, err := table.ResolveCategory(info.DependentVars)
	if err != nil {
		return err
	}
	fmt.Printf("  variables:  %s (%s)\n", strings.Join(info.DependentVars, ", "), category)

	plan, err := climo.BuildPlan(category, info.Native, requested, stat)
	if err != nil {
		return err
	}
	if plan.Empty() {
		fmt.Printf("  plan:       empty; none of %v can be produced from %s data\n",
			plan.Requested, plan.Native)
		return nil
	}

	fmt.Printf("  plan (%s):\n", stat)
	for _, entry := range plan.Entries {
		steps := []string{}
		if op, ok, err := cdo.CombiningOperator(entry); err != nil {
			return err
		} else if ok {
			steps = append(steps, op)
		}
		climOp, err := cdo.ClimatologicalOperator(entry.Target, entry.Climatological)
		if err != nil {
			return err
		}
		steps = append(steps, climOp)
		fmt.Printf("    %-8s -> %s\n", entry.Target, strings.Join(steps, " | "))
	}

	periods := meta.AvailablePeriods(info.Start, info.End)
	if len(periods) == 0 {
		fmt.Println("  periods:    none covered")
		return nil
	}
	codes := make([]string, len(periods))
	for i, p := range periods {
		codes[i] = p.Code
	}
	fmt.Printf("  periods:    %s\n", strings.Join(codes, ", "))
	return nil
}

func orUnknown(s string) string {
	if s == "" {
		return "(unknown)"
	}
	return s
}
