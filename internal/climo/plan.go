package climo

import "fmt"

// Entry describes how the climatological statistic at one output resolution
// is produced.
//
// When Combining is StatNone the climatological operator reads the dataset at
// Source (the native resolution) directly. Otherwise an intermediate dataset
// at Source (== Target) must first be materialized from the native data with
// the Combining statistic, and the climatological statistic is then applied
// to that intermediate at exactly its resolution -- no further coarsening is
// permitted through that path.
type Entry struct {
	Target         Resolution
	Source         Resolution
	Combining      Statistic
	Climatological Statistic
}

// Plan is the ordered set of aggregation steps for one dataset and one
// climatological period. Entries are ordered fine to coarse. A plan with no
// entries is valid: it means none of the requested resolutions can be
// produced from the native resolution, which callers surface as a warning
// and zero output files, never as an error.
type Plan struct {
	Category  Category
	Native    Resolution
	Requested []Resolution
	Entries   []Entry
}

// Empty reports whether the plan produces no output.
func (p Plan) Empty() bool { return len(p.Entries) == 0 }

// Resolutions returns the target resolutions the plan will produce,
// fine to coarse.
func (p Plan) Resolutions() []Resolution {
	out := make([]Resolution, len(p.Entries))
	for i, e := range p.Entries {
		out[i] = e.Target
	}
	return out
}

// BuildPlan determines the aggregation operations required to produce the
// climatological statistic stat at each requested output resolution, given
// the variables' category and the dataset's native time resolution.
//
// Requested resolutions finer than native are silently dropped: the data
// does not exist at finer grain than it was recorded. Daily is likewise
// dropped; it is never an aggregation target. Duration-category data cannot
// be aggregated beyond its native resolution, so any surviving request
// coarser than native fails with NonAggregatableError.
func BuildPlan(category Category, native Resolution, requested []Resolution, stat Statistic) (Plan, error) {
	if stat != StatMean && stat != StatStdDev {
		return Plan{}, fmt.Errorf("%q is not a climatological statistic: expected mean or std", stat)
	}
	if category == CategoryUnknown {
		return Plan{}, fmt.Errorf("cannot plan aggregation for unknown variable category")
	}
	if native == ResolutionUnknown {
		return Plan{}, fmt.Errorf("cannot plan aggregation for unknown native resolution")
	}

	plan := Plan{
		Category:  category,
		Native:    native,
		Requested: normalizeResolutions(requested),
	}

	var producible []Resolution
	for _, r := range plan.Requested {
		if r >= native && r > Daily {
			producible = append(producible, r)
		}
	}

	if category == Duration {
		for _, r := range producible {
			if r != native {
				return Plan{}, NonAggregatableError{
					Category:  category,
					Native:    native,
					Requested: plan.Requested,
				}
			}
		}
	}

	for _, r := range producible {
		e := Entry{
			Target:         r,
			Source:         native,
			Combining:      StatNone,
			Climatological: stat,
		}
		if r != native {
			if combine := category.Combining(); combine != StatNone {
				e.Source = r
				e.Combining = combine
			}
		}
		plan.Entries = append(plan.Entries, e)
	}

	return plan, nil
}
