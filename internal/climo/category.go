package climo

// Category describes how a variable's values combine across a longer time
// window. See the package documentation for the semantics of each category.
type Category int

const (
	CategoryUnknown Category = iota
	Point
	Count
	Maximum
	Minimum
	Duration
)

func (c Category) String() string {
	switch c {
	case Point:
		return "point"
	case Count:
		return "count"
	case Maximum:
		return "maximum"
	case Minimum:
		return "minimum"
	case Duration:
		return "duration"
	default:
		return "unknown"
	}
}

// Combining returns the statistic that merges finer-resolution values of this
// category into a coarser intermediate. Point variables need none: the
// climatological operator itself aggregates them. Duration variables have
// none because they cannot be re-aggregated at all.
func (c Category) Combining() Statistic {
	switch c {
	case Count:
		return StatSum
	case Maximum:
		return StatMax
	case Minimum:
		return StatMin
	default:
		return StatNone
	}
}
