package climo

import (
	"fmt"
	"strings"
)

// UnsupportedVariableError reports a variable name absent from the category
// table. Processing of the whole file must stop; a file is rejected wholesale
// rather than partially processed.
type UnsupportedVariableError struct {
	Variable string
}

func (e UnsupportedVariableError) Error() string {
	return fmt.Sprintf("unsupported variable: cannot process %q", e.Variable)
}

// MixedCategoriesError reports a file whose dependent variables do not share
// exactly one category. Categories holds the distinct categories found; it is
// empty when the file had no dependent variables at all.
type MixedCategoriesError struct {
	Categories []Category
}

func (e MixedCategoriesError) Error() string {
	if len(e.Categories) == 0 {
		return "file contains no dependent variables to classify"
	}
	names := make([]string, len(e.Categories))
	for i, c := range e.Categories {
		names[i] = c.String()
	}
	return fmt.Sprintf("file mixes variable categories: %s", strings.Join(names, ", "))
}

// NonAggregatableError reports a request to aggregate a duration-category
// file beyond its native resolution.
type NonAggregatableError struct {
	Category  Category
	Native    Resolution
	Requested []Resolution
}

func (e NonAggregatableError) Error() string {
	return fmt.Sprintf("%s variables cannot be aggregated beyond their native %s resolution (requested: %s)",
		e.Category, e.Native, resolutionNames(e.Requested))
}
