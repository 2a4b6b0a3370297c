// Package meta implements the CF-metadata bookkeeping conventions used by
// the data-prep tools.
//
// # Climatological statistics
//
// Multi-year statistics follow section 7.4 ("Climatological Statistics") of
// the CF Metadata Conventions. Climatological time values sit at the center
// of each recurring period: the 15th of each month for multi-year monthly
// values, the 16th of the mid-season months (Jan, Apr, Jul, Oct) for seasonal
// values, and July 2 for the annual value. The bounds of each period are
// recorded in a climatology_bnds variable.
//
// # Frequency codes
//
// Output files carry a frequency attribute encoding which averaging
// intervals they contain and which statistic was formed:
//
//	mClimMean   multi-year monthly means (12 time steps)
//	sClimSD     multi-year seasonal standard deviations (4 time steps)
//	aClimMean   multi-year annual mean (1 time step)
//	msaClimMean monthly+seasonal+annual concatenated (17 time steps)
//	saClimSD    seasonal+annual concatenated (5 time steps)
//
// The interval letters always appear in m, s, a order, matching the order of
// time steps in a concatenated file.
//
// # Calendars
//
// Model output uses the CF calendars standard/gregorian, 365_day/noleap,
// 360_day, and 366_day/all_leap. Time coordinate values are offsets from a
// reference date in the units attribute ("days since 1850-01-01"); encoding
// and decoding must honor the file's calendar or dates drift by days per
// decade in non-real calendars.
package meta
