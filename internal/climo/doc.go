// Package climo decides how climate-model variables may be aggregated into
// multi-year climatological statistics.
//
// # Variable categories
//
// Every supported variable has a fixed category that governs how its values
// combine across a longer time window:
//
//	point    instantaneous or averaged quantity (tasmax, pr, RUNOFF).
//	         Combines across time by averaging, so "mean of means" is an
//	         accepted approximation and no separate combining step is needed.
//	count    tally of event occurrences in a period (fdETCCDI, r10mmETCCDI).
//	         A yearly value is the sum of the monthly values, never their mean.
//	maximum  extremum recorded in a period (txxETCCDI, rx5dayETCCDI).
//	         A yearly value is the max of the monthly values.
//	minimum  as maximum, with min (tnnETCCDI, txnETCCDI).
//	duration length of a qualifying consecutive run of days (cddETCCDI,
//	         wsdiETCCDI). A run can straddle period boundaries, so coarser
//	         values cannot be reconstructed from finer ones at all; these
//	         variables only produce output at their native resolution.
//
// # Aggregation planning
//
// BuildPlan works out, per requested output resolution, which intermediate
// aggregation (if any) must be materialized with the category's combining
// statistic (sum/max/min) before the multi-year mean or standard deviation is
// formed. Reusing the climatological operator for the combining step would
// silently compute the wrong answer (summing via mean); the plan exists to
// make that impossible.
//
// The planner is a pure function of its inputs. It performs no I/O; the cdo
// package translates plan entries into operator invocations.
package climo
