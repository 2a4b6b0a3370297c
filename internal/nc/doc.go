// Package nc reads and rewrites netCDF model output files.
//
// Reading goes through a Dataset wrapper over a netCDF group: global and
// per-variable attribute access, dependent-variable discovery, and a
// summarized FileInfo used to plan processing. Writing is limited to the
// classic (CDF) format, which is what the statistics tools emit and what
// downstream consumers expect.
package nc
