// Package hitio reads and writes the comma-separated dataset records:
// hits (hits.csv), truth particles (tracks.csv) and solutions
// (tracks_soln.csv).
//
// Readers strip '[' and ']' and whitespace before splitting on commas, so
// the bracketed list forms written by the generator round-trip. Any
// malformed numeric field aborts the whole read with a *FormatError.
package hitio
