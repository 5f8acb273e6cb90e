// Package session is the explicit repository of detectors, particles, hits
// and reconstructed tracks for one simulation or reconstruction run.
//
// Every pipeline step is a method on *Session; nothing is held in package
// globals. External consumers such as renderers read through the View
// interface, which only hands out copies.
package session
