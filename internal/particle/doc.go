// Package particle owns the simulated particle model: kinematics, the
// derived helix projection, the per-layer trajectory model and the hit
// generation pipeline.
//
// Key types: Particle, Hit, Kinematics.
// Key functions: ComputeHit, GenerateHits, Random.
//
// The magnetic field is a unit constant along z and the z coordinate is
// ignored, so a charged particle follows a circle in the transverse plane
// and a neutral one follows a straight ray.
package particle
