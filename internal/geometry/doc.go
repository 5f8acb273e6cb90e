// Package geometry is the closed-form 2D intersection engine used by hit
// generation and track reconstruction.
//
// Key types: Point, Circle, Ray.
// Key functions: Distance, IntersectCircles, IntersectRayCircle.
//
// A missed intersection is reported with a false second return value and
// is never an error. Vector arithmetic is delegated to gonum's r2 package.
package geometry
