package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Origin is the shared center of every detector layer.
var Origin = Point{}

// Point is a position in the transverse (x, y) plane.
type Point r2.Vec

func (p Point) vec() r2.Vec { return r2.Vec(p) }

// Norm returns the distance of p from the origin.
func (p Point) Norm() float64 { return r2.Norm(p.vec()) }

// Distance returns the Euclidean distance between p0 and p1.
func Distance(p0, p1 Point) float64 {
	return r2.Norm(r2.Sub(p1.vec(), p0.vec()))
}

// Circle is a circle of the given radius around Center.
type Circle struct {
	Center Point
	Radius float64
}

// Contains reports whether p lies on the circle within eps.
func (c Circle) Contains(p Point, eps float64) bool {
	return math.Abs(Distance(c.Center, p)-c.Radius) <= eps
}

// Ray is a half-line starting at Origin and extending along Direction.
// Direction need not be normalised.
type Ray struct {
	Origin    Point
	Direction Point
}

// RayThrough returns the ray starting at from and passing through to.
func RayThrough(from, to Point) Ray {
	return Ray{Origin: from, Direction: Point(r2.Sub(to.vec(), from.vec()))}
}

// RayAt returns the ray starting at from with heading angle theta (radians).
func RayAt(from Point, theta float64) Ray {
	return Ray{Origin: from, Direction: Point{X: math.Cos(theta), Y: math.Sin(theta)}}
}

// Collinear reports whether p lies on the forward half-line of r within eps
// (perpendicular distance).
func (r Ray) Collinear(p Point, eps float64) bool {
	d := r.Direction.vec()
	n := r2.Norm(d)
	if n == 0 {
		return false
	}
	rel := r2.Sub(p.vec(), r.Origin.vec())
	if r2.Dot(rel, d) < -eps*n {
		return false
	}
	return math.Abs(r2.Cross(d, rel))/n <= eps
}

// IntersectCircles returns the two points where c0 and c1 cross.
//
// ok is false when the circles are disjoint, when one lies strictly inside
// the other, or when they are concentric. Tangent circles yield two
// coincident points. The returned set does not depend on argument order.
func IntersectCircles(c0, c1 Circle) (pts [2]Point, ok bool) {
	d := Distance(c0.Center, c1.Center)
	if d > c0.Radius+c1.Radius {
		return pts, false
	}
	if d < math.Abs(c0.Radius-c1.Radius) {
		return pts, false
	}
	if d == 0 {
		return pts, false
	}

	// a is the offset of the chord midpoint from c0 along the center line,
	// h the half-chord length perpendicular to it.
	a := (c0.Radius*c0.Radius - c1.Radius*c1.Radius + d*d) / (2 * d)
	h2 := c0.Radius*c0.Radius - a*a
	if h2 < 0 {
		h2 = 0 // rounding at tangency
	}
	h := math.Sqrt(h2)

	u := r2.Scale(1/d, r2.Sub(c1.Center.vec(), c0.Center.vec()))
	mid := r2.Add(c0.Center.vec(), r2.Scale(a, u))
	perp := r2.Vec{X: u.Y, Y: -u.X}

	pts[0] = Point(r2.Add(mid, r2.Scale(h, perp)))
	pts[1] = Point(r2.Sub(mid, r2.Scale(h, perp)))
	return pts, true
}

// IntersectRayCircle returns the intersection of r with c nearest to the
// ray origin in the forward direction. ok is false when the ray misses the
// circle, when every intersection lies behind the origin, or when the ray
// has no direction.
func IntersectRayCircle(r Ray, c Circle) (Point, bool) {
	n := r2.Norm(r.Direction.vec())
	if n == 0 {
		return Point{}, false
	}
	u := r2.Scale(1/n, r.Direction.vec())
	f := r2.Sub(r.Origin.vec(), c.Center.vec())

	// |f + t·u|² = R² reduces to t² + 2bt + k = 0 for unit u.
	b := r2.Dot(f, u)
	k := r2.Dot(f, f) - c.Radius*c.Radius
	disc := b*b - k
	if disc < 0 {
		return Point{}, false
	}
	s := math.Sqrt(disc)
	for _, t := range [2]float64{-b - s, -b + s} {
		if t >= 0 {
			return Point(r2.Add(r.Origin.vec(), r2.Scale(t, u))), true
		}
	}
	return Point{}, false
}

// Nearest returns the candidate closest to ref. The first candidate wins ties.
func Nearest(ref Point, candidates ...Point) (Point, bool) {
	if len(candidates) == 0 {
		return Point{}, false
	}
	best := candidates[0]
	bestDist := Distance(ref, best)
	for _, c := range candidates[1:] {
		if d := Distance(ref, c); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best, true
}
