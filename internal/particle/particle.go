package particle

import (
	"errors"
	"fmt"
	"math"

	"github.com/banshee-data/trackml/internal/geometry"
)

// MagneticField is the uniform field strength along z.
const MagneticField = 1.0

// ErrInvalidCharge is returned for charges outside {-1, 0, 1}.
var ErrInvalidCharge = errors.New("particle charge must be -1, 0 or 1")

// Vec3 is a position in detector coordinates. Z is carried but unused.
type Vec3 struct {
	X, Y, Z float64
}

// XY projects v onto the transverse plane.
func (v Vec3) XY() geometry.Point {
	return geometry.Point{X: v.X, Y: v.Y}
}

// Kinematics holds a particle's momentum magnitude and direction angles
// (radians).
type Kinematics struct {
	Momentum float64
	Theta    float64
	Phi      float64
}

// Particle is a simulated or reconstructed particle and the hits it owns.
type Particle struct {
	ID         int64
	Vertex     Vec3
	Kinematics Kinematics
	Charge     int

	// HitIDs holds the barcode reserved for the hit on each detector, in
	// detector order. Missing entries produce hits with ID 0.
	HitIDs []int64

	// Hits is appended to during generation and reconstruction.
	Hits []*Hit

	curvatureRadius float64
	arcCenter       geometry.Point
}

// New builds a particle and derives its curvature radius and arc center.
func New(id int64, vertex Vec3, k Kinematics, charge int, hitIDs []int64) (*Particle, error) {
	if charge < -1 || charge > 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCharge, charge)
	}
	p := &Particle{
		ID:         id,
		Vertex:     vertex,
		Kinematics: k,
		Charge:     charge,
		HitIDs:     hitIDs,
	}
	p.derive()
	return p, nil
}

// NewTrackCandidate returns a particle with no kinematics anchored at the
// origin, as used for reconstructed tracks.
func NewTrackCandidate(id int64) *Particle {
	return &Particle{ID: id, curvatureRadius: math.Inf(1)}
}

func (p *Particle) derive() {
	if p.Charge == 0 {
		p.curvatureRadius = math.Inf(1)
		p.arcCenter = p.Vertex.XY()
		return
	}
	r := p.Kinematics.Momentum / (float64(p.Charge) * MagneticField)
	p.curvatureRadius = r
	p.arcCenter = geometry.Point{
		X: p.Vertex.X + r*math.Sin(p.Kinematics.Phi),
		Y: p.Vertex.Y + r*math.Cos(p.Kinematics.Phi),
	}
}

// Straight reports whether the particle travels in a straight line.
func (p *Particle) Straight() bool {
	return p.Charge == 0
}

// CurvatureRadius returns the signed radius of the particle's arc, or +Inf
// for a neutral particle.
func (p *Particle) CurvatureRadius() float64 {
	return p.curvatureRadius
}

// ArcCenter returns the center of the particle's arc. For a neutral
// particle it is the vertex.
func (p *Particle) ArcCenter() geometry.Point {
	return p.arcCenter
}

// Arc returns the circle a charged particle follows.
func (p *Particle) Arc() geometry.Circle {
	return geometry.Circle{Center: p.arcCenter, Radius: math.Abs(p.curvatureRadius)}
}

// Ray returns the straight path a neutral particle follows.
func (p *Particle) Ray() geometry.Ray {
	return geometry.RayAt(p.Vertex.XY(), p.Kinematics.Theta)
}

// AddHit appends h unless the particle already owns it.
func (p *Particle) AddHit(h *Hit) bool {
	for _, existing := range p.Hits {
		if existing == h {
			return false
		}
	}
	p.Hits = append(p.Hits, h)
	return true
}

// HitBarcodes returns the ids of the particle's hits in order.
func (p *Particle) HitBarcodes() []int64 {
	out := make([]int64, len(p.Hits))
	for i, h := range p.Hits {
		out[i] = h.ID
	}
	return out
}

func (p *Particle) hitID(i int) int64 {
	if i < len(p.HitIDs) {
		return p.HitIDs[i]
	}
	return 0
}
