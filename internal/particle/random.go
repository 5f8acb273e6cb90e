package particle

import (
	"math"
	"math/rand"
)

// KinematicsRange bounds the uniform draws used by Random.
type KinematicsRange struct {
	MomentumMin, MomentumMax float64
	ThetaMin, ThetaMax       float64
	PhiMin, PhiMax           float64
	// VertexSpread is the half-width of the vertex x/y window around the
	// origin.
	VertexSpread float64
}

// DefaultKinematicsRange returns the generator's standard ranges.
func DefaultKinematicsRange() KinematicsRange {
	return KinematicsRange{
		MomentumMin:  4000,
		MomentumMax:  15000,
		ThetaMin:     0,
		ThetaMax:     4,
		PhiMin:       -4,
		PhiMax:       4,
		VertexSpread: 0.03,
	}
}

// Random draws a particle with vertex, kinematics and charge sampled from
// kr. Values are rounded the way dataset files record them: vertex to 7
// decimals, momentum to 2, angles to 5.
func Random(rng *rand.Rand, id int64, hitIDs []int64, kr KinematicsRange) *Particle {
	vertex := Vec3{
		X: round(uniform(rng, -kr.VertexSpread, kr.VertexSpread), 7),
		Y: round(uniform(rng, -kr.VertexSpread, kr.VertexSpread), 7),
	}
	k := Kinematics{
		Momentum: round(uniform(rng, kr.MomentumMin, kr.MomentumMax), 2),
		Theta:    round(uniform(rng, kr.ThetaMin, kr.ThetaMax), 5),
		Phi:      round(uniform(rng, kr.PhiMin, kr.PhiMax), 5),
	}
	charge := rng.Intn(3) - 1

	p := &Particle{ID: id, Vertex: vertex, Kinematics: k, Charge: charge, HitIDs: hitIDs}
	p.derive()
	return p
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + (hi-lo)*rng.Float64()
}

func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
