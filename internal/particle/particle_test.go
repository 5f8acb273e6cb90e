package particle

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/banshee-data/trackml/internal/detector"
	"github.com/banshee-data/trackml/internal/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParticle(t *testing.T, id int64, vertex Vec3, k Kinematics, charge int) *Particle {
	t.Helper()
	p, err := New(id, vertex, k, charge, nil)
	require.NoError(t, err)
	return p
}

func detectors(radii ...float64) []detector.Detector {
	out := make([]detector.Detector, len(radii))
	for i, r := range radii {
		out[i] = detector.Detector{Radius: r}
	}
	return out
}

func TestNewDerivesArc(t *testing.T) {
	t.Parallel()

	t.Run("positive charge", func(t *testing.T) {
		t.Parallel()
		p := mustParticle(t, 1, Vec3{X: 1, Y: -1}, Kinematics{Momentum: 2000, Theta: 0.5, Phi: math.Pi / 2}, 1)
		assert.Equal(t, 2000.0, p.CurvatureRadius())
		assert.InDelta(t, 2001.0, p.ArcCenter().X, 1e-9)
		assert.InDelta(t, -1.0, p.ArcCenter().Y, 1e-9)
		assert.Equal(t, 2000.0, p.Arc().Radius)
		assert.False(t, p.Straight())
	})

	t.Run("negative charge flips center", func(t *testing.T) {
		t.Parallel()
		p := mustParticle(t, 2, Vec3{}, Kinematics{Momentum: 2000, Phi: 0}, -1)
		assert.Equal(t, -2000.0, p.CurvatureRadius())
		assert.InDelta(t, 0.0, p.ArcCenter().X, 1e-9)
		assert.InDelta(t, -2000.0, p.ArcCenter().Y, 1e-9)
		assert.Equal(t, 2000.0, p.Arc().Radius)
	})

	t.Run("neutral", func(t *testing.T) {
		t.Parallel()
		p := mustParticle(t, 3, Vec3{}, Kinematics{Momentum: 2000}, 0)
		assert.True(t, math.IsInf(p.CurvatureRadius(), 1))
		assert.True(t, p.Straight())
	})

	t.Run("invalid charge", func(t *testing.T) {
		t.Parallel()
		_, err := New(4, Vec3{}, Kinematics{}, 2, nil)
		assert.ErrorIs(t, err, ErrInvalidCharge)
	})
}

func TestComputeHitStraightSingleDetector(t *testing.T) {
	t.Parallel()

	p := mustParticle(t, 7, Vec3{}, Kinematics{Momentum: 5000, Theta: 0}, 0)
	p.HitIDs = []int64{70}

	require.NoError(t, GenerateHits(context.Background(), []*Particle{p}, detectors(1000), GenerateOptions{}))
	require.Len(t, p.Hits, 1)
	h := p.Hits[0]
	assert.Equal(t, geometry.Point{X: 1000, Y: 0}, h.Local)
	assert.Equal(t, int64(70), h.ID)
	assert.Equal(t, int64(7), h.ParticleID)
	assert.Equal(t, 1, h.Layer)
}

func TestComputeHitMiss(t *testing.T) {
	t.Parallel()

	p := mustParticle(t, 1, Vec3{}, Kinematics{Momentum: 300, Theta: 1, Phi: 0.2}, 1)
	_, ok := ComputeHit(p, detector.Detector{Radius: 1000})
	assert.False(t, ok, "arc never reaches the layer")

	n := p.GenerateHitsFor(detectors(100, 1000, 2000), false)
	assert.Equal(t, 1, n, "only the innermost layer is reached")
	assert.Equal(t, 1, p.Hits[0].Layer)
}

func TestComputeHitDeterministic(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 50; i++ {
		p := Random(rng, int64(i), nil, DefaultKinematicsRange())
		for _, d := range detectors(1000, 4000, 8000) {
			a, okA := ComputeHit(p, d)
			b, okB := ComputeHit(p, d)
			assert.Equal(t, okA, okB)
			assert.Equal(t, a, b)
		}
	}
}

func TestComputeHitPicksCandidateNearestStraightProjection(t *testing.T) {
	t.Parallel()

	p := mustParticle(t, 1, Vec3{}, Kinematics{Momentum: 5000, Theta: 1.2, Phi: -0.4}, 1)
	d := detector.Detector{Radius: 3000}

	got, ok := ComputeHit(p, d)
	require.True(t, ok)

	pts, ok := geometry.IntersectCircles(d.Circle(), p.Arc())
	require.True(t, ok)
	ref := geometry.Point{X: 3000 * math.Cos(1.2), Y: 3000 * math.Sin(1.2)}
	other := pts[0]
	if other == got {
		other = pts[1]
	}
	assert.LessOrEqual(t, geometry.Distance(got, ref), geometry.Distance(other, ref))
}

func TestGeneratedHitsLieOnTrajectory(t *testing.T) {
	t.Parallel()

	dets := detectors(detector.DefaultRadii()...)
	rng := rand.New(rand.NewSource(11))

	var particles []*Particle
	for i := 0; i < 200; i++ {
		particles = append(particles, Random(rng, int64(i+1), nil, DefaultKinematicsRange()))
	}
	require.NoError(t, GenerateHits(context.Background(), particles, dets, GenerateOptions{Workers: 4}))

	for _, p := range particles {
		for _, h := range p.Hits {
			if p.Straight() {
				assert.True(t, p.Ray().Collinear(h.Local, 1e-6), "particle %d hit %v off ray", p.ID, h.Local)
			} else {
				assert.True(t, p.Arc().Contains(h.Local, 1e-6), "particle %d hit %v off arc", p.ID, h.Local)
			}
			assert.True(t, dets[h.Layer-1].Circle().Contains(h.Local, 1e-6))
			assert.Equal(t, p.ID, h.ParticleID)
		}
	}
}

func TestGenerateHitsIdempotentAndRecompute(t *testing.T) {
	t.Parallel()

	dets := detectors(1000, 2000, 3000)
	p := mustParticle(t, 1, Vec3{}, Kinematics{Momentum: 9000, Theta: 0.3, Phi: 1.1}, -1)
	p.HitIDs = []int64{11, 12, 13}

	ctx := context.Background()
	require.NoError(t, GenerateHits(ctx, []*Particle{p}, dets, GenerateOptions{}))
	first := append([]*Hit(nil), p.Hits...)
	require.Len(t, first, 3)
	assert.Equal(t, []int64{11, 12, 13}, p.HitBarcodes())

	require.NoError(t, GenerateHits(ctx, []*Particle{p}, dets, GenerateOptions{}))
	assert.Equal(t, first, p.Hits, "no duplicate hits without recompute")

	require.NoError(t, GenerateHits(ctx, []*Particle{p}, dets, GenerateOptions{Recompute: true}))
	require.Len(t, p.Hits, 3)
	for i := range first {
		assert.NotSame(t, first[i], p.Hits[i], "recompute must replace hits")
		assert.Equal(t, first[i].Local, p.Hits[i].Local)
	}
}

func TestGenerateHitsCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := mustParticle(t, 1, Vec3{}, Kinematics{Momentum: 9000}, 0)
	err := GenerateHits(ctx, []*Particle{p}, detectors(1000), GenerateOptions{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, p.Hits)
}

func TestRandomWithinRanges(t *testing.T) {
	t.Parallel()

	kr := DefaultKinematicsRange()
	rng := rand.New(rand.NewSource(99))
	charges := map[int]int{}
	for i := 0; i < 500; i++ {
		p := Random(rng, int64(i), nil, kr)
		assert.LessOrEqual(t, math.Abs(p.Vertex.X), kr.VertexSpread)
		assert.LessOrEqual(t, math.Abs(p.Vertex.Y), kr.VertexSpread)
		assert.Zero(t, p.Vertex.Z)
		assert.GreaterOrEqual(t, p.Kinematics.Momentum, kr.MomentumMin)
		assert.LessOrEqual(t, p.Kinematics.Momentum, kr.MomentumMax)
		assert.GreaterOrEqual(t, p.Kinematics.Theta, kr.ThetaMin)
		assert.LessOrEqual(t, p.Kinematics.Theta, kr.ThetaMax)
		assert.GreaterOrEqual(t, p.Kinematics.Phi, kr.PhiMin)
		assert.LessOrEqual(t, p.Kinematics.Phi, kr.PhiMax)
		charges[p.Charge]++
	}
	assert.Len(t, charges, 3, "all of -1, 0, 1 should occur")

	a := Random(rand.New(rand.NewSource(5)), 1, nil, kr)
	b := Random(rand.New(rand.NewSource(5)), 1, nil, kr)
	assert.Equal(t, a, b)
}

func TestAddHitDeduplicates(t *testing.T) {
	t.Parallel()

	p := NewTrackCandidate(3)
	h := NewUnlabeledHit(9, geometry.Point{X: 1000})
	assert.True(t, p.AddHit(h))
	assert.False(t, p.AddHit(h))
	assert.Len(t, p.Hits, 1)
	assert.False(t, h.Labeled())
	assert.Equal(t, detector.UnresolvedLayer, h.Layer)
	assert.InDelta(t, 1000.0, h.OriginDistance(), 1e-9)
}
