package reconstruct

import (
	"context"
	"sync"
	"testing"

	"github.com/banshee-data/trackml/internal/detector"
	"github.com/banshee-data/trackml/internal/geometry"
	"github.com/banshee-data/trackml/internal/particle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func layers(radii ...float64) []detector.Detector {
	out := make([]detector.Detector, len(radii))
	for i, r := range radii {
		out[i] = detector.Detector{Radius: r}
	}
	return out
}

func seed(id, particleID int64, x, y float64) *particle.Hit {
	return &particle.Hit{ID: id, ParticleID: particleID, Layer: 1, Local: geometry.Point{X: x, Y: y}}
}

func unlabeled(id int64, layer int, x, y float64) *particle.Hit {
	h := particle.NewUnlabeledHit(id, geometry.Point{X: x, Y: y})
	h.Layer = layer
	return h
}

func TestReconstructSeparatedParticles(t *testing.T) {
	t.Parallel()

	dets := layers(1000, 3000, 5000)
	specs := []struct {
		id     int64
		k      particle.Kinematics
		charge int
	}{
		{1, particle.Kinematics{Momentum: 2500, Theta: 0.3, Phi: 1.0}, 1},
		{2, particle.Kinematics{Momentum: 5000, Theta: 2.5, Phi: -1.0}, 1},
		{3, particle.Kinematics{Momentum: 50000, Theta: -2.0, Phi: 2.0}, -1},
	}

	var particles []*particle.Particle
	for i, s := range specs {
		hitIDs := []int64{int64(100 + 10*i), int64(101 + 10*i), int64(102 + 10*i)}
		p, err := particle.New(s.id, particle.Vec3{}, s.k, s.charge, hitIDs)
		require.NoError(t, err)
		particles = append(particles, p)
	}
	require.NoError(t, particle.GenerateHits(context.Background(), particles, dets, particle.GenerateOptions{}))

	// Truth, then strip labels from everything but the innermost layer.
	truth := map[int64][]int64{}
	var pool []*particle.Hit
	for _, p := range particles {
		require.Len(t, p.Hits, 3, "particle %d should cross every layer", p.ID)
		truth[p.ID] = p.HitBarcodes()
		for _, h := range p.Hits {
			c := *h
			if c.Layer != 1 {
				c.ParticleID = particle.UnknownParticle
			}
			pool = append(pool, &c)
		}
	}

	res := New(dets, Config{Mode: ClaimStrict}).Reconstruct(pool)
	require.Len(t, res.Tracks, 3)
	assert.Zero(t, res.Reclaimed)
	assert.Zero(t, res.Unassigned)
	for _, tr := range res.Tracks {
		assert.Equal(t, truth[tr.ParticleID], tr.HitIDs(), "particle %d", tr.ParticleID)
		for _, h := range tr.Hits {
			assert.Equal(t, tr.ParticleID, h.ParticleID)
		}
	}
}

func TestReconstructStrictAndSharedClaims(t *testing.T) {
	t.Parallel()

	build := func() []*particle.Hit {
		return []*particle.Hit{
			seed(1, 10, 1000, 0),
			seed(2, 20, 1000, 10),
			unlabeled(3, 2, 2000, 5),
		}
	}

	t.Run("strict", func(t *testing.T) {
		t.Parallel()
		hits := build()
		res := New(layers(1000, 2000), Config{Mode: ClaimStrict}).Reconstruct(hits)
		require.Len(t, res.Tracks, 2)
		assert.Equal(t, []int64{1, 3}, res.Tracks[0].HitIDs())
		assert.Equal(t, []int64{2}, res.Tracks[1].HitIDs(), "claimed hit is gone from the pool")
		assert.Equal(t, int64(10), hits[2].ParticleID)
		assert.Zero(t, res.Reclaimed)
	})

	t.Run("shared", func(t *testing.T) {
		t.Parallel()
		hits := build()
		res := New(layers(1000, 2000), Config{Mode: ClaimShared}).Reconstruct(hits)
		require.Len(t, res.Tracks, 2)
		assert.Equal(t, []int64{1, 3}, res.Tracks[0].HitIDs())
		assert.Equal(t, []int64{2, 3}, res.Tracks[1].HitIDs(), "hit stays in the pool")
		assert.Equal(t, int64(20), hits[2].ParticleID, "last claim wins the label")
		assert.Equal(t, 1, res.Reclaimed)
		assert.Zero(t, res.Unassigned)
	})
}

func TestReconstructSkipsEmptyLayer(t *testing.T) {
	t.Parallel()

	hits := []*particle.Hit{
		seed(1, 7, 1000, 0),
		unlabeled(2, 3, 3000, 1),
	}
	res := New(layers(3000, 1000, 2000), Config{}).Reconstruct(hits)
	require.Len(t, res.Tracks, 1)
	assert.Equal(t, []int64{1, 2}, res.Tracks[0].HitIDs())
}

func TestReconstructExtrapolatesThroughLastTwoHits(t *testing.T) {
	t.Parallel()

	hits := []*particle.Hit{
		seed(1, 5, 1000, 0),
		unlabeled(2, 2, 2000, 100),
		unlabeled(3, 3, 3000, 0),
		unlabeled(4, 3, 2993, 200),
	}
	res := New(layers(1000, 2000, 3000), Config{}).Reconstruct(hits)
	require.Len(t, res.Tracks, 1)
	assert.Equal(t, []int64{1, 2, 4}, res.Tracks[0].HitIDs())
	assert.Equal(t, 1, res.Unassigned)
	assert.Equal(t, particle.UnknownParticle, hits[2].ParticleID)
}

func TestReconstructTieGoesToFirstHit(t *testing.T) {
	t.Parallel()

	hits := []*particle.Hit{
		seed(1, 5, 1000, 0),
		unlabeled(2, 2, 2000, 10),
		unlabeled(3, 2, 2000, -10),
	}
	res := New(layers(1000, 2000), Config{}).Reconstruct(hits)
	require.Len(t, res.Tracks, 1)
	assert.Equal(t, []int64{1, 2}, res.Tracks[0].HitIDs())
}

func TestReconstructIgnoresUnresolvedHits(t *testing.T) {
	t.Parallel()

	stray := unlabeled(2, detector.UnresolvedLayer, 2000, 0)
	hits := []*particle.Hit{seed(1, 5, 1000, 0), stray}
	res := New(layers(1000, 2000), Config{}).Reconstruct(hits)
	require.Len(t, res.Tracks, 1)
	assert.Equal(t, []int64{1}, res.Tracks[0].HitIDs())
	assert.Equal(t, 1, res.Unresolved)
	assert.Zero(t, res.Unassigned)
	assert.False(t, stray.Labeled())
}

func TestReconstructNoSeeds(t *testing.T) {
	t.Parallel()

	res := New(layers(1000, 2000), Config{}).Reconstruct([]*particle.Hit{unlabeled(1, 2, 2000, 0)})
	assert.Empty(t, res.Tracks)
	assert.Equal(t, 1, res.Unassigned)
}

func TestPoolClaimIsExclusiveUnderConcurrency(t *testing.T) {
	t.Parallel()

	pool := newHitPool(ClaimStrict)
	for i := 0; i < 50; i++ {
		pool.add(unlabeled(int64(i), 2, 2000, float64(i)))
	}

	var (
		mu      sync.Mutex
		claimed = map[int64]int{}
		wg      sync.WaitGroup
	)
	for g := 0; g < 100; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			h, again := pool.claim(2, geometry.Point{X: 2000, Y: float64(g % 50)}, int64(g))
			assert.False(t, again)
			if h == nil {
				return
			}
			mu.Lock()
			claimed[h.ID]++
			mu.Unlock()
		}(g)
	}
	wg.Wait()

	assert.Len(t, claimed, 50)
	for id, n := range claimed {
		assert.Equal(t, 1, n, "hit %d claimed more than once", id)
	}
	assert.Zero(t, pool.unclaimed())
}

func TestParseClaimMode(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]ClaimMode{"": ClaimStrict, "strict": ClaimStrict, "SHARED": ClaimShared, " shared ": ClaimShared} {
		got, err := ParseClaimMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseClaimMode("lenient")
	assert.Error(t, err)

	assert.Equal(t, "strict", ClaimStrict.String())
	assert.Equal(t, "shared", ClaimShared.String())
	assert.Equal(t, "ClaimMode(9)", ClaimMode(9).String())
}
