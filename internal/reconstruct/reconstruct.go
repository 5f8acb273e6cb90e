package reconstruct

import (
	"sort"

	"github.com/banshee-data/trackml/internal/detector"
	"github.com/banshee-data/trackml/internal/geometry"
	"github.com/banshee-data/trackml/internal/monitoring"
	"github.com/banshee-data/trackml/internal/particle"
)

// Config holds reconstruction parameters.
type Config struct {
	Mode ClaimMode
}

// Track is one reconstructed particle trajectory.
type Track struct {
	ParticleID int64
	Hits       []*particle.Hit
}

// HitIDs returns the ids of the track's hits in the order they were added.
func (t *Track) HitIDs() []int64 {
	out := make([]int64, len(t.Hits))
	for i, h := range t.Hits {
		out[i] = h.ID
	}
	return out
}

// Result is the output of one reconstruction pass.
type Result struct {
	Tracks []*Track
	// Reclaimed counts hits taken by a track after another track had
	// already claimed them. Always zero in ClaimStrict mode.
	Reclaimed int
	// Unassigned counts unlabeled hits with a resolved layer that no
	// track claimed.
	Unassigned int
	// Unresolved counts unlabeled hits skipped because their layer is
	// unknown.
	Unresolved int
}

// Reconstructor regrows tracks against a fixed set of detector layers.
type Reconstructor struct {
	cfg    Config
	layers []detector.Detector
}

// New returns a reconstructor for the given detectors. Layers are ordered
// by ascending radius regardless of the order given.
func New(detectors []detector.Detector, cfg Config) *Reconstructor {
	layers := append([]detector.Detector(nil), detectors...)
	sort.Slice(layers, func(i, j int) bool { return layers[i].Radius < layers[j].Radius })
	return &Reconstructor{cfg: cfg, layers: layers}
}

// Reconstruct seeds a track from every labeled hit and grows each one
// outward. Claimed hits have their ParticleID set to the track's id.
// Tracks are grown sequentially in seed order so results are reproducible.
func (r *Reconstructor) Reconstruct(hits []*particle.Hit) *Result {
	res := &Result{}
	pool := newHitPool(r.cfg.Mode)

	for _, h := range hits {
		switch {
		case h.Labeled():
			res.Tracks = append(res.Tracks, &Track{ParticleID: h.ParticleID, Hits: []*particle.Hit{h}})
		case h.Layer == detector.UnresolvedLayer:
			res.Unresolved++
		default:
			pool.add(h)
		}
	}

	for _, t := range res.Tracks {
		res.Reclaimed += r.grow(t, pool)
	}
	res.Unassigned = pool.unclaimed()

	monitoring.Debugf("reconstruct: %d tracks, %d unassigned, %d unresolved, %d reclaimed",
		len(res.Tracks), res.Unassigned, res.Unresolved, res.Reclaimed)
	return res
}

// grow extends t across layers 2..N and returns the number of re-claimed
// hits.
func (r *Reconstructor) grow(t *Track, pool *hitPool) int {
	reclaimed := 0
	for layer := 2; layer <= len(r.layers); layer++ {
		predicted, ok := geometry.IntersectRayCircle(extrapolate(t), r.layers[layer-1].Circle())
		if !ok {
			continue
		}
		h, again := pool.claim(layer, predicted, t.ParticleID)
		if h == nil {
			continue
		}
		if again {
			reclaimed++
			monitoring.Logf("reconstruct: hit %d on layer %d re-claimed by particle %d", h.ID, layer, t.ParticleID)
		}
		t.Hits = append(t.Hits, h)
	}
	return reclaimed
}

// extrapolate returns the ray continuing t's current direction: from the
// origin through a lone seed, otherwise through the last two hits.
func extrapolate(t *Track) geometry.Ray {
	n := len(t.Hits)
	if n == 1 {
		return geometry.RayThrough(geometry.Origin, t.Hits[0].Local)
	}
	return geometry.RayThrough(t.Hits[n-2].Local, t.Hits[n-1].Local)
}
