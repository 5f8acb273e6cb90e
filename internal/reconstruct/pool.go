package reconstruct

import (
	"math"
	"sync"

	"github.com/banshee-data/trackml/internal/geometry"
	"github.com/banshee-data/trackml/internal/particle"
)

type poolEntry struct {
	hit     *particle.Hit
	claimed bool
}

// hitPool indexes unlabeled hits by layer. Claims are serialised by mu so a
// hit cannot be handed to two tracks in ClaimStrict mode even when tracks
// are grown concurrently.
type hitPool struct {
	mode ClaimMode

	mu      sync.Mutex
	byLayer map[int][]*poolEntry
}

func newHitPool(mode ClaimMode) *hitPool {
	return &hitPool{mode: mode, byLayer: make(map[int][]*poolEntry)}
}

func (p *hitPool) add(h *particle.Hit) {
	p.byLayer[h.Layer] = append(p.byLayer[h.Layer], &poolEntry{hit: h})
}

// claim gives the hit on layer nearest to predicted to particleID. Ties go
// to the hit that entered the pool first. reclaimed is true when the hit
// already belonged to another track (ClaimShared only).
func (p *hitPool) claim(layer int, predicted geometry.Point, particleID int64) (hit *particle.Hit, reclaimed bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var best *poolEntry
	bestDist := math.Inf(1)
	for _, e := range p.byLayer[layer] {
		if e.claimed && p.mode == ClaimStrict {
			continue
		}
		if d := geometry.Distance(predicted, e.hit.Local); d < bestDist {
			best, bestDist = e, d
		}
	}
	if best == nil {
		return nil, false
	}

	reclaimed = best.claimed
	best.claimed = true
	best.hit.ParticleID = particleID
	return best.hit, reclaimed
}

func (p *hitPool) unclaimed() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, entries := range p.byLayer {
		for _, e := range entries {
			if !e.claimed {
				n++
			}
		}
	}
	return n
}
