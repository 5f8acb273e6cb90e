package particle

import (
	"context"
	"runtime"

	"github.com/banshee-data/trackml/internal/detector"
	"github.com/banshee-data/trackml/internal/monitoring"
	"golang.org/x/sync/errgroup"
)

// GenerateOptions controls GenerateHits.
type GenerateOptions struct {
	// Recompute clears and regenerates hits for particles that already
	// have them. Otherwise those particles are left untouched.
	Recompute bool
	// Workers bounds the number of particles processed concurrently.
	// Zero means runtime.GOMAXPROCS(0).
	Workers int
}

// GenerateHitsFor fills p's hit list from detectors, taken in the order
// given; the hit on detectors[i] is tagged layer i+1. It returns the number
// of hits created. Nothing is done when p already has hits and recompute is
// false.
func (p *Particle) GenerateHitsFor(detectors []detector.Detector, recompute bool) int {
	if len(p.Hits) > 0 && !recompute {
		return 0
	}
	p.Hits = nil
	for i, d := range detectors {
		pt, ok := ComputeHit(p, d)
		if !ok {
			continue
		}
		p.Hits = append(p.Hits, &Hit{
			ID:         p.hitID(i),
			ParticleID: p.ID,
			Layer:      i + 1,
			Local:      pt,
		})
	}
	return len(p.Hits)
}

// GenerateHits runs GenerateHitsFor over every particle. Particles are
// independent, so they are processed concurrently; each task touches only
// its own particle and reads detectors. The only error returned is ctx's.
func GenerateHits(ctx context.Context, particles []*Particle, detectors []detector.Detector, opts GenerateOptions) error {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, p := range particles {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			n := p.GenerateHitsFor(detectors, opts.Recompute)
			monitoring.Debugf("particle %d: %d hits over %d layers", p.ID, n, len(detectors))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
