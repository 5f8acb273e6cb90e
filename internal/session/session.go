package session

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/banshee-data/trackml/internal/config"
	"github.com/banshee-data/trackml/internal/detector"
	"github.com/banshee-data/trackml/internal/hitio"
	"github.com/banshee-data/trackml/internal/ids"
	"github.com/banshee-data/trackml/internal/monitoring"
	"github.com/banshee-data/trackml/internal/particle"
	"github.com/banshee-data/trackml/internal/reconstruct"
	"github.com/google/uuid"
)

// minHitBlock is the smallest per-particle hit barcode block, so particles
// created before detectors are configured still get usable ids.
const minHitBlock = 10

// Options configures a Session. Zero values select defaults.
type Options struct {
	ParticleIDs ids.Allocator
	HitIDs      ids.Allocator
	Rand        *rand.Rand
	Kinematics  particle.KinematicsRange
	Workers     int
	ClaimMode   reconstruct.ClaimMode
}

// Session holds the state of one run.
type Session struct {
	RunID     uuid.UUID
	CreatedAt time.Time

	opts      Options
	detectors *detector.Registry

	mu        sync.RWMutex
	particles []*particle.Particle
	hits      []*particle.Hit
	result    *reconstruct.Result
}

// New returns an empty session.
func New(opts Options) *Session {
	if opts.ParticleIDs == nil {
		opts.ParticleIDs = ids.NewSequential(1)
	}
	if opts.HitIDs == nil {
		opts.HitIDs = ids.NewSequential(1)
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Kinematics == (particle.KinematicsRange{}) {
		opts.Kinematics = particle.DefaultKinematicsRange()
	}
	return &Session{
		RunID:     uuid.New(),
		CreatedAt: time.Now(),
		opts:      opts,
		detectors: &detector.Registry{},
	}
}

// NewFromTuning builds a session and its detectors from a tuning config.
func NewFromTuning(cfg *config.TuningConfig) (*Session, error) {
	mode, err := reconstruct.ParseClaimMode(cfg.GetClaimMode())
	if err != nil {
		return nil, err
	}

	var rng *rand.Rand
	if seed, ok := cfg.GetSeed(); ok {
		rng = rand.New(rand.NewSource(seed))
	} else {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	opts := Options{
		Rand:      rng,
		Workers:   cfg.GetGenerationWorkers(),
		ClaimMode: mode,
		Kinematics: particle.KinematicsRange{
			MomentumMin:  cfg.GetMomentumMin(),
			MomentumMax:  cfg.GetMomentumMax(),
			ThetaMin:     cfg.GetThetaMin(),
			ThetaMax:     cfg.GetThetaMax(),
			PhiMin:       cfg.GetPhiMin(),
			PhiMax:       cfg.GetPhiMax(),
			VertexSpread: cfg.GetVertexSpread(),
		},
	}
	if cfg.GetShuffleIDs() {
		opts.ParticleIDs = ids.NewShuffled(1, rand.New(rand.NewSource(rng.Int63())))
		opts.HitIDs = ids.NewShuffled(1, rand.New(rand.NewSource(rng.Int63())))
	}

	s := New(opts)
	if err := s.AddDetectors(cfg.GetDetectorRadii()...); err != nil {
		return nil, err
	}
	return s, nil
}

// Registry exposes the session's detector registry.
func (s *Session) Registry() *detector.Registry {
	return s.detectors
}

// AddDetector adds a detector layer, ignoring duplicate radii.
func (s *Session) AddDetector(radius float64) (bool, error) {
	return s.detectors.Add(radius)
}

// AddDetectors adds each radius in order.
func (s *Session) AddDetectors(radii ...float64) error {
	for _, r := range radii {
		if _, err := s.detectors.Add(r); err != nil {
			return fmt.Errorf("add detector: %w", err)
		}
	}
	return nil
}

// ClearDetectors removes every detector.
func (s *Session) ClearDetectors() {
	s.detectors.Clear()
}

// AddParticle appends externally constructed particles.
func (s *Session) AddParticle(ps ...*particle.Particle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.particles = append(s.particles, ps...)
}

// ClearParticles removes every particle and any reconstruction result.
func (s *Session) ClearParticles() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.particles = nil
	s.result = nil
}

// CreateParticles appends n randomly generated particles. Each receives a
// particle barcode and a block of hit barcodes, one per detector.
func (s *Session) CreateParticles(n int) []*particle.Particle {
	if n <= 0 {
		return nil
	}
	block := s.detectors.Len()
	if block < minHitBlock {
		block = minHitBlock
	}
	pids := s.opts.ParticleIDs.Allocate(n)
	hids := s.opts.HitIDs.Allocate(n * block)

	created := make([]*particle.Particle, n)
	for i := range created {
		created[i] = particle.Random(s.opts.Rand, pids[i], hids[i*block:(i+1)*block], s.opts.Kinematics)
	}

	s.mu.Lock()
	s.particles = append(s.particles, created...)
	s.mu.Unlock()

	monitoring.Debugf("session %s: created %d particles", s.RunID, n)
	return created
}

// ComputeAllHits generates hits for every particle against the detectors in
// ascending radius order, then refreshes the session hit pool.
func (s *Session) ComputeAllHits(ctx context.Context, recompute bool) error {
	s.mu.RLock()
	particles := append([]*particle.Particle(nil), s.particles...)
	s.mu.RUnlock()

	err := particle.GenerateHits(ctx, particles, s.detectors.Sorted(), particle.GenerateOptions{
		Recompute: recompute,
		Workers:   s.opts.Workers,
	})
	if err != nil {
		return fmt.Errorf("generate hits: %w", err)
	}
	s.CollectHits()
	return nil
}

// CollectHits replaces the hit pool with the hits owned by particles, in
// particle order.
func (s *Session) CollectHits() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hits = s.hits[:0:0]
	for _, p := range s.particles {
		s.hits = append(s.hits, p.Hits...)
	}
}

// AddHit appends a hit read from an external source to the pool.
func (s *Session) AddHit(hs ...*particle.Hit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hits = append(s.hits, hs...)
}

// MaskLabels replaces the hit pool with copies in which only hits on
// seedLayer keep their particle id. The generated particles keep their own
// labeled hits, so truth is unaffected by a later reconstruction.
func (s *Session) MaskLabels(seedLayer int) []*particle.Hit {
	s.mu.Lock()
	defer s.mu.Unlock()
	masked := make([]*particle.Hit, len(s.hits))
	for i, h := range s.hits {
		c := *h
		c.ChannelCharge = append([]particle.ChannelCharge(nil), h.ChannelCharge...)
		if c.Layer != seedLayer {
			c.ParticleID = particle.UnknownParticle
		}
		masked[i] = &c
	}
	s.hits = masked
	return append([]*particle.Hit(nil), masked...)
}

// ClearHits empties the hit pool.
func (s *Session) ClearHits() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hits = nil
}

// ResolveLayers assigns a layer to each hit whose layer is unresolved and
// returns how many were resolved.
func (s *Session) ResolveLayers(tol float64) int {
	sorted := s.detectors.Sorted()
	s.mu.Lock()
	defer s.mu.Unlock()
	resolved := 0
	for _, h := range s.hits {
		if h.Layer != detector.UnresolvedLayer {
			continue
		}
		if layer := detector.ResolveLayer(sorted, h.Local, tol); layer != detector.UnresolvedLayer {
			h.Layer = layer
			resolved++
		}
	}
	return resolved
}

// Reconstruct regrows tracks from the hit pool. Each reconstructed track is
// also recorded as a particle of the session.
func (s *Session) Reconstruct() *reconstruct.Result {
	r := reconstruct.New(s.detectors.Sorted(), reconstruct.Config{Mode: s.opts.ClaimMode})

	s.mu.Lock()
	defer s.mu.Unlock()
	res := r.Reconstruct(s.hits)
	for _, t := range res.Tracks {
		p := particle.NewTrackCandidate(t.ParticleID)
		p.Hits = append(p.Hits, t.Hits...)
		p.HitIDs = t.HitIDs()
		s.particles = append(s.particles, p)
	}
	s.result = res
	return res
}

// Result returns the latest reconstruction result, or nil.
func (s *Session) Result() *reconstruct.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result
}

// HitPool returns the hit pointers in the pool. Callers must not mutate
// them while a pipeline step is running.
func (s *Session) HitPool() []*particle.Hit {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*particle.Hit(nil), s.hits...)
}

// Truths returns the truth record of every particle.
func (s *Session) Truths() []hitio.Truth {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]hitio.Truth, len(s.particles))
	for i, p := range s.particles {
		out[i] = hitio.TruthOf(p)
	}
	return out
}

// Solutions returns each particle's hit ids in hit order.
func (s *Session) Solutions() []hitio.Solution {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]hitio.Solution, len(s.particles))
	for i, p := range s.particles {
		out[i] = hitio.Solution{ParticleID: p.ID, HitIDs: p.HitBarcodes()}
	}
	return out
}

// Stats summarises the session contents.
type Stats struct {
	Detectors int
	Particles int
	Hits      int
	Tracks    int
}

// Stats returns the current counts.
func (s *Session) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := Stats{
		Detectors: s.detectors.Len(),
		Particles: len(s.particles),
		Hits:      len(s.hits),
	}
	if s.result != nil {
		st.Tracks = len(s.result.Tracks)
	}
	return st
}

// Clear resets detectors, particles, hits and results.
func (s *Session) Clear() {
	s.ClearDetectors()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.particles = nil
	s.hits = nil
	s.result = nil
}
