package session

import (
	"github.com/banshee-data/trackml/internal/detector"
	"github.com/banshee-data/trackml/internal/particle"
)

// View is the read-only query surface over a session. Every method returns
// copies, so consumers cannot disturb the run.
type View interface {
	Detectors() []detector.Detector
	Particles() []ParticleView
	Hits() []particle.Hit
	Tracks() []TrackView
}

// ParticleView is a copy of a particle and its hits.
type ParticleView struct {
	ID         int64
	Vertex     particle.Vec3
	Kinematics particle.Kinematics
	Charge     int
	Hits       []particle.Hit
}

// TrackView is a copy of a reconstructed track.
type TrackView struct {
	ParticleID int64
	Hits       []particle.Hit
}

var _ View = (*Session)(nil)

// Detectors returns the detectors in ascending radius order.
func (s *Session) Detectors() []detector.Detector {
	return s.detectors.Sorted()
}

// Particles returns copies of every particle with its hits.
func (s *Session) Particles() []ParticleView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ParticleView, len(s.particles))
	for i, p := range s.particles {
		out[i] = ParticleView{
			ID:         p.ID,
			Vertex:     p.Vertex,
			Kinematics: p.Kinematics,
			Charge:     p.Charge,
			Hits:       copyHits(p.Hits),
		}
	}
	return out
}

// Hits returns copies of the hit pool.
func (s *Session) Hits() []particle.Hit {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyHits(s.hits)
}

// Tracks returns copies of the latest reconstructed tracks.
func (s *Session) Tracks() []TrackView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.result == nil {
		return nil
	}
	out := make([]TrackView, len(s.result.Tracks))
	for i, t := range s.result.Tracks {
		out[i] = TrackView{ParticleID: t.ParticleID, Hits: copyHits(t.Hits)}
	}
	return out
}

func copyHits(hits []*particle.Hit) []particle.Hit {
	out := make([]particle.Hit, len(hits))
	for i, h := range hits {
		out[i] = *h
		out[i].ChannelCharge = append([]particle.ChannelCharge(nil), h.ChannelCharge...)
	}
	return out
}
