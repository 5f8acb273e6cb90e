package particle

import (
	"fmt"

	"github.com/banshee-data/trackml/internal/detector"
	"github.com/banshee-data/trackml/internal/geometry"
)

// UnknownParticle marks a hit whose originating particle is not known.
const UnknownParticle int64 = -1

// ChannelCharge is one readout channel's share of a hit's charge.
type ChannelCharge struct {
	ChannelX int
	ChannelY int
	Charge   float64
}

// Hit is a single position measurement on a detector layer.
//
// ParticleID and Layer are the only fields changed after creation; layer
// resolution sets Layer and the reconstructor sets ParticleID.
type Hit struct {
	ID         int64
	ParticleID int64 // UnknownParticle when unlabeled
	Layer      int   // 1-based; detector.UnresolvedLayer when not yet known
	Local      geometry.Point

	// Reserved for measurement error and charge sharing; not read by the
	// simulation or reconstruction.
	LocalError    geometry.Point
	Global        Vec3
	ChannelCharge []ChannelCharge
}

// NewUnlabeledHit returns a hit with no particle association and an
// unresolved layer.
func NewUnlabeledHit(id int64, local geometry.Point) *Hit {
	return &Hit{
		ID:         id,
		ParticleID: UnknownParticle,
		Layer:      detector.UnresolvedLayer,
		Local:      local,
	}
}

// Labeled reports whether the hit carries a known particle id.
func (h *Hit) Labeled() bool {
	return h.ParticleID != UnknownParticle
}

// OriginDistance returns the hit's distance from the detector center.
func (h *Hit) OriginDistance() float64 {
	return h.Local.Norm()
}

func (h *Hit) String() string {
	return fmt.Sprintf("%d", h.ID)
}
