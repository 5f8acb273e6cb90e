package particle

import (
	"github.com/banshee-data/trackml/internal/detector"
	"github.com/banshee-data/trackml/internal/geometry"
)

// ComputeHit returns where p crosses d, or false when the particle never
// reaches that layer.
//
// A neutral particle is projected along its ray. A charged particle's arc is
// intersected with the detector circle; of the two crossings, the one
// nearest the straight-line reference point (the detector radius taken along
// theta from the vertex) is kept.
func ComputeHit(p *Particle, d detector.Detector) (geometry.Point, bool) {
	if p.Straight() {
		return geometry.IntersectRayCircle(p.Ray(), d.Circle())
	}

	pts, ok := geometry.IntersectCircles(d.Circle(), p.Arc())
	if !ok {
		return geometry.Point{}, false
	}
	return geometry.Nearest(straightReference(p, d), pts[0], pts[1])
}

func straightReference(p *Particle, d detector.Detector) geometry.Point {
	ray := p.Ray()
	return geometry.Point{
		X: p.Vertex.X + d.Radius*ray.Direction.X,
		Y: p.Vertex.Y + d.Radius*ray.Direction.Y,
	}
}
