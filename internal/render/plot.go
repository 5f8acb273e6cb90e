// Package render draws event displays of a session: a static PNG through
// gonum/plot and an interactive HTML scatter through go-echarts.
package render

import (
	"fmt"
	"image/color"
	"math"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/trackml/internal/particle"
	"github.com/banshee-data/trackml/internal/session"
)

const circleSegments = 180

// PlotOptions controls PlotPNG.
type PlotOptions struct {
	Title string
	// Size is the side of the square image; zero selects 8 inches.
	Size vg.Length
	// Particles draws each particle's joins from the origin through its
	// hits.
	Particles bool
	// Tracks draws reconstructed tracks as dashed joins.
	Tracks bool
}

// PlotPNG writes an event display of v to path. The image format follows
// the file extension.
func PlotPNG(v session.View, path string, opts PlotOptions) error {
	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"
	p.Add(plotter.NewGrid())

	extent := 1.0
	for _, d := range v.Detectors() {
		ring, err := plotter.NewLine(circleXYs(d.Radius))
		if err != nil {
			return fmt.Errorf("detector %v: %w", d, err)
		}
		ring.Color = color.Gray{Y: 160}
		ring.Width = vg.Points(0.5)
		p.Add(ring)
		extent = math.Max(extent, d.Radius)
	}

	if opts.Particles {
		particles := v.Particles()
		colors := generateColors(len(particles))
		for i, pv := range particles {
			if len(pv.Hits) == 0 {
				continue
			}
			join, err := plotter.NewLine(joinXYs(pv.Hits))
			if err != nil {
				return fmt.Errorf("particle %d: %w", pv.ID, err)
			}
			join.Color = colors[i]
			join.Width = vg.Points(1)
			p.Add(join)
		}
	}

	if opts.Tracks {
		tracks := v.Tracks()
		colors := generateColors(len(tracks))
		for i, tv := range tracks {
			join, err := plotter.NewLine(joinXYs(tv.Hits))
			if err != nil {
				return fmt.Errorf("track %d: %w", tv.ParticleID, err)
			}
			join.Color = colors[i]
			join.Width = vg.Points(1)
			join.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
			p.Add(join)
		}
	}

	groups := groupHits(v.Hits())
	colors := generateColors(len(groups))
	for i, g := range groups {
		sc, err := plotter.NewScatter(hitXYs(g.hits))
		if err != nil {
			return fmt.Errorf("hits: %w", err)
		}
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		sc.GlyphStyle.Radius = vg.Points(2)
		sc.GlyphStyle.Color = colors[i]
		if g.particleID == particle.UnknownParticle {
			sc.GlyphStyle.Color = color.Black
		}
		p.Add(sc)
		if len(groups) <= 20 {
			p.Legend.Add(g.label(), sc)
		}
	}

	pad := extent * 1.05
	p.X.Min, p.X.Max = -pad, pad
	p.Y.Min, p.Y.Max = -pad, pad
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	size := opts.Size
	if size == 0 {
		size = 8 * vg.Inch
	}
	if err := p.Save(size, size, path); err != nil {
		return fmt.Errorf("save event plot: %w", err)
	}
	return nil
}

type hitGroup struct {
	particleID int64
	hits       []particle.Hit
}

func (g hitGroup) label() string {
	if g.particleID == particle.UnknownParticle {
		return "unassigned"
	}
	return fmt.Sprintf("particle %d", g.particleID)
}

// groupHits buckets hits by particle id, ordered by id with unassigned
// hits first.
func groupHits(hits []particle.Hit) []hitGroup {
	byID := make(map[int64][]particle.Hit)
	for _, h := range hits {
		byID[h.ParticleID] = append(byID[h.ParticleID], h)
	}
	out := make([]hitGroup, 0, len(byID))
	for id, hs := range byID {
		out = append(out, hitGroup{particleID: id, hits: hs})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].particleID < out[j].particleID })
	return out
}

func circleXYs(radius float64) plotter.XYs {
	pts := make(plotter.XYs, circleSegments+1)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / circleSegments
		pts[i] = plotter.XY{X: radius * math.Cos(a), Y: radius * math.Sin(a)}
	}
	return pts
}

// joinXYs runs from the origin through each hit in order.
func joinXYs(hits []particle.Hit) plotter.XYs {
	pts := make(plotter.XYs, 0, len(hits)+1)
	pts = append(pts, plotter.XY{})
	for _, h := range hits {
		pts = append(pts, plotter.XY{X: h.Local.X, Y: h.Local.Y})
	}
	return pts
}

func hitXYs(hits []particle.Hit) plotter.XYs {
	pts := make(plotter.XYs, len(hits))
	for i, h := range hits {
		pts[i] = plotter.XY{X: h.Local.X, Y: h.Local.Y}
	}
	return pts
}
