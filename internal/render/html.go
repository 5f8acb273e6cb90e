package render

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/trackml/internal/session"
)

// ScatterHTML writes an interactive scatter page of v's hits to w, one
// series per particle id plus a faint series tracing the detector rings.
func ScatterHTML(v session.View, w io.Writer, title string) error {
	dets := v.Detectors()
	extent := 1.0
	rings := make([]opts.ScatterData, 0, len(dets)*circleSegments)
	for _, d := range dets {
		extent = math.Max(extent, d.Radius)
		for _, xy := range circleXYs(d.Radius)[:circleSegments] {
			rings = append(rings, opts.ScatterData{Value: []interface{}{xy.X, xy.Y}})
		}
	}
	pad := math.Ceil(extent * 1.05)

	hits := v.Hits()
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("detectors=%d hits=%d", len(dets), len(hits))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Type: "scroll", Right: "0"}),
		charts.WithXAxisOpts(opts.XAxis{Min: -pad, Max: pad, Name: "x", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: -pad, Max: pad, Name: "y", NameLocation: "middle", NameGap: 30}),
	)

	if len(rings) > 0 {
		scatter.AddSeries("detectors", rings,
			charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 1}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: "#bbbbbb"}),
		)
	}

	groups := groupHits(hits)
	colors := generateColors(len(groups))
	for i, g := range groups {
		data := make([]opts.ScatterData, len(g.hits))
		for j, h := range g.hits {
			data[j] = opts.ScatterData{Name: fmt.Sprintf("hit %d", h.ID), Value: []interface{}{h.Local.X, h.Local.Y, h.Layer}}
		}
		c := hexColor(colors[i])
		if g.particleID < 0 {
			c = "#000000"
		}
		scatter.AddSeries(g.label(), data,
			charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 6}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: c}),
		)
	}

	if err := scatter.Render(w); err != nil {
		return fmt.Errorf("render scatter: %w", err)
	}
	return nil
}
