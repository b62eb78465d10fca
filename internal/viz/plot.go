package viz

import (
	"fmt"
	"math"
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/pointmass/internal/bench"
)

var seriesColors = []asciigraph.AnsiColor{
	asciigraph.Cyan,
	asciigraph.Yellow,
	asciigraph.Magenta,
	asciigraph.Green,
}

// PlotReport draws log10(ns/op) per strategy. The x axis is the index into
// the report's body counts, which are listed in the caption.
func PlotReport(report *bench.Report, width, height int) (string, error) {
	strategies := report.Strategies()
	if len(strategies) == 0 {
		return "", fmt.Errorf("report has no results")
	}

	var (
		series  [][]float64
		legends []string
		colors  []asciigraph.AnsiColor
		sizes   []int
	)
	for i, s := range strategies {
		bodies, mean := report.Series(s)
		if len(bodies) > len(sizes) {
			sizes = bodies
		}
		logged := make([]float64, len(mean))
		for j, ns := range mean {
			logged[j] = math.Log10(max(ns, 1))
		}
		series = append(series, logged)
		legends = append(legends, s)
		colors = append(colors, seriesColors[i%len(seriesColors)])
	}

	labels := make([]string, len(sizes))
	for i, n := range sizes {
		labels[i] = fmt.Sprint(n)
	}

	graph := asciigraph.PlotMany(series,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Precision(2),
		asciigraph.SeriesColors(colors...),
		asciigraph.SeriesLegends(legends...),
		asciigraph.Caption("log10 ns/op at bodies "+strings.Join(labels, ", ")),
	)
	return graph, nil
}
