package stats

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

const (
	plotH = 4 * vg.Inch
	plotW = 6 * vg.Inch
)

var (
	plotRejectedColor = color.RGBA{R: 170, G: 170, B: 170, A: 255}
	plotSelectedColor = color.RGBA{R: 37, G: 150, B: 190, A: 255}
)

// Splits ranked rows at the cutoff into selected and rejected points
// (x = transmissions, y = unsampled lineages).
func selectionPoints(sel *Selection) (selected, rejected plotter.XYs) {
	selected = make(plotter.XYs, 0, sel.Cutoff)
	rejected = make(plotter.XYs, 0, len(sel.Ranked)-sel.Cutoff)
	for i, r := range sel.Ranked {
		pt := plotter.XY{X: float64(r.Transmissions), Y: float64(r.UnsampledLineages)}
		if i < sel.Cutoff {
			selected = append(selected, pt)
		} else {
			rejected = append(rejected, pt)
		}
	}
	return
}

// Writes a scatter plot of every ranked tree to <prefix>.png, selected trees
// highlighted.
func WriteSelectionPlot(sel *Selection, prefix string) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%d of %d transmission trees selected", sel.Size(), len(sel.Ranked))
	p.X.Label.Text = "Transmissions"
	p.Y.Label.Text = "Unsampled Lineages"
	p.X.Min = 0
	p.Y.Min = 0
	selected, rejected := selectionPoints(sel)
	for _, series := range []struct {
		pts   plotter.XYs
		color color.Color
		shape draw.GlyphDrawer
		label string
	}{
		{rejected, plotRejectedColor, draw.CircleGlyph{}, "rejected"},
		{selected, plotSelectedColor, draw.SquareGlyph{}, "selected"},
	} {
		if len(series.pts) == 0 {
			continue
		}
		scatter, err := plotter.NewScatter(series.pts)
		if err != nil {
			return err
		}
		scatter.GlyphStyle.Color = series.color
		scatter.GlyphStyle.Shape = series.shape
		scatter.GlyphStyle.Radius = vg.Points(3)
		p.Add(scatter)
		p.Legend.Add(series.label, scatter)
	}
	return p.Save(plotW, plotH, fmt.Sprintf("%s.png", prefix))
}
