// Package plotting renders density curves into a multi-page PDF.
package plotting

import (
	"fmt"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgpdf"

	"genenorm/internal/density"
)

// Page titles and axis labels of the abundance distribution report.
const (
	TitleRaw = "Density of raw gene counts"
	TitleTPM = "Density of TPM-normalized gene counts"
	XLabel   = "Log-transformed gene count"
	YLabel   = "Density"
)

// Default page size (matplotlib's 6.4x4.8 in figure).
const (
	DefaultWidth  = 6.4 * vg.Inch
	DefaultHeight = 4.8 * vg.Inch
)

// Page is one plot: a title and one curve per sample.
type Page struct {
	Title  string
	Curves []density.Curve
}

// NewPlot draws the curves of p with the shared axis labels and a legend.
func NewPlot(p Page) (*plot.Plot, error) {
	pl := plot.New()
	pl.Title.Text = p.Title
	pl.X.Label.Text = XLabel
	pl.Y.Label.Text = YLabel
	pl.Legend.Top = true
	pl.Add(plotter.NewGrid())

	if len(p.Curves) == 0 {
		pl.X.Min, pl.X.Max = 0, 1
		pl.Y.Min, pl.Y.Max = 0, 1
		return pl, nil
	}
	for i, c := range p.Curves {
		xys := make(plotter.XYs, len(c.X))
		for k := range c.X {
			xys[k].X, xys[k].Y = c.X[k], c.Y[k]
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return nil, fmt.Errorf("plot %q: %w", c.Label, err)
		}
		line.Color = plotutil.Color(i)
		line.Width = vg.Points(1.5)
		pl.Add(line)
		pl.Legend.Add(c.Label, line)
	}
	return pl, nil
}

// WritePDF renders one PDF page per entry of pages to w.
func WritePDF(w io.Writer, pages []Page, width, height vg.Length) error {
	if len(pages) == 0 {
		return fmt.Errorf("plotting: no pages")
	}
	if width <= 0 || height <= 0 {
		width, height = DefaultWidth, DefaultHeight
	}
	c := vgpdf.New(width, height)
	for i, p := range pages {
		pl, err := NewPlot(p)
		if err != nil {
			return err
		}
		if i > 0 {
			c.NextPage()
		}
		pl.Draw(draw.New(c))
	}
	_, err := c.WriteTo(w)
	return err
}
