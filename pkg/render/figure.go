package render

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// Axis labels shared by every panel.
const (
	XLabel = "Time (hours from midtransit)"
	YLabel = "Normalized flux"
)

var (
	seriesColor = color.RGBA{B: 255, A: 255}
	markerColor = color.Black
)

// Options is the output geometry. Width and PanelHeight are in inches.
type Options struct {
	Width       float64
	PanelHeight float64
	DPI         int
}

// Figure is a vertical stack of panels.
type Figure struct {
	Panels []Panel
}

// Size returns the pixel dimensions the figure renders to.
func (f *Figure) Size(o Options) (w, h int) {
	w = int(o.Width * float64(o.DPI))
	h = int(o.PanelHeight * float64(len(f.Panels)) * float64(o.DPI))
	return w, h
}

// Render draws all panels onto a raster canvas.
func (f *Figure) Render(o Options) (*vgimg.Canvas, error) {
	if len(f.Panels) == 0 {
		return nil, errors.New("render: figure has no panels")
	}
	plots := make([][]*plot.Plot, len(f.Panels))
	for i, p := range f.Panels {
		pl, err := p.plot()
		if err != nil {
			return nil, fmt.Errorf("panel %d: %w", i, err)
		}
		plots[i] = []*plot.Plot{pl}
	}

	width := vg.Length(o.Width) * vg.Inch
	height := vg.Length(o.PanelHeight*float64(len(f.Panels))) * vg.Inch
	img := vgimg.NewWith(vgimg.UseWH(width, height), vgimg.UseDPI(o.DPI))
	dc := draw.New(img)

	tiles := draw.Tiles{
		Rows:      len(f.Panels),
		Cols:      1,
		PadTop:    vg.Points(8),
		PadBottom: vg.Points(8),
		PadLeft:   vg.Points(8),
		PadRight:  vg.Points(16),
		PadY:      vg.Points(16),
	}
	canvases := plot.Align(plots, tiles, dc)
	for i := range plots {
		plots[i][0].Draw(canvases[i][0])
	}
	return img, nil
}

// WritePNG renders the figure and encodes it to w.
func (f *Figure) WritePNG(w io.Writer, o Options) error {
	img, err := f.Render(o)
	if err != nil {
		return err
	}
	_, err = vgimg.PngCanvas{Canvas: img}.WriteTo(w)
	return err
}

// SavePNG writes the figure to path, creating parent directories.
func (f *Figure) SavePNG(path string, o Options) error {
	var buf bytes.Buffer
	if err := f.WritePNG(&buf, o); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func (p Panel) plot() (*plot.Plot, error) {
	pl := plot.New()
	pl.Title.Text = p.Title
	pl.X.Label.Text = XLabel
	pl.Y.Label.Text = YLabel

	for _, seg := range p.segments() {
		xys := make(plotter.XYs, len(seg[0]))
		for i := range xys {
			xys[i].X, xys[i].Y = seg[0][i], seg[1][i]
		}
		line, points, err := plotter.NewLinePoints(xys)
		if err != nil {
			return nil, err
		}
		line.LineStyle.Color = seriesColor
		points.GlyphStyle.Color = seriesColor
		points.GlyphStyle.Shape = draw.CircleGlyph{}
		points.GlyphStyle.Radius = vg.Points(3)
		pl.Add(line, points)
	}

	for _, r := range p.RefLines {
		l, err := plotter.NewLine(plotter.XYs{{X: r.X, Y: p.YLim[0]}, {X: r.X, Y: p.YLim[1]}})
		if err != nil {
			return nil, err
		}
		l.LineStyle.Color = markerColor
		if r.Dashed {
			l.LineStyle.Dashes = []vg.Length{vg.Points(6), vg.Points(4)}
		}
		pl.Add(l)
	}

	pl.X.Min, pl.X.Max = p.XLim[0], p.XLim[1]
	pl.Y.Min, pl.Y.Max = p.YLim[0], p.YLim[1]
	return pl, nil
}
