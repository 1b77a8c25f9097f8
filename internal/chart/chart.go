// Package chart renders forecast charts as PNG images.
package chart

import (
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

	"IndexForecaster/internal/model"
)

var (
	observedColor = color.RGBA{A: 255}
	forecastColor = color.RGBA{R: 0, G: 114, B: 178, A: 255}
	bandColor     = color.RGBA{R: 0, G: 114, B: 178, A: 60}
)

// Chart is everything drawn for one (series, horizon) pair.
type Chart struct {
	Title    string
	History  []model.Observation
	Forecast []model.ForecastPoint
}

// Render draws observations as points, the prediction as a line and the
// uncertainty bounds as a shaded band, and saves a 10x6 inch PNG at path.
func Render(path string, c Chart) error {
	if len(c.Forecast) == 0 {
		return fmt.Errorf("render %s: empty forecast", c.Title)
	}

	p := plot.New()
	p.Title.Text = c.Title
	p.X.Label.Text = "Date"
	p.Y.Label.Text = "Price"
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01"}
	p.Add(plotter.NewGrid())

	band := make(plotter.XYs, 0, 2*len(c.Forecast))
	for _, pt := range c.Forecast {
		band = append(band, plotter.XY{X: float64(pt.Date.Unix()), Y: pt.Upper})
	}
	for i := len(c.Forecast) - 1; i >= 0; i-- {
		pt := c.Forecast[i]
		band = append(band, plotter.XY{X: float64(pt.Date.Unix()), Y: pt.Lower})
	}
	poly, err := plotter.NewPolygon(band)
	if err != nil {
		return fmt.Errorf("uncertainty band: %w", err)
	}
	poly.Color = bandColor
	poly.LineStyle.Width = 0

	yhat := make(plotter.XYs, len(c.Forecast))
	for i, pt := range c.Forecast {
		yhat[i] = plotter.XY{X: float64(pt.Date.Unix()), Y: pt.Yhat}
	}
	line, err := plotter.NewLine(yhat)
	if err != nil {
		return fmt.Errorf("forecast line: %w", err)
	}
	line.LineStyle.Color = forecastColor
	line.LineStyle.Width = vg.Points(1.2)

	p.Add(poly, line)
	p.Legend.Add("Forecast", line)
	p.Legend.Add("Uncertainty", poly)

	if len(c.History) > 0 {
		obs := make(plotter.XYs, len(c.History))
		for i, o := range c.History {
			obs[i] = plotter.XY{X: float64(o.Date.Unix()), Y: o.Close}
		}
		scatter, err := plotter.NewScatter(obs)
		if err != nil {
			return fmt.Errorf("observed points: %w", err)
		}
		scatter.GlyphStyle.Color = observedColor
		scatter.GlyphStyle.Radius = vg.Points(0.8)
		p.Add(scatter)
		p.Legend.Add("Observed", scatter)
	}
	p.Legend.Top = true
	p.Legend.Left = true

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create chart dir: %w", err)
	}
	img := vgimg.New(10*vg.Inch, 6*vg.Inch)
	p.Draw(draw.New(img))
	return writeFile(path, vgimg.PngCanvas{Canvas: img})
}

// writeFile writes the encoded image to path. A failed write leaves no file behind.
func writeFile(path string, img io.WriterTo) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart %s: %w", path, err)
	}
	if _, err := img.WriteTo(f); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("write chart %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("close chart %s: %w", path, err)
	}
	return nil
}
