// Package render lays out and draws the stacked light-curve cutout figures.
package render

import (
	"math"

	"github.com/japaniel/tcecutouts/pkg/lightcurve"
)

const (
	// XPad is added beyond the furthest sample on both sides of the x-axis, in hours.
	XPad = 2.0
	// YPadFraction of the flux range is added above and below the flux extremes.
	YPadFraction = 0.05
)

// RefLine is a vertical marker spanning the whole y-range.
type RefLine struct {
	X      float64
	Dashed bool
}

// Panel is one zoom level of a figure, fully resolved to plot coordinates.
type Panel struct {
	Hours    []float64
	Flux     []float64
	XLim     [2]float64
	YLim     [2]float64
	RefLines []RefLine
	Title    string
}

// NewPanel computes the axis limits and transit markers for a cutout.
func NewPanel(c lightcurve.Cutout, w lightcurve.Window) Panel {
	p := Panel{
		Hours: c.Hours,
		Flux:  c.Flux,
		RefLines: []RefLine{
			{X: 0, Dashed: true},
			{X: w.Hours(w.Start)},
			{X: w.Hours(w.End)},
		},
	}

	var half float64
	if lo, ok := lightcurve.NanMin(c.Hours); ok {
		hi, _ := lightcurve.NanMax(c.Hours)
		half = math.Max(math.Abs(lo), math.Abs(hi))
	} else {
		// no samples: span the requested window instead
		half = math.Max(math.Abs(w.Hours(w.Start-c.Buffer)), math.Abs(w.Hours(w.End+c.Buffer)))
	}
	half += XPad
	p.XLim = [2]float64{-half, half}

	lo, okLo := lightcurve.NanMin(c.Flux)
	hi, _ := lightcurve.NanMax(c.Flux)
	switch {
	case !okLo:
		p.YLim = [2]float64{1 - YPadFraction, 1 + YPadFraction}
	case hi == lo:
		p.YLim = [2]float64{lo - YPadFraction, hi + YPadFraction}
	default:
		d := (hi - lo) * YPadFraction
		p.YLim = [2]float64{lo - d, hi + d}
	}
	return p
}

// segments splits the samples at NaN flux so gaps are not bridged by the line.
func (p Panel) segments() [][2][]float64 {
	var out [][2][]float64
	start := -1
	for i := 0; i <= len(p.Flux); i++ {
		gap := i == len(p.Flux) || math.IsNaN(p.Flux[i]) || math.IsInf(p.Flux[i], 0)
		switch {
		case gap && start >= 0:
			out = append(out, [2][]float64{p.Hours[start:i], p.Flux[start:i]})
			start = -1
		case !gap && start < 0:
			start = i
		}
	}
	return out
}
