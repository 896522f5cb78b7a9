// Package lightcurve extracts photometric time series and cuts transit windows.
package lightcurve

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
)

// HoursPerDay converts light-curve time (days) to plot time.
const HoursPerDay = 24.0

// Series is a light curve in file order. Flux may contain NaN gaps.
type Series struct {
	Time []float64
	Flux []float64
}

// Len is the number of samples.
func (s Series) Len() int { return len(s.Time) }

// Select returns the samples with lo < t < hi.
func (s Series) Select(lo, hi float64) Series {
	var out Series
	for i, t := range s.Time {
		if t > lo && t < hi {
			out.Time = append(out.Time, t)
			out.Flux = append(out.Flux, s.Flux[i])
		}
	}
	return out
}

// Window is the transit a cutout is centred on.
type Window struct {
	Mid   float64
	Start float64
	End   float64
}

// Hours rebases t to hours from the transit midpoint.
func (w Window) Hours(t float64) float64 { return HoursPerDay * (t - w.Mid) }

// Cutout is a selected, rebased and normalized slice of a Series.
type Cutout struct {
	Buffer float64
	Hours  []float64
	Flux   []float64
	// Median is the divisor applied to Flux; NaN when the window holds no finite flux.
	Median float64
}

// Empty reports whether the cutout has no samples at all.
func (c Cutout) Empty() bool { return len(c.Hours) == 0 }

// Cut selects the samples of s within (Start-buffer, End+buffer), rebases them
// to hours from Mid and divides the flux by its median. A zero median leaves
// the flux unscaled.
func Cut(s Series, w Window, buffer float64) Cutout {
	sel := s.Select(w.Start-buffer, w.End+buffer)
	c := Cutout{Buffer: buffer, Hours: sel.Time, Flux: sel.Flux, Median: math.NaN()}
	for i, t := range c.Hours {
		c.Hours[i] = w.Hours(t)
	}
	if med, ok := NanMedian(c.Flux); ok {
		c.Median = med
		if med != 0 {
			floats.Scale(1/med, c.Flux)
		}
	}
	return c
}

// NanMedian is the median of the non-NaN values of xs. The mean of the two
// middle values is used for even counts. ok is false when nothing is finite.
func NanMedian(xs []float64) (med float64, ok bool) {
	vals := make([]float64, 0, len(xs))
	for _, x := range xs {
		if !math.IsNaN(x) {
			vals = append(vals, x)
		}
	}
	if len(vals) == 0 {
		return math.NaN(), false
	}
	slices.Sort(vals)
	n := len(vals)
	if n%2 == 1 {
		return vals[n/2], true
	}
	return (vals[n/2-1] + vals[n/2]) / 2, true
}

// NanMin is the smallest non-NaN value of xs.
func NanMin(xs []float64) (float64, bool) {
	return nanReduce(xs, math.Min)
}

// NanMax is the largest non-NaN value of xs.
func NanMax(xs []float64) (float64, bool) {
	return nanReduce(xs, math.Max)
}

func nanReduce(xs []float64, f func(a, b float64) float64) (float64, bool) {
	acc, ok := math.NaN(), false
	for _, x := range xs {
		if math.IsNaN(x) {
			continue
		}
		if !ok {
			acc, ok = x, true
			continue
		}
		acc = f(acc, x)
	}
	return acc, ok
}
