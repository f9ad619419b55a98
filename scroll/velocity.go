// ABOUTME: Average velocity estimate over the sample history
// ABOUTME: Velocities are px/ms; no estimate without two samples spanning time

package scroll

import "math"

// Velocity is a 2D scroll velocity in px/ms
type Velocity struct {
	X, Y float64
}

// Speed returns the velocity magnitude
func (v Velocity) Speed() float64 {
	return math.Hypot(v.X, v.Y)
}

// Scale returns v with both components multiplied by f
func (v Velocity) Scale(f float64) Velocity {
	return Velocity{X: v.X * f, Y: v.Y * f}
}

// Estimate returns the average velocity across the history
// The oldest sample is the baseline: displacements are summed from the second
// sample on and divided by the time between the oldest and newest samples.
func Estimate(h *History) (Velocity, bool) {
	if h == nil || h.Len() < 2 {
		return Velocity{}, false
	}

	dt := h.span()
	if dt <= 0 {
		return Velocity{}, false
	}

	var sumX, sumY float64
	for _, s := range h.samples[1:] {
		sumX += s.DX
		sumY += s.DY
	}

	return Velocity{X: sumX / dt, Y: sumY / dt}, true
}
