// ABOUTME: Detects a hand that is visibly slowing down when input stops
// ABOUTME: Fits a least-squares line through per-sample speeds over time

package scroll

import "math"

// DecelerationSlope is the fitted slope, in px/ms², below which motion counts as slowing
const DecelerationSlope = -0.01

type speedPoint struct {
	t     float64 // ms since the window start
	speed float64 // px/ms
}

// IsDecelerating reports whether speeds across the history are falling
// Needs three derived points; with fewer the answer is false so flings stay allowed.
func IsDecelerating(h *History) bool {
	points := speedPoints(h)
	if len(points) < 3 {
		return false
	}

	var mean float64
	for _, p := range points {
		mean += p.speed
	}
	mean /= float64(len(points))

	final := points[len(points)-1].speed
	return linearFitSlope(points) < DecelerationSlope && final < mean
}

// speedPoints derives one speed per sample from its displacement and the gap
// to the previous sample; the first sample uses the gap to the second.
func speedPoints(h *History) []speedPoint {
	if h == nil || len(h.samples) < 2 {
		return nil
	}

	samples := h.samples
	start := samples[0].At
	points := make([]speedPoint, 0, len(samples))

	for i, s := range samples {
		var gap float64
		if i == 0 {
			gap = durationMs(samples[1].At - s.At)
		} else {
			gap = durationMs(s.At - samples[i-1].At)
		}
		if gap <= 0 {
			continue
		}

		points = append(points, speedPoint{
			t:     durationMs(s.At - start),
			speed: math.Hypot(s.DX, s.DY) / gap,
		})
	}

	return points
}

// linearFitSlope computes the ordinary least squares slope of speed over time
func linearFitSlope(points []speedPoint) float64 {
	n := len(points)
	if n < 2 {
		return 0
	}

	// Least squares: slope = (n*sum(xy) - sum(x)*sum(y)) / (n*sum(x^2) - (sum(x))^2)
	var sumX, sumY, sumXX, sumXY float64
	for _, p := range points {
		sumX += p.t
		sumY += p.speed
		sumXX += p.t * p.t
		sumXY += p.t * p.speed
	}

	nf := float64(n)
	denom := nf*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}

	return (nf*sumXY - sumX*sumY) / denom
}
