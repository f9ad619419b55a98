// ABOUTME: Time-bounded history of recent scaled wheel samples
// ABOUTME: Pruned on every insert; timestamps are kept non-decreasing

package scroll

import "time"

const (
	// HistoryWindow is how long a sample stays relevant to velocity estimation
	HistoryWindow = 150 * time.Millisecond

	// MinFlingSamples is the fewest samples a fling may start from
	MinFlingSamples = 3
)

// Sample is one scaled input displacement
type Sample struct {
	DX, DY float64
	At     time.Duration
	Target Element
}

// History holds the samples inside the retention window, oldest first
type History struct {
	window  time.Duration
	samples []Sample
}

// NewHistory creates an empty history; a non-positive window uses HistoryWindow
func NewHistory(window time.Duration) *History {
	if window <= 0 {
		window = HistoryWindow
	}
	return &History{window: window}
}

// Push appends s and drops samples that fell out of the window
// A timestamp earlier than the newest sample is clamped to it.
func (h *History) Push(s Sample) {
	if n := len(h.samples); n > 0 && s.At < h.samples[n-1].At {
		s.At = h.samples[n-1].At
	}
	h.samples = append(h.samples, s)
	h.Prune(s.At)
}

// Prune drops samples with now - At >= window
func (h *History) Prune(now time.Duration) {
	keep := 0
	for keep < len(h.samples) && now-h.samples[keep].At >= h.window {
		keep++
	}
	if keep == 0 {
		return
	}
	// Shift down so the backing array does not grow without bound
	n := copy(h.samples, h.samples[keep:])
	clear(h.samples[n:])
	h.samples = h.samples[:n]
}

// Len returns the number of samples held
func (h *History) Len() int {
	return len(h.samples)
}

// Samples returns a copy of the samples, oldest first
func (h *History) Samples() []Sample {
	out := make([]Sample, len(h.samples))
	copy(out, h.samples)
	return out
}

// Latest returns the newest sample
func (h *History) Latest() (Sample, bool) {
	if len(h.samples) == 0 {
		return Sample{}, false
	}
	return h.samples[len(h.samples)-1], true
}

// Reset drops every sample
func (h *History) Reset() {
	clear(h.samples)
	h.samples = h.samples[:0]
}

// span returns newest minus oldest timestamp in ms
func (h *History) span() float64 {
	if len(h.samples) < 2 {
		return 0
	}
	return durationMs(h.samples[len(h.samples)-1].At - h.samples[0].At)
}

func durationMs(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
