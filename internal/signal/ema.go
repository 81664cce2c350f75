package signal

// DefaultSmoothingAlpha is the canonical decay factor: heavy smoothing
// biased toward the previous value.
const DefaultSmoothingAlpha = 0.9

// EMA is an exponential moving average over a scalar signal. The first
// observed value seeds the filter unmodified; every later update computes
// alpha*previous + (1-alpha)*raw. Output therefore stays within the convex
// hull of all inputs seen and converges toward any constant input stream.
type EMA struct {
	alpha  float64
	value  float64
	seeded bool
}

// NewEMA returns a filter with the given decay factor. Alpha must be in
// [0, 1); values outside fall back to DefaultSmoothingAlpha.
func NewEMA(alpha float64) *EMA {
	if alpha < 0 || alpha >= 1 {
		alpha = DefaultSmoothingAlpha
	}
	return &EMA{alpha: alpha}
}

// Update feeds one raw sample and returns the new smoothed value.
func (e *EMA) Update(raw float64) float64 {
	if !e.seeded {
		e.value = raw
		e.seeded = true
		return e.value
	}
	e.value = e.alpha*e.value + (1-e.alpha)*raw
	return e.value
}

// Value returns the current smoothed value (zero before the first update).
func (e *EMA) Value() float64 {
	return e.value
}

// Seeded reports whether the filter has observed at least one sample.
func (e *EMA) Seeded() bool {
	return e.seeded
}

// Reset discards all state; the next update seeds the filter again.
func (e *EMA) Reset() {
	e.value = 0
	e.seeded = false
}
