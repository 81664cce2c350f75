package signal

import "gonum.org/v1/gonum/stat"

// DefaultHistoryCapacity bounds each rolling history to roughly one second
// of samples at typical pose-stream frame rates.
const DefaultHistoryCapacity = 30

// History is a fixed-capacity ring buffer of scalars. Once full, each push
// silently drops the oldest entry. It exists solely to feed the smoothness
// criterion of the scoring rubric.
type History struct {
	buf  []float64
	head int // index of the oldest entry
	n    int
}

// NewHistory returns a history with the given capacity; non-positive
// capacities fall back to DefaultHistoryCapacity.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &History{buf: make([]float64, capacity)}
}

// Push appends a value, evicting the oldest entry when full.
func (h *History) Push(v float64) {
	if h.n < len(h.buf) {
		h.buf[(h.head+h.n)%len(h.buf)] = v
		h.n++
		return
	}
	h.buf[h.head] = v
	h.head = (h.head + 1) % len(h.buf)
}

// Len returns the number of stored values.
func (h *History) Len() int {
	return h.n
}

// Cap returns the fixed capacity.
func (h *History) Cap() int {
	return len(h.buf)
}

// Values returns a copy of the stored values, oldest first.
func (h *History) Values() []float64 {
	out := make([]float64, h.n)
	for i := 0; i < h.n; i++ {
		out[i] = h.buf[(h.head+i)%len(h.buf)]
	}
	return out
}

// PopStdDev returns the population standard deviation of the stored
// values, or 0 when fewer than two values are stored. Callers that need a
// minimum-sample rule (the scoring rubric skips short histories) apply it
// on top of Len.
func (h *History) PopStdDev() float64 {
	if h.n < 2 {
		return 0
	}
	return stat.PopStdDev(h.Values(), nil)
}

// Reset empties the history without reallocating.
func (h *History) Reset() {
	h.head = 0
	h.n = 0
}
