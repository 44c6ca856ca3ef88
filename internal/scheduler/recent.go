package scheduler

// History is the anti-repeat window for automatic publications: a bounded
// FIFO of recently auto-posted catalog keys. Not safe for concurrent use;
// the scheduler goroutine is its only caller.
type History struct {
	capacity int
	keys     []string
}

// NewHistory returns a history retaining up to capacity keys. A capacity
// under 1 falls back to 1 so the window never degenerates to "repeat freely".
func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = 1
	}
	return &History{capacity: capacity}
}

// Add records a key as recently posted, evicting the oldest entry once the
// window is full.
func (h *History) Add(key string) {
	h.keys = append(h.keys, key)
	if len(h.keys) > h.capacity {
		h.keys = h.keys[1:]
	}
}

// Contains reports whether key is inside the anti-repeat window.
func (h *History) Contains(key string) bool {
	for _, k := range h.keys {
		if k == key {
			return true
		}
	}
	return false
}

// Len returns the number of keys currently tracked.
func (h *History) Len() int { return len(h.keys) }
