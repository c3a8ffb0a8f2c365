package core

import (
	"strconv"
	"sync"
	"time"
)

// IDSource hands out transaction IDs derived from the creation clock reading.
// Readings that do not advance past the previous ID are bumped by one nanosecond,
// so IDs stay unique and increasing for the lifetime of the source.
type IDSource struct {
	mu   sync.Mutex
	last int64
}

func NewIDSource() *IDSource {
	return &IDSource{}
}

// Next returns the ID for a transaction created at now.
func (s *IDSource) Next(now time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := now.UnixNano()
	if n <= s.last {
		n = s.last + 1
	}
	s.last = n
	return strconv.FormatInt(n, 10)
}
