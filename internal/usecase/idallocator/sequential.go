package idallocator

import (
	"strconv"
	"sync/atomic"

	idallocatorv1 "github.com/muhammadchandra19/market-simulator/internal/domain/idallocator/v1"
)

var _ idallocatorv1.Allocator = (*Sequential)(nil)

// Sequential hands out decimal ids from a process-wide atomic counter.
type Sequential struct {
	last atomic.Uint64
}

// NewSequential returns an allocator whose first id is start.
func NewSequential(start uint64) *Sequential {
	s := &Sequential{}
	if start > 0 {
		s.last.Store(start - 1)
	}
	return s
}

// Next returns the next numeric id.
func (s *Sequential) Next() uint64 {
	return s.last.Add(1)
}

// NextID returns the next id as a decimal string.
func (s *Sequential) NextID() string {
	return strconv.FormatUint(s.Next(), 10)
}
