package idallocator

import (
	"crypto/rand"
	"io"
	"sync"
	"time"

	idallocatorv1 "github.com/muhammadchandra19/market-simulator/internal/domain/idallocator/v1"
	"github.com/oklog/ulid/v2"
)

var _ idallocatorv1.Allocator = (*ULID)(nil)

// ULID hands out lexicographically sortable ids that stay unique across processes.
type ULID struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
	now     func() time.Time
	lastMS  uint64
}

// NewULID returns a ULID allocator backed by crypto/rand.
func NewULID() *ULID {
	return newULID(rand.Reader, time.Now)
}

func newULID(source io.Reader, now func() time.Time) *ULID {
	return &ULID{
		entropy: ulid.Monotonic(source, 0),
		now:     now,
	}
}

// NextID returns the next ULID. Ids minted by one allocator are strictly increasing,
// including when the clock stalls or steps back.
func (u *ULID) NextID() string {
	u.mu.Lock()
	defer u.mu.Unlock()

	ms := ulid.Timestamp(u.now())
	if ms < u.lastMS {
		ms = u.lastMS
	}
	for {
		id, err := ulid.New(ms, u.entropy)
		if err == nil {
			u.lastMS = ms
			return id.String()
		}
		// entropy exhausted within this millisecond, move to the next one
		ms++
	}
}
