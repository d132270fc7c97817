package idallocator

import (
	"bytes"
	"strconv"
	"sync"
	"testing"
	"time"

	idallocatorv1 "github.com/muhammadchandra19/market-simulator/internal/domain/idallocator/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequential_StartsAt(t *testing.T) {
	testCases := []struct {
		name     string
		start    uint64
		expected []string
	}{
		{name: "default start", start: 0, expected: []string{"1", "2", "3"}},
		{name: "explicit start", start: 1, expected: []string{"1", "2", "3"}},
		{name: "resume after restart", start: 500, expected: []string{"500", "501", "502"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := NewSequential(tc.start)
			for _, want := range tc.expected {
				assert.Equal(t, want, s.NextID())
			}
		})
	}
}

func TestULID_ClockStepsBack(t *testing.T) {
	clock := time.UnixMilli(1_700_000_000_000)
	u := newULID(bytes.NewReader(bytes.Repeat([]byte{7}, 4096)), func() time.Time { return clock })

	first := u.NextID()
	clock = clock.Add(-time.Second)
	second := u.NextID()

	assert.Less(t, first, second)
}

func TestAllocators_ConcurrentIdsAreUnique(t *testing.T) {
	testCases := []struct {
		name      string
		allocator idallocatorv1.Allocator
		less      func(a, b string) bool
	}{
		{
			name:      "sequential",
			allocator: NewSequential(1),
			less: func(a, b string) bool {
				x, _ := strconv.ParseUint(a, 10, 64)
				y, _ := strconv.ParseUint(b, 10, 64)
				return x < y
			},
		},
		{
			name:      "ulid",
			allocator: NewULID(),
			less:      func(a, b string) bool { return a < b },
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			const workers, perWorker = 8, 500
			results := make([][]string, workers)

			var wg sync.WaitGroup
			for w := 0; w < workers; w++ {
				wg.Add(1)
				go func(w int) {
					defer wg.Done()
					for i := 0; i < perWorker; i++ {
						results[w] = append(results[w], tc.allocator.NextID())
					}
				}(w)
			}
			wg.Wait()

			seen := make(map[string]struct{}, workers*perWorker)
			for _, ids := range results {
				for i, id := range ids {
					_, dup := seen[id]
					require.False(t, dup, "duplicate id %s", id)
					seen[id] = struct{}{}
					// each worker observes its own ids in increasing order
					if i > 0 {
						require.True(t, tc.less(ids[i-1], id), "%s !< %s", ids[i-1], id)
					}
				}
			}
			assert.Len(t, seen, workers*perWorker)
		})
	}
}
