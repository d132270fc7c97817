package idallocatorv1

// Allocator hands out order ids that are unique for the lifetime of a simulation
// and strictly increasing in their own ordering.
type Allocator interface {
	NextID() string
}
