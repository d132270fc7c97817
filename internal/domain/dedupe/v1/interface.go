package dedupev1

import "context"

// Gate remembers which settlements were already applied.
//
//go:generate mockgen -source interface.go -destination=mock/interface_mock.go -package=dedupev1_mock
type Gate interface {
	// MarkIfNew records orderID and reports whether it was seen for the first time.
	MarkIfNew(ctx context.Context, orderID string) (bool, error)
}
