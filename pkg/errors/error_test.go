package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	details := NewErrorDetails("not enough shares", string(InsufficientSharesError), "quantity")

	testCases := []struct {
		name     string
		err      error
		code     ErrorCode
		expected bool
	}{
		{
			name:     "bare details",
			err:      details,
			code:     InsufficientSharesError,
			expected: true,
		},
		{
			name:     "wrapped in tracer",
			err:      NewTracer("apply settlement").Wrap(details),
			code:     InsufficientSharesError,
			expected: true,
		},
		{
			name:     "wrapped with fmt",
			err:      fmt.Errorf("client 4: %w", details),
			code:     InsufficientSharesError,
			expected: true,
		},
		{
			name:     "different code",
			err:      details,
			code:     InsufficientCapitalError,
			expected: false,
		},
		{
			name:     "plain error",
			err:      stderrors.New("boom"),
			code:     InsufficientSharesError,
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			code:     InsufficientSharesError,
			expected: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, HasCode(tc.err, tc.code))
		})
	}
}

func TestErrorCodeEquals(t *testing.T) {
	details := NewErrorDetails("duplicate", string(SettlementDuplicateError), "order_id")
	assert.True(t, ErrorCodeEquals(details, string(SettlementDuplicateError)))
	assert.False(t, ErrorCodeEquals(NewTracer("x").Wrap(details), string(SettlementDuplicateError)))
}

func TestTracer(t *testing.T) {
	root := NewErrorDetails("decode", string(TransportDecodeError), "value")
	tracer := NewTracer("read order").Wrap(root)

	assert.Equal(t, "read order", tracer.Error())
	assert.NotNil(t, tracer.StackTrace())
	assert.True(t, stderrors.Is(tracer, root))

	fromErr := TracerFromError(root)
	require.NotNil(t, fromErr)
	assert.Equal(t, "decode", fromErr.Error())
	assert.Equal(t, TransportDecodeError, CodeOf(fromErr))
}

func TestTracer_Cause(t *testing.T) {
	root := NewErrorDetails("no leader", string(GeneralInternalServerError), "kafka")
	outer := NewTracer("publish decisions").Wrap(NewTracer("write batch").Wrap(root))

	assert.Equal(t, root, outer.Cause())
	assert.Nil(t, NewTracer("empty").Cause())
}

func TestIsLedgerInvariantViolation(t *testing.T) {
	assert.True(t, IsLedgerInvariantViolation(InsufficientCapitalError))
	assert.True(t, IsLedgerInvariantViolation(InsufficientSharesError))
	assert.True(t, IsLedgerInvariantViolation(LedgerInvariantViolationError))
	assert.False(t, IsLedgerInvariantViolation(SettlementDuplicateError))
}
