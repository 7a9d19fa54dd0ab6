package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macmcp/macmcp/internal/platform"
)

func TestRetryReadRetriesOnNoValue(t *testing.T) {
	calls := 0
	v, err := RetryRead(context.Background(), DefaultReadPolicy(), func() (string, error) {
		calls++
		if calls < 2 {
			return "", platform.ErrNoValue
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, 2, calls)
}

func TestRetryReadDoesNotRetryPermissionDenied(t *testing.T) {
	calls := 0
	_, err := RetryRead(context.Background(), DefaultReadPolicy(), func() (string, error) {
		calls++
		return "", platform.ErrPermissionDenied
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryReadGivesUpAfterMaxTries(t *testing.T) {
	calls := 0
	policy := DefaultReadPolicy()
	policy.MaxTries = 2
	_, err := RetryRead(context.Background(), policy, func() (string, error) {
		calls++
		return "", platform.ErrAttributeUnsupported
	})
	require.Error(t, err)
	assert.Equal(t, 2, calls)
}
