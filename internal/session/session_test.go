package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macmcp/macmcp/internal/toolerr"
)

func TestToolsCallBeforeInitializeIsRejected(t *testing.T) {
	s := New()
	err := s.CheckMethod("tools/call")
	require.Error(t, err)
	te, ok := toolerr.As(err)
	require.True(t, ok)
	assert.Equal(t, toolerr.InvalidScope, te.Code)
}

func TestLifecycleHappyPath(t *testing.T) {
	s := New()
	require.NoError(t, s.Initialize())
	assert.NoError(t, s.CheckMethod("tools/call"))
	assert.NoError(t, s.CheckMethod("shutdown"))

	require.NoError(t, s.BeginShutdown())
	assert.Error(t, s.CheckMethod("tools/call"))
	assert.NoError(t, s.CheckMethod("shutdown")) // idempotent

	s.Terminate()
	assert.Equal(t, Terminated, s.State())
	assert.Error(t, s.CheckMethod("ping"))
}

func TestDuplicateInitializeRejected(t *testing.T) {
	s := New()
	require.NoError(t, s.Initialize())
	assert.Error(t, s.Initialize())
}

func TestShutdownBeforeInitializeRejected(t *testing.T) {
	s := New()
	assert.Error(t, s.BeginShutdown())
}

func TestRecordPingGap(t *testing.T) {
	s := New()
	assert.Zero(t, s.RecordPing(), "first ping has no prior ping to measure a gap against")
	gap := s.RecordPing()
	assert.GreaterOrEqual(t, gap, time.Duration(0))
}
