package tools

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macmcp/macmcp/internal/toolerr"
)

func TestInteractUIClickByID(t *testing.T) {
	f := newFixture(t)
	out, err := f.svc.interactUI(context.Background(), mustJSON(t, interactArgs{
		Action: "click",
		BundleID: "com.example.app",
		ID: `macos://ui/AXApplication[@AXTitle="Example"]/AXWindow[@AXTitle="Main Window"]/AXButton[@AXTitle="Save"]`,
	}))
	require.NoError(t, err)
	res := out.(interactResult)
	assert.True(t, res.OK)
	assert.Contains(t, res.ResolvedID, "AXButton")
	require.Len(t, f.input.Events, 1)
	assert.Contains(t, f.input.Events[0], "click 35,20") // button center: x=10+25, y=10+10
}

func TestInteractUIClickByRawCoordinates(t *testing.T) {
	f := newFixture(t)
	x, y := 99.0, 42.0
	out, err := f.svc.interactUI(context.Background(), mustJSON(t, interactArgs{Action: "click", X: &x, Y: &y}))
	require.NoError(t, err)
	assert.True(t, out.(interactResult).OK)
	require.Len(t, f.input.Events, 1)
	assert.Contains(t, f.input.Events[0], "click 99,42")
}

func TestInteractUIRequiresIDOrCoordinates(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.interactUI(context.Background(), mustJSON(t, interactArgs{Action: "click"}))
	require.Error(t, err)
	te, ok := toolerr.As(err)
	require.True(t, ok)
	assert.Equal(t, toolerr.MalformedArgs, te.Code)
}

func TestInteractUIDragRequiresToXY(t *testing.T) {
	f := newFixture(t)
	x, y := 1.0, 2.0
	_, err := f.svc.interactUI(context.Background(), mustJSON(t, interactArgs{Action: "drag", X: &x, Y: &y}))
	require.Error(t, err)
	te, ok := toolerr.As(err)
	require.True(t, ok)
	assert.Equal(t, toolerr.MalformedArgs, te.Code)
}

func TestInteractUIDisabledElementFails(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.interactUI(context.Background(), mustJSON(t, interactArgs{
		Action: "click",
		BundleID: "com.example.app",
		ID: `macos://ui/AXApplication[@AXTitle="Example"]/AXWindow[@AXTitle="Main Window"]/AXButton[@AXTitle="Disabled"]`,
	}))
	require.Error(t, err)
	te, ok := toolerr.As(err)
	require.True(t, ok)
	assert.Equal(t, toolerr.Disabled, te.Code)
	assert.Empty(t, f.input.Events)
}

func TestInteractUIWithChangeDetection(t *testing.T) {
	f := newFixture(t)
	out, err := f.svc.interactUI(context.Background(), mustJSON(t, interactArgs{
		Action: "click",
		BundleID: "com.example.app",
		ID: `macos://ui/AXApplication[@AXTitle="Example"]/AXWindow[@AXTitle="Main Window"]/AXButton[@AXTitle="Save"]`,
		DetectChanges: true,
	}))
	require.NoError(t, err)
	res := out.(interactResult)
	assert.True(t, res.OK)
	// The click synthesizes input only (the fake Input Provider doesn't
	// mutate the accessibility tree), so before/after are identical: the
	// report is attached but empty.
	require.NotNil(t, res.ChangeReport)
	assert.Empty(t, res.ChangeReport.Added)
	assert.Empty(t, res.ChangeReport.Removed)
	assert.Empty(t, res.ChangeReport.Modified)
}

// A per-call changeDetectionDelay overrides the configured default rather
// than being accepted and silently discarded.
func TestInteractUIChangeDetectionDelayOverridesConfigDefault(t *testing.T) {
	f := newFixture(t)
	start := time.Now()
	_, err := f.svc.interactUI(context.Background(), mustJSON(t, interactArgs{
		Action: "click",
		BundleID: "com.example.app",
		ID: `macos://ui/AXApplication[@AXTitle="Example"]/AXWindow[@AXTitle="Main Window"]/AXButton[@AXTitle="Save"]`,
		DetectChanges: true,
		ChangeDetectionDelay: 5,
	}))
	elapsed := time.Since(start)
	require.NoError(t, err)
	// The configured default is 200ms; an override of 5ms that was silently
	// ignored would push this well past 100ms.
	assert.Less(t, elapsed, 100*time.Millisecond)
}
