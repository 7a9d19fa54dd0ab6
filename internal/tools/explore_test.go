package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macmcp/macmcp/internal/describe"
	"github.com/macmcp/macmcp/internal/toolerr"
)

func TestExploreUIScopeApplicationUnfiltered(t *testing.T) {
	f := newFixture(t)
	out, err := f.svc.exploreUI(context.Background(), mustJSON(t, exploreArgs{Scope: "application", BundleID: "com.example.app"}))
	require.NoError(t, err)
	d := out.(*describe.Descriptor)
	assert.Equal(t, "AXApplication", d.Role)
	require.Len(t, d.Children, 2) // menu bar + window
}

func TestExploreUIScopeApplicationFilteredToMainContent(t *testing.T) {
	f := newFixture(t)
	yes := true
	out, err := f.svc.exploreUI(context.Background(), mustJSON(t, exploreArgs{
		Scope: "application",
		BundleID: "com.example.app",
		Filter: &filterArgs{
			Interactable: &yes,
			InMainContent: &yes,
		},
	}))
	require.NoError(t, err)
	list := out.([]*describe.Descriptor)
	require.Len(t, list, 1)
	assert.Equal(t, "Save", list[0].Name)
}

func TestExploreUIScopePosition(t *testing.T) {
	f := newFixture(t)
	x, y := 20.0, 15.0
	out, err := f.svc.exploreUI(context.Background(), mustJSON(t, exploreArgs{Scope: "position", X: &x, Y: &y}))
	require.NoError(t, err)
	d := out.(*describe.Descriptor)
	assert.Equal(t, "AXButton", d.Role)
	assert.Equal(t, "Save", d.Name)
}

func TestExploreUIScopePositionRequiresXY(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.exploreUI(context.Background(), mustJSON(t, exploreArgs{Scope: "position"}))
	require.Error(t, err)
	te, ok := toolerr.As(err)
	require.True(t, ok)
	assert.Equal(t, toolerr.MalformedArgs, te.Code)
}

func TestExploreUIScopePathResolvesWithinApplication(t *testing.T) {
	f := newFixture(t)
	out, err := f.svc.exploreUI(context.Background(), mustJSON(t, exploreArgs{
		Scope: "path",
		BundleID: "com.example.app",
		ID: `macos://ui/AXApplication[@AXTitle="Example"]/AXWindow[@AXTitle="Main Window"]`,
	}))
	require.NoError(t, err)
	d := out.(*describe.Descriptor)
	assert.Equal(t, "AXWindow", d.Role)
}

func TestExploreUIScopePathRequiresBundleID(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.exploreUI(context.Background(), mustJSON(t, exploreArgs{Scope: "path", ID: "macos://ui/AXApplication"}))
	require.Error(t, err)
	te, ok := toolerr.As(err)
	require.True(t, ok)
	assert.Equal(t, toolerr.MalformedArgs, te.Code)
}

// explore_ui scope=system stitches every running application's own root
// under one synthetic display-only node (the resolveTarget design decision
// documented in services.go/captureSystem).
func TestExploreUIScopeSystemBuildsSyntheticRoot(t *testing.T) {
	f := newFixture(t)
	out, err := f.svc.exploreUI(context.Background(), mustJSON(t, exploreArgs{Scope: "system"}))
	require.NoError(t, err)
	d := out.(*describe.Descriptor)
	assert.Equal(t, "AXSystemWide", d.Role)
	require.Len(t, d.Children, 2)
}

func TestExploreUIUnknownScope(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.exploreUI(context.Background(), mustJSON(t, exploreArgs{Scope: "bogus"}))
	require.Error(t, err)
	te, ok := toolerr.As(err)
	require.True(t, ok)
	assert.Equal(t, toolerr.MalformedArgs, te.Code)
}
