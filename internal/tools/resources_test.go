package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macmcp/macmcp/internal/describe"
	"github.com/macmcp/macmcp/internal/platform"
	"github.com/macmcp/macmcp/internal/toolerr"
)

func TestServicesApplications(t *testing.T) {
	f := newFixture(t)
	out, err := f.svc.Applications(context.Background())
	require.NoError(t, err)
	assert.Len(t, out.([]platform.RunningApplication), 2)
}

func TestServicesApplicationWindows(t *testing.T) {
	f := newFixture(t)
	out, err := f.svc.ApplicationWindows(context.Background(), "com.example.app")
	require.NoError(t, err)
	list := out.([]*describe.Descriptor)
	require.Len(t, list, 1)
	assert.Equal(t, "Main Window", list[0].Name)
}

func TestServicesApplicationMenus(t *testing.T) {
	f := newFixture(t)
	out, err := f.svc.ApplicationMenus(context.Background(), "com.example.app")
	require.NoError(t, err)
	d := out.(*describe.Descriptor)
	assert.Equal(t, "AXMenuBar", d.Role)
}

// UIElement has no bundleId in its URI, so it must try every running
// application's freshly captured tree until one matches.
func TestServicesUIElementTriesEveryApplication(t *testing.T) {
	f := newFixture(t)
	out, err := f.svc.UIElement(context.Background(), `macos://ui/AXApplication[@AXTitle="Other"]/AXWindow[@AXTitle="Other Window"]`)
	require.NoError(t, err)
	d := out.(*describe.Descriptor)
	assert.Equal(t, "AXWindow", d.Role)
	assert.Equal(t, "Other Window", d.Name)
}

func TestServicesUIElementNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.UIElement(context.Background(), `macos://ui/AXApplication[@AXTitle="Nonexistent"]`)
	require.Error(t, err)
	te, ok := toolerr.As(err)
	require.True(t, ok)
	assert.Equal(t, toolerr.NotFound, te.Code)
}
