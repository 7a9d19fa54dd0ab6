package describe

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macmcp/macmcp/internal/platform"
	"github.com/macmcp/macmcp/internal/platform/fake"
	"github.com/macmcp/macmcp/internal/snapshot"
)

func capture(t *testing.T, root *fake.Node) *snapshot.Snapshot {
	t.Helper()
	p := fake.NewProvider()
	p.AddApplication("com.app", 1, root)
	r, err := p.ApplicationElement(context.Background(), "com.app", 0)
	require.NoError(t, err)
	snap, err := snapshot.Capture(context.Background(), p, r, snapshot.Options{})
	require.NoError(t, err)
	return snap
}

// Default-state fields and a name equal to the role must both be suppressed.
func TestDescribeSuppressesDefaultStateAndRedundantName(t *testing.T) {
	snap := capture(t, &fake.Node{Role: "AXButton", Title: "AXButton", Identifier: "btn1", Actions: []string{"AXPress"}})
	d := Describe(snap.Root, Options{})
	assert.Empty(t, d.Name, "name equals role, must be suppressed")
	for _, bad := range []string{"enabled", "visible", "unfocused", "unselected"} {
		assert.NotContains(t, d.State, bad)
	}
}

func TestDescribeEmitsNonDefaultState(t *testing.T) {
	falseVal := false
	snap := capture(t, &fake.Node{Role: "AXButton", Title: "Go", Enabled: boolPtr(false), Visible: boolPtr(false), Focused: boolPtr(true), Expanded: &falseVal})
	d := Describe(snap.Root, Options{})
	assert.Contains(t, d.State, "disabled")
	assert.Contains(t, d.State, "hidden")
	assert.Contains(t, d.State, "focused")
	assert.Contains(t, d.State, "collapsed")
}

func TestDescribeOmitsCoordinatesAndActionsByDefault(t *testing.T) {
	frame := platform.Rect{X: 1, Y: 2, W: 3, H: 4}
	snap := capture(t, &fake.Node{Role: "AXButton", Title: "Go", Actions: []string{"AXPress"}, Frame: &frame})
	d := Describe(snap.Root, Options{})
	assert.Nil(t, d.Frame)
	assert.Nil(t, d.Actions)

	d2 := Describe(snap.Root, Options{ShowCoordinates: true, ShowActions: true})
	require.NotNil(t, d2.Frame)
	assert.NotEmpty(t, d2.Actions)
}

func boolPtr(b bool) *bool { return &b }
