package snapshot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macmcp/macmcp/internal/platform/fake"
)

func calculatorFixture() *fake.Node {
	btn := func(desc string) *fake.Node {
		return &fake.Node{Role: "AXButton", Desc: desc, Actions: []string{"AXPress"}}
	}
	return &fake.Node{
		Role: "AXApplication",
		Children: []*fake.Node{
			{Role: "AXWindow", Children: []*fake.Node{
				btn("2"), btn("+"), btn("="),
			}},
		},
	}
}

func TestCaptureBuildsTreeAndPaths(t *testing.T) {
	p := fake.NewProvider()
	p.AddApplication("com.apple.calculator", 100, calculatorFixture())
	root, err := p.ApplicationElement(context.Background(), "com.apple.calculator", 0)
	require.NoError(t, err)

	snap, err := Capture(context.Background(), p, root, Options{})
	require.NoError(t, err)
	require.NotNil(t, snap.Root)
	assert.Equal(t, "AXApplication", snap.Root.Role)
	require.Len(t, snap.Root.Children, 1)
	window := snap.Root.Children[0]
	require.Len(t, window.Children, 3)
	assert.Equal(t, `macos://ui/AXApplication/AXWindow/AXButton[@AXDescription="2"]`, window.Children[0].FullPath.String())
	assert.Equal(t, `macos://ui/AXApplication/AXWindow/AXButton[@AXDescription="+"]`, window.Children[1].FullPath.String())
	assert.False(t, snap.BoundReached)
}

func TestCaptureRespectsMaxDepth(t *testing.T) {
	p := fake.NewProvider()
	p.AddApplication("com.app", 1, calculatorFixture())
	root, _ := p.ApplicationElement(context.Background(), "com.app", 0)

	snap, err := Capture(context.Background(), p, root, Options{MaxDepth: 1})
	require.NoError(t, err)
	assert.True(t, snap.BoundReached)
	require.Len(t, snap.Root.Children, 1)
	assert.Empty(t, snap.Root.Children[0].Children)
}

func TestCaptureChildReadErrorIsLocalNotFatal(t *testing.T) {
	p := fake.NewProvider()
	okChild := &fake.Node{Role: "AXButton", Desc: "ok", Actions: []string{"AXPress"}}
	badChild := &fake.Node{Role: "AXGroup", FailChildren: assertErr{}}
	root := &fake.Node{Role: "AXApplication", Children: []*fake.Node{okChild, badChild}}
	p.AddApplication("com.app", 1, root)
	r, _ := p.ApplicationElement(context.Background(), "com.app", 0)

	snap, err := Capture(context.Background(), p, r, Options{})
	require.NoError(t, err)
	require.Len(t, snap.Root.Children, 2)
	assert.NotEmpty(t, snap.Root.Children[1].CaptureError)
}

type assertErr struct{}

func (assertErr) Error() string { return "simulated platform failure" }
