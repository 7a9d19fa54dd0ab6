package diff

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macmcp/macmcp/internal/platform"
	"github.com/macmcp/macmcp/internal/platform/fake"
	"github.com/macmcp/macmcp/internal/snapshot"
)

func captureFixture(t *testing.T, root *fake.Node) *snapshot.Snapshot {
	t.Helper()
	p := fake.NewProvider()
	p.AddApplication("com.app", 1, root)
	r, err := p.ApplicationElement(context.Background(), "com.app", 0)
	require.NoError(t, err)
	snap, err := snapshot.Capture(context.Background(), p, r, snapshot.Options{})
	require.NoError(t, err)
	return snap
}

// keystroke change detection.
func TestDiffDetectsValueModification(t *testing.T) {
	before := captureFixture(t, &fake.Node{
		Role: "AXApplication",
		Children: []*fake.Node{{Role: "AXTextField", Identifier: "field1"}},
	})
	after := captureFixture(t, &fake.Node{
		Role: "AXApplication",
		Children: []*fake.Node{{Role: "AXTextField", Identifier: "field1", Value: "hello"}},
	})

	report := Diff(before, after, Options{})
	require.Len(t, report.Modified, 1)
	assert.Empty(t, report.Modified[0].BeforeValue)
	assert.Equal(t, "hello", report.Modified[0].AfterValue)
}

func TestDiffAddedAndRemoved(t *testing.T) {
	before := captureFixture(t, &fake.Node{
		Role: "AXApplication",
		Children: []*fake.Node{{Role: "AXButton", Title: "Gone"}},
	})
	after := captureFixture(t, &fake.Node{
		Role: "AXApplication",
		Children: []*fake.Node{{Role: "AXButton", Title: "New"}},
	})
	report := Diff(before, after, Options{})
	require.Len(t, report.Added, 1)
	require.Len(t, report.Removed, 1)
	assert.Equal(t, "New", report.Added[0].Title)
	assert.Equal(t, "Gone", report.Removed[0].Title)
}

// diff(A,B).added == diff(B,A).removed (up to ordering).
func TestDiffSymmetry(t *testing.T) {
	a := captureFixture(t, &fake.Node{
		Role: "AXApplication",
		Children: []*fake.Node{{Role: "AXButton", Title: "X"}},
	})
	b := captureFixture(t, &fake.Node{
		Role: "AXApplication",
		Children: []*fake.Node{{Role: "AXButton", Title: "Y"}},
	})
	ab := Diff(a, b, Options{})
	ba := Diff(b, a, Options{})
	require.Len(t, ab.Added, 1)
	require.Len(t, ba.Removed, 1)
	assert.Equal(t, ab.Added[0].Title, ba.Removed[0].Title)
}

func TestDiffFrameToleranceIgnoresSubPixelJitter(t *testing.T) {
	before := captureFixture(t, &fake.Node{
		Role: "AXApplication",
		Children: []*fake.Node{{Role: "AXButton", Title: "B", Frame: &rectFixture}},
	})
	jittered := rectFixture
	jittered.X += 0.4
	after := captureFixture(t, &fake.Node{
		Role: "AXApplication",
		Children: []*fake.Node{{Role: "AXButton", Title: "B", Frame: &jittered}},
	})
	report := Diff(before, after, Options{})
	assert.Empty(t, report.Modified)
}

var rectFixture = platform.Rect{X: 10, Y: 10, W: 20, H: 20}

// A renamed field or a dropped state transition changes this report's shape,
// not just one of its values; cmp.Diff surfaces that shape change in one
// readable block instead of a wall of individual assert.Equal calls.
func TestDiffModifiedReportShape(t *testing.T) {
	before := captureFixture(t, &fake.Node{
		Role: "AXApplication",
		Children: []*fake.Node{{Role: "AXCheckBox", Identifier: "opt1", Value: "0", Enabled: boolp(true)}},
	})
	after := captureFixture(t, &fake.Node{
		Role: "AXApplication",
		Children: []*fake.Node{{Role: "AXCheckBox", Identifier: "opt1", Value: "1", Enabled: boolp(false)}},
	})

	report := Diff(before, after, Options{})
	require.Len(t, report.Modified, 1)

	want := Modified{
		Path: report.Modified[0].Path,
		BeforeValue: "0",
		AfterValue: "1",
		BeforeState: []string{"enabled", "visible"},
		AfterState: []string{"disabled", "visible"},
	}
	if diff := cmp.Diff(want, report.Modified[0]); diff != "" {
		t.Errorf("Modified report mismatch (-want +got):\n%s", diff)
	}
}

func boolp(b bool) *bool { return &b }
