package resolve

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macmcp/macmcp/internal/path"
	"github.com/macmcp/macmcp/internal/platform/fake"
	"github.com/macmcp/macmcp/internal/snapshot"
	"github.com/macmcp/macmcp/internal/toolerr"
)

func buildSnapshot(t *testing.T, root *fake.Node) *snapshot.Snapshot {
	t.Helper()
	p := fake.NewProvider()
	p.AddApplication("com.app", 1, root)
	r, err := p.ApplicationElement(context.Background(), "com.app", 0)
	require.NoError(t, err)
	snap, err := snapshot.Capture(context.Background(), p, r, snapshot.Options{})
	require.NoError(t, err)
	return snap
}

func TestResolveExactPath(t *testing.T) {
	snap := buildSnapshot(t, &fake.Node{
		Role: "AXApplication",
		Children: []*fake.Node{
			{Role: "AXButton", Desc: "2", Actions: []string{"AXPress"}},
		},
	})
	ref, err := ResolveString(snap, `macos://ui/AXApplication/AXButton[@AXDescription="2"]`)
	require.NoError(t, err)
	assert.Equal(t, "2", ref.Element.Description)
}

// Two buttons titled "OK" in different windows must report both candidates.
func TestResolveAmbiguousReportsCandidates(t *testing.T) {
	snap := buildSnapshot(t, &fake.Node{
		Role: "AXApplication",
		Children: []*fake.Node{
			{Role: "AXWindow", Identifier: "w1", Children: []*fake.Node{
				{Role: "AXButton", Title: "OK", Actions: []string{"AXPress"}},
			}},
			{Role: "AXWindow", Identifier: "w2", Children: []*fake.Node{
				{Role: "AXButton", Title: "OK", Actions: []string{"AXPress"}},
			}},
		},
	})
	_, err := ResolveString(snap, `macos://ui/AXApplication/AXButton[@AXTitle="OK"]`)
	require.Error(t, err)
	te, ok := toolerr.As(err)
	require.True(t, ok)
	assert.Equal(t, toolerr.Ambiguous, te.Code)
	require.Len(t, te.Candidates, 2)

	// Resolving either reported candidate path directly must succeed
	// without further ambiguity.
	for _, c := range te.Candidates {
		_, err := ResolveString(snap, c)
		assert.NoError(t, err, c)
	}
}

func TestResolveFuzzyFallbackOnCaseMismatch(t *testing.T) {
	snap := buildSnapshot(t, &fake.Node{
		Role: "AXApplication",
		Children: []*fake.Node{
			{Role: "AXButton", Title: "Save Document", Actions: []string{"AXPress"}},
		},
	})
	ref, err := ResolveString(snap, `macos://ui/AXApplication/AXButton[@AXTitle="save"]`)
	require.NoError(t, err)
	assert.Equal(t, "Save Document", ref.Element.Title)
	assert.NotEmpty(t, ref.FuzzyNote)
}

func TestResolveOverspecifiedDepthNotFound(t *testing.T) {
	snap := buildSnapshot(t, &fake.Node{
		Role: "AXApplication",
		Children: []*fake.Node{
			{Role: "AXButton", Title: "Leaf"},
		},
	})
	_, err := ResolveString(snap, `macos://ui/AXApplication/AXButton[@AXTitle="Leaf"]/AXStaticText`)
	require.Error(t, err)
	te, ok := toolerr.As(err)
	require.True(t, ok)
	assert.Equal(t, toolerr.NotFound, te.Code)
}

// Two buttons, so the role-only fuzzy fallback (which accepts a single
// surviving candidate) cannot rescue the non-matching predicate.
func TestResolveUnadvertisedAttributeIsNonMatchNotError(t *testing.T) {
	snap := buildSnapshot(t, &fake.Node{
		Role: "AXApplication",
		Children: []*fake.Node{
			{Role: "AXButton", Title: "OK"},
			{Role: "AXButton", Title: "Cancel"},
		},
	})
	_, err := ResolveString(snap, `macos://ui/AXApplication/AXButton[@AXIdentifier="nope"]`)
	require.Error(t, err)
	te, ok := toolerr.As(err)
	require.True(t, ok)
	assert.Equal(t, toolerr.NotFound, te.Code)
}

func TestResolveEmptyPathIsRoot(t *testing.T) {
	snap := buildSnapshot(t, &fake.Node{Role: "AXApplication"})
	ref, err := Resolve(snap, path.Path{})
	require.NoError(t, err)
	assert.Same(t, snap.Root, ref.Element)
}

// Adding a predicate must never increase the result set.
func TestFilterMonotonicity(t *testing.T) {
	snap := buildSnapshot(t, &fake.Node{
		Role: "AXApplication",
		Children: []*fake.Node{
			{Role: "AXButton", Title: "Save", Actions: []string{"AXPress"}},
			{Role: "AXButton", Title: "Cancel", Actions: []string{"AXPress"}},
		},
	})
	base := Apply(snap, Filter{})
	narrowed := Apply(snap, Filter{TitleContains: "Save"})
	assert.LessOrEqual(t, len(narrowed), len(base))
	for _, e := range narrowed {
		found := false
		for _, b := range base {
			if b == e {
				found = true
			}
		}
		assert.True(t, found)
	}
}
