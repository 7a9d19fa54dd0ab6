package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macmcp/macmcp/internal/toolerr"
)

func TestKeyboardTypeText(t *testing.T) {
	f := newFixture(t)
	out, err := f.svc.keyboard(context.Background(), mustJSON(t, keyboardArgs{Action: "type_text", Text: "hello"}))
	require.NoError(t, err)
	assert.True(t, out.(interactResult).OK)
	require.Len(t, f.input.Events, 1)
	assert.Contains(t, f.input.Events[0], `typeText "hello"`)
}

func TestKeyboardPressKey(t *testing.T) {
	f := newFixture(t)
	out, err := f.svc.keyboard(context.Background(), mustJSON(t, keyboardArgs{Action: "press_key", KeyCode: 36, Modifiers: []string{"cmd"}}))
	require.NoError(t, err)
	assert.True(t, out.(interactResult).OK)
	require.Len(t, f.input.Events, 1)
	assert.Contains(t, f.input.Events[0], "pressKey 36")
}

func TestKeyboardKeySequence(t *testing.T) {
	f := newFixture(t)
	out, err := f.svc.keyboard(context.Background(), mustJSON(t, keyboardArgs{
		Action: "key_sequence",
		Events: []keyEventArgs{
			{Kind: "press", KeyCode: 56},
			{Kind: "release", KeyCode: 56},
		},
	}))
	require.NoError(t, err)
	assert.True(t, out.(interactResult).OK)
	require.Len(t, f.input.Events, 1)
	assert.Contains(t, f.input.Events[0], "keySequence 2 events")
}

func TestKeyboardUnknownAction(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.keyboard(context.Background(), mustJSON(t, keyboardArgs{Action: "bogus"}))
	require.Error(t, err)
	te, ok := toolerr.As(err)
	require.True(t, ok)
	assert.Equal(t, toolerr.MalformedArgs, te.Code)
}

func TestKeyboardWithChangeDetectionScopedToApplication(t *testing.T) {
	f := newFixture(t)
	out, err := f.svc.keyboard(context.Background(), mustJSON(t, keyboardArgs{
		Action: "type_text",
		BundleID: "com.example.app",
		Text: "hi",
		DetectChanges: true,
	}))
	require.NoError(t, err)
	res := out.(interactResult)
	assert.True(t, res.OK)
	require.NotNil(t, res.ChangeReport)
}
