package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macmcp/macmcp/internal/describe"
	"github.com/macmcp/macmcp/internal/toolkit"
)

// TestRegisterWiresSchemasToHandlers exercises every tool through the
// actual Registry.Dispatch path (schema validation, then handoff to the
// handler), not just the handler functions directly.
func TestRegisterWiresSchemasToHandlers(t *testing.T) {
	f := newFixture(t)
	reg := toolkit.NewRegistry()
	Register(reg, f.svc)

	for _, name := range []string{
		"explore_ui", "interact_ui", "keyboard", "menu_navigation",
		"window_management", "application_management", "screenshot", "clipboard_management",
	} {
		_, ok := reg.Get(name)
		assert.True(t, ok, "tool %s not registered", name)
	}

	out, err := reg.Dispatch(context.Background(), "explore_ui", mustJSON(t, exploreArgs{
		Scope: "application",
		BundleID: "com.example.app",
	}))
	require.NoError(t, err)
	assert.IsType(t, &describe.Descriptor{}, out)
}

func TestRegisterDispatchRejectsMissingRequiredField(t *testing.T) {
	f := newFixture(t)
	reg := toolkit.NewRegistry()
	Register(reg, f.svc)

	_, err := reg.Dispatch(context.Background(), "explore_ui", mustJSON(t, map[string]any{}))
	require.Error(t, err)
}

func TestRegisterDispatchUnknownTool(t *testing.T) {
	f := newFixture(t)
	reg := toolkit.NewRegistry()
	Register(reg, f.svc)

	_, err := reg.Dispatch(context.Background(), "does_not_exist", mustJSON(t, map[string]any{}))
	require.Error(t, err)
}
