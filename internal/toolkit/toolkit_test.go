package toolkit

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macmcp/macmcp/internal/toolerr"
)

func echoSchema() Schema {
	return Schema{
		Type: "object",
		Required: []string{"path"},
		Properties: map[string]Schema{
			"path": {Type: "string"},
			"limit": {Type: "number"},
		},
	}
}

func newEchoRegistry() *Registry {
	r := NewRegistry()
	r.Register(Tool{
		Name: "echo",
		Description: "echoes its path argument",
		Schema: echoSchema(),
		Handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var args struct {
				Path string `json:"path"`
			}
			_ = json.Unmarshal(raw, &args)
			return map[string]string{"path": args.Path}, nil
		},
	})
	return r
}

func TestDispatchUnknownTool(t *testing.T) {
	r := NewRegistry()
	_, err := r.Dispatch(context.Background(), "missing", nil)
	te, ok := toolerr.As(err)
	require.True(t, ok)
	assert.Equal(t, toolerr.UnknownTool, te.Code)
}

func TestDispatchMissingRequiredArgument(t *testing.T) {
	r := newEchoRegistry()
	_, err := r.Dispatch(context.Background(), "echo", json.RawMessage(`{}`))
	te, ok := toolerr.As(err)
	require.True(t, ok)
	assert.Equal(t, toolerr.MalformedArgs, te.Code)
}

func TestDispatchWrongType(t *testing.T) {
	r := newEchoRegistry()
	_, err := r.Dispatch(context.Background(), "echo", json.RawMessage(`{"path": 5}`))
	te, ok := toolerr.As(err)
	require.True(t, ok)
	assert.Equal(t, toolerr.MalformedArgs, te.Code)
}

func TestDispatchSuccess(t *testing.T) {
	r := newEchoRegistry()
	result, err := r.Dispatch(context.Background(), "echo", json.RawMessage(`{"path": "macos://ui/AXApplication"}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"path": "macos://ui/AXApplication"}, result)
}

func TestUnknownArgumentKeysWarnsNotRejects(t *testing.T) {
	r := newEchoRegistry()
	allowed := r.AllowedArgumentKeys("echo")
	unknown := UnknownArgumentKeys(allowed, json.RawMessage(`{"path":"x","bogus":1}`))
	assert.Equal(t, []string{"bogus"}, unknown)

	// Dispatch still succeeds despite the unknown key (warn, don't reject).
	_, err := r.Dispatch(context.Background(), "echo", json.RawMessage(`{"path":"x","bogus":1}`))
	assert.NoError(t, err)
}

func TestListIsSortedByName(t *testing.T) {
	r := NewRegistry()
	r.Register(Tool{Name: "zeta", Handler: func(context.Context, json.RawMessage) (any, error) { return nil, nil }})
	r.Register(Tool{Name: "alpha", Handler: func(context.Context, json.RawMessage) (any, error) { return nil, nil }})
	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, "alpha", list[0].Name)
	assert.Equal(t, "zeta", list[1].Name)
}
