package toolkit

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/macmcp/macmcp/internal/toolerr"
)

// Handler executes one tool call. raw is the already-schema-validated
// arguments object (possibly empty). It returns a JSON-marshalable result
// or a *toolerr.Error.
type Handler func(ctx context.Context, raw json.RawMessage) (any, error)

// Tool is a single registered tool: name, description, schema, handler.
type Tool struct {
	Name string
	Description string
	Schema Schema
	Handler Handler
	// Interactive marks a tool as synthesizing input. Registration
	// must set this explicitly — there is no safe default to fall back on.
	Interactive bool
}

// Registry is a read-mostly map[name]Tool built once at startup and read
// concurrently by many in-flight tool calls — grounded on brennhill's
// mcpMethodHandlers dispatch table (handler.go), generalized from a fixed
// method set to a dynamically registered tool set.
type Registry struct {
	mu sync.RWMutex
	tools map[string]Tool
}

func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool. Re-registering a name overwrites it; callers
// register all built-in tools once during startup.
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Name] = t
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// List returns all tools, sorted by name, for tools/list.
func (r *Registry) List() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Tool, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// AllowedArgumentKeys returns the top-level property names a tool's
// schema declares, used to warn on (but not reject) unknown arguments —
// mirrors brennhill's allowedToolArgumentKeys/warnUnknownToolArguments
// pattern (handler.go).
func (r *Registry) AllowedArgumentKeys(name string) map[string]struct{} {
	t, ok := r.Get(name)
	if !ok || t.Schema.Properties == nil {
		return nil
	}
	keys := make(map[string]struct{}, len(t.Schema.Properties))
	for k := range t.Schema.Properties {
		keys[k] = struct{}{}
	}
	return keys
}

// Dispatch validates arguments against the tool's schema and invokes its
// handler.
func (r *Registry) Dispatch(ctx context.Context, name string, raw json.RawMessage) (any, error) {
	t, ok := r.Get(name)
	if !ok {
		return nil, toolerr.New(toolerr.UnknownTool, "unknown tool %q", name)
	}
	if verr := Validate(t.Schema, raw); verr != nil {
		return nil, toolerr.New(toolerr.MalformedArgs, "%s", verr.Error()).WithData("pointer", verr.Pointer)
	}
	return t.Handler(ctx, raw)
}

// UnknownArgumentKeys reports argument keys present in raw but not
// declared by the tool's schema, for a warning (not a hard failure) —
// "unknown arguments are warned about, not rejected".
func UnknownArgumentKeys(allowed map[string]struct{}, raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil
	}
	var unknown []string
	for k := range obj {
		if _, ok := allowed[k]; !ok {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)
	return unknown
}
