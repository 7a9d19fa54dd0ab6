package rpcserver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/macmcp/macmcp/internal/logging"
	"github.com/macmcp/macmcp/internal/session"
	"github.com/macmcp/macmcp/internal/toolerr"
	"github.com/macmcp/macmcp/internal/toolkit"
)

// stalePingGap is the keepalive gap past which a ping is logged as stale
// rather than passed through silently.
const stalePingGap = 30 * time.Second

// Class classifies a request for the concurrency gate: Lifecycle
// methods bypass gating entirely (they never touch the platform),
// ReadOnly methods may run concurrently with each other, Interactive
// methods are serialized one-at-a-time per session.
type Class int

const (
	ClassLifecycle Class = iota
	ClassReadOnly
	ClassInteractive
)

// methodHandler is a function-per-method dispatch-table entry, one per
// JSON-RPC method this server understands.
type methodHandler func(d *Dispatcher, ctx context.Context, req Request) Response

var methodHandlers = map[string]methodHandler{
	"initialize": (*Dispatcher).handleInitialize,
	"shutdown": (*Dispatcher).handleShutdown,
	"tools/list": (*Dispatcher).handleToolsList,
	"tools/call": (*Dispatcher).handleToolsCall,
	"resources/list": (*Dispatcher).handleResourcesList,
	"resources/read": (*Dispatcher).handleResourcesRead,
	"resources/templates/list": (*Dispatcher).handleResourcesTemplatesList,
	"ping": (*Dispatcher).handlePing,
}

// Dispatcher routes one session's JSON-RPC requests to the tool registry,
// resource backend, and session state machine: one dispatch-table map,
// lifecycle gating upfront, pending warnings attached to the next
// tools/call response.
type Dispatcher struct {
	Registry *toolkit.Registry
	Session *session.Session
	Resources ResourceBackend
	Warnings *Warnings
	Version string
	// Logger is optional; when set, handlePing logs a stale-keepalive
	// warning instead of silently accounting for it.
	Logger *logging.Logger
}

func NewDispatcher(registry *toolkit.Registry, sess *session.Session, resources ResourceBackend, version string) *Dispatcher {
	return &Dispatcher{Registry: registry, Session: sess, Resources: resources, Warnings: NewWarnings(), Version: version}
}

// Classify inspects req to decide which concurrency gate applies. It never fails: an unrecognized method is routed ClassLifecycle so
// the "method not found" response below runs without fighting for a gate.
func (d *Dispatcher) Classify(req Request) Class {
	switch req.Method {
	case "resources/list", "resources/read", "resources/templates/list":
		return ClassReadOnly
	case "tools/call":
		var params struct {
			Name string `json:"name"`
		}
		if json.Unmarshal(req.Params, &params) != nil {
			return ClassInteractive // unparsable args: treat as the safe, serialized case
		}
		if t, ok := d.Registry.Get(params.Name); ok && !t.Interactive {
			return ClassReadOnly
		}
		return ClassInteractive
	default:
		return ClassLifecycle
	}
}

// HandleRequest processes one request and returns its response, or nil for
// a notification (which never gets one, per JSON-RPC 2.0). Caller is
// responsible for any concurrency gating indicated by Classify before
// calling this.
func (d *Dispatcher) HandleRequest(ctx context.Context, req Request) *Response {
	if req.IsNotification() {
		return nil
	}

	if err := d.Session.CheckMethod(req.Method); err != nil {
		resp := errorResponse(req.ID, codeInvalidRequest, err.Error())
		return &resp
	}

	handler, ok := methodHandlers[req.Method]
	if !ok {
		resp := errorResponse(req.ID, codeMethodNotFound, "method not found: "+req.Method)
		return &resp
	}

	resp := handler(d, ctx, req)
	return &resp
}

func (d *Dispatcher) handleInitialize(_ context.Context, req Request) Response {
	var params initializeParams
	if len(req.Params) > 0 {
		_ = json.Unmarshal(req.Params, &params)
	}
	if err := d.Session.Initialize(); err != nil {
		return errorResponse(req.ID, codeInvalidRequest, err.Error())
	}
	result := initializeResult{
		ProtocolVersion: negotiateProtocolVersion(params.ProtocolVersion),
		ServerInfo: serverInfo{Name: "macmcp", Version: d.Version},
	}
	return resultResponse(req.ID, result)
}

func (d *Dispatcher) handleShutdown(_ context.Context, req Request) Response {
	if err := d.Session.BeginShutdown(); err != nil {
		return errorResponse(req.ID, codeInvalidRequest, err.Error())
	}
	return resultResponse(req.ID, map[string]bool{"ok": true})
}

// handlePing records the keepalive and, if a Logger is wired, logs when the
// gap since the previous ping exceeds stalePingGap — useful to the daemon
// lifecycle log for spotting a client that stopped pinging and came back.
func (d *Dispatcher) handlePing(_ context.Context, req Request) Response {
	if gap := d.Session.RecordPing(); gap > stalePingGap && d.Logger != nil {
		d.Logger.Lifecycle("ping_stale", map[string]any{"gap_seconds": gap.Seconds()})
	}
	return resultResponse(req.ID, map[string]any{})
}

func (d *Dispatcher) handleToolsList(_ context.Context, req Request) Response {
	tools := d.Registry.List()
	descriptors := make([]ToolDescriptor, 0, len(tools))
	for _, t := range tools {
		descriptors = append(descriptors, ToolDescriptor{
			Name: t.Name,
			Description: t.Description,
			InputSchema: schemaToMap(t.Schema),
		})
	}
	return resultResponse(req.ID, map[string]any{"tools": descriptors})
}

func (d *Dispatcher) handleToolsCall(ctx context.Context, req Request) Response {
	var params struct {
		Name string `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errorResponse(req.ID, codeInvalidParams, "invalid params: "+err.Error())
	}

	if allowed := d.Registry.AllowedArgumentKeys(params.Name); allowed != nil {
		for _, key := range toolkit.UnknownArgumentKeys(allowed, params.Arguments) {
			d.Warnings.Add(fmt.Sprintf("unknown parameter %q for tool %q (ignored)", key, params.Name))
		}
	}

	out, err := d.Registry.Dispatch(ctx, params.Name, params.Arguments)
	var result ToolResult
	if err != nil {
		result = toolErrorResult(err)
	} else {
		result = toolSuccessResult(out)
	}
	result.Warnings = append(result.Warnings, d.Warnings.Take()...)
	return resultResponse(req.ID, result)
}

func (d *Dispatcher) handleResourcesList(_ context.Context, req Request) Response {
	return resultResponse(req.ID, map[string]any{"resources": resourceDescriptors()})
}

func (d *Dispatcher) handleResourcesTemplatesList(_ context.Context, req Request) Response {
	return resultResponse(req.ID, map[string]any{"resourceTemplates": resourceTemplates()})
}

func (d *Dispatcher) handleResourcesRead(ctx context.Context, req Request) Response {
	var params struct {
		URI string `json:"uri"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errorResponse(req.ID, codeInvalidParams, "invalid params: "+err.Error())
	}
	content, err := readResource(ctx, d.Resources, params.URI)
	if err != nil {
		if te, ok := toolerr.As(err); ok && te.Code == toolerr.NotFound {
			return errorResponse(req.ID, codeInvalidParams, err.Error())
		}
		return resultResponse(req.ID, toolErrorResult(err))
	}
	return resultResponse(req.ID, map[string]any{"contents": []ResourceContent{content}})
}

// toolSuccessResult wraps a handler's return value as a single JSON text
// content block.
func toolSuccessResult(v any) ToolResult {
	raw, err := json.Marshal(v)
	if err != nil {
		return toolErrorResult(toolerr.Wrap(toolerr.InternalError, err, "failed to marshal tool result"))
	}
	return ToolResult{Content: []ToolContentBlock{{Type: "text", Text: string(raw)}}}
}

// toolErrorResult maps a *toolerr.Error to the wire is_error shape; a non-taxonomy error is reported as
// InternalError rather than leaking an unstructured message.
func toolErrorResult(err error) ToolResult {
	te, ok := toolerr.As(err)
	if !ok {
		te = toolerr.New(toolerr.InternalError, "%s", err.Error())
	}
	return ToolResult{
		IsError: true,
		Code: string(te.Code),
		Content: []ToolContentBlock{{Type: "text", Text: te.Error()}},
	}
}

func schemaToMap(s toolkit.Schema) map[string]any {
	raw, err := json.Marshal(s)
	if err != nil {
		return map[string]any{"type": "object"}
	}
	var m map[string]any
	if json.Unmarshal(raw, &m) != nil {
		return map[string]any{"type": "object"}
	}
	return m
}
