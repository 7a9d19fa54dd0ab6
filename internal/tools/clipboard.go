package tools

import (
	"context"
	"encoding/json"

	"github.com/macmcp/macmcp/internal/toolerr"
	"github.com/macmcp/macmcp/internal/toolkit"
)

type clipboardArgs struct {
	Action string `json:"action"`
	Type string `json:"type,omitempty"`
	Data string `json:"data,omitempty"`
}

var clipboardSchema = toolkit.Schema{
	Type: "object",
	Required: []string{"action"},
	Properties: map[string]toolkit.Schema{
		"action": {Type: "string", Enum: []string{"read", "write", "clear"}},
		"type": {Type: "string"},
		"data": {Type: "string"},
	},
}

type clipboardResult struct {
	OK bool `json:"ok"`
	Data string `json:"data,omitempty"`
	Present bool `json:"present,omitempty"`
}

// clipboardManagement implements the clipboard_management tool: a thin delegation to the Clipboard Provider.
func (s *Services) clipboardManagement(ctx context.Context, raw json.RawMessage) (any, error) {
	var args clipboardArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, toolerr.New(toolerr.MalformedArgs, "%s", err.Error())
	}

	cctx, cancel := s.withDeadline(ctx)
	defer cancel()

	switch args.Action {
	case "read":
		kind := args.Type
		if kind == "" {
			kind = "public.utf8-plain-text"
		}
		data, ok, err := s.Providers.Clipboard.Read(cctx, kind)
		if err != nil {
			return nil, toolerr.Wrap(toolerr.ClipboardUnavailable, err, "failed to read clipboard")
		}
		return clipboardResult{OK: true, Data: data, Present: ok}, nil
	case "write":
		kind := args.Type
		if kind == "" {
			kind = "public.utf8-plain-text"
		}
		if err := s.Providers.Clipboard.Write(cctx, kind, args.Data); err != nil {
			return nil, toolerr.Wrap(toolerr.ClipboardUnavailable, err, "failed to write clipboard")
		}
		return clipboardResult{OK: true}, nil
	case "clear":
		if err := s.Providers.Clipboard.Clear(cctx); err != nil {
			return nil, toolerr.Wrap(toolerr.ClipboardUnavailable, err, "failed to clear clipboard")
		}
		return clipboardResult{OK: true}, nil
	default:
		return nil, toolerr.New(toolerr.MalformedArgs, "unknown action %q", args.Action)
	}
}
