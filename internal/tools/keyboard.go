package tools

import (
	"context"
	"encoding/json"

	"github.com/macmcp/macmcp/internal/platform"
	"github.com/macmcp/macmcp/internal/snapshot"
	"github.com/macmcp/macmcp/internal/toolerr"
	"github.com/macmcp/macmcp/internal/toolkit"
)

type keyEventArgs struct {
	Kind string `json:"kind"`
	KeyCode int `json:"keyCode,omitempty"`
	Modifiers []string `json:"modifiers,omitempty"`
	DelayMS int `json:"delayMs,omitempty"`
}

type keyboardArgs struct {
	Action string `json:"action"`
	BundleID string `json:"bundleId,omitempty"`
	X *float64 `json:"x,omitempty"`
	Y *float64 `json:"y,omitempty"`
	Text string `json:"text,omitempty"`
	KeyCode int `json:"keyCode,omitempty"`
	Modifiers []string `json:"modifiers,omitempty"`
	Events []keyEventArgs `json:"events,omitempty"`
	DetectChanges bool `json:"detectChanges,omitempty"`
	ChangeDetectionDelay int `json:"changeDetectionDelay,omitempty"`
}

var keyboardSchema = toolkit.Schema{
	Type: "object",
	Required: []string{"action"},
	Properties: map[string]toolkit.Schema{
		"action": {Type: "string", Enum: []string{"type_text", "press_key", "key_sequence"}},
		"bundleId": {Type: "string"},
		"x": {Type: "number"},
		"y": {Type: "number"},
		"text": {Type: "string"},
		"keyCode": {Type: "number"},
		"modifiers": {Type: "array", Items: &toolkit.Schema{Type: "string"}},
		"events": {Type: "array", Items: &toolkit.Schema{Type: "object", Required: []string{"kind"}}},
		"detectChanges": {Type: "boolean"},
		"changeDetectionDelay": {Type: "number"},
	},
}

// keyboard implements the keyboard tool: enqueue input events
// via the Input Provider, with the same optional before/after change
// detection as interact_ui.
func (s *Services) keyboard(ctx context.Context, raw json.RawMessage) (any, error) {
	var args keyboardArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, toolerr.New(toolerr.MalformedArgs, "%s", err.Error())
	}

	var x, y float64
	haveAnchor := args.X != nil && args.Y != nil
	if haveAnchor {
		x, y = *args.X, *args.Y
	}

	var before *snapshot.Snapshot
	if args.DetectChanges {
		var err error
		before, err = s.captureForChangeDetection(ctx, args.BundleID, x, y)
		if err != nil {
			return nil, err
		}
	}

	cctx, cancel := s.withDeadline(ctx)
	err := s.invokeKeyboardAction(cctx, args)
	cancel()
	if err != nil {
		return nil, toolerr.Wrap(toolerr.InputFailed, err, "input provider failed to perform %s", args.Action)
	}

	result := interactResult{OK: true}
	if args.DetectChanges {
		report, err := s.detectChanges(ctx, before, args.BundleID, x, y, args.ChangeDetectionDelay)
		if err != nil {
			return nil, err
		}
		result.ChangeReport = toChangeReportJSON(report)
	}
	return result, nil
}

func (s *Services) invokeKeyboardAction(ctx context.Context, args keyboardArgs) error {
	switch args.Action {
	case "type_text":
		return s.Providers.Input.TypeText(ctx, args.Text)
	case "press_key":
		return s.Providers.Input.PressKey(ctx, args.KeyCode, args.Modifiers)
	case "key_sequence":
		events := make([]platform.KeyEvent, len(args.Events))
		for i, e := range args.Events {
			events[i] = platform.KeyEvent{Kind: e.Kind, KeyCode: e.KeyCode, Modifiers: e.Modifiers, DelayMS: e.DelayMS}
		}
		return s.Providers.Input.KeySequence(ctx, events)
	default:
		return toolerr.New(toolerr.MalformedArgs, "unknown action %q", args.Action)
	}
}
