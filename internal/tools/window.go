package tools

import (
	"context"
	"encoding/json"

	"github.com/macmcp/macmcp/internal/describe"
	"github.com/macmcp/macmcp/internal/platform"
	"github.com/macmcp/macmcp/internal/snapshot"
	"github.com/macmcp/macmcp/internal/toolerr"
	"github.com/macmcp/macmcp/internal/toolkit"
)

type windowArgs struct {
	Action string `json:"action"`
	BundleID string `json:"bundleId"`
	WindowID string `json:"windowId,omitempty"`
	WindowIndex *int `json:"windowIndex,omitempty"`
	X *float64 `json:"x,omitempty"`
	Y *float64 `json:"y,omitempty"`
	Width *float64 `json:"width,omitempty"`
	Height *float64 `json:"height,omitempty"`
}

var windowSchema = toolkit.Schema{
	Type: "object",
	Required: []string{"action", "bundleId"},
	Properties: map[string]toolkit.Schema{
		"action": {Type: "string", Enum: []string{"getApplicationWindows", "getActiveWindow", "focus", "minimize", "move", "resize", "close"}},
		"bundleId": {Type: "string"},
		"windowId": {Type: "string"},
		"windowIndex": {Type: "number"},
		"x": {Type: "number"},
		"y": {Type: "number"},
		"width": {Type: "number"},
		"height": {Type: "number"},
	},
}

// windowManagement implements the window_management tool:
// window-scope operations against the application's AXWindow children.
func (s *Services) windowManagement(ctx context.Context, raw json.RawMessage) (any, error) {
	var args windowArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, toolerr.New(toolerr.MalformedArgs, "%s", err.Error())
	}

	root, err := s.resolveAppRoot(ctx, args.BundleID)
	if err != nil {
		return nil, err
	}
	cctx, cancel := s.withDeadline(ctx)
	windows, err := s.listWindows(cctx, root)
	cancel()
	if err != nil {
		return nil, err
	}

	switch args.Action {
	case "getApplicationWindows":
		out := make([]*describe.Descriptor, 0, len(windows))
		for _, w := range windows {
			d, err := s.describeWindow(ctx, w)
			if err != nil {
				return nil, err
			}
			out = append(out, d)
		}
		return out, nil
	case "getActiveWindow":
		w, err := s.focusedWindow(ctx, windows)
		if err != nil {
			return nil, err
		}
		return s.describeWindow(ctx, w)
	case "focus", "minimize", "close":
		w, err := s.selectWindow(ctx, windows, args.WindowID, args.WindowIndex)
		if err != nil {
			return nil, err
		}
		return interactResult{OK: true}, s.performWindowAction(ctx, w, args.Action)
	case "move", "resize":
		w, err := s.selectWindow(ctx, windows, args.WindowID, args.WindowIndex)
		if err != nil {
			return nil, err
		}
		return interactResult{OK: true}, s.applyWindowGeometry(ctx, w, args)
	default:
		return nil, toolerr.New(toolerr.MalformedArgs, "unknown action %q", args.Action)
	}
}

func (s *Services) listWindows(ctx context.Context, appRoot platform.ElementRef) ([]platform.ElementRef, error) {
	children, err := s.Providers.Accessibility.Children(ctx, appRoot)
	if err != nil {
		return nil, toolerr.Wrap(toolerr.WindowNotFound, err, "failed to read application children")
	}
	var windows []platform.ElementRef
	for _, c := range children {
		if role, err := s.Providers.Accessibility.Role(ctx, c); err == nil && role == "AXWindow" {
			windows = append(windows, c)
		}
	}
	return windows, nil
}

func (s *Services) selectWindow(ctx context.Context, windows []platform.ElementRef, windowID string, windowIndex *int) (platform.ElementRef, error) {
	if windowIndex != nil {
		if *windowIndex < 0 || *windowIndex >= len(windows) {
			return nil, toolerr.New(toolerr.WindowNotFound, "windowIndex %d out of range", *windowIndex)
		}
		return windows[*windowIndex], nil
	}
	if windowID != "" {
		for _, w := range windows {
			id, err := s.Providers.Accessibility.StringAttribute(ctx, w, "AXIdentifier")
			if err == nil && id == windowID {
				return w, nil
			}
			title, err := s.Providers.Accessibility.StringAttribute(ctx, w, "AXTitle")
			if err == nil && title == windowID {
				return w, nil
			}
		}
		return nil, toolerr.New(toolerr.WindowNotFound, "no window matches %q", windowID)
	}
	if len(windows) == 1 {
		return windows[0], nil
	}
	return nil, toolerr.New(toolerr.MalformedArgs, "windowId or windowIndex is required when more than one window is open")
}

func (s *Services) focusedWindow(ctx context.Context, windows []platform.ElementRef) (platform.ElementRef, error) {
	for _, w := range windows {
		if focused, present, err := s.Providers.Accessibility.BoolState(ctx, w, "focused"); err == nil && present && focused {
			return w, nil
		}
	}
	if len(windows) > 0 {
		return windows[0], nil
	}
	return nil, toolerr.New(toolerr.WindowNotFound, "application has no windows")
}

func (s *Services) describeWindow(ctx context.Context, w platform.ElementRef) (*describe.Descriptor, error) {
	cctx, cancel := s.withDeadline(ctx)
	defer cancel()
	snap, err := snapshot.Capture(cctx, s.Providers.Accessibility, w, snapshot.Options{MaxDepth: 0})
	if err != nil {
		return nil, translateCaptureError(ctx, err)
	}
	return describe.Describe(snap.Root, describeOptions(true, false, false)), nil
}

// performWindowAction invokes the Accessibility Provider's action for
// focus/minimize/close — these map to standard AX window actions rather
// than synthesized clicks, since a window's own chrome buttons may be
// occluded or not yet laid out. close is the exception: AXWindow exposes no
// universal close action, so it presses the window's AXCloseButton child
// instead.
func (s *Services) performWindowAction(ctx context.Context, w platform.ElementRef, action string) error {
	if action == "close" {
		return s.closeWindow(ctx, w)
	}
	axAction := map[string]string{"focus": "AXRaise", "minimize": "AXMinimize"}[action]
	cctx, cancel := s.withDeadline(ctx)
	defer cancel()
	if err := s.Providers.Accessibility.PerformAction(cctx, w, axAction); err != nil {
		return toolerr.Wrap(toolerr.InputFailed, err, "failed to perform %s on window", action)
	}
	return nil
}

// closeWindow locates the window's AXCloseButton child and presses it.
// There is no kAX*Action constant for dismissing a window directly; the
// close box is the only element that actually exposes AXPress for this.
func (s *Services) closeWindow(ctx context.Context, w platform.ElementRef) error {
	cctx, cancel := s.withDeadline(ctx)
	children, err := s.Providers.Accessibility.Children(cctx, w)
	cancel()
	if err != nil {
		return toolerr.Wrap(toolerr.InputFailed, err, "failed to read window children while looking for the close button")
	}
	for _, c := range children {
		if subrole, err := s.Providers.Accessibility.Subrole(ctx, c); err == nil && subrole == "AXCloseButton" {
			cctx, cancel := s.withDeadline(ctx)
			defer cancel()
			if err := s.Providers.Accessibility.PerformAction(cctx, c, "AXPress"); err != nil {
				return toolerr.Wrap(toolerr.InputFailed, err, "failed to press the window's close button")
			}
			return nil
		}
	}
	return toolerr.New(toolerr.NotFound, "window has no AXCloseButton child")
}

func (s *Services) applyWindowGeometry(ctx context.Context, w platform.ElementRef, args windowArgs) error {
	cctx, cancel := s.withDeadline(ctx)
	current, _, err := s.Providers.Accessibility.Frame(cctx, w)
	cancel()
	if err != nil {
		return toolerr.Wrap(toolerr.WindowNotFound, err, "failed to read current window frame")
	}
	next := current
	if args.X != nil {
		next.X = *args.X
	}
	if args.Y != nil {
		next.Y = *args.Y
	}
	if args.Width != nil {
		next.W = *args.Width
	}
	if args.Height != nil {
		next.H = *args.Height
	}
	cctx, cancel = s.withDeadline(ctx)
	defer cancel()
	if err := s.Providers.Accessibility.SetFrame(cctx, w, next); err != nil {
		return toolerr.Wrap(toolerr.InputFailed, err, "failed to set window frame")
	}
	return nil
}
