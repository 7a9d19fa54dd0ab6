package tools

import (
	"context"
	"encoding/json"
	"time"

	"github.com/macmcp/macmcp/internal/diff"
	"github.com/macmcp/macmcp/internal/resolve"
	"github.com/macmcp/macmcp/internal/snapshot"
	"github.com/macmcp/macmcp/internal/toolerr"
	"github.com/macmcp/macmcp/internal/toolkit"
)

type interactArgs struct {
	Action string `json:"action"`
	BundleID string `json:"bundleId,omitempty"`
	ID string `json:"id,omitempty"`
	X *float64 `json:"x,omitempty"`
	Y *float64 `json:"y,omitempty"`
	ToX *float64 `json:"toX,omitempty"`
	ToY *float64 `json:"toY,omitempty"`
	DeltaX float64 `json:"deltaX,omitempty"`
	DeltaY float64 `json:"deltaY,omitempty"`
	Text string `json:"text,omitempty"`
	DetectChanges bool `json:"detectChanges,omitempty"`
	ChangeDetectionDelay int `json:"changeDetectionDelay,omitempty"`
}

var interactSchema = toolkit.Schema{
	Type: "object",
	Required: []string{"action"},
	Properties: map[string]toolkit.Schema{
		"action": {Type: "string", Enum: []string{"click", "double_click", "right_click", "type", "drag", "scroll"}},
		"bundleId": {Type: "string"},
		"id": {Type: "string"},
		"x": {Type: "number"},
		"y": {Type: "number"},
		"toX": {Type: "number"},
		"toY": {Type: "number"},
		"deltaX": {Type: "number"},
		"deltaY": {Type: "number"},
		"text": {Type: "string"},
		"detectChanges": {Type: "boolean"},
		"changeDetectionDelay": {Type: "number"},
	},
}

// interactResult is the common wire shape for every interact_ui/keyboard
// outcome.
type interactResult struct {
	OK bool `json:"ok"`
	ResolvedID string `json:"resolvedId,omitempty"`
	FuzzyNote string `json:"fuzzyNote,omitempty"`
	ChangeReport *changeReportJSON `json:"changeReport,omitempty"`
}

type changeReportJSON struct {
	Added []string `json:"added,omitempty"`
	Removed []string `json:"removed,omitempty"`
	Modified []diff.Modified `json:"modified,omitempty"`
	Truncated bool `json:"truncated,omitempty"`
}

func toChangeReportJSON(r diff.Report) *changeReportJSON {
	out := &changeReportJSON{Modified: r.Modified, Truncated: r.Truncated}
	for _, e := range r.Added {
		out.Added = append(out.Added, e.FullPath.String())
	}
	for _, e := range r.Removed {
		out.Removed = append(out.Removed, e.FullPath.String())
	}
	return out
}

// interactUI implements interact_ui: resolve the target (by
// path or raw coordinates), invoke the Input Provider, and optionally
// attach a before/after change report.
func (s *Services) interactUI(ctx context.Context, raw json.RawMessage) (any, error) {
	var args interactArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, toolerr.New(toolerr.MalformedArgs, "%s", err.Error())
	}

	x, y, ref, err := s.resolveInteractionPoint(ctx, args)
	if err != nil {
		return nil, err
	}

	var before *snapshot.Snapshot
	if args.DetectChanges {
		before, err = s.captureForChangeDetection(ctx, args.BundleID, x, y)
		if err != nil {
			return nil, err
		}
	}

	cctx, cancel := s.withDeadline(ctx)
	err = s.invokeInputAction(cctx, args, x, y)
	cancel()
	if err != nil {
		return nil, toolerr.Wrap(toolerr.InputFailed, err, "input provider failed to perform %s", args.Action)
	}

	result := interactResult{OK: true}
	if ref != nil {
		result.ResolvedID = ref.Element.FullPath.String()
		result.FuzzyNote = ref.FuzzyNote
	}

	if args.DetectChanges {
		report, err := s.detectChanges(ctx, before, args.BundleID, x, y, args.ChangeDetectionDelay)
		if err != nil {
			return nil, err
		}
		result.ChangeReport = toChangeReportJSON(report)
	}
	return result, nil
}

// resolveInteractionPoint turns an interact_ui/keyboard-style target (id or
// x/y) into screen coordinates, enforcing the Disabled check along the way.
func (s *Services) resolveInteractionPoint(ctx context.Context, args interactArgs) (x, y float64, ref *resolve.Ref, err error) {
	if args.ID != "" {
		opts := s.snapshotOptions(0, false, false)
		r, rerr := s.resolveTarget(ctx, args.BundleID, args.ID, opts)
		if rerr != nil {
			return 0, 0, nil, rerr
		}
		if !r.Element.State.Enabled {
			return 0, 0, nil, toolerr.New(toolerr.Disabled, "element %s is disabled", r.Element.FullPath.String())
		}
		if r.Element.Frame == nil {
			return 0, 0, nil, toolerr.New(toolerr.NotFound, "element %s has no on-screen frame", r.Element.FullPath.String())
		}
		f := r.Element.Frame
		return f.X + f.W/2, f.Y + f.H/2, &r, nil
	}
	if args.X == nil || args.Y == nil {
		return 0, 0, nil, toolerr.New(toolerr.MalformedArgs, "either id or x/y is required")
	}
	return *args.X, *args.Y, nil, nil
}

func (s *Services) invokeInputAction(ctx context.Context, args interactArgs, x, y float64) error {
	switch args.Action {
	case "click":
		return s.Providers.Input.Click(ctx, x, y)
	case "double_click":
		return s.Providers.Input.DoubleClick(ctx, x, y)
	case "right_click":
		return s.Providers.Input.RightClick(ctx, x, y)
	case "type":
		return s.Providers.Input.TypeText(ctx, args.Text)
	case "drag":
		if args.ToX == nil || args.ToY == nil {
			return toolerr.New(toolerr.MalformedArgs, "action=drag requires toX and toY")
		}
		return s.Providers.Input.Drag(ctx, x, y, *args.ToX, *args.ToY)
	case "scroll":
		return s.Providers.Input.Scroll(ctx, x, y, args.DeltaX, args.DeltaY)
	default:
		return toolerr.New(toolerr.MalformedArgs, "unknown action %q", args.Action)
	}
}

// captureForChangeDetection captures the "before" or "after" half of a
// change-detection pair, scoped the same way the target was resolved: by
// application if bundleId is known, otherwise by the position acted on.
func (s *Services) captureForChangeDetection(ctx context.Context, bundleID string, x, y float64) (*snapshot.Snapshot, error) {
	opts := s.snapshotOptions(0, false, false)
	if bundleID != "" {
		return s.captureApplication(ctx, bundleID, opts)
	}
	return s.capturePosition(ctx, x, y, opts)
}

// detectChanges waits delayMS (falling back to the configured default when
// the caller didn't specify one), captures the "after" snapshot, and diffs
// it against before.
func (s *Services) detectChanges(ctx context.Context, before *snapshot.Snapshot, bundleID string, x, y float64, delayMS int) (diff.Report, error) {
	cfg := s.Config.Get()
	if delayMS <= 0 {
		delayMS = cfg.ChangeDetectionDelayMS
	}
	if delayMS <= 0 {
		delayMS = 200
	}
	if delayMS > cfg.ChangeDetectionCapMS {
		delayMS = cfg.ChangeDetectionCapMS
	}
	select {
	case <-time.After(time.Duration(delayMS) * time.Millisecond):
	case <-ctx.Done():
		return diff.Report{}, toolerr.Wrap(toolerr.Cancelled, ctx.Err(), "change detection delay interrupted")
	}

	after, err := s.captureForChangeDetection(ctx, bundleID, x, y)
	if err != nil {
		return diff.Report{}, err
	}
	return diff.Diff(before, after, diff.Options{CategoryCap: cfg.DiffCategoryCap}), nil
}
