// Package tools implements the Tool Handlers: the eight
// registered tools plus the resource backend, orchestrating the platform
// providers, the snapshot capturer, the resolver, the
// descriptor serializer, and the change-detection engine behind
// each tool's contract.
package tools

import (
	"context"
	"time"

	"github.com/macmcp/macmcp/internal/config"
	"github.com/macmcp/macmcp/internal/describe"
	"github.com/macmcp/macmcp/internal/platform"
	"github.com/macmcp/macmcp/internal/snapshot"
	"github.com/macmcp/macmcp/internal/telemetry"
	"github.com/macmcp/macmcp/internal/toolerr"
)

// Services bundles every collaborator a tool handler needs. One instance is
// shared by every registered handler and by the resource backend; handlers
// never hold state across calls.
type Services struct {
	Providers platform.Providers
	Config *config.Live
	ReadPolicy telemetry.ReadPolicy
}

func NewServices(providers platform.Providers, cfg *config.Live) *Services {
	return &Services{Providers: providers, Config: cfg, ReadPolicy: telemetry.DefaultReadPolicy()}
}

// withDeadline bounds a single platform call at the configured per-call
// deadline. Handlers call this
// around the one or two platform operations they perform, never around an
// entire request.
func (s *Services) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	ms := s.Config.Get().PlatformCallDeadlineMS
	if ms <= 0 {
		ms = 5000
	}
	return context.WithTimeout(ctx, time.Duration(ms)*time.Millisecond)
}

// snapshotOptions builds capture options from a tool's optional maxDepth
// and includeHidden arguments, clamped to the configured bounds.
func (s *Services) snapshotOptions(maxDepth int, includeHidden, onlyMainContent bool) snapshot.Options {
	cfg := s.Config.Get()
	md := maxDepth
	if md <= 0 {
		md = cfg.DefaultMaxDepth
	}
	if md > cfg.HardMaxDepth {
		md = cfg.HardMaxDepth
	}
	return snapshot.Options{MaxDepth: md, IncludeHidden: includeHidden, OnlyMainContent: onlyMainContent, Concurrency: 4}
}

// describeOptions builds descriptor serialization options from a tool's
// optional showCoordinates/showActions flags.
func describeOptions(showCoordinates, showActions, recurse bool) describe.Options {
	return describe.Options{ShowCoordinates: showCoordinates, ShowActions: showActions, Recurse: recurse}
}

// resolveAppRoot fetches the root element of the application identified by
// bundleID, translating platform failures into the taxonomy.
func (s *Services) resolveAppRoot(ctx context.Context, bundleID string) (platform.ElementRef, error) {
	if bundleID == "" {
		return nil, toolerr.New(toolerr.MalformedArgs, "bundleId is required")
	}
	cctx, cancel := s.withDeadline(ctx)
	defer cancel()
	root, err := s.Providers.Accessibility.ApplicationElement(cctx, bundleID, 0)
	if err != nil {
		return nil, translateAppLookupError(ctx, err)
	}
	return root, nil
}

func translateAppLookupError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return toolerr.Wrap(toolerr.PlatformTimeout, err, "application lookup exceeded the platform deadline")
	}
	switch err {
	case platform.ErrPermissionDenied:
		return toolerr.Wrap(toolerr.PermissionDenied, err, "accessibility permission denied")
	default:
		return toolerr.Wrap(toolerr.ApplicationNotFound, err, "application not found")
	}
}

// captureApplication captures a fresh snapshot rooted at bundleID's
// application element.
func (s *Services) captureApplication(ctx context.Context, bundleID string, opts snapshot.Options) (*snapshot.Snapshot, error) {
	root, err := s.resolveAppRoot(ctx, bundleID)
	if err != nil {
		return nil, err
	}
	cctx, cancel := s.withDeadline(ctx)
	defer cancel()
	snap, err := snapshot.Capture(cctx, s.Providers.Accessibility, root, opts)
	if err != nil {
		return nil, translateCaptureError(ctx, err)
	}
	return snap, nil
}

// capturePosition captures a fresh snapshot rooted at the element under
// (x, y).
func (s *Services) capturePosition(ctx context.Context, x, y float64, opts snapshot.Options) (*snapshot.Snapshot, error) {
	cctx, cancel := s.withDeadline(ctx)
	root, err := s.Providers.Accessibility.ElementAtPosition(cctx, x, y)
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			return nil, toolerr.Wrap(toolerr.PlatformTimeout, err, "position lookup exceeded the platform deadline")
		}
		return nil, toolerr.Wrap(toolerr.NotFound, err, "no element at the given position")
	}
	cctx, cancel = s.withDeadline(ctx)
	defer cancel()
	snap, err := snapshot.Capture(cctx, s.Providers.Accessibility, root, opts)
	if err != nil {
		return nil, translateCaptureError(ctx, err)
	}
	return snap, nil
}

// captureSystem builds an overview snapshot spanning every running
// application: one synthetic root
// whose children are each application's own captured root element.
// Because the synthetic root is not itself a platform element, a path
// produced under scope=system is for display only — resolving an `id`
// back against the live tree always goes through captureApplication with
// an explicit bundleId (see resolveTarget in explore.go), so every
// resolvable path is rooted at the real application element regardless
// of which scope discovered it.
func (s *Services) captureSystem(ctx context.Context, opts snapshot.Options) (*snapshot.Snapshot, error) {
	cctx, cancel := s.withDeadline(ctx)
	apps, err := s.Providers.Process.RunningApplications(cctx)
	cancel()
	if err != nil {
		return nil, toolerr.Wrap(toolerr.PlatformFailure, err, "failed to enumerate running applications")
	}

	root := &snapshot.Element{Role: "AXSystemWide"}
	root.PathSegment.Role = "AXSystemWide"

	for _, app := range apps {
		appSnap, err := s.captureApplication(ctx, app.BundleID, opts)
		if err != nil {
			// One application's capture failing (e.g. it just quit, or
			// denies accessibility) doesn't fail the whole overview.
			continue
		}
		root.Children = append(root.Children, appSnap.Root)
	}

	return snapshot.Synthesize("system", root, opts.MaxDepth), nil
}

// WindowRect resolves an application's window frame for a screenshot
// capture keyed by (bundleId, windowId) — the shape
// internal/platform/darwin's Screen provider needs to turn a window
// capture request into a rect, since CGWindowListCreateImage has no
// bundleId/windowId-keyed entry point of its own. Exported so cmd/macmcp
// can wire it into darwin.NewScreen without this package importing the
// darwin package (which would invert the dependency direction).
func (s *Services) WindowRect(ctx context.Context, bundleID, windowID string) (platform.Rect, error) {
	root, err := s.resolveAppRoot(ctx, bundleID)
	if err != nil {
		return platform.Rect{}, err
	}
	cctx, cancel := s.withDeadline(ctx)
	windows, err := s.listWindows(cctx, root)
	cancel()
	if err != nil {
		return platform.Rect{}, err
	}
	w, err := s.selectWindow(ctx, windows, windowID, nil)
	if err != nil {
		return platform.Rect{}, err
	}
	cctx, cancel = s.withDeadline(ctx)
	defer cancel()
	rect, ok, err := s.Providers.Accessibility.Frame(cctx, w)
	if err != nil {
		return platform.Rect{}, toolerr.Wrap(toolerr.CaptureFailed, err, "failed to read window frame")
	}
	if !ok {
		return platform.Rect{}, toolerr.New(toolerr.CaptureFailed, "window has no on-screen frame")
	}
	return rect, nil
}

func translateCaptureError(ctx context.Context, err error) error {
	if te, ok := toolerr.As(err); ok {
		return te
	}
	if ctx.Err() != nil {
		return toolerr.Wrap(toolerr.PlatformTimeout, err, "capture exceeded the platform deadline")
	}
	return toolerr.Wrap(toolerr.PlatformFailure, err, "snapshot capture failed")
}
