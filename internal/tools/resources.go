package tools

import (
	"context"

	"github.com/macmcp/macmcp/internal/describe"
	"github.com/macmcp/macmcp/internal/path"
	"github.com/macmcp/macmcp/internal/resolve"
	"github.com/macmcp/macmcp/internal/toolerr"
)

// Applications implements rpcserver.ResourceBackend's macos://applications
// resource.
func (s *Services) Applications(ctx context.Context) (any, error) {
	cctx, cancel := s.withDeadline(ctx)
	defer cancel()
	apps, err := s.Providers.Process.RunningApplications(cctx)
	if err != nil {
		return nil, toolerr.Wrap(toolerr.PlatformFailure, err, "failed to enumerate running applications")
	}
	return apps, nil
}

// ApplicationWindows implements macos://applications/{bundleId}/windows.
func (s *Services) ApplicationWindows(ctx context.Context, bundleID string) (any, error) {
	root, err := s.resolveAppRoot(ctx, bundleID)
	if err != nil {
		return nil, err
	}
	cctx, cancel := s.withDeadline(ctx)
	windows, err := s.listWindows(cctx, root)
	cancel()
	if err != nil {
		return nil, err
	}
	out := make([]*describe.Descriptor, 0, len(windows))
	for _, w := range windows {
		d, err := s.describeWindow(ctx, w)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// ApplicationMenus implements macos://applications/{bundleId}/menus.
func (s *Services) ApplicationMenus(ctx context.Context, bundleID string) (any, error) {
	root, err := s.resolveAppRoot(ctx, bundleID)
	if err != nil {
		return nil, err
	}
	cctx, cancel := s.withDeadline(ctx)
	menuBar, err := s.findMenuBar(cctx, root)
	cancel()
	if err != nil {
		return nil, err
	}
	return s.describeMenuSubtree(ctx, menuBar, true)
}

// UIElement implements the macos://ui/... resource. The URI carries no
// bundleId, so resolution tries every running application's freshly
// captured tree in turn until one's root segment matches — more expensive
// than the bundleId-scoped tool-handler path, but resource reads are
// infrequent relative to tool calls.
func (s *Services) UIElement(ctx context.Context, uri string) (any, error) {
	p, err := path.Parse(uri)
	if err != nil {
		return nil, err
	}

	cctx, cancel := s.withDeadline(ctx)
	apps, err := s.Providers.Process.RunningApplications(cctx)
	cancel()
	if err != nil {
		return nil, toolerr.Wrap(toolerr.PlatformFailure, err, "failed to enumerate running applications")
	}

	opts := s.snapshotOptions(0, false, false)
	for _, app := range apps {
		snap, err := s.captureApplication(ctx, app.BundleID, opts)
		if err != nil {
			continue
		}
		ref, err := resolve.Resolve(snap, p)
		if err != nil {
			continue
		}
		return describe.Describe(ref.Element, describeOptions(true, true, true)), nil
	}
	return nil, toolerr.New(toolerr.NotFound, "no running application's tree matches %s", uri)
}
