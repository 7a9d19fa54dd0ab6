package tools

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/macmcp/macmcp/internal/describe"
	"github.com/macmcp/macmcp/internal/platform"
	"github.com/macmcp/macmcp/internal/snapshot"
	"github.com/macmcp/macmcp/internal/toolerr"
	"github.com/macmcp/macmcp/internal/toolkit"
)

type menuArgs struct {
	Action string `json:"action"`
	BundleID string `json:"bundleId"`
	MenuPath []string `json:"menuPath,omitempty"`
	MenuTitle string `json:"menuTitle,omitempty"`
	IncludeSubmenus bool `json:"includeSubmenus,omitempty"`
}

var menuSchema = toolkit.Schema{
	Type: "object",
	Required: []string{"action", "bundleId"},
	Properties: map[string]toolkit.Schema{
		"action": {Type: "string", Enum: []string{"getApplicationMenus", "getMenuItems", "showMenu", "activateMenuItem"}},
		"bundleId": {Type: "string"},
		"menuPath": {Type: "array", Items: &toolkit.Schema{Type: "string"}},
		"menuTitle": {Type: "string"},
		"includeSubmenus": {Type: "boolean"},
	},
}

// menuNavigation implements the menu_navigation tool: walk the
// live menu bar tree by title (menu items carry no stable identifier
// beyond their title), then either serialize a subtree or invoke the
// matched item's AXPress action directly — menu items are frequently not
// clickable by screen coordinates while their menu is closed, so this
// uses the Accessibility Provider's semantic PerformAction rather than
// the Input Provider's coordinate-based clicks that interact_ui uses.
func (s *Services) menuNavigation(ctx context.Context, raw json.RawMessage) (any, error) {
	var args menuArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, toolerr.New(toolerr.MalformedArgs, "%s", err.Error())
	}

	root, err := s.resolveAppRoot(ctx, args.BundleID)
	if err != nil {
		return nil, err
	}
	cctx, cancel := s.withDeadline(ctx)
	menuBar, err := s.findMenuBar(cctx, root)
	cancel()
	if err != nil {
		return nil, err
	}

	titles := args.MenuPath
	if len(titles) == 0 && args.MenuTitle != "" {
		titles = []string{args.MenuTitle}
	}

	switch args.Action {
	case "getApplicationMenus":
		return s.describeMenuSubtree(ctx, menuBar, args.IncludeSubmenus)
	case "getMenuItems":
		if len(titles) == 0 {
			return s.describeMenuSubtree(ctx, menuBar, args.IncludeSubmenus)
		}
		target, err := s.walkMenu(ctx, menuBar, titles)
		if err != nil {
			return nil, err
		}
		return s.describeMenuSubtree(ctx, target, args.IncludeSubmenus)
	case "showMenu", "activateMenuItem":
		if len(titles) == 0 {
			return nil, toolerr.New(toolerr.MalformedArgs, "%s requires menuPath or menuTitle", args.Action)
		}
		target, err := s.walkMenu(ctx, menuBar, titles)
		if err != nil {
			return nil, err
		}
		cctx, cancel := s.withDeadline(ctx)
		err = s.Providers.Accessibility.PerformAction(cctx, target, "AXPress")
		cancel()
		if err != nil {
			return nil, toolerr.Wrap(toolerr.InputFailed, err, "failed to activate menu item %s", strings.Join(titles, " > "))
		}
		return interactResult{OK: true}, nil
	default:
		return nil, toolerr.New(toolerr.MalformedArgs, "unknown action %q", args.Action)
	}
}

func (s *Services) describeMenuSubtree(ctx context.Context, root platform.ElementRef, includeSubmenus bool) (*describe.Descriptor, error) {
	opts := snapshot.Options{MaxDepth: 1, IncludeHidden: true, Concurrency: 4}
	if includeSubmenus {
		opts.MaxDepth = snapshot.HardMaxDepth
	}
	cctx, cancel := s.withDeadline(ctx)
	defer cancel()
	snap, err := snapshot.Capture(cctx, s.Providers.Accessibility, root, opts)
	if err != nil {
		return nil, translateCaptureError(ctx, err)
	}
	return describe.Describe(snap.Root, describeOptions(false, true, true)), nil
}

// findMenuBar locates the AXMenuBar among an application root's immediate
// children.
func (s *Services) findMenuBar(ctx context.Context, appRoot platform.ElementRef) (platform.ElementRef, error) {
	children, err := s.Providers.Accessibility.Children(ctx, appRoot)
	if err != nil {
		return nil, toolerr.Wrap(toolerr.MenuNotFound, err, "failed to read application children")
	}
	for _, c := range children {
		role, err := s.Providers.Accessibility.Role(ctx, c)
		if err == nil && role == "AXMenuBar" {
			return c, nil
		}
	}
	return nil, toolerr.New(toolerr.MenuNotFound, "application has no menu bar")
}

// walkMenu descends from the menu bar through titles, transparently
// skipping the single-child AXMenu wrapper every menu bar item and
// submenu-bearing item exposes around its actual items.
func (s *Services) walkMenu(ctx context.Context, start platform.ElementRef, titles []string) (platform.ElementRef, error) {
	current := start
	for _, title := range titles {
		kids, err := s.menuChildren(ctx, current)
		if err != nil {
			return nil, err
		}
		match, err := s.findChildByTitle(ctx, kids, title)
		if err != nil {
			return nil, toolerr.New(toolerr.MenuNotFound, "no menu item titled %q", title)
		}
		current = match
	}
	return current, nil
}

func (s *Services) menuChildren(ctx context.Context, e platform.ElementRef) ([]platform.ElementRef, error) {
	kids, err := s.Providers.Accessibility.Children(ctx, e)
	if err != nil {
		return nil, toolerr.Wrap(toolerr.MenuNotFound, err, "failed to read menu children")
	}
	if len(kids) == 1 {
		if role, err := s.Providers.Accessibility.Role(ctx, kids[0]); err == nil && role == "AXMenu" {
			return s.Providers.Accessibility.Children(ctx, kids[0])
		}
	}
	return kids, nil
}

func (s *Services) findChildByTitle(ctx context.Context, kids []platform.ElementRef, title string) (platform.ElementRef, error) {
	for _, c := range kids {
		t, err := s.Providers.Accessibility.StringAttribute(ctx, c, "AXTitle")
		if err == nil && strings.EqualFold(t, title) {
			return c, nil
		}
	}
	return nil, toolerr.New(toolerr.MenuNotFound, "no child titled %q", title)
}
