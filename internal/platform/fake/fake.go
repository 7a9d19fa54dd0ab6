// Package fake provides an in-memory AccessibilityProvider used by every
// other package's tests (internal/snapshot, internal/resolve,
// internal/diff, internal/tools), so those tests never depend on a real
// macOS accessibility session. Grounded on brennhill's own style of
// small, explicit test helper constructors.
package fake

import (
	"context"
	"fmt"
	"sync"

	"github.com/macmcp/macmcp/internal/platform"
)

// Node is a builder/fixture for one fake element. Build a tree of Nodes and
// pass the root to NewProvider.
type Node struct {
	Role string
	Subrole string
	Title string
	Desc string
	Help string
	Value any
	ValueDesc string
	Placeholder string
	Label string
	Identifier string
	RoleDesc string
	Frame *platform.Rect
	Enabled *bool
	Visible *bool
	Focused *bool
	Selected *bool
	Expanded *bool
	Required *bool
	Actions []string
	Attrs map[string]any
	Children []*Node

	// FailChildren, if set, makes Children(ctx) return this error instead
	// of the fixture's children — used to test the "partial snapshot"
	// local-failure path.
	FailChildren error
}

func boolp(b bool) *bool { return &b }

// ref is the concrete ElementRef implementation.
type ref struct {
	n *Node
}

func (ref) platformElement() {}

// Provider is an in-memory AccessibilityProvider over a fixed tree,
// optionally reporting one application per bundle ID.
type Provider struct {
	mu sync.Mutex
	apps map[string]*Node
	byPID map[int]*Node
	actionLog []string
}

func NewProvider() *Provider {
	return &Provider{apps: map[string]*Node{}, byPID: map[int]*Node{}}
}

func (p *Provider) AddApplication(bundleID string, pid int, root *Node) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.apps[bundleID] = root
	if pid != 0 {
		p.byPID[pid] = root
	}
}

func (p *Provider) ActionLog() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.actionLog))
	copy(out, p.actionLog)
	return out
}

func (p *Provider) ApplicationElement(_ context.Context, bundleID string, pid int) (platform.ElementRef, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if bundleID != "" {
		if n, ok := p.apps[bundleID]; ok {
			return ref{n}, nil
		}
		return nil, fmt.Errorf("fake: unknown bundle id %q", bundleID)
	}
	if n, ok := p.byPID[pid]; ok {
		return ref{n}, nil
	}
	return nil, fmt.Errorf("fake: unknown pid %d", pid)
}

func (p *Provider) ElementAtPosition(_ context.Context, x, y float64) (platform.ElementRef, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, root := range p.apps {
		if n := findAtPosition(root, x, y); n != nil {
			return ref{n}, nil
		}
	}
	return nil, platform.ErrNoValue
}

func findAtPosition(n *Node, x, y float64) *Node {
	if n.Frame != nil {
		f := *n.Frame
		if x >= f.X && x <= f.X+f.W && y >= f.Y && y <= f.Y+f.H {
			for _, c := range n.Children {
				if found := findAtPosition(c, x, y); found != nil {
					return found
				}
			}
			return n
		}
	}
	for _, c := range n.Children {
		if found := findAtPosition(c, x, y); found != nil {
			return found
		}
	}
	return nil
}

func asNode(e platform.ElementRef) *Node { return e.(ref).n }

func (p *Provider) Role(_ context.Context, e platform.ElementRef) (string, error) {
	return asNode(e).Role, nil
}

func (p *Provider) Subrole(_ context.Context, e platform.ElementRef) (string, error) {
	n := asNode(e)
	if n.Subrole == "" {
		return "", platform.ErrNoValue
	}
	return n.Subrole, nil
}

func (p *Provider) StringAttribute(_ context.Context, e platform.ElementRef, name string) (string, error) {
	n := asNode(e)
	var v string
	switch name {
	case "AXTitle":
		v = n.Title
	case "AXDescription":
		v = n.Desc
	case "AXHelp":
		v = n.Help
	case "AXValueDescription":
		v = n.ValueDesc
	case "AXPlaceholderValue":
		v = n.Placeholder
	case "AXLabel":
		v = n.Label
	case "AXIdentifier":
		v = n.Identifier
	case "AXRoleDescription":
		v = n.RoleDesc
	default:
		return "", platform.ErrAttributeUnsupported
	}
	if v == "" {
		return "", platform.ErrNoValue
	}
	return v, nil
}

func (p *Provider) Value(_ context.Context, e platform.ElementRef) (any, error) {
	n := asNode(e)
	if n.Value == nil {
		return nil, platform.ErrNoValue
	}
	return n.Value, nil
}

func (p *Provider) Frame(_ context.Context, e platform.ElementRef) (platform.Rect, bool, error) {
	n := asNode(e)
	if n.Frame == nil {
		return platform.Rect{}, false, nil
	}
	return *n.Frame, true, nil
}

func (p *Provider) SetFrame(_ context.Context, e platform.ElementRef, r platform.Rect) error {
	n := asNode(e)
	n.Frame = &r
	return nil
}

func (p *Provider) BoolState(_ context.Context, e platform.ElementRef, name string) (bool, bool, error) {
	n := asNode(e)
	var ptr *bool
	switch name {
	case "enabled":
		ptr = n.Enabled
	case "visible":
		ptr = n.Visible
	case "focused":
		ptr = n.Focused
	case "selected":
		ptr = n.Selected
	case "expanded":
		ptr = n.Expanded
	case "required":
		ptr = n.Required
	default:
		return false, false, platform.ErrAttributeUnsupported
	}
	if ptr == nil {
		if name == "enabled" || name == "visible" {
			return true, true, nil // default-true states
		}
		return false, false, nil
	}
	return *ptr, true, nil
}

func (p *Provider) ActionNames(_ context.Context, e platform.ElementRef) ([]string, error) {
	return asNode(e).Actions, nil
}

func (p *Provider) AttributeNames(_ context.Context, e platform.ElementRef) ([]string, error) {
	n := asNode(e)
	names := make([]string, 0, len(n.Attrs))
	for k := range n.Attrs {
		names = append(names, k)
	}
	return names, nil
}

func (p *Provider) RawAttribute(_ context.Context, e platform.ElementRef, name string) (any, error) {
	n := asNode(e)
	v, ok := n.Attrs[name]
	if !ok {
		return nil, platform.ErrNoValue
	}
	return v, nil
}

func (p *Provider) Children(_ context.Context, e platform.ElementRef) ([]platform.ElementRef, error) {
	n := asNode(e)
	if n.FailChildren != nil {
		return nil, n.FailChildren
	}
	out := make([]platform.ElementRef, len(n.Children))
	for i, c := range n.Children {
		out[i] = ref{c}
	}
	return out, nil
}

func (p *Provider) PerformAction(_ context.Context, e platform.ElementRef, action string) error {
	n := asNode(e)
	found := false
	for _, a := range n.Actions {
		if a == action {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("fake: element %s does not support action %s", n.Role, action)
	}
	p.mu.Lock()
	p.actionLog = append(p.actionLog, fmt.Sprintf("%s:%s", n.Role, action))
	p.mu.Unlock()
	if action == "AXPress" {
		if n.Value == nil {
			n.Value = "pressed"
		}
	}
	return nil
}

var _ platform.AccessibilityProvider = (*Provider)(nil)
