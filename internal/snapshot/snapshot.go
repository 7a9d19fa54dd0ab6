// Package snapshot implements the Element Snapshot: an
// immutable, finite-depth capture of a live accessibility subtree.
package snapshot

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/macmcp/macmcp/internal/path"
	"github.com/macmcp/macmcp/internal/platform"
	"github.com/macmcp/macmcp/internal/toolerr"
)

// State is the tri-state-aware boolean state set. Expanded and
// Required are pointers because they are genuinely tri-state
// (present/absent), unlike Enabled/Visible/Focused/Selected which the
// platform always reports.
type State struct {
	Enabled bool
	Visible bool
	Focused bool
	Selected bool
	Expanded *bool
	Required *bool
}

// Element is the atomic unit of a snapshot.
type Element struct {
	Role string
	Subrole string
	Title string
	Description string
	Help string
	Value any
	ValueDescription string
	Placeholder string
	Label string
	Identifier string
	RoleDescription string

	Frame *platform.Rect
	State State
	Actions []string
	Attributes platform.RawAttributes

	Children []*Element

	// PathSegment is this element's own segment, derived once its
	// predicates are known.
	PathSegment path.Segment
	// FullPath is populated once the element's ancestors are known —
	// i.e. immediately after capture, since the capturer builds paths
	// top-down.
	FullPath path.Path

	// CaptureError records a platform error from reading *this* element's
	// children; "record the error on the parent and continue
	// with siblings" — the element itself is still valid, just partial.
	CaptureError string

	// HasParent/HasWindow/HasTopLevel are cycle-breaking flags:
	// the snapshot never stores back-edges. Navigation "up" is by path.
	HasParent bool
	HasWindow bool
	HasTopLevel bool
}

// ValueString string-projects Value for comparison.
func (e *Element) ValueString() string {
	return stringProject(e.Value)
}

func stringProject(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	case float64:
		return trimFloat(t)
	case int:
		return trimFloat(float64(t))
	default:
		return ""
	}
}

func trimFloat(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// Snapshot is an immutable capture rooted at some element.
type Snapshot struct {
	ID string
	CapturedAt time.Time
	MaxDepth int
	BoundReached bool
	Root *Element

	// elements is a flat index in document order, populated during
	// capture, used by internal/resolve to build (snapshot_id,
	// element_index) references.
	elements []*Element
}

// Elements returns the flat document-order index of captured elements.
func (s *Snapshot) Elements() []*Element { return s.elements }

// Synthesize builds a Snapshot around a root assembled outside the normal
// Capture walk — used for the system-wide overview, which stitches together several independently captured
// application subtrees under one synthetic, non-platform root. The flat
// index is rebuilt the same way Capture builds it, so resolve.Apply and
// other consumers of Elements work identically on a synthesized
// snapshot.
func Synthesize(id string, root *Element, maxDepth int) *Snapshot {
	snap := &Snapshot{ID: id, CapturedAt: time.Now(), MaxDepth: maxDepth, Root: root}
	snap.elements = flatten(root, nil)
	return snap
}

const (
	DefaultMaxDepth = 150
	HardMaxDepth = 250
)

// Options configures a capture.
type Options struct {
	MaxDepth int
	IncludeHidden bool
	OnlyMainContent bool
	// Concurrency bounds how many sibling subtrees are captured in
	// parallel via a weighted semaphore. 0 or 1 means sequential; when no
	// slot is free a child is captured on the calling goroutine.
	Concurrency int64
}

func (o Options) normalized() Options {
	if o.MaxDepth <= 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	if o.MaxDepth > HardMaxDepth {
		o.MaxDepth = HardMaxDepth
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 1
	}
	return o
}

// menuBarAndChromeRoles are skipped when OnlyMainContent is set.
var menuBarAndChromeRoles = map[string]bool{
	"AXMenuBar": true,
	"AXMenuBarItem": true,
	"AXMenu": true,
	"AXMenuItem": true,
	"AXToolbar": true,
	"AXCloseButton": true,
	"AXZoomButton": true,
	"AXMinimizeButton": true,
	"AXFullScreenButton": true,
}

// Capture crawls root to Options.MaxDepth via provider, producing an
// immutable Snapshot. Deadline enforcement
// is the caller's responsibility via ctx.
func Capture(ctx context.Context, provider platform.AccessibilityProvider, root platform.ElementRef, opts Options) (*Snapshot, error) {
	opts = opts.normalized()
	c := &capturer{
		ctx: ctx,
		provider: provider,
		opts: opts,
		sem: semaphore.NewWeighted(opts.Concurrency),
	}

	rootElem, boundReached, err := c.captureNode(ctx, root, path.Path{}, 0, false)
	if err != nil {
		return nil, err
	}
	if rootElem == nil {
		return nil, toolerr.New(toolerr.ApplicationNotFound, "application root produced no accessible element")
	}

	snap := &Snapshot{
		ID:           uuid.NewString(),
		CapturedAt:   time.Now(),
		MaxDepth:     opts.MaxDepth,
		BoundReached: boundReached || c.boundReached,
		Root:         rootElem,
	}
	snap.elements = flatten(rootElem, nil)
	return snap, nil
}

type capturer struct {
	ctx context.Context
	provider platform.AccessibilityProvider
	opts Options
	sem *semaphore.Weighted
	boundReached bool
}

// captureNode captures one element and, recursively, its children.
// parentPath is the path of parent's ancestors (not including the element
// itself); depth is the element's own depth (root = 0).
func (c *capturer) captureNode(ctx context.Context, e platform.ElementRef, parentPath path.Path, depth int, hasParent bool) (*Element, bool, error) {
	role, err := c.provider.Role(ctx, e)
	if err != nil {
		if isBenign(err) {
			role = ""
		} else {
			return nil, false, translatePlatformError(err)
		}
	}

	elem := &Element{Role: role, HasParent: hasParent, HasWindow: hasParent, HasTopLevel: true}
	elem.Subrole = stringAttr(func() (string, error) { return c.provider.Subrole(ctx, e) })
	elem.Title = stringAttr(func() (string, error) { return c.provider.StringAttribute(ctx, e, "AXTitle") })
	elem.Description = stringAttr(func() (string, error) { return c.provider.StringAttribute(ctx, e, "AXDescription") })
	elem.Help = stringAttr(func() (string, error) { return c.provider.StringAttribute(ctx, e, "AXHelp") })
	elem.ValueDescription = stringAttr(func() (string, error) { return c.provider.StringAttribute(ctx, e, "AXValueDescription") })
	elem.Placeholder = stringAttr(func() (string, error) { return c.provider.StringAttribute(ctx, e, "AXPlaceholderValue") })
	elem.Label = stringAttr(func() (string, error) { return c.provider.StringAttribute(ctx, e, "AXLabel") })
	elem.Identifier = stringAttr(func() (string, error) { return c.provider.StringAttribute(ctx, e, "AXIdentifier") })
	elem.RoleDescription = stringAttr(func() (string, error) { return c.provider.StringAttribute(ctx, e, "AXRoleDescription") })

	if v, err := c.provider.Value(ctx, e); err == nil {
		elem.Value = v
	} else if !isBenign(err) {
		return nil, false, translatePlatformError(err)
	}

	if f, ok, err := c.provider.Frame(ctx, e); err == nil && ok {
		elem.Frame = &f
	} else if err != nil && !isBenign(err) {
		return nil, false, translatePlatformError(err)
	}

	elem.State = captureState(ctx, c.provider, e)

	if actions, err := c.provider.ActionNames(ctx, e); err == nil {
		elem.Actions = actions
	} else if !isBenign(err) {
		return nil, false, translatePlatformError(err)
	}

	elem.Attributes = captureRawAttributes(ctx, c.provider, e)

	elem.PathSegment = buildSegment(elem)
	elem.FullPath = parentPath.Append(elem.PathSegment)

	if depth >= c.opts.MaxDepth {
		c.boundReached = true
		return elem, true, nil
	}

	if c.opts.OnlyMainContent && menuBarAndChromeRoles[elem.Role] {
		return elem, false, nil
	}

	children, err := c.provider.Children(ctx, e)
	if err != nil {
		if isBenign(err) {
			return elem, false, nil
		}
		// A non-benign child-read error is local to the parent: record it
		// and continue.
		elem.CaptureError = err.Error()
		return elem, false, nil
	}

	bound := false
	out := make([]*Element, len(children))
	errs := make([]error, len(children))
	done := make(chan int, len(children))
	for i, child := range children {
		i, child := i, child
		if c.opts.Concurrency <= 1 || !c.sem.TryAcquire(1) {
			// Capture inline rather than wait: the slots may all be held by
			// this node's own ancestors, which would never release them.
			ce, b, err := c.captureNode(ctx, child, elem.FullPath, depth+1, true)
			out[i], errs[i] = ce, err
			if b {
				bound = true
			}
			done <- i
			continue
		}
		go func() {
			defer c.sem.Release(1)
			ce, b, err := c.captureNode(ctx, child, elem.FullPath, depth+1, true)
			out[i] = ce
			errs[i] = err
			if b {
				bound = true
			}
			done <- i
		}()
	}
	for range children {
		<-done
	}

	kept := make([]*Element, 0, len(children))
	for i, ce := range out {
		if errs[i] != nil {
			if isBenign(errs[i]) {
				continue
			}
			// A single child's capture failure is local; the parent keeps
			// its other children.
			continue
		}
		if ce == nil {
			continue
		}
		if !c.opts.IncludeHidden && !ce.State.Visible {
			continue
		}
		kept = append(kept, ce)
	}
	elem.Children = kept
	if bound {
		c.boundReached = true
	}
	return elem, bound, nil
}

func buildSegment(e *Element) path.Segment {
	seg := path.Segment{Role: e.Role}
	if e.Identifier != "" {
		seg.Predicates = append(seg.Predicates, path.Predicate{Attr: "AXIdentifier", Value: e.Identifier})
		return seg
	}
	if e.Title != "" {
		seg.Predicates = append(seg.Predicates, path.Predicate{Attr: "AXTitle", Value: e.Title})
	}
	if e.Description != "" {
		seg.Predicates = append(seg.Predicates, path.Predicate{Attr: "AXDescription", Value: e.Description})
	}
	return seg
}

func captureState(ctx context.Context, p platform.AccessibilityProvider, e platform.ElementRef) State {
	var s State
	if v, present, err := p.BoolState(ctx, e, "enabled"); err == nil && present {
		s.Enabled = v
	} else {
		s.Enabled = true
	}
	if v, present, err := p.BoolState(ctx, e, "visible"); err == nil && present {
		s.Visible = v
	} else {
		s.Visible = true
	}
	if v, present, err := p.BoolState(ctx, e, "focused"); err == nil && present {
		s.Focused = v
	}
	if v, present, err := p.BoolState(ctx, e, "selected"); err == nil && present {
		s.Selected = v
	}
	if v, present, err := p.BoolState(ctx, e, "expanded"); err == nil && present {
		vv := v
		s.Expanded = &vv
	}
	if v, present, err := p.BoolState(ctx, e, "required"); err == nil && present {
		vv := v
		s.Required = &vv
	}
	return s
}

func captureRawAttributes(ctx context.Context, p platform.AccessibilityProvider, e platform.ElementRef) platform.RawAttributes {
	names, err := p.AttributeNames(ctx, e)
	if err != nil || len(names) == 0 {
		return nil
	}
	out := make(platform.RawAttributes, len(names))
	for _, n := range names {
		v, err := p.RawAttribute(ctx, e, n)
		if err != nil {
			continue
		}
		switch v.(type) {
		case string, float64, bool, int:
			out[n] = v
		default:
			// Unknown attribute types are dropped from the wire response,
			// never guessed.
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func stringAttr(fn func() (string, error)) string {
	v, err := fn()
	if err != nil {
		return ""
	}
	return v
}

func isBenign(err error) bool {
	return err == platform.ErrNoValue || err == platform.ErrAttributeUnsupported
}

func translatePlatformError(err error) error {
	switch err {
	case platform.ErrPermissionDenied:
		return toolerr.Wrap(toolerr.PermissionDenied, err, "platform permission denied")
	case platform.ErrCannotComplete:
		return toolerr.Wrap(toolerr.PlatformFailure, err, "platform could not complete request")
	default:
		return toolerr.Wrap(toolerr.PlatformFailure, err, "platform read failed")
	}
}

func flatten(e *Element, acc []*Element) []*Element {
	acc = append(acc, e)
	for _, c := range e.Children {
		acc = flatten(c, acc)
	}
	return acc
}
