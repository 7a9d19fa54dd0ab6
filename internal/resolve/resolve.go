// Package resolve implements the Resolver: mapping a path
// or filter to one (or many, for filters) elements within a snapshot.
package resolve

import (
	"strings"

	"github.com/macmcp/macmcp/internal/path"
	"github.com/macmcp/macmcp/internal/snapshot"
	"github.com/macmcp/macmcp/internal/toolerr"
)

// Ref is a Resolved Element Reference: meaningful only within
// the Snapshot that produced it.
type Ref struct {
	Snapshot *snapshot.Snapshot
	Element *snapshot.Element
	Index int
	// FuzzyNote is set when fuzzy fallback was used; it names the
	// canonical path the caller should use going forward.
	FuzzyNote string
}

// Resolve resolves p (already-parsed) against snap. Per segment it tries an
// exact match among the parent's children, then an exact match among the
// parent's deeper descendants, and then falls back to fuzzy matching among
// the parent's children.
func Resolve(snap *snapshot.Snapshot, p path.Path) (Ref, error) {
	if len(p.Segments) == 0 {
		return Ref{Snapshot: snap, Element: snap.Root, Index: indexOf(snap, snap.Root)}, nil
	}

	candidates := []*snapshot.Element{snap.Root}
	var fuzzyUsed bool

	// The first segment must match the root itself (the path's root
	// segment names the snapshot root's own role/predicates).
	if !segmentMatches(p.Segments[0], snap.Root, false) {
		return Ref{}, toolerr.New(toolerr.NotFound, "root element does not match %s", path.Serialize(path.Path{Segments: p.Segments[:1]}))
	}

	for depth := 1; depth < len(p.Segments); depth++ {
		seg := p.Segments[depth]
		parent := candidates[0]
		exact := matchingChildren(seg, parent, false)
		if len(exact) == 0 {
			// No direct child matches: search deeper so a path that skips
			// intermediate containers (such as windows) still finds it.
			var walk func(e *snapshot.Element)
			walk = func(e *snapshot.Element) {
				for _, c := range e.Children {
					if segmentMatches(seg, c, false) {
						exact = append(exact, c)
					}
					walk(c)
				}
			}
			walk(parent)
		}

		chosen, err := disambiguate(seg, exact, parent)
		if err == nil {
			candidates = []*snapshot.Element{chosen}
			continue
		}
		if amb, ok := toolerr.As(err); ok && amb.Code == toolerr.Ambiguous {
			return Ref{}, err
		}

		// Zero exact candidates: attempt fuzzy fallback.
		fuzzy, ferr := fuzzyFallback(seg, parent)
		if ferr != nil {
			return Ref{}, ferr
		}
		candidates = []*snapshot.Element{fuzzy}
		fuzzyUsed = true
	}

	chosen := candidates[0]
	ref := Ref{Snapshot: snap, Element: chosen, Index: indexOf(snap, chosen)}
	if fuzzyUsed {
		ref.FuzzyNote = chosen.FullPath.String()
	}
	return ref, nil
}

// ResolveString parses s then resolves it, folding MalformedPath into the
// same error channel as resolution failures.
func ResolveString(snap *snapshot.Snapshot, s string) (Ref, error) {
	p, err := path.Parse(s)
	if err != nil {
		return Ref{}, err
	}
	return Resolve(snap, p)
}

func indexOf(snap *snapshot.Snapshot, e *snapshot.Element) int {
	for i, el := range snap.Elements() {
		if el == e {
			return i
		}
	}
	return -1
}

// segmentMatches reports whether seg matches e exactly (role equal, every
// predicate's attribute value equal after string projection) or, if fuzzy
// is true, with contains/case-insensitive semantics.
func segmentMatches(seg path.Segment, e *snapshot.Element, fuzzy bool) bool {
	if seg.Role != e.Role {
		return false
	}
	for _, pred := range seg.Predicates {
		val, ok := attrValue(e, pred.Attr)
		if !ok {
			// Predicate names an attribute the element does not advertise:
			// non-match, not an error.
			return false
		}
		if fuzzy {
			if !strings.Contains(strings.ToLower(val), strings.ToLower(pred.Value)) {
				return false
			}
		} else if val != pred.Value {
			return false
		}
	}
	return true
}

// attrValue returns the string-projected value of a known attribute name
// on e, and whether e advertises that attribute at all.
func attrValue(e *snapshot.Element, attr string) (string, bool) {
	switch attr {
	case "AXTitle":
		return e.Title, e.Title != ""
	case "AXDescription":
		return e.Description, e.Description != ""
	case "AXHelp":
		return e.Help, e.Help != ""
	case "AXValueDescription":
		return e.ValueDescription, e.ValueDescription != ""
	case "AXPlaceholderValue":
		return e.Placeholder, e.Placeholder != ""
	case "AXLabel":
		return e.Label, e.Label != ""
	case "AXIdentifier":
		return e.Identifier, e.Identifier != ""
	case "AXRoleDescription":
		return e.RoleDescription, e.RoleDescription != ""
	case "AXValue":
		s := e.ValueString()
		return s, s != ""
	default:
		if e.Attributes == nil {
			return "", false
		}
		v, ok := e.Attributes[attr]
		if !ok {
			return "", false
		}
		return stringifyAttr(v), true
	}
}

func stringifyAttr(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

func matchingChildren(seg path.Segment, parent *snapshot.Element, fuzzy bool) []*snapshot.Element {
	var out []*snapshot.Element
	for _, c := range parent.Children {
		if segmentMatches(seg, c, fuzzy) {
			out = append(out, c)
		}
	}
	return out
}

// preferredAttrs is the set of predicate attributes whose exact match is
// preferred when disambiguating.
var preferredAttrs = map[string]bool{"AXTitle": true, "AXDescription": true, "AXIdentifier": true}

func disambiguate(seg path.Segment, candidates []*snapshot.Element, parent *snapshot.Element) (*snapshot.Element, error) {
	if len(candidates) == 0 {
		return nil, toolerr.New(toolerr.NotFound, "no element matches %s under %s", path.Serialize(path.Path{Segments: []path.Segment{seg}}), parent.FullPath.String())
	}
	if len(candidates) == 1 {
		return candidates[0], nil
	}

	// Prefer exact matches on all of title/description/identifier present
	// in the predicate set.
	hasPreferred := false
	for _, pred := range seg.Predicates {
		if preferredAttrs[pred.Attr] {
			hasPreferred = true
			break
		}
	}
	if hasPreferred {
		var preferred []*snapshot.Element
		for _, c := range candidates {
			if allPreferredMatch(seg, c) {
				preferred = append(preferred, c)
			}
		}
		if len(preferred) == 1 {
			return preferred[0], nil
		}
		if len(preferred) > 1 {
			candidates = preferred
		}
	}

	paths := make([]string, len(candidates))
	for i, c := range candidates {
		paths[i] = c.FullPath.String()
	}
	return nil, toolerr.New(toolerr.Ambiguous, "%d candidates match %s", len(candidates), path.Serialize(path.Path{Segments: []path.Segment{seg}})).WithCandidates(paths)
}

func allPreferredMatch(seg path.Segment, e *snapshot.Element) bool {
	for _, pred := range seg.Predicates {
		if !preferredAttrs[pred.Attr] {
			continue
		}
		val, ok := attrValue(e, pred.Attr)
		if !ok || val != pred.Value {
			return false
		}
	}
	return true
}

// fuzzyFallback implements its ordered fallback chain.
func fuzzyFallback(seg path.Segment, parent *snapshot.Element) (*snapshot.Element, error) {
	// Same role, predicates relaxed to contains/case-insensitive.
	contains := matchingChildren(seg, parent, true)
	if len(contains) == 1 {
		return contains[0], nil
	}

	// Same role, ignore all predicates — only if <=3 candidates remain.
	roleOnly := matchingChildren(path.Segment{Role: seg.Role}, parent, false)
	if len(roleOnly) > 0 && len(roleOnly) <= 3 {
		if len(roleOnly) == 1 {
			return roleOnly[0], nil
		}
		// More than one survivor even after relaxing to role-only: still
		// ambiguous, not found — fuzzy fallback only ever returns a single
		// result, so with >1 roleOnly candidates we report NotFound rather
		// than guessing.
	}

	return nil, toolerr.New(toolerr.NotFound, "no element (exact or fuzzy) matches role %s under %s", seg.Role, parent.FullPath.String())
}
