// Package diff implements the Change-Detection Engine:
// diffing two snapshots rooted at the same logical scope and reporting
// added/removed/modified elements.
package diff

import (
	"fmt"
	"hash/fnv"
	"math"

	"github.com/macmcp/macmcp/internal/snapshot"
)

// Modified pairs a before/after element under the same identity.
type Modified struct {
	Path string
	BeforeValue string
	AfterValue string
	BeforeState []string
	AfterState []string
	FrameChanged bool
}

// Report is the change report returned to a tool handler.
type Report struct {
	Added []*snapshot.Element
	Removed []*snapshot.Element
	Modified []Modified
	Truncated bool
}

const DefaultCategoryCap = 64

// Options bounds the diff.
type Options struct {
	CategoryCap int
}

func (o Options) normalized() Options {
	if o.CategoryCap <= 0 {
		o.CategoryCap = DefaultCategoryCap
	}
	return o
}

// identity is a stable hash key built from role, title, description,
// identifier, and frame. Frame coordinates are rounded to the nearest pixel
// before hashing, so sub-pixel differences that round to the same value
// keep identity. A 1px shift, or jitter across a .5 boundary, rounds to a
// different value and changes identity: such an element is reported as
// removed and added, not as modified.
func identity(e *snapshot.Element) uint64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%s|%s|%s|", e.Role, e.Title, e.Description, e.Identifier)
	if e.Frame != nil {
		fmt.Fprintf(h, "%d,%d,%d,%d", round(e.Frame.X), round(e.Frame.Y), round(e.Frame.W), round(e.Frame.H))
	}
	return h.Sum64()
}

func round(f float64) int64 { return int64(math.Round(f)) }

// framesApproxEqual tolerates ±1 pixel per dimension.
func framesApproxEqual(a, b *snapshot.Element) bool {
	if (a.Frame == nil) != (b.Frame == nil) {
		return false
	}
	if a.Frame == nil {
		return true
	}
	return math.Abs(a.Frame.X-b.Frame.X) <= 1 &&
		math.Abs(a.Frame.Y-b.Frame.Y) <= 1 &&
		math.Abs(a.Frame.W-b.Frame.W) <= 1 &&
		math.Abs(a.Frame.H-b.Frame.H) <= 1
}

type indexEntry struct {
	elements []*snapshot.Element // collisions fall back to sibling index
}

func buildIndex(snap *snapshot.Snapshot) map[uint64]*indexEntry {
	idx := make(map[uint64]*indexEntry)
	for _, e := range snap.Elements() {
		k := identity(e)
		entry, ok := idx[k]
		if !ok {
			entry = &indexEntry{}
			idx[k] = entry
		}
		entry.elements = append(entry.elements, e)
	}
	return idx
}

// Diff compares before and after, producing a bounded Report.
// Diff(a,b).Added and Diff(b,a).Removed match up to ordering, since
// Added/Removed both derive from the same set-difference-by-identity
// computation, just with operands swapped.
func Diff(before, after *snapshot.Snapshot, opts Options) Report {
	opts = opts.normalized()
	afterIdx := buildIndex(after)

	var report Report
	matchedAfter := make(map[*snapshot.Element]bool)

	for _, be := range before.Elements() {
		k := identity(be)
		afterEntry, ok := afterIdx[k]
		if !ok || len(afterEntry.elements) == 0 {
			if len(report.Removed) < opts.CategoryCap {
				report.Removed = append(report.Removed, be)
			} else {
				report.Truncated = true
			}
			continue
		}
		ae := takeUnmatched(afterEntry, matchedAfter)
		if ae == nil {
			if len(report.Removed) < opts.CategoryCap {
				report.Removed = append(report.Removed, be)
			} else {
				report.Truncated = true
			}
			continue
		}
		matchedAfter[ae] = true
		if be.ValueString() != ae.ValueString() || !statesEqual(be.State, ae.State) || !framesApproxEqual(be, ae) {
			if len(report.Modified) < opts.CategoryCap {
				report.Modified = append(report.Modified, Modified{
					Path: ae.FullPath.String(),
					BeforeValue: be.ValueString(),
					AfterValue: ae.ValueString(),
					BeforeState: stateLabels(be.State),
					AfterState: stateLabels(ae.State),
					FrameChanged: !framesApproxEqual(be, ae),
				})
			} else {
				report.Truncated = true
			}
		}
	}

	for _, ae := range after.Elements() {
		if matchedAfter[ae] {
			continue
		}
		if len(report.Added) < opts.CategoryCap {
			report.Added = append(report.Added, ae)
		} else {
			report.Truncated = true
		}
	}

	return report
}

func takeUnmatched(entry *indexEntry, matched map[*snapshot.Element]bool) *snapshot.Element {
	for _, e := range entry.elements {
		if !matched[e] {
			return e
		}
	}
	return nil
}

func statesEqual(a, b snapshot.State) bool {
	return a.Enabled == b.Enabled && a.Visible == b.Visible && a.Focused == b.Focused &&
		a.Selected == b.Selected && triEqual(a.Expanded, b.Expanded) && triEqual(a.Required, b.Required)
}

func triEqual(a, b *bool) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	if a == nil {
		return true
	}
	return *a == *b
}

func stateLabels(s snapshot.State) []string {
	var out []string
	if s.Enabled {
		out = append(out, "enabled")
	} else {
		out = append(out, "disabled")
	}
	if s.Visible {
		out = append(out, "visible")
	} else {
		out = append(out, "hidden")
	}
	if s.Focused {
		out = append(out, "focused")
	}
	if s.Selected {
		out = append(out, "selected")
	}
	return out
}
