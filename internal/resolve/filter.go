package resolve

import (
	"strings"

	"github.com/macmcp/macmcp/internal/snapshot"
)

// Filter is a predicate-set over an element, used for bulk exploration.
type Filter struct {
	Role string
	TitleContains string
	DescriptionContains string
	ValueContains string
	IdentifierContains string
	AnyFieldContains string
	Interactable *bool
	IncludeDisabled bool
	IncludeNonInteractable bool
	InMainContent *bool
	Limit int
}

const (
	DefaultFilterLimit = 100
	HardFilterLimit = 1000
)

func (f Filter) normalized() Filter {
	if f.Limit <= 0 {
		f.Limit = DefaultFilterLimit
	}
	if f.Limit > HardFilterLimit {
		f.Limit = HardFilterLimit
	}
	return f
}

// clickableRoles are treated as interactable even with an empty action
// set, matching common platform roles that are clickable via default
// action despite not advertising it explicitly.
var clickableRoles = map[string]bool{
	"AXButton": true, "AXMenuItem": true, "AXCheckBox": true, "AXRadioButton": true,
	"AXPopUpButton": true, "AXLink": true, "AXTab": true,
}

var menuBarRoles = map[string]bool{"AXMenuBar": true, "AXMenuBarItem": true, "AXMenu": true, "AXMenuItem": true}

func isInteractable(e *snapshot.Element) bool {
	if len(e.Actions) > 0 {
		return true
	}
	return clickableRoles[e.Role]
}

func inMainContent(e *snapshot.Element) bool {
	return !menuBarRoles[e.Role]
}

// Apply traverses snap in document order, returning up to f.Limit matches.
func Apply(snap *snapshot.Snapshot, f Filter) []*snapshot.Element {
	f = f.normalized()
	var out []*snapshot.Element
	for _, e := range snap.Elements() {
		if len(out) >= f.Limit {
			break
		}
		if matches(e, f) {
			out = append(out, e)
		}
	}
	return out
}

func matches(e *snapshot.Element, f Filter) bool {
	if f.Role != "" && e.Role != f.Role {
		return false
	}
	if f.TitleContains != "" && !containsFold(e.Title, f.TitleContains) {
		return false
	}
	if f.DescriptionContains != "" && !containsFold(e.Description, f.DescriptionContains) {
		return false
	}
	if f.ValueContains != "" && !containsFold(e.ValueString(), f.ValueContains) {
		return false
	}
	if f.IdentifierContains != "" && !containsFold(e.Identifier, f.IdentifierContains) {
		return false
	}
	if f.AnyFieldContains != "" && !anyFieldContains(e, f.AnyFieldContains) {
		return false
	}
	if f.Interactable != nil && *f.Interactable != isInteractable(e) {
		return false
	}
	if !f.IncludeDisabled && !e.State.Enabled {
		return false
	}
	if !f.IncludeNonInteractable && !isInteractable(e) {
		return false
	}
	if f.InMainContent != nil && *f.InMainContent != inMainContent(e) {
		return false
	}
	return true
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func anyFieldContains(e *snapshot.Element, needle string) bool {
	fields := []string{e.Title, e.Description, e.Help, e.ValueString(), e.ValueDescription, e.Placeholder, e.Label, e.Identifier, e.RoleDescription}
	for _, f := range fields {
		if containsFold(f, needle) {
			return true
		}
	}
	for _, v := range e.Attributes {
		if containsFold(stringifyAttr(v), needle) {
			return true
		}
	}
	return false
}
