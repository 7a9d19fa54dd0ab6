// Package describe implements the Element Descriptor Serializer: shaping an Element into a compact JSON record, honouring
// verbosity flags.
package describe

import (
	"sort"
	"strings"

	"github.com/macmcp/macmcp/internal/snapshot"
)

// Options controls verbosity.
type Options struct {
	ShowCoordinates bool
	ShowActions bool
	// Recurse controls whether Children are serialized. Filtered explore
	// results serialize a flat array without recursing; an unfiltered
	// scope serializes the whole subtree.
	Recurse bool
}

// Descriptor is the wire shape of a described element. Fields use
// `omitempty` so an empty field is genuinely absent from the JSON, not
// present-but-null — needed so default-state fields are suppressed rather
// than serialized as their zero value.
type Descriptor struct {
	ID string `json:"id"`
	Role string `json:"role"`
	Name string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Value string `json:"value,omitempty"`
	State []string `json:"state,omitempty"`
	Props string `json:"props,omitempty"`
	Frame *FrameJSON `json:"frame,omitempty"`
	Actions []string `json:"actions,omitempty"`
	Children []*Descriptor `json:"children,omitempty"`
}

type FrameJSON struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Describe shapes e into a Descriptor per Options.
func Describe(e *snapshot.Element, opts Options) *Descriptor {
	d := &Descriptor{
		ID: e.FullPath.String(),
		Role: e.Role,
	}

	name := elementName(e)
	if name != "" && name != e.Role && name != e.Identifier {
		d.Name = name
	}
	if e.Description != "" {
		d.Description = e.Description
	}
	if v := e.ValueString(); v != "" {
		d.Value = v
	}

	d.State = stateTokens(e.State)
	d.Props = propsString(e)

	if opts.ShowCoordinates && e.Frame != nil {
		d.Frame = &FrameJSON{X: e.Frame.X, Y: e.Frame.Y, W: e.Frame.W, H: e.Frame.H}
	}
	if opts.ShowActions && len(e.Actions) > 0 {
		d.Actions = e.Actions
	}

	if opts.Recurse {
		for _, c := range e.Children {
			d.Children = append(d.Children, Describe(c, opts))
		}
	}
	return d
}

// elementName picks the human-facing name field: Title if present,
// otherwise Label.
func elementName(e *snapshot.Element) string {
	if e.Title != "" {
		return e.Title
	}
	return e.Label
}

// stateTokens emits only non-default states:
// "disabled" (omit "enabled"), "hidden" (omit "visible"), "focused" (omit
// "unfocused"), "selected" (omit "unselected"), "expanded"/"collapsed",
// "required".
func stateTokens(s snapshot.State) []string {
	var tokens []string
	if !s.Enabled {
		tokens = append(tokens, "disabled")
	}
	if !s.Visible {
		tokens = append(tokens, "hidden")
	}
	if s.Focused {
		tokens = append(tokens, "focused")
	}
	if s.Selected {
		tokens = append(tokens, "selected")
	}
	if s.Expanded != nil {
		if *s.Expanded {
			tokens = append(tokens, "expanded")
		} else {
			tokens = append(tokens, "collapsed")
		}
	}
	if s.Required != nil && *s.Required {
		tokens = append(tokens, "required")
	}
	return tokens
}

// actionCapability maps an action to the capability token it implies;
// roleCapability maps a role to the capability tokens it implies beyond
// what actions alone would suggest.
var actionCapability = map[string]string{
	"AXPress": "clickable",
}

var roleCapability = map[string][]string{
	"AXTextField": {"editable"},
	"AXTextArea": {"editable"},
	"AXCheckBox": {"toggleable"},
	"AXRadioButton": {"toggleable"},
	"AXSlider": {"adjustable"},
	"AXStepper": {"adjustable"},
	"AXScrollArea": {"scrollable"},
	"AXList": {"selectable"},
	"AXTable": {"selectable"},
	"AXOutline": {"selectable"},
}

func propsString(e *snapshot.Element) string {
	set := map[string]bool{}
	for _, a := range e.Actions {
		if cap, ok := actionCapability[a]; ok {
			set[cap] = true
		}
	}
	for _, cap := range roleCapability[e.Role] {
		set[cap] = true
	}
	if len(e.Children) > 0 {
		set["hasChildren"] = true
	}
	if e.Help != "" {
		set["hasHelp"] = true
	}
	if e.ValueDescription != "" || e.Placeholder != "" {
		set["hasTooltip"] = true
	}
	if hasMenuChild(e) {
		set["hasMenu"] = true
	}
	if len(set) == 0 {
		return ""
	}
	tokens := make([]string, 0, len(set))
	for t := range set {
		tokens = append(tokens, t)
	}
	sort.Strings(tokens)
	return strings.Join(tokens, ",")
}

func hasMenuChild(e *snapshot.Element) bool {
	for _, c := range e.Children {
		if c.Role == "AXMenu" {
			return true
		}
	}
	return false
}
