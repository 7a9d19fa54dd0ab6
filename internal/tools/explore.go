package tools

import (
	"context"
	"encoding/json"

	"github.com/macmcp/macmcp/internal/describe"
	"github.com/macmcp/macmcp/internal/path"
	"github.com/macmcp/macmcp/internal/resolve"
	"github.com/macmcp/macmcp/internal/snapshot"
	"github.com/macmcp/macmcp/internal/toolerr"
	"github.com/macmcp/macmcp/internal/toolkit"
)

// filterArgs mirrors resolve.Filter's wire shape.
type filterArgs struct {
	Role string `json:"role,omitempty"`
	TitleContains string `json:"titleContains,omitempty"`
	DescriptionContains string `json:"descriptionContains,omitempty"`
	ValueContains string `json:"valueContains,omitempty"`
	IdentifierContains string `json:"identifierContains,omitempty"`
	AnyFieldContains string `json:"anyFieldContains,omitempty"`
	Interactable *bool `json:"interactable,omitempty"`
	IncludeDisabled bool `json:"includeDisabled,omitempty"`
	IncludeNonInteractable bool `json:"includeNonInteractable,omitempty"`
	InMainContent *bool `json:"inMainContent,omitempty"`
}

func (f *filterArgs) toFilter(limit int) resolve.Filter {
	if f == nil {
		return resolve.Filter{Limit: limit}
	}
	return resolve.Filter{
		Role: f.Role,
		TitleContains: f.TitleContains,
		DescriptionContains: f.DescriptionContains,
		ValueContains: f.ValueContains,
		IdentifierContains: f.IdentifierContains,
		AnyFieldContains: f.AnyFieldContains,
		Interactable: f.Interactable,
		IncludeDisabled: f.IncludeDisabled,
		IncludeNonInteractable: f.IncludeNonInteractable,
		InMainContent: f.InMainContent,
		Limit: limit,
	}
}

type exploreArgs struct {
	Scope string `json:"scope"`
	BundleID string `json:"bundleId,omitempty"`
	X *float64 `json:"x,omitempty"`
	Y *float64 `json:"y,omitempty"`
	ID string `json:"id,omitempty"`
	Filter *filterArgs `json:"filter,omitempty"`
	MaxDepth int `json:"maxDepth,omitempty"`
	IncludeHidden bool `json:"includeHidden,omitempty"`
	Limit int `json:"limit,omitempty"`
	ShowCoordinates bool `json:"showCoordinates,omitempty"`
	ShowActions bool `json:"showActions,omitempty"`
}

var exploreSchema = toolkit.Schema{
	Type: "object",
	Required: []string{"scope"},
	Properties: map[string]toolkit.Schema{
		"scope": {Type: "string", Enum: []string{"system", "application", "position", "path"}},
		"bundleId": {Type: "string"},
		"x": {Type: "number"},
		"y": {Type: "number"},
		"id": {Type: "string"},
		"maxDepth": {Type: "number"},
		"includeHidden": {Type: "boolean"},
		"limit": {Type: "number"},
		"showCoordinates": {Type: "boolean"},
		"showActions": {Type: "boolean"},
		"filter": {Type: "object", Properties: map[string]toolkit.Schema{
			"role": {Type: "string"},
			"titleContains": {Type: "string"},
			"descriptionContains": {Type: "string"},
			"valueContains": {Type: "string"},
			"identifierContains": {Type: "string"},
			"anyFieldContains": {Type: "string"},
			"interactable": {Type: "boolean"},
			"includeDisabled": {Type: "boolean"},
			"includeNonInteractable": {Type: "boolean"},
			"inMainContent": {Type: "boolean"},
		}},
	},
}

// exploreUI implements explore_ui: capture a snapshot rooted at
// the requested scope, optionally filter it, and serialize the result.
func (s *Services) exploreUI(ctx context.Context, raw json.RawMessage) (any, error) {
	var args exploreArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, toolerr.New(toolerr.MalformedArgs, "%s", err.Error())
	}

	opts := s.snapshotOptions(args.MaxDepth, args.IncludeHidden, false)

	var (
		snap *snapshot.Snapshot
		root *snapshot.Element
		err error
	)

	switch args.Scope {
	case "system":
		snap, err = s.captureSystem(ctx, opts)
		if err == nil {
			root = snap.Root
		}
	case "application":
		snap, err = s.captureApplication(ctx, args.BundleID, opts)
		if err == nil {
			root = snap.Root
		}
	case "position":
		if args.X == nil || args.Y == nil {
			return nil, toolerr.New(toolerr.MalformedArgs, "scope=position requires x and y")
		}
		snap, err = s.capturePosition(ctx, *args.X, *args.Y, opts)
		if err == nil {
			root = snap.Root
		}
	case "path":
		// scope=path always resolves against a freshly captured application
		// snapshot (see captureSystem's doc comment): bundleId identifies
		// which application's tree to walk before resolving id within it.
		if args.BundleID == "" {
			return nil, toolerr.New(toolerr.MalformedArgs, "scope=path requires bundleId")
		}
		snap, err = s.captureApplication(ctx, args.BundleID, opts)
		if err != nil {
			break
		}
		var ref resolve.Ref
		ref, err = resolve.ResolveString(snap, args.ID)
		if err == nil {
			root = ref.Element
		}
	default:
		return nil, toolerr.New(toolerr.MalformedArgs, "unknown scope %q", args.Scope)
	}
	if err != nil {
		return nil, err
	}

	if args.Filter != nil {
		limit := args.Limit
		if limit <= 0 {
			limit = s.Config.Get().DefaultFilterLimit
		}
		matches := resolve.Apply(snap, args.Filter.toFilter(limit))
		out := make([]*describe.Descriptor, 0, len(matches))
		descOpts := describeOptions(args.ShowCoordinates, args.ShowActions, false)
		for _, e := range matches {
			out = append(out, describe.Describe(e, descOpts))
		}
		return out, nil
	}

	descOpts := describeOptions(args.ShowCoordinates, args.ShowActions, true)
	return describe.Describe(root, descOpts), nil
}

// resolveTarget resolves an interact_ui/keyboard/menu-style target: capture
// bundleID's application tree, then resolve id within it.
func (s *Services) resolveTarget(ctx context.Context, bundleID, id string, opts snapshot.Options) (resolve.Ref, error) {
	if bundleID == "" {
		return resolve.Ref{}, toolerr.New(toolerr.MalformedArgs, "bundleId is required to resolve a path")
	}
	p, err := path.Parse(id)
	if err != nil {
		return resolve.Ref{}, err
	}
	snap, err := s.captureApplication(ctx, bundleID, opts)
	if err != nil {
		return resolve.Ref{}, err
	}
	return resolve.Resolve(snap, p)
}
