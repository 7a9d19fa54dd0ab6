package rpcserver

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/macmcp/macmcp/internal/toolerr"
)

// ResourceBackend supplies the data behind the handful of resource URIs
// this server names: a thin wrapper around snapshot-to-JSON, implemented by
// internal/tools (which already holds the wired provider services).
type ResourceBackend interface {
	Applications(ctx context.Context) (any, error)
	ApplicationWindows(ctx context.Context, bundleID string) (any, error)
	ApplicationMenus(ctx context.Context, bundleID string) (any, error)
	UIElement(ctx context.Context, path string) (any, error)
}

// resourceDescriptors is the static resources/list catalogue.
// Templated URIs ({bundleId}) are listed once, in template form; a
// concrete resources/read still matches by prefix below.
func resourceDescriptors() []Resource {
	return []Resource{
		{URI: "macos://applications", Name: "Running applications", MimeType: "application/json",
			Description: "All running applications known to the Application Process Provider."},
		{URI: "macos://applications/{bundleId}/windows", Name: "Application windows", MimeType: "application/json",
			Description: "Windows of the application identified by bundleId."},
		{URI: "macos://applications/{bundleId}/menus", Name: "Application menus", MimeType: "application/json",
			Description: "Menu bar tree of the application identified by bundleId."},
		{URI: "macos://ui/...", Name: "UI element", MimeType: "application/json",
			Description: "The element addressed by a hierarchical path, serialized via the describe pipeline."},
	}
}

func resourceTemplates() []Resource {
	return []Resource{
		{URI: "macos://applications/{bundleId}/windows", Name: "Application windows", MimeType: "application/json"},
		{URI: "macos://applications/{bundleId}/menus", Name: "Application menus", MimeType: "application/json"},
	}
}

const (
	applicationsURI = "macos://applications"
	applicationsPfx = "macos://applications/"
	uiPfx = "macos://ui/"
)

// readResource resolves uri against backend and returns its JSON body.
func readResource(ctx context.Context, backend ResourceBackend, uri string) (ResourceContent, error) {
	if backend == nil {
		return ResourceContent{}, toolerr.New(toolerr.InternalError, "no resource backend wired")
	}

	var (
		body any
		err error
	)

	switch {
	case uri == applicationsURI:
		body, err = backend.Applications(ctx)
	case strings.HasPrefix(uri, uiPfx):
		body, err = backend.UIElement(ctx, uri)
	case strings.HasPrefix(uri, applicationsPfx):
		rest := strings.TrimPrefix(uri, applicationsPfx)
		bundleID, kind, ok := splitBundleResource(rest)
		if !ok {
			return ResourceContent{}, toolerr.New(toolerr.NotFound, "unrecognized resource uri %q", uri)
		}
		switch kind {
		case "windows":
			body, err = backend.ApplicationWindows(ctx, bundleID)
		case "menus":
			body, err = backend.ApplicationMenus(ctx, bundleID)
		default:
			return ResourceContent{}, toolerr.New(toolerr.NotFound, "unrecognized resource uri %q", uri)
		}
	default:
		return ResourceContent{}, toolerr.New(toolerr.NotFound, "unrecognized resource uri %q", uri)
	}
	if err != nil {
		return ResourceContent{}, err
	}

	raw, merr := json.Marshal(body)
	if merr != nil {
		return ResourceContent{}, toolerr.Wrap(toolerr.InternalError, merr, "failed to marshal resource body")
	}
	return ResourceContent{URI: uri, MimeType: "application/json", Text: string(raw)}, nil
}

// splitBundleResource splits "{bundleId}/windows" into ("{bundleId}", "windows").
// bundleId itself may contain dots (reverse-DNS form) but not slashes, so a
// single rightmost-segment split is unambiguous.
func splitBundleResource(rest string) (bundleID, kind string, ok bool) {
	idx := strings.LastIndex(rest, "/")
	if idx < 0 {
		return "", "", false
	}
	return rest[:idx], rest[idx+1:], true
}
