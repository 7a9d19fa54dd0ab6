package tools

import (
	"context"
	"encoding/base64"
	"encoding/json"

	"github.com/macmcp/macmcp/internal/platform"
	"github.com/macmcp/macmcp/internal/toolerr"
	"github.com/macmcp/macmcp/internal/toolkit"
)

type screenshotArgs struct {
	Region string `json:"region"`
	BundleID string `json:"bundleId,omitempty"`
	WindowID string `json:"windowId,omitempty"`
	ID string `json:"id,omitempty"`
}

var screenshotSchema = toolkit.Schema{
	Type: "object",
	Required: []string{"region"},
	Properties: map[string]toolkit.Schema{
		"region": {Type: "string", Enum: []string{"screen", "window", "element"}},
		"bundleId": {Type: "string"},
		"windowId": {Type: "string"},
		"id": {Type: "string"},
	},
}

// screenshotResult carries the captured raster image as base64.
type screenshotResult struct {
	MimeType string `json:"mimeType"`
	DataBase64 string `json:"data"`
}

// screenshot implements the screenshot tool: delegates to the
// Screen Provider, resolving an element's frame first for region=element.
func (s *Services) screenshot(ctx context.Context, raw json.RawMessage) (any, error) {
	var args screenshotArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, toolerr.New(toolerr.MalformedArgs, "%s", err.Error())
	}

	var (
		img platform.Image
		err error
	)

	cctx, cancel := s.withDeadline(ctx)
	defer cancel()

	switch args.Region {
	case "screen":
		img, err = s.Providers.Screen.CaptureScreen(cctx)
	case "window":
		if args.BundleID == "" {
			return nil, toolerr.New(toolerr.MalformedArgs, "region=window requires bundleId")
		}
		img, err = s.Providers.Screen.CaptureWindow(cctx, args.BundleID, args.WindowID)
	case "element":
		if args.BundleID == "" || args.ID == "" {
			return nil, toolerr.New(toolerr.MalformedArgs, "region=element requires bundleId and id")
		}
		opts := s.snapshotOptions(0, false, false)
		ref, rerr := s.resolveTarget(ctx, args.BundleID, args.ID, opts)
		if rerr != nil {
			return nil, rerr
		}
		if ref.Element.Frame == nil {
			return nil, toolerr.New(toolerr.CaptureFailed, "element %s has no on-screen frame", ref.Element.FullPath.String())
		}
		img, err = s.Providers.Screen.CaptureRect(cctx, *ref.Element.Frame)
	default:
		return nil, toolerr.New(toolerr.MalformedArgs, "unknown region %q", args.Region)
	}
	if err != nil {
		return nil, toolerr.Wrap(toolerr.CaptureFailed, err, "screen capture failed")
	}

	return screenshotResult{MimeType: img.MimeType, DataBase64: base64.StdEncoding.EncodeToString(img.Data)}, nil
}
