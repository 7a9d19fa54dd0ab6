package tools

import (
	"context"
	"encoding/json"

	"github.com/macmcp/macmcp/internal/toolerr"
	"github.com/macmcp/macmcp/internal/toolkit"
)

type applicationArgs struct {
	Action string `json:"action"`
	BundleID string `json:"bundleId,omitempty"`
	Arguments []string `json:"arguments,omitempty"`
	WaitForLaunch bool `json:"waitForLaunch,omitempty"`
	HideOthers bool `json:"hideOthers,omitempty"`
}

var applicationSchema = toolkit.Schema{
	Type: "object",
	Required: []string{"action"},
	Properties: map[string]toolkit.Schema{
		"action": {Type: "string", Enum: []string{
			"launch", "terminate", "forceTerminate", "activateApplication", "hideApplication",
			"hideOtherApplications", "isRunning", "getRunningApplications", "getFrontmostApplication",
		}},
		"bundleId": {Type: "string"},
		"arguments": {Type: "array", Items: &toolkit.Schema{Type: "string"}},
		"waitForLaunch": {Type: "boolean"},
		"hideOthers": {Type: "boolean"},
	},
}

// applicationManagement implements the application_management tool: a thin delegation to the Application Process Provider.
func (s *Services) applicationManagement(ctx context.Context, raw json.RawMessage) (any, error) {
	var args applicationArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, toolerr.New(toolerr.MalformedArgs, "%s", err.Error())
	}

	needsBundleID := args.Action != "getRunningApplications" && args.Action != "getFrontmostApplication"
	if needsBundleID && args.BundleID == "" {
		return nil, toolerr.New(toolerr.MalformedArgs, "%s requires bundleId", args.Action)
	}

	cctx, cancel := s.withDeadline(ctx)
	defer cancel()
	proc := s.Providers.Process

	switch args.Action {
	case "launch":
		app, err := proc.Launch(cctx, args.BundleID, args.Arguments, args.WaitForLaunch)
		if err != nil {
			return nil, toolerr.Wrap(toolerr.LaunchFailed, err, "failed to launch %s", args.BundleID)
		}
		return app, nil
	case "terminate":
		if err := proc.Terminate(cctx, args.BundleID); err != nil {
			return nil, toolerr.Wrap(toolerr.ApplicationNotFound, err, "failed to terminate %s", args.BundleID)
		}
		return interactResult{OK: true}, nil
	case "forceTerminate":
		if err := proc.ForceTerminate(cctx, args.BundleID); err != nil {
			return nil, toolerr.Wrap(toolerr.ApplicationNotFound, err, "failed to force-terminate %s", args.BundleID)
		}
		return interactResult{OK: true}, nil
	case "activateApplication":
		if err := proc.Activate(cctx, args.BundleID, args.HideOthers); err != nil {
			return nil, toolerr.Wrap(toolerr.ApplicationNotFound, err, "failed to activate %s", args.BundleID)
		}
		return interactResult{OK: true}, nil
	case "hideApplication":
		if err := proc.Hide(cctx, args.BundleID); err != nil {
			return nil, toolerr.Wrap(toolerr.ApplicationNotFound, err, "failed to hide %s", args.BundleID)
		}
		return interactResult{OK: true}, nil
	case "hideOtherApplications":
		if err := proc.HideOthers(cctx, args.BundleID); err != nil {
			return nil, toolerr.Wrap(toolerr.ApplicationNotFound, err, "failed to hide other applications")
		}
		return interactResult{OK: true}, nil
	case "isRunning":
		running, err := proc.IsRunning(cctx, args.BundleID)
		if err != nil {
			return nil, toolerr.Wrap(toolerr.ApplicationNotFound, err, "failed to query %s", args.BundleID)
		}
		return map[string]bool{"running": running}, nil
	case "getRunningApplications":
		apps, err := proc.RunningApplications(cctx)
		if err != nil {
			return nil, toolerr.Wrap(toolerr.PlatformFailure, err, "failed to enumerate running applications")
		}
		return apps, nil
	case "getFrontmostApplication":
		app, err := proc.Frontmost(cctx)
		if err != nil {
			return nil, toolerr.Wrap(toolerr.ApplicationNotFound, err, "failed to read frontmost application")
		}
		return app, nil
	default:
		return nil, toolerr.New(toolerr.MalformedArgs, "unknown action %q", args.Action)
	}
}
