package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macmcp/macmcp/internal/platform"
	"github.com/macmcp/macmcp/internal/toolerr"
)

func TestApplicationManagementGetRunningApplications(t *testing.T) {
	f := newFixture(t)
	out, err := f.svc.applicationManagement(context.Background(), mustJSON(t, applicationArgs{Action: "getRunningApplications"}))
	require.NoError(t, err)
	apps := out.([]platform.RunningApplication)
	assert.Len(t, apps, 2)
}

func TestApplicationManagementGetFrontmostApplication(t *testing.T) {
	f := newFixture(t)
	out, err := f.svc.applicationManagement(context.Background(), mustJSON(t, applicationArgs{Action: "getFrontmostApplication"}))
	require.NoError(t, err)
	app := out.(platform.RunningApplication)
	assert.Equal(t, "com.example.app", app.BundleID)
}

func TestApplicationManagementLaunch(t *testing.T) {
	f := newFixture(t)
	out, err := f.svc.applicationManagement(context.Background(), mustJSON(t, applicationArgs{
		Action: "launch",
		BundleID: "com.example.new",
	}))
	require.NoError(t, err)
	app := out.(platform.RunningApplication)
	assert.Equal(t, "com.example.new", app.BundleID)

	running, err := f.svc.applicationManagement(context.Background(), mustJSON(t, applicationArgs{Action: "isRunning", BundleID: "com.example.new"}))
	require.NoError(t, err)
	assert.True(t, running.(map[string]bool)["running"])
}

func TestApplicationManagementTerminate(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.applicationManagement(context.Background(), mustJSON(t, applicationArgs{
		Action: "terminate",
		BundleID: "com.example.other",
	}))
	require.NoError(t, err)

	_, err = f.svc.applicationManagement(context.Background(), mustJSON(t, applicationArgs{
		Action: "terminate",
		BundleID: "com.example.other",
	}))
	require.Error(t, err)
	te, ok := toolerr.As(err)
	require.True(t, ok)
	assert.Equal(t, toolerr.ApplicationNotFound, te.Code)
}

func TestApplicationManagementActionsRequireBundleID(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.applicationManagement(context.Background(), mustJSON(t, applicationArgs{Action: "activateApplication"}))
	require.Error(t, err)
	te, ok := toolerr.As(err)
	require.True(t, ok)
	assert.Equal(t, toolerr.MalformedArgs, te.Code)
}

func TestApplicationManagementUnknownAction(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.applicationManagement(context.Background(), mustJSON(t, applicationArgs{Action: "bogus", BundleID: "com.example.app"}))
	require.Error(t, err)
	te, ok := toolerr.As(err)
	require.True(t, ok)
	assert.Equal(t, toolerr.MalformedArgs, te.Code)
}
