package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macmcp/macmcp/internal/toolerr"
)

func TestScreenshotScreen(t *testing.T) {
	f := newFixture(t)
	out, err := f.svc.screenshot(context.Background(), mustJSON(t, screenshotArgs{Region: "screen"}))
	require.NoError(t, err)
	res := out.(screenshotResult)
	assert.Equal(t, "image/png", res.MimeType)
	assert.NotEmpty(t, res.DataBase64)
	assert.Equal(t, []string{"screen"}, f.scr.Captures)
}

func TestScreenshotWindow(t *testing.T) {
	f := newFixture(t)
	out, err := f.svc.screenshot(context.Background(), mustJSON(t, screenshotArgs{
		Region: "window",
		BundleID: "com.example.app",
		WindowID: "main-window",
	}))
	require.NoError(t, err)
	res := out.(screenshotResult)
	assert.NotEmpty(t, res.DataBase64)
	require.Len(t, f.scr.Captures, 1)
	assert.Contains(t, f.scr.Captures[0], "com.example.app/main-window")
}

func TestScreenshotWindowRequiresBundleID(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.screenshot(context.Background(), mustJSON(t, screenshotArgs{Region: "window"}))
	require.Error(t, err)
	te, ok := toolerr.As(err)
	require.True(t, ok)
	assert.Equal(t, toolerr.MalformedArgs, te.Code)
}

func TestScreenshotElement(t *testing.T) {
	f := newFixture(t)
	out, err := f.svc.screenshot(context.Background(), mustJSON(t, screenshotArgs{
		Region: "element",
		BundleID: "com.example.app",
		ID: `macos://ui/AXApplication[@AXTitle="Example"]/AXWindow[@AXTitle="Main Window"]/AXButton[@AXTitle="Save"]`,
	}))
	require.NoError(t, err)
	res := out.(screenshotResult)
	assert.NotEmpty(t, res.DataBase64)
	require.Len(t, f.scr.Captures, 1)
	assert.Contains(t, f.scr.Captures[0], "rect 10,10,50,20")
}

func TestScreenshotUnknownRegion(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.screenshot(context.Background(), mustJSON(t, screenshotArgs{Region: "bogus"}))
	require.Error(t, err)
	te, ok := toolerr.As(err)
	require.True(t, ok)
	assert.Equal(t, toolerr.MalformedArgs, te.Code)
}
