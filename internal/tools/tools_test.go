package tools

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/macmcp/macmcp/internal/config"
	"github.com/macmcp/macmcp/internal/platform"
	"github.com/macmcp/macmcp/internal/platform/fake"
)

// testFixture bundles a Services wired to in-memory fakes with one
// application ("com.example.app", pid 1) carrying a menu bar, a window with
// a couple of interactable children, and a second application
// ("com.example.other") used for multi-app scenarios (explore_ui
// scope=system, the macos://ui/ resource's try-every-app fallback).
type testFixture struct {
	svc *Services
	acc *fake.Provider
	input *fake.Input
	proc *fake.Process
	scr *fake.Screen
	clip *fake.Clipboard
}

func newFixture(t *testing.T) *testFixture {
	t.Helper()

	saveButton := &fake.Node{
		Role: "AXButton", Title: "Save", Actions: []string{"AXPress"},
		Frame: &platform.Rect{X: 10, Y: 10, W: 50, H: 20},
	}
	nameField := &fake.Node{
		Role: "AXTextField", Title: "Name",
		Frame: &platform.Rect{X: 10, Y: 40, W: 100, H: 20},
	}
	disabledButton := &fake.Node{
		Role: "AXButton", Title: "Disabled", Actions: []string{"AXPress"},
		Frame: &platform.Rect{X: 10, Y: 70, W: 50, H: 20}, Enabled: boolp(false),
	}
	closeButton := &fake.Node{
		Role: "AXButton", Subrole: "AXCloseButton", Actions: []string{"AXPress"},
		Frame: &platform.Rect{X: 2, Y: 2, W: 14, H: 14},
	}
	window := &fake.Node{
		Role: "AXWindow", Title: "Main Window", Identifier: "main-window",
		Frame: &platform.Rect{X: 0, Y: 0, W: 400, H: 300},
		Focused: boolp(true), Actions: []string{"AXRaise", "AXMinimize"},
		Children: []*fake.Node{closeButton, saveButton, nameField, disabledButton},
	}
	fileMenuItems := &fake.Node{
		Role: "AXMenu",
		Children: []*fake.Node{
			{Role: "AXMenuItem", Title: "New", Actions: []string{"AXPress"}},
			{Role: "AXMenuItem", Title: "Open", Actions: []string{"AXPress"}},
		},
	}
	fileMenuBarItem := &fake.Node{
		Role: "AXMenuBarItem", Title: "File",
		Children: []*fake.Node{fileMenuItems},
	}
	menuBar := &fake.Node{
		Role: "AXMenuBar",
		Children: []*fake.Node{fileMenuBarItem},
	}
	appRoot := &fake.Node{
		Role: "AXApplication",
		Title: "Example",
		Children: []*fake.Node{menuBar, window},
	}

	otherRoot := &fake.Node{
		Role: "AXApplication",
		Title: "Other",
		Children: []*fake.Node{
			{Role: "AXWindow", Title: "Other Window", Frame: &platform.Rect{X: 1000, Y: 1000, W: 200, H: 150}},
		},
	}

	multiRoot := &fake.Node{
		Role: "AXApplication",
		Title: "Multi",
		Children: []*fake.Node{
			{Role: "AXWindow", Title: "First", Frame: &platform.Rect{X: 0, Y: 0, W: 100, H: 100}},
			{Role: "AXWindow", Title: "Second", Frame: &platform.Rect{X: 200, Y: 0, W: 100, H: 100}},
		},
	}

	acc := fake.NewProvider()
	acc.AddApplication("com.example.app", 1, appRoot)
	acc.AddApplication("com.example.other", 2, otherRoot)
	acc.AddApplication("com.example.multi", 3, multiRoot)

	proc := fake.NewProcess()
	proc.AddApplication(platform.RunningApplication{BundleID: "com.example.app", PID: 1, Name: "Example", Frontmost: true})
	proc.AddApplication(platform.RunningApplication{BundleID: "com.example.other", PID: 2, Name: "Other"})

	input := fake.NewInput()
	scr := fake.NewScreen()
	clip := fake.NewClipboard()

	providers := platform.Providers{
		Accessibility: acc,
		Input: input,
		Process: proc,
		Screen: scr,
		Clipboard: clip,
	}
	svc := NewServices(providers, config.NewLive(config.Default()))

	return &testFixture{svc: svc, acc: acc, input: input, proc: proc, scr: scr, clip: clip}
}

func boolp(b bool) *bool { return &b }

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}
