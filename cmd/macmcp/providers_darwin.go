//go:build darwin

package main

import (
	"github.com/macmcp/macmcp/internal/platform"
	"github.com/macmcp/macmcp/internal/platform/darwin"
	"github.com/macmcp/macmcp/internal/tools"
)

// newProviders wires the real cgo-backed accessibility, input, process,
// screen, and clipboard providers (internal/platform/darwin), the only
// build of macmcp that can actually drive macOS. The Screen provider's
// window lookup is supplied after Services exists, so providers are built
// in two steps: everything darwin.NewAccessibility doesn't depend on tools
// for, then the Services-backed window lookup is wired into the Screen
// provider once Services is constructed (see main.go).
func newProviders() (platform.Providers, error) {
	acc, err := darwin.NewAccessibility()
	if err != nil {
		return platform.Providers{}, err
	}
	return platform.Providers{
		Accessibility: acc,
		Input:         darwin.NewInput(),
		Process:       darwin.NewProcess(),
		Screen:        darwin.NewScreen(nil),
		Clipboard:     darwin.NewClipboard(),
	}, nil
}

// wireScreenWindowLookup connects the Screen provider's window-capture
// path to Services.WindowRect once Services exists — internal/platform/darwin
// never imports internal/tools (that would invert the dependency direction
// between the platform layer and the tool layer), so the lookup closure is
// injected here instead.
func wireScreenWindowLookup(providers platform.Providers, svc *tools.Services) {
	if scr, ok := providers.Screen.(*darwin.Screen); ok {
		scr.SetWindowLookup(svc.WindowRect)
	}
}
