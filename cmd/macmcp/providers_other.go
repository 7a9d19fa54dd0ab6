//go:build !darwin

package main

import (
	"fmt"
	"runtime"

	"github.com/macmcp/macmcp/internal/platform"
	"github.com/macmcp/macmcp/internal/tools"
)

// newProviders fails immediately on every platform but darwin: the
// Accessibility, Input, Application Process, Screen, and Clipboard
// providers are all backed by macOS-only frameworks (internal/platform/darwin).
// This build still compiles on other GOOS values so the rest of the module
// (and its tests, which run against internal/platform/fake) stay portable.
func newProviders() (platform.Providers, error) {
	return platform.Providers{}, fmt.Errorf("macmcp: accessibility providers are only implemented for darwin, not %s", runtime.GOOS)
}

func wireScreenWindowLookup(platform.Providers, *tools.Services) {}
