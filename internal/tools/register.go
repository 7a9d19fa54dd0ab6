package tools

import (
	"github.com/macmcp/macmcp/internal/toolkit"
)

// Register wires every tool handler into reg. Interactive is set
// per-tool: a tool that can ever synthesize input or mutate
// platform/OS state is serialized; explore_ui and screenshot never do
// either, so they may run concurrently with each other and with resource
// reads.
func Register(reg *toolkit.Registry, svc *Services) {
	reg.Register(toolkit.Tool{
		Name: "explore_ui",
		Description: "Capture and serialize the accessibility tree for a scope (system, application, screen position, or element path), optionally filtered.",
		Schema: exploreSchema,
		Interactive: false,
		Handler: svc.exploreUI,
	})
	reg.Register(toolkit.Tool{
		Name: "interact_ui",
		Description: "Synthesize a click, double-click, right-click, drag, scroll, or text entry against a resolved element or screen position.",
		Schema: interactSchema,
		Interactive: true,
		Handler: svc.interactUI,
	})
	reg.Register(toolkit.Tool{
		Name: "keyboard",
		Description: "Synthesize keyboard input: plain text, a single key press, or a timed sequence of key events.",
		Schema: keyboardSchema,
		Interactive: true,
		Handler: svc.keyboard,
	})
	reg.Register(toolkit.Tool{
		Name: "menu_navigation",
		Description: "Read an application's menu bar tree, or activate a menu item by title path.",
		Schema: menuSchema,
		Interactive: true,
		Handler: svc.menuNavigation,
	})
	reg.Register(toolkit.Tool{
		Name: "window_management",
		Description: "Enumerate an application's windows, or focus/minimize/move/resize/close one.",
		Schema: windowSchema,
		Interactive: true,
		Handler: svc.windowManagement,
	})
	reg.Register(toolkit.Tool{
		Name: "application_management",
		Description: "Launch, terminate, activate, hide, or query running applications via the Application Process Provider.",
		Schema: applicationSchema,
		Interactive: true,
		Handler: svc.applicationManagement,
	})
	reg.Register(toolkit.Tool{
		Name: "screenshot",
		Description: "Capture a raster image of the screen, a window, or a single resolved element.",
		Schema: screenshotSchema,
		Interactive: false,
		Handler: svc.screenshot,
	})
	reg.Register(toolkit.Tool{
		Name: "clipboard_management",
		Description: "Read, write, or clear the system pasteboard via the Clipboard Provider.",
		Schema: clipboardSchema,
		Interactive: true,
		Handler: svc.clipboardManagement,
	})
}
