//go:build darwin

package darwin

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework AppKit -framework Foundation

#include <AppKit/AppKit.h>
#include <Foundation/Foundation.h>

typedef struct {
 int pid;
 int frontmost;
 const char *bundleID;
 const char *name;
} running_app_t;

// copy_running_apps fills out with up to maxCount regular, background, and
// accessory applications (skipping none — unlike the grounding file's
// CUA finder, which only surfaces NSApplicationActivationPolicyRegular
// apps, the Application Process Provider needs to see every running
// application a caller might target, not just Dock-visible ones).
static int copy_running_apps(running_app_t *out, int maxCount) {
 NSArray<NSRunningApplication *> *apps = [[NSWorkspace sharedWorkspace] runningApplications];
 NSRunningApplication *front = [[NSWorkspace sharedWorkspace] frontmostApplication];
 int n = 0;
 for (NSRunningApplication *app in apps) {
 if (n >= maxCount) break;
 out[n].pid = (int)[app processIdentifier];
 out[n].frontmost = (front != nil && [app isEqual:front]) ? 1 : 0;
 NSString *bid = [app bundleIdentifier];
 out[n].bundleID = bid == nil ? "" : strdup([bid UTF8String]);
 NSString *name = [app localizedName];
 out[n].name = name == nil ? "" : strdup([name UTF8String]);
 n++;
 }
 return n;
}

static int pid_for_bundle_id(const char *bundleID) {
 NSString *target = [NSString stringWithUTF8String:bundleID];
 NSArray<NSRunningApplication *> *apps =
 [NSRunningApplication runningApplicationsWithBundleIdentifier:target];
 if ([apps count] == 0) {
 return -1;
 }
 return (int)[[apps objectAtIndex:0] processIdentifier];
}

static int launch_application(const char *bundleID, int waitForLaunch, int *outPid) {
 NSString *target = [NSString stringWithUTF8String:bundleID];
 NSURL *url = [[NSWorkspace sharedWorkspace] URLForApplicationWithBundleIdentifier:target];
 if (url == nil) {
 return -1;
 }

 NSWorkspaceOpenConfiguration *config = [NSWorkspaceOpenConfiguration configuration];
 config.activates = YES;

 __block int pid = -1;
 __block int done = 0;
 [[NSWorkspace sharedWorkspace] openApplicationAtURL:url
 configuration:config
 completionHandler:^(NSRunningApplication *app, NSError *error) {
 if (app != nil) {
 pid = (int)[app processIdentifier];
 }
 done = 1;
 }];

 if (waitForLaunch) {
 NSDate *deadline = [NSDate dateWithTimeIntervalSinceNow:10.0];
 while (!done && [deadline timeIntervalSinceNow] > 0) {
 [[NSRunLoop currentRunLoop] runMode:NSDefaultRunLoopMode
 beforeDate:[NSDate dateWithTimeIntervalSinceNow:0.05]];
 }
 }

 *outPid = pid;
 return done ? 0 : -2;
}

static int terminate_application(const char *bundleID, int force) {
 NSString *target = [NSString stringWithUTF8String:bundleID];
 NSArray<NSRunningApplication *> *apps =
 [NSRunningApplication runningApplicationsWithBundleIdentifier:target];
 if ([apps count] == 0) {
 return -1;
 }
 NSRunningApplication *app = [apps objectAtIndex:0];
 BOOL ok = force ? [app forceTerminate] : [app terminate];
 return ok ? 0 : -2;
}

static int activate_application(const char *bundleID, int hideOthers) {
 NSString *target = [NSString stringWithUTF8String:bundleID];
 NSArray<NSRunningApplication *> *apps =
 [NSRunningApplication runningApplicationsWithBundleIdentifier:target];
 if ([apps count] == 0) {
 return -1;
 }
 NSRunningApplication *app = [apps objectAtIndex:0];
 NSApplicationActivationOptions opts = 0;
 BOOL ok = [app activateWithOptions:opts];
 if (ok && hideOthers) {
 [[NSWorkspace sharedWorkspace] hideOtherApplications];
 }
 return ok ? 0 : -2;
}

static int hide_application(const char *bundleID) {
 NSString *target = [NSString stringWithUTF8String:bundleID];
 NSArray<NSRunningApplication *> *apps =
 [NSRunningApplication runningApplicationsWithBundleIdentifier:target];
 if ([apps count] == 0) {
 return -1;
 }
 BOOL ok = [[apps objectAtIndex:0] hide];
 return ok ? 0 : -2;
}

static void hide_other_applications(void) {
 [[NSWorkspace sharedWorkspace] hideOtherApplications];
}

static int frontmost_app(running_app_t *out) {
 NSRunningApplication *front = [[NSWorkspace sharedWorkspace] frontmostApplication];
 if (front == nil) {
 return -1;
 }
 out->pid = (int)[front processIdentifier];
 out->frontmost = 1;
 NSString *bid = [front bundleIdentifier];
 out->bundleID = bid == nil ? "" : strdup([bid UTF8String]);
 NSString *name = [front localizedName];
 out->name = name == nil ? "" : strdup([name UTF8String]);
 return 0;
}

static int bundle_is_running(const char *bundleID) {
 NSString *target = [NSString stringWithUTF8String:bundleID];
 NSArray<NSRunningApplication *> *apps =
 [NSRunningApplication runningApplicationsWithBundleIdentifier:target];
 return [apps count] > 0 ? 1 : 0;
}
*/
import "C"

import (
	"context"
	"fmt"
	"unsafe"

	"github.com/macmcp/macmcp/internal/platform"
)

const maxRunningApps = 512

func pidForBundleID(bundleID string) (int, error) {
	cBundle := C.CString(bundleID)
	defer C.free(unsafe.Pointer(cBundle))
	pid := int(C.pid_for_bundle_id(cBundle))
	if pid < 0 {
		return 0, fmt.Errorf("darwin: no running application with bundle id %q", bundleID)
	}
	return pid, nil
}

func toRunningApp(c C.running_app_t) platform.RunningApplication {
	app := platform.RunningApplication{
		PID: int(c.pid),
		Frontmost: c.frontmost != 0,
	}
	if c.bundleID != nil {
		app.BundleID = C.GoString(c.bundleID)
		C.free(unsafe.Pointer(c.bundleID))
	}
	if c.name != nil {
		app.Name = C.GoString(c.name)
		C.free(unsafe.Pointer(c.name))
	}
	return app
}

// Process implements platform.ApplicationProcessProvider over NSWorkspace
// and NSRunningApplication, grounded on the same Foundation/AppKit surface
// the retrieved darwin element finder uses for frontmost-app lookup,
// extended to the full lifecycle surface the interface names.
type Process struct{}

var _ platform.ApplicationProcessProvider = (*Process)(nil)

func NewProcess() *Process { return &Process{} }

func (p *Process) RunningApplications(_ context.Context) ([]platform.RunningApplication, error) {
	buf := make([]C.running_app_t, maxRunningApps)
	n := int(C.copy_running_apps(&buf[0], C.int(maxRunningApps)))
	out := make([]platform.RunningApplication, n)
	for i := 0; i < n; i++ {
		out[i] = toRunningApp(buf[i])
	}
	return out, nil
}

func (p *Process) Launch(_ context.Context, bundleID string, _ []string, waitForLaunch bool) (platform.RunningApplication, error) {
	cBundle := C.CString(bundleID)
	defer C.free(unsafe.Pointer(cBundle))

	var cPid C.int
	wait := C.int(0)
	if waitForLaunch {
		wait = 1
	}
	if code := C.launch_application(cBundle, wait, &cPid); code != 0 {
		return platform.RunningApplication{}, fmt.Errorf("darwin: launch %q failed (code %d)", bundleID, int(code))
	}
	return platform.RunningApplication{BundleID: bundleID, PID: int(cPid)}, nil
}

func (p *Process) Terminate(_ context.Context, bundleID string) error {
	return p.terminate(bundleID, false)
}

func (p *Process) ForceTerminate(_ context.Context, bundleID string) error {
	return p.terminate(bundleID, true)
}

func (p *Process) terminate(bundleID string, force bool) error {
	cBundle := C.CString(bundleID)
	defer C.free(unsafe.Pointer(cBundle))
	forceC := C.int(0)
	if force {
		forceC = 1
	}
	code := int(C.terminate_application(cBundle, forceC))
	switch code {
	case 0:
		return nil
	case -1:
		return fmt.Errorf("darwin: no running application with bundle id %q", bundleID)
	default:
		return fmt.Errorf("darwin: terminate %q failed (code %d)", bundleID, code)
	}
}

func (p *Process) Activate(_ context.Context, bundleID string, hideOthers bool) error {
	cBundle := C.CString(bundleID)
	defer C.free(unsafe.Pointer(cBundle))
	hideC := C.int(0)
	if hideOthers {
		hideC = 1
	}
	code := int(C.activate_application(cBundle, hideC))
	switch code {
	case 0:
		return nil
	case -1:
		return fmt.Errorf("darwin: no running application with bundle id %q", bundleID)
	default:
		return fmt.Errorf("darwin: activate %q failed (code %d)", bundleID, code)
	}
}

func (p *Process) Hide(_ context.Context, bundleID string) error {
	cBundle := C.CString(bundleID)
	defer C.free(unsafe.Pointer(cBundle))
	code := int(C.hide_application(cBundle))
	switch code {
	case 0:
		return nil
	case -1:
		return fmt.Errorf("darwin: no running application with bundle id %q", bundleID)
	default:
		return fmt.Errorf("darwin: hide %q failed (code %d)", bundleID, code)
	}
}

func (p *Process) HideOthers(_ context.Context, _ string) error {
	C.hide_other_applications()
	return nil
}

func (p *Process) Frontmost(_ context.Context) (platform.RunningApplication, error) {
	var buf C.running_app_t
	if C.frontmost_app(&buf) != 0 {
		return platform.RunningApplication{}, fmt.Errorf("darwin: no frontmost application")
	}
	return toRunningApp(buf), nil
}

func (p *Process) IsRunning(_ context.Context, bundleID string) (bool, error) {
	cBundle := C.CString(bundleID)
	defer C.free(unsafe.Pointer(cBundle))
	return C.bundle_is_running(cBundle) != 0, nil
}
