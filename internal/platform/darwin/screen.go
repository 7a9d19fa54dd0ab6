//go:build darwin

package darwin

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework ApplicationServices -framework AppKit -framework Foundation -framework CoreGraphics

#include <ApplicationServices/ApplicationServices.h>
#include <AppKit/AppKit.h>
#include <Foundation/Foundation.h>

// cg_image_to_png renders a CGImage to PNG bytes via NSBitmapImageRep,
// the standard macOS conversion path (no third-party image codec needed).
static NSData *cg_image_to_png(CGImageRef image) {
 if (image == NULL) {
 return nil;
 }
 NSBitmapImageRep *rep = [[NSBitmapImageRep alloc] initWithCGImage:image];
 NSData *png = [rep representationUsingType:NSBitmapImageFileTypePNG properties:@{}];
 return png;
}

static CFDataRef capture_screen_png(void) {
 CGImageRef image = CGDisplayCreateImage(CGMainDisplayID());
 NSData *data = cg_image_to_png(image);
 if (image != NULL) {
 CGImageRelease(image);
 }
 if (data == nil) {
 return NULL;
 }
 return (CFDataRef)CFBridgingRetain(data);
}

static CFDataRef capture_rect_png(float x, float y, float w, float h) {
 CGRect rect = CGRectMake(x, y, w, h);
 CGImageRef image = CGWindowListCreateImage(rect, kCGWindowListOptionOnScreenOnly, kCGNullWindowID, kCGWindowImageDefault);
 NSData *data = cg_image_to_png(image);
 if (image != NULL) {
 CGImageRelease(image);
 }
 if (data == nil) {
 return NULL;
 }
 return (CFDataRef)CFBridgingRetain(data);
}

// capture_window_rect_png rasterizes an already-resolved window rect. The
// Screen Provider is keyed by bundleId/windowId, not by CGWindowID, so the
// caller resolves the window's rect through the Accessibility Provider
// first; this function does no window lookup of its own.
static CFDataRef capture_window_rect_png(float x, float y, float w, float h) {
 return capture_rect_png(x, y, w, h);
}
*/
import "C"

import (
	"context"
	"fmt"
	"unsafe"

	"github.com/macmcp/macmcp/internal/platform"
)

// Screen implements platform.ScreenProvider over Core Graphics' display and
// window-list capture APIs, encoding every capture as PNG via
// NSBitmapImageRep. CaptureWindow resolves the target window's frame
// through lookup (backed by the same Accessibility Provider the rest of
// the server shares) and rasterizes that rect, since CGWindowListCreateImage
// has no bundleId/windowId-keyed entry point of its own.
type Screen struct {
	lookup WindowLookup
}

// WindowLookup resolves (bundleID, windowID) to a screen rect, implemented
// by internal/tools (which already knows how to enumerate an application's
// windows and resolve a window element to its frame) and injected here to
// avoid this package depending on internal/tools or internal/resolve.
type WindowLookup func(ctx context.Context, bundleID, windowID string) (platform.Rect, error)

var _ platform.ScreenProvider = (*Screen)(nil)

func NewScreen(lookup WindowLookup) *Screen {
	return &Screen{lookup: lookup}
}

// SetWindowLookup wires the window-rect resolver after construction, since
// it's typically only available once the caller's Services (internal/tools)
// exists, which itself depends on a fully-built platform.Providers —
// avoiding a construction-order cycle between this package and the caller.
func (s *Screen) SetWindowLookup(lookup WindowLookup) {
	s.lookup = lookup
}

func (s *Screen) CaptureScreen(_ context.Context) (platform.Image, error) {
	data := C.capture_screen_png()
	if data == 0 {
		return platform.Image{}, fmt.Errorf("darwin: screen capture failed")
	}
	defer C.CFRelease(C.CFTypeRef(data))
	return platform.Image{Data: cfDataToBytes(data), MimeType: "image/png"}, nil
}

func (s *Screen) CaptureWindow(ctx context.Context, bundleID, windowID string) (platform.Image, error) {
	if s.lookup == nil {
		return platform.Image{}, fmt.Errorf("darwin: no window lookup wired for window capture")
	}
	rect, err := s.lookup(ctx, bundleID, windowID)
	if err != nil {
		return platform.Image{}, err
	}
	return s.CaptureRect(ctx, rect)
}

func (s *Screen) CaptureRect(_ context.Context, r platform.Rect) (platform.Image, error) {
	data := C.capture_rect_png(C.float(r.X), C.float(r.Y), C.float(r.W), C.float(r.H))
	if data == 0 {
		return platform.Image{}, fmt.Errorf("darwin: rect capture failed")
	}
	defer C.CFRelease(C.CFTypeRef(data))
	return platform.Image{Data: cfDataToBytes(data), MimeType: "image/png"}, nil
}

func cfDataToBytes(data C.CFDataRef) []byte {
	n := int(C.CFDataGetLength(data))
	if n == 0 {
		return nil
	}
	ptr := C.CFDataGetBytePtr(data)
	return C.GoBytes(unsafe.Pointer(ptr), C.int(n))
}
