//go:build darwin

package darwin

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework AppKit -framework Foundation

#include <AppKit/AppKit.h>
#include <Foundation/Foundation.h>

static NSString *pasteboard_type_for_kind(const char *kind) {
 NSString *k = [NSString stringWithUTF8String:kind];
 if ([k isEqualToString:@"text"] || [k length] == 0) {
 return NSPasteboardTypeString;
 }
 // Unknown kinds are passed through as a raw pasteboard type name, so a
 // caller can address e.g. "public.rtf" directly without this provider
 // needing a case for every UTI macOS defines.
 return k;
}

static const char *read_pasteboard(const char *kind, int *present) {
 NSPasteboard *pb = [NSPasteboard generalPasteboard];
 NSString *type = pasteboard_type_for_kind(kind);
 NSString *value = [pb stringForType:type];
 if (value == nil) {
 *present = 0;
 return "";
 }
 *present = 1;
 return strdup([value UTF8String]);
}

static int write_pasteboard(const char *kind, const char *data) {
 NSPasteboard *pb = [NSPasteboard generalPasteboard];
 NSString *type = pasteboard_type_for_kind(kind);
 [pb clearContents];
 NSString *value = [NSString stringWithUTF8String:data];
 BOOL ok = [pb setString:value forType:type];
 return ok ? 0 : -1;
}

static void clear_pasteboard(void) {
 [[NSPasteboard generalPasteboard] clearContents];
}
*/
import "C"

import (
	"context"
	"fmt"
	"unsafe"

	"github.com/macmcp/macmcp/internal/platform"
)

// Clipboard implements platform.ClipboardProvider over NSPasteboard's
// general pasteboard, the system-wide clipboard every macOS app reads
// from and writes to.
type Clipboard struct{}

var _ platform.ClipboardProvider = (*Clipboard)(nil)

func NewClipboard() *Clipboard { return &Clipboard{} }

func (c *Clipboard) Read(_ context.Context, kind string) (string, bool, error) {
	cKind := C.CString(kind)
	defer C.free(unsafe.Pointer(cKind))

	var present C.int
	cStr := C.read_pasteboard(cKind, &present)
	if present == 0 {
		return "", false, nil
	}
	defer C.free(unsafe.Pointer(cStr))
	return C.GoString(cStr), true, nil
}

func (c *Clipboard) Write(_ context.Context, kind string, data string) error {
	cKind := C.CString(kind)
	defer C.free(unsafe.Pointer(cKind))
	cData := C.CString(data)
	defer C.free(unsafe.Pointer(cData))

	if code := C.write_pasteboard(cKind, cData); code != 0 {
		return fmt.Errorf("darwin: clipboard write failed (code %d)", int(code))
	}
	return nil
}

func (c *Clipboard) Clear(_ context.Context) error {
	C.clear_pasteboard()
	return nil
}
