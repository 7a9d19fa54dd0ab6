//go:build darwin

// Package darwin implements the accessibility, input, application process,
// screen, and clipboard providers against the real macOS Accessibility,
// Quartz Event Services, NSWorkspace, Core Graphics, and NSPasteboard APIs.
// Grounded directly on the AXUIElement cgo bindings from cua's darwin
// element finder: that file's static C helper functions and
// CFRelease/finalizer discipline are reused and extended to cover every
// provider method, plus the four sibling providers it doesn't touch.
//
// This package builds only on darwin and is never exercised by package
// tests — internal/platform/fake stands in everywhere else in this repo.
package darwin

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework ApplicationServices -framework Foundation -framework AppKit

#include <ApplicationServices/ApplicationServices.h>
#include <Foundation/Foundation.h>
#include <AppKit/AppKit.h>

static int ax_is_trusted(void) {
 return AXIsProcessTrusted();
}

static AXUIElementRef ax_create_application(int pid) {
 return AXUIElementCreateApplication(pid);
}

static AXUIElementRef ax_copy_element_at_position(float x, float y) {
 AXUIElementRef systemWide = AXUIElementCreateSystemWide();
 AXUIElementRef element = NULL;
 AXUIElementCopyElementAtPosition(systemWide, x, y, &element);
 CFRelease(systemWide);
 return element;
}

static CFTypeRef ax_copy_attribute_value(AXUIElementRef element, CFStringRef attribute) {
 CFTypeRef value = NULL;
 AXError err = AXUIElementCopyAttributeValue(element, attribute, &value);
 if (err != kAXErrorSuccess) {
 return NULL;
 }
 return value;
}

static int ax_set_attribute_value(AXUIElementRef element, CFStringRef attribute, CFTypeRef value) {
 AXError err = AXUIElementSetAttributeValue(element, attribute, value);
 return (int)err;
}

static CFArrayRef ax_copy_attribute_names(AXUIElementRef element) {
 CFArrayRef names = NULL;
 AXError err = AXUIElementCopyAttributeNames(element, &names);
 if (err != kAXErrorSuccess) {
 return NULL;
 }
 return names;
}

static CFArrayRef ax_copy_action_names(AXUIElementRef element) {
 CFArrayRef names = NULL;
 AXError err = AXUIElementCopyActionNames(element, &names);
 if (err != kAXErrorSuccess) {
 return NULL;
 }
 return names;
}

static int ax_perform_action(AXUIElementRef element, CFStringRef action) {
 AXError err = AXUIElementPerformAction(element, action);
 return (int)err;
}

static char* cf_string_to_cstring(CFStringRef str) {
 if (str == NULL) {
 return NULL;
 }
 CFIndex length = CFStringGetLength(str);
 CFIndex maxSize = CFStringGetMaximumSizeForEncoding(length, kCFStringEncodingUTF8) + 1;
 char *buffer = (char *)malloc(maxSize);
 if (buffer == NULL) {
 return NULL;
 }
 if (!CFStringGetCString(str, buffer, maxSize, kCFStringEncodingUTF8)) {
 free(buffer);
 return NULL;
 }
 return buffer;
}

static CFStringRef cstring_to_cf_string(const char *str) {
 return CFStringCreateWithCString(kCFAllocatorDefault, str, kCFStringEncodingUTF8);
}

static int ax_value_get_point(CFTypeRef value, float *x, float *y) {
 CGPoint point;
 if (AXValueGetValue((AXValueRef)value, kAXValueCGPointType, &point)) {
 *x = point.x;
 *y = point.y;
 return 1;
 }
 return 0;
}

static int ax_value_get_size(CFTypeRef value, float *w, float *h) {
 CGSize size;
 if (AXValueGetValue((AXValueRef)value, kAXValueCGSizeType, &size)) {
 *w = size.width;
 *h = size.height;
 return 1;
 }
 return 0;
}

static CFTypeRef ax_make_point(float x, float y) {
 CGPoint p = CGPointMake(x, y);
 return AXValueCreate(kAXValueCGPointType, &p);
}

static CFTypeRef ax_make_size(float w, float h) {
 CGSize s = CGSizeMake(w, h);
 return AXValueCreate(kAXValueCGSizeType, &s);
}

static int ax_is_string(CFTypeRef v) { return v != NULL && CFGetTypeID(v) == CFStringGetTypeID(); }
static int ax_is_boolean(CFTypeRef v) { return v != NULL && CFGetTypeID(v) == CFBooleanGetTypeID(); }
static int ax_is_number(CFTypeRef v) { return v != NULL && CFGetTypeID(v) == CFNumberGetTypeID(); }
static int ax_is_array(CFTypeRef v) { return v != NULL && CFGetTypeID(v) == CFArrayGetTypeID(); }
static int ax_bool_value(CFTypeRef v) { return CFBooleanGetValue((CFBooleanRef)v) != 0; }
static double ax_number_value(CFTypeRef v) {
 double out = 0;
 CFNumberGetValue((CFNumberRef)v, kCFNumberDoubleType, &out);
 return out;
}
*/
import "C"

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	"github.com/macmcp/macmcp/internal/platform"
)

// elementRef wraps a retained AXUIElementRef. It is only ever constructed by
// this package, matching platform.ElementRef's "opaque handle" contract; a
// finalizer releases the underlying CFTypeRef when Go reclaims the wrapper,
// the same discipline the grounding file uses for its *Element.handle.
type elementRef struct {
	mu sync.Mutex
	ref C.AXUIElementRef
}

func (*elementRef) platformElement() {}

func wrapRef(ref C.AXUIElementRef) *elementRef {
	e := &elementRef{ref: ref}
	runtime.SetFinalizer(e, func(e *elementRef) {
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.ref != 0 {
			C.CFRelease(C.CFTypeRef(unsafe.Pointer(e.ref)))
			e.ref = 0
		}
	})
	return e
}

func asRef(e platform.ElementRef) (C.AXUIElementRef, error) {
	er, ok := e.(*elementRef)
	if !ok || er == nil {
		return 0, fmt.Errorf("darwin: not an accessibility element reference")
	}
	er.mu.Lock()
	defer er.mu.Unlock()
	if er.ref == 0 {
		return 0, fmt.Errorf("darwin: element reference already released")
	}
	return er.ref, nil
}

// Accessibility implements platform.AccessibilityProvider against the real
// AXUIElement API. Construct once per process (NewAccessibility checks
// AXIsProcessTrusted, matching the grounding file's newDarwinFinder).
type Accessibility struct{}

var _ platform.AccessibilityProvider = (*Accessibility)(nil)

// NewAccessibility fails with platform.ErrPermissionDenied if this process
// has not been granted Accessibility permission in System Settings — that
// is the PermissionDenied path at the provider boundary.
func NewAccessibility() (*Accessibility, error) {
	if C.ax_is_trusted() == 0 {
		return nil, platform.ErrPermissionDenied
	}
	return &Accessibility{}, nil
}

func (a *Accessibility) ApplicationElement(_ context.Context, bundleID string, pid int) (platform.ElementRef, error) {
	if pid == 0 {
		resolved, err := pidForBundleID(bundleID)
		if err != nil {
			return nil, err
		}
		pid = resolved
	}
	ref := C.ax_create_application(C.int(pid))
	if ref == 0 {
		return nil, fmt.Errorf("darwin: could not create accessibility element for pid %d", pid)
	}
	return wrapRef(ref), nil
}

func (a *Accessibility) ElementAtPosition(_ context.Context, x, y float64) (platform.ElementRef, error) {
	ref := C.ax_copy_element_at_position(C.float(x), C.float(y))
	if ref == 0 {
		return nil, platform.ErrNoValue
	}
	return wrapRef(ref), nil
}

func cfAttrName(name string) C.CFStringRef {
	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))
	return C.cstring_to_cf_string(cName)
}

func (a *Accessibility) copyAttribute(e platform.ElementRef, name string) (C.CFTypeRef, error) {
	ref, err := asRef(e)
	if err != nil {
		return 0, err
	}
	attrName := cfAttrName(name)
	defer C.CFRelease(C.CFTypeRef(unsafe.Pointer(attrName)))

	value := C.ax_copy_attribute_value(ref, attrName)
	if value == 0 {
		return 0, platform.ErrAttributeUnsupported
	}
	return value, nil
}

func (a *Accessibility) Role(ctx context.Context, e platform.ElementRef) (string, error) {
	return a.stringAttribute(ctx, e, "AXRole")
}

func (a *Accessibility) Subrole(ctx context.Context, e platform.ElementRef) (string, error) {
	return a.stringAttribute(ctx, e, "AXSubrole")
}

func (a *Accessibility) StringAttribute(ctx context.Context, e platform.ElementRef, name string) (string, error) {
	return a.stringAttribute(ctx, e, name)
}

func (a *Accessibility) stringAttribute(_ context.Context, e platform.ElementRef, name string) (string, error) {
	value, err := a.copyAttribute(e, name)
	if err != nil {
		return "", err
	}
	defer C.CFRelease(value)
	if C.ax_is_string(value) == 0 {
		return "", platform.ErrNoValue
	}
	cStr := C.cf_string_to_cstring(C.CFStringRef(unsafe.Pointer(value)))
	if cStr == nil {
		return "", platform.ErrNoValue
	}
	defer C.free(unsafe.Pointer(cStr))
	return C.GoString(cStr), nil
}

// Value returns the element's AXValue attribute, string-projecting a
// CFString and surfacing numbers/booleans as their Go scalar type — the
// value may be any scalar; internal/snapshot handles the final string
// projection for comparison.
func (a *Accessibility) Value(_ context.Context, e platform.ElementRef) (any, error) {
	value, err := a.copyAttribute(e, "AXValue")
	if err != nil {
		return nil, err
	}
	defer C.CFRelease(value)

	switch {
	case C.ax_is_string(value) != 0:
		cStr := C.cf_string_to_cstring(C.CFStringRef(unsafe.Pointer(value)))
		if cStr == nil {
			return nil, platform.ErrNoValue
		}
		defer C.free(unsafe.Pointer(cStr))
		return C.GoString(cStr), nil
	case C.ax_is_boolean(value) != 0:
		return C.ax_bool_value(value) != 0, nil
	case C.ax_is_number(value) != 0:
		return float64(C.ax_number_value(value)), nil
	default:
		return nil, platform.ErrNoValue
	}
}

func (a *Accessibility) Frame(_ context.Context, e platform.ElementRef) (platform.Rect, bool, error) {
	posValue, err := a.copyAttribute(e, "AXPosition")
	if err != nil {
		return platform.Rect{}, false, nil
	}
	defer C.CFRelease(posValue)

	sizeValue, err := a.copyAttribute(e, "AXSize")
	if err != nil {
		return platform.Rect{}, false, nil
	}
	defer C.CFRelease(sizeValue)

	var x, y, w, h C.float
	if C.ax_value_get_point(posValue, &x, &y) == 0 {
		return platform.Rect{}, false, nil
	}
	if C.ax_value_get_size(sizeValue, &w, &h) == 0 {
		return platform.Rect{}, false, nil
	}
	return platform.Rect{X: float64(x), Y: float64(y), W: float64(w), H: float64(h)}, true, nil
}

// SetFrame pushes a new position and size back to the element, the one
// write this interface exposes (window_management's move/resize actions;
// see internal/platform/accessibility.go's doc comment on why it's here).
func (a *Accessibility) SetFrame(_ context.Context, e platform.ElementRef, r platform.Rect) error {
	ref, err := asRef(e)
	if err != nil {
		return err
	}

	posAttr := cfAttrName("AXPosition")
	defer C.CFRelease(C.CFTypeRef(unsafe.Pointer(posAttr)))
	posValue := C.ax_make_point(C.float(r.X), C.float(r.Y))
	defer C.CFRelease(posValue)
	if code := C.ax_set_attribute_value(ref, posAttr, posValue); code != 0 {
		return fmt.Errorf("darwin: set AXPosition failed: AXError %d", int(code))
	}

	sizeAttr := cfAttrName("AXSize")
	defer C.CFRelease(C.CFTypeRef(unsafe.Pointer(sizeAttr)))
	sizeValue := C.ax_make_size(C.float(r.W), C.float(r.H))
	defer C.CFRelease(sizeValue)
	if code := C.ax_set_attribute_value(ref, sizeAttr, sizeValue); code != 0 {
		return fmt.Errorf("darwin: set AXSize failed: AXError %d", int(code))
	}
	return nil
}

// BoolState reads one of the boolean state attributes
// (enabled/visible/focused/selected/expanded/required), mapping each to its
// AX attribute name.
func (a *Accessibility) BoolState(_ context.Context, e platform.ElementRef, name string) (bool, bool, error) {
	axName, ok := boolAttrNames[name]
	if !ok {
		return false, false, platform.ErrAttributeUnsupported
	}
	value, err := a.copyAttribute(e, axName)
	if err != nil {
		return false, false, nil
	}
	defer C.CFRelease(value)
	if C.ax_is_boolean(value) == 0 {
		return false, false, nil
	}
	return C.ax_bool_value(value) != 0, true, nil
}

var boolAttrNames = map[string]string{
	"enabled": "AXEnabled",
	"visible": "AXVisible",
	"focused": "AXFocused",
	"selected": "AXSelected",
	"expanded": "AXExpanded",
	"required": "AXRequired",
}

func (a *Accessibility) ActionNames(_ context.Context, e platform.ElementRef) ([]string, error) {
	ref, err := asRef(e)
	if err != nil {
		return nil, err
	}
	names := C.ax_copy_action_names(ref)
	if names == 0 {
		return nil, nil
	}
	defer C.CFRelease(C.CFTypeRef(names))
	return cfArrayToStrings(names), nil
}

func (a *Accessibility) AttributeNames(_ context.Context, e platform.ElementRef) ([]string, error) {
	ref, err := asRef(e)
	if err != nil {
		return nil, err
	}
	names := C.ax_copy_attribute_names(ref)
	if names == 0 {
		return nil, nil
	}
	defer C.CFRelease(C.CFTypeRef(names))
	return cfArrayToStrings(names), nil
}

func cfArrayToStrings(arr C.CFArrayRef) []string {
	count := int(C.CFArrayGetCount(arr))
	out := make([]string, 0, count)
	for i := 0; i < count; i++ {
		item := C.CFArrayGetValueAtIndex(arr, C.CFIndex(i))
		if item == nil || C.ax_is_string(C.CFTypeRef(item)) == 0 {
			continue
		}
		cStr := C.cf_string_to_cstring(C.CFStringRef(item))
		if cStr == nil {
			continue
		}
		out = append(out, C.GoString(cStr))
		C.free(unsafe.Pointer(cStr))
	}
	return out
}

// RawAttribute returns an attribute the capturer doesn't know as a typed
// field, string/number/boolean-projected;
// anything else is dropped as ErrNoValue rather than guessed at.
func (a *Accessibility) RawAttribute(_ context.Context, e platform.ElementRef, name string) (any, error) {
	value, err := a.copyAttribute(e, name)
	if err != nil {
		return nil, err
	}
	defer C.CFRelease(value)

	switch {
	case C.ax_is_string(value) != 0:
		cStr := C.cf_string_to_cstring(C.CFStringRef(unsafe.Pointer(value)))
		if cStr == nil {
			return nil, platform.ErrNoValue
		}
		defer C.free(unsafe.Pointer(cStr))
		return C.GoString(cStr), nil
	case C.ax_is_boolean(value) != 0:
		return C.ax_bool_value(value) != 0, nil
	case C.ax_is_number(value) != 0:
		return float64(C.ax_number_value(value)), nil
	default:
		return nil, platform.ErrNoValue
	}
}

func (a *Accessibility) Children(_ context.Context, e platform.ElementRef) ([]platform.ElementRef, error) {
	ref, err := asRef(e)
	if err != nil {
		return nil, err
	}
	attrName := cfAttrName("AXChildren")
	defer C.CFRelease(C.CFTypeRef(unsafe.Pointer(attrName)))

	value := C.ax_copy_attribute_value(ref, attrName)
	if value == 0 {
		return nil, platform.ErrAttributeUnsupported
	}
	defer C.CFRelease(value)
	if C.ax_is_array(value) == 0 {
		return nil, nil
	}

	arr := C.CFArrayRef(unsafe.Pointer(value))
	count := int(C.CFArrayGetCount(arr))
	out := make([]platform.ElementRef, 0, count)
	for i := 0; i < count; i++ {
		childRef := C.AXUIElementRef(C.CFArrayGetValueAtIndex(arr, C.CFIndex(i)))
		if childRef == 0 {
			continue
		}
		C.CFRetain(C.CFTypeRef(unsafe.Pointer(childRef)))
		out = append(out, wrapRef(childRef))
	}
	return out, nil
}

func (a *Accessibility) PerformAction(_ context.Context, e platform.ElementRef, action string) error {
	ref, err := asRef(e)
	if err != nil {
		return err
	}
	actionName := cfAttrName(action)
	defer C.CFRelease(C.CFTypeRef(unsafe.Pointer(actionName)))

	if code := C.ax_perform_action(ref, actionName); code != 0 {
		return fmt.Errorf("darwin: perform action %s failed: AXError %d", action, int(code))
	}
	return nil
}
