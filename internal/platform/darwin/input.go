//go:build darwin

package darwin

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework ApplicationServices -framework Carbon

#include <ApplicationServices/ApplicationServices.h>

static void post_mouse_event(CGEventType type, CGMouseButton button, float x, float y) {
 CGPoint point = CGPointMake(x, y);
 CGEventRef event = CGEventCreateMouseEvent(NULL, type, point, button);
 CGEventPost(kCGHIDEventTap, event);
 CFRelease(event);
}

static void click_at(float x, float y) {
 post_mouse_event(kCGEventLeftMouseDown, kCGMouseButtonLeft, x, y);
 post_mouse_event(kCGEventLeftMouseUp, kCGMouseButtonLeft, x, y);
}

static void double_click_at(float x, float y) {
 CGPoint point = CGPointMake(x, y);
 CGEventRef down = CGEventCreateMouseEvent(NULL, kCGEventLeftMouseDown, point, kCGMouseButtonLeft);
 CGEventSetIntegerValueField(down, kCGMouseEventClickState, 2);
 CGEventRef up = CGEventCreateMouseEvent(NULL, kCGEventLeftMouseUp, point, kCGMouseButtonLeft);
 CGEventSetIntegerValueField(up, kCGMouseEventClickState, 2);
 CGEventPost(kCGHIDEventTap, down);
 CGEventPost(kCGHIDEventTap, up);
 CFRelease(down);
 CFRelease(up);
}

static void right_click_at(float x, float y) {
 post_mouse_event(kCGEventRightMouseDown, kCGMouseButtonRight, x, y);
 post_mouse_event(kCGEventRightMouseUp, kCGMouseButtonRight, x, y);
}

static void drag(float fromX, float fromY, float toX, float toY) {
 CGPoint from = CGPointMake(fromX, fromY);
 CGPoint to = CGPointMake(toX, toY);

 CGEventRef down = CGEventCreateMouseEvent(NULL, kCGEventLeftMouseDown, from, kCGMouseButtonLeft);
 CGEventPost(kCGHIDEventTap, down);
 CFRelease(down);

 CGEventRef move = CGEventCreateMouseEvent(NULL, kCGEventLeftMouseDragged, to, kCGMouseButtonLeft);
 CGEventPost(kCGHIDEventTap, move);
 CFRelease(move);

 CGEventRef up = CGEventCreateMouseEvent(NULL, kCGEventLeftMouseUp, to, kCGMouseButtonLeft);
 CGEventPost(kCGHIDEventTap, up);
 CFRelease(up);
}

static void scroll(float deltaX, float deltaY) {
 CGEventRef event = CGEventCreateScrollWheelEvent(NULL, kCGScrollEventUnitPixel, 2, (int32_t)deltaY, (int32_t)deltaX);
 CGEventPost(kCGHIDEventTap, event);
 CFRelease(event);
}

static void type_text(const UniChar *chars, int length) {
 CGEventRef down = CGEventCreateKeyboardEvent(NULL, 0, true);
 CGEventKeyboardSetUnicodeString(down, (UniCharCount)length, chars);
 CGEventPost(kCGHIDEventTap, down);
 CFRelease(down);

 CGEventRef up = CGEventCreateKeyboardEvent(NULL, 0, false);
 CGEventKeyboardSetUnicodeString(up, (UniCharCount)length, chars);
 CGEventPost(kCGHIDEventTap, up);
 CFRelease(up);
}

static CGEventFlags modifier_flag(const char *name) {
 if (strcmp(name, "cmd") == 0 || strcmp(name, "command") == 0) return kCGEventFlagMaskCommand;
 if (strcmp(name, "shift") == 0) return kCGEventFlagMaskShift;
 if (strcmp(name, "option") == 0 || strcmp(name, "alt") == 0) return kCGEventFlagMaskAlternate;
 if (strcmp(name, "control") == 0 || strcmp(name, "ctrl") == 0) return kCGEventFlagMaskControl;
 if (strcmp(name, "fn") == 0) return kCGEventFlagMaskSecondaryFn;
 return 0;
}

static void press_key(int keyCode, CGEventFlags flags, int isDown) {
 CGEventRef event = CGEventCreateKeyboardEvent(NULL, (CGKeyCode)keyCode, isDown != 0);
 if (flags != 0) {
 CGEventSetFlags(event, flags);
 }
 CGEventPost(kCGHIDEventTap, event);
 CFRelease(event);
}

static void tap_key(int keyCode, CGEventFlags flags) {
 press_key(keyCode, flags, 1);
 press_key(keyCode, flags, 0);
}
*/
import "C"

import (
	"context"
	"time"
	"unicode/utf16"
	"unsafe"

	"github.com/macmcp/macmcp/internal/platform"
)

// Input implements platform.InputProvider by synthesizing Quartz Event
// Services (CGEvent) hardware-level input, the same event-tap surface the
// grounding file's finder implementation sits alongside (it reads the
// accessibility tree; this package supplies the sibling that drives it).
type Input struct{}

var _ platform.InputProvider = (*Input)(nil)

func NewInput() *Input { return &Input{} }

func (i *Input) Click(_ context.Context, x, y float64) error {
	C.click_at(C.float(x), C.float(y))
	return nil
}

func (i *Input) RightClick(_ context.Context, x, y float64) error {
	C.right_click_at(C.float(x), C.float(y))
	return nil
}

func (i *Input) DoubleClick(_ context.Context, x, y float64) error {
	C.double_click_at(C.float(x), C.float(y))
	return nil
}

func (i *Input) Drag(_ context.Context, fromX, fromY, toX, toY float64) error {
	C.drag(C.float(fromX), C.float(fromY), C.float(toX), C.float(toY))
	return nil
}

func (i *Input) Scroll(_ context.Context, _, _, deltaX, deltaY float64) error {
	C.scroll(C.float(deltaX), C.float(deltaY))
	return nil
}

func (i *Input) TypeText(_ context.Context, text string) error {
	units := utf16.Encode([]rune(text))
	if len(units) == 0 {
		return nil
	}
	cChars := make([]C.UniChar, len(units))
	for i, u := range units {
		cChars[i] = C.UniChar(u)
	}
	C.type_text((*C.UniChar)(unsafe.Pointer(&cChars[0])), C.int(len(cChars)))
	return nil
}

func (i *Input) PressKey(_ context.Context, keyCode int, modifiers []string) error {
	C.tap_key(C.int(keyCode), modifierFlags(modifiers))
	return nil
}

// KeySequence replays each event in order, honoring "delay" events as a
// real sleep between taps — key sequences are used to express
// timed multi-key gestures (e.g. a chord held across several taps) that a
// single PressKey call cannot.
func (i *Input) KeySequence(ctx context.Context, events []platform.KeyEvent) error {
	for _, ev := range events {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		flags := modifierFlags(ev.Modifiers)
		switch ev.Kind {
		case "tap":
			C.tap_key(C.int(ev.KeyCode), flags)
		case "press":
			C.press_key(C.int(ev.KeyCode), flags, 1)
		case "release":
			C.press_key(C.int(ev.KeyCode), flags, 0)
		case "delay":
			time.Sleep(time.Duration(ev.DelayMS) * time.Millisecond)
		}
	}
	return nil
}

func modifierFlags(modifiers []string) C.CGEventFlags {
	var flags C.CGEventFlags
	for _, m := range modifiers {
		cName := C.CString(m)
		flags |= C.modifier_flag(cName)
		C.free(unsafe.Pointer(cName))
	}
	return flags
}
