package fake

import (
	"context"
	"fmt"
	"sync"

	"github.com/macmcp/macmcp/internal/platform"
)

// Input is an in-memory InputProvider that records every synthesized event
// instead of driving real CGEvents, so tests can assert on what would have
// been sent.
type Input struct {
	mu sync.Mutex
	Events []string
}

func NewInput() *Input { return &Input{} }

func (i *Input) log(format string, args ...any) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.Events = append(i.Events, fmt.Sprintf(format, args...))
}

func (i *Input) Click(_ context.Context, x, y float64) error {
	i.log("click %.0f,%.0f", x, y)
	return nil
}

func (i *Input) RightClick(_ context.Context, x, y float64) error {
	i.log("rightClick %.0f,%.0f", x, y)
	return nil
}

func (i *Input) DoubleClick(_ context.Context, x, y float64) error {
	i.log("doubleClick %.0f,%.0f", x, y)
	return nil
}

func (i *Input) Drag(_ context.Context, fromX, fromY, toX, toY float64) error {
	i.log("drag %.0f,%.0f->%.0f,%.0f", fromX, fromY, toX, toY)
	return nil
}

func (i *Input) Scroll(_ context.Context, x, y, deltaX, deltaY float64) error {
	i.log("scroll %.0f,%.0f delta=%.0f,%.0f", x, y, deltaX, deltaY)
	return nil
}

func (i *Input) TypeText(_ context.Context, text string) error {
	i.log("typeText %q", text)
	return nil
}

func (i *Input) PressKey(_ context.Context, keyCode int, modifiers []string) error {
	i.log("pressKey %d %v", keyCode, modifiers)
	return nil
}

func (i *Input) KeySequence(_ context.Context, events []platform.KeyEvent) error {
	i.log("keySequence %d events", len(events))
	return nil
}

var _ platform.InputProvider = (*Input)(nil)

// Process is an in-memory ApplicationProcessProvider over a fixed set of
// RunningApplication entries, keyed by bundle id.
type Process struct {
	mu sync.Mutex
	apps map[string]platform.RunningApplication
	frontmost string
}

func NewProcess() *Process {
	return &Process{apps: map[string]platform.RunningApplication{}}
}

func (p *Process) AddApplication(app platform.RunningApplication) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.apps[app.BundleID] = app
	if app.Frontmost {
		p.frontmost = app.BundleID
	}
}

func (p *Process) RunningApplications(_ context.Context) ([]platform.RunningApplication, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]platform.RunningApplication, 0, len(p.apps))
	for _, a := range p.apps {
		out = append(out, a)
	}
	return out, nil
}

func (p *Process) Launch(_ context.Context, bundleID string, _ []string, _ bool) (platform.RunningApplication, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	app := platform.RunningApplication{BundleID: bundleID, PID: len(p.apps) + 1, Name: bundleID}
	p.apps[bundleID] = app
	return app, nil
}

func (p *Process) Terminate(_ context.Context, bundleID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.apps[bundleID]; !ok {
		return fmt.Errorf("fake: unknown bundle id %q", bundleID)
	}
	delete(p.apps, bundleID)
	return nil
}

func (p *Process) ForceTerminate(ctx context.Context, bundleID string) error {
	return p.Terminate(ctx, bundleID)
}

func (p *Process) Activate(_ context.Context, bundleID string, _ bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.apps[bundleID]; !ok {
		return fmt.Errorf("fake: unknown bundle id %q", bundleID)
	}
	p.frontmost = bundleID
	return nil
}

func (p *Process) Hide(_ context.Context, bundleID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.apps[bundleID]; !ok {
		return fmt.Errorf("fake: unknown bundle id %q", bundleID)
	}
	return nil
}

func (p *Process) HideOthers(_ context.Context, _ string) error {
	return nil
}

func (p *Process) Frontmost(_ context.Context) (platform.RunningApplication, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	app, ok := p.apps[p.frontmost]
	if !ok {
		return platform.RunningApplication{}, fmt.Errorf("fake: no frontmost application")
	}
	return app, nil
}

func (p *Process) IsRunning(_ context.Context, bundleID string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.apps[bundleID]
	return ok, nil
}

var _ platform.ApplicationProcessProvider = (*Process)(nil)

// Screen is a ScreenProvider that returns a fixed 4-byte PNG signature
// prefix (not a decodable image), recording the
// region it was asked to capture.
type Screen struct {
	mu sync.Mutex
	Captures []string
	MimeType string
}

func NewScreen() *Screen {
	return &Screen{MimeType: "image/png"}
}

func (s *Screen) image() platform.Image {
	return platform.Image{Data: []byte{0x89, 0x50, 0x4e, 0x47}, MimeType: s.MimeType}
}

func (s *Screen) CaptureScreen(_ context.Context) (platform.Image, error) {
	s.mu.Lock()
	s.Captures = append(s.Captures, "screen")
	s.mu.Unlock()
	return s.image(), nil
}

func (s *Screen) CaptureWindow(_ context.Context, bundleID, windowID string) (platform.Image, error) {
	s.mu.Lock()
	s.Captures = append(s.Captures, fmt.Sprintf("window %s/%s", bundleID, windowID))
	s.mu.Unlock()
	return s.image(), nil
}

func (s *Screen) CaptureRect(_ context.Context, r platform.Rect) (platform.Image, error) {
	s.mu.Lock()
	s.Captures = append(s.Captures, fmt.Sprintf("rect %.0f,%.0f,%.0f,%.0f", r.X, r.Y, r.W, r.H))
	s.mu.Unlock()
	return s.image(), nil
}

var _ platform.ScreenProvider = (*Screen)(nil)

// Clipboard is an in-memory ClipboardProvider holding a single typed
// payload, mirroring the single-pasteboard semantics of the real provider.
type Clipboard struct {
	mu sync.Mutex
	kind string
	data string
	present bool
}

func NewClipboard() *Clipboard { return &Clipboard{} }

func (c *Clipboard) Read(_ context.Context, kind string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.present || c.kind != kind {
		return "", false, nil
	}
	return c.data, true, nil
}

func (c *Clipboard) Write(_ context.Context, kind, data string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.kind = kind
	c.data = data
	c.present = true
	return nil
}

func (c *Clipboard) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.kind = ""
	c.data = ""
	c.present = false
	return nil
}

var _ platform.ClipboardProvider = (*Clipboard)(nil)
