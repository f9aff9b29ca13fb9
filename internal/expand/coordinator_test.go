package expand

import (
	"image"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/1broseidon/pipboard/internal/config"
	"github.com/1broseidon/pipboard/internal/platform"
)

// fakeWindowSystem is a scriptable in-memory window system.
type fakeWindowSystem struct {
	mu        sync.Mutex
	valid     map[platform.WindowID]bool
	minimized map[platform.WindowID]bool
	active    platform.WindowID

	// raiseSucceeds controls whether Raise moves focus.
	raiseSucceeds bool
	raiseCalls    int
	minimizeCalls int
}

func newFakeWindowSystem() *fakeWindowSystem {
	return &fakeWindowSystem{
		valid:         make(map[platform.WindowID]bool),
		minimized:     make(map[platform.WindowID]bool),
		raiseSucceeds: true,
	}
}

func (f *fakeWindowSystem) ListWindows() ([]platform.WindowInfo, error) { return nil, nil }

func (f *fakeWindowSystem) IsValid(id platform.WindowID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.valid[id]
}

func (f *fakeWindowSystem) IsMinimized(id platform.WindowID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.minimized[id], nil
}

func (f *fakeWindowSystem) WindowBounds(id platform.WindowID) (platform.Rect, error) {
	return platform.Rect{}, nil
}

func (f *fakeWindowSystem) ClientBounds(id platform.WindowID) (platform.Rect, error) {
	return platform.Rect{}, nil
}

func (f *fakeWindowSystem) Capture(id platform.WindowID, w, h int) (image.Image, error) {
	return image.NewRGBA(image.Rect(0, 0, w, h)), nil
}

func (f *fakeWindowSystem) Restore(id platform.WindowID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.minimized[id] = false
	return nil
}

func (f *fakeWindowSystem) Raise(id platform.WindowID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.raiseCalls++
	if f.raiseSucceeds {
		f.active = id
	}
	return nil
}

func (f *fakeWindowSystem) Minimize(id platform.WindowID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.minimizeCalls++
	f.minimized[id] = true
	return nil
}

func (f *fakeWindowSystem) ActiveWindow() (platform.WindowID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active, nil
}

func (f *fakeWindowSystem) OwningProcess(id platform.WindowID) (int, error) { return 1234, nil }

func (f *fakeWindowSystem) Disconnect() {}

func (f *fakeWindowSystem) setActive(id platform.WindowID) {
	f.mu.Lock()
	f.active = id
	f.mu.Unlock()
}

func newTestCoordinator(win platform.WindowSystem) *Coordinator {
	c := NewCoordinator(win, config.NewSettings(config.DefaultConfig()), slog.New(slog.DiscardHandler))
	c.raiseBackoff = time.Millisecond
	c.restoreSettle = time.Millisecond
	c.verifyWait = time.Millisecond
	return c
}

func TestExpandRestoresAndRaises(t *testing.T) {
	win := newFakeWindowSystem()
	win.valid[7] = true
	win.minimized[7] = true
	c := newTestCoordinator(win)

	if err := c.Expand(7, false); err != nil {
		t.Fatalf("Expand failed: %v", err)
	}
	if win.minimized[7] {
		t.Error("window should have been restored")
	}
	if win.active != 7 {
		t.Errorf("active window = %d, want 7", win.active)
	}
	if c.IsSuspended(7) {
		t.Error("suspension was not requested")
	}
}

func TestExpandSuspendsCapture(t *testing.T) {
	win := newFakeWindowSystem()
	win.valid[7] = true
	c := newTestCoordinator(win)

	if err := c.Expand(7, true); err != nil {
		t.Fatalf("Expand failed: %v", err)
	}
	if !c.IsSuspended(7) {
		t.Error("capture should be suspended")
	}
}

func TestExpandInvalidWindowFails(t *testing.T) {
	win := newFakeWindowSystem()
	c := newTestCoordinator(win)

	if err := c.Expand(99, false); err == nil {
		t.Error("expanding a closed window should fail")
	}
	if len(c.Expanded()) != 0 {
		t.Error("failed expand must not leave the window in the expanded set")
	}
}

func TestExpandRollsBackWhenRaiseNeverVerifies(t *testing.T) {
	win := newFakeWindowSystem()
	win.valid[7] = true
	win.raiseSucceeds = false
	win.active = 42 // something else keeps focus
	c := newTestCoordinator(win)

	err := c.Expand(7, true)
	if err == nil {
		t.Fatal("Expand should fail when focus never arrives")
	}
	if win.raiseCalls != c.raiseAttempts {
		t.Errorf("raise attempts = %d, want %d", win.raiseCalls, c.raiseAttempts)
	}
	if len(c.Expanded()) != 0 || c.IsSuspended(7) {
		t.Error("failed expand must roll back both sets")
	}
}

func TestTickMinimizesExpandedOnFocusChange(t *testing.T) {
	win := newFakeWindowSystem()
	win.valid[7] = true
	c := newTestCoordinator(win)

	if err := c.Expand(7, false); err != nil {
		t.Fatal(err)
	}

	// Focus still on the expanded window: nothing happens.
	last := c.tick(0)
	if win.minimizeCalls != 0 {
		t.Fatal("window minimized while it still held focus")
	}

	// Focus moves away: one tick minimizes and forgets.
	win.setActive(42)
	c.tick(last)
	if win.minimizeCalls != 1 {
		t.Errorf("minimize calls = %d, want 1", win.minimizeCalls)
	}
	if !win.minimized[7] {
		t.Error("window should be minimized")
	}
	if len(c.Expanded()) != 0 {
		t.Error("window should be forgotten after auto-minimize")
	}
}

func TestTickSkipsWhenAutoMinimizeOff(t *testing.T) {
	win := newFakeWindowSystem()
	win.valid[7] = true
	c := newTestCoordinator(win)
	c.settings.SetAutoMinimize(false)

	if err := c.Expand(7, false); err != nil {
		t.Fatal(err)
	}
	win.setActive(42)
	c.tick(7)
	if win.minimizeCalls != 0 {
		t.Error("auto-minimize disabled, nothing should be minimized")
	}
}

func TestTickForgetsClosedWindows(t *testing.T) {
	win := newFakeWindowSystem()
	win.valid[7] = true
	c := newTestCoordinator(win)

	if err := c.Expand(7, false); err != nil {
		t.Fatal(err)
	}
	win.mu.Lock()
	win.valid[7] = false
	win.mu.Unlock()
	win.setActive(42)

	c.tick(7)
	if win.minimizeCalls != 0 {
		t.Error("closed window must not be minimized")
	}
	if len(c.Expanded()) != 0 {
		t.Error("closed window should be forgotten")
	}
}

func TestEvictSuspendedExcept(t *testing.T) {
	win := newFakeWindowSystem()
	win.valid[1] = true
	win.valid[2] = true
	c := newTestCoordinator(win)

	if err := c.Expand(1, true); err != nil {
		t.Fatal(err)
	}
	win.setActive(0)
	if err := c.Expand(2, true); err != nil {
		t.Fatal(err)
	}

	// Window 2 holds the foreground; window 1 loses suspension.
	c.EvictSuspendedExcept(2)
	if c.IsSuspended(1) {
		t.Error("window 1 should have been evicted")
	}
	if !c.IsSuspended(2) {
		t.Error("foreground window must stay suspended")
	}
}
