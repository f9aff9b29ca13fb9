package expand

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/1broseidon/pipboard/internal/config"
	"github.com/1broseidon/pipboard/internal/platform"
)

// Coordinator brings monitored windows to the foreground on demand and
// minimizes them again once focus moves elsewhere.
//
// Two sets drive the behavior: expanded windows are candidates for
// auto-minimize, suspended windows are skipped by the capture loop
// while they hold the foreground.
type Coordinator struct {
	mu        sync.Mutex
	expanded  map[platform.WindowID]struct{}
	suspended map[platform.WindowID]struct{}

	win      platform.WindowSystem
	settings *config.Settings
	logger   *slog.Logger

	// Timing knobs, overridable in tests.
	raiseAttempts int
	raiseBackoff  time.Duration
	restoreSettle time.Duration
	verifyWait    time.Duration
}

// NewCoordinator creates an expand coordinator.
func NewCoordinator(win platform.WindowSystem, settings *config.Settings, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		expanded:      make(map[platform.WindowID]struct{}),
		suspended:     make(map[platform.WindowID]struct{}),
		win:           win,
		settings:      settings,
		logger:        logger,
		raiseAttempts: 3,
		raiseBackoff:  200 * time.Millisecond,
		restoreSettle: 300 * time.Millisecond,
		verifyWait:    150 * time.Millisecond,
	}
}

// Expand restores and raises a window, verifying it actually took the
// foreground. On failure the window is removed from both sets again so
// the board returns to its previous state.
func (c *Coordinator) Expand(handle platform.WindowID, suspendCapture bool) error {
	if !c.win.IsValid(handle) {
		return fmt.Errorf("window %d no longer exists", handle)
	}

	c.mu.Lock()
	c.expanded[handle] = struct{}{}
	if suspendCapture {
		c.suspended[handle] = struct{}{}
	}
	c.mu.Unlock()

	minimized, err := c.win.IsMinimized(handle)
	if err != nil {
		c.logger.Debug("expand: minimized query failed", "handle", handle, "error", err)
	}
	if minimized {
		if err := c.win.Restore(handle); err != nil {
			c.rollback(handle)
			return fmt.Errorf("restore window %d: %w", handle, err)
		}
		// Give the window manager time to map the window before
		// asking it to raise.
		time.Sleep(c.restoreSettle)
	}

	for attempt := 1; attempt <= c.raiseAttempts; attempt++ {
		if err := c.win.Raise(handle); err != nil {
			c.logger.Debug("expand: raise failed", "handle", handle, "attempt", attempt, "error", err)
		}
		time.Sleep(c.verifyWait)

		fg, err := c.win.ActiveWindow()
		if err == nil && fg == handle {
			c.logger.Info("window expanded", "handle", handle, "suspend_capture", suspendCapture)
			return nil
		}
		if attempt < c.raiseAttempts {
			time.Sleep(c.raiseBackoff)
		}
	}

	c.rollback(handle)
	return fmt.Errorf("window %d did not take foreground after %d attempts", handle, c.raiseAttempts)
}

func (c *Coordinator) rollback(handle platform.WindowID) {
	c.mu.Lock()
	delete(c.expanded, handle)
	delete(c.suspended, handle)
	c.mu.Unlock()
}

// Forget drops a window from both sets. Safe to call for windows that
// were never expanded.
func (c *Coordinator) Forget(handle platform.WindowID) {
	c.mu.Lock()
	delete(c.expanded, handle)
	delete(c.suspended, handle)
	c.mu.Unlock()
}

// IsSuspended reports whether capture is suspended for a window.
func (c *Coordinator) IsSuspended(handle platform.WindowID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.suspended[handle]
	return ok
}

// EvictSuspendedExcept drops suspension for every window that no
// longer holds the foreground. Called by the capture loop so eviction
// keeps up even when this coordinator's own loop is idle.
func (c *Coordinator) EvictSuspendedExcept(foreground platform.WindowID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for handle := range c.suspended {
		if handle != foreground {
			delete(c.suspended, handle)
		}
	}
}

// Expanded returns the current expanded set.
func (c *Coordinator) Expanded() []platform.WindowID {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]platform.WindowID, 0, len(c.expanded))
	for handle := range c.expanded {
		out = append(out, handle)
	}
	return out
}

// Run drives the auto-minimize loop. An expanded window is minimized
// as soon as the foreground moves to some other window; the reaction
// is edge-triggered on foreground changes, not on every tick.
func (c *Coordinator) Run(ctx context.Context) {
	interval := c.settings.ExpandInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.logger.Info("expand coordinator started", "interval", interval)

	var lastForeground platform.WindowID
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("expand coordinator stopped")
			return
		case <-ticker.C:
			lastForeground = c.tick(lastForeground)
		}
	}
}

func (c *Coordinator) tick(lastForeground platform.WindowID) platform.WindowID {
	defer func() {
		if err := recover(); err != nil {
			c.logger.Error("expand coordinator panic recovered", "error", err)
		}
	}()

	if !c.settings.AutoMinimize() {
		return lastForeground
	}

	fg, err := c.win.ActiveWindow()
	if err != nil {
		c.logger.Debug("expand: foreground query failed", "error", err)
		return lastForeground
	}
	if fg == lastForeground {
		return fg
	}

	for _, handle := range c.Expanded() {
		if handle == fg {
			continue
		}
		if !c.win.IsValid(handle) {
			c.Forget(handle)
			continue
		}
		minimized, err := c.win.IsMinimized(handle)
		if err != nil {
			c.logger.Debug("expand: minimized query failed", "handle", handle, "error", err)
		}
		if !minimized {
			if err := c.win.Minimize(handle); err != nil {
				c.logger.Warn("auto-minimize failed", "handle", handle, "error", err)
				continue
			}
			c.logger.Info("window auto-minimized", "handle", handle)
		}
		c.Forget(handle)
	}
	return fg
}
