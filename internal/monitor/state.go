package monitor

import (
	"context"
	"log/slog"
	"time"

	"github.com/1broseidon/pipboard/internal/board"
	"github.com/1broseidon/pipboard/internal/config"
	"github.com/1broseidon/pipboard/internal/dispatch"
	"github.com/1broseidon/pipboard/internal/platform"
)

// StateMonitor polls the minimized flag of every monitored window and
// publishes changes. It never removes windows itself; the capture loop
// owns invalidation.
type StateMonitor struct {
	win      platform.WindowSystem
	registry *board.Registry
	queue    *dispatch.Queue
	settings *config.Settings
	logger   *slog.Logger
}

func NewStateMonitor(
	win platform.WindowSystem,
	registry *board.Registry,
	queue *dispatch.Queue,
	settings *config.Settings,
	logger *slog.Logger,
) *StateMonitor {
	return &StateMonitor{
		win:      win,
		registry: registry,
		queue:    queue,
		settings: settings,
		logger:   logger,
	}
}

// Run blocks until the context is cancelled.
func (m *StateMonitor) Run(ctx context.Context) {
	interval := m.settings.StatusInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.logger.Info("state monitor started", "interval", interval)

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("state monitor stopped")
			return
		case <-ticker.C:
			m.tick()
		}
	}
}

func (m *StateMonitor) tick() {
	defer func() {
		if err := recover(); err != nil {
			m.logger.Error("state monitor panic recovered", "error", err)
		}
	}()

	for _, handle := range m.registry.SnapshotKeys() {
		if !m.win.IsValid(handle) {
			continue
		}
		minimized, err := m.win.IsMinimized(handle)
		if err != nil {
			m.logger.Debug("minimized query failed", "handle", handle, "error", err)
			continue
		}
		if changed, ok := m.registry.SetMinimized(handle, minimized); ok && changed {
			m.queue.Enqueue(dispatch.Update{
				Handle:    handle,
				Kind:      dispatch.KindStatus,
				Minimized: minimized,
			})
		}
	}
}
