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

// Sampler opens process handles for CPU sampling.
type Sampler interface {
	Open(pid int) (Process, error)
}

// Process yields CPU usage since the previous call.
type Process interface {
	Percent() (float64, error)
}

// CPUMonitor samples per-window CPU usage. Process handles are cached
// per window so consecutive Percent calls measure the interval between
// them; the first call after opening establishes the baseline and its
// value is discarded.
type CPUMonitor struct {
	win      platform.WindowSystem
	registry *board.Registry
	queue    *dispatch.Queue
	settings *config.Settings
	sampler  Sampler
	logger   *slog.Logger

	procs map[platform.WindowID]Process
}

func NewCPUMonitor(
	win platform.WindowSystem,
	registry *board.Registry,
	queue *dispatch.Queue,
	settings *config.Settings,
	sampler Sampler,
	logger *slog.Logger,
) *CPUMonitor {
	return &CPUMonitor{
		win:      win,
		registry: registry,
		queue:    queue,
		settings: settings,
		sampler:  sampler,
		logger:   logger,
		procs:    make(map[platform.WindowID]Process),
	}
}

// Run blocks until the context is cancelled.
func (m *CPUMonitor) Run(ctx context.Context) {
	interval := m.settings.CPUInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.logger.Info("cpu monitor started", "interval", interval)

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("cpu monitor stopped")
			return
		case <-ticker.C:
			m.tick()
		}
	}
}

func (m *CPUMonitor) tick() {
	defer func() {
		if err := recover(); err != nil {
			m.logger.Error("cpu monitor panic recovered", "error", err)
		}
	}()

	keys := m.registry.SnapshotKeys()

	// Drop cached handles for windows that left the board.
	onBoard := make(map[platform.WindowID]bool, len(keys))
	for _, handle := range keys {
		onBoard[handle] = true
	}
	for handle := range m.procs {
		if !onBoard[handle] {
			delete(m.procs, handle)
		}
	}

	for _, handle := range keys {
		if !m.win.IsValid(handle) {
			delete(m.procs, handle)
			continue
		}

		proc, cached := m.procs[handle]
		if !cached {
			pid, err := m.win.OwningProcess(handle)
			if err != nil {
				m.logger.Debug("cpu: pid lookup failed", "handle", handle, "error", err)
				continue
			}
			proc, err = m.sampler.Open(pid)
			if err != nil {
				m.logger.Debug("cpu: open process failed", "handle", handle, "pid", pid, "error", err)
				continue
			}
			m.procs[handle] = proc
			// Baseline read, the next tick yields a real interval.
			if _, err := proc.Percent(); err != nil {
				m.logger.Debug("cpu: baseline sample failed", "handle", handle, "error", err)
			}
			continue
		}

		percent, err := proc.Percent()
		if err != nil {
			// Process likely exited; re-resolve next tick.
			delete(m.procs, handle)
			m.logger.Debug("cpu: sample failed", "handle", handle, "error", err)
			continue
		}
		if m.registry.SetCPU(handle, percent) {
			m.queue.Enqueue(dispatch.Update{
				Handle:     handle,
				Kind:       dispatch.KindCPU,
				CPUPercent: percent,
			})
		}
	}
}
