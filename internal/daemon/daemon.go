package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/1broseidon/pipboard/internal/board"
	"github.com/1broseidon/pipboard/internal/capture"
	"github.com/1broseidon/pipboard/internal/config"
	"github.com/1broseidon/pipboard/internal/dispatch"
	"github.com/1broseidon/pipboard/internal/expand"
	"github.com/1broseidon/pipboard/internal/ipc"
	"github.com/1broseidon/pipboard/internal/monitor"
	"github.com/1broseidon/pipboard/internal/platform"
)

// Daemon owns the board state and the background loops, and implements
// the IPC command surface.
type Daemon struct {
	win         platform.WindowSystem
	registry    *board.Registry
	queue       *dispatch.Queue
	coordinator *expand.Coordinator
	settings    *config.Settings
	logger      *slog.Logger
	startTime   time.Time
}

var _ ipc.Board = (*Daemon)(nil)

func New(win platform.WindowSystem, settings *config.Settings, logger *slog.Logger) *Daemon {
	return &Daemon{
		win:         win,
		registry:    board.NewRegistry(),
		queue:       dispatch.NewQueue(),
		coordinator: expand.NewCoordinator(win, settings, logger),
		settings:    settings,
		logger:      logger,
		startTime:   time.Now(),
	}
}

// Queue exposes the update queue for the presentation layer.
func (d *Daemon) Queue() *dispatch.Queue {
	return d.queue
}

// Registry exposes the board registry for the presentation layer.
func (d *Daemon) Registry() *board.Registry {
	return d.registry
}

// Start launches the background loops. They stop when ctx is
// cancelled.
func (d *Daemon) Start(ctx context.Context) {
	engine := capture.NewEngine(d.win, d.registry, d.coordinator, d.queue, d.settings, d.logger)
	stateMon := monitor.NewStateMonitor(d.win, d.registry, d.queue, d.settings, d.logger)
	cpuMon := monitor.NewCPUMonitor(d.win, d.registry, d.queue, d.settings, monitor.NewSystemSampler(), d.logger)

	go engine.Run(ctx)
	go stateMon.Run(ctx)
	go cpuMon.Run(ctx)
	go d.coordinator.Run(ctx)

	d.logger.Info("daemon started", "fps", d.settings.FPS(), "columns", d.settings.Columns())
}

// Status implements ipc.Board.
func (d *Daemon) Status() ipc.StatusData {
	return ipc.StatusData{
		DaemonRunning: true,
		ClientCount:   d.registry.Len(),
		FPS:           d.settings.FPS(),
		Columns:       d.settings.Columns(),
		AutoMinimize:  d.settings.AutoMinimize(),
		MovieMode:     d.settings.MovieMode(),
		UptimeSeconds: int64(time.Since(d.startTime).Seconds()),
	}
}

// ListClients implements ipc.Board.
func (d *Daemon) ListClients() []ipc.ClientInfo {
	recs := d.registry.Snapshot()
	clients := make([]ipc.ClientInfo, len(recs))
	for i, rec := range recs {
		var lastMs int64
		if !rec.LastUpdate.IsZero() {
			lastMs = rec.LastUpdate.UnixMilli()
		}
		clients[i] = ipc.ClientInfo{
			Handle:           uint32(rec.Handle),
			Title:            rec.Title,
			Position:         rec.Position,
			Row:              rec.Row,
			Col:              rec.Col,
			Minimized:        rec.Minimized,
			CPUPercent:       rec.CPUUsage,
			LastUpdateUnixMs: lastMs,
		}
	}
	return clients
}

// ListWindows implements ipc.Board.
func (d *Daemon) ListWindows() ([]ipc.WindowEntry, error) {
	infos, err := d.win.ListWindows()
	if err != nil {
		return nil, err
	}
	windows := make([]ipc.WindowEntry, len(infos))
	for i, info := range infos {
		windows[i] = ipc.WindowEntry{Handle: uint32(info.ID), Title: info.Title}
	}
	return windows, nil
}

// AddClient implements ipc.Board.
func (d *Daemon) AddClient(handle uint32, title string) error {
	id := platform.WindowID(handle)
	if !d.win.IsValid(id) {
		return fmt.Errorf("window %d does not exist", handle)
	}
	if title == "" {
		if infos, err := d.win.ListWindows(); err == nil {
			for _, info := range infos {
				if info.ID == id {
					title = info.Title
					break
				}
			}
		}
	}
	if err := d.registry.Add(id, title); err != nil {
		return err
	}
	d.registry.Reorganize(d.settings.Columns())
	d.logger.Info("client added", "handle", handle, "title", title)
	return nil
}

// RemoveClient implements ipc.Board. Removing a window that already
// left the board is not an error.
func (d *Daemon) RemoveClient(handle uint32) error {
	id := platform.WindowID(handle)
	removed := d.registry.Remove(id)
	d.coordinator.Forget(id)
	if removed {
		d.registry.Reorganize(d.settings.Columns())
		d.logger.Info("client removed", "handle", handle)
	}
	return nil
}

// MoveClient implements ipc.Board.
func (d *Daemon) MoveClient(handle uint32, delta int) error {
	id := platform.WindowID(handle)
	if _, ok := d.registry.Get(id); !ok {
		return fmt.Errorf("window %d is not on the board", handle)
	}
	// Out-of-range moves are silently ignored.
	if d.registry.Move(id, delta) {
		d.registry.Reorganize(d.settings.Columns())
	}
	return nil
}

// Expand implements ipc.Board.
func (d *Daemon) Expand(handle uint32) error {
	id := platform.WindowID(handle)
	rec, ok := d.registry.Get(id)
	if !ok {
		return fmt.Errorf("window %d is not on the board", handle)
	}
	suspend := d.settings.SuspendsCapture(rec.Title)
	return d.coordinator.Expand(id, suspend)
}

// SetFPS implements ipc.Board.
func (d *Daemon) SetFPS(fps int) error {
	return d.settings.SetFPS(fps)
}

// SetColumns implements ipc.Board.
func (d *Daemon) SetColumns(columns int) error {
	if err := d.settings.SetColumns(columns); err != nil {
		return err
	}
	d.registry.Reorganize(columns)
	return nil
}

// SetAutoMinimize implements ipc.Board.
func (d *Daemon) SetAutoMinimize(on bool) error {
	d.settings.SetAutoMinimize(on)
	return nil
}

// SetMovieMode toggles the reduced capture rate.
func (d *Daemon) SetMovieMode(on bool) {
	d.settings.SetMovieMode(on)
}

// HasClient reports whether a window is currently on the board.
func (d *Daemon) HasClient(handle platform.WindowID) bool {
	_, ok := d.registry.Get(handle)
	return ok
}

// Apply consumes one queued update on behalf of the presentation
// layer. Removal updates act on the board; the data kinds are already
// reflected in the registry by their producers.
func (d *Daemon) Apply(u dispatch.Update) {
	if u.Kind == dispatch.KindRemoval {
		if err := d.RemoveClient(uint32(u.Handle)); err != nil {
			d.logger.Warn("removal failed", "handle", u.Handle, "error", err)
		}
	}
}

// DrainLoop consumes queued updates without a UI. Used in headless
// mode so removals still take effect.
func (d *Daemon) DrainLoop(ctx context.Context) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, u := range d.queue.Drain() {
				d.Apply(u)
			}
		}
	}
}
