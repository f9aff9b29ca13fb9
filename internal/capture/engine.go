package capture

import (
	"context"
	"log/slog"
	"time"

	"github.com/1broseidon/pipboard/internal/board"
	"github.com/1broseidon/pipboard/internal/config"
	"github.com/1broseidon/pipboard/internal/dispatch"
	"github.com/1broseidon/pipboard/internal/expand"
	"github.com/1broseidon/pipboard/internal/platform"
)

// Engine drives the thumbnail capture loop. Each pass walks the board
// in position order, refreshes stale thumbnails and flags windows that
// disappeared. The pass rate follows the configured FPS; individual
// windows are additionally throttled by the minimum capture interval.
type Engine struct {
	win      platform.WindowSystem
	registry *board.Registry
	coord    *expand.Coordinator
	queue    *dispatch.Queue
	settings *config.Settings
	logger   *slog.Logger

	// idleSleep is the wait between passes while the board is empty.
	idleSleep time.Duration
}

func NewEngine(
	win platform.WindowSystem,
	registry *board.Registry,
	coord *expand.Coordinator,
	queue *dispatch.Queue,
	settings *config.Settings,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		win:       win,
		registry:  registry,
		coord:     coord,
		queue:     queue,
		settings:  settings,
		logger:    logger,
		idleSleep: 100 * time.Millisecond,
	}
}

// Run blocks until the context is cancelled. The wait after each pass
// is recomputed so slow passes don't stack: sleep whatever is left of
// the frame period, or nothing if the pass already overran it.
func (e *Engine) Run(ctx context.Context) {
	e.logger.Info("capture engine started", "fps", e.settings.FPS())

	for {
		wait := e.tick()
		select {
		case <-ctx.Done():
			e.logger.Info("capture engine stopped")
			return
		case <-time.After(wait):
		}
	}
}

func (e *Engine) tick() (wait time.Duration) {
	started := time.Now()
	wait = e.idleSleep

	defer func() {
		if err := recover(); err != nil {
			e.logger.Error("capture engine panic recovered", "error", err)
		}
	}()

	if e.registry.Len() == 0 {
		return e.idleSleep
	}

	// Suspension only lasts while the suspended window holds the
	// foreground, so evict stale entries before walking the board.
	if fg, err := e.win.ActiveWindow(); err == nil {
		e.coord.EvictSuspendedExcept(fg)
	} else {
		e.logger.Debug("capture: foreground query failed", "error", err)
	}

	minGap := e.settings.CaptureInterval()
	width, height := e.settings.ThumbnailSize()
	now := time.Now()

	for _, handle := range e.registry.SnapshotKeys() {
		if e.coord.IsSuspended(handle) {
			continue
		}
		if !e.win.IsValid(handle) {
			e.queue.Enqueue(dispatch.Update{Handle: handle, Kind: dispatch.KindRemoval})
			continue
		}
		if last, ok := e.registry.LastUpdate(handle); ok && now.Sub(last) < minGap {
			continue
		}

		img, err := e.win.Capture(handle, width, height)
		if err != nil {
			// Transient: the window keeps its previous thumbnail.
			e.logger.Debug("capture failed", "handle", handle, "error", err)
			continue
		}
		if e.registry.SetSnapshot(handle, img, time.Now()) {
			e.queue.Enqueue(dispatch.Update{Handle: handle, Kind: dispatch.KindImage, Image: img})
		}
	}

	period := time.Second / time.Duration(e.settings.FPS())
	wait = period - time.Since(started)
	if wait < 0 {
		wait = 0
	}
	return wait
}
