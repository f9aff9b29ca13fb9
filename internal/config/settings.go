package config

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Settings is the runtime view of the configuration. The board daemon
// mutates it over IPC while the loops read it every tick, so every
// accessor takes the lock.
type Settings struct {
	mu sync.RWMutex

	fps          int
	movieFPS     int
	movieMode    bool
	autoMinimize bool

	captureInterval time.Duration
	statusInterval  time.Duration
	cpuInterval     time.Duration
	expandInterval  time.Duration

	columns    int
	boardWidth int

	suspendTitles []string
}

// NewSettings builds runtime settings from a validated config.
func NewSettings(cfg *Config) *Settings {
	return &Settings{
		fps:             cfg.FPS,
		movieFPS:        cfg.MovieFPS,
		movieMode:       cfg.MovieMode,
		autoMinimize:    cfg.GetAutoMinimize(),
		captureInterval: time.Duration(cfg.CaptureIntervalMs) * time.Millisecond,
		statusInterval:  time.Duration(cfg.StatusIntervalMs) * time.Millisecond,
		cpuInterval:     time.Duration(cfg.CPUIntervalMs) * time.Millisecond,
		expandInterval:  time.Duration(cfg.ExpandIntervalMs) * time.Millisecond,
		columns:         cfg.Columns,
		boardWidth:      cfg.BoardWidth,
		suspendTitles:   append([]string(nil), cfg.SuspendCaptureTitles...),
	}
}

// FPS returns the active frame rate, honoring movie mode.
func (s *Settings) FPS() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.movieMode {
		return s.movieFPS
	}
	return s.fps
}

// SetFPS changes the normal-mode frame rate.
func (s *Settings) SetFPS(fps int) error {
	if fps < 1 || fps > 60 {
		return fmt.Errorf("fps must be between 1 and 60, got %d", fps)
	}
	s.mu.Lock()
	s.fps = fps
	s.mu.Unlock()
	return nil
}

func (s *Settings) MovieMode() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.movieMode
}

func (s *Settings) SetMovieMode(on bool) {
	s.mu.Lock()
	s.movieMode = on
	s.mu.Unlock()
}

func (s *Settings) AutoMinimize() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.autoMinimize
}

func (s *Settings) SetAutoMinimize(on bool) {
	s.mu.Lock()
	s.autoMinimize = on
	s.mu.Unlock()
}

func (s *Settings) CaptureInterval() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.captureInterval
}

func (s *Settings) StatusInterval() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.statusInterval
}

func (s *Settings) CPUInterval() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cpuInterval
}

func (s *Settings) ExpandInterval() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expandInterval
}

func (s *Settings) Columns() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.columns
}

// SetColumns changes the grid width. Values outside the supported
// range are rejected rather than clamped so callers get feedback.
func (s *Settings) SetColumns(columns int) error {
	if columns < MinColumns || columns > MaxColumns {
		return fmt.Errorf("columns must be between %d and %d, got %d", MinColumns, MaxColumns, columns)
	}
	s.mu.Lock()
	s.columns = columns
	s.mu.Unlock()
	return nil
}

// ThumbnailSize derives the per-card thumbnail dimensions from the
// board width and column count. Width is clamped to keep thumbnails
// readable; height keeps a 4:3 aspect.
func (s *Settings) ThumbnailSize() (width, height int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	width = s.boardWidth/s.columns - thumbnailMargin
	if width < MinThumbnailWidth {
		width = MinThumbnailWidth
	}
	if width > MaxThumbnailWidth {
		width = MaxThumbnailWidth
	}
	height = width * 3 / 4
	return width, height
}

// SuspendsCapture reports whether a window title matches any of the
// configured suspend patterns. Matching is a case-sensitive substring
// test.
func (s *Settings) SuspendsCapture(title string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, pattern := range s.suspendTitles {
		if pattern != "" && strings.Contains(title, pattern) {
			return true
		}
	}
	return false
}
