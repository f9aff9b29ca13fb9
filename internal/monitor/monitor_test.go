package monitor

import (
	"errors"
	"image"
	"log/slog"
	"testing"

	"github.com/1broseidon/pipboard/internal/board"
	"github.com/1broseidon/pipboard/internal/config"
	"github.com/1broseidon/pipboard/internal/dispatch"
	"github.com/1broseidon/pipboard/internal/platform"
)

type fakeWindowSystem struct {
	valid     map[platform.WindowID]bool
	minimized map[platform.WindowID]bool
	pids      map[platform.WindowID]int
}

func newFakeWindowSystem() *fakeWindowSystem {
	return &fakeWindowSystem{
		valid:     make(map[platform.WindowID]bool),
		minimized: make(map[platform.WindowID]bool),
		pids:      make(map[platform.WindowID]int),
	}
}

func (f *fakeWindowSystem) ListWindows() ([]platform.WindowInfo, error) { return nil, nil }
func (f *fakeWindowSystem) IsValid(id platform.WindowID) bool           { return f.valid[id] }

func (f *fakeWindowSystem) IsMinimized(id platform.WindowID) (bool, error) {
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

func (f *fakeWindowSystem) Restore(id platform.WindowID) error  { return nil }
func (f *fakeWindowSystem) Raise(id platform.WindowID) error    { return nil }
func (f *fakeWindowSystem) Minimize(id platform.WindowID) error { return nil }

func (f *fakeWindowSystem) ActiveWindow() (platform.WindowID, error) { return 0, nil }

func (f *fakeWindowSystem) OwningProcess(id platform.WindowID) (int, error) {
	pid, ok := f.pids[id]
	if !ok {
		return 0, errors.New("no pid")
	}
	return pid, nil
}

func (f *fakeWindowSystem) Disconnect() {}

type fakeProcess struct {
	percent  float64
	err      error
	samples  int
	baseline bool
}

func (p *fakeProcess) Percent() (float64, error) {
	p.samples++
	if p.samples == 1 {
		p.baseline = true
	}
	return p.percent, p.err
}

type fakeSampler struct {
	procs map[int]*fakeProcess
	opens int
}

func (s *fakeSampler) Open(pid int) (Process, error) {
	s.opens++
	proc, ok := s.procs[pid]
	if !ok {
		return nil, errors.New("no such process")
	}
	return proc, nil
}

func newTestStateMonitor(win platform.WindowSystem) (*StateMonitor, *board.Registry, *dispatch.Queue) {
	logger := slog.New(slog.DiscardHandler)
	settings := config.NewSettings(config.DefaultConfig())
	registry := board.NewRegistry()
	queue := dispatch.NewQueue()
	return NewStateMonitor(win, registry, queue, settings, logger), registry, queue
}

func newTestCPUMonitor(win platform.WindowSystem, sampler Sampler) (*CPUMonitor, *board.Registry, *dispatch.Queue) {
	logger := slog.New(slog.DiscardHandler)
	settings := config.NewSettings(config.DefaultConfig())
	registry := board.NewRegistry()
	queue := dispatch.NewQueue()
	return NewCPUMonitor(win, registry, queue, settings, sampler, logger), registry, queue
}

func TestStateMonitorPublishesChangesOnly(t *testing.T) {
	win := newFakeWindowSystem()
	win.valid[7] = true
	m, registry, queue := newTestStateMonitor(win)
	registry.Add(7, "win")

	// First tick: false -> false, no change to publish.
	m.tick()
	if queue.Len() != 0 {
		t.Fatalf("unchanged state produced %d updates", queue.Len())
	}

	win.minimized[7] = true
	m.tick()
	updates := queue.Drain()
	if len(updates) != 1 || updates[0].Kind != dispatch.KindStatus || !updates[0].Minimized {
		t.Fatalf("expected one minimized status update, got %v", updates)
	}

	// Same state again: silent.
	m.tick()
	if queue.Len() != 0 {
		t.Error("repeated state must not re-publish")
	}
}

func TestStateMonitorSkipsClosedWindows(t *testing.T) {
	win := newFakeWindowSystem()
	m, registry, queue := newTestStateMonitor(win)
	registry.Add(9, "gone")

	m.tick()
	if queue.Len() != 0 {
		t.Error("closed window must be skipped silently")
	}
}

func TestCPUMonitorBaselineThenSample(t *testing.T) {
	win := newFakeWindowSystem()
	win.valid[7] = true
	win.pids[7] = 4321
	sampler := &fakeSampler{procs: map[int]*fakeProcess{4321: {percent: 12.5}}}
	m, registry, queue := newTestCPUMonitor(win, sampler)
	registry.Add(7, "win")

	// First tick opens the handle and takes the baseline; no update.
	m.tick()
	if queue.Len() != 0 {
		t.Fatal("baseline tick must not publish")
	}
	if sampler.opens != 1 {
		t.Fatalf("opens = %d, want 1", sampler.opens)
	}

	// Second tick publishes a real sample.
	m.tick()
	updates := queue.Drain()
	if len(updates) != 1 || updates[0].Kind != dispatch.KindCPU {
		t.Fatalf("expected one cpu update, got %v", updates)
	}
	if updates[0].CPUPercent != 12.5 {
		t.Errorf("cpu percent = %v, want 12.5", updates[0].CPUPercent)
	}

	rec, _ := registry.Get(7)
	if rec.CPUUsage != 12.5 {
		t.Errorf("registry cpu = %v, want 12.5", rec.CPUUsage)
	}

	// Handle stays cached.
	if sampler.opens != 1 {
		t.Errorf("opens = %d after second tick, want 1", sampler.opens)
	}
}

func TestCPUMonitorPurgesRemovedWindows(t *testing.T) {
	win := newFakeWindowSystem()
	win.valid[7] = true
	win.pids[7] = 4321
	sampler := &fakeSampler{procs: map[int]*fakeProcess{4321: {percent: 5}}}
	m, registry, _ := newTestCPUMonitor(win, sampler)
	registry.Add(7, "win")

	m.tick()
	if len(m.procs) != 1 {
		t.Fatal("handle should be cached after first tick")
	}

	registry.Remove(7)
	m.tick()
	if len(m.procs) != 0 {
		t.Error("removed window's handle must be purged")
	}
}

func TestCPUMonitorReopensAfterSampleError(t *testing.T) {
	win := newFakeWindowSystem()
	win.valid[7] = true
	win.pids[7] = 4321
	proc := &fakeProcess{percent: 5}
	sampler := &fakeSampler{procs: map[int]*fakeProcess{4321: proc}}
	m, registry, _ := newTestCPUMonitor(win, sampler)
	registry.Add(7, "win")

	m.tick() // open + baseline
	proc.err = errors.New("process exited")
	m.tick() // sample fails, cache dropped
	if len(m.procs) != 0 {
		t.Fatal("failed sample should drop the cached handle")
	}

	proc.err = nil
	m.tick() // re-open
	if sampler.opens != 2 {
		t.Errorf("opens = %d, want 2 after re-resolve", sampler.opens)
	}
}
