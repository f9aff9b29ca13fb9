package board

import (
	"errors"
	"fmt"
	"image"
	"sort"
	"sync"
	"time"

	"github.com/1broseidon/pipboard/internal/platform"
)

// ErrDuplicate is returned when a window is already on the board.
var ErrDuplicate = errors.New("window already on board")

// Registry is the thread-safe set of monitored windows. All reads and
// writes go through the mutex; accessors return copies so callers never
// hold references into the map.
type Registry struct {
	mu      sync.Mutex
	clients map[platform.WindowID]*ClientRecord
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[platform.WindowID]*ClientRecord),
	}
}

// Add registers a window at the next free position.
func (r *Registry) Add(handle platform.WindowID, title string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.clients[handle]; exists {
		return fmt.Errorf("%w: %d", ErrDuplicate, handle)
	}

	r.clients[handle] = &ClientRecord{
		Handle:   handle,
		Title:    title,
		Position: len(r.clients),
	}
	return nil
}

// Remove unregisters a window and renumbers the survivors so positions
// stay dense. Removing an absent handle is a no-op; the return value
// reports whether anything changed.
func (r *Registry) Remove(handle platform.WindowID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.clients[handle]; !exists {
		return false
	}
	delete(r.clients, handle)
	r.renumberLocked()
	return true
}

// renumberLocked reassigns positions 0..N-1 preserving relative order.
// Caller must hold r.mu.
func (r *Registry) renumberLocked() {
	survivors := make([]*ClientRecord, 0, len(r.clients))
	for _, rec := range r.clients {
		survivors = append(survivors, rec)
	}
	sort.Slice(survivors, func(i, j int) bool {
		return survivors[i].Position < survivors[j].Position
	})
	for i, rec := range survivors {
		rec.Position = i
	}
}

// Get returns a copy of the record for a handle.
func (r *Registry) Get(handle platform.WindowID) (ClientRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, exists := r.clients[handle]
	if !exists {
		return ClientRecord{}, false
	}
	return *rec, true
}

// Len returns the number of monitored windows.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

// SnapshotKeys returns the handles ordered by board position.
func (r *Registry) SnapshotKeys() []platform.WindowID {
	r.mu.Lock()
	defer r.mu.Unlock()

	recs := make([]*ClientRecord, 0, len(r.clients))
	for _, rec := range r.clients {
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool {
		return recs[i].Position < recs[j].Position
	})

	keys := make([]platform.WindowID, len(recs))
	for i, rec := range recs {
		keys[i] = rec.Handle
	}
	return keys
}

// Snapshot returns copies of every record ordered by board position.
func (r *Registry) Snapshot() []ClientRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	recs := make([]ClientRecord, 0, len(r.clients))
	for _, rec := range r.clients {
		recs = append(recs, *rec)
	}
	sort.Slice(recs, func(i, j int) bool {
		return recs[i].Position < recs[j].Position
	})
	return recs
}

// SetSnapshot stores a freshly captured thumbnail and its timestamp.
func (r *Registry) SetSnapshot(handle platform.WindowID, img image.Image, at time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, exists := r.clients[handle]
	if !exists {
		return false
	}
	rec.LastSnapshot = img
	rec.LastUpdate = at
	return true
}

// LastUpdate returns the time of the last stored snapshot.
func (r *Registry) LastUpdate(handle platform.WindowID) (time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, exists := r.clients[handle]
	if !exists {
		return time.Time{}, false
	}
	return rec.LastUpdate, true
}

// SetMinimized updates the minimized flag. The first return value
// reports whether the flag actually changed, the second whether the
// handle is on the board.
func (r *Registry) SetMinimized(handle platform.WindowID, minimized bool) (changed, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, exists := r.clients[handle]
	if !exists {
		return false, false
	}
	if rec.Minimized == minimized {
		return false, true
	}
	rec.Minimized = minimized
	return true, true
}

// SetCPU stores the latest CPU usage sample.
func (r *Registry) SetCPU(handle platform.WindowID, percent float64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, exists := r.clients[handle]
	if !exists {
		return false
	}
	rec.CPUUsage = percent
	return true
}

// Move shifts a window by delta board slots, swapping with whatever
// occupies the target slot. Out-of-range targets are a no-op.
func (r *Registry) Move(handle platform.WindowID, delta int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, exists := r.clients[handle]
	if !exists {
		return false
	}

	target := rec.Position + delta
	if target < 0 || target >= len(r.clients) {
		return false
	}

	for _, other := range r.clients {
		if other.Position == target {
			other.Position = rec.Position
			break
		}
	}
	rec.Position = target
	return true
}

// Reorganize recomputes grid coordinates from positions for the given
// column count.
func (r *Registry) Reorganize(columns int) {
	if columns < 1 {
		columns = 1
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rec := range r.clients {
		rec.Row = rec.Position / columns
		rec.Col = rec.Position % columns
	}
}
