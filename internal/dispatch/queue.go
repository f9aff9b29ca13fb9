package dispatch

import (
	"image"
	"sync"

	"github.com/1broseidon/pipboard/internal/platform"
)

// Kind distinguishes the update variants the loops produce.
type Kind int

const (
	KindImage Kind = iota
	KindStatus
	KindCPU
	KindRemoval
)

func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindStatus:
		return "status"
	case KindCPU:
		return "cpu"
	case KindRemoval:
		return "removal"
	default:
		return "unknown"
	}
}

// Update carries one state change from a background loop to the
// presentation layer. Only the field matching Kind is meaningful.
type Update struct {
	Handle     platform.WindowID
	Kind       Kind
	Image      image.Image
	Minimized  bool
	CPUPercent float64
}

// Queue buffers updates between producer goroutines and the single
// presentation drain. Enqueue never blocks; the buffer grows until the
// next Drain.
type Queue struct {
	mu      sync.Mutex
	pending []Update
}

func NewQueue() *Queue {
	return &Queue{}
}

// Enqueue appends an update for the next drain.
func (q *Queue) Enqueue(u Update) {
	q.mu.Lock()
	q.pending = append(q.pending, u)
	q.mu.Unlock()
}

// Drain returns all buffered updates in arrival order and empties the
// queue.
func (q *Queue) Drain() []Update {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) == 0 {
		return nil
	}
	out := q.pending
	q.pending = nil
	return out
}

// Len returns the number of buffered updates.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
