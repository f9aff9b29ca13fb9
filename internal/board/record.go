package board

import (
	"image"
	"time"

	"github.com/1broseidon/pipboard/internal/platform"
)

// ClientRecord is the registry's view of one monitored window.
//
// Position is the dense board slot (0..N-1); Row and Col are derived
// from it by Reorganize and only change there.
type ClientRecord struct {
	Handle   platform.WindowID
	Title    string
	Position int
	Row      int
	Col      int

	LastSnapshot image.Image
	LastUpdate   time.Time
	Minimized    bool
	CPUUsage     float64
}
