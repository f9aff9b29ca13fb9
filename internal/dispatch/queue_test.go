package dispatch

import (
	"sync"
	"testing"

	"github.com/1broseidon/pipboard/internal/platform"
)

func TestDrainPreservesOrder(t *testing.T) {
	q := NewQueue()

	q.Enqueue(Update{Handle: 1, Kind: KindImage})
	q.Enqueue(Update{Handle: 1, Kind: KindStatus, Minimized: true})
	q.Enqueue(Update{Handle: 2, Kind: KindCPU, CPUPercent: 12.5})
	q.Enqueue(Update{Handle: 1, Kind: KindRemoval})

	got := q.Drain()
	if len(got) != 4 {
		t.Fatalf("Drain returned %d updates, want 4", len(got))
	}

	wantKinds := []Kind{KindImage, KindStatus, KindCPU, KindRemoval}
	for i, u := range got {
		if u.Kind != wantKinds[i] {
			t.Errorf("update %d kind = %v, want %v", i, u.Kind, wantKinds[i])
		}
	}
}

func TestDrainEmptiesQueue(t *testing.T) {
	q := NewQueue()
	q.Enqueue(Update{Handle: 1, Kind: KindImage})

	if got := q.Drain(); len(got) != 1 {
		t.Fatalf("first Drain returned %d updates, want 1", len(got))
	}
	if got := q.Drain(); got != nil {
		t.Errorf("second Drain returned %d updates, want none", len(got))
	}
	if q.Len() != 0 {
		t.Errorf("Len() = %d after drain, want 0", q.Len())
	}
}

func TestConcurrentEnqueue(t *testing.T) {
	q := NewQueue()
	const producers = 8
	const perProducer = 100

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(handle platform.WindowID) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Enqueue(Update{Handle: handle, Kind: KindCPU})
			}
		}(platform.WindowID(p))
	}
	wg.Wait()

	if q.Len() != producers*perProducer {
		t.Errorf("Len() = %d, want %d", q.Len(), producers*perProducer)
	}
}

func TestKindString(t *testing.T) {
	cases := map[Kind]string{
		KindImage:   "image",
		KindStatus:  "status",
		KindCPU:     "cpu",
		KindRemoval: "removal",
		Kind(42):    "unknown",
	}
	for k, want := range cases {
		if got := k.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", int(k), got, want)
		}
	}
}
