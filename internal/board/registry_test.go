package board

import (
	"errors"
	"image"
	"testing"
	"time"

	"github.com/1broseidon/pipboard/internal/platform"
)

func TestAddAssignsSequentialPositions(t *testing.T) {
	reg := NewRegistry()

	for i, h := range []platform.WindowID{100, 200, 300} {
		if err := reg.Add(h, "win"); err != nil {
			t.Fatalf("Add(%d) failed: %v", h, err)
		}
		rec, ok := reg.Get(h)
		if !ok {
			t.Fatalf("Get(%d) missing after Add", h)
		}
		if rec.Position != i {
			t.Errorf("handle %d: position = %d, want %d", h, rec.Position, i)
		}
	}
}

func TestAddDuplicateFails(t *testing.T) {
	reg := NewRegistry()

	if err := reg.Add(100, "a"); err != nil {
		t.Fatalf("first Add failed: %v", err)
	}
	err := reg.Add(100, "a again")
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("duplicate Add error = %v, want ErrDuplicate", err)
	}
	if reg.Len() != 1 {
		t.Errorf("Len() = %d, want 1", reg.Len())
	}
}

func TestRemoveRenumbersSurvivors(t *testing.T) {
	reg := NewRegistry()

	// A, B, C at positions 0, 1, 2. Removing B leaves A=0, C=1.
	a, b, c := platform.WindowID(1), platform.WindowID(2), platform.WindowID(3)
	for _, h := range []platform.WindowID{a, b, c} {
		if err := reg.Add(h, "win"); err != nil {
			t.Fatal(err)
		}
	}

	if !reg.Remove(b) {
		t.Fatal("Remove(b) reported no change")
	}

	recA, _ := reg.Get(a)
	recC, _ := reg.Get(c)
	if recA.Position != 0 {
		t.Errorf("A position = %d, want 0", recA.Position)
	}
	if recC.Position != 1 {
		t.Errorf("C position = %d, want 1", recC.Position)
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Add(42, "win"); err != nil {
		t.Fatal(err)
	}

	if !reg.Remove(42) {
		t.Error("first Remove should report a change")
	}
	if reg.Remove(42) {
		t.Error("second Remove should be a no-op")
	}
	if reg.Remove(999) {
		t.Error("Remove of unknown handle should be a no-op")
	}
}

func TestPositionsStayDense(t *testing.T) {
	reg := NewRegistry()
	handles := []platform.WindowID{10, 20, 30, 40, 50}
	for _, h := range handles {
		if err := reg.Add(h, "win"); err != nil {
			t.Fatal(err)
		}
	}

	reg.Remove(20)
	reg.Remove(50)
	reg.Remove(10)

	recs := reg.Snapshot()
	if len(recs) != 2 {
		t.Fatalf("Snapshot len = %d, want 2", len(recs))
	}
	for i, rec := range recs {
		if rec.Position != i {
			t.Errorf("slot %d holds position %d, positions not dense", i, rec.Position)
		}
	}
}

func TestMoveSwapsOccupant(t *testing.T) {
	reg := NewRegistry()
	a, b := platform.WindowID(1), platform.WindowID(2)
	reg.Add(a, "a")
	reg.Add(b, "b")

	if !reg.Move(a, 1) {
		t.Fatal("Move(a, +1) reported no change")
	}
	recA, _ := reg.Get(a)
	recB, _ := reg.Get(b)
	if recA.Position != 1 || recB.Position != 0 {
		t.Errorf("after move: a=%d b=%d, want a=1 b=0", recA.Position, recB.Position)
	}

	// Moving back restores the original layout.
	if !reg.Move(a, -1) {
		t.Fatal("Move(a, -1) reported no change")
	}
	recA, _ = reg.Get(a)
	recB, _ = reg.Get(b)
	if recA.Position != 0 || recB.Position != 1 {
		t.Errorf("after move back: a=%d b=%d, want a=0 b=1", recA.Position, recB.Position)
	}
}

func TestMoveOutOfRangeIsNoOp(t *testing.T) {
	reg := NewRegistry()
	reg.Add(1, "a")
	reg.Add(2, "b")

	if reg.Move(1, -1) {
		t.Error("move below slot 0 should be a no-op")
	}
	if reg.Move(2, 1) {
		t.Error("move past last slot should be a no-op")
	}
	rec, _ := reg.Get(1)
	if rec.Position != 0 {
		t.Errorf("position changed to %d on rejected move", rec.Position)
	}
}

func TestReorganizeGridCoordinates(t *testing.T) {
	reg := NewRegistry()
	for h := platform.WindowID(1); h <= 7; h++ {
		reg.Add(h, "win")
	}
	reg.Reorganize(3)

	want := []struct{ row, col int }{
		{0, 0}, {0, 1}, {0, 2},
		{1, 0}, {1, 1}, {1, 2},
		{2, 0},
	}
	for i, rec := range reg.Snapshot() {
		if rec.Row != want[i].row || rec.Col != want[i].col {
			t.Errorf("position %d: (%d,%d), want (%d,%d)",
				i, rec.Row, rec.Col, want[i].row, want[i].col)
		}
	}
}

func TestSetMinimizedCompareAndSet(t *testing.T) {
	reg := NewRegistry()
	reg.Add(1, "a")

	changed, ok := reg.SetMinimized(1, true)
	if !ok || !changed {
		t.Errorf("first set: changed=%v ok=%v, want true/true", changed, ok)
	}
	changed, ok = reg.SetMinimized(1, true)
	if !ok || changed {
		t.Errorf("repeat set: changed=%v ok=%v, want false/true", changed, ok)
	}
	_, ok = reg.SetMinimized(99, true)
	if ok {
		t.Error("SetMinimized on unknown handle should report ok=false")
	}
}

func TestSetSnapshotAndLastUpdate(t *testing.T) {
	reg := NewRegistry()
	reg.Add(1, "a")

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	now := time.Now()
	if !reg.SetSnapshot(1, img, now) {
		t.Fatal("SetSnapshot failed for known handle")
	}

	last, ok := reg.LastUpdate(1)
	if !ok || !last.Equal(now) {
		t.Errorf("LastUpdate = %v ok=%v, want %v true", last, ok, now)
	}
	rec, _ := reg.Get(1)
	if rec.LastSnapshot != img {
		t.Error("snapshot not stored on record")
	}

	if reg.SetSnapshot(99, img, now) {
		t.Error("SetSnapshot on unknown handle should fail")
	}
}
