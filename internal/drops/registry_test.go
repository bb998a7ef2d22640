package drops

import (
	"errors"
	"testing"
	"time"

	"github.com/vovakirdan/mathrain/internal/clock"
	"github.com/vovakirdan/mathrain/internal/problem"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// newTestRegistry wires a registry whose expiry timers drain ExpireDue
// into the returned slice.
func newTestRegistry() (*Registry, *clock.Queue, *[]Drop) {
	q := clock.NewQueue(epoch)
	var expired []Drop
	var r *Registry
	r = NewRegistry(q, func(now time.Time) {
		for d := range r.ExpireDue(now) {
			expired = append(expired, d)
		}
	})
	return r, q, &expired
}

func TestSpawnAssignsUniqueIDs(t *testing.T) {
	r, _, _ := newTestRegistry()

	seen := make(map[ID]bool)
	for i := 0; i < 50; i++ {
		d := r.Spawn(problem.New(1, problem.Add, i), time.Second)
		if d.ID == 0 {
			t.Fatal("Spawn() returned the zero ID")
		}
		if seen[d.ID] {
			t.Fatalf("Spawn() reused ID %v", d.ID)
		}
		seen[d.ID] = true
	}

	// IDs stay unique across Clear.
	r.Clear()
	d := r.Spawn(problem.New(2, problem.Add, 2), time.Second)
	if seen[d.ID] {
		t.Errorf("ID %v reused after Clear()", d.ID)
	}
}

func TestSpawnDeadline(t *testing.T) {
	r, q, _ := newTestRegistry()
	q.Advance(epoch.Add(5 * time.Second))

	d := r.Spawn(problem.New(3, problem.Multiply, 4), 8*time.Second)
	if !d.CreatedAt.Equal(epoch.Add(5 * time.Second)) {
		t.Errorf("CreatedAt = %v", d.CreatedAt)
	}
	if !d.ExpiresAt.Equal(epoch.Add(13 * time.Second)) {
		t.Errorf("ExpiresAt = %v", d.ExpiresAt)
	}
	if got := d.Progress(epoch.Add(9 * time.Second)); got != 0.5 {
		t.Errorf("Progress() halfway = %v, expected 0.5", got)
	}
}

func TestSelectIsExclusive(t *testing.T) {
	r, _, _ := newTestRegistry()
	a := r.Spawn(problem.New(1, problem.Add, 1), time.Second)
	b := r.Spawn(problem.New(2, problem.Add, 2), time.Second)

	if err := r.Select(a.ID); err != nil {
		t.Fatalf("Select(a) failed: %v", err)
	}
	if err := r.Select(b.ID); err != nil {
		t.Fatalf("Select(b) failed: %v", err)
	}

	sel, ok := r.Selected()
	if !ok || sel.ID != b.ID {
		t.Errorf("Selected() = %v, %v; expected drop b", sel.ID, ok)
	}
	if _, ok := r.Get(a.ID); !ok {
		t.Error("deselected drop a should still be live")
	}
	if r.Len() != 2 {
		t.Errorf("Len() = %d, expected 2", r.Len())
	}
}

func TestSelectMissingDrop(t *testing.T) {
	r, _, _ := newTestRegistry()
	a := r.Spawn(problem.New(1, problem.Add, 1), time.Second)
	r.Select(a.ID)

	err := r.Select(ID(999))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Select(missing) error = %v, expected ErrNotFound", err)
	}

	sel, ok := r.Selected()
	if !ok || sel.ID != a.ID {
		t.Error("failed Select() should keep the previous selection")
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	r, q, expired := newTestRegistry()
	d := r.Spawn(problem.New(5, problem.Subtract, 2), time.Second)
	r.Select(d.ID)

	if !r.Remove(d.ID) {
		t.Error("first Remove() should report true")
	}
	if r.Remove(d.ID) {
		t.Error("second Remove() should report false")
	}
	if _, ok := r.Selected(); ok {
		t.Error("removing the selected drop should clear the selection")
	}

	q.Advance(epoch.Add(time.Minute))
	if len(*expired) != 0 {
		t.Errorf("removed drop expired %d times", len(*expired))
	}
	if q.Len() != 0 {
		t.Errorf("expiry timer still pending after Remove()")
	}
}

func TestExpiryTimers(t *testing.T) {
	r, q, expired := newTestRegistry()
	slow := r.Spawn(problem.New(1, problem.Add, 1), 3*time.Second)
	fast := r.Spawn(problem.New(2, problem.Add, 2), 2*time.Second)
	r.Spawn(problem.New(3, problem.Add, 3), 10*time.Second)

	q.Advance(epoch.Add(time.Second))
	if len(*expired) != 0 {
		t.Fatalf("drops expired early: %v", *expired)
	}

	q.Advance(epoch.Add(3 * time.Second))
	if len(*expired) != 2 {
		t.Fatalf("expired %d drops, expected 2", len(*expired))
	}
	if (*expired)[0].ID != fast.ID || (*expired)[1].ID != slow.ID {
		t.Errorf("expired out of deadline order: %v", *expired)
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, expected 1 live drop", r.Len())
	}
}

func TestExpireDuePolling(t *testing.T) {
	q := clock.NewQueue(epoch)
	r := NewRegistry(q, nil)

	a := r.Spawn(problem.New(1, problem.Add, 1), time.Second)
	r.Spawn(problem.New(2, problem.Add, 2), 5*time.Second)

	var got []ID
	for d := range r.ExpireDue(epoch.Add(time.Second)) {
		got = append(got, d.ID)
	}
	if len(got) != 1 || got[0] != a.ID {
		t.Errorf("ExpireDue() = %v, expected only %v", got, a.ID)
	}

	// A second sweep at the same instant finds nothing.
	for d := range r.ExpireDue(epoch.Add(time.Second)) {
		t.Errorf("drop %v expired twice", d.ID)
	}
}

func TestExpireDueEarlyStop(t *testing.T) {
	q := clock.NewQueue(epoch)
	r := NewRegistry(q, nil)
	r.Spawn(problem.New(1, problem.Add, 1), time.Second)
	r.Spawn(problem.New(2, problem.Add, 2), time.Second)

	for range r.ExpireDue(epoch.Add(time.Second)) {
		break
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d after early stop, expected 1", r.Len())
	}
}

func TestClear(t *testing.T) {
	r, q, expired := newTestRegistry()
	a := r.Spawn(problem.New(1, problem.Add, 1), time.Second)
	b := r.Spawn(problem.New(2, problem.Add, 2), time.Second)
	r.Select(b.ID)

	removed := r.Clear()
	if len(removed) != 2 || removed[0].ID != a.ID || removed[1].ID != b.ID {
		t.Errorf("Clear() returned %v", removed)
	}
	if r.Len() != 0 {
		t.Errorf("Len() = %d after Clear()", r.Len())
	}
	if _, ok := r.Selected(); ok {
		t.Error("Clear() should drop the selection")
	}

	q.Advance(epoch.Add(time.Minute))
	if len(*expired) != 0 {
		t.Error("cleared drops still expired")
	}
}

func TestDropsCreationOrder(t *testing.T) {
	r, _, _ := newTestRegistry()
	a := r.Spawn(problem.New(1, problem.Add, 1), 5*time.Second)
	b := r.Spawn(problem.New(2, problem.Add, 2), time.Second)
	c := r.Spawn(problem.New(3, problem.Add, 3), 3*time.Second)
	r.Remove(b.ID)

	got := r.Drops()
	if len(got) != 2 || got[0].ID != a.ID || got[1].ID != c.ID {
		t.Errorf("Drops() = %v, expected [a c]", got)
	}
}
