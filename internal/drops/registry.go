// Package drops tracks the falling challenges of the current session.
//
// A Registry owns every live Drop together with its expiry timer. Drops
// leave the registry exactly once: by expiry, by removal after a correct
// answer, or by Clear on teardown.
package drops

import (
	"errors"
	"fmt"
	"iter"
	"slices"
	"time"

	"github.com/vovakirdan/mathrain/internal/clock"
	"github.com/vovakirdan/mathrain/internal/problem"
)

// ErrNotFound is returned when an operation names a drop that is not live.
var ErrNotFound = errors.New("drops: drop not found")

// ID is an opaque drop identity. The zero ID never names a drop.
type ID uint64

// String formats the ID for logs.
func (id ID) String() string {
	return fmt.Sprintf("#%d", uint64(id))
}

// Drop is one falling challenge.
type Drop struct {
	ID        ID
	Problem   problem.Problem
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Due reports whether the drop has reached its deadline at now.
func (d Drop) Due(now time.Time) bool {
	return !d.ExpiresAt.After(now)
}

// Progress returns how far the drop has fallen at now, in [0, 1].
func (d Drop) Progress(now time.Time) float64 {
	total := d.ExpiresAt.Sub(d.CreatedAt)
	if total <= 0 {
		return 1
	}
	p := float64(now.Sub(d.CreatedAt)) / float64(total)
	return max(0, min(p, 1))
}

// Scheduler is the timer source a Registry arms expiry timers on.
// *clock.Queue satisfies it.
type Scheduler interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn clock.Func) *clock.Timer
}

type entry struct {
	drop  Drop
	timer *clock.Timer
}

// Registry holds the live drops. It is not safe for concurrent use.
type Registry struct {
	sched    Scheduler
	onDue    clock.Func
	entries  map[ID]*entry
	order    []ID // creation order
	lastID   ID
	selected ID
}

// NewRegistry creates a registry that arms one expiry timer per drop on
// sched. When a drop's timer fires, onDue is called with the fire time;
// the callback is expected to drain ExpireDue. A nil onDue disables the
// timers and leaves expiry to explicit ExpireDue polling.
func NewRegistry(sched Scheduler, onDue clock.Func) *Registry {
	return &Registry{
		sched:   sched,
		onDue:   onDue,
		entries: make(map[ID]*entry),
	}
}

// Spawn registers a new drop for p that expires ttl from now.
func (r *Registry) Spawn(p problem.Problem, ttl time.Duration) Drop {
	r.lastID++
	now := r.sched.Now()
	d := Drop{
		ID:        r.lastID,
		Problem:   p,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	e := &entry{drop: d}
	if r.onDue != nil {
		e.timer = r.sched.AfterFunc(ttl, r.onDue)
	}
	r.entries[d.ID] = e
	r.order = append(r.order, d.ID)
	return d
}

// Get returns a live drop by ID.
func (r *Registry) Get(id ID) (Drop, bool) {
	e, ok := r.entries[id]
	if !ok {
		return Drop{}, false
	}
	return e.drop, true
}

// Select makes id the only selected drop. If id is not live the current
// selection is left untouched and ErrNotFound is returned.
func (r *Registry) Select(id ID) error {
	if _, ok := r.entries[id]; !ok {
		return fmt.Errorf("select %v: %w", id, ErrNotFound)
	}
	r.selected = id
	return nil
}

// Selected returns the selected drop, if any.
func (r *Registry) Selected() (Drop, bool) {
	if r.selected == 0 {
		return Drop{}, false
	}
	return r.Get(r.selected)
}

// Deselect clears the selection.
func (r *Registry) Deselect() {
	r.selected = 0
}

// Remove takes a drop out of the registry and cancels its expiry timer.
// It returns false, and does nothing else, if the drop was already gone.
func (r *Registry) Remove(id ID) bool {
	e, ok := r.entries[id]
	if !ok {
		return false
	}

	e.timer.Stop()
	delete(r.entries, id)
	if i := slices.Index(r.order, id); i >= 0 {
		r.order = slices.Delete(r.order, i, i+1)
	}
	if r.selected == id {
		r.selected = 0
	}
	return true
}

// ExpireDue yields the live drops whose deadline is at or before now,
// earliest deadline first. Each drop is removed before it is yielded, so a
// drop is never reported twice and a drop removed by the consumer
// mid-iteration is skipped. Stopping the iteration early leaves the
// remaining due drops in place.
func (r *Registry) ExpireDue(now time.Time) iter.Seq[Drop] {
	return func(yield func(Drop) bool) {
		var due []Drop
		for _, id := range r.order {
			if d := r.entries[id].drop; d.Due(now) {
				due = append(due, d)
			}
		}
		slices.SortStableFunc(due, func(a, b Drop) int {
			return a.ExpiresAt.Compare(b.ExpiresAt)
		})

		for _, d := range due {
			if !r.Remove(d.ID) {
				continue
			}
			if !yield(d) {
				return
			}
		}
	}
}

// Clear removes every drop, cancels all expiry timers and returns the
// removed drops in creation order.
func (r *Registry) Clear() []Drop {
	removed := make([]Drop, 0, len(r.order))
	for _, id := range r.order {
		e := r.entries[id]
		e.timer.Stop()
		removed = append(removed, e.drop)
	}
	clear(r.entries)
	r.order = r.order[:0]
	r.selected = 0
	return removed
}

// Drops returns the live drops in creation order.
func (r *Registry) Drops() []Drop {
	out := make([]Drop, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.entries[id].drop)
	}
	return out
}

// Len returns the number of live drops.
func (r *Registry) Len() int {
	return len(r.order)
}
