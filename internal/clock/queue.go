// Package clock provides a manually advanced timer queue.
//
// Timers never fire on a goroutine of their own. The owner of a Queue calls
// Advance from its event loop and every due callback runs synchronously on
// that loop, in deadline order. This keeps all game state mutation on a
// single logical thread and makes time fully controllable in tests.
package clock

import (
	"container/heap"
	"time"
)

// Func is a timer callback. It receives the instant the timer was due.
type Func func(now time.Time)

// Timer is a cancellable handle for a scheduled callback.
type Timer struct {
	q     *Queue
	at    time.Time
	seq   uint64
	fn    Func
	index int // position in the heap, -1 once fired or stopped
}

// Deadline returns the instant the timer is (or was) due.
func (t *Timer) Deadline() time.Time {
	return t.at
}

// Active reports whether the timer is still waiting to fire.
func (t *Timer) Active() bool {
	return t != nil && t.index >= 0
}

// Stop cancels the timer. It returns false if the timer already fired or
// was stopped before. Stopping a nil timer is a no-op.
func (t *Timer) Stop() bool {
	if !t.Active() {
		return false
	}
	heap.Remove(&t.q.timers, t.index)
	return true
}

// Queue holds pending timers against a clock that only moves forward when
// Advance is called. It is not safe for concurrent use.
type Queue struct {
	now    time.Time
	timers timerHeap
	seq    uint64
}

// NewQueue creates a queue whose clock starts at the given instant.
func NewQueue(start time.Time) *Queue {
	return &Queue{now: start}
}

// Now returns the current queue time. While a callback runs, Now reports
// that timer's deadline.
func (q *Queue) Now() time.Time {
	return q.now
}

// AfterFunc schedules fn to run once d has elapsed on the queue clock.
// Negative durations are treated as zero.
func (q *Queue) AfterFunc(d time.Duration, fn Func) *Timer {
	if d < 0 {
		d = 0
	}
	q.seq++
	t := &Timer{
		q:   q,
		at:  q.now.Add(d),
		seq: q.seq,
		fn:  fn,
	}
	heap.Push(&q.timers, t)
	return t
}

// Len returns the number of pending timers.
func (q *Queue) Len() int {
	return len(q.timers)
}

// Advance moves the clock to now and fires every timer due at or before it.
// Timers with equal deadlines fire in scheduling order. Callbacks may
// schedule or stop other timers; a timer scheduled inside a callback fires
// in the same call if it is already due. The clock never moves backwards.
// Returns the number of callbacks run.
func (q *Queue) Advance(now time.Time) int {
	if now.Before(q.now) {
		now = q.now
	}

	fired := 0
	for len(q.timers) > 0 {
		next := q.timers[0]
		if next.at.After(now) {
			break
		}
		heap.Pop(&q.timers)
		if next.at.After(q.now) {
			q.now = next.at
		}
		next.fn(q.now)
		fired++
	}

	q.now = now
	return fired
}

// StopAll cancels every pending timer.
func (q *Queue) StopAll() {
	for _, t := range q.timers {
		t.index = -1
	}
	q.timers = q.timers[:0]
}

// timerHeap orders timers by deadline, then by scheduling sequence.
type timerHeap []*Timer

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].at.Equal(h[j].at) {
		return h[i].seq < h[j].seq
	}
	return h[i].at.Before(h[j].at)
}

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	t := x.(*Timer)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}
