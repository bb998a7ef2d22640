package clock

import (
	"testing"
	"time"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestQueueFiresInDeadlineOrder(t *testing.T) {
	q := NewQueue(epoch)

	var order []string
	q.AfterFunc(3*time.Second, func(time.Time) { order = append(order, "c") })
	q.AfterFunc(1*time.Second, func(time.Time) { order = append(order, "a") })
	q.AfterFunc(2*time.Second, func(time.Time) { order = append(order, "b") })
	q.AfterFunc(2*time.Second, func(time.Time) { order = append(order, "b2") })

	fired := q.Advance(epoch.Add(2 * time.Second))
	if fired != 3 {
		t.Errorf("Advance() fired %d timers, expected 3", fired)
	}

	expected := []string{"a", "b", "b2"}
	if len(order) != len(expected) {
		t.Fatalf("fired %v, expected %v", order, expected)
	}
	for i := range expected {
		if order[i] != expected[i] {
			t.Errorf("order[%d] = %q, expected %q", i, order[i], expected[i])
		}
	}

	if q.Len() != 1 {
		t.Errorf("Len() = %d, expected 1 pending timer", q.Len())
	}
}

func TestQueueNowDuringCallback(t *testing.T) {
	q := NewQueue(epoch)

	var seen time.Time
	q.AfterFunc(500*time.Millisecond, func(now time.Time) {
		seen = q.Now()
		if !now.Equal(seen) {
			t.Errorf("callback now %v differs from queue Now %v", now, seen)
		}
	})

	q.Advance(epoch.Add(2 * time.Second))

	if !seen.Equal(epoch.Add(500 * time.Millisecond)) {
		t.Errorf("Now() during callback = %v, expected the deadline", seen)
	}
	if !q.Now().Equal(epoch.Add(2 * time.Second)) {
		t.Errorf("Now() after Advance = %v, expected target time", q.Now())
	}
}

func TestTimerStop(t *testing.T) {
	q := NewQueue(epoch)

	fired := false
	timer := q.AfterFunc(time.Second, func(time.Time) { fired = true })

	if !timer.Active() {
		t.Error("new timer should be active")
	}
	if !timer.Stop() {
		t.Error("first Stop() should report true")
	}
	if timer.Stop() {
		t.Error("second Stop() should report false")
	}

	q.Advance(epoch.Add(time.Minute))
	if fired {
		t.Error("stopped timer fired")
	}

	var nilTimer *Timer
	if nilTimer.Stop() {
		t.Error("Stop() on nil timer should report false")
	}
}

func TestTimerStopAfterFire(t *testing.T) {
	q := NewQueue(epoch)
	timer := q.AfterFunc(time.Second, func(time.Time) {})

	q.Advance(epoch.Add(time.Second))

	if timer.Active() {
		t.Error("fired timer should not be active")
	}
	if timer.Stop() {
		t.Error("Stop() after firing should report false")
	}
}

func TestQueueRearmFromCallback(t *testing.T) {
	q := NewQueue(epoch)

	var ticks []time.Duration
	var tick Func
	tick = func(now time.Time) {
		ticks = append(ticks, now.Sub(epoch))
		q.AfterFunc(time.Second, tick)
	}
	q.AfterFunc(time.Second, tick)

	q.Advance(epoch.Add(3500 * time.Millisecond))

	if len(ticks) != 3 {
		t.Fatalf("got %d ticks, expected 3: %v", len(ticks), ticks)
	}
	for i, d := range ticks {
		if want := time.Duration(i+1) * time.Second; d != want {
			t.Errorf("tick %d at %v, expected %v", i, d, want)
		}
	}
}

func TestQueueStopInsideCallback(t *testing.T) {
	q := NewQueue(epoch)

	laterFired := false
	later := q.AfterFunc(2*time.Second, func(time.Time) { laterFired = true })
	q.AfterFunc(time.Second, func(time.Time) { later.Stop() })

	q.Advance(epoch.Add(5 * time.Second))

	if laterFired {
		t.Error("timer stopped by an earlier callback still fired")
	}
}

func TestQueueNeverGoesBackwards(t *testing.T) {
	q := NewQueue(epoch)
	q.Advance(epoch.Add(time.Minute))
	q.Advance(epoch)

	if !q.Now().Equal(epoch.Add(time.Minute)) {
		t.Errorf("Now() = %v, clock moved backwards", q.Now())
	}
}

func TestQueueStopAll(t *testing.T) {
	q := NewQueue(epoch)
	a := q.AfterFunc(time.Second, func(time.Time) { t.Error("timer a fired") })
	b := q.AfterFunc(2*time.Second, func(time.Time) { t.Error("timer b fired") })

	q.StopAll()
	q.Advance(epoch.Add(time.Hour))

	if a.Active() || b.Active() {
		t.Error("timers should be inactive after StopAll")
	}
	if q.Len() != 0 {
		t.Errorf("Len() = %d after StopAll", q.Len())
	}
}
