package session

import (
	"sync"
	"testing"
	"time"
)

type typingRecorder struct {
	mu     sync.Mutex
	events []bool
}

func (r *typingRecorder) record(isTyping bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, isTyping)
}

func (r *typingRecorder) snapshot() []bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]bool, len(r.events))
	copy(out, r.events)
	return out
}

func TestEmitterBurstEndsWithSingleFalse(t *testing.T) {
	rec := &typingRecorder{}
	e := NewTypingEmitter(50*time.Millisecond, rec.record)
	defer e.Stop()

	for i := 0; i < 5; i++ {
		e.Touch()
		time.Sleep(10 * time.Millisecond)
	}

	// idle window elapses once after the last keystroke
	time.Sleep(150 * time.Millisecond)

	events := rec.snapshot()
	if len(events) != 6 {
		t.Fatalf("events = %v, want 5 trues and one trailing false", events)
	}
	for i := 0; i < 5; i++ {
		if !events[i] {
			t.Fatalf("event %d = false, want true", i)
		}
	}
	if events[5] {
		t.Fatal("trailing event should be false")
	}
}

func TestEmitterKeystrokeResetsIdleWindow(t *testing.T) {
	rec := &typingRecorder{}
	e := NewTypingEmitter(80*time.Millisecond, rec.record)
	defer e.Stop()

	e.Touch()
	time.Sleep(50 * time.Millisecond)
	e.Touch() // inside the window, so no false yet
	time.Sleep(50 * time.Millisecond)

	for _, ev := range rec.snapshot() {
		if !ev {
			t.Fatal("false fired while keystrokes were still refreshing the window")
		}
	}

	time.Sleep(100 * time.Millisecond)
	events := rec.snapshot()
	if len(events) != 3 || events[2] {
		t.Fatalf("events = %v, want [true true false]", events)
	}
}

func TestEmitterStopSuppressesTrailingFalse(t *testing.T) {
	rec := &typingRecorder{}
	e := NewTypingEmitter(30*time.Millisecond, rec.record)

	e.Touch()
	e.Stop()
	time.Sleep(80 * time.Millisecond)

	events := rec.snapshot()
	if len(events) != 1 || !events[0] {
		t.Fatalf("events = %v, want a single true", events)
	}
}

func TestEmitterSupersededTimerCallbackIsNoop(t *testing.T) {
	rec := &typingRecorder{}
	e := NewTypingEmitter(time.Hour, rec.record)
	defer e.Stop()

	// A timer can fire concurrently with a keystroke: Stop returns false,
	// the keystroke rearms, and the old callback then runs late. It must
	// not emit, or the indicator clears mid-typing.
	e.Touch()
	e.mu.Lock()
	staleGen := e.gen
	e.mu.Unlock()

	e.Touch()
	e.expire(staleGen)

	events := rec.snapshot()
	if len(events) != 2 || !events[0] || !events[1] {
		t.Fatalf("events = %v, want [true true] with no spurious false", events)
	}

	// the rearmed timer still owes the trailing false
	e.mu.Lock()
	currentGen := e.gen
	e.mu.Unlock()
	e.expire(currentGen)

	events = rec.snapshot()
	if len(events) != 3 || events[2] {
		t.Fatalf("events = %v, want a trailing false from the live timer", events)
	}
}

func TestMonitorExplicitFalseClears(t *testing.T) {
	m := NewTypingMonitor(time.Second, nil)
	defer m.Stop()

	m.Set("peer", true)
	if !m.IsTyping("peer") {
		t.Fatal("peer should be typing after true")
	}

	m.Set("peer", false)
	if m.IsTyping("peer") {
		t.Fatal("peer should not be typing after explicit false")
	}
}

func TestMonitorFallbackClearsStuckIndicator(t *testing.T) {
	changes := &typingRecorder{}
	m := NewTypingMonitor(40*time.Millisecond, func(_ string, isTyping bool) {
		changes.record(isTyping)
	})
	defer m.Stop()

	// the peer's false is lost; the local fallback clears the state
	m.Set("peer", true)
	time.Sleep(120 * time.Millisecond)

	if m.IsTyping("peer") {
		t.Fatal("fallback should have cleared the indicator")
	}
	events := changes.snapshot()
	if len(events) != 2 || !events[0] || events[1] {
		t.Fatalf("changes = %v, want [true false]", events)
	}
}

func TestMonitorRefreshExtendsFallback(t *testing.T) {
	m := NewTypingMonitor(60*time.Millisecond, nil)
	defer m.Stop()

	m.Set("peer", true)
	time.Sleep(40 * time.Millisecond)
	m.Set("peer", true) // refresh before the fallback fires
	time.Sleep(40 * time.Millisecond)

	if !m.IsTyping("peer") {
		t.Fatal("refreshed indicator cleared too early")
	}

	time.Sleep(80 * time.Millisecond)
	if m.IsTyping("peer") {
		t.Fatal("indicator should clear once refreshes stop")
	}
}

func TestMonitorTracksUsersIndependently(t *testing.T) {
	m := NewTypingMonitor(time.Second, nil)
	defer m.Stop()

	m.Set("alice", true)
	m.Set("bob", true)
	m.Set("alice", false)

	if m.IsTyping("alice") {
		t.Fatal("alice should be cleared")
	}
	if !m.IsTyping("bob") {
		t.Fatal("bob should be unaffected")
	}
}

func TestMonitorSupersededFallbackIsNoop(t *testing.T) {
	m := NewTypingMonitor(time.Hour, nil)
	defer m.Stop()

	m.Set("peer", true)
	m.mu.Lock()
	staleGen := m.gens["peer"]
	m.mu.Unlock()

	// a refreshing true lands while the old fallback callback is in flight
	m.Set("peer", true)
	m.clear("peer", staleGen)

	if !m.IsTyping("peer") {
		t.Fatal("superseded fallback cleared a refreshed indicator")
	}

	m.mu.Lock()
	currentGen := m.gens["peer"]
	m.mu.Unlock()
	m.clear("peer", currentGen)
	if m.IsTyping("peer") {
		t.Fatal("live fallback should still clear")
	}
}

func TestMonitorDuplicateTrueDoesNotNotifyTwice(t *testing.T) {
	changes := &typingRecorder{}
	m := NewTypingMonitor(time.Second, func(_ string, isTyping bool) {
		changes.record(isTyping)
	})
	defer m.Stop()

	m.Set("peer", true)
	m.Set("peer", true)

	if events := changes.snapshot(); len(events) != 1 {
		t.Fatalf("changes = %v, want a single true", events)
	}
}
