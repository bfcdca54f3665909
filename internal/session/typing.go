package session

import (
	"sync"
	"time"
)

// DefaultTypingIdle is the trailing window after the last keystroke before
// an isTyping:false is emitted, and the receiver-side fallback before a
// stuck indicator clears itself.
const DefaultTypingIdle = 3 * time.Second

// TypingEmitter debounces local text-input changes into typing events:
// every keystroke emits isTyping:true immediately (which also refreshes the
// receiver's fallback timer), and a single trailing isTyping:false fires
// after the idle window. Further keystrokes reset the window.
type TypingEmitter struct {
	mu     sync.Mutex
	idle   time.Duration
	emit   func(isTyping bool)
	timer  *time.Timer
	gen    uint64
	active bool
}

func NewTypingEmitter(idle time.Duration, emit func(isTyping bool)) *TypingEmitter {
	if idle <= 0 {
		idle = DefaultTypingIdle
	}
	return &TypingEmitter{idle: idle, emit: emit}
}

// Touch records one local input change. timer.Stop cannot cancel a timer
// that already fired, so each touch bumps the generation and the stale
// callback no-ops on it; the trailing false comes from the latest timer only.
func (e *TypingEmitter) Touch() {
	e.mu.Lock()
	e.active = true
	e.gen++
	gen := e.gen
	if e.timer != nil {
		e.timer.Stop()
	}
	e.timer = time.AfterFunc(e.idle, func() { e.expire(gen) })
	e.mu.Unlock()

	e.emit(true)
}

func (e *TypingEmitter) expire(gen uint64) {
	e.mu.Lock()
	if gen != e.gen || !e.active {
		e.mu.Unlock()
		return
	}
	e.active = false
	e.mu.Unlock()

	e.emit(false)
}

// Stop cancels the pending trailing emission without emitting anything.
func (e *TypingEmitter) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.active = false
	e.gen++
	if e.timer != nil {
		e.timer.Stop()
	}
}

// TypingMonitor is the receiving side: it holds a peer's isTyping state
// until an explicit false arrives or, as a robustness fallback, a local idle
// timeout lapses without a refreshing true.
type TypingMonitor struct {
	mu       sync.Mutex
	fallback time.Duration
	typing   map[string]bool
	timers   map[string]*time.Timer
	gens     map[string]uint64
	onChange func(userID string, isTyping bool)
}

// NewTypingMonitor creates a monitor. onChange may be nil.
func NewTypingMonitor(fallback time.Duration, onChange func(userID string, isTyping bool)) *TypingMonitor {
	if fallback <= 0 {
		fallback = DefaultTypingIdle
	}
	return &TypingMonitor{
		fallback: fallback,
		typing:   make(map[string]bool),
		timers:   make(map[string]*time.Timer),
		gens:     make(map[string]uint64),
		onChange: onChange,
	}
}

// Set applies a received typing event for userID. The per-user generation
// no-ops a fallback timer that fired just before a refreshing true landed.
func (m *TypingMonitor) Set(userID string, isTyping bool) {
	m.mu.Lock()

	m.gens[userID]++
	gen := m.gens[userID]
	if timer, ok := m.timers[userID]; ok {
		timer.Stop()
		delete(m.timers, userID)
	}

	changed := m.typing[userID] != isTyping
	if isTyping {
		m.typing[userID] = true
		m.timers[userID] = time.AfterFunc(m.fallback, func() { m.clear(userID, gen) })
	} else {
		delete(m.typing, userID)
	}
	m.mu.Unlock()

	if changed && m.onChange != nil {
		m.onChange(userID, isTyping)
	}
}

// clear is the fallback path: no refresh arrived within the idle window.
func (m *TypingMonitor) clear(userID string, gen uint64) {
	m.mu.Lock()
	if m.gens[userID] != gen {
		m.mu.Unlock()
		return
	}
	delete(m.timers, userID)
	wasTyping := m.typing[userID]
	delete(m.typing, userID)
	m.mu.Unlock()

	if wasTyping && m.onChange != nil {
		m.onChange(userID, false)
	}
}

// IsTyping reports the held state for userID.
func (m *TypingMonitor) IsTyping(userID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.typing[userID]
}

// Stop cancels all fallback timers.
func (m *TypingMonitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, timer := range m.timers {
		timer.Stop()
		delete(m.timers, id)
		m.gens[id]++
	}
}
