package hub

import (
	"fmt"
	"sync"
	"testing"
)

func TestPresenceRegisterAndLookup(t *testing.T) {
	p := NewPresenceRegistry()

	gen := p.Register("user-a", "conn-1")
	if gen == 0 {
		t.Fatal("expected non-zero generation")
	}

	clientID, ok := p.Lookup("user-a")
	if !ok || clientID != "conn-1" {
		t.Fatalf("Lookup = (%q, %v), want (conn-1, true)", clientID, ok)
	}

	if _, ok := p.Lookup("user-b"); ok {
		t.Fatal("Lookup for unknown user should miss")
	}
}

func TestPresenceReconnectOverwrites(t *testing.T) {
	p := NewPresenceRegistry()

	p.Register("user-a", "conn-1")
	gen2 := p.Register("user-a", "conn-2")

	clientID, ok := p.Lookup("user-a")
	if !ok || clientID != "conn-2" {
		t.Fatalf("Lookup after reconnect = (%q, %v), want (conn-2, true)", clientID, ok)
	}

	if p.Len() != 1 {
		t.Fatalf("Len = %d, want 1", p.Len())
	}

	if gen2 == 0 {
		t.Fatal("reconnect should assign a fresh generation")
	}
}

func TestPresenceStaleUnregisterIsNoop(t *testing.T) {
	p := NewPresenceRegistry()

	gen1 := p.Register("user-a", "conn-1")
	gen2 := p.Register("user-a", "conn-2")

	// The superseded connection disconnects late; the newer registration
	// must survive.
	if removed := p.Unregister("user-a", gen1); removed {
		t.Fatal("stale unregister should be a no-op")
	}
	if !p.IsOnline("user-a") {
		t.Fatal("user should still be online after stale unregister")
	}

	if removed := p.Unregister("user-a", gen2); !removed {
		t.Fatal("current-generation unregister should remove the entry")
	}
	if p.IsOnline("user-a") {
		t.Fatal("user should be offline after current unregister")
	}
}

func TestPresenceListOnlineSorted(t *testing.T) {
	p := NewPresenceRegistry()

	p.Register("charlie", "c3")
	p.Register("alice", "c1")
	p.Register("bob", "c2")

	got := p.ListOnline()
	want := []string{"alice", "bob", "charlie"}
	if len(got) != len(want) {
		t.Fatalf("ListOnline = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ListOnline = %v, want %v", got, want)
		}
	}
}

func TestPresenceOnlineExceptExcludesViewer(t *testing.T) {
	p := NewPresenceRegistry()

	p.Register("alice", "c1")
	p.Register("bob", "c2")

	got := p.OnlineExcept("alice")
	if len(got) != 1 || got[0] != "bob" {
		t.Fatalf("OnlineExcept(alice) = %v, want [bob]", got)
	}

	// The displayed count is derived from the filtered list, so a viewer
	// whose own registration has not completed yet simply sees the others.
	if got := p.OnlineExcept("mallory"); len(got) != 2 {
		t.Fatalf("OnlineExcept(unregistered viewer) = %v, want both users", got)
	}
}

func TestPresenceConcurrentAccess(t *testing.T) {
	p := NewPresenceRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			userID := fmt.Sprintf("user-%d", n%8)
			for j := 0; j < 100; j++ {
				gen := p.Register(userID, fmt.Sprintf("conn-%d-%d", n, j))
				p.Lookup(userID)
				p.ListOnline()
				p.Unregister(userID, gen)
			}
		}(i)
	}
	wg.Wait()

	if p.Len() > 8 {
		t.Fatalf("registry left %d entries, want at most 8", p.Len())
	}
}
