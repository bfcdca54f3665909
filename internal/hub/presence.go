package hub

import (
	"sort"
	"sync"
)

// presenceEntry pins a user's live connection. The generation counter lets a
// reconnect supersede an older connection without the older connection's late
// disconnect evicting the new one.
type presenceEntry struct {
	clientID   string
	generation uint64
}

// PresenceRegistry is the process-wide mapping of user id to active
// connection. Its key set defines "online users" exactly. All mutation goes
// through Register/Unregister; the raw map is never exposed.
type PresenceRegistry struct {
	mu      sync.RWMutex
	entries map[string]presenceEntry
	nextGen uint64
}

func NewPresenceRegistry() *PresenceRegistry {
	return &PresenceRegistry{
		entries: make(map[string]presenceEntry),
	}
}

// Register inserts or overwrites the mapping for userID and returns the
// generation assigned to this registration. Must run before any event that
// depends on "is this user online" for the connection.
func (p *PresenceRegistry) Register(userID, clientID string) uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.nextGen++
	p.entries[userID] = presenceEntry{clientID: clientID, generation: p.nextGen}
	return p.nextGen
}

// Unregister removes the mapping for userID only if the stored generation
// still matches. A stale disconnect of a superseded connection is a no-op.
// Returns true if the entry was removed.
func (p *PresenceRegistry) Unregister(userID string, generation uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	entry, ok := p.entries[userID]
	if !ok || entry.generation != generation {
		return false
	}
	delete(p.entries, userID)
	return true
}

// Lookup returns the connection id currently registered for userID. The
// result is a snapshot: it can be stale by the time it is used, so callers
// must treat a failed send as a normal miss, never cache across a wait.
func (p *PresenceRegistry) Lookup(userID string) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	entry, ok := p.entries[userID]
	return entry.clientID, ok
}

// IsOnline reports whether userID has a registered connection.
func (p *PresenceRegistry) IsOnline(userID string) bool {
	_, ok := p.Lookup(userID)
	return ok
}

// ListOnline returns the sorted ids of all online users.
func (p *PresenceRegistry) ListOnline() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	ids := make([]string, 0, len(p.entries))
	for userID := range p.entries {
		ids = append(ids, userID)
	}
	sort.Strings(ids)
	return ids
}

// OnlineExcept returns the online user ids with viewerID excluded
// explicitly. Displayed counts derive from this list, never from a
// subtract-one shortcut.
func (p *PresenceRegistry) OnlineExcept(viewerID string) []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	ids := make([]string, 0, len(p.entries))
	for userID := range p.entries {
		if userID == viewerID {
			continue
		}
		ids = append(ids, userID)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of online users.
func (p *PresenceRegistry) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.entries)
}
