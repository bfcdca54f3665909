// Package session holds the client-side view model: the reconciliation of
// REST-fetched history, live bus events, and locally-initiated sends into a
// single ordered, de-duplicated message list with per-message status.
package session

import (
	"sort"
	"sync"

	"github.com/Linuxthecoder/Nexverse-version3.0/internal/model"
)

// Status is the sender-observable lifecycle of a message. It only ever
// advances: sent -> delivered -> seen.
type Status int

const (
	StatusSent Status = iota + 1
	StatusDelivered
	StatusSeen
)

func (s Status) String() string {
	switch s {
	case StatusSent:
		return "sent"
	case StatusDelivered:
		return "delivered"
	case StatusSeen:
		return "seen"
	default:
		return "unknown"
	}
}

// MessageView is a message plus its derived status.
type MessageView struct {
	model.Message
	Status Status `json:"status"`
}

// Thread reconciles the message list for one peer. It is scoped to that peer
// at construction; switching the active thread means discarding this Thread
// and creating a new one, so no handler can apply stale-thread messages to
// the wrong view.
type Thread struct {
	mu     sync.Mutex
	selfID string
	peerID string
	order  []string // message ids, createdAt ascending
	views  map[string]*MessageView
}

func NewThread(selfID, peerID string) *Thread {
	return &Thread{
		selfID: selfID,
		peerID: peerID,
		views:  make(map[string]*MessageView),
	}
}

func (t *Thread) PeerID() string { return t.peerID }

// LoadHistory merges a REST-fetched history page into the view. Messages
// already present keep their status; history never regresses a status that
// a live receipt has already advanced.
func (t *Thread) LoadHistory(msgs []model.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := range msgs {
		msg := msgs[i]
		if existing, ok := t.views[msg.ID.Hex()]; ok {
			// refresh the durable read flag, keep the advanced status
			if msg.Read && existing.Status < StatusSeen {
				existing.Status = StatusSeen
			}
			continue
		}
		t.insertLocked(msg, t.historyStatus(&msg))
	}
}

func (t *Thread) historyStatus(msg *model.Message) Status {
	if msg.SenderID.Hex() == t.selfID {
		// outgoing: the stored read flag is all the durable path knows
		if msg.Read {
			return StatusSeen
		}
		return StatusSent
	}
	// incoming history is in hand, hence delivered; seen is emitted when the
	// viewer actually opens the thread
	return StatusDelivered
}

// AppendLocal records a locally-initiated send. Status starts at sent and
// advances only via receipts from the bus.
func (t *Thread) AppendLocal(msg model.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.views[msg.ID.Hex()]; ok {
		return
	}
	t.insertLocked(msg, StatusSent)
}

// ApplyIncoming applies a live newMessage event. Events from any sender
// other than this thread's peer are ignored. Returns true when the message
// was appended, which is the caller's cue to emit a delivered receipt.
func (t *Thread) ApplyIncoming(n model.MessageNotification) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if n.SenderID.Hex() != t.peerID || n.ReceiverID.Hex() != t.selfID {
		return false
	}
	if _, ok := t.views[n.Message.ID.Hex()]; ok {
		return false
	}

	t.insertLocked(n.Message, StatusDelivered)
	return true
}

// Advance moves a message's status forward. Regressions and duplicates are
// no-ops, regardless of event arrival order. Returns true when the status
// actually changed.
func (t *Thread) Advance(messageID string, s Status) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.advanceLocked(messageID, s)
}

// AdvanceMany applies Advance to each id and returns how many changed.
func (t *Thread) AdvanceMany(messageIDs []string, s Status) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	changed := 0
	for _, id := range messageIDs {
		if t.advanceLocked(id, s) {
			changed++
		}
	}
	return changed
}

func (t *Thread) advanceLocked(messageID string, s Status) bool {
	view, ok := t.views[messageID]
	if !ok || view.Status >= s {
		return false
	}
	view.Status = s
	return true
}

// MarkPeerMessagesSeen advances every not-yet-seen incoming message to seen
// and returns their ids, oldest first - the payload for the seen receipt.
func (t *Thread) MarkPeerMessagesSeen() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var ids []string
	for _, id := range t.order {
		view := t.views[id]
		if view.SenderID.Hex() != t.peerID {
			continue
		}
		if view.Status < StatusSeen {
			view.Status = StatusSeen
			ids = append(ids, id)
		}
	}
	return ids
}

// Messages returns the ordered snapshot of the thread.
func (t *Thread) Messages() []MessageView {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]MessageView, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, *t.views[id])
	}
	return out
}

func (t *Thread) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.order)
}

// insertLocked places the message at its createdAt position, ties broken by
// id so concurrent same-instant messages order deterministically.
func (t *Thread) insertLocked(msg model.Message, s Status) {
	id := msg.ID.Hex()
	t.views[id] = &MessageView{Message: msg, Status: s}

	pos := sort.Search(len(t.order), func(i int) bool {
		other := t.views[t.order[i]]
		if !other.CreatedAt.Equal(msg.CreatedAt) {
			return other.CreatedAt.After(msg.CreatedAt)
		}
		return other.ID.Hex() > id
	})

	t.order = append(t.order, "")
	copy(t.order[pos+1:], t.order[pos:])
	t.order[pos] = id
}
