package session

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Linuxthecoder/Nexverse-version3.0/internal/model"
)

var (
	selfOID = primitive.NewObjectID()
	peerOID = primitive.NewObjectID()
)

func newMsg(sender, receiver primitive.ObjectID, text string, at time.Time) model.Message {
	return model.Message{
		ID:         primitive.NewObjectID(),
		SenderID:   sender,
		ReceiverID: receiver,
		Text:       text,
		CreatedAt:  at,
	}
}

func notif(msg model.Message) model.MessageNotification {
	return model.MessageNotification{Message: msg, SenderName: "Peer", SenderProfilePic: "/p.png"}
}

func TestThreadOrdersByCreatedAt(t *testing.T) {
	th := NewThread(selfOID.Hex(), peerOID.Hex())

	base := time.Now().UTC()
	third := newMsg(peerOID, selfOID, "third", base.Add(2*time.Second))
	first := newMsg(selfOID, peerOID, "first", base)
	second := newMsg(peerOID, selfOID, "second", base.Add(time.Second))

	th.LoadHistory([]model.Message{third, first, second})

	got := th.Messages()
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i, want := range []string{"first", "second", "third"} {
		if got[i].Text != want {
			t.Fatalf("position %d = %q, want %q", i, got[i].Text, want)
		}
	}
}

func TestThreadHistoryStatusMapping(t *testing.T) {
	th := NewThread(selfOID.Hex(), peerOID.Hex())

	outUnread := newMsg(selfOID, peerOID, "out-unread", time.Now().UTC())
	outRead := newMsg(selfOID, peerOID, "out-read", time.Now().UTC().Add(time.Second))
	outRead.Read = true
	incoming := newMsg(peerOID, selfOID, "in", time.Now().UTC().Add(2*time.Second))

	th.LoadHistory([]model.Message{outUnread, outRead, incoming})

	for _, view := range th.Messages() {
		switch view.Text {
		case "out-unread":
			if view.Status != StatusSent {
				t.Fatalf("unread outgoing status = %v, want sent", view.Status)
			}
		case "out-read":
			if view.Status != StatusSeen {
				t.Fatalf("read outgoing status = %v, want seen", view.Status)
			}
		case "in":
			if view.Status != StatusDelivered {
				t.Fatalf("incoming history status = %v, want delivered", view.Status)
			}
		}
	}
}

func TestThreadIncomingScopeAndDedup(t *testing.T) {
	th := NewThread(selfOID.Hex(), peerOID.Hex())

	msg := newMsg(peerOID, selfOID, "hi", time.Now().UTC())
	if !th.ApplyIncoming(notif(msg)) {
		t.Fatal("first incoming from the active peer should append")
	}
	if th.ApplyIncoming(notif(msg)) {
		t.Fatal("duplicate incoming should be a no-op")
	}

	// message from a different sender never reaches this thread's view
	stranger := newMsg(primitive.NewObjectID(), selfOID, "wrong thread", time.Now().UTC())
	if th.ApplyIncoming(notif(stranger)) {
		t.Fatal("incoming from a non-peer sender should be ignored")
	}
	if th.Len() != 1 {
		t.Fatalf("len = %d, want 1", th.Len())
	}
}

func TestThreadHistoryAfterLiveEventKeepsOneCopy(t *testing.T) {
	th := NewThread(selfOID.Hex(), peerOID.Hex())

	msg := newMsg(peerOID, selfOID, "hi", time.Now().UTC())
	th.ApplyIncoming(notif(msg))

	// the same message arrives again in a history fetch
	th.LoadHistory([]model.Message{msg})
	if th.Len() != 1 {
		t.Fatalf("len = %d, want 1 after overlapping history", th.Len())
	}
}

func TestThreadStatusOnlyAdvances(t *testing.T) {
	th := NewThread(selfOID.Hex(), peerOID.Hex())

	msg := newMsg(selfOID, peerOID, "hi", time.Now().UTC())
	th.AppendLocal(msg)
	id := msg.ID.Hex()

	if !th.Advance(id, StatusDelivered) {
		t.Fatal("sent -> delivered should advance")
	}
	if th.Advance(id, StatusDelivered) {
		t.Fatal("duplicate delivered receipt should be a no-op")
	}
	if !th.Advance(id, StatusSeen) {
		t.Fatal("delivered -> seen should advance")
	}
	if th.Advance(id, StatusDelivered) {
		t.Fatal("late delivered receipt must not regress seen")
	}
	if th.Messages()[0].Status != StatusSeen {
		t.Fatalf("status = %v, want seen", th.Messages()[0].Status)
	}
}

func TestThreadSeenBeforeDelivered(t *testing.T) {
	th := NewThread(selfOID.Hex(), peerOID.Hex())

	msg := newMsg(selfOID, peerOID, "hi", time.Now().UTC())
	th.AppendLocal(msg)
	id := msg.ID.Hex()

	// receipts can arrive out of order; seen wins and delivered is absorbed
	if !th.Advance(id, StatusSeen) {
		t.Fatal("sent -> seen should advance")
	}
	if th.Advance(id, StatusDelivered) {
		t.Fatal("out-of-order delivered must not regress")
	}
}

func TestThreadAdvanceManyCountsChanges(t *testing.T) {
	th := NewThread(selfOID.Hex(), peerOID.Hex())

	m1 := newMsg(selfOID, peerOID, "one", time.Now().UTC())
	m2 := newMsg(selfOID, peerOID, "two", time.Now().UTC().Add(time.Second))
	th.AppendLocal(m1)
	th.AppendLocal(m2)

	th.Advance(m1.ID.Hex(), StatusSeen)

	ids := []string{m1.ID.Hex(), m2.ID.Hex(), "unknown"}
	if changed := th.AdvanceMany(ids, StatusSeen); changed != 1 {
		t.Fatalf("changed = %d, want 1", changed)
	}
}

func TestThreadMarkPeerMessagesSeen(t *testing.T) {
	th := NewThread(selfOID.Hex(), peerOID.Hex())

	base := time.Now().UTC()
	in1 := newMsg(peerOID, selfOID, "one", base)
	in2 := newMsg(peerOID, selfOID, "two", base.Add(time.Second))
	out := newMsg(selfOID, peerOID, "mine", base.Add(2*time.Second))

	th.ApplyIncoming(notif(in1))
	th.ApplyIncoming(notif(in2))
	th.AppendLocal(out)

	ids := th.MarkPeerMessagesSeen()
	if len(ids) != 2 {
		t.Fatalf("seen ids = %v, want the two incoming messages", ids)
	}
	if ids[0] != in1.ID.Hex() || ids[1] != in2.ID.Hex() {
		t.Fatalf("seen ids = %v, want oldest first", ids)
	}

	// idempotent: nothing left to mark
	if again := th.MarkPeerMessagesSeen(); len(again) != 0 {
		t.Fatalf("second mark = %v, want empty", again)
	}
}

func TestThreadOfflineSendScenario(t *testing.T) {
	// sender writes while the receiver is offline; the message stays at sent
	// until the receiver reconnects, fetches history, and opens the thread
	th := NewThread(selfOID.Hex(), peerOID.Hex())

	msg := newMsg(selfOID, peerOID, "hi", time.Now().UTC())
	th.AppendLocal(msg)
	if th.Messages()[0].Status != StatusSent {
		t.Fatal("offline send should hold at sent")
	}

	// later the viewer's seen receipt arrives, skipping delivered entirely
	if changed := th.AdvanceMany([]string{msg.ID.Hex()}, StatusSeen); changed != 1 {
		t.Fatal("seen receipt after reconnect should advance")
	}
	if th.Messages()[0].Status != StatusSeen {
		t.Fatal("status should end at seen")
	}
}

func TestThreadSameInstantTieBreak(t *testing.T) {
	th := NewThread(selfOID.Hex(), peerOID.Hex())

	at := time.Now().UTC()
	a := newMsg(peerOID, selfOID, "a", at)
	b := newMsg(peerOID, selfOID, "b", at)

	th.LoadHistory([]model.Message{b, a})
	first := th.Messages()

	th2 := NewThread(selfOID.Hex(), peerOID.Hex())
	th2.LoadHistory([]model.Message{a, b})
	second := th2.Messages()

	// same-instant messages order by id, independent of arrival order
	if first[0].ID != second[0].ID || first[1].ID != second[1].ID {
		t.Fatal("tie-break ordering must be deterministic")
	}
}
