package lobby

import (
	"testing"
	"time"

	"grain-arena/internal/protocol"
)

func TestMatchQueueFIFO(t *testing.T) {
	q := NewMatchQueue()
	a, b, c := &Session{id: "a"}, &Session{id: "b"}, &Session{id: "c"}
	for _, s := range []*Session{a, b, c} {
		q.Enqueue(s)
	}
	if pos, added := q.Enqueue(b); added || pos != 2 {
		t.Fatalf("re-enqueue should keep position 2, got %d added=%v", pos, added)
	}
	x, y, ok := q.PopPair()
	if !ok || x != a || y != b {
		t.Fatalf("expected oldest pair (a, b)")
	}
	if q.Position(c) != 1 {
		t.Fatalf("expected c at position 1, got %d", q.Position(c))
	}
	if _, _, ok := q.PopPair(); ok {
		t.Fatal("single entry must not pop")
	}
	q.PushFront(a)
	if q.Position(a) != 1 || q.Position(c) != 2 {
		t.Fatal("PushFront must put the entry at the head")
	}
}

func TestDrainMatchmakingPairsOldestFirst(t *testing.T) {
	h := newHarness(t)
	a, aConn := h.login(t, "alice")
	b, bConn := h.login(t, "bobby")
	c, cConn := h.login(t, "carol")
	for _, s := range []*Session{a, b, c} {
		if err := h.coord.EnterMatchmaking(s); err != nil {
			t.Fatalf("enter matchmaking: %v", err)
		}
	}
	if n := h.coord.DrainMatchmaking(); n != 1 {
		t.Fatalf("expected 1 match, got %d", n)
	}

	found := aConn.expect(t, protocol.TypeMatchFound)
	if found["opponent_id"] != b.AccountID() {
		t.Fatalf("alice should be paired with bobby: %v", found)
	}
	bConn.expect(t, protocol.TypeMatchFound)
	start := aConn.expect(t, protocol.TypeGameStart)
	total := intField(start, "total_grains")
	if total < 50 || total > 100 {
		t.Fatalf("matchmade layout out of range: %d", total)
	}
	bConn.expect(t, protocol.TypeGameStart)

	r, ok := h.coord.room(a.RoomID())
	if !ok {
		t.Fatal("matchmade room missing")
	}
	snap := r.Snapshot(h.clock.Now(), time.Second)
	if snap.HostID != a.AccountID() || snap.Status != RoomPlaying || !snap.Matchmade || !snap.GuestReady {
		t.Fatalf("unexpected room: %+v", snap)
	}
	if h.coord.queue.Position(c) != 1 {
		t.Fatalf("carol should remain first in queue, got %d", h.coord.queue.Position(c))
	}
	cConn.refute(t, protocol.TypeMatchFound, 50*time.Millisecond)
}

func TestDrainMatchmakingSkipsDisconnected(t *testing.T) {
	h := newHarness(t)
	a, _ := h.login(t, "alice")
	b, _ := h.login(t, "bobby")
	c, _ := h.login(t, "carol")
	for _, s := range []*Session{a, b, c} {
		_ = h.coord.EnterMatchmaking(s)
	}
	// Closing without disconnect leaves the stale entry queued.
	a.markClosed()

	if n := h.coord.DrainMatchmaking(); n != 1 {
		t.Fatalf("expected 1 match, got %d", n)
	}
	if b.RoomID() == "" || b.RoomID() != c.RoomID() {
		t.Fatalf("bobby and carol should share a room: %q %q", b.RoomID(), c.RoomID())
	}
	if h.coord.queue.Len() != 0 {
		t.Fatalf("queue should be empty, got %d", h.coord.queue.Len())
	}
}

func TestCancelMatchmaking(t *testing.T) {
	h := newHarness(t)
	a, aConn := h.login(t, "alice")
	_ = h.coord.EnterMatchmaking(a)
	if st := aConn.expect(t, protocol.TypeMatchmakingStatus); st["queued"] != true || intField(st, "position") != 1 {
		t.Fatalf("unexpected status: %v", st)
	}
	_ = h.coord.CancelMatchmaking(a)
	if st := aConn.expect(t, protocol.TypeMatchmakingStatus); st["queued"] != false {
		t.Fatalf("unexpected status: %v", st)
	}
	if h.coord.queue.Len() != 0 {
		t.Fatal("queue should be empty after cancel")
	}
}
