package lobby

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"grain-arena/internal/protocol"
)

func TestJanitorDrainsMatchmaking(t *testing.T) {
	h := newHarness(t)
	a, aConn := h.login(t, "alice")
	b, _ := h.login(t, "bobby")
	_ = h.coord.EnterMatchmaking(a)
	_ = h.coord.EnterMatchmaking(b)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := h.coord.StartJanitor(ctx, JanitorIntervals{Matchmaking: 20 * time.Millisecond}); err != nil {
		t.Fatalf("start janitor: %v", err)
	}
	aConn.expect(t, protocol.TypeMatchFound)
	if a.RoomID() == "" || a.RoomID() != b.RoomID() {
		t.Fatal("janitor should have paired the queue")
	}
}

func TestServeAcceptsLineConnections(t *testing.T) {
	h := newHarness(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.coord.Serve(ctx, ln) }()

	conn, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	if _, err := conn.Write([]byte(`{"type":"heartbeat"}` + "\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var ack protocol.HeartbeatAck
	if err := json.Unmarshal(line, &ack); err != nil || ack.Type != protocol.TypeHeartbeatAck {
		t.Fatalf("unexpected reply %q: %v", line, err)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("serve did not stop")
	}
}
