package lobby

import (
	"testing"
	"time"

	"grain-arena/internal/protocol"
)

func loginOver(t *testing.T, h *harness, conn *fakeConn, username string) string {
	t.Helper()
	conn.push(t, protocol.LoginRequest{Type: protocol.TypeLogin, Username: username, Password: testCredential})
	resp := conn.expect(t, protocol.TypeLoginResponse)
	acct, _ := resp["account"].(map[string]any)
	id, _ := acct["account_id"].(string)
	if id == "" {
		t.Fatalf("login response without account: %v", resp)
	}
	return id
}

func TestHostGuestRoundOverWire(t *testing.T) {
	h := newHarness(t)
	h.store.add("alice")
	h.store.add("bobby")
	hostConn := h.serve(t, "alice")
	guestConn := h.serve(t, "bobby")
	loginOver(t, h, hostConn, "alice")
	guestID := loginOver(t, h, guestConn, "bobby")

	hostConn.push(t, map[string]any{"type": protocol.TypeCreateRoom})
	roomID, _ := hostConn.expect(t, protocol.TypeRoomCreated)["room_id"].(string)
	if len(roomID) != 6 {
		t.Fatalf("unexpected room code %q", roomID)
	}

	guestConn.push(t, protocol.JoinRoomRequest{Type: protocol.TypeJoinRoom, RoomID: roomID})
	guestConn.expect(t, protocol.TypeRoomJoined)
	if joined := hostConn.expect(t, protocol.TypePlayerJoined); joined["account_id"] != guestID {
		t.Fatalf("unexpected player_joined: %v", joined)
	}

	hostConn.push(t, map[string]any{"type": protocol.TypeStartGame})
	if e := hostConn.expect(t, protocol.TypeError); codeOf(e) != protocol.ErrNotReady {
		t.Fatalf("start before ready should fail with %d: %v", protocol.ErrNotReady, e)
	}

	guestConn.push(t, protocol.ReadyRequest{Type: protocol.TypeReady, Ready: true})
	hostConn.expect(t, protocol.TypePlayerReady)
	hostConn.push(t, map[string]any{"type": protocol.TypeStartGame})
	start := hostConn.expect(t, protocol.TypeGameStart)
	if start["opponent_name"] != "bobby" || intField(start, "duration_seconds") != 120 {
		t.Fatalf("unexpected game_start: %v", start)
	}
	total := intField(start, "total_grains")
	if total != intField(start, "rice_count")+intField(start, "paddy_count") || total < 50 || total > 100 {
		t.Fatalf("inconsistent layout counts: %v", start)
	}
	guestConn.expect(t, protocol.TypeGameStart)

	guestConn.push(t, map[string]any{"type": protocol.TypeScoreUpdate, "score": 7})
	if sc := hostConn.expect(t, protocol.TypeOpponentScore); intField(sc, "score") != 7 {
		t.Fatalf("unexpected opponent_score: %v", sc)
	}
	hostConn.push(t, map[string]any{"type": protocol.TypeGameOver, "score": 25})
	guestConn.expect(t, protocol.TypeOpponentFinished)

	hr := hostConn.expect(t, protocol.TypeGameResult)
	gr := guestConn.expect(t, protocol.TypeGameResult)
	if hr["result"] != "win" || intField(hr, "new_total_score") != 25 {
		t.Fatalf("unexpected host result: %v", hr)
	}
	if gr["result"] != "lose" || intField(gr, "my_score") != 7 {
		t.Fatalf("unexpected guest result: %v", gr)
	}

	guestConn.push(t, protocol.HistoryRequest{Type: protocol.TypeGetHistory})
	hist := guestConn.expect(t, protocol.TypeHistoryData)
	matches, _ := hist["matches"].([]any)
	if len(matches) != 1 {
		t.Fatalf("expected one match in history: %v", hist)
	}
	if m := matches[0].(map[string]any); m["result"] != "lose" || m["opponent_name"] != "alice" {
		t.Fatalf("history must be relative to the caller: %v", m)
	}
}

func TestRequestsBeforeLoginRejected(t *testing.T) {
	h := newHarness(t)
	conn := h.serve(t, "anon")
	conn.push(t, map[string]any{"type": protocol.TypeCreateRoom})
	if e := conn.expect(t, protocol.TypeError); codeOf(e) != protocol.ErrNotAuthenticated {
		t.Fatalf("expected %d, got %v", protocol.ErrNotAuthenticated, e)
	}
	conn.push(t, map[string]any{"type": protocol.TypeHeartbeat})
	if ack := conn.expect(t, protocol.TypeHeartbeatAck); ack["server_ts"] == nil {
		t.Fatalf("heartbeat_ack without timestamp: %v", ack)
	}
}

func TestMalformedAndUnknownRecords(t *testing.T) {
	h := newHarness(t)
	conn := h.serve(t, "anon")
	conn.in <- []byte("{not json")
	if e := conn.expect(t, protocol.TypeError); codeOf(e) != protocol.ErrInvalidPacket {
		t.Fatalf("expected %d, got %v", protocol.ErrInvalidPacket, e)
	}
	h.store.add("alice")
	loginOver(t, h, conn, "alice")
	conn.push(t, map[string]any{"type": "teleport"})
	if e := conn.expect(t, protocol.TypeError); codeOf(e) != protocol.ErrInvalidPacket {
		t.Fatalf("expected %d, got %v", protocol.ErrInvalidPacket, e)
	}
	conn.push(t, map[string]any{"type": protocol.TypeScoreUpdate})
	if e := conn.expect(t, protocol.TypeError); codeOf(e) != protocol.ErrInvalidPacket {
		t.Fatalf("score without value should be malformed: %v", e)
	}
}

func TestSecondLoginRejectedWithoutEvicting(t *testing.T) {
	h := newHarness(t)
	h.store.add("alice")
	first := h.serve(t, "first")
	second := h.serve(t, "second")
	id := loginOver(t, h, first, "alice")

	second.push(t, protocol.LoginRequest{Type: protocol.TypeLogin, Username: "alice", Password: testCredential})
	if e := second.expect(t, protocol.TypeError); codeOf(e) != protocol.ErrAlreadyLoggedIn {
		t.Fatalf("expected %d, got %v", protocol.ErrAlreadyLoggedIn, e)
	}
	if first.isClosed() {
		t.Fatal("existing session must not be evicted")
	}
	s, ok := h.coord.Registry().Lookup(id)
	if !ok || s.conn != first {
		t.Fatal("registry should still point at the first connection")
	}
}

func TestWrongCredentialRejected(t *testing.T) {
	h := newHarness(t)
	h.store.add("alice")
	conn := h.serve(t, "alice")
	conn.push(t, protocol.LoginRequest{Type: protocol.TypeLogin, Username: "alice", Password: "00"})
	if e := conn.expect(t, protocol.TypeError); codeOf(e) != protocol.ErrInvalidCredentials {
		t.Fatalf("expected %d, got %v", protocol.ErrInvalidCredentials, e)
	}
}

func TestRegisterValidation(t *testing.T) {
	h := newHarness(t)
	conn := h.serve(t, "new")
	conn.push(t, protocol.RegisterRequest{Type: protocol.TypeRegister, Username: "ab", Password: testCredential})
	if e := conn.expect(t, protocol.TypeError); codeOf(e) != protocol.ErrInvalidPacket {
		t.Fatalf("short username should be rejected: %v", e)
	}
	conn.push(t, protocol.RegisterRequest{Type: protocol.TypeRegister, Username: "newbie", Password: "plain"})
	if e := conn.expect(t, protocol.TypeError); codeOf(e) != protocol.ErrInvalidPacket {
		t.Fatalf("non-digest credential should be rejected: %v", e)
	}
	conn.push(t, protocol.RegisterRequest{Type: protocol.TypeRegister, Username: "newbie", Password: testCredential})
	if resp := conn.expect(t, protocol.TypeRegisterResponse); resp["username"] != "newbie" {
		t.Fatalf("unexpected register_response: %v", resp)
	}
	conn.push(t, protocol.RegisterRequest{Type: protocol.TypeRegister, Username: "newbie", Password: testCredential})
	if e := conn.expect(t, protocol.TypeError); codeOf(e) != protocol.ErrUsernameExists {
		t.Fatalf("expected %d, got %v", protocol.ErrUsernameExists, e)
	}
}

func TestChatRelayedWithinRoom(t *testing.T) {
	h := newHarness(t)
	host, hostConn := h.login(t, "alice")
	guest, guestConn := h.login(t, "bobby")
	roomID, _ := h.coord.CreateRoom(host)
	_ = h.coord.JoinRoom(guest, roomID)

	if err := h.coord.Chat(guest, "  good luck  "); err != nil {
		t.Fatalf("chat: %v", err)
	}
	for _, conn := range []*fakeConn{hostConn, guestConn} {
		msg := conn.expect(t, protocol.TypeChatMessage)
		if msg["message"] != "good luck" || msg["sender_name"] != "bobby" {
			t.Fatalf("unexpected chat: %v", msg)
		}
	}
}

func TestLogoutReleasesAccount(t *testing.T) {
	h := newHarness(t)
	h.store.add("alice")
	conn := h.serve(t, "alice")
	id := loginOver(t, h, conn, "alice")
	conn.push(t, map[string]any{"type": protocol.TypeLogout})

	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, ok := h.coord.Registry().Lookup(id); !ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("account still registered after logout")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if !conn.isClosed() {
		t.Fatal("logout should close the connection")
	}
}
