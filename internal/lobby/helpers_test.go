package lobby

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"grain-arena/internal/store"
)

const testCredential = "5e884898da28047151d0e56f8dc6292773603d0d6aabbdd62a11ef721d1542d8"

type fakeStore struct {
	mu         sync.Mutex
	accounts   map[string]*store.Account
	byName     map[string]string
	matches    []store.MatchRecord
	credits    int
	nextID     int
	failCredit bool
	failSave   bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{accounts: map[string]*store.Account{}, byName: map[string]string{}}
}

func (f *fakeStore) add(username string) *store.Account {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	a := &store.Account{ID: fmt.Sprintf("acct-%02d", f.nextID), Username: username}
	f.accounts[a.ID] = a
	f.byName[username] = a.ID
	cp := *a
	return &cp
}

func (f *fakeStore) account(id string) store.Account {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.accounts[id]
}

func (f *fakeStore) matchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.matches)
}

func (f *fakeStore) creditCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.credits
}

func (f *fakeStore) Register(_ context.Context, username, credential, email string) (*store.Account, error) {
	f.mu.Lock()
	taken := f.byName[username] != ""
	f.mu.Unlock()
	if taken {
		return nil, store.ErrUsernameTaken
	}
	a := f.add(username)
	return a, nil
}

func (f *fakeStore) Authenticate(_ context.Context, username, credential string) (*store.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.byName[username]
	if !ok || credential != testCredential {
		return nil, store.ErrInvalidCredentials
	}
	cp := *f.accounts[id]
	return &cp, nil
}

func (f *fakeStore) GetAccountByID(_ context.Context, id string) (*store.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeStore) CreditRoundOutcome(_ context.Context, id string, delta int, outcome string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCredit {
		return errors.New("credit unavailable")
	}
	a, ok := f.accounts[id]
	if !ok {
		return store.ErrNotFound
	}
	f.credits++
	a.TotalScore += delta
	switch outcome {
	case "win":
		a.Wins++
	case "lose":
		a.Losses++
	case "draw":
		a.Draws++
	}
	return nil
}

func (f *fakeStore) SaveMatchRecord(_ context.Context, rec store.MatchRecord) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSave {
		return "", errors.New("save unavailable")
	}
	rec.ID = fmt.Sprintf("match-%d", len(f.matches)+1)
	f.matches = append(f.matches, rec)
	return rec.ID, nil
}

func (f *fakeStore) Leaderboard(_ context.Context, limit int) ([]store.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]store.Account, 0, len(f.accounts))
	for _, a := range f.accounts {
		out = append(out, *a)
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) MatchHistory(_ context.Context, id string, limit int) ([]store.MatchRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []store.MatchRecord
	for i := len(f.matches) - 1; i >= 0 && len(out) < limit; i-- {
		m := f.matches[i]
		if m.HostID == id || m.GuestID == id {
			out = append(out, m)
		}
	}
	return out, nil
}

// fakeConn is an in-memory stream.Conn. Records written by the server land
// on out; records fed with push are returned by ReadRecord.
type fakeConn struct {
	name string
	in   chan []byte
	out  chan []byte

	closeOnce sync.Once
	closed    chan struct{}
}

func newFakeConn(name string) *fakeConn {
	return &fakeConn{
		name:   name,
		in:     make(chan []byte, 16),
		out:    make(chan []byte, 1024),
		closed: make(chan struct{}),
	}
}

func (f *fakeConn) ReadRecord() ([]byte, error) {
	select {
	case b := <-f.in:
		return b, nil
	case <-f.closed:
		return nil, io.EOF
	}
}

func (f *fakeConn) WriteRecord(b []byte) error {
	select {
	case <-f.closed:
		return io.ErrClosedPipe
	default:
	}
	f.out <- append([]byte(nil), b...)
	return nil
}

func (f *fakeConn) Close() error {
	f.closeOnce.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeConn) RemoteAddr() string { return f.name + ":0" }

func (f *fakeConn) isClosed() bool {
	select {
	case <-f.closed:
		return true
	default:
		return false
	}
}

func (f *fakeConn) push(t *testing.T, v any) {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	f.in <- b
}

// expect waits for the next record of type typ, skipping others.
func (f *fakeConn) expect(t *testing.T, typ string) map[string]any {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case b := <-f.out:
			var m map[string]any
			if err := json.Unmarshal(b, &m); err != nil {
				t.Fatalf("%s: bad record %q: %v", f.name, b, err)
			}
			if m["type"] == typ {
				return m
			}
		case <-deadline:
			t.Fatalf("%s: timed out waiting for %s", f.name, typ)
			return nil
		}
	}
}

// refute fails if a record of type typ arrives within wait.
func (f *fakeConn) refute(t *testing.T, typ string, wait time.Duration) {
	t.Helper()
	deadline := time.After(wait)
	for {
		select {
		case b := <-f.out:
			var m map[string]any
			_ = json.Unmarshal(b, &m)
			if m["type"] == typ {
				t.Fatalf("%s: unexpected %s: %s", f.name, typ, b)
			}
		case <-deadline:
			return
		}
	}
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type harness struct {
	coord *Coordinator
	store *fakeStore
	clock *fakeClock
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	st := newFakeStore()
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	c := NewCoordinator(st, Options{})
	c.now = clock.Now
	t.Cleanup(func() { c.CloseAll("test_done") })
	return &harness{coord: c, store: st, clock: clock}
}

// login opens a session for a fresh account without going through the
// read loop.
func (h *harness) login(t *testing.T, username string) (*Session, *fakeConn) {
	t.Helper()
	conn := newFakeConn(username)
	s := newSession(conn, h.clock.Now())
	h.coord.connsMu.Lock()
	h.coord.conns[s.id] = s
	h.coord.connsMu.Unlock()
	metricSessionsActive.Add(1)
	go s.writeLoop(func(error) { h.coord.disconnect(s, "write_failed") })

	acct := h.store.add(username)
	if err := h.coord.bind(s, acct); err != nil {
		t.Fatalf("bind %s: %v", username, err)
	}
	return s, conn
}

// serve runs a connection through ServeConn and returns its client end.
func (h *harness) serve(t *testing.T, name string) *fakeConn {
	t.Helper()
	conn := newFakeConn(name)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go h.coord.ServeConn(ctx, conn)
	return conn
}

// playing seats guest in a new room hosted by host and starts the round.
func (h *harness) playing(t *testing.T, host, guest *Session) *Room {
	t.Helper()
	id, err := h.coord.CreateRoom(host)
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	if err := h.coord.JoinRoom(guest, id); err != nil {
		t.Fatalf("join room: %v", err)
	}
	if err := h.coord.SetReady(guest, true); err != nil {
		t.Fatalf("ready: %v", err)
	}
	if err := h.coord.StartRound(host); err != nil {
		t.Fatalf("start round: %v", err)
	}
	r, ok := h.coord.room(id)
	if !ok {
		t.Fatalf("room %s missing after start", id)
	}
	return r
}

func codeOf(m map[string]any) int {
	f, _ := m["code"].(float64)
	return int(f)
}

func intField(m map[string]any, key string) int {
	f, _ := m[key].(float64)
	return int(f)
}
