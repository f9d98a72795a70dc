package lobby

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"grain-arena/internal/store"
	"grain-arena/internal/transport/stream"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type Status string

const (
	StatusOnline  Status = "online"
	StatusWaiting Status = "waiting"
	StatusPlaying Status = "playing"
	StatusOffline Status = "offline"
)

const sendBuffer = 64

// Session is one live connection. It becomes bound to an account on login
// and refers to its room by id only.
type Session struct {
	id   string
	conn stream.Conn
	out  chan []byte
	done chan struct{}

	lastHeartbeat atomic.Int64

	mu      sync.Mutex
	closed  bool
	account *store.Account
	status  Status
	roomID  string
}

func newSession(conn stream.Conn, now time.Time) *Session {
	s := &Session{
		id:     uuid.NewString(),
		conn:   conn,
		out:    make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
		status: StatusOnline,
	}
	s.lastHeartbeat.Store(now.UnixNano())
	return s
}

func (s *Session) ID() string { return s.id }

func (s *Session) AccountID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.account == nil {
		return ""
	}
	return s.account.ID
}

func (s *Session) Username() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.account == nil {
		return ""
	}
	return s.account.Username
}

// Account returns a copy of the cached account record, or nil before login.
func (s *Session) Account() *store.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.account == nil {
		return nil
	}
	cp := *s.account
	return &cp
}

func (s *Session) setAccount(a *store.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.account != nil && a != nil && s.account.ID == a.ID {
		cp := *a
		s.account = &cp
	}
}

func (s *Session) RoomID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roomID
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Session) Closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

func (s *Session) touch(now time.Time) {
	s.lastHeartbeat.Store(now.UnixNano())
}

func (s *Session) LastHeartbeat() time.Time {
	return time.Unix(0, s.lastHeartbeat.Load())
}

// attach binds the session to a room. The caller holds the room's lock.
func (s *Session) attach(roomID string, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrPeerOffline
	}
	if s.account == nil {
		return ErrNotAuthenticated
	}
	if s.roomID != "" {
		return ErrAlreadyInRoom
	}
	s.roomID = roomID
	s.status = status
	return nil
}

// detach clears the room binding if it still points at roomID. The caller
// holds the room's lock.
func (s *Session) detach(roomID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.roomID != roomID {
		return false
	}
	s.roomID = ""
	s.status = StatusOnline
	return true
}

func (s *Session) setStatus(roomID string, status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.roomID == roomID {
		s.status = status
	}
}

// send queues one outbound record. It reports false once the session has
// been closed.
func (s *Session) send(v any) bool {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("session_id", s.id).Msg("encode outbound record failed")
		return false
	}
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.out <- b:
		metricRecordsOut.Add(1)
		return true
	case <-s.done:
		return false
	}
}

// markClosed flips the session to closed exactly once and returns the
// account it was bound to.
func (s *Session) markClosed() (accountID string, first bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", false
	}
	s.closed = true
	close(s.done)
	if s.account != nil {
		accountID = s.account.ID
	}
	return accountID, true
}

func (s *Session) writeLoop(onError func(error)) {
	for {
		select {
		case b := <-s.out:
			if err := s.conn.WriteRecord(b); err != nil {
				onError(err)
				return
			}
		case <-s.done:
			return
		}
	}
}
