package lobby

import (
	"sync"

	"grain-arena/internal/protocol"

	"github.com/rs/zerolog/log"
)

// MatchQueue is a strict FIFO of sessions waiting for an opponent.
type MatchQueue struct {
	mu      sync.Mutex
	entries []*Session
}

func NewMatchQueue() *MatchQueue {
	return &MatchQueue{}
}

// Enqueue appends s unless it is already queued and returns its 1-based
// position.
func (q *MatchQueue) Enqueue(s *Session) (int, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, e := range q.entries {
		if e == s {
			return i + 1, false
		}
	}
	q.entries = append(q.entries, s)
	return len(q.entries), true
}

func (q *MatchQueue) Cancel(s *Session) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, e := range q.entries {
		if e == s {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			return true
		}
	}
	return false
}

// PopPair removes and returns the two longest-waiting entries.
func (q *MatchQueue) PopPair() (*Session, *Session, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.entries) < 2 {
		return nil, nil, false
	}
	a, b := q.entries[0], q.entries[1]
	q.entries = append(q.entries[:0:0], q.entries[2:]...)
	return a, b, true
}

// PushFront puts a popped entry back at the head of the queue.
func (q *MatchQueue) PushFront(s *Session) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, e := range q.entries {
		if e == s {
			return
		}
	}
	q.entries = append([]*Session{s}, q.entries...)
}

func (q *MatchQueue) Position(s *Session) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, e := range q.entries {
		if e == s {
			return i + 1
		}
	}
	return 0
}

func (q *MatchQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

func (c *Coordinator) EnterMatchmaking(s *Session) error {
	if s.Account() == nil {
		return ErrNotAuthenticated
	}
	if s.RoomID() != "" {
		return ErrAlreadyInRoom
	}
	pos, added := c.queue.Enqueue(s)
	if added {
		log.Info().Str("account_id", s.AccountID()).Int("position", pos).Msg("entered matchmaking")
	}
	s.send(protocol.MatchmakingStatus{Type: protocol.TypeMatchmakingStatus, Queued: true, Position: pos})
	if added {
		c.Broadcast()
	}
	return nil
}

func (c *Coordinator) CancelMatchmaking(s *Session) error {
	if s.Account() == nil {
		return ErrNotAuthenticated
	}
	removed := c.queue.Cancel(s)
	s.send(protocol.MatchmakingStatus{Type: protocol.TypeMatchmakingStatus, Queued: false})
	if removed {
		c.Broadcast()
	}
	return nil
}

// DrainMatchmaking pairs queued sessions two at a time, oldest first, and
// starts a round for each pair. It returns the number of rounds started.
func (c *Coordinator) DrainMatchmaking() int {
	started := 0
	for {
		a, b, ok := c.queue.PopPair()
		if !ok {
			return started
		}
		if !c.eligible(a) {
			if c.eligible(b) {
				c.queue.PushFront(b)
			}
			continue
		}
		if !c.eligible(b) {
			c.queue.PushFront(a)
			continue
		}
		if err := c.startMatch(a, b); err != nil {
			log.Warn().Err(err).Str("host_id", a.AccountID()).Str("guest_id", b.AccountID()).Msg("matchmade room failed")
			continue
		}
		started++
	}
}

func (c *Coordinator) eligible(s *Session) bool {
	return !s.Closed() && s.Account() != nil && s.RoomID() == ""
}

func (c *Coordinator) startMatch(a, b *Session) error {
	hostAcct, guestAcct := a.Account(), b.Account()
	if hostAcct == nil || guestAcct == nil {
		return ErrNotAuthenticated
	}
	r, err := c.publishRoom(occupant{AccountID: hostAcct.ID, Username: hostAcct.Username}, true)
	if err != nil {
		c.queue.PushFront(b)
		c.queue.PushFront(a)
		return err
	}
	if err := a.attach(r.id, StatusWaiting); err != nil {
		r.status = RoomFinished
		r.mu.Unlock()
		c.removeRoom(r.id)
		if c.eligible(b) {
			c.queue.PushFront(b)
		}
		return err
	}
	if err := b.attach(r.id, StatusWaiting); err != nil {
		a.detach(r.id)
		r.status = RoomFinished
		r.mu.Unlock()
		c.removeRoom(r.id)
		if c.eligible(a) {
			c.queue.PushFront(a)
		}
		return err
	}
	r.guest = occupant{AccountID: guestAcct.ID, Username: guestAcct.Username}
	r.guestReady = true
	start := c.beginRoundLocked(r, c.matchmadeLayout())
	r.mu.Unlock()

	metricMatchmakingPairs.Add(1)
	log.Info().Str("room_id", r.id).Str("host_id", hostAcct.ID).Str("guest_id", guestAcct.ID).Msg("matchmaking paired")
	a.send(protocol.MatchFound{Type: protocol.TypeMatchFound, RoomID: r.id, OpponentID: guestAcct.ID, OpponentName: guestAcct.Username})
	b.send(protocol.MatchFound{Type: protocol.TypeMatchFound, RoomID: r.id, OpponentID: hostAcct.ID, OpponentName: hostAcct.Username})
	c.announceRound(start)
	return nil
}
