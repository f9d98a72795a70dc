package lobby

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"grain-arena/internal/game"
	"grain-arena/internal/store"
)

const (
	defaultRoundDuration       = 120 * time.Second
	defaultInviteTTL           = 30 * time.Second
	defaultHeartbeatTimeout    = 15 * time.Second
	defaultJoinRequestCooldown = 10 * time.Second
	defaultOvertimeGrace       = 15 * time.Second
	persistTimeout             = 5 * time.Second
)

// Persistence is the account and match store the coordinator reports to.
type Persistence interface {
	Register(ctx context.Context, username, credential, email string) (*store.Account, error)
	Authenticate(ctx context.Context, username, credential string) (*store.Account, error)
	GetAccountByID(ctx context.Context, id string) (*store.Account, error)
	CreditRoundOutcome(ctx context.Context, accountID string, scoreDelta int, outcome string) error
	SaveMatchRecord(ctx context.Context, rec store.MatchRecord) (string, error)
	Leaderboard(ctx context.Context, limit int) ([]store.Account, error)
	MatchHistory(ctx context.Context, accountID string, limit int) ([]store.MatchRecord, error)
}

type Options struct {
	RoundDuration       time.Duration
	InviteTTL           time.Duration
	HeartbeatTimeout    time.Duration
	JoinRequestCooldown time.Duration
	// OvertimeGrace is how long past the round duration the server waits
	// for client reports before settling a round itself.
	OvertimeGrace    time.Duration
	LeaderboardLimit int
	HistoryLimit     int
	RosterLimit      int
	MaxRecordBytes   int
}

func (o Options) withDefaults() Options {
	if o.RoundDuration <= 0 {
		o.RoundDuration = defaultRoundDuration
	}
	if o.InviteTTL <= 0 {
		o.InviteTTL = defaultInviteTTL
	}
	if o.HeartbeatTimeout <= 0 {
		o.HeartbeatTimeout = defaultHeartbeatTimeout
	}
	if o.JoinRequestCooldown <= 0 {
		o.JoinRequestCooldown = defaultJoinRequestCooldown
	}
	if o.OvertimeGrace <= 0 {
		o.OvertimeGrace = defaultOvertimeGrace
	}
	if o.LeaderboardLimit <= 0 {
		o.LeaderboardLimit = 100
	}
	if o.HistoryLimit <= 0 {
		o.HistoryLimit = 50
	}
	if o.RosterLimit <= 0 {
		o.RosterLimit = 500
	}
	return o
}

// Coordinator owns every live session, room, queue entry and invitation.
// Rooms are locked individually; the registry, queue, ledger and room table
// each have their own lock.
type Coordinator struct {
	persist Persistence
	opts    Options

	registry *Registry
	queue    *MatchQueue
	invites  *InviteLedger

	roomsMu sync.RWMutex
	rooms   map[string]*Room

	connsMu sync.Mutex
	conns   map[string]*Session

	rngMu sync.Mutex
	rng   *rand.Rand

	now func() time.Time
}

func NewCoordinator(p Persistence, opts Options) *Coordinator {
	opts = opts.withDefaults()
	return &Coordinator{
		persist:  p,
		opts:     opts,
		registry: NewRegistry(),
		queue:    NewMatchQueue(),
		invites:  NewInviteLedger(opts.InviteTTL),
		rooms:    map[string]*Room{},
		conns:    map[string]*Session{},
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		now:      time.Now,
	}
}

func (c *Coordinator) Registry() *Registry { return c.registry }

func (c *Coordinator) manualLayout() game.Layout {
	c.rngMu.Lock()
	defer c.rngMu.Unlock()
	return game.ManualLayout(c.rng)
}

func (c *Coordinator) matchmadeLayout() game.Layout {
	c.rngMu.Lock()
	defer c.rngMu.Unlock()
	return game.MatchmadeLayout(c.rng)
}

func (c *Coordinator) room(id string) (*Room, bool) {
	c.roomsMu.RLock()
	defer c.roomsMu.RUnlock()
	r, ok := c.rooms[id]
	return r, ok
}

func (c *Coordinator) roomOf(s *Session) (*Room, error) {
	id := s.RoomID()
	if id == "" {
		return nil, ErrNotInRoom
	}
	r, ok := c.room(id)
	if !ok {
		return nil, ErrNotInRoom
	}
	return r, nil
}

// publishRoom allocates a free room code and stores the new room under it.
// The room is returned locked so no one can join before the host is bound.
func (c *Coordinator) publishRoom(host occupant, matchmade bool) (*Room, error) {
	c.roomsMu.Lock()
	defer c.roomsMu.Unlock()
	for {
		code, err := newRoomCode()
		if err != nil {
			return nil, err
		}
		if _, taken := c.rooms[code]; taken {
			continue
		}
		r := newRoom(code, host, matchmade, c.now())
		r.mu.Lock()
		c.rooms[code] = r
		metricRoomsCreated.Add(1)
		metricRoomsActive.Add(1)
		return r, nil
	}
}

func (c *Coordinator) removeRoom(id string) {
	c.roomsMu.Lock()
	defer c.roomsMu.Unlock()
	if _, ok := c.rooms[id]; ok {
		delete(c.rooms, id)
		metricRoomsActive.Add(-1)
	}
}

// Rooms returns snapshots of every live room ordered by creation time.
func (c *Coordinator) Rooms() []RoomSnapshot {
	c.roomsMu.RLock()
	rooms := make([]*Room, 0, len(c.rooms))
	for _, r := range c.rooms {
		rooms = append(rooms, r)
	}
	c.roomsMu.RUnlock()
	now := c.now()
	out := make([]RoomSnapshot, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, r.Snapshot(now, c.opts.JoinRequestCooldown))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// sessionFor returns the live session of accountID, if connected.
func (c *Coordinator) sessionFor(accountID string) (*Session, bool) {
	if accountID == "" {
		return nil, false
	}
	s, ok := c.registry.Lookup(accountID)
	if !ok || s.Closed() {
		return nil, false
	}
	return s, true
}

func (c *Coordinator) sendTo(accountID string, v any) bool {
	s, ok := c.sessionFor(accountID)
	if !ok {
		return false
	}
	return s.send(v)
}

func persistCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), persistTimeout)
}
