package lobby

import (
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"grain-arena/internal/game"
)

type RoomStatus string

const (
	RoomWaiting  RoomStatus = "waiting"
	RoomPlaying  RoomStatus = "playing"
	RoomFinished RoomStatus = "finished"
)

// occupant is a slot's handle on a session: the account id is the key used
// to reach the live session through the registry.
type occupant struct {
	AccountID string
	Username  string
}

func (o occupant) present() bool { return o.AccountID != "" }

type slotState struct {
	score    int
	finished bool
	quit     bool
}

// Room is one match. All fields below mu are guarded by it.
type Room struct {
	id        string
	matchmade bool
	createdAt time.Time

	mu               sync.Mutex
	status           RoomStatus
	host             occupant
	guest            occupant
	guestReady       bool
	layout           game.Layout
	hostSlot         slotState
	guestSlot        slotState
	resultCalculated bool
	startedAt        time.Time
	lastJoinRequest  time.Time
	pendingJoins     map[string]time.Time
}

func newRoom(id string, host occupant, matchmade bool, now time.Time) *Room {
	return &Room{
		id:           id,
		matchmade:    matchmade,
		createdAt:    now,
		status:       RoomWaiting,
		host:         host,
		pendingJoins: map[string]time.Time{},
	}
}

func (r *Room) ID() string { return r.id }

// RoomSnapshot is a read-only copy of a room's public state.
type RoomSnapshot struct {
	ID         string     `json:"room_id"`
	Status     RoomStatus `json:"status"`
	HostID     string     `json:"host_id"`
	HostName   string     `json:"host_name"`
	GuestID    string     `json:"guest_id,omitempty"`
	GuestName  string     `json:"guest_name,omitempty"`
	GuestReady bool       `json:"guest_ready"`
	Matchmade  bool       `json:"matchmade"`
	Occupants  int        `json:"occupants"`
	Throttled  bool       `json:"throttled"`
	HostScore  int        `json:"host_score"`
	GuestScore int        `json:"guest_score"`
	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
}

func (r *Room) Snapshot(now time.Time, cooldown time.Duration) RoomSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := RoomSnapshot{
		ID:         r.id,
		Status:     r.status,
		HostID:     r.host.AccountID,
		HostName:   r.host.Username,
		GuestID:    r.guest.AccountID,
		GuestName:  r.guest.Username,
		GuestReady: r.guestReady,
		Matchmade:  r.matchmade,
		Occupants:  r.occupantsLocked(),
		Throttled:  r.throttledLocked(now, cooldown),
		HostScore:  r.hostSlot.score,
		GuestScore: r.guestSlot.score,
		CreatedAt:  r.createdAt,
	}
	if !r.startedAt.IsZero() {
		started := r.startedAt
		snap.StartedAt = &started
	}
	return snap
}

func (r *Room) occupantsLocked() int {
	n := 0
	if r.host.present() {
		n++
	}
	if r.guest.present() {
		n++
	}
	return n
}

func (r *Room) throttledLocked(now time.Time, cooldown time.Duration) bool {
	return !r.lastJoinRequest.IsZero() && now.Before(r.lastJoinRequest.Add(cooldown))
}

// roleLocked reports whether accountID is the host, the guest, or neither.
func (r *Room) roleLocked(accountID string) (isHost, isGuest bool) {
	return r.host.AccountID == accountID, r.guest.present() && r.guest.AccountID == accountID
}

func (r *Room) slotLocked(accountID string) (*slotState, occupant, bool) {
	switch accountID {
	case r.host.AccountID:
		return &r.hostSlot, r.guest, true
	case r.guest.AccountID:
		if r.guest.present() {
			return &r.guestSlot, r.host, true
		}
	}
	return nil, occupant{}, false
}

// beginLocked moves a waiting room into playing with a fresh layout.
func (r *Room) beginLocked(layout game.Layout, now time.Time) {
	r.status = RoomPlaying
	r.layout = layout
	r.hostSlot = slotState{}
	r.guestSlot = slotState{}
	r.startedAt = now
	r.pendingJoins = map[string]time.Time{}
}

const roomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// newRoomCode returns a 6 character room code.
func newRoomCode() (string, error) {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("room code: %w", err)
	}
	for i := range b {
		b[i] = roomCodeAlphabet[int(b[i])%len(roomCodeAlphabet)]
	}
	return string(b), nil
}
