package lobby

import (
	"sort"
	"sync"
	"time"

	"grain-arena/internal/protocol"

	"github.com/rs/zerolog/log"
)

type inviteKey struct {
	from string
	to   string
	room string
}

type Invitation struct {
	FromID    string
	ToID      string
	RoomID    string
	ExpiresAt time.Time
}

// InviteLedger holds pending room invitations until they are answered or
// expire.
type InviteLedger struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[inviteKey]time.Time
}

func NewInviteLedger(ttl time.Duration) *InviteLedger {
	if ttl <= 0 {
		ttl = defaultInviteTTL
	}
	return &InviteLedger{ttl: ttl, entries: map[inviteKey]time.Time{}}
}

// Create stores an invitation, replacing an identical earlier one, and
// returns its expiry.
func (l *InviteLedger) Create(fromID, toID, roomID string, now time.Time) time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	exp := now.Add(l.ttl)
	l.entries[inviteKey{fromID, toID, roomID}] = exp
	return exp
}

// IsValid reports whether the invitation exists and has not expired. An
// expired entry is dropped on the way.
func (l *InviteLedger) IsValid(fromID, toID, roomID string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	k := inviteKey{fromID, toID, roomID}
	exp, ok := l.entries[k]
	if !ok {
		return false
	}
	if !now.Before(exp) {
		delete(l.entries, k)
		return false
	}
	return true
}

func (l *InviteLedger) Remove(fromID, toID, roomID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	k := inviteKey{fromID, toID, roomID}
	if _, ok := l.entries[k]; !ok {
		return false
	}
	delete(l.entries, k)
	return true
}

// Sweep removes and returns every invitation expired at now.
func (l *InviteLedger) Sweep(now time.Time) []Invitation {
	l.mu.Lock()
	var out []Invitation
	for k, exp := range l.entries {
		if !now.Before(exp) {
			out = append(out, Invitation{FromID: k.from, ToID: k.to, RoomID: k.room, ExpiresAt: exp})
			delete(l.entries, k)
		}
	}
	l.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(out[j].ExpiresAt) })
	return out
}

func (l *InviteLedger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Invite offers the caller's room to another online account.
func (c *Coordinator) Invite(s *Session, targetID string) error {
	acct := s.Account()
	if acct == nil {
		return ErrNotAuthenticated
	}
	if targetID == "" {
		return ErrMalformed
	}
	if targetID == acct.ID {
		return ErrSelfTarget
	}
	r, err := c.roomOf(s)
	if err != nil {
		return err
	}
	r.mu.Lock()
	isHost, _ := r.roleLocked(acct.ID)
	switch {
	case !isHost:
		r.mu.Unlock()
		return ErrNotHost
	case r.status != RoomWaiting:
		r.mu.Unlock()
		return ErrRoundStarted
	case r.guest.present():
		r.mu.Unlock()
		return ErrRoomFull
	}
	r.mu.Unlock()

	target, ok := c.sessionFor(targetID)
	if !ok || target.Account() == nil {
		return ErrPeerOffline
	}
	if target.RoomID() != "" {
		return ErrTargetBusy
	}
	exp := c.invites.Create(acct.ID, targetID, r.id, c.now())
	metricInvitesSent.Add(1)
	log.Info().Str("room_id", r.id).Str("from", acct.ID).Str("to", targetID).Msg("invitation sent")
	target.send(protocol.InviteReceived{
		Type:       protocol.TypeInviteReceived,
		SenderID:   acct.ID,
		SenderName: acct.Username,
		RoomID:     r.id,
		ExpiresIn:  int(exp.Sub(c.now()).Round(time.Second) / time.Second),
	})
	return nil
}

// RespondInvite accepts or declines an invitation addressed to s.
func (c *Coordinator) RespondInvite(s *Session, senderID, roomID string, accept bool) error {
	acct := s.Account()
	if acct == nil {
		return ErrNotAuthenticated
	}
	if !c.invites.IsValid(senderID, acct.ID, roomID, c.now()) {
		return ErrInviteExpired
	}
	outcome := protocol.InviteOutcome{TargetID: acct.ID, TargetName: acct.Username, RoomID: roomID}
	if !accept {
		c.invites.Remove(senderID, acct.ID, roomID)
		outcome.Type = protocol.TypeInviteRejected
		c.sendTo(senderID, outcome)
		return nil
	}

	r, ok := c.room(roomID)
	if !ok {
		c.invites.Remove(senderID, acct.ID, roomID)
		return ErrRoomNotFound
	}
	if err := c.joinRoom(r, s); err != nil {
		c.invites.Remove(senderID, acct.ID, roomID)
		return err
	}
	c.invites.Remove(senderID, acct.ID, roomID)
	outcome.Type = protocol.TypeInviteAccepted
	c.sendTo(senderID, outcome)
	return nil
}

// SweepInvitations drops expired invitations and tells each sender.
func (c *Coordinator) SweepInvitations(now time.Time) int {
	expired := c.invites.Sweep(now)
	for _, inv := range expired {
		target := ""
		if t, ok := c.registry.Lookup(inv.ToID); ok {
			target = t.Username()
		}
		c.sendTo(inv.FromID, protocol.InviteOutcome{
			Type:       protocol.TypeInviteExpired,
			TargetID:   inv.ToID,
			TargetName: target,
			RoomID:     inv.RoomID,
		})
	}
	if len(expired) > 0 {
		log.Debug().Int("count", len(expired)).Msg("invitations expired")
	}
	return len(expired)
}
