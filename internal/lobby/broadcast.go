package lobby

import (
	"context"
	"time"

	"grain-arena/internal/protocol"
	"grain-arena/internal/store"

	"github.com/rs/zerolog/log"
)

// Roster lists every known account with its live status. Known accounts are
// the top of the leaderboard plus everyone connected.
func (c *Coordinator) Roster(ctx context.Context) []protocol.RosterEntry {
	accounts, err := c.persist.Leaderboard(ctx, c.opts.RosterLimit)
	if err != nil {
		log.Warn().Err(err).Msg("roster account listing failed; using connected sessions only")
		accounts = nil
	}
	live := c.registry.Snapshot()
	byID := make(map[string]*Session, len(live))
	for _, e := range live {
		byID[e.AccountID] = e.Session
	}

	now := c.now()
	out := make([]protocol.RosterEntry, 0, len(accounts)+len(live))
	seen := make(map[string]bool, len(accounts))
	for i := range accounts {
		a := accounts[i]
		seen[a.ID] = true
		entry := rosterEntry(a)
		if s, ok := byID[a.ID]; ok {
			c.fillLiveStatus(&entry, s, now)
		}
		out = append(out, entry)
	}
	for _, e := range live {
		if seen[e.AccountID] {
			continue
		}
		a := e.Session.Account()
		if a == nil {
			continue
		}
		entry := rosterEntry(*a)
		c.fillLiveStatus(&entry, e.Session, now)
		out = append(out, entry)
	}
	return out
}

func rosterEntry(a store.Account) protocol.RosterEntry {
	return protocol.RosterEntry{
		AccountID:  a.ID,
		Username:   a.Username,
		TotalScore: a.TotalScore,
		Wins:       a.Wins,
		Losses:     a.Losses,
		Draws:      a.Draws,
		Status:     string(StatusOffline),
	}
}

func (c *Coordinator) fillLiveStatus(entry *protocol.RosterEntry, s *Session, now time.Time) {
	status := s.Status()
	roomID := s.RoomID()
	if roomID == "" && c.queue.Position(s) > 0 {
		status = StatusWaiting
	}
	entry.Status = string(status)
	if status != StatusWaiting || roomID == "" {
		return
	}
	if r, ok := c.room(roomID); ok {
		snap := r.Snapshot(now, c.opts.JoinRequestCooldown)
		entry.Room = &protocol.RoomSummary{RoomID: snap.ID, Occupants: snap.Occupants, Throttled: snap.Throttled}
	}
}

// Broadcast sends the full roster to every connected account.
func (c *Coordinator) Broadcast() {
	ctx, cancel := persistCtx()
	defer cancel()
	msg := protocol.RosterUpdate{Type: protocol.TypeAllUsersUpdate, Users: c.Roster(ctx)}
	for _, e := range c.registry.Snapshot() {
		e.Session.send(msg)
	}
	metricBroadcasts.Add(1)
}
