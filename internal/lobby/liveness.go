package lobby

import (
	"errors"
	"time"

	"github.com/rs/zerolog/log"
)

// disconnect tears a session down: an in-flight round is settled as a quit,
// a waiting room is left, and the account is released. Safe to call more
// than once and from any goroutine.
func (c *Coordinator) disconnect(s *Session, reason string) {
	accountID, first := s.markClosed()
	if !first {
		return
	}
	_ = s.conn.Close()
	c.connsMu.Lock()
	delete(c.conns, s.id)
	c.connsMu.Unlock()
	metricSessionsActive.Add(-1)
	c.queue.Cancel(s)

	logger := log.With().Str("session_id", s.id).Str("remote_addr", s.conn.RemoteAddr()).Str("reason", reason).Logger()
	if accountID == "" {
		logger.Debug().Msg("connection closed")
		return
	}
	c.releaseRoom(s, accountID)
	c.registry.Unregister(accountID, s)
	logger.Info().Str("account_id", accountID).Msg("session closed")
	c.Broadcast()
}

// releaseRoom gets a departing session out of its room. The room may move
// from waiting to playing while this runs, so the quit and leave paths are
// retried until one of them applies.
func (c *Coordinator) releaseRoom(s *Session, accountID string) {
	for attempt := 0; attempt < 3; attempt++ {
		roomID := s.RoomID()
		if roomID == "" {
			return
		}
		if c.quitOnDisconnect(accountID, roomID) {
			return
		}
		err := c.LeaveRoom(s)
		if err == nil || !errors.Is(err, ErrRoundStarted) {
			return
		}
	}
}

func (c *Coordinator) connections() []*Session {
	c.connsMu.Lock()
	defer c.connsMu.Unlock()
	out := make([]*Session, 0, len(c.conns))
	for _, s := range c.conns {
		out = append(out, s)
	}
	return out
}

// SweepLiveness disconnects every connection whose last heartbeat is older
// than the heartbeat timeout.
func (c *Coordinator) SweepLiveness(now time.Time) int {
	n := 0
	for _, s := range c.connections() {
		if now.Sub(s.LastHeartbeat()) > c.opts.HeartbeatTimeout {
			metricHeartbeatTimeouts.Add(1)
			c.disconnect(s, "heartbeat_timeout")
			n++
		}
	}
	return n
}

// SweepOverdueRounds settles rounds whose clients never reported an end,
// using the last reported scores.
func (c *Coordinator) SweepOverdueRounds(now time.Time) int {
	c.roomsMu.RLock()
	rooms := make([]*Room, 0, len(c.rooms))
	for _, r := range c.rooms {
		rooms = append(rooms, r)
	}
	c.roomsMu.RUnlock()

	deadline := c.opts.RoundDuration + c.opts.OvertimeGrace
	n := 0
	for _, r := range rooms {
		r.mu.Lock()
		overdue := r.status == RoomPlaying && !r.resultCalculated && now.Sub(r.startedAt) > deadline
		if overdue {
			r.hostSlot.finished = true
			r.guestSlot.finished = true
		}
		r.mu.Unlock()
		if overdue && c.finalize(r) {
			log.Warn().Str("room_id", r.id).Msg("round settled after deadline")
			n++
		}
	}
	return n
}

// CloseAll disconnects every connection, settling rounds in flight.
func (c *Coordinator) CloseAll(reason string) {
	for _, s := range c.connections() {
		c.disconnect(s, reason)
	}
}
