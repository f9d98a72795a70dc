package lobby

import (
	"context"
	"errors"
	"time"

	"grain-arena/internal/game"
	"grain-arena/internal/protocol"
	"grain-arena/internal/store"

	"github.com/rs/zerolog/log"
)

// settlement is everything finalization needs, copied out of the room while
// its lock is held.
type settlement struct {
	roomID    string
	matchmade bool
	host      occupant
	guest     occupant
	hostSlot  slotState
	guestSlot slotState
	duration  time.Duration
}

// ReportScore stores an in-progress score and relays it to the opponent.
func (c *Coordinator) ReportScore(s *Session, score int) error {
	r, err := c.roomOf(s)
	if err != nil {
		return err
	}
	if !game.ValidScore(score) {
		c.flagScore(s, r.id, score)
		return ErrScoreOutOfRange
	}
	r.mu.Lock()
	if r.status != RoomPlaying || r.resultCalculated {
		r.mu.Unlock()
		return ErrRoundNotStarted
	}
	slot, opponent, ok := r.slotLocked(s.AccountID())
	if !ok {
		r.mu.Unlock()
		return ErrNotInRoom
	}
	slot.score = score
	r.mu.Unlock()

	c.sendTo(opponent.AccountID, protocol.OpponentScore{Type: protocol.TypeOpponentScore, Score: score})
	return nil
}

// ReportMaxScore marks the reporter finished and ends the round. A report
// arriving after settlement released the session is a no-op.
func (c *Coordinator) ReportMaxScore(s *Session, score int) error {
	r, err := c.roomOf(s)
	if err != nil {
		return lateTrigger(err)
	}
	if !game.ValidScore(score) {
		c.flagScore(s, r.id, score)
		return ErrScoreOutOfRange
	}
	r.mu.Lock()
	if r.resultCalculated {
		r.mu.Unlock()
		return nil
	}
	if r.status != RoomPlaying {
		r.mu.Unlock()
		return ErrRoundNotStarted
	}
	slot, opponent, ok := r.slotLocked(s.AccountID())
	if !ok {
		r.mu.Unlock()
		return ErrNotInRoom
	}
	slot.score = score
	slot.finished = true
	r.mu.Unlock()

	c.sendTo(opponent.AccountID, protocol.OpponentFinished{Type: protocol.TypeOpponentFinished, Score: score})
	c.finalize(r)
	return nil
}

// ReportTimeoutOrQuit ends the round for a client whose timer ran out or who
// gave up. The score is clamped rather than rejected.
func (c *Coordinator) ReportTimeoutOrQuit(s *Session, score int, quit bool) error {
	r, err := c.roomOf(s)
	if err != nil {
		return lateTrigger(err)
	}
	if !game.ValidScore(score) {
		log.Warn().Str("room_id", r.id).Str("account_id", s.AccountID()).Int("score", score).Msg("timeout score clamped")
		score = game.ClampScore(score)
	}
	r.mu.Lock()
	if r.resultCalculated {
		r.mu.Unlock()
		return nil
	}
	if r.status != RoomPlaying {
		r.mu.Unlock()
		return ErrRoundNotStarted
	}
	slot, opponent, ok := r.slotLocked(s.AccountID())
	if !ok {
		r.mu.Unlock()
		return ErrNotInRoom
	}
	slot.score = score
	slot.finished = true
	if quit {
		slot.quit = true
	}
	r.mu.Unlock()

	if quit {
		c.notifyDeparted(opponent.AccountID, r.id)
	}
	c.finalize(r)
	return nil
}

// lateTrigger swallows ErrNotInRoom for round-ending reports: settlement
// detaches both players, so the slower client's timer or max-score report
// lands after its room is gone.
func lateTrigger(err error) error {
	if errors.Is(err, ErrNotInRoom) {
		return nil
	}
	return err
}

// quitOnDisconnect treats a dropped connection mid-round as a quit at the
// last reported score.
func (c *Coordinator) quitOnDisconnect(accountID, roomID string) bool {
	r, ok := c.room(roomID)
	if !ok {
		return false
	}
	r.mu.Lock()
	if r.resultCalculated || r.status != RoomPlaying {
		r.mu.Unlock()
		return false
	}
	slot, opponent, ok := r.slotLocked(accountID)
	if !ok {
		r.mu.Unlock()
		return false
	}
	slot.finished = true
	slot.quit = true
	r.mu.Unlock()

	c.notifyDeparted(opponent.AccountID, r.id)
	c.finalize(r)
	return true
}

func (c *Coordinator) notifyDeparted(accountID, roomID string) {
	c.sendTo(accountID, protocol.OpponentLeft{
		Type:    protocol.TypeOpponentLeft,
		RoomID:  roomID,
		Message: "opponent left the round; you win",
	})
}

func (c *Coordinator) flagScore(s *Session, roomID string, score int) {
	metricScoreRejects.Add(1)
	log.Warn().
		Str("room_id", roomID).
		Str("account_id", s.AccountID()).
		Str("remote_addr", s.conn.RemoteAddr()).
		Int("score", score).
		Msg("score out of range rejected")
}

// finalize settles r exactly once. The latch flips under the room lock;
// persistence and fan-out run after the lock is released.
func (c *Coordinator) finalize(r *Room) bool {
	r.mu.Lock()
	if r.resultCalculated || r.status != RoomPlaying {
		r.mu.Unlock()
		return false
	}
	r.resultCalculated = true
	r.status = RoomFinished
	res := settlement{
		roomID:    r.id,
		matchmade: r.matchmade,
		host:      r.host,
		guest:     r.guest,
		hostSlot:  r.hostSlot,
		guestSlot: r.guestSlot,
		duration:  c.now().Sub(r.startedAt),
	}
	r.mu.Unlock()

	c.settle(r, res)
	return true
}

func (c *Coordinator) settle(r *Room, res settlement) {
	hostOutcome, guestOutcome := game.Decide(
		game.Slot{Score: res.hostSlot.score, Quit: res.hostSlot.quit},
		game.Slot{Score: res.guestSlot.score, Quit: res.guestSlot.quit},
	)
	winnerID := ""
	switch {
	case hostOutcome == game.OutcomeWin:
		winnerID = res.host.AccountID
	case guestOutcome == game.OutcomeWin:
		winnerID = res.guest.AccountID
	}
	durationSeconds := int(res.duration.Round(time.Second) / time.Second)
	if durationSeconds < 0 {
		durationSeconds = 0
	}

	ctx, cancel := persistCtx()
	defer cancel()
	if _, err := c.persist.SaveMatchRecord(ctx, store.MatchRecord{
		HostID:          res.host.AccountID,
		GuestID:         res.guest.AccountID,
		HostName:        res.host.Username,
		GuestName:       res.guest.Username,
		HostScore:       res.hostSlot.score,
		GuestScore:      res.guestSlot.score,
		WinnerID:        winnerID,
		DurationSeconds: durationSeconds,
	}); err != nil {
		metricPersistErrors.Add(1)
		log.Error().Err(err).Str("room_id", res.roomID).Msg("save match record failed")
	}
	hostTotal := c.credit(ctx, res.roomID, res.host, hostOutcome, res.hostSlot.score)
	guestTotal := c.credit(ctx, res.roomID, res.guest, guestOutcome, res.guestSlot.score)

	log.Info().
		Str("room_id", res.roomID).
		Str("host_id", res.host.AccountID).
		Str("guest_id", res.guest.AccountID).
		Int("host_score", res.hostSlot.score).
		Int("guest_score", res.guestSlot.score).
		Str("host_result", string(hostOutcome)).
		Str("guest_result", string(guestOutcome)).
		Bool("matchmade", res.matchmade).
		Int("duration_s", durationSeconds).
		Msg("round finalized")

	c.sendResult(res.roomID, res.host, protocol.GameResult{
		Type:            protocol.TypeGameResult,
		RoomID:          res.roomID,
		Result:          string(hostOutcome),
		MyScore:         res.hostSlot.score,
		OpponentScore:   res.guestSlot.score,
		NewTotalScore:   hostTotal,
		DurationSeconds: durationSeconds,
		OpponentQuit:    res.guestSlot.quit,
	})
	c.sendResult(res.roomID, res.guest, protocol.GameResult{
		Type:            protocol.TypeGameResult,
		RoomID:          res.roomID,
		Result:          string(guestOutcome),
		MyScore:         res.guestSlot.score,
		OpponentScore:   res.hostSlot.score,
		NewTotalScore:   guestTotal,
		DurationSeconds: durationSeconds,
		OpponentQuit:    res.hostSlot.quit,
	})

	r.mu.Lock()
	for _, o := range []occupant{res.host, res.guest} {
		if sess, ok := c.registry.Lookup(o.AccountID); ok {
			sess.detach(res.roomID)
		}
	}
	r.mu.Unlock()
	c.removeRoom(res.roomID)
	metricRoundsFinalized.Add(1)
	c.Broadcast()
}

// credit applies the reward for one occupant and returns the new total
// score. When the store is unavailable the total is estimated from the
// session's cached account.
func (c *Coordinator) credit(ctx context.Context, roomID string, o occupant, outcome game.Outcome, score int) int {
	delta := game.Reward(outcome, score)
	sess, online := c.registry.Lookup(o.AccountID)
	if err := c.persist.CreditRoundOutcome(ctx, o.AccountID, delta, string(outcome)); err != nil {
		metricPersistErrors.Add(1)
		log.Error().Err(err).Str("room_id", roomID).Str("account_id", o.AccountID).Msg("credit round outcome failed")
	} else if a, err := c.persist.GetAccountByID(ctx, o.AccountID); err == nil {
		if online {
			sess.setAccount(a)
		}
		return a.TotalScore
	} else {
		log.Warn().Err(err).Str("account_id", o.AccountID).Msg("reload account after credit failed")
	}
	if online {
		if a := sess.Account(); a != nil {
			return a.TotalScore + delta
		}
	}
	return delta
}

func (c *Coordinator) sendResult(roomID string, o occupant, msg protocol.GameResult) {
	sess, ok := c.sessionFor(o.AccountID)
	if !ok || sess.RoomID() != roomID {
		return
	}
	sess.send(msg)
}
