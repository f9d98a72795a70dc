package lobby

import (
	"grain-arena/internal/protocol"

	"github.com/rs/zerolog/log"
)

// RequestJoin asks the host of a discoverable room to let s in. Requests to
// one room are throttled by the join request cooldown.
func (c *Coordinator) RequestJoin(s *Session, roomID string) error {
	acct := s.Account()
	if acct == nil {
		return ErrNotAuthenticated
	}
	if s.RoomID() != "" {
		return ErrAlreadyInRoom
	}
	r, ok := c.room(roomID)
	if !ok {
		return ErrRoomNotFound
	}
	now := c.now()

	r.mu.Lock()
	switch {
	case r.status == RoomFinished:
		r.mu.Unlock()
		return ErrRoomNotFound
	case r.status == RoomPlaying:
		r.mu.Unlock()
		return ErrRoundStarted
	case r.host.AccountID == acct.ID:
		r.mu.Unlock()
		return ErrSelfTarget
	case r.guest.present():
		r.mu.Unlock()
		return ErrRoomFull
	case r.throttledLocked(now, c.opts.JoinRequestCooldown):
		r.mu.Unlock()
		return ErrJoinThrottled
	}
	prevRequest := r.lastJoinRequest
	r.lastJoinRequest = now
	r.pendingJoins[acct.ID] = now
	host := r.host
	r.mu.Unlock()

	if !c.sendTo(host.AccountID, protocol.JoinRequestReceived{
		Type:          protocol.TypeJoinRequestReceived,
		RoomID:        r.id,
		RequesterID:   acct.ID,
		RequesterName: acct.Username,
	}) {
		// The host never saw it: drop the request and the cooldown it claimed.
		r.mu.Lock()
		if r.pendingJoins[acct.ID].Equal(now) {
			delete(r.pendingJoins, acct.ID)
		}
		if r.lastJoinRequest.Equal(now) {
			r.lastJoinRequest = prevRequest
		}
		r.mu.Unlock()
		return ErrPeerOffline
	}
	log.Info().Str("room_id", r.id).Str("account_id", acct.ID).Msg("join request sent")
	c.Broadcast()
	return nil
}

// RespondJoinRequest is the host's answer to a pending join request.
func (c *Coordinator) RespondJoinRequest(s *Session, requesterID string, accept bool) error {
	r, err := c.roomOf(s)
	if err != nil {
		return err
	}
	r.mu.Lock()
	isHost, _ := r.roleLocked(s.AccountID())
	if !isHost {
		r.mu.Unlock()
		return ErrNotHost
	}
	if _, ok := r.pendingJoins[requesterID]; !ok {
		r.mu.Unlock()
		return ErrNoJoinRequest
	}
	delete(r.pendingJoins, requesterID)
	r.mu.Unlock()

	requester, ok := c.sessionFor(requesterID)
	if !ok {
		return ErrPeerOffline
	}
	if !accept {
		requester.send(protocol.JoinRequestResponse{
			Type:     protocol.TypeJoinRequestResponse,
			RoomID:   r.id,
			Accepted: false,
			Message:  "the host declined your request",
		})
		return nil
	}
	if err := c.joinRoom(r, requester); err != nil {
		code, text := mapError(err)
		requester.send(protocol.ErrorRecord{Type: protocol.TypeError, Code: code, Message: text})
		return err
	}
	requester.send(protocol.JoinRequestResponse{Type: protocol.TypeJoinRequestResponse, RoomID: r.id, Accepted: true})
	return nil
}
