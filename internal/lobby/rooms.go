package lobby

import (
	"time"

	"grain-arena/internal/game"
	"grain-arena/internal/protocol"

	"github.com/rs/zerolog/log"
)

type roundStart struct {
	roomID   string
	host     occupant
	guest    occupant
	layout   game.Layout
	duration time.Duration
}

func (c *Coordinator) CreateRoom(s *Session) (string, error) {
	acct := s.Account()
	if acct == nil {
		return "", ErrNotAuthenticated
	}
	if s.RoomID() != "" {
		return "", ErrAlreadyInRoom
	}
	r, err := c.publishRoom(occupant{AccountID: acct.ID, Username: acct.Username}, false)
	if err != nil {
		return "", err
	}
	if err := s.attach(r.id, StatusWaiting); err != nil {
		r.status = RoomFinished
		r.mu.Unlock()
		c.removeRoom(r.id)
		return "", err
	}
	r.mu.Unlock()
	c.queue.Cancel(s)

	log.Info().Str("room_id", r.id).Str("account_id", acct.ID).Msg("room created")
	s.send(protocol.RoomCreated{Type: protocol.TypeRoomCreated, RoomID: r.id})
	c.Broadcast()
	return r.id, nil
}

func (c *Coordinator) JoinRoom(s *Session, roomID string) error {
	if s.Account() == nil {
		return ErrNotAuthenticated
	}
	r, ok := c.room(roomID)
	if !ok {
		return ErrRoomNotFound
	}
	return c.joinRoom(r, s)
}

// joinRoom seats s as the guest of r.
func (c *Coordinator) joinRoom(r *Room, s *Session) error {
	acct := s.Account()
	if acct == nil {
		return ErrNotAuthenticated
	}
	r.mu.Lock()
	switch r.status {
	case RoomPlaying:
		r.mu.Unlock()
		return ErrRoundStarted
	case RoomFinished:
		r.mu.Unlock()
		return ErrRoomNotFound
	}
	if r.host.AccountID == acct.ID {
		r.mu.Unlock()
		return ErrSelfTarget
	}
	if r.guest.present() {
		r.mu.Unlock()
		return ErrRoomFull
	}
	if err := s.attach(r.id, StatusWaiting); err != nil {
		r.mu.Unlock()
		return err
	}
	r.guest = occupant{AccountID: acct.ID, Username: acct.Username}
	r.guestReady = false
	delete(r.pendingJoins, acct.ID)
	host := r.host
	r.mu.Unlock()

	c.queue.Cancel(s)
	log.Info().Str("room_id", r.id).Str("account_id", acct.ID).Msg("guest joined room")
	s.send(protocol.RoomJoined{Type: protocol.TypeRoomJoined, RoomID: r.id, HostID: host.AccountID, HostName: host.Username})
	c.sendTo(host.AccountID, protocol.PlayerJoined{
		Type:      protocol.TypePlayerJoined,
		RoomID:    r.id,
		AccountID: acct.ID,
		Username:  acct.Username,
	})
	c.Broadcast()
	return nil
}

// LeaveRoom removes s from its room before the round starts. A guest leaving
// reopens the slot; the host leaving closes the room.
func (c *Coordinator) LeaveRoom(s *Session) error {
	r, err := c.roomOf(s)
	if err != nil {
		return err
	}
	accountID := s.AccountID()

	r.mu.Lock()
	isHost, isGuest := r.roleLocked(accountID)
	switch {
	case !isHost && !isGuest, r.status == RoomFinished:
		r.mu.Unlock()
		return ErrNotInRoom
	case r.status == RoomPlaying:
		r.mu.Unlock()
		return ErrRoundStarted
	}

	if isGuest {
		guest := r.guest
		r.guest = occupant{}
		r.guestReady = false
		s.detach(r.id)
		host := r.host
		r.mu.Unlock()

		log.Info().Str("room_id", r.id).Str("account_id", accountID).Msg("guest left room")
		c.sendTo(host.AccountID, protocol.PlayerLeft{
			Type:      protocol.TypePlayerLeft,
			RoomID:    r.id,
			AccountID: guest.AccountID,
			Username:  guest.Username,
		})
		c.Broadcast()
		return nil
	}

	host, guest := r.host, r.guest
	c.closeRoomLocked(r)
	r.mu.Unlock()
	c.removeRoom(r.id)

	log.Info().Str("room_id", r.id).Str("account_id", accountID).Msg("host left; room closed")
	if guest.present() {
		c.sendTo(guest.AccountID, protocol.PlayerLeft{
			Type:      protocol.TypePlayerLeft,
			RoomID:    r.id,
			AccountID: host.AccountID,
			Username:  host.Username,
			RoomGone:  true,
		})
	}
	c.Broadcast()
	return nil
}

// closeRoomLocked finishes a room that never ran a round and unbinds both
// occupants.
func (c *Coordinator) closeRoomLocked(r *Room) {
	r.status = RoomFinished
	for _, o := range []occupant{r.host, r.guest} {
		if !o.present() {
			continue
		}
		if sess, ok := c.registry.Lookup(o.AccountID); ok {
			sess.detach(r.id)
		}
	}
	r.host = occupant{}
	r.guest = occupant{}
	r.guestReady = false
}

func (c *Coordinator) KickGuest(s *Session, targetID string) error {
	r, err := c.roomOf(s)
	if err != nil {
		return err
	}
	accountID := s.AccountID()
	if targetID == accountID {
		return ErrSelfTarget
	}

	r.mu.Lock()
	isHost, _ := r.roleLocked(accountID)
	switch {
	case !isHost:
		r.mu.Unlock()
		return ErrNotHost
	case r.status == RoomPlaying:
		r.mu.Unlock()
		return ErrRoundStarted
	case r.status == RoomFinished:
		r.mu.Unlock()
		return ErrNotInRoom
	case !r.guest.present(), targetID != "" && targetID != r.guest.AccountID:
		r.mu.Unlock()
		return ErrNoGuest
	}
	guest := r.guest
	r.guest = occupant{}
	r.guestReady = false
	if gs, ok := c.registry.Lookup(guest.AccountID); ok {
		gs.detach(r.id)
	}
	r.mu.Unlock()

	log.Info().Str("room_id", r.id).Str("account_id", guest.AccountID).Msg("guest kicked")
	c.sendTo(guest.AccountID, protocol.PlayerKicked{Type: protocol.TypePlayerKicked, RoomID: r.id})
	s.send(protocol.PlayerLeft{
		Type:      protocol.TypePlayerLeft,
		RoomID:    r.id,
		AccountID: guest.AccountID,
		Username:  guest.Username,
	})
	c.Broadcast()
	return nil
}

func (c *Coordinator) SetReady(s *Session, ready bool) error {
	r, err := c.roomOf(s)
	if err != nil {
		return err
	}
	accountID := s.AccountID()

	r.mu.Lock()
	isHost, isGuest := r.roleLocked(accountID)
	switch {
	case isHost:
		r.mu.Unlock()
		return ErrHostCannotReady
	case !isGuest, r.status == RoomFinished:
		r.mu.Unlock()
		return ErrNotInRoom
	case r.status != RoomWaiting:
		r.mu.Unlock()
		return ErrRoundStarted
	}
	r.guestReady = ready
	host := r.host
	r.mu.Unlock()

	msg := protocol.PlayerReady{Type: protocol.TypePlayerReady, AccountID: accountID, Ready: ready}
	c.sendTo(host.AccountID, msg)
	s.send(msg)
	return nil
}

// StartRound is the host's start action. It needs a guest who is ready.
func (c *Coordinator) StartRound(s *Session) error {
	r, err := c.roomOf(s)
	if err != nil {
		return err
	}
	accountID := s.AccountID()

	r.mu.Lock()
	isHost, _ := r.roleLocked(accountID)
	switch {
	case !isHost:
		r.mu.Unlock()
		return ErrNotHost
	case r.status != RoomWaiting:
		r.mu.Unlock()
		return ErrRoundStarted
	case !r.guest.present():
		r.mu.Unlock()
		return ErrNoGuest
	case !r.guestReady:
		r.mu.Unlock()
		return ErrGuestNotReady
	}
	start := c.beginRoundLocked(r, c.manualLayout())
	r.mu.Unlock()

	c.announceRound(start)
	return nil
}

func (c *Coordinator) beginRoundLocked(r *Room, layout game.Layout) roundStart {
	r.beginLocked(layout, c.now())
	for _, o := range []occupant{r.host, r.guest} {
		if sess, ok := c.registry.Lookup(o.AccountID); ok {
			sess.setStatus(r.id, StatusPlaying)
		}
	}
	return roundStart{
		roomID:   r.id,
		host:     r.host,
		guest:    r.guest,
		layout:   layout,
		duration: c.opts.RoundDuration,
	}
}

func (c *Coordinator) announceRound(rs roundStart) {
	metricRoundsStarted.Add(1)
	grains := make([]protocol.Grain, 0, len(rs.layout.Grains))
	for _, g := range rs.layout.Grains {
		grains = append(grains, protocol.Grain{ID: g.ID, Kind: string(g.Kind), X: g.X, Y: g.Y})
	}
	msg := func(opponent occupant) protocol.GameStart {
		return protocol.GameStart{
			Type:            protocol.TypeGameStart,
			RoomID:          rs.roomID,
			Grains:          grains,
			DurationSeconds: int(rs.duration / time.Second),
			OpponentName:    opponent.Username,
			TotalGrains:     rs.layout.Total(),
			RiceCount:       rs.layout.Rice,
			PaddyCount:      rs.layout.Paddy,
		}
	}
	log.Info().
		Str("room_id", rs.roomID).
		Str("host_id", rs.host.AccountID).
		Str("guest_id", rs.guest.AccountID).
		Int("grains", rs.layout.Total()).
		Msg("round started")
	c.sendTo(rs.host.AccountID, msg(rs.guest))
	c.sendTo(rs.guest.AccountID, msg(rs.host))
	c.Broadcast()
}
