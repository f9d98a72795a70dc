package lobby

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"grain-arena/internal/game"
	"grain-arena/internal/protocol"
	"grain-arena/internal/store"
	"grain-arena/internal/transport/stream"

	"github.com/rs/zerolog/log"
)

// ServeConn runs one connection until it closes or ctx is cancelled. The
// calling goroutine becomes the connection's read loop.
func (c *Coordinator) ServeConn(ctx context.Context, conn stream.Conn) {
	s := newSession(conn, c.now())
	c.connsMu.Lock()
	c.conns[s.id] = s
	c.connsMu.Unlock()
	metricSessionsTotal.Add(1)
	metricSessionsActive.Add(1)
	log.Debug().Str("session_id", s.id).Str("remote_addr", conn.RemoteAddr()).Msg("connection accepted")

	go s.writeLoop(func(err error) {
		log.Debug().Err(err).Str("session_id", s.id).Msg("write failed")
		c.disconnect(s, "write_failed")
	})
	stop := context.AfterFunc(ctx, func() { c.disconnect(s, "server_shutdown") })
	defer stop()

	for {
		rec, err := conn.ReadRecord()
		if err != nil {
			if errors.Is(err, stream.ErrRecordTooLarge) {
				code, text := mapError(err)
				if b, mErr := json.Marshal(protocol.ErrorRecord{Type: protocol.TypeError, Code: code, Message: text}); mErr == nil {
					_ = conn.WriteRecord(b)
				}
			}
			c.disconnect(s, "read_closed")
			return
		}
		metricRecordsIn.Add(1)
		if err := c.dispatch(ctx, s, rec); err != nil {
			c.replyError(s, err)
		}
		if s.Closed() {
			return
		}
	}
}

func (c *Coordinator) replyError(s *Session, err error) {
	code, text := mapError(err)
	if code == protocol.ErrInternal {
		log.Error().Err(err).Str("session_id", s.id).Str("account_id", s.AccountID()).Msg("request failed")
	} else {
		log.Debug().Err(err).Str("session_id", s.id).Int("code", code).Msg("request rejected")
	}
	s.send(protocol.ErrorRecord{Type: protocol.TypeError, Code: code, Message: text})
}

func decode(rec []byte, v any) error {
	if err := json.Unmarshal(rec, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

func (c *Coordinator) dispatch(ctx context.Context, s *Session, rec []byte) error {
	var env protocol.Envelope
	if err := decode(rec, &env); err != nil {
		return err
	}
	switch env.Type {
	case "":
		return ErrMalformed
	case protocol.TypeHeartbeat:
		now := c.now()
		s.touch(now)
		s.send(protocol.HeartbeatAck{Type: protocol.TypeHeartbeatAck, ServerTS: now.UnixMilli()})
		return nil
	case protocol.TypeLogin:
		var req protocol.LoginRequest
		if err := decode(rec, &req); err != nil {
			return err
		}
		return c.Login(ctx, s, req.Username, req.Password)
	case protocol.TypeRegister:
		var req protocol.RegisterRequest
		if err := decode(rec, &req); err != nil {
			return err
		}
		return c.RegisterAccount(ctx, s, req.Username, req.Password, req.Email)
	}

	if s.Account() == nil {
		return ErrNotAuthenticated
	}
	switch env.Type {
	case protocol.TypeLogout:
		c.disconnect(s, "logout")
		return nil
	case protocol.TypeCreateRoom:
		_, err := c.CreateRoom(s)
		return err
	case protocol.TypeJoinRoom:
		var req protocol.JoinRoomRequest
		if err := decode(rec, &req); err != nil {
			return err
		}
		return c.JoinRoom(s, strings.ToUpper(strings.TrimSpace(req.RoomID)))
	case protocol.TypeRequestJoinRoom:
		var req protocol.JoinRoomRequest
		if err := decode(rec, &req); err != nil {
			return err
		}
		return c.RequestJoin(s, strings.ToUpper(strings.TrimSpace(req.RoomID)))
	case protocol.TypeRespondJoinRequest:
		var req protocol.RespondJoinRequest
		if err := decode(rec, &req); err != nil {
			return err
		}
		return c.RespondJoinRequest(s, req.RequesterID, req.Accept)
	case protocol.TypeLeaveRoom:
		return c.LeaveRoom(s)
	case protocol.TypeInvitePlayer:
		var req protocol.InvitePlayerRequest
		if err := decode(rec, &req); err != nil {
			return err
		}
		return c.Invite(s, req.TargetID)
	case protocol.TypeInviteResponse:
		var req protocol.InviteResponseRequest
		if err := decode(rec, &req); err != nil {
			return err
		}
		return c.RespondInvite(s, req.SenderID, req.RoomID, req.Accept)
	case protocol.TypeKickPlayer:
		var req protocol.KickRequest
		if err := decode(rec, &req); err != nil {
			return err
		}
		return c.KickGuest(s, req.TargetID)
	case protocol.TypeReady:
		var req protocol.ReadyRequest
		if err := decode(rec, &req); err != nil {
			return err
		}
		return c.SetReady(s, req.Ready)
	case protocol.TypeStartGame:
		return c.StartRound(s)
	case protocol.TypeScoreUpdate, protocol.TypeGameOver, protocol.TypeGameTimeout:
		var req protocol.ScoreRequest
		if err := decode(rec, &req); err != nil {
			return err
		}
		if req.Score == nil {
			return ErrMalformed
		}
		switch env.Type {
		case protocol.TypeScoreUpdate:
			return c.ReportScore(s, *req.Score)
		case protocol.TypeGameOver:
			return c.ReportMaxScore(s, *req.Score)
		default:
			return c.ReportTimeoutOrQuit(s, *req.Score, req.Quit)
		}
	case protocol.TypeChat:
		var req protocol.ChatRequest
		if err := decode(rec, &req); err != nil {
			return err
		}
		return c.Chat(s, req.Message)
	case protocol.TypeJoinMatchmaking:
		return c.EnterMatchmaking(s)
	case protocol.TypeCancelMatchmaking:
		return c.CancelMatchmaking(s)
	case protocol.TypeGetAllUsers:
		s.send(protocol.RosterUpdate{Type: protocol.TypeAllUsersUpdate, Users: c.Roster(ctx)})
		return nil
	case protocol.TypeGetLeaderboard:
		return c.sendLeaderboard(ctx, s)
	case protocol.TypeGetHistory:
		var req protocol.HistoryRequest
		if err := decode(rec, &req); err != nil {
			return err
		}
		return c.sendHistory(ctx, s, req.Limit)
	case protocol.TypeGetProfile:
		return c.sendProfile(ctx, s)
	default:
		return ErrUnknownType
	}
}

func (c *Coordinator) Login(ctx context.Context, s *Session, username, credential string) error {
	if s.Account() != nil {
		return ErrAlreadyAuthenticated
	}
	username = strings.TrimSpace(username)
	credential = strings.ToLower(strings.TrimSpace(credential))
	if username == "" || credential == "" {
		return ErrMalformed
	}
	acct, err := c.persist.Authenticate(ctx, username, credential)
	if err != nil {
		return err
	}
	if err := c.bind(s, acct); err != nil {
		if errors.Is(err, ErrAlreadyOnline) {
			log.Warn().Str("account_id", acct.ID).Str("remote_addr", s.conn.RemoteAddr()).Msg("login rejected: account already online")
		}
		return err
	}
	log.Info().Str("account_id", acct.ID).Str("username", acct.Username).Str("remote_addr", s.conn.RemoteAddr()).Msg("logged in")
	view := accountView(*acct)
	s.send(protocol.LoginResponse{Type: protocol.TypeLoginResponse, Success: true, Account: &view})
	c.Broadcast()
	return nil
}

// bind attaches acct to s and registers it. The session lock is held across
// the registry call so a concurrent disconnect always sees the account.
func (c *Coordinator) bind(s *Session, acct *store.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrPeerOffline
	}
	if s.account != nil {
		return ErrAlreadyAuthenticated
	}
	if err := c.registry.Register(acct.ID, s); err != nil {
		return err
	}
	cp := *acct
	s.account = &cp
	s.status = StatusOnline
	return nil
}

func (c *Coordinator) RegisterAccount(ctx context.Context, s *Session, username, credential, email string) error {
	username = strings.TrimSpace(username)
	credential = strings.ToLower(strings.TrimSpace(credential))
	if !game.ValidUsername(username) {
		return ErrInvalidUsername
	}
	if !game.ValidCredential(credential) {
		return ErrInvalidCredential
	}
	acct, err := c.persist.Register(ctx, username, credential, strings.TrimSpace(email))
	if err != nil {
		return err
	}
	log.Info().Str("account_id", acct.ID).Str("username", acct.Username).Msg("account registered")
	s.send(protocol.RegisterResponse{
		Type:      protocol.TypeRegisterResponse,
		Success:   true,
		AccountID: acct.ID,
		Username:  acct.Username,
	})
	c.Broadcast()
	return nil
}

// Chat relays a message to the other occupant of the sender's room and
// echoes it back to the sender.
func (c *Coordinator) Chat(s *Session, message string) error {
	r, err := c.roomOf(s)
	if err != nil {
		return err
	}
	message = game.NormalizeChat(message)
	if message == "" {
		return nil
	}
	acct := s.Account()
	r.mu.Lock()
	_, opponent, ok := r.slotLocked(acct.ID)
	r.mu.Unlock()
	if !ok {
		return ErrNotInRoom
	}
	msg := protocol.ChatMessage{
		Type:       protocol.TypeChatMessage,
		SenderID:   acct.ID,
		SenderName: acct.Username,
		Message:    message,
		SentAt:     c.now().UnixMilli(),
	}
	if opponent.present() {
		c.sendTo(opponent.AccountID, msg)
	}
	s.send(msg)
	return nil
}

func (c *Coordinator) sendLeaderboard(ctx context.Context, s *Session) error {
	items, err := c.persist.Leaderboard(ctx, c.opts.LeaderboardLimit)
	if err != nil {
		return fmt.Errorf("leaderboard: %w", err)
	}
	entries := make([]protocol.AccountView, 0, len(items))
	for _, a := range items {
		entries = append(entries, accountView(a))
	}
	s.send(protocol.LeaderboardData{Type: protocol.TypeLeaderboardData, Entries: entries})
	return nil
}

func (c *Coordinator) sendHistory(ctx context.Context, s *Session, limit int) error {
	if limit <= 0 || limit > c.opts.HistoryLimit {
		limit = c.opts.HistoryLimit
	}
	me := s.AccountID()
	items, err := c.persist.MatchHistory(ctx, me, limit)
	if err != nil {
		return fmt.Errorf("match history: %w", err)
	}
	out := make([]protocol.MatchView, 0, len(items))
	for _, m := range items {
		out = append(out, matchView(m, me))
	}
	s.send(protocol.HistoryData{Type: protocol.TypeHistoryData, Matches: out})
	return nil
}

func (c *Coordinator) sendProfile(ctx context.Context, s *Session) error {
	a, err := c.persist.GetAccountByID(ctx, s.AccountID())
	if err != nil {
		return fmt.Errorf("profile: %w", err)
	}
	s.setAccount(a)
	s.send(protocol.ProfileData{Type: protocol.TypeProfileData, Account: accountView(*a)})
	return nil
}

func accountView(a store.Account) protocol.AccountView {
	return protocol.AccountView{
		AccountID:  a.ID,
		Username:   a.Username,
		TotalScore: a.TotalScore,
		Wins:       a.Wins,
		Losses:     a.Losses,
		Draws:      a.Draws,
		WinRate:    a.WinRate(),
	}
}

func matchView(m store.MatchRecord, me string) protocol.MatchView {
	v := protocol.MatchView{
		MatchID:         m.ID,
		DurationSeconds: m.DurationSeconds,
		PlayedAt:        m.PlayedAt.UnixMilli(),
	}
	if m.HostID == me {
		v.OpponentName, v.MyScore, v.OpponentScore = m.GuestName, m.HostScore, m.GuestScore
	} else {
		v.OpponentName, v.MyScore, v.OpponentScore = m.HostName, m.GuestScore, m.HostScore
	}
	switch m.WinnerID {
	case "":
		v.Result = string(game.OutcomeDraw)
	case me:
		v.Result = string(game.OutcomeWin)
	default:
		v.Result = string(game.OutcomeLose)
	}
	return v
}
