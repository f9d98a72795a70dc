package lobby

import (
	"errors"

	"grain-arena/internal/protocol"
	"grain-arena/internal/store"
	"grain-arena/internal/transport/stream"
)

var (
	ErrNotAuthenticated     = errors.New("not_authenticated")
	ErrAlreadyAuthenticated = errors.New("already_authenticated")
	ErrAlreadyOnline        = errors.New("already_online")
	ErrInvalidUsername      = errors.New("invalid_username")
	ErrInvalidCredential    = errors.New("invalid_credential")

	ErrNotInRoom       = errors.New("not_in_room")
	ErrAlreadyInRoom   = errors.New("already_in_room")
	ErrNotHost         = errors.New("not_host")
	ErrHostCannotReady = errors.New("host_cannot_ready")
	ErrGuestNotReady   = errors.New("guest_not_ready")
	ErrNoGuest         = errors.New("no_guest")

	ErrRoomNotFound    = errors.New("room_not_found")
	ErrRoomFull        = errors.New("room_full")
	ErrRoundStarted    = errors.New("round_started")
	ErrRoundNotStarted = errors.New("round_not_started")
	ErrSelfTarget      = errors.New("self_target")
	ErrTargetBusy      = errors.New("target_busy")

	ErrMalformed       = errors.New("malformed_record")
	ErrUnknownType     = errors.New("unknown_type")
	ErrScoreOutOfRange = errors.New("score_out_of_range")

	ErrPeerOffline = errors.New("peer_offline")

	ErrInviteExpired = errors.New("invite_expired")
	ErrJoinThrottled = errors.New("join_throttled")
	ErrNoJoinRequest = errors.New("no_join_request")
)

// mapError converts a handler error into the code and text of the error
// record sent back to the client.
func mapError(err error) (int, string) {
	switch {
	case errors.Is(err, store.ErrUsernameTaken):
		return protocol.ErrUsernameExists, "username already exists"
	case errors.Is(err, store.ErrInvalidCredentials):
		return protocol.ErrInvalidCredentials, "invalid username or password"
	case errors.Is(err, ErrNotAuthenticated):
		return protocol.ErrNotAuthenticated, "login required"
	case errors.Is(err, ErrAlreadyOnline):
		return protocol.ErrAlreadyLoggedIn, "account is already online"
	case errors.Is(err, ErrAlreadyAuthenticated):
		return protocol.ErrAlreadyLoggedIn, "connection is already logged in"
	case errors.Is(err, ErrInvalidUsername):
		return protocol.ErrInvalidPacket, "username must be 3-20 letters, digits or underscores"
	case errors.Is(err, ErrInvalidCredential):
		return protocol.ErrInvalidPacket, "password must be a sha-256 hex digest"

	case errors.Is(err, ErrRoomNotFound):
		return protocol.ErrRoomNotFound, "room not found"
	case errors.Is(err, ErrRoomFull):
		return protocol.ErrRoomFull, "room is full"
	case errors.Is(err, ErrRoundStarted):
		return protocol.ErrGameStarted, "round already started"
	case errors.Is(err, ErrNotHost):
		return protocol.ErrNotHost, "only the host can do that"
	case errors.Is(err, ErrHostCannotReady):
		return protocol.ErrNotHost, "the host does not ready up"
	case errors.Is(err, ErrSelfTarget):
		return protocol.ErrSelfTarget, "cannot target yourself"
	case errors.Is(err, ErrNotInRoom):
		return protocol.ErrNotInRoom, "not in a room"
	case errors.Is(err, ErrAlreadyInRoom):
		return protocol.ErrAlreadyInRoom, "already in a room"
	case errors.Is(err, ErrTargetBusy):
		return protocol.ErrAlreadyInRoom, "player is busy"

	case errors.Is(err, ErrGuestNotReady):
		return protocol.ErrNotReady, "opponent is not ready"
	case errors.Is(err, ErrNoGuest):
		return protocol.ErrNotReady, "waiting for an opponent"
	case errors.Is(err, ErrScoreOutOfRange):
		return protocol.ErrInvalidPacket, "score out of range"
	case errors.Is(err, ErrRoundNotStarted):
		return protocol.ErrGameNotStarted, "round not started"

	case errors.Is(err, ErrPeerOffline):
		return protocol.ErrPeerOffline, "player is offline"
	case errors.Is(err, ErrMalformed), errors.Is(err, stream.ErrRecordTooLarge):
		return protocol.ErrInvalidPacket, "malformed record"
	case errors.Is(err, ErrUnknownType):
		return protocol.ErrInvalidPacket, "unknown record type"

	case errors.Is(err, ErrJoinThrottled):
		return protocol.ErrRoomCooldown, "join requests for this room are cooling down"
	case errors.Is(err, ErrNoJoinRequest):
		return protocol.ErrJoinRequestDenied, "no pending join request"
	case errors.Is(err, ErrInviteExpired):
		return protocol.ErrInvitationExpired, "invitation expired"
	default:
		return protocol.ErrInternal, "internal error"
	}
}
