package protocol

const (
	ErrUsernameExists     = 1001
	ErrInvalidCredentials = 1002
	ErrNotAuthenticated   = 1003
	ErrAlreadyLoggedIn    = 1004

	ErrRoomNotFound  = 2001
	ErrRoomFull      = 2002
	ErrGameStarted   = 2003
	ErrNotHost       = 2004
	ErrSelfTarget    = 2005
	ErrNotInRoom     = 2006
	ErrAlreadyInRoom = 2007

	ErrNotReady       = 3001
	ErrInvalidGrain   = 3002
	ErrGameNotStarted = 3004

	ErrPeerOffline   = 4001
	ErrInvalidPacket = 4003
	ErrInternal      = 4999

	ErrRoomCooldown      = 5001
	ErrJoinRequestDenied = 5002
	ErrInvitationExpired = 5003
)
