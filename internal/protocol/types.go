package protocol

// Inbound record types.
const (
	TypeLogin              = "login"
	TypeRegister           = "register"
	TypeLogout             = "logout"
	TypeCreateRoom         = "create_room"
	TypeJoinRoom           = "join_room"
	TypeRequestJoinRoom    = "request_join_room"
	TypeRespondJoinRequest = "respond_join_request"
	TypeLeaveRoom          = "leave_room"
	TypeInvitePlayer       = "invite_player"
	TypeInviteResponse     = "invite_response"
	TypeKickPlayer         = "kick_player"
	TypeReady              = "ready"
	TypeStartGame          = "start_game"
	TypeScoreUpdate        = "score_update"
	TypeGameOver           = "game_over"
	TypeGameTimeout        = "game_timeout"
	TypeChat               = "chat"
	TypeJoinMatchmaking    = "join_matchmaking"
	TypeCancelMatchmaking  = "cancel_matchmaking"
	TypeGetAllUsers        = "get_all_users"
	TypeGetLeaderboard     = "get_leaderboard"
	TypeGetHistory         = "get_history"
	TypeGetProfile         = "get_profile"
	TypeHeartbeat          = "heartbeat"
)

// Outbound record types.
const (
	TypeLoginResponse       = "login_response"
	TypeRegisterResponse    = "register_response"
	TypeAllUsersUpdate      = "all_users_update"
	TypeRoomCreated         = "room_created"
	TypeRoomJoined          = "room_joined"
	TypePlayerJoined        = "player_joined"
	TypePlayerLeft          = "player_left"
	TypePlayerReady         = "player_ready"
	TypePlayerKicked        = "player_kicked"
	TypeInviteReceived      = "invite_received"
	TypeInviteAccepted      = "invite_accepted"
	TypeInviteRejected      = "invite_rejected"
	TypeInviteExpired       = "invite_expired"
	TypeJoinRequestReceived = "join_request_received"
	TypeJoinRequestResponse = "join_request_response"
	TypeMatchFound          = "match_found"
	TypeMatchmakingStatus   = "matchmaking_status"
	TypeGameStart           = "game_start"
	TypeOpponentScore       = "opponent_score"
	TypeOpponentFinished    = "opponent_finished"
	TypeOpponentLeft        = "opponent_left"
	TypeGameResult          = "game_result"
	TypeChatMessage         = "chat_message"
	TypeLeaderboardData     = "leaderboard_data"
	TypeHistoryData         = "history_data"
	TypeProfileData         = "profile_data"
	TypeHeartbeatAck        = "heartbeat_ack"
	TypeError               = "error"
)

// Envelope is decoded first to pick the concrete record type.
type Envelope struct {
	Type string `json:"type"`
}

type LoginRequest struct {
	Type     string `json:"type"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Type     string `json:"type"`
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email,omitempty"`
}

type JoinRoomRequest struct {
	Type   string `json:"type"`
	RoomID string `json:"room_id"`
}

type RespondJoinRequest struct {
	Type        string `json:"type"`
	RequesterID string `json:"requester_id"`
	Accept      bool   `json:"accept"`
}

type InvitePlayerRequest struct {
	Type     string `json:"type"`
	TargetID string `json:"target_id"`
}

type InviteResponseRequest struct {
	Type     string `json:"type"`
	SenderID string `json:"sender_id"`
	RoomID   string `json:"room_id"`
	Accept   bool   `json:"accept"`
}

type ReadyRequest struct {
	Type  string `json:"type"`
	Ready bool   `json:"ready"`
}

type ScoreRequest struct {
	Type  string `json:"type"`
	Score *int   `json:"score"`
	Quit  bool   `json:"quit,omitempty"`
}

type ChatRequest struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type HistoryRequest struct {
	Type  string `json:"type"`
	Limit int    `json:"limit,omitempty"`
}

type AccountView struct {
	AccountID  string  `json:"account_id"`
	Username   string  `json:"username"`
	TotalScore int     `json:"total_score"`
	Wins       int     `json:"wins"`
	Losses     int     `json:"losses"`
	Draws      int     `json:"draws"`
	WinRate    float64 `json:"win_rate"`
}

type LoginResponse struct {
	Type    string       `json:"type"`
	Success bool         `json:"success"`
	Account *AccountView `json:"account,omitempty"`
}

type RegisterResponse struct {
	Type      string `json:"type"`
	Success   bool   `json:"success"`
	AccountID string `json:"account_id"`
	Username  string `json:"username"`
}

type ProfileData struct {
	Type    string      `json:"type"`
	Account AccountView `json:"account"`
}

type RoomSummary struct {
	RoomID    string `json:"room_id"`
	Occupants int    `json:"occupants"`
	Throttled bool   `json:"throttled"`
}

type RosterEntry struct {
	AccountID  string       `json:"account_id"`
	Username   string       `json:"username"`
	TotalScore int          `json:"total_score"`
	Wins       int          `json:"wins"`
	Losses     int          `json:"losses"`
	Draws      int          `json:"draws"`
	Status     string       `json:"status"`
	Room       *RoomSummary `json:"room,omitempty"`
}

type RosterUpdate struct {
	Type  string        `json:"type"`
	Users []RosterEntry `json:"users"`
}

type RoomCreated struct {
	Type   string `json:"type"`
	RoomID string `json:"room_id"`
}

type RoomJoined struct {
	Type     string `json:"type"`
	RoomID   string `json:"room_id"`
	HostID   string `json:"host_id"`
	HostName string `json:"host_name"`
}

type PlayerJoined struct {
	Type      string `json:"type"`
	RoomID    string `json:"room_id"`
	AccountID string `json:"account_id"`
	Username  string `json:"username"`
}

type PlayerLeft struct {
	Type      string `json:"type"`
	RoomID    string `json:"room_id"`
	AccountID string `json:"account_id"`
	Username  string `json:"username"`
	RoomGone  bool   `json:"room_closed"`
}

type PlayerReady struct {
	Type      string `json:"type"`
	AccountID string `json:"account_id"`
	Ready     bool   `json:"ready"`
}

type PlayerKicked struct {
	Type   string `json:"type"`
	RoomID string `json:"room_id"`
}

type InviteReceived struct {
	Type       string `json:"type"`
	SenderID   string `json:"sender_id"`
	SenderName string `json:"sender_name"`
	RoomID     string `json:"room_id"`
	ExpiresIn  int    `json:"expires_in_seconds"`
}

type InviteOutcome struct {
	Type       string `json:"type"`
	TargetID   string `json:"target_id"`
	TargetName string `json:"target_name,omitempty"`
	RoomID     string `json:"room_id"`
}

type JoinRequestReceived struct {
	Type          string `json:"type"`
	RoomID        string `json:"room_id"`
	RequesterID   string `json:"requester_id"`
	RequesterName string `json:"requester_name"`
}

type JoinRequestResponse struct {
	Type     string `json:"type"`
	RoomID   string `json:"room_id"`
	Accepted bool   `json:"accepted"`
	Message  string `json:"message,omitempty"`
}

type MatchmakingStatus struct {
	Type     string `json:"type"`
	Queued   bool   `json:"queued"`
	Position int    `json:"position,omitempty"`
}

type MatchFound struct {
	Type         string `json:"type"`
	RoomID       string `json:"room_id"`
	OpponentID   string `json:"opponent_id"`
	OpponentName string `json:"opponent_name"`
}

type Grain struct {
	ID   int    `json:"id"`
	Kind string `json:"type"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

type GameStart struct {
	Type            string  `json:"type"`
	RoomID          string  `json:"room_id"`
	Grains          []Grain `json:"grains"`
	DurationSeconds int     `json:"duration_seconds"`
	OpponentName    string  `json:"opponent_name"`
	TotalGrains     int     `json:"total_grains"`
	RiceCount       int     `json:"rice_count"`
	PaddyCount      int     `json:"paddy_count"`
}

type OpponentScore struct {
	Type  string `json:"type"`
	Score int    `json:"score"`
}

type OpponentFinished struct {
	Type  string `json:"type"`
	Score int    `json:"score"`
}

type OpponentLeft struct {
	Type    string `json:"type"`
	RoomID  string `json:"room_id"`
	Message string `json:"message"`
}

type GameResult struct {
	Type            string `json:"type"`
	RoomID          string `json:"room_id"`
	Result          string `json:"result"`
	MyScore         int    `json:"my_score"`
	OpponentScore   int    `json:"opponent_score"`
	NewTotalScore   int    `json:"new_total_score"`
	DurationSeconds int    `json:"duration_seconds"`
	OpponentQuit    bool   `json:"opponent_quit"`
}

type ChatMessage struct {
	Type       string `json:"type"`
	SenderID   string `json:"sender_id"`
	SenderName string `json:"sender_name"`
	Message    string `json:"message"`
	SentAt     int64  `json:"sent_at"`
}

type LeaderboardData struct {
	Type    string        `json:"type"`
	Entries []AccountView `json:"entries"`
}

type MatchView struct {
	MatchID         string `json:"match_id"`
	OpponentName    string `json:"opponent_name"`
	MyScore         int    `json:"my_score"`
	OpponentScore   int    `json:"opponent_score"`
	Result          string `json:"result"`
	DurationSeconds int    `json:"duration_seconds"`
	PlayedAt        int64  `json:"played_at"`
}

type HistoryData struct {
	Type    string      `json:"type"`
	Matches []MatchView `json:"matches"`
}

type HeartbeatAck struct {
	Type     string `json:"type"`
	ServerTS int64  `json:"server_ts"`
}

type ErrorRecord struct {
	Type    string `json:"type"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type KickRequest struct {
	Type     string `json:"type"`
	TargetID string `json:"target_id,omitempty"`
}
