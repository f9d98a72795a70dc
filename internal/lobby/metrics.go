package lobby

import "expvar"

var (
	metricSessionsTotal  = expvar.NewInt("sessions_total")
	metricSessionsActive = expvar.NewInt("sessions_active")
	metricRecordsIn      = expvar.NewInt("records_in_total")
	metricRecordsOut     = expvar.NewInt("records_out_total")

	metricRoomsCreated     = expvar.NewInt("rooms_created_total")
	metricRoomsActive      = expvar.NewInt("rooms_active")
	metricRoundsStarted    = expvar.NewInt("rounds_started_total")
	metricRoundsFinalized  = expvar.NewInt("rounds_finalized_total")
	metricMatchmakingPairs = expvar.NewInt("matchmaking_pairs_total")
	metricInvitesSent      = expvar.NewInt("invites_sent_total")

	metricScoreRejects      = expvar.NewInt("score_rejects_total")
	metricPersistErrors     = expvar.NewInt("persist_errors_total")
	metricHeartbeatTimeouts = expvar.NewInt("heartbeat_timeouts_total")
	metricBroadcasts        = expvar.NewInt("roster_broadcasts_total")
)
