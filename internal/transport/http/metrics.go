package httptransport

import "expvar"

var (
	metricWSUpgradesTotal  = expvar.NewInt("ws_upgrades_total")
	metricWSUpgradeErrors  = expvar.NewInt("ws_upgrade_errors_total")
	metricPublicQueryError = expvar.NewInt("public_query_errors_total")
)
