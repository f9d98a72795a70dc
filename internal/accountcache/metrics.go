package accountcache

import "expvar"

var (
	metricCacheHit         = expvar.NewInt("account_cache_hit_total")
	metricCacheMiss        = expvar.NewInt("account_cache_miss_total")
	metricInvalidateErrors = expvar.NewInt("account_cache_invalidate_errors_total")
)
