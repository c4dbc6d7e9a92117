// File: utils/constants.go
package utils

import "time"

// AuthCachePrefix is the prefix used for Redis authorization cache keys.
const AuthCachePrefix = "auth:"

// AuthCacheTTL is the time-to-live for authorization cache entries.
const AuthCacheTTL = 10 * time.Minute

// ScheduleCachePrefix is the prefix for cached day-slot snapshots.
const ScheduleCachePrefix = "sched:"

// ScheduleCacheTTL keeps snapshots short-lived; live correctness comes
// from the change feed, the cache only absorbs read bursts.
const ScheduleCacheTTL = 30 * time.Second
