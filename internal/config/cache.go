package config

import (
	"strings"
	"time"
)

// CacheConfig defines settings for the response cache middleware.  Routes
// lists the paths eligible for caching; everything else bypasses the
// cache.  The status endpoints are POST queries, so the default key
// strategy folds the request body into the key.
type CacheConfig struct {
	Enabled      bool
	Routes       map[string]bool
	TTL          time.Duration
	KeyStrategy  string
	Prefix       string
	MaxBodyBytes int
}

// LoadCacheConfig reads environment variables to build a CacheConfig.
// The default TTL is short: occupancy changes with every event and stale
// status answers get confusing fast.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		Routes:       parseRoutes(envStr("CACHE_ROUTES", "/plate-status,/spot-status,/revenue")),
		TTL:          envDur("CACHE_TTL", 3*time.Second),
		KeyStrategy:  envStr("CACHE_KEY_STRATEGY", "route_body"),
		Prefix:       envStr("CACHE_PREFIX", "cache"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1048576),
	}
}

func parseRoutes(s string) map[string]bool {
	m := map[string]bool{}
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			m[p] = true
		}
	}
	return m
}
