package constants

import (
	"fmt"
	"time"
)

// Redis Cache Configuration
// This file centralizes all Redis cache keys and TTL values for the ItWhip backend.
// Pattern: itwhip:{module}:{operation}:{identifier}:{params?}

// ================== CACHE TTL DURATIONS ==================

// Static Data (Long TTL: rarely changes)
const (
	TTL_STATIC_LONG  = 24 * time.Hour // host profiles
	TTL_STATIC_SHORT = 6 * time.Hour  // fleet vehicle details
)

// Semi-Static Data (Medium TTL: changes occasionally)
const (
	TTL_SEMI_STATIC_MEDIUM = 1 * time.Hour    // request detail pages
	TTL_SEMI_STATIC_SHORT  = 15 * time.Minute // host claim history
)

// Dynamic Data (Short TTL: changes frequently)
const (
	TTL_DYNAMIC_SHORT = 2 * time.Minute  // open request listings
	TTL_REALTIME      = 30 * time.Second // live claim counters
)

// ================== REDIS KEY PREFIXES ==================

const (
	CACHE_PREFIX = "itwhip"
)

// ================== REQUESTS MODULE ==================

const (
	CACHE_KEY_REQUESTS_OPEN   = CACHE_PREFIX + ":requests:open"         // + :page:X:limit:Y
	CACHE_KEY_REQUEST_DETAIL  = CACHE_PREFIX + ":requests:detail:uuid:" // + request-id
	CACHE_KEY_REQUEST_BY_CODE = CACHE_PREFIX + ":requests:code:"        // + request-code
)

// ================== CLAIMS MODULE ==================

const (
	CACHE_KEY_HOST_CLAIMS = CACHE_PREFIX + ":claims:host:uuid:" // + host-id
)

// ================== FLEET MODULE ==================

const (
	CACHE_KEY_HOST_FLEET = CACHE_PREFIX + ":fleet:host:uuid:" // + host-id
)

// ================== KEY BUILDERS ==================

// BuildOpenRequestsKey builds the cache key for a page of open requests
func BuildOpenRequestsKey(page, limit int) string {
	return fmt.Sprintf("%s:page:%d:limit:%d", CACHE_KEY_REQUESTS_OPEN, page, limit)
}

// BuildRequestDetailKey builds the cache key for a single request
func BuildRequestDetailKey(requestID string) string {
	return CACHE_KEY_REQUEST_DETAIL + requestID
}

// BuildHostClaimsKey builds the cache key for a host's claim history
func BuildHostClaimsKey(hostID string) string {
	return CACHE_KEY_HOST_CLAIMS + hostID
}

// BuildHostFleetKey builds the cache key for a host's vehicle list
func BuildHostFleetKey(hostID string) string {
	return CACHE_KEY_HOST_FLEET + hostID
}

// InvalidationPatternForRequest returns the pattern that clears every cached
// view touched by a request transition.
func InvalidationPatternForRequest(requestID string) string {
	return CACHE_KEY_REQUEST_DETAIL + requestID + "*"
}

// InvalidationPatternOpenListings returns the pattern covering all cached pages
// of the open-request browse surface.
func InvalidationPatternOpenListings() string {
	return CACHE_KEY_REQUESTS_OPEN + "*"
}
