package types

import "time"

const (
	// CacheDomain prefixes every cache key so entries from other services
	// sharing the same store cannot collide with ours.
	CacheDomain = "wolfram"

	// CacheTTL is how long a memoized tool result stays valid.
	CacheTTL = 15 * time.Minute

	// CachedResultPrefix marks responses served from the cache.
	CachedResultPrefix = "[cached] "

	// RedactionPlaceholder replaces any detected sensitive data.
	RedactionPlaceholder = "[REDACTED]"
)

const (
	// DefaultMaxChars is the detailed analysis response size requested
	// from upstream when the caller does not specify one.
	DefaultMaxChars = 6800
	MinMaxChars     = 1000
	MaxMaxChars     = 10000

	// MaxQuickAnswerLength bounds the short answer after sanitization.
	MaxQuickAnswerLength = 2000
)

const (
	// DefaultQuickAnswerCost is the token fee for a short answer lookup.
	DefaultQuickAnswerCost int64 = 2
	// DefaultAnalysisCost is the token fee for a detailed analysis lookup.
	DefaultAnalysisCost int64 = 4
)
