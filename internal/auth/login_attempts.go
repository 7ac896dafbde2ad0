package auth

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	DefaultMaxTrackedUsernames = 100
	DefaultAttemptTTL          = 15 * time.Minute
	DefaultMaxFailedAttempts   = 5
)

// LoginAttemptConfig holds the sizing of the failed-attempt cache
type LoginAttemptConfig struct {
	MaxEntries  int           // Distinct usernames tracked before the least recently used is evicted
	TTL         time.Duration // Entry lifetime measured from its last write
	MaxAttempts int           // Failure count at which an account is considered over the limit
}

// DefaultLoginAttemptConfig returns the standard lockout parameters
func DefaultLoginAttemptConfig() LoginAttemptConfig {
	return LoginAttemptConfig{
		MaxEntries:  DefaultMaxTrackedUsernames,
		TTL:         DefaultAttemptTTL,
		MaxAttempts: DefaultMaxFailedAttempts,
	}
}

// LoginAttemptGuard counts consecutive failed logins per username in a
// bounded, expiring, process-local cache. Safe for concurrent use.
//
// The underlying expirable LRU runs a purge goroutine that cannot be
// stopped, so build one guard at startup and share it.
type LoginAttemptGuard struct {
	mu          sync.Mutex // serializes read-increment-write on the cache
	attempts    *expirable.LRU[string, int]
	maxAttempts int
}

// NewLoginAttemptGuard creates a guard, filling zero config values with defaults.
// Each call starts a background purge goroutine that lives as long as the process.
func NewLoginAttemptGuard(config LoginAttemptConfig) *LoginAttemptGuard {
	if config.MaxEntries <= 0 {
		config.MaxEntries = DefaultMaxTrackedUsernames
	}
	if config.TTL <= 0 {
		config.TTL = DefaultAttemptTTL
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = DefaultMaxFailedAttempts
	}

	return &LoginAttemptGuard{
		attempts:    expirable.NewLRU[string, int](config.MaxEntries, nil, config.TTL),
		maxAttempts: config.MaxAttempts,
	}
}

// RecordFailure increments the failure count for username and resets its TTL.
// Returns the new count.
func (g *LoginAttemptGuard) RecordFailure(username string) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	count, _ := g.attempts.Get(username)
	count++
	g.attempts.Add(username, count)
	return count
}

// Evict drops the record for username, typically after a successful login
func (g *LoginAttemptGuard) Evict(username string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.attempts.Remove(username)
}

// Attempts returns the current failure count; missing or expired entries count as zero
func (g *LoginAttemptGuard) Attempts(username string) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	count, ok := g.attempts.Peek(username)
	if !ok {
		return 0
	}
	return count
}

// HasExceededThreshold reports whether username has reached the failure limit
func (g *LoginAttemptGuard) HasExceededThreshold(username string) bool {
	return g.Attempts(username) >= g.maxAttempts
}

// MaxAttempts returns the configured failure limit
func (g *LoginAttemptGuard) MaxAttempts() int {
	return g.maxAttempts
}
