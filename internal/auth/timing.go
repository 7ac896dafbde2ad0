package auth

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"time"
)

// TimingConfig controls how long a failed login is held before responding
type TimingConfig struct {
	BaseDelay time.Duration // minimum time a failed attempt takes
	Jitter    time.Duration // random extra delay in [0, Jitter)
}

// TimingDelay pads failed logins so that an unknown username and a wrong
// password take about the same time to answer.
type TimingDelay struct {
	config TimingConfig
	jitter func(max time.Duration) time.Duration
}

// NewTimingDelay creates a new TimingDelay
func NewTimingDelay(config TimingConfig) *TimingDelay {
	return &TimingDelay{
		config: config,
		jitter: cryptoJitter,
	}
}

// cryptoJitter returns a random duration in [0, max)
func cryptoJitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}

	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0
	}
	return time.Duration(binary.BigEndian.Uint64(b[:]) % uint64(max))
}

// Target returns the total duration a failed attempt should take
func (td *TimingDelay) Target() time.Duration {
	return td.config.BaseDelay + td.jitter(td.config.Jitter)
}

// WaitFrom sleeps until at least Target() has passed since start.
// Returns early if ctx is done.
func (td *TimingDelay) WaitFrom(ctx context.Context, start time.Time) {
	remaining := td.Target() - time.Since(start)
	if remaining <= 0 {
		return
	}

	timer := time.NewTimer(remaining)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
