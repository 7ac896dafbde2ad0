package background

import (
	"context"
	"log/slog"
	"time"
)

const sweepTimeout = 30 * time.Second

// LockStore releases lockouts older than a cutoff
type LockStore interface {
	UnlockExpired(ctx context.Context, lockedBefore time.Time) (int64, error)
}

// LockSweeper periodically unlocks accounts whose lockout cooldown has passed,
// so they do not stay locked until their owner's next login attempt.
type LockSweeper struct {
	store    LockStore
	logger   *slog.Logger
	interval time.Duration
	cooldown time.Duration
	now      func() time.Time
}

// NewLockSweeper creates a new lock sweeper
func NewLockSweeper(store LockStore, logger *slog.Logger, interval, cooldown time.Duration) *LockSweeper {
	return &LockSweeper{
		store:    store,
		logger:   logger,
		interval: interval,
		cooldown: cooldown,
		now:      time.Now,
	}
}

// Enabled reports whether sweeping has any effect. With no cooldown the
// login flow already unlocks on the next attempt.
func (ls *LockSweeper) Enabled() bool {
	return ls.cooldown > 0 && ls.interval > 0
}

// Run sweeps once immediately and then every interval until ctx is done
func (ls *LockSweeper) Run(ctx context.Context) error {
	if !ls.Enabled() {
		ls.logger.Info("lock sweeper disabled")
		return nil
	}

	ticker := time.NewTicker(ls.interval)
	defer ticker.Stop()

	ls.Sweep(ctx)

	for {
		select {
		case <-ticker.C:
			ls.Sweep(ctx)
		case <-ctx.Done():
			ls.logger.Info("lock sweeper stopped")
			return nil
		}
	}
}

// Sweep unlocks every account locked at least one cooldown ago
func (ls *LockSweeper) Sweep(ctx context.Context) int64 {
	sweepCtx, cancel := context.WithTimeout(ctx, sweepTimeout)
	defer cancel()

	unlocked, err := ls.store.UnlockExpired(sweepCtx, ls.now().Add(-ls.cooldown))
	if err != nil {
		ls.logger.Error("failed to unlock expired lockouts", slog.Any("error", err))
		return 0
	}

	if unlocked > 0 {
		ls.logger.Info("expired lockouts released", slog.Int64("accounts", unlocked))
	}
	return unlocked
}
