package tasks

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// PurgeSchedule is the cron spec of the credential purge
const PurgeSchedule = "*/15 * * * *"

// SessionPurger deletes sessions that expired before a point in time
type SessionPurger interface {
	DeleteExpired(ctx context.Context, before time.Time) (int, error)
}

// ResetTokenPurger deletes reset tokens created before a point in time
type ResetTokenPurger interface {
	DeleteCreatedBefore(ctx context.Context, before time.Time) (int, error)
}

// Purger removes expired sessions and reset tokens
type Purger struct {
	sessions      SessionPurger
	resetTokens   ResetTokenPurger
	resetTokenTTL time.Duration
	now           func() time.Time
	logger        *zap.Logger
}

// NewPurger creates a new purger
func NewPurger(sessions SessionPurger, resetTokens ResetTokenPurger, resetTokenTTL time.Duration, logger *zap.Logger) *Purger {
	return &Purger{
		sessions:      sessions,
		resetTokens:   resetTokens,
		resetTokenTTL: resetTokenTTL,
		now:           time.Now,
		logger:        logger,
	}
}

// Run performs a single purge; a failure of one table does not skip the other
func (p *Purger) Run(ctx context.Context) {
	now := p.now().UTC()

	sessions, err := p.sessions.DeleteExpired(ctx, now)
	if err != nil {
		p.logger.Error("failed to purge sessions", zap.Error(err))
	}

	tokens, err := p.resetTokens.DeleteCreatedBefore(ctx, now.Add(-p.resetTokenTTL))
	if err != nil {
		p.logger.Error("failed to purge reset tokens", zap.Error(err))
	}

	p.logger.Info("expired credentials purged",
		zap.Int("sessions", sessions),
		zap.Int("reset_tokens", tokens),
	)
}

// Schedule registers the purge on c; every run gets its own timeout
func (p *Purger) Schedule(c *cron.Cron, spec string, timeout time.Duration) (cron.EntryID, error) {
	return c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		p.Run(ctx)
	})
}
