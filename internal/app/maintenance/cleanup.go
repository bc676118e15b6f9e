package maintenance

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/vibeplanner/vibeplanner/internal/services"
	"github.com/vibeplanner/vibeplanner/pkg/logger"
)

const (
	defaultAuditRetentionDays  = 90
	defaultInvitationRetention = 7 * 24 * time.Hour
	defaultAuditSpec           = "@daily"
	defaultInvitationSpec      = "@hourly"
)

// Cleaner coordinates background maintenance tasks such as pruning stale
// audit logs and purging expired or long-accepted invitations.
type Cleaner struct {
	audit   *services.AuditService
	invites *services.InvitationService
	cron    *cron.Cron
	now     func() time.Time
	log     *zap.Logger
	enabled bool

	auditRetentionDays  int
	invitationRetention time.Duration
	auditSchedule       string
	invitationSchedule  string
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithNow overrides the clock used for scheduling and cleanup comparisons.
func WithNow(now func() time.Time) Option {
	return func(cleaner *Cleaner) {
		if now != nil {
			cleaner.now = now
		}
	}
}

// WithAuditRetentionDays adjusts how long audit logs are retained before cleanup.
func WithAuditRetentionDays(days int) Option {
	return func(cleaner *Cleaner) {
		if days > 0 {
			cleaner.auditRetentionDays = days
		}
	}
}

// WithInvitationRetention adjusts how long accepted invitations are kept.
func WithInvitationRetention(d time.Duration) Option {
	return func(cleaner *Cleaner) {
		if d > 0 {
			cleaner.invitationRetention = d
		}
	}
}

// WithAuditSchedule overrides the cron schedule for audit retention enforcement.
func WithAuditSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.auditSchedule = spec
		}
	}
}

// WithInvitationSchedule overrides the cron schedule for invitation cleanup.
func WithInvitationSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.invitationSchedule = spec
		}
	}
}

// NewCleaner constructs a Cleaner with sensible defaults. Any nil dependency results in
// the corresponding cleanup job being skipped.
func NewCleaner(audit *services.AuditService, invites *services.InvitationService, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		audit:               audit,
		invites:             invites,
		now:                 time.Now,
		auditRetentionDays:  defaultAuditRetentionDays,
		invitationRetention: defaultInvitationRetention,
		auditSchedule:       defaultAuditSpec,
		invitationSchedule:  defaultInvitationSpec,
		log:                 logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	cleaner.enabled = cleaner.audit != nil || cleaner.invites != nil

	return cleaner
}

// Start registers cleanup jobs with the cron scheduler and launches it if at least one cleanup is enabled.
func (c *Cleaner) Start() error {
	if !c.enabled {
		return nil
	}

	if c.audit != nil && c.auditRetentionDays > 0 {
		if _, err := c.cron.AddFunc(c.auditSchedule, func() {
			ctx := context.Background()
			if _, err := c.audit.CleanupOlderThan(ctx, c.auditRetentionDays); err != nil {
				c.log.Warn("audit cleanup failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	if c.invites != nil {
		if _, err := c.cron.AddFunc(c.invitationSchedule, func() {
			ctx := context.Background()
			if _, err := c.invites.PurgeStale(ctx, c.invitationRetention); err != nil {
				c.log.Warn("invitation cleanup failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	c.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes all configured cleanup routines sequentially. Primarily used in tests
// and during graceful shutdown.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error

	if c.audit != nil && c.auditRetentionDays > 0 {
		if _, err := c.audit.CleanupOlderThan(ctx, c.auditRetentionDays); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	if c.invites != nil {
		if _, err := c.invites.PurgeStale(ctx, c.invitationRetention); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	return errs
}
