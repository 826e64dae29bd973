package app

import (
	"context"
	"time"

	pkgcron "github.com/cargoport/core/internal/pkg/cron"
	"go.uber.org/zap"
)

// registerCronJobs registers the scheduled jobs owned by the application.
// The sync core itself stays synchronous; these jobs only decide when to
// invoke it.
func (a *App) registerCronJobs() {
	interval := 30 * time.Minute
	if raw := a.cfg.SyncInterval; raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			a.logger.Warn("invalid sync_interval, scheduled reconciliation disabled",
				zap.String("value", raw))
			interval = 0
		} else {
			interval = parsed
		}
	}

	if interval > 0 {
		a.sched.Register(pkgcron.Job{
			Name:        "reconcile_remote",
			Description: "full reconciliation against the remote CMS",
			Interval:    interval,
			Fn: func(ctx context.Context) error {
				report, err := a.syncSvc.Reconcile(ctx)
				if err != nil {
					return err
				}
				a.logger.Info("scheduled reconciliation finished",
					zap.Int("inserted", report.Inserted),
					zap.Int("updated", report.Updated),
					zap.Int("skipped", report.Skipped),
					zap.Bool("partial", report.Partial))
				return nil
			},
		})
	}

	a.sched.Register(pkgcron.Job{
		Name:        "backup_snapshot",
		Description: "export the deleted-content backup log",
		Interval:    24 * time.Hour,
		Fn: func(ctx context.Context) error {
			_, err := a.backupSvc.Snapshot(ctx)
			return err
		},
	})
}
