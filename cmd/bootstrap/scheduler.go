package bootstrap

import (
	"context"
	"log/slog"

	"flashdrop/internal/pkg/clock"
	"flashdrop/internal/pkg/config"
	"flashdrop/internal/scheduler"
	"flashdrop/internal/usecase/commands"

	"go.uber.org/fx"
)

var SchedulerModule = fx.Module("scheduler",
	fx.Provide(
		NewScheduler,
		func(s *scheduler.ExpirationScheduler) commands.HoldScheduler {
			return s
		},
	),
	fx.Invoke(runScheduler),
)

func NewScheduler(
	expiration commands.ExpirationCommands,
	clk clock.Clock,
	cfg config.Config,
	logger *slog.Logger,
) *scheduler.ExpirationScheduler {
	return scheduler.NewExpirationScheduler(expiration, clk, cfg.Reservation.SweepInterval, logger)
}

func runScheduler(lc fx.Lifecycle, s *scheduler.ExpirationScheduler, logger *slog.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			s.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("stopping expiration scheduler", "pending_timers", s.PendingCount())
			return s.Stop(ctx)
		},
	})
}
