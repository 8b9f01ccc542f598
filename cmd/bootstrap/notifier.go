package bootstrap

import (
	"context"
	"log/slog"

	"flashdrop/internal/notify"
	"flashdrop/internal/pkg/config"

	"go.uber.org/fx"
)

var NotifierModule = fx.Module("notifier",
	fx.Provide(
		NewNotifier,
	),
)

// NewNotifier picks the event sink: Kafka when brokers are configured, plain
// logging otherwise.
func NewNotifier(lc fx.Lifecycle, cfg config.Config, logger *slog.Logger) notify.Notifier {
	if len(cfg.Kafka.Brokers) == 0 {
		logger.Info("no Kafka brokers configured, using log notifier")
		return notify.NewLogNotifier(logger)
	}

	kn := notify.NewKafkaNotifier(cfg.Kafka, logger)
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return kn.Close()
		},
	})
	return kn
}
