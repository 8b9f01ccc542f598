// Package notify delivers best-effort, fire-and-forget events to interested
// listeners (storefront UIs, analytics). Delivery failure must never fail or
// block the engine operation that produced the event.
package notify

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

type Notifier interface {
	StockChanged(ctx context.Context, dropID uuid.UUID, availableStock int32)
	PurchaseCompleted(ctx context.Context, dropID, buyerID uuid.UUID)
}

// LogNotifier is the fallback sink when no broker is configured.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) StockChanged(_ context.Context, dropID uuid.UUID, availableStock int32) {
	n.logger.Info("stock changed",
		"event", "stock-changed",
		"drop_id", dropID.String(),
		"available_stock", availableStock)
}

func (n *LogNotifier) PurchaseCompleted(_ context.Context, dropID, buyerID uuid.UUID) {
	n.logger.Info("purchase completed",
		"event", "purchase-completed",
		"drop_id", dropID.String(),
		"buyer_id", buyerID.String())
}
