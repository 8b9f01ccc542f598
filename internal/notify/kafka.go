package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"flashdrop/internal/pkg/config"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier publishes engine events to Kafka. Publishing happens on a
// detached goroutine with its own timeout, so a slow or dead broker cannot
// stall a claim/finalize/release path.
type KafkaNotifier struct {
	stockWriter    messageWriter
	purchaseWriter messageWriter
	timeout        time.Duration
	logger         *slog.Logger
}

type stockChangedEvent struct {
	DropID         uuid.UUID `json:"dropId"`
	AvailableStock int32     `json:"availableStock"`
	OccurredAt     time.Time `json:"occurredAt"`
}

type purchaseCompletedEvent struct {
	DropID     uuid.UUID `json:"dropId"`
	BuyerID    uuid.UUID `json:"buyerId"`
	OccurredAt time.Time `json:"occurredAt"`
}

func NewKafkaNotifier(cfg config.KafkaConfig, logger *slog.Logger) *KafkaNotifier {
	return &KafkaNotifier{
		stockWriter:    newWriter(cfg, cfg.StockTopic),
		purchaseWriter: newWriter(cfg, cfg.PurchaseTopic),
		timeout:        cfg.PublishTimeout,
		logger:         logger,
	}
}

func newWriter(cfg config.KafkaConfig, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: cfg.AllowAutoTopicCreate,
	}
}

func (n *KafkaNotifier) StockChanged(_ context.Context, dropID uuid.UUID, availableStock int32) {
	n.publish(n.stockWriter, dropID.String(), stockChangedEvent{
		DropID:         dropID,
		AvailableStock: availableStock,
		OccurredAt:     time.Now().UTC(),
	})
}

func (n *KafkaNotifier) PurchaseCompleted(_ context.Context, dropID, buyerID uuid.UUID) {
	n.publish(n.purchaseWriter, dropID.String(), purchaseCompletedEvent{
		DropID:     dropID,
		BuyerID:    buyerID,
		OccurredAt: time.Now().UTC(),
	})
}

// publish deliberately detaches from the caller's context: the engine operation
// already committed and must not be tied to broker latency.
func (n *KafkaNotifier) publish(w messageWriter, key string, payload any) {
	value, err := json.Marshal(payload)
	if err != nil {
		n.logger.Error("failed to encode notification", "error", err)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		defer cancel()

		if err := w.WriteMessages(ctx, kafka.Message{
			Key:   []byte(key),
			Value: value,
		}); err != nil {
			n.logger.Warn("failed to publish notification", "key", key, "error", err)
		}
	}()
}

func (n *KafkaNotifier) Close() error {
	if err := n.stockWriter.Close(); err != nil {
		return err
	}
	return n.purchaseWriter.Close()
}
