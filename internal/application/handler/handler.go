package handler

import (
	"context"
	"encoding/json"
	"time"

	"github.com/tbelov/order-desk/internal/observability"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

//go:generate mockgen -source internal/application/handler/handler.go -destination=internal/application/handler/handler_mock_test.go -package=handler

type Workflow interface {
	UpdateStatus(ctx context.Context, orderID uuid.UUID, statusName string) (bool, error)
}

// StatusEvent is the wire format of a status-update message.
type StatusEvent struct {
	OrderID uuid.UUID `json:"order_id"`
	Status  string    `json:"status"`
}

type Handler struct {
	workflow Workflow
	logger   *zap.Logger
	metrics  observability.Metrics
}

func NewHandler(workflow Workflow, logger *zap.Logger, metrics observability.Metrics) *Handler {
	return &Handler{
		workflow: workflow,
		logger:   logger,
		metrics:  metrics,
	}
}

// Handle applies one status-update event. Malformed payloads and events that
// resolve to no order or status are logged and dropped (nil return commits
// the offset); only storage failures are returned so the message stays
// uncommitted. No retry loop here, redelivery is the broker's job.
func (h *Handler) Handle(ctx context.Context, message kafkago.Message) error {
	start := time.Now()

	var ev StatusEvent
	if err := json.Unmarshal(message.Value, &ev); err != nil {
		h.logger.Error("bad status event payload",
			zap.Error(err),
			zap.Int("partition", message.Partition),
			zap.Int64("offset", message.Offset),
		)
		h.metrics.ObserveKafka(elapsedMs(start), false)
		return nil
	}
	if ev.OrderID == uuid.Nil || ev.Status == "" {
		h.logger.Error("status event missing order_id or status",
			zap.Int("partition", message.Partition),
			zap.Int64("offset", message.Offset),
		)
		h.metrics.ObserveKafka(elapsedMs(start), false)
		return nil
	}

	ok, err := h.workflow.UpdateStatus(ctx, ev.OrderID, ev.Status)
	if err != nil {
		h.metrics.ObserveKafka(elapsedMs(start), false)
		return err
	}
	if !ok {
		h.logger.Warn("status event dropped: order or status unresolved",
			zap.String("order_id", ev.OrderID.String()),
			zap.String("status", ev.Status),
			zap.Int("partition", message.Partition),
			zap.Int64("offset", message.Offset),
		)
		h.metrics.ObserveKafka(elapsedMs(start), false)
		return nil
	}

	h.metrics.ObserveKafka(elapsedMs(start), true)
	h.logger.Info("status event applied",
		zap.String("order_id", ev.OrderID.String()),
		zap.String("status", ev.Status),
		zap.Int("partition", message.Partition),
		zap.Int64("offset", message.Offset),
	)
	return nil
}

func elapsedMs(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000.0
}
