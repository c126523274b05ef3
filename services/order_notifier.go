package services

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/Nappiz/tcmudah-storefront/models"
	awspkg "github.com/Nappiz/tcmudah-storefront/pkg/aws"
)

const EventOrderSubmitted = "order.submitted"

// OrderNotifier announces completed checkouts on SNS and records the
// storefront business metrics.
type OrderNotifier struct {
	snsClient   awspkg.SNSPublisher
	snsTopicArn string
	metrics     MetricsRecorder
	logger      *zap.Logger
}

func NewOrderNotifier(snsClient awspkg.SNSPublisher, snsTopicArn string, metrics MetricsRecorder, logger *zap.Logger) *OrderNotifier {
	return &OrderNotifier{
		snsClient:   snsClient,
		snsTopicArn: snsTopicArn,
		metrics:     metrics,
		logger:      logger,
	}
}

// OrderSubmitted publishes the order.submitted event. Publishing failures are
// logged; the order already exists upstream.
func (n *OrderNotifier) OrderSubmitted(ctx context.Context, sessionID, userID string, sub Submission) {
	recordCount(ctx, n.metrics, awspkg.MetricCartCheckouts, nil)
	recordCount(ctx, n.metrics, awspkg.MetricOrdersCreated, nil)
	recordValue(ctx, n.metrics, awspkg.MetricOrderTotal, float64(sub.Receipt.TotalAmount), nil)

	if n.snsClient == nil || n.snsTopicArn == "" {
		n.logger.Debug("SNS not configured, skipping order.submitted event")
		return
	}

	event := models.OrderSubmittedEvent{
		EventType:   EventOrderSubmitted,
		OrderID:     sub.Receipt.Order.ID,
		Status:      sub.Receipt.Order.Status,
		SessionID:   sessionID,
		UserID:      userID,
		Items:       orderItems(sub.Lines),
		TotalAmount: sub.Receipt.TotalAmount,
		ProofURL:    sub.ProofURL,
		SenderName:  sub.SenderName,
		Timestamp:   time.Now().UTC(),
	}
	body, err := json.Marshal(event)
	if err != nil {
		n.logger.Error("Failed to marshal order.submitted event", zap.Error(err))
		return
	}

	attrs := map[string]string{"event_type": EventOrderSubmitted}
	if err := n.snsClient.Publish(ctx, n.snsTopicArn, body, attrs); err != nil {
		n.logger.Error("Failed to publish order.submitted event", zap.String("order_id", event.OrderID), zap.Error(err))
		return
	}
	n.logger.Info("Published order.submitted event",
		zap.String("order_id", event.OrderID),
		zap.Int64("total_amount", event.TotalAmount),
	)
}

// SubmissionFailed counts a failed upload or order call.
func (n *OrderNotifier) SubmissionFailed(ctx context.Context, stage string, err error) {
	recordCount(ctx, n.metrics, awspkg.MetricOrdersFailed, map[string]string{"Stage": stage})
}
