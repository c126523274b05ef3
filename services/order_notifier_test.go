package services_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Nappiz/tcmudah-storefront/models"
	awspkg "github.com/Nappiz/tcmudah-storefront/pkg/aws"
	"github.com/Nappiz/tcmudah-storefront/services"
)

type mockMetrics struct {
	mu     sync.Mutex
	counts map[string]int
	values map[string]float64
}

func newMockMetrics() *mockMetrics {
	return &mockMetrics{counts: map[string]int{}, values: map[string]float64{}}
}

func (m *mockMetrics) RecordCount(_ context.Context, name string, _ map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[name]++
	return nil
}

func (m *mockMetrics) RecordValue(_ context.Context, name string, v float64, _ map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[name] = v
	return nil
}

func (m *mockMetrics) count(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[name]
}

func sampleSubmission() services.Submission {
	return services.Submission{
		Lines:      []models.CartLine{{ID: "A", Qty: 2}},
		ProofURL:   "https://x/y.png",
		SenderName: "Budi",
		Receipt: models.Receipt{
			Order:       models.Order{ID: "o1", Status: models.OrderStatusPending},
			TotalAmount: 200000,
		},
	}
}

func TestOrderNotifier_Publishes(t *testing.T) {
	sns := &mockSNSPublisher{}
	metrics := newMockMetrics()
	n := services.NewOrderNotifier(sns, "arn:topic", metrics, zap.NewNop())

	n.OrderSubmitted(context.Background(), "sid", "u1", sampleSubmission())

	require.Len(t, sns.messages, 1)
	assert.Equal(t, "arn:topic", sns.topics[0])
	assert.Equal(t, map[string]string{"event_type": services.EventOrderSubmitted}, sns.attrs[0])

	var event models.OrderSubmittedEvent
	require.NoError(t, json.Unmarshal(sns.messages[0], &event))
	assert.Equal(t, "o1", event.OrderID)
	assert.Equal(t, []models.OrderItem{{ClassID: "A", Qty: 2}}, event.Items)
	assert.Equal(t, int64(200000), event.TotalAmount)

	require.Eventually(t, func() bool {
		return metrics.count(awspkg.MetricOrdersCreated) == 1 && metrics.count(awspkg.MetricCartCheckouts) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestOrderNotifier_WithoutTopic(t *testing.T) {
	sns := &mockSNSPublisher{}
	n := services.NewOrderNotifier(sns, "", nil, zap.NewNop())
	assert.NotPanics(t, func() {
		n.OrderSubmitted(context.Background(), "sid", "", sampleSubmission())
	})
	assert.Empty(t, sns.messages)
}

func TestOrderNotifier_PublishErrorIsSwallowed(t *testing.T) {
	n := services.NewOrderNotifier(&mockSNSPublisher{err: errBoom}, "arn:topic", nil, zap.NewNop())
	assert.NotPanics(t, func() {
		n.OrderSubmitted(context.Background(), "sid", "", sampleSubmission())
	})
}

func TestOrderNotifier_SubmissionFailed(t *testing.T) {
	metrics := newMockMetrics()
	n := services.NewOrderNotifier(nil, "", metrics, zap.NewNop())
	n.SubmissionFailed(context.Background(), services.StageUpload, errBoom)

	require.Eventually(t, func() bool {
		return metrics.count(awspkg.MetricOrdersFailed) == 1
	}, time.Second, 5*time.Millisecond)
}
