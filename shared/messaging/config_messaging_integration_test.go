//go:build integration

package messaging_test

import (
	"context"
	"testing"
	"time"

	"atm-admin/shared/messaging"

	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"
	"go.uber.org/zap"
)

type chanUpdater chan struct{}

func (u chanUpdater) Reload(context.Context) error {
	u <- struct{}{}
	return nil
}

func TestConfigUpdateFanout(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	ctx := context.Background()
	logger := zap.NewNop()

	container, err := rabbitmq.Run(ctx, "rabbitmq:3.13-management-alpine")
	require.NoError(t, err, "Failed to start rabbitmq container")
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	amqpURL, err := container.AmqpURL(ctx)
	require.NoError(t, err)
	conn, err := amqp091.Dial(amqpURL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	own := make(chanUpdater, 1)
	other := make(chanUpdater, 1)

	ownConsumer, err := messaging.NewConfigUpdateConsumer(conn, own, "replica-1", logger)
	require.NoError(t, err)
	otherConsumer, err := messaging.NewConfigUpdateConsumer(conn, other, "replica-2", logger)
	require.NoError(t, err)
	require.NoError(t, ownConsumer.StartConsuming())
	require.NoError(t, otherConsumer.StartConsuming())
	t.Cleanup(ownConsumer.Stop)
	t.Cleanup(otherConsumer.Stop)

	publisher, err := messaging.NewRabbitMQConfigUpdatePublisher(conn, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = publisher.Close() })

	err = publisher.PublishConfigUpdate(ctx, messaging.ConfigUpdatePayload{
		Config:    map[string]any{"commissions_cashIn": 4.0, "commissions_overrides": nil},
		ChangedBy: "system",
		Origin:    "replica-1",
	})
	require.NoError(t, err)

	select {
	case <-other:
	case <-time.After(10 * time.Second):
		t.Fatal("other replica did not receive the update")
	}

	select {
	case <-own:
		t.Fatal("own update must be skipped")
	case <-time.After(500 * time.Millisecond):
	}
}
