package mocks

import (
	"context"

	"atm-admin/shared/messaging"

	"github.com/stretchr/testify/mock"
)

// ConfigUpdatePublisher - мок messaging.ConfigUpdatePublisher.
type ConfigUpdatePublisher struct {
	mock.Mock
}

func (m *ConfigUpdatePublisher) PublishConfigUpdate(ctx context.Context, payload messaging.ConfigUpdatePayload) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}
