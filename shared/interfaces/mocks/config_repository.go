package mocks

import (
	"context"
	"encoding/json"

	"atm-admin/shared/models"

	"github.com/stretchr/testify/mock"
)

// ConfigRepository - мок interfaces.ConfigRepository.
type ConfigRepository struct {
	mock.Mock
}

func (m *ConfigRepository) GetAll(ctx context.Context) ([]*models.ConfigEntry, error) {
	args := m.Called(ctx)
	entries, _ := args.Get(0).([]*models.ConfigEntry)
	return entries, args.Error(1)
}

func (m *ConfigRepository) Apply(ctx context.Context, upserts map[string]json.RawMessage, deletes []string) error {
	args := m.Called(ctx, upserts, deletes)
	return args.Error(0)
}

// ConfigChangeRepository - мок interfaces.ConfigChangeRepository.
type ConfigChangeRepository struct {
	mock.Mock
}

func (m *ConfigChangeRepository) Create(ctx context.Context, change *models.ConfigChange) error {
	args := m.Called(ctx, change)
	return args.Error(0)
}

func (m *ConfigChangeRepository) ListRecent(ctx context.Context, limit int) ([]*models.ConfigChange, error) {
	args := m.Called(ctx, limit)
	changes, _ := args.Get(0).([]*models.ConfigChange)
	return changes, args.Error(1)
}
