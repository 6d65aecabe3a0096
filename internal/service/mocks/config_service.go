package mocks

import (
	"context"

	"atm-admin/shared/models"

	"github.com/stretchr/testify/mock"
)

// Mock ConfigService
type ConfigService struct {
	mock.Mock
}

func (m *ConfigService) GetData(ctx context.Context) (*models.ConfigData, error) {
	args := m.Called(ctx)
	data, _ := args.Get(0).(*models.ConfigData)
	return data, args.Error(1)
}

func (m *ConfigService) SaveConfig(ctx context.Context, fragment map[string]any) (map[string]any, error) {
	args := m.Called(ctx, fragment)
	blob, _ := args.Get(0).(map[string]any)
	return blob, args.Error(1)
}

func (m *ConfigService) History(ctx context.Context, limit int) ([]*models.ConfigChange, error) {
	args := m.Called(ctx, limit)
	changes, _ := args.Get(0).([]*models.ConfigChange)
	return changes, args.Error(1)
}
