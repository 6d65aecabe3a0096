package screens_test

import (
	"context"

	"atm-admin/shared/models"

	"github.com/stretchr/testify/mock"
)

type mockDataSource struct {
	mock.Mock
}

func (m *mockDataSource) GetData(ctx context.Context) (*models.ConfigData, error) {
	args := m.Called(ctx)
	data, _ := args.Get(0).(*models.ConfigData)
	return data, args.Error(1)
}

func (m *mockDataSource) SaveConfig(ctx context.Context, fragment map[string]any) (map[string]any, error) {
	args := m.Called(ctx, fragment)
	blob, _ := args.Get(0).(map[string]any)
	return blob, args.Error(1)
}

func dataWith(config map[string]any) *models.ConfigData {
	return &models.ConfigData{
		Config:           config,
		CryptoCurrencies: models.SupportedCryptoCurrencies(),
		Machines:         []models.Machine{{Name: "Lobby", DeviceID: "A"}, {Name: "Mall", DeviceID: "B"}},
	}
}
