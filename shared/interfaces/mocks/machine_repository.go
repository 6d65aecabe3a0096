package mocks

import (
	"context"

	"atm-admin/shared/models"

	"github.com/stretchr/testify/mock"
)

// MachineRepository - мок interfaces.MachineRepository.
type MachineRepository struct {
	mock.Mock
}

func (m *MachineRepository) List(ctx context.Context) ([]models.Machine, error) {
	args := m.Called(ctx)
	machines, _ := args.Get(0).([]models.Machine)
	return machines, args.Error(1)
}

// MachineCache - мок interfaces.MachineCache.
type MachineCache struct {
	mock.Mock
}

func (m *MachineCache) GetMachines(ctx context.Context) ([]models.Machine, bool, error) {
	args := m.Called(ctx)
	machines, _ := args.Get(0).([]models.Machine)
	return machines, args.Bool(1), args.Error(2)
}

func (m *MachineCache) SetMachines(ctx context.Context, machines []models.Machine) error {
	args := m.Called(ctx, machines)
	return args.Error(0)
}

func (m *MachineCache) Invalidate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
