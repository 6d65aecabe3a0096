package interfaces

import (
	"context"

	"atm-admin/shared/models"
)

// MachineRepository читает список банкоматов.
type MachineRepository interface {
	List(ctx context.Context) ([]models.Machine, error)
}

// MachineCache кэширует список банкоматов (Redis).
type MachineCache interface {
	// GetMachines возвращает список и true, если он есть в кэше.
	GetMachines(ctx context.Context) ([]models.Machine, bool, error)
	SetMachines(ctx context.Context, machines []models.Machine) error
	Invalidate(ctx context.Context) error
}
