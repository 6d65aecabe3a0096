package database

import (
	"context"
	"fmt"

	"atm-admin/shared/interfaces"
	"atm-admin/shared/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"go.uber.org/zap"
)

const listMachinesQuery = `SELECT name, device_id FROM machines ORDER BY name, device_id`

var _ interfaces.MachineRepository = (*pgMachineRepository)(nil)

type pgMachineRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgMachineRepository создает репозиторий банкоматов.
func NewPgMachineRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.MachineRepository {
	return &pgMachineRepository{
		db:     db,
		logger: logger.Named("MachineRepo"),
	}
}

// List возвращает все банкоматы, отсортированные по имени.
func (r *pgMachineRepository) List(ctx context.Context) ([]models.Machine, error) {
	machines := make([]models.Machine, 0)
	if err := pgxscan.Select(ctx, r.db, &machines, listMachinesQuery); err != nil {
		r.logger.Error("Error listing machines", zap.Error(err))
		return nil, fmt.Errorf("failed to list machines: %w", err)
	}
	return machines, nil
}
