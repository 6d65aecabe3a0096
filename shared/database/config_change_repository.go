package database

import (
	"context"
	"fmt"

	"atm-admin/shared/interfaces"
	"atm-admin/shared/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	createConfigChangeQuery = `
        INSERT INTO config_changes (id, changed_by, patch)
        VALUES ($1, $2, $3::jsonb)
        RETURNING created_at
    `
	listRecentConfigChangesQuery = `
        SELECT id, changed_by, patch, created_at
        FROM config_changes
        ORDER BY created_at DESC
        LIMIT $1
    `
	defaultChangesLimit = 50
	maxChangesLimit     = 500
)

var _ interfaces.ConfigChangeRepository = (*pgConfigChangeRepository)(nil)

type pgConfigChangeRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgConfigChangeRepository создает репозиторий истории изменений блоба.
func NewPgConfigChangeRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.ConfigChangeRepository {
	return &pgConfigChangeRepository{
		db:     db,
		logger: logger.Named("ConfigChangeRepo"),
	}
}

// Create сохраняет запись об изменении. Пустой ID заполняется новым UUID.
func (r *pgConfigChangeRepository) Create(ctx context.Context, change *models.ConfigChange) error {
	if change.ID == uuid.Nil {
		change.ID = uuid.New()
	}
	err := r.db.QueryRow(ctx, createConfigChangeQuery, change.ID, change.ChangedBy, string(change.Patch)).Scan(&change.CreatedAt)
	if err != nil {
		r.logger.Error("Error creating config change", zap.String("changeID", change.ID.String()), zap.Error(err))
		return fmt.Errorf("failed to create config change: %w", err)
	}
	return nil
}

// ListRecent возвращает последние limit изменений.
func (r *pgConfigChangeRepository) ListRecent(ctx context.Context, limit int) ([]*models.ConfigChange, error) {
	if limit <= 0 {
		limit = defaultChangesLimit
	}
	if limit > maxChangesLimit {
		limit = maxChangesLimit
	}

	changes := make([]*models.ConfigChange, 0)
	if err := pgxscan.Select(ctx, r.db, &changes, listRecentConfigChangesQuery, limit); err != nil {
		r.logger.Error("Error listing config changes", zap.Int("limit", limit), zap.Error(err))
		return nil, fmt.Errorf("failed to list config changes: %w", err)
	}
	return changes, nil
}
