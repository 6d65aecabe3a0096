package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"atm-admin/shared/interfaces"
	"atm-admin/shared/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	pgxV5 "github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const (
	getAllConfigEntriesQuery = `SELECT key, value, created_at, updated_at FROM config_entries ORDER BY key`
	upsertConfigEntryQuery   = `
        INSERT INTO config_entries (key, value)
        VALUES ($1, $2::jsonb)
        ON CONFLICT (key) DO UPDATE SET
            value = EXCLUDED.value
            -- updated_at обновляется триггером
    `
	deleteConfigEntryQuery = `DELETE FROM config_entries WHERE key = $1`
)

var _ interfaces.ConfigRepository = (*pgConfigRepository)(nil)

type pgConfigRepository struct {
	db     interfaces.TxBeginner
	logger *zap.Logger
}

// NewPgConfigRepository создает репозиторий блоба конфигурации поверх пула pgx.
func NewPgConfigRepository(db interfaces.TxBeginner, logger *zap.Logger) interfaces.ConfigRepository {
	return &pgConfigRepository{
		db:     db,
		logger: logger.Named("ConfigRepo"),
	}
}

// GetAll возвращает все строки блоба.
func (r *pgConfigRepository) GetAll(ctx context.Context) ([]*models.ConfigEntry, error) {
	var entries []*models.ConfigEntry
	err := pgxscan.Select(ctx, r.db, &entries, getAllConfigEntriesQuery)
	if err != nil {
		if errors.Is(err, pgxV5.ErrNoRows) {
			return []*models.ConfigEntry{}, nil
		}
		r.logger.Error("Error getting all config entries", zap.Error(err))
		return nil, fmt.Errorf("failed to get all config entries: %w", err)
	}
	return entries, nil
}

// Apply записывает фрагмент блоба в одной транзакции.
func (r *pgConfigRepository) Apply(ctx context.Context, upserts map[string]json.RawMessage, deletes []string) error {
	if len(upserts) == 0 && len(deletes) == 0 {
		return nil
	}

	// Стабильный порядок ключей, чтобы параллельные сохранения брали блокировки строк одинаково.
	keys := make([]string, 0, len(upserts))
	for k := range upserts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	err := ExecuteInTransaction(ctx, r.db, func(tx pgxV5.Tx) error {
		for _, key := range keys {
			if _, err := tx.Exec(ctx, upsertConfigEntryQuery, key, string(upserts[key])); err != nil {
				return fmt.Errorf("failed to upsert config entry %s: %w", key, err)
			}
		}
		for _, key := range deletes {
			if _, err := tx.Exec(ctx, deleteConfigEntryQuery, key); err != nil {
				return fmt.Errorf("failed to delete config entry %s: %w", key, err)
			}
		}
		return nil
	})
	if err != nil {
		r.logger.Error("Error applying config fragment", zap.Int("upserts", len(upserts)), zap.Int("deletes", len(deletes)), zap.Error(err))
		return err
	}

	r.logger.Info("Config fragment applied", zap.Int("upserts", len(upserts)), zap.Int("deletes", len(deletes)))
	return nil
}
