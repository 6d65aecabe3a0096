package interfaces

import (
	"context"
	"encoding/json"

	"atm-admin/shared/models"
)

// ConfigRepository определяет методы доступа к центральному блобу конфигурации.
type ConfigRepository interface {
	// GetAll возвращает все строки блоба.
	GetAll(ctx context.Context) ([]*models.ConfigEntry, error)
	// Apply в одной транзакции создаёт/обновляет upserts и удаляет ключи deletes.
	Apply(ctx context.Context, upserts map[string]json.RawMessage, deletes []string) error
}

// ConfigChangeRepository хранит историю изменений блоба.
type ConfigChangeRepository interface {
	Create(ctx context.Context, change *models.ConfigChange) error
	// ListRecent возвращает последние изменения, новые первыми.
	ListRecent(ctx context.Context, limit int) ([]*models.ConfigChange, error)
}
