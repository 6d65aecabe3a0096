package configservice

import (
	"context"
	"fmt"
	"sync"

	"atm-admin/shared/interfaces"
	"atm-admin/shared/models"

	"go.uber.org/zap"
)

const maxReloadAttempts = 3

// ConfigService держит в памяти снимок центрального блоба конфигурации.
// Снимок загружается из БД при старте, локальные сохранения попадают в него через Apply,
// а изменения других реплик - через Reload по событию из RabbitMQ.
type ConfigService struct {
	logger     *zap.Logger
	repo       interfaces.ConfigRepository
	mu         sync.RWMutex   // Мьютекс для защиты доступа к blob
	blob       map[string]any // Кэш: ключ -> JSON-значение
	generation uint64         // растёт при каждом изменении blob
}

// NewConfigService создает снимок и загружает начальный блоб.
func NewConfigService(ctx context.Context, repo interfaces.ConfigRepository, logger *zap.Logger) (*ConfigService, error) {
	cs := &ConfigService{
		logger: logger.Named("ConfigSnapshot"),
		repo:   repo,
		blob:   make(map[string]any),
	}

	cs.logger.Info("Loading configuration blob...")
	if err := cs.Reload(ctx); err != nil {
		cs.logger.Error("Failed to load configuration blob", zap.Error(err))
		return nil, err
	}
	cs.logger.Info("Configuration blob loaded", zap.Int("keys", cs.Len()))

	return cs, nil
}

// Reload заменяет снимок содержимым БД. Если во время чтения снимок изменил Apply,
// прочитанные строки могут быть старше локальной записи, и чтение повторяется.
func (cs *ConfigService) Reload(ctx context.Context) error {
	for attempt := 1; attempt <= maxReloadAttempts; attempt++ {
		cs.mu.RLock()
		generation := cs.generation
		cs.mu.RUnlock()

		entries, err := cs.repo.GetAll(ctx)
		if err != nil {
			return err
		}

		blob, broken := models.BlobFromEntries(entries)
		for _, key := range broken {
			cs.logger.Warn("Skipping config entry with invalid JSON", zap.String("key", key))
		}

		cs.mu.Lock()
		if cs.generation != generation {
			cs.mu.Unlock()
			cs.logger.Debug("Snapshot changed during reload, reading again", zap.Int("attempt", attempt))
			continue
		}
		cs.blob = blob
		cs.generation++
		cs.mu.Unlock()
		return nil
	}
	return fmt.Errorf("snapshot changed during each of %d reload attempts", maxReloadAttempts)
}

// Snapshot возвращает копию блоба. Вложенные значения не копируются,
// вызывающий код не должен их менять.
func (cs *ConfigService) Snapshot() map[string]any {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	out := make(map[string]any, len(cs.blob))
	for k, v := range cs.blob {
		out[k] = v
	}
	return out
}

// Len возвращает количество ключей в снимке.
func (cs *ConfigService) Len() int {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return len(cs.blob)
}

// Apply мержит фрагмент в снимок. nil-значение удаляет ключ.
func (cs *ConfigService) Apply(fragment map[string]any) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	for k, v := range fragment {
		if v == nil {
			delete(cs.blob, k)
			continue
		}
		cs.blob[k] = v
	}
	cs.generation++
	cs.logger.Debug("Configuration fragment applied to snapshot", zap.Int("keys", len(fragment)))
}
