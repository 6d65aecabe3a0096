package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"atm-admin/shared/interfaces"
	"atm-admin/shared/messaging"
	"atm-admin/shared/models"

	"github.com/wI2L/jsondiff"
	"go.uber.org/zap"
)

const systemActor = "system"

// ConfigService определяет методы для чтения и сохранения центрального блоба.
type ConfigService interface {
	// GetData возвращает блоб и справочники (ответ getData).
	GetData(ctx context.Context) (*models.ConfigData, error)
	// SaveConfig мержит фрагмент в блоб и возвращает обновлённый блоб.
	// nil-значение во фрагменте удаляет ключ.
	SaveConfig(ctx context.Context, fragment map[string]any) (map[string]any, error)
	// History возвращает последние изменения блоба.
	History(ctx context.Context, limit int) ([]*models.ConfigChange, error)
}

// Snapshot - локальный снимок блоба (shared/configservice).
type Snapshot interface {
	Snapshot() map[string]any
	Apply(fragment map[string]any)
	Reload(ctx context.Context) error
}

// Deps - зависимости ConfigService. Changes, MachineCache и Publisher необязательны.
type Deps struct {
	Repo         interfaces.ConfigRepository
	Changes      interfaces.ConfigChangeRepository
	Machines     interfaces.MachineRepository
	MachineCache interfaces.MachineCache
	Snapshot     Snapshot
	Publisher    messaging.ConfigUpdatePublisher
	Origin       string // ID реплики для событий RabbitMQ
}

type configServiceImpl struct {
	repo         interfaces.ConfigRepository
	changes      interfaces.ConfigChangeRepository
	machines     interfaces.MachineRepository
	machineCache interfaces.MachineCache
	snapshot     Snapshot
	publisher    messaging.ConfigUpdatePublisher
	origin       string
	logger       *zap.Logger
}

// NewConfigService создает новый экземпляр ConfigService.
func NewConfigService(deps Deps, logger *zap.Logger) ConfigService {
	return &configServiceImpl{
		repo:         deps.Repo,
		changes:      deps.Changes,
		machines:     deps.Machines,
		machineCache: deps.MachineCache,
		snapshot:     deps.Snapshot,
		publisher:    deps.Publisher,
		origin:       deps.Origin,
		logger:       logger.Named("ConfigService"),
	}
}

func (s *configServiceImpl) GetData(ctx context.Context) (*models.ConfigData, error) {
	machines, err := s.listMachines(ctx)
	if err != nil {
		return nil, err
	}
	return &models.ConfigData{
		Config:           s.snapshot.Snapshot(),
		CryptoCurrencies: models.SupportedCryptoCurrencies(),
		Machines:         machines,
	}, nil
}

func (s *configServiceImpl) listMachines(ctx context.Context) ([]models.Machine, error) {
	if s.machineCache != nil {
		machines, found, err := s.machineCache.GetMachines(ctx)
		switch {
		case err != nil:
			machinesCacheLookupsTotal.WithLabelValues("error").Inc()
			s.logger.Warn("Machine cache read failed, falling back to database", zap.Error(err))
		case found:
			machinesCacheLookupsTotal.WithLabelValues("hit").Inc()
			return machines, nil
		default:
			machinesCacheLookupsTotal.WithLabelValues("miss").Inc()
		}
	}

	machines, err := s.machines.List(ctx)
	if err != nil {
		s.logger.Error("Failed to list machines", zap.Error(err))
		return nil, err
	}

	if s.machineCache != nil {
		if err := s.machineCache.SetMachines(ctx, machines); err != nil {
			s.logger.Warn("Failed to fill machine cache", zap.Error(err))
		}
	}
	return machines, nil
}

func (s *configServiceImpl) SaveConfig(ctx context.Context, fragment map[string]any) (map[string]any, error) {
	actor := actorFromContext(ctx)
	log := s.logger.With(zap.String("changedBy", actor), zap.Int("keys", len(fragment)))

	if len(fragment) == 0 {
		return nil, fmt.Errorf("%w: empty configuration fragment", models.ErrInvalidInput)
	}

	upserts := make(map[string]json.RawMessage, len(fragment))
	var deletes []string
	for key, value := range fragment {
		if strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("%w: empty configuration key", models.ErrInvalidInput)
		}
		if value == nil {
			deletes = append(deletes, key)
			continue
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("%w: value of %s is not JSON-serializable: %v", models.ErrInvalidInput, key, err)
		}
		upserts[key] = raw
	}

	before := s.snapshot.Snapshot()

	if err := s.repo.Apply(ctx, upserts, deletes); err != nil {
		configSaveFailuresTotal.Inc()
		log.Error("Failed to persist configuration fragment", zap.Error(err))
		return nil, err
	}
	configKeysWrittenTotal.WithLabelValues("upsert").Add(float64(len(upserts)))
	configKeysWrittenTotal.WithLabelValues("delete").Add(float64(len(deletes)))

	configSavesTotal.Inc()
	log.Info("Configuration saved")

	s.refreshSnapshot(ctx, fragment)
	s.recordChange(ctx, actor, before, mergeFragment(before, fragment))

	if s.publisher != nil {
		payload := messaging.ConfigUpdatePayload{
			Config:    fragment,
			ChangedBy: actor,
			Origin:    s.origin,
		}
		if err := s.publisher.PublishConfigUpdate(ctx, payload); err != nil {
			// БД обновлена, но другие реплики узнают об изменении только после перезапуска.
			log.Error("CRITICAL: Failed to publish config update notification after DB update", zap.Error(err))
		}
	} else {
		log.Debug("Publisher is nil, skipping config update notification")
	}

	return s.snapshot.Snapshot(), nil
}

// refreshSnapshot перечитывает блоб после коммита, чтобы снимок совпал с БД
// даже при одновременных сохранениях с других реплик.
func (s *configServiceImpl) refreshSnapshot(ctx context.Context, fragment map[string]any) {
	if err := s.snapshot.Reload(ctx); err != nil {
		snapshotReloadFailuresTotal.Inc()
		s.logger.Warn("Failed to reload snapshot after save, applying fragment locally", zap.Error(err))
		s.snapshot.Apply(fragment)
	}
}

// mergeFragment возвращает копию blob с применённым фрагментом.
func mergeFragment(blob, fragment map[string]any) map[string]any {
	out := make(map[string]any, len(blob)+len(fragment))
	for k, v := range blob {
		out[k] = v
	}
	for k, v := range fragment {
		if v == nil {
			delete(out, k)
			continue
		}
		out[k] = v
	}
	return out
}

func (s *configServiceImpl) recordChange(ctx context.Context, actor string, before, after map[string]any) {
	if s.changes == nil {
		return
	}
	patch, err := jsondiff.Compare(before, after)
	if err != nil {
		s.logger.Warn("Failed to compute configuration diff", zap.Error(err))
		return
	}
	if len(patch) == 0 {
		return
	}
	raw, err := json.Marshal(patch)
	if err != nil {
		s.logger.Warn("Failed to marshal configuration diff", zap.Error(err))
		return
	}
	if err := s.changes.Create(ctx, &models.ConfigChange{ChangedBy: actor, Patch: raw}); err != nil {
		s.logger.Warn("Failed to record configuration change", zap.Error(err))
	}
}

func (s *configServiceImpl) History(ctx context.Context, limit int) ([]*models.ConfigChange, error) {
	if s.changes == nil {
		return []*models.ConfigChange{}, nil
	}
	changes, err := s.changes.ListRecent(ctx, limit)
	if err != nil {
		s.logger.Error("Failed to list configuration changes", zap.Error(err))
		return nil, err
	}
	return changes, nil
}

func actorFromContext(ctx context.Context) string {
	if userID, ok := models.GetUserIDFromContext(ctx); ok {
		return userID.String()
	}
	return systemActor
}
