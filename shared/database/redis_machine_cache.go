package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"atm-admin/shared/interfaces"
	"atm-admin/shared/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const machinesCacheKey = "reference:machines"

var _ interfaces.MachineCache = (*redisMachineCache)(nil)

type redisMachineCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisMachineCache создает кэш списка банкоматов в Redis.
func NewRedisMachineCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) interfaces.MachineCache {
	return &redisMachineCache{
		client: client,
		ttl:    ttl,
		logger: logger.Named("RedisMachineCache"),
	}
}

// GetMachines возвращает закэшированный список.
func (c *redisMachineCache) GetMachines(ctx context.Context) ([]models.Machine, bool, error) {
	raw, err := c.client.Get(ctx, machinesCacheKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read machines from redis: %w", err)
	}

	var machines []models.Machine
	if err := json.Unmarshal(raw, &machines); err != nil {
		// Битое значение считаем промахом, его перезапишет следующий SetMachines.
		c.logger.Warn("Corrupted machines cache entry", zap.Error(err))
		return nil, false, nil
	}
	return machines, true, nil
}

// SetMachines кладёт список в кэш с TTL.
func (c *redisMachineCache) SetMachines(ctx context.Context, machines []models.Machine) error {
	raw, err := json.Marshal(machines)
	if err != nil {
		return fmt.Errorf("failed to marshal machines: %w", err)
	}
	if err := c.client.Set(ctx, machinesCacheKey, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write machines to redis: %w", err)
	}
	c.logger.Debug("Machines cached", zap.Int("count", len(machines)), zap.Duration("ttl", c.ttl))
	return nil
}

// Invalidate удаляет список из кэша.
func (c *redisMachineCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, machinesCacheKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate machines cache: %w", err)
	}
	return nil
}
