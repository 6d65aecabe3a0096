package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const reloadTimeout = 10 * time.Second

// ConfigUpdateConsumer слушает fanout exchange и перечитывает локальный снимок
// на каждое изменение, сделанное другой репликой. Каждая реплика получает свою временную очередь.
type ConfigUpdateConsumer struct {
	conn          *amqp091.Connection
	ch            *amqp091.Channel
	configUpdater ConfigUpdater
	logger        *zap.Logger
	exchangeName  string
	queueName     string
	consumerTag   string
	origin        string
	done          chan struct{}
	stopOnce      sync.Once
}

// NewConfigUpdateConsumer создает консьюмера. origin - ID текущей реплики,
// собственные события с этим origin пропускаются (снимок уже перечитан при сохранении).
func NewConfigUpdateConsumer(
	conn *amqp091.Connection,
	configUpdater ConfigUpdater,
	origin string,
	logger *zap.Logger,
) (*ConfigUpdateConsumer, error) {
	if conn == nil {
		return nil, fmt.Errorf("RabbitMQ connection is nil")
	}
	if configUpdater == nil {
		return nil, fmt.Errorf("ConfigUpdater is nil")
	}

	consumerTag := fmt.Sprintf("config_update_consumer_%d", time.Now().UnixNano())

	consumer := &ConfigUpdateConsumer{
		conn:          conn,
		configUpdater: configUpdater,
		logger:        logger.Named("ConfigUpdateConsumer").With(zap.String("consumerTag", consumerTag)),
		exchangeName:  configUpdateExchange,
		consumerTag:   consumerTag,
		origin:        origin,
		done:          make(chan struct{}),
	}

	if err := consumer.setupChannelAndQueue(); err != nil {
		return nil, err
	}

	consumer.logger.Info("ConfigUpdateConsumer initialized", zap.String("exchange", consumer.exchangeName), zap.String("queueName", consumer.queueName))
	return consumer, nil
}

// setupChannelAndQueue создает канал, объявляет exchange, очередь и биндинг.
func (c *ConfigUpdateConsumer) setupChannelAndQueue() error {
	var err error
	c.ch, err = c.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}

	err = c.ch.ExchangeDeclare(
		c.exchangeName,
		configUpdateExchangeType,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		_ = c.ch.Close()
		return fmt.Errorf("failed to declare exchange '%s': %w", c.exchangeName, err)
	}

	// Временная эксклюзивная очередь, имя выдаёт брокер.
	q, err := c.ch.QueueDeclare(
		"",    // name
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		_ = c.ch.Close()
		return fmt.Errorf("failed to declare queue: %w", err)
	}
	c.queueName = q.Name

	err = c.ch.QueueBind(
		c.queueName,
		"", // routing key (не используется для fanout)
		c.exchangeName,
		false,
		nil,
	)
	if err != nil {
		_ = c.ch.Close()
		return fmt.Errorf("failed to bind queue '%s' to exchange '%s': %w", c.queueName, c.exchangeName, err)
	}

	return nil
}

// StartConsuming регистрирует консьюмера и обрабатывает сообщения в отдельной горутине.
func (c *ConfigUpdateConsumer) StartConsuming() error {
	c.logger.Info("Listening for config update events...")

	deliveries, err := c.ch.Consume(
		c.queueName,
		c.consumerTag,
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register a consumer: %w", err)
	}

	go func() {
		for {
			select {
			case <-c.done:
				return
			case d, ok := <-deliveries:
				if !ok {
					c.logger.Warn("Deliveries channel closed")
					return
				}
				ctx, cancel := context.WithTimeout(context.Background(), reloadTimeout)
				c.HandleMessage(ctx, d.Body)
				cancel()
				if err := d.Ack(false); err != nil {
					c.logger.Error("failed to acknowledge message", zap.Error(err))
				}
			}
		}
	}()

	return nil
}

// HandleMessage обрабатывает одно событие.
// Возвращает true, если снимок был перечитан.
func (c *ConfigUpdateConsumer) HandleMessage(ctx context.Context, body []byte) bool {
	var payload ConfigUpdatePayload
	if err := json.Unmarshal(body, &payload); err != nil {
		c.logger.Error("failed to unmarshal config update message", zap.Error(err))
		return false
	}
	if c.origin != "" && payload.Origin == c.origin {
		c.logger.Debug("Skipping own config update event")
		return false
	}
	if len(payload.Config) == 0 {
		return false
	}

	if err := c.configUpdater.Reload(ctx); err != nil {
		c.logger.Error("Failed to reload configuration snapshot after update event",
			zap.String("origin", payload.Origin),
			zap.Error(err),
		)
		return false
	}
	c.logger.Info("Configuration snapshot reloaded",
		zap.Int("keys", len(payload.Config)),
		zap.String("changedBy", payload.ChangedBy),
		zap.String("origin", payload.Origin),
	)
	return true
}

// Stop останавливает консьюмера и закрывает канал.
func (c *ConfigUpdateConsumer) Stop() {
	c.stopOnce.Do(func() {
		c.logger.Info("Stopping ConfigUpdateConsumer...")
		close(c.done)
		if c.ch != nil {
			if err := c.ch.Cancel(c.consumerTag, false); err != nil {
				c.logger.Warn("Failed to cancel consumer", zap.Error(err))
			}
			_ = c.ch.Close()
		}
	})
}
