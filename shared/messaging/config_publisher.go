package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

var _ ConfigUpdatePublisher = (*RabbitMQConfigUpdatePublisher)(nil)

// RabbitMQConfigUpdatePublisher отправляет обновления конфигурации в fanout exchange.
type RabbitMQConfigUpdatePublisher struct {
	ch           *amqp091.Channel
	logger       *zap.Logger
	exchangeName string
}

// NewRabbitMQConfigUpdatePublisher создает нового издателя для обновлений конфигурации.
func NewRabbitMQConfigUpdatePublisher(conn *amqp091.Connection, logger *zap.Logger) (*RabbitMQConfigUpdatePublisher, error) {
	if conn == nil {
		return nil, fmt.Errorf("rabbitmq connection is nil")
	}

	ch, err := conn.Channel()
	if err != nil {
		logger.Error("Failed to open a channel for config updates", zap.Error(err))
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		configUpdateExchange,
		configUpdateExchangeType,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		_ = ch.Close()
		logger.Error("Failed to declare config update exchange", zap.String("exchange", configUpdateExchange), zap.Error(err))
		return nil, fmt.Errorf("failed to declare exchange '%s': %w", configUpdateExchange, err)
	}

	logger.Info("Config update exchange declared successfully", zap.String("exchange", configUpdateExchange), zap.String("type", configUpdateExchangeType))

	return &RabbitMQConfigUpdatePublisher{
		ch:           ch,
		logger:       logger.Named("ConfigUpdatePublisher"),
		exchangeName: configUpdateExchange,
	}, nil
}

// PublishConfigUpdate публикует сообщение об обновлении конфигурации.
func (p *RabbitMQConfigUpdatePublisher) PublishConfigUpdate(ctx context.Context, payload ConfigUpdatePayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		p.logger.Error("Failed to marshal config update payload", zap.Error(err))
		return fmt.Errorf("failed to marshal config update payload: %w", err)
	}

	err = p.ch.PublishWithContext(ctx,
		p.exchangeName, // exchange
		"",             // routing key (не используется для fanout)
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType: "application/json",
			Body:        body,
			Timestamp:   time.Now(),
		},
	)
	if err != nil {
		p.logger.Error("Failed to publish config update event", zap.Error(err), zap.Int("keys", len(payload.Config)))
		return fmt.Errorf("failed to publish config update event: %w", err)
	}

	p.logger.Debug("Config update event published", zap.Int("keys", len(payload.Config)), zap.String("changedBy", payload.ChangedBy))
	return nil
}

// Close закрывает канал RabbitMQ.
func (p *RabbitMQConfigUpdatePublisher) Close() error {
	if p.ch != nil {
		return p.ch.Close()
	}
	return nil
}
