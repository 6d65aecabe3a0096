package messaging

import "context"

const (
	configUpdateExchange     = "config_update_exchange"
	configUpdateExchangeType = "fanout"
)

// ConfigUpdatePayload - событие о сохранённом фрагменте блоба конфигурации.
// nil-значение во фрагменте означает удалённый ключ.
type ConfigUpdatePayload struct {
	Config    map[string]any `json:"config"`
	ChangedBy string         `json:"changedBy,omitempty"`
	Origin    string         `json:"origin,omitempty"` // ID реплики-источника
}

// ConfigUpdatePublisher публикует события об изменении конфигурации.
type ConfigUpdatePublisher interface {
	PublishConfigUpdate(ctx context.Context, payload ConfigUpdatePayload) error
}

// ConfigUpdater перечитывает локальный снимок из БД. Фрагмент из события
// не применяется напрямую: события разных реплик приходят в произвольном порядке.
type ConfigUpdater interface {
	Reload(ctx context.Context) error
}
