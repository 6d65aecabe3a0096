package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ConfigEntry - одна строка центрального блоба конфигурации.
type ConfigEntry struct {
	Key       string          `json:"key" db:"key"`               // Полный ключ с префиксом пространства
	Value     json.RawMessage `json:"value" db:"value"`           // JSON-значение (скаляр или структура)
	CreatedAt time.Time       `json:"created_at" db:"created_at"` // Время создания
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"` // Время последнего обновления
}

// ConfigChange хранит JSON Patch между блобом до и после сохранения.
type ConfigChange struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	ChangedBy string          `json:"changedBy" db:"changed_by"`
	Patch     json.RawMessage `json:"patch" db:"patch"`
	CreatedAt time.Time       `json:"createdAt" db:"created_at"`
}

// ConfigData - ответ getData: блоб и справочники для выпадающих списков.
type ConfigData struct {
	Config           map[string]any   `json:"config"`
	CryptoCurrencies []CryptoCurrency `json:"cryptoCurrencies"`
	Machines         []Machine        `json:"machines"`
}

// BlobFromEntries собирает плоский блоб из строк таблицы.
// Строки с некорректным JSON пропускаются, их ключи возвращаются вторым значением.
func BlobFromEntries(entries []*ConfigEntry) (map[string]any, []string) {
	blob := make(map[string]any, len(entries))
	var broken []string
	for _, e := range entries {
		var v any
		if err := json.Unmarshal(e.Value, &v); err != nil {
			broken = append(broken, e.Key)
			continue
		}
		blob[e.Key] = v
	}
	return blob, broken
}
