// Package screens содержит контроллеры экранов админки: каждый экран читает свою часть
// блоба конфигурации через пространство имён, подставляет значения по умолчанию
// и сохраняет изменения одной мутацией saveConfig.
package screens

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"atm-admin/shared/models"

	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DataSource - источник данных экранов: запрос getData и мутация saveConfig.
// Реализуется сервисом в процессе (internal/service) и GraphQL-клиентом (internal/client).
type DataSource interface {
	GetData(ctx context.Context) (*models.ConfigData, error)
	SaveConfig(ctx context.Context, fragment map[string]any) (map[string]any, error)
}

func newValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

// validateRecord возвращает ошибку, обёрнутую в models.ErrInvalidInput.
func validateRecord(v *validator.Validate, record any) error {
	if err := v.Struct(record); err != nil {
		return fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}
	return nil
}

// toMap превращает запись в объект экрана (ключи - json-теги полей).
func toMap(record any) (map[string]any, error) {
	raw, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any)
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// fromMap заполняет dst значениями объекта экрана.
func fromMap(obj map[string]any, dst any) error {
	raw, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}

// decodeLenient накладывает obj на record. Поле с неподходящим значением
// пропускается с предупреждением и остаётся значением по умолчанию.
func decodeLenient[T any](obj map[string]any, record T, logger *zap.Logger) T {
	if len(obj) == 0 {
		return record
	}
	next := record
	if err := fromMap(obj, &next); err == nil {
		return next
	}

	fields := make([]string, 0, len(obj))
	for field := range obj {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		next := record
		if err := fromMap(map[string]any{field: obj[field]}, &next); err != nil {
			logger.Warn("Ignoring stored value of unexpected type", zap.String("field", field), zap.Error(err))
			continue
		}
		record = next
	}
	return record
}

// mutationState хранит сообщение последней неудачной мутации для показа оператору.
type mutationState struct {
	mu        sync.Mutex
	lastError string
}

func (s *mutationState) fail(err error) {
	s.mu.Lock()
	s.lastError = err.Error()
	s.mu.Unlock()
}

func (s *mutationState) succeed() {
	s.mu.Lock()
	s.lastError = ""
	s.mu.Unlock()
}

func (s *mutationState) message() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

// save выполняет мутацию и запоминает её результат.
func (s *mutationState) save(ctx context.Context, src DataSource, fragment map[string]any) error {
	if _, err := src.SaveConfig(ctx, fragment); err != nil {
		s.fail(err)
		return fmt.Errorf("%w: %w", models.ErrDataSource, err)
	}
	s.succeed()
	return nil
}
