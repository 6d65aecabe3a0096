package screens

import (
	"context"
	"fmt"
	"sync"

	"atm-admin/shared/models"
	"atm-admin/shared/namespace"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// RecordView - состояние экрана с одной записью.
type RecordView[T any] struct {
	Record T      `json:"record"`
	Error  string `json:"error,omitempty"`
}

// RecordPage - контроллер экрана, вся конфигурация которого - одна запись в пространстве ns.
type RecordPage[T any] struct {
	ns       string
	defaults func() T
	src      DataSource
	validate *validator.Validate
	state    mutationState
	logger   *zap.Logger
	saveMu   sync.Mutex
}

// NewRecordPage создает контроллер. defaults возвращает запись для пустой конфигурации.
func NewRecordPage[T any](ns string, defaults func() T, src DataSource, logger *zap.Logger) *RecordPage[T] {
	return &RecordPage[T]{
		ns:       ns,
		defaults: defaults,
		src:      src,
		validate: newValidator(),
		logger:   logger.Named("RecordPage").With(zap.String("namespace", ns)),
	}
}

// Load возвращает сохранённую запись, поверх значений по умолчанию.
func (p *RecordPage[T]) Load(ctx context.Context) (*RecordView[T], error) {
	data, err := p.src.GetData(ctx)
	if err != nil {
		p.logger.Error("Failed to load configuration data", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", models.ErrDataSource, err)
	}

	record := decodeLenient(namespace.From(p.ns, data.Config), p.defaults(), p.logger)
	return &RecordView[T]{Record: record, Error: p.state.message()}, nil
}

// Save валидирует запись и сохраняет её одной мутацией saveConfig.
func (p *RecordPage[T]) Save(ctx context.Context, record T) error {
	if err := validateRecord(p.validate, record); err != nil {
		return err
	}
	obj, err := toMap(record)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}

	p.saveMu.Lock()
	defer p.saveMu.Unlock()
	if err := p.state.save(ctx, p.src, namespace.To(p.ns, obj)); err != nil {
		p.logger.Warn("Save failed", zap.Error(err))
		return err
	}
	p.logger.Info("Record saved")
	return nil
}
