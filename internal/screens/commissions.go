package screens

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"atm-admin/shared/models"
	"atm-admin/shared/namespace"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const overridesField = "overrides"

// Commission - ставки комиссии по умолчанию.
type Commission struct {
	CashIn    float64 `json:"cashIn" validate:"gte=0,lte=100"`
	CashOut   float64 `json:"cashOut" validate:"gte=0,lte=100"`
	FixedFee  float64 `json:"fixedFee" validate:"gte=0,lte=500"`
	MinimumTx float64 `json:"minimumTx" validate:"gte=0,lte=999999"`
}

// DefaultCommission - запись, которая показывается, когда комиссии ещё не настроены.
func DefaultCommission() Commission {
	return Commission{}
}

// Override - исключение из ставок по умолчанию для машины и набора криптовалют.
type Override struct {
	ID               string   `json:"id"`
	Machine          string   `json:"machine" validate:"required"`
	CryptoCurrencies []string `json:"cryptoCurrencies" validate:"required,min=1,dive,required"`
	Commission
}

// OverrideOrder возвращает ключ сортировки переопределения:
// 0 - все машины и все монеты, 1 - все машины, 2 - все монеты, 3 - конкретная пара.
func OverrideOrder(o Override) int {
	allMachines := o.Machine == models.AllMachinesDeviceID
	allCoins := len(o.CryptoCurrencies) == 1 && o.CryptoCurrencies[0] == models.AllCoinsCode
	switch {
	case allMachines && allCoins:
		return 0
	case allMachines:
		return 1
	case allCoins:
		return 2
	default:
		return 3
	}
}

// OrderOverrides возвращает новый срез, отсортированный по (ключ порядка, машина).
// Записи с равными ключом и машиной сохраняют исходный порядок.
func OrderOverrides(overrides []Override) []Override {
	out := make([]Override, len(overrides))
	copy(out, overrides)
	sort.SliceStable(out, func(i, j int) bool {
		oi, oj := OverrideOrder(out[i]), OverrideOrder(out[j])
		if oi != oj {
			return oi < oj
		}
		return out[i].Machine < out[j].Machine
	})
	return out
}

// CommissionsView - состояние экрана комиссий для отображения.
type CommissionsView struct {
	Default          Commission              `json:"default"`
	Overrides        []Override              `json:"overrides"`
	FiatCurrency     string                  `json:"fiatCurrency"`
	CryptoCurrencies []models.CryptoCurrency `json:"cryptoCurrencies"`
	Machines         []models.Machine        `json:"machines"`
	Editing          map[Section]bool        `json:"editing"`
	Error            string                  `json:"error,omitempty"`
}

type commissionsConfig struct {
	Commission
	Overrides []Override `json:"overrides"`
}

// CommissionsPage - контроллер экрана комиссий одного оператора.
type CommissionsPage struct {
	src      DataSource
	guard    *EditGuard
	validate *validator.Validate
	state    mutationState
	logger   *zap.Logger
	saveMu   sync.Mutex
}

// NewCommissionsPage создает контроллер экрана комиссий.
func NewCommissionsPage(src DataSource, logger *zap.Logger) *CommissionsPage {
	return &CommissionsPage{
		src:      src,
		guard:    NewEditGuard(),
		validate: newValidator(),
		logger:   logger.Named("CommissionsPage"),
	}
}

// Load загружает данные и строит представление экрана.
func (p *CommissionsPage) Load(ctx context.Context) (*CommissionsView, error) {
	data, err := p.src.GetData(ctx)
	if err != nil {
		p.logger.Error("Failed to load configuration data", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", models.ErrDataSource, err)
	}

	cfg := decodeLenient(namespace.From(namespace.Commissions, data.Config), commissionsConfig{Commission: DefaultCommission()}, p.logger)
	if cfg.Overrides == nil {
		cfg.Overrides = []Override{}
	}

	fiat, _ := namespace.From(namespace.Locale, data.Config)["fiatCurrency"].(string)

	return &CommissionsView{
		Default:          cfg.Commission,
		Overrides:        OrderOverrides(cfg.Overrides),
		FiatCurrency:     fiat,
		CryptoCurrencies: data.CryptoCurrencies,
		Machines:         data.Machines,
		Editing:          p.guard.State(),
		Error:            p.state.message(),
	}, nil
}

// SetEditing включает или выключает режим редактирования секции.
func (p *CommissionsPage) SetEditing(section Section, editing bool) error {
	if section != SectionDefault && section != SectionOverrides {
		return fmt.Errorf("%w: unknown section %q", models.ErrInvalidInput, section)
	}
	return p.guard.SetEditing(section, editing)
}

// SaveDefault сохраняет ставки по умолчанию одной мутацией saveConfig.
func (p *CommissionsPage) SaveDefault(ctx context.Context, record Commission) error {
	if err := p.checkSection(SectionDefault); err != nil {
		return err
	}
	if err := validateRecord(p.validate, record); err != nil {
		return err
	}

	obj, err := toMap(record)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}
	return p.save(ctx, SectionDefault, namespace.To(namespace.Commissions, obj))
}

// SaveOverrides сохраняет весь список переопределений. Добавление, изменение
// и удаление выражаются переданным срезом. Машины сверяются со справочником getData.
func (p *CommissionsPage) SaveOverrides(ctx context.Context, overrides []Override) error {
	if err := p.checkSection(SectionOverrides); err != nil {
		return err
	}

	list := make([]Override, len(overrides))
	copy(list, overrides)
	for i := range list {
		if err := p.validateOverride(list[i]); err != nil {
			return err
		}
		if list[i].ID == "" {
			list[i].ID = uuid.NewString()
		}
	}
	if err := checkUnique(list); err != nil {
		return err
	}
	if err := p.checkMachines(ctx, list); err != nil {
		return err
	}

	obj, err := toMap(commissionsConfig{Overrides: list})
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}
	fragment := namespace.To(namespace.Commissions, map[string]any{overridesField: obj[overridesField]})
	return p.save(ctx, SectionOverrides, fragment)
}

func (p *CommissionsPage) validateOverride(o Override) error {
	if err := validateRecord(p.validate, o); err != nil {
		return err
	}
	for _, code := range o.CryptoCurrencies {
		if code == models.AllCoinsCode {
			if len(o.CryptoCurrencies) > 1 {
				return fmt.Errorf("%w: %s cannot be combined with other crypto currencies", models.ErrInvalidInput, models.AllCoinsCode)
			}
			continue
		}
		if !models.IsSupportedCryptoCode(code) {
			return fmt.Errorf("%w: unsupported crypto currency %q", models.ErrInvalidInput, code)
		}
	}
	return nil
}

// checkMachines проверяет, что каждая машина, кроме ALL_MACHINES, есть в справочнике.
func (p *CommissionsPage) checkMachines(ctx context.Context, overrides []Override) error {
	needed := false
	for _, o := range overrides {
		if o.Machine != models.AllMachinesDeviceID {
			needed = true
			break
		}
	}
	if !needed {
		return nil
	}

	data, err := p.src.GetData(ctx)
	if err != nil {
		p.logger.Error("Failed to load machines for override check", zap.Error(err))
		return fmt.Errorf("%w: %w", models.ErrDataSource, err)
	}
	known := make(map[string]struct{}, len(data.Machines))
	for _, m := range data.Machines {
		known[m.DeviceID] = struct{}{}
	}
	for _, o := range overrides {
		if o.Machine == models.AllMachinesDeviceID {
			continue
		}
		if _, ok := known[o.Machine]; !ok {
			return fmt.Errorf("%w: unknown machine %q", models.ErrInvalidInput, o.Machine)
		}
	}
	return nil
}

func (p *CommissionsPage) checkSection(section Section) error {
	if p.guard.Disabled(section) {
		return fmt.Errorf("%w: cannot save %s while another section is being edited", models.ErrEditConflict, section)
	}
	return nil
}

func (p *CommissionsPage) save(ctx context.Context, section Section, fragment map[string]any) error {
	p.saveMu.Lock()
	defer p.saveMu.Unlock()

	if err := p.state.save(ctx, p.src, fragment); err != nil {
		p.logger.Warn("Save failed", zap.String("section", string(section)), zap.Error(err))
		return err
	}
	_ = p.guard.SetEditing(section, false)
	p.logger.Info("Section saved", zap.String("section", string(section)))
	return nil
}

// checkUnique проверяет, что каждая пара (машина, криптовалюта) встречается не больше одного раза.
func checkUnique(overrides []Override) error {
	seen := make(map[[2]string]struct{})
	for _, o := range overrides {
		for _, code := range o.CryptoCurrencies {
			key := [2]string{o.Machine, code}
			if _, dup := seen[key]; dup {
				return fmt.Errorf("%w: machine %s, crypto currency %s", models.ErrDuplicateOverride, o.Machine, code)
			}
			seen[key] = struct{}{}
		}
	}
	return nil
}
