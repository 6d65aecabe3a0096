package screens

import (
	"fmt"
	"sync"

	"atm-admin/shared/models"
)

// Section - редактируемая секция экрана.
type Section string

const (
	SectionDefault   Section = "default"
	SectionOverrides Section = "overrides"
)

// EditGuard не даёт редактировать две секции одного экрана одновременно.
type EditGuard struct {
	mu      sync.Mutex
	editing map[Section]bool
}

// NewEditGuard создает guard без активного редактирования.
func NewEditGuard() *EditGuard {
	return &EditGuard{editing: make(map[Section]bool)}
}

// SetEditing включает или выключает режим редактирования секции.
// Включить редактирование, пока другая секция редактируется, нельзя: models.ErrEditConflict.
func (g *EditGuard) SetEditing(section Section, editing bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if editing {
		if other, busy := g.busyOther(section); busy {
			return fmt.Errorf("%w: %s is being edited", models.ErrEditConflict, other)
		}
	}
	g.editing[section] = editing
	return nil
}

// Disabled сообщает, заблокирована ли секция редактированием другой секции.
func (g *EditGuard) Disabled(section Section) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, busy := g.busyOther(section)
	return busy
}

// State возвращает копию состояния для отображения.
func (g *EditGuard) State() map[Section]bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(map[Section]bool, len(g.editing))
	for s, e := range g.editing {
		out[s] = e
	}
	return out
}

// busyOther вызывается под g.mu.
func (g *EditGuard) busyOther(section Section) (Section, bool) {
	for s, e := range g.editing {
		if e && s != section {
			return s, true
		}
	}
	return "", false
}
