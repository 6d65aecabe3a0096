package screens

import (
	"atm-admin/shared/namespace"

	"go.uber.org/zap"
)

// TermsConditions - экран условий использования перед транзакцией.
type TermsConditions struct {
	Active           bool   `json:"active"`
	Delay            bool   `json:"delay"`
	Title            string `json:"title" validate:"required_if=Active true,max=50"`
	Text             string `json:"text" validate:"required_if=Active true"`
	AcceptButtonText string `json:"acceptButtonText" validate:"required_if=Active true,max=50"`
	CancelButtonText string `json:"cancelButtonText" validate:"required_if=Active true,max=50"`
}

// DefaultTermsConditions - выключенный экран с подписями кнопок по умолчанию.
func DefaultTermsConditions() TermsConditions {
	return TermsConditions{
		AcceptButtonText: "Accept",
		CancelButtonText: "Cancel",
	}
}

// NewTermsConditionsPage создает контроллер экрана условий использования.
func NewTermsConditionsPage(src DataSource, logger *zap.Logger) *RecordPage[TermsConditions] {
	return NewRecordPage(namespace.TermsConditions, DefaultTermsConditions, src, logger)
}
