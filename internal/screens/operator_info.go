package screens

import (
	"atm-admin/shared/namespace"

	"go.uber.org/zap"
)

// ContactInfo - контактные данные оператора, которые показываются на экране банкомата.
type ContactInfo struct {
	Active        bool   `json:"active"`
	Name          string `json:"name" validate:"required_if=Active true,max=100"`
	Phone         string `json:"phone" validate:"omitempty,max=32"`
	Email         string `json:"email" validate:"omitempty,email"`
	Website       string `json:"website" validate:"omitempty,url"`
	CompanyNumber string `json:"companyNumber" validate:"omitempty,max=64"`
}

// DefaultContactInfo - выключенный экран без данных.
func DefaultContactInfo() ContactInfo {
	return ContactInfo{}
}

// NewOperatorInfoPage создает контроллер экрана контактов оператора.
func NewOperatorInfoPage(src DataSource, logger *zap.Logger) *RecordPage[ContactInfo] {
	return NewRecordPage(namespace.OperatorInfo, DefaultContactInfo, src, logger)
}
