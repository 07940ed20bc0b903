package mapping

import (
	"github.com/expensehub/expense_approval_app/internal/core/domain"
	"github.com/expensehub/expense_approval_app/internal/models"
)

// ToModelCompany converts a domain Company to a model Company
func ToModelCompany(d domain.Company) models.Company {
	return models.Company{
		CompanyID:        d.CompanyID,
		Name:             d.Name,
		BaseCurrencyCode: d.BaseCurrencyCode,
		Country:          d.Country,
		AuditFields:      ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainCompany converts a model Company to a domain Company
func ToDomainCompany(m models.Company) domain.Company {
	return domain.Company{
		CompanyID:        m.CompanyID,
		Name:             m.Name,
		BaseCurrencyCode: m.BaseCurrencyCode,
		Country:          m.Country,
		AuditFields:      ToDomainAuditFields(m.AuditFields),
	}
}
