package dto

import (
	"time"

	"github.com/expensehub/expense_approval_app/internal/core/domain"
)

// CreateCompanyRequest defines the data needed to create a new company.
type CreateCompanyRequest struct {
	Name             string `json:"name" binding:"required"`
	BaseCurrencyCode string `json:"baseCurrencyCode" binding:"required,uppercase,len=3"`
	Country          string `json:"country" binding:"required"`
}

// CompanyResponse defines the data returned for a company.
type CompanyResponse struct {
	CompanyID        string    `json:"companyID"`
	Name             string    `json:"name"`
	BaseCurrencyCode string    `json:"baseCurrencyCode"`
	Country          string    `json:"country"`
	CreatedAt        time.Time `json:"createdAt"`
}

// ToCompanyResponse converts a domain.Company to CompanyResponse DTO
func ToCompanyResponse(c *domain.Company) CompanyResponse {
	return CompanyResponse{
		CompanyID:        c.CompanyID,
		Name:             c.Name,
		BaseCurrencyCode: c.BaseCurrencyCode,
		Country:          c.Country,
		CreatedAt:        c.CreatedAt,
	}
}
