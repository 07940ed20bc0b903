package domain

// Company represents an organization whose employees file expenses.
// All expense amounts are converted into the company's base currency on creation.
type Company struct {
	CompanyID        string `json:"companyID"` // Primary Key (UUID)
	Name             string `json:"name"`
	BaseCurrencyCode string `json:"baseCurrencyCode"` // ISO code: USD, INR, EUR
	Country          string `json:"country"`
	AuditFields
}
