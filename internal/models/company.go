package models

// Company is the database representation of a company.
type Company struct {
	CompanyID        string `db:"company_id"`
	Name             string `db:"name"`
	BaseCurrencyCode string `db:"base_currency_code"`
	Country          string `db:"country"`
	AuditFields
}
