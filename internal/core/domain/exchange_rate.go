package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeRate represents a conversion rate between two currencies, effective
// from a given date. Rates are administered rows, not live market data.
type ExchangeRate struct {
	ExchangeRateID   string          `json:"exchangeRateID"` // Primary Key (UUID)
	FromCurrencyCode string          `json:"fromCurrencyCode"`
	ToCurrencyCode   string          `json:"toCurrencyCode"`
	Rate             decimal.Decimal `json:"rate"` // Positive
	DateEffective    time.Time       `json:"dateEffective"`
	AuditFields
}
