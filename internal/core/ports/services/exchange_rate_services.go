package services

import (
	"context"

	"github.com/expensehub/expense_approval_app/internal/core/domain"
	"github.com/expensehub/expense_approval_app/internal/dto"
	"github.com/shopspring/decimal"
)

// ExchangeRateSvcFacade defines operations for exchange rates and conversion.
type ExchangeRateSvcFacade interface {
	// CreateExchangeRate persists a new administered rate.
	CreateExchangeRate(ctx context.Context, req dto.CreateExchangeRateRequest, creatorUserID string) (*domain.ExchangeRate, error)

	// GetExchangeRate retrieves the latest rate for a currency pair.
	GetExchangeRate(ctx context.Context, fromCode, toCode string) (*domain.ExchangeRate, error)

	// Convert converts an amount between currencies using the latest rate.
	// Same-currency conversion returns the amount unchanged.
	Convert(ctx context.Context, amount decimal.Decimal, fromCode, toCode string) (decimal.Decimal, error)
}
