package repositories

import (
	"context"

	"github.com/expensehub/expense_approval_app/internal/core/domain"
)

// RuleReader defines read operations for approval rule data
type RuleReader interface {
	// FindRuleByID retrieves a specific rule by its ID, active or not.
	FindRuleByID(ctx context.Context, ruleID string) (*domain.ApprovalRule, error)

	// ListRulesByCompany retrieves all rules for a company ordered by priority
	// descending, creation time ascending (stable tie-break). Includes inactive rules.
	ListRulesByCompany(ctx context.Context, companyID string) ([]domain.ApprovalRule, error)
}

// RuleWriter defines write operations for approval rule data
type RuleWriter interface {
	// SaveRule persists a new rule.
	SaveRule(ctx context.Context, rule domain.ApprovalRule) error

	// UpdateRule replaces the stored rule with the given state.
	UpdateRule(ctx context.Context, rule domain.ApprovalRule) error
}

// RuleRepositoryFacade combines all rule-related repository interfaces
type RuleRepositoryFacade interface {
	RuleReader
	RuleWriter
}
