package services

import (
	"context"

	"github.com/expensehub/expense_approval_app/internal/core/domain"
	"github.com/expensehub/expense_approval_app/internal/dto"
)

// RuleReaderSvc defines read operations for approval rules
type RuleReaderSvc interface {
	// GetRuleByID retrieves a specific rule, active or not.
	GetRuleByID(ctx context.Context, companyID string, ruleID string) (*domain.ApprovalRule, error)

	// ListRules retrieves all rules for a company in priority order,
	// including inactive ones.
	ListRules(ctx context.Context, companyID string) ([]domain.ApprovalRule, error)
}

// RuleWriterSvc defines write operations for approval rules
type RuleWriterSvc interface {
	// CreateRule validates and persists a new rule.
	CreateRule(ctx context.Context, companyID string, req dto.CreateRuleRequest, creatorUserID string) (*domain.ApprovalRule, error)

	// UpdateRule merges the given fields into an existing rule.
	UpdateRule(ctx context.Context, companyID string, ruleID string, req dto.UpdateRuleRequest, updaterUserID string) (*domain.ApprovalRule, error)

	// DeactivateRule soft-disables a rule; it stops matching but stays addressable.
	DeactivateRule(ctx context.Context, companyID string, ruleID string, updaterUserID string) error
}

// RuleMatcherSvc finds the rule that governs an expense's approval routing.
type RuleMatcherSvc interface {
	// FindMatchingRule returns the highest-priority active rule whose conditions
	// all hold for the expense, or ErrNoMatchingRule.
	FindMatchingRule(ctx context.Context, expense *domain.Expense) (*domain.ApprovalRule, error)
}

// RuleSvcFacade combines all rule-related service interfaces
type RuleSvcFacade interface {
	RuleReaderSvc
	RuleWriterSvc
	RuleMatcherSvc
}
