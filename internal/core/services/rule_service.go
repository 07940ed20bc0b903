package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/expensehub/expense_approval_app/internal/apperrors"
	"github.com/expensehub/expense_approval_app/internal/core/domain"
	portsrepo "github.com/expensehub/expense_approval_app/internal/core/ports/repositories"
	portssvc "github.com/expensehub/expense_approval_app/internal/core/ports/services"
	"github.com/expensehub/expense_approval_app/internal/dto"
	"github.com/expensehub/expense_approval_app/internal/middleware"
)

var (
	// ErrNoMatchingRule is returned when no active rule's conditions hold for an expense.
	ErrNoMatchingRule = errors.New("no active approval rule matches the expense")
	// ErrDirectoryRequired is returned when a rule uses organizational conditions
	// but the engine has no employee directory to evaluate them against.
	ErrDirectoryRequired = errors.New("department and employee-level conditions require an employee directory")
)

// ruleService implements the approval rule engine: prioritized first-match-wins
// evaluation plus rule administration.
type ruleService struct {
	ruleRepo  portsrepo.RuleRepositoryFacade
	directory portssvc.EmployeeDirectory // nil when no organizational data source is wired
}

// RuleServiceOption configures optional rule service dependencies.
type RuleServiceOption func(*ruleService)

// WithEmployeeDirectory wires an organizational data source, enabling
// DEPARTMENT and EMPLOYEE_LEVEL rule conditions.
func WithEmployeeDirectory(d portssvc.EmployeeDirectory) RuleServiceOption {
	return func(s *ruleService) {
		s.directory = d
	}
}

// NewRuleService creates a new rule engine service.
func NewRuleService(ruleRepo portsrepo.RuleRepositoryFacade, opts ...RuleServiceOption) portssvc.RuleSvcFacade {
	s := &ruleService{ruleRepo: ruleRepo}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ portssvc.RuleSvcFacade = (*ruleService)(nil)

// CreateRule validates and persists a new approval rule.
func (s *ruleService) CreateRule(ctx context.Context, companyID string, req dto.CreateRuleRequest, creatorUserID string) (*domain.ApprovalRule, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	mode := domain.RuleModeSequential
	if req.Mode != "" {
		mode = domain.RuleMode(req.Mode)
	}

	conditions := make([]domain.RuleCondition, len(req.Conditions))
	for i, c := range req.Conditions {
		conditions[i] = c.ToDomain()
	}
	levels := make([]domain.ApprovalLevel, len(req.Levels))
	for i, l := range req.Levels {
		levels[i] = l.ToDomain()
	}
	approvers := make([]domain.RuleApprover, len(req.Approvers))
	for i, a := range req.Approvers {
		approvers[i] = domain.RuleApprover{ApproverID: a.ApproverID, Required: a.Required}
	}

	now := time.Now()
	rule := domain.ApprovalRule{
		RuleID:              uuid.NewString(),
		Name:                req.Name,
		Description:         req.Description,
		CompanyID:           companyID,
		Mode:                mode,
		Conditions:          conditions,
		Levels:              levels,
		Approvers:           approvers,
		PercentageThreshold: req.PercentageThreshold,
		Priority:            req.Priority,
		Active:              true,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	if err := s.validateRule(&rule); err != nil {
		return nil, err
	}

	if err := s.ruleRepo.SaveRule(ctx, rule); err != nil {
		logger.Error("Failed to save approval rule", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to save approval rule: %w", err)
	}

	logger.Info("Approval rule created", slog.String("rule_id", rule.RuleID), slog.String("mode", string(rule.Mode)))
	return &rule, nil
}

// validateRule applies structural validation plus the directory requirement for
// organizational conditions.
func (s *ruleService) validateRule(rule *domain.ApprovalRule) error {
	if err := rule.Validate(); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	if s.directory == nil {
		for _, c := range rule.Conditions {
			if c.Field == domain.FieldDepartment || c.Field == domain.FieldEmployeeLevel {
				return fmt.Errorf("%w: %v", apperrors.ErrValidation, ErrDirectoryRequired)
			}
		}
	}
	return nil
}

// GetRuleByID retrieves a rule, active or not.
func (s *ruleService) GetRuleByID(ctx context.Context, companyID string, ruleID string) (*domain.ApprovalRule, error) {
	rule, err := s.ruleRepo.FindRuleByID(ctx, ruleID)
	if err != nil {
		return nil, err
	}
	if rule.CompanyID != companyID {
		return nil, apperrors.ErrNotFound
	}
	return rule, nil
}

// ListRules retrieves all rules for a company in priority order, inactive included.
func (s *ruleService) ListRules(ctx context.Context, companyID string) ([]domain.ApprovalRule, error) {
	return s.ruleRepo.ListRulesByCompany(ctx, companyID)
}

// UpdateRule merges the given fields into an existing rule and revalidates it.
func (s *ruleService) UpdateRule(ctx context.Context, companyID string, ruleID string, req dto.UpdateRuleRequest, updaterUserID string) (*domain.ApprovalRule, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	rule, err := s.GetRuleByID(ctx, companyID, ruleID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		rule.Name = *req.Name
	}
	if req.Description != nil {
		rule.Description = *req.Description
	}
	if req.Conditions != nil {
		conditions := make([]domain.RuleCondition, len(*req.Conditions))
		for i, c := range *req.Conditions {
			conditions[i] = c.ToDomain()
		}
		rule.Conditions = conditions
	}
	if req.Levels != nil {
		levels := make([]domain.ApprovalLevel, len(*req.Levels))
		for i, l := range *req.Levels {
			levels[i] = l.ToDomain()
		}
		rule.Levels = levels
	}
	if req.Approvers != nil {
		approvers := make([]domain.RuleApprover, len(*req.Approvers))
		for i, a := range *req.Approvers {
			approvers[i] = domain.RuleApprover{ApproverID: a.ApproverID, Required: a.Required}
		}
		rule.Approvers = approvers
	}
	if req.PercentageThreshold != nil {
		rule.PercentageThreshold = req.PercentageThreshold
	}
	if req.Priority != nil {
		rule.Priority = *req.Priority
	}
	if req.Active != nil {
		rule.Active = *req.Active
	}
	rule.LastUpdatedAt = time.Now()
	rule.LastUpdatedBy = updaterUserID

	if err := s.validateRule(rule); err != nil {
		return nil, err
	}

	if err := s.ruleRepo.UpdateRule(ctx, *rule); err != nil {
		logger.Error("Failed to update approval rule", slog.String("rule_id", ruleID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to update approval rule: %w", err)
	}

	return rule, nil
}

// DeactivateRule soft-disables a rule. It stops matching new submissions but
// remains addressable for flows already bound to it.
func (s *ruleService) DeactivateRule(ctx context.Context, companyID string, ruleID string, updaterUserID string) error {
	inactive := false
	_, err := s.UpdateRule(ctx, companyID, ruleID, dto.UpdateRuleRequest{Active: &inactive}, updaterUserID)
	return err
}

// FindMatchingRule scans the company's active rules in priority order (stable
// tie-break by creation order) and returns the first whose conditions all hold.
func (s *ruleService) FindMatchingRule(ctx context.Context, expense *domain.Expense) (*domain.ApprovalRule, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	rules, err := s.ruleRepo.ListRulesByCompany(ctx, expense.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list approval rules: %w", err)
	}

	// Organizational data is looked up at most once per match, and only when
	// some rule actually carries a DEPARTMENT or EMPLOYEE_LEVEL condition.
	var profile *portssvc.EmployeeProfile

	for i := range rules {
		rule := &rules[i]
		if !rule.Active {
			continue
		}

		matched := true
		for _, cond := range rule.Conditions {
			if profile == nil && s.directory != nil &&
				(cond.Field == domain.FieldDepartment || cond.Field == domain.FieldEmployeeLevel) {
				profile, err = s.directory.LookupEmployee(ctx, expense.RequesterID)
				if err != nil {
					return nil, fmt.Errorf("failed to look up employee %s: %w", expense.RequesterID, err)
				}
			}
			if !conditionHolds(cond, expense, profile) {
				matched = false
				break
			}
		}
		if matched {
			logger.Info("Matched approval rule",
				slog.String("rule_id", rule.RuleID),
				slog.String("rule_name", rule.Name),
				slog.Int("priority", rule.Priority),
			)
			return rule, nil
		}
	}

	return nil, ErrNoMatchingRule
}

// conditionHolds evaluates a single condition against the expense. Conditions
// with shapes outside the closed schema fail closed: construction-time
// validation should make that unreachable, but stored data is not trusted.
func conditionHolds(cond domain.RuleCondition, expense *domain.Expense, profile *portssvc.EmployeeProfile) bool {
	switch cond.Field {
	case domain.FieldAmount:
		if cond.Amount == nil {
			return false
		}
		// Thresholds compare against the normalized base-currency amount.
		amount := expense.ConvertedAmount
		switch cond.Operator {
		case domain.OpEquals:
			return amount.Equal(*cond.Amount)
		case domain.OpGreaterThan:
			return amount.GreaterThan(*cond.Amount)
		case domain.OpLessThan:
			return amount.LessThan(*cond.Amount)
		case domain.OpGreaterOrEqual:
			return amount.GreaterThanOrEqual(*cond.Amount)
		case domain.OpLessOrEqual:
			return amount.LessThanOrEqual(*cond.Amount)
		}
		return false
	case domain.FieldCategory:
		return stringConditionHolds(cond, string(expense.Category))
	case domain.FieldDepartment:
		if profile == nil {
			return false
		}
		return stringConditionHolds(cond, profile.Department)
	case domain.FieldEmployeeLevel:
		if profile == nil {
			return false
		}
		return stringConditionHolds(cond, profile.EmployeeLevel)
	}
	return false
}

func stringConditionHolds(cond domain.RuleCondition, actual string) bool {
	switch cond.Operator {
	case domain.OpEquals:
		return strings.EqualFold(actual, cond.Value)
	case domain.OpInList:
		for _, v := range cond.Values {
			if strings.EqualFold(actual, v) {
				return true
			}
		}
		return false
	}
	return false
}
