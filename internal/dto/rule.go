package dto

import (
	"time"

	"github.com/expensehub/expense_approval_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// RuleConditionInput is one condition on a new or updated rule.
type RuleConditionInput struct {
	Field    string           `json:"field" binding:"required,oneof=AMOUNT CATEGORY DEPARTMENT EMPLOYEE_LEVEL"`
	Operator string           `json:"operator" binding:"required,oneof=EQ GT LT GTE LTE IN"`
	Amount   *decimal.Decimal `json:"amount,omitempty"`
	Value    string           `json:"value,omitempty"`
	Values   []string         `json:"values,omitempty"`
}

// ToDomain converts the input into its domain representation.
func (c RuleConditionInput) ToDomain() domain.RuleCondition {
	return domain.RuleCondition{
		Field:    domain.ConditionField(c.Field),
		Operator: domain.ConditionOperator(c.Operator),
		Amount:   c.Amount,
		Value:    c.Value,
		Values:   c.Values,
	}
}

// ApprovalLevelInput is one gate of a sequential rule.
type ApprovalLevelInput struct {
	Level         int      `json:"level" binding:"required,min=1"`
	Roles         []string `json:"roles" binding:"required,min=1,dive,oneof=ADMIN EMPLOYEE MANAGER DIRECTOR VP CFO"`
	RequiredCount int      `json:"requiredCount" binding:"required,min=1"`
}

// ToDomain converts the input into its domain representation.
func (l ApprovalLevelInput) ToDomain() domain.ApprovalLevel {
	roles := make([]domain.UserRole, len(l.Roles))
	for i, r := range l.Roles {
		roles[i] = domain.UserRole(r)
	}
	return domain.ApprovalLevel{Level: l.Level, Roles: roles, RequiredCount: l.RequiredCount}
}

// RuleApproverInput is one eligible voter of a percentage rule.
type RuleApproverInput struct {
	ApproverID string `json:"approverID" binding:"required,uuid"`
	Required   bool   `json:"required"`
}

// CreateRuleRequest defines the data needed to create an approval rule.
// Mode defaults to SEQUENTIAL when omitted.
type CreateRuleRequest struct {
	Name                string               `json:"name" binding:"required"`
	Description         string               `json:"description,omitempty"`
	Mode                string               `json:"mode,omitempty" binding:"omitempty,oneof=SEQUENTIAL PERCENTAGE"`
	Conditions          []RuleConditionInput `json:"conditions" binding:"omitempty,dive"`
	Levels              []ApprovalLevelInput `json:"levels,omitempty" binding:"omitempty,dive"`
	Approvers           []RuleApproverInput  `json:"approvers,omitempty" binding:"omitempty,dive"`
	PercentageThreshold *int                 `json:"percentageThreshold,omitempty" binding:"omitempty,min=1,max=100"`
	Priority            int                  `json:"priority"`
}

// UpdateRuleRequest defines the fields that may be merged into a rule.
// Omitted fields are left untouched.
type UpdateRuleRequest struct {
	Name                *string               `json:"name,omitempty"`
	Description         *string               `json:"description,omitempty"`
	Conditions          *[]RuleConditionInput `json:"conditions,omitempty" binding:"omitempty,dive"`
	Levels              *[]ApprovalLevelInput `json:"levels,omitempty" binding:"omitempty,dive"`
	Approvers           *[]RuleApproverInput  `json:"approvers,omitempty" binding:"omitempty,dive"`
	PercentageThreshold *int                  `json:"percentageThreshold,omitempty" binding:"omitempty,min=1,max=100"`
	Priority            *int                  `json:"priority,omitempty"`
	Active              *bool                 `json:"active,omitempty"`
}

// RuleConditionResponse mirrors a stored rule condition.
type RuleConditionResponse struct {
	Field    domain.ConditionField    `json:"field"`
	Operator domain.ConditionOperator `json:"operator"`
	Amount   *decimal.Decimal         `json:"amount,omitempty"`
	Value    string                   `json:"value,omitempty"`
	Values   []string                 `json:"values,omitempty"`
}

// ApprovalLevelResponse mirrors a stored approval level.
type ApprovalLevelResponse struct {
	Level         int               `json:"level"`
	Roles         []domain.UserRole `json:"roles"`
	RequiredCount int               `json:"requiredCount"`
}

// RuleApproverResponse mirrors a stored percentage-mode approver.
type RuleApproverResponse struct {
	ApproverID string `json:"approverID"`
	Required   bool   `json:"required"`
}

// RuleResponse defines the data returned for an approval rule.
type RuleResponse struct {
	RuleID              string                  `json:"ruleID"`
	Name                string                  `json:"name"`
	Description         string                  `json:"description,omitempty"`
	CompanyID           string                  `json:"companyID"`
	Mode                domain.RuleMode         `json:"mode"`
	Conditions          []RuleConditionResponse `json:"conditions"`
	Levels              []ApprovalLevelResponse `json:"levels,omitempty"`
	Approvers           []RuleApproverResponse  `json:"approvers,omitempty"`
	PercentageThreshold *int                    `json:"percentageThreshold,omitempty"`
	Priority            int                     `json:"priority"`
	Active              bool                    `json:"active"`
	CreatedAt           time.Time               `json:"createdAt"`
	LastUpdatedAt       time.Time               `json:"lastUpdatedAt"`
}

// ToRuleResponse converts a domain.ApprovalRule to RuleResponse DTO
func ToRuleResponse(r *domain.ApprovalRule) RuleResponse {
	conds := make([]RuleConditionResponse, len(r.Conditions))
	for i, c := range r.Conditions {
		conds[i] = RuleConditionResponse{
			Field:    c.Field,
			Operator: c.Operator,
			Amount:   c.Amount,
			Value:    c.Value,
			Values:   c.Values,
		}
	}
	levels := make([]ApprovalLevelResponse, len(r.Levels))
	for i, l := range r.Levels {
		levels[i] = ApprovalLevelResponse{Level: l.Level, Roles: l.Roles, RequiredCount: l.RequiredCount}
	}
	approvers := make([]RuleApproverResponse, len(r.Approvers))
	for i, a := range r.Approvers {
		approvers[i] = RuleApproverResponse{ApproverID: a.ApproverID, Required: a.Required}
	}
	return RuleResponse{
		RuleID:              r.RuleID,
		Name:                r.Name,
		Description:         r.Description,
		CompanyID:           r.CompanyID,
		Mode:                r.Mode,
		Conditions:          conds,
		Levels:              levels,
		Approvers:           approvers,
		PercentageThreshold: r.PercentageThreshold,
		Priority:            r.Priority,
		Active:              r.Active,
		CreatedAt:           r.CreatedAt,
		LastUpdatedAt:       r.LastUpdatedAt,
	}
}

// ToListRuleResponse converts a slice of domain.ApprovalRule to RuleResponse DTOs
func ToListRuleResponse(rules []domain.ApprovalRule) []RuleResponse {
	res := make([]RuleResponse, len(rules))
	for i := range rules {
		res[i] = ToRuleResponse(&rules[i])
	}
	return res
}
