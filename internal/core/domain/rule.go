package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// RuleMode selects the approval strategy a rule's flows execute under.
type RuleMode string

const (
	// RuleModeSequential gates levels strictly in order; any rejection halts the flow.
	RuleModeSequential RuleMode = "SEQUENTIAL"
	// RuleModePercentage resolves on the fraction of eligible approvers who approved,
	// or immediately on a required approver's sign-off.
	RuleModePercentage RuleMode = "PERCENTAGE"
)

// ConditionField is the closed set of expense attributes a rule condition may test.
type ConditionField string

const (
	FieldAmount        ConditionField = "AMOUNT"
	FieldCategory      ConditionField = "CATEGORY"
	FieldDepartment    ConditionField = "DEPARTMENT"
	FieldEmployeeLevel ConditionField = "EMPLOYEE_LEVEL"
)

// ConditionOperator is the closed set of comparison operators.
type ConditionOperator string

const (
	OpEquals         ConditionOperator = "EQ"
	OpGreaterThan    ConditionOperator = "GT"
	OpLessThan       ConditionOperator = "LT"
	OpGreaterOrEqual ConditionOperator = "GTE"
	OpLessOrEqual    ConditionOperator = "LTE"
	OpInList         ConditionOperator = "IN"
)

// RuleCondition is one conjunct of a rule's predicate. The field tag determines
// which value slot is populated: Amount for AMOUNT conditions, Value for single
// string comparisons, Values for IN membership tests.
type RuleCondition struct {
	Field    ConditionField    `json:"field"`
	Operator ConditionOperator `json:"operator"`
	Amount   *decimal.Decimal  `json:"amount,omitempty"`
	Value    string            `json:"value,omitempty"`
	Values   []string          `json:"values,omitempty"`
}

// Validate rejects field/operator/value combinations outside the closed schema.
// Unrecognized shapes are caught here, at construction time, so they can never
// silently fail closed during matching.
func (c RuleCondition) Validate() error {
	switch c.Field {
	case FieldAmount:
		switch c.Operator {
		case OpEquals, OpGreaterThan, OpLessThan, OpGreaterOrEqual, OpLessOrEqual:
		default:
			return fmt.Errorf("operator %s not valid for field %s", c.Operator, c.Field)
		}
		if c.Amount == nil {
			return fmt.Errorf("amount condition requires a numeric value")
		}
	case FieldCategory, FieldDepartment, FieldEmployeeLevel:
		switch c.Operator {
		case OpEquals:
			if c.Value == "" {
				return fmt.Errorf("%s equality condition requires a value", c.Field)
			}
		case OpInList:
			if len(c.Values) == 0 {
				return fmt.Errorf("%s membership condition requires a non-empty list", c.Field)
			}
		default:
			return fmt.Errorf("operator %s not valid for field %s", c.Operator, c.Field)
		}
	default:
		return fmt.Errorf("unknown condition field %q", c.Field)
	}
	return nil
}

// ApprovalLevel is one gate in a sequential rule: RequiredCount distinct approvers
// holding any of Roles must approve before the next level opens.
type ApprovalLevel struct {
	Level         int        `json:"level"` // 1-based, contiguous
	Roles         []UserRole `json:"roles"`
	RequiredCount int        `json:"requiredCount"`
}

// AcceptsRole reports whether role satisfies this level's role set.
func (l ApprovalLevel) AcceptsRole(role UserRole) bool {
	for _, r := range l.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// RuleApprover is one eligible voter in a percentage-mode rule. A Required
// approver's approval resolves the flow immediately regardless of the threshold.
type RuleApprover struct {
	ApproverID string `json:"approverID"`
	Required   bool   `json:"required"`
}

// ApprovalRule is a prioritized, conditional policy mapping expense attributes
// to an approval strategy. Rules are copied into flows at flow creation time;
// later edits never affect a live flow.
type ApprovalRule struct {
	RuleID      string `json:"ruleID"` // Primary Key (UUID)
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	CompanyID   string `json:"companyID"`

	Mode       RuleMode        `json:"mode"`
	Conditions []RuleCondition `json:"conditions"` // Logical AND

	// Sequential mode
	Levels []ApprovalLevel `json:"levels,omitempty"`

	// Percentage mode
	Approvers           []RuleApprover `json:"approvers,omitempty"`
	PercentageThreshold *int           `json:"percentageThreshold,omitempty"` // 1..100

	Priority int  `json:"priority"` // Higher evaluated first
	Active   bool `json:"active"`
	AuditFields
}

// Validate checks structural invariants: well-formed conditions, and per-mode
// shape (contiguous 1-based levels for sequential, approvers plus a sane
// threshold for percentage).
func (r *ApprovalRule) Validate() error {
	for i, cond := range r.Conditions {
		if err := cond.Validate(); err != nil {
			return fmt.Errorf("condition %d: %w", i, err)
		}
	}

	switch r.Mode {
	case RuleModeSequential:
		if len(r.Levels) == 0 {
			return fmt.Errorf("sequential rule requires at least one approval level")
		}
		for i, lvl := range r.Levels {
			if lvl.Level != i+1 {
				return fmt.Errorf("approval levels must be contiguous starting at 1, got %d at position %d", lvl.Level, i)
			}
			if len(lvl.Roles) == 0 {
				return fmt.Errorf("level %d has no accepted roles", lvl.Level)
			}
			if lvl.RequiredCount < 1 {
				return fmt.Errorf("level %d requires a positive approver count", lvl.Level)
			}
		}
	case RuleModePercentage:
		if len(r.Approvers) == 0 {
			return fmt.Errorf("percentage rule requires at least one eligible approver")
		}
		if r.PercentageThreshold == nil || *r.PercentageThreshold < 1 || *r.PercentageThreshold > 100 {
			return fmt.Errorf("percentage rule requires a threshold between 1 and 100")
		}
		seen := make(map[string]bool, len(r.Approvers))
		for _, a := range r.Approvers {
			if seen[a.ApproverID] {
				return fmt.Errorf("duplicate approver %s in percentage rule", a.ApproverID)
			}
			seen[a.ApproverID] = true
		}
	default:
		return fmt.Errorf("unknown rule mode %q", r.Mode)
	}
	return nil
}
