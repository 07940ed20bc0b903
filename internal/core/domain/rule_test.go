package domain_test

import (
	"testing"

	"github.com/expensehub/expense_approval_app/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func decimalPtr(d decimal.Decimal) *decimal.Decimal { return &d }
func intPtr(i int) *int                             { return &i }

func TestRuleCondition_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cond    domain.RuleCondition
		wantErr bool
	}{
		{
			name: "amount greater-than",
			cond: domain.RuleCondition{
				Field:    domain.FieldAmount,
				Operator: domain.OpGreaterThan,
				Amount:   decimalPtr(decimal.NewFromInt(1000)),
			},
			wantErr: false,
		},
		{
			name: "amount condition missing numeric value",
			cond: domain.RuleCondition{
				Field:    domain.FieldAmount,
				Operator: domain.OpLessThan,
			},
			wantErr: true,
		},
		{
			name: "amount with list operator",
			cond: domain.RuleCondition{
				Field:    domain.FieldAmount,
				Operator: domain.OpInList,
				Amount:   decimalPtr(decimal.NewFromInt(5)),
			},
			wantErr: true,
		},
		{
			name: "category equality",
			cond: domain.RuleCondition{
				Field:    domain.FieldCategory,
				Operator: domain.OpEquals,
				Value:    string(domain.CategoryTravel),
			},
			wantErr: false,
		},
		{
			name: "category membership",
			cond: domain.RuleCondition{
				Field:    domain.FieldCategory,
				Operator: domain.OpInList,
				Values:   []string{string(domain.CategoryTravel), string(domain.CategoryMeals)},
			},
			wantErr: false,
		},
		{
			name: "category with inequality operator",
			cond: domain.RuleCondition{
				Field:    domain.FieldCategory,
				Operator: domain.OpGreaterThan,
				Value:    string(domain.CategoryTravel),
			},
			wantErr: true,
		},
		{
			name: "membership with empty list",
			cond: domain.RuleCondition{
				Field:    domain.FieldDepartment,
				Operator: domain.OpInList,
			},
			wantErr: true,
		},
		{
			name: "unknown field",
			cond: domain.RuleCondition{
				Field:    domain.ConditionField("COST_CENTER"),
				Operator: domain.OpEquals,
				Value:    "R&D",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cond.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestApprovalRule_Validate(t *testing.T) {
	tests := []struct {
		name    string
		rule    domain.ApprovalRule
		wantErr bool
	}{
		{
			name: "sequential rule with contiguous levels",
			rule: domain.ApprovalRule{
				Mode: domain.RuleModeSequential,
				Levels: []domain.ApprovalLevel{
					{Level: 1, Roles: []domain.UserRole{domain.RoleManager}, RequiredCount: 1},
					{Level: 2, Roles: []domain.UserRole{domain.RoleDirector}, RequiredCount: 1},
				},
			},
			wantErr: false,
		},
		{
			name: "sequential rule with level gap",
			rule: domain.ApprovalRule{
				Mode: domain.RuleModeSequential,
				Levels: []domain.ApprovalLevel{
					{Level: 1, Roles: []domain.UserRole{domain.RoleManager}, RequiredCount: 1},
					{Level: 3, Roles: []domain.UserRole{domain.RoleDirector}, RequiredCount: 1},
				},
			},
			wantErr: true,
		},
		{
			name: "sequential rule with no levels",
			rule: domain.ApprovalRule{
				Mode: domain.RuleModeSequential,
			},
			wantErr: true,
		},
		{
			name: "sequential level with zero required count",
			rule: domain.ApprovalRule{
				Mode: domain.RuleModeSequential,
				Levels: []domain.ApprovalLevel{
					{Level: 1, Roles: []domain.UserRole{domain.RoleManager}, RequiredCount: 0},
				},
			},
			wantErr: true,
		},
		{
			name: "percentage rule",
			rule: domain.ApprovalRule{
				Mode:                domain.RuleModePercentage,
				Approvers:           []domain.RuleApprover{{ApproverID: "u1"}, {ApproverID: "u2", Required: true}},
				PercentageThreshold: intPtr(60),
			},
			wantErr: false,
		},
		{
			name: "percentage rule without threshold",
			rule: domain.ApprovalRule{
				Mode:      domain.RuleModePercentage,
				Approvers: []domain.RuleApprover{{ApproverID: "u1"}},
			},
			wantErr: true,
		},
		{
			name: "percentage rule with threshold out of range",
			rule: domain.ApprovalRule{
				Mode:                domain.RuleModePercentage,
				Approvers:           []domain.RuleApprover{{ApproverID: "u1"}},
				PercentageThreshold: intPtr(120),
			},
			wantErr: true,
		},
		{
			name: "percentage rule with duplicate approver",
			rule: domain.ApprovalRule{
				Mode:                domain.RuleModePercentage,
				Approvers:           []domain.RuleApprover{{ApproverID: "u1"}, {ApproverID: "u1"}},
				PercentageThreshold: intPtr(50),
			},
			wantErr: true,
		},
		{
			name: "unknown mode",
			rule: domain.ApprovalRule{
				Mode: domain.RuleMode("ROUND_ROBIN"),
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rule.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestExpenseStatus_IsTerminal(t *testing.T) {
	assert.False(t, domain.ExpenseDraft.IsTerminal())
	assert.False(t, domain.ExpensePending.IsTerminal())
	assert.True(t, domain.ExpenseApproved.IsTerminal())
	assert.True(t, domain.ExpenseRejected.IsTerminal())
	assert.True(t, domain.ExpenseCancelled.IsTerminal())
}
