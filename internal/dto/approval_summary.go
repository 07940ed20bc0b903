package dto

import "github.com/expensehub/expense_approval_app/internal/core/domain"

// StepSummary is the per-level projection of a flow's progress.
type StepSummary struct {
	Level         int               `json:"level"`
	Roles         []domain.UserRole `json:"roles"`
	Required      int               `json:"required"`
	ApprovedCount int               `json:"approvedCount"`
	Status        domain.StepStatus `json:"status"`
}

// ApprovalSummary is a read-only projection of a flow for UI and reporting.
type ApprovalSummary struct {
	FlowID       string            `json:"flowID"`
	ExpenseID    string            `json:"expenseID"`
	Mode         domain.RuleMode   `json:"mode"`
	CurrentLevel int               `json:"currentLevel"`
	TotalLevels  int               `json:"totalLevels"`
	Status       domain.FlowStatus `json:"status"`
	Steps        []StepSummary     `json:"steps"`
}

// ToApprovalSummary projects a flow into its summary form. Derived counts are
// computed from each step's actions list, never stored separately.
func ToApprovalSummary(f *domain.ApprovalFlow) *ApprovalSummary {
	steps := make([]StepSummary, len(f.Steps))
	for i := range f.Steps {
		st := &f.Steps[i]
		steps[i] = StepSummary{
			Level:         st.Level,
			Roles:         st.Roles,
			Required:      st.RequiredCount,
			ApprovedCount: st.ApprovedCount(),
			Status:        st.Status,
		}
	}
	return &ApprovalSummary{
		FlowID:       f.FlowID,
		ExpenseID:    f.ExpenseID,
		Mode:         f.Mode,
		CurrentLevel: f.CurrentLevel,
		TotalLevels:  f.TotalLevels,
		Status:       f.Status,
		Steps:        steps,
	}
}
