package mapping

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/expensehub/expense_approval_app/internal/core/domain"
	"github.com/expensehub/expense_approval_app/internal/models"
)

// ToModelApprovalFlow converts a domain ApprovalFlow to a model ApprovalFlow,
// serializing steps and the voter list to jsonb payloads.
func ToModelApprovalFlow(d domain.ApprovalFlow) (models.ApprovalFlow, error) {
	steps, err := json.Marshal(d.Steps)
	if err != nil {
		return models.ApprovalFlow{}, fmt.Errorf("failed to marshal flow steps: %w", err)
	}
	approvers, err := json.Marshal(d.Approvers)
	if err != nil {
		return models.ApprovalFlow{}, fmt.Errorf("failed to marshal flow approvers: %w", err)
	}

	m := models.ApprovalFlow{
		FlowID:       d.FlowID,
		ExpenseID:    d.ExpenseID,
		RuleID:       d.RuleID,
		Mode:         string(d.Mode),
		CurrentLevel: d.CurrentLevel,
		TotalLevels:  d.TotalLevels,
		Approvers:    approvers,
		Status:       string(d.Status),
		Steps:        steps,
		StartedAt:    d.StartedAt,
		AuditFields:  ToModelAuditFields(d.AuditFields),
	}
	if d.PercentageThreshold != nil {
		m.PercentageThreshold = sql.NullInt32{Int32: int32(*d.PercentageThreshold), Valid: true}
	}
	if d.CompletedAt != nil {
		m.CompletedAt = sql.NullTime{Time: *d.CompletedAt, Valid: true}
	}
	return m, nil
}

// ToDomainApprovalFlow converts a model ApprovalFlow to a domain ApprovalFlow.
func ToDomainApprovalFlow(m models.ApprovalFlow) (domain.ApprovalFlow, error) {
	d := domain.ApprovalFlow{
		FlowID:       m.FlowID,
		ExpenseID:    m.ExpenseID,
		RuleID:       m.RuleID,
		Mode:         domain.RuleMode(m.Mode),
		CurrentLevel: m.CurrentLevel,
		TotalLevels:  m.TotalLevels,
		Status:       domain.FlowStatus(m.Status),
		StartedAt:    m.StartedAt,
		AuditFields:  ToDomainAuditFields(m.AuditFields),
	}
	if len(m.Steps) > 0 {
		if err := json.Unmarshal(m.Steps, &d.Steps); err != nil {
			return domain.ApprovalFlow{}, fmt.Errorf("failed to unmarshal steps for flow %s: %w", m.FlowID, err)
		}
	}
	if len(m.Approvers) > 0 {
		if err := json.Unmarshal(m.Approvers, &d.Approvers); err != nil {
			return domain.ApprovalFlow{}, fmt.Errorf("failed to unmarshal approvers for flow %s: %w", m.FlowID, err)
		}
	}
	if m.PercentageThreshold.Valid {
		threshold := int(m.PercentageThreshold.Int32)
		d.PercentageThreshold = &threshold
	}
	if m.CompletedAt.Valid {
		completedAt := m.CompletedAt.Time
		d.CompletedAt = &completedAt
	}
	return d, nil
}
