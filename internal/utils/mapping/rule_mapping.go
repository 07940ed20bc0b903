package mapping

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/expensehub/expense_approval_app/internal/core/domain"
	"github.com/expensehub/expense_approval_app/internal/models"
)

// ToModelApprovalRule converts a domain ApprovalRule to a model ApprovalRule,
// serializing the structured parts to jsonb payloads.
func ToModelApprovalRule(d domain.ApprovalRule) (models.ApprovalRule, error) {
	conditions, err := json.Marshal(d.Conditions)
	if err != nil {
		return models.ApprovalRule{}, fmt.Errorf("failed to marshal rule conditions: %w", err)
	}
	levels, err := json.Marshal(d.Levels)
	if err != nil {
		return models.ApprovalRule{}, fmt.Errorf("failed to marshal rule levels: %w", err)
	}
	approvers, err := json.Marshal(d.Approvers)
	if err != nil {
		return models.ApprovalRule{}, fmt.Errorf("failed to marshal rule approvers: %w", err)
	}

	m := models.ApprovalRule{
		RuleID:      d.RuleID,
		Name:        d.Name,
		Description: nullString(d.Description),
		CompanyID:   d.CompanyID,
		Mode:        string(d.Mode),
		Conditions:  conditions,
		Levels:      levels,
		Approvers:   approvers,
		Priority:    d.Priority,
		Active:      d.Active,
		AuditFields: ToModelAuditFields(d.AuditFields),
	}
	if d.PercentageThreshold != nil {
		m.PercentageThreshold = sql.NullInt32{Int32: int32(*d.PercentageThreshold), Valid: true}
	}
	return m, nil
}

// ToDomainApprovalRule converts a model ApprovalRule to a domain ApprovalRule.
func ToDomainApprovalRule(m models.ApprovalRule) (domain.ApprovalRule, error) {
	d := domain.ApprovalRule{
		RuleID:      m.RuleID,
		Name:        m.Name,
		Description: m.Description.String,
		CompanyID:   m.CompanyID,
		Mode:        domain.RuleMode(m.Mode),
		Priority:    m.Priority,
		Active:      m.Active,
		AuditFields: ToDomainAuditFields(m.AuditFields),
	}
	if len(m.Conditions) > 0 {
		if err := json.Unmarshal(m.Conditions, &d.Conditions); err != nil {
			return domain.ApprovalRule{}, fmt.Errorf("failed to unmarshal conditions for rule %s: %w", m.RuleID, err)
		}
	}
	if len(m.Levels) > 0 {
		if err := json.Unmarshal(m.Levels, &d.Levels); err != nil {
			return domain.ApprovalRule{}, fmt.Errorf("failed to unmarshal levels for rule %s: %w", m.RuleID, err)
		}
	}
	if len(m.Approvers) > 0 {
		if err := json.Unmarshal(m.Approvers, &d.Approvers); err != nil {
			return domain.ApprovalRule{}, fmt.Errorf("failed to unmarshal approvers for rule %s: %w", m.RuleID, err)
		}
	}
	if m.PercentageThreshold.Valid {
		threshold := int(m.PercentageThreshold.Int32)
		d.PercentageThreshold = &threshold
	}
	return d, nil
}
