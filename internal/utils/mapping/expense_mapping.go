package mapping

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/expensehub/expense_approval_app/internal/core/domain"
	"github.com/expensehub/expense_approval_app/internal/models"
)

// ToModelExpense converts a domain Expense to a model Expense. Lines and
// approval records map separately since they live in their own tables.
func ToModelExpense(d domain.Expense) (models.Expense, error) {
	var attachments []byte
	if len(d.Attachments) > 0 {
		var err error
		attachments, err = json.Marshal(d.Attachments)
		if err != nil {
			return models.Expense{}, fmt.Errorf("failed to marshal attachments: %w", err)
		}
	}
	m := models.Expense{
		ExpenseID:        d.ExpenseID,
		RequesterID:      d.RequesterID,
		RequesterName:    d.RequesterName,
		CompanyID:        d.CompanyID,
		Amount:           d.Amount,
		CurrencyCode:     d.CurrencyCode,
		ConvertedAmount:  d.ConvertedAmount,
		BaseCurrencyCode: d.BaseCurrencyCode,
		Category:         string(d.Category),
		Description:      d.Description,
		ExpenseDate:      d.ExpenseDate,
		PaidBy:           nullString(d.PaidBy),
		Attachments:      attachments,
		Status:           string(d.Status),
		AuditFields:      ToModelAuditFields(d.AuditFields),
	}
	if d.SubmittedAt != nil {
		m.SubmittedAt = sql.NullTime{Time: *d.SubmittedAt, Valid: true}
	}
	return m, nil
}

// ToDomainExpense converts a model Expense to a domain Expense.
func ToDomainExpense(m models.Expense) (domain.Expense, error) {
	var attachments []string
	if len(m.Attachments) > 0 {
		if err := json.Unmarshal(m.Attachments, &attachments); err != nil {
			return domain.Expense{}, fmt.Errorf("failed to unmarshal attachments for expense %s: %w", m.ExpenseID, err)
		}
	}
	d := domain.Expense{
		ExpenseID:        m.ExpenseID,
		RequesterID:      m.RequesterID,
		RequesterName:    m.RequesterName,
		CompanyID:        m.CompanyID,
		Amount:           m.Amount,
		CurrencyCode:     m.CurrencyCode,
		ConvertedAmount:  m.ConvertedAmount,
		BaseCurrencyCode: m.BaseCurrencyCode,
		Category:         domain.ExpenseCategory(m.Category),
		Description:      m.Description,
		ExpenseDate:      m.ExpenseDate,
		PaidBy:           m.PaidBy.String,
		Attachments:      attachments,
		Status:           domain.ExpenseStatus(m.Status),
		AuditFields:      ToDomainAuditFields(m.AuditFields),
	}
	if m.SubmittedAt.Valid {
		submittedAt := m.SubmittedAt.Time
		d.SubmittedAt = &submittedAt
	}
	return d, nil
}

// ToModelExpenseLine converts a domain ExpenseLine to a model ExpenseLine
func ToModelExpenseLine(d domain.ExpenseLine) models.ExpenseLine {
	return models.ExpenseLine{
		LineID:          d.LineID,
		ExpenseID:       d.ExpenseID,
		ItemDescription: d.ItemDescription,
		Amount:          d.Amount,
	}
}

// ToDomainExpenseLine converts a model ExpenseLine to a domain ExpenseLine
func ToDomainExpenseLine(m models.ExpenseLine) domain.ExpenseLine {
	return domain.ExpenseLine{
		LineID:          m.LineID,
		ExpenseID:       m.ExpenseID,
		ItemDescription: m.ItemDescription,
		Amount:          m.Amount,
	}
}

// ToModelApprovalRecord converts a domain ApprovalRecord to its model form
func ToModelApprovalRecord(d domain.ApprovalRecord) models.ApprovalRecord {
	return models.ApprovalRecord{
		RecordID:     d.RecordID,
		ExpenseID:    d.ExpenseID,
		ApproverID:   d.ApproverID,
		ApproverName: d.ApproverName,
		ApproverRole: string(d.ApproverRole),
		Level:        d.Level,
		Action:       string(d.Action),
		Comments:     nullString(d.Comments),
		ActedAt:      d.ActedAt,
	}
}

// ToDomainApprovalRecord converts a model ApprovalRecord to its domain form
func ToDomainApprovalRecord(m models.ApprovalRecord) domain.ApprovalRecord {
	return domain.ApprovalRecord{
		RecordID:     m.RecordID,
		ExpenseID:    m.ExpenseID,
		ApproverID:   m.ApproverID,
		ApproverName: m.ApproverName,
		ApproverRole: domain.UserRole(m.ApproverRole),
		Level:        m.Level,
		Action:       domain.ApprovalAction(m.Action),
		Comments:     m.Comments.String,
		ActedAt:      m.ActedAt,
	}
}
