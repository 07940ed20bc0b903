package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// Expense is the database representation of an expense. Attachments are stored
// as a jsonb array of URL strings; lines and approval records live in their
// own tables.
type Expense struct {
	ExpenseID        string          `db:"expense_id"`
	RequesterID      string          `db:"requester_id"`
	RequesterName    string          `db:"requester_name"`
	CompanyID        string          `db:"company_id"`
	Amount           decimal.Decimal `db:"amount"`
	CurrencyCode     string          `db:"currency_code"`
	ConvertedAmount  decimal.Decimal `db:"converted_amount"`
	BaseCurrencyCode string          `db:"base_currency_code"`
	Category         string          `db:"category"`
	Description      string          `db:"description"`
	ExpenseDate      time.Time       `db:"expense_date"`
	PaidBy           sql.NullString  `db:"paid_by"`
	Attachments      []byte          `db:"attachments"` // jsonb
	Status           string          `db:"status"`
	SubmittedAt      sql.NullTime    `db:"submitted_at"`
	AuditFields
}

// ExpenseLine is the database representation of one itemization entry.
type ExpenseLine struct {
	LineID          string          `db:"line_id"`
	ExpenseID       string          `db:"expense_id"`
	ItemDescription string          `db:"item_description"`
	Amount          decimal.Decimal `db:"amount"`
}

// ApprovalRecord is the database representation of one approval history entry.
type ApprovalRecord struct {
	RecordID     string         `db:"record_id"`
	ExpenseID    string         `db:"expense_id"`
	ApproverID   string         `db:"approver_id"`
	ApproverName string         `db:"approver_name"`
	ApproverRole string         `db:"approver_role"`
	Level        int            `db:"level"`
	Action       string         `db:"action"`
	Comments     sql.NullString `db:"comments"`
	ActedAt      time.Time      `db:"acted_at"`
}
