package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExpenseStatus indicates where an expense is in its lifecycle.
type ExpenseStatus string

const (
	ExpenseDraft     ExpenseStatus = "DRAFT"
	ExpensePending   ExpenseStatus = "PENDING"
	ExpenseApproved  ExpenseStatus = "APPROVED"
	ExpenseRejected  ExpenseStatus = "REJECTED"
	ExpenseCancelled ExpenseStatus = "CANCELLED"
)

// IsTerminal reports whether no further status transition is allowed.
func (s ExpenseStatus) IsTerminal() bool {
	return s == ExpenseApproved || s == ExpenseRejected || s == ExpenseCancelled
}

// ExpenseCategory is the closed set of expense classifications.
type ExpenseCategory string

const (
	CategoryTravel         ExpenseCategory = "TRAVEL"
	CategoryMeals          ExpenseCategory = "MEALS"
	CategoryOfficeSupplies ExpenseCategory = "OFFICE_SUPPLIES"
	CategoryEquipment      ExpenseCategory = "EQUIPMENT"
	CategoryTraining       ExpenseCategory = "TRAINING"
	CategoryOther          ExpenseCategory = "OTHER"
)

// ValidCategory reports whether c is a member of the closed category set.
func ValidCategory(c ExpenseCategory) bool {
	switch c {
	case CategoryTravel, CategoryMeals, CategoryOfficeSupplies, CategoryEquipment, CategoryTraining, CategoryOther:
		return true
	}
	return false
}

// ApprovalAction is a single approver's verdict.
type ApprovalAction string

const (
	ActionApproved ApprovalAction = "APPROVED"
	ActionRejected ApprovalAction = "REJECTED"
)

// ExpenseLine is an optional itemization entry within an expense.
type ExpenseLine struct {
	LineID          string          `json:"lineID"` // Primary Key (UUID)
	ExpenseID       string          `json:"expenseID"`
	ItemDescription string          `json:"itemDescription"`
	Amount          decimal.Decimal `json:"amount"`
}

// ApprovalRecord is one approver action in an expense's append-only history.
// Level is the flow step's level captured at the time the action was validated,
// before any level advancement.
type ApprovalRecord struct {
	RecordID     string         `json:"recordID"` // Primary Key (UUID)
	ExpenseID    string         `json:"expenseID"`
	ApproverID   string         `json:"approverID"`
	ApproverName string         `json:"approverName"`
	ApproverRole UserRole       `json:"approverRole"`
	Level        int            `json:"level"`
	Action       ApprovalAction `json:"action"`
	Comments     string         `json:"comments,omitempty"`
	ActedAt      time.Time      `json:"actedAt"`
}

// Expense represents a single reimbursement request.
type Expense struct {
	ExpenseID     string `json:"expenseID"` // Primary Key (UUID)
	RequesterID   string `json:"requesterID"`
	RequesterName string `json:"requesterName"`
	CompanyID     string `json:"companyID"`

	Amount           decimal.Decimal `json:"amount"`
	CurrencyCode     string          `json:"currencyCode"`
	ConvertedAmount  decimal.Decimal `json:"convertedAmount"` // Amount in the company base currency
	BaseCurrencyCode string          `json:"baseCurrencyCode"`

	Category    ExpenseCategory `json:"category"`
	Description string          `json:"description"`
	ExpenseDate time.Time       `json:"expenseDate"`
	PaidBy      string          `json:"paidBy,omitempty"`
	Attachments []string        `json:"attachments,omitempty"` // Receipt URL references
	Lines       []ExpenseLine   `json:"lines,omitempty"`

	Status      ExpenseStatus    `json:"status"`
	SubmittedAt *time.Time       `json:"submittedAt,omitempty"`
	History     []ApprovalRecord `json:"history,omitempty"` // Append-only, ordered by ActedAt

	AuditFields
}

// CanSubmit reports whether the expense may move from draft into approval routing.
func (e *Expense) CanSubmit() bool {
	return e.Status == ExpenseDraft
}

// CanCancel reports whether requesterID may cancel the expense in its current state.
// Cancellation is the owner's prerogative and only before a terminal approval outcome.
func (e *Expense) CanCancel(requesterID string) (owner bool, cancellable bool) {
	owner = e.RequesterID == requesterID
	cancellable = e.Status == ExpenseDraft || e.Status == ExpensePending
	return owner, cancellable
}
