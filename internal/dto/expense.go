package dto

import (
	"time"

	"github.com/expensehub/expense_approval_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ExpenseLineInput is one itemization entry on a new expense.
type ExpenseLineInput struct {
	ItemDescription string          `json:"itemDescription" binding:"required"`
	Amount          decimal.Decimal `json:"amount" binding:"required"`
}

// CreateExpenseRequest defines the data needed to create a draft expense.
// The requester and company are derived from the authenticated caller.
type CreateExpenseRequest struct {
	Amount       decimal.Decimal        `json:"amount" binding:"required"`
	CurrencyCode string                 `json:"currencyCode" binding:"required,uppercase,len=3"`
	Category     domain.ExpenseCategory `json:"category" binding:"required,expensecategory"`
	Description  string                 `json:"description" binding:"required"`
	ExpenseDate  time.Time              `json:"expenseDate" binding:"required"`
	PaidBy       string                 `json:"paidBy,omitempty"`
	Attachments  []string               `json:"attachments,omitempty" binding:"omitempty,dive,url"`
	Lines        []ExpenseLineInput     `json:"lines,omitempty" binding:"omitempty,dive"`
}

// ApprovalDecisionRequest carries one approver action on a pending expense.
type ApprovalDecisionRequest struct {
	Action   domain.ApprovalAction `json:"action" binding:"required,oneof=APPROVED REJECTED"`
	Comments string                `json:"comments,omitempty"`
}

// ListExpensesParams are the query parameters for expense listings.
type ListExpensesParams struct {
	Status    *string `form:"status" binding:"omitempty,oneof=DRAFT PENDING APPROVED REJECTED CANCELLED"`
	Limit     int     `form:"limit,default=20" binding:"omitempty,min=1,max=100"`
	NextToken *string `form:"nextToken"`
}

// ExpenseLineResponse is one itemization entry on an expense.
type ExpenseLineResponse struct {
	LineID          string          `json:"lineID"`
	ItemDescription string          `json:"itemDescription"`
	Amount          decimal.Decimal `json:"amount"`
}

// ApprovalRecordResponse is one entry of an expense's approval history.
type ApprovalRecordResponse struct {
	RecordID     string                `json:"recordID"`
	ApproverID   string                `json:"approverID"`
	ApproverName string                `json:"approverName"`
	ApproverRole domain.UserRole       `json:"approverRole"`
	Level        int                   `json:"level"`
	Action       domain.ApprovalAction `json:"action"`
	Comments     string                `json:"comments,omitempty"`
	ActedAt      time.Time             `json:"actedAt"`
}

// ExpenseResponse defines the data returned for an expense.
type ExpenseResponse struct {
	ExpenseID        string                   `json:"expenseID"`
	RequesterID      string                   `json:"requesterID"`
	RequesterName    string                   `json:"requesterName"`
	CompanyID        string                   `json:"companyID"`
	Amount           decimal.Decimal          `json:"amount"`
	CurrencyCode     string                   `json:"currencyCode"`
	ConvertedAmount  decimal.Decimal          `json:"convertedAmount"`
	BaseCurrencyCode string                   `json:"baseCurrencyCode"`
	Category         domain.ExpenseCategory   `json:"category"`
	Description      string                   `json:"description"`
	ExpenseDate      time.Time                `json:"expenseDate"`
	PaidBy           string                   `json:"paidBy,omitempty"`
	Attachments      []string                 `json:"attachments,omitempty"`
	Lines            []ExpenseLineResponse    `json:"lines,omitempty"`
	Status           domain.ExpenseStatus     `json:"status"`
	SubmittedAt      *time.Time               `json:"submittedAt,omitempty"`
	History          []ApprovalRecordResponse `json:"history,omitempty"`
	CreatedAt        time.Time                `json:"createdAt"`
}

// ListExpensesResponse is a paginated expense listing.
type ListExpensesResponse struct {
	Expenses  []ExpenseResponse `json:"expenses"`
	NextToken *string           `json:"nextToken,omitempty"`
}

// SubmitExpenseResponse is returned when a draft enters approval routing.
type SubmitExpenseResponse struct {
	Expense ExpenseResponse `json:"expense"`
	FlowID  string          `json:"flowID"`
}

// ToApprovalRecordResponse converts a domain.ApprovalRecord to its DTO.
func ToApprovalRecordResponse(r domain.ApprovalRecord) ApprovalRecordResponse {
	return ApprovalRecordResponse{
		RecordID:     r.RecordID,
		ApproverID:   r.ApproverID,
		ApproverName: r.ApproverName,
		ApproverRole: r.ApproverRole,
		Level:        r.Level,
		Action:       r.Action,
		Comments:     r.Comments,
		ActedAt:      r.ActedAt,
	}
}

// ToExpenseResponse converts a domain.Expense to ExpenseResponse DTO
func ToExpenseResponse(e *domain.Expense) ExpenseResponse {
	lines := make([]ExpenseLineResponse, len(e.Lines))
	for i, l := range e.Lines {
		lines[i] = ExpenseLineResponse{
			LineID:          l.LineID,
			ItemDescription: l.ItemDescription,
			Amount:          l.Amount,
		}
	}
	history := make([]ApprovalRecordResponse, len(e.History))
	for i, r := range e.History {
		history[i] = ToApprovalRecordResponse(r)
	}
	return ExpenseResponse{
		ExpenseID:        e.ExpenseID,
		RequesterID:      e.RequesterID,
		RequesterName:    e.RequesterName,
		CompanyID:        e.CompanyID,
		Amount:           e.Amount,
		CurrencyCode:     e.CurrencyCode,
		ConvertedAmount:  e.ConvertedAmount,
		BaseCurrencyCode: e.BaseCurrencyCode,
		Category:         e.Category,
		Description:      e.Description,
		ExpenseDate:      e.ExpenseDate,
		PaidBy:           e.PaidBy,
		Attachments:      e.Attachments,
		Lines:            lines,
		Status:           e.Status,
		SubmittedAt:      e.SubmittedAt,
		History:          history,
		CreatedAt:        e.CreatedAt,
	}
}

// ToListExpensesResponse converts domain expenses plus a pagination token.
func ToListExpensesResponse(expenses []domain.Expense, nextToken *string) *ListExpensesResponse {
	res := make([]ExpenseResponse, len(expenses))
	for i := range expenses {
		res[i] = ToExpenseResponse(&expenses[i])
	}
	return &ListExpensesResponse{Expenses: res, NextToken: nextToken}
}
