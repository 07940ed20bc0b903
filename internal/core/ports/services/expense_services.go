package services

import (
	"context"

	"github.com/expensehub/expense_approval_app/internal/core/domain"
	"github.com/expensehub/expense_approval_app/internal/dto"
)

// ExpenseReaderSvc defines read operations for expense data
type ExpenseReaderSvc interface {
	// GetExpenseByID retrieves an expense the requesting user is allowed to see.
	GetExpenseByID(ctx context.Context, expenseID string, requestingUserID string) (*domain.Expense, error)

	// ListExpensesByEmployee retrieves the employee's own expenses.
	ListExpensesByEmployee(ctx context.Context, employeeID string, params dto.ListExpensesParams) (*dto.ListExpensesResponse, error)

	// ListExpenses retrieves all expenses in a company (admin view).
	ListExpenses(ctx context.Context, companyID string, params dto.ListExpensesParams) (*dto.ListExpensesResponse, error)

	// GetPendingExpensesForApprover intersects pending flows for the approver's
	// role (and percentage-mode voter lists) with the expense table.
	GetPendingExpensesForApprover(ctx context.Context, approverID string, role domain.UserRole) ([]domain.Expense, error)

	// GetApprovalHistory returns the expense's ordered approval history.
	GetApprovalHistory(ctx context.Context, expenseID string, requestingUserID string) ([]domain.ApprovalRecord, error)
}

// ExpenseWriterSvc defines lifecycle operations on expenses
type ExpenseWriterSvc interface {
	// CreateExpense creates a draft expense, converting the amount into the
	// company base currency.
	CreateExpense(ctx context.Context, req dto.CreateExpenseRequest, requesterID string) (*domain.Expense, error)

	// SubmitExpense moves a draft into approval routing, creating its flow.
	SubmitExpense(ctx context.Context, expenseID string, requesterID string) (*domain.Expense, *domain.ApprovalFlow, error)

	// ProcessExpenseApproval applies one approver action, mirrors the flow outcome
	// onto the expense status, and appends the approval record.
	ProcessExpenseApproval(ctx context.Context, expenseID string, approver domain.Approver, action domain.ApprovalAction, comments string) (*domain.Expense, error)

	// CancelExpense cancels a draft or pending expense; owner only.
	CancelExpense(ctx context.Context, expenseID string, requesterID string) (*domain.Expense, error)
}

// ExpenseSvcFacade combines all expense-related service interfaces
type ExpenseSvcFacade interface {
	ExpenseReaderSvc
	ExpenseWriterSvc
}
