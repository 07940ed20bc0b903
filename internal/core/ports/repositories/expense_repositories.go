package repositories

import (
	"context"

	"github.com/expensehub/expense_approval_app/internal/core/domain"
)

// ExpenseReader defines read operations for expense data
type ExpenseReader interface {
	// FindExpenseByID retrieves an expense with its lines and approval history.
	FindExpenseByID(ctx context.Context, expenseID string) (*domain.Expense, error)

	// ListExpensesByEmployee retrieves expenses filed by one employee, newest first,
	// optionally filtered by status, using token-based pagination.
	ListExpensesByEmployee(ctx context.Context, employeeID string, status *domain.ExpenseStatus, limit int, nextToken *string) ([]domain.Expense, *string, error)

	// ListExpensesByCompany retrieves all expenses for a company, newest first,
	// using token-based pagination.
	ListExpensesByCompany(ctx context.Context, companyID string, limit int, nextToken *string) ([]domain.Expense, *string, error)

	// FindExpensesByIDs retrieves expenses keyed by expense ID.
	FindExpensesByIDs(ctx context.Context, expenseIDs []string) (map[string]domain.Expense, error)
}

// ExpenseWriter defines write operations for expense data
type ExpenseWriter interface {
	// SaveExpense persists a new expense together with its lines.
	SaveExpense(ctx context.Context, expense domain.Expense) error

	// UpdateExpenseStatus updates an expense's status and submission timestamp.
	UpdateExpenseStatus(ctx context.Context, expense domain.Expense) error

	// AppendApprovalRecord appends one record to the expense's approval history
	// and updates the expense status in the same transaction.
	AppendApprovalRecord(ctx context.Context, expense domain.Expense, record domain.ApprovalRecord) error
}

// ExpenseRepositoryFacade combines all expense-related repository interfaces
type ExpenseRepositoryFacade interface {
	ExpenseReader
	ExpenseWriter
}

// ExpenseRepositoryWithTx extends ExpenseRepositoryFacade with transaction capabilities
type ExpenseRepositoryWithTx interface {
	ExpenseRepositoryFacade
	TransactionManager
}
