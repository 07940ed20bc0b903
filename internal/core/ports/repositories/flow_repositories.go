package repositories

import (
	"context"

	"github.com/expensehub/expense_approval_app/internal/core/domain"
)

// FlowReader defines read operations for approval flow data
type FlowReader interface {
	// FindFlowByID retrieves a flow with its steps and recorded actions.
	FindFlowByID(ctx context.Context, flowID string) (*domain.ApprovalFlow, error)

	// FindFlowByExpenseID retrieves the flow bound to an expense.
	FindFlowByExpenseID(ctx context.Context, expenseID string) (*domain.ApprovalFlow, error)

	// ListPendingFlowsByRole retrieves pending flows whose current step accepts
	// the given approver role.
	ListPendingFlowsByRole(ctx context.Context, role domain.UserRole) ([]domain.ApprovalFlow, error)

	// ListPendingFlowsByApprover retrieves pending percentage-mode flows whose
	// eligible voter list contains the given approver and who has not yet voted.
	ListPendingFlowsByApprover(ctx context.Context, approverID string) ([]domain.ApprovalFlow, error)
}

// FlowWriter defines write operations for approval flow data
type FlowWriter interface {
	// SaveFlow persists a new flow with its steps.
	SaveFlow(ctx context.Context, flow domain.ApprovalFlow) error

	// UpdateFlow replaces the stored flow state (steps, actions, pointers, status).
	UpdateFlow(ctx context.Context, flow domain.ApprovalFlow) error
}

// FlowRepositoryFacade combines all flow-related repository interfaces
type FlowRepositoryFacade interface {
	FlowReader
	FlowWriter
}

// FlowRepositoryWithTx extends FlowRepositoryFacade with transaction capabilities
type FlowRepositoryWithTx interface {
	FlowRepositoryFacade
	TransactionManager
}
