package services

import (
	"context"

	"github.com/expensehub/expense_approval_app/internal/core/domain"
	"github.com/expensehub/expense_approval_app/internal/dto"
)

// FlowReaderSvc defines read operations for approval flows
type FlowReaderSvc interface {
	// GetFlow retrieves a flow by its ID.
	GetFlow(ctx context.Context, flowID string) (*domain.ApprovalFlow, error)

	// GetFlowByExpenseID retrieves the flow bound to an expense.
	GetFlowByExpenseID(ctx context.Context, expenseID string) (*domain.ApprovalFlow, error)

	// GetPendingApprovalsForRole lists pending flows whose current step accepts the role.
	GetPendingApprovalsForRole(ctx context.Context, role domain.UserRole) ([]domain.ApprovalFlow, error)

	// GetPendingApprovalsForApprover lists pending percentage-mode flows where the
	// approver is an eligible voter who has not yet acted.
	GetPendingApprovalsForApprover(ctx context.Context, approverID string) ([]domain.ApprovalFlow, error)

	// GetApprovalSummary returns a read-only projection of a flow's progress.
	GetApprovalSummary(ctx context.Context, flowID string) (*dto.ApprovalSummary, error)

	// CanApprove reports whether the approver may currently act on the flow.
	CanApprove(ctx context.Context, flowID string, role domain.UserRole, approverID string) (bool, error)
}

// FlowProcessorSvc drives flow state transitions.
type FlowProcessorSvc interface {
	// CreateApprovalFlow matches a rule for the expense and instantiates its flow.
	// Fails with ErrNoMatchingRule when no active rule matches, or ErrDuplicate
	// when the expense already has a flow.
	CreateApprovalFlow(ctx context.Context, expense *domain.Expense) (*domain.ApprovalFlow, error)

	// ProcessApproval validates and applies one approver action against the flow,
	// advancing or resolving it. All validation happens before any mutation.
	ProcessApproval(ctx context.Context, flowID string, approver domain.Approver, action domain.ApprovalAction, comments string) (*domain.ApprovalFlow, error)
}

// FlowSvcFacade combines all flow-related service interfaces
type FlowSvcFacade interface {
	FlowReaderSvc
	FlowProcessorSvc
}
