package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/expensehub/expense_approval_app/internal/apperrors"
	"github.com/expensehub/expense_approval_app/internal/core/domain"
	portsrepo "github.com/expensehub/expense_approval_app/internal/core/ports/repositories"
	portssvc "github.com/expensehub/expense_approval_app/internal/core/ports/services"
	"github.com/expensehub/expense_approval_app/internal/dto"
	"github.com/expensehub/expense_approval_app/internal/middleware"
)

var (
	// ErrFlowAlreadyResolved is returned when an action targets a flow that has
	// already reached APPROVED or REJECTED.
	ErrFlowAlreadyResolved = errors.New("approval flow is already resolved")
	// ErrUnauthorizedApprover is returned when the approver's role is not in the
	// current step's role set, or (percentage mode) the approver is not an
	// eligible voter.
	ErrUnauthorizedApprover = errors.New("approver is not authorized to act on the current step")
	// ErrDuplicateApproval is returned when an approver acts twice on the same step.
	ErrDuplicateApproval = errors.New("approver has already acted on this step")
	// ErrInvalidFlowLevel signals a pending flow whose level pointer is out of
	// range. It indicates corrupted flow state, not caller error.
	ErrInvalidFlowLevel = errors.New("approval flow level pointer is out of range")
)

// flowService implements the approval flow engine: flow instantiation from
// matched rules and the step state machine for both approval policies.
type flowService struct {
	flowRepo portsrepo.FlowRepositoryFacade
	ruleSvc  portssvc.RuleMatcherSvc
}

// NewFlowService creates a new approval flow service.
func NewFlowService(flowRepo portsrepo.FlowRepositoryFacade, ruleSvc portssvc.RuleMatcherSvc) portssvc.FlowSvcFacade {
	return &flowService{
		flowRepo: flowRepo,
		ruleSvc:  ruleSvc,
	}
}

var _ portssvc.FlowSvcFacade = (*flowService)(nil)

// CreateApprovalFlow matches a rule for the expense and instantiates its flow.
// The rule's levels, approver list and threshold are copied into the flow so
// that later rule edits cannot affect it.
func (s *flowService) CreateApprovalFlow(ctx context.Context, expense *domain.Expense) (*domain.ApprovalFlow, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	existing, err := s.flowRepo.FindFlowByExpenseID(ctx, expense.ExpenseID)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to check for existing flow: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: expense %s already has an approval flow", apperrors.ErrDuplicate, expense.ExpenseID)
	}

	rule, err := s.ruleSvc.FindMatchingRule(ctx, expense)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	flow := domain.ApprovalFlow{
		FlowID:    uuid.NewString(),
		ExpenseID: expense.ExpenseID,
		RuleID:    rule.RuleID,
		Mode:      rule.Mode,
		Status:    domain.FlowPending,
		StartedAt: now,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     expense.RequesterID,
			LastUpdatedAt: now,
			LastUpdatedBy: expense.RequesterID,
		},
	}

	switch rule.Mode {
	case domain.RuleModePercentage:
		// A single voting stage: every eligible approver votes concurrently.
		flow.CurrentLevel = 1
		flow.TotalLevels = 1
		flow.Approvers = append([]domain.RuleApprover(nil), rule.Approvers...)
		flow.PercentageThreshold = rule.PercentageThreshold
		started := now
		flow.Steps = []domain.FlowStep{{
			Level:     1,
			Status:    domain.StepPending,
			StartedAt: &started,
		}}
	default:
		flow.CurrentLevel = 1
		flow.TotalLevels = len(rule.Levels)
		flow.Steps = make([]domain.FlowStep, len(rule.Levels))
		for i, lvl := range rule.Levels {
			flow.Steps[i] = domain.FlowStep{
				Level:         lvl.Level,
				Roles:         append([]domain.UserRole(nil), lvl.Roles...),
				RequiredCount: lvl.RequiredCount,
				Status:        domain.StepPending,
			}
		}
		started := now
		flow.Steps[0].StartedAt = &started
	}

	if err := s.flowRepo.SaveFlow(ctx, flow); err != nil {
		logger.Error("Failed to save approval flow", slog.String("expense_id", expense.ExpenseID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to save approval flow: %w", err)
	}

	logger.Info("Approval flow created",
		slog.String("flow_id", flow.FlowID),
		slog.String("expense_id", expense.ExpenseID),
		slog.String("rule_id", rule.RuleID),
		slog.Int("total_levels", flow.TotalLevels),
	)
	return &flow, nil
}

// ProcessApproval validates and applies one approver action. Validation runs
// fully before any state change: a rejected action leaves the flow untouched.
func (s *flowService) ProcessApproval(ctx context.Context, flowID string, approver domain.Approver, action domain.ApprovalAction, comments string) (*domain.ApprovalFlow, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	flow, err := s.flowRepo.FindFlowByID(ctx, flowID)
	if err != nil {
		return nil, err
	}
	if flow.Status != domain.FlowPending {
		return nil, ErrFlowAlreadyResolved
	}
	step := flow.CurrentStep()
	if step == nil {
		logger.Error("Pending flow has out-of-range level pointer",
			slog.String("flow_id", flowID), slog.Int("current_level", flow.CurrentLevel))
		return nil, ErrInvalidFlowLevel
	}

	switch flow.Mode {
	case domain.RuleModePercentage:
		if _, ok := flow.EligibleApprover(approver.ID); !ok {
			return nil, ErrUnauthorizedApprover
		}
	default:
		if !step.AcceptsRole(approver.Role) {
			return nil, ErrUnauthorizedApprover
		}
	}
	if step.HasActed(approver.ID) {
		return nil, ErrDuplicateApproval
	}

	now := time.Now()
	step.Actions = append(step.Actions, domain.StepAction{
		ActionID:     uuid.NewString(),
		ApproverID:   approver.ID,
		ApproverName: approver.Name,
		ApproverRole: approver.Role,
		Action:       action,
		Comments:     comments,
		ActedAt:      now,
	})

	switch flow.Mode {
	case domain.RuleModePercentage:
		s.evaluatePercentage(flow, step, approver, action, now)
	default:
		s.evaluateSequential(flow, step, action, now)
	}

	flow.LastUpdatedAt = now
	flow.LastUpdatedBy = approver.ID

	if err := s.flowRepo.UpdateFlow(ctx, *flow); err != nil {
		logger.Error("Failed to update approval flow", slog.String("flow_id", flowID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to update approval flow: %w", err)
	}

	logger.Info("Approval action processed",
		slog.String("flow_id", flowID),
		slog.String("approver_id", approver.ID),
		slog.String("action", string(action)),
		slog.String("flow_status", string(flow.Status)),
		slog.Int("current_level", flow.CurrentLevel),
	)
	return flow, nil
}

// evaluateSequential applies one action under the sequential policy: a single
// rejection resolves the flow; the step completes once its required approval
// count is met, advancing the level pointer or resolving the flow.
func (s *flowService) evaluateSequential(flow *domain.ApprovalFlow, step *domain.FlowStep, action domain.ApprovalAction, now time.Time) {
	if action == domain.ActionRejected {
		step.Status = domain.StepRejected
		step.CompletedAt = &now
		resolveFlow(flow, domain.FlowRejected, now)
		return
	}

	if step.ApprovedCount() < step.RequiredCount {
		return // step stays open for further approvers
	}
	step.Status = domain.StepApproved
	step.CompletedAt = &now

	if flow.CurrentLevel < flow.TotalLevels {
		flow.CurrentLevel++
		next := flow.CurrentStep()
		started := now
		next.StartedAt = &started
		return
	}
	resolveFlow(flow, domain.FlowApproved, now)
}

// evaluatePercentage applies one vote under the percentage policy. A required
// approver's approval resolves the flow immediately; otherwise the flow
// approves once the approval fraction reaches the threshold, and rejects only
// when every eligible approver has voted without reaching it.
func (s *flowService) evaluatePercentage(flow *domain.ApprovalFlow, step *domain.FlowStep, approver domain.Approver, action domain.ApprovalAction, now time.Time) {
	if action == domain.ActionApproved {
		if ra, ok := flow.EligibleApprover(approver.ID); ok && ra.Required {
			step.Status = domain.StepApproved
			step.CompletedAt = &now
			resolveFlow(flow, domain.FlowApproved, now)
			return
		}
	}

	eligible := len(flow.Approvers)
	threshold := 100
	if flow.PercentageThreshold != nil {
		threshold = *flow.PercentageThreshold
	}

	if step.ApprovedCount()*100 >= threshold*eligible {
		step.Status = domain.StepApproved
		step.CompletedAt = &now
		resolveFlow(flow, domain.FlowApproved, now)
		return
	}

	// A rejection is never immediate here: the threshold may still be reached
	// by voters who have not acted yet. Resolve only once every vote is in.
	if len(step.Actions) == eligible {
		step.Status = domain.StepRejected
		step.CompletedAt = &now
		resolveFlow(flow, domain.FlowRejected, now)
	}
}

func resolveFlow(flow *domain.ApprovalFlow, status domain.FlowStatus, now time.Time) {
	flow.Status = status
	flow.CompletedAt = &now
	if status == domain.FlowRejected {
		// Steps the flow never reached are closed out for the audit record.
		for i := range flow.Steps {
			if flow.Steps[i].Status == domain.StepPending && flow.Steps[i].Level != flow.CurrentLevel {
				flow.Steps[i].Status = domain.StepSkipped
			}
		}
	}
}

// GetFlow retrieves a flow by its ID.
func (s *flowService) GetFlow(ctx context.Context, flowID string) (*domain.ApprovalFlow, error) {
	return s.flowRepo.FindFlowByID(ctx, flowID)
}

// GetFlowByExpenseID retrieves the flow bound to an expense.
func (s *flowService) GetFlowByExpenseID(ctx context.Context, expenseID string) (*domain.ApprovalFlow, error) {
	return s.flowRepo.FindFlowByExpenseID(ctx, expenseID)
}

// GetPendingApprovalsForRole lists pending flows whose current step accepts the role.
func (s *flowService) GetPendingApprovalsForRole(ctx context.Context, role domain.UserRole) ([]domain.ApprovalFlow, error) {
	return s.flowRepo.ListPendingFlowsByRole(ctx, role)
}

// GetPendingApprovalsForApprover lists pending percentage-mode flows awaiting
// the approver's vote.
func (s *flowService) GetPendingApprovalsForApprover(ctx context.Context, approverID string) ([]domain.ApprovalFlow, error) {
	return s.flowRepo.ListPendingFlowsByApprover(ctx, approverID)
}

// GetApprovalSummary returns a read-only projection of a flow's progress.
func (s *flowService) GetApprovalSummary(ctx context.Context, flowID string) (*dto.ApprovalSummary, error) {
	flow, err := s.flowRepo.FindFlowByID(ctx, flowID)
	if err != nil {
		return nil, err
	}
	return dto.ToApprovalSummary(flow), nil
}

// CanApprove reports whether the approver may currently act on the flow. It is
// advisory only: ProcessApproval revalidates.
func (s *flowService) CanApprove(ctx context.Context, flowID string, role domain.UserRole, approverID string) (bool, error) {
	flow, err := s.flowRepo.FindFlowByID(ctx, flowID)
	if err != nil {
		return false, err
	}
	if flow.Status != domain.FlowPending {
		return false, nil
	}
	step := flow.CurrentStep()
	if step == nil {
		return false, nil
	}
	if flow.Mode == domain.RuleModePercentage {
		if _, ok := flow.EligibleApprover(approverID); !ok {
			return false, nil
		}
	} else if !step.AcceptsRole(role) {
		return false, nil
	}
	return !step.HasActed(approverID), nil
}
