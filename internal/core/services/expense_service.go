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
	// ErrAlreadySubmitted is returned when submitting an expense that already
	// left the draft state.
	ErrAlreadySubmitted = errors.New("expense has already been submitted")
	// ErrExpenseNotPending is returned when an approval action targets an
	// expense outside the pending state.
	ErrExpenseNotPending = errors.New("expense is not pending approval")
	// ErrAlreadyFinal is returned when cancelling an expense that already
	// reached a terminal status.
	ErrAlreadyFinal = errors.New("expense has already reached a final status")
	// ErrNotOwner is returned when a non-owner attempts an owner-only operation.
	ErrNotOwner = errors.New("only the expense requester may perform this operation")
	// ErrInvalidAmount is returned when an expense amount is negative.
	ErrInvalidAmount = errors.New("expense amount must be non-negative")
	// ErrInvalidCategory is returned when the category is outside the closed set.
	ErrInvalidCategory = errors.New("unknown expense category")
)

// expenseService implements the expense lifecycle: creation, submission into
// approval routing, mirroring flow outcomes, and cancellation.
type expenseService struct {
	expenseRepo portsrepo.ExpenseRepositoryFacade
	flowSvc     portssvc.FlowSvcFacade
	userSvc     portssvc.UserReaderSvc
	companySvc  portssvc.CompanySvcFacade
	rateSvc     portssvc.ExchangeRateSvcFacade
	notifier    portssvc.Notifier
}

// NewExpenseService creates a new expense lifecycle service.
func NewExpenseService(
	expenseRepo portsrepo.ExpenseRepositoryFacade,
	flowSvc portssvc.FlowSvcFacade,
	userSvc portssvc.UserReaderSvc,
	companySvc portssvc.CompanySvcFacade,
	rateSvc portssvc.ExchangeRateSvcFacade,
	notifier portssvc.Notifier,
) portssvc.ExpenseSvcFacade {
	return &expenseService{
		expenseRepo: expenseRepo,
		flowSvc:     flowSvc,
		userSvc:     userSvc,
		companySvc:  companySvc,
		rateSvc:     rateSvc,
		notifier:    notifier,
	}
}

var _ portssvc.ExpenseSvcFacade = (*expenseService)(nil)

// CreateExpense creates a draft expense owned by the requester, converting the
// amount into the requester's company base currency.
func (s *expenseService) CreateExpense(ctx context.Context, req dto.CreateExpenseRequest, requesterID string) (*domain.Expense, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if req.Amount.IsNegative() {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, ErrInvalidAmount)
	}
	if !domain.ValidCategory(req.Category) {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, ErrInvalidCategory)
	}

	requester, err := s.userSvc.GetUserByID(ctx, requesterID)
	if err != nil {
		return nil, fmt.Errorf("failed to load requester %s: %w", requesterID, err)
	}
	company, err := s.companySvc.GetCompanyByID(ctx, requester.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load company %s: %w", requester.CompanyID, err)
	}

	converted, err := s.rateSvc.Convert(ctx, req.Amount, req.CurrencyCode, company.BaseCurrencyCode)
	if err != nil {
		return nil, fmt.Errorf("failed to convert %s to %s: %w", req.CurrencyCode, company.BaseCurrencyCode, err)
	}

	now := time.Now()
	expenseID := uuid.NewString()
	lines := make([]domain.ExpenseLine, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = domain.ExpenseLine{
			LineID:          uuid.NewString(),
			ExpenseID:       expenseID,
			ItemDescription: l.ItemDescription,
			Amount:          l.Amount,
		}
	}

	expense := domain.Expense{
		ExpenseID:        expenseID,
		RequesterID:      requester.UserID,
		RequesterName:    requester.Name,
		CompanyID:        company.CompanyID,
		Amount:           req.Amount,
		CurrencyCode:     req.CurrencyCode,
		ConvertedAmount:  converted,
		BaseCurrencyCode: company.BaseCurrencyCode,
		Category:         req.Category,
		Description:      req.Description,
		ExpenseDate:      req.ExpenseDate,
		PaidBy:           req.PaidBy,
		Attachments:      req.Attachments,
		Lines:            lines,
		Status:           domain.ExpenseDraft,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     requesterID,
			LastUpdatedAt: now,
			LastUpdatedBy: requesterID,
		},
	}

	if err := s.expenseRepo.SaveExpense(ctx, expense); err != nil {
		logger.Error("Failed to save expense", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to save expense: %w", err)
	}

	logger.Info("Expense created",
		slog.String("expense_id", expense.ExpenseID),
		slog.String("requester_id", requesterID),
		slog.String("category", string(expense.Category)),
	)
	return &expense, nil
}

// SubmitExpense moves a draft into approval routing. The flow is created first;
// only a successful rule match moves the expense to PENDING, so an unroutable
// expense stays an editable draft.
func (s *expenseService) SubmitExpense(ctx context.Context, expenseID string, requesterID string) (*domain.Expense, *domain.ApprovalFlow, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	expense, err := s.expenseRepo.FindExpenseByID(ctx, expenseID)
	if err != nil {
		return nil, nil, err
	}
	if expense.RequesterID != requesterID {
		return nil, nil, ErrNotOwner
	}
	if !expense.CanSubmit() {
		return nil, nil, ErrAlreadySubmitted
	}

	flow, err := s.flowSvc.CreateApprovalFlow(ctx, expense)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now()
	expense.Status = domain.ExpensePending
	expense.SubmittedAt = &now
	expense.LastUpdatedAt = now
	expense.LastUpdatedBy = requesterID

	if err := s.expenseRepo.UpdateExpenseStatus(ctx, *expense); err != nil {
		logger.Error("Failed to update expense status", slog.String("expense_id", expenseID), slog.String("error", err.Error()))
		return nil, nil, fmt.Errorf("failed to update expense status: %w", err)
	}

	s.notify(ctx, portssvc.ExpenseEvent{ExpenseID: expenseID, Status: domain.ExpensePending, ActorID: requesterID})
	logger.Info("Expense submitted", slog.String("expense_id", expenseID), slog.String("flow_id", flow.FlowID))
	return expense, flow, nil
}

// ProcessExpenseApproval applies one approver action to the expense's flow,
// appends the approval record, and mirrors a resolved flow's outcome onto the
// expense status. The recorded level is captured before the flow advances.
func (s *expenseService) ProcessExpenseApproval(ctx context.Context, expenseID string, approver domain.Approver, action domain.ApprovalAction, comments string) (*domain.Expense, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	expense, err := s.expenseRepo.FindExpenseByID(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	if expense.Status != domain.ExpensePending {
		return nil, ErrExpenseNotPending
	}

	flow, err := s.flowSvc.GetFlowByExpenseID(ctx, expenseID)
	if err != nil {
		return nil, fmt.Errorf("failed to load approval flow for expense %s: %w", expenseID, err)
	}
	levelActedOn := flow.CurrentLevel

	flow, err = s.flowSvc.ProcessApproval(ctx, flow.FlowID, approver, action, comments)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	record := domain.ApprovalRecord{
		RecordID:     uuid.NewString(),
		ExpenseID:    expenseID,
		ApproverID:   approver.ID,
		ApproverName: approver.Name,
		ApproverRole: approver.Role,
		Level:        levelActedOn,
		Action:       action,
		Comments:     comments,
		ActedAt:      now,
	}
	expense.History = append(expense.History, record)

	switch flow.Status {
	case domain.FlowApproved:
		expense.Status = domain.ExpenseApproved
	case domain.FlowRejected:
		expense.Status = domain.ExpenseRejected
	}
	expense.LastUpdatedAt = now
	expense.LastUpdatedBy = approver.ID

	if err := s.expenseRepo.AppendApprovalRecord(ctx, *expense, record); err != nil {
		logger.Error("Failed to append approval record", slog.String("expense_id", expenseID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to append approval record: %w", err)
	}

	if expense.Status.IsTerminal() {
		s.notify(ctx, portssvc.ExpenseEvent{ExpenseID: expenseID, Status: expense.Status, ActorID: approver.ID})
	}
	logger.Info("Expense approval processed",
		slog.String("expense_id", expenseID),
		slog.String("approver_id", approver.ID),
		slog.String("action", string(action)),
		slog.Int("level", levelActedOn),
		slog.String("status", string(expense.Status)),
	)
	return expense, nil
}

// CancelExpense cancels a draft or pending expense. Owner only; an approved or
// rejected expense can no longer be cancelled.
func (s *expenseService) CancelExpense(ctx context.Context, expenseID string, requesterID string) (*domain.Expense, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	expense, err := s.expenseRepo.FindExpenseByID(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	owner, cancellable := expense.CanCancel(requesterID)
	if !owner {
		return nil, ErrNotOwner
	}
	if !cancellable {
		return nil, ErrAlreadyFinal
	}

	now := time.Now()
	expense.Status = domain.ExpenseCancelled
	expense.LastUpdatedAt = now
	expense.LastUpdatedBy = requesterID

	if err := s.expenseRepo.UpdateExpenseStatus(ctx, *expense); err != nil {
		logger.Error("Failed to cancel expense", slog.String("expense_id", expenseID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to cancel expense: %w", err)
	}

	s.notify(ctx, portssvc.ExpenseEvent{ExpenseID: expenseID, Status: domain.ExpenseCancelled, ActorID: requesterID})
	logger.Info("Expense cancelled", slog.String("expense_id", expenseID))
	return expense, nil
}

// GetExpenseByID retrieves an expense. Visible to its requester and to any
// user holding an approver-capable role.
func (s *expenseService) GetExpenseByID(ctx context.Context, expenseID string, requestingUserID string) (*domain.Expense, error) {
	expense, err := s.expenseRepo.FindExpenseByID(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	if expense.RequesterID == requestingUserID {
		return expense, nil
	}
	viewer, err := s.userSvc.GetUserByID(ctx, requestingUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user %s: %w", requestingUserID, err)
	}
	if viewer.CompanyID != expense.CompanyID || viewer.Role == domain.RoleEmployee {
		return nil, apperrors.ErrForbidden
	}
	return expense, nil
}

// ListExpensesByEmployee retrieves the employee's own expenses, newest first.
func (s *expenseService) ListExpensesByEmployee(ctx context.Context, employeeID string, params dto.ListExpensesParams) (*dto.ListExpensesResponse, error) {
	var status *domain.ExpenseStatus
	if params.Status != nil {
		st := domain.ExpenseStatus(*params.Status)
		status = &st
	}
	expenses, nextToken, err := s.expenseRepo.ListExpensesByEmployee(ctx, employeeID, status, params.Limit, params.NextToken)
	if err != nil {
		return nil, err
	}
	return dto.ToListExpensesResponse(expenses, nextToken), nil
}

// ListExpenses retrieves all of a company's expenses, newest first.
func (s *expenseService) ListExpenses(ctx context.Context, companyID string, params dto.ListExpensesParams) (*dto.ListExpensesResponse, error) {
	expenses, nextToken, err := s.expenseRepo.ListExpensesByCompany(ctx, companyID, params.Limit, params.NextToken)
	if err != nil {
		return nil, err
	}
	return dto.ToListExpensesResponse(expenses, nextToken), nil
}

// GetPendingExpensesForApprover lists expenses whose flow currently awaits the
// approver: sequential flows by role, percentage flows by voter membership.
func (s *expenseService) GetPendingExpensesForApprover(ctx context.Context, approverID string, role domain.UserRole) ([]domain.Expense, error) {
	byRole, err := s.flowSvc.GetPendingApprovalsForRole(ctx, role)
	if err != nil {
		return nil, err
	}
	byVoter, err := s.flowSvc.GetPendingApprovalsForApprover(ctx, approverID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var expenseIDs []string
	for _, flow := range append(byRole, byVoter...) {
		if step := flow.CurrentStep(); step == nil || step.HasActed(approverID) {
			continue
		}
		if !seen[flow.ExpenseID] {
			seen[flow.ExpenseID] = true
			expenseIDs = append(expenseIDs, flow.ExpenseID)
		}
	}
	if len(expenseIDs) == 0 {
		return []domain.Expense{}, nil
	}

	byID, err := s.expenseRepo.FindExpensesByIDs(ctx, expenseIDs)
	if err != nil {
		return nil, err
	}
	expenses := make([]domain.Expense, 0, len(expenseIDs))
	for _, id := range expenseIDs {
		if e, ok := byID[id]; ok && e.Status == domain.ExpensePending {
			expenses = append(expenses, e)
		}
	}
	return expenses, nil
}

// GetApprovalHistory returns the expense's ordered approval history, subject
// to the same visibility rules as the expense itself.
func (s *expenseService) GetApprovalHistory(ctx context.Context, expenseID string, requestingUserID string) ([]domain.ApprovalRecord, error) {
	expense, err := s.GetExpenseByID(ctx, expenseID, requestingUserID)
	if err != nil {
		return nil, err
	}
	return expense.History, nil
}

func (s *expenseService) notify(ctx context.Context, event portssvc.ExpenseEvent) {
	if s.notifier != nil {
		s.notifier.NotifyExpenseStatusChanged(ctx, event)
	}
}
