package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/expensehub/expense_approval_app/internal/apperrors"
	"github.com/expensehub/expense_approval_app/internal/core/domain"
	portssvc "github.com/expensehub/expense_approval_app/internal/core/ports/services"
	"github.com/expensehub/expense_approval_app/internal/core/services"
)

func decimalPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

// --- Mock FlowRepository ---
type MockFlowRepository struct {
	mock.Mock
}

func (m *MockFlowRepository) FindFlowByID(ctx context.Context, flowID string) (*domain.ApprovalFlow, error) {
	args := m.Called(ctx, flowID)
	var flow *domain.ApprovalFlow
	if args.Get(0) != nil {
		flow = args.Get(0).(*domain.ApprovalFlow)
	}
	return flow, args.Error(1)
}

func (m *MockFlowRepository) FindFlowByExpenseID(ctx context.Context, expenseID string) (*domain.ApprovalFlow, error) {
	args := m.Called(ctx, expenseID)
	var flow *domain.ApprovalFlow
	if args.Get(0) != nil {
		flow = args.Get(0).(*domain.ApprovalFlow)
	}
	return flow, args.Error(1)
}

func (m *MockFlowRepository) ListPendingFlowsByRole(ctx context.Context, role domain.UserRole) ([]domain.ApprovalFlow, error) {
	args := m.Called(ctx, role)
	var flows []domain.ApprovalFlow
	if args.Get(0) != nil {
		flows = args.Get(0).([]domain.ApprovalFlow)
	}
	return flows, args.Error(1)
}

func (m *MockFlowRepository) ListPendingFlowsByApprover(ctx context.Context, approverID string) ([]domain.ApprovalFlow, error) {
	args := m.Called(ctx, approverID)
	var flows []domain.ApprovalFlow
	if args.Get(0) != nil {
		flows = args.Get(0).([]domain.ApprovalFlow)
	}
	return flows, args.Error(1)
}

func (m *MockFlowRepository) SaveFlow(ctx context.Context, flow domain.ApprovalFlow) error {
	args := m.Called(ctx, flow)
	return args.Error(0)
}

func (m *MockFlowRepository) UpdateFlow(ctx context.Context, flow domain.ApprovalFlow) error {
	args := m.Called(ctx, flow)
	return args.Error(0)
}

// --- Mock RuleMatcher ---
type MockRuleMatcher struct {
	mock.Mock
}

func (m *MockRuleMatcher) FindMatchingRule(ctx context.Context, expense *domain.Expense) (*domain.ApprovalRule, error) {
	args := m.Called(ctx, expense)
	var rule *domain.ApprovalRule
	if args.Get(0) != nil {
		rule = args.Get(0).(*domain.ApprovalRule)
	}
	return rule, args.Error(1)
}

// --- Test Suite ---
type FlowServiceTestSuite struct {
	suite.Suite
	mockFlowRepo *MockFlowRepository
	mockMatcher  *MockRuleMatcher
	service      portssvc.FlowSvcFacade
}

func (suite *FlowServiceTestSuite) SetupTest() {
	suite.mockFlowRepo = new(MockFlowRepository)
	suite.mockMatcher = new(MockRuleMatcher)
	suite.service = services.NewFlowService(suite.mockFlowRepo, suite.mockMatcher)
}

func (suite *FlowServiceTestSuite) sequentialFlow(levels ...domain.ApprovalLevel) *domain.ApprovalFlow {
	now := time.Now()
	steps := make([]domain.FlowStep, len(levels))
	for i, lvl := range levels {
		steps[i] = domain.FlowStep{
			Level:         lvl.Level,
			Roles:         lvl.Roles,
			RequiredCount: lvl.RequiredCount,
			Status:        domain.StepPending,
		}
	}
	steps[0].StartedAt = &now
	return &domain.ApprovalFlow{
		FlowID:       uuid.NewString(),
		ExpenseID:    uuid.NewString(),
		RuleID:       uuid.NewString(),
		Mode:         domain.RuleModeSequential,
		CurrentLevel: 1,
		TotalLevels:  len(levels),
		Status:       domain.FlowPending,
		Steps:        steps,
		StartedAt:    now,
	}
}

func (suite *FlowServiceTestSuite) percentageFlow(threshold int, approvers ...domain.RuleApprover) *domain.ApprovalFlow {
	now := time.Now()
	return &domain.ApprovalFlow{
		FlowID:              uuid.NewString(),
		ExpenseID:           uuid.NewString(),
		RuleID:              uuid.NewString(),
		Mode:                domain.RuleModePercentage,
		CurrentLevel:        1,
		TotalLevels:         1,
		Approvers:           approvers,
		PercentageThreshold: &threshold,
		Status:              domain.FlowPending,
		Steps:               []domain.FlowStep{{Level: 1, Status: domain.StepPending, StartedAt: &now}},
		StartedAt:           now,
	}
}

func approver(role domain.UserRole) domain.Approver {
	return domain.Approver{ID: uuid.NewString(), Name: "Approver " + string(role), Role: role}
}

// --- CreateApprovalFlow Tests ---

func (suite *FlowServiceTestSuite) TestCreateApprovalFlow_Sequential() {
	ctx := context.Background()
	expense := &domain.Expense{ExpenseID: uuid.NewString(), RequesterID: uuid.NewString()}
	rule := &domain.ApprovalRule{
		RuleID: uuid.NewString(),
		Mode:   domain.RuleModeSequential,
		Levels: []domain.ApprovalLevel{
			{Level: 1, Roles: []domain.UserRole{domain.RoleManager}, RequiredCount: 1},
			{Level: 2, Roles: []domain.UserRole{domain.RoleCFO}, RequiredCount: 1},
		},
	}

	suite.mockFlowRepo.On("FindFlowByExpenseID", ctx, expense.ExpenseID).Return(nil, apperrors.ErrNotFound).Once()
	suite.mockMatcher.On("FindMatchingRule", ctx, expense).Return(rule, nil).Once()
	suite.mockFlowRepo.On("SaveFlow", ctx, mock.AnythingOfType("domain.ApprovalFlow")).Return(nil).Once()

	flow, err := suite.service.CreateApprovalFlow(ctx, expense)

	suite.Require().NoError(err)
	suite.Equal(domain.FlowPending, flow.Status)
	suite.Equal(1, flow.CurrentLevel)
	suite.Equal(2, flow.TotalLevels)
	suite.Len(flow.Steps, 2)
	suite.NotNil(flow.Steps[0].StartedAt)
	suite.Nil(flow.Steps[1].StartedAt)
	suite.Equal(rule.RuleID, flow.RuleID)
	suite.mockFlowRepo.AssertExpectations(suite.T())
}

func (suite *FlowServiceTestSuite) TestCreateApprovalFlow_Percentage() {
	ctx := context.Background()
	expense := &domain.Expense{ExpenseID: uuid.NewString(), RequesterID: uuid.NewString()}
	threshold := 60
	rule := &domain.ApprovalRule{
		RuleID:              uuid.NewString(),
		Mode:                domain.RuleModePercentage,
		PercentageThreshold: &threshold,
		Approvers: []domain.RuleApprover{
			{ApproverID: uuid.NewString()},
			{ApproverID: uuid.NewString(), Required: true},
		},
	}

	suite.mockFlowRepo.On("FindFlowByExpenseID", ctx, expense.ExpenseID).Return(nil, apperrors.ErrNotFound).Once()
	suite.mockMatcher.On("FindMatchingRule", ctx, expense).Return(rule, nil).Once()
	suite.mockFlowRepo.On("SaveFlow", ctx, mock.AnythingOfType("domain.ApprovalFlow")).Return(nil).Once()

	flow, err := suite.service.CreateApprovalFlow(ctx, expense)

	suite.Require().NoError(err)
	suite.Equal(domain.RuleModePercentage, flow.Mode)
	suite.Len(flow.Steps, 1)
	suite.Len(flow.Approvers, 2)
	suite.Equal(threshold, *flow.PercentageThreshold)
}

func (suite *FlowServiceTestSuite) TestCreateApprovalFlow_NoMatchingRule() {
	ctx := context.Background()
	expense := &domain.Expense{ExpenseID: uuid.NewString()}

	suite.mockFlowRepo.On("FindFlowByExpenseID", ctx, expense.ExpenseID).Return(nil, apperrors.ErrNotFound).Once()
	suite.mockMatcher.On("FindMatchingRule", ctx, expense).Return(nil, services.ErrNoMatchingRule).Once()

	flow, err := suite.service.CreateApprovalFlow(ctx, expense)

	suite.Require().ErrorIs(err, services.ErrNoMatchingRule)
	suite.Nil(flow)
	suite.mockFlowRepo.AssertNotCalled(suite.T(), "SaveFlow", mock.Anything, mock.Anything)
}

func (suite *FlowServiceTestSuite) TestCreateApprovalFlow_DuplicateFlow() {
	ctx := context.Background()
	expense := &domain.Expense{ExpenseID: uuid.NewString()}
	existing := suite.sequentialFlow(domain.ApprovalLevel{Level: 1, Roles: []domain.UserRole{domain.RoleManager}, RequiredCount: 1})

	suite.mockFlowRepo.On("FindFlowByExpenseID", ctx, expense.ExpenseID).Return(existing, nil).Once()

	flow, err := suite.service.CreateApprovalFlow(ctx, expense)

	suite.Require().ErrorIs(err, apperrors.ErrDuplicate)
	suite.Nil(flow)
}

// --- Sequential ProcessApproval Tests ---

func (suite *FlowServiceTestSuite) TestProcessApproval_SingleLevelApproves() {
	ctx := context.Background()
	flow := suite.sequentialFlow(domain.ApprovalLevel{Level: 1, Roles: []domain.UserRole{domain.RoleManager}, RequiredCount: 1})

	suite.mockFlowRepo.On("FindFlowByID", ctx, flow.FlowID).Return(flow, nil).Once()
	suite.mockFlowRepo.On("UpdateFlow", ctx, mock.AnythingOfType("domain.ApprovalFlow")).Return(nil).Once()

	updated, err := suite.service.ProcessApproval(ctx, flow.FlowID, approver(domain.RoleManager), domain.ActionApproved, "lgtm")

	suite.Require().NoError(err)
	suite.Equal(domain.FlowApproved, updated.Status)
	suite.Equal(domain.StepApproved, updated.Steps[0].Status)
	suite.NotNil(updated.CompletedAt)
	suite.Len(updated.Steps[0].Actions, 1)
	suite.Equal("lgtm", updated.Steps[0].Actions[0].Comments)
}

func (suite *FlowServiceTestSuite) TestProcessApproval_AdvancesToNextLevel() {
	ctx := context.Background()
	flow := suite.sequentialFlow(
		domain.ApprovalLevel{Level: 1, Roles: []domain.UserRole{domain.RoleManager}, RequiredCount: 1},
		domain.ApprovalLevel{Level: 2, Roles: []domain.UserRole{domain.RoleCFO}, RequiredCount: 1},
	)

	suite.mockFlowRepo.On("FindFlowByID", ctx, flow.FlowID).Return(flow, nil).Once()
	suite.mockFlowRepo.On("UpdateFlow", ctx, mock.AnythingOfType("domain.ApprovalFlow")).Return(nil).Once()

	updated, err := suite.service.ProcessApproval(ctx, flow.FlowID, approver(domain.RoleManager), domain.ActionApproved, "")

	suite.Require().NoError(err)
	suite.Equal(domain.FlowPending, updated.Status)
	suite.Equal(2, updated.CurrentLevel)
	suite.Equal(domain.StepApproved, updated.Steps[0].Status)
	suite.Equal(domain.StepPending, updated.Steps[1].Status)
	suite.NotNil(updated.Steps[1].StartedAt)
}

func (suite *FlowServiceTestSuite) TestProcessApproval_MultiApproverGateHoldsOpen() {
	ctx := context.Background()
	flow := suite.sequentialFlow(domain.ApprovalLevel{Level: 1, Roles: []domain.UserRole{domain.RoleManager}, RequiredCount: 2})

	suite.mockFlowRepo.On("FindFlowByID", ctx, flow.FlowID).Return(flow, nil).Twice()
	suite.mockFlowRepo.On("UpdateFlow", ctx, mock.AnythingOfType("domain.ApprovalFlow")).Return(nil).Twice()

	updated, err := suite.service.ProcessApproval(ctx, flow.FlowID, approver(domain.RoleManager), domain.ActionApproved, "")
	suite.Require().NoError(err)
	suite.Equal(domain.FlowPending, updated.Status)
	suite.Equal(domain.StepPending, updated.Steps[0].Status)

	// Second distinct manager completes the gate. The repo mock returns the same
	// flow pointer, which already carries the first action.
	updated, err = suite.service.ProcessApproval(ctx, flow.FlowID, approver(domain.RoleManager), domain.ActionApproved, "")
	suite.Require().NoError(err)
	suite.Equal(domain.FlowApproved, updated.Status)
	suite.Equal(2, updated.Steps[0].ApprovedCount())
}

func (suite *FlowServiceTestSuite) TestProcessApproval_RejectionIsFinal() {
	ctx := context.Background()
	flow := suite.sequentialFlow(
		domain.ApprovalLevel{Level: 1, Roles: []domain.UserRole{domain.RoleManager}, RequiredCount: 1},
		domain.ApprovalLevel{Level: 2, Roles: []domain.UserRole{domain.RoleCFO}, RequiredCount: 1},
	)

	suite.mockFlowRepo.On("FindFlowByID", ctx, flow.FlowID).Return(flow, nil).Once()
	suite.mockFlowRepo.On("UpdateFlow", ctx, mock.AnythingOfType("domain.ApprovalFlow")).Return(nil).Once()

	updated, err := suite.service.ProcessApproval(ctx, flow.FlowID, approver(domain.RoleManager), domain.ActionRejected, "missing receipt")

	suite.Require().NoError(err)
	suite.Equal(domain.FlowRejected, updated.Status)
	suite.Equal(domain.StepRejected, updated.Steps[0].Status)
	suite.Equal(domain.StepSkipped, updated.Steps[1].Status)
	suite.NotNil(updated.CompletedAt)
}

func (suite *FlowServiceTestSuite) TestProcessApproval_ResolvedFlowRejectsFurtherActions() {
	ctx := context.Background()
	flow := suite.sequentialFlow(domain.ApprovalLevel{Level: 1, Roles: []domain.UserRole{domain.RoleManager}, RequiredCount: 1})
	flow.Status = domain.FlowRejected

	suite.mockFlowRepo.On("FindFlowByID", ctx, flow.FlowID).Return(flow, nil).Once()

	_, err := suite.service.ProcessApproval(ctx, flow.FlowID, approver(domain.RoleManager), domain.ActionApproved, "")

	suite.Require().ErrorIs(err, services.ErrFlowAlreadyResolved)
	suite.mockFlowRepo.AssertNotCalled(suite.T(), "UpdateFlow", mock.Anything, mock.Anything)
}

func (suite *FlowServiceTestSuite) TestProcessApproval_UnauthorizedRole() {
	ctx := context.Background()
	flow := suite.sequentialFlow(domain.ApprovalLevel{Level: 1, Roles: []domain.UserRole{domain.RoleCFO}, RequiredCount: 1})

	suite.mockFlowRepo.On("FindFlowByID", ctx, flow.FlowID).Return(flow, nil).Once()

	_, err := suite.service.ProcessApproval(ctx, flow.FlowID, approver(domain.RoleManager), domain.ActionApproved, "")

	suite.Require().ErrorIs(err, services.ErrUnauthorizedApprover)
	suite.Empty(flow.Steps[0].Actions)
	suite.mockFlowRepo.AssertNotCalled(suite.T(), "UpdateFlow", mock.Anything, mock.Anything)
}

func (suite *FlowServiceTestSuite) TestProcessApproval_DuplicateApprover() {
	ctx := context.Background()
	flow := suite.sequentialFlow(domain.ApprovalLevel{Level: 1, Roles: []domain.UserRole{domain.RoleManager}, RequiredCount: 2})
	manager := approver(domain.RoleManager)

	suite.mockFlowRepo.On("FindFlowByID", ctx, flow.FlowID).Return(flow, nil).Twice()
	suite.mockFlowRepo.On("UpdateFlow", ctx, mock.AnythingOfType("domain.ApprovalFlow")).Return(nil).Once()

	_, err := suite.service.ProcessApproval(ctx, flow.FlowID, manager, domain.ActionApproved, "")
	suite.Require().NoError(err)

	_, err = suite.service.ProcessApproval(ctx, flow.FlowID, manager, domain.ActionApproved, "")
	suite.Require().ErrorIs(err, services.ErrDuplicateApproval)
	suite.Len(flow.Steps[0].Actions, 1)
}

func (suite *FlowServiceTestSuite) TestProcessApproval_FlowNotFound() {
	ctx := context.Background()
	flowID := uuid.NewString()

	suite.mockFlowRepo.On("FindFlowByID", ctx, flowID).Return(nil, apperrors.ErrNotFound).Once()

	_, err := suite.service.ProcessApproval(ctx, flowID, approver(domain.RoleManager), domain.ActionApproved, "")

	suite.Require().ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *FlowServiceTestSuite) TestProcessApproval_CorruptLevelPointer() {
	ctx := context.Background()
	flow := suite.sequentialFlow(domain.ApprovalLevel{Level: 1, Roles: []domain.UserRole{domain.RoleManager}, RequiredCount: 1})
	flow.CurrentLevel = 5

	suite.mockFlowRepo.On("FindFlowByID", ctx, flow.FlowID).Return(flow, nil).Once()

	_, err := suite.service.ProcessApproval(ctx, flow.FlowID, approver(domain.RoleManager), domain.ActionApproved, "")

	suite.Require().ErrorIs(err, services.ErrInvalidFlowLevel)
}

// --- Percentage ProcessApproval Tests ---

func (suite *FlowServiceTestSuite) TestProcessApproval_PercentageThresholdReached() {
	ctx := context.Background()
	voters := []domain.RuleApprover{
		{ApproverID: uuid.NewString()},
		{ApproverID: uuid.NewString()},
		{ApproverID: uuid.NewString()},
	}
	flow := suite.percentageFlow(60, voters...)

	suite.mockFlowRepo.On("FindFlowByID", ctx, flow.FlowID).Return(flow, nil).Twice()
	suite.mockFlowRepo.On("UpdateFlow", ctx, mock.AnythingOfType("domain.ApprovalFlow")).Return(nil).Twice()

	// First approval: 1/3 = 33% < 60%, flow stays pending.
	updated, err := suite.service.ProcessApproval(ctx, flow.FlowID,
		domain.Approver{ID: voters[0].ApproverID, Role: domain.RoleManager}, domain.ActionApproved, "")
	suite.Require().NoError(err)
	suite.Equal(domain.FlowPending, updated.Status)

	// Second approval: 2/3 = 67% >= 60%, flow approves.
	updated, err = suite.service.ProcessApproval(ctx, flow.FlowID,
		domain.Approver{ID: voters[1].ApproverID, Role: domain.RoleDirector}, domain.ActionApproved, "")
	suite.Require().NoError(err)
	suite.Equal(domain.FlowApproved, updated.Status)
	suite.Equal(domain.StepApproved, updated.Steps[0].Status)
}

func (suite *FlowServiceTestSuite) TestProcessApproval_RequiredApproverShortCircuits() {
	ctx := context.Background()
	required := domain.RuleApprover{ApproverID: uuid.NewString(), Required: true}
	voters := []domain.RuleApprover{
		{ApproverID: uuid.NewString()},
		{ApproverID: uuid.NewString()},
		required,
	}
	flow := suite.percentageFlow(100, voters...)

	suite.mockFlowRepo.On("FindFlowByID", ctx, flow.FlowID).Return(flow, nil).Once()
	suite.mockFlowRepo.On("UpdateFlow", ctx, mock.AnythingOfType("domain.ApprovalFlow")).Return(nil).Once()

	updated, err := suite.service.ProcessApproval(ctx, flow.FlowID,
		domain.Approver{ID: required.ApproverID, Role: domain.RoleCFO}, domain.ActionApproved, "")

	suite.Require().NoError(err)
	suite.Equal(domain.FlowApproved, updated.Status)
}

func (suite *FlowServiceTestSuite) TestProcessApproval_PercentageRejectsOnlyAfterAllVote() {
	ctx := context.Background()
	voters := []domain.RuleApprover{
		{ApproverID: uuid.NewString()},
		{ApproverID: uuid.NewString()},
	}
	flow := suite.percentageFlow(100, voters...)

	suite.mockFlowRepo.On("FindFlowByID", ctx, flow.FlowID).Return(flow, nil).Twice()
	suite.mockFlowRepo.On("UpdateFlow", ctx, mock.AnythingOfType("domain.ApprovalFlow")).Return(nil).Twice()

	// One rejection with an outstanding voter: threshold still reachable in
	// principle, flow stays pending.
	updated, err := suite.service.ProcessApproval(ctx, flow.FlowID,
		domain.Approver{ID: voters[0].ApproverID, Role: domain.RoleManager}, domain.ActionRejected, "no")
	suite.Require().NoError(err)
	suite.Equal(domain.FlowPending, updated.Status)

	// Last vote in, threshold missed: flow rejects.
	updated, err = suite.service.ProcessApproval(ctx, flow.FlowID,
		domain.Approver{ID: voters[1].ApproverID, Role: domain.RoleManager}, domain.ActionApproved, "")
	suite.Require().NoError(err)
	suite.Equal(domain.FlowRejected, updated.Status)
}

func (suite *FlowServiceTestSuite) TestProcessApproval_PercentageIneligibleVoter() {
	ctx := context.Background()
	flow := suite.percentageFlow(50, domain.RuleApprover{ApproverID: uuid.NewString()})

	suite.mockFlowRepo.On("FindFlowByID", ctx, flow.FlowID).Return(flow, nil).Once()

	_, err := suite.service.ProcessApproval(ctx, flow.FlowID, approver(domain.RoleCFO), domain.ActionApproved, "")

	suite.Require().ErrorIs(err, services.ErrUnauthorizedApprover)
}

// --- CanApprove / Summary Tests ---

func (suite *FlowServiceTestSuite) TestCanApprove() {
	ctx := context.Background()
	flow := suite.sequentialFlow(domain.ApprovalLevel{Level: 1, Roles: []domain.UserRole{domain.RoleManager}, RequiredCount: 1})
	manager := approver(domain.RoleManager)

	suite.mockFlowRepo.On("FindFlowByID", ctx, flow.FlowID).Return(flow, nil).Times(3)

	ok, err := suite.service.CanApprove(ctx, flow.FlowID, domain.RoleManager, manager.ID)
	suite.Require().NoError(err)
	suite.True(ok)

	ok, err = suite.service.CanApprove(ctx, flow.FlowID, domain.RoleEmployee, manager.ID)
	suite.Require().NoError(err)
	suite.False(ok)

	flow.Status = domain.FlowApproved
	ok, err = suite.service.CanApprove(ctx, flow.FlowID, domain.RoleManager, manager.ID)
	suite.Require().NoError(err)
	suite.False(ok)
}

func (suite *FlowServiceTestSuite) TestGetApprovalSummary() {
	ctx := context.Background()
	flow := suite.sequentialFlow(
		domain.ApprovalLevel{Level: 1, Roles: []domain.UserRole{domain.RoleManager}, RequiredCount: 1},
		domain.ApprovalLevel{Level: 2, Roles: []domain.UserRole{domain.RoleCFO}, RequiredCount: 1},
	)

	suite.mockFlowRepo.On("FindFlowByID", ctx, flow.FlowID).Return(flow, nil).Times(2)
	suite.mockFlowRepo.On("UpdateFlow", ctx, mock.AnythingOfType("domain.ApprovalFlow")).Return(nil).Once()

	_, err := suite.service.ProcessApproval(ctx, flow.FlowID, approver(domain.RoleManager), domain.ActionApproved, "")
	suite.Require().NoError(err)

	summary, err := suite.service.GetApprovalSummary(ctx, flow.FlowID)

	suite.Require().NoError(err)
	suite.Equal(flow.FlowID, summary.FlowID)
	suite.Equal(2, summary.CurrentLevel)
	suite.Len(summary.Steps, 2)
	suite.Equal(1, summary.Steps[0].ApprovedCount)
	suite.Equal(0, summary.Steps[1].ApprovedCount)
}

func TestFlowServiceTestSuite(t *testing.T) {
	suite.Run(t, new(FlowServiceTestSuite))
}
