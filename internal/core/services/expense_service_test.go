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
	"github.com/expensehub/expense_approval_app/internal/dto"
)

// --- Mock ExpenseRepository ---
type MockExpenseRepository struct {
	mock.Mock
}

func (m *MockExpenseRepository) FindExpenseByID(ctx context.Context, expenseID string) (*domain.Expense, error) {
	args := m.Called(ctx, expenseID)
	var expense *domain.Expense
	if args.Get(0) != nil {
		expense = args.Get(0).(*domain.Expense)
	}
	return expense, args.Error(1)
}

func (m *MockExpenseRepository) ListExpensesByEmployee(ctx context.Context, employeeID string, status *domain.ExpenseStatus, limit int, nextToken *string) ([]domain.Expense, *string, error) {
	args := m.Called(ctx, employeeID, status, limit, nextToken)
	var expenses []domain.Expense
	if args.Get(0) != nil {
		expenses = args.Get(0).([]domain.Expense)
	}
	var token *string
	if args.Get(1) != nil {
		token = args.Get(1).(*string)
	}
	return expenses, token, args.Error(2)
}

func (m *MockExpenseRepository) ListExpensesByCompany(ctx context.Context, companyID string, limit int, nextToken *string) ([]domain.Expense, *string, error) {
	args := m.Called(ctx, companyID, limit, nextToken)
	var expenses []domain.Expense
	if args.Get(0) != nil {
		expenses = args.Get(0).([]domain.Expense)
	}
	var token *string
	if args.Get(1) != nil {
		token = args.Get(1).(*string)
	}
	return expenses, token, args.Error(2)
}

func (m *MockExpenseRepository) FindExpensesByIDs(ctx context.Context, expenseIDs []string) (map[string]domain.Expense, error) {
	args := m.Called(ctx, expenseIDs)
	var byID map[string]domain.Expense
	if args.Get(0) != nil {
		byID = args.Get(0).(map[string]domain.Expense)
	}
	return byID, args.Error(1)
}

func (m *MockExpenseRepository) SaveExpense(ctx context.Context, expense domain.Expense) error {
	args := m.Called(ctx, expense)
	return args.Error(0)
}

func (m *MockExpenseRepository) UpdateExpenseStatus(ctx context.Context, expense domain.Expense) error {
	args := m.Called(ctx, expense)
	return args.Error(0)
}

func (m *MockExpenseRepository) AppendApprovalRecord(ctx context.Context, expense domain.Expense, record domain.ApprovalRecord) error {
	args := m.Called(ctx, expense, record)
	return args.Error(0)
}

// --- Mock FlowSvc ---
type MockFlowSvc struct {
	mock.Mock
}

func (m *MockFlowSvc) GetFlow(ctx context.Context, flowID string) (*domain.ApprovalFlow, error) {
	args := m.Called(ctx, flowID)
	var flow *domain.ApprovalFlow
	if args.Get(0) != nil {
		flow = args.Get(0).(*domain.ApprovalFlow)
	}
	return flow, args.Error(1)
}

func (m *MockFlowSvc) GetFlowByExpenseID(ctx context.Context, expenseID string) (*domain.ApprovalFlow, error) {
	args := m.Called(ctx, expenseID)
	var flow *domain.ApprovalFlow
	if args.Get(0) != nil {
		flow = args.Get(0).(*domain.ApprovalFlow)
	}
	return flow, args.Error(1)
}

func (m *MockFlowSvc) GetPendingApprovalsForRole(ctx context.Context, role domain.UserRole) ([]domain.ApprovalFlow, error) {
	args := m.Called(ctx, role)
	var flows []domain.ApprovalFlow
	if args.Get(0) != nil {
		flows = args.Get(0).([]domain.ApprovalFlow)
	}
	return flows, args.Error(1)
}

func (m *MockFlowSvc) GetPendingApprovalsForApprover(ctx context.Context, approverID string) ([]domain.ApprovalFlow, error) {
	args := m.Called(ctx, approverID)
	var flows []domain.ApprovalFlow
	if args.Get(0) != nil {
		flows = args.Get(0).([]domain.ApprovalFlow)
	}
	return flows, args.Error(1)
}

func (m *MockFlowSvc) GetApprovalSummary(ctx context.Context, flowID string) (*dto.ApprovalSummary, error) {
	args := m.Called(ctx, flowID)
	var summary *dto.ApprovalSummary
	if args.Get(0) != nil {
		summary = args.Get(0).(*dto.ApprovalSummary)
	}
	return summary, args.Error(1)
}

func (m *MockFlowSvc) CanApprove(ctx context.Context, flowID string, role domain.UserRole, approverID string) (bool, error) {
	args := m.Called(ctx, flowID, role, approverID)
	return args.Bool(0), args.Error(1)
}

func (m *MockFlowSvc) CreateApprovalFlow(ctx context.Context, expense *domain.Expense) (*domain.ApprovalFlow, error) {
	args := m.Called(ctx, expense)
	var flow *domain.ApprovalFlow
	if args.Get(0) != nil {
		flow = args.Get(0).(*domain.ApprovalFlow)
	}
	return flow, args.Error(1)
}

func (m *MockFlowSvc) ProcessApproval(ctx context.Context, flowID string, approver domain.Approver, action domain.ApprovalAction, comments string) (*domain.ApprovalFlow, error) {
	args := m.Called(ctx, flowID, approver, action, comments)
	var flow *domain.ApprovalFlow
	if args.Get(0) != nil {
		flow = args.Get(0).(*domain.ApprovalFlow)
	}
	return flow, args.Error(1)
}

// --- Mock UserReaderSvc ---
type MockUserReaderSvc struct {
	mock.Mock
}

func (m *MockUserReaderSvc) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	var user *domain.User
	if args.Get(0) != nil {
		user = args.Get(0).(*domain.User)
	}
	return user, args.Error(1)
}

func (m *MockUserReaderSvc) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	var user *domain.User
	if args.Get(0) != nil {
		user = args.Get(0).(*domain.User)
	}
	return user, args.Error(1)
}

func (m *MockUserReaderSvc) ListUsersByCompany(ctx context.Context, companyID string, limit int, offset int) ([]domain.User, error) {
	args := m.Called(ctx, companyID, limit, offset)
	var users []domain.User
	if args.Get(0) != nil {
		users = args.Get(0).([]domain.User)
	}
	return users, args.Error(1)
}

// --- Mock CompanySvc ---
type MockCompanySvc struct {
	mock.Mock
}

func (m *MockCompanySvc) CreateCompany(ctx context.Context, req dto.CreateCompanyRequest, creatorUserID string) (*domain.Company, error) {
	args := m.Called(ctx, req, creatorUserID)
	var company *domain.Company
	if args.Get(0) != nil {
		company = args.Get(0).(*domain.Company)
	}
	return company, args.Error(1)
}

func (m *MockCompanySvc) GetCompanyByID(ctx context.Context, companyID string) (*domain.Company, error) {
	args := m.Called(ctx, companyID)
	var company *domain.Company
	if args.Get(0) != nil {
		company = args.Get(0).(*domain.Company)
	}
	return company, args.Error(1)
}

// --- Mock ExchangeRateSvc ---
type MockExchangeRateSvc struct {
	mock.Mock
}

func (m *MockExchangeRateSvc) CreateExchangeRate(ctx context.Context, req dto.CreateExchangeRateRequest, creatorUserID string) (*domain.ExchangeRate, error) {
	args := m.Called(ctx, req, creatorUserID)
	var rate *domain.ExchangeRate
	if args.Get(0) != nil {
		rate = args.Get(0).(*domain.ExchangeRate)
	}
	return rate, args.Error(1)
}

func (m *MockExchangeRateSvc) GetExchangeRate(ctx context.Context, fromCode, toCode string) (*domain.ExchangeRate, error) {
	args := m.Called(ctx, fromCode, toCode)
	var rate *domain.ExchangeRate
	if args.Get(0) != nil {
		rate = args.Get(0).(*domain.ExchangeRate)
	}
	return rate, args.Error(1)
}

func (m *MockExchangeRateSvc) Convert(ctx context.Context, amount decimal.Decimal, fromCode, toCode string) (decimal.Decimal, error) {
	args := m.Called(ctx, amount, fromCode, toCode)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// --- Mock Notifier ---
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyExpenseStatusChanged(ctx context.Context, event portssvc.ExpenseEvent) {
	m.Called(ctx, event)
}

// --- Test Suite ---
type ExpenseServiceTestSuite struct {
	suite.Suite
	mockExpenseRepo *MockExpenseRepository
	mockFlowSvc     *MockFlowSvc
	mockUserSvc     *MockUserReaderSvc
	mockCompanySvc  *MockCompanySvc
	mockRateSvc     *MockExchangeRateSvc
	mockNotifier    *MockNotifier
	service         portssvc.ExpenseSvcFacade

	requesterID string
	companyID   string
}

func (suite *ExpenseServiceTestSuite) SetupTest() {
	suite.mockExpenseRepo = new(MockExpenseRepository)
	suite.mockFlowSvc = new(MockFlowSvc)
	suite.mockUserSvc = new(MockUserReaderSvc)
	suite.mockCompanySvc = new(MockCompanySvc)
	suite.mockRateSvc = new(MockExchangeRateSvc)
	suite.mockNotifier = new(MockNotifier)
	suite.service = services.NewExpenseService(
		suite.mockExpenseRepo,
		suite.mockFlowSvc,
		suite.mockUserSvc,
		suite.mockCompanySvc,
		suite.mockRateSvc,
		suite.mockNotifier,
	)
	suite.requesterID = uuid.NewString()
	suite.companyID = uuid.NewString()
}

func (suite *ExpenseServiceTestSuite) expenseInStatus(status domain.ExpenseStatus) *domain.Expense {
	amt := decimal.NewFromInt(250)
	return &domain.Expense{
		ExpenseID:        uuid.NewString(),
		RequesterID:      suite.requesterID,
		CompanyID:        suite.companyID,
		Amount:           amt,
		CurrencyCode:     "USD",
		ConvertedAmount:  amt,
		BaseCurrencyCode: "USD",
		Category:         domain.CategoryMeals,
		Status:           status,
	}
}

// --- CreateExpense Tests ---

func (suite *ExpenseServiceTestSuite) TestCreateExpense_Success() {
	ctx := context.Background()
	req := dto.CreateExpenseRequest{
		Amount:       decimal.NewFromInt(100),
		CurrencyCode: "EUR",
		Category:     domain.CategoryTravel,
		Description:  "Client visit",
		ExpenseDate:  time.Now(),
		Lines: []dto.ExpenseLineInput{
			{ItemDescription: "Train ticket", Amount: decimal.NewFromInt(60)},
			{ItemDescription: "Dinner", Amount: decimal.NewFromInt(40)},
		},
	}
	requester := &domain.User{UserID: suite.requesterID, Name: "Alex", CompanyID: suite.companyID}
	company := &domain.Company{CompanyID: suite.companyID, BaseCurrencyCode: "USD"}
	converted := decimal.RequireFromString("108.5")

	suite.mockUserSvc.On("GetUserByID", ctx, suite.requesterID).Return(requester, nil).Once()
	suite.mockCompanySvc.On("GetCompanyByID", ctx, suite.companyID).Return(company, nil).Once()
	suite.mockRateSvc.On("Convert", ctx, req.Amount, "EUR", "USD").Return(converted, nil).Once()
	suite.mockExpenseRepo.On("SaveExpense", ctx, mock.MatchedBy(func(e domain.Expense) bool {
		return e.Status == domain.ExpenseDraft &&
			e.ConvertedAmount.Equal(converted) &&
			e.BaseCurrencyCode == "USD" &&
			len(e.Lines) == 2
	})).Return(nil).Once()

	expense, err := suite.service.CreateExpense(ctx, req, suite.requesterID)

	suite.Require().NoError(err)
	suite.Equal(domain.ExpenseDraft, expense.Status)
	suite.Equal("Alex", expense.RequesterName)
	suite.NotEmpty(expense.Lines[0].LineID)
	suite.mockExpenseRepo.AssertExpectations(suite.T())
}

func (suite *ExpenseServiceTestSuite) TestCreateExpense_NegativeAmount() {
	ctx := context.Background()
	req := dto.CreateExpenseRequest{
		Amount:       decimal.NewFromInt(-5),
		CurrencyCode: "USD",
		Category:     domain.CategoryMeals,
		Description:  "bad",
		ExpenseDate:  time.Now(),
	}

	expense, err := suite.service.CreateExpense(ctx, req, suite.requesterID)

	suite.Require().ErrorIs(err, apperrors.ErrValidation)
	suite.Nil(expense)
	suite.mockExpenseRepo.AssertNotCalled(suite.T(), "SaveExpense", mock.Anything, mock.Anything)
}

// --- SubmitExpense Tests ---

func (suite *ExpenseServiceTestSuite) TestSubmitExpense_Success() {
	ctx := context.Background()
	expense := suite.expenseInStatus(domain.ExpenseDraft)
	flow := &domain.ApprovalFlow{FlowID: uuid.NewString(), ExpenseID: expense.ExpenseID, Status: domain.FlowPending}

	suite.mockExpenseRepo.On("FindExpenseByID", ctx, expense.ExpenseID).Return(expense, nil).Once()
	suite.mockFlowSvc.On("CreateApprovalFlow", ctx, expense).Return(flow, nil).Once()
	suite.mockExpenseRepo.On("UpdateExpenseStatus", ctx, mock.MatchedBy(func(e domain.Expense) bool {
		return e.Status == domain.ExpensePending && e.SubmittedAt != nil
	})).Return(nil).Once()
	suite.mockNotifier.On("NotifyExpenseStatusChanged", ctx, mock.AnythingOfType("services.ExpenseEvent")).Return().Once()

	updated, returnedFlow, err := suite.service.SubmitExpense(ctx, expense.ExpenseID, suite.requesterID)

	suite.Require().NoError(err)
	suite.Equal(domain.ExpensePending, updated.Status)
	suite.Equal(flow.FlowID, returnedFlow.FlowID)
	suite.mockNotifier.AssertExpectations(suite.T())
}

func (suite *ExpenseServiceTestSuite) TestSubmitExpense_AlreadySubmitted() {
	ctx := context.Background()
	expense := suite.expenseInStatus(domain.ExpensePending)

	suite.mockExpenseRepo.On("FindExpenseByID", ctx, expense.ExpenseID).Return(expense, nil).Once()

	_, _, err := suite.service.SubmitExpense(ctx, expense.ExpenseID, suite.requesterID)

	suite.Require().ErrorIs(err, services.ErrAlreadySubmitted)
	suite.mockFlowSvc.AssertNotCalled(suite.T(), "CreateApprovalFlow", mock.Anything, mock.Anything)
}

func (suite *ExpenseServiceTestSuite) TestSubmitExpense_NoMatchingRuleLeavesDraft() {
	ctx := context.Background()
	expense := suite.expenseInStatus(domain.ExpenseDraft)

	suite.mockExpenseRepo.On("FindExpenseByID", ctx, expense.ExpenseID).Return(expense, nil).Once()
	suite.mockFlowSvc.On("CreateApprovalFlow", ctx, expense).Return(nil, services.ErrNoMatchingRule).Once()

	_, _, err := suite.service.SubmitExpense(ctx, expense.ExpenseID, suite.requesterID)

	suite.Require().ErrorIs(err, services.ErrNoMatchingRule)
	suite.mockExpenseRepo.AssertNotCalled(suite.T(), "UpdateExpenseStatus", mock.Anything, mock.Anything)
}

func (suite *ExpenseServiceTestSuite) TestSubmitExpense_NotOwner() {
	ctx := context.Background()
	expense := suite.expenseInStatus(domain.ExpenseDraft)

	suite.mockExpenseRepo.On("FindExpenseByID", ctx, expense.ExpenseID).Return(expense, nil).Once()

	_, _, err := suite.service.SubmitExpense(ctx, expense.ExpenseID, uuid.NewString())

	suite.Require().ErrorIs(err, services.ErrNotOwner)
}

// --- ProcessExpenseApproval Tests ---

func (suite *ExpenseServiceTestSuite) TestProcessExpenseApproval_RecordsLevelBeforeAdvancement() {
	ctx := context.Background()
	expense := suite.expenseInStatus(domain.ExpensePending)
	manager := domain.Approver{ID: uuid.NewString(), Name: "Mgr", Role: domain.RoleManager}

	before := &domain.ApprovalFlow{FlowID: uuid.NewString(), ExpenseID: expense.ExpenseID, CurrentLevel: 1, TotalLevels: 2, Status: domain.FlowPending}
	after := &domain.ApprovalFlow{FlowID: before.FlowID, ExpenseID: expense.ExpenseID, CurrentLevel: 2, TotalLevels: 2, Status: domain.FlowPending}

	suite.mockExpenseRepo.On("FindExpenseByID", ctx, expense.ExpenseID).Return(expense, nil).Once()
	suite.mockFlowSvc.On("GetFlowByExpenseID", ctx, expense.ExpenseID).Return(before, nil).Once()
	suite.mockFlowSvc.On("ProcessApproval", ctx, before.FlowID, manager, domain.ActionApproved, "ok").Return(after, nil).Once()
	suite.mockExpenseRepo.On("AppendApprovalRecord", ctx, mock.AnythingOfType("domain.Expense"), mock.MatchedBy(func(r domain.ApprovalRecord) bool {
		return r.Level == 1 && r.Action == domain.ActionApproved && r.ApproverID == manager.ID
	})).Return(nil).Once()

	updated, err := suite.service.ProcessExpenseApproval(ctx, expense.ExpenseID, manager, domain.ActionApproved, "ok")

	suite.Require().NoError(err)
	// Flow still pending at level 2: expense status unchanged.
	suite.Equal(domain.ExpensePending, updated.Status)
	suite.Len(updated.History, 1)
	suite.Equal(1, updated.History[0].Level)
	suite.mockNotifier.AssertNotCalled(suite.T(), "NotifyExpenseStatusChanged", mock.Anything, mock.Anything)
}

func (suite *ExpenseServiceTestSuite) TestProcessExpenseApproval_MirrorsRejection() {
	ctx := context.Background()
	expense := suite.expenseInStatus(domain.ExpensePending)
	manager := domain.Approver{ID: uuid.NewString(), Name: "Mgr", Role: domain.RoleManager}

	flow := &domain.ApprovalFlow{FlowID: uuid.NewString(), ExpenseID: expense.ExpenseID, CurrentLevel: 1, TotalLevels: 1, Status: domain.FlowPending}
	rejected := &domain.ApprovalFlow{FlowID: flow.FlowID, ExpenseID: expense.ExpenseID, CurrentLevel: 1, TotalLevels: 1, Status: domain.FlowRejected}

	suite.mockExpenseRepo.On("FindExpenseByID", ctx, expense.ExpenseID).Return(expense, nil).Once()
	suite.mockFlowSvc.On("GetFlowByExpenseID", ctx, expense.ExpenseID).Return(flow, nil).Once()
	suite.mockFlowSvc.On("ProcessApproval", ctx, flow.FlowID, manager, domain.ActionRejected, "no").Return(rejected, nil).Once()
	suite.mockExpenseRepo.On("AppendApprovalRecord", ctx, mock.MatchedBy(func(e domain.Expense) bool {
		return e.Status == domain.ExpenseRejected
	}), mock.AnythingOfType("domain.ApprovalRecord")).Return(nil).Once()
	suite.mockNotifier.On("NotifyExpenseStatusChanged", ctx, mock.MatchedBy(func(ev portssvc.ExpenseEvent) bool {
		return ev.Status == domain.ExpenseRejected
	})).Return().Once()

	updated, err := suite.service.ProcessExpenseApproval(ctx, expense.ExpenseID, manager, domain.ActionRejected, "no")

	suite.Require().NoError(err)
	suite.Equal(domain.ExpenseRejected, updated.Status)
	suite.mockNotifier.AssertExpectations(suite.T())
}

func (suite *ExpenseServiceTestSuite) TestProcessExpenseApproval_NotPending() {
	ctx := context.Background()
	expense := suite.expenseInStatus(domain.ExpenseApproved)
	manager := domain.Approver{ID: uuid.NewString(), Role: domain.RoleManager}

	suite.mockExpenseRepo.On("FindExpenseByID", ctx, expense.ExpenseID).Return(expense, nil).Once()

	_, err := suite.service.ProcessExpenseApproval(ctx, expense.ExpenseID, manager, domain.ActionApproved, "")

	suite.Require().ErrorIs(err, services.ErrExpenseNotPending)
	suite.mockFlowSvc.AssertNotCalled(suite.T(), "ProcessApproval", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ExpenseServiceTestSuite) TestProcessExpenseApproval_ValidationFailureLeavesHistoryUntouched() {
	ctx := context.Background()
	expense := suite.expenseInStatus(domain.ExpensePending)
	employee := domain.Approver{ID: uuid.NewString(), Role: domain.RoleEmployee}
	flow := &domain.ApprovalFlow{FlowID: uuid.NewString(), ExpenseID: expense.ExpenseID, CurrentLevel: 1, Status: domain.FlowPending}

	suite.mockExpenseRepo.On("FindExpenseByID", ctx, expense.ExpenseID).Return(expense, nil).Once()
	suite.mockFlowSvc.On("GetFlowByExpenseID", ctx, expense.ExpenseID).Return(flow, nil).Once()
	suite.mockFlowSvc.On("ProcessApproval", ctx, flow.FlowID, employee, domain.ActionApproved, "").Return(nil, services.ErrUnauthorizedApprover).Once()

	_, err := suite.service.ProcessExpenseApproval(ctx, expense.ExpenseID, employee, domain.ActionApproved, "")

	suite.Require().ErrorIs(err, services.ErrUnauthorizedApprover)
	suite.Empty(expense.History)
	suite.mockExpenseRepo.AssertNotCalled(suite.T(), "AppendApprovalRecord", mock.Anything, mock.Anything, mock.Anything)
}

// --- CancelExpense Tests ---

func (suite *ExpenseServiceTestSuite) TestCancelExpense_PendingByOwner() {
	ctx := context.Background()
	expense := suite.expenseInStatus(domain.ExpensePending)

	suite.mockExpenseRepo.On("FindExpenseByID", ctx, expense.ExpenseID).Return(expense, nil).Once()
	suite.mockExpenseRepo.On("UpdateExpenseStatus", ctx, mock.MatchedBy(func(e domain.Expense) bool {
		return e.Status == domain.ExpenseCancelled
	})).Return(nil).Once()
	suite.mockNotifier.On("NotifyExpenseStatusChanged", ctx, mock.AnythingOfType("services.ExpenseEvent")).Return().Once()

	updated, err := suite.service.CancelExpense(ctx, expense.ExpenseID, suite.requesterID)

	suite.Require().NoError(err)
	suite.Equal(domain.ExpenseCancelled, updated.Status)
}

func (suite *ExpenseServiceTestSuite) TestCancelExpense_NotOwner() {
	ctx := context.Background()
	expense := suite.expenseInStatus(domain.ExpenseDraft)

	suite.mockExpenseRepo.On("FindExpenseByID", ctx, expense.ExpenseID).Return(expense, nil).Once()

	_, err := suite.service.CancelExpense(ctx, expense.ExpenseID, uuid.NewString())

	suite.Require().ErrorIs(err, services.ErrNotOwner)
	suite.mockExpenseRepo.AssertNotCalled(suite.T(), "UpdateExpenseStatus", mock.Anything, mock.Anything)
}

func (suite *ExpenseServiceTestSuite) TestCancelExpense_AlreadyFinal() {
	ctx := context.Background()
	for _, status := range []domain.ExpenseStatus{domain.ExpenseApproved, domain.ExpenseRejected, domain.ExpenseCancelled} {
		expense := suite.expenseInStatus(status)
		suite.mockExpenseRepo.On("FindExpenseByID", ctx, expense.ExpenseID).Return(expense, nil).Once()

		_, err := suite.service.CancelExpense(ctx, expense.ExpenseID, suite.requesterID)

		suite.Require().ErrorIs(err, services.ErrAlreadyFinal, "status %s", status)
	}
}

// --- Pending Approvals Tests ---

func (suite *ExpenseServiceTestSuite) TestGetPendingExpensesForApprover() {
	ctx := context.Background()
	approverID := uuid.NewString()
	pending := suite.expenseInStatus(domain.ExpensePending)
	now := time.Now()
	flow := domain.ApprovalFlow{
		FlowID:       uuid.NewString(),
		ExpenseID:    pending.ExpenseID,
		Mode:         domain.RuleModeSequential,
		CurrentLevel: 1,
		TotalLevels:  1,
		Status:       domain.FlowPending,
		Steps: []domain.FlowStep{
			{Level: 1, Roles: []domain.UserRole{domain.RoleManager}, RequiredCount: 1, Status: domain.StepPending, StartedAt: &now},
		},
	}

	suite.mockFlowSvc.On("GetPendingApprovalsForRole", ctx, domain.RoleManager).Return([]domain.ApprovalFlow{flow}, nil).Once()
	suite.mockFlowSvc.On("GetPendingApprovalsForApprover", ctx, approverID).Return(nil, nil).Once()
	suite.mockExpenseRepo.On("FindExpensesByIDs", ctx, []string{pending.ExpenseID}).
		Return(map[string]domain.Expense{pending.ExpenseID: *pending}, nil).Once()

	expenses, err := suite.service.GetPendingExpensesForApprover(ctx, approverID, domain.RoleManager)

	suite.Require().NoError(err)
	suite.Require().Len(expenses, 1)
	suite.Equal(pending.ExpenseID, expenses[0].ExpenseID)
}

func (suite *ExpenseServiceTestSuite) TestGetPendingExpensesForApprover_ExcludesAlreadyActed() {
	ctx := context.Background()
	approverID := uuid.NewString()
	now := time.Now()
	flow := domain.ApprovalFlow{
		FlowID:       uuid.NewString(),
		ExpenseID:    uuid.NewString(),
		Mode:         domain.RuleModeSequential,
		CurrentLevel: 1,
		TotalLevels:  1,
		Status:       domain.FlowPending,
		Steps: []domain.FlowStep{
			{
				Level: 1, Roles: []domain.UserRole{domain.RoleManager}, RequiredCount: 2,
				Status: domain.StepPending, StartedAt: &now,
				Actions: []domain.StepAction{{ActionID: uuid.NewString(), ApproverID: approverID, Action: domain.ActionApproved}},
			},
		},
	}

	suite.mockFlowSvc.On("GetPendingApprovalsForRole", ctx, domain.RoleManager).Return([]domain.ApprovalFlow{flow}, nil).Once()
	suite.mockFlowSvc.On("GetPendingApprovalsForApprover", ctx, approverID).Return(nil, nil).Once()

	expenses, err := suite.service.GetPendingExpensesForApprover(ctx, approverID, domain.RoleManager)

	suite.Require().NoError(err)
	suite.Empty(expenses)
	suite.mockExpenseRepo.AssertNotCalled(suite.T(), "FindExpensesByIDs", mock.Anything, mock.Anything)
}

// --- Visibility Tests ---

func (suite *ExpenseServiceTestSuite) TestGetExpenseByID_OwnerSees() {
	ctx := context.Background()
	expense := suite.expenseInStatus(domain.ExpenseDraft)

	suite.mockExpenseRepo.On("FindExpenseByID", ctx, expense.ExpenseID).Return(expense, nil).Once()

	got, err := suite.service.GetExpenseByID(ctx, expense.ExpenseID, suite.requesterID)

	suite.Require().NoError(err)
	suite.Equal(expense.ExpenseID, got.ExpenseID)
	suite.mockUserSvc.AssertNotCalled(suite.T(), "GetUserByID", mock.Anything, mock.Anything)
}

func (suite *ExpenseServiceTestSuite) TestGetExpenseByID_OtherEmployeeForbidden() {
	ctx := context.Background()
	expense := suite.expenseInStatus(domain.ExpenseDraft)
	viewerID := uuid.NewString()
	viewer := &domain.User{UserID: viewerID, CompanyID: suite.companyID, Role: domain.RoleEmployee}

	suite.mockExpenseRepo.On("FindExpenseByID", ctx, expense.ExpenseID).Return(expense, nil).Once()
	suite.mockUserSvc.On("GetUserByID", ctx, viewerID).Return(viewer, nil).Once()

	got, err := suite.service.GetExpenseByID(ctx, expense.ExpenseID, viewerID)

	suite.Require().ErrorIs(err, apperrors.ErrForbidden)
	suite.Nil(got)
}

func (suite *ExpenseServiceTestSuite) TestGetExpenseByID_ManagerSees() {
	ctx := context.Background()
	expense := suite.expenseInStatus(domain.ExpensePending)
	viewerID := uuid.NewString()
	viewer := &domain.User{UserID: viewerID, CompanyID: suite.companyID, Role: domain.RoleManager}

	suite.mockExpenseRepo.On("FindExpenseByID", ctx, expense.ExpenseID).Return(expense, nil).Once()
	suite.mockUserSvc.On("GetUserByID", ctx, viewerID).Return(viewer, nil).Once()

	got, err := suite.service.GetExpenseByID(ctx, expense.ExpenseID, viewerID)

	suite.Require().NoError(err)
	suite.Equal(expense.ExpenseID, got.ExpenseID)
}

func TestExpenseServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ExpenseServiceTestSuite))
}
