package services_test

import (
	"context"
	"testing"

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

// --- Mock RuleRepository ---
type MockRuleRepository struct {
	mock.Mock
}

func (m *MockRuleRepository) FindRuleByID(ctx context.Context, ruleID string) (*domain.ApprovalRule, error) {
	args := m.Called(ctx, ruleID)
	var rule *domain.ApprovalRule
	if args.Get(0) != nil {
		rule = args.Get(0).(*domain.ApprovalRule)
	}
	return rule, args.Error(1)
}

func (m *MockRuleRepository) ListRulesByCompany(ctx context.Context, companyID string) ([]domain.ApprovalRule, error) {
	args := m.Called(ctx, companyID)
	var rules []domain.ApprovalRule
	if args.Get(0) != nil {
		rules = args.Get(0).([]domain.ApprovalRule)
	}
	return rules, args.Error(1)
}

func (m *MockRuleRepository) SaveRule(ctx context.Context, rule domain.ApprovalRule) error {
	args := m.Called(ctx, rule)
	return args.Error(0)
}

func (m *MockRuleRepository) UpdateRule(ctx context.Context, rule domain.ApprovalRule) error {
	args := m.Called(ctx, rule)
	return args.Error(0)
}

// --- Mock EmployeeDirectory ---
type MockEmployeeDirectory struct {
	mock.Mock
}

func (m *MockEmployeeDirectory) LookupEmployee(ctx context.Context, employeeID string) (*portssvc.EmployeeProfile, error) {
	args := m.Called(ctx, employeeID)
	var profile *portssvc.EmployeeProfile
	if args.Get(0) != nil {
		profile = args.Get(0).(*portssvc.EmployeeProfile)
	}
	return profile, args.Error(1)
}

// --- Test Suite ---
type RuleServiceTestSuite struct {
	suite.Suite
	mockRuleRepo  *MockRuleRepository
	mockDirectory *MockEmployeeDirectory
	service       portssvc.RuleSvcFacade
	companyID     string
}

func (suite *RuleServiceTestSuite) SetupTest() {
	suite.mockRuleRepo = new(MockRuleRepository)
	suite.mockDirectory = new(MockEmployeeDirectory)
	suite.service = services.NewRuleService(suite.mockRuleRepo, services.WithEmployeeDirectory(suite.mockDirectory))
	suite.companyID = uuid.NewString()
}

func (suite *RuleServiceTestSuite) newExpense(amount string, category domain.ExpenseCategory) *domain.Expense {
	amt := decimal.RequireFromString(amount)
	return &domain.Expense{
		ExpenseID:        uuid.NewString(),
		RequesterID:      uuid.NewString(),
		CompanyID:        suite.companyID,
		Amount:           amt,
		CurrencyCode:     "USD",
		ConvertedAmount:  amt,
		BaseCurrencyCode: "USD",
		Category:         category,
		Status:           domain.ExpenseDraft,
	}
}

func amountRule(name string, priority int, operator domain.ConditionOperator, threshold string) domain.ApprovalRule {
	amt := decimal.RequireFromString(threshold)
	return domain.ApprovalRule{
		RuleID:   uuid.NewString(),
		Name:     name,
		Mode:     domain.RuleModeSequential,
		Priority: priority,
		Active:   true,
		Conditions: []domain.RuleCondition{
			{Field: domain.FieldAmount, Operator: operator, Amount: &amt},
		},
		Levels: []domain.ApprovalLevel{
			{Level: 1, Roles: []domain.UserRole{domain.RoleManager}, RequiredCount: 1},
		},
	}
}

// --- FindMatchingRule Tests ---

func (suite *RuleServiceTestSuite) TestFindMatchingRule_FirstMatchWins() {
	ctx := context.Background()
	// Repo contract: highest priority first.
	rules := []domain.ApprovalRule{
		amountRule("large expenses", 20, domain.OpGreaterThan, "1000"),
		amountRule("all expenses", 10, domain.OpGreaterOrEqual, "0"),
	}
	suite.mockRuleRepo.On("ListRulesByCompany", ctx, suite.companyID).Return(rules, nil).Once()

	matched, err := suite.service.FindMatchingRule(ctx, suite.newExpense("5000", domain.CategoryTravel))

	suite.Require().NoError(err)
	suite.Equal("large expenses", matched.Name)
	suite.mockRuleRepo.AssertExpectations(suite.T())
}

func (suite *RuleServiceTestSuite) TestFindMatchingRule_FallsThroughToLowerPriority() {
	ctx := context.Background()
	rules := []domain.ApprovalRule{
		amountRule("large expenses", 20, domain.OpGreaterThan, "1000"),
		amountRule("all expenses", 10, domain.OpGreaterOrEqual, "0"),
	}
	suite.mockRuleRepo.On("ListRulesByCompany", ctx, suite.companyID).Return(rules, nil).Once()

	matched, err := suite.service.FindMatchingRule(ctx, suite.newExpense("250", domain.CategoryMeals))

	suite.Require().NoError(err)
	suite.Equal("all expenses", matched.Name)
}

func (suite *RuleServiceTestSuite) TestFindMatchingRule_SkipsInactiveRules() {
	ctx := context.Background()
	inactive := amountRule("disabled", 20, domain.OpGreaterOrEqual, "0")
	inactive.Active = false
	rules := []domain.ApprovalRule{
		inactive,
		amountRule("fallback", 10, domain.OpGreaterOrEqual, "0"),
	}
	suite.mockRuleRepo.On("ListRulesByCompany", ctx, suite.companyID).Return(rules, nil).Once()

	matched, err := suite.service.FindMatchingRule(ctx, suite.newExpense("100", domain.CategoryOther))

	suite.Require().NoError(err)
	suite.Equal("fallback", matched.Name)
}

func (suite *RuleServiceTestSuite) TestFindMatchingRule_NoMatch() {
	ctx := context.Background()
	rules := []domain.ApprovalRule{
		amountRule("large only", 10, domain.OpGreaterThan, "1000"),
	}
	suite.mockRuleRepo.On("ListRulesByCompany", ctx, suite.companyID).Return(rules, nil).Once()

	matched, err := suite.service.FindMatchingRule(ctx, suite.newExpense("50", domain.CategoryMeals))

	suite.Require().ErrorIs(err, services.ErrNoMatchingRule)
	suite.Nil(matched)
}

func (suite *RuleServiceTestSuite) TestFindMatchingRule_AllConditionsMustHold() {
	ctx := context.Background()
	amt := decimal.NewFromInt(100)
	rule := domain.ApprovalRule{
		RuleID:   uuid.NewString(),
		Name:     "travel over 100",
		Mode:     domain.RuleModeSequential,
		Priority: 10,
		Active:   true,
		Conditions: []domain.RuleCondition{
			{Field: domain.FieldAmount, Operator: domain.OpGreaterThan, Amount: &amt},
			{Field: domain.FieldCategory, Operator: domain.OpEquals, Value: "TRAVEL"},
		},
		Levels: []domain.ApprovalLevel{
			{Level: 1, Roles: []domain.UserRole{domain.RoleManager}, RequiredCount: 1},
		},
	}
	suite.mockRuleRepo.On("ListRulesByCompany", ctx, suite.companyID).Return([]domain.ApprovalRule{rule}, nil).Twice()

	matched, err := suite.service.FindMatchingRule(ctx, suite.newExpense("500", domain.CategoryTravel))
	suite.Require().NoError(err)
	suite.Equal(rule.RuleID, matched.RuleID)

	// Same amount, wrong category: the conjunction fails.
	_, err = suite.service.FindMatchingRule(ctx, suite.newExpense("500", domain.CategoryMeals))
	suite.Require().ErrorIs(err, services.ErrNoMatchingRule)
}

func (suite *RuleServiceTestSuite) TestFindMatchingRule_CategoryInList() {
	ctx := context.Background()
	rule := domain.ApprovalRule{
		RuleID:   uuid.NewString(),
		Name:     "travel and training",
		Mode:     domain.RuleModeSequential,
		Priority: 10,
		Active:   true,
		Conditions: []domain.RuleCondition{
			{Field: domain.FieldCategory, Operator: domain.OpInList, Values: []string{"TRAVEL", "TRAINING"}},
		},
		Levels: []domain.ApprovalLevel{
			{Level: 1, Roles: []domain.UserRole{domain.RoleManager}, RequiredCount: 1},
		},
	}
	suite.mockRuleRepo.On("ListRulesByCompany", ctx, suite.companyID).Return([]domain.ApprovalRule{rule}, nil).Twice()

	_, err := suite.service.FindMatchingRule(ctx, suite.newExpense("10", domain.CategoryTraining))
	suite.Require().NoError(err)

	_, err = suite.service.FindMatchingRule(ctx, suite.newExpense("10", domain.CategoryMeals))
	suite.Require().ErrorIs(err, services.ErrNoMatchingRule)
}

func (suite *RuleServiceTestSuite) TestFindMatchingRule_DepartmentCondition() {
	ctx := context.Background()
	rule := domain.ApprovalRule{
		RuleID:   uuid.NewString(),
		Name:     "engineering expenses",
		Mode:     domain.RuleModeSequential,
		Priority: 10,
		Active:   true,
		Conditions: []domain.RuleCondition{
			{Field: domain.FieldDepartment, Operator: domain.OpEquals, Value: "Engineering"},
		},
		Levels: []domain.ApprovalLevel{
			{Level: 1, Roles: []domain.UserRole{domain.RoleManager}, RequiredCount: 1},
		},
	}
	expense := suite.newExpense("100", domain.CategoryOther)
	suite.mockRuleRepo.On("ListRulesByCompany", ctx, suite.companyID).Return([]domain.ApprovalRule{rule}, nil).Once()
	suite.mockDirectory.On("LookupEmployee", ctx, expense.RequesterID).
		Return(&portssvc.EmployeeProfile{Department: "Engineering", EmployeeLevel: "L3"}, nil).Once()

	matched, err := suite.service.FindMatchingRule(ctx, expense)

	suite.Require().NoError(err)
	suite.Equal(rule.RuleID, matched.RuleID)
	suite.mockDirectory.AssertExpectations(suite.T())
}

// --- CreateRule Tests ---

func (suite *RuleServiceTestSuite) validCreateRequest() dto.CreateRuleRequest {
	return dto.CreateRuleRequest{
		Name:     "manager then cfo",
		Priority: 10,
		Conditions: []dto.RuleConditionInput{
			{Field: "AMOUNT", Operator: "GT", Amount: decimalPtr("100")},
		},
		Levels: []dto.ApprovalLevelInput{
			{Level: 1, Roles: []string{"MANAGER"}, RequiredCount: 1},
			{Level: 2, Roles: []string{"CFO"}, RequiredCount: 1},
		},
	}
}

func (suite *RuleServiceTestSuite) TestCreateRule_Success() {
	ctx := context.Background()
	creatorID := uuid.NewString()
	suite.mockRuleRepo.On("SaveRule", ctx, mock.MatchedBy(func(rule domain.ApprovalRule) bool {
		return rule.Name == "manager then cfo" &&
			rule.Mode == domain.RuleModeSequential &&
			rule.Active &&
			len(rule.Levels) == 2 &&
			rule.CreatedBy == creatorID
	})).Return(nil).Once()

	rule, err := suite.service.CreateRule(ctx, suite.companyID, suite.validCreateRequest(), creatorID)

	suite.Require().NoError(err)
	suite.NotEmpty(rule.RuleID)
	suite.Equal(suite.companyID, rule.CompanyID)
	suite.mockRuleRepo.AssertExpectations(suite.T())
}

func (suite *RuleServiceTestSuite) TestCreateRule_RejectsNonContiguousLevels() {
	ctx := context.Background()
	req := suite.validCreateRequest()
	req.Levels = []dto.ApprovalLevelInput{
		{Level: 1, Roles: []string{"MANAGER"}, RequiredCount: 1},
		{Level: 3, Roles: []string{"CFO"}, RequiredCount: 1},
	}

	rule, err := suite.service.CreateRule(ctx, suite.companyID, req, uuid.NewString())

	suite.Require().ErrorIs(err, apperrors.ErrValidation)
	suite.Nil(rule)
	suite.mockRuleRepo.AssertNotCalled(suite.T(), "SaveRule", mock.Anything, mock.Anything)
}

func (suite *RuleServiceTestSuite) TestCreateRule_PercentageMode() {
	ctx := context.Background()
	threshold := 60
	req := dto.CreateRuleRequest{
		Name:                "team vote",
		Mode:                "PERCENTAGE",
		Priority:            10,
		PercentageThreshold: &threshold,
		Conditions: []dto.RuleConditionInput{
			{Field: "CATEGORY", Operator: "EQ", Value: "EQUIPMENT"},
		},
		Approvers: []dto.RuleApproverInput{
			{ApproverID: uuid.NewString()},
			{ApproverID: uuid.NewString(), Required: true},
		},
	}
	suite.mockRuleRepo.On("SaveRule", ctx, mock.AnythingOfType("domain.ApprovalRule")).Return(nil).Once()

	rule, err := suite.service.CreateRule(ctx, suite.companyID, req, uuid.NewString())

	suite.Require().NoError(err)
	suite.Equal(domain.RuleModePercentage, rule.Mode)
	suite.Len(rule.Approvers, 2)
}

func (suite *RuleServiceTestSuite) TestCreateRule_DirectoryConditionWithoutDirectory() {
	ctx := context.Background()
	// A service wired without a directory must reject organizational conditions.
	bare := services.NewRuleService(suite.mockRuleRepo)
	req := suite.validCreateRequest()
	req.Conditions = []dto.RuleConditionInput{
		{Field: "DEPARTMENT", Operator: "EQ", Value: "Sales"},
	}

	rule, err := bare.CreateRule(ctx, suite.companyID, req, uuid.NewString())

	suite.Require().ErrorIs(err, apperrors.ErrValidation)
	suite.Nil(rule)
}

// --- DeactivateRule Tests ---

func (suite *RuleServiceTestSuite) TestDeactivateRule() {
	ctx := context.Background()
	existing := amountRule("to disable", 10, domain.OpGreaterOrEqual, "0")
	existing.CompanyID = suite.companyID
	suite.mockRuleRepo.On("FindRuleByID", ctx, existing.RuleID).Return(&existing, nil).Once()
	suite.mockRuleRepo.On("UpdateRule", ctx, mock.MatchedBy(func(rule domain.ApprovalRule) bool {
		return rule.RuleID == existing.RuleID && !rule.Active
	})).Return(nil).Once()

	err := suite.service.DeactivateRule(ctx, suite.companyID, existing.RuleID, uuid.NewString())

	suite.Require().NoError(err)
	suite.mockRuleRepo.AssertExpectations(suite.T())
}

func (suite *RuleServiceTestSuite) TestGetRuleByID_WrongCompany() {
	ctx := context.Background()
	existing := amountRule("other company rule", 10, domain.OpGreaterOrEqual, "0")
	existing.CompanyID = uuid.NewString()
	suite.mockRuleRepo.On("FindRuleByID", ctx, existing.RuleID).Return(&existing, nil).Once()

	rule, err := suite.service.GetRuleByID(ctx, suite.companyID, existing.RuleID)

	suite.Require().ErrorIs(err, apperrors.ErrNotFound)
	suite.Nil(rule)
}

func TestRuleServiceTestSuite(t *testing.T) {
	suite.Run(t, new(RuleServiceTestSuite))
}
