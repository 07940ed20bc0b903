package services

import (
	portsrepo "github.com/expensehub/expense_approval_app/internal/core/ports/repositories"
	portssvc "github.com/expensehub/expense_approval_app/internal/core/ports/services"
	"github.com/expensehub/expense_approval_app/pkg/config"
)

// NewServiceContainer creates a service container with properly initialized dependencies.
func NewServiceContainer(cfg *config.AppConfig, repos portsrepo.RepositoryProvider) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	container.User = NewUserService(repos.UserRepo)
	container.Company = NewCompanyService(repos.CompanyRepo)
	container.ExchangeRate = NewExchangeRateService(repos.ExchangeRateRepo)
	container.Notifier = NewLogNotifier()

	// The rule engine evaluates organizational conditions against the user
	// table, so the user service doubles as the employee directory.
	container.Rule = NewRuleService(repos.RuleRepo, WithEmployeeDirectory(NewUserDirectory(container.User)))

	container.Flow = NewFlowService(repos.FlowRepo, container.Rule)
	container.Expense = NewExpenseService(
		repos.ExpenseRepo,
		container.Flow,
		container.User,
		container.Company,
		container.ExchangeRate,
		container.Notifier,
	)

	container.Token = NewTokenService(&cfg.Auth, repos.UserRepo)
	container.GoogleOAuth = NewGoogleOAuthService(&cfg.GoogleOAuth)

	return container
}
