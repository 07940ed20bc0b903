package services

// ServiceContainer holds instances of all the application services.
// This is the main entry point for accessing service functionality and
// is used throughout the application, particularly in the handlers.
type ServiceContainer struct {
	User         UserSvcFacade
	Company      CompanySvcFacade
	Expense      ExpenseSvcFacade
	Rule         RuleSvcFacade
	Flow         FlowSvcFacade
	ExchangeRate ExchangeRateSvcFacade
	Token        TokenSvcFacade
	GoogleOAuth  GoogleOAuthSvcFacade
	Notifier     Notifier
}
