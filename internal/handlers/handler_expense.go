package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/expensehub/expense_approval_app/internal/apperrors"
	"github.com/expensehub/expense_approval_app/internal/core/domain"
	portssvc "github.com/expensehub/expense_approval_app/internal/core/ports/services"
	"github.com/expensehub/expense_approval_app/internal/core/services"
	"github.com/expensehub/expense_approval_app/internal/dto"
	"github.com/expensehub/expense_approval_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// expenseHandler handles HTTP requests for the expense lifecycle.
type expenseHandler struct {
	expenseService portssvc.ExpenseSvcFacade
	flowService    portssvc.FlowSvcFacade
	userService    portssvc.UserSvcFacade
}

func newExpenseHandler(es portssvc.ExpenseSvcFacade, fs portssvc.FlowSvcFacade, us portssvc.UserSvcFacade) *expenseHandler {
	return &expenseHandler{
		expenseService: es,
		flowService:    fs,
		userService:    us,
	}
}

// RegisterExpenseRoutes registers all expense-related routes.
func RegisterExpenseRoutes(rg *gin.RouterGroup, expenseService portssvc.ExpenseSvcFacade, flowService portssvc.FlowSvcFacade, userService portssvc.UserSvcFacade) {
	h := newExpenseHandler(expenseService, flowService, userService)

	expenses := rg.Group("/expenses")
	{
		expenses.POST("", h.createExpense)
		expenses.GET("", h.listMyExpenses)
		expenses.GET("/company", h.listCompanyExpenses) // Non-employee view
		expenses.GET("/pending", h.listPendingApprovals)
		expenses.GET("/:id", h.getExpense)
		expenses.POST("/:id/submit", h.submitExpense)
		expenses.POST("/:id/decision", h.decideExpense)
		expenses.POST("/:id/cancel", h.cancelExpense)
		expenses.GET("/:id/history", h.getApprovalHistory)
		expenses.GET("/:id/summary", h.getApprovalSummary)
	}
}

// createExpense godoc
// @Summary Create a draft expense
// @Description Creates a draft expense for the caller, converting the amount into the company base currency.
// @Tags expenses
// @Accept json
// @Produce json
// @Param expense body dto.CreateExpenseRequest true "Expense details"
// @Success 201 {object} dto.ExpenseResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /expenses [post]
func (h *expenseHandler) createExpense(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	requesterID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req dto.CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	expense, err := h.expenseService.CreateExpense(c.Request.Context(), req, requesterID)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}
		logger.Error("Failed to create expense", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to create expense"})
		return
	}

	logger.Info("Expense created", slog.String("expense_id", expense.ExpenseID))
	c.JSON(http.StatusCreated, dto.ToExpenseResponse(expense))
}

// listMyExpenses godoc
// @Summary List own expenses
// @Description Lists the caller's expenses, newest first, with token pagination.
// @Tags expenses
// @Produce json
// @Param status query string false "Filter by status" Enums(DRAFT, PENDING, APPROVED, REJECTED, CANCELLED)
// @Param limit query int false "Page size" default(20)
// @Param nextToken query string false "Pagination token from a previous page"
// @Success 200 {object} dto.ListExpensesResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Security BearerAuth
// @Router /expenses [get]
func (h *expenseHandler) listMyExpenses(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	requesterID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	var params dto.ListExpensesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid query parameters: " + err.Error()})
		return
	}

	resp, err := h.expenseService.ListExpensesByEmployee(c.Request.Context(), requesterID, params)
	if err != nil {
		logger.Error("Failed to list expenses", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to list expenses"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// listCompanyExpenses godoc
// @Summary List company expenses
// @Description Lists all expenses in the caller's company. Not available to employees.
// @Tags expenses
// @Produce json
// @Param status query string false "Filter by status" Enums(DRAFT, PENDING, APPROVED, REJECTED, CANCELLED)
// @Param limit query int false "Page size" default(20)
// @Param nextToken query string false "Pagination token from a previous page"
// @Success 200 {object} dto.ListExpensesResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Security BearerAuth
// @Router /expenses/company [get]
func (h *expenseHandler) listCompanyExpenses(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	caller, ok := requestingUser(c, h.userService)
	if !ok {
		return
	}
	if caller.Role == domain.RoleEmployee {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "Forbidden"})
		return
	}

	var params dto.ListExpensesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid query parameters: " + err.Error()})
		return
	}

	resp, err := h.expenseService.ListExpenses(c.Request.Context(), caller.CompanyID, params)
	if err != nil {
		logger.Error("Failed to list company expenses", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to list expenses"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// listPendingApprovals godoc
// @Summary List expenses awaiting the caller's approval
// @Description Lists pending expenses whose approval flow currently accepts an action from the caller.
// @Tags expenses
// @Produce json
// @Success 200 {array} dto.ExpenseResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /expenses/pending [get]
func (h *expenseHandler) listPendingApprovals(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	caller, ok := requestingUser(c, h.userService)
	if !ok {
		return
	}

	expenses, err := h.expenseService.GetPendingExpensesForApprover(c.Request.Context(), caller.UserID, caller.Role)
	if err != nil {
		logger.Error("Failed to list pending approvals", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to list pending approvals"})
		return
	}

	res := make([]dto.ExpenseResponse, len(expenses))
	for i := range expenses {
		res[i] = dto.ToExpenseResponse(&expenses[i])
	}
	c.JSON(http.StatusOK, res)
}

// getExpense godoc
// @Summary Get an expense by ID
// @Description Retrieves an expense with its lines and approval history. Owners and non-employee colleagues only.
// @Tags expenses
// @Produce json
// @Param id path string true "Expense ID"
// @Success 200 {object} dto.ExpenseResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /expenses/{id} [get]
func (h *expenseHandler) getExpense(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	expenseID := c.Param("id")

	requesterID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	expense, err := h.expenseService.GetExpenseByID(c.Request.Context(), expenseID, requesterID)
	if err != nil {
		h.writeExpenseError(c, logger, err, "Failed to retrieve expense")
		return
	}

	c.JSON(http.StatusOK, dto.ToExpenseResponse(expense))
}

// submitExpense godoc
// @Summary Submit a draft expense for approval
// @Description Routes the expense through the matching approval rule and moves it to PENDING.
// @Tags expenses
// @Produce json
// @Param id path string true "Expense ID"
// @Success 200 {object} dto.SubmitExpenseResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse "No approval rule matches the expense"
// @Security BearerAuth
// @Router /expenses/{id}/submit [post]
func (h *expenseHandler) submitExpense(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	expenseID := c.Param("id")

	requesterID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	expense, flow, err := h.expenseService.SubmitExpense(c.Request.Context(), expenseID, requesterID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNoMatchingRule):
			c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "No approval rule matches this expense; it remains a draft"})
		case errors.Is(err, services.ErrAlreadySubmitted):
			c.JSON(http.StatusConflict, ErrorResponse{Error: "Expense has already been submitted"})
		case errors.Is(err, services.ErrNotOwner):
			c.JSON(http.StatusForbidden, ErrorResponse{Error: "Only the expense requester may submit it"})
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Expense not found"})
		default:
			logger.Error("Failed to submit expense", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to submit expense"})
		}
		return
	}

	logger.Info("Expense submitted", slog.String("expense_id", expense.ExpenseID), slog.String("flow_id", flow.FlowID))
	c.JSON(http.StatusOK, dto.SubmitExpenseResponse{
		Expense: dto.ToExpenseResponse(expense),
		FlowID:  flow.FlowID,
	})
}

// decideExpense godoc
// @Summary Approve or reject a pending expense
// @Description Applies the caller's decision to the expense's approval flow, advancing or resolving it.
// @Tags expenses
// @Accept json
// @Produce json
// @Param id path string true "Expense ID"
// @Param decision body dto.ApprovalDecisionRequest true "Approval decision"
// @Success 200 {object} dto.ExpenseResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Security BearerAuth
// @Router /expenses/{id}/decision [post]
func (h *expenseHandler) decideExpense(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	expenseID := c.Param("id")

	caller, ok := requestingUser(c, h.userService)
	if !ok {
		return
	}

	var req dto.ApprovalDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	approver := domain.Approver{
		ID:   caller.UserID,
		Name: caller.Name,
		Role: caller.Role,
	}

	expense, err := h.expenseService.ProcessExpenseApproval(c.Request.Context(), expenseID, approver, req.Action, req.Comments)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Expense not found"})
		case errors.Is(err, services.ErrExpenseNotPending), errors.Is(err, services.ErrFlowAlreadyResolved):
			c.JSON(http.StatusConflict, ErrorResponse{Error: "Expense is not pending approval"})
		case errors.Is(err, services.ErrUnauthorizedApprover):
			c.JSON(http.StatusForbidden, ErrorResponse{Error: "You are not authorized to act on this expense at its current level"})
		case errors.Is(err, services.ErrDuplicateApproval):
			c.JSON(http.StatusConflict, ErrorResponse{Error: "You have already acted on this approval level"})
		case errors.Is(err, services.ErrInvalidFlowLevel):
			logger.Error("Approval flow level pointer out of range", slog.String("expense_id", expenseID))
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Approval flow is in an inconsistent state"})
		default:
			logger.Error("Failed to process approval", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to process approval"})
		}
		return
	}

	logger.Info("Approval processed",
		slog.String("expense_id", expenseID),
		slog.String("action", string(req.Action)),
		slog.String("status", string(expense.Status)))
	c.JSON(http.StatusOK, dto.ToExpenseResponse(expense))
}

// cancelExpense godoc
// @Summary Cancel an expense
// @Description Cancels a draft or pending expense. Owner only.
// @Tags expenses
// @Produce json
// @Param id path string true "Expense ID"
// @Success 200 {object} dto.ExpenseResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Security BearerAuth
// @Router /expenses/{id}/cancel [post]
func (h *expenseHandler) cancelExpense(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	expenseID := c.Param("id")

	requesterID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	expense, err := h.expenseService.CancelExpense(c.Request.Context(), expenseID, requesterID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Expense not found"})
		case errors.Is(err, services.ErrNotOwner):
			c.JSON(http.StatusForbidden, ErrorResponse{Error: "Only the expense requester may cancel it"})
		case errors.Is(err, services.ErrAlreadyFinal):
			c.JSON(http.StatusConflict, ErrorResponse{Error: "Expense has already reached a final status"})
		default:
			logger.Error("Failed to cancel expense", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to cancel expense"})
		}
		return
	}

	logger.Info("Expense cancelled", slog.String("expense_id", expenseID))
	c.JSON(http.StatusOK, dto.ToExpenseResponse(expense))
}

// getApprovalHistory godoc
// @Summary Get an expense's approval history
// @Description Returns the ordered approval records for an expense.
// @Tags expenses
// @Produce json
// @Param id path string true "Expense ID"
// @Success 200 {array} dto.ApprovalRecordResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /expenses/{id}/history [get]
func (h *expenseHandler) getApprovalHistory(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	expenseID := c.Param("id")

	requesterID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	history, err := h.expenseService.GetApprovalHistory(c.Request.Context(), expenseID, requesterID)
	if err != nil {
		h.writeExpenseError(c, logger, err, "Failed to retrieve approval history")
		return
	}

	res := make([]dto.ApprovalRecordResponse, len(history))
	for i, r := range history {
		res[i] = dto.ToApprovalRecordResponse(r)
	}
	c.JSON(http.StatusOK, res)
}

// getApprovalSummary godoc
// @Summary Get an expense's approval flow summary
// @Description Returns a per-level projection of the expense's approval flow progress.
// @Tags expenses
// @Produce json
// @Param id path string true "Expense ID"
// @Success 200 {object} dto.ApprovalSummary
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /expenses/{id}/summary [get]
func (h *expenseHandler) getApprovalSummary(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	expenseID := c.Param("id")

	requesterID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	// Visibility is decided by the expense, not the flow.
	if _, err := h.expenseService.GetExpenseByID(c.Request.Context(), expenseID, requesterID); err != nil {
		h.writeExpenseError(c, logger, err, "Failed to retrieve expense")
		return
	}

	flow, err := h.flowService.GetFlowByExpenseID(c.Request.Context(), expenseID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Expense has no approval flow"})
			return
		}
		logger.Error("Failed to get approval flow", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to retrieve approval summary"})
		return
	}

	summary, err := h.flowService.GetApprovalSummary(c.Request.Context(), flow.FlowID)
	if err != nil {
		logger.Error("Failed to build approval summary", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to retrieve approval summary"})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// writeExpenseError maps common expense read errors onto HTTP responses.
func (h *expenseHandler) writeExpenseError(c *gin.Context, logger *slog.Logger, err error, fallback string) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Expense not found"})
	case errors.Is(err, apperrors.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "Forbidden"})
	default:
		logger.Error(fallback, slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: fallback})
	}
}
