package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/expensehub/expense_approval_app/internal/apperrors"
	"github.com/expensehub/expense_approval_app/internal/core/domain"
	portssvc "github.com/expensehub/expense_approval_app/internal/core/ports/services"
	"github.com/expensehub/expense_approval_app/internal/dto"
	"github.com/expensehub/expense_approval_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// ruleHandler handles HTTP requests for approval rule administration.
type ruleHandler struct {
	ruleService portssvc.RuleSvcFacade
	userService portssvc.UserSvcFacade
}

func newRuleHandler(rs portssvc.RuleSvcFacade, us portssvc.UserSvcFacade) *ruleHandler {
	return &ruleHandler{
		ruleService: rs,
		userService: us,
	}
}

// RegisterRuleRoutes registers all approval-rule routes.
func RegisterRuleRoutes(rg *gin.RouterGroup, ruleService portssvc.RuleSvcFacade, userService portssvc.UserSvcFacade) {
	h := newRuleHandler(ruleService, userService)

	rules := rg.Group("/rules")
	{
		rules.POST("", h.createRule)           // Admin only
		rules.GET("", h.listRules)             // Non-employee
		rules.GET("/:id", h.getRule)           // Non-employee
		rules.PUT("/:id", h.updateRule)        // Admin only
		rules.DELETE("/:id", h.deactivateRule) // Admin only
	}
}

// ruleAdmin resolves the caller and enforces the admin requirement for rule writes.
func (h *ruleHandler) ruleAdmin(c *gin.Context) (*domain.User, bool) {
	caller, ok := requestingUser(c, h.userService)
	if !ok {
		return nil, false
	}
	if caller.Role != domain.RoleAdmin {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "Only admins may manage approval rules"})
		return nil, false
	}
	return caller, true
}

// createRule godoc
// @Summary Create an approval rule
// @Description Creates a prioritized approval rule for the caller's company. Admin only.
// @Tags rules
// @Accept json
// @Produce json
// @Param rule body dto.CreateRuleRequest true "Rule definition"
// @Success 201 {object} dto.RuleResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Security BearerAuth
// @Router /rules [post]
func (h *ruleHandler) createRule(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	caller, ok := h.ruleAdmin(c)
	if !ok {
		return
	}

	var req dto.CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	rule, err := h.ruleService.CreateRule(c.Request.Context(), caller.CompanyID, req, caller.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}
		logger.Error("Failed to create rule", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to create rule"})
		return
	}

	logger.Info("Approval rule created", slog.String("rule_id", rule.RuleID))
	c.JSON(http.StatusCreated, dto.ToRuleResponse(rule))
}

// listRules godoc
// @Summary List approval rules
// @Description Lists the company's approval rules in priority order, including inactive ones.
// @Tags rules
// @Produce json
// @Success 200 {array} dto.RuleResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Security BearerAuth
// @Router /rules [get]
func (h *ruleHandler) listRules(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	caller, ok := requestingUser(c, h.userService)
	if !ok {
		return
	}
	if caller.Role == domain.RoleEmployee {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "Forbidden"})
		return
	}

	rules, err := h.ruleService.ListRules(c.Request.Context(), caller.CompanyID)
	if err != nil {
		logger.Error("Failed to list rules", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to list rules"})
		return
	}

	c.JSON(http.StatusOK, dto.ToListRuleResponse(rules))
}

// getRule godoc
// @Summary Get an approval rule by ID
// @Description Retrieves a single approval rule from the caller's company.
// @Tags rules
// @Produce json
// @Param id path string true "Rule ID"
// @Success 200 {object} dto.RuleResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /rules/{id} [get]
func (h *ruleHandler) getRule(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	ruleID := c.Param("id")

	caller, ok := requestingUser(c, h.userService)
	if !ok {
		return
	}
	if caller.Role == domain.RoleEmployee {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "Forbidden"})
		return
	}

	rule, err := h.ruleService.GetRuleByID(c.Request.Context(), caller.CompanyID, ruleID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Rule not found"})
			return
		}
		logger.Error("Failed to get rule", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to retrieve rule"})
		return
	}

	c.JSON(http.StatusOK, dto.ToRuleResponse(rule))
}

// updateRule godoc
// @Summary Update an approval rule
// @Description Updates an approval rule. Running flows are unaffected; rules are copied into flows at submission.
// @Tags rules
// @Accept json
// @Produce json
// @Param id path string true "Rule ID"
// @Param rule body dto.UpdateRuleRequest true "Fields to update"
// @Success 200 {object} dto.RuleResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /rules/{id} [put]
func (h *ruleHandler) updateRule(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	ruleID := c.Param("id")

	caller, ok := h.ruleAdmin(c)
	if !ok {
		return
	}

	var req dto.UpdateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	rule, err := h.ruleService.UpdateRule(c.Request.Context(), caller.CompanyID, ruleID, req, caller.UserID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Rule not found"})
		case errors.Is(err, apperrors.ErrValidation):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		default:
			logger.Error("Failed to update rule", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to update rule"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToRuleResponse(rule))
}

// deactivateRule godoc
// @Summary Deactivate an approval rule
// @Description Soft-disables a rule; it stops matching new submissions but remains addressable.
// @Tags rules
// @Produce json
// @Param id path string true "Rule ID"
// @Success 204 "No Content"
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /rules/{id} [delete]
func (h *ruleHandler) deactivateRule(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	ruleID := c.Param("id")

	caller, ok := h.ruleAdmin(c)
	if !ok {
		return
	}

	if err := h.ruleService.DeactivateRule(c.Request.Context(), caller.CompanyID, ruleID, caller.UserID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Rule not found"})
			return
		}
		logger.Error("Failed to deactivate rule", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to deactivate rule"})
		return
	}

	c.Status(http.StatusNoContent)
}
