// internal/api/plan_handler.go
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"alcyxob/plan-engine/internal/classifier"
	"alcyxob/plan-engine/internal/domain"
	"alcyxob/plan-engine/internal/service"
)

type PlanHandler struct {
	planService service.PlanService
}

func NewPlanHandler(planService service.PlanService) *PlanHandler {
	return &PlanHandler{planService: planService}
}

// --- DTOs ---

type ModifyPlanRequest struct {
	Message          string            `json:"message" binding:"required"`
	RecentContext    []classifier.Turn `json:"recent_context"`
	KnowledgeContext string            `json:"knowledge_context"`
}

type ExecuteOperationRequest struct {
	Arguments        map[string]any `json:"arguments"`
	KnowledgeContext string         `json:"knowledge_context"`
}

// --- Handler Methods ---

// GetPlan godoc
// @Summary Get my active plan
// @Tags Plan
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.PlanView
// @Failure 404 {object} gin.H "No plan yet"
// @Router /plan [get]
func (h *PlanHandler) GetPlan(c *gin.Context) {
	userID, ok := userIDOrAbort(c)
	if !ok {
		return
	}
	view, err := h.planService.GetPlan(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, statusFor(err), errorMessage(err))
		return
	}
	c.JSON(http.StatusOK, view)
}

// ModifyPlan godoc
// @Summary Modify my plan from a chat message
// @Description Classifies the message into one catalog operation and applies it.
// @Tags Plan
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param modifyRequest body ModifyPlanRequest true "Message and recent conversation"
// @Success 200 {object} service.ModificationResult
// @Failure 400 {object} service.ModificationResult "Invalid argument"
// @Failure 409 {object} service.ModificationResult "Another modification is in progress"
// @Router /plan/modify [post]
func (h *PlanHandler) ModifyPlan(c *gin.Context) {
	userID, ok := userIDOrAbort(c)
	if !ok {
		return
	}
	var req ModifyPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	res, err := h.planService.Modify(c.Request.Context(), userID, service.ModifyRequest{
		Message:          req.Message,
		RecentContext:    req.RecentContext,
		KnowledgeContext: req.KnowledgeContext,
	})
	respondModification(c, res, err)
}

// ExecuteOperation godoc
// @Summary Apply a catalog operation directly
// @Tags Plan
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param name path string true "Operation name"
// @Param executeRequest body ExecuteOperationRequest true "Raw arguments"
// @Success 200 {object} service.ModificationResult
// @Router /plan/operations/{name} [post]
func (h *PlanHandler) ExecuteOperation(c *gin.Context) {
	userID, ok := userIDOrAbort(c)
	if !ok {
		return
	}
	var req ExecuteOperationRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
			return
		}
	}
	res, err := h.planService.Execute(c.Request.Context(), userID, c.Param("name"), req.Arguments, req.KnowledgeContext)
	respondModification(c, res, err)
}

// Undo godoc
// @Summary Revert the last modification
// @Tags Plan
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.ModificationResult
// @Failure 409 {object} service.ModificationResult "Nothing to undo"
// @Router /plan/undo [post]
func (h *PlanHandler) Undo(c *gin.Context) {
	userID, ok := userIDOrAbort(c)
	if !ok {
		return
	}
	res, err := h.planService.Undo(c.Request.Context(), userID)
	respondModification(c, res, err)
}

// GetHistory godoc
// @Summary List my plan modifications, newest first
// @Tags Plan
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.ModificationRecord
// @Router /plan/history [get]
func (h *PlanHandler) GetHistory(c *gin.Context) {
	userID, ok := userIDOrAbort(c)
	if !ok {
		return
	}
	history, err := h.planService.History(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, statusFor(err), errorMessage(err))
		return
	}
	c.JSON(http.StatusOK, history)
}

// ListOperations godoc
// @Summary List the operation catalog
// @Tags Plan
// @Produce json
// @Success 200 {array} catalog.Definition
// @Router /plan/operations [get]
func (h *PlanHandler) ListOperations(c *gin.Context) {
	c.JSON(http.StatusOK, h.planService.Operations())
}

// ExportPlan godoc
// @Summary Export my plan as JSON
// @Description Uploads the active plan and returns a temporary download URL.
// @Tags Plan
// @Produce json
// @Security BearerAuth
// @Success 200 {object} storage.ExportResult
// @Failure 501 {object} gin.H "Export not configured"
// @Router /plan/export [post]
func (h *PlanHandler) ExportPlan(c *gin.Context) {
	userID, ok := userIDOrAbort(c)
	if !ok {
		return
	}
	res, err := h.planService.Export(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, statusFor(err), errorMessage(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

// --- Helpers ---

func userIDOrAbort(c *gin.Context) (primitive.ObjectID, bool) {
	idStr, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user.")
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(idStr)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid user ID format in token.")
		return primitive.NilObjectID, false
	}
	return id, true
}

func respondModification(c *gin.Context, res *service.ModificationResult, err error) {
	if err == nil {
		c.JSON(http.StatusOK, res)
		return
	}
	if res == nil {
		abortWithError(c, statusFor(err), errorMessage(err))
		return
	}
	c.AbortWithStatusJSON(statusFor(err), res)
}

func statusFor(err error) int {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNoOperationMatched):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrPersistenceConflict), errors.Is(err, domain.ErrUndoUnavailable):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInsufficientState), errors.Is(err, service.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrClassificationUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, service.ErrExportUnavailable), errors.Is(err, service.ErrClassifierDisabled):
		return http.StatusNotImplemented
	case errors.Is(err, context.Canceled):
		// Client closed the request.
		return 499
	}
	return http.StatusInternalServerError
}

func errorMessage(err error) string {
	if domain.IsUserVisible(err) || errors.Is(err, service.ErrUserNotFound) || errors.Is(err, service.ErrExportUnavailable) {
		return err.Error()
	}
	return "Internal server error."
}
