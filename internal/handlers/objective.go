package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/dto"
	apierrors "github.com/tuanemuy/okr-manager-2-sub001/internal/errors"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/middleware"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/models"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/services"
	"github.com/tuanemuy/okr-manager-2-sub001/internal/utils"
)

// OKRHandler serves objectives, key results and the dashboard.
type OKRHandler struct {
	okrService *services.OKRService
	log        logrus.FieldLogger
}

func NewOKRHandler(okrService *services.OKRService, log logrus.FieldLogger) *OKRHandler {
	return &OKRHandler{okrService: okrService, log: log}
}

func optionalQuery(c *gin.Context, key string) *string {
	if value := c.Query(key); value != "" {
		return &value
	}
	return nil
}

// ListObjectives returns the objectives visible to the current user.
// Filters: search, type, status, owner_id, team_id, parent_id, sort_by,
// sort_order, page, limit.
func (h *OKRHandler) ListObjectives(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	params := utils.GetPaginationParams(c)

	input := services.ListObjectivesInput{
		Search:    c.Query("search"),
		OwnerID:   optionalQuery(c, "owner_id"),
		TeamID:    optionalQuery(c, "team_id"),
		ParentID:  optionalQuery(c, "parent_id"),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
		Page:      params.Page,
		PageSize:  params.Limit,
	}
	if value := optionalQuery(c, "type"); value != nil {
		t := models.ObjectiveType(*value)
		input.Type = &t
	}
	if value := optionalQuery(c, "status"); value != nil {
		s := models.ObjectiveStatus(*value)
		input.Status = &s
	}

	objectives, total, err := h.okrService.ListObjectives(c.Request.Context(), userID, input)
	if err != nil {
		apierrors.Respond(c, h.log, err, "failed to fetch objectives")
		return
	}

	c.JSON(http.StatusOK, dto.ToObjectiveListResponse(objectives, params, total))
}

func (h *OKRHandler) CreateObjective(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req services.CreateObjectiveInput
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	objective, err := h.okrService.CreateObjective(c.Request.Context(), userID, req)
	if err != nil {
		apierrors.Respond(c, h.log, err, "failed to create objective")
		return
	}

	c.JSON(http.StatusCreated, dto.ToObjectiveDTO(*objective))
}

func (h *OKRHandler) GetObjective(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	objective, err := h.okrService.GetObjective(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		apierrors.Respond(c, h.log, err, "failed to fetch objective")
		return
	}

	c.JSON(http.StatusOK, dto.ToObjectiveDTO(*objective))
}

func (h *OKRHandler) UpdateObjective(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req services.UpdateObjectiveInput
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	objective, err := h.okrService.UpdateObjective(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		apierrors.Respond(c, h.log, err, "failed to update objective")
		return
	}

	c.JSON(http.StatusOK, dto.ToObjectiveDTO(*objective))
}

func (h *OKRHandler) DeleteObjective(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	if err := h.okrService.DeleteObjective(c.Request.Context(), userID, c.Param("id")); err != nil {
		apierrors.Respond(c, h.log, err, "failed to delete objective")
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *OKRHandler) ListKeyResults(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	keyResults, err := h.okrService.ListKeyResults(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		apierrors.Respond(c, h.log, err, "failed to fetch key results")
		return
	}

	c.JSON(http.StatusOK, gin.H{"keyResults": dto.ToKeyResultDTOs(keyResults)})
}

func (h *OKRHandler) CreateKeyResult(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req services.CreateKeyResultInput
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	keyResult, err := h.okrService.CreateKeyResult(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		apierrors.Respond(c, h.log, err, "failed to create key result")
		return
	}

	c.JSON(http.StatusCreated, dto.ToKeyResultDTO(*keyResult))
}

// SuggestKeyResults drafts key results with the AI backend. Nothing is saved.
func (h *OKRHandler) SuggestKeyResults(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	suggestions, err := h.okrService.SuggestKeyResults(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		apierrors.Respond(c, h.log, err, "failed to suggest key results")
		return
	}

	c.JSON(http.StatusOK, gin.H{"suggestions": dto.ToSuggestionDTOs(suggestions)})
}

func (h *OKRHandler) GetKeyResult(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	keyResult, err := h.okrService.GetKeyResult(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		apierrors.Respond(c, h.log, err, "failed to fetch key result")
		return
	}

	c.JSON(http.StatusOK, dto.ToKeyResultDTO(*keyResult))
}

func (h *OKRHandler) UpdateKeyResult(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req services.UpdateKeyResultInput
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	keyResult, err := h.okrService.UpdateKeyResult(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		apierrors.Respond(c, h.log, err, "failed to update key result")
		return
	}

	c.JSON(http.StatusOK, dto.ToKeyResultDTO(*keyResult))
}

func (h *OKRHandler) DeleteKeyResult(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	if err := h.okrService.DeleteKeyResult(c.Request.Context(), userID, c.Param("id")); err != nil {
		apierrors.Respond(c, h.log, err, "failed to delete key result")
		return
	}

	c.Status(http.StatusNoContent)
}

// UpdateProgress records a new current value for a key result
func (h *OKRHandler) UpdateProgress(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req struct {
		CurrentValue *float64 `json:"currentValue"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}
	if req.CurrentValue == nil {
		apierrors.BadRequestWithDetails(c, "Validation failed", map[string]string{"currentValue": "is required"})
		return
	}

	keyResult, err := h.okrService.UpdateKeyResultProgress(c.Request.Context(), userID, c.Param("id"), *req.CurrentValue)
	if err != nil {
		apierrors.Respond(c, h.log, err, "failed to update progress")
		return
	}

	c.JSON(http.StatusOK, dto.ToKeyResultDTO(*keyResult))
}

func (h *OKRHandler) Dashboard(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	stats, err := h.okrService.GetDashboardStats(c.Request.Context(), userID)
	if err != nil {
		apierrors.Respond(c, h.log, err, "failed to fetch dashboard")
		return
	}

	c.JSON(http.StatusOK, dto.ToDashboardDTO(*stats))
}
