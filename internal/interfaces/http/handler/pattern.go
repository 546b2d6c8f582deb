package handler

import (
	"github.com/clubhousegolfcanada/clubos-pls/internal/application/pls"
	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/pattern"
	"github.com/clubhousegolfcanada/clubos-pls/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PatternHandler handles pattern curation HTTP requests
type PatternHandler struct {
	BaseHandler
	patternService *pls.PatternService
}

// NewPatternHandler creates a new pattern handler
func NewPatternHandler(patternService *pls.PatternService) *PatternHandler {
	return &PatternHandler{
		patternService: patternService,
	}
}

// CreatePatternRequest represents the request body for manual pattern creation
type CreatePatternRequest struct {
	TriggerText       string  `json:"trigger_text" binding:"required"`
	PatternType       string  `json:"pattern_type" binding:"required,oneof=gift_cards hours booking access faq tech_issue membership general"`
	TemplateBody      string  `json:"template_body" binding:"required"`
	InitialConfidence float64 `json:"initial_confidence" binding:"omitempty,gte=0,lte=1"`
	Notes             string  `json:"notes"`
}

// UpdatePatternRequest represents the request body for pattern updates.
// Omitted fields are left unchanged.
type UpdatePatternRequest struct {
	TemplateBody *string `json:"template_body"`
	Notes        *string `json:"notes"`
}

// SuspendPatternRequest carries an optional reason for deactivation
type SuspendPatternRequest struct {
	Reason string `json:"reason"`
}

// Create godoc
// @ID           createPattern
// @Summary      Create a pattern
// @Description  Create an operator-curated pattern
// @Tags         patterns
// @Accept       json
// @Produce      json
// @Param        request body CreatePatternRequest true "Pattern data"
// @Success      201 {object} APIResponse[pls.PatternInfo]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /patterns [post]
func (h *PatternHandler) Create(c *gin.Context) {
	operatorID, err := getOperatorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req CreatePatternRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	info, err := h.patternService.CreatePattern(c.Request.Context(), pls.CreatePatternInput{
		TriggerText:       req.TriggerText,
		PatternType:       pattern.PatternType(req.PatternType),
		TemplateBody:      req.TemplateBody,
		InitialConfidence: req.InitialConfidence,
		Notes:             req.Notes,
		CreatedBy:         operatorID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, info)
}

// Update godoc
// @ID           updatePattern
// @Summary      Update a pattern
// @Description  Update a pattern's template body or notes
// @Tags         patterns
// @Accept       json
// @Produce      json
// @Param        id path string true "Pattern ID" format(uuid)
// @Param        request body UpdatePatternRequest true "Fields to update"
// @Success      200 {object} APIResponse[pls.PatternInfo]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /patterns/{id} [put]
func (h *PatternHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid pattern ID")
		return
	}

	var req UpdatePatternRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	info, err := h.patternService.UpdatePattern(c.Request.Context(), pls.UpdatePatternInput{
		PatternID:    id,
		TemplateBody: req.TemplateBody,
		Notes:        req.Notes,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, info)
}

// Get godoc
// @ID           getPattern
// @Summary      Get a pattern by ID
// @Tags         patterns
// @Produce      json
// @Param        id path string true "Pattern ID" format(uuid)
// @Success      200 {object} APIResponse[pls.PatternInfo]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /patterns/{id} [get]
func (h *PatternHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid pattern ID")
		return
	}

	info, err := h.patternService.GetPattern(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, info)
}

// List godoc
// @ID           listPatterns
// @Summary      List patterns
// @Description  Get a paginated list of patterns, optionally filtered by status or type
// @Tags         patterns
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20) maximum(100)
// @Param        status query string false "Pattern status filter"
// @Param        type query string false "Pattern type filter"
// @Success      200 {object} APIResponse[[]pls.PatternInfo]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /patterns [get]
func (h *PatternHandler) List(c *gin.Context) {
	req := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := buildFilter(req)
	if status := c.Query("status"); status != "" {
		filter.Filters["status"] = status
	}
	if patternType := c.Query("type"); patternType != "" {
		filter.Filters["type"] = patternType
	}

	result, err := h.patternService.ListPatterns(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// Delete godoc
// @ID           deletePattern
// @Summary      Delete a pattern
// @Description  Soft-delete a pattern so it no longer matches
// @Tags         patterns
// @Produce      json
// @Param        id path string true "Pattern ID" format(uuid)
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /patterns/{id} [delete]
func (h *PatternHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid pattern ID")
		return
	}

	if err := h.patternService.DeletePattern(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// Activate godoc
// @ID           activatePattern
// @Summary      Activate a pattern
// @Description  Return a suspended pattern to active matching
// @Tags         patterns
// @Produce      json
// @Param        id path string true "Pattern ID" format(uuid)
// @Success      200 {object} APIResponse[pls.PatternInfo]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /patterns/{id}/activate [post]
func (h *PatternHandler) Activate(c *gin.Context) {
	id, audit, ok := h.patternAction(c)
	if !ok {
		return
	}

	info, err := h.patternService.ActivatePattern(c.Request.Context(), id, audit)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, info)
}

// Deactivate godoc
// @ID           deactivatePattern
// @Summary      Deactivate a pattern
// @Description  Suspend a pattern so it stops matching
// @Tags         patterns
// @Accept       json
// @Produce      json
// @Param        id path string true "Pattern ID" format(uuid)
// @Param        request body SuspendPatternRequest false "Suspension reason"
// @Success      200 {object} APIResponse[pls.PatternInfo]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /patterns/{id}/deactivate [post]
func (h *PatternHandler) Deactivate(c *gin.Context) {
	id, audit, ok := h.patternAction(c)
	if !ok {
		return
	}

	var req SuspendPatternRequest
	_ = c.ShouldBindJSON(&req)

	info, err := h.patternService.SuspendPattern(c.Request.Context(), id, req.Reason, audit)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, info)
}

// Promote godoc
// @ID           promotePattern
// @Summary      Promote a pattern to auto-executable
// @Description  Mark a pattern eligible for automatic execution regardless of thresholds
// @Tags         patterns
// @Produce      json
// @Param        id path string true "Pattern ID" format(uuid)
// @Success      200 {object} APIResponse[pls.PatternInfo]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /patterns/{id}/promote [post]
func (h *PatternHandler) Promote(c *gin.Context) {
	id, audit, ok := h.patternAction(c)
	if !ok {
		return
	}

	info, err := h.patternService.PromotePattern(c.Request.Context(), id, audit)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, info)
}

// Demote godoc
// @ID           demotePattern
// @Summary      Demote a pattern from auto-executable
// @Description  Revoke a pattern's automatic execution eligibility
// @Tags         patterns
// @Accept       json
// @Produce      json
// @Param        id path string true "Pattern ID" format(uuid)
// @Param        request body SuspendPatternRequest false "Demotion reason"
// @Success      200 {object} APIResponse[pls.PatternInfo]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /patterns/{id}/demote [post]
func (h *PatternHandler) Demote(c *gin.Context) {
	id, audit, ok := h.patternAction(c)
	if !ok {
		return
	}

	var req SuspendPatternRequest
	_ = c.ShouldBindJSON(&req)

	info, err := h.patternService.DemotePattern(c.Request.Context(), id, req.Reason, audit)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, info)
}

// patternAction extracts the pattern ID and audit context shared by the
// lifecycle endpoints. Returns ok=false after writing an error response.
func (h *PatternHandler) patternAction(c *gin.Context) (uuid.UUID, pls.AuditContext, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid pattern ID")
		return uuid.Nil, pls.AuditContext{}, false
	}

	operatorID, err := getOperatorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return uuid.Nil, pls.AuditContext{}, false
	}

	return id, pls.AuditContext{
		Operator:  operatorID,
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}, true
}
