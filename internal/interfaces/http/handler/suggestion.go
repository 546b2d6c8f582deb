package handler

import (
	"github.com/clubhousegolfcanada/clubos-pls/internal/application/pls"
	"github.com/clubhousegolfcanada/clubos-pls/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SuggestionHandler handles suggestion review HTTP requests
type SuggestionHandler struct {
	BaseHandler
	suggestionService *pls.SuggestionService
}

// NewSuggestionHandler creates a new suggestion handler
func NewSuggestionHandler(suggestionService *pls.SuggestionService) *SuggestionHandler {
	return &SuggestionHandler{
		suggestionService: suggestionService,
	}
}

// ModifySuggestionRequest carries the operator's edited response body.
// UpdateTemplate folds the edit back into the pattern's template.
type ModifySuggestionRequest struct {
	FinalBody      string `json:"final_body" binding:"required"`
	UpdateTemplate bool   `json:"update_template"`
}

// RejectSuggestionRequest carries an optional rejection reason
type RejectSuggestionRequest struct {
	Reason string `json:"reason"`
}

// List godoc
// @ID           listSuggestions
// @Summary      List open suggestions
// @Description  Get the pending suggestion review queue, oldest first
// @Tags         suggestions
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20) maximum(100)
// @Success      200 {object} APIResponse[[]pls.SuggestionInfo]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /suggestions [get]
func (h *SuggestionHandler) List(c *gin.Context) {
	req := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.suggestionService.ListOpen(c.Request.Context(), buildFilter(req))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// Get godoc
// @ID           getSuggestion
// @Summary      Get a suggestion by ID
// @Tags         suggestions
// @Produce      json
// @Param        id path string true "Suggestion ID" format(uuid)
// @Success      200 {object} APIResponse[pls.SuggestionInfo]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /suggestions/{id} [get]
func (h *SuggestionHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid suggestion ID")
		return
	}

	info, err := h.suggestionService.GetSuggestion(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, info)
}

// Accept godoc
// @ID           acceptSuggestion
// @Summary      Accept a suggestion
// @Description  Send the proposed response as-is and reward the pattern
// @Tags         suggestions
// @Produce      json
// @Param        id path string true "Suggestion ID" format(uuid)
// @Success      200 {object} APIResponse[pls.SuggestionInfo]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /suggestions/{id}/accept [post]
func (h *SuggestionHandler) Accept(c *gin.Context) {
	input, ok := h.resolveInput(c)
	if !ok {
		return
	}

	info, err := h.suggestionService.Accept(c.Request.Context(), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, info)
}

// Modify godoc
// @ID           modifySuggestion
// @Summary      Modify a suggestion
// @Description  Send an edited response and apply the modification feedback to the pattern
// @Tags         suggestions
// @Accept       json
// @Produce      json
// @Param        id path string true "Suggestion ID" format(uuid)
// @Param        request body ModifySuggestionRequest true "Edited response"
// @Success      200 {object} APIResponse[pls.SuggestionInfo]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /suggestions/{id}/modify [post]
func (h *SuggestionHandler) Modify(c *gin.Context) {
	input, ok := h.resolveInput(c)
	if !ok {
		return
	}

	var req ModifySuggestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	input.FinalBody = req.FinalBody
	input.UpdateTemplate = req.UpdateTemplate

	info, err := h.suggestionService.Modify(c.Request.Context(), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, info)
}

// Reject godoc
// @ID           rejectSuggestion
// @Summary      Reject a suggestion
// @Description  Discard the proposed response and penalize the pattern
// @Tags         suggestions
// @Accept       json
// @Produce      json
// @Param        id path string true "Suggestion ID" format(uuid)
// @Param        request body RejectSuggestionRequest false "Rejection reason"
// @Success      200 {object} APIResponse[pls.SuggestionInfo]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /suggestions/{id}/reject [post]
func (h *SuggestionHandler) Reject(c *gin.Context) {
	input, ok := h.resolveInput(c)
	if !ok {
		return
	}

	var req RejectSuggestionRequest
	_ = c.ShouldBindJSON(&req)
	input.Reason = req.Reason

	info, err := h.suggestionService.Reject(c.Request.Context(), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, info)
}

// resolveInput extracts the suggestion ID and resolving operator shared
// by the resolution endpoints. Returns ok=false after writing an error
// response.
func (h *SuggestionHandler) resolveInput(c *gin.Context) (pls.ResolveSuggestionInput, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid suggestion ID")
		return pls.ResolveSuggestionInput{}, false
	}

	operatorID, err := getOperatorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return pls.ResolveSuggestionInput{}, false
	}

	return pls.ResolveSuggestionInput{
		SuggestionID: id,
		Operator:     operatorID,
	}, true
}
