package handler

import (
	identityapp "github.com/clubhousegolfcanada/clubos-pls/internal/application/identity"
	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/identity"
	"github.com/clubhousegolfcanada/clubos-pls/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// OperatorHandler handles operator management HTTP requests
type OperatorHandler struct {
	BaseHandler
	operatorService *identityapp.OperatorService
}

// NewOperatorHandler creates a new operator handler
func NewOperatorHandler(operatorService *identityapp.OperatorService) *OperatorHandler {
	return &OperatorHandler{
		operatorService: operatorService,
	}
}

// CreateOperatorRequest represents an operator creation request
type CreateOperatorRequest struct {
	Username    string `json:"username" binding:"required,min=3,max=100"`
	Password    string `json:"password" binding:"required,min=8,max=128"`
	Email       string `json:"email" binding:"omitempty,email,max=200"`
	DisplayName string `json:"display_name" binding:"omitempty,max=200"`
	Role        string `json:"role" binding:"required,oneof=admin operator viewer"`
}

// UpdateOperatorRequest represents a partial operator update
type UpdateOperatorRequest struct {
	Email       *string `json:"email" binding:"omitempty,email,max=200"`
	DisplayName *string `json:"display_name" binding:"omitempty,max=200"`
	Role        *string `json:"role" binding:"omitempty,oneof=admin operator viewer"`
}

// ResetPasswordRequest represents an administrative password reset
type ResetPasswordRequest struct {
	NewPassword string `json:"new_password" binding:"required,min=8,max=128"`
}

// Create godoc
// @ID           createOperator
// @Summary      Create an operator
// @Tags         operators
// @Accept       json
// @Produce      json
// @Param        request body CreateOperatorRequest true "Operator details"
// @Success      201 {object} APIResponse[OperatorResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /operators [post]
func (h *OperatorHandler) Create(c *gin.Context) {
	var req CreateOperatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	info, err := h.operatorService.CreateOperator(c.Request.Context(), identityapp.CreateOperatorInput{
		Username:    req.Username,
		Password:    req.Password,
		Email:       req.Email,
		DisplayName: req.DisplayName,
		Role:        identity.OperatorRole(req.Role),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, toOperatorResponse(*info))
}

// Update godoc
// @ID           updateOperator
// @Summary      Update an operator
// @Tags         operators
// @Accept       json
// @Produce      json
// @Param        id path string true "Operator ID" format(uuid)
// @Param        request body UpdateOperatorRequest true "Fields to update"
// @Success      200 {object} APIResponse[OperatorResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /operators/{id} [put]
func (h *OperatorHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid operator ID")
		return
	}

	var req UpdateOperatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	input := identityapp.UpdateOperatorInput{
		OperatorID:  id,
		Email:       req.Email,
		DisplayName: req.DisplayName,
	}
	if req.Role != nil {
		role := identity.OperatorRole(*req.Role)
		input.Role = &role
	}

	info, err := h.operatorService.UpdateOperator(c.Request.Context(), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toOperatorResponse(*info))
}

// Get godoc
// @ID           getOperator
// @Summary      Get an operator by ID
// @Tags         operators
// @Produce      json
// @Param        id path string true "Operator ID" format(uuid)
// @Success      200 {object} APIResponse[OperatorResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /operators/{id} [get]
func (h *OperatorHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid operator ID")
		return
	}

	info, err := h.operatorService.GetOperator(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toOperatorResponse(*info))
}

// List godoc
// @ID           listOperators
// @Summary      List operators
// @Tags         operators
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20) maximum(100)
// @Param        search query string false "Search by username or display name"
// @Success      200 {object} APIResponse[[]OperatorResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /operators [get]
func (h *OperatorHandler) List(c *gin.Context) {
	req := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.operatorService.ListOperators(c.Request.Context(), buildFilter(req))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]OperatorResponse, len(result.Items))
	for i, info := range result.Items {
		responses[i] = toOperatorResponse(info)
	}

	h.SuccessWithMeta(c, responses, result.Total, result.Page, result.PageSize)
}

// Deactivate godoc
// @ID           deactivateOperator
// @Summary      Deactivate an operator
// @Description  Disable an operator account. Existing tokens are not revoked; the account can no longer log in.
// @Tags         operators
// @Produce      json
// @Param        id path string true "Operator ID" format(uuid)
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /operators/{id} [delete]
func (h *OperatorHandler) Deactivate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid operator ID")
		return
	}

	if err := h.operatorService.DeactivateOperator(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// Unlock godoc
// @ID           unlockOperator
// @Summary      Unlock an operator
// @Description  Clear a lockout caused by repeated failed logins
// @Tags         operators
// @Produce      json
// @Param        id path string true "Operator ID" format(uuid)
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /operators/{id}/unlock [post]
func (h *OperatorHandler) Unlock(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid operator ID")
		return
	}

	if err := h.operatorService.UnlockOperator(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// ResetPassword godoc
// @ID           resetOperatorPassword
// @Summary      Reset an operator's password
// @Tags         operators
// @Accept       json
// @Produce      json
// @Param        id path string true "Operator ID" format(uuid)
// @Param        request body ResetPasswordRequest true "New password"
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /operators/{id}/reset-password [post]
func (h *OperatorHandler) ResetPassword(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid operator ID")
		return
	}

	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if err := h.operatorService.ResetPassword(c.Request.Context(), id, req.NewPassword); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
