package handler

import (
	"github.com/clubhousegolfcanada/clubos-pls/internal/application/pls"
	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/conversation"
	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/shared"
	"github.com/clubhousegolfcanada/clubos-pls/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// MessageHandler handles inbound message HTTP requests
type MessageHandler struct {
	BaseHandler
	classifyService *pls.ClassifyService
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(classifyService *pls.ClassifyService) *MessageHandler {
	return &MessageHandler{
		classifyService: classifyService,
	}
}

// IngestMessageRequest represents an inbound message delivered by a
// channel webhook
type IngestMessageRequest struct {
	Channel    string `json:"channel" binding:"required,oneof=sms web email facebook"`
	Sender     string `json:"sender" binding:"required,max=200"`
	Body       string `json:"body" binding:"required"`
	ExternalID string `json:"external_id" binding:"omitempty,max=200"`
}

// Ingest godoc
// @ID           ingestMessage
// @Summary      Ingest an inbound message
// @Description  Run an inbound customer message through the pattern engine and return the gate decision
// @Tags         messages
// @Accept       json
// @Produce      json
// @Param        request body IngestMessageRequest true "Inbound message"
// @Success      200 {object} APIResponse[pls.ProcessResult]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /messages/inbound [post]
func (h *MessageHandler) Ingest(c *gin.Context) {
	var req IngestMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.classifyService.Process(c.Request.Context(), pls.IngestMessageInput{
		Channel:    conversation.Channel(req.Channel),
		Sender:     req.Sender,
		Body:       req.Body,
		ExternalID: req.ExternalID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Get godoc
// @ID           getMessage
// @Summary      Get an inbound message by ID
// @Tags         messages
// @Produce      json
// @Param        id path string true "Message ID" format(uuid)
// @Success      200 {object} APIResponse[pls.MessageInfo]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /messages/{id} [get]
func (h *MessageHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid message ID")
		return
	}

	info, err := h.classifyService.GetMessage(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, info)
}

// List godoc
// @ID           listMessages
// @Summary      List inbound messages
// @Description  Get a paginated list of inbound messages, optionally filtered by status, channel or sender
// @Tags         messages
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20) maximum(100)
// @Param        status query string false "Message status filter"
// @Param        channel query string false "Channel filter"
// @Param        sender query string false "Sender filter"
// @Success      200 {object} APIResponse[[]pls.MessageInfo]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /messages [get]
func (h *MessageHandler) List(c *gin.Context) {
	req := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := buildFilter(req)
	if status := c.Query("status"); status != "" {
		filter.Filters["status"] = status
	}
	if channel := c.Query("channel"); channel != "" {
		filter.Filters["channel"] = channel
	}
	if sender := c.Query("sender"); sender != "" {
		filter.Filters["sender"] = sender
	}

	result, err := h.classifyService.ListMessages(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// buildFilter converts list request parameters to a repository filter
func buildFilter(req dto.ListRequest) shared.Filter {
	filter := shared.DefaultFilter()
	if req.Page > 0 {
		filter.Page = req.Page
	}
	if req.PageSize > 0 {
		filter.PageSize = req.PageSize
	}
	if req.OrderBy != "" {
		filter.OrderBy = req.OrderBy
	}
	if req.OrderDir != "" {
		filter.OrderDir = req.OrderDir
	}
	filter.Search = req.Search
	return filter
}
