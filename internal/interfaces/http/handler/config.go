package handler

import (
	"strconv"
	"time"

	"github.com/clubhousegolfcanada/clubos-pls/internal/application/pls"
	"github.com/clubhousegolfcanada/clubos-pls/internal/domain/pattern"
	"github.com/gin-gonic/gin"
)

// ConfigHandler handles engine configuration HTTP requests
type ConfigHandler struct {
	BaseHandler
	configService *pls.ConfigService
}

// NewConfigHandler creates a new config handler
func NewConfigHandler(configService *pls.ConfigService) *ConfigHandler {
	return &ConfigHandler{
		configService: configService,
	}
}

// ThresholdsRequest represents the gate thresholds in config updates
type ThresholdsRequest struct {
	AutoExecute float64 `json:"auto_execute" binding:"gte=0,lte=1"`
	Suggest     float64 `json:"suggest" binding:"gte=0,lte=1"`
	Queue       float64 `json:"queue" binding:"gte=0,lte=1"`
}

// FeedbackPolicyRequest represents the feedback deltas in config updates
type FeedbackPolicyRequest struct {
	AcceptDelta      float64 `json:"accept_delta"`
	ModifyDelta      float64 `json:"modify_delta"`
	RejectDelta      float64 `json:"reject_delta"`
	AutoSuccessDelta float64 `json:"auto_success_delta"`
	AutoFailureDelta float64 `json:"auto_failure_delta"`
}

// DecayPolicyRequest represents the decay schedule in config updates
type DecayPolicyRequest struct {
	GracePeriodHours  int     `json:"grace_period_hours" binding:"gte=0"`
	RatePerDay        float64 `json:"rate_per_day" binding:"gte=0"`
	Floor             float64 `json:"floor" binding:"gte=0,lte=1"`
	SuspendAfterHours int     `json:"suspend_after_hours" binding:"gte=0"`
}

// UpdateConfigRequest represents a partial engine configuration update.
// Omitted sections are left unchanged.
type UpdateConfigRequest struct {
	Enabled              *bool                  `json:"enabled"`
	ShadowMode           *bool                  `json:"shadow_mode"`
	Thresholds           *ThresholdsRequest     `json:"thresholds"`
	Feedback             *FeedbackPolicyRequest `json:"feedback"`
	Decay                *DecayPolicyRequest    `json:"decay"`
	SuggestionTTLSeconds *int64                 `json:"suggestion_ttl_seconds" binding:"omitempty,gt=0"`
	LearnerEnabled       *bool                  `json:"learner_enabled"`
	MinExecutionsForAuto *int                   `json:"min_executions_for_auto" binding:"omitempty,gte=0"`
}

// Get godoc
// @ID           getEngineConfig
// @Summary      Get engine configuration
// @Tags         config
// @Produce      json
// @Success      200 {object} APIResponse[pls.EngineConfigInfo]
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /config [get]
func (h *ConfigHandler) Get(c *gin.Context) {
	info, err := h.configService.GetConfig(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, info)
}

// Update godoc
// @ID           updateEngineConfig
// @Summary      Update engine configuration
// @Description  Apply a partial update to the engine configuration. Every change is audited.
// @Tags         config
// @Accept       json
// @Produce      json
// @Param        request body UpdateConfigRequest true "Configuration changes"
// @Success      200 {object} APIResponse[pls.EngineConfigInfo]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /config [put]
func (h *ConfigHandler) Update(c *gin.Context) {
	operatorID, err := getOperatorID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req UpdateConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	audit := pls.AuditContext{
		Operator:  operatorID,
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}

	ctx := c.Request.Context()
	var info *pls.EngineConfigInfo

	// Apply sections in a stable order; each one is audited separately
	if req.Enabled != nil {
		info, err = h.configService.SetEnabled(ctx, *req.Enabled, audit)
		if err != nil {
			h.HandleError(c, err)
			return
		}
	}
	if req.ShadowMode != nil {
		info, err = h.configService.SetShadowMode(ctx, *req.ShadowMode, audit)
		if err != nil {
			h.HandleError(c, err)
			return
		}
	}
	if req.Thresholds != nil {
		info, err = h.configService.UpdateThresholds(ctx, pattern.Thresholds{
			AutoExecute: req.Thresholds.AutoExecute,
			Suggest:     req.Thresholds.Suggest,
			Queue:       req.Thresholds.Queue,
		}, audit)
		if err != nil {
			h.HandleError(c, err)
			return
		}
	}
	if req.Feedback != nil {
		info, err = h.configService.UpdateFeedbackPolicy(ctx, pattern.FeedbackPolicy{
			AcceptDelta:      req.Feedback.AcceptDelta,
			ModifyDelta:      req.Feedback.ModifyDelta,
			RejectDelta:      req.Feedback.RejectDelta,
			AutoSuccessDelta: req.Feedback.AutoSuccessDelta,
			AutoFailureDelta: req.Feedback.AutoFailureDelta,
		}, audit)
		if err != nil {
			h.HandleError(c, err)
			return
		}
	}
	if req.Decay != nil {
		info, err = h.configService.UpdateDecayPolicy(ctx, pattern.DecayPolicy{
			GracePeriod:  time.Duration(req.Decay.GracePeriodHours) * time.Hour,
			RatePerDay:   req.Decay.RatePerDay,
			Floor:        req.Decay.Floor,
			SuspendAfter: time.Duration(req.Decay.SuspendAfterHours) * time.Hour,
		}, audit)
		if err != nil {
			h.HandleError(c, err)
			return
		}
	}
	if req.SuggestionTTLSeconds != nil {
		info, err = h.configService.UpdateSuggestionTTL(ctx, time.Duration(*req.SuggestionTTLSeconds)*time.Second, audit)
		if err != nil {
			h.HandleError(c, err)
			return
		}
	}
	if req.LearnerEnabled != nil {
		info, err = h.configService.SetLearnerEnabled(ctx, *req.LearnerEnabled, audit)
		if err != nil {
			h.HandleError(c, err)
			return
		}
	}
	if req.MinExecutionsForAuto != nil {
		info, err = h.configService.UpdateMinExecutionsForAuto(ctx, *req.MinExecutionsForAuto, audit)
		if err != nil {
			h.HandleError(c, err)
			return
		}
	}

	if info == nil {
		// Nothing to change; return the current configuration
		info, err = h.configService.GetConfig(ctx)
		if err != nil {
			h.HandleError(c, err)
			return
		}
	}

	h.Success(c, info)
}

// ListAudit godoc
// @ID           listConfigAudit
// @Summary      List configuration audit log
// @Description  Get recent configuration and curation audit entries, newest first
// @Tags         config
// @Produce      json
// @Param        limit query int false "Maximum entries" default(50)
// @Success      200 {object} APIResponse[[]pls.AuditEntryInfo]
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /config/audit [get]
func (h *ConfigHandler) ListAudit(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	entries, err := h.configService.ListAuditLog(c.Request.Context(), limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, entries)
}
