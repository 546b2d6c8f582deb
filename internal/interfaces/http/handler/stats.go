package handler

import (
	"time"

	"github.com/clubhousegolfcanada/clubos-pls/internal/application/pls"
	"github.com/clubhousegolfcanada/clubos-pls/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// StatsHandler handles engine statistics HTTP requests
type StatsHandler struct {
	BaseHandler
	statsService *pls.StatsService
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(statsService *pls.StatsService) *StatsHandler {
	return &StatsHandler{
		statsService: statsService,
	}
}

// Summary godoc
// @ID           getEngineStats
// @Summary      Get engine statistics
// @Description  Aggregate message, suggestion, pattern and shadow activity over a time window. Defaults to the last 30 days.
// @Tags         stats
// @Produce      json
// @Param        from query string false "Window start (RFC 3339)"
// @Param        to query string false "Window end (RFC 3339)"
// @Success      200 {object} APIResponse[pls.EngineStats]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /patterns/stats/summary [get]
func (h *StatsHandler) Summary(c *gin.Context) {
	from, to, err := statsWindow(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	stats, err := h.statsService.GetEngineStats(c.Request.Context(), from, to)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, stats)
}

// ListShadowLogs godoc
// @ID           listShadowLogs
// @Summary      List shadow log entries
// @Description  Get recent shadow mode decisions, newest first
// @Tags         stats
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20) maximum(100)
// @Success      200 {object} APIResponse[[]pls.ShadowLogInfo]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /shadow-logs [get]
func (h *StatsHandler) ListShadowLogs(c *gin.Context) {
	req := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.statsService.ListShadowLogs(c.Request.Context(), buildFilter(req))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// statsWindow parses the from/to query parameters, defaulting to the
// trailing 30 days ending now
func statsWindow(c *gin.Context) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	from := now.AddDate(0, 0, -30)
	to := now

	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		from = parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		to = parsed
	}

	return from, to, nil
}
