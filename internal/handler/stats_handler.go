package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/recipenest/recipenest-api/internal/service"
)

// StatsHandler serves the dashboards. Internal failures answer a generic
// message; the cause is only logged.
type StatsHandler struct {
	stats *service.StatsService
}

func NewStatsHandler(stats *service.StatsService) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// GET /api/chefs/stats
func (h *StatsHandler) ChefStats(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	out, err := h.stats.ChefStats(c.Request.Context(), who)
	if err != nil {
		respondError(c, err, "Failed to load chef statistics")
		return
	}
	c.JSON(http.StatusOK, out)
}

// GET /api/chefs/analytics/:id
func (h *StatsHandler) ChefAnalytics(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	out, err := h.stats.ChefAnalytics(c.Request.Context(), who, id)
	if err != nil {
		respondError(c, err, "Failed to load analytics")
		return
	}
	c.JSON(http.StatusOK, out)
}

// GET /api/admin/overview
func (h *StatsHandler) AdminOverview(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	out, err := h.stats.AdminOverview(c.Request.Context(), who)
	if err != nil {
		respondError(c, err, "Failed to load admin overview")
		return
	}
	c.JSON(http.StatusOK, out)
}
