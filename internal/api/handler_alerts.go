package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	defaultAlertLimit = 50
	maxAlertLimit     = 500
)

// GetAlerts handles GET /api/alerts?limit=N.
func (h *Handler) GetAlerts(c *gin.Context) {
	limit := defaultAlertLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			fail(c, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxAlertLimit)
	}

	alerts, err := h.store.ListAlerts(c.Request.Context(), limit)
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "listing alerts failed", "error", err)
		fail(c, http.StatusInternalServerError, "Failed to retrieve alerts")
		return
	}
	c.JSON(http.StatusOK, alerts)
}
