package api

import (
	"log/slog"
	"math"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"

	"campus-parking-backend/internal/model"
	"campus-parking-backend/internal/store"
)

// GetRoot is the liveness endpoint.
func (h *Handler) GetRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Campus Parking Backend Running"})
}

// GetSlots handles GET /api/slots with optional zone and status filters.
func (h *Handler) GetSlots(c *gin.Context) {
	filter := store.SlotFilter{
		Zone:   strings.ToUpper(strings.TrimSpace(c.Query("zone"))),
		Status: model.SlotStatus(strings.ToLower(strings.TrimSpace(c.Query("status")))),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		fail(c, http.StatusBadRequest, "status must be available or booked")
		return
	}

	slots, err := h.store.ListSlots(c.Request.Context(), filter)
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "listing slots failed", "error", err)
		fail(c, http.StatusInternalServerError, "Failed to retrieve slots")
		return
	}
	c.JSON(http.StatusOK, slots)
}

// ZoneSummary is the per-zone part of StatsResponse.
type ZoneSummary struct {
	Zone      string `json:"zone"`
	Total     int64  `json:"total"`
	Available int64  `json:"available"`
}

// StatsResponse represents the API response for GET /api/stats.
type StatsResponse struct {
	TotalSlots     int64         `json:"total_slots"`
	AvailableSlots int64         `json:"available_slots"`
	OccupiedSlots  int64         `json:"occupied_slots"`
	OccupancyRate  float64       `json:"occupancy_rate"` // percent, one decimal
	Zones          []ZoneSummary `json:"zones"`
}

// GetStats handles GET /api/stats.
func (h *Handler) GetStats(c *gin.Context) {
	counts, err := h.store.ZoneStats(c.Request.Context())
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "aggregating slots failed", "error", err)
		fail(c, http.StatusInternalServerError, "Failed to aggregate slots")
		return
	}
	c.JSON(http.StatusOK, buildStats(counts))
}

func buildStats(counts []store.ZoneCount) StatsResponse {
	byZone := make(map[string]*ZoneSummary)
	var resp StatsResponse
	for _, row := range counts {
		z, ok := byZone[row.Zone]
		if !ok {
			z = &ZoneSummary{Zone: row.Zone}
			byZone[row.Zone] = z
		}
		z.Total += row.Count
		resp.TotalSlots += row.Count
		if row.Status == model.SlotAvailable {
			z.Available += row.Count
			resp.AvailableSlots += row.Count
		}
	}
	resp.OccupiedSlots = resp.TotalSlots - resp.AvailableSlots
	if resp.TotalSlots > 0 {
		rate := float64(resp.OccupiedSlots) / float64(resp.TotalSlots) * 100
		resp.OccupancyRate = math.Round(rate*10) / 10
	}

	resp.Zones = make([]ZoneSummary, 0, len(byZone))
	for _, z := range byZone {
		resp.Zones = append(resp.Zones, *z)
	}
	sort.Slice(resp.Zones, func(i, j int) bool { return resp.Zones[i].Zone < resp.Zones[j].Zone })
	return resp
}
