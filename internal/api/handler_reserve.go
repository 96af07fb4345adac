package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"campus-parking-backend/internal/reservation"
)

type reserveRequest struct {
	UserName      string `json:"user_name" binding:"required"`
	VehicleNumber string `json:"vehicle_number" binding:"required"`
	SlotID        string `json:"slot_id" binding:"required"`
}

// PostReserve handles POST /api/reserve.
func (h *Handler) PostReserve(c *gin.Context) {
	var req reserveRequest
	if !bindJSON(c, &req) {
		return
	}

	r, err := h.reserver.Reserve(c.Request.Context(), reservation.Request{
		UserName:      req.UserName,
		VehicleNumber: req.VehicleNumber,
		SlotID:        req.SlotID,
	})
	if err != nil {
		status, message := reserveFailure(err)
		fail(c, status, message)
		return
	}

	succeed(c, http.StatusOK, "Slot reserved!", r)
}

// reserveFailure maps a Reserve error to a status and a client-safe message.
func reserveFailure(err error) (int, string) {
	switch {
	case errors.Is(err, reservation.ErrValidation):
		return http.StatusBadRequest, "user_name, vehicle_number and slot_id are required"
	case errors.Is(err, reservation.ErrSlotNotFound):
		return http.StatusNotFound, "Slot not found"
	case errors.Is(err, reservation.ErrSlotUnavailable):
		return http.StatusBadRequest, "Slot not available"
	case errors.Is(err, reservation.ErrTimeout):
		return http.StatusServiceUnavailable, "Reservation timed out, please try again"
	case errors.Is(err, reservation.ErrPersistence):
		return http.StatusInternalServerError, "Reservation could not be saved"
	default:
		slog.Error("unexpected reservation error", "error", err)
		return http.StatusInternalServerError, "Internal server error"
	}
}

// GetReservations handles GET /api/reservations.
func (h *Handler) GetReservations(c *gin.Context) {
	reservations, err := h.store.ListReservations(c.Request.Context())
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "listing reservations failed", "error", err)
		fail(c, http.StatusInternalServerError, "Failed to retrieve reservations")
		return
	}
	c.JSON(http.StatusOK, reservations)
}
