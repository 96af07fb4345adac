package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"campus-parking-backend/internal/contact"
)

type contactRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required"`
	Message string `json:"message" binding:"required"`
}

// PostContact handles POST /api/contact.
func (h *Handler) PostContact(c *gin.Context) {
	var req contactRequest
	if !bindJSON(c, &req) {
		return
	}

	if _, err := h.contact.Submit(c.Request.Context(), req.Name, req.Email, req.Message); err != nil {
		if errors.Is(err, contact.ErrValidation) {
			fail(c, http.StatusBadRequest, "name, email and message are required")
			return
		}
		fail(c, http.StatusInternalServerError, "Failed to save message")
		return
	}

	succeed(c, http.StatusOK, "Message saved!", nil)
}
