package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mindsprout/models"
	"mindsprout/services/booking"
)

// BookingHandler exposes the booking lifecycle over HTTP.
type BookingHandler struct {
	Service booking.BookingService
	Logger  *zap.Logger
}

func NewBookingHandler(svc booking.BookingService, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{Service: svc, Logger: logger}
}

// actorFromContext reads the identity stored by ActorAuthMiddleware.
func actorFromContext(c *gin.Context) booking.Actor {
	return booking.Actor{
		ID:   c.GetString("actorID"),
		Role: c.GetString("actorRole"),
	}
}

// statusForError maps the typed failure taxonomy to HTTP statuses.
func statusForError(err error) int {
	switch booking.CodeOf(err) {
	case booking.CodeValidation:
		return http.StatusBadRequest
	case booking.CodeUnauthorized:
		return http.StatusForbidden
	case booking.CodeNotFound:
		return http.StatusNotFound
	case booking.CodeSlotConflict, booking.CodeInvalidStateTransition, booking.CodeAlreadySettled:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *BookingHandler) respondError(c *gin.Context, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		h.Logger.Error("booking operation failed", zap.Error(err))
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": booking.CodeOf(err)})
}

// CreateBooking handles POST /api/bookings.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req models.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload", "details": err.Error()})
		return
	}

	resp, err := h.Service.CreateBooking(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// GetBooking handles GET /api/bookings/:id.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	b, err := h.Service.GetBooking(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": b})
}

// ConfirmBooking handles POST /api/bookings/:id/confirm.
func (h *BookingHandler) ConfirmBooking(c *gin.Context) {
	var body struct {
		TherapistNote string `json:"therapistNote"`
	}
	_ = c.ShouldBindJSON(&body)

	b, err := h.Service.ConfirmBooking(c.Request.Context(), actorFromContext(c), c.Param("id"), body.TherapistNote)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": b})
}

// RejectBooking handles POST /api/bookings/:id/reject.
func (h *BookingHandler) RejectBooking(c *gin.Context) {
	var body struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "a rejection reason is required"})
		return
	}

	resp, err := h.Service.RejectBooking(c.Request.Context(), actorFromContext(c), c.Param("id"), body.Reason)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CancelBooking handles POST /api/bookings/:id/cancel.
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	var body struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "a cancellation reason is required"})
		return
	}

	resp, err := h.Service.CancelBooking(c.Request.Context(), actorFromContext(c), c.Param("id"), body.Reason)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CompleteBooking handles POST /api/bookings/:id/complete.
func (h *BookingHandler) CompleteBooking(c *gin.Context) {
	var body struct {
		TherapistNote string `json:"therapistNote"`
	}
	_ = c.ShouldBindJSON(&body)

	b, err := h.Service.CompleteBooking(c.Request.Context(), actorFromContext(c), c.Param("id"), body.TherapistNote)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": b})
}

// SettleBooking handles POST /api/bookings/:id/settle.
func (h *BookingHandler) SettleBooking(c *gin.Context) {
	var body struct {
		Note string `json:"note"`
	}
	_ = c.ShouldBindJSON(&body)

	resp, err := h.Service.SettleBooking(c.Request.Context(), actorFromContext(c), c.Param("id"), body.Note)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CreateReview handles POST /api/bookings/:id/review.
func (h *BookingHandler) CreateReview(c *gin.Context) {
	var req models.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid review payload", "details": err.Error()})
		return
	}

	review, err := h.Service.CreateReview(c.Request.Context(), actorFromContext(c), c.Param("id"), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"review": review})
}

// UpdateReview handles PUT /api/bookings/:id/review.
func (h *BookingHandler) UpdateReview(c *gin.Context) {
	var req models.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid review payload", "details": err.Error()})
		return
	}

	review, err := h.Service.UpdateReview(c.Request.Context(), actorFromContext(c), c.Param("id"), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"review": review})
}
