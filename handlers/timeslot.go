package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	timeslotRepo "mindsprout/database/repository/timeslot"
	"mindsprout/models"
	"mindsprout/services/booking"
	"mindsprout/utils"
)

// TimeslotHandler exposes availability listing and the therapist's schedule
// setup.
type TimeslotHandler struct {
	Service booking.BookingService
	Repo    timeslotRepo.TimeSlotRepository
}

func NewTimeslotHandler(svc booking.BookingService, repo timeslotRepo.TimeSlotRepository) *TimeslotHandler {
	return &TimeslotHandler{Service: svc, Repo: repo}
}

// ListAvailableSlots handles GET /api/slots/:therapistID?from=...&to=...
func (h *TimeslotHandler) ListAvailableSlots(c *gin.Context) {
	therapistID := c.Param("therapistID")
	fromDate := c.Query("from")
	toDate := c.Query("to")
	if fromDate == "" || toDate == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from and to query parameters are required (YYYY-MM-DD)"})
		return
	}

	slots, err := h.Service.ListAvailableSlots(c.Request.Context(), therapistID, fromDate, toDate)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"slots": slots})
}

// SetupTimeslots handles PUT /api/slots/setup for the authenticated
// therapist.
func (h *TimeslotHandler) SetupTimeslots(c *gin.Context) {
	logger := utils.GetLogger()
	therapistID := c.GetString("actorID")

	var req models.SetupTimeslotsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request payload", err.Error())
		return
	}

	ids, err := h.Repo.CreateMany(c.Request.Context(), therapistID, req.TimeSlots)
	if err != nil {
		logger.Error("Failed to set up timeslots", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Failed to set up timeslots", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"slotIds": ids})
}

// DeleteTimeslot handles DELETE /api/slots/:slotID for the authenticated
// therapist. Slots referenced by a booking are retained.
func (h *TimeslotHandler) DeleteTimeslot(c *gin.Context) {
	therapistID := c.GetString("actorID")
	slotID := c.Param("slotID")

	if err := h.Repo.DeleteByID(c.Request.Context(), therapistID, slotID); err != nil {
		if err == timeslotRepo.ErrSlotReferenced {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "timeslot not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": slotID})
}
