package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mindsprout/models"
)

// GetPayment handles GET /api/payments/:id.
func (h *BookingHandler) GetPayment(c *gin.Context) {
	payment, err := h.Service.GetPayment(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment": payment})
}

// ReconcileDeposit handles POST /api/payments/:id/reconcile. The operator
// submits the depositor name and date observed on the bank statement; on a
// match the payment flips to PAID.
func (h *BookingHandler) ReconcileDeposit(c *gin.Context) {
	var req models.ReconcileDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid reconcile payload", "details": err.Error()})
		return
	}

	payment, err := h.Service.ReconcileDeposit(c.Request.Context(), actorFromContext(c), c.Param("id"), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment": payment})
}
