package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"mindsprout/handlers"
	"mindsprout/middleware"
	"mindsprout/services/booking"
	"mindsprout/utils"
)

// RegisterSlotRoutes registers availability listing and therapist schedule
// management.
func RegisterSlotRoutes(r *gin.Engine, th *handlers.TimeslotHandler) {
	api := r.Group("/api/slots")
	{
		api.GET("/:therapistID", th.ListAvailableSlots)

		protected := api.Group("")
		protected.Use(middleware.ActorAuthMiddleware(), middleware.RequireRole(booking.RoleTherapist))
		protected.PUT("/setup", th.SetupTimeslots)
		protected.DELETE("/id/:slotID", th.DeleteTimeslot)
	}
}

// RegisterBookingRoutes sets up the endpoints for the booking lifecycle.
func RegisterBookingRoutes(r *gin.Engine, bh *handlers.BookingHandler) {
	api := r.Group("/api/bookings")
	{
		api.Use(middleware.ActorAuthMiddleware())
		api.POST("", bh.CreateBooking)
		api.GET("/:id", bh.GetBooking)
		api.POST("/:id/confirm", bh.ConfirmBooking)
		api.POST("/:id/reject", bh.RejectBooking)
		api.POST("/:id/cancel", bh.CancelBooking)
		api.POST("/:id/complete", bh.CompleteBooking)
		api.POST("/:id/settle", middleware.RequireRole(booking.RoleOperator), bh.SettleBooking)
		api.POST("/:id/review", bh.CreateReview)
		api.PUT("/:id/review", bh.UpdateReview)
	}
}

// RegisterPaymentRoutes sets up payment read and reconciliation endpoints.
func RegisterPaymentRoutes(r *gin.Engine, bh *handlers.BookingHandler) {
	api := r.Group("/api/payments")
	{
		api.Use(middleware.ActorAuthMiddleware())
		api.GET("/:id", bh.GetPayment)
		api.POST("/:id/reconcile", middleware.RequireRole(booking.RoleOperator), bh.ReconcileDeposit)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "services": utils.GetHealthStatus()})
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, bh *handlers.BookingHandler, th *handlers.TimeslotHandler) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterHealthRoute(r)
	RegisterSlotRoutes(r, th)
	RegisterBookingRoutes(r, bh)
	RegisterPaymentRoutes(r, bh)
}
