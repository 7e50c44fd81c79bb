// File: mindsprout/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"mindsprout/config"
	"mindsprout/cron"
	"mindsprout/database"
	bookingRepoPkg "mindsprout/database/repository/booking"
	reviewRepoPkg "mindsprout/database/repository/review"
	timeslotRepoPkg "mindsprout/database/repository/timeslot"
	"mindsprout/handlers"
	"mindsprout/middleware"
	"mindsprout/routes"
	"mindsprout/services/booking"
	"mindsprout/services/notification"
	"mindsprout/services/tasks"
	"mindsprout/utils"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitCache()
	utils.StartHealthMonitor(utils.GetCacheClient(), database.MongoClient)

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())

	// repositories.
	bookingRepo := bookingRepoPkg.NewMongoBookingRepo()
	slotRepo := timeslotRepoPkg.NewMongoTimeSlotRepo()
	reviewRepo := reviewRepoPkg.NewMongoReviewRepo()

	// services.
	notificationService := &notification.LogNotificationService{}
	payoutEnqueuer := tasks.NewAsynqPayoutEnqueuer()

	bookingService := &booking.DefaultBookingService{
		Repo:                   bookingRepo,
		SlotRepo:               slotRepo,
		ReviewRepo:             reviewRepo,
		Notifier:               notificationService,
		Payouts:                payoutEnqueuer,
		Refunds:                booking.RefundPolicy{FullRefundHours: config.AppConfig.FullRefundHours, HalfRefundHours: config.AppConfig.HalfRefundHours},
		TherapyPlatformFeeRate: config.AppConfig.TherapyPlatformFeeRate,
		CacheClient:            utils.GetCacheClient(),
	}

	// Start the payout worker.
	cron.InitPayoutWorker(bookingService)

	bookingHandler := handlers.NewBookingHandler(bookingService, logger)
	timeslotHandler := handlers.NewTimeslotHandler(bookingService, slotRepo)

	routes.RegisterRoutes(router, bookingHandler, timeslotHandler)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
