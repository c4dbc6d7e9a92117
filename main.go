package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"driveschool/config"
	"driveschool/cron"
	"driveschool/database"
	instructorRepo "driveschool/database/repository/instructor"
	orderRepo "driveschool/database/repository/order"
	ticketclassRepo "driveschool/database/repository/ticketclass"
	"driveschool/handlers"
	"driveschool/middleware"
	"driveschool/routes"
	"driveschool/services/booking"
	"driveschool/services/broadcast"
	"driveschool/services/classes"
	"driveschool/services/payment"
	"driveschool/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/stripe/stripe-go/v76"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitCache()
	utils.InitAuthCache()
	utils.StartHealthMonitor(
		[]*redis.Client{utils.GetCacheClient(), utils.GetAuthCacheClient()},
		database.MongoClient,
	)

	stripe.Key = config.AppConfig.StripeKey

	// repositories.
	instrRepo := instructorRepo.NewMongoInstructorRepo()
	classRepo := ticketclassRepo.NewMongoTicketClassRepo()
	ordRepo := orderRepo.NewMongoOrderRepo()

	// hold-expiry scheduling and worker.
	holdScheduler := cron.NewHoldScheduler()
	defer holdScheduler.Close()

	// services.
	bookingService := &booking.DefaultBookingService{
		Repo:    instrRepo,
		Holds:   holdScheduler,
		HoldTTL: time.Duration(config.AppConfig.HoldTTLMinutes) * time.Minute,
		Logger:  logger,
	}
	classService := &classes.DefaultClassService{
		Repo:   classRepo,
		Logger: logger,
	}
	reconcileService := &payment.DefaultReconciliationService{
		Booking:       bookingService,
		Orders:        ordRepo,
		WebhookSecret: config.AppConfig.StripeWebhookSecret,
		Logger:        logger,
	}

	holdWorker := cron.InitHoldExpiryWorker(bookingService, instrRepo)

	// Live updates fan out from the store change feed so that writes
	// made by any server instance reach every subscriber.
	hub := broadcast.NewHub(bookingService.GetDaySlots, logger)
	feedCtx, cancelFeed := context.WithCancel(context.Background())
	changes, err := instrRepo.WatchInstructorChanges(feedCtx)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to open instructor change feed: %v", err)
	}
	go hub.Run(feedCtx, changes)

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware(config.AppConfig.MaxRequestsPerMin))

	handlerBundle := &handlers.HandlerBundle{
		Booking:    handlers.NewBookingHandler(bookingService, logger),
		Schedule:   handlers.NewScheduleHandler(bookingService, hub, logger),
		Classes:    handlers.NewClassHandler(classService, logger),
		Orders:     handlers.NewOrderHandler(ordRepo, logger),
		Payment:    handlers.NewPaymentHandler(reconcileService, logger),
		Instructor: handlers.NewInstructorHandler(instrRepo, bookingService, logger),
	}
	routes.RegisterRoutes(router, handlerBundle)

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

	cancelFeed()
	hub.Stop()
	holdWorker.Shutdown()

	logger.Sugar().Info("main: server stopped gracefully")
}
