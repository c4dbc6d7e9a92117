package routes

import (
	"net/http"
	"time"

	"driveschool/handlers"
	"driveschool/middleware"
	"driveschool/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterScheduleRoutes sets up the public schedule endpoints. The live
// stream endpoint deliberately skips the request timeout middleware since
// SSE connections are long lived.
func RegisterScheduleRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	scheduleGroup := r.Group("/api/schedule")
	{
		scheduleGroup.GET("/:instructorId/:kind/:date",
			middleware.SetRequestTimeout(10*time.Second), hb.Schedule.GetDaySlots)
		scheduleGroup.GET("/:instructorId/:kind/:date/live", hb.Schedule.LiveSlots)
	}
}

// RegisterBookingRoutes sets up the endpoints for slot reservations.
func RegisterBookingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	bookingGroup := r.Group("/api/booking")
	{
		bookingGroup.Use(middleware.StudentAuthMiddleware())
		bookingGroup.Use(middleware.SetRequestTimeout(10 * time.Second))
		bookingGroup.POST("/reserve", hb.Booking.ReserveSlot)
		bookingGroup.POST("/cancel", hb.Booking.CancelPending)
		bookingGroup.POST("/release", hb.Booking.ReleaseSlot)
	}
}

// RegisterClassRoutes sets up the group-class enrollment endpoints.
func RegisterClassRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	classGroup := r.Group("/api/classes")
	{
		classGroup.Use(middleware.SetRequestTimeout(10 * time.Second))
		classGroup.GET("", hb.Classes.ListClasses)
		classGroup.GET("/:id", hb.Classes.GetClass)

		authed := classGroup.Group("")
		authed.Use(middleware.StudentAuthMiddleware())
		authed.POST("/:id/enroll", hb.Classes.Enroll)
		authed.POST("/:id/request", hb.Classes.RequestEnrollment)
		authed.DELETE("/:id/enroll", hb.Classes.Unenroll)
		authed.DELETE("/:id/request", hb.Classes.CancelRequest)
	}
}

// RegisterOrderRoutes sets up the order endpoints.
func RegisterOrderRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	orderGroup := r.Group("/api/orders")
	{
		orderGroup.Use(middleware.StudentAuthMiddleware())
		orderGroup.Use(middleware.SetRequestTimeout(10 * time.Second))
		orderGroup.POST("", hb.Orders.CreateOrder)
		orderGroup.GET("", hb.Orders.ListOrders)
		orderGroup.GET("/:id", hb.Orders.GetOrder)
	}
}

// RegisterPaymentRoutes sets up the payment gateway webhook. The gateway
// signs requests itself, so no auth middleware here.
func RegisterPaymentRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.POST("/api/payments/webhook", hb.Payment.Webhook)
}

// RegisterAdminRoutes sets up endpoints for admin operations.
func RegisterAdminRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	adminGroup := r.Group("/api/admin")
	{
		adminGroup.Use(middleware.AdminAuthMiddleware())
		adminGroup.Use(middleware.SetRequestTimeout(15 * time.Second))
		adminGroup.GET("/instructors", hb.Instructor.ListInstructors)
		adminGroup.GET("/instructors/:id", hb.Instructor.GetInstructor)
		adminGroup.POST("/instructors", hb.Instructor.CreateInstructor)
		adminGroup.PUT("/instructors/:id/schedule", hb.Instructor.SetupDaySlots)
		adminGroup.POST("/instructors/:id/block", hb.Instructor.BlockSlot)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "services": utils.GetHealthStatus()})
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterScheduleRoutes(r, hb)
	RegisterBookingRoutes(r, hb)
	RegisterClassRoutes(r, hb)
	RegisterOrderRoutes(r, hb)
	RegisterPaymentRoutes(r, hb)
	RegisterAdminRoutes(r, hb)
	RegisterHealthRoute(r)
}
