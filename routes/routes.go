package routes

import (
	"time"

	"fundihub/handlers"
	"fundihub/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterBookingRoutes sets up the endpoints for the booking lifecycle.
func RegisterBookingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	bookings := r.Group("/api/bookings")
	{
		bookings.Use(middleware.JWTAuthMiddleware())
		bookings.POST("", hb.CreateBookingHandler)
		bookings.GET("", hb.ListBookingsHandler)
		bookings.GET("/:id", hb.GetBookingHandler)
		bookings.POST("/:id/assign", hb.AssignProviderHandler)
		bookings.POST("/:id/confirm", hb.ConfirmBookingHandler)
		bookings.POST("/:id/start", hb.StartBookingHandler)
		bookings.POST("/:id/complete", hb.CompleteBookingHandler)
		bookings.POST("/:id/cancel", hb.CancelBookingHandler)
		bookings.POST("/:id/dispute", hb.DisputeBookingHandler)
		bookings.POST("/:id/payment-completed", hb.RecordPaymentHandler)
	}
}

// RegisterEscrowRoutes sets up the escrow and dispute endpoints.
func RegisterEscrowRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	escrows := r.Group("/api/escrows")
	{
		escrows.Use(middleware.JWTAuthMiddleware())
		escrows.GET("/booking/:bookingId", hb.GetEscrowHandler)
		escrows.POST("/:id/evidence", hb.AddEvidenceHandler)

		admin := escrows.Group("")
		admin.Use(middleware.AdminOnlyMiddleware())
		admin.POST("/:id/resolve", hb.ResolveDisputeHandler)
		admin.DELETE("/:id", hb.ArchiveEscrowHandler)
	}
}

// RegisterMatchingRoutes sets up the provider matching endpoint.
func RegisterMatchingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	matching := r.Group("/api/matching")
	{
		matching.Use(middleware.JWTAuthMiddleware())
		matching.POST("/search", hb.MatchProvidersHandler)
	}
}

// RegisterPayoutRoutes sets up the payout endpoints.
func RegisterPayoutRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	payouts := r.Group("/api/payouts")
	{
		payouts.Use(middleware.JWTAuthMiddleware())
		payouts.GET("/:id", hb.GetPayoutHandler)
		payouts.GET("/history/:providerId", hb.PayoutHistoryHandler)
		payouts.GET("/stats", hb.PayoutStatsHandler)
		payouts.PUT("/destination/:providerId", hb.SetPayoutDestinationHandler)

		admin := payouts.Group("")
		admin.Use(middleware.AdminOnlyMiddleware())
		admin.POST("/process-now", hb.ProcessPayoutsNowHandler)
		admin.POST("/:id/requeue", hb.RequeuePayoutHandler)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", handlers.HealthHandler)
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
	r.Use(middleware.RateLimitMiddleware())

	RegisterHealthRoute(r)
	RegisterBookingRoutes(r, hb)
	RegisterEscrowRoutes(r, hb)
	RegisterMatchingRoutes(r, hb)
	RegisterPayoutRoutes(r, hb)
}
