package routes

import (
	"time"

	"hireflow/handlers"
	"hireflow/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterOfferRoutes registers the instant dispatch endpoints.
func RegisterOfferRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/offers")
	api.Use(middleware.JWTAuthMiddleware(hb.AuthCache))
	{
		api.POST("", hb.AnnounceOfferHandler)
		api.GET("/pending", hb.PendingOfferHandler)
		api.GET("/history", hb.OfferHistoryHandler)
		api.POST("/:id/decision", hb.DecideOfferHandler)
	}
}

// RegisterBookingRoutes registers booking lifecycle endpoints.
func RegisterBookingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/bookings")
	api.Use(middleware.JWTAuthMiddleware(hb.AuthCache))
	{
		api.GET("", hb.ListBookingsHandler)
		api.GET("/:id", hb.GetBookingHandler)
		api.POST("/:id/confirm", hb.ConfirmBookingHandler)
		api.POST("/:id/start", hb.StartBookingHandler)
		api.POST("/:id/complete", hb.CompleteBookingHandler)
		api.POST("/:id/cancel", hb.CancelBookingHandler)
		api.POST("/:id/rating", hb.SubmitRatingHandler)
		api.POST("/:id/otp/reissue", hb.ReissueOTPHandler)
	}
}

// RegisterEscrowRoutes registers escrow reads and disputes for booking parties.
func RegisterEscrowRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/escrow")
	api.Use(middleware.JWTAuthMiddleware(hb.AuthCache))
	{
		api.GET("/:bookingId", hb.GetEscrowHandler)
		api.GET("/:bookingId/payout", hb.GetPayoutHandler)
		api.POST("/:bookingId/dispute", hb.RaiseDisputeHandler)
	}
}

// RegisterAdminRoutes registers admin-only escrow actions.
func RegisterAdminRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	admin := r.Group("/api/admin/escrow")
	admin.Use(middleware.JWTAuthMiddleware(hb.AuthCache), middleware.RequireAdmin())
	{
		admin.POST("/:bookingId/approve", hb.ApproveReleaseHandler)
		admin.POST("/:bookingId/force-release", hb.ForceReleaseHandler)
		admin.POST("/:bookingId/resolve", hb.ResolveDisputeHandler)
	}
}

// RegisterAccountRoutes registers device and token management.
func RegisterAccountRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	auth := middleware.JWTAuthMiddleware(hb.AuthCache)
	r.PUT("/api/devices/fcm", auth, hb.UpdateFCMTokenHandler)
	r.POST("/api/auth/revoke", auth, hb.RevokeTokenHandler)
}

// RegisterPaymentRoutes registers gateway callbacks. They authenticate by
// signature, not by bearer token.
func RegisterPaymentRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.POST("/api/payments/stripe/webhook", hb.StripeWebhookHandler)
}

func RegisterHealthRoute(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/health", hb.HealthHandler)
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Authorization", "Content-Type", "Stripe-Signature"},
		ExposeHeaders: []string{"Content-Length", "X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}))

	RegisterOfferRoutes(r, hb)
	RegisterBookingRoutes(r, hb)
	RegisterEscrowRoutes(r, hb)
	RegisterAdminRoutes(r, hb)
	RegisterAccountRoutes(r, hb)
	RegisterPaymentRoutes(r, hb)
	RegisterHealthRoute(r, hb)
}
