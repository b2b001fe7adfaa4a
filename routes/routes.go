package routes

import (
	"net/http"
	"time"

	"ecocycle/handlers"
	"ecocycle/middleware"
	"ecocycle/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterRequestRoutes registers the collection request lifecycle endpoints.
func RegisterRequestRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/requests")
	{
		// Customer endpoints.
		customer := api.Group("")
		customer.Use(middleware.JWTAuthMiddleware("customer"))
		customer.POST("", hb.Collection.SubmitRequest)

		// Collector endpoints: claim protocol and field lifecycle.
		collector := api.Group("")
		collector.Use(middleware.JWTAuthMiddleware("collector"))
		collector.GET("/pending", hb.Collection.ListPending)
		collector.GET("/mine", hb.Collection.ListMine)
		collector.POST("/:id/claim", hb.Collection.Claim)
		collector.GET("/:id/centers", hb.Collection.ListEligibleCenters)
		collector.POST("/:id/center", hb.Collection.AssignCenter)
		collector.POST("/:id/start", hb.Collection.Start)
		collector.POST("/:id/complete", hb.Collection.Complete)
		collector.POST("/:id/issue", hb.Collection.ReportIssue)
		collector.POST("/:id/deliver", hb.Collection.Deliver)

		// Center endpoint: receipt confirmation settles the commission.
		center := api.Group("")
		center.Use(middleware.JWTAuthMiddleware("center"))
		center.POST("/:id/confirm", hb.Collection.Confirm)

		// Shared endpoints.
		shared := api.Group("")
		shared.Use(middleware.JWTAuthMiddleware("customer", "collector", "center", "admin"))
		shared.GET("/:id", hb.Collection.GetRequest)
		shared.PUT("/:id/schedule", hb.Collection.Reschedule)

		// Admin endpoints: issue resolution, cancellation, audit trail.
		admin := api.Group("")
		admin.Use(middleware.JWTAuthMiddleware("admin", "customer"))
		admin.POST("/:id/cancel", hb.Collection.Cancel)

		adminOnly := api.Group("")
		adminOnly.Use(middleware.JWTAuthMiddleware("admin"))
		adminOnly.POST("/:id/resolve", hb.Collection.ResolveIssue)
		adminOnly.GET("/:id/audit", hb.Collection.GetAuditTrail)
	}
}

// RegisterEarningsRoutes registers the collector earnings endpoint.
func RegisterEarningsRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/earnings")
	{
		api.Use(middleware.JWTAuthMiddleware("collector"))
		api.GET("", hb.Earnings.GetEarnings)
	}
}

// RegisterCenterRoutes registers the recycling center directory endpoints.
func RegisterCenterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/centers")
	{
		api.Use(middleware.JWTAuthMiddleware("customer", "collector", "center", "admin"))
		api.GET("", hb.Centers.ListCenters)
	}
}

// RegisterStorageRoutes registers evidence upload and download endpoints.
func RegisterStorageRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/evidence")
	{
		api.Use(middleware.JWTAuthMiddleware("collector", "center", "admin"))
		api.POST("/upload", hb.Storage.UploadEvidenceHandler)
		api.GET("/:ref/url", hb.Storage.GetEvidenceURLHandler)

		adminOnly := r.Group("/api/evidence")
		adminOnly.Use(middleware.JWTAuthMiddleware("admin"))
		adminOnly.DELETE("/:ref", hb.Storage.DeleteEvidenceHandler)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Hi, I'm EcoCycle"})
	})
}

// SetupRouter builds the gin engine with global middleware and all routes.
func SetupRouter(hb *handlers.HandlerBundle) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(utils.ErrorHandler())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "role"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.RateLimitMiddleware())

	RegisterHealthRoute(r)
	RegisterRequestRoutes(r, hb)
	RegisterEarningsRoutes(r, hb)
	RegisterCenterRoutes(r, hb)
	RegisterStorageRoutes(r, hb)

	return r
}
