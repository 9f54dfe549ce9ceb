package router

import (
	"context"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/medprep/medmcq-backend/internal/config"
	"github.com/medprep/medmcq-backend/internal/handler"
	"github.com/medprep/medmcq-backend/internal/middleware"
	"github.com/medprep/medmcq-backend/internal/response"
	"github.com/medprep/medmcq-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth         *handler.AuthHandler
	User         *handler.UserHandler
	Module       *handler.ModuleHandler
	Question     *handler.QuestionHandler
	StudySession *handler.StudySessionHandler
	Practice     *handler.PracticeHandler
	Billing      *handler.BillingHandler
	WS           *handler.WSHandler
	System       *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// ctx bounds background middleware state such as the login rate limiter.
func SetupRouter(
	ctx context.Context,
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())

	// The webhook signature covers the raw body, so leave it uncompressed.
	router.Use(middleware.BrotliWithConfig(middleware.BrotliConfig{
		Quality:   middleware.DefaultBrotliConfig.Quality,
		MinLength: middleware.DefaultBrotliConfig.MinLength,
		Skipper: func(c *gin.Context) bool {
			return strings.HasSuffix(c.Request.URL.Path, "/webhook")
		},
	}))

	router.GET("/health", handlers.System.Health)

	requireAuth := []gin.HandlerFunc{
		middleware.RequireJWT(authService),
		middleware.CheckSession(authService),
	}

	// 10 login attempts per minute per IP.
	loginLimiter := middleware.NewRateLimiter(ctx, 10, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/register", loginLimiter.Middleware(), handlers.Auth.Register)
		auth.POST("/login", loginLimiter.Middleware(), handlers.Auth.Login)

		auth.POST("/logout", append(requireAuth, handlers.Auth.Logout)...)
		auth.GET("/user", append(requireAuth, middleware.NoStore(), handlers.Auth.Me)...)
	}

	// ─── 2. Public Catalogue ───────────────────────────────────────────
	publicAPI := router.Group("/api/v1")
	{
		publicAPI.GET("/plans", middleware.CacheControl(3600), handlers.Billing.ListPlans)
		publicAPI.POST("/webhook", handlers.Billing.Webhook)
	}

	// ─── 3. User Group (JWT + Latest Session) ──────────────────────────
	userAPI := router.Group("/api/v1")
	userAPI.Use(requireAuth...)
	{
		userAPI.GET("/modules", middleware.PrivateCacheControl(300), handlers.Module.List)

		userAPI.GET("/questions", handlers.Question.List)
		userAPI.GET("/questions/:id", handlers.Question.Get)
		userAPI.POST("/submit-answer", handlers.Question.SubmitAnswer)

		userAPI.POST("/sessions", handlers.StudySession.Start)
		userAPI.PATCH("/sessions/:id", handlers.StudySession.Update)

		userAPI.PATCH("/user/profile", handlers.User.UpdateProfile)
		userAPI.GET("/user/sessions", middleware.NoStore(), handlers.User.ListSessions)
		userAPI.GET("/user/stats", middleware.NoStore(), handlers.User.Stats)
		userAPI.GET("/user/payments", middleware.NoStore(), handlers.User.ListPayments)

		userAPI.POST("/create-payment-intent", handlers.Billing.CreatePaymentIntent)

		userAPI.GET("/system/metrics", middleware.NoStore(), handlers.System.Metrics)
	}

	// ─── 4. Practice Runs ──────────────────────────────────────────────
	practice := router.Group("/api/v1/practice")
	practice.Use(requireAuth...)
	practice.Use(middleware.NoStore())
	{
		practice.POST("", handlers.Practice.Start)
		practice.GET("/:run_id", handlers.Practice.Get)
		practice.DELETE("/:run_id", handlers.Practice.End)
		practice.POST("/:run_id/answer", handlers.Practice.Answer)
		practice.POST("/:run_id/navigate", handlers.Practice.Navigate)
		practice.POST("/:run_id/review", handlers.Practice.EnterReview)
		practice.DELETE("/:run_id/review", handlers.Practice.ExitReview)
		practice.POST("/:run_id/restart", handlers.Practice.Restart)
	}

	// ─── 5. WebSocket Group ────────────────────────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(
		middleware.RequireWSAuth(authService),
		middleware.CheckSession(authService),
	)
	{
		ws.GET("/practice", handlers.WS.PracticeStream)
	}

	return router
}
