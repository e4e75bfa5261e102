package http

import (
	nethttp "net/http"

	"github.com/gin-gonic/gin"

	httpH "mealplanr/internal/http/handlers"
	httpMW "mealplanr/internal/http/middleware"
	"mealplanr/internal/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	AllowedOrigins []string

	AuthHandler    *httpH.AuthHandler
	AuthMiddleware *httpMW.AuthMiddleware
	PlanHandler    *httpH.PlanHandler
	MealHandler    *httpH.MealHandler
	HealthHandler  *httpH.HealthHandler

	// TelegramWebhook receives bot updates when the bot is enabled.
	TelegramWebhook nethttp.Handler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.AllowedOrigins))

	if cfg.TelegramWebhook != nil {
		r.POST("/telegram/webhook", gin.WrapH(cfg.TelegramWebhook))
	}

	api := r.Group("/api/v1")
	{
		// Health
		if cfg.HealthHandler != nil {
			api.GET("/healthz", cfg.HealthHandler.HealthCheck)
		}

		// Auth (public)
		if cfg.AuthHandler != nil {
			api.POST("/auth/signup", cfg.AuthHandler.Signup)
			api.POST("/auth/login", cfg.AuthHandler.Login)
		}

		// Catalog (public)
		if cfg.MealHandler != nil {
			api.GET("/meals", cfg.MealHandler.List)
		}
	}

	protected := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		if cfg.AuthHandler != nil {
			protected.GET("/auth/me", cfg.AuthHandler.Me)
			protected.PUT("/profile", cfg.AuthHandler.UpdateProfile)
		}

		// Meal plan
		if cfg.PlanHandler != nil {
			protected.POST("/meal-plan/generate", cfg.PlanHandler.Generate)
			protected.GET("/meal-plan", cfg.PlanHandler.Get)
			protected.POST("/meal-plan/swap", cfg.PlanHandler.Swap)
			protected.POST("/meal-plan/remove", cfg.PlanHandler.Remove)

			// Shopping list
			protected.POST("/shopping-list/item", cfg.PlanHandler.AddItem)
			protected.DELETE("/shopping-list/item/:id", cfg.PlanHandler.RemoveItem)
			protected.PATCH("/shopping-list/item/:id", cfg.PlanHandler.UpdateItem)
		}
	}

	return r
}
