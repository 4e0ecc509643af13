// handlers/routes.go
package handlers

import (
	"time"

	"mediahub/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// Version is reported by the health endpoint.
var Version = "1.0.0"

// RegisterRoutes mounts every endpoint on app. Init must have run first.
func RegisterRoutes(app *fiber.App, limiters *middleware.Limiters) {
	app.Get("/health", Health)

	optionalAuth := middleware.OptionalAuth(cfg.JWTSecret)

	api := app.Group("/api")
	api.Get("/health", Health)

	// Auth routes with stricter rate limiting
	authGroup := api.Group("/auth")
	authGroup.Post("/register", limiters.Auth(), Register)
	authGroup.Post("/login", limiters.Auth(), Login)
	authGroup.Get("/me", middleware.RequireAuth(cfg.JWTSecret), GetCurrentUser)

	// Media analysis routes
	api.Post("/media/analyze", limiters.Analyze(), optionalAuth, AnalyzeMedia)
	api.Get("/media/:id", GetMediaAnalysis)
	api.Post("/media/:id/save", SaveMediaAnalysis)
	api.Put("/media/:id/tags", UpdateMediaTags)

	// Game routes
	api.Get("/game/content", limiters.Analyze(), GetGameContent)
	api.Post("/game/result", SaveGameResult)

	// User routes
	users := api.Group("/users")
	users.Get("/:userId", GetUser)
	users.Get("/:userId/media", GetUserMedia)
	users.Get("/:userId/media/saved", GetSavedMedia)
	users.Get("/:userId/game-stats", GetGameStats)
	users.Get("/:userId/game-results", GetGameResults)
	users.Post("/:userId/progress", UpdateProgress)
	users.Post("/:userId/achievements", CreateAchievement)
	users.Get("/:userId/achievements", GetAchievements)
	users.Get("/:userId/tree", GetKnowledgeTree)
	users.Get("/:userId/dashboard", GetDashboard)

	// Test/demo user for development
	api.Post("/demo-user", CreateDemoUser)

	app.Get("/ws/users/:userId", optionalAuth, UpgradeProgressFeed, websocket.New(StreamProgress))
}

// Health reports liveness
// GET /health
func Health(c *fiber.Ctx) error {
	provider := "fallback"
	if analysisService != nil {
		provider = analysisService.ProviderName()
	}
	return c.JSON(fiber.Map{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
		"version":   Version,
		"provider":  provider,
	})
}

// ErrorHandler renders errors that escape handlers in the client's error envelope.
func ErrorHandler(production bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal Server Error"

		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
			message = e.Message
		} else {
			log.Error("unhandled error", "path", c.Path(), "error", err)
		}

		// Don't expose internal errors in production
		if production && code == fiber.StatusInternalServerError {
			message = "An error occurred. Please try again later."
		}

		return c.Status(code).JSON(fiber.Map{
			"success": false,
			"message": message,
		})
	}
}
