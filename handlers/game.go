// handlers/game.go - swipe game endpoints
package handlers

import (
	"mediahub/models"
	"mediahub/services"
	"mediahub/utils"

	"github.com/gofiber/fiber/v2"
)

type GameResultRequest struct {
	UserID          string  `json:"userId"`
	MediaAnalysisID *string `json:"mediaAnalysisId"`
	UserChoice      string  `json:"userChoice"`
	CorrectAnswer   string  `json:"correctAnswer"`
	IsCorrect       *bool   `json:"isCorrect"`
	PointsEarned    int     `json:"pointsEarned"`
}

// GetGameContent returns the next card for the swipe game
// GET /api/game/content
func GetGameContent(c *fiber.Ctx) error {
	card, err := analysisService.GenerateGameContent(c.UserContext())
	if err != nil {
		return respondError(c, err, "No game content available", "Failed to generate game content")
	}
	return c.JSON(card)
}

// SaveGameResult records one swipe and credits its points
// POST /api/game/result
func SaveGameResult(c *fiber.Ctx) error {
	var req GameResultRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.JSONError(c, fiber.StatusBadRequest, "Invalid input")
	}

	result := &models.GameResult{
		UserID:          req.UserID,
		MediaAnalysisID: optionalString(req.MediaAnalysisID),
		UserChoice:      req.UserChoice,
		CorrectAnswer:   req.CorrectAnswer,
		PointsEarned:    req.PointsEarned,
	}
	if req.IsCorrect != nil {
		result.IsCorrect = *req.IsCorrect
	} else {
		result.IsCorrect = req.UserChoice == req.CorrectAnswer
	}

	if _, err := progressService.RecordGameResult(c.UserContext(), result); err != nil {
		return respondError(c, err, "User not found", "Failed to save game result")
	}
	return c.JSON(result)
}

// GetGameStats aggregates a user's game history
// GET /api/users/:userId/game-stats
func GetGameStats(c *fiber.Ctx) error {
	stats, err := store.GetUserGameStats(c.UserContext(), c.Params("userId"))
	if err != nil {
		return respondError(c, err, "User not found", "Failed to fetch game stats")
	}
	return c.JSON(stats)
}

// GetGameResults lists a user's most recent swipes
// GET /api/users/:userId/game-results?limit=50
func GetGameResults(c *fiber.Ctx) error {
	limit := utils.ClampInt(
		utils.QueryInt(c, "limit", services.DefaultGameResultsLimit),
		1, services.MaxGameResultsLimit,
	)
	results, err := store.GetUserGameResults(c.UserContext(), c.Params("userId"), limit)
	if err != nil {
		return respondError(c, err, "User not found", "Failed to fetch game results")
	}
	return c.JSON(results)
}
