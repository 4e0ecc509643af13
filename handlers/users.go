// handlers/users.go - user profile, progress and achievement endpoints
package handlers

import (
	"strings"

	"mediahub/models"
	"mediahub/services"
	"mediahub/utils"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/errgroup"
)

const dashboardItems = 5

type ProgressRequest struct {
	PointsEarned int    `json:"pointsEarned"`
	Reason       string `json:"reason"`
}

type AchievementRequest struct {
	AchievementType string `json:"achievementType"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	PointsEarned    int    `json:"pointsEarned"`
}

// GetUser returns a user's profile and progress
// GET /api/users/:userId
func GetUser(c *fiber.Ctx) error {
	user, err := store.GetUser(c.UserContext(), c.Params("userId"))
	if err != nil {
		return respondError(c, err, "User not found", "Failed to fetch user")
	}
	return c.JSON(user)
}

// UpdateProgress credits points to a user
// POST /api/users/:userId/progress
func UpdateProgress(c *fiber.Ctx) error {
	var req ProgressRequest
	if err := c.BodyParser(&req); err != nil || req.PointsEarned <= 0 {
		return utils.JSONError(c, fiber.StatusBadRequest, "Valid pointsEarned required")
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = "manual"
	}
	update, err := progressService.AwardPoints(c.UserContext(), c.Params("userId"), req.PointsEarned, reason)
	if err != nil {
		return respondError(c, err, "User not found", "Failed to update progress")
	}
	return c.JSON(update.User)
}

// CreateAchievement stores a client-reported achievement
// POST /api/users/:userId/achievements
func CreateAchievement(c *fiber.Ctx) error {
	var req AchievementRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.JSONError(c, fiber.StatusBadRequest, "Invalid achievement data")
	}
	req.AchievementType = strings.TrimSpace(req.AchievementType)
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	if req.AchievementType == "" || req.Title == "" || req.Description == "" || req.PointsEarned < 0 {
		return utils.JSONError(c, fiber.StatusBadRequest, "Invalid achievement data")
	}

	ctx := c.UserContext()
	userID := c.Params("userId")
	if _, err := store.GetUser(ctx, userID); err != nil {
		return respondError(c, err, "User not found", "Failed to save achievement")
	}

	achievement := &models.UserAchievement{
		UserID:          userID,
		AchievementType: req.AchievementType,
		Title:           req.Title,
		Description:     req.Description,
		PointsEarned:    req.PointsEarned,
	}
	if err := store.SaveUserAchievement(ctx, achievement); err != nil {
		return respondError(c, err, "User not found", "Failed to save achievement")
	}
	return c.JSON(achievement)
}

// GetAchievements lists a user's achievements, newest first
// GET /api/users/:userId/achievements
func GetAchievements(c *fiber.Ctx) error {
	achievements, err := store.GetUserAchievements(c.UserContext(), c.Params("userId"))
	if err != nil {
		return respondError(c, err, "User not found", "Failed to fetch achievements")
	}
	return c.JSON(achievements)
}

// GetKnowledgeTree returns the tree stage and the achievement catalogue
// GET /api/users/:userId/tree
func GetKnowledgeTree(c *fiber.Ctx) error {
	tree, catalog, err := progressService.Tree(c.UserContext(), c.Params("userId"))
	if err != nil {
		return respondError(c, err, "User not found", "Failed to fetch knowledge tree")
	}
	return c.JSON(fiber.Map{
		"tree":         tree,
		"achievements": catalog,
	})
}

// GetDashboard bundles everything the home screen shows
// GET /api/users/:userId/dashboard
func GetDashboard(c *fiber.Ctx) error {
	userID := c.Params("userId")
	ctx := c.UserContext()

	user, err := store.GetUser(ctx, userID)
	if err != nil {
		return respondError(c, err, "User not found", "Failed to fetch dashboard")
	}

	var (
		stats        *models.GameStats
		analyses     []models.MediaAnalysis
		achievements []models.UserAchievement
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats, err = store.GetUserGameStats(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		analyses, err = store.GetUserMediaAnalyses(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		achievements, err = store.GetUserAchievements(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return respondError(c, err, "User not found", "Failed to fetch dashboard")
	}

	if len(analyses) > dashboardItems {
		analyses = analyses[:dashboardItems]
	}
	return c.JSON(fiber.Map{
		"user":           user,
		"gameStats":      stats,
		"recentAnalyses": analyses,
		"achievements":   achievements,
		"tree":           services.TreeFor(user.TotalPoints),
	})
}

// CreateDemoUser upserts the fixed demo account
// POST /api/demo-user
func CreateDemoUser(c *fiber.Ctx) error {
	email, first, last := models.DemoUserEmail, "Demo", "User"
	user, err := store.UpsertUser(c.UserContext(), &models.User{
		ID:          models.DemoUserID,
		Email:       &email,
		FirstName:   &first,
		LastName:    &last,
		TotalPoints: models.DemoUserPoints,
	})
	if err != nil {
		return respondError(c, err, "User not found", "Failed to create demo user")
	}
	return c.JSON(user)
}
