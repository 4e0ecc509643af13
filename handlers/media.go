// handlers/media.go - media analysis endpoints
package handlers

import (
	"errors"
	"strings"

	"mediahub/middleware"
	"mediahub/models"
	"mediahub/services"
	"mediahub/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
)

type AnalyzeMediaRequest struct {
	Title     string  `json:"title"`
	Content   string  `json:"content"`
	MediaType string  `json:"mediaType"`
	SourceURL *string `json:"sourceUrl"`
	UserID    *string `json:"userId"`
}

type SaveMediaRequest struct {
	IsSaved *bool `json:"isSaved"`
}

type UpdateTagsRequest struct {
	Tags []string `json:"tags"`
}

// AnalyzeMedia scores submitted content and stores the result
// POST /api/media/analyze
func AnalyzeMedia(c *fiber.Ctx) error {
	var req AnalyzeMediaRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.JSONError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" || strings.TrimSpace(req.Content) == "" || strings.TrimSpace(req.MediaType) == "" {
		return utils.JSONError(c, fiber.StatusBadRequest, "Title, content, and mediaType are required")
	}
	mediaType, ok := models.NormalizeMediaType(req.MediaType)
	if !ok {
		return utils.JSONError(c, fiber.StatusBadRequest, "mediaType must be one of article, image, video, social")
	}

	ctx := c.UserContext()
	userID := optionalString(req.UserID)
	if userID == nil {
		if id, err := middleware.GetUserID(c); err == nil {
			userID = &id
		}
	}
	if userID != nil {
		if _, err := store.GetUser(ctx, *userID); err != nil {
			if errors.Is(err, services.ErrNotFound) {
				return utils.JSONError(c, fiber.StatusBadRequest, "Unknown userId")
			}
			return respondError(c, err, "User not found", "Failed to analyze media content")
		}
	}
	sourceURL := optionalString(req.SourceURL)

	in := services.AnalysisInput{Title: req.Title, Content: req.Content, MediaType: mediaType}
	if sourceURL != nil {
		in.SourceURL = *sourceURL
	}
	result, err := analysisService.AnalyzeMedia(ctx, in)
	if err != nil {
		return respondError(c, err, "Analysis not found", "Failed to analyze media content")
	}

	analysis := &models.MediaAnalysis{
		UserID:              userID,
		Title:               req.Title,
		Content:             req.Content,
		SourceURL:           sourceURL,
		MediaType:           mediaType,
		BiasScore:           result.BiasScore,
		CredibilityScore:    result.CredibilityScore,
		FactualityScore:     result.FactualityScore,
		OverallScore:        result.OverallScore,
		BiasAnalysis:        result.BiasAnalysis,
		FactCheckResults:    datatypes.JSON(result.FactCheckResults),
		SourcesVerification: datatypes.JSON(result.SourcesVerification),
		GenerationalRewrite: datatypes.NewJSONType(result.GenerationalRewrite),
		Provider:            result.Provider,
	}
	if err := store.SaveMediaAnalysis(ctx, analysis); err != nil {
		return respondError(c, err, "Analysis not found", "Failed to analyze media content")
	}

	if userID != nil {
		if _, err := progressService.RecordAnalysis(ctx, *userID); err != nil {
			log.Warn("achievement check after analysis failed", "userId", *userID, "error", err)
		}
	}
	return c.JSON(analysis)
}

// GetMediaAnalysis returns one stored analysis
// GET /api/media/:id
func GetMediaAnalysis(c *fiber.Ctx) error {
	analysis, err := store.GetMediaAnalysis(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err, "Analysis not found", "Failed to fetch analysis")
	}
	return c.JSON(analysis)
}

// SaveMediaAnalysis bookmarks or un-bookmarks an analysis
// POST /api/media/:id/save
func SaveMediaAnalysis(c *fiber.Ctx) error {
	var req SaveMediaRequest
	if err := c.BodyParser(&req); err != nil || req.IsSaved == nil {
		return utils.JSONError(c, fiber.StatusBadRequest, "isSaved (boolean) is required")
	}
	if err := store.UpdateMediaAnalysisSaveStatus(c.UserContext(), c.Params("id"), *req.IsSaved); err != nil {
		return respondError(c, err, "Analysis not found", "Failed to update save status")
	}
	return c.JSON(fiber.Map{"success": true})
}

// UpdateMediaTags replaces an analysis's tags
// PUT /api/media/:id/tags
func UpdateMediaTags(c *fiber.Ctx) error {
	var req UpdateTagsRequest
	if err := c.BodyParser(&req); err != nil || req.Tags == nil {
		return utils.JSONError(c, fiber.StatusBadRequest, "tags (array of strings) is required")
	}
	analysis, err := store.UpdateMediaAnalysisTags(c.UserContext(), c.Params("id"), normalizeTags(req.Tags))
	if err != nil {
		return respondError(c, err, "Analysis not found", "Failed to update tags")
	}
	return c.JSON(analysis)
}

// GetUserMedia lists a user's analyses, newest first
// GET /api/users/:userId/media
func GetUserMedia(c *fiber.Ctx) error {
	analyses, err := store.GetUserMediaAnalyses(c.UserContext(), c.Params("userId"))
	if err != nil {
		return respondError(c, err, "User not found", "Failed to fetch user analyses")
	}
	return c.JSON(analyses)
}

// GetSavedMedia lists a user's saved analyses
// GET /api/users/:userId/media/saved
func GetSavedMedia(c *fiber.Ctx) error {
	analyses, err := store.GetSavedMediaAnalyses(c.UserContext(), c.Params("userId"))
	if err != nil {
		return respondError(c, err, "User not found", "Failed to fetch saved analyses")
	}
	return c.JSON(analyses)
}

// normalizeTags lowercases, trims and de-duplicates tags in first-seen order.
func normalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func optionalString(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
