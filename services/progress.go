// services/progress.go - points, levels and achievement unlocks
package services

import (
	"context"
	"fmt"

	"mediahub/events"
	"mediahub/logger"
	"mediahub/models"
)

// PointsPerCorrectSwipe is what the swipe game awards for a right answer.
const PointsPerCorrectSwipe = 100

type ProgressService struct {
	store   Storage
	catalog *Catalog
	pub     events.Publisher
	log     *logger.Logger
}

func NewProgressService(store Storage, catalog *Catalog, pub events.Publisher, log *logger.Logger) *ProgressService {
	if log == nil {
		log = logger.Nop()
	}
	if catalog == nil {
		catalog = &Catalog{}
	}
	return &ProgressService{store: store, catalog: catalog, pub: pub, log: log.With("service", "ProgressService")}
}

// ProgressUpdate is the outcome of crediting points.
type ProgressUpdate struct {
	User         *models.User             `json:"user"`
	PointsEarned int                      `json:"pointsEarned"`
	LeveledUp    bool                     `json:"leveledUp"`
	PrevLevel    int                      `json:"previousLevel"`
	Unlocked     []models.UserAchievement `json:"unlockedAchievements"`
}

// AwardPoints credits points to userID and unlocks whatever the new total earns.
func (s *ProgressService) AwardPoints(ctx context.Context, userID string, points int, reason string) (*ProgressUpdate, error) {
	if points <= 0 {
		return nil, fmt.Errorf("pointsEarned must be positive: %w", ErrInvalidInput)
	}
	user, err := s.store.UpdateUserProgress(ctx, userID, points)
	if err != nil {
		return nil, err
	}
	s.log.Info("points awarded", "userId", userID, "points", points, "reason", reason, "total", user.TotalPoints)
	return s.afterPoints(ctx, user, points, reason)
}

// RecordGameResult validates and stores a swipe outcome, crediting its points atomically.
func (s *ProgressService) RecordGameResult(ctx context.Context, result *models.GameResult) (*ProgressUpdate, error) {
	if err := validateGameResult(result); err != nil {
		return nil, err
	}
	if _, err := s.store.GetUser(ctx, result.UserID); err != nil {
		return nil, err
	}
	if result.MediaAnalysisID != nil {
		if _, err := s.store.GetMediaAnalysis(ctx, *result.MediaAnalysisID); err != nil {
			return nil, fmt.Errorf("media analysis %s: %w", *result.MediaAnalysisID, ErrInvalidInput)
		}
	}

	user, err := s.store.SaveGameResult(ctx, result)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.TypeGameResult, result.UserID, result)

	if user == nil {
		unlocked, err := s.EvaluateAchievements(ctx, result.UserID)
		if err != nil {
			return nil, err
		}
		return &ProgressUpdate{Unlocked: unlocked}, nil
	}
	return s.afterPoints(ctx, user, result.PointsEarned, "game")
}

func validateGameResult(r *models.GameResult) error {
	switch {
	case r.UserID == "":
		return fmt.Errorf("userId is required: %w", ErrInvalidInput)
	case !models.ValidChoice(r.UserChoice):
		return fmt.Errorf("userChoice must be credible or not_credible: %w", ErrInvalidInput)
	case !models.ValidChoice(r.CorrectAnswer):
		return fmt.Errorf("correctAnswer must be credible or not_credible: %w", ErrInvalidInput)
	case r.IsCorrect != (r.UserChoice == r.CorrectAnswer):
		return fmt.Errorf("isCorrect does not match userChoice and correctAnswer: %w", ErrInvalidInput)
	case r.PointsEarned < 0:
		return fmt.Errorf("pointsEarned must not be negative: %w", ErrInvalidInput)
	}
	return nil
}

// RecordAnalysis re-checks analysis-count achievements after userID saved an analysis.
func (s *ProgressService) RecordAnalysis(ctx context.Context, userID string) ([]models.UserAchievement, error) {
	return s.EvaluateAchievements(ctx, userID)
}

func (s *ProgressService) afterPoints(ctx context.Context, user *models.User, points int, reason string) (*ProgressUpdate, error) {
	prev := models.LevelForPoints(user.TotalPoints - points)
	update := &ProgressUpdate{
		User:         user,
		PointsEarned: points,
		PrevLevel:    prev,
		LeveledUp:    user.CurrentLevel > prev,
	}

	s.publish(ctx, events.TypeProgress, user.ID, map[string]interface{}{
		"pointsEarned": points,
		"totalPoints":  user.TotalPoints,
		"currentLevel": user.CurrentLevel,
		"reason":       reason,
	})

	if update.LeveledUp {
		a := &models.UserAchievement{
			UserID:          user.ID,
			AchievementType: models.AchievementLevelUp,
			Title:           fmt.Sprintf("Level %d", user.CurrentLevel),
			Description:     fmt.Sprintf("Reached level %d", user.CurrentLevel),
		}
		has, err := s.store.HasAchievement(ctx, a.UserID, a.AchievementType, a.Title)
		if err != nil {
			return nil, err
		}
		if !has {
			if err := s.store.SaveUserAchievement(ctx, a); err != nil {
				return nil, err
			}
			update.Unlocked = append(update.Unlocked, *a)
		}
		s.publish(ctx, events.TypeLevelUp, user.ID, map[string]interface{}{
			"previousLevel": prev,
			"currentLevel":  user.CurrentLevel,
		})
	}

	unlocked, err := s.evaluate(ctx, user)
	if err != nil {
		return nil, err
	}
	update.Unlocked = append(update.Unlocked, unlocked...)
	return update, nil
}

// EvaluateAchievements unlocks every catalogue achievement userID now qualifies for.
func (s *ProgressService) EvaluateAchievements(ctx context.Context, userID string) ([]models.UserAchievement, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.evaluate(ctx, user)
}

func (s *ProgressService) evaluate(ctx context.Context, user *models.User) ([]models.UserAchievement, error) {
	m := metricReader{store: s.store, user: user}
	var unlocked []models.UserAchievement

	for _, rule := range s.catalog.Achievements {
		value, err := m.read(ctx, rule.Metric)
		if err != nil {
			return nil, err
		}
		if value < rule.Threshold {
			continue
		}
		has, err := s.store.HasAchievement(ctx, user.ID, rule.Type, rule.Title)
		if err != nil {
			return nil, err
		}
		if has {
			continue
		}
		a := models.UserAchievement{
			UserID:          user.ID,
			AchievementType: rule.Type,
			Title:           rule.Title,
			Description:     rule.Description,
		}
		if err := s.store.SaveUserAchievement(ctx, &a); err != nil {
			return nil, err
		}
		s.log.Info("achievement unlocked", "userId", user.ID, "title", a.Title)
		s.publish(ctx, events.TypeAchievement, user.ID, a)
		unlocked = append(unlocked, a)
	}
	return unlocked, nil
}

// metricReader loads each metric at most once per evaluation.
type metricReader struct {
	store    Storage
	user     *models.User
	stats    *models.GameStats
	analyses *int64
}

func (m *metricReader) read(ctx context.Context, metric string) (int, error) {
	switch metric {
	case MetricPoints:
		return m.user.TotalPoints, nil
	case MetricCorrectAnswers, MetricCorrectStreak:
		if m.stats == nil {
			stats, err := m.store.GetUserGameStats(ctx, m.user.ID)
			if err != nil {
				return 0, err
			}
			m.stats = stats
		}
		if metric == MetricCorrectAnswers {
			return m.stats.CorrectAnswers, nil
		}
		return m.stats.BestStreak, nil
	case MetricAnalyses:
		if m.analyses == nil {
			n, err := m.store.CountUserMediaAnalyses(ctx, m.user.ID)
			if err != nil {
				return 0, err
			}
			m.analyses = &n
		}
		return int(*m.analyses), nil
	}
	return 0, fmt.Errorf("unknown achievement metric %q", metric)
}

// CatalogEntry is an achievement rule annotated with whether the user holds it.
type CatalogEntry struct {
	AchievementRule
	Earned bool `json:"earned"`
}

// Tree returns the user's knowledge tree plus the catalogue with earned flags.
func (s *ProgressService) Tree(ctx context.Context, userID string) (*KnowledgeTree, []CatalogEntry, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	tree := TreeFor(user.TotalPoints)

	entries := make([]CatalogEntry, 0, len(s.catalog.Achievements))
	for _, rule := range s.catalog.Achievements {
		has, err := s.store.HasAchievement(ctx, userID, rule.Type, rule.Title)
		if err != nil {
			return nil, nil, err
		}
		entries = append(entries, CatalogEntry{AchievementRule: rule, Earned: has})
	}
	return &tree, entries, nil
}

func (s *ProgressService) publish(ctx context.Context, typ, userID string, payload interface{}) {
	if s.pub == nil {
		return
	}
	if err := s.pub.Publish(ctx, events.Event{Type: typ, UserID: userID, Payload: payload}); err != nil {
		s.log.Warn("publish event failed", "type", typ, "userId", userID, "error", err)
	}
}
