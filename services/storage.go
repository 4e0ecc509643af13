// services/storage.go - GORM-backed persistence for users, analyses, games and achievements
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"mediahub/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DefaultGameResultsLimit = 50
	MaxGameResultsLimit     = 200
)

type Storage interface {
	// User operations
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	UpsertUser(ctx context.Context, user *models.User) (*models.User, error)
	UpdateUserProgress(ctx context.Context, userID string, pointsEarned int) (*models.User, error)

	// Media analysis operations
	SaveMediaAnalysis(ctx context.Context, analysis *models.MediaAnalysis) error
	GetMediaAnalysis(ctx context.Context, id string) (*models.MediaAnalysis, error)
	GetUserMediaAnalyses(ctx context.Context, userID string) ([]models.MediaAnalysis, error)
	GetSavedMediaAnalyses(ctx context.Context, userID string) ([]models.MediaAnalysis, error)
	UpdateMediaAnalysisSaveStatus(ctx context.Context, id string, isSaved bool) error
	UpdateMediaAnalysisTags(ctx context.Context, id string, tags []string) (*models.MediaAnalysis, error)
	CountUserMediaAnalyses(ctx context.Context, userID string) (int64, error)
	DeleteStaleAnalyses(ctx context.Context, olderThan time.Time) (int64, error)

	// Game operations
	SaveGameResult(ctx context.Context, result *models.GameResult) (*models.User, error)
	GetUserGameResults(ctx context.Context, userID string, limit int) ([]models.GameResult, error)
	GetUserGameStats(ctx context.Context, userID string) (*models.GameStats, error)

	// Achievement operations
	SaveUserAchievement(ctx context.Context, achievement *models.UserAchievement) error
	GetUserAchievements(ctx context.Context, userID string) ([]models.UserAchievement, error)
	HasAchievement(ctx context.Context, userID, achievementType, title string) (bool, error)
}

type DatabaseStorage struct {
	db *gorm.DB
}

func NewDatabaseStorage(db *gorm.DB) *DatabaseStorage {
	return &DatabaseStorage{db: db}
}

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return err
}

// ================== USER OPERATIONS ==================

func (s *DatabaseStorage) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "user")
	}
	return &user, nil
}

func (s *DatabaseStorage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	email = strings.ToLower(strings.TrimSpace(email))
	if err := s.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		return nil, notFound(err, "user")
	}
	return &user, nil
}

// CreateUser relies on the unique email index, so concurrent registrations of
// one address resolve to a single row and ErrConflict for the rest.
func (s *DatabaseStorage) CreateUser(ctx context.Context, user *models.User) error {
	if user.Email != nil {
		normalized := strings.ToLower(strings.TrimSpace(*user.Email))
		user.Email = &normalized
	}
	user.CurrentLevel = models.LevelForPoints(user.TotalPoints)
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("email already registered: %w", ErrConflict)
		}
		return err
	}
	return nil
}

// UpsertUser inserts user or overwrites the mutable columns of an existing row with the same id.
func (s *DatabaseStorage) UpsertUser(ctx context.Context, user *models.User) (*models.User, error) {
	user.CurrentLevel = models.LevelForPoints(user.TotalPoints)
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"email", "first_name", "last_name", "profile_image_url",
			"total_points", "current_level", "updated_at",
		}),
	}).Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, fmt.Errorf("email already used by another account: %w", ErrConflict)
	}
	if err != nil {
		return nil, err
	}
	return s.GetUser(ctx, user.ID)
}

// UpdateUserProgress adds pointsEarned and recomputes the level in one statement,
// so concurrent awards cannot overwrite each other.
func (s *DatabaseStorage) UpdateUserProgress(ctx context.Context, userID string, pointsEarned int) (*models.User, error) {
	var user *models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		user, err = addPoints(tx, userID, pointsEarned)
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func addPoints(tx *gorm.DB, userID string, points int) (*models.User, error) {
	res := tx.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"total_points":  gorm.Expr("total_points + ?", points),
		"current_level": gorm.Expr("(total_points + ?) / ? + 1", points, models.PointsPerLevel),
		"updated_at":    tx.NowFunc(),
	})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}

	var user models.User
	if err := tx.First(&user, "id = ?", userID).Error; err != nil {
		return nil, notFound(err, "user")
	}
	return &user, nil
}

// ================== MEDIA ANALYSIS OPERATIONS ==================

func (s *DatabaseStorage) SaveMediaAnalysis(ctx context.Context, analysis *models.MediaAnalysis) error {
	return s.db.WithContext(ctx).Create(analysis).Error
}

func (s *DatabaseStorage) GetMediaAnalysis(ctx context.Context, id string) (*models.MediaAnalysis, error) {
	var analysis models.MediaAnalysis
	if err := s.db.WithContext(ctx).First(&analysis, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "analysis")
	}
	return &analysis, nil
}

func (s *DatabaseStorage) GetUserMediaAnalyses(ctx context.Context, userID string) ([]models.MediaAnalysis, error) {
	analyses := []models.MediaAnalysis{}
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("analysis_date DESC").
		Find(&analyses).Error
	return analyses, err
}

func (s *DatabaseStorage) GetSavedMediaAnalyses(ctx context.Context, userID string) ([]models.MediaAnalysis, error) {
	analyses := []models.MediaAnalysis{}
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND is_saved = ?", userID, true).
		Order("analysis_date DESC").
		Find(&analyses).Error
	return analyses, err
}

func (s *DatabaseStorage) UpdateMediaAnalysisSaveStatus(ctx context.Context, id string, isSaved bool) error {
	if _, err := s.GetMediaAnalysis(ctx, id); err != nil {
		return err
	}
	return s.db.WithContext(ctx).
		Model(&models.MediaAnalysis{}).
		Where("id = ?", id).
		Update("is_saved", isSaved).Error
}

func (s *DatabaseStorage) UpdateMediaAnalysisTags(ctx context.Context, id string, tags []string) (*models.MediaAnalysis, error) {
	if _, err := s.GetMediaAnalysis(ctx, id); err != nil {
		return nil, err
	}
	err := s.db.WithContext(ctx).
		Model(&models.MediaAnalysis{}).
		Where("id = ?", id).
		Update("tags", datatypes.JSONSlice[string](tags)).Error
	if err != nil {
		return nil, err
	}
	return s.GetMediaAnalysis(ctx, id)
}

func (s *DatabaseStorage) CountUserMediaAnalyses(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.MediaAnalysis{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// DeleteStaleAnalyses removes anonymous, unsaved analyses created before olderThan.
func (s *DatabaseStorage) DeleteStaleAnalyses(ctx context.Context, olderThan time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("user_id IS NULL AND is_saved = ? AND analysis_date < ?", false, olderThan).
		Delete(&models.MediaAnalysis{})
	return res.RowsAffected, res.Error
}

// ================== GAME OPERATIONS ==================

// SaveGameResult stores result and, when it earned points, credits them in the same
// transaction. The returned user is nil when no points were awarded.
func (s *DatabaseStorage) SaveGameResult(ctx context.Context, result *models.GameResult) (*models.User, error) {
	var user *models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(result).Error; err != nil {
			return err
		}
		if result.PointsEarned <= 0 {
			return nil
		}
		var err error
		user, err = addPoints(tx, result.UserID, result.PointsEarned)
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *DatabaseStorage) GetUserGameResults(ctx context.Context, userID string, limit int) ([]models.GameResult, error) {
	if limit <= 0 {
		limit = DefaultGameResultsLimit
	}
	if limit > MaxGameResultsLimit {
		limit = MaxGameResultsLimit
	}
	results := []models.GameResult{}
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("completed_at DESC").
		Limit(limit).
		Find(&results).Error
	return results, err
}

// GetUserGameStats aggregates the user's whole game history.
func (s *DatabaseStorage) GetUserGameStats(ctx context.Context, userID string) (*models.GameStats, error) {
	db := s.db.WithContext(ctx)

	var agg struct {
		Total   int64
		Correct int64
		Points  int64
	}
	err := db.Model(&models.GameResult{}).
		Select("COUNT(*) AS total, "+
			"COALESCE(SUM(CASE WHEN is_correct THEN 1 ELSE 0 END), 0) AS correct, "+
			"COALESCE(SUM(points_earned), 0) AS points").
		Where("user_id = ?", userID).
		Scan(&agg).Error
	if err != nil {
		return nil, err
	}

	var outcomes []bool
	err = db.Model(&models.GameResult{}).
		Where("user_id = ?", userID).
		Order("completed_at ASC").
		Pluck("is_correct", &outcomes).Error
	if err != nil {
		return nil, err
	}

	stats := &models.GameStats{
		TotalGames:     int(agg.Total),
		CorrectAnswers: int(agg.Correct),
		TotalPoints:    int(agg.Points),
	}
	if agg.Total > 0 {
		stats.Accuracy = float64(agg.Correct) / float64(agg.Total) * 100
	}
	stats.CurrentStreak, stats.BestStreak = streaks(outcomes)
	return stats, nil
}

// streaks returns the trailing and the longest run of correct outcomes, oldest first.
func streaks(outcomes []bool) (current, best int) {
	for _, ok := range outcomes {
		if ok {
			current++
			if current > best {
				best = current
			}
		} else {
			current = 0
		}
	}
	return current, best
}

// ================== ACHIEVEMENT OPERATIONS ==================

func (s *DatabaseStorage) SaveUserAchievement(ctx context.Context, achievement *models.UserAchievement) error {
	return s.db.WithContext(ctx).Create(achievement).Error
}

func (s *DatabaseStorage) GetUserAchievements(ctx context.Context, userID string) ([]models.UserAchievement, error) {
	achievements := []models.UserAchievement{}
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("unlocked_at DESC").
		Find(&achievements).Error
	return achievements, err
}

func (s *DatabaseStorage) HasAchievement(ctx context.Context, userID, achievementType, title string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.UserAchievement{}).
		Where("user_id = ? AND achievement_type = ? AND title = ?", userID, achievementType, title).
		Count(&count).Error
	return count > 0, err
}
