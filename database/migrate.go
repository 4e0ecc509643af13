// database/migrate.go - Database Migration Runner
package database

import (
	"fmt"

	"mediahub/logger"
	"mediahub/models"

	"gorm.io/gorm"
)

// RunMigrations creates or updates every table the service uses.
func RunMigrations(conn *gorm.DB) error {
	if conn == nil {
		return ErrNotInitialized
	}
	log := logger.L().With("component", "migrations")
	log.Info("Running database migrations")

	if err := conn.AutoMigrate(
		&models.User{},
		&models.MediaAnalysis{},
		&models.UserAchievement{},
		&models.GameResult{},
	); err != nil {
		return fmt.Errorf("failed to run core migrations: %w", err)
	}

	if err := createIndexes(conn); err != nil {
		return err
	}

	log.Info("All migrations completed successfully")
	return nil
}

// createIndexes adds the composite indexes behind the per-user listings.
func createIndexes(conn *gorm.DB) error {
	stmts := []string{
		"CREATE INDEX IF NOT EXISTS idx_media_analyses_user_date ON media_analyses(user_id, analysis_date DESC)",
		"CREATE INDEX IF NOT EXISTS idx_media_analyses_saved ON media_analyses(user_id, is_saved)",
		"CREATE INDEX IF NOT EXISTS idx_game_results_user_completed ON game_results(user_id, completed_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_user_achievements_user_unlocked ON user_achievements(user_id, unlocked_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_users_points ON users(total_points DESC)",
	}
	for _, stmt := range stmts {
		if err := conn.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}
