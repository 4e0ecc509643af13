// models/game_result.go - outcome of one swipe in the credibility game
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ChoiceCredible    = "credible"
	ChoiceNotCredible = "not_credible"
)

// ValidChoice reports whether s is one of the two swipe answers.
func ValidChoice(s string) bool {
	return s == ChoiceCredible || s == ChoiceNotCredible
}

type GameResult struct {
	ID              string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	UserID          string    `gorm:"not null;index;type:varchar(64)" json:"userId"`
	MediaAnalysisID *string   `gorm:"index;type:varchar(64)" json:"mediaAnalysisId"`
	UserChoice      string    `gorm:"not null;size:32" json:"userChoice"`
	CorrectAnswer   string    `gorm:"not null;size:32" json:"correctAnswer"`
	IsCorrect       bool      `gorm:"not null" json:"isCorrect"`
	PointsEarned    int       `gorm:"default:0" json:"pointsEarned"`
	CompletedAt     time.Time `gorm:"index" json:"completedAt"`

	User          *User          `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	MediaAnalysis *MediaAnalysis `gorm:"foreignKey:MediaAnalysisID;constraint:OnDelete:SET NULL" json:"-"`
}

func (GameResult) TableName() string {
	return "game_results"
}

func (r *GameResult) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CompletedAt.IsZero() {
		r.CompletedAt = tx.NowFunc()
	}
	return nil
}

// GameStats aggregates a user's game history.
type GameStats struct {
	TotalGames     int     `json:"totalGames"`
	CorrectAnswers int     `json:"correctAnswers"`
	Accuracy       float64 `json:"accuracy"`
	TotalPoints    int     `json:"totalPoints"`
	CurrentStreak  int     `json:"currentStreak"`
	BestStreak     int     `json:"bestStreak"`
}
