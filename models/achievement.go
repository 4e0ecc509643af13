// models/achievement.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AchievementLevelUp is recorded by the progress service on each level gain.
// Clients may post other types; the column is free text.
const AchievementLevelUp = "level_up"

type UserAchievement struct {
	ID              string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	UserID          string    `gorm:"not null;index;type:varchar(64)" json:"userId"`
	AchievementType string    `gorm:"not null;size:64;index" json:"achievementType"`
	Title           string    `gorm:"not null" json:"title"`
	Description     string    `gorm:"not null;type:text" json:"description"`
	PointsEarned    int       `gorm:"default:0" json:"pointsEarned"`
	UnlockedAt      time.Time `gorm:"index" json:"unlockedAt"`

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (UserAchievement) TableName() string {
	return "user_achievements"
}

func (a *UserAchievement) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.UnlockedAt.IsZero() {
		a.UnlockedAt = tx.NowFunc()
	}
	return nil
}
