// models/user.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// The shared demo account the web client can use without registering.
const (
	DemoUserID     = "demo-user-123"
	DemoUserEmail  = "demo@example.com"
	DemoUserPoints = 750
)

type User struct {
	ID              string  `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Email           *string `gorm:"uniqueIndex" json:"email"`
	FirstName       *string `json:"firstName"`
	LastName        *string `json:"lastName"`
	ProfileImageURL *string `json:"profileImageUrl"`
	PasswordHash    string  `json:"-"`

	// Progression
	TotalPoints  int `gorm:"default:0;not null" json:"totalPoints"`
	CurrentLevel int `gorm:"default:1;not null" json:"currentLevel"`

	// Timestamps
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CurrentLevel == 0 {
		u.CurrentLevel = LevelForPoints(u.TotalPoints)
	}
	return nil
}
