// models/media_analysis.go - persisted result of scoring one piece of media
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Media types accepted by the analyzer.
const (
	MediaArticle = "article"
	MediaImage   = "image"
	MediaVideo   = "video"
	MediaSocial  = "social"
)

// NormalizeMediaType lowercases t and reports whether it is a known media type.
func NormalizeMediaType(t string) (string, bool) {
	t = strings.ToLower(strings.TrimSpace(t))
	switch t {
	case MediaArticle, MediaImage, MediaVideo, MediaSocial:
		return t, true
	}
	return t, false
}

// GenerationalRewrite restates content at four reading levels.
type GenerationalRewrite struct {
	Elementary   string `json:"elementary"`
	MiddleSchool string `json:"middleSchool"`
	HighSchool   string `json:"highSchool"`
	Adult        string `json:"adult"`
}

// SameRewrite returns a rewrite that repeats content at every level.
func SameRewrite(content string) GenerationalRewrite {
	return GenerationalRewrite{
		Elementary:   content,
		MiddleSchool: content,
		HighSchool:   content,
		Adult:        content,
	}
}

type MediaAnalysis struct {
	ID        string  `gorm:"primaryKey;type:varchar(64)" json:"id"`
	UserID    *string `gorm:"index;type:varchar(64)" json:"userId"`
	Title     string  `gorm:"not null;type:text" json:"title"`
	Content   string  `gorm:"not null;type:text" json:"content"`
	SourceURL *string `gorm:"type:text" json:"sourceUrl"`
	MediaType string  `gorm:"not null;size:32" json:"mediaType"`

	// Scores, each in [0,100]
	BiasScore        float64 `gorm:"not null" json:"biasScore"`
	CredibilityScore float64 `gorm:"not null" json:"credibilityScore"`
	FactualityScore  float64 `gorm:"not null" json:"factualityScore"`
	OverallScore     float64 `gorm:"not null" json:"overallScore"`

	// Detail blobs are kept loosely typed; providers vary in what they return.
	BiasAnalysis        string                                  `gorm:"not null;type:text" json:"biasAnalysis"`
	FactCheckResults    datatypes.JSON                          `json:"factCheckResults"`
	SourcesVerification datatypes.JSON                          `json:"sourcesVerification"`
	GenerationalRewrite datatypes.JSONType[GenerationalRewrite] `json:"generationalRewrite"`
	Provider            string                                  `gorm:"size:32" json:"provider"`

	AnalysisDate time.Time                   `gorm:"index" json:"analysisDate"`
	IsSaved      bool                        `gorm:"default:false;index" json:"isSaved"`
	Tags         datatypes.JSONSlice[string] `json:"tags"`

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL" json:"-"`
}

func (MediaAnalysis) TableName() string {
	return "media_analyses"
}

func (m *MediaAnalysis) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.AnalysisDate.IsZero() {
		m.AnalysisDate = tx.NowFunc()
	}
	if len(m.FactCheckResults) == 0 {
		m.FactCheckResults = datatypes.JSON("[]")
	}
	if len(m.SourcesVerification) == 0 {
		m.SourcesVerification = datatypes.JSON("[]")
	}
	return nil
}
