// services/catalog.go - embedded achievement rules and offline game cards
package services

import (
	_ "embed"
	"errors"
	"fmt"

	"mediahub/models"

	"gopkg.in/yaml.v3"
)

//go:embed assets/catalog.yaml
var embeddedCatalog []byte

// Metrics an achievement rule can be measured against.
const (
	MetricPoints         = "points"
	MetricCorrectAnswers = "correct_answers"
	MetricCorrectStreak  = "correct_streak"
	MetricAnalyses       = "analyses"
)

type AchievementRule struct {
	Type        string `yaml:"type" json:"type"`
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
	Icon        string `yaml:"icon" json:"icon"`
	Metric      string `yaml:"metric" json:"metric"`
	Threshold   int    `yaml:"threshold" json:"threshold"`
}

type Catalog struct {
	Achievements []AchievementRule `yaml:"achievements"`
	GameCards    []GameContent     `yaml:"gameCards"`
}

// LoadCatalog parses the catalog compiled into the binary.
func LoadCatalog() (*Catalog, error) {
	return ParseCatalog(embeddedCatalog)
}

func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	var errs []error
	for i, r := range c.Achievements {
		switch r.Metric {
		case MetricPoints, MetricCorrectAnswers, MetricCorrectStreak, MetricAnalyses:
		default:
			errs = append(errs, fmt.Errorf("achievement %d (%s): unknown metric %q", i, r.Title, r.Metric))
		}
		if r.Type == "" || r.Title == "" {
			errs = append(errs, fmt.Errorf("achievement %d: type and title are required", i))
		}
		if r.Threshold <= 0 {
			errs = append(errs, fmt.Errorf("achievement %d (%s): threshold must be positive", i, r.Title))
		}
	}
	if len(c.GameCards) == 0 {
		errs = append(errs, errors.New("catalog needs at least one game card"))
	}
	for i := range c.GameCards {
		card := &c.GameCards[i]
		if !models.ValidChoice(card.CorrectAnswer) {
			errs = append(errs, fmt.Errorf("game card %d (%s): bad correctAnswer %q", i, card.Title, card.CorrectAnswer))
		}
		if mt, ok := models.NormalizeMediaType(card.MediaType); ok {
			card.MediaType = mt
		} else {
			errs = append(errs, fmt.Errorf("game card %d (%s): bad mediaType %q", i, card.Title, card.MediaType))
		}
		card.Provider = ProviderFallback
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return &c, nil
}
