// services/tree.go - knowledge tree growth derived from total points
package services

import (
	"math"

	"mediahub/models"
)

const TreeMaxPoints = 2000

type TreeStage struct {
	Name       string `json:"name"`
	Emoji      string `json:"emoji"`
	MinPercent int    `json:"minPercent"`
}

// Ordered from most to least grown.
var treeStages = []TreeStage{
	{Name: "Mighty Oak", Emoji: "🌳", MinPercent: 90},
	{Name: "Growing Strong", Emoji: "🌲", MinPercent: 75},
	{Name: "Healthy Growth", Emoji: "🌿", MinPercent: 50},
	{Name: "Fresh Sprout", Emoji: "🌱", MinPercent: 25},
	{Name: "Planted Seed", Emoji: "🌰", MinPercent: 0},
}

type KnowledgeTree struct {
	TotalPoints          int       `json:"totalPoints"`
	MaxPoints            int       `json:"maxPoints"`
	ProgressPercent      float64   `json:"progressPercent"`
	Stage                TreeStage `json:"stage"`
	Level                int       `json:"level"`
	NextLevelPoints      int       `json:"nextLevelPoints"`
	LevelProgressPercent float64   `json:"levelProgressPercent"`
	PointsToNextLevel    int       `json:"pointsToNextLevel"`
}

func TreeFor(points int) KnowledgeTree {
	if points < 0 {
		points = 0
	}
	percent := math.Min(100, float64(points)/TreeMaxPoints*100)
	level := models.LevelForPoints(points)
	into := points % models.PointsPerLevel

	return KnowledgeTree{
		TotalPoints:          points,
		MaxPoints:            TreeMaxPoints,
		ProgressPercent:      percent,
		Stage:                stageFor(percent),
		Level:                level,
		NextLevelPoints:      level * models.PointsPerLevel,
		LevelProgressPercent: float64(into) / models.PointsPerLevel * 100,
		PointsToNextLevel:    models.PointsPerLevel - into,
	}
}

func stageFor(percent float64) TreeStage {
	for _, s := range treeStages {
		if percent >= float64(s.MinPercent) {
			return s
		}
	}
	return treeStages[len(treeStages)-1]
}
