// models/level.go - points to level mapping shared by storage and the tree view
package models

// PointsPerLevel is the number of points separating two levels.
const PointsPerLevel = 500

// LevelForPoints maps accumulated points to a level: floor(points/500) + 1.
func LevelForPoints(points int) int {
	if points < 0 {
		points = 0
	}
	return points/PointsPerLevel + 1
}
