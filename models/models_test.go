package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelForPoints(t *testing.T) {
	cases := []struct {
		points int
		want   int
	}{
		{0, 1},
		{499, 1},
		{500, 2},
		{750, 2},
		{1000, 3},
		{4999, 10},
		{-20, 1},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, LevelForPoints(tc.points), "points=%d", tc.points)
	}
}

func TestNormalizeMediaType(t *testing.T) {
	got, ok := NormalizeMediaType("  Video ")
	assert.True(t, ok)
	assert.Equal(t, MediaVideo, got)

	_, ok = NormalizeMediaType("podcast")
	assert.False(t, ok)
}

func TestValidChoice(t *testing.T) {
	assert.True(t, ValidChoice(ChoiceCredible))
	assert.True(t, ValidChoice(ChoiceNotCredible))
	assert.False(t, ValidChoice("maybe"))
	assert.False(t, ValidChoice(""))
}
