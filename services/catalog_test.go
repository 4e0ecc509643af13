package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCatalog(t *testing.T) {
	c, err := LoadCatalog()
	require.NoError(t, err)

	titles := make([]string, 0, len(c.Achievements))
	for _, a := range c.Achievements {
		titles = append(titles, a.Title)
	}
	assert.Equal(t, []string{"First Truth", "Hot Streak", "Seed Planted", "Scholar", "Expert", "Master"}, titles)

	require.Len(t, c.GameCards, 3)
	for _, card := range c.GameCards {
		assert.Equal(t, "article", card.MediaType)
		assert.Equal(t, ProviderFallback, card.Provider)
	}
	assert.Equal(t, "not_credible", c.GameCards[1].CorrectAnswer)
}

func TestParseCatalog_Rejects(t *testing.T) {
	_, err := ParseCatalog([]byte(`
achievements:
  - type: x
    title: Bad
    metric: karma
    threshold: 0
gameCards:
  - title: t
    content: c
    mediaType: podcast
    correctAnswer: maybe
`))
	require.Error(t, err)
	assert.ErrorContains(t, err, `unknown metric "karma"`)
	assert.ErrorContains(t, err, "threshold must be positive")
	assert.ErrorContains(t, err, `bad mediaType "podcast"`)
	assert.ErrorContains(t, err, `bad correctAnswer "maybe"`)

	_, err = ParseCatalog([]byte("achievements: []\n"))
	assert.ErrorContains(t, err, "at least one game card")

	_, err = ParseCatalog([]byte("achievements: [unterminated"))
	assert.Error(t, err)
}
