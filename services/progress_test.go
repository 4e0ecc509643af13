package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"mediahub/events"
	"mediahub/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

func newProgress(t *testing.T) (*ProgressService, *DatabaseStorage, *recordingPublisher) {
	t.Helper()
	store := newStore(t)
	pub := &recordingPublisher{}
	return NewProgressService(store, testCatalog(t), pub, nil), store, pub
}

func titles(list []models.UserAchievement) []string {
	out := make([]string, 0, len(list))
	for _, a := range list {
		out = append(out, a.Title)
	}
	return out
}

func TestAwardPoints_LevelUpAndMilestones(t *testing.T) {
	ctx := context.Background()
	svc, store, pub := newProgress(t)
	seedUser(t, store, "u1", 950)

	update, err := svc.AwardPoints(ctx, "u1", 100, "manual")
	require.NoError(t, err)

	assert.Equal(t, 1050, update.User.TotalPoints)
	assert.Equal(t, 3, update.User.CurrentLevel)
	assert.Equal(t, 2, update.PrevLevel)
	assert.True(t, update.LeveledUp)
	assert.ElementsMatch(t, []string{"Level 3", "Scholar"}, titles(update.Unlocked))
	assert.Equal(t, []string{events.TypeProgress, events.TypeLevelUp, events.TypeAchievement}, pub.types())

	// points stay the sum of awards; achievements add nothing
	u, err := store.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1050, u.TotalPoints)

	update, err = svc.AwardPoints(ctx, "u1", 10, "manual")
	require.NoError(t, err)
	assert.False(t, update.LeveledUp)
	assert.Empty(t, update.Unlocked)
}

func TestAwardPoints_Invalid(t *testing.T) {
	svc, _, _ := newProgress(t)

	_, err := svc.AwardPoints(context.Background(), "u1", 0, "manual")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.AwardPoints(context.Background(), "ghost", 10, "manual")
	assert.ErrorIs(t, err, ErrNotFound)
}

func swipe(userID string, correct bool, at time.Time) *models.GameResult {
	r := &models.GameResult{
		UserID:        userID,
		UserChoice:    models.ChoiceCredible,
		CorrectAnswer: models.ChoiceCredible,
		IsCorrect:     true,
		PointsEarned:  PointsPerCorrectSwipe,
		CompletedAt:   at,
	}
	if !correct {
		r.CorrectAnswer = models.ChoiceNotCredible
		r.IsCorrect = false
		r.PointsEarned = 0
	}
	return r
}

func TestRecordGameResult_StreakAchievements(t *testing.T) {
	ctx := context.Background()
	svc, store, pub := newProgress(t)
	seedUser(t, store, "u1", 0)

	base := time.Now().UTC().Add(-time.Hour)
	var unlocked []string
	for i := 0; i < 5; i++ {
		update, err := svc.RecordGameResult(ctx, swipe("u1", true, base.Add(time.Duration(i)*time.Minute)))
		require.NoError(t, err)
		unlocked = append(unlocked, titles(update.Unlocked)...)
	}
	assert.ElementsMatch(t, []string{"First Truth", "Level 2", "Hot Streak"}, unlocked)

	update, err := svc.RecordGameResult(ctx, swipe("u1", false, base.Add(10*time.Minute)))
	require.NoError(t, err)
	assert.Nil(t, update.User)
	assert.Empty(t, update.Unlocked)

	u, err := store.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 500, u.TotalPoints)
	assert.Contains(t, pub.types(), events.TypeGameResult)
}

func TestRecordGameResult_Validation(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newProgress(t)
	seedUser(t, store, "u1", 0)
	now := time.Now().UTC()

	bad := map[string]*models.GameResult{
		"missing user":  {UserChoice: "credible", CorrectAnswer: "credible", IsCorrect: true},
		"bad choice":    {UserID: "u1", UserChoice: "maybe", CorrectAnswer: "credible"},
		"bad answer":    {UserID: "u1", UserChoice: "credible", CorrectAnswer: "fake"},
		"inconsistent":  {UserID: "u1", UserChoice: "credible", CorrectAnswer: "not_credible", IsCorrect: true},
		"negative":      {UserID: "u1", UserChoice: "credible", CorrectAnswer: "credible", IsCorrect: true, PointsEarned: -1},
		"unknown media": {UserID: "u1", UserChoice: "credible", CorrectAnswer: "credible", IsCorrect: true, MediaAnalysisID: strPtr("nope")},
	}
	for name, r := range bad {
		t.Run(name, func(t *testing.T) {
			r.CompletedAt = now
			_, err := svc.RecordGameResult(ctx, r)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}

	_, err := svc.RecordGameResult(ctx, swipe("ghost", true, now))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecordAnalysis_SeedPlanted(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newProgress(t)
	seedUser(t, store, "u1", 0)

	for i := 0; i < 9; i++ {
		seedAnalysis(t, store, strPtr("u1"), "a", time.Now().UTC())
	}
	unlocked, err := svc.RecordAnalysis(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, unlocked)

	seedAnalysis(t, store, strPtr("u1"), "tenth", time.Now().UTC())
	unlocked, err = svc.RecordAnalysis(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Seed Planted"}, titles(unlocked))

	unlocked, err = svc.RecordAnalysis(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, unlocked)
}

func TestTree(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newProgress(t)
	seedUser(t, store, "u1", 2100)

	_, err := svc.EvaluateAchievements(ctx, "u1")
	require.NoError(t, err)

	tree, entries, err := svc.Tree(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Mighty Oak", tree.Stage.Name)

	earned := map[string]bool{}
	for _, e := range entries {
		earned[e.Title] = e.Earned
	}
	assert.True(t, earned["Scholar"])
	assert.True(t, earned["Expert"])
	assert.False(t, earned["Master"])
	assert.False(t, earned["Hot Streak"])

	_, _, err = svc.Tree(ctx, "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}
