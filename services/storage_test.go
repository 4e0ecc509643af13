package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"mediahub/database/dbtest"
	"mediahub/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *DatabaseStorage {
	t.Helper()
	return NewDatabaseStorage(dbtest.New(t))
}

func strPtr(s string) *string { return &s }

func seedUser(t *testing.T, s Storage, id string, points int) *models.User {
	t.Helper()
	u := &models.User{ID: id, Email: strPtr(id + "@example.com"), TotalPoints: points}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func seedAnalysis(t *testing.T, s Storage, userID *string, title string, at time.Time) *models.MediaAnalysis {
	t.Helper()
	a := &models.MediaAnalysis{
		UserID:       userID,
		Title:        title,
		Content:      "content of " + title,
		MediaType:    models.MediaArticle,
		BiasScore:    20,
		BiasAnalysis: "neutral",
		AnalysisDate: at,
	}
	require.NoError(t, s.SaveMediaAnalysis(context.Background(), a))
	return a
}

func TestStorage_Users(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	u := seedUser(t, s, "u1", 750)
	assert.Equal(t, 2, u.CurrentLevel)

	got, err := s.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 750, got.TotalPoints)

	byEmail, err := s.GetUserByEmail(ctx, "U1@Example.com ")
	require.NoError(t, err)
	assert.Equal(t, "u1", byEmail.ID)

	_, err = s.GetUser(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	err = s.CreateUser(ctx, &models.User{Email: strPtr("u1@example.com")})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestStorage_UpsertUser(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	u, err := s.UpsertUser(ctx, &models.User{ID: "demo", FirstName: strPtr("Demo"), TotalPoints: 750})
	require.NoError(t, err)
	assert.Equal(t, 2, u.CurrentLevel)

	u, err = s.UpsertUser(ctx, &models.User{ID: "demo", FirstName: strPtr("Renamed"), TotalPoints: 1200})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", *u.FirstName)
	assert.Equal(t, 1200, u.TotalPoints)
	assert.Equal(t, 3, u.CurrentLevel)
}

func TestStorage_UpdateUserProgress(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	seedUser(t, s, "u1", 450)

	u, err := s.UpdateUserProgress(ctx, "u1", 100)
	require.NoError(t, err)
	assert.Equal(t, 550, u.TotalPoints)
	assert.Equal(t, 2, u.CurrentLevel)

	_, err = s.UpdateUserProgress(ctx, "ghost", 100)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStorage_UpdateUserProgressConcurrent(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	seedUser(t, s, "u1", 0)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.UpdateUserProgress(ctx, "u1", 100)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	u, err := s.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1000, u.TotalPoints)
	assert.Equal(t, models.LevelForPoints(1000), u.CurrentLevel)
}

func TestStorage_CreateUserConcurrentDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	const attempts = 8
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.CreateUser(ctx, &models.User{Email: strPtr("Race@Example.com")})
		}(i)
	}
	wg.Wait()

	created := 0
	for _, err := range errs {
		if err == nil {
			created++
			continue
		}
		assert.ErrorIs(t, err, ErrConflict)
	}
	assert.Equal(t, 1, created)

	u, err := s.GetUserByEmail(ctx, "race@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
}

func TestStorage_UpsertUserEmailTakenByAnotherID(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	seedUser(t, s, "u1", 0)

	_, err := s.UpsertUser(ctx, &models.User{ID: "u2", Email: strPtr("u1@example.com")})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestStorage_MediaAnalyses(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	seedUser(t, s, "u1", 0)

	base := time.Now().UTC().Add(-time.Hour)
	older := seedAnalysis(t, s, strPtr("u1"), "older", base)
	newer := seedAnalysis(t, s, strPtr("u1"), "newer", base.Add(time.Minute))
	seedAnalysis(t, s, nil, "anonymous", base)

	list, err := s.GetUserMediaAnalyses(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)
	assert.JSONEq(t, "[]", string(list[0].FactCheckResults))

	saved, err := s.GetSavedMediaAnalyses(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, saved)

	require.NoError(t, s.UpdateMediaAnalysisSaveStatus(ctx, older.ID, true))
	saved, err = s.GetSavedMediaAnalyses(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, older.ID, saved[0].ID)

	assert.ErrorIs(t, s.UpdateMediaAnalysisSaveStatus(ctx, "missing", true), ErrNotFound)

	tagged, err := s.UpdateMediaAnalysisTags(ctx, newer.ID, []string{"health", "science"})
	require.NoError(t, err)
	assert.Equal(t, []string{"health", "science"}, []string(tagged.Tags))

	n, err := s.CountUserMediaAnalyses(ctx, "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestStorage_DeleteStaleAnalyses(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	seedUser(t, s, "u1", 0)

	old := time.Now().UTC().AddDate(0, 0, -40)
	stale := seedAnalysis(t, s, nil, "stale", old)
	savedAnon := seedAnalysis(t, s, nil, "saved", old)
	require.NoError(t, s.UpdateMediaAnalysisSaveStatus(ctx, savedAnon.ID, true))
	owned := seedAnalysis(t, s, strPtr("u1"), "owned", old)
	fresh := seedAnalysis(t, s, nil, "fresh", time.Now().UTC())

	n, err := s.DeleteStaleAnalyses(ctx, time.Now().UTC().AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = s.GetMediaAnalysis(ctx, stale.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	for _, id := range []string{savedAnon.ID, owned.ID, fresh.ID} {
		_, err := s.GetMediaAnalysis(ctx, id)
		assert.NoError(t, err)
	}
}

func TestStorage_GameResultsAndStats(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	seedUser(t, s, "u1", 0)

	stats, err := s.GetUserGameStats(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.GameStats{}, *stats)

	base := time.Now().UTC().Add(-time.Hour)
	outcomes := []bool{true, true, true, false, true, true}
	for i, ok := range outcomes {
		r := &models.GameResult{
			UserID:        "u1",
			UserChoice:    models.ChoiceCredible,
			CorrectAnswer: models.ChoiceCredible,
			IsCorrect:     ok,
			CompletedAt:   base.Add(time.Duration(i) * time.Minute),
		}
		if !ok {
			r.CorrectAnswer = models.ChoiceNotCredible
		} else {
			r.PointsEarned = 100
		}
		user, err := s.SaveGameResult(ctx, r)
		require.NoError(t, err)
		if ok {
			require.NotNil(t, user)
		} else {
			assert.Nil(t, user)
		}
	}

	stats, err = s.GetUserGameStats(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 6, stats.TotalGames)
	assert.Equal(t, 5, stats.CorrectAnswers)
	assert.InDelta(t, 83.33, stats.Accuracy, 0.01)
	assert.Equal(t, 500, stats.TotalPoints)
	assert.Equal(t, 2, stats.CurrentStreak)
	assert.Equal(t, 3, stats.BestStreak)

	u, err := s.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 500, u.TotalPoints)
	assert.Equal(t, 2, u.CurrentLevel)

	results, err := s.GetUserGameResults(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, results, 6)
	assert.True(t, results[0].CompletedAt.After(results[5].CompletedAt))

	results, err = s.GetUserGameResults(ctx, "u1", 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestStorage_SaveGameResultUnknownUserRollsBack(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	_, err := s.SaveGameResult(ctx, &models.GameResult{
		UserID:        "ghost",
		UserChoice:    models.ChoiceCredible,
		CorrectAnswer: models.ChoiceCredible,
		IsCorrect:     true,
		PointsEarned:  100,
	})
	require.Error(t, err)

	results, err := s.GetUserGameResults(ctx, "ghost", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestStorage_Achievements(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	seedUser(t, s, "u1", 0)

	first := &models.UserAchievement{UserID: "u1", AchievementType: "milestone", Title: "First", Description: "d",
		UnlockedAt: time.Now().UTC().Add(-time.Minute)}
	second := &models.UserAchievement{UserID: "u1", AchievementType: "milestone", Title: "Second", Description: "d"}
	require.NoError(t, s.SaveUserAchievement(ctx, first))
	require.NoError(t, s.SaveUserAchievement(ctx, second))

	list, err := s.GetUserAchievements(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Second", list[0].Title)

	has, err := s.HasAchievement(ctx, "u1", "milestone", "First")
	require.NoError(t, err)
	assert.True(t, has)

	has, err = s.HasAchievement(ctx, "u1", "milestone", "Third")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestStreaks(t *testing.T) {
	cur, best := streaks(nil)
	assert.Zero(t, cur)
	assert.Zero(t, best)

	cur, best = streaks([]bool{true, false, true, true, true, false})
	assert.Equal(t, 0, cur)
	assert.Equal(t, 3, best)
}
