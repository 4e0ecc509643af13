package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"mediahub/models"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	reply string
	err   error

	lastSystem string
	lastUser   string
	lastTemp   float32
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) CompleteJSON(_ context.Context, system, user string, temp float32) (string, error) {
	p.lastSystem, p.lastUser, p.lastTemp = system, user, temp
	return p.reply, p.err
}

func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := LoadCatalog()
	require.NoError(t, err)
	return c
}

func TestAnalyzeMedia_Validation(t *testing.T) {
	svc := NewAnalysisService(nil, NewFallbackScorer(1), nil, 0, nil)

	_, err := svc.AnalyzeMedia(context.Background(), AnalysisInput{Title: "", Content: "x", MediaType: "article"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.AnalyzeMedia(context.Background(), AnalysisInput{Title: "t", Content: "x", MediaType: "podcast"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAnalyzeMedia_NormalizesProviderOutput(t *testing.T) {
	p := &stubProvider{reply: `{
		"biasScore": 140,
		"credibilityScore": "72",
		"factualityScore": 0,
		"factCheckResults": [{"claim": "c", "verdict": "true"}],
		"sourcesVerification": "none",
		"generationalRewrite": {"elementary": "simple words"}
	}`}
	svc := NewAnalysisService(p, NewFallbackScorer(1), nil, 0, nil)

	res, err := svc.AnalyzeMedia(context.Background(), AnalysisInput{
		Title: "Title", Content: "Body text", MediaType: "Article", SourceURL: "https://example.com/a",
	})
	require.NoError(t, err)

	assert.Equal(t, "stub", res.Provider)
	assert.Equal(t, 100.0, res.BiasScore)
	assert.Equal(t, 72.0, res.CredibilityScore)
	assert.Equal(t, 0.0, res.FactualityScore)
	assert.Equal(t, 50.0, res.OverallScore)
	assert.Equal(t, unavailableAnalysis, res.BiasAnalysis)
	assert.JSONEq(t, `[{"claim":"c","verdict":"true"}]`, string(res.FactCheckResults))
	assert.JSONEq(t, "[]", string(res.SourcesVerification))

	want := models.GenerationalRewrite{
		Elementary:   "simple words",
		MiddleSchool: "Body text",
		HighSchool:   "Body text",
		Adult:        "Body text",
	}
	if diff := cmp.Diff(want, res.GenerationalRewrite); diff != "" {
		t.Errorf("rewrite mismatch (-want +got):\n%s", diff)
	}

	assert.Contains(t, p.lastUser, "Analyze this article content")
	assert.Contains(t, p.lastUser, "Source URL: https://example.com/a")
	assert.InDelta(t, 0.3, p.lastTemp, 1e-6)
}

func TestAnalyzeMedia_FallsBackOnProviderFailure(t *testing.T) {
	for name, p := range map[string]*stubProvider{
		"error":    {err: errors.New("quota exceeded")},
		"bad json": {reply: "not json"},
	} {
		t.Run(name, func(t *testing.T) {
			svc := NewAnalysisService(p, NewFallbackScorer(1), nil, 0, nil)
			res, err := svc.AnalyzeMedia(context.Background(), AnalysisInput{Title: "t", Content: "shocking news", MediaType: "social"})
			require.NoError(t, err)
			assert.Equal(t, ProviderFallback, res.Provider)
			assert.Equal(t, emotionalBiasText, res.BiasAnalysis)
		})
	}
}

func TestAnalyzeMedia_TruncatesPromptContent(t *testing.T) {
	p := &stubProvider{reply: `{}`}
	svc := NewAnalysisService(p, NewFallbackScorer(1), nil, 5, nil)

	res, err := svc.AnalyzeMedia(context.Background(), AnalysisInput{Title: "t", Content: "abcdefghij", MediaType: "video"})
	require.NoError(t, err)
	assert.Contains(t, p.lastUser, "Content: abcde\n")
	assert.Equal(t, "abcdefghij", res.GenerationalRewrite.Adult)
}

func TestGenerateGameContent(t *testing.T) {
	t.Run("provider card", func(t *testing.T) {
		p := &stubProvider{reply: "```json\n{\"title\":\"Headline\",\"content\":\"Body\",\"correctAnswer\":\"Not Credible\",\"explanation\":\"Why\"}\n```"}
		svc := NewAnalysisService(p, NewFallbackScorer(1), testCatalog(t), 0, nil)

		card, err := svc.GenerateGameContent(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "Headline", card.Title)
		assert.Equal(t, models.ChoiceNotCredible, card.CorrectAnswer)
		assert.Equal(t, models.MediaArticle, card.MediaType)
		assert.InDelta(t, 0.7, p.lastTemp, 1e-6)
	})

	t.Run("fallback pool", func(t *testing.T) {
		catalog := testCatalog(t)
		svc := NewAnalysisService(&stubProvider{err: errors.New("down")}, NewFallbackScorer(1), catalog, 0, nil)

		titles := map[string]bool{}
		for _, c := range catalog.GameCards {
			titles[c.Title] = true
		}
		for i := 0; i < 20; i++ {
			card, err := svc.GenerateGameContent(context.Background())
			require.NoError(t, err)
			assert.True(t, titles[card.Title], card.Title)
			assert.Equal(t, ProviderFallback, card.Provider)
			assert.True(t, models.ValidChoice(card.CorrectAnswer))
		}
	})

	t.Run("empty pool", func(t *testing.T) {
		svc := NewAnalysisService(nil, NewFallbackScorer(1), nil, 0, nil)
		_, err := svc.GenerateGameContent(context.Background())
		assert.Error(t, err)
	})
}

func TestClampScore(t *testing.T) {
	assert.Equal(t, 0.0, ClampScore(-5))
	assert.Equal(t, 100.0, ClampScore(101))
	assert.Equal(t, 42.5, ClampScore(42.5))
}

func TestOpenAIClient_CompleteJSON(t *testing.T) {
	var got openAIRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":"{\"biasScore\":12}"}}]}`)
	}))
	defer srv.Close()

	c := NewOpenAIClient(OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL + "/"})
	out, err := c.CompleteJSON(context.Background(), "sys", "user", 0.3)
	require.NoError(t, err)
	assert.JSONEq(t, `{"biasScore":12}`, out)

	assert.Equal(t, "gpt-4o", got.Model)
	assert.Equal(t, "json_object", got.ResponseFormat["type"])
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
}

func TestOpenAIClient_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error":{"message":"quota"}}`)
	}))
	defer srv.Close()

	c := NewOpenAIClient(OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL})
	_, err := c.CompleteJSON(context.Background(), "s", "u", 0.3)
	assert.ErrorContains(t, err, "status 429")

	_, err = NewOpenAIClient(OpenAIConfig{}).CompleteJSON(context.Background(), "s", "u", 0.3)
	assert.ErrorContains(t, err, "API key not configured")
}
