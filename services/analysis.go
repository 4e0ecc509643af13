// services/analysis.go - media scoring through a language model with a heuristic fallback
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"mediahub/logger"
	"mediahub/models"
)

const (
	ProviderOpenAI   = "openai"
	ProviderGemini   = "gemini"
	ProviderFallback = "fallback"

	analysisTemperature = 0.3
	gameTemperature     = 0.7
	defaultScore        = 50.0
	unavailableAnalysis = "Analysis unavailable"
)

const analysisSystemPrompt = `You are an expert media literacy analyst specializing in bias detection, fact-checking, and credibility assessment. Your role is to help users develop critical thinking skills about media consumption.

Analyze the provided content and respond with a JSON object containing:
1. biasScore (0-100): Overall bias level (0=neutral, 100=extremely biased)
2. credibilityScore (0-100): Source and content credibility
3. factualityScore (0-100): Factual accuracy assessment
4. overallScore (0-100): Combined literacy score
5. biasAnalysis: Detailed explanation of detected biases
6. factCheckResults: Array of {claim, verdict (true|false|partly_true|unverified|misleading), confidence, explanation, sources}
7. sourcesVerification: Array of {sourceName, reliability, perspective, similarContent}
8. generationalRewrite: Object with elementary, middleSchool, highSchool and adult versions of the content

Focus on educational value and helping users understand media literacy concepts.`

const gameSystemPrompt = `Generate educational media literacy game content. Create realistic but fictional news headlines and brief content that users can evaluate for credibility.

Respond with JSON containing:
- title: Engaging headline
- content: 2-3 sentence article snippet
- mediaType: "article"
- correctAnswer: "credible" or "not_credible"
- explanation: Educational explanation of why this is credible/not credible

Mix credible and non-credible content roughly equally. Focus on teaching media literacy skills.`

// Provider is a language model that answers with a single JSON object.
type Provider interface {
	Name() string
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string, temperature float32) (string, error)
}

type AnalysisInput struct {
	Title     string
	Content   string
	MediaType string
	SourceURL string
}

type AnalysisResult struct {
	BiasScore           float64                    `json:"biasScore"`
	CredibilityScore    float64                    `json:"credibilityScore"`
	FactualityScore     float64                    `json:"factualityScore"`
	OverallScore        float64                    `json:"overallScore"`
	BiasAnalysis        string                     `json:"biasAnalysis"`
	FactCheckResults    json.RawMessage            `json:"factCheckResults"`
	SourcesVerification json.RawMessage            `json:"sourcesVerification"`
	GenerationalRewrite models.GenerationalRewrite `json:"generationalRewrite"`
	Provider            string                     `json:"provider"`
}

// GameContent is one card of the swipe game.
type GameContent struct {
	Title         string `yaml:"title" json:"title"`
	Content       string `yaml:"content" json:"content"`
	MediaType     string `yaml:"mediaType" json:"mediaType"`
	CorrectAnswer string `yaml:"correctAnswer" json:"correctAnswer"`
	Explanation   string `yaml:"explanation" json:"explanation"`
	Provider      string `yaml:"-" json:"provider"`
}

type AnalysisService struct {
	provider   Provider
	fallback   *FallbackScorer
	cards      []GameContent
	maxContent int
	log        *logger.Logger
}

// NewAnalysisService wires a provider (nil means heuristic-only) to the fallback scorer.
func NewAnalysisService(provider Provider, fallback *FallbackScorer, catalog *Catalog, maxContent int, log *logger.Logger) *AnalysisService {
	if log == nil {
		log = logger.Nop()
	}
	if fallback == nil {
		fallback = NewFallbackScorer(0)
	}
	var cards []GameContent
	if catalog != nil {
		cards = catalog.GameCards
	}
	if provider == nil {
		log.Warn("no language model configured, media analysis runs in fallback mode")
	}
	return &AnalysisService{
		provider:   provider,
		fallback:   fallback,
		cards:      cards,
		maxContent: maxContent,
		log:        log,
	}
}

// ProviderName reports which backend answers analysis requests.
func (s *AnalysisService) ProviderName() string {
	if s.provider == nil {
		return ProviderFallback
	}
	return s.provider.Name()
}

// AnalyzeMedia never fails for valid input: provider errors degrade to the heuristic scorer.
func (s *AnalysisService) AnalyzeMedia(ctx context.Context, in AnalysisInput) (*AnalysisResult, error) {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Content) == "" {
		return nil, fmt.Errorf("title and content are required: %w", ErrInvalidInput)
	}
	mediaType, ok := models.NormalizeMediaType(in.MediaType)
	if !ok {
		return nil, fmt.Errorf("unknown media type %q: %w", in.MediaType, ErrInvalidInput)
	}
	in.MediaType = mediaType

	if s.provider != nil {
		res, err := s.analyzeWithProvider(ctx, in)
		if err == nil {
			return res, nil
		}
		s.log.Warn("media analysis failed, using fallback",
			"provider", s.provider.Name(),
			"error", err,
		)
	}
	return s.fallback.Score(in.Content), nil
}

func (s *AnalysisService) analyzeWithProvider(ctx context.Context, in AnalysisInput) (*AnalysisResult, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze this %s content:\n\n", in.MediaType)
	fmt.Fprintf(&b, "Title: %s\n", in.Title)
	fmt.Fprintf(&b, "Content: %s\n", truncateRunes(in.Content, s.maxContent))
	if in.SourceURL != "" {
		fmt.Fprintf(&b, "Source URL: %s\n", in.SourceURL)
	}
	b.WriteString("\nProvide comprehensive media literacy analysis in JSON format.")

	raw, err := s.provider.CompleteJSON(ctx, analysisSystemPrompt, b.String(), analysisTemperature)
	if err != nil {
		return nil, err
	}
	res, err := parseAnalysis(raw, in.Content)
	if err != nil {
		return nil, err
	}
	res.Provider = s.provider.Name()
	return res, nil
}

// GenerateGameContent asks the provider for a fresh card, or picks one from the offline pool.
func (s *AnalysisService) GenerateGameContent(ctx context.Context) (*GameContent, error) {
	if s.provider != nil {
		raw, err := s.provider.CompleteJSON(ctx, gameSystemPrompt, "Generate a new media literacy game question.", gameTemperature)
		if err == nil {
			card, perr := parseGameContent(raw)
			if perr == nil {
				card.Provider = s.provider.Name()
				return card, nil
			}
			err = perr
		}
		s.log.Warn("game content generation failed, using fallback",
			"provider", s.provider.Name(),
			"error", err,
		)
	}
	if len(s.cards) == 0 {
		return nil, errors.New("no fallback game content available")
	}
	card := s.cards[s.fallback.Intn(len(s.cards))]
	card.MediaType = models.MediaArticle
	card.Provider = ProviderFallback
	return &card, nil
}

// flexNumber accepts 42, 42.5 and "42" from models that quote numbers.
type flexNumber struct {
	Value float64
	Set   bool
}

func (n *flexNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "%")
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		n.Value, n.Set = v, true
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n.Value, n.Set = v, true
	return nil
}

// score keeps an explicit 0 so a model can report zero bias; only an absent field gets the neutral 50.
func (n flexNumber) score() float64 {
	if !n.Set {
		return defaultScore
	}
	return ClampScore(n.Value)
}

type rawAnalysis struct {
	BiasScore           flexNumber      `json:"biasScore"`
	CredibilityScore    flexNumber      `json:"credibilityScore"`
	FactualityScore     flexNumber      `json:"factualityScore"`
	OverallScore        flexNumber      `json:"overallScore"`
	BiasAnalysis        json.RawMessage `json:"biasAnalysis"`
	FactCheckResults    json.RawMessage `json:"factCheckResults"`
	SourcesVerification json.RawMessage `json:"sourcesVerification"`
	GenerationalRewrite json.RawMessage `json:"generationalRewrite"`
}

func parseAnalysis(raw, content string) (*AnalysisResult, error) {
	var r rawAnalysis
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &r); err != nil {
		return nil, fmt.Errorf("decode analysis: %w", err)
	}
	return &AnalysisResult{
		BiasScore:           r.BiasScore.score(),
		CredibilityScore:    r.CredibilityScore.score(),
		FactualityScore:     r.FactualityScore.score(),
		OverallScore:        r.OverallScore.score(),
		BiasAnalysis:        textOr(r.BiasAnalysis, unavailableAnalysis),
		FactCheckResults:    arrayOrEmpty(r.FactCheckResults),
		SourcesVerification: arrayOrEmpty(r.SourcesVerification),
		GenerationalRewrite: rewriteOr(r.GenerationalRewrite, content),
	}, nil
}

func parseGameContent(raw string) (*GameContent, error) {
	var r struct {
		Title         string `json:"title"`
		Content       string `json:"content"`
		CorrectAnswer string `json:"correctAnswer"`
		Explanation   string `json:"explanation"`
	}
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &r); err != nil {
		return nil, fmt.Errorf("decode game content: %w", err)
	}
	card := &GameContent{
		Title:         strings.TrimSpace(r.Title),
		Content:       strings.TrimSpace(r.Content),
		MediaType:     models.MediaArticle,
		CorrectAnswer: normalizeAnswer(r.CorrectAnswer),
		Explanation:   strings.TrimSpace(r.Explanation),
	}
	if card.Title == "" {
		card.Title = "Sample News Title"
	}
	if card.Content == "" {
		card.Content = "Sample news content for analysis."
	}
	if card.Explanation == "" {
		card.Explanation = "This helps develop critical thinking skills."
	}
	return card, nil
}

func normalizeAnswer(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("-", "_", " ", "_").Replace(s)
	switch s {
	case "not_credible", "notcredible", "false", "fake", "not":
		return models.ChoiceNotCredible
	default:
		return models.ChoiceCredible
	}
}

// ClampScore bounds v to [0,100]; NaN becomes the neutral score.
func ClampScore(v float64) float64 {
	if math.IsNaN(v) {
		return defaultScore
	}
	return math.Max(0, math.Min(100, v))
}

func textOr(raw json.RawMessage, def string) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil || strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func arrayOrEmpty(raw json.RawMessage) json.RawMessage {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil || items == nil {
		return json.RawMessage("[]")
	}
	out, err := json.Marshal(items)
	if err != nil {
		return json.RawMessage("[]")
	}
	return out
}

func rewriteOr(raw json.RawMessage, content string) models.GenerationalRewrite {
	rw := models.SameRewrite(content)
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return rw
	}
	for key, dst := range map[string]*string{
		"elementary":   &rw.Elementary,
		"middleSchool": &rw.MiddleSchool,
		"highSchool":   &rw.HighSchool,
		"adult":        &rw.Adult,
	} {
		*dst = textOr(fields[key], content)
	}
	return rw
}

// stripCodeFence removes a ```json fence some models wrap around their answer.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func truncateRunes(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max])
}
