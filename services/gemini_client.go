// services/gemini_client.go - Google Gemini provider
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string // empty uses the public Gemini endpoint
	Timeout time.Duration
}

type GeminiClient struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions.BaseURL = cfg.BaseURL
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &GeminiClient{client: client, model: cfg.Model, timeout: cfg.Timeout}, nil
}

func (g *GeminiClient) Name() string { return ProviderGemini }

func (g *GeminiClient) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string, temperature float32) (string, error) {
	if _, ok := ctx.Deadline(); !ok && g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(userPrompt), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		Temperature:       genai.Ptr(temperature),
	})
	if err != nil {
		return "", fmt.Errorf("gemini: generate: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("gemini: empty response")
	}
	return text, nil
}
