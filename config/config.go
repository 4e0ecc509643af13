// config/config.go - typed runtime configuration loaded from .env and the environment
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"mediahub/utils"

	"github.com/joho/godotenv"
)

const devJWTSecret = "mediahub-dev-secret-change-me-in-production-0123456789"

type Config struct {
	Port        string
	AppEnv      string
	CORSOrigins string

	DBDriver    string // postgres | sqlite
	DatabaseURL string
	SQLitePath  string

	JWTSecret string
	JWTTTL    time.Duration

	LLMProvider  string // openai | gemini | none
	OpenAIKey    string
	OpenAIURL    string
	OpenAIModel  string
	GeminiKey    string
	GeminiModel  string
	GeminiURL    string
	LLMTimeout   time.Duration
	MaxPromptLen int

	RedisAddr    string
	RedisChannel string

	RateLimitEnabled  bool
	RateLimitMax      int
	RateLimitWindow   time.Duration
	AuthRateLimitMax  int
	AuthRateWindow    time.Duration
	AnalyzeRateMax    int
	AnalyzeRateWindow time.Duration
	RetentionDays     int
	CleanupInterval   time.Duration
}

// Load reads .env (if present) and then the process environment.
// The returned bool reports whether a .env file was found.
func Load() (*Config, bool) {
	foundDotenv := godotenv.Load() == nil
	return FromEnv(), foundDotenv
}

// FromEnv builds a Config from the current environment only.
func FromEnv() *Config {
	cfg := &Config{
		Port:        utils.GetEnv("PORT", "3000"),
		AppEnv:      strings.ToLower(utils.GetEnv("APP_ENV", "development")),
		CORSOrigins: utils.GetEnv("CORS_ORIGINS", "http://localhost:5173"),

		DBDriver:    strings.ToLower(utils.GetEnv("DB_DRIVER", "postgres")),
		DatabaseURL: utils.GetEnv("DATABASE_URL", ""),
		SQLitePath:  utils.GetEnv("SQLITE_PATH", "mediahub.db"),

		JWTSecret: utils.GetEnv("JWT_SECRET", ""),
		JWTTTL:    time.Duration(utils.GetEnvInt("JWT_TTL_HOURS", 72)) * time.Hour,

		OpenAIKey:    utils.GetEnv("OPENAI_API_KEY", ""),
		OpenAIURL:    strings.TrimRight(utils.GetEnv("OPENAI_BASE_URL", "https://api.openai.com"), "/"),
		OpenAIModel:  utils.GetEnv("OPENAI_MODEL", "gpt-4o"),
		GeminiKey:    utils.GetEnv("GEMINI_API_KEY", ""),
		GeminiModel:  utils.GetEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiURL:    strings.TrimRight(utils.GetEnv("GEMINI_BASE_URL", ""), "/"),
		LLMTimeout:   time.Duration(utils.GetEnvInt("LLM_TIMEOUT_SECONDS", 30)) * time.Second,
		MaxPromptLen: utils.GetEnvInt("LLM_MAX_CONTENT_CHARS", 12000),

		RedisAddr:    utils.GetEnv("REDIS_ADDR", ""),
		RedisChannel: utils.GetEnv("REDIS_CHANNEL", "mediahub:progress"),

		RateLimitEnabled:  utils.GetEnvBool("RATE_LIMIT_ENABLED", true),
		RateLimitMax:      utils.GetEnvInt("RATE_LIMIT_MAX_REQUESTS", 100),
		RateLimitWindow:   windowFromMS("RATE_LIMIT_WINDOW_MS", 900000),
		AuthRateLimitMax:  utils.GetEnvInt("AUTH_RATE_LIMIT_MAX", 5),
		AuthRateWindow:    windowFromMS("AUTH_RATE_LIMIT_WINDOW_MS", 300000),
		AnalyzeRateMax:    utils.GetEnvInt("ANALYZE_RATE_LIMIT_MAX", 10),
		AnalyzeRateWindow: windowFromMS("ANALYZE_RATE_LIMIT_WINDOW_MS", 60000),
		RetentionDays:     utils.GetEnvInt("ANALYSIS_RETENTION_DAYS", 30),
		CleanupInterval:   time.Duration(utils.GetEnvInt("CLEANUP_INTERVAL_MINUTES", 60)) * time.Minute,
	}

	cfg.LLMProvider = strings.ToLower(utils.GetEnv("LLM_PROVIDER", ""))
	if cfg.LLMProvider == "" {
		switch {
		case cfg.OpenAIKey != "":
			cfg.LLMProvider = "openai"
		case cfg.GeminiKey != "":
			cfg.LLMProvider = "gemini"
		default:
			cfg.LLMProvider = "none"
		}
	}

	if cfg.JWTSecret == "" && !cfg.IsProduction() {
		cfg.JWTSecret = devJWTSecret
	}
	return cfg
}

func windowFromMS(key string, def int) time.Duration {
	ms := utils.GetEnvInt(key, def)
	if ms <= 0 {
		ms = def
	}
	return time.Duration(ms) * time.Millisecond
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production" || c.AppEnv == "prod"
}

// Validate reports configuration that would make the server unsafe or unable to start.
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET must be set. Generate one with: openssl rand -base64 64"))
	} else if len(c.JWTSecret) < 32 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 32 characters long"))
	}
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("unsupported DB_DRIVER %q (want postgres or sqlite)", c.DBDriver))
	}
	switch c.LLMProvider {
	case "openai":
		if c.OpenAIKey == "" {
			errs = append(errs, errors.New("LLM_PROVIDER=openai requires OPENAI_API_KEY"))
		}
	case "gemini":
		if c.GeminiKey == "" {
			errs = append(errs, errors.New("LLM_PROVIDER=gemini requires GEMINI_API_KEY"))
		}
	case "none":
	default:
		errs = append(errs, fmt.Errorf("unsupported LLM_PROVIDER %q", c.LLMProvider))
	}
	if c.RetentionDays < 0 {
		errs = append(errs, errors.New("ANALYSIS_RETENTION_DAYS must not be negative"))
	}
	return errors.Join(errs...)
}
