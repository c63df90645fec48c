package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Analytics service
	AnalyticsURL     string
	AnalyticsTimeout time.Duration
	// OpenAI-compatible endpoint used when no analytics service is configured
	OpenAIAPIKey  string
	OpenAIBaseURL string
	Model         string
	// Bridge server
	Port          string
	AllowedOrigin string
	// Render profile (titles, notices, system prompt)
	ProfilePath string
	// Terminal client log destination
	LogFile string
	Debug   bool
}

func Load() Config {
	_ = godotenv.Load()
	cfg := Config{
		AnalyticsURL:     strings.TrimRight(getEnvDefault("ANALYTICS_URL", "http://localhost:8000"), "/"),
		AnalyticsTimeout: getEnvDurationDefault("ANALYTICS_TIMEOUT", 60*time.Second),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:    os.Getenv("OPENAI_BASE_URL"),
		Model:            getEnvDefault("OPENAI_MODEL", "llama-3.1-8b-instant"),
		Port:             getEnvDefault("PORT", "8080"),
		AllowedOrigin:    getEnvDefault("ALLOWED_ORIGIN", "http://localhost:3000"),
		ProfilePath:      getEnvDefault("RENDER_PROFILE", "./prompts/profile.yaml"),
		LogFile:          getEnvDefault("LOG_FILE", "northwind-chat.log"),
		Debug:            getEnvBoolDefault("DEBUG", false),
	}
	// An API key without an analytics URL selects direct LLM mode.
	if _, set := os.LookupEnv("ANALYTICS_URL"); !set && cfg.OpenAIAPIKey != "" {
		cfg.AnalyticsURL = ""
	}
	if cfg.AnalyticsURL == "" && cfg.OpenAIAPIKey == "" {
		log.Println("warning: neither ANALYTICS_URL nor OPENAI_API_KEY is set; every question will fail until one is provided")
	}
	return cfg
}

// DirectMode reports whether questions go straight to the LLM endpoint
// instead of the analytics service.
func (c Config) DirectMode() bool {
	return c.AnalyticsURL == "" && c.OpenAIAPIKey != ""
}

func getEnvDefault(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(v)
	}
	return def
}

func getEnvBoolDefault(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getEnvIntDefault(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}

// getEnvDurationDefault accepts Go duration strings ("45s") or plain seconds.
func getEnvDurationDefault(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if n := getEnvIntDefault(key, 0); n > 0 {
		return time.Duration(n) * time.Second
	}
	return def
}
