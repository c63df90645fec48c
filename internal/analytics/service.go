package analytics

import (
	"context"
	"log"

	"northwind-chat/internal/config"
)

// Answerer sends one question and returns the raw reply body.
type Answerer interface {
	Ask(ctx context.Context, message string) ([]byte, error)
}

// NewService picks the answerer for cfg: the analytics service when a URL is
// configured, otherwise the OpenAI-compatible endpoint.
func NewService(cfg config.Config, prof config.Profile) Answerer {
	if cfg.DirectMode() {
		log.Printf("[analytics] no ANALYTICS_URL; answering directly with model %s", cfg.Model)
		return NewLLMService(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.Model, LLMOptions{
			System:      prof.System,
			Temperature: prof.Style.Temperature,
			MaxTokens:   prof.Style.MaxTokens,
			Timeout:     cfg.AnalyticsTimeout,
		})
	}
	return NewClient(cfg.AnalyticsURL, cfg.AnalyticsTimeout)
}
