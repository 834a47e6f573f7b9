package cmd

import (
	"fmt"
	"log/slog"

	"github.com/nextlevelbuilder/recap/internal/config"
	"github.com/nextlevelbuilder/recap/internal/providers"
)

const defaultOpenAIBase = "https://api.openai.com/v1"

// newSummarizer builds the summarizer selected in cfg.
func newSummarizer(cfg config.SummarizerConfig) (providers.Summarizer, error) {
	switch cfg.Provider {
	case "extract":
		slog.Info("summarizer: extractive, no model calls")
		return providers.ExtractProvider{}, nil
	case "openai", "":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("summarizer.api_key is required for provider %q (set RECAP_SUMMARIZER_API_KEY)", "openai")
		}
		base := cfg.APIBase
		if base == "" {
			base = defaultOpenAIBase
		}
		p := providers.NewOpenAIProvider("openai", cfg.APIKey, base, cfg.Model).
			WithTimeout(cfg.Timeout()).
			WithRetries(cfg.MaxRetries).
			WithTemperature(cfg.Temperature)
		slog.Info("summarizer: openai-compatible", "api_base", base, "model", cfg.Model)
		return p, nil
	default:
		return nil, fmt.Errorf("unknown summarizer provider %q", cfg.Provider)
	}
}
