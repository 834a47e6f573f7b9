package config

import (
	"encoding/json"
	"fmt"
	"time"
)

// FlexibleStringSlice accepts both ["str"] and [123] in JSON.
// Discord snowflakes are often pasted as bare numbers.
type FlexibleStringSlice []string

func (f *FlexibleStringSlice) UnmarshalJSON(data []byte) error {
	var ss []string
	if err := json.Unmarshal(data, &ss); err == nil {
		*f = ss
		return nil
	}
	var raw []interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	result := make([]string, 0, len(raw))
	for _, v := range raw {
		switch val := v.(type) {
		case string:
			result = append(result, val)
		case float64:
			result = append(result, fmt.Sprintf("%.0f", val))
		default:
			result = append(result, fmt.Sprintf("%v", val))
		}
	}
	*f = result
	return nil
}

// Config is the root configuration for the recap bot.
type Config struct {
	Discord    DiscordConfig    `json:"discord"`
	Window     WindowConfig     `json:"window"`
	Summarizer SummarizerConfig `json:"summarizer"`
	Telemetry  TelemetryConfig  `json:"telemetry,omitempty"`
	Metrics    MetricsConfig    `json:"metrics,omitempty"`
}

// WindowConfig sizes the per-channel message windows.
type WindowConfig struct {
	Capacity int `json:"capacity,omitempty"` // messages kept per channel (default 300)
	// WarmChannels are backfilled at startup instead of on first command.
	WarmChannels FlexibleStringSlice `json:"warm_channels,omitempty"`
}

// SummarizerConfig selects and configures the text summarizer.
type SummarizerConfig struct {
	Provider    string  `json:"provider"`           // "openai" (any OpenAI-compatible API) or "extract"
	APIKey      string  `json:"api_key,omitempty"`  // env only in practice
	APIBase     string  `json:"api_base,omitempty"` // default https://api.openai.com/v1
	Model       string  `json:"model,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
	TimeoutSec  int     `json:"timeout_sec,omitempty"` // per request (default 60)
	MaxRetries  int     `json:"max_retries,omitempty"` // on 429/5xx (default 2)
}

// Timeout returns the per-request timeout.
func (s SummarizerConfig) Timeout() time.Duration {
	if s.TimeoutSec <= 0 {
		return 60 * time.Second
	}
	return time.Duration(s.TimeoutSec) * time.Second
}

// TelemetryConfig configures OpenTelemetry OTLP trace export.
type TelemetryConfig struct {
	Enabled     bool   `json:"enabled,omitempty"`
	Endpoint    string `json:"endpoint,omitempty"`     // e.g. "localhost:4318"
	Protocol    string `json:"protocol,omitempty"`     // "http" (default) or "grpc"
	Insecure    bool   `json:"insecure,omitempty"`     // plain-text transport
	ServiceName string `json:"service_name,omitempty"` // default "recap"
}

// MetricsConfig configures the Prometheus listener.
type MetricsConfig struct {
	Addr string `json:"addr,omitempty"` // e.g. ":9090"; empty disables
}

// Masked returns a copy with secrets replaced, safe to print.
func (c *Config) Masked() *Config {
	out := *c
	out.Discord.Token = mask(c.Discord.Token)
	out.Summarizer.APIKey = mask(c.Summarizer.APIKey)
	return &out
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "***"
	}
	return s[:4] + "***"
}
