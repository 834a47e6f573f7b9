package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/titanous/json5"
)

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Discord: DiscordConfig{
			WakeWord:     "!sum",
			RateLimitRPM: 6,
		},
		Window: WindowConfig{
			Capacity: 300,
		},
		Summarizer: SummarizerConfig{
			Provider:    "openai",
			Model:       "gpt-4o-mini",
			Temperature: 0.3,
			TimeoutSec:  60,
			MaxRetries:  2,
		},
		Telemetry: TelemetryConfig{
			Protocol:    "http",
			ServiceName: "recap",
		},
	}
}

// Load reads config from a JSON5 file, then overlays a sibling .env file and
// process env vars. A missing config file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err == nil {
		if err := json5.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := loadDotEnv(filepath.Join(filepath.Dir(path), ".env")); err != nil {
		return nil, err
	}
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadDotEnv exports variables from a .env file without overriding ones
// already set in the process environment.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// applyEnvOverrides overlays env vars onto the config.
// Env vars take precedence over file values.
func (c *Config) applyEnvOverrides() {
	envStr := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	envInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	envBool := func(key string, dst *bool) {
		if v := os.Getenv(key); v != "" {
			*dst = v == "true" || v == "1"
		}
	}

	// DISCORD_TOKEN is the name most bot .env files use.
	envStr("DISCORD_TOKEN", &c.Discord.Token)
	envStr("RECAP_DISCORD_TOKEN", &c.Discord.Token)
	envStr("RECAP_WAKE_WORD", &c.Discord.WakeWord)
	envInt("RECAP_RATE_LIMIT_RPM", &c.Discord.RateLimitRPM)
	if v := os.Getenv("RECAP_CHANNELS"); v != "" {
		c.Discord.Channels = splitList(v)
	}
	if v := os.Getenv("RECAP_ALLOW_FROM"); v != "" {
		c.Discord.AllowFrom = splitList(v)
	}

	envInt("RECAP_WINDOW_CAPACITY", &c.Window.Capacity)
	if v := os.Getenv("RECAP_WARM_CHANNELS"); v != "" {
		c.Window.WarmChannels = splitList(v)
	}

	envStr("RECAP_SUMMARIZER", &c.Summarizer.Provider)
	envStr("RECAP_SUMMARIZER_API_KEY", &c.Summarizer.APIKey)
	envStr("RECAP_SUMMARIZER_API_BASE", &c.Summarizer.APIBase)
	envStr("RECAP_SUMMARIZER_MODEL", &c.Summarizer.Model)

	envStr("RECAP_TELEMETRY_ENDPOINT", &c.Telemetry.Endpoint)
	envStr("RECAP_TELEMETRY_PROTOCOL", &c.Telemetry.Protocol)
	envStr("RECAP_TELEMETRY_SERVICE_NAME", &c.Telemetry.ServiceName)
	envBool("RECAP_TELEMETRY_ENABLED", &c.Telemetry.Enabled)
	envBool("RECAP_TELEMETRY_INSECURE", &c.Telemetry.Insecure)

	envStr("RECAP_METRICS_ADDR", &c.Metrics.Addr)
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	if c.Window.Capacity <= 1 {
		return fmt.Errorf("window.capacity must be greater than 1, got %d", c.Window.Capacity)
	}
	if strings.TrimSpace(c.Discord.WakeWord) == "" {
		return fmt.Errorf("discord.wake_word must not be empty")
	}
	switch c.Summarizer.Provider {
	case "openai", "extract":
	default:
		return fmt.Errorf("unknown summarizer provider %q", c.Summarizer.Provider)
	}
	switch c.Telemetry.Protocol {
	case "", "http", "grpc":
	default:
		return fmt.Errorf("unknown telemetry protocol %q", c.Telemetry.Protocol)
	}
	return nil
}

// Save writes the config to a JSON file.
func Save(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}
