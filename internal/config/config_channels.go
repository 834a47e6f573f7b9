package config

// DiscordConfig configures the Discord bot.
type DiscordConfig struct {
	Token     string              `json:"token"`
	WakeWord  string              `json:"wake_word,omitempty"`  // command prefix (default "!sum")
	AllowFrom FlexibleStringSlice `json:"allow_from,omitempty"` // user ids allowed to request summaries (empty = everyone)
	Channels  FlexibleStringSlice `json:"channels,omitempty"`   // channel ids the bot serves (empty = all)
	// RateLimitRPM bounds summary requests per user per minute (default 6, <0 disables).
	RateLimitRPM int `json:"rate_limit_rpm,omitempty"`
}

// ServesChannel reports whether channelID is enabled.
func (d DiscordConfig) ServesChannel(channelID string) bool {
	if len(d.Channels) == 0 {
		return true
	}
	for _, id := range d.Channels {
		if id == channelID {
			return true
		}
	}
	return false
}
