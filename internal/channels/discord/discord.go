// Package discord connects the bot to Discord: it mirrors message events
// into the channel windows, reads channel history on demand and answers
// wake-word commands.
package discord

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/nextlevelbuilder/recap/internal/channels"
	"github.com/nextlevelbuilder/recap/internal/commands"
	"github.com/nextlevelbuilder/recap/internal/config"
	"github.com/nextlevelbuilder/recap/internal/sessions"
	"github.com/nextlevelbuilder/recap/internal/summary"
	"github.com/nextlevelbuilder/recap/internal/window"
)

const (
	maxMessageLen  = 2000
	requestTimeout = 2 * time.Minute
)

// Channel connects to Discord via the Bot API using gateway events.
type Channel struct {
	*channels.BaseChannel
	session *discordgo.Session
	api     messageLister
	typing  func(channelID string, options ...discordgo.RequestOption) error
	config  config.DiscordConfig
	limiter *channels.RateLimiter

	mu        sync.RWMutex
	botUserID string

	sessions *sessions.Manager
	service  *summary.Service

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a new Discord channel from config.
func New(cfg config.DiscordConfig) (*Channel, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent

	return &Channel{
		BaseChannel: channels.NewBaseChannel("discord", cfg.AllowFrom),
		session:     session,
		api:         session,
		typing:      session.ChannelTyping,
		config:      cfg,
		limiter:     channels.NewRateLimiter(cfg.RateLimitRPM),
	}, nil
}

// Bind attaches the window registry and the summary service. It must be
// called before Start.
func (c *Channel) Bind(mgr *sessions.Manager, svc *summary.Service) {
	c.sessions = mgr
	c.service = svc
}

// BotUserID returns the bot's own user id once connected.
func (c *Channel) BotUserID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.botUserID
}

func (c *Channel) setBotUserID(id string) {
	c.mu.Lock()
	c.botUserID = id
	c.mu.Unlock()
}

// Exclude reports whether m must stay out of every window: the bot's own
// messages and wake-word commands.
func (c *Channel) Exclude(m window.Message) bool {
	if id := c.BotUserID(); id != "" && m.AuthorID == id {
		return true
	}
	_, isCommand, _ := commands.Parse(m.Content, c.config.WakeWord)
	return isCommand
}

// Start opens the Discord gateway connection and begins receiving events.
func (c *Channel) Start(ctx context.Context) error {
	if c.sessions == nil || c.service == nil {
		return fmt.Errorf("discord channel started before Bind")
	}
	slog.Info("starting discord bot")
	c.ctx, c.cancel = context.WithCancel(ctx)

	c.session.AddHandler(c.handleReady)
	c.session.AddHandler(c.handleMessageCreate)
	c.session.AddHandler(c.handleMessageUpdate)
	c.session.AddHandler(c.handleMessageDelete)
	c.session.AddHandler(c.handleMessageDeleteBulk)

	if err := c.session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}

	user, err := c.session.User("@me")
	if err != nil {
		c.session.Close()
		return fmt.Errorf("fetch discord bot identity: %w", err)
	}
	c.setBotUserID(user.ID)

	c.SetRunning(true)
	slog.Info("discord bot connected", "username", user.Username, "id", user.ID)
	return nil
}

// Stop closes the Discord gateway connection.
func (c *Channel) Stop(_ context.Context) error {
	slog.Info("stopping discord bot")
	c.SetRunning(false)
	if c.cancel != nil {
		c.cancel()
	}
	return c.session.Close()
}

func (c *Channel) handleReady(_ *discordgo.Session, r *discordgo.Ready) {
	if r.User != nil {
		c.setBotUserID(r.User.ID)
	}
	slog.Debug("discord gateway ready", "guilds", len(r.Guilds))
}

// handleMessageCreate mirrors the message into its window, then answers it
// if it is a command.
func (c *Channel) handleMessageCreate(_ *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || !c.config.ServesChannel(m.ChannelID) {
		return
	}
	c.sessions.OnCreate(toWindowMessage(m.Message))

	if m.Author.ID == c.BotUserID() || m.Author.Bot {
		return
	}

	cmd, ok, err := commands.Parse(m.Content, c.config.WakeWord)
	if !ok {
		return
	}
	senderID := m.Author.ID + "|" + m.Author.Username
	if !c.IsAllowed(senderID) {
		slog.Debug("discord command rejected by allowlist",
			"user_id", m.Author.ID,
			"username", m.Author.Username,
		)
		return
	}
	if err != nil {
		c.reply(m.Message, err.Error())
		return
	}
	if !c.limiter.Allow(m.Author.ID) {
		slog.Debug("discord command rate limited", "user_id", m.Author.ID, "channel_id", m.ChannelID)
		c.reply(m.Message, "Slow down a little, try again in a minute.")
		return
	}

	slog.Debug("discord command received",
		"user_id", m.Author.ID,
		"channel_id", m.ChannelID,
		"command", cmd.Kind.String(),
		"preview", channels.Truncate(m.Content, 50),
	)

	if cmd.Kind != commands.Hello && cmd.Kind != commands.Help {
		c.startTyping(m.ChannelID)
	}

	ctx, cancel := context.WithTimeout(c.ctx, requestTimeout)
	defer cancel()
	text, err := c.service.Handle(ctx, summary.Request{
		ChannelID:   m.ChannelID,
		RequesterID: m.Author.ID,
		Command:     cmd,
	})
	if err != nil {
		slog.Warn("discord summary request failed",
			"channel_id", m.ChannelID,
			"user_id", m.Author.ID,
			"error", err,
		)
	}
	c.reply(m.Message, text)
}

func (c *Channel) handleMessageUpdate(_ *discordgo.Session, m *discordgo.MessageUpdate) {
	// Embed-only updates arrive without an author.
	if m.Message == nil || m.Author == nil || !c.config.ServesChannel(m.ChannelID) {
		return
	}
	c.sessions.OnEdit(m.ID, toWindowMessage(m.Message))
}

func (c *Channel) handleMessageDelete(_ *discordgo.Session, m *discordgo.MessageDelete) {
	if m.Message == nil || !c.config.ServesChannel(m.ChannelID) {
		return
	}
	c.sessions.OnDelete(m.ChannelID, m.ID)
}

func (c *Channel) handleMessageDeleteBulk(_ *discordgo.Session, m *discordgo.MessageDeleteBulk) {
	if !c.config.ServesChannel(m.ChannelID) {
		return
	}
	for _, id := range m.Messages {
		c.sessions.OnDelete(m.ChannelID, id)
	}
}

func (c *Channel) startTyping(channelID string) {
	if err := c.typing(channelID); err != nil {
		slog.Debug("discord typing indicator failed", "channel_id", channelID, "error", err)
	}
}

// reply answers to, splitting content into several messages if over
// 2000 chars. Only the first piece references the request.
func (c *Channel) reply(to *discordgo.Message, content string) {
	if content == "" {
		return
	}
	for i, chunk := range channels.Chunk(content, maxMessageLen) {
		var err error
		if i == 0 {
			_, err = c.session.ChannelMessageSendReply(to.ChannelID, chunk, to.Reference())
		} else {
			_, err = c.session.ChannelMessageSend(to.ChannelID, chunk)
		}
		if err != nil {
			slog.Warn("send discord message failed", "channel_id", to.ChannelID, "error", err)
			return
		}
	}
}
