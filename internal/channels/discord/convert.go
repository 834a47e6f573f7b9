package discord

import (
	"github.com/bwmarrin/discordgo"

	"github.com/nextlevelbuilder/recap/internal/window"
)

// toWindowMessage converts a Discord message into a window snapshot. The
// reply target, when Discord resolved it, is converted one level deep.
func toWindowMessage(m *discordgo.Message) window.Message {
	msg := convert(m)

	switch {
	case m.MessageReference == nil && m.Type != discordgo.MessageTypeReply:
		msg.Reference = window.Reference{State: window.RefNone}
	case m.ReferencedMessage != nil:
		target := convert(m.ReferencedMessage)
		if target.ChannelID == "" && m.MessageReference != nil {
			target.ChannelID = m.MessageReference.ChannelID
		}
		msg.Reference = window.Resolved(target)
	case m.MessageReference != nil && m.MessageReference.MessageID != "":
		// Discord sends a null referenced_message once the target is gone.
		msg.Reference = window.Reference{State: window.RefDeleted}
	default:
		msg.Reference = window.Reference{State: window.RefUnavailable}
	}
	return msg
}

func convert(m *discordgo.Message) window.Message {
	msg := window.Message{
		ID:         m.ID,
		ChannelID:  m.ChannelID,
		Timestamp:  m.Timestamp,
		Content:    m.Content,
		Kind:       kindOf(m.Type),
		AuthorName: resolveDisplayName(m),
	}
	if m.Author != nil {
		msg.AuthorID = m.Author.ID
	}
	return msg
}

func kindOf(t discordgo.MessageType) window.Kind {
	switch t {
	case discordgo.MessageTypeDefault:
		return window.KindDefault
	case discordgo.MessageTypeReply:
		return window.KindReply
	default:
		return window.KindSystem
	}
}

// resolveDisplayName returns the best available display name for a Discord message author.
// Priority: server nickname > global display name > username.
func resolveDisplayName(m *discordgo.Message) string {
	if m.Member != nil && m.Member.Nick != "" {
		return m.Member.Nick
	}
	if m.Author == nil {
		return "unknown"
	}
	if m.Author.GlobalName != "" {
		return m.Author.GlobalName
	}
	return m.Author.Username
}
