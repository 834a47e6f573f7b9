// Package conversation flattens a selection of chat messages into the plain
// text handed to a summarizer.
package conversation

import (
	"strings"

	"github.com/nextlevelbuilder/recap/internal/window"
)

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// Conversation is an ordered, read-only selection of messages.
type Conversation struct {
	messages []window.Message
}

// New wraps msgs, which must already be in chronological order.
func New(msgs []window.Message) *Conversation {
	return &Conversation{messages: msgs}
}

func (c *Conversation) Len() int      { return len(c.messages) }
func (c *Conversation) IsEmpty() bool { return len(c.messages) == 0 }

// Messages returns the wrapped messages.
func (c *Conversation) Messages() []window.Message { return c.messages }

// Render returns one "author: content" line per message. Line breaks inside
// content become single spaces so every message stays on one line.
func (c *Conversation) Render() string {
	var sb strings.Builder
	for i, m := range c.messages {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(m.AuthorName)
		sb.WriteString(": ")
		sb.WriteString(lineBreaks.Replace(m.Content))
	}
	return sb.String()
}

func (c *Conversation) String() string { return c.Render() }
