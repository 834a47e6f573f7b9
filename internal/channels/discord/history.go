package discord

import (
	"context"
	"fmt"
	"iter"

	"github.com/bwmarrin/discordgo"

	"github.com/nextlevelbuilder/recap/internal/window"
)

// maxPageSize is the largest page the channel messages endpoint returns.
const maxPageSize = 100

// messageLister is the part of *discordgo.Session used to read history.
type messageLister interface {
	ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string, options ...discordgo.RequestOption) ([]*discordgo.Message, error)
}

// History reads a channel's history newest first, paging backwards until
// limit messages were produced, the channel is exhausted or the consumer
// stops.
func (c *Channel) History(ctx context.Context, channelID string, limit int) iter.Seq2[window.Message, error] {
	return history(ctx, c.api, channelID, limit)
}

func history(ctx context.Context, api messageLister, channelID string, limit int) iter.Seq2[window.Message, error] {
	return func(yield func(window.Message, error) bool) {
		before := ""
		for produced := 0; produced < limit; {
			if err := ctx.Err(); err != nil {
				yield(window.Message{}, err)
				return
			}

			want := min(maxPageSize, limit-produced)
			page, err := api.ChannelMessages(channelID, want, before, "", "", discordgo.WithContext(ctx))
			if err != nil {
				yield(window.Message{}, fmt.Errorf("read history of channel %s: %w", channelID, err))
				return
			}
			for _, m := range page {
				if !yield(toWindowMessage(m), nil) {
					return
				}
				produced++
			}
			if len(page) < want {
				return
			}
			before = page[len(page)-1].ID
		}
	}
}
