package discord

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/nextlevelbuilder/recap/internal/config"
	"github.com/nextlevelbuilder/recap/internal/window"
)

var t0 = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func dmsg(id string, typ discordgo.MessageType) *discordgo.Message {
	return &discordgo.Message{
		ID:        id,
		ChannelID: "c1",
		Type:      typ,
		Content:   "text " + id,
		Timestamp: t0,
		Author:    &discordgo.User{ID: "u" + id, Username: "user" + id},
	}
}

func TestResolveDisplayName(t *testing.T) {
	tests := []struct {
		name string
		msg  *discordgo.Message
		want string
	}{
		{"nick", &discordgo.Message{Member: &discordgo.Member{Nick: "Boss"}, Author: &discordgo.User{GlobalName: "Ana", Username: "ana"}}, "Boss"},
		{"global name", &discordgo.Message{Member: &discordgo.Member{}, Author: &discordgo.User{GlobalName: "Ana", Username: "ana"}}, "Ana"},
		{"username", &discordgo.Message{Author: &discordgo.User{Username: "ana"}}, "ana"},
		{"no author", &discordgo.Message{}, "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolveDisplayName(tt.msg); got != tt.want {
				t.Errorf("resolveDisplayName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		in   discordgo.MessageType
		want window.Kind
	}{
		{discordgo.MessageTypeDefault, window.KindDefault},
		{discordgo.MessageTypeReply, window.KindReply},
		{discordgo.MessageTypeGuildMemberJoin, window.KindSystem},
		{discordgo.MessageTypeChannelPinnedMessage, window.KindSystem},
	}
	for _, tt := range tests {
		if got := kindOf(tt.in); got != tt.want {
			t.Errorf("kindOf(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestToWindowMessage(t *testing.T) {
	plain := toWindowMessage(dmsg("1", discordgo.MessageTypeDefault))
	if plain.ID != "1" || plain.AuthorID != "u1" || plain.AuthorName != "user1" || !plain.Timestamp.Equal(t0) {
		t.Errorf("plain = %+v", plain)
	}
	if plain.IsReply() {
		t.Error("plain message reported as reply")
	}

	reply := dmsg("2", discordgo.MessageTypeReply)
	reply.MessageReference = &discordgo.MessageReference{MessageID: "1", ChannelID: "c1"}
	target := dmsg("1", discordgo.MessageTypeDefault)
	target.ChannelID = ""
	reply.ReferencedMessage = target

	got := toWindowMessage(reply)
	if got.Kind != window.KindReply || got.Reference.State != window.RefResolved {
		t.Fatalf("reply = %+v", got)
	}
	if got.Reference.Target.ID != "1" || got.Reference.Target.ChannelID != "c1" {
		t.Errorf("target = %+v", got.Reference.Target)
	}

	deleted := dmsg("3", discordgo.MessageTypeReply)
	deleted.MessageReference = &discordgo.MessageReference{MessageID: "1"}
	if s := toWindowMessage(deleted).Reference.State; s != window.RefDeleted {
		t.Errorf("deleted target state = %v, want RefDeleted", s)
	}

	unresolved := dmsg("4", discordgo.MessageTypeReply)
	if s := toWindowMessage(unresolved).Reference.State; s != window.RefUnavailable {
		t.Errorf("unresolved state = %v, want RefUnavailable", s)
	}
}

// fakeLister serves total messages with decreasing ids, newest first.
type fakeLister struct {
	total int
	calls []string
	err   error
}

func (f *fakeLister) ChannelMessages(_ string, limit int, beforeID, _, _ string, _ ...discordgo.RequestOption) ([]*discordgo.Message, error) {
	f.calls = append(f.calls, fmt.Sprintf("%d<%s", limit, beforeID))
	if f.err != nil {
		return nil, f.err
	}
	next := f.total
	if beforeID != "" {
		fmt.Sscanf(beforeID, "%d", &next)
		next--
	}
	var page []*discordgo.Message
	for id := next; id >= 1 && len(page) < limit; id-- {
		page = append(page, dmsg(fmt.Sprint(id), discordgo.MessageTypeDefault))
	}
	return page, nil
}

func TestHistoryPaging(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		limit     int
		wantCount int
		wantCalls []string
	}{
		{"single page", 50, 300, 50, []string{"100<"}},
		{"exact pages", 250, 300, 250, []string{"100<", "100<151", "100<51"}},
		{"limit bounds paging", 1000, 300, 300, []string{"100<", "100<901", "100<801"}},
		{"partial last page", 1000, 150, 150, []string{"100<", "50<901"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeLister{total: tt.total}
			var ids []string
			for m, err := range history(context.Background(), api, "c1", tt.limit) {
				if err != nil {
					t.Fatalf("history: %v", err)
				}
				ids = append(ids, m.ID)
			}
			if len(ids) != tt.wantCount {
				t.Errorf("got %d messages, want %d", len(ids), tt.wantCount)
			}
			if len(ids) > 0 && ids[0] != fmt.Sprint(tt.total) {
				t.Errorf("first message = %s, want newest %d", ids[0], tt.total)
			}
			if fmt.Sprint(api.calls) != fmt.Sprint(tt.wantCalls) {
				t.Errorf("calls = %v, want %v", api.calls, tt.wantCalls)
			}
		})
	}
}

func TestHistoryStopsEarly(t *testing.T) {
	api := &fakeLister{total: 1000}
	n := 0
	for range history(context.Background(), api, "c1", 300) {
		n++
		if n == 10 {
			break
		}
	}
	if len(api.calls) != 1 {
		t.Errorf("calls = %v, want a single page", api.calls)
	}
}

func TestHistoryErrors(t *testing.T) {
	boom := errors.New("missing access")
	for _, err := range history(context.Background(), &fakeLister{err: boom}, "c1", 300) {
		if !errors.Is(err, boom) {
			t.Errorf("error = %v, want %v", err, boom)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	api := &fakeLister{total: 10}
	for _, err := range history(ctx, api, "c1", 300) {
		if !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, want context.Canceled", err)
		}
	}
	if len(api.calls) != 0 {
		t.Errorf("cancelled history still called the API: %v", api.calls)
	}
}

func TestExclude(t *testing.T) {
	c := &Channel{config: config.DiscordConfig{WakeWord: "!sum"}}
	c.setBotUserID("bot")

	tests := []struct {
		msg  window.Message
		want bool
	}{
		{window.Message{AuthorID: "bot", Content: "Summary of the last 3 messages"}, true},
		{window.Message{AuthorID: "ana", Content: "!sum"}, true},
		{window.Message{AuthorID: "ana", Content: "!sum 20"}, true},
		{window.Message{AuthorID: "ana", Content: "!sum bogus"}, true},
		{window.Message{AuthorID: "ana", Content: "!summary is a nice word"}, false},
		{window.Message{AuthorID: "ana", Content: "hello everyone"}, false},
	}
	for _, tt := range tests {
		if got := c.Exclude(tt.msg); got != tt.want {
			t.Errorf("Exclude(%q by %s) = %v, want %v", tt.msg.Content, tt.msg.AuthorID, got, tt.want)
		}
	}
}

func TestStartTypingLogsFailure(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })

	var called string
	c := &Channel{typing: func(channelID string, _ ...discordgo.RequestOption) error {
		called = channelID
		return errors.New("missing permissions")
	}}
	c.startTyping("c1")

	if called != "c1" {
		t.Errorf("typing called for %q, want c1", called)
	}
	out := buf.String()
	if !strings.Contains(out, "discord typing indicator failed") || !strings.Contains(out, "missing permissions") {
		t.Errorf("log output = %q, want the typing failure with its error", out)
	}
}
