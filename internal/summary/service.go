// Package summary answers summary requests: it selects messages from the
// channel window, renders them and hands the text to the summarizer.
package summary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/nextlevelbuilder/recap/internal/commands"
	"github.com/nextlevelbuilder/recap/internal/conversation"
	"github.com/nextlevelbuilder/recap/internal/metrics"
	"github.com/nextlevelbuilder/recap/internal/providers"
	"github.com/nextlevelbuilder/recap/internal/sessions"
	"github.com/nextlevelbuilder/recap/internal/tracing"
	"github.com/nextlevelbuilder/recap/internal/window"
)

// Request is one summary request.
type Request struct {
	ChannelID   string
	RequesterID string
	Command     commands.Command
}

// Service handles requests against a session registry.
type Service struct {
	sessions   *sessions.Manager
	summarizer providers.Summarizer
	metrics    *metrics.Metrics
	wakeWord   string
}

func NewService(mgr *sessions.Manager, summarizer providers.Summarizer, m *metrics.Metrics, wakeWord string) *Service {
	return &Service{sessions: mgr, summarizer: summarizer, metrics: m, wakeWord: wakeWord}
}

// Handle returns the text to post back to the channel. Problems the user can
// act on (bad range, out of scope, still loading) are part of the reply and
// yield a nil error; the error reports internal failures for logging, and
// the reply then carries a generic apology.
func (s *Service) Handle(ctx context.Context, req Request) (string, error) {
	start := time.Now()
	requestID := uuid.NewString()
	query := req.Command.Kind.String()

	ctx, span := tracing.Tracer().Start(ctx, "summary.handle", trace.WithAttributes(
		attribute.String("request.id", requestID),
		attribute.String("channel.id", req.ChannelID),
		attribute.String("query", query),
	))
	defer span.End()

	reply, outcome, err := s.handle(ctx, req)

	span.SetAttributes(attribute.String("outcome", outcome))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.metrics.Request(query, outcome, time.Since(start))
	slog.Debug("summary request handled",
		"request_id", requestID,
		"channel_id", req.ChannelID,
		"requester_id", req.RequesterID,
		"query", query,
		"outcome", outcome,
		"duration", time.Since(start),
	)
	return reply, err
}

func (s *Service) handle(ctx context.Context, req Request) (reply, outcome string, err error) {
	switch req.Command.Kind {
	case commands.Hello:
		return "Hi", "ok", nil
	case commands.Help:
		return commands.Usage(s.wakeWord), "ok", nil
	}

	sess, err := s.sessions.GetOrCreate(ctx, req.ChannelID)
	if err != nil {
		return "I couldn't read this channel's history, try again later.", "backfill_error",
			fmt.Errorf("open channel %s: %w", req.ChannelID, err)
	}

	msgs, err := s.selectMessages(sess, req)
	if err != nil {
		switch {
		case errors.Is(err, window.ErrRange):
			return err.Error(), "range", nil
		case errors.Is(err, window.ErrOutOfScope):
			return err.Error(), "out_of_scope", nil
		case errors.Is(err, window.ErrNotInitialized):
			return err.Error(), "not_ready", nil
		}
		return "Something went wrong while reading the conversation.", "select_error", err
	}

	conv := conversation.New(msgs)
	if conv.IsEmpty() {
		return "Nothing to summarize yet.", "empty", nil
	}

	trace.SpanFromContext(ctx).SetAttributes(attribute.Int("messages", conv.Len()))
	text, err := s.summarizer.Summarize(ctx, conv.Render())
	if err != nil {
		return "The summarizer is unavailable right now, try again later.", "summarizer_error",
			fmt.Errorf("summarize with %s: %w", s.summarizer.Name(), err)
	}

	return fmt.Sprintf("Summary of the last %d messages:\n%s", conv.Len(), text), "ok", nil
}

func (s *Service) selectMessages(sess *sessions.Session, req Request) ([]window.Message, error) {
	cmd := req.Command
	switch cmd.Kind {
	case commands.Last:
		return sess.Last(cmd.Stop)
	case commands.Range:
		return sess.Range(cmd.Start, cmd.Stop)
	default:
		user := cmd.UserID
		if user == "" {
			user = req.RequesterID
		}
		return sess.SinceUserLast(user)
	}
}
