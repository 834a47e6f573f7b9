// Package sessions owns one message window per channel: it creates a window
// the first time a channel is referenced, backfills it from history exactly
// once and serializes every later notification and query against it.
package sessions

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nextlevelbuilder/recap/internal/metrics"
	"github.com/nextlevelbuilder/recap/internal/window"
)

// HistoryProvider fetches a channel's history newest first.
type HistoryProvider interface {
	History(ctx context.Context, channelID string, limit int) iter.Seq2[window.Message, error]
}

// Session holds the window of one channel. All methods are safe for
// concurrent use; calls are serialized on the session.
type Session struct {
	ChannelID string
	Created   time.Time

	mu  sync.Mutex
	win *window.Window
}

func (s *Session) Insert(m window.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.win.Insert(m)
}

func (s *Session) Edit(id string, updated window.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.win.Edit(id, updated)
}

func (s *Session) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.win.Delete(id)
}

func (s *Session) Last(stop int) ([]window.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.win.Last(stop)
}

func (s *Session) Range(start, stop int) ([]window.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.win.Range(start, stop)
}

func (s *Session) SinceUserLast(userID string) ([]window.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.win.SinceUserLast(userID)
}

// Len returns the number of messages currently held.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.win.Len()
}

// Options configures a Manager.
type Options struct {
	Capacity int           // window capacity, default window.DefaultCapacity
	Filter   window.Filter // shared exclusion filter
	Metrics  *metrics.Metrics
	// WarmConcurrency bounds concurrent backfills in Warm (default 4).
	WarmConcurrency int
}

// Manager maps channel ids to sessions.
type Manager struct {
	history HistoryProvider
	opts    Options

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(history HistoryProvider, opts Options) *Manager {
	if opts.Capacity <= 0 {
		opts.Capacity = window.DefaultCapacity
	}
	if opts.Filter == nil {
		opts.Filter = window.NewFilter(nil)
	}
	if opts.WarmConcurrency <= 0 {
		opts.WarmConcurrency = 4
	}
	return &Manager{
		history:  history,
		opts:     opts,
		sessions: make(map[string]*Session),
	}
}

// Get returns the session of channelID if one exists.
func (m *Manager) Get(channelID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[channelID]
	return s, ok
}

// GetOrCreate returns the session of channelID, creating and backfilling it
// on first reference. The new session is registered before the backfill
// starts but stays locked until it completes, so concurrent callers block
// instead of observing a partial window. A failed backfill unregisters the
// session and returns the error.
func (m *Manager) GetOrCreate(ctx context.Context, channelID string) (*Session, error) {
	m.mu.Lock()
	if s, ok := m.sessions[channelID]; ok {
		m.mu.Unlock()
		return s, nil
	}

	s := &Session{
		ChannelID: channelID,
		Created:   time.Now(),
		win:       window.New(m.opts.Capacity, m.opts.Filter),
	}
	s.mu.Lock()
	m.sessions[channelID] = s
	m.mu.Unlock()
	defer s.mu.Unlock()

	start := time.Now()
	src := window.HistoryFunc(func(ctx context.Context, limit int) iter.Seq2[window.Message, error] {
		return m.history.History(ctx, channelID, limit)
	})
	err := s.win.Initialize(ctx, src)
	m.opts.Metrics.Backfill(time.Since(start), err)
	if err != nil {
		m.mu.Lock()
		if m.sessions[channelID] == s {
			delete(m.sessions, channelID)
		}
		m.mu.Unlock()
		slog.Warn("channel backfill failed", "channel_id", channelID, "error", err)
		return nil, err
	}

	m.opts.Metrics.WindowOpened()
	slog.Info("channel window ready",
		"channel_id", channelID,
		"messages", s.win.Len(),
		"duration", time.Since(start),
	)
	return s, nil
}

// Warm backfills the given channels concurrently. Failures are logged and
// joined into the returned error; the remaining channels are still warmed.
func (m *Manager) Warm(ctx context.Context, channelIDs []string) error {
	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	g.SetLimit(m.opts.WarmConcurrency)
	for _, id := range channelIDs {
		g.Go(func() error {
			if _, err := m.GetOrCreate(ctx, id); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// Drop ends the session of channelID.
func (m *Manager) Drop(channelID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[channelID]; !ok {
		return false
	}
	delete(m.sessions, channelID)
	m.opts.Metrics.WindowClosed()
	return true
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// OnCreate appends a new message to its channel's window. Channels without
// a session are skipped; their history is read when they are first referenced.
func (m *Manager) OnCreate(msg window.Message) {
	s, ok := m.Get(msg.ChannelID)
	if !ok {
		m.opts.Metrics.Event("create", "no_session")
		return
	}
	if err := s.Insert(msg); err != nil {
		m.opts.Metrics.Event("create", "error")
		slog.Debug("window insert failed", "channel_id", msg.ChannelID, "message_id", msg.ID, "error", err)
		return
	}
	m.opts.Metrics.Event("create", "applied")
}

// OnEdit replaces oldID with msg in its channel's window.
func (m *Manager) OnEdit(oldID string, msg window.Message) {
	s, ok := m.Get(msg.ChannelID)
	if !ok {
		m.opts.Metrics.Event("edit", "no_session")
		return
	}
	outcome := "ignored"
	if s.Edit(oldID, msg) {
		outcome = "applied"
	}
	m.opts.Metrics.Event("edit", outcome)
}

// OnDelete removes id from channelID's window.
func (m *Manager) OnDelete(channelID, id string) {
	s, ok := m.Get(channelID)
	if !ok {
		m.opts.Metrics.Event("delete", "no_session")
		return
	}
	outcome := "ignored"
	if s.Delete(id) {
		outcome = "applied"
	}
	m.opts.Metrics.Event("delete", outcome)
}
