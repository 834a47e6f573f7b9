package window

import (
	"context"
	"fmt"
	"iter"
)

// DefaultCapacity is the number of messages a window keeps and the number of
// history items consumed when it is built.
const DefaultCapacity = 300

// HistoryProvider yields a channel's messages newest first, at most limit of them.
type HistoryProvider interface {
	History(ctx context.Context, limit int) iter.Seq2[Message, error]
}

// HistoryFunc adapts a plain function to HistoryProvider.
type HistoryFunc func(ctx context.Context, limit int) iter.Seq2[Message, error]

func (f HistoryFunc) History(ctx context.Context, limit int) iter.Seq2[Message, error] {
	return f(ctx, limit)
}

// Window is a fixed-capacity, chronologically ordered buffer of one channel's
// most recent eligible messages.
//
// Invariants: Len() <= Capacity(); timestamps never decrease from head to
// tail; every member passes the filter; ids are unique.
//
// A Window is not safe for concurrent use. Callers serialize access per
// channel (see sessions.Session).
type Window struct {
	filter      Filter
	msgs        *ring[Message]
	ids         map[string]struct{}
	tombstones  map[string]struct{}
	tombOrder   []string
	initialized bool
}

// New creates an empty, uninitialized window. A capacity <= 0 selects
// DefaultCapacity; a nil filter admits every ordinary message and reply.
func New(capacity int, filter Filter) *Window {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if filter == nil {
		filter = NewFilter(nil)
	}
	return &Window{
		filter:     filter,
		msgs:       newRing[Message](capacity),
		ids:        make(map[string]struct{}, capacity),
		tombstones: make(map[string]struct{}),
	}
}

func (w *Window) Capacity() int     { return w.msgs.Cap() }
func (w *Window) Len() int          { return w.msgs.Len() }
func (w *Window) Initialized() bool { return w.initialized }

// Initialize (re)builds the window from src. It consumes at most Capacity()
// items, drops the ones the filter rejects and stores the rest oldest first.
// On error the window keeps its previous contents and state.
func (w *Window) Initialize(ctx context.Context, src HistoryProvider) error {
	limit := w.Capacity()
	newest := make([]Message, 0, limit)

	consumed := 0
	for m, err := range src.History(ctx, limit) {
		if err != nil {
			return fmt.Errorf("fetch history: %w", err)
		}
		consumed++
		if w.filter.Admit(m) {
			newest = append(newest, m)
		}
		if consumed == limit {
			break
		}
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("fetch history: %w", err)
	}

	w.msgs.Reset()
	clear(w.ids)
	clear(w.tombstones)
	w.tombOrder = w.tombOrder[:0]
	for i := len(newest) - 1; i >= 0; i-- {
		w.push(newest[i])
	}
	w.initialized = true
	return nil
}

// Insert adds m at its chronological position, normally the tail, evicting
// the oldest message when full. Concurrent deliveries may arrive slightly
// out of order; a late message is placed before the newer ones. Messages
// rejected by the filter, duplicates and messages older than the head of a
// full window are ignored.
func (w *Window) Insert(m Message) error {
	if !w.initialized {
		return ErrNotInitialized
	}
	w.push(m)
	return nil
}

func (w *Window) push(m Message) bool {
	if !w.filter.Admit(m) {
		return false
	}
	if _, dup := w.ids[m.ID]; dup {
		return false
	}

	n := w.msgs.Len()
	pos := n
	for pos > 0 && m.Timestamp.Before(w.msgs.At(pos-1).Timestamp) {
		pos--
	}
	if pos == n {
		if evicted, ok := w.msgs.Push(m); ok {
			delete(w.ids, evicted.ID)
		}
		w.ids[m.ID] = struct{}{}
		return true
	}

	if n == w.msgs.Cap() {
		if pos == 0 {
			return false
		}
		delete(w.ids, w.msgs.At(0).ID)
		w.msgs.RemoveAt(0)
		pos--
	}
	w.msgs.InsertAt(pos, m)
	w.ids[m.ID] = struct{}{}
	return true
}

// Edit replaces the message with the given id in place. It reports whether
// the message was found. A replacement the filter rejects removes the
// message instead; a replacement whose new id belongs to another member is
// refused.
func (w *Window) Edit(id string, updated Message) bool {
	i := w.indexOf(id)
	if i < 0 {
		return false
	}
	if updated.ID != id {
		if _, taken := w.ids[updated.ID]; taken {
			return false
		}
	}
	if !w.filter.Admit(updated) {
		return w.Delete(id)
	}
	if updated.ID != id {
		delete(w.ids, id)
		w.ids[updated.ID] = struct{}{}
	}
	w.msgs.Set(i, updated)
	return true
}

// Delete removes the message with the given id, shifting later messages
// toward the head. It reports whether the message was found.
func (w *Window) Delete(id string) bool {
	i := w.indexOf(id)
	if i < 0 {
		return false
	}
	w.msgs.RemoveAt(i)
	delete(w.ids, id)
	w.bury(id)
	return true
}

// bury remembers a deleted id so that replies still carrying a snapshot of
// the message resolve as deleted. At most Capacity() ids are remembered.
func (w *Window) bury(id string) {
	if len(w.tombOrder) >= w.Capacity() {
		delete(w.tombstones, w.tombOrder[0])
		w.tombOrder = w.tombOrder[1:]
	}
	w.tombstones[id] = struct{}{}
	w.tombOrder = append(w.tombOrder, id)
}

func (w *Window) indexOf(id string) int {
	if _, ok := w.ids[id]; !ok {
		return -1
	}
	for i := w.msgs.Len() - 1; i >= 0; i-- {
		if w.msgs.At(i).ID == id {
			return i
		}
	}
	return -1
}

// Messages returns a chronological copy of the window.
func (w *Window) Messages() ([]Message, error) {
	if !w.initialized {
		return nil, ErrNotInitialized
	}
	return w.msgs.Slice(0, w.msgs.Len()), nil
}

// Horizon returns the time span covered by the window.
func (w *Window) Horizon() (TimeRange, error) {
	if !w.initialized {
		return TimeRange{}, ErrNotInitialized
	}
	n := w.msgs.Len()
	if n == 0 {
		return TimeRange{}, fmt.Errorf("%w: window is empty", ErrInvalidRange)
	}
	return NewTimeRange(w.msgs.At(0).Timestamp, w.msgs.At(n-1).Timestamp)
}

// Last returns the stop most recent messages, oldest first. It is Range(1, stop).
func (w *Window) Last(stop int) ([]Message, error) {
	return w.Range(1, stop)
}

// Range returns the messages from the stop-th most recent back to the
// start-th most recent (1 = newest), oldest first. It requires
// 1 <= start < stop <= Len().
func (w *Window) Range(start, stop int) ([]Message, error) {
	if !w.initialized {
		return nil, ErrNotInitialized
	}
	n := w.msgs.Len()
	if start < 1 || stop > n || start >= stop {
		return nil, &RangeError{Start: start, Stop: stop, Len: n}
	}
	return w.msgs.Slice(n-stop, n-start+1), nil
}

// SinceUserLast returns every message after userID's most recent message,
// oldest first. When a reply in that span points at an earlier message of
// the window, the span is extended back to the earliest such target,
// including the user's own message on the way. Only one extension is made;
// replies inside the extension are not followed.
func (w *Window) SinceUserLast(userID string) ([]Message, error) {
	if !w.initialized {
		return nil, ErrNotInitialized
	}

	n := w.msgs.Len()
	boundary, earliest := -1, -1
	var horizon *TimeRange

	for i := n - 1; i >= 0; i-- {
		m := w.msgs.At(i)
		if m.AuthorID == userID {
			boundary = i
			break
		}
		pos, err := w.replyTarget(m, &horizon)
		if err != nil {
			return nil, err
		}
		if pos >= 0 && (earliest < 0 || pos < earliest) {
			earliest = pos
		}
	}
	if boundary < 0 {
		return nil, &ScopeError{Reason: fmt.Sprintf("the last message of user %s is outside the search scope", userID)}
	}

	// The extension applies only to targets strictly older than the first
	// message after the boundary.
	if boundary == n-1 || earliest < 0 ||
		!w.msgs.At(earliest).Timestamp.Before(w.msgs.At(boundary+1).Timestamp) {
		return w.msgs.Slice(boundary+1, n), nil
	}
	return w.msgs.Slice(earliest, n), nil
}

// replyTarget returns the window position of m's reply target, or -1 when
// the reference does not count: not a reply, deleted, unavailable, rejected
// by the filter, or no longer part of the window. A resolvable target dated
// outside the window's horizon is an error.
func (w *Window) replyTarget(m Message, horizon **TimeRange) (int, error) {
	ref := m.Reference
	if ref.State != RefResolved || ref.Target == nil {
		return -1, nil
	}
	target := *ref.Target
	if !w.filter.Admit(target) {
		return -1, nil
	}
	if _, gone := w.tombstones[target.ID]; gone {
		return -1, nil
	}

	if *horizon == nil {
		h, err := w.Horizon()
		if err != nil {
			return -1, err
		}
		*horizon = &h
	}
	if !(*horizon).Contains(target.Timestamp) {
		return -1, &ScopeError{Reason: "this part of the conversation replies to messages outside the search horizon"}
	}
	return w.indexOf(target.ID), nil
}
