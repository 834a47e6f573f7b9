package window

// Filter decides whether a message may ever enter a window.
type Filter interface {
	Admit(m Message) bool
}

// Predicate reports whether a message should be excluded (e.g. the bot's own
// messages or trigger commands).
type Predicate func(m Message) bool

// KindFilter admits only ordinary messages and replies.
type KindFilter struct{}

func (KindFilter) Admit(m Message) bool {
	return m.Kind == KindDefault || m.Kind == KindReply
}

// composedFilter is KindFilter AND NOT exclude.
type composedFilter struct {
	kind    KindFilter
	exclude Predicate
}

func (f composedFilter) Admit(m Message) bool {
	if !f.kind.Admit(m) {
		return false
	}
	return f.exclude == nil || !f.exclude(m)
}

// NewFilter composes the intrinsic kind filter with a caller-supplied
// exclusion predicate. A nil predicate excludes nothing.
func NewFilter(exclude Predicate) Filter {
	return composedFilter{exclude: exclude}
}
