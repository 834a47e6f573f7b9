// Package window keeps a bounded, chronologically ordered buffer of the most
// recent eligible messages of one chat channel and answers the two selection
// queries used for summaries: a newest-first index range, and "everything
// since a user's last message" widened to cover the replies inside it.
package window

import "time"

// Kind classifies a chat message. Only ordinary messages and replies are
// eligible for a window; everything else (joins, pins, boosts, thread
// notices) is administrative noise.
type Kind int

const (
	KindDefault Kind = iota
	KindReply
	KindSystem
)

func (k Kind) String() string {
	switch k {
	case KindDefault:
		return "default"
	case KindReply:
		return "reply"
	default:
		return "system"
	}
}

// RefState is the outcome of resolving a message's reply reference.
type RefState int

const (
	RefNone        RefState = iota // not a reply
	RefResolved                    // target available in Reference.Target
	RefDeleted                     // target was deleted upstream
	RefUnavailable                 // reference exists but the platform did not resolve it
)

// Reference is the reply target of a message.
type Reference struct {
	State  RefState
	Target *Message // set only when State == RefResolved
}

// Resolved returns a resolved reference to target.
func Resolved(target Message) Reference {
	return Reference{State: RefResolved, Target: &target}
}

// Message is a read-only snapshot of a chat message.
type Message struct {
	ID         string
	ChannelID  string
	AuthorID   string
	AuthorName string // display name used when rendering
	Timestamp  time.Time
	Content    string
	Kind       Kind
	Reference  Reference
}

// IsReply reports whether the message carries a reply reference of any state.
func (m Message) IsReply() bool {
	return m.Reference.State != RefNone
}
