// Package commands parses wake-word summary requests such as "!sum 20" or
// "!sum @ana".
package commands

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is the requested action.
type Kind int

const (
	Since Kind = iota // everything since a user's last message
	Last              // the N most recent messages
	Range             // the Nth..Mth most recent messages
	Hello
	Help
)

func (k Kind) String() string {
	switch k {
	case Since:
		return "since"
	case Last:
		return "last"
	case Range:
		return "range"
	case Hello:
		return "hello"
	default:
		return "help"
	}
}

// Command is a parsed request.
type Command struct {
	Kind   Kind
	Start  int    // Range only
	Stop   int    // Last and Range
	UserID string // Since: target user, empty means the requester
}

// Parse reads text as a command for wakeWord. ok is false when text is not
// addressed to the bot at all. A non-nil error is a user-facing message.
func Parse(text, wakeWord string) (cmd Command, ok bool, err error) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, wakeWord) {
		return Command{}, false, nil
	}
	rest := text[len(wakeWord):]
	if rest != "" && rest[0] != ' ' && rest[0] != '\t' && rest[0] != '\n' {
		// "!summary" is not "!sum".
		return Command{}, false, nil
	}

	args := strings.Fields(rest)
	switch len(args) {
	case 0:
		return Command{Kind: Since}, true, nil
	case 1:
		switch strings.ToLower(args[0]) {
		case "hello":
			return Command{Kind: Hello}, true, nil
		case "help":
			return Command{Kind: Help}, true, nil
		}
		if id, isMention := parseMention(args[0]); isMention {
			return Command{Kind: Since, UserID: id}, true, nil
		}
		n, err := parseCount(args[0])
		if err != nil {
			return Command{}, true, err
		}
		return Command{Kind: Last, Stop: n}, true, nil
	case 2:
		start, err := parseCount(args[0])
		if err != nil {
			return Command{}, true, err
		}
		stop, err := parseCount(args[1])
		if err != nil {
			return Command{}, true, err
		}
		return Command{Kind: Range, Start: start, Stop: stop}, true, nil
	default:
		return Command{}, true, fmt.Errorf("too many arguments; %s", Usage(wakeWord))
	}
}

func parseCount(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%q is not a message count", s)
	}
	return n, nil
}

// parseMention accepts Discord user mentions (<@123>, <@!123>) and bare ids.
func parseMention(s string) (string, bool) {
	if strings.HasPrefix(s, "<@") && strings.HasSuffix(s, ">") {
		id := strings.TrimPrefix(strings.TrimSuffix(s[2:], ">"), "!")
		if isSnowflake(id) {
			return id, true
		}
		return "", false
	}
	// Bare numbers this long are user ids, not counts.
	if len(s) >= 15 && isSnowflake(s) {
		return s, true
	}
	return "", false
}

func isSnowflake(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Usage describes the accepted forms.
func Usage(wakeWord string) string {
	return fmt.Sprintf("usage:\n"+
		"  %[1]s            summarize everything since your last message\n"+
		"  %[1]s @user      summarize everything since that user's last message\n"+
		"  %[1]s N          summarize the N most recent messages\n"+
		"  %[1]s N M        summarize the Nth to Mth most recent messages", wakeWord)
}
