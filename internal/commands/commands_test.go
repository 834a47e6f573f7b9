package commands

import (
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   Command
		wantOK bool
	}{
		{"not addressed", "hello there", Command{}, false},
		{"longer word", "!summary 3", Command{}, false},
		{"bare wake word", "!sum", Command{Kind: Since}, true},
		{"padded", "  !sum  ", Command{Kind: Since}, true},
		{"last", "!sum 20", Command{Kind: Last, Stop: 20}, true},
		{"range", "!sum 5 10", Command{Kind: Range, Start: 5, Stop: 10}, true},
		{"mention", "!sum <@123456789>", Command{Kind: Since, UserID: "123456789"}, true},
		{"nick mention", "!sum <@!123456789>", Command{Kind: Since, UserID: "123456789"}, true},
		{"bare id", "!sum 112233445566778899", Command{Kind: Since, UserID: "112233445566778899"}, true},
		{"hello", "!sum hello", Command{Kind: Hello}, true},
		{"help", "!sum HELP", Command{Kind: Help}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := Parse(tt.text, "!sum")
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.text, err)
			}
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Parse(%q) = %+v, %v; want %+v, %v", tt.text, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		text    string
		wantMsg string
	}{
		{"!sum ten", `"ten" is not a message count`},
		{"!sum 1 two", `"two" is not a message count`},
		{"!sum 1 2 3", "too many arguments"},
		{"!sum <@abc>", `"<@abc>" is not a message count`},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			_, ok, err := Parse(tt.text, "!sum")
			if !ok {
				t.Fatalf("Parse(%q) not recognised as a command", tt.text)
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Parse(%q) error = %v, want it to contain %q", tt.text, err, tt.wantMsg)
			}
		})
	}
}

func TestUsageMentionsWakeWord(t *testing.T) {
	if u := Usage("!recap"); strings.Count(u, "!recap") != 4 {
		t.Errorf("Usage() = %q", u)
	}
}
