package channels

import (
	"strings"
	"testing"
	"time"
)

func TestIsAllowed(t *testing.T) {
	tests := []struct {
		allow  []string
		sender string
		want   bool
	}{
		{nil, "42", true},
		{[]string{"42"}, "42", true},
		{[]string{"42"}, "42|ana", true},
		{[]string{"@ana"}, "42|ana", true},
		{[]string{"42|ana"}, "42", true},
		{[]string{"42|ana"}, "ana", true},
		{[]string{"42"}, "43|ana", false},
		{[]string{"@bo"}, "42|ana", false},
	}
	for _, tt := range tests {
		c := NewBaseChannel("discord", tt.allow)
		if got := c.IsAllowed(tt.sender); got != tt.want {
			t.Errorf("IsAllowed(%v, %q) = %v, want %v", tt.allow, tt.sender, got, tt.want)
		}
	}
}

func TestRunningFlag(t *testing.T) {
	c := NewBaseChannel("discord", nil)
	if c.IsRunning() {
		t.Fatal("new channel reports running")
	}
	c.SetRunning(true)
	if !c.IsRunning() {
		t.Fatal("SetRunning(true) not observed")
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("hello", 10); got != "hello" {
		t.Errorf("Truncate short = %q", got)
	}
	if got := Truncate("hello world", 5); got != "hello..." {
		t.Errorf("Truncate long = %q, want %q", got, "hello...")
	}
}

func TestChunk(t *testing.T) {
	if got := Chunk("short", 2000); len(got) != 1 || got[0] != "short" {
		t.Errorf("Chunk(short) = %q", got)
	}

	lines := strings.Repeat("0123456789\n", 30) // 330 bytes
	got := Chunk(lines, 100)
	if strings.Join(got, "") != lines {
		t.Fatal("chunks do not reassemble the input")
	}
	for i, c := range got {
		if len(c) > 100 {
			t.Errorf("chunk %d has %d bytes", i, len(c))
		}
		if i < len(got)-1 && !strings.HasSuffix(c, "\n") {
			t.Errorf("chunk %d does not end at a line break: %q", i, c)
		}
	}

	blob := strings.Repeat("x", 250)
	got = Chunk(blob, 100)
	if len(got) != 3 || len(got[2]) != 50 {
		t.Errorf("Chunk(blob) lens = %d chunks", len(got))
	}
}

func TestRateLimiter(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	r := NewRateLimiter(2)
	r.now = func() time.Time { return now }

	if !r.Allow("ana") || !r.Allow("ana") {
		t.Fatal("burst of 2 rejected")
	}
	if r.Allow("ana") {
		t.Error("third request within the same instant allowed")
	}
	if !r.Allow("bo") {
		t.Error("keys are not independent")
	}

	now = now.Add(30 * time.Second)
	if !r.Allow("ana") {
		t.Error("token not refilled after 30s at 2/min")
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	r := NewRateLimiter(0)
	if r != nil {
		t.Fatal("NewRateLimiter(0) should disable limiting")
	}
	for range 100 {
		if !r.Allow("ana") {
			t.Fatal("nil limiter rejected a request")
		}
	}
}
