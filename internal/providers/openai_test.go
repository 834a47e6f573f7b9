package providers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func newTestProvider(t *testing.T, h http.HandlerFunc) (*OpenAIProvider, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	p := NewOpenAIProvider("test", "sk-test", srv.URL+"/", "tiny-model")
	p.retryConfig.MinDelay = time.Millisecond
	return p, srv
}

func TestSummarize(t *testing.T) {
	var got map[string]interface{}
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer sk-test" {
			t.Errorf("Authorization = %q", auth)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  ana greeted bo  "},"finish_reason":"stop"}],"usage":{"prompt_tokens":10,"completion_tokens":4,"total_tokens":14}}`))
	})

	out, err := p.Summarize(context.Background(), "ana: hi\nbo: hello")
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if out != "ana greeted bo" {
		t.Errorf("Summarize() = %q", out)
	}
	if got["model"] != "tiny-model" {
		t.Errorf("model = %v", got["model"])
	}
	msgs, _ := got["messages"].([]interface{})
	if len(msgs) != 2 {
		t.Fatalf("sent %d messages, want 2", len(msgs))
	}
	if user := msgs[1].(map[string]interface{}); user["content"] != "ana: hi\nbo: hello" {
		t.Errorf("user content = %v", user["content"])
	}
}

func TestSummarize_RetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"slow down"}`))
			return
		}
		w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	})

	out, err := p.Summarize(context.Background(), "a: b")
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if out != "ok" || calls.Load() != 2 {
		t.Errorf("out = %q after %d calls", out, calls.Load())
	}
}

func TestSummarize_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`bad model`))
	})

	_, err := p.Summarize(context.Background(), "a: b")
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) || httpErr.Status != http.StatusBadRequest {
		t.Fatalf("error = %v, want HTTP 400", err)
	}
	if !strings.Contains(err.Error(), "bad model") {
		t.Errorf("error %q should carry the body", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestSummarize_EmptyContent(t *testing.T) {
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"content":""},"finish_reason":"length"}]}`))
	})
	if _, err := p.Summarize(context.Background(), "a: b"); err == nil {
		t.Error("empty completion must be an error")
	}
}

func TestSummaryBudget(t *testing.T) {
	tests := []struct {
		n    int
		want int
	}{
		{0, 64},
		{100, 64},
		{2000, 400},
		{100000, 1024},
	}
	for _, tt := range tests {
		if got := summaryBudget(strings.Repeat("x", tt.n)); got != tt.want {
			t.Errorf("summaryBudget(%d chars) = %d, want %d", tt.n, got, tt.want)
		}
	}
}

func TestParseRetryAfter(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"", 0},
		{"3", 3 * time.Second},
		{"-1", 0},
		{"Wed, 21 Oct 2015 07:28:00 GMT", 0},
	}
	for _, tt := range tests {
		if got := ParseRetryAfter(tt.in); got != tt.want {
			t.Errorf("ParseRetryAfter(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRetryDo_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cfg := RetryConfig{Attempts: 5, MinDelay: time.Hour}

	_, err := RetryDo(ctx, cfg, func() (int, error) {
		return 0, &HTTPError{Status: 503}
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestExtractProvider(t *testing.T) {
	text := "a: hi\nb: this is the longest line of all\nc: medium line\nd: ok"
	out, err := ExtractProvider{MaxLines: 2}.Summarize(context.Background(), text)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	want := "b: this is the longest line of all\nc: medium line"
	if out != want {
		t.Errorf("Summarize() = %q, want %q", out, want)
	}
}
