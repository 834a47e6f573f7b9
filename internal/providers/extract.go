package providers

import (
	"context"
	"strings"
)

// ExtractProvider is an offline Summarizer: it keeps the longest lines of the
// conversation, in their original order, within a character budget of about
// 80% of the input. Useful without model access and in tests.
type ExtractProvider struct {
	MaxLines int // default 5
}

func (ExtractProvider) Name() string { return "extract" }

func (p ExtractProvider) Summarize(_ context.Context, text string) (string, error) {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	maxLines := p.MaxLines
	if maxLines <= 0 {
		maxLines = 5
	}
	budget := len(text) * 8 / 10

	keep := make([]bool, len(lines))
	for n, used := 0, 0; n < maxLines; n++ {
		best := -1
		for i, l := range lines {
			if !keep[i] && (best < 0 || len(l) > len(lines[best])) {
				best = i
			}
		}
		if best < 0 || (n > 0 && used+len(lines[best]) > budget) {
			break
		}
		keep[best] = true
		used += len(lines[best])
	}

	var out []string
	for i, l := range lines {
		if keep[i] {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n"), nil
}
