package cmd

import (
	"testing"

	"github.com/nextlevelbuilder/recap/internal/config"
)

func TestNewSummarizer(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.SummarizerConfig
		wantName string
		wantErr  bool
	}{
		{"extract", config.SummarizerConfig{Provider: "extract"}, "extract", false},
		{"openai", config.SummarizerConfig{Provider: "openai", APIKey: "sk-test", Model: "gpt-4o-mini"}, "openai", false},
		{"openai without key", config.SummarizerConfig{Provider: "openai"}, "", true},
		{"unknown", config.SummarizerConfig{Provider: "carrier-pigeon"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := newSummarizer(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("newSummarizer() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && s.Name() != tt.wantName {
				t.Errorf("Name() = %q, want %q", s.Name(), tt.wantName)
			}
		})
	}
}
