package cmd

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/recap/internal/config"
)

func doctorCmd() *cobra.Command {
	var probe bool
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration health",
		Run: func(cmd *cobra.Command, args []string) {
			runDoctor(probe)
		},
	}
	cmd.Flags().BoolVar(&probe, "probe", false, "send a short test text to the summarizer")
	return cmd
}

func runDoctor(probe bool) {
	fmt.Println("recap doctor")
	fmt.Printf("  Version:  %s\n", Version)
	fmt.Printf("  OS:       %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Printf("  Go:       %s\n", runtime.Version())
	fmt.Println()

	cfgPath := resolveConfigPath()
	fmt.Printf("  Config:   %s", cfgPath)
	if _, err := os.Stat(cfgPath); err != nil {
		fmt.Println(" (NOT FOUND, using defaults)")
	} else {
		fmt.Println(" (OK)")
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("  Config load error: %s\n", err)
		return
	}

	fmt.Println()
	fmt.Println("  Discord:")
	checkSecret("Token", cfg.Discord.Token)
	fmt.Printf("    %-12s %s\n", "Wake word:", cfg.Discord.WakeWord)
	fmt.Printf("    %-12s %s\n", "Channels:", listOrAll(cfg.Discord.Channels))
	fmt.Printf("    %-12s %s\n", "Allow from:", listOrAll(cfg.Discord.AllowFrom))

	fmt.Println()
	fmt.Println("  Window:")
	fmt.Printf("    %-12s %d messages\n", "Capacity:", cfg.Window.Capacity)
	fmt.Printf("    %-12s %d\n", "Warm:", len(cfg.Window.WarmChannels))

	fmt.Println()
	fmt.Println("  Summarizer:")
	fmt.Printf("    %-12s %s\n", "Provider:", cfg.Summarizer.Provider)
	if cfg.Summarizer.Provider == "openai" {
		checkSecret("API key", cfg.Summarizer.APIKey)
		fmt.Printf("    %-12s %s\n", "Model:", cfg.Summarizer.Model)
	}
	if probe {
		probeSummarizer(cfg.Summarizer)
	}

	fmt.Println()
	fmt.Println("  Observability:")
	if cfg.Telemetry.Enabled {
		fmt.Printf("    %-12s %s (%s)\n", "Tracing:", cfg.Telemetry.Endpoint, cfg.Telemetry.Protocol)
	} else {
		fmt.Printf("    %-12s disabled\n", "Tracing:")
	}
	if cfg.Metrics.Addr != "" {
		fmt.Printf("    %-12s %s/metrics\n", "Metrics:", cfg.Metrics.Addr)
	} else {
		fmt.Printf("    %-12s disabled\n", "Metrics:")
	}

	fmt.Println()
	fmt.Println("Doctor check complete.")
}

func checkSecret(name, value string) {
	if value == "" {
		fmt.Printf("    %-12s (not configured)\n", name+":")
		return
	}
	fmt.Printf("    %-12s configured\n", name+":")
}

func listOrAll(ids []string) string {
	if len(ids) == 0 {
		return "all"
	}
	return fmt.Sprint(ids)
}

func probeSummarizer(cfg config.SummarizerConfig) {
	s, err := newSummarizer(cfg)
	if err != nil {
		fmt.Printf("    %-12s FAILED (%s)\n", "Probe:", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	start := time.Now()
	_, err = s.Summarize(ctx, "ana: the deploy is at five\nbo: moving it to six, the tests are slow\nana: ok, six it is")
	if err != nil {
		fmt.Printf("    %-12s FAILED (%s)\n", "Probe:", err)
		return
	}
	fmt.Printf("    %-12s OK (%s)\n", "Probe:", time.Since(start).Round(time.Millisecond))
}
