package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/pathmend/pathmend/internal/router"
)

func newStatsCmd() *cobra.Command {
	var addr string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show resolution statistics from a running server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStats(cmd, addr, jsonOutput)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Server address (default from config)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func runStats(cmd *cobra.Command, addr string, jsonOutput bool) error {
	out := cmd.OutOrStdout()

	if addr == "" {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		addr = fmt.Sprintf("http://%s:%d", cfg.Server.Host, cfg.Server.Port)
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(addr + "/stats")
	if err != nil {
		return fmt.Errorf("is the server running? %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("stats request failed: %s", resp.Status)
	}

	if jsonOutput {
		_, err := out.Write(append(body, '\n'))
		return err
	}

	var snap router.Snapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		return fmt.Errorf("decode stats: %w", err)
	}

	if isTerminal() {
		return writeAligned(out, snap)
	}
	return writePlain(out, snap)
}

func isTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// writeAligned prints a columned table for interactive use.
func writeAligned(out io.Writer, s router.Snapshot) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "total requests\t%d\n", s.TotalRequests)
	fmt.Fprintf(w, "exact matches\t%d\n", s.ExactMatches)
	fmt.Fprintf(w, "fuzzy matches\t%d\n", s.FuzzyMatches)
	fmt.Fprintf(w, "alias matches\t%d\n", s.AliasMatches)
	fmt.Fprintf(w, "not found\t%d\n", s.NotFound)
	fmt.Fprintf(w, "timed out\t%d\n", s.TimedOut)
	fmt.Fprintf(w, "avg latency\t%.2fms\n", s.AverageLatencyMs)
	fmt.Fprintf(w, "p99 latency\t%.2fms\n", s.P99LatencyMs)
	return w.Flush()
}

// writePlain prints key=value lines for piping.
func writePlain(out io.Writer, s router.Snapshot) error {
	_, err := fmt.Fprintf(out,
		"total=%d exact=%d fuzzy=%d alias=%d not_found=%d timed_out=%d avg_ms=%.2f p99_ms=%.2f\n",
		s.TotalRequests, s.ExactMatches, s.FuzzyMatches, s.AliasMatches,
		s.NotFound, s.TimedOut, s.AverageLatencyMs, s.P99LatencyMs)
	return err
}
