package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/gtfisher/esp-collector/pkg/api"
)

var readingsCmd = &cobra.Command{
	Use:   "readings",
	Short: "Inspect collected readings",
	Long:  `Query the running server or the local store for readings.`,
}

var readingsLatestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Show the latest reading and extrema",
	RunE:  runReadingsLatest,
}

var readingsHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Query the reading history",
	Long: `Query the reading history of the running server.

Examples:
  esp-collector readings history --since 6h --bucket 10m
  esp-collector readings history --limit 20`,
	RunE: runReadingsHistory,
}

var readingsRecentCmd = &cobra.Command{
	Use:   "recent",
	Short: "Print the most recent stored readings",
	Long:  `Read the most recent readings directly from the configured store.`,
	RunE:  runReadingsRecent,
}

var (
	serverURL     string
	historySince  time.Duration
	historyBucket time.Duration
	historyLimit  int
	recentLimit   int
)

func init() {
	rootCmd.AddCommand(readingsCmd)
	readingsCmd.AddCommand(readingsLatestCmd)
	readingsCmd.AddCommand(readingsHistoryCmd)
	readingsCmd.AddCommand(readingsRecentCmd)

	readingsCmd.PersistentFlags().StringVar(&serverURL, "server", "", "server URL (default http://localhost:$SERVER_PORT)")

	readingsHistoryCmd.Flags().DurationVar(&historySince, "since", 0, "only readings newer than this")
	readingsHistoryCmd.Flags().DurationVar(&historyBucket, "bucket", 0, "average readings into buckets of this width")
	readingsHistoryCmd.Flags().IntVar(&historyLimit, "limit", 0, "keep only the most recent readings")

	readingsRecentCmd.Flags().IntVar(&recentLimit, "limit", 10, "number of readings")
}

func apiClient(cfg *Config) *api.Client {
	url := serverURL
	if url == "" {
		url = cfg.ServerURL()
	}
	return api.NewClient(url, api.WithTimeout(10*time.Second))
}

func runReadingsLatest(cmd *cobra.Command, args []string) error {
	cfg := configFromContext(cmd.Context())

	snapshot, err := apiClient(cfg).GetLatest(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get latest reading: %w", err)
	}
	return printJSON(cmd.OutOrStdout(), snapshot)
}

func runReadingsHistory(cmd *cobra.Command, args []string) error {
	cfg := configFromContext(cmd.Context())

	opts := api.HistoryOptions{
		Bucket: historyBucket,
		Limit:  historyLimit,
	}
	if historySince > 0 {
		opts.Start = time.Now().Add(-historySince)
	}

	points, err := apiClient(cfg).GetHistory(cmd.Context(), opts)
	if err != nil {
		return fmt.Errorf("failed to get history: %w", err)
	}
	return printJSON(cmd.OutOrStdout(), points)
}

func runReadingsRecent(cmd *cobra.Command, args []string) error {
	cfg := configFromContext(cmd.Context())

	store, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	readings, err := store.Recent(cmd.Context(), recentLimit)
	if err != nil {
		return fmt.Errorf("failed to read store: %w", err)
	}

	if !isTerminal(cmd.OutOrStdout()) {
		return printJSON(cmd.OutOrStdout(), readings)
	}

	if len(readings) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No readings stored")
		return nil
	}
	for _, r := range readings {
		fmt.Fprintln(cmd.OutOrStdout(), r.String())
	}
	return nil
}

// printJSON indents output for humans and keeps it compact for pipes
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	if isTerminal(w) {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
