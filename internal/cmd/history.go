package cmd

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harrison/tvscan/internal/config"
	"github.com/harrison/tvscan/internal/display"
	"github.com/harrison/tvscan/internal/history"
)

// NewHistoryCommand creates the 'tvscan history' command
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent scans or the drift history of one file",
		Long: `Display runs recorded in the history database.

Without --file, lists the most recent scans with their counters and status.
With --file, lists every drift recorded for that manifest filename.`,
		Args: cobra.NoArgs,
		RunE: runHistory,
	}

	cmd.Flags().Int("limit", 10, "Number of recent runs to show (0 = all)")
	cmd.Flags().String("file", "", "Show drift history for this manifest filename")
	cmd.Flags().String("db", "", "History database (default: history.db_path from config)")
	cmd.Flags().String("config", "", "Path to config file (default: .tvscan/config.yaml)")

	return cmd
}

// historyDBPath resolves --db, falling back to the configured database.
func historyDBPath(cmd *cobra.Command) (string, error) {
	if dbPath, _ := cmd.Flags().GetString("db"); dbPath != "" {
		return dbPath, nil
	}

	cfg, err := loadConfig(cmd, ".")
	if err != nil {
		return "", err
	}
	home, err := config.HomeDir(".")
	if err != nil {
		return "", err
	}
	cfg.ResolveState(home)
	return cfg.History.DBPath, nil
}

// runHistory executes the history command
func runHistory(cmd *cobra.Command, args []string) error {
	output := cmd.OutOrStdout()
	limit, _ := cmd.Flags().GetInt("limit")
	filename, _ := cmd.Flags().GetString("file")

	dbPath, err := historyDBPath(cmd)
	if err != nil {
		return err
	}

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		fmt.Fprintf(output, "No scan history found at %s\n", dbPath)
		return nil
	}

	store, err := history.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open history store: %w", err)
	}
	defer store.Close()

	if filename != "" {
		events, err := store.DriftHistory(cmd.Context(), filename)
		if err != nil {
			return fmt.Errorf("get drift history: %w", err)
		}
		if len(events) == 0 {
			fmt.Fprintf(output, "No drift recorded for %s\n", filename)
			return nil
		}
		printDriftHistory(output, filename, events)
		return nil
	}

	runs, err := store.RecentRuns(cmd.Context(), limit)
	if err != nil {
		return fmt.Errorf("get recent runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Fprintln(output, "No scans recorded yet")
		return nil
	}
	printRuns(output, runs)
	return nil
}

// printRuns formats recent runs as a table, newest first
func printRuns(w io.Writer, runs []*history.Run) {
	cyan := color.New(color.FgCyan, color.Bold)
	cyan.Fprintf(w, "\n=== Recent Scans (%d) ===\n\n", len(runs))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tSTATUS\tSEEN\tNEW\tKNOWN\tDRIFT\tSKIP\tSIZE\tDIRECTORY")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%d\t%s\t%s\n",
			formatTimestamp(r.StartedAt),
			statusColor(r.Status).Sprint(r.Status),
			r.FilesSeen, r.NewRecorded, r.AlreadyKnown, r.Drifted, r.Skipped,
			display.FormatGB(r.TotalGB),
			r.Directory,
		)
	}
	tw.Flush()
	fmt.Fprintln(w)
}

// printDriftHistory lists every recorded size change of one file, newest first
func printDriftHistory(w io.Writer, filename string, events []*history.DriftEvent) {
	cyan := color.New(color.FgCyan, color.Bold)
	yellow := color.New(color.FgYellow)
	gray := color.New(color.FgHiBlack)

	cyan.Fprintf(w, "\n=== Drift History for %s ===\n\n", filename)
	fmt.Fprintf(w, "Total events: %d\n\n", len(events))

	for _, e := range events {
		fmt.Fprintf(w, "%s ", formatTimestamp(e.ObservedAt))
		gray.Fprintf(w, "(run %s)\n", e.RunID)
		fmt.Fprintf(w, "  Path: %s\n", e.FullPath)
		fmt.Fprintf(w, "  Size: %d -> %d bits ", e.PreviousSizeBits, e.CurrentSizeBits)
		yellow.Fprintf(w, "(%+d)\n", e.DeltaBits())
	}
	fmt.Fprintln(w)
}

func statusColor(status string) *color.Color {
	switch status {
	case "DRIFT":
		return color.New(color.FgYellow)
	case "PARTIAL":
		return color.New(color.FgRed)
	default:
		return color.New(color.FgGreen)
	}
}

// formatTimestamp renders a stored time in local time
func formatTimestamp(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04:05")
}
