package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/rocketship-ai/flowrunner/internal/store"
)

// HistoryFlags holds the flags for the history commands
type HistoryFlags struct {
	Limit         int
	ResultsDB     string
	ResultsDriver string
}

// NewHistoryCmd creates a new history command
func NewHistoryCmd() *cobra.Command {
	flags := &HistoryFlags{Limit: 20}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs",
		Long: `List runs recorded with --results-db (or FLOWRUNNER_RESULTS_DB).

Examples:
  # List recent runs
  flowrunner history --results-db ./runs.db

  # Show every iteration of one run
  flowrunner history show 6f1c2a9e-... --results-db ./runs.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, flags)
		},
	}

	cmd.PersistentFlags().StringVar(&flags.ResultsDB, "results-db", "", "Run history database (env: FLOWRUNNER_RESULTS_DB)")
	cmd.PersistentFlags().StringVar(&flags.ResultsDriver, "results-driver", "", "Driver for --results-db: sqlite, mysql, postgres, pgx, sqlserver")
	cmd.Flags().IntVar(&flags.Limit, "limit", flags.Limit, "Maximum number of runs to display")

	cmd.AddCommand(&cobra.Command{
		Use:   "show <run-id>",
		Short: "Show the iterations of a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryShow(cmd, flags, args[0])
		},
	})

	return cmd
}

func openHistory(ctx context.Context, flags *HistoryFlags) (*store.Store, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	driver, dsn := cfg.resultsDatabase(flags.ResultsDriver, flags.ResultsDB)
	if dsn == "" {
		return nil, errors.New("no results database configured: use --results-db or FLOWRUNNER_RESULTS_DB")
	}
	s, err := store.Open(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open results database: %w", err)
	}
	return s, nil
}

func runHistory(cmd *cobra.Command, flags *HistoryFlags) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	s, err := openHistory(ctx, flags)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	runs, err := s.ListRuns(ctx, flags.Limit)
	if err != nil {
		return err
	}
	logger().Debug("received runs", "count", len(runs))
	return displayRunsTable(cmd.OutOrStdout(), runs)
}

func displayRunsTable(out io.Writer, runs []store.Run) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(out, "No runs recorded.")
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer func() {
		if err := w.Flush(); err != nil {
			logger().Debug("failed to flush writer", "error", err)
		}
	}()

	if _, err := fmt.Fprintf(w, "RUN ID\tSTATUS\tWORKFLOW\tMODE\tPASSED/TOTAL\tDURATION\tSTARTED\n"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "------\t------\t--------\t----\t------------\t--------\t-------\n"); err != nil {
		return err
	}

	for _, run := range runs {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d/%d\t%s\t%s\n",
			truncate(run.ID, 12),
			statusLabel(run.Failed, run.Total),
			truncate(run.Workflow, 30),
			run.Mode,
			run.Passed,
			run.Total,
			formatDuration(run.FinishedAt.Sub(run.StartedAt)),
			formatTime(run.StartedAt),
		); err != nil {
			return err
		}
	}
	return nil
}

func runHistoryShow(cmd *cobra.Command, flags *HistoryFlags, id string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	s, err := openHistory(ctx, flags)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	run, iterations, err := s.GetRun(ctx, id)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Run:      %s\n", run.ID)
	_, _ = fmt.Fprintf(out, "Workflow: %s (%s)\n", run.Workflow, run.Mode)
	_, _ = fmt.Fprintf(out, "Started:  %s\n", run.StartedAt.Local().Format(time.RFC3339))
	_, _ = fmt.Fprintf(out, "Result:   %s %d/%d passed\n\n", statusLabel(run.Failed, run.Total), run.Passed, run.Total)

	for _, it := range iterations {
		icon := color.GreenString("✓")
		if !it.Success {
			icon = color.RedString("✗")
		}
		_, _ = fmt.Fprintf(out, "%s %d. %s (%s)\n", icon, it.Index+1, it.Data, formatDuration(it.Duration))
		if it.Error != "" {
			_, _ = fmt.Fprintf(out, "     Error: %s\n", it.Error)
		}
	}
	return nil
}

func statusLabel(failed, total int) string {
	switch {
	case total == 0:
		return "? EMPTY"
	case failed > 0:
		return "✗ FAILED"
	default:
		return "✓ PASSED"
	}
}

func formatDuration(d time.Duration) string {
	ms := d.Milliseconds()
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	} else if ms < 60000 {
		return fmt.Sprintf("%.1fs", float64(ms)/1000)
	}
	minutes := ms / 60000
	seconds := (ms % 60000) / 1000
	return fmt.Sprintf("%dm%ds", minutes, seconds)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("Jan 02")
	}
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}
