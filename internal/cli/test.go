package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rocketship-ai/flowrunner/internal/runner"
)

const defaultTestName = "ecommerce"

var workflowExtensions = []string{".json", ".yaml", ".yml"}

// TestFlags holds the flags for the test command
type TestFlags struct {
	sessionFlags
	Dir           string
	Inspect       bool
	Settle        time.Duration
	ScreenshotDir string
}

// NewTestCmd creates a new test command
func NewTestCmd() *cobra.Command {
	flags := &TestFlags{}

	cmd := &cobra.Command{
		Use:   "test [name]",
		Short: "Run one workflow once",
		Long: `Run a single workflow file once. The name is resolved to <name>.json
(or .yaml/.yml) in --dir and defaults to "ecommerce".

The first failing step ends the run: a screenshot is saved and the command
exits non-zero.

Examples:
  flowrunner test                      # runs ./ecommerce.json
  flowrunner test signup --inspect     # log the page's input elements first
  flowrunner test ./flows/article.yaml --headless`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := defaultTestName
			if len(args) == 1 {
				name = args[0]
			}
			return runTest(cmd, name, flags)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&flags.Dir, "dir", "d", ".", "Directory the workflow name is resolved in")
	cmd.Flags().BoolVar(&flags.Inspect, "inspect", false, "Log the page's input elements before running the steps")
	cmd.Flags().DurationVar(&flags.Settle, "settle", runner.DefaultSettle, "Wait after the first page load before running the steps")
	cmd.Flags().StringVar(&flags.ScreenshotDir, "screenshot-dir", "", "Where error screenshots are written (env: FLOWRUNNER_ARTIFACT_DIR)")
	return cmd
}

// resolveWorkflowPath maps a test name to a workflow file. A name that is
// already an existing file is used as is.
func resolveWorkflowPath(dir, name string) (string, error) {
	if info, err := os.Stat(name); err == nil && !info.IsDir() {
		return name, nil
	}
	if info, err := os.Stat(filepath.Join(dir, name)); err == nil && !info.IsDir() {
		return filepath.Join(dir, name), nil
	}
	for _, ext := range workflowExtensions {
		path := filepath.Join(dir, name+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("no workflow named %q in %s (looked for %s.json, .yaml, .yml)", name, dir, name)
}

func runTest(cmd *cobra.Command, name string, flags *TestFlags) error {
	path, err := resolveWorkflowPath(flags.Dir, name)
	if err != nil {
		return err
	}
	if flags.Settle < 0 {
		return errors.New("--settle must not be negative")
	}

	cfg, err := flags.loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r, cleanup, err := flags.newRunner(ctx, cmd, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	headless := cfg.Options.Headless
	if cmd.Flags().Changed("headless") {
		headless = flags.headless
	}

	report, err := r.RunSingle(ctx, runner.SingleConfig{
		WorkflowPath:  path,
		Headless:      headless,
		Settle:        flags.Settle,
		Inspect:       flags.Inspect,
		ScreenshotDir: artifactDir(flags.ScreenshotDir, cfg),
	})
	if report != nil && r.Recorder != nil {
		logger().Info("run recorded", "run_id", report.RunID)
	}
	if err != nil {
		return fmt.Errorf("test %s failed: %w", name, err)
	}
	return nil
}
