package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/rocketship-ai/flowrunner/internal/dsl"
	"github.com/rocketship-ai/flowrunner/internal/runner"
)

// RunFlags holds the flags for the run command
type RunFlags struct {
	sessionFlags
	Options       string
	Delay         time.Duration
	StopOnFailure bool
	MaxIterations int
	DataPath      string
	Vars          map[string]string
}

// NewRunCmd creates a new run command
func NewRunCmd() *cobra.Command {
	return newRunCmd(&RunFlags{DataPath: dsl.DefaultRowsPath})
}

func newRunCmd(flags *RunFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <template_file> <data_file>",
		Short: "Replay a workflow template once per data row",
		Long: `Replay a workflow template once per data row on a single browser session.

The template's {{placeholder}} tokens are filled from each row of the data
file. Every iteration is reported; the command exits non-zero when any
iteration failed.

Options can be given as JSON (headless, delayBetweenTests, stopOnFirstFailure,
maxIterations). Explicit flags take precedence over --options, which takes
precedence over the config file.

Examples:
  flowrunner run google_form_template.json test_data.json
  flowrunner run form.json data.json --options '{"headless": true, "maxIterations": 3}'
  flowrunner run form.yaml users.yaml --data-path .users --var baseUrl=http://localhost:8080`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runContinuous(cmd, args[0], args[1], flags)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&flags.Options, "options", "", "Runner options as JSON")
	cmd.Flags().DurationVar(&flags.Delay, "delay", runner.DefaultDelayBetweenTests, "Pause between iterations")
	cmd.Flags().BoolVar(&flags.StopOnFailure, "stop-on-failure", false, "Stop after the first failing iteration")
	cmd.Flags().IntVar(&flags.MaxIterations, "max-iterations", 0, "Run at most this many rows (0 means all)")
	cmd.Flags().StringVar(&flags.DataPath, "data-path", flags.DataPath, "jq path selecting the rows in the data file")
	cmd.Flags().StringToStringVarP(&flags.Vars, "var", "v", nil, "Set variables that override row values (can be used multiple times: --var key=value)")
	return cmd
}

// resolveOptions layers config file < --options < explicit flags.
func resolveOptions(cmd *cobra.Command, cfg *Config, flags *RunFlags) (runner.Options, error) {
	opts, err := cfg.Options.ApplyJSON(flags.Options)
	if err != nil {
		return opts, err
	}

	changed := cmd.Flags().Changed
	if changed("headless") {
		opts.Headless = flags.headless
	}
	if changed("delay") {
		if flags.Delay < 0 {
			return opts, fmt.Errorf("--delay must not be negative, got %s", flags.Delay)
		}
		opts.DelayBetweenTests = dsl.Millis(flags.Delay.Milliseconds())
	}
	if changed("stop-on-failure") {
		opts.StopOnFirstFailure = flags.StopOnFailure
	}
	if changed("max-iterations") {
		if flags.MaxIterations < 0 {
			return opts, fmt.Errorf("--max-iterations must not be negative, got %d", flags.MaxIterations)
		}
		opts.MaxIterations = flags.MaxIterations
	}
	return opts, nil
}

func runContinuous(cmd *cobra.Command, templatePath, dataPath string, flags *RunFlags) error {
	cfg, err := flags.loadConfig()
	if err != nil {
		return err
	}
	opts, err := resolveOptions(cmd, cfg, flags)
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

	logger().Debug("starting continuous run",
		"template", templatePath,
		"data", dataPath,
		"headless", opts.Headless,
		"delay", opts.Delay(),
		"stop_on_first_failure", opts.StopOnFirstFailure,
		"max_iterations", opts.MaxIterations)

	report, err := r.RunContinuous(ctx, runner.ContinuousConfig{
		TemplatePath: templatePath,
		DataPath:     dataPath,
		RowsPath:     flags.DataPath,
		Vars:         flags.Vars,
		Options:      opts,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return fmt.Errorf("run interrupted: %w", err)
		}
		return err
	}

	if r.Recorder != nil {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Run ID: %s\n", color.CyanString(report.RunID))
	}
	if report.Summary().Failed > 0 {
		return runner.ErrTestsFailed
	}
	return nil
}
