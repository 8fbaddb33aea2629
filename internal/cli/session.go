package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rocketship-ai/flowrunner/internal/browser"
	"github.com/rocketship-ai/flowrunner/internal/runner"
	"github.com/rocketship-ai/flowrunner/internal/store"
)

// newLauncher is swapped out in tests.
var newLauncher = func() browser.Launcher {
	return browser.ChromeLauncher{Logger: logger()}
}

// sessionFlags are shared by the commands that drive a browser.
type sessionFlags struct {
	headless       bool
	elementTimeout time.Duration
	envFile        string
	resultsDB      string
	resultsDriver  string
}

func (f *sessionFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.headless, "headless", false, "Run Chrome without a visible window")
	cmd.Flags().DurationVar(&f.elementTimeout, "element-timeout", browser.DefaultElementTimeout, "How long to wait for an element before a step fails")
	cmd.Flags().StringVar(&f.envFile, "env-file", "", "Load environment variables from a .env file (existing variables win)")
	cmd.Flags().StringVar(&f.resultsDB, "results-db", "", "Record the run in this database (env: FLOWRUNNER_RESULTS_DB)")
	cmd.Flags().StringVar(&f.resultsDriver, "results-driver", "", "Driver for --results-db: sqlite, mysql, postgres, pgx, sqlserver (env: FLOWRUNNER_RESULTS_DRIVER)")
}

// loadConfig applies the env file first so it can feed FLOWRUNNER_* settings.
func (f *sessionFlags) loadConfig() (*Config, error) {
	if err := applyEnvFile(f.envFile); err != nil {
		return nil, err
	}
	return LoadConfig()
}

// newRunner wires a runner from config and flags. The returned cleanup
// closes the history store when one was opened.
func (f *sessionFlags) newRunner(ctx context.Context, cmd *cobra.Command, cfg *Config) (*runner.Runner, func(), error) {
	noSandbox, err := chromeSandbox()
	if err != nil {
		return nil, nil, err
	}

	elementTimeout := f.elementTimeout
	if !cmd.Flags().Changed("element-timeout") {
		if fromConfig, _ := cfg.elementTimeout(); fromConfig > 0 {
			elementTimeout = fromConfig
		}
	}

	r := runner.New(newLauncher(), logger())
	r.Out = cmd.OutOrStdout()
	r.Browser = browser.Options{
		ElementTimeout: elementTimeout,
		ExecPath:       cfg.ChromePath,
		NoSandbox:      noSandbox,
	}

	cleanup := func() {}
	driver, dsn := cfg.resultsDatabase(f.resultsDriver, f.resultsDB)
	if dsn != "" {
		s, err := store.Open(ctx, driver, dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open results database: %w", err)
		}
		r.Recorder = s
		cleanup = func() {
			if err := s.Close(); err != nil {
				logger().Debug("failed to close results database", "error", err)
			}
		}
	}
	return r, cleanup, nil
}

// artifactDir picks the screenshot directory: flag, then
// FLOWRUNNER_ARTIFACT_DIR (resolved by the artifacts package), then config.
func artifactDir(flag string, cfg *Config) string {
	if flag != "" {
		return flag
	}
	if os.Getenv("FLOWRUNNER_ARTIFACT_DIR") != "" {
		return ""
	}
	return cfg.ArtifactDir
}
