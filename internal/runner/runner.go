// Package runner replays workflows against a browser session and reports
// the results.
package runner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"

	"github.com/rocketship-ai/flowrunner/internal/browser"
	"github.com/rocketship-ai/flowrunner/internal/dsl"
	"github.com/rocketship-ai/flowrunner/internal/plugins"
	"github.com/rocketship-ai/flowrunner/internal/store"

	// Step handlers register themselves with the default registry.
	_ "github.com/rocketship-ai/flowrunner/internal/plugins/article"
	_ "github.com/rocketship-ai/flowrunner/internal/plugins/browser"
	_ "github.com/rocketship-ai/flowrunner/internal/plugins/delay"
	_ "github.com/rocketship-ai/flowrunner/internal/plugins/log"
)

const (
	ModeContinuous = "continuous"
	ModeSingle     = "single"
)

// Recorder persists finished runs.
type Recorder interface {
	SaveRun(ctx context.Context, run store.Run, iterations []store.Iteration) error
}

// Runner owns the collaborators shared by both run modes.
type Runner struct {
	Launcher browser.Launcher
	// Registry defaults to plugins.Default().
	Registry *plugins.Registry
	Logger   *slog.Logger
	// Out receives the console report; defaults to stdout.
	Out io.Writer
	// Recorder is optional.
	Recorder Recorder
	// Browser holds the session options; Headless is overridden per run.
	Browser browser.Options

	now   func() time.Time
	newID func() string
}

// New returns a runner that opens sessions with launcher.
func New(launcher browser.Launcher, logger *slog.Logger) *Runner {
	return &Runner{Launcher: launcher, Logger: logger}
}

// Report describes a finished run.
type Report struct {
	RunID      string
	Workflow   string
	Mode       string
	StartedAt  time.Time
	FinishedAt time.Time
	Results    []Result
}

func (r *Report) Summary() Summary {
	return Summarize(r.Results)
}

// Elapsed is the wall time of the run.
func (r *Report) Elapsed() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

func (r *Runner) log() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

func (r *Runner) out() io.Writer {
	if r.Out != nil {
		return r.Out
	}
	return os.Stdout
}

func (r *Runner) registry() *plugins.Registry {
	if r.Registry != nil {
		return r.Registry
	}
	return plugins.Default()
}

func (r *Runner) clock() time.Time {
	if r.now != nil {
		return r.now()
	}
	return time.Now()
}

func (r *Runner) runID() string {
	if r.newID != nil {
		return r.newID()
	}
	return uuid.NewString()
}

func (r *Runner) printf(c *color.Color, format string, args ...interface{}) {
	if c == nil {
		_, _ = fmt.Fprintf(r.out(), format, args...)
		return
	}
	_, _ = c.Fprintf(r.out(), format, args...)
}

// withSession launches a browser, hands fn an environment bound to it and
// closes the browser however fn returns.
func (r *Runner) withSession(ctx context.Context, headless bool, baseDir string, fn func(env *plugins.Env) error) error {
	opts := r.Browser
	opts.Headless = headless

	driver, err := r.Launcher.Launch(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to launch browser: %w", err)
	}
	defer func() {
		if err := driver.Close(); err != nil {
			r.log().Warn("failed to close browser", "error", err)
		}
		r.log().Debug("browser session closed")
	}()

	env := &plugins.Env{
		Driver:   driver,
		Logger:   r.log(),
		BaseDir:  baseDir,
		Registry: r.registry(),
	}
	return fn(env)
}

// runSteps navigates to the workflow URL when one is set, then executes
// every step in order, stopping at the first failure.
func runSteps(ctx context.Context, env *plugins.Env, wf dsl.Workflow) error {
	if wf.URL != "" {
		if err := env.Driver.Navigate(ctx, wf.URL); err != nil {
			return err
		}
	}
	return executeSteps(ctx, env, wf.Steps)
}

func executeSteps(ctx context.Context, env *plugins.Env, steps []dsl.Step) error {
	for i, step := range steps {
		if err := env.Execute(ctx, step); err != nil {
			return fmt.Errorf("step %d %s: %w", i+1, step.Label(), err)
		}
	}
	return nil
}

func (r *Runner) record(ctx context.Context, report *Report) {
	if r.Recorder == nil {
		return
	}

	s := report.Summary()
	run := store.Run{
		ID:         report.RunID,
		Workflow:   report.Workflow,
		Mode:       report.Mode,
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
		Total:      s.Total,
		Passed:     s.Successful,
		Failed:     s.Failed,
	}
	iterations := make([]store.Iteration, 0, len(report.Results))
	for i, res := range report.Results {
		iterations = append(iterations, store.Iteration{
			Index:    i,
			Success:  res.Success,
			Data:     res.DataJSON(),
			Error:    res.Error,
			Duration: res.Duration,
		})
	}

	// The run is saved even when ctx was cancelled.
	if err := r.Recorder.SaveRun(context.WithoutCancel(ctx), run, iterations); err != nil {
		r.log().Warn("failed to record run", "run_id", run.ID, "error", err)
		return
	}
	r.log().Debug("run recorded", "run_id", run.ID)
}

func workflowName(doc interface{}, path string) string {
	if m, ok := doc.(map[string]interface{}); ok {
		if name, ok := m["name"].(string); ok && name != "" && !dsl.IsTemplateString(name) {
			return name
		}
	}
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}

func absDir(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Dir(path)
	}
	return filepath.Dir(abs)
}
