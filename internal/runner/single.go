package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"

	"github.com/rocketship-ai/flowrunner/internal/artifacts"
	"github.com/rocketship-ai/flowrunner/internal/dsl"
	"github.com/rocketship-ai/flowrunner/internal/plugins"
	"github.com/rocketship-ai/flowrunner/internal/plugins/delay"
)

// DefaultSettle is how long the single-test runner lets the first page load
// before running steps.
const DefaultSettle = 5 * time.Second

// SingleConfig describes a one-shot run of a workflow file.
type SingleConfig struct {
	WorkflowPath string
	Headless     bool
	Settle       time.Duration
	// Inspect logs the page's input elements after the settle wait.
	Inspect bool
	// ScreenshotDir overrides the artifact directory for error screenshots.
	ScreenshotDir string
}

// RunSingle runs a workflow once. The first failing step ends the run: a
// screenshot is saved, the browser is closed and the step error returned.
func (r *Runner) RunSingle(ctx context.Context, cfg SingleConfig) (*Report, error) {
	doc, err := dsl.LoadDocument(cfg.WorkflowPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load workflow: %w", err)
	}
	wf, err := dsl.DecodeWorkflow(dsl.Substitute(doc, nil))
	if err != nil {
		return nil, fmt.Errorf("invalid workflow %s: %w", cfg.WorkflowPath, err)
	}

	report := &Report{
		RunID:     r.runID(),
		Workflow:  workflowName(doc, cfg.WorkflowPath),
		Mode:      ModeSingle,
		StartedAt: r.clock(),
	}
	r.printf(color.New(color.Bold), "🚀 Starting test: %s\n", report.Workflow)

	var stepErr error
	runErr := r.withSession(ctx, cfg.Headless, absDir(cfg.WorkflowPath), func(env *plugins.Env) error {
		stepErr = r.single(ctx, env, wf, cfg)
		if stepErr != nil {
			r.printf(color.New(color.FgRed), "❌ Test failed: %s\n", stepErr)
			r.saveScreenshot(ctx, env, report, cfg.ScreenshotDir)
		}
		return stepErr
	})
	report.FinishedAt = r.clock()

	if runErr != nil && stepErr == nil {
		// The browser never started.
		return report, runErr
	}

	res := Result{Success: runErr == nil, Duration: report.Elapsed()}
	if runErr != nil {
		res.Error = runErr.Error()
	}
	report.Results = []Result{res}
	r.record(ctx, report)

	if runErr != nil {
		return report, runErr
	}
	r.printf(color.New(color.FgGreen), "✅ Test completed successfully: %s\n", report.Workflow)
	return report, nil
}

func (r *Runner) single(ctx context.Context, env *plugins.Env, wf dsl.Workflow, cfg SingleConfig) error {
	if wf.URL != "" {
		if err := env.Driver.Navigate(ctx, wf.URL); err != nil {
			return err
		}
	}
	if err := delay.Sleep(ctx, cfg.Settle); err != nil {
		return err
	}
	if cfg.Inspect {
		r.inspect(ctx, env)
	}
	return executeSteps(ctx, env, wf.Steps)
}

// inspect logs the input elements on the page to help with writing selectors.
// Failures are logged and do not fail the run.
func (r *Runner) inspect(ctx context.Context, env *plugins.Env) {
	r.printf(nil, "📋 Capturing form structure for debugging...\n")
	inputs, err := env.Driver.Inputs(ctx)
	if err != nil {
		env.Log().Warn("debug info collection failed", "error", err)
		return
	}
	r.printf(nil, "Found %d input elements\n", len(inputs))
	for i, in := range inputs {
		r.printf(nil, "Input %d: type=%q, name=%q, id=%q, placeholder=%q, aria-label=%q, aria-labelledby=%q\n",
			i, in.Type, in.Name, in.ID, in.Placeholder, in.AriaLabel, in.AriaLabelledBy)
	}
}

func (r *Runner) saveScreenshot(ctx context.Context, env *plugins.Env, report *Report, dirOverride string) {
	// ctx may already be cancelled; the screenshot is still worth taking.
	data, err := env.Driver.Screenshot(context.WithoutCancel(ctx))
	if err != nil {
		env.Log().Warn("failed to take screenshot", "error", err)
		return
	}
	dir, err := artifacts.Dir(dirOverride)
	if err != nil {
		env.Log().Warn("failed to resolve screenshot directory", "error", err)
		return
	}
	path, err := artifacts.Write(dir, artifacts.ScreenshotName(report.Workflow, report.RunID, r.clock()), data)
	if err != nil {
		env.Log().Warn("failed to save screenshot", "error", err)
		return
	}
	r.printf(nil, "📸 Screenshot saved: %s\n", path)
}
