package runner

import (
	"context"
	"fmt"

	"github.com/fatih/color"

	"github.com/rocketship-ai/flowrunner/internal/dsl"
	"github.com/rocketship-ai/flowrunner/internal/plugins"
	"github.com/rocketship-ai/flowrunner/internal/plugins/delay"
)

// ContinuousConfig describes a data-driven run.
type ContinuousConfig struct {
	TemplatePath string
	DataPath     string
	// RowsPath is the jq path selecting rows; empty means dsl.DefaultRowsPath.
	RowsPath string
	// Vars override row values with the same key.
	Vars    map[string]string
	Options Options
}

// RunContinuous replays the template once per data row on one shared
// browser session. Iteration failures are recorded in the report; the
// returned error is reserved for problems that stop the run as a whole.
func (r *Runner) RunContinuous(ctx context.Context, cfg ContinuousConfig) (*Report, error) {
	template, err := dsl.LoadDocument(cfg.TemplatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load template: %w", err)
	}

	rowsPath := cfg.RowsPath
	if rowsPath == "" {
		rowsPath = dsl.DefaultRowsPath
	}
	rows, err := dsl.LoadRows(cfg.DataPath, rowsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load test data: %w", err)
	}
	if limit := cfg.Options.MaxIterations; limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}

	report := &Report{
		RunID:     r.runID(),
		Workflow:  workflowName(template, cfg.TemplatePath),
		Mode:      ModeContinuous,
		StartedAt: r.clock(),
	}

	r.printf(nil, "📊 Starting continuous testing with %d data sets\n", len(rows))
	r.printf(nil, "Template: %s\n", cfg.TemplatePath)
	r.printf(nil, "Data: %s\n", cfg.DataPath)

	runErr := r.withSession(ctx, cfg.Options.Headless, absDir(cfg.TemplatePath), func(env *plugins.Env) error {
		for i, row := range rows {
			res := r.runIteration(ctx, env, template, row, cfg.Vars, i)
			report.Results = append(report.Results, res)

			if err := ctx.Err(); err != nil {
				return err
			}
			if !res.Success && cfg.Options.StopOnFirstFailure {
				r.printf(color.New(color.FgYellow), "🛑 Stopping tests due to failure (stopOnFirstFailure = true)\n")
				break
			}
			if i < len(rows)-1 {
				wait := cfg.Options.Delay()
				r.printf(nil, "⏳ Waiting %s before next test...\n", wait)
				if err := delay.Sleep(ctx, wait); err != nil {
					return err
				}
			}
		}
		return nil
	})
	report.FinishedAt = r.clock()

	if len(report.Results) > 0 || runErr == nil {
		PrintSummary(r.out(), report.Results)
		r.record(ctx, report)
	}
	if runErr != nil {
		return report, runErr
	}
	return report, nil
}

func (r *Runner) runIteration(ctx context.Context, env *plugins.Env, template interface{}, row dsl.Row, vars map[string]string, i int) Result {
	start := r.clock()
	res := Result{Data: row}

	r.printf(color.New(color.Bold), "\n🚀 Starting test iteration %d with data: %s\n", i+1, res.DataJSON())

	err := r.iteration(ctx, env, template, row, vars)
	res.Duration = r.clock().Sub(start)
	if err != nil {
		res.Error = err.Error()
		r.printf(color.New(color.FgRed), "❌ Test iteration %d failed: %s\n", i+1, err)
		env.Log().Debug("iteration failed", "iteration", i+1, "error", err)
		return res
	}

	res.Success = true
	r.printf(color.New(color.FgGreen), "✅ Test iteration %d completed successfully!\n", i+1)
	return res
}

func (r *Runner) iteration(ctx context.Context, env *plugins.Env, template interface{}, row dsl.Row, vars map[string]string) error {
	doc := dsl.Substitute(template, dsl.MergeVariables(row, vars))
	wf, err := dsl.DecodeWorkflow(doc)
	if err != nil {
		return err
	}
	return runSteps(ctx, env, wf)
}
