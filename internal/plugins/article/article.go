package article

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/rocketship-ai/flowrunner/internal/dsl"
	"github.com/rocketship-ai/flowrunner/internal/plugins"
	"github.com/rocketship-ai/flowrunner/internal/plugins/delay"
)

const (
	// DefaultSubmitTrigger is the step description after which status actions
	// run. The misspelling matches existing workflow files.
	DefaultSubmitTrigger = "sumbit"

	StatusPending = "pending"
	StatusPublic  = "public"
)

// Auto-register the plugin when the package is imported
func init() {
	plugins.RegisterPlugin(&LoopPlugin{})
}

// LoopPlugin replays a nested step list once per article row.
type LoopPlugin struct{}

func (p *LoopPlugin) GetType() string {
	return "loop_article"
}

func (p *LoopPlugin) Execute(ctx context.Context, env *plugins.Env, step dsl.Step) error {
	if step.Data == "" {
		return errors.New("loop_article: data is required")
	}
	if len(step.Steps) == 0 {
		return errors.New("loop_article: steps are required")
	}

	path := step.Data
	if !filepath.IsAbs(path) && env.BaseDir != "" {
		path = filepath.Join(env.BaseDir, path)
	}
	rowsPath := step.RowsPath
	if rowsPath == "" {
		rowsPath = dsl.DefaultArticleRowsPath
	}

	rows, err := dsl.LoadRows(path, rowsPath)
	if err != nil {
		return fmt.Errorf("loop_article: %w", err)
	}

	env.Log().Info("processing articles", "count", len(rows), "data", path)
	for i, row := range rows {
		if err := processArticle(ctx, env, step, row); err != nil {
			return fmt.Errorf("loop_article: article %d: %w", i+1, err)
		}
	}
	return nil
}

func processArticle(ctx context.Context, env *plugins.Env, loop dsl.Step, row dsl.Row) error {
	trigger := loop.SubmitTrigger
	if trigger == "" {
		trigger = DefaultSubmitTrigger
	}

	for _, item := range loop.Steps {
		// item is a copy; binding a field never leaks into the next article.
		if item.Name != "" {
			value, ok := row.Field(item.Name)
			if !ok {
				return fmt.Errorf("article has no field %q", item.Name)
			}
			item.Value = dsl.Scalar(value)
		}

		if err := env.Execute(ctx, item); err != nil {
			return fmt.Errorf("step %s: %w", item.Label(), err)
		}

		if item.Description == trigger && len(loop.StatusActions) > 0 {
			if err := handleStatusActions(ctx, env, loop.StatusActions, row); err != nil {
				return err
			}
		}
	}
	return nil
}

// handleStatusActions runs the pending action for pending and public
// articles, then the public action for public articles. Each action waits
// its own duration first.
func handleStatusActions(ctx context.Context, env *plugins.Env, actions map[string]dsl.Step, row dsl.Row) error {
	status, _ := row.Field("status")
	if status != StatusPending && status != StatusPublic {
		return nil
	}

	if err := runStatusAction(ctx, env, actions, StatusPending); err != nil {
		return err
	}
	if status == StatusPublic {
		if err := runStatusAction(ctx, env, actions, StatusPublic); err != nil {
			return err
		}
	}
	return nil
}

func runStatusAction(ctx context.Context, env *plugins.Env, actions map[string]dsl.Step, status string) error {
	action, ok := actions[status]
	if !ok {
		env.Log().Debug("no status action configured", "status", status)
		return nil
	}
	if err := delay.Sleep(ctx, delay.Duration(action)); err != nil {
		return err
	}
	if err := env.Execute(ctx, action); err != nil {
		return fmt.Errorf("%s status action: %w", status, err)
	}
	return nil
}
