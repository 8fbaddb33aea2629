package delay

import (
	"context"
	"time"

	"github.com/rocketship-ai/flowrunner/internal/dsl"
	"github.com/rocketship-ai/flowrunner/internal/plugins"
)

// Auto-register the plugin when the package is imported
func init() {
	plugins.RegisterPlugin(&DelayPlugin{})
}

// DelayPlugin pauses the workflow for a step's duration.
type DelayPlugin struct{}

func (dp *DelayPlugin) GetType() string {
	return "wait"
}

func (dp *DelayPlugin) Execute(ctx context.Context, env *plugins.Env, step dsl.Step) error {
	d := Duration(step)
	if err := Sleep(ctx, d); err != nil {
		return err
	}
	env.Log().Info("✓ waited", "duration", d)
	return nil
}

// Sleep blocks for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
