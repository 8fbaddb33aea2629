package log

import (
	"context"
	"errors"

	"github.com/rocketship-ai/flowrunner/internal/dsl"
	"github.com/rocketship-ai/flowrunner/internal/plugins"
)

// Auto-register the plugin when the package is imported
func init() {
	plugins.RegisterPlugin(&LogPlugin{})
}

// LogPlugin writes a message to the run log. Placeholders in the message
// have already been filled from the current row.
type LogPlugin struct{}

// GetType returns the plugin type identifier
func (lp *LogPlugin) GetType() string {
	return "log"
}

func (lp *LogPlugin) Execute(ctx context.Context, env *plugins.Env, step dsl.Step) error {
	message := step.Value.String()
	if message == "" {
		return errors.New("log: value is required")
	}
	if dsl.IsTemplateString(message) {
		env.Log().Warn("log message has unresolved placeholders", "message", message)
	}
	env.Log().Info(message, "description", step.Description)
	return nil
}
