package plugins

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/rocketship-ai/flowrunner/internal/browser"
	"github.com/rocketship-ai/flowrunner/internal/dsl"
)

// Plugin executes one kind of workflow step.
type Plugin interface {
	GetType() string
	Execute(ctx context.Context, env *Env, step dsl.Step) error
}

// ErrUnknownAction matches any *UnknownActionError via errors.Is.
var ErrUnknownAction = errors.New("unknown action")

// UnknownActionError reports a step whose action has no registered plugin.
type UnknownActionError struct {
	Action string
}

func (e *UnknownActionError) Error() string {
	return fmt.Sprintf("unknown action: %q", e.Action)
}

func (e *UnknownActionError) Is(target error) bool {
	return target == ErrUnknownAction
}

// Env is what a plugin gets to work with while a workflow runs.
type Env struct {
	Driver browser.Driver
	Logger *slog.Logger
	// BaseDir resolves relative file references such as loop_article data files.
	BaseDir  string
	Registry *Registry
}

// Execute dispatches a step through the environment's registry, so plugins
// can run nested steps.
func (e *Env) Execute(ctx context.Context, step dsl.Step) error {
	registry := e.Registry
	if registry == nil {
		registry = defaultRegistry
	}
	return registry.Execute(ctx, e, step)
}

func (e *Env) Log() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

// Registry maps action names to plugins.
type Registry struct {
	mu      sync.RWMutex
	plugins map[string]Plugin
}

// NewPluginRegistry returns an empty registry.
func NewPluginRegistry() *Registry {
	return &Registry{plugins: make(map[string]Plugin)}
}

// Register adds a plugin under name, replacing any previous one.
func (r *Registry) Register(name string, plugin Plugin) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plugins[name] = plugin
}

// Get retrieves a plugin by action name.
func (r *Registry) Get(name string) (Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	plugin, ok := r.plugins[name]
	return plugin, ok
}

// Types returns the registered action names, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.plugins))
	for name := range r.plugins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute runs step with the plugin registered for its action. An
// unregistered action yields *UnknownActionError.
func (r *Registry) Execute(ctx context.Context, env *Env, step dsl.Step) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	plugin, ok := r.Get(step.Action)
	if !ok {
		return &UnknownActionError{Action: step.Action}
	}
	env.Log().Debug("executing step", "action", step.Action, "description", step.Description)
	return plugin.Execute(ctx, env, step)
}

// Global plugin registry
var defaultRegistry = NewPluginRegistry()

// RegisterPlugin registers a plugin in the global registry
func RegisterPlugin(plugin Plugin) {
	pluginType := plugin.GetType()
	if _, exists := defaultRegistry.Get(pluginType); exists {
		panic(fmt.Sprintf("plugin %s is already registered", pluginType))
	}
	defaultRegistry.Register(pluginType, plugin)
}

// GetPlugin retrieves a plugin by type from the registry
func GetPlugin(pluginType string) (Plugin, bool) {
	return defaultRegistry.Get(pluginType)
}

// Default returns the global registry that plugin packages register into.
func Default() *Registry {
	return defaultRegistry
}
