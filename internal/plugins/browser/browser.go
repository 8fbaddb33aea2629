package browser

import (
	"context"
	"errors"
	"fmt"

	"github.com/rocketship-ai/flowrunner/internal/browser"
	"github.com/rocketship-ai/flowrunner/internal/dsl"
	"github.com/rocketship-ai/flowrunner/internal/plugins"
)

// Auto-register the plugins when the package is imported
func init() {
	plugins.RegisterPlugin(&TypePlugin{})
	plugins.RegisterPlugin(&ClickPlugin{})
	plugins.RegisterPlugin(&NavigatePlugin{})
}

var errNoSession = errors.New("no browser session")

func driver(env *plugins.Env) (browser.Driver, error) {
	if env == nil || env.Driver == nil {
		return nil, errNoSession
	}
	return env.Driver, nil
}

func locator(step dsl.Step) (browser.Locator, error) {
	if step.Selector == "" {
		return browser.Locator{}, fmt.Errorf("%s: selector is required", step.Action)
	}
	return browser.ParseLocator(step.Selector), nil
}

// TypePlugin enters a step's value into an element.
type TypePlugin struct{}

func (p *TypePlugin) GetType() string {
	return "type"
}

// Execute types the value as key presses. With a format the value is
// reformatted and assigned to the element directly, which is how date
// inputs accept it.
func (p *TypePlugin) Execute(ctx context.Context, env *plugins.Env, step dsl.Step) error {
	d, err := driver(env)
	if err != nil {
		return err
	}
	loc, err := locator(step)
	if err != nil {
		return err
	}

	value := step.Value.String()
	if step.Format != "" {
		formatted, err := FormatValue(step.Format, value)
		if err != nil {
			return err
		}
		if err := d.SetValue(ctx, loc, formatted); err != nil {
			return err
		}
		env.Log().Info("✓ set value", "selector", step.Selector, "value", formatted, "format", step.Format)
		return nil
	}

	if err := d.Type(ctx, loc, value, step.ShouldClear()); err != nil {
		return err
	}
	env.Log().Info("✓ typed", "selector", step.Selector, "value", value)
	return nil
}

// ClickPlugin clicks an element.
type ClickPlugin struct{}

func (p *ClickPlugin) GetType() string {
	return "click"
}

func (p *ClickPlugin) Execute(ctx context.Context, env *plugins.Env, step dsl.Step) error {
	d, err := driver(env)
	if err != nil {
		return err
	}
	loc, err := locator(step)
	if err != nil {
		return err
	}
	if err := d.Click(ctx, loc); err != nil {
		return err
	}
	env.Log().Info("✓ clicked", "selector", step.Selector)
	return nil
}

// NavigatePlugin loads a URL.
type NavigatePlugin struct{}

func (p *NavigatePlugin) GetType() string {
	return "navigate"
}

func (p *NavigatePlugin) Execute(ctx context.Context, env *plugins.Env, step dsl.Step) error {
	d, err := driver(env)
	if err != nil {
		return err
	}
	if step.URL == "" {
		return errors.New("navigate: url is required")
	}
	if err := d.Navigate(ctx, step.URL); err != nil {
		return err
	}
	env.Log().Info("✓ navigated", "url", step.URL)
	return nil
}
