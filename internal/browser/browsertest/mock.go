// Package browsertest provides testify mocks of the browser port.
package browsertest

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/rocketship-ai/flowrunner/internal/browser"
)

// MockDriver is a mock implementation of browser.Driver
type MockDriver struct {
	mock.Mock
}

func (m *MockDriver) Navigate(ctx context.Context, url string) error {
	args := m.Called(ctx, url)
	return args.Error(0)
}

func (m *MockDriver) Type(ctx context.Context, loc browser.Locator, text string, clear bool) error {
	args := m.Called(ctx, loc, text, clear)
	return args.Error(0)
}

func (m *MockDriver) SetValue(ctx context.Context, loc browser.Locator, value string) error {
	args := m.Called(ctx, loc, value)
	return args.Error(0)
}

func (m *MockDriver) Click(ctx context.Context, loc browser.Locator) error {
	args := m.Called(ctx, loc)
	return args.Error(0)
}

func (m *MockDriver) Screenshot(ctx context.Context) ([]byte, error) {
	args := m.Called(ctx)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

func (m *MockDriver) Inputs(ctx context.Context) ([]browser.InputInfo, error) {
	args := m.Called(ctx)
	inputs, _ := args.Get(0).([]browser.InputInfo)
	return inputs, args.Error(1)
}

func (m *MockDriver) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockLauncher hands out a fixed driver.
type MockLauncher struct {
	mock.Mock
}

func (m *MockLauncher) Launch(ctx context.Context, opts browser.Options) (browser.Driver, error) {
	args := m.Called(ctx, opts)
	driver, _ := args.Get(0).(browser.Driver)
	return driver, args.Error(1)
}
