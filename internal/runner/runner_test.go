package runner

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketship-ai/flowrunner/internal/browser"
	"github.com/rocketship-ai/flowrunner/internal/browser/browsertest"
	"github.com/rocketship-ai/flowrunner/internal/plugins"
	"github.com/rocketship-ai/flowrunner/internal/store"
)

const signupTemplate = `{
	"name": "signup",
	"url": "http://localhost:8080/signup",
	"steps": [
		{"action": "type", "selector": "#name", "value": "{{name}}"},
		{"action": "click", "selector": "//button[@type='submit']", "description": "submit"}
	]
}`

const fiveRows = `{"google_form_test_data": [
	{"name": "Alice"}, {"name": "Bob"}, {"name": "Carol"}, {"name": "Dan"}, {"name": "Eve"}
]}`

var (
	nameField    = browser.ParseLocator("#name")
	submitButton = browser.ParseLocator("//button[@type='submit']")
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

type fixture struct {
	runner   *Runner
	driver   *browsertest.MockDriver
	launcher *browsertest.MockLauncher
	out      *bytes.Buffer
	dir      string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	driver := new(browsertest.MockDriver)
	launcher := new(browsertest.MockLauncher)
	launcher.On("Launch", mock.Anything, mock.Anything).Return(driver, nil)
	driver.On("Close").Return(nil)

	out := &bytes.Buffer{}
	r := New(launcher, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r.Out = out
	r.newID = func() string { return "0123456789abcdef" }

	return &fixture{runner: r, driver: driver, launcher: launcher, out: out, dir: t.TempDir()}
}

func (f *fixture) continuous(t *testing.T, template, data string, opts Options) ContinuousConfig {
	t.Helper()
	return ContinuousConfig{
		TemplatePath: writeFile(t, f.dir, "template.json", template),
		DataPath:     writeFile(t, f.dir, "data.json", data),
		Options:      opts,
	}
}

func TestRunContinuous_ReplaysEachRow(t *testing.T) {
	f := newFixture(t)
	f.driver.On("Navigate", mock.Anything, "http://localhost:8080/signup").Return(nil)
	f.driver.On("Type", mock.Anything, nameField, "Alice", true).Return(nil).Once()
	f.driver.On("Type", mock.Anything, nameField, "Bob", true).Return(nil).Once()
	f.driver.On("Click", mock.Anything, submitButton).Return(nil)

	cfg := f.continuous(t, signupTemplate, `{"google_form_test_data": [{"name": "Alice"}, {"name": "Bob"}]}`, Options{Headless: true})
	report, err := f.runner.RunContinuous(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, "signup", report.Workflow)
	assert.Equal(t, ModeContinuous, report.Mode)
	assert.Equal(t, Summary{Total: 2, Successful: 2}, report.Summary())
	assert.Equal(t, "Alice", report.Results[0].Data["name"])

	f.launcher.AssertNumberOfCalls(t, "Launch", 1)
	f.launcher.AssertCalled(t, "Launch", mock.Anything, mock.MatchedBy(func(o browser.Options) bool { return o.Headless }))
	f.driver.AssertExpectations(t)
	f.driver.AssertNumberOfCalls(t, "Close", 1)
	assert.Contains(t, f.out.String(), "Success Rate: 100.0%")
}

func TestRunContinuous_MaxIterations(t *testing.T) {
	f := newFixture(t)
	f.driver.On("Navigate", mock.Anything, mock.Anything).Return(nil)
	f.driver.On("Type", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.driver.On("Click", mock.Anything, mock.Anything).Return(nil)

	report, err := f.runner.RunContinuous(context.Background(), f.continuous(t, signupTemplate, fiveRows, Options{MaxIterations: 2}))
	require.NoError(t, err)

	assert.Len(t, report.Results, 2)
	f.driver.AssertNumberOfCalls(t, "Navigate", 2)
	f.driver.AssertNotCalled(t, "Type", mock.Anything, nameField, "Carol", true)
}

func TestRunContinuous_StopOnFirstFailure(t *testing.T) {
	f := newFixture(t)
	f.driver.On("Navigate", mock.Anything, mock.Anything).Return(nil)
	f.driver.On("Type", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.driver.On("Click", mock.Anything, mock.Anything).Return(errors.New("element not found")).Once()

	report, err := f.runner.RunContinuous(context.Background(), f.continuous(t, signupTemplate, fiveRows, Options{StopOnFirstFailure: true}))
	require.NoError(t, err)

	require.Len(t, report.Results, 1)
	assert.False(t, report.Results[0].Success)
	assert.Contains(t, report.Results[0].Error, "element not found")
	f.driver.AssertNumberOfCalls(t, "Navigate", 1)
	f.driver.AssertNumberOfCalls(t, "Close", 1)
	assert.Contains(t, f.out.String(), "Stopping tests due to failure")
}

func TestRunContinuous_ContinuesAfterFailure(t *testing.T) {
	f := newFixture(t)
	f.driver.On("Navigate", mock.Anything, mock.Anything).Return(nil)
	f.driver.On("Type", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.driver.On("Click", mock.Anything, mock.Anything).Return(errors.New("element not found")).Once()
	f.driver.On("Click", mock.Anything, mock.Anything).Return(nil)

	report, err := f.runner.RunContinuous(context.Background(), f.continuous(t, signupTemplate, fiveRows, Options{MaxIterations: 3}))
	require.NoError(t, err)

	s := report.Summary()
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 2, s.Successful)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, s.Total, s.Successful+s.Failed)

	output := f.out.String()
	assert.Contains(t, output, "Success Rate: 66.7%")
	assert.Contains(t, output, `1. Data: {"name":"Alice"}`)
	assert.Contains(t, output, "Error: step 2 click (submit): element not found")
}

func TestRunContinuous_UnknownActionFailsIteration(t *testing.T) {
	f := newFixture(t)
	f.driver.On("Navigate", mock.Anything, mock.Anything).Return(nil)

	template := `{"name": "hover", "url": "http://localhost:8080", "steps": [{"action": "hover", "selector": "#menu"}]}`
	report, err := f.runner.RunContinuous(context.Background(), f.continuous(t, template, fiveRows, Options{MaxIterations: 2}))
	require.NoError(t, err)

	require.Len(t, report.Results, 2)
	for _, res := range report.Results {
		assert.False(t, res.Success)
		assert.Contains(t, res.Error, `unknown action: "hover"`)
	}
}

func TestRunContinuous_ValuesWithQuotes(t *testing.T) {
	f := newFixture(t)
	f.driver.On("Navigate", mock.Anything, mock.Anything).Return(nil)
	f.driver.On("Type", mock.Anything, nameField, `Dwayne "The Rock" O'Neil`, true).Return(nil).Once()
	f.driver.On("Click", mock.Anything, mock.Anything).Return(nil)

	data := `{"google_form_test_data": [{"name": "Dwayne \"The Rock\" O'Neil"}]}`
	report, err := f.runner.RunContinuous(context.Background(), f.continuous(t, signupTemplate, data, Options{}))
	require.NoError(t, err)

	assert.True(t, report.Results[0].Success)
	f.driver.AssertExpectations(t)
}

func TestRunContinuous_VarsOverrideRows(t *testing.T) {
	f := newFixture(t)
	f.driver.On("Navigate", mock.Anything, mock.Anything).Return(nil)
	f.driver.On("Type", mock.Anything, nameField, "Mallory", true).Return(nil)
	f.driver.On("Click", mock.Anything, mock.Anything).Return(nil)

	cfg := f.continuous(t, signupTemplate, fiveRows, Options{MaxIterations: 1})
	cfg.Vars = map[string]string{"name": "Mallory"}
	report, err := f.runner.RunContinuous(context.Background(), cfg)
	require.NoError(t, err)

	assert.True(t, report.Results[0].Success)
	f.driver.AssertExpectations(t)
}

func TestRunContinuous_CancelledClosesSession(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f.driver.On("Navigate", mock.Anything, mock.Anything).Return(nil)
	f.driver.On("Type", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.driver.On("Click", mock.Anything, mock.Anything).Run(func(mock.Arguments) { cancel() }).Return(context.Canceled)

	report, err := f.runner.RunContinuous(ctx, f.continuous(t, signupTemplate, fiveRows, Options{}))
	require.ErrorIs(t, err, context.Canceled)

	assert.Len(t, report.Results, 1)
	f.driver.AssertNumberOfCalls(t, "Close", 1)
	f.driver.AssertNumberOfCalls(t, "Navigate", 1)
}

func TestRunContinuous_LaunchFailure(t *testing.T) {
	driver := new(browsertest.MockDriver)
	launcher := new(browsertest.MockLauncher)
	launcher.On("Launch", mock.Anything, mock.Anything).Return(nil, errors.New("chrome not found"))

	r := New(launcher, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r.Out = io.Discard
	dir := t.TempDir()

	_, err := r.RunContinuous(context.Background(), ContinuousConfig{
		TemplatePath: writeFile(t, dir, "template.json", signupTemplate),
		DataPath:     writeFile(t, dir, "data.json", fiveRows),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to launch browser: chrome not found")
	driver.AssertNotCalled(t, "Close")
}

func TestRunContinuous_BadInputs(t *testing.T) {
	f := newFixture(t)

	_, err := f.runner.RunContinuous(context.Background(), ContinuousConfig{
		TemplatePath: filepath.Join(f.dir, "missing.json"),
		DataPath:     writeFile(t, f.dir, "data.json", fiveRows),
	})
	assert.ErrorContains(t, err, "failed to load template")

	_, err = f.runner.RunContinuous(context.Background(), ContinuousConfig{
		TemplatePath: writeFile(t, f.dir, "template.json", signupTemplate),
		DataPath:     writeFile(t, f.dir, "other.json", `{"rows": []}`),
	})
	assert.ErrorContains(t, err, "failed to load test data")

	f.launcher.AssertNotCalled(t, "Launch", mock.Anything, mock.Anything)
}

func TestRunContinuous_RecordsRun(t *testing.T) {
	f := newFixture(t)
	f.driver.On("Navigate", mock.Anything, mock.Anything).Return(nil)
	f.driver.On("Type", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.driver.On("Click", mock.Anything, mock.Anything).Return(errors.New("element not found")).Once()
	f.driver.On("Click", mock.Anything, mock.Anything).Return(nil)

	ctx := context.Background()
	s, err := store.Open(ctx, "sqlite", filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	f.runner.Recorder = s

	report, err := f.runner.RunContinuous(ctx, f.continuous(t, signupTemplate, fiveRows, Options{MaxIterations: 2}))
	require.NoError(t, err)

	run, iterations, err := s.GetRun(ctx, report.RunID)
	require.NoError(t, err)
	assert.Equal(t, "signup", run.Workflow)
	assert.Equal(t, 2, run.Total)
	assert.Equal(t, 1, run.Passed)
	assert.Equal(t, 1, run.Failed)
	require.Len(t, iterations, 2)
	assert.False(t, iterations[0].Success)
	assert.JSONEq(t, `{"name":"Bob"}`, iterations[1].Data)
}

func TestRunSingle_Success(t *testing.T) {
	f := newFixture(t)
	f.driver.On("Navigate", mock.Anything, "http://localhost:8080/signup").Return(nil)
	f.driver.On("Inputs", mock.Anything).Return([]browser.InputInfo{{Type: "email", Placeholder: "you@example.com"}}, nil)
	f.driver.On("Type", mock.Anything, nameField, "Ada", true).Return(nil)
	f.driver.On("Click", mock.Anything, submitButton).Return(nil)

	workflow := `{
		"name": "signup",
		"url": "http://localhost:8080/signup",
		"steps": [
			{"action": "type", "selector": "#name", "value": "Ada"},
			{"action": "click", "selector": "//button[@type='submit']"}
		]
	}`
	report, err := f.runner.RunSingle(context.Background(), SingleConfig{
		WorkflowPath: writeFile(t, f.dir, "signup.json", workflow),
		Inspect:      true,
	})
	require.NoError(t, err)

	assert.Equal(t, ModeSingle, report.Mode)
	require.Len(t, report.Results, 1)
	assert.True(t, report.Results[0].Success)
	f.driver.AssertExpectations(t)
	f.driver.AssertNotCalled(t, "Screenshot", mock.Anything)

	output := f.out.String()
	assert.Contains(t, output, "Found 1 input elements")
	assert.Contains(t, output, `placeholder="you@example.com"`)
	assert.Contains(t, output, "Test completed successfully: signup")
}

func TestRunSingle_FailureTakesScreenshot(t *testing.T) {
	f := newFixture(t)
	f.driver.On("Navigate", mock.Anything, mock.Anything).Return(nil)
	f.driver.On("Click", mock.Anything, mock.Anything).Return(errors.New("element not found"))
	f.driver.On("Screenshot", mock.Anything).Return([]byte("\x89PNG"), nil)

	workflow := `{"name": "checkout", "url": "http://localhost:8080", "steps": [{"action": "click", "selector": "#buy"}]}`
	shots := t.TempDir()
	report, err := f.runner.RunSingle(context.Background(), SingleConfig{
		WorkflowPath:  writeFile(t, f.dir, "checkout.json", workflow),
		ScreenshotDir: shots,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "element not found")
	require.Len(t, report.Results, 1)
	assert.False(t, report.Results[0].Success)

	files, globErr := filepath.Glob(filepath.Join(shots, "checkout-error-*-01234567.png"))
	require.NoError(t, globErr)
	assert.Len(t, files, 1)
	f.driver.AssertNumberOfCalls(t, "Close", 1)
	f.driver.AssertNotCalled(t, "Inputs", mock.Anything)
}

func TestRunSingle_UnknownAction(t *testing.T) {
	f := newFixture(t)
	f.driver.On("Navigate", mock.Anything, mock.Anything).Return(nil)
	f.driver.On("Screenshot", mock.Anything).Return(nil, errors.New("no page"))

	workflow := `{"name": "hover", "url": "http://localhost:8080", "steps": [{"action": "hover"}]}`
	_, err := f.runner.RunSingle(context.Background(), SingleConfig{WorkflowPath: writeFile(t, f.dir, "hover.json", workflow)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, plugins.ErrUnknownAction))
	f.driver.AssertNumberOfCalls(t, "Close", 1)
}

func TestRunSingle_ResolvesEnvPlaceholders(t *testing.T) {
	t.Setenv("FLOWRUNNER_TEST_BASE_URL", "http://staging.local")
	f := newFixture(t)
	f.driver.On("Navigate", mock.Anything, "http://staging.local/login").Return(nil)

	workflow := `{"name": "login", "url": "{{ .env.FLOWRUNNER_TEST_BASE_URL }}/login", "steps": [{"action": "wait", "duration": 1}]}`
	_, err := f.runner.RunSingle(context.Background(), SingleConfig{WorkflowPath: writeFile(t, f.dir, "login.json", workflow)})
	require.NoError(t, err)
	f.driver.AssertExpectations(t)
}

func TestRunSingle_InvalidWorkflow(t *testing.T) {
	f := newFixture(t)
	_, err := f.runner.RunSingle(context.Background(), SingleConfig{
		WorkflowPath: writeFile(t, f.dir, "empty.json", `{"name": "empty", "steps": []}`),
	})
	assert.ErrorContains(t, err, "no steps defined")
	f.launcher.AssertNotCalled(t, "Launch", mock.Anything, mock.Anything)
}
