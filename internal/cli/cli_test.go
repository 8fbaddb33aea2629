package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketship-ai/flowrunner/internal/browser"
	"github.com/rocketship-ai/flowrunner/internal/browser/browsertest"
)

// isolate points config and history lookups at empty locations and lets
// Chrome's sandbox decision pass when the tests run as root.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("FLOWRUNNER_CONFIG_DIR", t.TempDir())
	t.Setenv("FLOWRUNNER_ALLOW_ROOT", "1")
	t.Setenv("FLOWRUNNER_RESULTS_DB", "")
	t.Setenv("FLOWRUNNER_RESULTS_DRIVER", "")
	t.Setenv("FLOWRUNNER_ARTIFACT_DIR", "")
}

// useMockBrowser makes every command launch driver instead of Chrome.
func useMockBrowser(t *testing.T) (*browsertest.MockLauncher, *browsertest.MockDriver) {
	t.Helper()
	driver := new(browsertest.MockDriver)
	driver.On("Close").Return(nil)
	launcher := new(browsertest.MockLauncher)
	launcher.On("Launch", mock.Anything, mock.Anything).Return(driver, nil)

	original := newLauncher
	newLauncher = func() browser.Launcher { return launcher }
	t.Cleanup(func() { newLauncher = original })
	return launcher, driver
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
