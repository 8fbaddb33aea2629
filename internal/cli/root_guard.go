package cli

import (
	"fmt"
	"os"
)

// chromeSandbox decides whether Chrome keeps its sandbox. Chrome will not
// start as root with the sandbox on, so root needs an explicit opt-in.
func chromeSandbox() (noSandbox bool, err error) {
	if !runningAsRoot() {
		return false, nil
	}
	if os.Getenv("FLOWRUNNER_ALLOW_ROOT") == "" {
		return false, fmt.Errorf("refusing to run Chrome as root. set FLOWRUNNER_ALLOW_ROOT=1 to run it with the sandbox disabled")
	}
	logger().Warn("running as root: Chrome sandbox disabled")
	return true, nil
}
