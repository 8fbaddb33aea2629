package artifacts

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

const screenshotExtension = ".png"

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Dir resolves where artifacts are written: override when set, then
// FLOWRUNNER_ARTIFACT_DIR, then the working directory.
func Dir(override string) (string, error) {
	dir := override
	if dir == "" {
		dir = os.Getenv("FLOWRUNNER_ARTIFACT_DIR")
	}
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get current working directory: %w", err)
		}
		return cwd, nil
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve artifact dir %s: %w", dir, err)
	}
	return abs, nil
}

// ScreenshotName builds a file name that does not collide across runs:
// <label>-error-<UTC timestamp>-<first 8 chars of runID>.png.
func ScreenshotName(label, runID string, at time.Time) string {
	label = strings.Trim(unsafeNameChars.ReplaceAllString(label, "-"), "-")
	if label == "" {
		label = "workflow"
	}
	short := runID
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("%s-error-%s-%s%s", label, at.UTC().Format("20060102T150405Z"), short, screenshotExtension)
}

// Write stores data under dir/name atomically and returns the final path.
func Write(dir, name string, data []byte) (string, error) {
	if name == "" {
		return "", errors.New("artifact name is required")
	}
	if len(data) == 0 {
		return "", errors.New("artifact is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create artifact directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, filepath.Base(name))
	tempPath := path + ".tmp"

	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write artifact %s: %w", tempPath, err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return "", fmt.Errorf("failed to finalize artifact %s: %w", path, err)
	}

	return path, nil
}
