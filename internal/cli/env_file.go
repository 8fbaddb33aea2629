package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// loadEnvFile loads environment variables from a .env file
// Returns a map of key-value pairs
func loadEnvFile(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open env file: %w", err)
	}
	defer func() { _ = file.Close() }()

	env := make(map[string]string)
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		line = strings.TrimPrefix(line, "export ")

		// Parse KEY=VALUE format
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid line %d in env file: %s", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Remove quotes if present
		if len(value) >= 2 {
			if (value[0] == '"' && value[len(value)-1] == '"') ||
				(value[0] == '\'' && value[len(value)-1] == '\'') {
				value = value[1 : len(value)-1]
			}
		}

		// Validate key
		if key == "" {
			return nil, fmt.Errorf("empty key at line %d", lineNum)
		}

		env[key] = value
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading env file: %w", err)
	}

	return env, nil
}

// setEnvironmentVariables sets the given environment variables in the current process
// System environment variables take precedence and will not be overridden
func setEnvironmentVariables(env map[string]string) error {
	for key, value := range env {
		// Check if the key already exists in the environment
		if _, exists := os.LookupEnv(key); exists {
			// Skip setting the variable if it already exists
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf("failed to set environment variable %s: %w", key, err)
		}
	}
	return nil
}

// applyEnvFile loads path into the process environment. An empty path is a no-op.
func applyEnvFile(path string) error {
	if path == "" {
		return nil
	}
	env, err := loadEnvFile(path)
	if err != nil {
		return err
	}
	if err := setEnvironmentVariables(env); err != nil {
		return err
	}
	logger().Debug("loaded env file", "path", path, "count", len(env))
	return nil
}
