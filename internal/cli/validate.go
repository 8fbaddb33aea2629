package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rocketship-ai/flowrunner/internal/dsl"
	"github.com/rocketship-ai/flowrunner/internal/plugins"
)

// NewValidateCmd creates a new validate command
func NewValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file_or_directory]...",
		Short: "Validate workflow files against the JSON schema",
		Long: `Validate one or more workflow files against the JSON schema.
This command checks workflow syntax, structure and actions without opening a browser.

Examples:
  flowrunner validate signup.json                 # Validate a single file
  flowrunner validate ./flows/                    # Validate all workflow files in a directory
  flowrunner validate signup.json article.yaml    # Validate multiple files`,
		RunE: runValidate,
	}
}

func isWorkflowFile(path string) bool {
	ext := filepath.Ext(path)
	for _, e := range workflowExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

func runValidate(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("please specify at least one file or directory to validate")
	}

	var files []string
	totalValid := 0
	totalInvalid := 0

	// Collect all files to validate
	for _, arg := range args {
		stat, err := os.Stat(arg)
		if err != nil {
			logger().Error("failed to access path", "path", arg, "error", err)
			totalInvalid++
			continue
		}

		if stat.IsDir() {
			err := filepath.Walk(arg, func(path string, info os.FileInfo, err error) error {
				if err != nil {
					return err
				}
				if !info.IsDir() && isWorkflowFile(path) && looksLikeWorkflow(path) {
					files = append(files, path)
				}
				return nil
			})
			if err != nil {
				logger().Error("failed to scan directory", "path", arg, "error", err)
				totalInvalid++
				continue
			}
		} else {
			files = append(files, arg)
		}
	}

	if len(files) == 0 {
		return fmt.Errorf("no workflow files found to validate")
	}

	logger().Info("validating files", "count", len(files))

	for _, file := range files {
		if err := validateFile(file); err != nil {
			logger().Error("validation failed", "file", file, "error", err)
			totalInvalid++
		} else {
			logger().Info("validation passed", "file", file)
			totalValid++
		}
	}

	logger().Info("validation complete", "valid", totalValid, "invalid", totalInvalid, "total", len(files))

	if totalInvalid > 0 {
		return fmt.Errorf("validation failed for %d file(s)", totalInvalid)
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✅ All %d file(s) passed validation\n", totalValid)
	return nil
}

// looksLikeWorkflow skips data files that sit next to workflows in a directory.
func looksLikeWorkflow(path string) bool {
	doc, err := dsl.LoadDocument(path)
	if err != nil {
		// Let validation report the parse error.
		return true
	}
	m, ok := doc.(map[string]interface{})
	if !ok {
		logger().Debug("skipping non-workflow file", "path", path)
		return false
	}
	if _, ok := m["steps"]; !ok {
		logger().Debug("skipping non-workflow file", "path", path)
		return false
	}
	return true
}

// validateFile checks the schema, the decoded structure and that every
// action has a registered handler.
func validateFile(filePath string) error {
	doc, err := dsl.LoadDocument(filePath)
	if err != nil {
		return err
	}
	if err := dsl.ValidateWithSchema(doc); err != nil {
		return err
	}
	// Placeholders are filled with a neutral value so templated numeric
	// fields still decode.
	sample := make(map[string]interface{})
	for _, key := range dsl.Placeholders(doc) {
		sample[key] = "0"
	}
	wf, err := dsl.DecodeWorkflow(dsl.Substitute(doc, sample))
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	for _, action := range dsl.Actions(wf) {
		if _, ok := plugins.GetPlugin(action); !ok {
			return &plugins.UnknownActionError{Action: action}
		}
	}

	logger().Debug("file details",
		"name", wf.Name,
		"steps", len(wf.Steps),
		"placeholders", dsl.Placeholders(doc),
	)
	return nil
}
