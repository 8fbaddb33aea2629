package dsl

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// Workflow is a declarative UI workflow: a start URL and the steps replayed against it.
type Workflow struct {
	Name  string `json:"name" yaml:"name"`
	URL   string `json:"url" yaml:"url"`
	Steps []Step `json:"steps" yaml:"steps"`
}

// Step is one action of a workflow. Which fields matter depends on Action.
type Step struct {
	Action      string `json:"action" yaml:"action"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	// Name binds Value to a field of the current article row inside loop_article.
	Name     string `json:"name,omitempty" yaml:"name,omitempty"`
	Selector string `json:"selector,omitempty" yaml:"selector,omitempty"`
	Value    Scalar `json:"value,omitempty" yaml:"value,omitempty"`
	URL      string `json:"url,omitempty" yaml:"url,omitempty"`
	Duration Millis `json:"duration,omitempty" yaml:"duration,omitempty"`
	Format   string `json:"format,omitempty" yaml:"format,omitempty"`
	Clear    *bool  `json:"clear,omitempty" yaml:"clear,omitempty"`

	Data          string          `json:"data,omitempty" yaml:"data,omitempty"`
	RowsPath      string          `json:"rows_path,omitempty" yaml:"rows_path,omitempty"`
	SubmitTrigger string          `json:"submit_trigger,omitempty" yaml:"submit_trigger,omitempty"`
	StatusActions map[string]Step `json:"status_actions,omitempty" yaml:"status_actions,omitempty"`
	Steps         []Step          `json:"steps,omitempty" yaml:"steps,omitempty"`
}

// ShouldClear reports whether a type step clears the field before typing.
func (s Step) ShouldClear() bool {
	return s.Clear == nil || *s.Clear
}

// Label identifies the step in logs and errors.
func (s Step) Label() string {
	if s.Description != "" {
		return fmt.Sprintf("%s (%s)", s.Action, s.Description)
	}
	return s.Action
}

// Scalar is a step value. Workflow and data files carry both strings and numbers
// here, and both are typed into the page as text.
type Scalar string

func (s *Scalar) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*s = ""
		return nil
	}
	if data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = Scalar(str)
		return nil
	}
	if data[0] == '{' || data[0] == '[' {
		return fmt.Errorf("value must be a string or a number, got %s", data)
	}
	*s = Scalar(data)
	return nil
}

func (s Scalar) String() string { return string(s) }

// Millis is a duration in milliseconds, given as a number or a numeric string.
type Millis int64

// maxMillis is the largest Millis whose Duration does not overflow.
const maxMillis = math.MaxInt64 / int64(time.Millisecond)

func (m *Millis) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if raw == "" || raw == "null" {
		*m = 0
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("invalid duration %q: must be milliseconds", raw)
	}
	if math.IsNaN(v) {
		return fmt.Errorf("invalid duration %q: must be milliseconds", raw)
	}
	if v < 0 {
		return fmt.Errorf("invalid duration %q: must not be negative", raw)
	}
	if v > float64(maxMillis) {
		return fmt.Errorf("invalid duration %q: must not exceed %d", raw, maxMillis)
	}
	*m = Millis(v)
	return nil
}

func (m Millis) Duration() time.Duration {
	return time.Duration(m) * time.Millisecond
}

// LoadDocument reads a JSON or YAML file into a generic document tree.
// YAML is normalised through JSON so both formats yield the same value types.
func LoadDocument(path string) (interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	doc, err := ParseDocument(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return doc, nil
}

// ParseDocument decodes JSON, or YAML when ext is .yaml or .yml.
func ParseDocument(data []byte, ext string) (interface{}, error) {
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		var raw interface{}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
		}
		blob, err := json.Marshal(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal YAML to JSON: %w", err)
		}
		data = blob
	}

	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON: %w", err)
	}
	return doc, nil
}

// DecodeWorkflow round-trips a document tree through JSON into a Workflow
// and checks that every step, nested ones included, names an action.
func DecodeWorkflow(doc interface{}) (Workflow, error) {
	blob, err := json.Marshal(doc)
	if err != nil {
		return Workflow{}, fmt.Errorf("failed to marshal workflow: %w", err)
	}

	var wf Workflow
	if err := json.Unmarshal(blob, &wf); err != nil {
		return Workflow{}, fmt.Errorf("failed to decode workflow: %w", err)
	}

	if len(wf.Steps) == 0 {
		return Workflow{}, fmt.Errorf("workflow %q: no steps defined", wf.Name)
	}
	if err := checkSteps(wf.Steps, "steps"); err != nil {
		return Workflow{}, fmt.Errorf("workflow %q: %w", wf.Name, err)
	}
	return wf, nil
}

func checkSteps(steps []Step, path string) error {
	for i, step := range steps {
		at := fmt.Sprintf("%s[%d]", path, i)
		if step.Action == "" {
			return fmt.Errorf("%s: an action is required for each step", at)
		}
		if err := checkSteps(step.Steps, at+".steps"); err != nil {
			return err
		}
		for status, action := range step.StatusActions {
			if action.Action == "" {
				return fmt.Errorf("%s.status_actions.%s: an action is required", at, status)
			}
		}
	}
	return nil
}

// LoadWorkflow loads and decodes a workflow file without placeholder substitution.
func LoadWorkflow(path string) (Workflow, error) {
	doc, err := LoadDocument(path)
	if err != nil {
		return Workflow{}, err
	}
	return DecodeWorkflow(doc)
}
