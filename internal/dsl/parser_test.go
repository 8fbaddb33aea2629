package dsl

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const articleWorkflow = `{
	"name": "articles",
	"url": "https://cms.example.com/login",
	"steps": [
		{"action": "type", "selector": "#user", "value": "admin"},
		{"action": "type", "selector": "#pin", "value": 1234},
		{
			"action": "loop_article",
			"data": "articles.json",
			"steps": [
				{"action": "type", "selector": "#title", "name": "title"},
				{"action": "click", "selector": "#save", "description": "sumbit"}
			],
			"status_actions": {
				"pending": {"action": "click", "selector": "#pending", "duration": 500},
				"public": {"action": "click", "selector": "#publish"}
			}
		},
		{"action": "wait"}
	]
}`

func TestDecodeWorkflow(t *testing.T) {
	doc, err := ParseDocument([]byte(articleWorkflow), ".json")
	require.NoError(t, err)

	wf, err := DecodeWorkflow(doc)
	require.NoError(t, err)

	assert.Equal(t, "articles", wf.Name)
	assert.Equal(t, "https://cms.example.com/login", wf.URL)
	require.Len(t, wf.Steps, 4)
	assert.Equal(t, Scalar("1234"), wf.Steps[1].Value)

	loop := wf.Steps[2]
	assert.Equal(t, "loop_article", loop.Action)
	require.Len(t, loop.Steps, 2)
	assert.Equal(t, "title", loop.Steps[0].Name)
	assert.Equal(t, "sumbit", loop.Steps[1].Description)
	assert.Equal(t, Millis(500), loop.StatusActions["pending"].Duration)
	assert.Equal(t, "#publish", loop.StatusActions["public"].Selector)

	assert.Equal(t, Millis(0), wf.Steps[3].Duration)
	assert.True(t, wf.Steps[0].ShouldClear())
}

func TestDecodeWorkflow_Invalid(t *testing.T) {
	tests := []struct {
		name        string
		doc         string
		expectedErr string
	}{
		{
			name:        "no steps",
			doc:         `{"name": "empty", "steps": []}`,
			expectedErr: "no steps defined",
		},
		{
			name:        "missing action",
			doc:         `{"name": "bad", "steps": [{"selector": "#a"}]}`,
			expectedErr: "steps[0]: an action is required",
		},
		{
			name:        "missing nested action",
			doc:         `{"name": "bad", "steps": [{"action": "loop_article", "steps": [{"selector": "#a"}]}]}`,
			expectedErr: "steps[0].steps[0]: an action is required",
		},
		{
			name:        "object value",
			doc:         `{"name": "bad", "steps": [{"action": "type", "value": {"a": 1}}]}`,
			expectedErr: "value must be a string or a number",
		},
		{
			name:        "duration beyond int64",
			doc:         `{"name": "bad", "steps": [{"action": "wait", "duration": 1e20}]}`,
			expectedErr: "must not exceed",
		},
		{
			name:        "duration overflowing time.Duration",
			doc:         `{"name": "bad", "steps": [{"action": "wait", "duration": "9300000000000"}]}`,
			expectedErr: "must not exceed",
		},
		{
			name:        "negative duration",
			doc:         `{"name": "bad", "steps": [{"action": "wait", "duration": -5}]}`,
			expectedErr: "must not be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ParseDocument([]byte(tt.doc), ".json")
			require.NoError(t, err)
			_, err = DecodeWorkflow(doc)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectedErr)
		})
	}
}

func TestLoadWorkflow_YAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flow.yaml")
	content := `
name: yaml flow
url: https://example.com
steps:
  - action: navigate
    url: https://example.com/form
  - action: type
    selector: "//input[@name='age']"
    value: 42
    clear: false
  - action: wait
    duration: "1500"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	wf, err := LoadWorkflow(path)
	require.NoError(t, err)
	assert.Equal(t, "yaml flow", wf.Name)
	require.Len(t, wf.Steps, 3)
	assert.Equal(t, Scalar("42"), wf.Steps[1].Value)
	assert.False(t, wf.Steps[1].ShouldClear())
	assert.Equal(t, Millis(1500), wf.Steps[2].Duration)
}

func TestLoadWorkflow_MissingFile(t *testing.T) {
	_, err := LoadWorkflow(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read")
}

func TestValidateWithSchema(t *testing.T) {
	valid, err := ParseDocument([]byte(articleWorkflow), ".json")
	require.NoError(t, err)
	assert.NoError(t, ValidateWithSchema(valid))

	tests := []struct {
		name string
		doc  string
	}{
		{name: "no steps", doc: `{"name": "x", "steps": []}`},
		{name: "type without selector", doc: `{"steps": [{"action": "type", "value": "a"}]}`},
		{name: "navigate without url", doc: `{"steps": [{"action": "navigate"}]}`},
		{name: "loop_article without data", doc: `{"steps": [{"action": "loop_article", "steps": [{"action": "wait"}]}]}`},
		{name: "unsupported format", doc: `{"steps": [{"action": "type", "selector": "#d", "format": "us_date"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ParseDocument([]byte(tt.doc), ".json")
			require.NoError(t, err)
			err = ValidateWithSchema(doc)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "schema validation failed")
		})
	}
}

func TestActions(t *testing.T) {
	wf, err := DecodeWorkflow(mustParse(t, articleWorkflow))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"type", "loop_article", "click", "wait"}, Actions(wf))
}
