package runner

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rocketship-ai/flowrunner/internal/dsl"
)

// DefaultDelayBetweenTests is the pause between two iterations of a continuous run.
const DefaultDelayBetweenTests = 2 * time.Second

// Options tunes a continuous run. The JSON form is what --options accepts.
type Options struct {
	Headless           bool       `json:"headless"`
	DelayBetweenTests  dsl.Millis `json:"delayBetweenTests"`
	StopOnFirstFailure bool       `json:"stopOnFirstFailure"`
	// MaxIterations caps the number of rows replayed; zero means all rows.
	MaxIterations int `json:"maxIterations"`
}

// DefaultOptions returns the options used when nothing else is configured.
func DefaultOptions() Options {
	return Options{DelayBetweenTests: dsl.Millis(DefaultDelayBetweenTests.Milliseconds())}
}

// Delay returns the inter-iteration pause.
func (o Options) Delay() time.Duration {
	return o.DelayBetweenTests.Duration()
}

// ApplyJSON overlays the fields present in raw onto o. Absent fields keep
// their current values.
func (o Options) ApplyJSON(raw string) (Options, error) {
	if strings.TrimSpace(raw) == "" {
		return o, nil
	}
	if err := json.Unmarshal([]byte(raw), &o); err != nil {
		return o, fmt.Errorf("invalid options JSON: %w", err)
	}
	if o.MaxIterations < 0 {
		return o, fmt.Errorf("invalid options JSON: maxIterations must not be negative, got %d", o.MaxIterations)
	}
	return o, nil
}
