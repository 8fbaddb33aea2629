package delay

import (
	"time"

	"github.com/rocketship-ai/flowrunner/internal/dsl"
)

// DefaultDuration applies to wait steps and status actions without a duration.
const DefaultDuration = time.Second

// Duration returns how long a step waits, falling back to DefaultDuration
// when the step leaves it unset or zero.
func Duration(step dsl.Step) time.Duration {
	if step.Duration <= 0 {
		return DefaultDuration
	}
	return step.Duration.Duration()
}
