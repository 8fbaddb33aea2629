package runner

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/rocketship-ai/flowrunner/internal/dsl"
)

// ErrTestsFailed is returned by the CLI when at least one iteration failed.
var ErrTestsFailed = errors.New("one or more tests failed")

// Result is the outcome of one iteration.
type Result struct {
	Success  bool
	Data     dsl.Row
	Error    string
	Duration time.Duration
}

// DataJSON renders the row the iteration ran with.
func (r Result) DataJSON() string {
	if r.Data == nil {
		return "{}"
	}
	b, err := json.Marshal(r.Data)
	if err != nil {
		return fmt.Sprintf("%v", map[string]interface{}(r.Data))
	}
	return string(b)
}

// Summary aggregates results.
type Summary struct {
	Total      int
	Successful int
	Failed     int
}

// Summarize counts successes and failures.
func Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		if r.Success {
			s.Successful++
		} else {
			s.Failed++
		}
	}
	return s
}

// SuccessRate is successes over total as a percentage; 0 when nothing ran.
func (s Summary) SuccessRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Successful) / float64(s.Total) * 100
}

// PrintSummary writes the end-of-run report.
func PrintSummary(w io.Writer, results []Result) {
	s := Summarize(results)
	rule := strings.Repeat("=", 50)

	_, _ = fmt.Fprintln(w, "\n📈 TEST EXECUTION SUMMARY")
	_, _ = fmt.Fprintln(w, rule)
	_, _ = fmt.Fprintf(w, "Total Tests: %d\n", s.Total)
	_, _ = fmt.Fprintf(w, "%s Successful: %d\n", color.GreenString("✅"), s.Successful)
	_, _ = fmt.Fprintf(w, "%s Failed: %d\n", color.RedString("❌"), s.Failed)
	_, _ = fmt.Fprintf(w, "Success Rate: %.1f%%\n", s.SuccessRate())

	if s.Failed > 0 {
		_, _ = fmt.Fprintf(w, "\n%s\n", color.RedString("❌ Failed Tests:"))
		n := 0
		for _, r := range results {
			if r.Success {
				continue
			}
			n++
			_, _ = fmt.Fprintf(w, "  %d. Data: %s\n", n, r.DataJSON())
			_, _ = fmt.Fprintf(w, "     Error: %s\n", r.Error)
		}
	}

	_, _ = fmt.Fprintln(w, rule)
}
