package browser

import (
	"fmt"
	"sort"
	"strings"
)

// Formatter rewrites a typed value before it is assigned to an element.
type Formatter func(string) string

var formatters = map[string]Formatter{
	"iso_date": ToISODate,
}

// FormatValue applies the named formatter.
func FormatValue(format, value string) (string, error) {
	f, ok := formatters[format]
	if !ok {
		names := make([]string, 0, len(formatters))
		for name := range formatters {
			names = append(names, name)
		}
		sort.Strings(names)
		return "", fmt.Errorf("unsupported format %q (supported: %s)", format, strings.Join(names, ", "))
	}
	return f(value), nil
}

// ToISODate turns "2024/05/01 13:30" into "2024-05-01T13:30": the first
// space becomes "T" and every slash becomes a dash.
func ToISODate(input string) string {
	return strings.ReplaceAll(strings.Replace(input, " ", "T", 1), "/", "-")
}
