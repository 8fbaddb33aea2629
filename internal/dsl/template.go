package dsl

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

var placeholderRegex = regexp.MustCompile(`\{\{\s*([^{}\s]+)\s*\}\}`)

const envPrefix = ".env."

// Substitute returns a copy of doc in which every string leaf has its
// {{ key }} placeholders replaced from row. Placeholders whose key is not in
// row are left as literal text. {{ .env.NAME }} resolves from the process
// environment.
//
// Row values are rendered with FormatValue, so a leaf always stays a string.
// Typed fields such as durations parse numeric strings on decode.
// Substitution never re-serialises the document, so values may contain
// quotes or braces.
func Substitute(doc interface{}, row map[string]interface{}) interface{} {
	switch v := doc.(type) {
	case string:
		return substituteString(v, row)
	case map[string]interface{}:
		result := make(map[string]interface{}, len(v))
		for key, value := range v {
			result[key] = Substitute(value, row)
		}
		return result
	case []interface{}:
		result := make([]interface{}, len(v))
		for i, item := range v {
			result[i] = Substitute(item, row)
		}
		return result
	default:
		return doc
	}
}

func substituteString(s string, row map[string]interface{}) string {
	if !IsTemplateString(s) {
		return s
	}

	return placeholderRegex.ReplaceAllStringFunc(s, func(match string) string {
		key := placeholderRegex.FindStringSubmatch(match)[1]
		if value, ok := lookup(key, row); ok {
			return FormatValue(value)
		}
		return match
	})
}

func lookup(key string, row map[string]interface{}) (interface{}, bool) {
	if strings.HasPrefix(key, envPrefix) {
		value, ok := os.LookupEnv(strings.TrimPrefix(key, envPrefix))
		return value, ok
	}
	value, ok := row[key]
	return value, ok
}

// FormatValue renders a data-row value as the text typed into the page.
func FormatValue(v interface{}) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case int:
		return strconv.Itoa(value)
	case int64:
		return strconv.FormatInt(value, 10)
	case bool:
		return strconv.FormatBool(value)
	case json.Number:
		return value.String()
	default:
		blob, err := json.Marshal(value)
		if err != nil {
			return fmt.Sprintf("%v", value)
		}
		return string(blob)
	}
}

// IsTemplateString checks if a string contains template variables
func IsTemplateString(s string) bool {
	return strings.Contains(s, "{{") && strings.Contains(s, "}}")
}

// Placeholders lists the distinct placeholder keys used anywhere in doc.
func Placeholders(doc interface{}) []string {
	seen := make(map[string]bool)
	var keys []string
	var walk func(interface{})
	walk = func(node interface{}) {
		switch v := node.(type) {
		case string:
			for _, m := range placeholderRegex.FindAllStringSubmatch(v, -1) {
				if !seen[m[1]] {
					seen[m[1]] = true
					keys = append(keys, m[1])
				}
			}
		case map[string]interface{}:
			for _, value := range v {
				walk(value)
			}
		case []interface{}:
			for _, item := range v {
				walk(item)
			}
		}
	}
	walk(doc)
	return keys
}

// MergeVariables layers CLI variables over a data row, with CLI taking precedence.
func MergeVariables(row map[string]interface{}, cliVars map[string]string) map[string]interface{} {
	result := make(map[string]interface{}, len(row)+len(cliVars))
	for k, v := range row {
		result[k] = v
	}
	for k, v := range cliVars {
		result[k] = v
	}
	return result
}
