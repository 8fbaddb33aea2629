package dsl

import (
	"fmt"

	"github.com/itchyny/gojq"
)

const (
	// DefaultRowsPath selects the data rows of a continuous-run data file.
	DefaultRowsPath = ".google_form_test_data"
	// DefaultArticleRowsPath selects the rows of a loop_article data file.
	DefaultArticleRowsPath = ".rows"
)

// Row is one record of field values driving one workflow iteration.
type Row map[string]interface{}

// Field returns the row's value for name rendered as text.
func (r Row) Field(name string) (string, bool) {
	v, ok := r[name]
	if !ok {
		return "", false
	}
	return FormatValue(v), true
}

// LoadRows loads a data file and selects its rows with a jq path.
func LoadRows(path, rowsPath string) ([]Row, error) {
	doc, err := LoadDocument(path)
	if err != nil {
		return nil, err
	}
	rows, err := SelectRows(doc, rowsPath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

// SelectRows evaluates rowsPath against doc and returns the selected array of
// objects. A document that is itself an array is accepted as-is when the
// default path is in use.
func SelectRows(doc interface{}, rowsPath string) ([]Row, error) {
	if rowsPath == "" {
		rowsPath = DefaultRowsPath
	}

	var selected interface{}
	if arr, ok := doc.([]interface{}); ok && (rowsPath == DefaultRowsPath || rowsPath == DefaultArticleRowsPath) {
		selected = arr
	} else {
		query, err := gojq.Parse(rowsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to parse jq expression %q: %w", rowsPath, err)
		}

		iter := query.Run(doc)
		var found bool
		for {
			v, ok := iter.Next()
			if !ok {
				break
			}
			if err, ok := v.(error); ok {
				return nil, fmt.Errorf("jq evaluation error for %q: %w", rowsPath, err)
			}
			if !found {
				selected = v
				found = true
			}
		}
		if !found || selected == nil {
			return nil, fmt.Errorf("no rows found at %s", rowsPath)
		}
	}

	items, ok := selected.([]interface{})
	if !ok {
		return nil, fmt.Errorf("rows at %s must be an array, got %T", rowsPath, selected)
	}

	rows := make([]Row, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("row %d at %s must be an object, got %T", i, rowsPath, item)
		}
		rows = append(rows, Row(obj))
	}
	return rows, nil
}
