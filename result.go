/*
 * Copyright 2024 Spirent Communications, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package iq

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
)

// QueryResult is the raw tabular response of a query execution.
type QueryResult struct {
	Result ResultData `json:"result"`
}

// ResultData holds the column names and rows of a result. Rows may be
// empty or absent.
type ResultData struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// ToMap reshapes the result into nested maps.
//
// With no key names the map is keyed by 1-based row index, each value
// being a column-name to value map for that row. With key names, rows are
// keyed by the successive values of the key columns, the last key mapping
// to the full row map; contributions from different rows are deep-merged
// (lists concatenate, maps merge recursively, scalar leaves overwrite).
//
// Every key name must be a column of the result, else a
// *ColumnNotFoundError is returned before any row is touched.
func (r *QueryResult) ToMap(keyNames ...string) (map[any]any, error) {
	for _, key := range keyNames {
		if !slices.Contains(r.Result.Columns, key) {
			return nil, &ColumnNotFoundError{Column: key}
		}
	}

	result := make(map[any]any)
	rowIndex := 0
	for _, row := range r.Result.Rows {
		entry := make(map[any]any, len(r.Result.Columns))
		for i, column := range r.Result.Columns {
			if i < len(row) {
				entry[column] = row[i]
			}
		}

		if len(keyNames) == 0 {
			rowIndex++
			result[rowIndex] = entry
			continue
		}

		nested := make(map[any]any)
		current := nested
		for i, name := range keyNames {
			keyValue := entry[name]
			if i == len(keyNames)-1 {
				current[keyValue] = entry
				break
			}
			next := make(map[any]any)
			current[keyValue] = next
			current = next
		}
		deepUpdate(result, nested)
	}
	return result, nil
}

// deepUpdate merges src into target: lists are concatenated, maps are
// merged recursively, scalar leaves overwrite.
func deepUpdate(target, src map[any]any) {
	for k, v := range src {
		switch v := v.(type) {
		case []any:
			if existing, ok := target[k].([]any); ok {
				target[k] = append(existing, v...)
			} else {
				target[k] = slices.Clone(v)
			}
		case map[any]any:
			if existing, ok := target[k].(map[any]any); ok {
				deepUpdate(existing, v)
			} else {
				copied := make(map[any]any, len(v))
				deepUpdate(copied, v)
				target[k] = copied
			}
		default:
			target[k] = v
		}
	}
}

// WriteCSV writes the result as CSV: a header row of column names, then
// one row per result row in response order, comma-delimited with minimal
// quoting.
func (r *QueryResult) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(r.Result.Columns); err != nil {
		return err
	}
	for _, row := range r.Result.Rows {
		record := make([]string, len(row))
		for i, value := range row {
			record[i] = formatValue(value)
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// SaveCSV writes the result to the named CSV file, replacing it if it
// exists.
func (r *QueryResult) SaveCSV(filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := r.WriteCSV(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func formatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
