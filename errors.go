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
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Error represents an error response from the IQ server.
type Error struct {
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Message
}

// ColumnNotFoundError is returned when a referenced column is absent from
// a set's schema, or from a result's column list.
type ColumnNotFoundError struct {
	// Set is the name of the set that was searched. Empty when the lookup
	// was against a query result rather than a set.
	Set    string
	Column string
}

func (e *ColumnNotFoundError) Error() string {
	if e.Set != "" {
		return fmt.Sprintf("the column %q was not found in set %q", e.Column, e.Set)
	}
	return fmt.Sprintf("the column %q was not found", e.Column)
}

// KeyNotJoinableError is returned at query-build time when a multi-query
// key column appears in only one sub-query.
type KeyNotJoinableError struct {
	Key string
}

func (e *KeyNotJoinableError) Error() string {
	return fmt.Sprintf("the key %q was only found in one sub-query; it must exist in exactly two", e.Key)
}

// KeyAmbiguousError is returned at query-build time when a multi-query key
// column appears in more than two sub-queries.
type KeyAmbiguousError struct {
	Key   string
	Count int
}

func (e *KeyAmbiguousError) Error() string {
	return fmt.Sprintf("the key %q was found in %d sub-queries; it must exist in exactly two", e.Key, e.Count)
}

// ViewNotFoundError is returned when a named view query is absent from the
// query-definition catalog. Available lists the valid view names.
type ViewNotFoundError struct {
	View      string
	Available []string
}

func (e *ViewNotFoundError) Error() string {
	return fmt.Sprintf("the view %q is not defined; available views: %s",
		e.View, strings.Join(e.Available, ", "))
}

func checkStatusCodeOK(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	msg := string(data)
	if err != nil {
		return fmt.Errorf("%d: %s", resp.StatusCode, msg)
	}
	var errResp Error
	err = json.Unmarshal(data, &errResp)
	if err != nil || errResp.Message == "" {
		return fmt.Errorf("%d: %s", resp.StatusCode, msg)
	}
	return &errResp
}

// sneakyBodyClose closes the body and ignores the error.
// This is useful to close the HTTP response body when we don't care about the error.
func sneakyBodyClose(body io.ReadCloser) {
	if body != nil {
		_ = body.Close()
	}
}
