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
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"os"
	"sort"
	"time"

	"hermannm.dev/wrap"
)

// producerApplication identifies databases created by TestCenter. Other
// applications may share the same IQ service.
const producerApplication = "TestCenter"

//go:embed query_definitions.json
var defaultQueryDefinitions []byte

// QueryMode selects how the service runs a query.
type QueryMode string

const (
	// QueryModeOnce runs the query a single time.
	QueryModeOnce QueryMode = "once"
)

// Client is the entry point for talking to a TestCenter IQ results
// service. It owns the saved view-query catalog, the database catalog, and
// the current database selection.
//
// A Client is not safe for concurrent use; callers sharing one across
// goroutines must synchronize externally.
type Client struct {
	config *Config
	http   HTTPClient

	endpoint string

	queryDefinitions map[string]json.RawMessage

	databases []*Database
	current   *Database
}

// NewClient creates a new client. The view-query catalog is loaded here
// and is immutable for the life of the client. The constructor does no
// network I/O; discover databases with RefreshDatabaseList.
func NewClient(config *Config) (*Client, error) {
	c := &Client{
		config:   config,
		http:     NewHTTPClient(),
		endpoint: config.Endpoint,
	}
	if err := c.loadQueryDefinitions(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) loadQueryDefinitions() error {
	data := defaultQueryDefinitions
	if c.config.QueryDefinitionsPath != "" {
		fileData, err := os.ReadFile(c.config.QueryDefinitionsPath)
		if err != nil {
			return wrap.Errorf(err, "failed to read query definitions file %q", c.config.QueryDefinitionsPath)
		}
		data = fileData
	}
	if err := json.Unmarshal(data, &c.queryDefinitions); err != nil {
		return wrap.Error(err, "failed to parse the query definitions")
	}
	return nil
}

// ViewNames returns the names of the saved view queries, sorted.
func (c *Client) ViewNames() []string {
	names := make([]string, 0, len(c.queryDefinitions))
	for name := range c.queryDefinitions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResultURL returns the base URL of the results service, resolving it from
// the attached live session when no endpoint was configured. The resolved
// URL is cached.
func (c *Client) ResultURL() (string, error) {
	if c.endpoint != "" {
		return c.endpoint, nil
	}
	if c.config.Session == nil {
		return "", errors.New("no endpoint configured and no session attached")
	}
	endpoint, err := c.config.Session.ResultURL()
	if err != nil {
		return "", wrap.Error(err, "failed to resolve the results service URL from the session")
	}
	c.endpoint = endpoint
	return endpoint, nil
}

func (c *Client) requestURL(path string) (*url.URL, error) {
	endpoint, err := c.ResultURL()
	if err != nil {
		return nil, err
	}
	return url.Parse(endpoint + "/" + path)
}

// DatabaseInfos lists metadata for every database on the service. With
// summary set, only the summary form is returned.
func (c *Client) DatabaseInfos(ctx context.Context, summary bool) ([]*DatabaseInfo, error) {
	path := "databases"
	if summary {
		path += "?detail=summary"
	}
	req, err := c.requestURL(path)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Get(ctx, req)
	if err != nil {
		return nil, err
	}
	defer sneakyBodyClose(resp.Body)
	if err := checkStatusCodeOK(resp); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var infos []*DatabaseInfo
	err = json.Unmarshal(data, &infos)
	return infos, err
}

// DatabaseInfo fetches metadata for one database, defaulting to the live
// session's database when dbID is empty.
func (c *Client) DatabaseInfo(ctx context.Context, dbID string, summary bool) (*DatabaseInfo, error) {
	if dbID == "" {
		dbID = c.SessionDatabaseID()
	}
	path := "databases/" + dbID
	if summary {
		path += "?detail=summary"
	}
	req, err := c.requestURL(path)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Get(ctx, req)
	if err != nil {
		return nil, err
	}
	defer sneakyBodyClose(resp.Body)
	if err := checkStatusCodeOK(resp); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var info DatabaseInfo
	err = json.Unmarshal(data, &info)
	return &info, err
}

// RefreshDatabaseList reloads the database catalog, keeping only databases
// produced by TestCenter. Cached handles are replaced wholesale.
func (c *Client) RefreshDatabaseList(ctx context.Context) error {
	infos, err := c.DatabaseInfos(ctx, true)
	if err != nil {
		return err
	}

	c.databases = nil
	for _, info := range infos {
		if info.Metadata["application.name"] != producerApplication {
			continue
		}
		db := newDatabase(c, info.ID)
		if err := db.Refresh(ctx); err != nil {
			return err
		}
		c.databases = append(c.databases, db)
	}
	slog.Debug("refreshed database list", "databases", len(c.databases))
	return nil
}

// Databases returns the known TestCenter databases from the last refresh.
func (c *Client) Databases() []*Database {
	return c.databases
}

// FindDatabaseByID returns the database with the given ID, or nil.
func (c *Client) FindDatabaseByID(id string) *Database {
	for _, db := range c.databases {
		if id != "" && db.ID == id {
			return db
		}
	}
	return nil
}

// FindDatabaseByName returns the most recently updated database with the
// given name, or nil. When candidates carry equal (or unparseable)
// last_updated timestamps the one listed later wins; there is no stronger
// ordering key.
func (c *Client) FindDatabaseByName(name string) *Database {
	var current *Database
	var currentTime time.Time

	for _, db := range c.databases {
		if db.Name != name {
			continue
		}
		updated, err := time.Parse(time.RFC3339Nano, db.LastUpdated)
		if err != nil {
			updated = time.Time{}
		}
		if current == nil || !updated.Before(currentTime) {
			current = db
			currentTime = updated
		}
	}
	return current
}

// SessionDatabaseID returns the results database ID of the attached live
// session, or "" when no session is attached or the session has none.
func (c *Client) SessionDatabaseID() string {
	if c.config.Session == nil {
		return ""
	}
	id, err := c.config.Session.ResultDatabaseID()
	if err != nil {
		return ""
	}
	return id
}

// SetCurrentDatabase selects the current database by ID, by name, or, when
// both are empty, from the attached live session. It returns the
// selection, which is nil when nothing matched.
func (c *Client) SetCurrentDatabase(name, dbID string) *Database {
	switch {
	case dbID != "":
		c.current = c.FindDatabaseByID(dbID)
	case name != "":
		c.current = c.FindDatabaseByName(name)
	default:
		c.current = c.FindDatabaseByID(c.SessionDatabaseID())
	}
	return c.current
}

// CurrentDatabase returns the current database selection, or nil.
func (c *Client) CurrentDatabase() *Database {
	return c.current
}

type queryRequest struct {
	Database queryDatabase `json:"database"`
	Mode     QueryMode     `json:"mode"`
	// Definition is either a *QueryDefinition from the builder or a raw
	// decoded query, e.g. one pasted from the IQ GUI's "View Query" panel.
	Definition any `json:"definition"`
}

type queryDatabase struct {
	ID string `json:"id"`
}

// ExecuteQuery runs a query definition against the given database. An
// empty dbID targets the current selection, falling back to the live
// session's database; an empty mode runs the query once.
func (c *Client) ExecuteQuery(ctx context.Context, definition any, mode QueryMode, dbID string) (*QueryResult, error) {
	if mode == "" {
		mode = QueryModeOnce
	}
	if dbID == "" {
		if c.current != nil {
			dbID = c.current.ID
		} else {
			dbID = c.SessionDatabaseID()
		}
	}

	body, err := json.Marshal(&queryRequest{
		Database:   queryDatabase{ID: dbID},
		Mode:       mode,
		Definition: definition,
	})
	if err != nil {
		return nil, err
	}

	req, err := c.requestURL("queries")
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Post(ctx, req, body)
	if err != nil {
		return nil, err
	}
	defer sneakyBodyClose(resp.Body)
	if err := checkStatusCodeOK(resp); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var result QueryResult
	err = json.Unmarshal(data, &result)
	return &result, err
}

// ExecuteViewQuery runs a saved view query by name. An unknown name yields
// a *ViewNotFoundError listing the valid views, and no result.
func (c *Client) ExecuteViewQuery(ctx context.Context, viewName, dbID string) (*QueryResult, error) {
	definition, ok := c.queryDefinitions[viewName]
	if !ok {
		err := &ViewNotFoundError{View: viewName, Available: c.ViewNames()}
		slog.Warn("view query is not defined", "view", viewName, "available", err.Available)
		return nil, err
	}
	return c.ExecuteQuery(ctx, definition, QueryModeOnce, dbID)
}
