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

import "context"

// DatabaseInfo is the wire form of the database catalog endpoints.
type DatabaseInfo struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Description   string            `json:"description"`
	Metadata      map[string]string `json:"metadata"`
	FirstCreated  string            `json:"first_created"`
	LastUpdated   string            `json:"last_updated"`
	ResultSets    []SetInfo         `json:"result_sets"`
	DimensionSets []SetInfo         `json:"dimension_sets"`
	Datastore     *DatastoreInfo    `json:"datastore,omitempty"`
	Profile       *ProfileInfo      `json:"profile,omitempty"`
	Summary       *StorageSummary   `json:"summary,omitempty"`
}

// DatastoreInfo describes the storage backend of a database.
type DatastoreInfo struct {
	ID           string   `json:"id"`
	Provider     string   `json:"provider"`
	Version      string   `json:"version"`
	Capabilities []string `json:"capabilities"`
}

// ProfileInfo identifies the UI profile attached to a database.
type ProfileInfo struct {
	ID          string `json:"id"`
	Serial      int    `json:"serial"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// StorageSummary reports row count and storage use of a database.
type StorageSummary struct {
	Count          int64 `json:"count"`
	ValueStorageKB int64 `json:"value_storage_kb"`
	IndexStorageKB int64 `json:"index_storage_kb"`
}

// Database is a handle to one IQ results database.
type Database struct {
	client *Client

	ID           string
	Name         string
	FirstCreated string
	LastUpdated  string
	// Running reports whether the producing test is still running.
	Running bool

	info      *DatabaseInfo
	profileID string
	sets      []Set
}

func newDatabase(client *Client, id string) *Database {
	return &Database{client: client, ID: id}
}

// Refresh reloads the database metadata from the server and rebuilds the
// set list, replacing all cached state.
func (db *Database) Refresh(ctx context.Context) error {
	info, err := db.client.DatabaseInfo(ctx, db.ID, false)
	if err != nil {
		return err
	}
	db.applyInfo(info)
	return nil
}

func (db *Database) applyInfo(info *DatabaseInfo) {
	db.info = info
	db.ID = info.ID
	db.Name = info.Name
	db.FirstCreated = info.FirstCreated
	db.LastUpdated = info.LastUpdated
	db.Running = info.Metadata["test.running"] == "true"
	db.refreshSetList()
}

// Info returns the cached database metadata from the last refresh.
func (db *Database) Info() *DatabaseInfo {
	return db.info
}

// refreshSetList rebuilds the flat set list: result sets first, then
// dimension sets, both in declaration order. Related-set references are
// resolved in a second pass once every set exists, since a result set may
// name a dimension set declared later in the same list.
func (db *Database) refreshSetList() {
	db.sets = nil
	for _, info := range db.info.ResultSets {
		db.sets = append(db.sets, newResultSet(info))
	}
	for _, info := range db.info.DimensionSets {
		db.sets = append(db.sets, newDimensionSet(info))
	}
	for _, set := range db.sets {
		set.resolveRelatedSets(db)
	}
}

// Sets returns the database's sets (result sets followed by dimension
// sets) in declaration order.
func (db *Database) Sets() []Set {
	return db.sets
}

// FindSetByName returns the first set with the given name, or nil when no
// set matches.
func (db *Database) FindSetByName(name string) Set {
	for _, set := range db.sets {
		if set.Name() == name {
			return set
		}
	}
	return nil
}

// SnapshotList returns the names of all saved snapshots for the database,
// ordered by snapshot time. Order is "ASC" or "DESC".
func (db *Database) SnapshotList(ctx context.Context, order string) ([]string, error) {
	definition := &Definition{
		Filters: []string{},
		Groups:  []string{},
		Orders:  []string{"view.test_event_timestamp " + order},
		Projections: []string{
			"view.test_snapshot_name as snapshot_name",
			"view.test_snapshot_number as snapshot_number",
		},
		Subqueries: []*Definition{{
			Alias:   stringPtr("view"),
			Filters: []string{"test_events.name = 'snapshot_completed'"},
			Groups:  []string{},
			Orders:  []string{},
			Projections: []string{
				"test.snapshot_name as test_snapshot_name",
				"test.snapshot_number as test_snapshot_number",
				"test_events.name as test_event_name",
				"test_events.timestamp as test_event_timestamp",
			},
		}},
	}

	result, err := db.client.ExecuteQuery(ctx, &QueryDefinition{MultiResult: definition}, QueryModeOnce, db.ID)
	if err != nil {
		return nil, err
	}

	var snapshots []string
	for _, row := range result.Result.Rows {
		if len(row) == 0 {
			continue
		}
		if name, ok := row[0].(string); ok {
			snapshots = append(snapshots, name)
		}
	}
	return snapshots, nil
}

// URL returns the address of the database in the IQ UI, including the
// profile when one is set.
func (db *Database) URL() (string, error) {
	base, err := db.client.ResultURL()
	if err != nil {
		return "", err
	}
	u := base + "/results/" + db.ID
	if db.profileID != "" {
		u += "?profileId=" + db.profileID
	}
	return u, nil
}

// SetProfileID sets the UI profile used when building the database URL.
func (db *Database) SetProfileID(profileID string) {
	db.profileID = profileID
}
