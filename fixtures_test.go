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
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lucasepe/codename"
	"github.com/stretchr/testify/require"
)

// newTestClient starts an httptest server with the given handler and
// returns a client pointed at it.
func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(func() {
		server.Close()
		http.DefaultClient.CloseIdleConnections()
	})

	client, err := NewClient(&Config{Endpoint: server.URL})
	require.NoError(t, err)
	return client
}

func randomName(t testing.TB) string {
	t.Helper()

	rng, err := codename.DefaultRNG()
	require.NoError(t, err)
	return strings.ReplaceAll(codename.Generate(rng, 10), "-", "_")
}

// testDatabaseInfo describes two live-stats result sets sharing the port
// dimension set. The dimension set is declared last so the result sets
// reference it forward by name.
func testDatabaseInfo() *DatabaseInfo {
	return &DatabaseInfo{
		ID:           "l5ixqul3p5axfgzq",
		Name:         "api testing",
		FirstCreated: "2019-12-11T01:58:34.870653Z",
		LastUpdated:  "2019-12-11T08:09:16.662384Z",
		Metadata: map[string]string{
			"application.name": "TestCenter",
			"test.running":     "true",
		},
		ResultSets: []SetInfo{
			{
				Name: "tx_live",
				Facts: []ColumnInfo{
					{Name: "timestamp", Type: "timestamp", Unit: "s", DisplayName: "Timestamp", Description: "Sample time"},
					{Name: "frame_count", Type: "uint64", Unit: "frames", DisplayName: "Tx Frame Count", Description: "Frames sent"},
				},
				DimensionSets:       []string{"port"},
				PrimaryDimensionSet: "port",
			},
			{
				Name: "rx_live",
				Facts: []ColumnInfo{
					{Name: "timestamp", Type: "timestamp", Unit: "s", DisplayName: "Timestamp", Description: "Sample time"},
					{Name: "sig_frame_count", Type: "uint64", Unit: "frames", DisplayName: "Rx Frame Count", Description: "Frames received"},
				},
				DimensionSets:       []string{"port"},
				PrimaryDimensionSet: "port",
			},
		},
		DimensionSets: []SetInfo{
			{
				Name: "port",
				Attributes: []ColumnInfo{
					{Name: "name", Type: "string", Unit: "", DisplayName: "Port Name", Description: "Configured port name"},
					{Name: "handle", Type: "string", Unit: "", DisplayName: "Port Handle", Description: "API handle"},
				},
			},
		},
	}
}

// newTestDatabase returns a database handle populated from
// testDatabaseInfo without touching the network.
func newTestDatabase(client *Client) *Database {
	db := newDatabase(client, "l5ixqul3p5axfgzq")
	db.applyInfo(testDatabaseInfo())
	return db
}
