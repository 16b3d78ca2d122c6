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
	"testing"
	"time"

	"github.com/gkampitakis/go-snaps/snaps"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSingleQueryDefinition(t *testing.T) {
	db := newTestDatabase(nil)

	query, err := NewSingleQuery(db, "tx_live", "")
	require.NoError(t, err)

	query.AddFilter("port.name = 'Port //1/1'")
	query.AddGroup("port.name")
	query.AddOrder("tx_live.timestamp ASC")
	query.SetLimit(100)

	def, err := query.Definition(false)
	require.NoError(t, err)

	require.NotNil(t, def.Alias)
	assert.Equal(t, "tx_live", *def.Alias)
	assert.Equal(t, []string{"port.name = 'Port //1/1'"}, def.Filters)
	assert.Equal(t, []string{"port.name"}, def.Groups)
	assert.Equal(t, []string{"tx_live.timestamp ASC"}, def.Orders)
	require.NotNil(t, def.Limit)
	assert.Equal(t, 100, *def.Limit)
	assert.Nil(t, def.Pagination)
	assert.Equal(t, []string{
		"tx_live.timestamp AS tx_live_timestamp",
		"tx_live.frame_count AS tx_live_frame_count",
		"port.name AS port_name",
		"port.handle AS port_handle",
	}, def.Projections)

	// An unset time range still appears on the wire as an empty object.
	require.NotNil(t, def.TimestampRange)
	assert.Nil(t, def.TimestampRange.Absolute)
	assert.Nil(t, def.TimestampRange.Relative)
}

func TestSingleQueryLatestSwitchesProjections(t *testing.T) {
	db := newTestDatabase(nil)

	query, err := NewSingleQuery(db, "tx_live", "")
	require.NoError(t, err)

	def, err := query.Definition(true)
	require.NoError(t, err)
	assert.Equal(t, "(tx_live$last.timestamp) AS tx_live_timestamp", def.Projections[0])

	// Flipping latest back re-derives the projections.
	def, err = query.Definition(false)
	require.NoError(t, err)
	assert.Equal(t, "tx_live.timestamp AS tx_live_timestamp", def.Projections[0])
}

func TestSingleQueryUnknownSet(t *testing.T) {
	db := newTestDatabase(nil)

	_, err := NewSingleQuery(db, "no_such_set", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no_such_set")
}

func TestTimestampRangeLastCallWins(t *testing.T) {
	db := newTestDatabase(nil)

	query, err := NewSingleQuery(db, "tx_live", "")
	require.NoError(t, err)

	start := FormatTimestamp(time.Date(2019, 12, 11, 1, 58, 34, 870653000, time.UTC))
	query.SetTimestampRangeAbsolute(start, "")
	query.SetTimestampRangeRelative("PT1H")

	def, err := query.Definition(false)
	require.NoError(t, err)
	require.NotNil(t, def.TimestampRange.Relative)
	assert.Equal(t, "PT1H", def.TimestampRange.Relative.Interval)
	assert.Nil(t, def.TimestampRange.Absolute)

	query.SetTimestampRangeAbsolute(start, "")
	def, err = query.Definition(false)
	require.NoError(t, err)
	require.NotNil(t, def.TimestampRange.Absolute)
	assert.Equal(t, "2019-12-11T01:58:34.870653Z", def.TimestampRange.Absolute.Start)
	assert.Empty(t, def.TimestampRange.Absolute.End)
	assert.Nil(t, def.TimestampRange.Relative)

	query.SetTimestampRangeAbsolute("", "")
	def, err = query.Definition(false)
	require.NoError(t, err)
	assert.Nil(t, def.TimestampRange.Absolute)
	assert.Nil(t, def.TimestampRange.Relative)
}

func TestMultiQueryJoinFilter(t *testing.T) {
	db := newTestDatabase(nil)

	query, err := NewMultiQuery(db, []string{"tx_live", "rx_live"}, "", []string{"port_name"})
	require.NoError(t, err)

	def, err := query.Definition(false)
	require.NoError(t, err)

	assert.Equal(t, []string{"tx_live.port_name=rx_live.port_name"}, def.Filters)
	require.Len(t, def.Subqueries, 2)

	// Shared aliases are projected once, first-seen order preserved.
	assert.Equal(t, []string{
		"tx_live.tx_live_timestamp AS tx_live_timestamp",
		"tx_live.tx_live_frame_count AS tx_live_frame_count",
		"tx_live.port_name AS port_name",
		"tx_live.port_handle AS port_handle",
		"rx_live.rx_live_timestamp AS rx_live_timestamp",
		"rx_live.rx_live_sig_frame_count AS rx_live_sig_frame_count",
	}, def.Projections)

	// Multi-query definitions do not carry a timestamp range.
	assert.Nil(t, def.TimestampRange)
}

func TestMultiQueryKeyNotJoinable(t *testing.T) {
	db := newTestDatabase(nil)

	query, err := NewMultiQuery(db, []string{"tx_live", "rx_live"}, "", []string{"tx_live_frame_count"})
	require.NoError(t, err)

	_, err = query.Definition(false)
	require.Error(t, err)

	var notJoinable *KeyNotJoinableError
	require.ErrorAs(t, err, &notJoinable)
	assert.Equal(t, "tx_live_frame_count", notJoinable.Key)
}

func TestMultiQueryKeyAmbiguous(t *testing.T) {
	db := newTestDatabase(nil)

	query, err := NewMultiQuery(db, []string{"tx_live", "rx_live"}, "", []string{"port_name"})
	require.NoError(t, err)

	third, err := NewSingleQuery(db, "tx_live", "tx_live_again")
	require.NoError(t, err)
	query.AddSubqueries(third)

	_, err = query.Definition(false)
	require.Error(t, err)

	var ambiguous *KeyAmbiguousError
	require.ErrorAs(t, err, &ambiguous)
	assert.Equal(t, "port_name", ambiguous.Key)
	assert.Equal(t, 3, ambiguous.Count)
}

func TestMultiQueryColumns(t *testing.T) {
	db := newTestDatabase(nil)

	query, err := NewMultiQuery(db, []string{"tx_live", "rx_live"}, "", nil)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"tx_live_timestamp",
		"tx_live_frame_count",
		"port_name",
		"port_handle",
		"rx_live_timestamp",
		"rx_live_sig_frame_count",
		"port_name",
		"port_handle",
	}, query.Columns())
}

func TestMultiQueryDefinitionSnapshot(t *testing.T) {
	db := newTestDatabase(nil)

	query, err := NewMultiQuery(db, []string{"tx_live", "rx_live"}, "live_stats", []string{"port_name"})
	require.NoError(t, err)

	def, err := query.Definition(true)
	require.NoError(t, err)

	data, err := json.MarshalIndent(&QueryDefinition{MultiResult: def}, "", "  ")
	require.NoError(t, err)
	snaps.MatchJSON(t, data)
}

func TestTimestampRoundTrip(t *testing.T) {
	formatted := "2019-12-11T08:09:16.662384Z"

	parsed, err := ParseTimestamp(formatted)
	require.NoError(t, err)
	assert.Equal(t, formatted, FormatTimestamp(parsed))
}
