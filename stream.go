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

// StreamLiveResults is a canned result correlating transmit- and
// receive-side live stream statistics on the shared stream ID. It is the
// idiom every higher-level report follows: build or override a query,
// execute it, reshape the rows.
type StreamLiveResults struct {
	db    *Database
	query *MultiQuery
	keys  []string

	// Raw is the raw response of the last refresh.
	Raw *QueryResult
	// Counters are the column names of the last response.
	Counters []string
	// Data is the reshaped result of the last refresh, keyed by stream ID
	// and then by the transmit-side timestamp.
	Data map[any]any
}

// NewStreamLiveResults builds the canned query over the database's
// tx_stream_live_stats and rx_stream_live_stats sets.
func NewStreamLiveResults(db *Database) (*StreamLiveResults, error) {
	keys := []string{"tx_stream_stream_id"}
	query, err := NewMultiQuery(db, []string{"tx_stream_live_stats", "rx_stream_live_stats"}, "", keys)
	if err != nil {
		return nil, err
	}
	return &StreamLiveResults{db: db, query: query, keys: keys}, nil
}

// Refresh re-executes the canned query and reshapes the rows.
func (r *StreamLiveResults) Refresh(ctx context.Context) (map[any]any, error) {
	raw, err := r.query.ExecuteDefinition(ctx, streamLiveDefinition())
	if err != nil {
		return nil, err
	}
	r.Raw = raw
	r.Counters = raw.Result.Columns

	keys := append(append([]string{}, r.keys...), "tx_stream_live_stats_timestamp")
	data, err := raw.ToMap(keys...)
	if err != nil {
		return nil, err
	}
	r.Data = data
	return data, nil
}

// streamLiveDefinition is the literal query override. The builder cannot
// generate this join: the stream ID carries a different alias on each side
// (tx_stream_stream_id vs rx_stream_stream_id), so the join filter is
// written by hand.
func streamLiveDefinition() *Definition {
	return &Definition{
		Filters: []string{"tx_stream_live_stats.tx_stream_stream_id=rx_stream_live_stats.rx_stream_stream_id"},
		Groups:  []string{},
		Orders:  []string{},
		Projections: []string{
			"tx_stream_live_stats.tx_stream_live_stats_timestamp AS tx_stream_live_stats_timestamp",
			"tx_stream_live_stats.tx_stream_live_stats_frame_count AS tx_stream_live_stats_frame_count",
			"tx_stream_live_stats.tx_stream_live_stats_frame_rate AS tx_stream_live_stats_frame_rate",
			"tx_stream_live_stats.tx_stream_stream_id AS tx_stream_stream_id",
			"tx_stream_live_stats.port_name AS port_name",
			"tx_stream_live_stats.port_handle AS port_handle",
			"tx_stream_live_stats.tx_port_handle AS tx_port_handle",
			"tx_stream_live_stats.tx_port_name AS tx_port_name",
			"tx_stream_live_stats.tx_port_scheduling_mode AS tx_port_scheduling_mode",
			"tx_stream_live_stats.tx_port_speed AS tx_port_speed",
			"tx_stream_live_stats.stream_block_name AS stream_block_name",
			"tx_stream_live_stats.tx_stream_config_ipv4_1_dest_addr AS tx_stream_config_ipv4_1_dest_addr",
			"tx_stream_live_stats.tx_stream_config_ipv4_1_source_addr AS tx_stream_config_ipv4_1_source_addr",
			"rx_stream_live_stats.rx_stream_live_stats_timestamp AS rx_stream_live_stats_timestamp",
			"rx_stream_live_stats.rx_stream_live_stats_sig_frame_count AS rx_stream_live_stats_sig_frame_count",
			"rx_stream_live_stats.rx_stream_stream_id AS rx_stream_stream_id",
			"rx_stream_live_stats.rx_stream_live_stats_sig_frame_rate AS rx_stream_live_stats_sig_frame_rate",
			"rx_stream_live_stats.rx_stream_live_stats_avg_latency AS rx_stream_live_stats_avg_latency",
			"rx_stream_live_stats.rx_port_handle AS rx_port_handle",
			"rx_stream_live_stats.rx_port_name AS rx_port_name",
		},
		Subqueries: []*Definition{
			{
				Alias:   stringPtr("tx_stream_live_stats"),
				Filters: []string{},
				Groups:  []string{},
				Orders:  []string{},
				Projections: []string{
					"(tx_stream_live_stats$last.timestamp) AS tx_stream_live_stats_timestamp",
					"(tx_stream_live_stats$last.frame_count) AS tx_stream_live_stats_frame_count",
					"(tx_stream_live_stats$last.frame_rate) AS tx_stream_live_stats_frame_rate",
					"tx_stream.stream_id AS tx_stream_stream_id",
					"port.name AS port_name",
					"port.handle AS port_handle",
					"tx_port.handle AS tx_port_handle",
					"tx_port.name AS tx_port_name",
					"tx_port.scheduling_mode AS tx_port_scheduling_mode",
					"tx_port.speed AS tx_port_speed",
					"stream_block.name AS stream_block_name",
					"tx_stream_config.ipv4_1_dest_addr AS tx_stream_config_ipv4_1_dest_addr",
					"tx_stream_config.ipv4_1_source_addr AS tx_stream_config_ipv4_1_source_addr",
				},
				TimestampRange: &TimestampRange{},
			},
			{
				Alias:   stringPtr("rx_stream_live_stats"),
				Filters: []string{},
				Groups:  []string{},
				Orders:  []string{},
				Projections: []string{
					"(rx_stream_live_stats$last.timestamp) AS rx_stream_live_stats_timestamp",
					"(rx_stream_live_stats$last.frame_count) AS rx_stream_live_stats_frame_count",
					"(rx_stream_live_stats$last.sig_frame_count) AS rx_stream_live_stats_sig_frame_count",
					"rx_stream.stream_id AS rx_stream_stream_id",
					"(rx_stream_live_stats$last.sig_frame_rate) AS rx_stream_live_stats_sig_frame_rate",
					"(rx_stream_live_stats$last.avg_latency) AS rx_stream_live_stats_avg_latency",
					"rx_port.handle AS rx_port_handle",
					"rx_port.name AS rx_port_name",
				},
				TimestampRange: &TimestampRange{},
			},
		},
	}
}
