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

/*
Package iq provides a client for the Spirent TestCenter IQ results ReST API.

# Client

Use NewClient to create a client struct. This is the major entrance for
discovering results databases and executing queries:

	client, err := iq.NewClient(&iq.Config{
		Endpoint: "http://<iq-host>:<iq-port:-9199>",
	})
	if err != nil {
		return err
	}
	if err := client.RefreshDatabaseList(ctx); err != nil {
		return err
	}
	db := client.SetCurrentDatabase("my test run", "")

# Build and Run Queries

Create a SingleQuery over one set, or a MultiQuery correlating several sets
on shared key columns, and execute it:

	query, err := iq.NewSingleQuery(db, "tx_stream_live_stats", "")
	if err != nil {
		return err
	}
	query.SetTimestampRangeRelative("PT15M")
	result, err := query.Execute(ctx, true)
	if err != nil {
		return err
	}

# Reshape Results

Results come back as flat tabular JSON. Reshape them into nested maps keyed
by columns of your choice, or export them as CSV:

	data, err := result.ToMap("port_name")
	if err != nil {
		return err
	}
	if err := result.SaveCSV("results.csv"); err != nil {
		return err
	}
*/
package iq
