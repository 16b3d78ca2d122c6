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
	"fmt"
	"slices"
)

// Definition is the wire form of one query object in the IQ query grammar.
type Definition struct {
	Alias          *string         `json:"alias"`
	Filters        []string        `json:"filters"`
	Groups         []string        `json:"groups"`
	Orders         []string        `json:"orders"`
	TimestampRange *TimestampRange `json:"timestamp_range,omitempty"`
	Limit          *int            `json:"limit"`
	Pagination     *string         `json:"pagination"`
	Projections    []string        `json:"projections"`
	Subqueries     []*Definition   `json:"subqueries,omitempty"`
}

// QueryDefinition is the tagged definition payload of a query request.
// Exactly one of SingleResult or MultiResult is set.
type QueryDefinition struct {
	SingleResult *Definition `json:"single_result,omitempty"`
	MultiResult  *Definition `json:"multi_result,omitempty"`
}

// TimestampRange restricts a query to a time window, either absolute or
// relative to now. At most one of the two is set.
type TimestampRange struct {
	Absolute *AbsoluteTimestampRange `json:"absolute,omitempty"`
	Relative *RelativeTimestampRange `json:"relative,omitempty"`
}

// AbsoluteTimestampRange bounds a query between two timestamps in the
// FormatTimestamp form. Either bound may be left empty.
type AbsoluteTimestampRange struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// RelativeTimestampRange bounds a query to a trailing window expressed as
// an ISO-8601 duration, e.g. "PT1M" or "PT1H".
type RelativeTimestampRange struct {
	Interval string `json:"interval"`
}

// Query is a buildable IQ query, either a SingleQuery or a MultiQuery.
type Query interface {
	// Name returns the query's alias.
	Name() string
	// Columns returns the column aliases the query projects.
	Columns() []string
	// Definition builds the wire form of the query. The latest flag
	// switches result-set projections to the "$last" windowed form.
	Definition(latest bool) (*Definition, error)
}

// queryBase carries the user-specified query clauses shared by single and
// multi queries.
type queryBase struct {
	db   *Database
	name string

	filters    []string
	groups     []string
	orders     []string
	tsRange    *TimestampRange
	limit      *int
	pagination *string
}

// AddFilter appends a filter expression, e.g. "port.name = 'Port //1/1'".
func (q *queryBase) AddFilter(filter string) {
	q.filters = append(q.filters, filter)
}

// ClearFilters removes all filter expressions.
func (q *queryBase) ClearFilters() {
	q.filters = nil
}

// AddGroup appends a group expression.
func (q *queryBase) AddGroup(group string) {
	q.groups = append(q.groups, group)
}

// ClearGroups removes all group expressions.
func (q *queryBase) ClearGroups() {
	q.groups = nil
}

// AddOrder appends an order expression, e.g. "view.timestamp ASC".
func (q *queryBase) AddOrder(order string) {
	q.orders = append(q.orders, order)
}

// ClearOrders removes all order expressions.
func (q *queryBase) ClearOrders() {
	q.orders = nil
}

// SetTimestampRangeAbsolute restricts the query to an absolute time
// window. Either bound may be empty; both empty clears the range.
// Timestamps must be in the FormatTimestamp form. Replaces any previously
// set range, absolute or relative.
func (q *queryBase) SetTimestampRangeAbsolute(start, end string) {
	q.tsRange = nil
	if start == "" && end == "" {
		return
	}
	q.tsRange = &TimestampRange{Absolute: &AbsoluteTimestampRange{Start: start, End: end}}
}

// SetTimestampRangeRelative restricts the query to a trailing window given
// as an ISO-8601 duration, e.g. "PT1H". An empty interval clears the
// range. Replaces any previously set range, absolute or relative.
func (q *queryBase) SetTimestampRangeRelative(interval string) {
	q.tsRange = nil
	if interval == "" {
		return
	}
	q.tsRange = &TimestampRange{Relative: &RelativeTimestampRange{Interval: interval}}
}

// SetLimit caps the number of returned rows.
func (q *queryBase) SetLimit(limit int) {
	q.limit = &limit
}

// ClearLimit removes the row cap.
func (q *queryBase) ClearLimit() {
	q.limit = nil
}

// SetPagination sets the pagination token for the next page.
func (q *queryBase) SetPagination(token string) {
	q.pagination = &token
}

func (q *queryBase) alias() *string {
	if q.name == "" {
		return nil
	}
	return stringPtr(q.name)
}

func (q *queryBase) baseDefinition() *Definition {
	return &Definition{
		Alias:      q.alias(),
		Filters:    append([]string{}, q.filters...),
		Groups:     append([]string{}, q.groups...),
		Orders:     append([]string{}, q.orders...),
		Limit:      q.limit,
		Pagination: q.pagination,
	}
}

func stringPtr(s string) *string {
	return &s
}

// SingleQuery queries one set, projecting every column of the set plus,
// for result sets, the columns of its linked dimension sets.
type SingleQuery struct {
	queryBase
	set     Set
	columns *ColumnsInfo
}

// NewSingleQuery builds a query over the named set of db. When name is
// empty the query is aliased after the set.
func NewSingleQuery(db *Database, setName, name string) (*SingleQuery, error) {
	set := db.FindSetByName(setName)
	if set == nil {
		return nil, fmt.Errorf("the set %q was not found in database %q", setName, db.Name)
	}
	if name == "" {
		name = setName
	}
	q := &SingleQuery{
		queryBase: queryBase{db: db, name: name},
		set:       set,
	}
	q.refreshColumns(false)
	return q, nil
}

func (q *SingleQuery) Name() string {
	return q.name
}

// Set returns the set the query is bound to.
func (q *SingleQuery) Set() Set {
	return q.set
}

// Columns returns the column aliases of the last built projection list.
func (q *SingleQuery) Columns() []string {
	return q.columns.Aliases
}

func (q *SingleQuery) refreshColumns(latest bool) {
	q.columns = q.set.ColumnsInfo(latest)
}

// Definition builds the wire form of the query. The projection list is
// re-derived from the bound set on every call, so flipping latest between
// calls changes the projections.
func (q *SingleQuery) Definition(latest bool) (*Definition, error) {
	q.refreshColumns(latest)

	def := q.baseDefinition()
	def.TimestampRange = q.tsRange
	if def.TimestampRange == nil {
		def.TimestampRange = &TimestampRange{}
	}
	def.Projections = append([]string{}, q.columns.Projections...)
	return def, nil
}

// Execute builds and runs the query against its database.
func (q *SingleQuery) Execute(ctx context.Context, latest bool) (*QueryResult, error) {
	def, err := q.Definition(latest)
	if err != nil {
		return nil, err
	}
	return q.db.client.ExecuteQuery(ctx, &QueryDefinition{SingleResult: def}, QueryModeOnce, q.db.ID)
}

// MultiQuery correlates two or more sub-queries on shared key columns.
// Sub-queries may themselves be single or multi queries.
type MultiQuery struct {
	queryBase
	subqueries []Query
	keys       []string
}

// NewMultiQuery builds a multi-query with one SingleQuery sub-query per
// named set. The keys correlate the sub-queries: each key that appears in
// the sub-queries' columns must appear in exactly two of them.
func NewMultiQuery(db *Database, setNames []string, name string, keys []string) (*MultiQuery, error) {
	q := &MultiQuery{
		queryBase: queryBase{db: db, name: name},
		keys:      keys,
	}
	for _, setName := range setNames {
		sub, err := NewSingleQuery(db, setName, "")
		if err != nil {
			return nil, err
		}
		q.subqueries = append(q.subqueries, sub)
	}
	return q, nil
}

func (q *MultiQuery) Name() string {
	return q.name
}

// AddSubqueries appends prebuilt sub-queries.
func (q *MultiQuery) AddSubqueries(subqueries ...Query) {
	q.subqueries = append(q.subqueries, subqueries...)
}

// Columns returns the concatenated column aliases of all sub-queries.
func (q *MultiQuery) Columns() []string {
	var columns []string
	for _, sub := range q.subqueries {
		columns = append(columns, sub.Columns()...)
	}
	return columns
}

// Definition builds the wire form of the multi-query: each sub-query's
// definition, a de-duplicated top-level projection per sub-query column,
// and one synthesized equality filter per key column joining the two
// sub-queries that define it. Projections and key filters keep first-seen
// order; nothing is sorted.
func (q *MultiQuery) Definition(latest bool) (*Definition, error) {
	def := q.baseDefinition()
	def.Projections = []string{}

	keyed := make(map[string]bool, len(q.keys))
	for _, key := range q.keys {
		keyed[key] = true
	}

	var seen []string
	var keyOrder []string
	keyRefs := make(map[string][]string)

	for _, sub := range q.subqueries {
		subDef, err := sub.Definition(latest)
		if err != nil {
			return nil, err
		}
		def.Subqueries = append(def.Subqueries, subDef)

		for _, column := range sub.Columns() {
			fullColumn := sub.Name() + "." + column

			if !slices.Contains(seen, column) {
				seen = append(seen, column)
				def.Projections = append(def.Projections, fullColumn+" AS "+column)
			}

			if keyed[column] {
				if _, ok := keyRefs[column]; !ok {
					keyOrder = append(keyOrder, column)
				}
				keyRefs[column] = append(keyRefs[column], fullColumn)
			}
		}
	}

	for _, key := range keyOrder {
		refs := keyRefs[key]
		switch {
		case len(refs) == 1:
			return nil, &KeyNotJoinableError{Key: key}
		case len(refs) > 2:
			return nil, &KeyAmbiguousError{Key: key, Count: len(refs)}
		default:
			def.Filters = append(def.Filters, refs[0]+"="+refs[1])
		}
	}

	return def, nil
}

// Execute builds and runs the multi-query against its database.
func (q *MultiQuery) Execute(ctx context.Context, latest bool) (*QueryResult, error) {
	def, err := q.Definition(latest)
	if err != nil {
		return nil, err
	}
	return q.ExecuteDefinition(ctx, def)
}

// ExecuteDefinition runs a literal definition override against the
// query's database, bypassing the builder. This is how queries copied from
// the IQ GUI's "View Query" panel are executed.
func (q *MultiQuery) ExecuteDefinition(ctx context.Context, def *Definition) (*QueryResult, error) {
	return q.db.client.ExecuteQuery(ctx, &QueryDefinition{MultiResult: def}, QueryModeOnce, q.db.ID)
}
