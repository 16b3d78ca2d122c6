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

// ColumnInfo describes a single typed column of a set.
type ColumnInfo struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Unit        string `json:"unit"`
	DisplayName string `json:"display_name"`
	Description string `json:"description"`
}

// SetInfo is the wire form of a set in the database detail response.
type SetInfo struct {
	Name string `json:"name"`
	// Facts are the columns of a result set.
	Facts []ColumnInfo `json:"facts,omitempty"`
	// Attributes are the columns of a dimension set.
	Attributes []ColumnInfo `json:"attributes,omitempty"`
	// DimensionSets names the dimension sets linked to a result set.
	DimensionSets []string `json:"dimension_sets,omitempty"`
	// PrimaryDimensionSet names the primary dimension set of a result set.
	PrimaryDimensionSet string `json:"primary_dimension_set,omitempty"`
}

// ColumnsInfo holds the full ordered projection-clause list of a set and
// the parallel list of column aliases.
type ColumnsInfo struct {
	Projections []string
	Aliases     []string
}

// Set is a named tabular entity of a results database, either a ResultSet
// or a DimensionSet.
type Set interface {
	Name() string
	// Columns returns the column names in declaration order.
	Columns() []string
	ColumnType(name string) (string, error)
	ColumnUnit(name string) (string, error)
	ColumnDisplayName(name string) (string, error)
	ColumnDescription(name string) (string, error)
	// FullColumnName returns "<set>.<name>".
	FullColumnName(name string) string
	// ColumnAlias returns "<set>_<name>".
	ColumnAlias(name string) string
	// ColumnsInfo returns the projection clauses and aliases for every
	// column of the set. The latest flag only affects result sets.
	ColumnsInfo(latest bool) *ColumnsInfo

	resolveRelatedSets(db *Database)
}

// setSchema holds the column map shared by both set kinds.
type setSchema struct {
	name       string
	columnList []string
	columnInfo map[string]ColumnInfo
}

func newSetSchema(name string, columns []ColumnInfo) setSchema {
	s := setSchema{
		name:       name,
		columnInfo: make(map[string]ColumnInfo, len(columns)),
	}
	for _, column := range columns {
		s.columnInfo[column.Name] = column
		s.columnList = append(s.columnList, column.Name)
	}
	return s
}

func (s *setSchema) Name() string {
	return s.name
}

func (s *setSchema) Columns() []string {
	return s.columnList
}

func (s *setSchema) column(name string) (ColumnInfo, error) {
	info, ok := s.columnInfo[name]
	if !ok {
		return ColumnInfo{}, &ColumnNotFoundError{Set: s.name, Column: name}
	}
	return info, nil
}

func (s *setSchema) ColumnType(name string) (string, error) {
	info, err := s.column(name)
	return info.Type, err
}

func (s *setSchema) ColumnUnit(name string) (string, error) {
	info, err := s.column(name)
	return info.Unit, err
}

func (s *setSchema) ColumnDisplayName(name string) (string, error) {
	info, err := s.column(name)
	return info.DisplayName, err
}

func (s *setSchema) ColumnDescription(name string) (string, error) {
	info, err := s.column(name)
	return info.Description, err
}

func (s *setSchema) FullColumnName(name string) string {
	return s.name + "." + name
}

func (s *setSchema) ColumnAlias(name string) string {
	return s.name + "_" + name
}

// DimensionSet is a descriptive attribute table joinable to result sets.
type DimensionSet struct {
	setSchema
}

func newDimensionSet(info SetInfo) *DimensionSet {
	return &DimensionSet{setSchema: newSetSchema(info.Name, info.Attributes)}
}

func (s *DimensionSet) ColumnsInfo(bool) *ColumnsInfo {
	info := &ColumnsInfo{}
	for _, column := range s.columnList {
		info.Projections = append(info.Projections, s.FullColumnName(column)+" AS "+s.ColumnAlias(column))
		info.Aliases = append(info.Aliases, s.ColumnAlias(column))
	}
	return info
}

func (s *DimensionSet) resolveRelatedSets(*Database) {}

// ResultSet is a fact table of measured values, linked to the dimension
// sets it declares.
type ResultSet struct {
	setSchema
	info          SetInfo
	dimensionSets []*DimensionSet
	primary       *DimensionSet
}

func newResultSet(info SetInfo) *ResultSet {
	return &ResultSet{
		setSchema: newSetSchema(info.Name, info.Facts),
		info:      info,
	}
}

// resolveRelatedSets resolves the named dimension-set references into
// direct handles. This cannot happen during construction: a result set may
// reference a dimension set declared later in the same list.
func (s *ResultSet) resolveRelatedSets(db *Database) {
	s.dimensionSets = nil
	for _, name := range s.info.DimensionSets {
		if related, ok := db.FindSetByName(name).(*DimensionSet); ok {
			s.dimensionSets = append(s.dimensionSets, related)
		}
	}
	s.primary = nil
	if related, ok := db.FindSetByName(s.info.PrimaryDimensionSet).(*DimensionSet); ok {
		s.primary = related
	}
}

// DimensionSets returns the linked dimension sets in declaration order.
func (s *ResultSet) DimensionSets() []*DimensionSet {
	return s.dimensionSets
}

// PrimaryDimensionSet returns the primary dimension set, or nil.
func (s *ResultSet) PrimaryDimensionSet() *DimensionSet {
	return s.primary
}

// LatestColumnName returns the "$last" windowed form of a column, which
// selects only the most recent row per correlation group.
func (s *ResultSet) LatestColumnName(name string) string {
	return "(" + s.name + "$last." + name + ")"
}

func (s *ResultSet) fullColumnName(name string, latest bool) string {
	if latest {
		return s.LatestColumnName(name)
	}
	return s.FullColumnName(name)
}

// ColumnsInfo returns the projection clauses for the set's own facts,
// followed by the columns of every linked dimension set in declaration
// order. Dimension columns are never projected in the latest form.
func (s *ResultSet) ColumnsInfo(latest bool) *ColumnsInfo {
	info := &ColumnsInfo{}
	for _, column := range s.columnList {
		info.Projections = append(info.Projections, s.fullColumnName(column, latest)+" AS "+s.ColumnAlias(column))
		info.Aliases = append(info.Aliases, s.ColumnAlias(column))
	}
	for _, dimensionSet := range s.dimensionSets {
		for _, column := range dimensionSet.Columns() {
			info.Projections = append(info.Projections, dimensionSet.FullColumnName(column)+" AS "+dimensionSet.ColumnAlias(column))
			info.Aliases = append(info.Aliases, dimensionSet.ColumnAlias(column))
		}
	}
	return info
}
