// Package query builds SQL statements from projection maps with automatic
// parameter numbering.
package query

import (
	"fmt"
	"strings"
)

// ProjectionMap maps logical field names to qualified column references
// (alias.column) for a single table.
type ProjectionMap struct {
	schema  string
	table   string
	alias   string
	columns map[string]string
	ordered []string
}

// NewProjectionMap creates a ProjectionMap for the given schema, table, and alias.
func NewProjectionMap(schema, table, alias string) *ProjectionMap {
	return &ProjectionMap{
		schema:  schema,
		table:   table,
		alias:   alias,
		columns: make(map[string]string),
	}
}

// Project adds a mapping from database column to logical field name.
func (p *ProjectionMap) Project(column, field string) *ProjectionMap {
	qualified := p.alias + "." + column
	p.columns[field] = qualified
	p.ordered = append(p.ordered, qualified)
	return p
}

// From returns the qualified table reference with alias (schema.table alias).
func (p *ProjectionMap) From() string {
	return fmt.Sprintf("%s.%s %s", p.schema, p.table, p.alias)
}

// Column returns the qualified column for a logical field name, or the input
// unchanged if not mapped.
func (p *ProjectionMap) Column(field string) string {
	if col, ok := p.columns[field]; ok {
		return col
	}
	return field
}

// Columns returns all mapped columns as a comma-separated select list.
func (p *ProjectionMap) Columns() string {
	return strings.Join(p.ordered, ", ")
}
