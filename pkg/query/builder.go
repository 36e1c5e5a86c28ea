package query

import (
	"fmt"
	"strings"
)

// SortField names a logical field for an ORDER BY clause.
// Descending controls direction (false = ASC, true = DESC).
type SortField struct {
	Field      string
	Descending bool
}

// ParseSortFields parses a comma-separated sort string into SortFields.
// Fields prefixed with "-" sort descending, e.g. "status,-added_at".
// Returns nil for empty input.
func ParseSortFields(s string) []SortField {
	if s == "" {
		return nil
	}

	var fields []SortField
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		if after, ok := strings.CutPrefix(part, "-"); ok {
			fields = append(fields, SortField{Field: after, Descending: true})
		} else {
			fields = append(fields, SortField{Field: part})
		}
	}

	return fields
}

// Builder constructs SELECT statements over a projection with a fluent API.
// Placeholders are numbered as conditions are added.
type Builder struct {
	projection  *ProjectionMap
	clauses     []string
	args        []any
	orderBy     []SortField
	defaultSort []SortField
}

// NewBuilder creates a Builder for the given projection with optional default
// sort fields.
func NewBuilder(projection *ProjectionMap, defaultSort ...SortField) *Builder {
	return &Builder{
		projection:  projection,
		defaultSort: defaultSort,
	}
}

// WhereEquals adds an equality condition. No-op for nil values.
func (b *Builder) WhereEquals(field string, value any) *Builder {
	if value == nil {
		return b
	}
	if s, ok := value.(*string); ok {
		if s == nil {
			return b
		}
		value = *s
	}
	b.addClause(fmt.Sprintf("%s = $%d", b.projection.Column(field), b.next()), value)
	return b
}

// WhereContains adds a case-insensitive ILIKE condition. No-op for nil or
// empty values.
func (b *Builder) WhereContains(field string, value *string) *Builder {
	if value == nil || *value == "" {
		return b
	}
	b.addClause(
		fmt.Sprintf("%s ILIKE $%d", b.projection.Column(field), b.next()),
		"%"+*value+"%",
	)
	return b
}

// WhereIn adds a membership condition. No-op for empty value sets.
func (b *Builder) WhereIn(field string, values []any) *Builder {
	if len(values) == 0 {
		return b
	}

	placeholders := make([]string, len(values))
	for i, value := range values {
		placeholders[i] = fmt.Sprintf("$%d", b.next())
		b.args = append(b.args, value)
	}

	b.clauses = append(b.clauses, fmt.Sprintf(
		"%s IN (%s)",
		b.projection.Column(field),
		strings.Join(placeholders, ", "),
	))
	return b
}

// WhereSearch adds an OR condition across multiple fields with ILIKE.
// No-op for nil or empty search terms.
func (b *Builder) WhereSearch(search *string, fields ...string) *Builder {
	if search == nil || *search == "" || len(fields) == 0 {
		return b
	}

	pattern := "%" + *search + "%"
	parts := make([]string, len(fields))
	for i, field := range fields {
		parts[i] = fmt.Sprintf("%s ILIKE $%d", b.projection.Column(field), b.next())
		b.args = append(b.args, pattern)
	}

	b.clauses = append(b.clauses, "("+strings.Join(parts, " OR ")+")")
	return b
}

// OrderByFields sets the sort order, overriding the default sort.
func (b *Builder) OrderByFields(fields []SortField) *Builder {
	b.orderBy = fields
	return b
}

// Build returns a SELECT statement with the accumulated conditions and ordering.
func (b *Builder) Build() (string, []any) {
	sql := fmt.Sprintf(
		"SELECT %s FROM %s%s%s",
		b.projection.Columns(),
		b.projection.From(),
		b.buildWhere(),
		b.buildOrderBy(),
	)
	return sql, b.args
}

// BuildCount returns a COUNT(*) statement with the accumulated conditions.
func (b *Builder) BuildCount() (string, []any) {
	sql := fmt.Sprintf(
		"SELECT COUNT(*) FROM %s%s",
		b.projection.From(),
		b.buildWhere(),
	)
	return sql, b.args
}

// BuildPage returns a paginated SELECT statement with ordering, limit, and offset.
func (b *Builder) BuildPage(page, pageSize int) (string, []any) {
	sql := fmt.Sprintf(
		"SELECT %s FROM %s%s%s LIMIT %d OFFSET %d",
		b.projection.Columns(),
		b.projection.From(),
		b.buildWhere(),
		b.buildOrderBy(),
		pageSize,
		(page-1)*pageSize,
	)
	return sql, b.args
}

// BuildSingle returns a SELECT statement for a single record by ID field.
func (b *Builder) BuildSingle(idField string, id any) (string, []any) {
	sql := fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s = $1",
		b.projection.Columns(),
		b.projection.From(),
		b.projection.Column(idField),
	)
	return sql, []any{id}
}

func (b *Builder) addClause(clause string, args ...any) {
	b.clauses = append(b.clauses, clause)
	b.args = append(b.args, args...)
}

func (b *Builder) next() int {
	return len(b.args) + 1
}

func (b *Builder) buildWhere() string {
	if len(b.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.clauses, " AND ")
}

func (b *Builder) buildOrderBy() string {
	fields := b.orderBy
	if len(fields) == 0 {
		fields = b.defaultSort
	}
	if len(fields) == 0 {
		return ""
	}

	parts := make([]string, len(fields))
	for i, f := range fields {
		dir := "ASC"
		if f.Descending {
			dir = "DESC"
		}
		parts[i] = b.projection.Column(f.Field) + " " + dir
	}

	return " ORDER BY " + strings.Join(parts, ", ")
}
