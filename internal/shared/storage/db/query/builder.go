package query

import (
	"fmt"
	"math"
	"strings"
)

type condition struct {
	clause string
	args   []any
}

// Builder constructs Postgres SELECT queries with automatic parameter numbering.
// Column and table names are trusted; values are always bound as parameters.
type Builder struct {
	table      string
	columns    []string
	conditions []condition
	orderBy    []string
	descending bool
}

// NewBuilder creates a Builder selecting columns from table.
func NewBuilder(table string, columns ...string) *Builder {
	return &Builder{
		table:   table,
		columns: columns,
	}
}

// WhereEquals adds an equality condition. Nil values are ignored.
func (b *Builder) WhereEquals(column string, value any) *Builder {
	if value == nil {
		return b
	}
	b.conditions = append(b.conditions, condition{
		clause: column + " = $%d",
		args:   []any{value},
	})
	return b
}

// WhereSearch adds a case-insensitive substring match OR'ed across columns.
// The term is matched literally. Empty terms are ignored.
func (b *Builder) WhereSearch(term string, columns ...string) *Builder {
	if term == "" || len(columns) == 0 {
		return b
	}
	pattern := "%" + EscapeLike(term) + "%"
	clauses := make([]string, len(columns))
	args := make([]any, len(columns))
	for i, col := range columns {
		clauses[i] = col + ` ILIKE $%d ESCAPE '\'`
		args[i] = pattern
	}
	b.conditions = append(b.conditions, condition{
		clause: "(" + strings.Join(clauses, " OR ") + ")",
		args:   args,
	})
	return b
}

// OrderBy sets the sort columns, all in the same direction. Later columns break ties.
func (b *Builder) OrderBy(descending bool, columns ...string) *Builder {
	b.orderBy = columns
	b.descending = descending
	return b
}

// BuildCount returns a COUNT(*) query with the current conditions.
func (b *Builder) BuildCount() (string, []any) {
	where, args := b.buildWhere()
	return fmt.Sprintf("SELECT COUNT(*) FROM %s%s", b.table, where), args
}

// BuildPage returns a SELECT with ordering, limit, and offset. page is 1-based.
func (b *Builder) BuildPage(page, pageSize int) (string, []any) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 1
	}
	where, args := b.buildWhere()
	offset := math.MaxInt
	if page-1 <= math.MaxInt/pageSize {
		offset = (page - 1) * pageSize
	}
	sql := fmt.Sprintf(
		"SELECT %s FROM %s%s%s LIMIT %d OFFSET %d",
		strings.Join(b.columns, ", "),
		b.table,
		where,
		b.buildOrderBy(),
		pageSize,
		offset,
	)
	return sql, args
}

func (b *Builder) buildOrderBy() string {
	if len(b.orderBy) == 0 {
		return ""
	}
	dir := "ASC"
	if b.descending {
		dir = "DESC"
	}
	parts := make([]string, len(b.orderBy))
	for i, col := range b.orderBy {
		parts[i] = col + " " + dir
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

func (b *Builder) buildWhere() (string, []any) {
	if len(b.conditions) == 0 {
		return "", nil
	}

	clauses := make([]string, 0, len(b.conditions))
	args := make([]any, 0)
	paramIdx := 1

	for _, cond := range b.conditions {
		clause := cond.clause
		for _, arg := range cond.args {
			clause = strings.Replace(clause, "$%d", fmt.Sprintf("$%d", paramIdx), 1)
			args = append(args, arg)
			paramIdx++
		}
		clauses = append(clauses, clause)
	}

	return " WHERE " + strings.Join(clauses, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike escapes LIKE wildcards so s matches literally.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}
