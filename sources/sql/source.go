package exportsql

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"

	"github.com/goliatone/go-flexcell/export"
)

// Queryer runs a query. *sql.DB, *sql.Conn and *sql.Tx satisfy it.
type Queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Source executes a named query and streams its rows as dataset items.
// Column names containing dots become nested rows, so "district.name"
// resolves through the same path as a nested map.
type Source struct {
	Registry  *Registry
	DB        Queryer
	QueryName string
	Args      []any
}

// NewSource creates a named query source.
func NewSource(reg *Registry, db Queryer, name string, args ...any) *Source {
	return &Source{Registry: reg, DB: db, QueryName: name, Args: args}
}

// Open validates args and executes the named query. Rows are read lazily.
func (s *Source) Open(ctx context.Context) (export.RowIterator, error) {
	if s == nil || s.Registry == nil {
		return nil, export.NewError(export.KindValidation, "query registry is required", nil)
	}
	if s.DB == nil {
		return nil, export.NewError(export.KindValidation, "database is required", nil)
	}
	if s.QueryName == "" {
		return nil, export.NewError(export.KindValidation, "query name is required", nil)
	}

	def, ok := s.Registry.Resolve(s.QueryName)
	if !ok {
		return nil, export.NewError(export.KindNotFound, fmt.Sprintf("query %q not registered", s.QueryName), nil)
	}
	if def.Validate != nil {
		if err := def.Validate(s.Args); err != nil {
			return nil, export.NewError(export.KindValidation, fmt.Sprintf("query %q args", def.Name), err)
		}
	}

	rows, err := s.DB.QueryContext(ctx, def.Query, s.Args...)
	if err != nil {
		return nil, export.NewError(export.KindInternal, fmt.Sprintf("query %q failed", def.Name), err)
	}
	columns, err := rows.Columns()
	if err != nil {
		_ = rows.Close()
		return nil, export.NewError(export.KindInternal, "read query columns", err)
	}
	return &rowsIterator{rows: rows, columns: columns}, nil
}

type rowsIterator struct {
	rows    *sql.Rows
	columns []string
}

func (it *rowsIterator) Next(ctx context.Context) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !it.rows.Next() {
		if err := it.rows.Err(); err != nil {
			return nil, export.NewError(export.KindInternal, "iterate query rows", err)
		}
		return nil, io.EOF
	}
	values := make([]any, len(it.columns))
	dest := make([]any, len(it.columns))
	for i := range values {
		dest[i] = &values[i]
	}
	if err := it.rows.Scan(dest...); err != nil {
		return nil, export.NewError(export.KindInternal, "scan query row", err)
	}

	row := export.Row{}
	for i, column := range it.columns {
		value := values[i]
		if b, ok := value.([]byte); ok {
			value = string(b)
		}
		setPath(row, column, value)
	}
	return row, nil
}

func (it *rowsIterator) Close() error {
	return it.rows.Close()
}

func setPath(row export.Row, path string, value any) {
	segments := strings.Split(path, ".")
	current := row
	for _, segment := range segments[:len(segments)-1] {
		next, ok := current[segment].(export.Row)
		if !ok {
			next = export.Row{}
			current[segment] = next
		}
		current = next
	}
	current[segments[len(segments)-1]] = value
}
