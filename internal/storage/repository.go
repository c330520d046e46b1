package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/neexbeast/tour-packages/internal/tour"
)

// Querier abstracts the subset of pgxpool.Pool used by the repositories.
// This allows injection of a mock in tests.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// assignment is one column = value pair of a partial update.
type assignment struct {
	column string
	value  any
}

// table implements the data-access operations shared by every entity.
// name and columns are compile-time constants, never user input.
type table[T any] struct {
	q       Querier
	name    string
	entity  string
	columns string
	scan    func(row pgx.Row) (*T, error)
}

// findByID returns nil, nil when no row has the given id.
func (t *table[T]) findByID(ctx context.Context, id int64) (*T, error) {
	q := `SELECT ` + t.columns + ` FROM ` + t.name + ` WHERE id = $1`

	v, err := t.scan(t.q.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying %s %d: %w", t.entity, id, err)
	}
	return v, nil
}

// version reads the row count and the newest updated_at of the table.
func (t *table[T]) version(ctx context.Context) (tour.Version, error) {
	q := `SELECT COUNT(*), COALESCE(MAX(updated_at), 'epoch'::timestamptz) FROM ` + t.name

	var v tour.Version
	if err := t.q.QueryRow(ctx, q).Scan(&v.Rows, &v.LastModified); err != nil {
		return tour.Version{}, fmt.Errorf("reading %s table version: %w", t.entity, err)
	}
	return v, nil
}

// findAll returns every row ordered by id.
func (t *table[T]) findAll(ctx context.Context) ([]*T, error) {
	return t.findWhere(ctx, "", nil)
}

// findWhere returns the rows matching the SQL condition, ordered by id.
// An empty condition matches every row.
func (t *table[T]) findWhere(ctx context.Context, cond string, args []any) ([]*T, error) {
	q := `SELECT ` + t.columns + ` FROM ` + t.name
	if cond != "" {
		q += ` WHERE ` + cond
	}
	q += ` ORDER BY id`

	rows, err := t.q.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s rows: %w", t.entity, err)
	}
	defer rows.Close()

	results := []*T{}
	for rows.Next() {
		v, err := t.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", t.entity, err)
		}
		results = append(results, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s rows: %w", t.entity, err)
	}

	return results, nil
}

// insert runs INSERT ... RETURNING with the given column/value pairs.
func (t *table[T]) insert(ctx context.Context, values []assignment) (*T, error) {
	cols := make([]string, 0, len(values))
	params := make([]string, 0, len(values))
	args := make([]any, 0, len(values))
	for i, a := range values {
		cols = append(cols, a.column)
		params = append(params, fmt.Sprintf("$%d", i+1))
		args = append(args, a.value)
	}

	q := `INSERT INTO ` + t.name + ` (` + strings.Join(cols, ", ") + `)
		VALUES (` + strings.Join(params, ", ") + `)
		RETURNING ` + t.columns

	v, err := t.scan(t.q.QueryRow(ctx, q, args...))
	if err != nil {
		return nil, fmt.Errorf("inserting %s: %w", t.entity, err)
	}
	return v, nil
}

// update sets only the given columns and touches updated_at.
// With no assignments it behaves like findByID. Returns nil, nil for a missing id.
func (t *table[T]) update(ctx context.Context, id int64, sets []assignment) (*T, error) {
	if len(sets) == 0 {
		return t.findByID(ctx, id)
	}

	clauses := make([]string, 0, len(sets)+1)
	args := make([]any, 0, len(sets)+1)
	for i, a := range sets {
		clauses = append(clauses, fmt.Sprintf("%s = $%d", a.column, i+1))
		args = append(args, a.value)
	}
	clauses = append(clauses, "updated_at = NOW()")
	args = append(args, id)

	q := `UPDATE ` + t.name + `
		SET ` + strings.Join(clauses, ", ") + `
		WHERE id = $` + fmt.Sprint(len(args)) + `
		RETURNING ` + t.columns

	v, err := t.scan(t.q.QueryRow(ctx, q, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("updating %s %d: %w", t.entity, id, err)
	}
	return v, nil
}

// delete reports whether a row was removed.
func (t *table[T]) delete(ctx context.Context, id int64) (bool, error) {
	q := `DELETE FROM ` + t.name + ` WHERE id = $1`

	tag, err := t.q.Exec(ctx, q, id)
	if err != nil {
		return false, fmt.Errorf("deleting %s %d: %w", t.entity, id, err)
	}
	return tag.RowsAffected() > 0, nil
}
