package db

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/agb-planner/planner/internal/db/driver"
	perrors "github.com/agb-planner/planner/internal/errors"
	"github.com/agb-planner/planner/internal/model"
)

// table describes how one entity maps onto its SQL table. columns excludes
// id; values and scan must agree with its order (scan also reads id first).
type table[T any] struct {
	name    string
	entity  string
	columns []string
	values  func(*T) ([]any, error)
	scan    func(scanner) (*T, error)
	setID   func(*T, string)
	// unique names the field and value reported when a UNIQUE constraint fails.
	unique func(*T) (field, value string)
}

func (tb *table[T]) selectSQL() string {
	return fmt.Sprintf("SELECT id, %s FROM %s", strings.Join(tb.columns, ", "), tb.name)
}

func (tb *table[T]) constraintError(err error, v *T) error {
	field, value := "id", ""
	if tb.unique != nil {
		field, value = tb.unique(v)
	}
	return constraintError(err, tb.entity, field, value)
}

func (tb *table[T]) insert(ctx context.Context, q querier, v *T) error {
	args, err := tb.values(v)
	if err != nil {
		return err
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(tb.columns)), ", ")
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING id",
		tb.name, strings.Join(tb.columns, ", "), placeholders)

	var id int64
	if err := q.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return fmt.Errorf("insert %s: %w", tb.entity, tb.constraintError(err, v))
	}
	tb.setID(v, formatID(id))
	return nil
}

func (tb *table[T]) get(ctx context.Context, q querier, id string) (*T, error) {
	n, ok := parseID(id)
	if !ok {
		return nil, perrors.ErrNotFound(tb.entity, id)
	}
	v, err := tb.scan(q.QueryRow(ctx, tb.selectSQL()+" WHERE id = ?", n))
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, perrors.ErrNotFound(tb.entity, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s %s: %w", tb.entity, id, err)
	}
	return v, nil
}

func (tb *table[T]) list(ctx context.Context, q querier, conds []model.Condition) ([]*T, error) {
	query := tb.selectSQL()
	args := make([]any, 0, len(conds))
	if len(conds) > 0 {
		clauses := make([]string, len(conds))
		for i, c := range conds {
			clauses[i] = c.Column + " = ?"
			args = append(args, c.Value)
		}
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY id ASC"

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", tb.name, err)
	}
	defer func() { _ = rows.Close() }()

	out := []*T{}
	for rows.Next() {
		v, err := tb.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", tb.entity, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", tb.name, err)
	}
	return out, nil
}

func (tb *table[T]) write(ctx context.Context, q querier, id string, v *T) error {
	n, ok := parseID(id)
	if !ok {
		return perrors.ErrNotFound(tb.entity, id)
	}
	args, err := tb.values(v)
	if err != nil {
		return err
	}
	sets := make([]string, len(tb.columns))
	for i, c := range tb.columns {
		sets[i] = c + " = ?"
	}
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", tb.name, strings.Join(sets, ", "))

	res, err := q.Exec(ctx, query, append(args, n)...)
	if err != nil {
		return fmt.Errorf("update %s %s: %w", tb.entity, id, tb.constraintError(err, v))
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return perrors.ErrNotFound(tb.entity, id)
	}
	return nil
}

// update reads the row, lets mutate change it and writes it back inside one
// transaction.
func (tb *table[T]) update(ctx context.Context, d *DB, id string, mutate func(*T) error) (*T, error) {
	var out *T
	err := d.RunInTx(ctx, func(tx driver.Tx) error {
		v, err := tb.get(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := mutate(v); err != nil {
			return err
		}
		if err := tb.write(ctx, tx, id, v); err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (tb *table[T]) delete(ctx context.Context, q querier, id string) (bool, error) {
	n, ok := parseID(id)
	if !ok {
		return false, nil
	}
	res, err := q.Exec(ctx, "DELETE FROM "+tb.name+" WHERE id = ?", n)
	if err != nil {
		return false, fmt.Errorf("delete %s %s: %w", tb.entity, id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete %s %s: %w", tb.entity, id, err)
	}
	return affected > 0, nil
}
