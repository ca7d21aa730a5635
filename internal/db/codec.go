package db

import (
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	perrors "github.com/agb-planner/planner/internal/errors"
)

// PostgreSQL SQLSTATE codes for constraint violations.
const (
	pgUniqueViolation = "23505"
	pgCheckViolation  = "23514"
)

type scanner interface {
	Scan(dest ...any) error
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseNullableTime(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := parseTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func encodeJSON[T any](v []T) (string, error) {
	if v == nil {
		return "[]", nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode json column: %w", err)
	}
	return string(data), nil
}

// decodeJSON decodes a JSON list column, always returning a non-nil slice.
func decodeJSON[T any](s string) ([]T, error) {
	out := []T{}
	if s == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, fmt.Errorf("decode json column: %w", err)
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

// parseID converts an opaque id into the integer primary key. Ids that are
// not decimal integers cannot exist in the table.
func parseID(id string) (int64, bool) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// constraintError maps driver constraint violations onto domain errors.
// UNIQUE violations become conflicts on field, CHECK violations become
// validation errors. Anything else is returned unchanged.
func constraintError(err error, entity, field, value string) error {
	var se *sqlite.Error
	if stderrors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return perrors.ErrConflict(entity, field, value).WithCause(err)
		case sqlite3.SQLITE_CONSTRAINT_CHECK:
			return checkViolation(entity, err)
		case sqlite3.SQLITE_CONSTRAINT:
			msg := se.Error()
			if strings.Contains(msg, "UNIQUE") {
				return perrors.ErrConflict(entity, field, value).WithCause(err)
			}
			if strings.Contains(msg, "CHECK") {
				return checkViolation(entity, err)
			}
		}
		return err
	}

	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return perrors.ErrConflict(entity, field, value).WithCause(err)
		case pgCheckViolation:
			return checkViolation(entity, err)
		}
	}
	return err
}

func checkViolation(entity string, err error) error {
	return perrors.ErrValidation(entity, []perrors.FieldError{{
		Field:   "",
		Message: "a stored value is outside its allowed range",
	}}).WithCause(err)
}
