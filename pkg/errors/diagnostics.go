package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// ConstraintKind groups Postgres integrity failures by SQLSTATE.
type ConstraintKind string

const (
	ConstraintUnique     ConstraintKind = "unique"
	ConstraintForeignKey ConstraintKind = "foreign_key"
	ConstraintCheck      ConstraintKind = "check"
	ConstraintNotNull    ConstraintKind = "not_null"
)

var constraintBySQLState = map[string]ConstraintKind{
	"23505": ConstraintUnique,
	"23503": ConstraintForeignKey,
	"23514": ConstraintCheck,
	"23502": ConstraintNotNull,
}

// Diagnostics is the log-side view of an error: the typed code, the unwrap
// chain and whatever the Postgres driver reported.
type Diagnostics struct {
	Message    string
	Code       Code
	Chain      []string
	SQLState   string
	Constraint string
	Kind       ConstraintKind
	Table      string
	Column     string
	Detail     string
}

// Diagnose walks err and collects driver details from either pgx or lib/pq.
func Diagnose(err error) Diagnostics {
	if err == nil {
		return Diagnostics{}
	}
	d := Diagnostics{Message: err.Error()}
	if typed := As(err); typed != nil {
		d.Code = typed.Code()
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var pgxErr *pgconn.PgError
	var pqErr *pq.Error
	switch {
	case errors.As(err, &pgxErr):
		d.SQLState = pgxErr.Code
		d.Constraint = pgxErr.ConstraintName
		d.Table = pgxErr.TableName
		d.Column = pgxErr.ColumnName
		d.Detail = pgxErr.Detail
	case errors.As(err, &pqErr):
		d.SQLState = string(pqErr.Code)
		d.Constraint = pqErr.Constraint
		d.Table = pqErr.Table
		d.Column = pqErr.Column
		d.Detail = pqErr.Detail
	}
	d.Kind = constraintBySQLState[d.SQLState]
	return d
}

// Fields returns the non-empty diagnostics as structured log fields.
func (d Diagnostics) Fields() map[string]any {
	fields := map[string]any{"error": d.Message}
	if d.Code != "" {
		fields["error_code"] = d.Code
	}
	if len(d.Chain) > 1 {
		fields["error_chain"] = d.Chain
	}
	if d.SQLState == "" {
		return fields
	}
	fields["pg_code"] = d.SQLState
	for key, value := range map[string]string{
		"pg_constraint":      d.Constraint,
		"pg_constraint_kind": string(d.Kind),
		"pg_table":           d.Table,
		"pg_column":          d.Column,
		"pg_detail":          d.Detail,
	} {
		if value != "" {
			fields[key] = value
		}
	}
	return fields
}
