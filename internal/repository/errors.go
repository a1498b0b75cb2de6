package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"gaman_backend/internal/model"
)

// psql builds postgres statements with $n placeholders.
var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
)

// mapError translates driver errors into the sentinel the caller asked for.
// Context errors and unknown failures are wrapped with op and passed through.
func mapError(err error, op string, notFound, conflict error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", op, err)
	}
	if errors.Is(err, sql.ErrNoRows) && notFound != nil {
		return notFound
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case codeUniqueViolation, codeCheckViolation:
			if conflict != nil {
				return conflict
			}
		case codeForeignKeyViolation:
			if notFound != nil {
				return notFound
			}
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// violatedConstraint names the constraint a postgres error tripped, if any.
func violatedConstraint(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Constraint
	}
	return ""
}

// trimPage cuts a limit+1 result down to limit and reports the cursor of the
// last kept row when more rows exist.
func trimPage[T any](rows []T, limit int, key func(T) model.Cursor) ([]T, *model.Cursor) {
	if len(rows) <= limit {
		return rows, nil
	}
	rows = rows[:limit]
	next := key(rows[len(rows)-1])
	return rows, &next
}

// keysetBefore restricts a newest-first listing on alias to rows strictly after
// the cursor position. Ordering must be (created_at DESC, id DESC) to match.
func keysetBefore(alias string, c *model.Cursor) squirrel.Sqlizer {
	return squirrel.Expr(
		fmt.Sprintf("(%[1]s.created_at, %[1]s.id) < (?, ?)", alias),
		c.CreatedAt, c.ID,
	)
}
