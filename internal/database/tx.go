package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Transactor runs a unit of work inside one database transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error
}

type TxRunner struct {
	db *sqlx.DB
}

func NewTxRunner(db *sqlx.DB) *TxRunner {
	return &TxRunner{db: db}
}

// WithinTx commits when fn returns nil and rolls back on error or panic.
// Nested calls open independent transactions.
func (r *TxRunner) WithinTx(ctx context.Context, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
