package database

import (
	"context"
	"fmt"

	"club-scheduler/core/logger"

	"github.com/jmoiron/sqlx"
)

type txKey struct{}

func txFromContext(ctx context.Context) *sqlx.Tx {
	tx, _ := ctx.Value(txKey{}).(*sqlx.Tx)
	return tx
}

// WithinTransaction runs fn inside a single database transaction. The
// transaction is attached to the context passed to fn, so every repository
// call made through IDatabase joins it. Nested calls reuse the outer
// transaction.
func (d *Database) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}

	tx, err := d.sqlx.BeginTxx(ctx, nil)
	if err != nil {
		logger.Error("Database:WithinTransaction:Begin", err)
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("Database:WithinTransaction:Rollback", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		logger.Error("Database:WithinTransaction:Commit", err)
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}
