package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"club-scheduler/core/config"
	"club-scheduler/core/constants"
	"club-scheduler/core/logger"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type IDatabase interface {
	ExecContext(ctx context.Context, query string, args ...any) error
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	NamedQueryContext(ctx context.Context, query string, arg any) (*sqlx.Rows, error)
	NamedExecContext(ctx context.Context, query string, arg any) (sql.Result, error)
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
	SQLx() *sqlx.DB
}

type Database struct {
	sqlx *sqlx.DB
}

func InitDB(cfg config.DatabaseConfig) (*Database, error) {
	logger.Info("Database:InitDB", "host", cfg.Host, "port", cfg.Port, "database", cfg.DBName)

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	sqlxDB, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		logger.Error("Database:InitDB:Connect", err)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlxDB.SetMaxOpenConns(constants.DatabaseMaxOpenConns)
	sqlxDB.SetMaxIdleConns(constants.DatabaseMaxIdleConns)
	sqlxDB.SetConnMaxLifetime(time.Duration(constants.DatabaseConnMaxLifetime) * time.Minute)

	if err = sqlxDB.Ping(); err != nil {
		logger.Error("Database:InitDB:Ping", err)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Database{sqlx: sqlxDB}, nil
}

// ext returns the transaction bound to ctx when one is present, otherwise
// the connection pool. All query methods route through it so repository
// code is transaction-agnostic.
func (d *Database) ext(ctx context.Context) sqlx.ExtContext {
	if tx := txFromContext(ctx); tx != nil {
		return tx
	}
	return d.sqlx
}

func (d *Database) ExecContext(ctx context.Context, query string, args ...any) error {
	_, err := d.ext(ctx).ExecContext(ctx, query, args...)
	return err
}

func (d *Database) GetContext(ctx context.Context, dest any, query string, args ...any) error {
	return sqlx.GetContext(ctx, d.ext(ctx), dest, query, args...)
}

func (d *Database) SelectContext(ctx context.Context, dest any, query string, args ...any) error {
	return sqlx.SelectContext(ctx, d.ext(ctx), dest, query, args...)
}

func (d *Database) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRowContext(ctx, query, args...)
	}
	return d.sqlx.QueryRowContext(ctx, query, args...)
}

func (d *Database) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return d.ext(ctx).QueryContext(ctx, query, args...)
}

func (d *Database) NamedQueryContext(ctx context.Context, query string, arg any) (*sqlx.Rows, error) {
	return sqlx.NamedQueryContext(ctx, d.ext(ctx), query, arg)
}

func (d *Database) NamedExecContext(ctx context.Context, query string, arg any) (sql.Result, error) {
	return sqlx.NamedExecContext(ctx, d.ext(ctx), query, arg)
}

func (d *Database) SQLx() *sqlx.DB {
	return d.sqlx
}
