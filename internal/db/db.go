// Package db provides PostgreSQL storage for resumes and job descriptions.
//
// Every read and write runs inside a per-request scope opened with AsUser.
// The scope is a transaction whose settings identify the caller to the
// row-level security policies, so queries here never filter by owner
// themselves: rows owned by other users are simply not visible.
package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Options configures the connection pool.
type Options struct {
	// MaxConns caps the pool size. Zero keeps the default of 25.
	MaxConns int32
	// Role, when set, is assumed with SET LOCAL ROLE in every request scope.
	Role string
}

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool   *pgxpool.Pool
	role   string
	logger *slog.Logger
}

// DBTX is satisfied by both the pool and a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

type txKey struct{}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string, opts Options, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}

	config.MaxConns = 25
	if opts.MaxConns > 0 {
		config.MaxConns = opts.MaxConns
	}
	config.MinConns = min(5, config.MaxConns)

	// Supabase's transaction pooler listens on 6543 and cannot hold prepared statements.
	if config.ConnConfig.Port == 6543 && config.ConnConfig.DefaultQueryExecMode == pgx.QueryExecModeCacheStatement {
		config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheDescribe
		logger.Debug("using cache_describe query mode for transaction pooler", "port", 6543)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool, role: opts.Role, logger: logger}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// Ping checks that the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

// AsUser runs fn inside one transaction scoped to userID. The caller's id is
// published as the request.jwt.claim.sub setting (and the matching claims
// document) for the row-level security policies. The transaction commits
// when fn returns nil and rolls back otherwise.
func (db *DB) AsUser(ctx context.Context, userID uuid.UUID, fn func(ctx context.Context) error) error {
	if userID == uuid.Nil {
		return fmt.Errorf("request scope requires a user id")
	}

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			db.logger.Warn("rollback failed", "error", err)
		}
	}()

	claims, err := json.Marshal(map[string]string{"sub": userID.String(), "role": "authenticated"})
	if err != nil {
		return fmt.Errorf("failed to encode claims: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`SELECT set_config('request.jwt.claim.sub', $1, true), set_config('request.jwt.claims', $2, true)`,
		userID.String(), string(claims),
	); err != nil {
		return fmt.Errorf("failed to set request claims: %w", err)
	}

	if db.role != "" {
		if _, err := tx.Exec(ctx, "SET LOCAL ROLE "+pgx.Identifier{db.role}.Sanitize()); err != nil {
			return fmt.Errorf("failed to assume role %s: %w", db.role, err)
		}
	}

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", mapError(err))
	}
	return nil
}

// Savepoint runs fn inside a savepoint of the current request scope. If fn
// fails, only its writes are rolled back and the scope stays usable.
func (db *DB) Savepoint(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, ok := ctx.Value(txKey{}).(pgx.Tx)
	if !ok {
		return fmt.Errorf("savepoint requires a request scope")
	}

	sp, err := tx.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to create savepoint: %w", err)
	}
	if err := fn(context.WithValue(ctx, txKey{}, sp)); err != nil {
		if rbErr := sp.Rollback(ctx); rbErr != nil {
			return errors.Join(err, fmt.Errorf("failed to roll back savepoint: %w", rbErr))
		}
		return err
	}
	if err := sp.Commit(ctx); err != nil {
		return fmt.Errorf("failed to release savepoint: %w", mapError(err))
	}
	return nil
}

// conn returns the transaction of the current request scope. Queries outside
// a scope are refused so no statement runs without the caller's identity.
func (db *DB) conn(ctx context.Context) (DBTX, error) {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx, nil
	}
	return nil, fmt.Errorf("query outside request scope")
}
