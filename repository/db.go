// Package repository holds the PostgreSQL implementations of the service
// repositories.
package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"blog-api/service"
)

// Open creates the pool and checks connectivity.
func Open(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgxpool ping: %w", err)
	}
	return pool, nil
}

// executor is the part of pgx shared by the pool and a transaction.
type executor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type txKey struct{}

// getExecutor returns the transaction stored in ctx, or the pool.
func getExecutor(ctx context.Context, db *pgxpool.Pool) executor {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return db
}

type TxManager struct {
	DB *pgxpool.Pool
}

func NewTxManager(db *pgxpool.Pool) *TxManager { return &TxManager{DB: db} }

// WithTx commits when fn returns nil and rolls back otherwise. Nested calls
// join the outer transaction.
func (m *TxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return runTx(ctx, m.DB, pgx.TxOptions{}, fn)
}

// snapshotRead lets several reads see one consistent snapshot.
var snapshotRead = pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}

func runTx(ctx context.Context, db *pgxpool.Pool, opts pgx.TxOptions, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }() // no-op after commit

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Compile-time interface checks.
var (
	_ service.TxManager         = (*TxManager)(nil)
	_ service.PostRepository    = (*PostRepo)(nil)
	_ service.CommentRepository = (*CommentRepo)(nil)
	_ service.LikeRepository    = (*LikeRepo)(nil)
	_ service.TagRepository     = (*TagRepo)(nil)
)
