package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of pgx operations repositories need. It is
// satisfied by both *pgxpool.Pool and pgx.Tx, so a repository can be
// rebound onto a transaction with WithTx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxRunner starts a transaction and runs fn inside it, committing on
// success and rolling back on error. *persistence.Postgres implements it.
type TxRunner interface {
	InTx(ctx context.Context, fn func(pgx.Tx) error) error
}
