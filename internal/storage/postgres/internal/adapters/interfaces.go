package adapters

import "context"

// DBHandle is the query surface shared by a plain connection pool and an
// open transaction. Queries arrive as fully rendered SQL strings.
type DBHandle interface {
	Query(ctx context.Context, query string) (DBRows, error)
	Exec(ctx context.Context, query string) (DBResult, error)
}

// DBAdapter defines the database operations needed by the stores.
type DBAdapter interface {
	DBHandle
	Begin(ctx context.Context) (DBTx, error)
}

// DBTx is an open transaction.
type DBTx interface {
	DBHandle
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// DBRows defines the interface for query result rows.
type DBRows interface {
	Next() bool
	Scan(dest ...any) error
	Close() error
}

// DBResult defines the interface for execution results.
type DBResult interface {
	RowsAffected() (int64, error)
}
