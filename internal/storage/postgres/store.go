package postgres

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // driver import
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/shelfward/shelfward/internal/storage"
	"github.com/shelfward/shelfward/internal/storage/postgres/internal/adapters"
)

const (
	tableBooks             = "books"
	tableUsers             = "users"
	tableReservations      = "reservations"
	tableReservationEvents = "reservation_events"

	dialectPostgres = "postgres"
	exprNow         = "NOW()"

	logMsgBuildQueryFailed  = "failed to build query"
	logMsgDBQueryFailed     = "database query execution failed"
	logMsgDBExecFailed      = "database execution failed"
	logMsgCloseRowsFailed   = "failed to close database rows"
	logMsgScanRowFailed     = "failed to scan database row"
	logMsgRowsAffected      = "failed to get rows affected count"
	logMsgBeginTxFailed     = "failed to begin transaction"
	logMsgSQLExecuted       = "executed sql for: "
	logAttrError            = "error"
	logAttrQuery            = "query"
	logAttrDurationMS       = "duration_ms"
)

// ErrForeignTx is returned when a transaction that was not opened by this
// store is handed back to one of its methods.
var ErrForeignTx = errors.New("transaction was not started by this store")

// Logger interface for SQL query logging, operational metrics, warnings, and
// error reporting.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Store is the Postgres persistence layer for the whole backend: the book
// catalog including its availability bit, the identity records, and the
// reservation ledger. It implements every interface in the storage package.
// It leverages a database adapter and supports customizable logging.
type Store struct {
	db     adapters.DBAdapter
	logger Logger
}

// Option defines a functional option for configuring Store.
type Option func(*Store) error

// WithLogger sets the logger for the Store.
//
// Debug level: SQL queries with execution timing (development use)
// Warn level: Non-critical issues like cleanup failures
// Error level: Critical failures that cause operation failures.
func WithLogger(logger Logger) Option {
	return func(s *Store) error {
		s.logger = logger
		return nil
	}
}

// NewStoreFromPGXPool creates a new Store using a pgx pool with optional
// configuration.
func NewStoreFromPGXPool(db *pgxpool.Pool, options ...Option) (*Store, error) {
	if db == nil {
		return nil, storage.ErrNilDatabaseConnection
	}

	return newStore(adapters.NewPGXAdapter(db), options...)
}

// NewStoreFromSQLDB creates a new Store using a sql.DB with optional
// configuration.
func NewStoreFromSQLDB(db *sql.DB, options ...Option) (*Store, error) {
	if db == nil {
		return nil, storage.ErrNilDatabaseConnection
	}

	return newStore(adapters.NewSQLAdapter(db), options...)
}

// NewStoreFromSQLX creates a new Store using a sqlx.DB with optional
// configuration.
func NewStoreFromSQLX(db *sqlx.DB, options ...Option) (*Store, error) {
	if db == nil {
		return nil, storage.ErrNilDatabaseConnection
	}

	return newStore(adapters.NewSQLXAdapter(db), options...)
}

func newStore(db adapters.DBAdapter, options ...Option) (*Store, error) {
	s := &Store{db: db}

	for _, option := range options {
		if err := option(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Tx wraps an adapter-level transaction so the service layer only sees the
// storage.Tx interface.
type Tx struct {
	tx adapters.DBTx
}

// Commit commits the transaction.
func (t *Tx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(ctx); err != nil {
		return errors.Join(storage.ErrCommitTxFailed, err)
	}

	return nil
}

// Rollback rolls the transaction back. Rolling back an already committed
// transaction is a no-op error that callers may ignore.
func (t *Tx) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}

// Begin opens a transaction. Every Tx handed out here must be passed back to
// the store methods that accept one; transactions from other stores are
// rejected with ErrForeignTx.
func (s *Store) Begin(ctx context.Context) (storage.Tx, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		if s.logger != nil {
			s.logger.Error(logMsgBeginTxFailed, logAttrError, err.Error())
		}

		return nil, errors.Join(storage.ErrBeginTxFailed, err)
	}

	return &Tx{tx: tx}, nil
}

// handleFor resolves the adapter handle to run a statement on: the given
// transaction when one is supplied, the pool otherwise.
func (s *Store) handleFor(tx storage.Tx) (adapters.DBHandle, error) {
	if tx == nil {
		return s.db, nil
	}

	own, ok := tx.(*Tx)
	if !ok {
		return nil, ErrForeignTx
	}

	return own.tx, nil
}

// Ensure Store implements every storage contract.
var _ storage.TxBeginner = (*Store)(nil)
var _ storage.Availability = (*Store)(nil)
var _ storage.Ledger = (*Store)(nil)
var _ storage.Books = (*Store)(nil)
var _ storage.Users = (*Store)(nil)

var builder = goqu.Dialect(dialectPostgres)

// now renders as a server-side NOW() so every timestamp comes from the
// database clock.
func now() goqu.Expression {
	return goqu.L(exprNow)
}

// query executes a select statement on the given handle with debug timing.
func (s *Store) query(ctx context.Context, h adapters.DBHandle, action string, sqlQuery string) (adapters.DBRows, error) {
	start := time.Now()
	rows, queryErr := h.Query(ctx, sqlQuery)
	s.logQueryWithDuration(sqlQuery, action, time.Since(start))

	if queryErr != nil {
		if s.logger != nil {
			s.logger.Error(logMsgDBQueryFailed, logAttrError, queryErr.Error(), logAttrQuery, sqlQuery)
		}

		return nil, errors.Join(storage.ErrQueryFailed, queryErr)
	}

	return rows, nil
}

// exec executes a statement on the given handle and returns the number of
// affected rows.
func (s *Store) exec(ctx context.Context, h adapters.DBHandle, action string, sqlQuery string) (int64, error) {
	start := time.Now()
	result, execErr := h.Exec(ctx, sqlQuery)
	s.logQueryWithDuration(sqlQuery, action, time.Since(start))

	if execErr != nil {
		if s.logger != nil {
			s.logger.Error(logMsgDBExecFailed, logAttrError, execErr.Error(), logAttrQuery, sqlQuery)
		}

		return 0, errors.Join(storage.ErrExecFailed, execErr)
	}

	rowsAffected, rowsAffectedErr := result.RowsAffected()
	if rowsAffectedErr != nil {
		if s.logger != nil {
			s.logger.Error(logMsgRowsAffected, logAttrError, rowsAffectedErr.Error())
		}

		return 0, errors.Join(storage.ErrExecFailed, rowsAffectedErr)
	}

	return rowsAffected, nil
}

// closeRows safely closes database rows and logs any errors.
func (s *Store) closeRows(rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		if s.logger != nil {
			s.logger.Warn(logMsgCloseRowsFailed, logAttrError, closeErr.Error())
		}
	}
}

func (s *Store) scanErr(err error) error {
	if s.logger != nil {
		s.logger.Error(logMsgScanRowFailed, logAttrError, err.Error())
	}

	return errors.Join(storage.ErrScanRowFailed, err)
}

func (s *Store) buildErr(err error) error {
	if s.logger != nil {
		s.logger.Error(logMsgBuildQueryFailed, logAttrError, err.Error())
	}

	return errors.Join(storage.ErrBuildingQueryFailed, err)
}

// logQueryWithDuration logs SQL queries with execution time at debug level
// if the logger is configured.
func (s *Store) logQueryWithDuration(sqlQuery string, action string, duration time.Duration) {
	if s.logger != nil {
		s.logger.Debug(logMsgSQLExecuted+action, logAttrDurationMS, durationToMilliseconds(duration), logAttrQuery, sqlQuery)
	}
}

// durationToMilliseconds converts a time.Duration to float64 milliseconds
// with 3 decimal places.
func durationToMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
