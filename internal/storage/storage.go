// Package storage defines the persistence contracts consumed by the service
// layer. The postgres subpackage implements them; services depend only on
// these interfaces so the transactional write path can be tested with fakes.
package storage

import (
	"context"
	"errors"

	"github.com/shelfward/shelfward/internal/domain"
)

var ErrNilDatabaseConnection = errors.New("database connection must not be nil")
var ErrBeginTxFailed = errors.New("failed to begin transaction")
var ErrCommitTxFailed = errors.New("failed to commit transaction")
var ErrQueryFailed = errors.New("database query execution failed")
var ErrExecFailed = errors.New("database execution failed")
var ErrScanRowFailed = errors.New("failed to scan database row")
var ErrBuildingQueryFailed = errors.New("failed to build query")

// Tx is an open database transaction handed back to the store methods that
// must run inside it. A Tx that is neither committed nor rolled back leaks a
// connection; callers roll back on every error path.
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TxBeginner opens transactions. The reservation service is the only writer
// path that needs one.
type TxBeginner interface {
	Begin(ctx context.Context) (Tx, error)
}

// Availability is the single source of truth for each book's availability
// bit. Both operations are atomic conditional updates: the returned bool
// reports whether the bit actually flipped.
type Availability interface {
	// TryReserve flips is_available from true to false. It returns false
	// without mutation if the book is absent, inactive, or already
	// unavailable - no two concurrent callers can both get true.
	TryReserve(ctx context.Context, tx Tx, bookID int64) (bool, error)

	// Release flips is_available back to true. It returns false if the bit
	// was already true or the book is inactive; an inactive book is never
	// resurrected into circulation.
	Release(ctx context.Context, tx Tx, bookID int64) (bool, error)
}

// Ledger is the durable, append-only history of reservation lifecycle
// events. At most one open reservation may exist per book; the postgres
// implementation enforces this with a partial unique index, not just
// service-level discipline.
type Ledger interface {
	// Open inserts a new open reservation. Callers invoke it only after
	// Availability.TryReserve succeeded in the same transaction.
	Open(ctx context.Context, tx Tx, userID int64, bookID int64) (domain.Reservation, error)

	// Close stamps returned_at on an open reservation. It fails with
	// domain.ErrReservationAlreadyClosed if the row is already closed and
	// domain.ErrReservationNotFound if there is no such row.
	Close(ctx context.Context, tx Tx, reservationID int64) (domain.Reservation, error)

	// Get looks a reservation up by id, open or closed.
	Get(ctx context.Context, reservationID int64) (domain.Reservation, error)

	// ListByBook returns the book's reservations most-recent first with the
	// reserving users joined in.
	ListByBook(ctx context.Context, bookID int64) ([]domain.BookReservation, error)

	// ListByUser returns the user's reservations most-recent first with the
	// reserved books joined in.
	ListByUser(ctx context.Context, userID int64) ([]domain.UserReservation, error)
}

// Books is the catalog storage.
type Books interface {
	Create(ctx context.Context, book domain.NewBook) (domain.Book, error)

	// ByID loads a book. When tx is non-nil the read happens inside that
	// transaction. Inactive books are only returned when includeInactive
	// is set.
	ByID(ctx context.Context, tx Tx, bookID int64, includeInactive bool) (domain.Book, error)

	List(ctx context.Context, filter domain.BookFilter) ([]domain.BookSummary, int64, error)
	Update(ctx context.Context, bookID int64, update domain.BookUpdate) (domain.Book, error)

	// Deactivate soft-deletes an active book; it fails with
	// domain.ErrBookNotFound when the book is absent or already inactive.
	Deactivate(ctx context.Context, bookID int64) (domain.Book, error)
}

// Users is the identity storage. Method names carry the User suffix because
// the postgres implementation serves the catalog from the same store type.
type Users interface {
	CreateUser(ctx context.Context, name, email, passwordHash string) (domain.User, error)
	UserByEmail(ctx context.Context, email string) (domain.User, error)
	UserByID(ctx context.Context, userID int64, includeInactive bool) (domain.User, error)
	UpdateUser(ctx context.Context, userID int64, update domain.UserUpdate) (domain.User, error)
	DeactivateUser(ctx context.Context, userID int64) (domain.User, error)

	// SeedUser inserts a fully-privileged user unless the email already
	// exists. It returns true when a row was created.
	SeedUser(ctx context.Context, name, email, passwordHash string) (bool, error)
}
