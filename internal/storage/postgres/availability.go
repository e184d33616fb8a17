package postgres

import (
	"context"

	"github.com/doug-martin/goqu/v9"

	"github.com/shelfward/shelfward/internal/storage"
)

const (
	actionTryReserve = "try-reserve"
	actionRelease    = "release"

	logMsgReserveLost = "availability flip lost, book already reserved"

	colIsAvailable = "is_available"
	colIsActive    = "is_active"
	colUpdatedAt   = "updated_at"
)

// TryReserve atomically flips the book's availability bit from true to
// false. The WHERE clause carries the whole decision, so no two concurrent
// callers can both see one row affected - whoever executes second matches
// zero rows. Absent and inactive books also match zero rows.
func (s *Store) TryReserve(ctx context.Context, tx storage.Tx, bookID int64) (bool, error) {
	h, err := s.handleFor(tx)
	if err != nil {
		return false, err
	}

	sqlQuery, _, toSQLErr := builder.
		Update(tableBooks).
		Set(goqu.Record{colIsAvailable: false, colUpdatedAt: now()}).
		Where(
			goqu.C("id").Eq(bookID),
			goqu.C(colIsAvailable).IsTrue(),
			goqu.C(colIsActive).IsTrue(),
		).
		ToSQL()
	if toSQLErr != nil {
		return false, s.buildErr(toSQLErr)
	}

	rowsAffected, execErr := s.exec(ctx, h, actionTryReserve, sqlQuery)
	if execErr != nil {
		return false, execErr
	}

	if rowsAffected == 0 {
		if s.logger != nil {
			s.logger.Info(logMsgReserveLost, "book_id", bookID)
		}

		return false, nil
	}

	return true, nil
}

// Release flips the availability bit back to true. The is_active guard keeps
// a soft-deleted book out of circulation even when its last reservation is
// returned; the is_available guard makes a double release affect zero rows
// instead of corrupting state.
func (s *Store) Release(ctx context.Context, tx storage.Tx, bookID int64) (bool, error) {
	h, err := s.handleFor(tx)
	if err != nil {
		return false, err
	}

	sqlQuery, _, toSQLErr := builder.
		Update(tableBooks).
		Set(goqu.Record{colIsAvailable: true, colUpdatedAt: now()}).
		Where(
			goqu.C("id").Eq(bookID),
			goqu.C(colIsAvailable).IsFalse(),
			goqu.C(colIsActive).IsTrue(),
		).
		ToSQL()
	if toSQLErr != nil {
		return false, s.buildErr(toSQLErr)
	}

	rowsAffected, execErr := s.exec(ctx, h, actionRelease, sqlQuery)
	if execErr != nil {
		return false, execErr
	}

	return rowsAffected == 1, nil
}
