package postgres

import (
	"context"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/shelfward/shelfward/internal/domain"
	"github.com/shelfward/shelfward/internal/storage"
	"github.com/shelfward/shelfward/internal/storage/postgres/internal/adapters"
)

const (
	actionOpenReservation  = "open-reservation"
	actionCloseReservation = "close-reservation"
	actionGetReservation   = "get-reservation"
	actionListByBook       = "list-reservations-by-book"
	actionListByUser       = "list-reservations-by-user"
	actionAppendEvent      = "append-reservation-event"

	colUserID     = "user_id"
	colBookID     = "book_id"
	colReservedAt = "reserved_at"
	colReturnedAt = "returned_at"

	// Lifecycle event types recorded in the reservation_events audit trail.
	EventReservationOpened = "ReservationOpened"
	EventReservationClosed = "ReservationClosed"
)

// reservationEventPayload is the jsonb payload of one audit trail entry.
type reservationEventPayload struct {
	ReservationID int64 `json:"reservation_id"`
	UserID        int64 `json:"user_id"`
	BookID        int64 `json:"book_id"`
}

// Open appends a new open reservation to the ledger. The partial unique
// index on (book_id) WHERE returned_at IS NULL backs up the availability
// check: even if a bug ever let two writers through, the second insert fails
// here and surfaces as domain.ErrBookUnavailable.
func (s *Store) Open(ctx context.Context, tx storage.Tx, userID int64, bookID int64) (domain.Reservation, error) {
	var empty domain.Reservation

	h, err := s.handleFor(tx)
	if err != nil {
		return empty, err
	}

	sqlQuery, _, toSQLErr := builder.
		Insert(tableReservations).
		Rows(goqu.Record{colUserID: userID, colBookID: bookID}).
		Returning("id", colUserID, colBookID, colReservedAt, colReturnedAt).
		ToSQL()
	if toSQLErr != nil {
		return empty, s.buildErr(toSQLErr)
	}

	rows, queryErr := s.query(ctx, h, actionOpenReservation, sqlQuery)
	if queryErr != nil {
		if adapters.IsUniqueViolation(queryErr) {
			return empty, domain.ErrBookUnavailable
		}

		return empty, queryErr
	}

	// The rows must be closed before the audit insert: the drivers hold the
	// connection busy until the open result is drained, and inside a
	// transaction the insert runs on that same connection.
	reservation, scanErr := s.scanReservation(rows)
	s.closeRows(rows)
	if scanErr != nil {
		return empty, scanErr
	}

	if eventErr := s.appendEvent(ctx, h, EventReservationOpened, reservation); eventErr != nil {
		return empty, eventErr
	}

	return reservation, nil
}

// Close stamps returned_at on an open reservation. The conditional update
// matches only open rows; when it affects nothing a follow-up lookup decides
// between "no such reservation" and "already closed".
func (s *Store) Close(ctx context.Context, tx storage.Tx, reservationID int64) (domain.Reservation, error) {
	var empty domain.Reservation

	h, err := s.handleFor(tx)
	if err != nil {
		return empty, err
	}

	sqlQuery, _, toSQLErr := builder.
		Update(tableReservations).
		Set(goqu.Record{colReturnedAt: now()}).
		Where(
			goqu.C("id").Eq(reservationID),
			goqu.C(colReturnedAt).IsNull(),
		).
		Returning("id", colUserID, colBookID, colReservedAt, colReturnedAt).
		ToSQL()
	if toSQLErr != nil {
		return empty, s.buildErr(toSQLErr)
	}

	rows, queryErr := s.query(ctx, h, actionCloseReservation, sqlQuery)
	if queryErr != nil {
		return empty, queryErr
	}

	// Same connection discipline as Open: close the update's result before
	// running anything else on the handle.
	if !rows.Next() {
		s.closeRows(rows)

		existing, lookupErr := s.reservationByID(ctx, h, reservationID)
		if lookupErr != nil {
			return empty, lookupErr
		}

		if !existing.Open() {
			return empty, domain.ErrReservationAlreadyClosed
		}

		return empty, domain.ErrReservationNotFound
	}

	var reservation domain.Reservation
	scanErr := rows.Scan(&reservation.ID, &reservation.UserID, &reservation.BookID, &reservation.ReservedAt, &reservation.ReturnedAt)
	s.closeRows(rows)
	if scanErr != nil {
		return empty, s.scanErr(scanErr)
	}

	if eventErr := s.appendEvent(ctx, h, EventReservationClosed, reservation); eventErr != nil {
		return empty, eventErr
	}

	return reservation, nil
}

// Get looks a reservation up by id, open or closed.
func (s *Store) Get(ctx context.Context, reservationID int64) (domain.Reservation, error) {
	return s.reservationByID(ctx, s.db, reservationID)
}

func (s *Store) reservationByID(ctx context.Context, h adapters.DBHandle, reservationID int64) (domain.Reservation, error) {
	var empty domain.Reservation

	sqlQuery, _, toSQLErr := builder.
		From(tableReservations).
		Select("id", colUserID, colBookID, colReservedAt, colReturnedAt).
		Where(goqu.C("id").Eq(reservationID)).
		ToSQL()
	if toSQLErr != nil {
		return empty, s.buildErr(toSQLErr)
	}

	rows, queryErr := s.query(ctx, h, actionGetReservation, sqlQuery)
	if queryErr != nil {
		return empty, queryErr
	}
	defer s.closeRows(rows)

	return s.scanReservation(rows)
}

func (s *Store) scanReservation(rows adapters.DBRows) (domain.Reservation, error) {
	var empty domain.Reservation

	if !rows.Next() {
		return empty, domain.ErrReservationNotFound
	}

	var reservation domain.Reservation
	if scanErr := rows.Scan(&reservation.ID, &reservation.UserID, &reservation.BookID, &reservation.ReservedAt, &reservation.ReturnedAt); scanErr != nil {
		return empty, s.scanErr(scanErr)
	}

	return reservation, nil
}

// ListByBook returns the book's reservation history most-recent first with
// the reserving users joined in.
func (s *Store) ListByBook(ctx context.Context, bookID int64) ([]domain.BookReservation, error) {
	sqlQuery, _, toSQLErr := builder.
		From(goqu.T(tableReservations).As("r")).
		Join(goqu.T(tableUsers).As("u"), goqu.On(goqu.Ex{"r.user_id": goqu.I("u.id")})).
		Select(
			goqu.I("r.id"), goqu.I("r.reserved_at"), goqu.I("r.returned_at"),
			goqu.I("u.id"), goqu.I("u.name"), goqu.I("u.email"),
		).
		Where(goqu.I("r.book_id").Eq(bookID)).
		Order(goqu.I("r.reserved_at").Desc()).
		ToSQL()
	if toSQLErr != nil {
		return nil, s.buildErr(toSQLErr)
	}

	rows, queryErr := s.query(ctx, s.db, actionListByBook, sqlQuery)
	if queryErr != nil {
		return nil, queryErr
	}
	defer s.closeRows(rows)

	reservations := make([]domain.BookReservation, 0)

	for rows.Next() {
		var item domain.BookReservation
		if scanErr := rows.Scan(&item.ID, &item.ReservedAt, &item.ReturnedAt, &item.UserID, &item.UserName, &item.UserEmail); scanErr != nil {
			return nil, s.scanErr(scanErr)
		}

		reservations = append(reservations, item)
	}

	return reservations, nil
}

// ListByUser returns the user's reservation history most-recent first with
// the reserved books joined in.
func (s *Store) ListByUser(ctx context.Context, userID int64) ([]domain.UserReservation, error) {
	sqlQuery, _, toSQLErr := builder.
		From(goqu.T(tableReservations).As("r")).
		Join(goqu.T(tableBooks).As("b"), goqu.On(goqu.Ex{"r.book_id": goqu.I("b.id")})).
		Select(
			goqu.I("r.id"), goqu.I("r.reserved_at"), goqu.I("r.returned_at"),
			goqu.I("b.id"), goqu.I("b.title"), goqu.I("b.author"),
		).
		Where(goqu.I("r.user_id").Eq(userID)).
		Order(goqu.I("r.reserved_at").Desc()).
		ToSQL()
	if toSQLErr != nil {
		return nil, s.buildErr(toSQLErr)
	}

	rows, queryErr := s.query(ctx, s.db, actionListByUser, sqlQuery)
	if queryErr != nil {
		return nil, queryErr
	}
	defer s.closeRows(rows)

	reservations := make([]domain.UserReservation, 0)

	for rows.Next() {
		var item domain.UserReservation
		if scanErr := rows.Scan(&item.ID, &item.ReservedAt, &item.ReturnedAt, &item.BookID, &item.BookTitle, &item.BookAuthor); scanErr != nil {
			return nil, s.scanErr(scanErr)
		}

		reservations = append(reservations, item)
	}

	return reservations, nil
}

// appendEvent records one lifecycle transition in the append-only audit
// trail, inside whatever handle (transaction or pool) the transition itself
// ran on.
func (s *Store) appendEvent(ctx context.Context, h adapters.DBHandle, eventType string, reservation domain.Reservation) error {
	payload, marshalErr := jsoniter.ConfigFastest.Marshal(reservationEventPayload{
		ReservationID: reservation.ID,
		UserID:        reservation.UserID,
		BookID:        reservation.BookID,
	})
	if marshalErr != nil {
		return marshalErr
	}

	sqlQuery, _, toSQLErr := builder.
		Insert(tableReservationEvents).
		Rows(goqu.Record{
			"event_id":    uuid.NewString(),
			"event_type":  eventType,
			"occurred_at": time.Now().UTC(),
			"payload":     string(payload),
		}).
		ToSQL()
	if toSQLErr != nil {
		return s.buildErr(toSQLErr)
	}

	if _, execErr := s.exec(ctx, h, actionAppendEvent, sqlQuery); execErr != nil {
		return execErr
	}

	return nil
}
