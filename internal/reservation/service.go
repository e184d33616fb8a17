// Package reservation is the only writer path that touches both the
// availability bit and the reservation ledger. It owns the transaction
// boundary: either both change or neither does.
package reservation

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/shelfward/shelfward/internal/domain"
	"github.com/shelfward/shelfward/internal/storage"
)

const (
	spanCreate = "reservation.create"
	spanReturn = "reservation.return"

	logMsgReservationCreated = "reservation created"
	logMsgReservationClosed  = "reservation closed"
	logMsgLostRace           = "lost availability race, rejecting reservation"
	logMsgReleaseSkipped     = "availability not released on return"
	logMsgRollbackFailed     = "failed to roll back transaction"
)

// Logger interface for operational logging, warnings, and error reporting.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Service orchestrates the availability store and the reservation ledger
// under one transaction per write.
type Service struct {
	txs          storage.TxBeginner
	books        storage.Books
	availability storage.Availability
	ledger       storage.Ledger
	logger       Logger
	tracer       trace.Tracer
}

// Option defines a functional option for configuring Service.
type Option func(*Service)

// WithLogger sets the logger for the Service.
func WithLogger(logger Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithTracer sets the tracer used to wrap the write operations in spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// NewService wires the service. In production all four collaborators are the
// same *postgres.Store; they are separate parameters so tests can fake each
// concern independently.
func NewService(
	txs storage.TxBeginner,
	books storage.Books,
	availability storage.Availability,
	ledger storage.Ledger,
	options ...Option,
) *Service {

	s := &Service{
		txs:          txs,
		books:        books,
		availability: availability,
		ledger:       ledger,
	}

	for _, option := range options {
		option(s)
	}

	return s
}

// Create reserves a book for a user. Exactly one of N concurrent calls for
// the same book can succeed: after the plain availability check, the
// conditional flip inside the transaction re-checks the bit, and the loser
// of that race is rejected with domain.ErrBookUnavailable.
func (s *Service) Create(ctx context.Context, userID int64, bookID int64) (domain.Reservation, error) {
	var empty domain.Reservation

	if bookID <= 0 {
		return empty, fmt.Errorf("%w: bookId is required", domain.ErrValidation)
	}

	ctx, span := s.startSpan(ctx, spanCreate,
		attribute.Int64("user.id", userID),
		attribute.Int64("book.id", bookID))

	reservation, err := s.create(ctx, userID, bookID)
	s.finishSpan(span, err)

	return reservation, err
}

func (s *Service) create(ctx context.Context, userID int64, bookID int64) (domain.Reservation, error) {
	var empty domain.Reservation

	tx, beginErr := s.txs.Begin(ctx)
	if beginErr != nil {
		return empty, beginErr
	}

	book, lookupErr := s.books.ByID(ctx, tx, bookID, true)
	if lookupErr != nil {
		s.rollback(ctx, tx)
		return empty, lookupErr
	}

	if !book.IsActive {
		s.rollback(ctx, tx)
		return empty, domain.ErrBookInactive
	}

	if !book.IsAvailable {
		s.rollback(ctx, tx)
		return empty, domain.ErrBookUnavailable
	}

	// The flip re-checks availability atomically. Losing here means a
	// concurrent caller won between our read and this update.
	reserved, reserveErr := s.availability.TryReserve(ctx, tx, bookID)
	if reserveErr != nil {
		s.rollback(ctx, tx)
		return empty, reserveErr
	}

	if !reserved {
		s.rollback(ctx, tx)

		if s.logger != nil {
			s.logger.Info(logMsgLostRace, "book_id", bookID, "user_id", userID)
		}

		return empty, domain.ErrBookUnavailable
	}

	reservation, openErr := s.ledger.Open(ctx, tx, userID, bookID)
	if openErr != nil {
		s.rollback(ctx, tx)
		return empty, openErr
	}

	if commitErr := tx.Commit(ctx); commitErr != nil {
		s.rollback(ctx, tx)
		return empty, commitErr
	}

	if s.logger != nil {
		s.logger.Info(logMsgReservationCreated,
			"reservation_id", reservation.ID, "book_id", bookID, "user_id", userID)
	}

	return reservation, nil
}

// Return closes a reservation and puts the book back into circulation,
// symmetric to Create: ledger close and availability release happen in one
// transaction. Only the reservation's owner or a caller with elevated user
// permissions may return it.
func (s *Service) Return(ctx context.Context, caller domain.Caller, reservationID int64) (domain.Reservation, error) {
	var empty domain.Reservation

	if reservationID <= 0 {
		return empty, fmt.Errorf("%w: reservation id is required", domain.ErrValidation)
	}

	ctx, span := s.startSpan(ctx, spanReturn,
		attribute.Int64("reservation.id", reservationID))

	reservation, err := s.returnReservation(ctx, caller, reservationID)
	s.finishSpan(span, err)

	return reservation, err
}

func (s *Service) returnReservation(ctx context.Context, caller domain.Caller, reservationID int64) (domain.Reservation, error) {
	var empty domain.Reservation

	tx, beginErr := s.txs.Begin(ctx)
	if beginErr != nil {
		return empty, beginErr
	}

	reservation, closeErr := s.ledger.Close(ctx, tx, reservationID)
	if closeErr != nil {
		s.rollback(ctx, tx)
		return empty, closeErr
	}

	if reservation.UserID != caller.UserID && !caller.CanManageUsers() {
		s.rollback(ctx, tx)
		return empty, domain.ErrForbidden
	}

	released, releaseErr := s.availability.Release(ctx, tx, reservation.BookID)
	if releaseErr != nil {
		s.rollback(ctx, tx)
		return empty, releaseErr
	}

	// A deactivated book stays out of circulation; its reservation still
	// closes. Any other unreleased bit means ledger and availability had
	// already drifted apart, which closing this reservation repairs.
	if !released && s.logger != nil {
		s.logger.Warn(logMsgReleaseSkipped,
			"reservation_id", reservationID, "book_id", reservation.BookID)
	}

	if commitErr := tx.Commit(ctx); commitErr != nil {
		s.rollback(ctx, tx)
		return empty, commitErr
	}

	if s.logger != nil {
		s.logger.Info(logMsgReservationClosed,
			"reservation_id", reservation.ID, "book_id", reservation.BookID)
	}

	return reservation, nil
}

// ListByBook returns the reservation history of one book, most-recent
// first. Pure read, no locking.
func (s *Service) ListByBook(ctx context.Context, bookID int64) ([]domain.BookReservation, error) {
	if bookID <= 0 {
		return nil, fmt.Errorf("%w: bookId is required", domain.ErrValidation)
	}

	return s.ledger.ListByBook(ctx, bookID)
}

// ListByUser returns a user's reservation history, most-recent first. The
// caller must be the user themself or hold elevated user permissions.
func (s *Service) ListByUser(ctx context.Context, caller domain.Caller, userID int64) ([]domain.UserReservation, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: userId is required", domain.ErrValidation)
	}

	if caller.UserID != userID && !caller.CanManageUsers() {
		return nil, domain.ErrForbidden
	}

	return s.ledger.ListByUser(ctx, userID)
}

func (s *Service) rollback(ctx context.Context, tx storage.Tx) {
	if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
		if s.logger != nil && !errors.Is(rollbackErr, context.Canceled) {
			s.logger.Warn(logMsgRollbackFailed, "error", rollbackErr.Error())
		}
	}
}

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if s.tracer == nil {
		return ctx, nil
	}

	return s.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (s *Service) finishSpan(span trace.Span, err error) {
	if span == nil {
		return
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	span.End()
}
