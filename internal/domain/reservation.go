package domain

import (
	"time"
)

// Reservation is one row of the reservation ledger. ReservedAt is set at
// creation and immutable; ReturnedAt is set exactly once when the book comes
// back. A reservation with ReturnedAt == nil is "open", and for any book at
// most one open reservation may exist - exactly when the book's availability
// bit is false.
type Reservation struct {
	ID         int64      `json:"id"`
	UserID     int64      `json:"user_id"`
	BookID     int64      `json:"book_id"`
	ReservedAt time.Time  `json:"reserved_at"`
	ReturnedAt *time.Time `json:"returned_at"`
}

// Open reports whether the reservation has not been returned yet.
func (r Reservation) Open() bool {
	return r.ReturnedAt == nil
}

// BookReservation is the by-book listing projection with the reserving
// user's identity joined in.
type BookReservation struct {
	ID         int64      `json:"id"`
	ReservedAt time.Time  `json:"reserved_at"`
	ReturnedAt *time.Time `json:"returned_at"`
	UserID     int64      `json:"user_id"`
	UserName   string     `json:"user_name"`
	UserEmail  string     `json:"user_email"`
}

// UserReservation is the by-user listing projection with the reserved
// book's identity joined in.
type UserReservation struct {
	ID         int64      `json:"id"`
	ReservedAt time.Time  `json:"reserved_at"`
	ReturnedAt *time.Time `json:"returned_at"`
	BookID     int64      `json:"book_id"`
	BookTitle  string     `json:"book_title"`
	BookAuthor string     `json:"book_author"`
}
