package domain

import (
	"errors"
)

// Business-rule and lookup failures. The HTTP layer maps these to status
// classes; everything else is treated as an infrastructure error.
var ErrValidation = errors.New("invalid input")
var ErrBookNotFound = errors.New("book not found")
var ErrBookInactive = errors.New("book is inactive")
var ErrBookUnavailable = errors.New("book is not available")
var ErrReservationNotFound = errors.New("reservation not found")
var ErrReservationAlreadyClosed = errors.New("reservation already closed")
var ErrUserNotFound = errors.New("user not found")
var ErrEmailAlreadyInUse = errors.New("email already in use")
var ErrInvalidCredentials = errors.New("invalid credentials")
var ErrUserDisabled = errors.New("user is disabled")
var ErrForbidden = errors.New("forbidden")
var ErrNothingToUpdate = errors.New("nothing to update")
