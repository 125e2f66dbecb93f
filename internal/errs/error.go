package errs

import (
	"errors"
)

// Business outcomes of the reservation engine. Anything else that
// surfaces from the storage layer is an infrastructure fault.
var (
	ErrBookNotFound        = errors.New("book not found")
	ErrBookUnavailable     = errors.New("no copies available")
	ErrAlreadyReserved     = errors.New("book already reserved by user")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrUserName            = errors.New("username is required")
)
