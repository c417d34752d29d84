package interfaces

import "errors"

var (
	// ErrNotFound is returned when a requested document does not exist.
	ErrNotFound = errors.New("document not found")

	// ErrInsufficientSeats is returned when a conditional seat decrement
	// matched no ride because too few seats are left.
	ErrInsufficientSeats = errors.New("not enough available seats")

	// ErrSeatOverflow is returned when returning seats would push a ride
	// above its published capacity.
	ErrSeatOverflow = errors.New("available seats would exceed ride capacity")

	// ErrBookingNotActive is returned when a conditional cancel matched no
	// active booking.
	ErrBookingNotActive = errors.New("booking is not active")

	// ErrDuplicate is returned when a unique index rejected a write.
	ErrDuplicate = errors.New("duplicate document")
)
