package classes

import "driveschool/services/booking"

// The class service shares the booking error taxonomy so handlers map
// codes uniformly.
var (
	ErrClassNotFound    = &booking.Error{Code: booking.CodeNotFound, Message: "class not found"}
	ErrAlreadyEnrolled  = &booking.Error{Code: booking.CodeConflict, Message: "student already enrolled"}
	ErrClassFull        = &booking.Error{Code: booking.CodeConflict, Message: "class is full"}
	ErrDuplicatePending = &booking.Error{Code: booking.CodeConflict, Message: "a pending request already exists"}
	ErrNoSpots          = &booking.Error{Code: booking.CodeConflict, Message: "no spots available"}
	ErrNotEnrolled      = &booking.Error{Code: booking.CodeNotFound, Message: "student is not enrolled"}
	ErrNoPendingRequest = &booking.Error{Code: booking.CodeNotFound, Message: "no pending request for this student"}
)
