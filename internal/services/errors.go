package services

import "errors"

// Errors returned to callers. Handlers map them to HTTP statuses with
// errors.Is; anything else is an internal error.
var (
	// Rides
	ErrRideNotFound            = errors.New("ride does not exist")
	ErrRideNotBookable         = errors.New("ride is no longer open for booking")
	ErrNotRideOwner            = errors.New("only the ride owner can do this")
	ErrInvalidRideStatus       = errors.New("unknown ride status")
	ErrInvalidStatusTransition = errors.New("ride status cannot change this way")
	ErrSameLocation            = errors.New("pickup and destination must differ")
	ErrInvalidSchedule         = errors.New("end time must be after start time")
	ErrSeatsExceedCapacity     = errors.New("available seats cannot exceed car capacity")
	ErrInvalidTollPrice        = errors.New("toll price must be zero unless tolls are included")

	// Bookings
	ErrInsufficientSeats       = errors.New("not enough available seats")
	ErrInvalidSeatCount        = errors.New("seats must be a positive number")
	ErrOwnRide                 = errors.New("you cannot book your own ride")
	ErrDuplicateBooking        = errors.New("you already have an active booking on this ride")
	ErrBookingNotFound         = errors.New("booking does not exist")
	ErrBookingAlreadyCancelled = errors.New("booking is already cancelled")
	ErrNotBookingRider         = errors.New("only the rider who booked can cancel")
	ErrBookingAccessDenied     = errors.New("booking belongs to another user")

	// Cars
	ErrCarNotFound        = errors.New("car does not exist")
	ErrNotCarOwner        = errors.New("car belongs to another user")
	ErrInvalidCarCapacity = errors.New("car capacity is out of range")

	// Chats
	ErrChatNotFound       = errors.New("chat does not exist")
	ErrNotChatParticipant = errors.New("you are not part of this chat")
	ErrChatWithSelf       = errors.New("you cannot chat with yourself")
	ErrChatNotAllowed     = errors.New("chat is only possible between a ride owner and one of its riders")
	ErrEmptyMessage       = errors.New("message text is required")
	ErrMessageTooLong     = errors.New("message text is too long")

	// Notifications
	ErrNotificationNotFound = errors.New("notification does not exist")

	// Profiles and media
	ErrProfileNotFound   = errors.New("profile does not exist")
	ErrInvalidStorageKey = errors.New("storage key does not belong to you")
	ErrObjectNotUploaded = errors.New("file has not been uploaded")
	ErrUnsupportedMedia  = errors.New("only image uploads are supported")
	ErrUploadTooLarge    = errors.New("uploaded file is too large")
	ErrInvalidMediaKind  = errors.New("unknown upload kind")
	ErrInvalidDevice     = errors.New("device token and platform are required")
	ErrRoomNotAllowed    = errors.New("you cannot subscribe to this room")
)

var clientErrors = []error{
	ErrRideNotFound, ErrRideNotBookable, ErrNotRideOwner, ErrInvalidRideStatus,
	ErrInvalidStatusTransition, ErrSameLocation, ErrInvalidSchedule, ErrSeatsExceedCapacity,
	ErrInvalidTollPrice, ErrInsufficientSeats, ErrInvalidSeatCount, ErrOwnRide,
	ErrDuplicateBooking, ErrBookingNotFound, ErrBookingAlreadyCancelled, ErrNotBookingRider,
	ErrBookingAccessDenied, ErrCarNotFound, ErrNotCarOwner, ErrInvalidCarCapacity,
	ErrChatNotFound, ErrNotChatParticipant, ErrChatWithSelf, ErrChatNotAllowed,
	ErrEmptyMessage, ErrMessageTooLong, ErrNotificationNotFound, ErrProfileNotFound,
	ErrInvalidStorageKey, ErrObjectNotUploaded, ErrUnsupportedMedia, ErrUploadTooLarge,
	ErrInvalidMediaKind, ErrInvalidDevice, ErrRoomNotAllowed,
}

// IsClientError reports whether err is one of the errors above, i.e. the
// request was refused rather than failed.
func IsClientError(err error) bool {
	for _, target := range clientErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
