package handlers

import (
	"errors"
	"net/http"

	"campusrides/internal/services"
	"campusrides/internal/utils"
	"campusrides/internal/validators"
	"campusrides/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type errorMapping struct {
	err    error
	status int
	code   string
}

var serviceErrors = []errorMapping{
	// 404
	{services.ErrRideNotFound, http.StatusNotFound, "RIDE_NOT_FOUND"},
	{services.ErrBookingNotFound, http.StatusNotFound, "BOOKING_NOT_FOUND"},
	{services.ErrCarNotFound, http.StatusNotFound, "CAR_NOT_FOUND"},
	{services.ErrChatNotFound, http.StatusNotFound, "CHAT_NOT_FOUND"},
	{services.ErrNotificationNotFound, http.StatusNotFound, "NOTIFICATION_NOT_FOUND"},
	{services.ErrProfileNotFound, http.StatusNotFound, "PROFILE_NOT_FOUND"},

	// 403
	{services.ErrNotRideOwner, http.StatusForbidden, "NOT_RIDE_OWNER"},
	{services.ErrNotBookingRider, http.StatusForbidden, "NOT_BOOKING_RIDER"},
	{services.ErrBookingAccessDenied, http.StatusForbidden, "BOOKING_ACCESS_DENIED"},
	{services.ErrNotCarOwner, http.StatusForbidden, "NOT_CAR_OWNER"},
	{services.ErrNotChatParticipant, http.StatusForbidden, "NOT_CHAT_PARTICIPANT"},
	{services.ErrChatNotAllowed, http.StatusForbidden, "CHAT_NOT_ALLOWED"},
	{services.ErrRoomNotAllowed, http.StatusForbidden, "ROOM_NOT_ALLOWED"},
	{services.ErrInvalidStorageKey, http.StatusForbidden, "INVALID_STORAGE_KEY"},

	// 409
	{services.ErrInsufficientSeats, http.StatusConflict, "INSUFFICIENT_SEATS"},
	{services.ErrRideNotBookable, http.StatusConflict, "RIDE_NOT_BOOKABLE"},
	{services.ErrDuplicateBooking, http.StatusConflict, "DUPLICATE_BOOKING"},
	{services.ErrBookingAlreadyCancelled, http.StatusConflict, "BOOKING_ALREADY_CANCELLED"},
	{services.ErrInvalidStatusTransition, http.StatusConflict, "INVALID_STATUS_TRANSITION"},

	// 413
	{services.ErrUploadTooLarge, http.StatusRequestEntityTooLarge, "UPLOAD_TOO_LARGE"},

	// 400
	{services.ErrInvalidRideStatus, http.StatusBadRequest, "INVALID_RIDE_STATUS"},
	{services.ErrSameLocation, http.StatusBadRequest, "SAME_LOCATION"},
	{services.ErrInvalidSchedule, http.StatusBadRequest, "INVALID_SCHEDULE"},
	{services.ErrSeatsExceedCapacity, http.StatusBadRequest, "SEATS_EXCEED_CAPACITY"},
	{services.ErrInvalidTollPrice, http.StatusBadRequest, "INVALID_TOLL_PRICE"},
	{services.ErrInvalidSeatCount, http.StatusBadRequest, "INVALID_SEAT_COUNT"},
	{services.ErrOwnRide, http.StatusBadRequest, "OWN_RIDE"},
	{services.ErrInvalidCarCapacity, http.StatusBadRequest, "INVALID_CAR_CAPACITY"},
	{services.ErrChatWithSelf, http.StatusBadRequest, "CHAT_WITH_SELF"},
	{services.ErrEmptyMessage, http.StatusBadRequest, "EMPTY_MESSAGE"},
	{services.ErrMessageTooLong, http.StatusBadRequest, "MESSAGE_TOO_LONG"},
	{services.ErrObjectNotUploaded, http.StatusBadRequest, "OBJECT_NOT_UPLOADED"},
	{services.ErrUnsupportedMedia, http.StatusBadRequest, "UNSUPPORTED_MEDIA"},
	{services.ErrInvalidMediaKind, http.StatusBadRequest, "INVALID_MEDIA_KIND"},
	{services.ErrInvalidDevice, http.StatusBadRequest, "INVALID_DEVICE"},
}

// handleServiceError writes the envelope for err. Refusals keep their own
// message; anything unexpected is logged and hidden behind a 500.
func handleServiceError(c *gin.Context, log *logger.Logger, err error) {
	for _, m := range serviceErrors {
		if errors.Is(err, m.err) {
			utils.ErrorResponse(c, m.status, m.code, err.Error())
			return
		}
	}

	orNop(log).WithContext(c.Request.Context()).
		WithError(err).
		WithField("path", c.FullPath()).
		Error("Request failed")
	utils.InternalServerErrorResponse(c)
}

// bindJSON decodes and validates the request body. It writes the error
// response itself and reports whether the handler should continue.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body")
		return false
	}
	if errs := validators.ValidateStruct(req); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.Details())
		return false
	}
	return true
}

func objectIDParam(c *gin.Context, name, label string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid "+label+" ID")
		return primitive.NilObjectID, false
	}
	return id, true
}

func orNop(log *logger.Logger) *logger.Logger {
	if log == nil {
		return logger.NewNop()
	}
	return log
}
