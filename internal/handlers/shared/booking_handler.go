package handlers

import (
	"campusrides/internal/middleware"
	"campusrides/internal/models"
	"campusrides/internal/services"
	"campusrides/internal/utils"
	"campusrides/pkg/logger"

	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	bookingService services.BookingService
	logger         *logger.Logger
}

func NewBookingHandler(bookingService services.BookingService, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		bookingService: bookingService,
		logger:         orNop(log),
	}
}

// ListMyBookings lists the caller's bookings, optionally by status
func (h *BookingHandler) ListMyBookings(c *gin.Context) {
	status := models.BookingStatus(c.Query("status"))
	if status != "" && !status.IsValid() {
		utils.BadRequestResponse(c, "Invalid booking status")
		return
	}

	params := utils.GetPaginationParams(c, "created_at", "created_at")
	bookings, total, err := h.bookingService.ListMyBookings(c.Request.Context(), middleware.GetUserID(c), status, params)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	utils.PaginatedResponse(c, "Bookings retrieved successfully", bookings, params, total)
}

// GetBooking retrieves a booking visible to its rider or the ride owner
func (h *BookingHandler) GetBooking(c *gin.Context) {
	bookingID, ok := objectIDParam(c, "id", "booking")
	if !ok {
		return
	}

	booking, err := h.bookingService.GetBooking(c.Request.Context(), bookingID, middleware.GetUserID(c))
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Booking retrieved successfully", booking)
}

// CancelBooking cancels an active booking and releases its seats
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	bookingID, ok := objectIDParam(c, "id", "booking")
	if !ok {
		return
	}

	booking, err := h.bookingService.CancelBooking(c.Request.Context(), bookingID, middleware.GetUserID(c))
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Booking cancelled successfully", booking)
}
