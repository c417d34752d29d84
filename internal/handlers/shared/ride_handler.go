package handlers

import (
	"campusrides/internal/middleware"
	"campusrides/internal/models"
	"campusrides/internal/services"
	"campusrides/internal/utils"
	"campusrides/internal/validators"
	"campusrides/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RideHandler struct {
	rideService    services.RideService
	bookingService services.BookingService
	logger         *logger.Logger
}

func NewRideHandler(rideService services.RideService, bookingService services.BookingService, log *logger.Logger) *RideHandler {
	return &RideHandler{
		rideService:    rideService,
		bookingService: bookingService,
		logger:         orNop(log),
	}
}

// PublishRide offers seats in one of the caller's cars
func (h *RideHandler) PublishRide(c *gin.Context) {
	var req validators.PublishRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body")
		return
	}
	if errs := validators.ValidatePublishRide(&req); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.Details())
		return
	}

	carID, _ := primitive.ObjectIDFromHex(req.CarID)
	ride, err := h.rideService.PublishRide(c.Request.Context(), middleware.GetUserID(c), &services.PublishRideRequest{
		CarID:               carID,
		PickupLocation:      req.PickupLocation,
		DestinationLocation: req.DestinationLocation,
		PickupCity:          req.PickupCity,
		DestinationCity:     req.DestinationCity,
		StartTime:           req.StartTime,
		EndTime:             req.EndTime,
		PricePerSeat:        req.PricePerSeat,
		AvailableSeats:      req.AvailableSeats,
		AirConditioning:     req.AirConditioning,
		WifiAvailable:       req.WifiAvailable,
		TollsIncluded:       req.TollsIncluded,
		TollPrice:           req.TollPrice,
	})
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	utils.CreatedResponse(c, "Ride published successfully", ride)
}

// SearchRides lists bookable rides between two locations, earliest first
// unless another order is requested.
func (h *RideHandler) SearchRides(c *gin.Context) {
	var query validators.SearchRidesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		utils.BadRequestResponse(c, "Invalid search parameters")
		return
	}
	if errs := validators.ValidateStruct(&query); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.Details())
		return
	}

	params := utils.GetPaginationParams(c, "start_time", "start_time", "price_per_seat", "available_seats")
	if c.Query("order") == "" {
		params.Order = "asc"
	}

	rides, total, err := h.rideService.SearchRides(c.Request.Context(), &models.RideSearchFilter{
		PickupLocation:      query.Pickup,
		DestinationLocation: query.Destination,
		MaxPrice:            query.MaxPrice,
		MinSeats:            query.MinSeats,
		AirConditioning:     query.AirConditioning,
		WifiAvailable:       query.WifiAvailable,
		Date:                query.Day(),
	}, params)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	utils.PaginatedResponse(c, "Rides retrieved successfully", rides, params, total)
}

// ListMyRides lists rides published by the caller
func (h *RideHandler) ListMyRides(c *gin.Context) {
	params := utils.GetPaginationParams(c, "created_at", "created_at", "start_time")
	rides, total, err := h.rideService.ListMyRides(c.Request.Context(), middleware.GetUserID(c), params)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	utils.PaginatedResponse(c, "Rides retrieved successfully", rides, params, total)
}

// GetRide retrieves ride details
func (h *RideHandler) GetRide(c *gin.Context) {
	rideID, ok := objectIDParam(c, "id", "ride")
	if !ok {
		return
	}

	ride, err := h.rideService.GetRide(c.Request.Context(), rideID)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Ride retrieved successfully", ride)
}

// UpdateStatus moves the ride through its lifecycle
func (h *RideHandler) UpdateStatus(c *gin.Context) {
	rideID, ok := objectIDParam(c, "id", "ride")
	if !ok {
		return
	}

	var req validators.UpdateRideStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	ride, err := h.rideService.UpdateStatus(c.Request.Context(), rideID, middleware.GetUserID(c), models.RideStatus(req.Status))
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Ride status updated successfully", ride)
}

// BookSeats reserves seats on the ride for the caller
func (h *RideHandler) BookSeats(c *gin.Context) {
	rideID, ok := objectIDParam(c, "id", "ride")
	if !ok {
		return
	}

	var req validators.BookSeatsRequest
	if !bindJSON(c, &req) {
		return
	}

	booking, err := h.bookingService.BookSeats(c.Request.Context(), rideID, middleware.GetUserID(c), req.Seats)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	utils.CreatedResponse(c, "Seats booked successfully", booking)
}

// ListRideBookings lists the bookings of a ride for its owner
func (h *RideHandler) ListRideBookings(c *gin.Context) {
	rideID, ok := objectIDParam(c, "id", "ride")
	if !ok {
		return
	}

	bookings, err := h.bookingService.ListRideBookings(c.Request.Context(), rideID, middleware.GetUserID(c))
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Bookings retrieved successfully", bookings, &utils.Meta{Count: len(bookings)})
}
