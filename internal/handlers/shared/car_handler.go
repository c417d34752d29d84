package handlers

import (
	"campusrides/internal/middleware"
	"campusrides/internal/services"
	"campusrides/internal/utils"
	"campusrides/internal/validators"
	"campusrides/pkg/logger"

	"github.com/gin-gonic/gin"
)

type CarHandler struct {
	carService services.CarService
	logger     *logger.Logger
}

func NewCarHandler(carService services.CarService, log *logger.Logger) *CarHandler {
	return &CarHandler{
		carService: carService,
		logger:     orNop(log),
	}
}

// CreateCar registers a car for the caller
func (h *CarHandler) CreateCar(c *gin.Context) {
	var req validators.CarRequest
	if !bindJSON(c, &req) {
		return
	}

	car, err := h.carService.CreateCar(c.Request.Context(), middleware.GetUserID(c), &services.CarRequest{
		Name:         req.Name,
		Model:        req.Model,
		LicensePlate: req.LicensePlate,
		MaxCapacity:  req.MaxCapacity,
	})
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	utils.CreatedResponse(c, "Car created successfully", car)
}

// ListMyCars lists the caller's cars
func (h *CarHandler) ListMyCars(c *gin.Context) {
	params := utils.GetPaginationParams(c, "created_at", "created_at", "name")
	cars, total, err := h.carService.ListMyCars(c.Request.Context(), middleware.GetUserID(c), params)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	utils.PaginatedResponse(c, "Cars retrieved successfully", cars, params, total)
}

// GetCar retrieves car details
func (h *CarHandler) GetCar(c *gin.Context) {
	carID, ok := objectIDParam(c, "id", "car")
	if !ok {
		return
	}

	car, err := h.carService.GetCar(c.Request.Context(), carID)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Car retrieved successfully", car)
}

// UpdateCar changes the fields present in the body
func (h *CarHandler) UpdateCar(c *gin.Context) {
	carID, ok := objectIDParam(c, "id", "car")
	if !ok {
		return
	}

	var req validators.UpdateCarRequest
	if !bindJSON(c, &req) {
		return
	}

	car, err := h.carService.UpdateCar(c.Request.Context(), carID, middleware.GetUserID(c), &services.UpdateCarRequest{
		Name:         req.Name,
		Model:        req.Model,
		LicensePlate: req.LicensePlate,
		MaxCapacity:  req.MaxCapacity,
	})
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Car updated successfully", car)
}

// AddCarImage attaches an uploaded image to the car
func (h *CarHandler) AddCarImage(c *gin.Context) {
	carID, ok := objectIDParam(c, "id", "car")
	if !ok {
		return
	}

	var req validators.CarImageRequest
	if !bindJSON(c, &req) {
		return
	}

	car, err := h.carService.AddCarImage(c.Request.Context(), carID, middleware.GetUserID(c), req.Key)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Car image added successfully", car)
}
