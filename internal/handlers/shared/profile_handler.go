package handlers

import (
	"campusrides/internal/middleware"
	"campusrides/internal/models"
	"campusrides/internal/services"
	"campusrides/internal/utils"
	"campusrides/internal/validators"
	"campusrides/pkg/logger"

	"github.com/gin-gonic/gin"
)

type ProfileHandler struct {
	profileService services.ProfileService
	logger         *logger.Logger
}

func NewProfileHandler(profileService services.ProfileService, log *logger.Logger) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
		logger:         orNop(log),
	}
}

// GetMyProfile returns the caller's profile
func (h *ProfileHandler) GetMyProfile(c *gin.Context) {
	user, err := h.profileService.GetProfile(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Profile retrieved successfully", user)
}

// GetUserProfile returns another user's public profile
func (h *ProfileHandler) GetUserProfile(c *gin.Context) {
	userID := c.Param("id")
	if userID == "" || len(userID) > 128 {
		utils.BadRequestResponse(c, "Invalid user ID")
		return
	}

	user, err := h.profileService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Profile retrieved successfully", user)
}

// UpsertProfile creates or updates the caller's profile
func (h *ProfileHandler) UpsertProfile(c *gin.Context) {
	var req validators.ProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	identity := middleware.GetIdentity(c)
	if identity == nil {
		utils.UnauthorizedResponse(c)
		return
	}

	user, err := h.profileService.UpsertProfile(c.Request.Context(), identity, &services.ProfileRequest{
		FullName:   req.FullName,
		Bio:        req.Bio,
		University: req.University,
		Location:   req.Location,
	})
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Profile saved successfully", user)
}

// SetProfilePicture points the profile at an uploaded image
func (h *ProfileHandler) SetProfilePicture(c *gin.Context) {
	var req validators.ProfilePictureRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.profileService.SetProfilePicture(c.Request.Context(), middleware.GetUserID(c), req.Key)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Profile picture updated successfully", user)
}

// RegisterDevice stores a push token for the caller
func (h *ProfileHandler) RegisterDevice(c *gin.Context) {
	var req validators.DeviceRequest
	if !bindJSON(c, &req) {
		return
	}

	err := h.profileService.RegisterDevice(c.Request.Context(), middleware.GetUserID(c), req.Token, models.DevicePlatform(req.Platform))
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	utils.NoContentResponse(c)
}

// RemoveDevice forgets a push token, e.g. on sign-out
func (h *ProfileHandler) RemoveDevice(c *gin.Context) {
	var req validators.RemoveDeviceRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.profileService.RemoveDevice(c.Request.Context(), middleware.GetUserID(c), req.Token); err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	utils.NoContentResponse(c)
}
