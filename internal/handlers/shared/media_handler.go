package handlers

import (
	"errors"
	"net/http"
	"strings"

	"campusrides/internal/middleware"
	"campusrides/internal/services"
	"campusrides/internal/utils"
	"campusrides/internal/validators"
	"campusrides/pkg/logger"
	"campusrides/pkg/storage"

	"github.com/gin-gonic/gin"
)

type MediaHandler struct {
	mediaService services.MediaService
	// local is set when objects are kept on disk; the server then serves
	// the upload and download URLs itself.
	local  *storage.LocalStorage
	logger *logger.Logger
}

func NewMediaHandler(mediaService services.MediaService, local *storage.LocalStorage, log *logger.Logger) *MediaHandler {
	return &MediaHandler{
		mediaService: mediaService,
		local:        local,
		logger:       orNop(log),
	}
}

// CreateUploadURL issues a signed URL the client PUTs an image to
func (h *MediaHandler) CreateUploadURL(c *gin.Context) {
	var req validators.UploadURLRequest
	if !bindJSON(c, &req) {
		return
	}

	upload, err := h.mediaService.CreateUploadURL(c.Request.Context(), middleware.GetUserID(c), services.MediaKind(req.Kind), req.ContentType)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	utils.CreatedResponse(c, "Upload URL created successfully", upload)
}

// PutFile accepts an upload to a URL issued by local storage
func (h *MediaHandler) PutFile(c *gin.Context) {
	if h.local == nil {
		utils.NotFoundResponse(c, "File")
		return
	}

	key := strings.TrimPrefix(c.Param("key"), "/")
	contentType, err := h.local.VerifyUploadToken(c.Query("token"), key)
	if err != nil {
		utils.ErrorResponse(c, http.StatusUnauthorized, "INVALID_UPLOAD_TOKEN", "Upload URL is invalid or expired")
		return
	}
	if contentType != "" && !strings.EqualFold(strings.TrimSpace(strings.Split(c.GetHeader("Content-Type"), ";")[0]), contentType) {
		utils.BadRequestResponse(c, "Content-Type does not match the upload URL")
		return
	}

	body := http.MaxBytesReader(c.Writer, c.Request.Body, utils.MaxImageSize)
	result, err := h.local.Upload(c.Request.Context(), &storage.UploadRequest{
		Key:         key,
		Reader:      body,
		ContentType: contentType,
	})
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			_ = h.local.Delete(c.Request.Context(), key)
			utils.ErrorResponse(c, http.StatusRequestEntityTooLarge, "UPLOAD_TOO_LARGE", services.ErrUploadTooLarge.Error())
			return
		}
		h.logger.WithError(err).WithField("key", key).Error("Failed to store upload")
		utils.InternalServerErrorResponse(c)
		return
	}

	utils.SuccessResponse(c, "File uploaded successfully", gin.H{"key": result.Key, "size": result.Size})
}

// GetFile serves an object from local storage
func (h *MediaHandler) GetFile(c *gin.Context) {
	if h.local == nil {
		utils.NotFoundResponse(c, "File")
		return
	}

	key := strings.TrimPrefix(c.Param("key"), "/")
	file, err := h.local.Download(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			utils.NotFoundResponse(c, "File")
			return
		}
		utils.BadRequestResponse(c, "Invalid file key")
		return
	}
	defer file.Reader.Close()

	c.Header("Cache-Control", "private, max-age=3600")
	c.DataFromReader(http.StatusOK, file.Size, file.ContentType, file.Reader, nil)
}
