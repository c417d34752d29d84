package routes

import (
	handlers "campusrides/internal/handlers/shared"

	"github.com/gin-gonic/gin"
)

// SetupProfileRoutes sets up the caller's profile and push devices
func SetupProfileRoutes(r *gin.RouterGroup, profileHandler *handlers.ProfileHandler) {
	profile := r.Group("/profile")
	{
		profile.GET("", profileHandler.GetMyProfile)
		profile.PUT("", profileHandler.UpsertProfile)
		profile.PUT("/picture", profileHandler.SetProfilePicture)
		profile.POST("/devices", profileHandler.RegisterDevice)
		profile.DELETE("/devices", profileHandler.RemoveDevice)
	}
}

func SetupUserRoutes(r *gin.RouterGroup, profileHandler *handlers.ProfileHandler) {
	r.GET("/users/:id", profileHandler.GetUserProfile)
}

func SetupMediaRoutes(r *gin.RouterGroup, mediaHandler *handlers.MediaHandler, emailHandler *handlers.EmailHandler) {
	r.POST("/uploads", mediaHandler.CreateUploadURL)
	r.POST("/email", emailHandler.SendEmail)
}

// SetupFileRoutes serves signed upload and download URLs for local storage.
// Uploads are authorized by the token in the URL rather than a bearer token.
func SetupFileRoutes(r *gin.RouterGroup, mediaHandler *handlers.MediaHandler) {
	r.PUT("/*key", mediaHandler.PutFile)
	r.GET("/*key", mediaHandler.GetFile)
}
