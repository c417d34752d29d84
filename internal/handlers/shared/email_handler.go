package handlers

import (
	"errors"
	"net/http"

	"campusrides/internal/middleware"
	"campusrides/internal/services"
	"campusrides/internal/utils"
	"campusrides/internal/validators"
	"campusrides/pkg/email"
	"campusrides/pkg/logger"

	"github.com/gin-gonic/gin"
)

type EmailHandler struct {
	emailService services.EmailService
	logger       *logger.Logger
}

func NewEmailHandler(emailService services.EmailService, log *logger.Logger) *EmailHandler {
	return &EmailHandler{
		emailService: emailService,
		logger:       orNop(log),
	}
}

// SendEmail forwards {to, subject, html} to the email provider once.
// Failures are reported as {"error": "..."} and never retried.
func (h *EmailHandler) SendEmail(c *gin.Context) {
	var req validators.EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if errs := validators.ValidateStruct(&req); len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": errs.Error()})
		return
	}

	result, err := h.emailService.Send(c.Request.Context(), &email.Message{
		To:      req.To,
		Subject: req.Subject,
		HTML:    req.HTML,
	})
	if err != nil {
		if errors.Is(err, email.ErrInvalidMessage) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.WithError(err).WithUserID(middleware.GetUserID(c)).Warn("Email delivery failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	utils.SuccessResponse(c, "Email sent successfully", result)
}
