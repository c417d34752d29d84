package utils

import "time"

// Application Constants
const (
	// Pagination
	DefaultPageSize = 20
	MaxPageSize     = 100
	MinPageSize     = 1

	// Messages
	DefaultMessagePageSize = 50
	MaxMessagePageSize     = 200
	MessagePreviewLength   = 120

	// Uploads
	MaxImageSize = 5 * 1024 * 1024 // 5MB

	// Idempotency
	IdempotencyHeader = "Idempotency-Key"
	IdempotencyTTL    = 24 * time.Hour
)

// HTTP Status Messages
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Error Messages
const (
	ErrInternalServer   = "internal server error"
	ErrUnauthorized     = "unauthorized"
	ErrValidationFailed = "validation failed"
	ErrEmailNotVerified = "please verify your email before continuing"
)

// Cache Keys
const (
	CacheRidePrefix        = "ride:"
	CacheUserPrefix        = "user:"
	CacheUnreadPrefix      = "unread:"
	CacheIdempotencyPrefix = "idempotency:"
)

// Live event types
const (
	EventRideUpdated         = "ride.updated"
	EventRideStatusChanged   = "ride.status_changed"
	EventBookingCreated      = "booking.created"
	EventBookingCancelled    = "booking.cancelled"
	EventChatCreated         = "chat.created"
	EventChatUpdated         = "chat.updated"
	EventMessageCreated      = "message.created"
	EventNotificationCreated = "notification.created"
)

// Context keys set by middleware
const (
	ContextUserID        = "user_id"
	ContextUserEmail     = "user_email"
	ContextIdentity      = "identity"
	ContextRequestID     = "request_id"
	ContextEmailVerified = "email_verified"
)
