package validators

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"campusrides/internal/models"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	// json names in error fields
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})

	validate.RegisterValidation("object_id", validateObjectID)
	validate.RegisterValidation("ride_status", validateRideStatus)
	validate.RegisterValidation("platform", validatePlatform)
	validate.RegisterValidation("media_kind", validateMediaKind)
	validate.RegisterValidation("image_type", validateImageType)
	validate.RegisterValidation("storage_key", validateStorageKey)
}

var ErrInvalidObjectID = errors.New("invalid object ID format")

// ValidationError represents a field validation error
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	var messages []string
	for _, err := range v {
		messages = append(messages, fmt.Sprintf("%s: %s", err.Field, err.Message))
	}
	return strings.Join(messages, "; ")
}

// Details flattens the errors into the field → message map used in error
// responses.
func (v ValidationErrors) Details() map[string]string {
	details := make(map[string]string, len(v))
	for _, err := range v {
		details[err.Field] = err.Message
	}
	return details
}

// ValidateStruct validates a struct and returns detailed errors
func ValidateStruct(s interface{}) ValidationErrors {
	var validationErrors ValidationErrors

	err := validate.Struct(s)
	if err != nil {
		var fieldErrors validator.ValidationErrors
		if !errors.As(err, &fieldErrors) {
			return ValidationErrors{{Field: "request", Message: err.Error()}}
		}
		for _, err := range fieldErrors {
			validationErrors = append(validationErrors, ValidationError{
				Field:   err.Field(),
				Tag:     err.Tag(),
				Value:   fmt.Sprintf("%v", err.Value()),
				Message: getErrorMessage(err),
			})
		}
	}

	return validationErrors
}

func getErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", err.Field())
	case "email":
		return "Invalid email format"
	case "min":
		return fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
	case "gtfield":
		return fmt.Sprintf("%s must be after %s", err.Field(), err.Param())
	case "nefield":
		return fmt.Sprintf("%s must differ from %s", err.Field(), err.Param())
	case "object_id":
		return "Invalid ID format"
	case "ride_status":
		return "Status must be one of not_started, waiting_for_customer, started, finished, cancelled"
	case "platform":
		return "Platform must be android, ios or web"
	case "media_kind":
		return "Kind must be profile or car"
	case "image_type":
		return "Only jpeg, png, gif, webp and heic images are accepted"
	case "storage_key":
		return "Invalid storage key"
	default:
		return fmt.Sprintf("Validation failed for %s", err.Field())
	}
}

// Custom validation functions
func validateObjectID(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true // Let required tag handle empty values
	}
	_, err := primitive.ObjectIDFromHex(value)
	return err == nil
}

func validateRideStatus(fl validator.FieldLevel) bool {
	return models.RideStatus(fl.Field().String()).IsValid()
}

func validatePlatform(fl validator.FieldLevel) bool {
	switch models.DevicePlatform(fl.Field().String()) {
	case models.DevicePlatformAndroid, models.DevicePlatformIOS, models.DevicePlatformWeb:
		return true
	}
	return false
}

func validateMediaKind(fl validator.FieldLevel) bool {
	kind := fl.Field().String()
	return kind == "profile" || kind == "car"
}

func validateImageType(fl validator.FieldLevel) bool {
	switch strings.ToLower(fl.Field().String()) {
	case "image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp", "image/heic":
		return true
	}
	return false
}

func validateStorageKey(fl validator.FieldLevel) bool {
	key := fl.Field().String()
	if key == "" {
		return true
	}
	return !strings.HasPrefix(key, "/") && !strings.Contains(key, "..") && !strings.ContainsAny(key, "\\?#")
}

func IsValidObjectID(id string) bool {
	_, err := primitive.ObjectIDFromHex(id)
	return err == nil
}

// ParseObjectID parses a hex id taken from a path or query parameter.
func ParseObjectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidObjectID
	}
	return oid, nil
}
