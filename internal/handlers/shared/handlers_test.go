package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"campusrides/internal/models"
	"campusrides/internal/services"
	"campusrides/internal/utils"
	"campusrides/pkg/email"
	"campusrides/pkg/storage"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func withUser(uid string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(utils.ContextUserID, uid)
		c.Next()
	}
}

func doJSON(router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) utils.APIResponse {
	t.Helper()
	var body utils.APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v (%q)", err, rec.Body.String())
	}
	return body
}

// Unimplemented methods panic through the nil embedded interface.
type fakeBookingService struct {
	services.BookingService
	bookSeats func(rideID primitive.ObjectID, riderID string, seats int) (*models.Booking, error)
}

func (f *fakeBookingService) BookSeats(_ context.Context, rideID primitive.ObjectID, riderID string, seats int) (*models.Booking, error) {
	return f.bookSeats(rideID, riderID, seats)
}

type fakeRideService struct {
	services.RideService
	published *services.PublishRideRequest
}

func (f *fakeRideService) PublishRide(_ context.Context, ownerID string, req *services.PublishRideRequest) (*models.Ride, error) {
	f.published = req
	return &models.Ride{ID: primitive.NewObjectID(), OwnerID: ownerID, AvailableSeats: req.AvailableSeats}, nil
}

type fakeEmailService struct {
	err error
}

func (f *fakeEmailService) Send(_ context.Context, message *email.Message) (*email.SendResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &email.SendResult{ID: "msg-1"}, nil
}

func TestHandleServiceError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"not found", services.ErrRideNotFound, http.StatusNotFound, "RIDE_NOT_FOUND", "ride does not exist"},
		{"forbidden", services.ErrNotRideOwner, http.StatusForbidden, "NOT_RIDE_OWNER", "only the ride owner can do this"},
		{"conflict", services.ErrInsufficientSeats, http.StatusConflict, "INSUFFICIENT_SEATS", "not enough available seats"},
		{"wrapped detail is kept", fmt.Errorf("%w of %d", services.ErrSeatsExceedCapacity, 4), http.StatusBadRequest, "SEATS_EXCEED_CAPACITY", "available seats cannot exceed car capacity of 4"},
		{"too large", services.ErrUploadTooLarge, http.StatusRequestEntityTooLarge, "UPLOAD_TOO_LARGE", "uploaded file is too large"},
		{"unexpected is hidden", fmt.Errorf("failed to book seats: %w", errors.New("connection reset")), http.StatusInternalServerError, "INTERNAL_ERROR", utils.ErrInternalServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/", func(c *gin.Context) { handleServiceError(c, nil, tt.err) })
			rec := doJSON(router, http.MethodGet, "/", "")

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
			body := decode(t, rec)
			if body.Error == nil || body.Error.Code != tt.wantCode || body.Error.Message != tt.wantMsg {
				t.Errorf("expected %s %q, got %+v", tt.wantCode, tt.wantMsg, body.Error)
			}
		})
	}
}

func TestHandleServiceError_CoversEveryClientError(t *testing.T) {
	for _, err := range []error{
		services.ErrRideNotBookable, services.ErrDuplicateBooking, services.ErrBookingAlreadyCancelled,
		services.ErrInvalidStatusTransition, services.ErrChatNotAllowed, services.ErrObjectNotUploaded,
		services.ErrInvalidDevice, services.ErrRoomNotAllowed, services.ErrProfileNotFound,
	} {
		router := gin.New()
		router.GET("/", func(c *gin.Context) { handleServiceError(c, nil, err) })
		if rec := doJSON(router, http.MethodGet, "/", ""); rec.Code >= http.StatusInternalServerError {
			t.Errorf("%v mapped to %d", err, rec.Code)
		}
	}
}

func TestRideHandler_BookSeats(t *testing.T) {
	rideID := primitive.NewObjectID()
	bookings := &fakeBookingService{bookSeats: func(id primitive.ObjectID, riderID string, seats int) (*models.Booking, error) {
		if seats > 2 {
			return nil, services.ErrInsufficientSeats
		}
		return &models.Booking{ID: primitive.NewObjectID(), RideID: id, RiderID: riderID, SeatsBooked: seats, Status: models.BookingStatusActive}, nil
	}}
	h := NewRideHandler(nil, bookings, nil)
	router := gin.New()
	router.POST("/rides/:id/bookings", withUser("alice"), h.BookSeats)

	tests := []struct {
		name       string
		target     string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"invalid ride id", "/rides/nope/bookings", `{"seats":1}`, http.StatusBadRequest, "BAD_REQUEST"},
		{"malformed body", "/rides/" + rideID.Hex() + "/bookings", `{"seats":`, http.StatusBadRequest, "BAD_REQUEST"},
		{"zero seats", "/rides/" + rideID.Hex() + "/bookings", `{"seats":0}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"not enough seats", "/rides/" + rideID.Hex() + "/bookings", `{"seats":3}`, http.StatusConflict, "INSUFFICIENT_SEATS"},
		{"booked", "/rides/" + rideID.Hex() + "/bookings", `{"seats":2}`, http.StatusCreated, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(router, http.MethodPost, tt.target, tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d (%s)", tt.wantStatus, rec.Code, rec.Body.String())
			}
			body := decode(t, rec)
			if tt.wantCode != "" && (body.Error == nil || body.Error.Code != tt.wantCode) {
				t.Errorf("expected code %s, got %+v", tt.wantCode, body.Error)
			}
			if tt.wantCode == "" && body.Status != utils.StatusSuccess {
				t.Errorf("expected success envelope, got %+v", body)
			}
		})
	}
}

func TestRideHandler_PublishRide(t *testing.T) {
	rides := &fakeRideService{}
	h := NewRideHandler(rides, nil, nil)
	router := gin.New()
	router.POST("/rides", withUser("owner"), h.PublishRide)

	carID := primitive.NewObjectID().Hex()
	start := time.Date(2026, 11, 2, 8, 0, 0, 0, time.UTC)
	payload := func(pickup string, tollPrice float64) string {
		return fmt.Sprintf(`{"car_id":%q,"pickup_location":%q,"destination_location":"Central Station",`+
			`"start_time":%q,"end_time":%q,"price_per_seat":4.5,"available_seats":3,"toll_price":%v}`,
			carID, pickup, start.Format(time.RFC3339), start.Add(time.Hour).Format(time.RFC3339), tollPrice)
	}

	rec := doJSON(router, http.MethodPost, "/rides", payload("central station", 0))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for same location, got %d", rec.Code)
	}
	if body := decode(t, rec); body.Error == nil || body.Error.Details["destination_location"] == "" {
		t.Errorf("expected destination_location detail, got %+v", body.Error)
	}

	rec = doJSON(router, http.MethodPost, "/rides", payload("North Campus", 2))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for toll price without tolls, got %d", rec.Code)
	}
	if body := decode(t, rec); body.Error == nil || body.Error.Details["toll_price"] == "" {
		t.Errorf("expected toll_price detail, got %+v", body.Error)
	}

	rec = doJSON(router, http.MethodPost, "/rides", payload("North Campus", 0))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	if rides.published == nil || rides.published.CarID.Hex() != carID || rides.published.AvailableSeats != 3 {
		t.Errorf("unexpected request passed to service: %+v", rides.published)
	}
}

func TestEmailHandler_SendEmail(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		sendErr    error
		wantStatus int
		wantError  bool
	}{
		{"sent", `{"to":["a@campus.edu"],"subject":"Hi","html":"<p>Hi</p>"}`, nil, http.StatusOK, false},
		{"bad recipient", `{"to":["not-an-email"],"subject":"Hi","html":"<p>Hi</p>"}`, nil, http.StatusBadRequest, true},
		{"missing subject", `{"to":["a@campus.edu"],"html":"<p>Hi</p>"}`, nil, http.StatusBadRequest, true},
		{"provider failure", `{"to":["a@campus.edu"],"subject":"Hi","html":"<p>Hi</p>"}`, errors.New("resend: 500"), http.StatusBadGateway, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewEmailHandler(&fakeEmailService{err: tt.sendErr}, nil)
			router := gin.New()
			router.POST("/email", withUser("alice"), h.SendEmail)

			rec := doJSON(router, http.MethodPost, "/email", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d (%s)", tt.wantStatus, rec.Code, rec.Body.String())
			}

			var body map[string]interface{}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("response is not JSON: %v", err)
			}
			if _, ok := body["error"].(string); ok != tt.wantError {
				t.Errorf("expected error field %v, got %v", tt.wantError, body)
			}
		})
	}
}

func TestMediaHandler_LocalFiles(t *testing.T) {
	local, err := storage.NewLocalStorage(t.TempDir(), "http://files.test/files", "test-secret")
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}
	h := NewMediaHandler(nil, local, nil)
	router := gin.New()
	router.PUT("/files/*key", h.PutFile)
	router.GET("/files/*key", h.GetFile)

	key := "profiles/alice/pic.png"
	signed, err := local.GetUploadURL(context.Background(), key, "image/png", time.Minute)
	if err != nil {
		t.Fatalf("GetUploadURL: %v", err)
	}
	parsed, _ := url.Parse(signed)
	token := parsed.Query().Get("token")

	put := func(target, contentType string, body []byte) int {
		req := httptest.NewRequest(http.MethodPut, target, bytes.NewReader(body))
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := put("/files/"+key+"?token=bogus", "image/png", []byte("png")); code != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad token, got %d", code)
	}
	if code := put("/files/profiles/bob/pic.png?token="+url.QueryEscape(token), "image/png", []byte("png")); code != http.StatusUnauthorized {
		t.Errorf("expected 401 for token of another key, got %d", code)
	}
	if code := put("/files/"+key+"?token="+url.QueryEscape(token), "image/gif", []byte("png")); code != http.StatusBadRequest {
		t.Errorf("expected 400 for content type mismatch, got %d", code)
	}
	if code := put("/files/"+key+"?token="+url.QueryEscape(token), "image/png", make([]byte, utils.MaxImageSize+1)); code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413 for oversized upload, got %d", code)
	}
	if code := put("/files/"+key+"?token="+url.QueryEscape(token), "image/png", []byte("png-bytes")); code != http.StatusOK {
		t.Fatalf("expected upload to succeed, got %d", code)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/files/"+key, nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "png-bytes" {
		t.Fatalf("expected stored bytes, got %d %q", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("expected image/png, got %q", ct)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/files/profiles/alice/missing.png", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for missing file, got %d", rec.Code)
	}
}

func TestHealthHandler(t *testing.T) {
	h := NewHealthHandler("test", map[string]HealthCheck{
		"mongodb": func(context.Context) error { return nil },
		"redis":   func(context.Context) error { return errors.New("connection refused") },
	})
	router := gin.New()
	router.GET("/health", h.Health)

	rec := doJSON(router, http.MethodGet, "/health", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	var body struct {
		Status     string            `json:"status"`
		Components map[string]string `json:"components"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Status != "unhealthy" || body.Components["mongodb"] != "healthy" {
		t.Errorf("unexpected health body %+v", body)
	}
}
