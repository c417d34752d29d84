package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"campusrides/internal/models"
	"campusrides/internal/repositories/interfaces"
	"campusrides/pkg/auth"
	"campusrides/pkg/logger"
)

type ProfileRequest struct {
	FullName   *string
	Bio        *string
	University *string
	Location   *string
}

type ProfileService interface {
	GetProfile(ctx context.Context, userID string) (*models.User, error)
	// UpsertProfile creates the caller's profile on first use. The email is
	// always taken from the verified identity.
	UpsertProfile(ctx context.Context, identity *auth.Identity, req *ProfileRequest) (*models.User, error)
	SetProfilePicture(ctx context.Context, userID, key string) (*models.User, error)
	RegisterDevice(ctx context.Context, userID, token string, platform models.DevicePlatform) error
	RemoveDevice(ctx context.Context, userID, token string) error
}

type profileService struct {
	users  interfaces.UserRepository
	media  MediaService
	logger *logger.Logger
}

func NewProfileService(users interfaces.UserRepository, media MediaService, log *logger.Logger) ProfileService {
	if log == nil {
		log = logger.NewNop()
	}
	return &profileService{users: users, media: media, logger: log.WithField("service", "profile")}
}

func (s *profileService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return s.withPictureURL(ctx, user), nil
}

func (s *profileService) UpsertProfile(ctx context.Context, identity *auth.Identity, req *ProfileRequest) (*models.User, error) {
	fields := map[string]interface{}{"email": identity.Email}
	if req.FullName != nil {
		fields["full_name"] = strings.TrimSpace(*req.FullName)
	} else if identity.Name != "" {
		// First sign-in falls back to the provider's display name.
		if _, err := s.users.GetByID(ctx, identity.UID); errors.Is(err, interfaces.ErrNotFound) {
			fields["full_name"] = identity.Name
		}
	}
	if req.Bio != nil {
		fields["bio"] = strings.TrimSpace(*req.Bio)
	}
	if req.University != nil {
		fields["university"] = strings.TrimSpace(*req.University)
	}
	if req.Location != nil {
		fields["location"] = strings.TrimSpace(*req.Location)
	}

	user, err := s.users.Upsert(ctx, identity.UID, fields)
	if err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}
	s.logger.LogUserAction(identity.UID, "profile_updated", nil)
	return s.withPictureURL(ctx, user), nil
}

func (s *profileService) SetProfilePicture(ctx context.Context, userID, key string) (*models.User, error) {
	if err := s.media.VerifyUpload(ctx, userID, MediaKindProfile, key); err != nil {
		return nil, err
	}
	if err := s.users.SetProfilePicture(ctx, userID, key); err != nil {
		return nil, fmt.Errorf("failed to set profile picture: %w", err)
	}
	return s.GetProfile(ctx, userID)
}

func (s *profileService) RegisterDevice(ctx context.Context, userID, token string, platform models.DevicePlatform) error {
	token = strings.TrimSpace(token)
	switch platform {
	case models.DevicePlatformAndroid, models.DevicePlatformIOS, models.DevicePlatformWeb:
	default:
		return ErrInvalidDevice
	}
	if token == "" {
		return ErrInvalidDevice
	}

	err := s.users.AddDevice(ctx, userID, models.Device{
		Token:     token,
		Platform:  platform,
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to register device: %w", err)
	}
	return nil
}

func (s *profileService) RemoveDevice(ctx context.Context, userID, token string) error {
	if strings.TrimSpace(token) == "" {
		return ErrInvalidDevice
	}
	if err := s.users.RemoveDevice(ctx, userID, token); err != nil && !errors.Is(err, interfaces.ErrNotFound) {
		return fmt.Errorf("failed to remove device: %w", err)
	}
	return nil
}

func (s *profileService) withPictureURL(ctx context.Context, user *models.User) *models.User {
	if s.media != nil && user.ProfilePicture != "" {
		user.ProfilePictureURL = s.media.ResolveURL(ctx, user.ProfilePicture)
	}
	return user
}
