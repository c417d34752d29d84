package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"campusrides/internal/utils"
	"campusrides/pkg/logger"
	"campusrides/pkg/storage"

	"github.com/google/uuid"
)

type MediaKind string

const (
	MediaKindProfile MediaKind = "profile"
	MediaKindCar     MediaKind = "car"
)

func (k MediaKind) IsValid() bool {
	return k == MediaKindProfile || k == MediaKindCar
}

// Prefix is the key prefix of every object of this kind uploaded by userID.
func (k MediaKind) Prefix(userID string) string {
	return string(k) + "s/" + userID + "/"
}

type UploadURL struct {
	Key       string    `json:"key"`
	UploadURL string    `json:"upload_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

type MediaService interface {
	CreateUploadURL(ctx context.Context, userID string, kind MediaKind, contentType string) (*UploadURL, error)
	// VerifyUpload checks that key was uploaded by userID for kind and is
	// within the size limit.
	VerifyUpload(ctx context.Context, userID string, kind MediaKind, key string) error
	// ResolveURL turns a stored key into a download URL. Failures resolve to
	// an empty string.
	ResolveURL(ctx context.Context, key string) string
}

type mediaService struct {
	storage   storage.StorageProvider
	uploadTTL time.Duration
	urlTTL    time.Duration
	logger    *logger.Logger
}

func NewMediaService(provider storage.StorageProvider, uploadTTL, urlTTL time.Duration, log *logger.Logger) MediaService {
	if log == nil {
		log = logger.NewNop()
	}
	if uploadTTL <= 0 {
		uploadTTL = 15 * time.Minute
	}
	if urlTTL <= 0 {
		urlTTL = time.Hour
	}
	return &mediaService{
		storage:   provider,
		uploadTTL: uploadTTL,
		urlTTL:    urlTTL,
		logger:    log.WithField("service", "media"),
	}
}

func (s *mediaService) CreateUploadURL(ctx context.Context, userID string, kind MediaKind, contentType string) (*UploadURL, error) {
	if !kind.IsValid() {
		return nil, ErrInvalidMediaKind
	}
	ext := storage.ExtensionForContentType(contentType)
	if ext == "" {
		return nil, ErrUnsupportedMedia
	}

	key := kind.Prefix(userID) + uuid.NewString() + ext
	url, err := s.storage.GetUploadURL(ctx, key, strings.ToLower(contentType), s.uploadTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to sign upload url: %w", err)
	}

	return &UploadURL{
		Key:       key,
		UploadURL: url,
		ExpiresAt: time.Now().UTC().Add(s.uploadTTL),
	}, nil
}

func (s *mediaService) VerifyUpload(ctx context.Context, userID string, kind MediaKind, key string) error {
	if !kind.IsValid() {
		return ErrInvalidMediaKind
	}
	if !strings.HasPrefix(key, kind.Prefix(userID)) || strings.Contains(key, "..") {
		return ErrInvalidStorageKey
	}

	info, err := s.storage.GetFileInfo(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return ErrObjectNotUploaded
		}
		return fmt.Errorf("failed to check upload: %w", err)
	}
	if info.Size > utils.MaxImageSize {
		return ErrUploadTooLarge
	}
	return nil
}

func (s *mediaService) ResolveURL(ctx context.Context, key string) string {
	if key == "" {
		return ""
	}
	url, err := s.storage.GetURL(ctx, key, s.urlTTL)
	if err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("Failed to resolve object url")
		return ""
	}
	return url
}
