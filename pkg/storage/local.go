package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidUploadToken is returned when a local upload URL was tampered
// with, has expired or was issued for another key.
var ErrInvalidUploadToken = errors.New("invalid upload token")

// LocalStorage keeps objects on disk for development. Upload URLs point at
// the server's own file route and carry a short lived token instead of a
// cloud signature.
type LocalStorage struct {
	basePath string
	baseURL  string
	secret   []byte
}

type uploadClaims struct {
	ContentType string `json:"ct"`
	jwt.RegisteredClaims
}

func NewLocalStorage(basePath, baseURL, secret string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create base path: %w", err)
	}
	if secret == "" {
		return nil, errors.New("local storage requires a signing secret")
	}

	return &LocalStorage{
		basePath: basePath,
		baseURL:  strings.TrimRight(baseURL, "/"),
		secret:   []byte(secret),
	}, nil
}

func (l *LocalStorage) GetUploadURL(ctx context.Context, key, contentType string, expiration time.Duration) (string, error) {
	if _, err := l.path(key); err != nil {
		return "", err
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, uploadClaims{
		ContentType: contentType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   key,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiration)),
		},
	})

	signed, err := token.SignedString(l.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign upload token: %w", err)
	}

	return l.objectURL(key) + "?token=" + url.QueryEscape(signed), nil
}

// VerifyUploadToken checks a token issued by GetUploadURL for key and
// returns the content type it was issued for.
func (l *LocalStorage) VerifyUploadToken(token, key string) (string, error) {
	claims := &uploadClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return l.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidUploadToken, err)
	}
	if claims.Subject != key {
		return "", ErrInvalidUploadToken
	}
	return claims.ContentType, nil
}

func (l *LocalStorage) GetURL(ctx context.Context, key string, expiration time.Duration) (string, error) {
	return l.objectURL(key), nil
}

func (l *LocalStorage) Upload(ctx context.Context, request *UploadRequest) (*UploadResponse, error) {
	filePath, err := l.path(request.Key)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	reader := request.Reader
	if request.Size > 0 {
		reader = io.LimitReader(reader, request.Size)
	}

	size, err := io.Copy(file, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	return &UploadResponse{
		Key:  request.Key,
		URL:  l.objectURL(request.Key),
		Size: size,
	}, nil
}

func (l *LocalStorage) Download(ctx context.Context, key string) (*DownloadResponse, error) {
	filePath, err := l.path(key)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to get file info: %w", err)
	}

	return &DownloadResponse{
		Reader:       file,
		Size:         stat.Size(),
		ContentType:  ContentTypeForKey(key),
		LastModified: stat.ModTime(),
	}, nil
}

func (l *LocalStorage) Delete(ctx context.Context, key string) error {
	filePath, err := l.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (l *LocalStorage) FileExists(ctx context.Context, key string) (bool, error) {
	_, err := l.GetFileInfo(ctx, key)
	if errors.Is(err, ErrObjectNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (l *LocalStorage) GetFileInfo(ctx context.Context, key string) (*FileInfo, error) {
	filePath, err := l.path(key)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to get file info: %w", err)
	}

	return &FileInfo{
		Key:          key,
		Size:         stat.Size(),
		ContentType:  ContentTypeForKey(key),
		LastModified: stat.ModTime(),
	}, nil
}

// path resolves key below basePath and refuses keys that escape it.
func (l *LocalStorage) path(key string) (string, error) {
	cleaned := filepath.Clean("/" + key)
	if key == "" || cleaned == "/" {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return filepath.Join(l.basePath, filepath.FromSlash(cleaned)), nil
}

func (l *LocalStorage) objectURL(key string) string {
	return l.baseURL + "/" + key
}

var imageContentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".heic": "image/heic",
}

// ContentTypeForKey guesses the content type from the key extension.
func ContentTypeForKey(key string) string {
	if contentType, ok := imageContentTypes[strings.ToLower(filepath.Ext(key))]; ok {
		return contentType
	}
	return "application/octet-stream"
}

// ExtensionForContentType is the inverse of ContentTypeForKey for image
// types; it returns "" for anything else.
func ExtensionForContentType(contentType string) string {
	switch strings.ToLower(contentType) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/heic":
		return ".heic"
	}
	return ""
}
