package storage

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"
)

func newTestLocalStorage(t *testing.T) *LocalStorage {
	t.Helper()
	l, err := NewLocalStorage(t.TempDir(), "http://localhost:8080/files", "test-secret")
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}
	return l
}

func tokenFrom(t *testing.T, raw string) string {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	return u.Query().Get("token")
}

func TestLocalStorage_UploadURLRoundTrip(t *testing.T) {
	l := newTestLocalStorage(t)
	ctx := context.Background()
	key := "profiles/uid-1/pic.png"

	raw, err := l.GetUploadURL(ctx, key, "image/png", time.Minute)
	if err != nil {
		t.Fatalf("GetUploadURL: %v", err)
	}
	if !strings.HasPrefix(raw, "http://localhost:8080/files/"+key+"?token=") {
		t.Fatalf("unexpected upload url %q", raw)
	}

	contentType, err := l.VerifyUploadToken(tokenFrom(t, raw), key)
	if err != nil {
		t.Fatalf("VerifyUploadToken: %v", err)
	}
	if contentType != "image/png" {
		t.Errorf("expected image/png, got %q", contentType)
	}

	if _, err := l.VerifyUploadToken(tokenFrom(t, raw), "profiles/uid-2/pic.png"); !errors.Is(err, ErrInvalidUploadToken) {
		t.Errorf("expected ErrInvalidUploadToken for another key, got %v", err)
	}
}

func TestLocalStorage_ExpiredToken(t *testing.T) {
	l := newTestLocalStorage(t)
	key := "cars/uid-1/a.jpg"

	raw, err := l.GetUploadURL(context.Background(), key, "image/jpeg", -time.Minute)
	if err != nil {
		t.Fatalf("GetUploadURL: %v", err)
	}
	if _, err := l.VerifyUploadToken(tokenFrom(t, raw), key); !errors.Is(err, ErrInvalidUploadToken) {
		t.Errorf("expected expired token to be rejected, got %v", err)
	}
}

func TestLocalStorage_UploadAndInfo(t *testing.T) {
	l := newTestLocalStorage(t)
	ctx := context.Background()
	key := "cars/uid-1/a.jpg"

	if ok, err := l.FileExists(ctx, key); err != nil || ok {
		t.Fatalf("expected missing file, got %v %v", ok, err)
	}

	if _, err := l.Upload(ctx, &UploadRequest{Key: key, Reader: strings.NewReader("jpegdata"), ContentType: "image/jpeg"}); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	info, err := l.GetFileInfo(ctx, key)
	if err != nil {
		t.Fatalf("GetFileInfo: %v", err)
	}
	if info.Size != 8 || info.ContentType != "image/jpeg" {
		t.Errorf("unexpected info %+v", info)
	}

	if err := l.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := l.GetFileInfo(ctx, key); !errors.Is(err, ErrObjectNotFound) {
		t.Errorf("expected ErrObjectNotFound after delete, got %v", err)
	}
}

func TestLocalStorage_PathStaysInsideBase(t *testing.T) {
	l := newTestLocalStorage(t)

	p, err := l.path("../../etc/passwd")
	if err != nil {
		t.Fatalf("path: %v", err)
	}
	if !strings.HasPrefix(p, l.basePath) {
		t.Errorf("path %q escaped base %q", p, l.basePath)
	}
	if _, err := l.path(""); err == nil {
		t.Error("expected empty key to be rejected")
	}
}

func TestExtensionForContentType(t *testing.T) {
	tests := map[string]string{
		"image/jpeg":      ".jpg",
		"IMAGE/PNG":       ".png",
		"image/webp":      ".webp",
		"application/pdf": "",
	}
	for in, want := range tests {
		if got := ExtensionForContentType(in); got != want {
			t.Errorf("ExtensionForContentType(%q) = %q, want %q", in, got, want)
		}
	}
}
