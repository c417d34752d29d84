package middleware

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"campusrides/internal/utils"
	"campusrides/pkg/cache"
	"campusrides/pkg/logger"

	"github.com/gin-gonic/gin"
)

// IdempotencyStore keeps recorded responses per key. *cache.RedisCache
// satisfies it.
type IdempotencyStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

var _ IdempotencyStore = (*cache.RedisCache)(nil)

// cachedResponse stores the response for idempotent requests. A record
// without a status code marks a request that is still running.
type cachedResponse struct {
	StatusCode int         `json:"status_code"`
	Body       []byte      `json:"body,omitempty"`
	Headers    http.Header `json:"headers,omitempty"`
}

// responseWriter wraps gin.ResponseWriter to capture the response.
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *responseWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// IdempotencyMiddleware replays the recorded response when a mutating request
// is retried with the same Idempotency-Key. Keys are scoped to the caller
// and route, so they must run after AuthRequired.
func IdempotencyMiddleware(store IdempotencyStore, ttl time.Duration, log *logger.Logger) gin.HandlerFunc {
	if log == nil {
		log = logger.NewNop()
	}
	if ttl <= 0 {
		ttl = utils.IdempotencyTTL
	}
	return func(c *gin.Context) {
		// Only apply to mutating methods.
		if c.Request.Method != http.MethodPost && c.Request.Method != http.MethodPut && c.Request.Method != http.MethodPatch {
			c.Next()
			return
		}

		key := c.GetHeader(utils.IdempotencyHeader)
		if key == "" || store == nil {
			c.Next()
			return
		}
		if len(key) > 255 {
			utils.AbortWithError(c, http.StatusBadRequest, "INVALID_IDEMPOTENCY_KEY", "Idempotency key is too long")
			return
		}

		ctx := c.Request.Context()
		cacheKey := utils.CacheIdempotencyPrefix + GetUserID(c) + ":" + c.Request.Method + ":" + c.Request.URL.Path + ":" + key

		acquired, err := store.SetNX(ctx, cacheKey, cachedResponse{}, ttl)
		if err != nil {
			// Store unavailable - proceed without idempotency.
			log.WithError(err).Warn("Idempotency store unavailable")
			c.Next()
			return
		}

		if !acquired {
			replay(c, store, cacheKey)
			return
		}

		w := &responseWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = w

		// Server errors and panics release the key so the client can retry.
		completed := false
		defer func() {
			if !completed {
				_ = store.Delete(context.WithoutCancel(ctx), cacheKey)
			}
		}()

		c.Next()

		status := c.Writer.Status()
		if status >= http.StatusInternalServerError {
			return
		}
		completed = true

		err = store.Set(context.WithoutCancel(ctx), cacheKey, cachedResponse{
			StatusCode: status,
			Body:       w.body.Bytes(),
			Headers:    extractResponseHeaders(c),
		}, ttl)
		if err != nil {
			log.WithError(err).Warn("Failed to record idempotent response")
		}
	}
}

func replay(c *gin.Context, store IdempotencyStore, cacheKey string) {
	var cached cachedResponse
	if err := store.Get(c.Request.Context(), cacheKey, &cached); err != nil || cached.StatusCode == 0 {
		utils.AbortWithError(c, http.StatusConflict, "IDEMPOTENCY_CONFLICT", "A request with this idempotency key is already in progress")
		return
	}

	for k, v := range cached.Headers {
		for _, val := range v {
			c.Header(k, val)
		}
	}
	c.Header("Idempotent-Replayed", "true")
	c.Data(cached.StatusCode, "application/json; charset=utf-8", cached.Body)
	c.Abort()
}

// extractResponseHeaders extracts headers to cache.
func extractResponseHeaders(c *gin.Context) http.Header {
	headers := make(http.Header)
	if ct := c.Writer.Header().Get("Content-Type"); ct != "" {
		headers.Set("Content-Type", ct)
	}
	return headers
}
