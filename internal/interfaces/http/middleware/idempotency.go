package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/handmade/backend/internal/domain/shared"
	"github.com/handmade/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// IdempotencyKeyHeader carries the client's key for a mutating request
const (
	IdempotencyKeyHeader    = "Idempotency-Key"
	maxIdempotencyKeyLength = 255
)

// IdempotencyConfig configures the Idempotency-Key middleware
type IdempotencyConfig struct {
	Store shared.IdempotencyStore
	TTL   time.Duration
	// KeyPrefix namespaces HTTP keys apart from event-handler keys
	KeyPrefix string
	Logger    *zap.Logger
}

// Idempotency makes mutating requests carrying an Idempotency-Key header
// run at most once per actor and route within the TTL. A repeated key is
// answered 409 REQUEST_IN_PROGRESS without reaching the handler. The key is
// released when the first attempt fails or panics, so a client may retry
// a conflict or a validation failure with the same key.
func Idempotency(cfg IdempotencyConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "http:"
	}

	return func(c *gin.Context) {
		if cfg.Store == nil || !isMutating(c.Request.Method) {
			c.Next()
			return
		}
		clientKey := strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))
		if clientKey == "" {
			c.Next()
			return
		}
		if len(clientKey) > maxIdempotencyKeyLength {
			abortWithError(c, dto.ErrCodeBadRequest, "Idempotency-Key is too long")
			return
		}

		ctx := c.Request.Context()
		key := prefix + GetActorID(c) + ":" + c.Request.Method + ":" + c.FullPath() + ":" + clientKey
		fresh, err := cfg.Store.MarkProcessed(ctx, key, cfg.TTL)
		if err != nil {
			// Without the store the request is processed as if no key was sent
			log.Error("Idempotency store unavailable", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}
		if !fresh {
			abortWithError(c, dto.ErrCodeRequestInProgress,
				"A request with this Idempotency-Key was already accepted")
			return
		}

		completed := false
		defer func() {
			if completed && c.Writer.Status() < http.StatusBadRequest {
				return
			}
			if err := cfg.Store.Forget(context.WithoutCancel(ctx), key); err != nil {
				log.Warn("Failed to release idempotency key", zap.String("key", key), zap.Error(err))
			}
		}()

		c.Next()
		completed = true
	}
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}
