package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"rideshare/internal/auth"
	"rideshare/internal/handler"
)

const (
	idempotencyHeader = "Idempotency-Key"
	replayedHeader    = "Idempotent-Replayed"

	idempotencyTTL = 24 * time.Hour
	// inflightTTL releases a key whose request died before finishing.
	inflightTTL = 30 * time.Second
)

// idempotencyRecord is what a key holds in Redis. A record without a status
// belongs to a request that is still running.
type idempotencyRecord struct {
	StatusCode  int             `json:"status_code,omitempty"`
	ContentType string          `json:"content_type,omitempty"`
	Body        json.RawMessage `json:"body,omitempty"`
}

func (r idempotencyRecord) done() bool { return r.StatusCode != 0 }

// bodyRecorder tees the response body so it can be stored.
type bodyRecorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// IdempotencyMiddleware makes POST requests carrying an Idempotency-Key
// header safe to retry. The first request claims the key; retries replay its
// response, and a retry that arrives while the first is still running gets
// 409. Keys are scoped to the authenticated principal and request path, so it must
// run after Auth. A nil client disables it, and Redis failures fall through
// to normal handling.
func IdempotencyMiddleware(client *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(idempotencyHeader)
		if client == nil || key == "" || c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		redisKey := idempotencyKey(ctx, c.Request.Method, c.Request.URL.Path, key)

		claimed, err := client.SetNX(ctx, redisKey, mustMarshal(idempotencyRecord{}), inflightTTL).Result()
		if err != nil {
			c.Next()
			return
		}
		if !claimed {
			replay(c, client, redisKey)
			return
		}

		rec := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = rec
		c.Next()

		// Server errors are not replayed; release the key for a retry.
		status := rec.Status()
		if status >= http.StatusInternalServerError {
			client.Del(context.WithoutCancel(ctx), redisKey)
			return
		}
		record := idempotencyRecord{
			StatusCode:  status,
			ContentType: rec.Header().Get("Content-Type"),
			Body:        rec.body.Bytes(),
		}
		client.Set(context.WithoutCancel(ctx), redisKey, mustMarshal(record), idempotencyTTL)
	}
}

func replay(c *gin.Context, client *redis.Client, redisKey string) {
	data, err := client.Get(c.Request.Context(), redisKey).Bytes()
	if errors.Is(err, redis.Nil) {
		// Released between SETNX and GET by a failed first attempt.
		handler.AbortWithError(c, http.StatusConflict, "request with this Idempotency-Key was retried too early")
		return
	}
	var record idempotencyRecord
	if err == nil {
		err = json.Unmarshal(data, &record)
	}
	if err != nil {
		c.Next()
		return
	}

	if !record.done() {
		handler.AbortWithError(c, http.StatusConflict, "request with this Idempotency-Key is still in progress")
		return
	}
	c.Header(replayedHeader, "true")
	c.Data(record.StatusCode, record.ContentType, record.Body)
	c.Abort()
}

// idempotencyKey namespaces the client key by principal and concrete path,
// so reusing a key for another user or another ride never replays.
func idempotencyKey(ctx context.Context, method, path, key string) string {
	owner := "anonymous"
	if p, ok := auth.PrincipalFromContext(ctx); ok {
		owner = p.UserID
	}
	return "idempotency:" + owner + ":" + method + ":" + path + ":" + key
}

func mustMarshal(r idempotencyRecord) []byte {
	data, err := json.Marshal(r)
	if err != nil {
		panic(err)
	}
	return data
}
