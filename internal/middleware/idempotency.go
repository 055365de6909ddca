package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
)

// Idempotency header names.
const (
	IdempotencyKeyHeader = "Idempotency-Key"
	IdempotencyHitHeader = "X-Idempotency-Hit"
)

const (
	idempotencyPrefix = "idempotency:"
	processingMarker  = "PROCESSING"
)

// IdempotencyOptions tunes NewIdempotencyHandler. Zero values get defaults.
type IdempotencyOptions struct {
	// TTL is how long a completed response is replayable. Default 24h.
	TTL time.Duration
	// LockTTL bounds how long an in-flight request holds its key, so a crash
	// cannot lock a key forever. Default 30s.
	LockTTL time.Duration
}

// storedResponse is the Redis representation of a completed response.
type storedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// NewIdempotencyHandler returns a middleware that makes POST requests carrying
// an Idempotency-Key header safe to retry.
//
// The first request for a key runs normally and its response is stored in
// Redis; repeats get the stored response back with X-Idempotency-Hit: true.
// A repeat that arrives while the first is still running gets 409. Responses
// with a 5xx status are not stored, so the client can retry them. When Redis
// is unreachable the request is served without idempotency.
//
// Keys are scoped by method and path, so the same key on two endpoints does
// not collide.
func NewIdempotencyHandler(rdb redis.Cmdable, log *slog.Logger, opts IdempotencyOptions) func(http.Handler) http.Handler {
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = 30 * time.Second
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(IdempotencyKeyHeader)
			if r.Method != http.MethodPost || key == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			redisKey := idempotencyPrefix + r.Method + " " + r.URL.Path + ":" + key

			val, err := rdb.Get(ctx, redisKey).Result()
			switch {
			case err == nil && val == processingMarker:
				writeConflict(w)
				return
			case err == nil:
				var stored storedResponse
				if jsonErr := json.Unmarshal([]byte(val), &stored); jsonErr == nil {
					replay(w, stored)
					return
				}
				log.WarnContext(ctx, "discarding unreadable idempotency record", "key", key)
				rdb.Del(ctx, redisKey)
			case !errors.Is(err, redis.Nil):
				log.WarnContext(ctx, "idempotency store unavailable; serving without it", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			acquired, err := rdb.SetNX(ctx, redisKey, processingMarker, opts.LockTTL).Result()
			if err != nil {
				log.WarnContext(ctx, "idempotency store unavailable; serving without it", "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if !acquired {
				writeConflict(w)
				return
			}

			var body bytes.Buffer
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			ww.Tee(&body)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			if status >= http.StatusInternalServerError {
				rdb.Del(ctx, redisKey)
				return
			}

			record, err := json.Marshal(storedResponse{
				Status:      status,
				ContentType: ww.Header().Get("Content-Type"),
				Body:        body.Bytes(),
			})
			if err == nil {
				err = rdb.Set(ctx, redisKey, record, opts.TTL).Err()
			}
			if err != nil {
				log.WarnContext(ctx, "failed to store idempotent response", "key", key, "error", err)
				rdb.Del(ctx, redisKey)
			}
		})
	}
}

func replay(w http.ResponseWriter, stored storedResponse) {
	if stored.ContentType != "" {
		w.Header().Set("Content-Type", stored.ContentType)
	}
	w.Header().Set(IdempotencyHitHeader, "true")
	w.WriteHeader(stored.Status)
	_, _ = w.Write(stored.Body)
}

func writeConflict(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusConflict)
	_, _ = w.Write([]byte(`{"error":{"code":"conflict","message":"a request with this idempotency key is already in progress"}}`))
}
