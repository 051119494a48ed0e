package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gowebpki/jcs"
	"github.com/rs/zerolog"

	"github.com/iho/upiledger/internal/usecase"
)

const (
	// IdempotencyKeyHeader is the header name for idempotency keys.
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotencyReplayHeader marks a response served from the idempotency store.
	IdempotencyReplayHeader = "X-Idempotency-Replay"

	stateProcessing = "processing"
	stateCompleted  = "completed"
	maxKeyLength    = 255
)

// idempotencyRecord is what the store holds under a key.
type idempotencyRecord struct {
	Fingerprint string `json:"fingerprint"`
	State       string `json:"state"`
	Status      int    `json:"status,omitempty"`
	Body        []byte `json:"body,omitempty"`
}

// IdempotencyMiddleware replays the first response for a repeated
// Idempotency-Key so a retried POST never moves money twice.
type IdempotencyMiddleware struct {
	store  usecase.IdempotencyStore
	ttl    time.Duration
	logger zerolog.Logger
}

// NewIdempotencyMiddleware creates a new IdempotencyMiddleware.
func NewIdempotencyMiddleware(store usecase.IdempotencyStore, ttl time.Duration, logger zerolog.Logger) *IdempotencyMiddleware {
	if ttl <= 0 {
		ttl = usecase.IdempotencyKeyTTL
	}
	return &IdempotencyMiddleware{store: store, ttl: ttl, logger: logger}
}

// Wrap wraps an http.Handler with idempotency checking.
func (m *IdempotencyMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			next.ServeHTTP(w, r)
			return
		}

		key := r.Header.Get(IdempotencyKeyHeader)
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}
		if len(key) > maxKeyLength {
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "idempotency key is too long")
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "could not read request body")
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		storeKey := scopedKey(r, key)
		fingerprint := fingerprint(body)

		placeholder, _ := json.Marshal(idempotencyRecord{Fingerprint: fingerprint, State: stateProcessing})
		exists, existing, err := m.store.CheckAndSet(r.Context(), storeKey, placeholder, m.ttl)
		if err != nil {
			m.logger.Error().Err(err).Str("key", key).Msg("idempotency store unavailable")
			writeError(w, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "idempotency check failed, retry later")
			return
		}

		if exists {
			m.replay(w, key, fingerprint, existing)
			return
		}

		// Everything after the claim runs detached so a disconnecting client
		// cannot leave the key stuck in processing. The key is released only
		// when the handler panics or answers 503; any other outcome may have
		// moved money and must keep the key claimed.
		detached := context.WithoutCancel(r.Context())
		release := true
		defer func() {
			if release {
				if err := m.store.Release(detached, storeKey); err != nil {
					m.logger.Warn().Err(err).Str("key", key).Msg("idempotency key release failed")
				}
			}
		}()

		recorder := &responseRecorder{
			ResponseWriter: w,
			body:           &bytes.Buffer{},
			statusCode:     http.StatusOK,
		}
		next.ServeHTTP(recorder, r)

		// 503 means nothing was decided; let the client retry with the same key.
		if recorder.statusCode == http.StatusServiceUnavailable {
			return
		}
		release = false

		final, _ := json.Marshal(idempotencyRecord{
			Fingerprint: fingerprint,
			State:       stateCompleted,
			Status:      recorder.statusCode,
			Body:        recorder.body.Bytes(),
		})
		if err := m.store.Update(detached, storeKey, final, m.ttl); err != nil {
			// The placeholder stays until its TTL, so retries see the key in progress.
			m.logger.Error().Err(err).Str("key", key).Int("status", recorder.statusCode).
				Msg("idempotent response not stored, key stays claimed")
		}
	})
}

func (m *IdempotencyMiddleware) replay(w http.ResponseWriter, key, fingerprint string, raw []byte) {
	var rec idempotencyRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		m.logger.Warn().Err(err).Str("key", key).Msg("unreadable idempotency record")
		writeError(w, http.StatusConflict, "IDEMPOTENCY_IN_PROGRESS", "request with this idempotency key is still in progress")
		return
	}

	switch {
	case rec.Fingerprint != fingerprint:
		writeError(w, http.StatusUnprocessableEntity, "IDEMPOTENCY_CONFLICT", "idempotency key reused with a different request")
	case rec.State != stateCompleted:
		writeError(w, http.StatusConflict, "IDEMPOTENCY_IN_PROGRESS", "request with this idempotency key is still in progress")
	default:
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set(IdempotencyReplayHeader, "true")
		w.WriteHeader(rec.Status)
		_, _ = w.Write(rec.Body)
	}
}

// scopedKey keeps one caller's keys from colliding with another's.
func scopedKey(r *http.Request, key string) string {
	owner := "anonymous"
	if user, ok := GetUserFromContext(r.Context()); ok {
		owner = user.ID
	}
	return owner + ":" + r.URL.Path + ":" + key
}

// fingerprint hashes the canonical JSON form of body, so reordered fields
// or whitespace do not count as a different request.
func fingerprint(body []byte) string {
	canon, err := jcs.Transform(body)
	if err != nil {
		canon = body
	}
	sum := sha256.Sum256(canon)
	return hex.EncodeToString(sum[:])
}

type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}
