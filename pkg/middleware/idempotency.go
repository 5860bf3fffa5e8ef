package middleware

import (
	"bytes"
	"net/http"
	"sync"
	"time"

	"wellnest/pkg/logger"
)

type cachedResponse struct {
	statusCode int
	body       []byte
	header     http.Header
	storedAt   time.Time
}

// IdempotencyStore remembers responses keyed by Idempotency-Key so a
// retried request replays the original outcome instead of booking twice.
type IdempotencyStore interface {
	Get(key string) (*cachedResponse, bool)
	Set(key string, resp *cachedResponse)
}

type InMemoryIdempotencyStore struct {
	mu      sync.RWMutex
	entries map[string]*cachedResponse
	ttl     time.Duration
	stop    chan struct{}
}

func NewInMemoryIdempotencyStore(ttl time.Duration) *InMemoryIdempotencyStore {
	s := &InMemoryIdempotencyStore{
		entries: make(map[string]*cachedResponse),
		ttl:     ttl,
		stop:    make(chan struct{}),
	}

	go s.cleanupLoop()

	return s
}

func (s *InMemoryIdempotencyStore) Get(key string) (*cachedResponse, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	if time.Since(entry.storedAt) > s.ttl {
		return nil, false
	}
	return entry, true
}

func (s *InMemoryIdempotencyStore) Set(key string, resp *cachedResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = resp
}

func (s *InMemoryIdempotencyStore) cleanupLoop() {
	ticker := time.NewTicker(s.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stop:
			return
		}
	}
}

func (s *InMemoryIdempotencyStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, entry := range s.entries {
		if time.Since(entry.storedAt) > s.ttl {
			delete(s.entries, key)
		}
	}
}

func (s *InMemoryIdempotencyStore) Stop() {
	close(s.stop)
}

type captureWriter struct {
	http.ResponseWriter
	statusCode int
	body       bytes.Buffer
}

func (cw *captureWriter) WriteHeader(statusCode int) {
	cw.statusCode = statusCode
	cw.ResponseWriter.WriteHeader(statusCode)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	cw.body.Write(b)
	return cw.ResponseWriter.Write(b)
}

// Idempotency replays a cached response for repeated POSTs carrying the
// same Idempotency-Key. Requests without the header pass through.
func Idempotency(store IdempotencyStore, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get("Idempotency-Key")
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			if cached, ok := store.Get(key); ok {
				log.Info("replaying idempotent response",
					"request_id", requestIDFrom(r),
					"idempotency_key", key,
				)
				for name, values := range cached.header {
					for _, v := range values {
						w.Header().Add(name, v)
					}
				}
				w.WriteHeader(cached.statusCode)
				w.Write(cached.body)
				return
			}

			cw := &captureWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(cw, r)

			// Only successful outcomes are worth replaying; a failed
			// attempt should be retryable for real.
			if cw.statusCode < 500 {
				store.Set(key, &cachedResponse{
					statusCode: cw.statusCode,
					body:       cw.body.Bytes(),
					header:     cw.Header().Clone(),
					storedAt:   time.Now(),
				})
			}
		})
	}
}
