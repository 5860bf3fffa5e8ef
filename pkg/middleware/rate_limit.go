package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	apperrors "wellnest/pkg/errors"
	apphttp "wellnest/pkg/http"
	"wellnest/pkg/logger"
)

type clientBucket struct {
	requests []time.Time
}

// ClientRateLimiter limits requests per client within a sliding window.
// The client key is the X-Client-ID header when present, otherwise the
// remote IP.
type ClientRateLimiter struct {
	mu          sync.Mutex
	buckets     map[string]*clientBucket
	maxRequests int
	window      time.Duration
	log         *logger.Logger
	stopCleanup chan struct{}
}

func NewClientRateLimiter(maxRequests int, window time.Duration, log *logger.Logger) *ClientRateLimiter {
	rl := &ClientRateLimiter{
		buckets:     make(map[string]*clientBucket),
		maxRequests: maxRequests,
		window:      window,
		log:         log,
		stopCleanup: make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

func (rl *ClientRateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-rl.window)

	bucket, ok := rl.buckets[key]
	if !ok {
		bucket = &clientBucket{}
		rl.buckets[key] = bucket
	}

	kept := bucket.requests[:0]
	for _, ts := range bucket.requests {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	bucket.requests = kept

	if len(bucket.requests) >= rl.maxRequests {
		return false
	}

	bucket.requests = append(bucket.requests, now)
	return true
}

func (rl *ClientRateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCleanup:
			return
		}
	}
}

func (rl *ClientRateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-rl.window)
	for key, bucket := range rl.buckets {
		kept := bucket.requests[:0]
		for _, ts := range bucket.requests {
			if ts.After(cutoff) {
				kept = append(kept, ts)
			}
		}
		if len(kept) == 0 {
			delete(rl.buckets, key)
		} else {
			bucket.requests = kept
		}
	}
}

func (rl *ClientRateLimiter) Stop() {
	close(rl.stopCleanup)
}

func (rl *ClientRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientKey(r)

		if !rl.Allow(key) {
			rl.log.Warn("rate limit exceeded",
				"request_id", requestIDFrom(r),
				"client", key,
				"path", r.URL.Path,
			)
			appErr := apperrors.New(
				apperrors.CodeConflict,
				"too many requests, please try again later",
				http.StatusTooManyRequests,
			)
			apphttp.WriteError(w, appErr)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func clientKey(r *http.Request) string {
	if id := r.Header.Get("X-Client-ID"); id != "" {
		return id
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
