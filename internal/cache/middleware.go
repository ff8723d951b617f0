package cache

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/r1cksync/skycast/internal/observability"
)

// Key derives the cache key for a request. It is the exact path plus raw
// query string, verbatim: case-sensitive and query-order-sensitive, so two
// equivalent but differently-ordered query strings cache separately. Keep
// this a pure function so a normalizing variant can be swapped in without
// touching the interception logic.
func Key(path, rawQuery string) string {
	if rawQuery == "" {
		return path
	}
	return path + "?" + rawQuery
}

// Cacher wraps idempotent-read handlers with transparent response caching.
// Constructed once at process start and injected into the router; never a
// package-level singleton, so tests get isolated instances.
type Cacher struct {
	store      Store
	defaultTTL time.Duration
	backend    string
	logger     *zap.Logger
}

// NewCacher creates a Cacher over store. ttl is the process-wide default
// applied when a route does not configure its own. backend labels cache
// metrics (in_memory or memcached).
func NewCacher(store Store, defaultTTL time.Duration, backend string, logger *zap.Logger) *Cacher {
	return &Cacher{store: store, defaultTTL: defaultTTL, backend: backend, logger: logger}
}

// Middleware returns route middleware caching successful JSON responses for
// ttl (zero means the default TTL). Only GET requests are cached unless
// extraMethods admits more; /batch is wired with POST here, keyed by
// path+query only. The body is not part of the key, a documented
// imprecision. Store failures degrade to miss behavior: caching is
// best-effort and never blocks serving a response.
func (c *Cacher) Middleware(ttl time.Duration, extraMethods ...string) mux.MiddlewareFunc {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	allowed := map[string]struct{}{http.MethodGet: {}}
	for _, m := range extraMethods {
		allowed[m] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := allowed[r.Method]; !ok {
				next.ServeHTTP(w, r)
				return
			}

			key := Key(r.URL.Path, r.URL.RawQuery)
			body, hit, err := c.store.Get(r.Context(), key)
			if err != nil {
				observability.CacheErrorsTotal.WithLabelValues("get").Inc()
				c.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
			} else if hit {
				observability.CacheHitsTotal.WithLabelValues(c.backend).Inc()
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("X-Cache", "HIT")
				// Hits always reply 200, even when the entry was captured from
				// another 2xx status.
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write(body)
				return
			}
			observability.CacheMissesTotal.WithLabelValues(c.backend).Inc()

			rec := &captureWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			if rec.status < 200 || rec.status >= 300 {
				return
			}
			if err := c.store.Set(r.Context(), key, rec.buf.Bytes(), ttl); err != nil {
				observability.CacheErrorsTotal.WithLabelValues("set").Inc()
				c.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
			}
		})
	}
}

// captureWriter tees the response body so a successful payload can be stored
// after the wrapped handler returns. This replaces response-method patching
// with an explicit capture owned by the middleware.
type captureWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
}

func (w *captureWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}
