package middlewares

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// APIPrefix is the path prefix of the JSON API; other routes serve HTML pages
const APIPrefix = "/api/"

// BodyLimits caps request bodies per route family, in bytes
type BodyLimits struct {
	API int64
	Web int64
}

// DefaultBodyLimits fits acronym, category and user payloads with plenty of room.
// Web forms carry the same fields plus a CSRF token.
var DefaultBodyLimits = BodyLimits{API: 1 << 20, Web: 256 << 10}

func (l BodyLimits) forPath(path string) int64 {
	if strings.HasPrefix(path, APIPrefix) {
		return l.API
	}
	return l.Web
}

// BodyLimitMiddleware rejects declared oversize bodies with 413 up front and caps the
// rest with http.MaxBytesReader, so handlers see a read error past the limit.
// API callers get a JSON error, browsers a plain text one.
func BodyLimitMiddleware(limits BodyLimits, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			limit := limits.forPath(r.URL.Path)
			if r.ContentLength > limit {
				logger.Warn("request body too large",
					zap.String("request_id", GetRequestID(r.Context())),
					zap.String("path", r.URL.Path),
					zap.Int64("content_length", r.ContentLength),
					zap.Int64("limit", limit),
				)
				writeTooLarge(w, strings.HasPrefix(r.URL.Path, APIPrefix))
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}

func writeTooLarge(w http.ResponseWriter, api bool) {
	if api {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusRequestEntityTooLarge)
		_, _ = w.Write([]byte(`{"error":"request body too large"}`))
		return
	}
	http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
}
