package middlewares

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func TestRequestIDMiddleware(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{name: "generated when missing", incoming: "", keep: false},
		{name: "client id kept", incoming: "abc-123", keep: true},
		{name: "too long id replaced", incoming: strings.Repeat("a", 65), keep: false},
		{name: "id with spaces replaced", incoming: "a b", keep: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = GetRequestID(r.Context())
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.incoming != "" {
				req.Header.Set(RequestIDHeader, tt.incoming)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.NotEmpty(t, seen)
			assert.Equal(t, seen, w.Header().Get(RequestIDHeader))
			assert.Equal(t, tt.keep, seen == tt.incoming)
		})
	}
}

func TestGetRequestID_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	assert.Empty(t, GetRequestID(req.Context()))
}

func TestRecoveryMiddleware(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	handler := RequestIDMiddleware(RecoveryMiddleware(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/explode", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "/explode", logs.All()[0].ContextMap()["path"])
}

func TestRecoveryMiddleware_AbortHandlerRepanics(t *testing.T) {
	handler := RecoveryMiddleware(zaptest.NewLogger(t))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func TestCORSMiddleware(t *testing.T) {
	tests := []struct {
		name                string
		allowed             []string
		origin              string
		expectedOrigin      string
		expectedCredentials string
	}{
		{name: "wildcard", allowed: []string{"*"}, origin: "http://a.test", expectedOrigin: "*"},
		{name: "listed origin", allowed: []string{"http://a.test"}, origin: "http://A.test", expectedOrigin: "http://A.test", expectedCredentials: "true"},
		{name: "unlisted origin", allowed: []string{"http://a.test"}, origin: "http://b.test"},
		{name: "no origin", allowed: []string{"*"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := CORSMiddleware(tt.allowed)(http.HandlerFunc(okHandler))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.expectedOrigin, w.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tt.expectedCredentials, w.Header().Get("Access-Control-Allow-Credentials"))
		})
	}
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	called := false
	handler := CORSMiddleware([]string{"*"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	req := httptest.NewRequest(http.MethodOptions, "/api/acronyms", nil)
	req.Header.Set("Origin", "http://a.test")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.False(t, called)
}

func TestBodyLimitMiddleware(t *testing.T) {
	readBody := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 64)
		n, err := r.Body.Read(buf)
		if err != nil && n == 0 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	limits := BodyLimits{API: 8, Web: 16}

	tests := []struct {
		name        string
		method      string
		target      string
		body        string
		status      int
		contentType string
		errorBody   string
	}{
		{name: "small api body", method: http.MethodPost, target: "/api/acronyms", body: "tiny", status: http.StatusOK},
		{name: "large api body", method: http.MethodPost, target: "/api/acronyms", body: "far too large body", status: http.StatusRequestEntityTooLarge, contentType: "application/json", errorBody: `{"error":"request body too large"}`},
		{name: "form within web limit", method: http.MethodPost, target: "/acronyms/create", body: "short=OMG&x=1", status: http.StatusOK},
		{name: "large form", method: http.MethodPost, target: "/acronyms/create", body: strings.Repeat("a", 32), status: http.StatusRequestEntityTooLarge, contentType: "text/plain; charset=utf-8", errorBody: "request body too large\n"},
		{name: "reads are not limited", method: http.MethodGet, target: "/api/acronyms", body: "far too large body", status: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.WarnLevel)
			handler := BodyLimitMiddleware(limits, zap.New(core))(readBody)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, httptest.NewRequest(tt.method, tt.target, strings.NewReader(tt.body)))

			assert.Equal(t, tt.status, w.Code)
			if tt.status != http.StatusRequestEntityTooLarge {
				assert.Zero(t, logs.Len())
				return
			}
			assert.Equal(t, tt.contentType, w.Header().Get("Content-Type"))
			assert.Equal(t, tt.errorBody, w.Body.String())
			require.Equal(t, 1, logs.Len())
			assert.Equal(t, tt.target, logs.All()[0].ContextMap()["path"])
		})
	}
}

func TestBodyLimitMiddleware_UndeclaredLength(t *testing.T) {
	var readErr error
	handler := BodyLimitMiddleware(BodyLimits{API: 8, Web: 8}, zaptest.NewLogger(t))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
	}))
	req := httptest.NewRequest(http.MethodPost, "/api/acronyms", strings.NewReader("far too large body"))
	req.ContentLength = -1

	handler.ServeHTTP(httptest.NewRecorder(), req)

	var maxErr *http.MaxBytesError
	assert.ErrorAs(t, readErr, &maxErr)
}

func TestLoggerMiddleware(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		expectedLevel zapcore.Level
	}{
		{name: "success", status: http.StatusOK, expectedLevel: zapcore.InfoLevel},
		{name: "client error", status: http.StatusNotFound, expectedLevel: zapcore.WarnLevel},
		{name: "server error", status: http.StatusInternalServerError, expectedLevel: zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			handler := RequestIDMiddleware(LoggerMiddleware(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("body"))
			})))
			req := httptest.NewRequest(http.MethodGet, "/acronyms", nil)
			req.Header.Set(RequestIDHeader, "req-1")

			handler.ServeHTTP(httptest.NewRecorder(), req)

			require.Equal(t, 1, logs.Len())
			entry := logs.All()[0]
			assert.Equal(t, tt.expectedLevel, entry.Level)
			fields := entry.ContextMap()
			assert.Equal(t, "req-1", fields["request_id"])
			assert.Equal(t, int64(tt.status), fields["status"])
			assert.Equal(t, int64(4), fields["bytes"])
		})
	}
}

func TestResponseWriter_HijackUnsupported(t *testing.T) {
	rw := &responseWriter{ResponseWriter: httptest.NewRecorder()}

	_, _, err := rw.Hijack()

	assert.Error(t, err)
}
