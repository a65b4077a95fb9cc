package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoggingMiddleware(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("test response"))
	})

	for _, verbose := range []bool{false, true} {
		wrapped := createLoggingMiddleware(handler, NewHTTPLogger("test", verbose))

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		w := httptest.NewRecorder()

		wrapped.ServeHTTP(w, req)

		assert.Equal(t, http.StatusTeapot, w.Code)
		assert.Equal(t, "test response", w.Body.String())
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	logger := NewHTTPLogger("test", false)

	t.Run("normal operation", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})

		w := httptest.NewRecorder()
		createRecoveryMiddleware(handler, logger).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("panic recovery", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("test panic")
		})

		w := httptest.NewRecorder()
		createRecoveryMiddleware(handler, logger).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("abort handler propagates", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic(http.ErrAbortHandler)
		})

		assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
			createRecoveryMiddleware(handler, logger).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/test", nil))
		})
	})
}

func TestResponseWriter(t *testing.T) {
	w := httptest.NewRecorder()
	wrapped := &responseWriter{
		ResponseWriter: w,
		status:         http.StatusOK,
	}

	t.Run("write header", func(t *testing.T) {
		wrapped.WriteHeader(http.StatusCreated)
		assert.Equal(t, http.StatusCreated, wrapped.status)
	})

	t.Run("multiple writes", func(t *testing.T) {
		n1, err := wrapped.Write([]byte("first "))
		assert.NoError(t, err)
		n2, err := wrapped.Write([]byte("second"))
		assert.NoError(t, err)

		assert.Equal(t, n1+n2, wrapped.size)
	})

	t.Run("hijack unsupported by recorder", func(t *testing.T) {
		_, _, err := wrapped.Hijack()
		assert.Error(t, err)
	})

	t.Run("unwrap", func(t *testing.T) {
		assert.Equal(t, w, wrapped.Unwrap())
	})
}
