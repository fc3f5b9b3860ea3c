package httpx

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/ariefcatur/go-kiosk-orders/internal/orders"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const HeaderStaffKey = "X-Staff-Key"

type Middleware = func(http.Handler) http.Handler

// RequestLogger logs one line per request with zap.
func RequestLogger(log *zap.Logger) Middleware {
	log = log.Named("http")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}

// TraceContext carries the request id into the domain layer for event tracing.
func TraceContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.GetReqID(r.Context()); id != "" {
			r = r.WithContext(orders.WithTraceID(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireStaff gates cashier, kitchen and back-office routes behind a shared key.
// An empty key disables the check.
func RequireStaff(key string) Middleware {
	return func(next http.Handler) http.Handler {
		if key == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(HeaderStaffKey)
			if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				writeJSON(w, http.StatusUnauthorized, errorBody{Error: "staff key required"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func staffOr(m Middleware) Middleware {
	if m == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return m
}
