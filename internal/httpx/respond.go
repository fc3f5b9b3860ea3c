package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/ariefcatur/go-kiosk-orders/internal/apperr"
	"go.uber.org/zap"
)

const defaultTimeout = 5 * time.Second

type dataBody struct {
	Data any `json:"data"`
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, code int, v any) {
	writeJSON(w, code, dataBody{Data: v})
}

func writeError(w http.ResponseWriter, log *zap.Logger, err error) {
	code := apperr.HTTPStatus(apperr.KindOf(err))
	if code >= http.StatusInternalServerError {
		log.Error("request failed", zap.Error(err))
	}
	writeJSON(w, code, errorBody{Error: apperr.Message(err)})
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.InvalidInput("invalid json: %v", err)
	}
	return nil
}

func withTimeout(r *http.Request, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = defaultTimeout
	}
	return context.WithTimeout(r.Context(), d)
}

func nopIfNil(log *zap.Logger) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}
