package httpx

import (
	"net/http"
	"time"

	"github.com/ariefcatur/go-kiosk-orders/internal/orders"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type PaymentsHandler struct {
	Orders  *orders.Service
	Staff   Middleware
	Log     *zap.Logger
	Timeout time.Duration
}

func (h *PaymentsHandler) Register(r chi.Router) {
	h.Log = nopIfNil(h.Log)
	r.Post("/api/payments/kiosk", h.kiosk)
	r.With(staffOr(h.Staff)).Post("/api/payments/counter", h.counter)
}

type paymentReq struct {
	OrderID       string `json:"order_id"`
	PaymentMethod string `json:"payment_method"`
}

func (h *PaymentsHandler) kiosk(w http.ResponseWriter, r *http.Request) {
	var req paymentReq
	if err := decode(r, &req); err != nil {
		writeError(w, h.Log, err)
		return
	}
	ctx, cancel := withTimeout(r, h.Timeout)
	defer cancel()
	p, err := h.Orders.PayAtKiosk(ctx, req.OrderID)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeData(w, http.StatusCreated, p)
}

func (h *PaymentsHandler) counter(w http.ResponseWriter, r *http.Request) {
	var req paymentReq
	if err := decode(r, &req); err != nil {
		writeError(w, h.Log, err)
		return
	}
	ctx, cancel := withTimeout(r, h.Timeout)
	defer cancel()
	p, err := h.Orders.PayAtCounter(ctx, req.OrderID, req.PaymentMethod)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeData(w, http.StatusCreated, p)
}
