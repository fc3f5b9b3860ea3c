package httpx

import (
	"net/http"
	"time"

	"github.com/ariefcatur/go-kiosk-orders/internal/orders"
	"github.com/ariefcatur/go-kiosk-orders/internal/reports"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// KitchenHandler serves the kitchen display and the back-office report.
// Every route is staff only.
type KitchenHandler struct {
	Orders  *orders.Service
	Sales   *reports.Sales
	Staff   Middleware
	Log     *zap.Logger
	Timeout time.Duration
}

func (h *KitchenHandler) Register(r chi.Router) {
	h.Log = nopIfNil(h.Log)
	r.Group(func(r chi.Router) {
		r.Use(staffOr(h.Staff))
		r.Get("/api/kitchen/queue", h.queue)
		r.Put("/api/kitchen/orders/{id}/status", h.setStatus)
		r.Post("/api/kitchen/orders/{id}/cancel", h.cancel)
		if h.Sales != nil {
			r.Get("/api/reports/daily-sales/{date}", h.dailySales)
		}
	})
}

type statusReq struct {
	Status string `json:"status"`
}

func (h *KitchenHandler) queue(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r, h.Timeout)
	defer cancel()
	list, err := h.Orders.KitchenQueue(ctx)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeData(w, http.StatusOK, list)
}

func (h *KitchenHandler) setStatus(w http.ResponseWriter, r *http.Request) {
	var req statusReq
	if err := decode(r, &req); err != nil {
		writeError(w, h.Log, err)
		return
	}
	ctx, cancel := withTimeout(r, h.Timeout)
	defer cancel()
	o, err := h.Orders.UpdateKitchenStatus(ctx, chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeData(w, http.StatusOK, o)
}

func (h *KitchenHandler) cancel(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r, h.Timeout)
	defer cancel()
	o, err := h.Orders.CancelOrder(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeData(w, http.StatusOK, o)
}

func (h *KitchenHandler) dailySales(w http.ResponseWriter, r *http.Request) {
	day, err := reports.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	ctx, cancel := withTimeout(r, h.Timeout)
	defer cancel()
	out, err := h.Sales.DailySalesSummary(ctx, day)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeData(w, http.StatusOK, out)
}
