package httpx

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/ariefcatur/go-kiosk-orders/internal/apperr"
	"github.com/ariefcatur/go-kiosk-orders/internal/menu"
	"github.com/ariefcatur/go-kiosk-orders/internal/orders"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	HeaderIdempotencyKey = "Idempotency-Key"
	HeaderReplayed       = "Idempotent-Replayed"
)

// Idempotency maps a client key to the order created for it.
type Idempotency interface {
	Lookup(ctx context.Context, key string) (string, bool, error)
	Remember(ctx context.Context, key, orderID string) (string, error)
}

type OrdersHandler struct {
	Orders  *orders.Service
	Idem    Idempotency // optional
	Staff   Middleware
	Log     *zap.Logger
	Timeout time.Duration
}

func (h *OrdersHandler) Register(r chi.Router) {
	h.Log = nopIfNil(h.Log)
	staff := staffOr(h.Staff)
	r.Post("/api/orders", h.create)
	r.With(staff).Get("/api/orders/counter-pending", h.counterPending)
	r.Get("/api/orders/by-number/{number}", h.getByNumber)
	r.Get("/api/orders/{id}", h.get)
	r.Get("/api/orders/{id}/status", h.status)
	r.With(staff).Delete("/api/orders/{id}", h.delete)
	r.Post("/api/orders/{id}/items", h.addLine)
	r.Put("/api/orders/{id}/items/{lineId}", h.updateLine)
	r.Delete("/api/orders/{id}/items/{lineId}", h.removeLine)
	r.Post("/api/orders/{id}/finalize", h.finalize)
}

type addLineReq struct {
	MenuItemID string          `json:"menu_item_id"`
	Quantity   int             `json:"quantity"`
	Selections menu.Selections `json:"customizations"`
}

type updateLineReq struct {
	Quantity int `json:"quantity"`
}

type finalizeReq struct {
	PaymentMethod string `json:"payment_method"`
}

type lineResp struct {
	Item    *orders.OrderLine `json:"item,omitempty"`
	Removed bool              `json:"removed,omitempty"`
	Order   *orders.Order     `json:"order"`
}

func (h *OrdersHandler) create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r, h.Timeout)
	defer cancel()

	key := strings.TrimSpace(r.Header.Get(HeaderIdempotencyKey))
	if key != "" && h.Idem != nil {
		// cek existing
		if id, ok, err := h.Idem.Lookup(ctx, key); err != nil {
			h.Log.Warn("idempotency lookup failed", zap.Error(err))
		} else if ok {
			if o, err := h.Orders.GetOrder(ctx, id); err == nil {
				w.Header().Set(HeaderReplayed, "true")
				writeData(w, http.StatusOK, o)
				return
			}
		}
	}

	o, err := h.Orders.CreateOrder(ctx)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}

	if key != "" && h.Idem != nil {
		winner, err := h.Idem.Remember(ctx, key, o.ID)
		switch {
		case err != nil:
			h.Log.Warn("idempotency remember failed", zap.Error(err))
		case winner != o.ID:
			// request lain menang, buang order kita supaya tidak ada order yatim
			if err := h.Orders.DeleteOrder(ctx, o.ID); err != nil {
				h.Log.Warn("discard duplicate order", zap.String("order_id", o.ID), zap.Error(err))
			}
			if prev, err := h.Orders.GetOrder(ctx, winner); err == nil {
				w.Header().Set(HeaderReplayed, "true")
				writeData(w, http.StatusOK, prev)
				return
			}
		}
	}
	writeData(w, http.StatusCreated, o)
}

func (h *OrdersHandler) get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r, h.Timeout)
	defer cancel()
	o, err := h.Orders.GetOrder(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeData(w, http.StatusOK, o)
}

func (h *OrdersHandler) getByNumber(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r, h.Timeout)
	defer cancel()
	o, err := h.Orders.GetOrderByNumber(ctx, chi.URLParam(r, "number"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeData(w, http.StatusOK, o)
}

func (h *OrdersHandler) status(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r, h.Timeout)
	defer cancel()
	snap, err := h.Orders.GetStatus(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeData(w, http.StatusOK, snap)
}

func (h *OrdersHandler) delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r, h.Timeout)
	defer cancel()
	if err := h.Orders.DeleteOrder(ctx, chi.URLParam(r, "id")); err != nil {
		writeError(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *OrdersHandler) addLine(w http.ResponseWriter, r *http.Request) {
	var req addLineReq
	if err := decode(r, &req); err != nil {
		writeError(w, h.Log, err)
		return
	}
	ctx, cancel := withTimeout(r, h.Timeout)
	defer cancel()
	line, o, err := h.Orders.AddLine(ctx, chi.URLParam(r, "id"), req.MenuItemID, req.Quantity, req.Selections)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeData(w, http.StatusCreated, lineResp{Item: line, Order: o})
}

func (h *OrdersHandler) updateLine(w http.ResponseWriter, r *http.Request) {
	var req updateLineReq
	if err := decode(r, &req); err != nil {
		writeError(w, h.Log, err)
		return
	}
	ctx, cancel := withTimeout(r, h.Timeout)
	defer cancel()
	lineID := chi.URLParam(r, "lineId")
	if err := h.lineBelongs(ctx, chi.URLParam(r, "id"), lineID); err != nil {
		writeError(w, h.Log, err)
		return
	}
	line, removed, o, err := h.Orders.UpdateLine(ctx, lineID, req.Quantity)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeData(w, http.StatusOK, lineResp{Item: line, Removed: removed, Order: o})
}

// lineBelongs keeps /orders/{id}/items/{lineId} from touching another order's line.
func (h *OrdersHandler) lineBelongs(ctx context.Context, orderID, lineID string) error {
	o, err := h.Orders.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if o.Line(lineID) < 0 {
		return apperr.NotFound("order line %s not found", lineID)
	}
	return nil
}

func (h *OrdersHandler) removeLine(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r, h.Timeout)
	defer cancel()
	o, err := h.Orders.RemoveLine(ctx, chi.URLParam(r, "id"), chi.URLParam(r, "lineId"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeData(w, http.StatusOK, o)
}

func (h *OrdersHandler) finalize(w http.ResponseWriter, r *http.Request) {
	var req finalizeReq
	if err := decode(r, &req); err != nil {
		writeError(w, h.Log, err)
		return
	}
	ctx, cancel := withTimeout(r, h.Timeout)
	defer cancel()
	o, err := h.Orders.Finalize(ctx, chi.URLParam(r, "id"), req.PaymentMethod)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeData(w, http.StatusOK, o)
}

func (h *OrdersHandler) counterPending(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r, h.Timeout)
	defer cancel()
	list, err := h.Orders.CounterQueue(ctx)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeData(w, http.StatusOK, list)
}
