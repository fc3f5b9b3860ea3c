package httpx

import (
	"net/http"
	"time"

	"github.com/ariefcatur/go-kiosk-orders/internal/menu"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type MenuHandler struct {
	Catalog *menu.Catalog
	Staff   Middleware
	Log     *zap.Logger
	Timeout time.Duration
}

func (h *MenuHandler) Register(r chi.Router) {
	h.Log = nopIfNil(h.Log)
	staff := staffOr(h.Staff)
	r.Get("/api/menu/categories", h.categories)
	r.Get("/api/menu/items", h.list)
	r.Get("/api/menu/items/{id}", h.get)
	r.With(staff).Post("/api/menu/items", h.create)
	r.With(staff).Put("/api/menu/items/{id}", h.update)
}

func (h *MenuHandler) categories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r, h.Timeout)
	defer cancel()
	cats, err := h.Catalog.ListCategories(ctx)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeData(w, http.StatusOK, cats)
}

// ?category= returns only available items in that category, ?available=true
// the whole orderable menu, no filter everything (back office view).
func (h *MenuHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r, h.Timeout)
	defer cancel()
	var (
		items []menu.MenuItem
		err   error
	)
	q := r.URL.Query()
	if q.Get("category") == "" && q.Get("available") == "true" {
		items, err = h.Catalog.ListAvailable(ctx)
	} else {
		items, err = h.Catalog.ListItems(ctx, q.Get("category"))
	}
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeData(w, http.StatusOK, items)
}

func (h *MenuHandler) get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r, h.Timeout)
	defer cancel()
	it, err := h.Catalog.GetItem(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeData(w, http.StatusOK, it)
}

func (h *MenuHandler) create(w http.ResponseWriter, r *http.Request) {
	var in menu.NewItem
	if err := decode(r, &in); err != nil {
		writeError(w, h.Log, err)
		return
	}
	ctx, cancel := withTimeout(r, h.Timeout)
	defer cancel()
	it, err := h.Catalog.AddItem(ctx, in)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeData(w, http.StatusCreated, it)
}

func (h *MenuHandler) update(w http.ResponseWriter, r *http.Request) {
	var p menu.ItemPatch
	if err := decode(r, &p); err != nil {
		writeError(w, h.Log, err)
		return
	}
	ctx, cancel := withTimeout(r, h.Timeout)
	defer cancel()
	it, err := h.Catalog.UpdateItem(ctx, chi.URLParam(r, "id"), p)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeData(w, http.StatusOK, it)
}
