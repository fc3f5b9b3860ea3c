package reports

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/ariefcatur/go-kiosk-orders/internal/apperr"
	"github.com/ariefcatur/go-kiosk-orders/internal/menu"
	"github.com/ariefcatur/go-kiosk-orders/internal/orders"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	DateLayout = "2006-01-02"
	TopN       = 5
)

type OrderSource interface {
	ListCreatedBetween(ctx context.Context, from, to time.Time) ([]*orders.Order, error)
}

type ItemLookup interface {
	GetItem(ctx context.Context, id string) (menu.MenuItem, error)
}

type TopItem struct {
	MenuItemID string          `json:"menu_item_id"`
	Name       string          `json:"name"`
	Category   string          `json:"category,omitempty"`
	Quantity   int             `json:"quantity"`
	Revenue    decimal.Decimal `json:"revenue"`
}

type DailySales struct {
	Date         string          `json:"date"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	OrderCount   int             `json:"order_count"`
	TopItems     []TopItem       `json:"top_items"`
}

// Sales is read-only over orders and the catalog.
type Sales struct {
	orders OrderSource
	items  ItemLookup
	log    *zap.Logger
}

func NewSales(src OrderSource, items ItemLookup, log *zap.Logger) *Sales {
	if log == nil {
		log = zap.NewNop()
	}
	return &Sales{orders: src, items: items, log: log.Named("reports")}
}

// ParseDate accepts YYYY-MM-DD and returns midnight UTC.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, apperr.InvalidInput("date must be YYYY-MM-DD, got %q", s)
	}
	return d, nil
}

func counted(s orders.Status) bool { return s == orders.StatusReady || s == orders.StatusCompleted }

// DailySalesSummary rolls up the orders created on the given UTC day that reached
// ready or completed.
func (s *Sales) DailySalesSummary(ctx context.Context, day time.Time) (DailySales, error) {
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	list, err := s.orders.ListCreatedBetween(ctx, from, from.AddDate(0, 0, 1))
	if err != nil {
		return DailySales{}, apperr.Internal(err, "list orders for %s", from.Format(DateLayout))
	}

	out := DailySales{Date: from.Format(DateLayout), TotalRevenue: decimal.Zero, TopItems: []TopItem{}}
	byItem := make(map[string]*TopItem)
	for _, o := range list {
		if !counted(o.Status) {
			continue
		}
		out.OrderCount++
		out.TotalRevenue = out.TotalRevenue.Add(o.Total)
		for _, l := range o.Lines {
			ti, ok := byItem[l.MenuItemID]
			if !ok {
				ti = &TopItem{MenuItemID: l.MenuItemID, Name: l.MenuItemName, Revenue: decimal.Zero}
				byItem[l.MenuItemID] = ti
			}
			ti.Quantity += l.Quantity
			ti.Revenue = ti.Revenue.Add(l.LineTotal)
		}
	}
	out.TotalRevenue = out.TotalRevenue.Round(2)

	top := make([]TopItem, 0, len(byItem))
	for _, ti := range byItem {
		top = append(top, *ti)
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Quantity != top[j].Quantity {
			return top[i].Quantity > top[j].Quantity
		}
		if top[i].Name != top[j].Name {
			return top[i].Name < top[j].Name
		}
		return top[i].MenuItemID < top[j].MenuItemID
	})
	if len(top) > TopN {
		top = top[:TopN]
	}

	// nama & kategori dari katalog; kalau item sudah hilang pakai snapshot di line
	for i := range top {
		it, err := s.items.GetItem(ctx, top[i].MenuItemID)
		switch {
		case err == nil:
			top[i].Name, top[i].Category = it.Name, it.Category
		case apperr.KindOf(err) == apperr.KindNotFound:
			s.log.Debug("menu item gone, using snapshot name", zap.String("menu_item_id", top[i].MenuItemID))
		default:
			return DailySales{}, apperr.Internal(err, "get menu item %s", top[i].MenuItemID)
		}
		top[i].Revenue = top[i].Revenue.Round(2)
	}
	out.TopItems = top
	return out, nil
}
