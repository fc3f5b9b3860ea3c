package menu

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/ariefcatur/go-kiosk-orders/internal/apperr"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Catalog struct {
	repo  Repository
	cache CategoryCache
	log   *zap.Logger
	now   func() time.Time
}

type CatalogOption func(*Catalog)

func WithCategoryCache(c CategoryCache) CatalogOption { return func(cat *Catalog) { cat.cache = c } }
func WithClock(now func() time.Time) CatalogOption   { return func(cat *Catalog) { cat.now = now } }

func NewCatalog(repo Repository, log *zap.Logger, opts ...CatalogOption) *Catalog {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Catalog{repo: repo, log: log.Named("menu"), now: time.Now}
	for _, o := range opts {
		o(c)
	}
	return c
}

// ListCategories returns the distinct categories present among items.
func (c *Catalog) ListCategories(ctx context.Context) ([]string, error) {
	if c.cache != nil {
		if cats, ok := c.cache.GetCategories(ctx); ok {
			return cats, nil
		}
	}
	cats, err := c.repo.Categories(ctx)
	if err != nil {
		return nil, apperr.Internal(err, "list categories")
	}
	sort.Strings(cats)
	if c.cache != nil {
		c.cache.SetCategories(ctx, cats)
	}
	return cats, nil
}

// ListItems with a category returns only the available items of that category.
// Without a filter every item is returned, unavailable ones included (back office).
func (c *Catalog) ListItems(ctx context.Context, category string) ([]MenuItem, error) {
	items, err := c.repo.ListItems(ctx)
	if err != nil {
		return nil, apperr.Internal(err, "list menu items")
	}
	category = strings.TrimSpace(category)
	if category == "" {
		return items, nil
	}
	out := make([]MenuItem, 0, len(items))
	for _, it := range items {
		if it.Available && it.Category == category {
			out = append(out, it)
		}
	}
	return out, nil
}

// ListAvailable is the customer listing.
func (c *Catalog) ListAvailable(ctx context.Context) ([]MenuItem, error) {
	items, err := c.repo.ListItems(ctx)
	if err != nil {
		return nil, apperr.Internal(err, "list menu items")
	}
	out := make([]MenuItem, 0, len(items))
	for _, it := range items {
		if it.Available {
			out = append(out, it)
		}
	}
	return out, nil
}

func (c *Catalog) GetItem(ctx context.Context, id string) (MenuItem, error) {
	if strings.TrimSpace(id) == "" {
		return MenuItem{}, apperr.InvalidInput("menu item id is required")
	}
	it, err := c.repo.GetItem(ctx, id)
	if err != nil {
		return MenuItem{}, apperr.Internal(err, "get menu item %s", id)
	}
	return it, nil
}

func (c *Catalog) AddItem(ctx context.Context, in NewItem) (MenuItem, error) {
	name := strings.TrimSpace(in.Name)
	category := strings.TrimSpace(in.Category)
	switch {
	case name == "":
		return MenuItem{}, apperr.InvalidInput("name is required")
	case in.Price == nil:
		return MenuItem{}, apperr.InvalidInput("price is required")
	case category == "":
		return MenuItem{}, apperr.InvalidInput("category is required")
	}
	if err := validatePrice(*in.Price); err != nil {
		return MenuItem{}, err
	}

	now := c.now().UTC()
	it := MenuItem{
		ID:          uuid.NewString(),
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Price:       in.Price.Round(2),
		Category:    category,
		Available:   true,
		Options:     in.Options,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := c.repo.CreateItem(ctx, it); err != nil {
		return MenuItem{}, apperr.Internal(err, "create menu item")
	}
	c.invalidate(ctx)
	c.log.Info("menu item added", zap.String("item_id", it.ID), zap.String("category", it.Category))
	return it, nil
}

func (c *Catalog) UpdateItem(ctx context.Context, id string, p ItemPatch) (MenuItem, error) {
	it, err := c.GetItem(ctx, id)
	if err != nil {
		return MenuItem{}, err
	}
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return MenuItem{}, apperr.InvalidInput("name cannot be empty")
		}
		it.Name = name
	}
	if p.Price != nil {
		if err := validatePrice(*p.Price); err != nil {
			return MenuItem{}, err
		}
		it.Price = p.Price.Round(2)
	}
	if p.Category != nil {
		category := strings.TrimSpace(*p.Category)
		if category == "" {
			return MenuItem{}, apperr.InvalidInput("category cannot be empty")
		}
		it.Category = category
	}
	if p.Description != nil {
		it.Description = strings.TrimSpace(*p.Description)
	}
	if p.Available != nil {
		it.Available = *p.Available
	}
	if p.Options != nil {
		it.Options = p.Options
	}
	it.UpdatedAt = c.now().UTC()

	if err := c.repo.UpdateItem(ctx, it); err != nil {
		return MenuItem{}, apperr.Internal(err, "update menu item %s", id)
	}
	c.invalidate(ctx)
	return it, nil
}

// SetAvailability is the soft delete: items are never removed from the catalog.
func (c *Catalog) SetAvailability(ctx context.Context, id string, available bool) (MenuItem, error) {
	return c.UpdateItem(ctx, id, ItemPatch{Available: &available})
}

// Seed inserts the given items when the catalog is empty.
func (c *Catalog) Seed(ctx context.Context, items []MenuItem) (int, error) {
	existing, err := c.repo.ListItems(ctx)
	if err != nil {
		return 0, apperr.Internal(err, "seed menu")
	}
	if len(existing) > 0 {
		return 0, nil
	}
	now := c.now().UTC()
	for _, it := range items {
		if it.ID == "" {
			it.ID = uuid.NewString()
		}
		it.CreatedAt, it.UpdatedAt = now, now
		if err := c.repo.CreateItem(ctx, it); err != nil {
			return 0, apperr.Internal(err, "seed menu item %s", it.Name)
		}
	}
	c.invalidate(ctx)
	return len(items), nil
}

func (c *Catalog) invalidate(ctx context.Context) {
	if c.cache != nil {
		c.cache.InvalidateCategories(ctx)
	}
}

func validatePrice(p decimal.Decimal) error {
	if p.IsNegative() {
		return apperr.InvalidInput("price must be >= 0")
	}
	return nil
}
