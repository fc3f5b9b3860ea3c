package menu

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Options is the customization schema of an item: option group -> allowed values.
type Options map[string][]string

type MenuItem struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Available   bool            `json:"available"`
	Options     Options         `json:"customizations,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// NewItem is the input of AddItem.
type NewItem struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Category    string           `json:"category"`
	Options     Options          `json:"customizations,omitempty"`
}

// ItemPatch is the input of UpdateItem; nil fields are left as they are.
type ItemPatch struct {
	Name        *string          `json:"name,omitempty"`
	Description *string          `json:"description,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Category    *string          `json:"category,omitempty"`
	Available   *bool            `json:"available,omitempty"`
	Options     Options          `json:"customizations,omitempty"`
}

// Repository is the persistence port of the catalog.
type Repository interface {
	CreateItem(ctx context.Context, it MenuItem) error
	UpdateItem(ctx context.Context, it MenuItem) error
	GetItem(ctx context.Context, id string) (MenuItem, error)
	ListItems(ctx context.Context) ([]MenuItem, error)
	Categories(ctx context.Context) ([]string, error)
}

// CategoryCache is an optional read-through cache for ListCategories.
type CategoryCache interface {
	GetCategories(ctx context.Context) ([]string, bool)
	SetCategories(ctx context.Context, cats []string)
	InvalidateCategories(ctx context.Context)
}
