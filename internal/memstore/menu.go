package memstore

import (
	"context"
	"slices"
	"sync"

	"github.com/ariefcatur/go-kiosk-orders/internal/apperr"
	"github.com/ariefcatur/go-kiosk-orders/internal/menu"
)

type MenuStore struct {
	mu    sync.RWMutex
	items map[string]menu.MenuItem
	ids   []string // insertion order
}

var _ menu.Repository = (*MenuStore)(nil)

func NewMenuStore() *MenuStore {
	return &MenuStore{items: make(map[string]menu.MenuItem)}
}

func (s *MenuStore) CreateItem(ctx context.Context, it menu.MenuItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[it.ID]; ok {
		return apperr.InvalidState("menu item %s already exists", it.ID)
	}
	s.items[it.ID] = cloneItem(it)
	s.ids = append(s.ids, it.ID)
	return nil
}

func (s *MenuStore) UpdateItem(ctx context.Context, it menu.MenuItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[it.ID]; !ok {
		return apperr.NotFound("menu item %s not found", it.ID)
	}
	s.items[it.ID] = cloneItem(it)
	return nil
}

func (s *MenuStore) GetItem(ctx context.Context, id string) (menu.MenuItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.items[id]
	if !ok {
		return menu.MenuItem{}, apperr.NotFound("menu item %s not found", id)
	}
	return cloneItem(it), nil
}

func (s *MenuStore) ListItems(ctx context.Context) ([]menu.MenuItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]menu.MenuItem, 0, len(s.ids))
	for _, id := range s.ids {
		out = append(out, cloneItem(s.items[id]))
	}
	return out, nil
}

func (s *MenuStore) Categories(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for _, id := range s.ids {
		if c := s.items[id].Category; !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	return out, nil
}

func cloneItem(it menu.MenuItem) menu.MenuItem {
	if it.Options != nil {
		opts := make(menu.Options, len(it.Options))
		for k, v := range it.Options {
			opts[k] = slices.Clone(v)
		}
		it.Options = opts
	}
	return it
}
