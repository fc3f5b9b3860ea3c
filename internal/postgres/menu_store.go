package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/ariefcatur/go-kiosk-orders/internal/apperr"
	"github.com/ariefcatur/go-kiosk-orders/internal/menu"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type MenuStore struct{ DB *pgxpool.Pool }

var _ menu.Repository = (*MenuStore)(nil)

const menuCols = `id, name, description, price, category, available, customizations, created_at, updated_at`

func (s *MenuStore) CreateItem(ctx context.Context, it menu.MenuItem) error {
	opts, err := optionsParam(it.Options)
	if err != nil {
		return err
	}
	_, err = s.DB.Exec(ctx, `
		INSERT INTO menu_items(`+menuCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		it.ID, it.Name, it.Description, it.Price.String(), it.Category, it.Available, opts, it.CreatedAt, it.UpdatedAt,
	)
	return err
}

func (s *MenuStore) UpdateItem(ctx context.Context, it menu.MenuItem) error {
	opts, err := optionsParam(it.Options)
	if err != nil {
		return err
	}
	ct, err := s.DB.Exec(ctx, `
		UPDATE menu_items SET name=$2, description=$3, price=$4, category=$5, available=$6,
		       customizations=$7, updated_at=$8
		WHERE id=$1`,
		it.ID, it.Name, it.Description, it.Price.String(), it.Category, it.Available, opts, it.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return apperr.NotFound("menu item %s not found", it.ID)
	}
	return nil
}

func (s *MenuStore) GetItem(ctx context.Context, id string) (menu.MenuItem, error) {
	it, err := scanItem(s.DB.QueryRow(ctx, `SELECT `+menuCols+` FROM menu_items WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return menu.MenuItem{}, apperr.NotFound("menu item %s not found", id)
	}
	return it, err
}

func (s *MenuStore) ListItems(ctx context.Context) ([]menu.MenuItem, error) {
	rows, err := s.DB.Query(ctx, `SELECT `+menuCols+` FROM menu_items ORDER BY category, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []menu.MenuItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (s *MenuStore) Categories(ctx context.Context) ([]string, error) {
	rows, err := s.DB.Query(ctx, `SELECT DISTINCT category FROM menu_items ORDER BY category`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func scanItem(row pgx.Row) (menu.MenuItem, error) {
	var (
		it   menu.MenuItem
		opts []byte
	)
	if err := row.Scan(&it.ID, &it.Name, &it.Description, &it.Price, &it.Category, &it.Available,
		&opts, &it.CreatedAt, &it.UpdatedAt); err != nil {
		return menu.MenuItem{}, err
	}
	if len(opts) > 0 {
		if err := json.Unmarshal(opts, &it.Options); err != nil {
			return menu.MenuItem{}, err
		}
	}
	return it, nil
}

func optionsParam(o menu.Options) ([]byte, error) {
	if len(o) == 0 {
		return nil, nil
	}
	return json.Marshal(o)
}
