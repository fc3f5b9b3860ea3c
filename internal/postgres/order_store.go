package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/ariefcatur/go-kiosk-orders/internal/apperr"
	"github.com/ariefcatur/go-kiosk-orders/internal/menu"
	"github.com/ariefcatur/go-kiosk-orders/internal/orders"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OrderStore implements orders.Store. Mutate holds a row lock on the order
// (SELECT ... FOR UPDATE) for the whole transaction.
type OrderStore struct{ DB *pgxpool.Pool }

var _ orders.Store = (*OrderStore)(nil)

const orderCols = `id, order_number, status, payment_status, payment_method, subtotal, tax, total, created_at, updated_at`

func (s *OrderStore) CreateOrder(ctx context.Context, o *orders.Order) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO orders(`+orderCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		o.ID, o.Number, string(o.Status), string(o.PaymentStatus), methodParam(o.PaymentMethod),
		o.Subtotal.String(), o.Tax.String(), o.Total.String(), o.CreatedAt, o.UpdatedAt,
	)
	if isUniqueViolation(err, "orders_order_number_key") {
		return orders.ErrConflict
	}
	if err != nil {
		return err
	}
	if err := saveChildren(ctx, tx, o); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *OrderStore) GetOrder(ctx context.Context, id string) (*orders.Order, error) {
	return load(ctx, s.DB, `SELECT `+orderCols+` FROM orders WHERE id=$1`, id)
}

func (s *OrderStore) GetOrderByNumber(ctx context.Context, number string) (*orders.Order, error) {
	return load(ctx, s.DB, `SELECT `+orderCols+` FROM orders WHERE order_number=$1`, number)
}

func (s *OrderStore) OrderIDForLine(ctx context.Context, lineID string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `SELECT order_id FROM order_items WHERE id=$1`, lineID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", apperr.NotFound("order line %s not found", lineID)
	}
	return id, err
}

func (s *OrderStore) ListByStatus(ctx context.Context, statuses ...orders.Status) ([]*orders.Order, error) {
	ss := make([]string, 0, len(statuses))
	for _, st := range statuses {
		ss = append(ss, string(st))
	}
	return loadMany(ctx, s.DB, `SELECT `+orderCols+` FROM orders
		WHERE status = ANY($1) ORDER BY created_at, order_number`, ss)
}

func (s *OrderStore) ListByPaymentStatus(ctx context.Context, ps orders.PaymentStatus) ([]*orders.Order, error) {
	return loadMany(ctx, s.DB, `SELECT `+orderCols+` FROM orders
		WHERE payment_status = $1 ORDER BY created_at, order_number`, string(ps))
}

func (s *OrderStore) ListCreatedBetween(ctx context.Context, from, to time.Time) ([]*orders.Order, error) {
	return loadMany(ctx, s.DB, `SELECT `+orderCols+` FROM orders
		WHERE created_at >= $1 AND created_at < $2 ORDER BY created_at, order_number`, from, to)
}

func (s *OrderStore) OrderNumberExists(ctx context.Context, number string) (bool, error) {
	var ok bool
	err := s.DB.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM orders WHERE order_number=$1)`, number).Scan(&ok)
	return ok, err
}

func (s *OrderStore) TransactionIDExists(ctx context.Context, txnID string) (bool, error) {
	var ok bool
	err := s.DB.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM payments WHERE transaction_id=$1)`, txnID).Scan(&ok)
	return ok, err
}

// DeleteOrder relies on ON DELETE CASCADE for lines and payments.
func (s *OrderStore) DeleteOrder(ctx context.Context, id string) error {
	ct, err := s.DB.Exec(ctx, `DELETE FROM orders WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return apperr.NotFound("order %s not found", id)
	}
	return nil
}

// Mutate: lock order (FOR UPDATE) -> fn -> tulis ulang header, lines, payments.
// Kalau fn gagal tidak ada yang di-commit (rollback via defer).
func (s *OrderStore) Mutate(ctx context.Context, id string, fn orders.MutateFunc) (*orders.Order, error) {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	o, err := load(ctx, tx, `SELECT `+orderCols+` FROM orders WHERE id=$1 FOR UPDATE`, id)
	if err != nil {
		return nil, err
	}
	if err := fn(o); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE orders SET status=$2, payment_status=$3, payment_method=$4,
		       subtotal=$5, tax=$6, total=$7, updated_at=$8
		WHERE id=$1`,
		o.ID, string(o.Status), string(o.PaymentStatus), methodParam(o.PaymentMethod),
		o.Subtotal.String(), o.Tax.String(), o.Total.String(), o.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM order_items WHERE order_id=$1`, o.ID); err != nil {
		return nil, err
	}
	if err := saveChildren(ctx, tx, o); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return o, nil
}

// saveChildren inserts the lines and upserts the payments of o.
func saveChildren(ctx context.Context, q querier, o *orders.Order) error {
	for i, l := range o.Lines {
		sel, err := selectionsParam(l.Selections)
		if err != nil {
			return err
		}
		if _, err := q.Exec(ctx, `
			INSERT INTO order_items(id, order_id, position, menu_item_id, menu_item_name,
			                        quantity, unit_price, customizations, line_total, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
			l.ID, o.ID, i, l.MenuItemID, l.MenuItemName,
			l.Quantity, l.UnitPrice.String(), sel, l.LineTotal.String(), l.CreatedAt,
		); err != nil {
			return err
		}
	}
	for _, p := range o.Payments {
		if _, err := q.Exec(ctx, `
			INSERT INTO payments(id, order_id, amount, payment_method, status, transaction_id, processed_at, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
			ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status, processed_at = EXCLUDED.processed_at`,
			p.ID, o.ID, p.Amount.String(), string(p.Method), string(p.Status), p.TransactionID, p.ProcessedAt, p.CreatedAt,
		); err != nil {
			if isUniqueViolation(err, "payments_transaction_id_key") {
				return orders.ErrConflict
			}
			return err
		}
	}
	return nil
}

func scanOrder(row pgx.Row) (*orders.Order, error) {
	var (
		o                 orders.Order
		status, payStatus string
		method            *string
	)
	if err := row.Scan(&o.ID, &o.Number, &status, &payStatus, &method,
		&o.Subtotal, &o.Tax, &o.Total, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	o.Status = orders.Status(status)
	o.PaymentStatus = orders.PaymentStatus(payStatus)
	if method != nil {
		m := orders.Method(*method)
		o.PaymentMethod = &m
	}
	o.Lines = []orders.OrderLine{}
	return &o, nil
}

func load(ctx context.Context, q querier, sql string, arg any) (*orders.Order, error) {
	o, err := scanOrder(q.QueryRow(ctx, sql, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("order %v not found", arg)
	}
	if err != nil {
		return nil, err
	}
	if err := attachChildren(ctx, q, []*orders.Order{o}); err != nil {
		return nil, err
	}
	return o, nil
}

func loadMany(ctx context.Context, q querier, sql string, args ...any) ([]*orders.Order, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	out := make([]*orders.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := attachChildren(ctx, q, out); err != nil {
		return nil, err
	}
	return out, nil
}

// attachChildren loads lines and payments for all given orders in two queries.
func attachChildren(ctx context.Context, q querier, list []*orders.Order) error {
	if len(list) == 0 {
		return nil
	}
	byID := make(map[string]*orders.Order, len(list))
	ids := make([]string, 0, len(list))
	for _, o := range list {
		byID[o.ID] = o
		ids = append(ids, o.ID)
	}

	rows, err := q.Query(ctx, `
		SELECT id, order_id, menu_item_id, menu_item_name, quantity, unit_price, customizations, line_total, created_at
		FROM order_items WHERE order_id = ANY($1) ORDER BY order_id, position`, ids)
	if err != nil {
		return err
	}
	for rows.Next() {
		var (
			l   orders.OrderLine
			sel []byte
		)
		if err := rows.Scan(&l.ID, &l.OrderID, &l.MenuItemID, &l.MenuItemName, &l.Quantity,
			&l.UnitPrice, &sel, &l.LineTotal, &l.CreatedAt); err != nil {
			rows.Close()
			return err
		}
		if len(sel) > 0 {
			if err := json.Unmarshal(sel, &l.Selections); err != nil {
				rows.Close()
				return err
			}
		}
		o := byID[l.OrderID]
		o.Lines = append(o.Lines, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = q.Query(ctx, `
		SELECT id, order_id, amount, payment_method, status, transaction_id, processed_at, created_at
		FROM payments WHERE order_id = ANY($1) ORDER BY created_at`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			p              orders.Payment
			method, status string
			processed      *time.Time
		)
		if err := rows.Scan(&p.ID, &p.OrderID, &p.Amount, &method, &status, &p.TransactionID,
			&processed, &p.CreatedAt); err != nil {
			return err
		}
		p.Method = orders.Method(method)
		p.Status = orders.PaymentRecordStatus(status)
		if processed != nil {
			p.ProcessedAt = *processed
		}
		o := byID[p.OrderID]
		o.Payments = append(o.Payments, p)
	}
	return rows.Err()
}

func methodParam(m *orders.Method) *string {
	if m == nil {
		return nil
	}
	s := string(*m)
	return &s
}

func selectionsParam(sel menu.Selections) ([]byte, error) {
	if sel.IsZero() {
		return nil, nil
	}
	return json.Marshal(sel)
}
