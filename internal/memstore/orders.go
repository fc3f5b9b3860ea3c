package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ariefcatur/go-kiosk-orders/internal/apperr"
	"github.com/ariefcatur/go-kiosk-orders/internal/orders"
)

// OrderStore keeps orders arena-style: order headers by id, lines and payments
// keyed by the owning order id. Deleting an order drops all three entries.
type OrderStore struct {
	mu       sync.RWMutex
	orders   map[string]*orders.Order // header only, Lines/Payments nil
	lines    map[string][]orders.OrderLine
	payments map[string][]orders.Payment
	byNumber map[string]string // order number -> order id
	lineIdx  map[string]string // line id -> order id
	txnIdx   map[string]string // transaction id -> order id
	seq      map[string]uint64 // order id -> insertion sequence, breaks created_at ties
	next     uint64

	locks sync.Map // order id -> *sync.Mutex
}

var _ orders.Store = (*OrderStore)(nil)

func NewOrderStore() *OrderStore {
	return &OrderStore{
		orders:   make(map[string]*orders.Order),
		lines:    make(map[string][]orders.OrderLine),
		payments: make(map[string][]orders.Payment),
		byNumber: make(map[string]string),
		lineIdx:  make(map[string]string),
		txnIdx:   make(map[string]string),
		seq:      make(map[string]uint64),
	}
}

func (s *OrderStore) lock(id string) func() {
	v, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	m := v.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}

func (s *OrderStore) CreateOrder(ctx context.Context, o *orders.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byNumber[o.Number]; ok {
		return orders.ErrConflict
	}
	if _, ok := s.orders[o.ID]; ok {
		return apperr.InvalidState("order %s already exists", o.ID)
	}
	s.put(o.Clone())
	s.next++
	s.seq[o.ID] = s.next
	return nil
}

func (s *OrderStore) GetOrder(ctx context.Context, id string) (*orders.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.assemble(id)
	if !ok {
		return nil, apperr.NotFound("order %s not found", id)
	}
	return o, nil
}

func (s *OrderStore) GetOrderByNumber(ctx context.Context, number string) (*orders.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byNumber[number]
	if !ok {
		return nil, apperr.NotFound("order %s not found", number)
	}
	o, _ := s.assemble(id)
	return o, nil
}

func (s *OrderStore) OrderIDForLine(ctx context.Context, lineID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.lineIdx[lineID]
	if !ok {
		return "", apperr.NotFound("order line %s not found", lineID)
	}
	return id, nil
}

func (s *OrderStore) ListByStatus(ctx context.Context, statuses ...orders.Status) ([]*orders.Order, error) {
	return s.list(func(o *orders.Order) bool {
		for _, st := range statuses {
			if o.Status == st {
				return true
			}
		}
		return false
	}), nil
}

func (s *OrderStore) ListByPaymentStatus(ctx context.Context, ps orders.PaymentStatus) ([]*orders.Order, error) {
	return s.list(func(o *orders.Order) bool { return o.PaymentStatus == ps }), nil
}

// ListCreatedBetween returns orders with from <= created_at < to.
func (s *OrderStore) ListCreatedBetween(ctx context.Context, from, to time.Time) ([]*orders.Order, error) {
	return s.list(func(o *orders.Order) bool {
		return !o.CreatedAt.Before(from) && o.CreatedAt.Before(to)
	}), nil
}

func (s *OrderStore) OrderNumberExists(ctx context.Context, number string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byNumber[number]
	return ok, nil
}

func (s *OrderStore) TransactionIDExists(ctx context.Context, txnID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.txnIdx[txnID]
	return ok, nil
}

func (s *OrderStore) DeleteOrder(ctx context.Context, id string) error {
	unlock := s.lock(id)
	defer unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[id]; !ok {
		return apperr.NotFound("order %s not found", id)
	}
	s.drop(id)
	delete(s.seq, id)
	// penunggu lock lama akan dapat NotFound, order id tidak dipakai ulang
	s.locks.Delete(id)
	return nil
}

func (s *OrderStore) Mutate(ctx context.Context, id string, fn orders.MutateFunc) (*orders.Order, error) {
	unlock := s.lock(id)
	defer unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	work, ok := s.assemble(id)
	s.mu.RUnlock()
	if !ok {
		s.locks.Delete(id)
		return nil, apperr.NotFound("order %s not found", id)
	}

	if err := fn(work); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range work.Payments {
		if owner, ok := s.txnIdx[p.TransactionID]; ok && owner != id {
			return nil, orders.ErrConflict
		}
	}
	s.drop(id)
	s.put(work.Clone())
	return work, nil
}

// put stores o and indexes it. Caller holds s.mu.
func (s *OrderStore) put(o *orders.Order) {
	lines, payments := o.Lines, o.Payments
	o.Lines, o.Payments = nil, nil
	s.orders[o.ID] = o
	s.byNumber[o.Number] = o.ID
	s.lines[o.ID] = lines
	s.payments[o.ID] = payments
	for _, l := range lines {
		s.lineIdx[l.ID] = o.ID
	}
	for _, p := range payments {
		s.txnIdx[p.TransactionID] = o.ID
	}
}

// drop removes o and its index entries. Caller holds s.mu.
func (s *OrderStore) drop(id string) {
	o, ok := s.orders[id]
	if !ok {
		return
	}
	for _, l := range s.lines[id] {
		delete(s.lineIdx, l.ID)
	}
	for _, p := range s.payments[id] {
		delete(s.txnIdx, p.TransactionID)
	}
	delete(s.byNumber, o.Number)
	delete(s.lines, id)
	delete(s.payments, id)
	delete(s.orders, id)
}

// assemble builds a private deep copy of the order. Caller holds s.mu.
func (s *OrderStore) assemble(id string) (*orders.Order, bool) {
	h, ok := s.orders[id]
	if !ok {
		return nil, false
	}
	o := *h
	o.Lines = s.lines[id]
	if o.Lines == nil {
		o.Lines = []orders.OrderLine{}
	}
	o.Payments = s.payments[id]
	return o.Clone(), true
}

func (s *OrderStore) list(match func(*orders.Order) bool) []*orders.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*orders.Order, 0)
	for id, h := range s.orders {
		if match(h) {
			o, _ := s.assemble(id)
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return s.seq[out[i].ID] < s.seq[out[j].ID]
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
