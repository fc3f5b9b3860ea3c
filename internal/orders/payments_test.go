package orders_test

import (
	"context"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ariefcatur/go-kiosk-orders/internal/memstore"
	"github.com/ariefcatur/go-kiosk-orders/internal/menu"
	"github.com/ariefcatur/go-kiosk-orders/internal/orders"
)

// lockAwareStore fails any id lookup made while an order is locked. With a
// pooled database that lookup would need a second connection.
type lockAwareStore struct {
	*memstore.OrderStore
	locked   atomic.Int32
	nested   atomic.Int32
	mutates  atomic.Int32
	txnTaken func(string) bool // nil: trust the store
}

func (s *lockAwareStore) Mutate(ctx context.Context, id string, fn orders.MutateFunc) (*orders.Order, error) {
	s.mutates.Add(1)
	return s.OrderStore.Mutate(ctx, id, func(o *orders.Order) error {
		s.locked.Add(1)
		defer s.locked.Add(-1)
		return fn(o)
	})
}

func (s *lockAwareStore) TransactionIDExists(ctx context.Context, txn string) (bool, error) {
	if s.locked.Load() > 0 {
		s.nested.Add(1)
	}
	if s.txnTaken != nil {
		return s.txnTaken(txn), nil
	}
	return s.OrderStore.TransactionIDExists(ctx, txn)
}

// zeroSource yields zeros for the next armed draws, then random values.
type zeroSource struct {
	mu    sync.Mutex
	zeros int
}

func (s *zeroSource) arm(n int) {
	s.mu.Lock()
	s.zeros = n
	s.mu.Unlock()
}

func (s *zeroSource) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.zeros > 0 {
		s.zeros--
		return 0
	}
	return rand.IntN(n)
}

func readyToPay(t *testing.T, svc *orders.Service, f *fixture) *orders.Order {
	t.Helper()
	ctx := context.Background()
	o, err := svc.CreateOrder(ctx)
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if _, _, err := svc.AddLine(ctx, o.ID, f.items["French Fries"].ID, 1, menu.Selections{}); err != nil {
		t.Fatalf("AddLine: %v", err)
	}
	if o, err = svc.Finalize(ctx, o.ID, "kiosk-card"); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	return o
}

func TestPaymentDoesNotQueryStoreWhileLocked(t *testing.T) {
	f := newFixture(t)
	store := &lockAwareStore{OrderStore: memstore.NewOrderStore()}
	svc := orders.NewService(orders.Deps{Store: store, Menu: f.catalog})

	for i := 0; i < 3; i++ {
		o := readyToPay(t, svc, f)
		if _, err := svc.PayAtCounter(context.Background(), o.ID, "counter-card"); err == nil {
			t.Fatalf("kiosk order paid at counter")
		}
		if _, err := svc.PayAtKiosk(context.Background(), o.ID); err != nil {
			t.Fatalf("PayAtKiosk: %v", err)
		}
	}
	if n := store.nested.Load(); n != 0 {
		t.Fatalf("%d transaction id lookups ran inside Mutate", n)
	}
}

func TestPaymentRerollsTakenTransactionID(t *testing.T) {
	f := newFixture(t)
	src := &zeroSource{}
	// lookup always says free, so only the commit can catch the duplicate
	store := &lockAwareStore{OrderStore: memstore.NewOrderStore(), txnTaken: func(string) bool { return false }}
	svc := orders.NewService(orders.Deps{Store: store, Menu: f.catalog, IDs: orders.NewIDGenerator(src)})
	ctx := context.Background()

	first := readyToPay(t, svc, f)
	second := readyToPay(t, svc, f)

	src.arm(orders.TransactionIDLen)
	p1, err := svc.PayAtKiosk(ctx, first.ID)
	if err != nil {
		t.Fatalf("first PayAtKiosk: %v", err)
	}
	if p1.TransactionID != "TXN-AAAAAAAA" {
		t.Fatalf("first txn = %s", p1.TransactionID)
	}

	src.arm(orders.TransactionIDLen)
	before := store.mutates.Load()
	p2, err := svc.PayAtKiosk(ctx, second.ID)
	if err != nil {
		t.Fatalf("second PayAtKiosk: %v", err)
	}
	if p2.TransactionID == p1.TransactionID {
		t.Fatalf("duplicate transaction id %s", p2.TransactionID)
	}
	if n := store.mutates.Load() - before; n != 2 {
		t.Fatalf("Mutate calls = %d, want 2 (conflict then retry)", n)
	}
	got, _ := svc.GetOrder(ctx, second.ID)
	if got.PaymentStatus != orders.PaymentPaid || len(got.Payments) != 1 {
		t.Fatalf("second order = %+v", got)
	}
}
