package orders_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ariefcatur/go-kiosk-orders/internal/memstore"
	"github.com/ariefcatur/go-kiosk-orders/internal/menu"
	"github.com/ariefcatur/go-kiosk-orders/internal/orders"
	"github.com/ariefcatur/go-kiosk-orders/internal/redisx"
	"github.com/redis/go-redis/v9"
)

// gatedCache holds the next SetStatus until released, to replay cache writes
// in the opposite order of their commits.
type gatedCache struct {
	orders.StatusCache
	mu      sync.Mutex
	hold    chan struct{}
	entered chan struct{}
}

func (g *gatedCache) arm() (entered, release chan struct{}) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.hold, g.entered = make(chan struct{}), make(chan struct{})
	return g.entered, g.hold
}

func (g *gatedCache) SetStatus(ctx context.Context, s orders.StatusSnapshot) error {
	g.mu.Lock()
	hold, entered := g.hold, g.entered
	g.hold, g.entered = nil, nil
	g.mu.Unlock()
	if hold != nil {
		close(entered)
		<-hold
	}
	return g.StatusCache.SetStatus(ctx, s)
}

func TestStatusCacheSurvivesReorderedWrites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cache := &gatedCache{StatusCache: redisx.NewStatusCache(rdb)}
	clock := &stepClock{t: time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)}
	svc := orders.NewService(orders.Deps{
		Store: memstore.NewOrderStore(),
		Menu:  f.catalog,
		Cache: cache,
		Clock: clock.Now,
	})

	o, err := svc.CreateOrder(ctx)
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if _, _, err := svc.AddLine(ctx, o.ID, f.items["Classic Burger"].ID, 1, menu.Selections{}); err != nil {
		t.Fatalf("AddLine: %v", err)
	}

	entered, release := cache.arm()
	done := make(chan error, 1)
	go func() {
		_, err := svc.Finalize(ctx, o.ID, "kiosk-card")
		done <- err
	}()
	<-entered // Finalize committed, its cache write is parked

	if _, err := svc.PayAtKiosk(ctx, o.ID); err != nil {
		t.Fatalf("PayAtKiosk: %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	snap, err := svc.GetStatus(ctx, o.ID)
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if snap.Status != orders.StatusPaid || snap.PaymentStatus != orders.PaymentPaid {
		t.Fatalf("cached status regressed: %s/%s", snap.Status, snap.PaymentStatus)
	}
}
