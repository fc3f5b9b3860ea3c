package orders

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/ariefcatur/go-kiosk-orders/internal/apperr"
)

const (
	idAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	OrderNumberPrefix   = "ORD-"
	OrderNumberLen      = 6
	TransactionIDPrefix = "TXN-"
	TransactionIDLen    = 8

	// MaxAttempts bounds the collision re-roll loop.
	MaxAttempts = 10
)

var ErrIDExhausted = errors.New("no unique identifier after max attempts")

// Source is the randomness behind the generator. *rand.Rand satisfies it.
type Source interface {
	IntN(n int) int
}

type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

// ExistsFunc reports whether a candidate identifier is already taken.
type ExistsFunc func(ctx context.Context, candidate string) (bool, error)

type IDGenerator struct {
	mu  sync.Mutex // src may not be safe for concurrent use
	src Source
}

// NewIDGenerator with a nil source uses the runtime-seeded math/rand/v2 generator.
func NewIDGenerator(src Source) *IDGenerator {
	if src == nil {
		src = globalSource{}
	}
	return &IDGenerator{src: src}
}

func (g *IDGenerator) NewOrderNumber(ctx context.Context, exists ExistsFunc) (string, error) {
	return g.unique(ctx, OrderNumberPrefix, OrderNumberLen, exists, "order number")
}

func (g *IDGenerator) NewTransactionID(ctx context.Context, exists ExistsFunc) (string, error) {
	return g.unique(ctx, TransactionIDPrefix, TransactionIDLen, exists, "transaction id")
}

func (g *IDGenerator) unique(ctx context.Context, prefix string, n int, exists ExistsFunc, what string) (string, error) {
	for attempt := 0; attempt < MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", apperr.Internal(err, "generate %s", what)
		}
		id := g.random(prefix, n)
		if exists == nil {
			return id, nil
		}
		taken, err := exists(ctx, id)
		if err != nil {
			return "", apperr.Internal(err, "check %s", what)
		}
		if !taken {
			return id, nil
		}
	}
	return "", apperr.Internal(ErrIDExhausted, "generate %s", what)
}

func (g *IDGenerator) random(prefix string, n int) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	var b strings.Builder
	b.Grow(len(prefix) + n)
	b.WriteString(prefix)
	for i := 0; i < n; i++ {
		b.WriteByte(idAlphabet[g.src.IntN(len(idAlphabet))])
	}
	return b.String()
}
