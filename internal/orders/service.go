package orders

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/ariefcatur/go-kiosk-orders/internal/apperr"
	"github.com/ariefcatur/go-kiosk-orders/internal/menu"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Deps struct {
	Store     Store
	Menu      MenuReader
	IDs       *IDGenerator
	Publisher Publisher
	Cache     StatusCache
	Log       *zap.Logger
	Clock     func() time.Time
	Producer  string
}

// Service implements the order lifecycle: cart, finalize, payment, kitchen.
// Every mutation of an order goes through Store.Mutate.
type Service struct {
	store    Store
	menu     MenuReader
	ids      *IDGenerator
	pub      Publisher
	cache    StatusCache
	log      *zap.Logger
	now      func() time.Time
	producer string
}

func NewService(d Deps) *Service {
	s := &Service{
		store:    d.Store,
		menu:     d.Menu,
		ids:      d.IDs,
		pub:      d.Publisher,
		cache:    d.Cache,
		log:      d.Log,
		now:      d.Clock,
		producer: d.Producer,
	}
	if s.ids == nil {
		s.ids = NewIDGenerator(nil)
	}
	if s.pub == nil {
		s.pub = nopPublisher{}
	}
	if s.cache == nil {
		s.cache = nopCache{}
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	s.log = s.log.Named("orders")
	if s.now == nil {
		s.now = time.Now
	}
	if s.producer == "" {
		s.producer = "kiosk-api"
	}
	return s
}

func (s *Service) CreateOrder(ctx context.Context) (*Order, error) {
	for attempt := 0; attempt < MaxAttempts; attempt++ {
		number, err := s.ids.NewOrderNumber(ctx, s.store.OrderNumberExists)
		if err != nil {
			return nil, err
		}
		now := s.now().UTC()
		o := &Order{
			ID:            uuid.NewString(),
			Number:        number,
			Status:        StatusPending,
			PaymentStatus: PaymentPending,
			Subtotal:      decimal.Zero,
			Tax:           decimal.Zero,
			Total:         decimal.Zero,
			CreatedAt:     now,
			UpdatedAt:     now,
			Lines:         []OrderLine{},
		}
		err = s.store.CreateOrder(ctx, o)
		if errors.Is(err, ErrConflict) {
			// nomor diambil order lain di antara cek & insert
			continue
		}
		if err != nil {
			return nil, apperr.Internal(err, "create order")
		}
		s.log.Info("order created", zap.String("order_id", o.ID), zap.String("order_number", o.Number))
		s.committed(ctx, o, EventOrderCreated, OrderCreatedPayload{OrderID: o.ID, OrderNumber: o.Number})
		return o, nil
	}
	return nil, apperr.Internal(ErrIDExhausted, "create order")
}

func (s *Service) GetOrder(ctx context.Context, id string) (*Order, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperr.InvalidInput("order id is required")
	}
	o, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err, "get order %s", id)
	}
	return o, nil
}

func (s *Service) GetOrderByNumber(ctx context.Context, number string) (*Order, error) {
	number = strings.ToUpper(strings.TrimSpace(number))
	if number == "" {
		return nil, apperr.InvalidInput("order number is required")
	}
	o, err := s.store.GetOrderByNumber(ctx, number)
	if err != nil {
		return nil, apperr.Internal(err, "get order %s", number)
	}
	return o, nil
}

// GetStatus serves from the status cache and falls back to the store.
func (s *Service) GetStatus(ctx context.Context, id string) (StatusSnapshot, error) {
	if snap, ok, err := s.cache.GetStatus(ctx, id); err == nil && ok {
		return snap, nil
	} else if err != nil {
		s.log.Warn("status cache read failed", zap.String("order_id", id), zap.Error(err))
	}
	o, err := s.GetOrder(ctx, id)
	if err != nil {
		return StatusSnapshot{}, err
	}
	snap := o.Snapshot()
	if err := s.cache.SetStatus(ctx, snap); err != nil {
		s.log.Warn("status cache write failed", zap.String("order_id", id), zap.Error(err))
	}
	return snap, nil
}

// AddLine prices the item with its selections and appends it to the cart.
func (s *Service) AddLine(ctx context.Context, orderID, menuItemID string, quantity int, sel menu.Selections) (*OrderLine, *Order, error) {
	if quantity < 1 {
		return nil, nil, apperr.InvalidInput("quantity must be >= 1")
	}
	if strings.TrimSpace(menuItemID) == "" {
		return nil, nil, apperr.InvalidInput("menu_item_id is required")
	}
	if _, err := s.GetOrder(ctx, orderID); err != nil {
		return nil, nil, err
	}
	item, err := s.menu.GetItem(ctx, menuItemID)
	if err != nil {
		return nil, nil, apperr.Internal(err, "get menu item %s", menuItemID)
	}
	if !item.Available {
		return nil, nil, apperr.InvalidState("menu item %q is not available", item.Name)
	}
	if err := sel.Validate(item.Options); err != nil {
		return nil, nil, err
	}

	line := OrderLine{
		ID:           uuid.NewString(),
		OrderID:      orderID,
		MenuItemID:   item.ID,
		MenuItemName: item.Name,
		Quantity:     quantity,
		UnitPrice:    menu.PriceWithCustomizations(item.Price, sel),
		Selections:   sel,
	}
	o, err := s.store.Mutate(ctx, orderID, func(o *Order) error {
		if err := checkEditable(o); err != nil {
			return err
		}
		now := s.now().UTC()
		line.CreatedAt = now
		o.Lines = append(o.Lines, line.Clone())
		RecomputeTotals(o)
		o.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, nil, apperr.Internal(err, "add line")
	}
	s.committed(ctx, o, "", nil)
	added := o.Lines[o.Line(line.ID)]
	return &added, o, nil
}

// UpdateLine sets the quantity of a line; quantity <= 0 removes it (removed == true).
func (s *Service) UpdateLine(ctx context.Context, lineID string, quantity int) (line *OrderLine, removed bool, o *Order, err error) {
	orderID, err := s.store.OrderIDForLine(ctx, lineID)
	if err != nil {
		return nil, false, nil, apperr.Internal(err, "find line %s", lineID)
	}
	o, err = s.store.Mutate(ctx, orderID, func(o *Order) error {
		idx := o.Line(lineID)
		if idx < 0 {
			return apperr.NotFound("order line %s not found", lineID)
		}
		if err := checkEditable(o); err != nil {
			return err
		}
		if quantity <= 0 {
			o.Lines = slices.Delete(o.Lines, idx, idx+1)
		} else {
			o.Lines[idx].Quantity = quantity
		}
		RecomputeTotals(o)
		o.UpdatedAt = s.now().UTC()
		return nil
	})
	if err != nil {
		return nil, false, nil, apperr.Internal(err, "update line")
	}
	s.committed(ctx, o, "", nil)
	if quantity <= 0 {
		return nil, true, o, nil
	}
	updated := o.Lines[o.Line(lineID)]
	return &updated, false, o, nil
}

func (s *Service) RemoveLine(ctx context.Context, orderID, lineID string) (*Order, error) {
	o, err := s.store.Mutate(ctx, orderID, func(o *Order) error {
		idx := o.Line(lineID)
		if idx < 0 {
			return apperr.NotFound("order line %s not found on order %s", lineID, o.Number)
		}
		if err := checkEditable(o); err != nil {
			return err
		}
		o.Lines = slices.Delete(o.Lines, idx, idx+1)
		RecomputeTotals(o)
		o.UpdatedAt = s.now().UTC()
		return nil
	})
	if err != nil {
		return nil, apperr.Internal(err, "remove line")
	}
	s.committed(ctx, o, "", nil)
	return o, nil
}

// Finalize picks the payment route. The order status is left as it is.
// It may be called again to switch route as long as the order is unpaid.
func (s *Service) Finalize(ctx context.Context, orderID, method string) (*Order, error) {
	m, err := ParseMethod(method)
	if err != nil {
		return nil, err
	}
	o, err := s.store.Mutate(ctx, orderID, func(o *Order) error {
		if len(o.Lines) == 0 {
			return apperr.InvalidState("cannot finalize empty order")
		}
		if err := checkEditable(o); err != nil {
			return err
		}
		if o.PaymentStatus == PaymentRefunded {
			return apperr.InvalidState("order %s payment was refunded", o.Number)
		}
		o.PaymentMethod = &m
		if m.Counter() {
			o.PaymentStatus = PaymentPendingCounter
		} else {
			o.PaymentStatus = PaymentPending
		}
		o.UpdatedAt = s.now().UTC()
		return nil
	})
	if err != nil {
		return nil, apperr.Internal(err, "finalize order")
	}
	s.log.Info("order finalized", zap.String("order_number", o.Number), zap.String("method", string(m)))
	s.committed(ctx, o, EventOrderFinalized, OrderFinalizedPayload{
		OrderID:       o.ID,
		OrderNumber:   o.Number,
		PaymentMethod: m,
		PaymentStatus: o.PaymentStatus,
		Total:         o.Total,
	})
	return o, nil
}

// PayAtKiosk simulates an always-approving card terminal.
func (s *Service) PayAtKiosk(ctx context.Context, orderID string) (*Payment, error) {
	return s.settle(ctx, orderID, MethodKioskCard, func(o *Order) error {
		if o.PaymentMethod == nil || *o.PaymentMethod != MethodKioskCard {
			return apperr.InvalidState("order %s is not set up for kiosk payment", o.Number)
		}
		if o.PaymentStatus != PaymentPending {
			return apperr.InvalidState("order %s payment is %s, expected %s", o.Number, o.PaymentStatus, PaymentPending)
		}
		return nil
	})
}

// PayAtCounter records a cashier payment (cash or card).
func (s *Service) PayAtCounter(ctx context.Context, orderID, method string) (*Payment, error) {
	m, err := ParseMethod(method)
	if err != nil {
		return nil, err
	}
	if !m.Counter() {
		return nil, apperr.InvalidInput("counter payment method must be %s or %s", MethodCounterCash, MethodCounterCard)
	}
	return s.settle(ctx, orderID, m, func(o *Order) error {
		if o.PaymentStatus != PaymentPendingCounter {
			return apperr.InvalidState("order %s payment is %s, expected %s", o.Number, o.PaymentStatus, PaymentPendingCounter)
		}
		return nil
	})
}

// settle approves a payment for the order. The transaction id is drawn before
// the order is locked so Mutate never waits on a second store call; a
// duplicate id surfaces as ErrConflict at commit and is re-rolled.
func (s *Service) settle(ctx context.Context, orderID string, m Method, check func(*Order) error) (*Payment, error) {
	for attempt := 0; attempt < MaxAttempts; attempt++ {
		txn, err := s.ids.NewTransactionID(ctx, s.store.TransactionIDExists)
		if err != nil {
			return nil, err
		}
		var pay Payment
		o, err := s.store.Mutate(ctx, orderID, func(o *Order) error {
			if err := check(o); err != nil {
				return err
			}
			p, err := s.approve(o, m, txn)
			pay = p
			return err
		})
		if errors.Is(err, ErrConflict) {
			// txn id diambil payment lain di antara cek & commit
			continue
		}
		if err != nil {
			return nil, apperr.Internal(err, "pay order %s", orderID)
		}
		s.paid(ctx, o, pay)
		return &pay, nil
	}
	return nil, apperr.Internal(ErrIDExhausted, "pay order %s", orderID)
}

func (s *Service) approve(o *Order, m Method, txn string) (Payment, error) {
	if !CanTransition(o.Status, StatusPaid) {
		return Payment{}, apperr.InvalidState("order %s is %s and cannot be paid", o.Number, o.Status)
	}
	if len(o.Lines) == 0 {
		return Payment{}, apperr.InvalidState("cannot pay for empty order")
	}
	if o.ApprovedPayment() != nil {
		return Payment{}, apperr.InvalidState("order %s already has an approved payment", o.Number)
	}
	now := s.now().UTC()
	p := Payment{
		ID:            uuid.NewString(),
		OrderID:       o.ID,
		Amount:        o.Total,
		Method:        m,
		Status:        RecordApproved,
		TransactionID: txn,
		ProcessedAt:   now,
		CreatedAt:     now,
	}
	o.Payments = append(o.Payments, p)
	o.PaymentMethod = &m
	o.PaymentStatus = PaymentPaid
	o.Status = StatusPaid
	o.UpdatedAt = now
	return p, nil
}

func (s *Service) paid(ctx context.Context, o *Order, p Payment) {
	s.log.Info("payment approved",
		zap.String("order_number", o.Number),
		zap.String("transaction_id", p.TransactionID),
		zap.String("method", string(p.Method)),
		zap.String("amount", p.Amount.StringFixed(2)),
	)
	s.committed(ctx, o, EventPaymentApproved, PaymentApprovedPayload{
		OrderID:       o.ID,
		OrderNumber:   o.Number,
		PaymentID:     p.ID,
		TransactionID: p.TransactionID,
		Method:        p.Method,
		Amount:        p.Amount,
		Items:         ticketItems(o),
	})
}

// KitchenQueue lists paid and preparing orders, oldest first.
func (s *Service) KitchenQueue(ctx context.Context) ([]*Order, error) {
	out, err := s.store.ListByStatus(ctx, StatusPaid, StatusPreparing)
	if err != nil {
		return nil, apperr.Internal(err, "list kitchen queue")
	}
	return out, nil
}

// CounterQueue lists orders waiting to be paid at the cashier, oldest first.
func (s *Service) CounterQueue(ctx context.Context) ([]*Order, error) {
	list, err := s.store.ListByPaymentStatus(ctx, PaymentPendingCounter)
	if err != nil {
		return nil, apperr.Internal(err, "list counter queue")
	}
	out := make([]*Order, 0, len(list))
	for _, o := range list {
		if o.Status.Editable() {
			out = append(out, o)
		}
	}
	return out, nil
}

// UpdateKitchenStatus moves a paid order forward (preparing, ready, completed) or cancels it.
func (s *Service) UpdateKitchenStatus(ctx context.Context, orderID, status string) (*Order, error) {
	to, err := ParseStatus(status)
	if err != nil {
		return nil, err
	}
	switch to {
	case StatusPreparing, StatusReady, StatusCompleted, StatusCancelled:
	default:
		return nil, apperr.InvalidInput("status %q cannot be set by the kitchen", status)
	}
	if to == StatusCancelled {
		return s.CancelOrder(ctx, orderID)
	}

	var from Status
	o, err := s.store.Mutate(ctx, orderID, func(o *Order) error {
		if o.Status.Terminal() {
			return apperr.InvalidState("order %s is already %s", o.Number, o.Status)
		}
		if !CanTransition(o.Status, to) {
			return apperr.InvalidState("order %s cannot move from %s to %s", o.Number, o.Status, to)
		}
		from = o.Status
		o.Status = to
		o.UpdatedAt = s.now().UTC()
		return nil
	})
	if err != nil {
		return nil, apperr.Internal(err, "update kitchen status")
	}
	s.log.Info("order status changed", zap.String("order_number", o.Number),
		zap.String("from", string(from)), zap.String("to", string(to)))
	s.committed(ctx, o, EventOrderStatusChanged, OrderStatusChangedPayload{
		OrderID: o.ID, OrderNumber: o.Number, From: from, To: to,
	})
	return o, nil
}

// CancelOrder cancels an order before the kitchen starts on it. A paid order is refunded.
func (s *Service) CancelOrder(ctx context.Context, orderID string) (*Order, error) {
	var (
		from     Status
		refunded bool
	)
	o, err := s.store.Mutate(ctx, orderID, func(o *Order) error {
		if o.Status.Terminal() {
			return apperr.InvalidState("order %s is already %s", o.Number, o.Status)
		}
		if !CanTransition(o.Status, StatusCancelled) {
			return apperr.InvalidState("order %s cannot be cancelled once %s", o.Number, o.Status)
		}
		from = o.Status
		if o.PaymentStatus == PaymentPaid {
			o.PaymentStatus = PaymentRefunded
			for i := range o.Payments {
				if o.Payments[i].Status == RecordApproved {
					o.Payments[i].Status = RecordRefunded
				}
			}
			refunded = true
		}
		o.Status = StatusCancelled
		o.UpdatedAt = s.now().UTC()
		return nil
	})
	if err != nil {
		return nil, apperr.Internal(err, "cancel order")
	}
	s.log.Info("order cancelled", zap.String("order_number", o.Number), zap.Bool("refunded", refunded))
	s.committed(ctx, o, EventOrderCancelled, OrderCancelledPayload{
		OrderID: o.ID, OrderNumber: o.Number, PreviousStatus: from, Refunded: refunded,
	})
	return o, nil
}

// DeleteOrder removes the order with its lines and payments.
func (s *Service) DeleteOrder(ctx context.Context, orderID string) error {
	if err := s.store.DeleteOrder(ctx, orderID); err != nil {
		return apperr.Internal(err, "delete order %s", orderID)
	}
	if err := s.cache.DeleteStatus(ctx, orderID); err != nil {
		s.log.Warn("status cache delete failed", zap.String("order_id", orderID), zap.Error(err))
	}
	s.log.Info("order deleted", zap.String("order_id", orderID))
	return nil
}

// committed runs the post-commit side effects. Failures here are logged only:
// the order state is already durable.
func (s *Service) committed(ctx context.Context, o *Order, eventType string, payload any) {
	if err := s.cache.SetStatus(ctx, o.Snapshot()); err != nil {
		s.log.Warn("status cache write failed", zap.String("order_id", o.ID), zap.Error(err))
	}
	if eventType == "" {
		return
	}
	env, err := NewEnvelope(ctx, eventType, s.producer, o.ID, payload, s.now())
	if err == nil {
		err = s.pub.Publish(ctx, env)
	}
	if err != nil {
		s.log.Warn("publish event failed", zap.String("event_type", eventType),
			zap.String("order_id", o.ID), zap.Error(err))
	}
}

func checkEditable(o *Order) error {
	if !o.Status.Editable() || o.PaymentStatus == PaymentPaid {
		return apperr.InvalidState("order %s is %s; items can no longer be changed", o.Number, o.Status)
	}
	return nil
}
