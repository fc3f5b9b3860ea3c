package orders

import (
	"strings"

	"github.com/ariefcatur/go-kiosk-orders/internal/apperr"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusPaid      Status = "paid"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

var validNext = map[Status]map[Status]bool{
	StatusPending:   {StatusConfirmed: true, StatusPaid: true, StatusCancelled: true},
	StatusConfirmed: {StatusPaid: true, StatusCancelled: true},
	StatusPaid:      {StatusPreparing: true, StatusReady: true, StatusCancelled: true},
	StatusPreparing: {StatusReady: true},
	StatusReady:     {StatusCompleted: true},
	StatusCompleted: {},
	StatusCancelled: {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

func (s Status) Valid() bool {
	_, ok := validNext[s]
	return ok
}

func (s Status) Terminal() bool { return s == StatusCompleted || s == StatusCancelled }

// Editable: cart masih boleh diubah (sebelum bayar).
func (s Status) Editable() bool { return s == StatusPending || s == StatusConfirmed }

// KitchenVisible is the cook's window.
func (s Status) KitchenVisible() bool { return s == StatusPaid || s == StatusPreparing }

var statusAliases = map[string]Status{
	"in_preparation": StatusPreparing,
	"canceled":       StatusCancelled,
}

// ParseStatus is case-insensitive and also accepts the legacy labels.
func ParseStatus(raw string) (Status, error) {
	key := normalize(raw)
	if s := Status(key); s.Valid() {
		return s, nil
	}
	if s, ok := statusAliases[key]; ok {
		return s, nil
	}
	return "", apperr.InvalidInput("unknown order status %q", raw)
}

// PaymentStatus is the payment axis of an order.
type PaymentStatus string

const (
	PaymentPending        PaymentStatus = "pending"
	PaymentPendingCounter PaymentStatus = "pending_counter"
	PaymentPaid           PaymentStatus = "paid"
	PaymentFailed         PaymentStatus = "failed"
	PaymentRefunded       PaymentStatus = "refunded"
)

// PaymentRecordStatus is the status of a single Payment.
type PaymentRecordStatus string

const (
	RecordPending    PaymentRecordStatus = "pending"
	RecordProcessing PaymentRecordStatus = "processing"
	RecordApproved   PaymentRecordStatus = "approved"
	RecordFailed     PaymentRecordStatus = "failed"
	RecordRefunded   PaymentRecordStatus = "refunded"
)

type Method string

const (
	MethodKioskCard   Method = "kiosk-card"
	MethodCounterCash Method = "counter-cash"
	MethodCounterCard Method = "counter-card"
)

var methodAliases = map[string]Method{
	"kiosk_card":      MethodKioskCard,
	"counter_cash":    MethodCounterCash,
	"counter_card":    MethodCounterCard,
	"card_at_system":  MethodKioskCard,
	"cash_at_counter": MethodCounterCash,
	"card_at_counter": MethodCounterCard,
}

func ParseMethod(raw string) (Method, error) {
	key := normalize(raw)
	if m, ok := methodAliases[key]; ok {
		return m, nil
	}
	return "", apperr.InvalidInput("unknown payment method %q", raw)
}

// Counter reports whether the method is paid at the cashier.
func (m Method) Counter() bool { return m == MethodCounterCash || m == MethodCounterCard }

// "In Preparation" -> "in_preparation", "kiosk-card" -> "kiosk_card"
func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(s)
}
