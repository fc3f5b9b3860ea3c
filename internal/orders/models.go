package orders

import (
	"encoding/json"
	"slices"
	"time"

	"github.com/ariefcatur/go-kiosk-orders/internal/menu"
	"github.com/shopspring/decimal"
)

type Order struct {
	ID            string          `json:"id"`
	Number        string          `json:"order_number"`
	Status        Status          `json:"status"`
	PaymentStatus PaymentStatus   `json:"payment_status"`
	PaymentMethod *Method         `json:"payment_method"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Tax           decimal.Decimal `json:"tax"`
	Total         decimal.Decimal `json:"total"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Lines         []OrderLine     `json:"items"`
	Payments      []Payment       `json:"payments,omitempty"`
}

// OrderLine snapshots the unit price (customizations included) and item name at add time.
type OrderLine struct {
	ID           string          `json:"id"`
	OrderID      string          `json:"order_id"`
	MenuItemID   string          `json:"menu_item_id"`
	MenuItemName string          `json:"menu_item_name"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Selections   menu.Selections `json:"customizations"`
	LineTotal    decimal.Decimal `json:"line_total"`
	CreatedAt    time.Time       `json:"created_at"`
}

type Payment struct {
	ID            string              `json:"id"`
	OrderID       string              `json:"order_id"`
	Amount        decimal.Decimal     `json:"amount"`
	Method        Method              `json:"payment_method"`
	Status        PaymentRecordStatus `json:"status"`
	TransactionID string              `json:"transaction_id"`
	ProcessedAt   time.Time           `json:"processed_at"`
	CreatedAt     time.Time           `json:"created_at"`
}

// StatusSnapshot is the light view kept in the status cache.
type StatusSnapshot struct {
	OrderID       string          `json:"order_id"`
	OrderNumber   string          `json:"order_number"`
	Status        Status          `json:"status"`
	PaymentStatus PaymentStatus   `json:"payment_status"`
	Total         decimal.Decimal `json:"total"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (o *Order) Snapshot() StatusSnapshot {
	return StatusSnapshot{
		OrderID:       o.ID,
		OrderNumber:   o.Number,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		Total:         o.Total,
		UpdatedAt:     o.UpdatedAt,
	}
}

// Line returns the index of the line with the given id, or -1.
func (o *Order) Line(lineID string) int {
	return slices.IndexFunc(o.Lines, func(l OrderLine) bool { return l.ID == lineID })
}

// ApprovedPayment returns the approved payment of the order, if any.
func (o *Order) ApprovedPayment() *Payment {
	for i := range o.Payments {
		if o.Payments[i].Status == RecordApproved {
			return &o.Payments[i]
		}
	}
	return nil
}

// Clone returns a deep copy. Stores hand out clones so callers never share state.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	c := *o
	if o.PaymentMethod != nil {
		m := *o.PaymentMethod
		c.PaymentMethod = &m
	}
	if o.Lines != nil {
		c.Lines = make([]OrderLine, len(o.Lines))
		for i, l := range o.Lines {
			c.Lines[i] = l.Clone()
		}
	}
	c.Payments = slices.Clone(o.Payments)
	return &c
}

func (l OrderLine) Clone() OrderLine {
	l.Selections = cloneSelections(l.Selections)
	return l
}

func cloneSelections(s menu.Selections) menu.Selections {
	s.ExtraToppings = slices.Clone(s.ExtraToppings)
	if s.Extras != nil {
		extras := make(map[string]json.RawMessage, len(s.Extras))
		for k, v := range s.Extras {
			extras[k] = slices.Clone(v)
		}
		s.Extras = extras
	}
	return s
}
