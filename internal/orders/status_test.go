package orders

import (
	"testing"

	"github.com/ariefcatur/go-kiosk-orders/internal/apperr"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusPaid, true},
		{StatusPending, StatusCancelled, true},
		{StatusConfirmed, StatusPaid, true},
		{StatusPaid, StatusPreparing, true},
		{StatusPaid, StatusReady, true},
		{StatusPaid, StatusCancelled, true},
		{StatusPreparing, StatusReady, true},
		{StatusReady, StatusCompleted, true},
		{StatusPending, StatusPreparing, false},
		{StatusPreparing, StatusCancelled, false},
		{StatusReady, StatusPreparing, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusPending, false},
		{Status("bogus"), StatusPaid, false},
	}
	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    Status
		wantErr bool
	}{
		{"preparing", StatusPreparing, false},
		{" READY ", StatusReady, false},
		{"In Preparation", StatusPreparing, false},
		{"canceled", StatusCancelled, false},
		{"done", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseStatus(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseStatus(%q) = %q, %v", tt.in, got, err)
		}
		if err != nil && apperr.KindOf(err) != apperr.KindInvalidInput {
			t.Errorf("ParseStatus(%q) kind = %s", tt.in, apperr.KindOf(err))
		}
	}
}

func TestParseMethod(t *testing.T) {
	tests := []struct {
		in      string
		want    Method
		wantErr bool
	}{
		{"kiosk-card", MethodKioskCard, false},
		{"Counter-Cash", MethodCounterCash, false},
		{"counter-card", MethodCounterCard, false},
		{"card_at_system", MethodKioskCard, false},
		{"cash_at_counter", MethodCounterCash, false},
		{"card_at_counter", MethodCounterCard, false},
		{"bitcoin", "", true},
	}
	for _, tt := range tests {
		got, err := ParseMethod(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseMethod(%q) = %q, %v", tt.in, got, err)
		}
	}
	if MethodKioskCard.Counter() || !MethodCounterCash.Counter() || !MethodCounterCard.Counter() {
		t.Errorf("Counter() misclassifies methods")
	}
}
