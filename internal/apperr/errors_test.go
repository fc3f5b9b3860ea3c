package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"not found", NotFound("order %s not found", "x"), KindNotFound},
		{"invalid input", InvalidInput("bad"), KindInvalidInput},
		{"invalid state", InvalidState("nope"), KindInvalidState},
		{"wrapped", fmt.Errorf("add line: %w", InvalidState("paid")), KindInvalidState},
		{"plain error", errors.New("boom"), KindInternal},
		{"internal", Internal(errors.New("db down"), "get order"), KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Fatalf("KindOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInternalKeepsTypedErrors(t *testing.T) {
	inner := NotFound("menu item %s not found", "m1")
	if got := Internal(inner, "add line"); got != inner {
		t.Fatalf("Internal() rewrapped a typed error: %v", got)
	}
}

func TestIsMatchesByKind(t *testing.T) {
	err := fmt.Errorf("pay: %w", InvalidState("order already paid"))
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected errors.Is(err, ErrInvalidState)")
	}
	if errors.Is(err, ErrNotFound) {
		t.Fatalf("did not expect errors.Is(err, ErrNotFound)")
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindNotFound:     http.StatusNotFound,
		KindInvalidInput: http.StatusBadRequest,
		KindInvalidState: http.StatusBadRequest,
		KindInternal:     http.StatusInternalServerError,
	}
	for k, want := range cases {
		if got := HTTPStatus(k); got != want {
			t.Errorf("HTTPStatus(%s) = %d, want %d", k, got, want)
		}
	}
}

func TestMessageHidesInternal(t *testing.T) {
	if got := Message(Internal(errors.New("pq: password"), "connect")); got != "internal error" {
		t.Fatalf("Message() = %q", got)
	}
	if got := Message(InvalidInput("quantity must be >= 1")); got != "quantity must be >= 1" {
		t.Fatalf("Message() = %q", got)
	}
}
