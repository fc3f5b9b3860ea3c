package menu

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestPriceWithCustomizations(t *testing.T) {
	tests := []struct {
		name string
		base string
		sel  Selections
		want string
	}{
		{"no selections", "8.99", Selections{}, "8.99"},
		{"large", "8.99", Selections{Size: "large"}, "9.99"},
		{"medium", "2.49", Selections{Size: "medium"}, "2.99"},
		{"small is free", "2.49", Selections{Size: "small"}, "2.49"},
		{"size is case sensitive", "2.49", Selections{Size: "LARGE"}, "2.49"},
		{"two toppings", "9.99", Selections{ExtraToppings: []string{"cheese", "bacon"}}, "10.99"},
		{"large with topping", "10.99", Selections{Size: "large", ExtraToppings: []string{"onion"}}, "12.49"},
		{"unknown keys ignored", "3.99", Selections{Extras: map[string]json.RawMessage{"sauce": json.RawMessage(`"bbq"`)}}, "3.99"},
		{"rounds to cents", "1.005", Selections{}, "1.01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PriceWithCustomizations(decimal.RequireFromString(tt.base), tt.sel)
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Fatalf("PriceWithCustomizations() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestSelectionsJSON(t *testing.T) {
	var sel Selections
	in := `{"size":"large","extra_toppings":["cheese"],"note":"no ice"}`
	if err := json.Unmarshal([]byte(in), &sel); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if sel.Size != "large" || len(sel.ExtraToppings) != 1 || sel.ExtraToppings[0] != "cheese" {
		t.Fatalf("unexpected selections: %+v", sel)
	}
	if string(sel.Extras["note"]) != `"no ice"` {
		t.Fatalf("extra key not kept: %q", sel.Extras["note"])
	}

	out, err := json.Marshal(sel)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var back map[string]any
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatalf("Unmarshal map: %v", err)
	}
	if back["size"] != "large" || back["note"] != "no ice" {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestSelectionsRejectsWrongTypes(t *testing.T) {
	for _, in := range []string{`{"size":3}`, `{"extra_toppings":"cheese"}`, `[1,2]`} {
		var sel Selections
		if err := json.Unmarshal([]byte(in), &sel); err == nil {
			t.Errorf("Unmarshal(%s) expected error", in)
		}
	}
}

func TestSelectionsValidate(t *testing.T) {
	opts := Options{OptionSize: {"regular", "large"}, OptionExtraToppings: {"cheese"}}
	tests := []struct {
		name    string
		sel     Selections
		opts    Options
		wantErr bool
	}{
		{"empty", Selections{}, opts, false},
		{"allowed size", Selections{Size: "large"}, opts, false},
		{"disallowed size", Selections{Size: "medium"}, opts, true},
		{"disallowed topping", Selections{ExtraToppings: []string{"bacon"}}, opts, true},
		{"undeclared group not checked", Selections{Size: "huge"}, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.sel.Validate(tt.opts)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
