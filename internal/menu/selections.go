package menu

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/ariefcatur/go-kiosk-orders/internal/apperr"
)

const (
	OptionSize          = "size"
	OptionExtraToppings = "extra_toppings"
)

// Selections are the customization choices attached to an order line.
// Keys the pricing rules don't know about are kept as-is in Extras.
type Selections struct {
	Size          string
	ExtraToppings []string
	Extras        map[string]json.RawMessage
}

func (s Selections) IsZero() bool {
	return s.Size == "" && len(s.ExtraToppings) == 0 && len(s.Extras) == 0
}

func (s Selections) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(s.Extras)+2)
	for k, v := range s.Extras {
		out[k] = v
	}
	if s.Size != "" {
		out[OptionSize] = s.Size
	}
	if len(s.ExtraToppings) > 0 {
		out[OptionExtraToppings] = s.ExtraToppings
	}
	return json.Marshal(out)
}

func (s *Selections) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("selections: %w", err)
	}
	*s = Selections{}
	for k, v := range raw {
		switch k {
		case OptionSize:
			if err := json.Unmarshal(v, &s.Size); err != nil {
				return fmt.Errorf("selections.size: %w", err)
			}
		case OptionExtraToppings:
			if err := json.Unmarshal(v, &s.ExtraToppings); err != nil {
				return fmt.Errorf("selections.extra_toppings: %w", err)
			}
		default:
			if s.Extras == nil {
				s.Extras = make(map[string]json.RawMessage)
			}
			s.Extras[k] = v
		}
	}
	return nil
}

// Validate checks the selections against the option groups the item declares.
// Groups the item doesn't declare are not checked.
func (s Selections) Validate(opts Options) error {
	if allowed, ok := opts[OptionSize]; ok && s.Size != "" && !slices.Contains(allowed, s.Size) {
		return apperr.InvalidInput("size %q is not available (allowed: %v)", s.Size, allowed)
	}
	if allowed, ok := opts[OptionExtraToppings]; ok {
		for _, t := range s.ExtraToppings {
			if !slices.Contains(allowed, t) {
				return apperr.InvalidInput("topping %q is not available (allowed: %v)", t, allowed)
			}
		}
	}
	return nil
}
