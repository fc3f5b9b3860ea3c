package menu

import "github.com/shopspring/decimal"

// DefaultItems is the starter menu loaded on an empty catalog.
func DefaultItems() []MenuItem {
	burger := Options{
		OptionSize:          {"regular", "large"},
		OptionExtraToppings: {"cheese", "bacon", "pickles", "onion"},
	}
	drink := Options{OptionSize: {"small", "medium", "large"}}

	item := func(name, desc, price, cat string, opts Options) MenuItem {
		return MenuItem{
			Name:        name,
			Description: desc,
			Price:       decimal.RequireFromString(price),
			Category:    cat,
			Available:   true,
			Options:     opts,
		}
	}
	return []MenuItem{
		item("Classic Burger", "Beef patty with lettuce, tomato, and special sauce", "8.99", "Burgers", burger),
		item("Cheeseburger", "Classic burger with melted cheddar cheese", "9.99", "Burgers", burger),
		item("Bacon Burger", "Burger topped with crispy bacon", "10.99", "Burgers", burger),
		item("French Fries", "Crispy golden fries", "3.99", "Sides", nil),
		item("Onion Rings", "Beer-battered onion rings", "4.99", "Sides", nil),
		item("Chicken Nuggets", "Six pieces of chicken nuggets", "5.99", "Sides", nil),
		item("Coca Cola", "Classic Coca Cola", "2.49", "Drinks", drink),
		item("Sprite", "Lemon-lime soda", "2.49", "Drinks", drink),
		item("Orange Juice", "Freshly squeezed orange juice", "3.49", "Drinks", drink),
	}
}
