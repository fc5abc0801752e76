package meals

// FoodOption is one orderable item with its fixed unit price.
type FoodOption struct {
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
}

var menu = []FoodOption{
	{Name: "Chicken Curry", UnitPrice: 150},
	{Name: "Rice", UnitPrice: 50},
	{Name: "Salad", UnitPrice: 30},
	{Name: "Dal", UnitPrice: 40},
	{Name: "Roti", UnitPrice: 20},
	{Name: "Vegetable", UnitPrice: 60},
}

// Menu returns the orderable food options.
func Menu() []FoodOption {
	out := make([]FoodOption, len(menu))
	copy(out, menu)
	return out
}

// LookupOption finds a menu item by exact name.
func LookupOption(name string) (FoodOption, bool) {
	for _, opt := range menu {
		if opt.Name == name {
			return opt, true
		}
	}
	return FoodOption{}, false
}
