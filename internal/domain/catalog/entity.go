package catalog

// Item is one priced product of a tenant's catalog.
type Item struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	BasePrice   float64 `json:"base_price"`
	Description string  `json:"description,omitempty"`
}

// DefaultLimit caps how many active items are loaded per request.
const DefaultLimit = 50
