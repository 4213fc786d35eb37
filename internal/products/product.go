package products

import "fmt"

// Product is one catalogue entry. Sales counts units sold to date and
// feeds the reorder suggestions.
type Product struct {
	ID                string  `firestore:"-" json:"id"`
	Name              string  `firestore:"name" json:"name"`
	SKU               string  `firestore:"sku" json:"sku"`
	Stock             int     `firestore:"stock" json:"stock"`
	LowStockThreshold int     `firestore:"lowStockThreshold" json:"lowStockThreshold"`
	Price             float64 `firestore:"price" json:"price"`
	Image             string  `firestore:"image" json:"image"`
	Sales             int     `firestore:"sales" json:"sales"`
}

func (p *Product) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("name required")
	}
	if p.SKU == "" {
		return fmt.Errorf("sku required")
	}
	if p.Stock < 0 {
		return fmt.Errorf("stock cannot be negative")
	}
	if p.Price < 0 {
		return fmt.Errorf("price cannot be negative")
	}
	return nil
}

// Update is a partial edit; nil fields are left untouched.
type Update struct {
	Name              *string  `json:"name,omitempty"`
	SKU               *string  `json:"sku,omitempty"`
	Stock             *int     `json:"stock,omitempty"`
	LowStockThreshold *int     `json:"lowStockThreshold,omitempty"`
	Price             *float64 `json:"price,omitempty"`
	Image             *string  `json:"image,omitempty"`
	Sales             *int     `json:"sales,omitempty"`
}

func (u Update) Validate() error {
	if u.Stock != nil && *u.Stock < 0 {
		return fmt.Errorf("stock cannot be negative")
	}
	if u.Price != nil && *u.Price < 0 {
		return fmt.Errorf("price cannot be negative")
	}
	return nil
}
