package orders

import (
	"fmt"
	"math"
	"time"

	"github.com/kotamart/storefront-backend/internal/users"
)

type Status string

const (
	StatusOrdered    Status = "Ordered Successfully"
	StatusProcessing Status = "Processing"
	StatusInDelivery Status = "In Delivery"
	StatusDelivered  Status = "Delivered"
)

func (s Status) Valid() bool {
	switch s {
	case StatusOrdered, StatusProcessing, StatusInDelivery, StatusDelivered:
		return true
	}
	return false
}

type Item struct {
	ProductID string  `firestore:"productId" json:"productId"`
	Name      string  `firestore:"name" json:"name"`
	Quantity  int     `firestore:"quantity" json:"quantity"`
	Price     float64 `firestore:"price" json:"price"`
}

// Order is created once from a cart and never deleted. Customer
// contact fields are snapshotted from the profile at creation time;
// later profile edits do not change past orders.
type Order struct {
	ID              string    `firestore:"-" json:"id"`
	UserID          string    `firestore:"userId" json:"userId"`
	CustomerName    string    `firestore:"customerName" json:"customerName"`
	CustomerPhone   string    `firestore:"customerPhone" json:"customerPhone"`
	CustomerAddress string    `firestore:"customerAddress" json:"customerAddress"`
	Items           []Item    `firestore:"items" json:"items"`
	Total           float64   `firestore:"total" json:"total"`
	Status          Status    `firestore:"status" json:"status"`
	Date            time.Time `firestore:"date" json:"date"`
}

// Build assembles a new order for a customer from cart line items.
// The caller must have a profile record; ordering without one is a
// hard failure, not a lazy-create case.
func Build(u *users.AppUser, items []Item) (*Order, error) {
	if u == nil {
		return nil, fmt.Errorf("no profile record for ordering user")
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("order has no items")
	}

	total := 0.0
	for _, it := range items {
		if it.Quantity <= 0 {
			return nil, fmt.Errorf("item %s: quantity must be positive", it.ProductID)
		}
		if it.Price < 0 {
			return nil, fmt.Errorf("item %s: negative price", it.ProductID)
		}
		total += float64(it.Quantity) * it.Price
	}

	return &Order{
		UserID:          u.UID,
		CustomerName:    u.Name,
		CustomerPhone:   u.Phone,
		CustomerAddress: u.Address,
		Items:           items,
		Total:           round2(total),
		Status:          StatusOrdered,
		Date:            time.Now().UTC(),
	}, nil
}

// CheckTotal verifies the order total equals the sum of its lines.
func (o *Order) CheckTotal() error {
	sum := 0.0
	for _, it := range o.Items {
		sum += float64(it.Quantity) * it.Price
	}
	if round2(sum) != round2(o.Total) {
		return fmt.Errorf("order %s: total %.2f does not match items %.2f", o.ID, o.Total, sum)
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
