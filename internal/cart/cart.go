package cart

import (
	"math"

	"github.com/kotamart/storefront-backend/internal/products"
)

// Entry is one line in a cart. Quantity is always positive; setting it
// to zero removes the line.
type Entry struct {
	Product  products.Product `json:"product"`
	Quantity int              `json:"quantity"`
}

// Cart is the browsing session's cart. It lives only in that session
// and is cleared when an order is placed.
type Cart struct {
	Items []Entry `json:"items"`
}

// Add merges quantity into an existing line for the same product, or
// appends a new one. Non-positive quantities are ignored.
func (c *Cart) Add(p products.Product, quantity int) {
	if quantity <= 0 {
		return
	}
	for i := range c.Items {
		if c.Items[i].Product.ID == p.ID {
			c.Items[i].Quantity += quantity
			return
		}
	}
	c.Items = append(c.Items, Entry{Product: p, Quantity: quantity})
}

// SetQuantity replaces a line's quantity; zero or less removes it.
func (c *Cart) SetQuantity(productID string, quantity int) {
	if quantity <= 0 {
		c.Remove(productID)
		return
	}
	for i := range c.Items {
		if c.Items[i].Product.ID == productID {
			c.Items[i].Quantity = quantity
			return
		}
	}
}

func (c *Cart) Remove(productID string) {
	for i := range c.Items {
		if c.Items[i].Product.ID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return
		}
	}
}

func (c *Cart) Clear() {
	c.Items = nil
}

// Total is the sum of unit price times quantity over all lines.
func (c *Cart) Total() float64 {
	sum := 0.0
	for _, e := range c.Items {
		sum += e.Product.Price * float64(e.Quantity)
	}
	return math.Round(sum*100) / 100
}

// Count is the total number of units in the cart.
func (c *Cart) Count() int {
	n := 0
	for _, e := range c.Items {
		n += e.Quantity
	}
	return n
}
