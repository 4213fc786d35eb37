// Package seed loads the demo catalogue for fresh installs.
package seed

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kotamart/storefront-backend/internal/products"
)

// demoProducts is the starter catalogue for a fresh store.
var demoProducts = []products.Product{
	{Name: "Amul Gold Milk", SKU: "AMUL-GLD-1L", Stock: 50, LowStockThreshold: 10, Price: 66.00, Image: "https://placehold.co/600x400.png", Sales: 120},
	{Name: "Britannia Bread", SKU: "BRT-BRD-400G", Stock: 30, LowStockThreshold: 5, Price: 45.00, Image: "https://placehold.co/600x400.png", Sales: 250},
	{Name: "Parle-G Biscuits", SKU: "PAR-G-100G", Stock: 200, LowStockThreshold: 50, Price: 10.00, Image: "https://placehold.co/600x400.png", Sales: 800},
	{Name: "Tata Salt", SKU: "TATA-SLT-1KG", Stock: 80, LowStockThreshold: 20, Price: 28.00, Image: "https://placehold.co/600x400.png", Sales: 150},
	{Name: "Aashirvaad Atta", SKU: "AASH-ATA-5KG", Stock: 40, LowStockThreshold: 10, Price: 250.00, Image: "https://placehold.co/600x400.png", Sales: 90},
	{Name: "Maggi 2-Minute Noodles", SKU: "MAG-NOOD-70G", Stock: 150, LowStockThreshold: 30, Price: 14.00, Image: "https://placehold.co/600x400.png", Sales: 500},
	{Name: "Colgate MaxFresh Toothpaste", SKU: "COL-TP-150G", Stock: 60, LowStockThreshold: 15, Price: 95.00, Image: "https://placehold.co/600x400.png", Sales: 75},
	{Name: "Lifebuoy Soap", SKU: "LIFE-SOAP-125G", Stock: 100, LowStockThreshold: 25, Price: 35.00, Image: "https://placehold.co/600x400.png", Sales: 300},
}

// Catalog is the product surface the seeder writes through.
type Catalog interface {
	List(ctx context.Context) ([]products.Product, error)
	Create(ctx context.Context, p *products.Product) (string, error)
}

type Seeder struct {
	catalog Catalog
}

func NewSeeder(catalog Catalog) *Seeder {
	return &Seeder{catalog: catalog}
}

// Run inserts the demo catalogue. Skips when products already exist so
// repeated calls do not duplicate the data.
func (s *Seeder) Run(ctx context.Context) (int, error) {
	existing, err := s.catalog.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("check catalogue: %w", err)
	}
	if len(existing) > 0 {
		log.Println("[seed] products collection is not empty, seeding skipped")
		return 0, nil
	}

	for i := range demoProducts {
		p := demoProducts[i]
		if _, err := s.catalog.Create(ctx, &p); err != nil {
			return i, fmt.Errorf("seed product %s: %w", p.SKU, err)
		}
	}
	return len(demoProducts), nil
}

func (s *Seeder) Register(dashboard *gin.RouterGroup) {
	dashboard.POST("/seed", func(c *gin.Context) {
		n, err := s.Run(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "seeding failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true, "seeded": n})
	})
}
