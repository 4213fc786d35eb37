package suggestions

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kotamart/storefront-backend/internal/products"
)

const (
	cacheKey = "suggest:reorder"
	cacheTTL = 24 * time.Hour
)

// Generator is the upstream text service.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}

// Catalog supplies the inventory snapshot.
type Catalog interface {
	List(ctx context.Context) ([]products.Product, error)
}

// Service produces reorder hints for the dashboard, caching the latest
// text in Redis. Upstream failures degrade to an empty suggestion; the
// dashboard simply shows nothing.
type Service struct {
	gen     Generator
	catalog Catalog
	rdb     *redis.Client
}

func NewService(gen Generator, catalog Catalog, rdb *redis.Client) *Service {
	return &Service{gen: gen, catalog: catalog, rdb: rdb}
}

// Reorder returns the current hint text, serving the cached copy when
// present.
func (s *Service) Reorder(ctx context.Context) (string, error) {
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, cacheKey).Result(); err == nil {
			return cached, nil
		} else if err != redis.Nil {
			log.Printf("[suggestions] cache read: %v", err)
		}
	}
	return s.refresh(ctx)
}

// Refresh recomputes and re-caches the hint. Used by the nightly job.
func (s *Service) Refresh(ctx context.Context) error {
	_, err := s.refresh(ctx)
	return err
}

func (s *Service) refresh(ctx context.Context) (string, error) {
	list, err := s.catalog.List(ctx)
	if err != nil {
		return "", fmt.Errorf("inventory snapshot: %w", err)
	}

	inventory, sales := describe(list)
	resp, err := s.gen.Generate(ctx, GenerateRequest{InventoryData: inventory, SalesData: sales})
	if err != nil {
		log.Printf("[suggestions] upstream: %v", err)
		return "", nil
	}

	if s.rdb != nil {
		if err := s.rdb.Set(ctx, cacheKey, resp.Suggestions, cacheTTL).Err(); err != nil {
			log.Printf("[suggestions] cache write: %v", err)
		}
	}
	return resp.Suggestions, nil
}

// describe renders the catalogue into the plain-text form the upstream
// prompt expects.
func describe(list []products.Product) (inventory, sales string) {
	var inv, sal strings.Builder
	for _, p := range list {
		fmt.Fprintf(&inv, "%s (SKU %s): %d in stock, low-stock threshold %d\n",
			p.Name, p.SKU, p.Stock, p.LowStockThreshold)
		fmt.Fprintf(&sal, "%s: %d units sold\n", p.Name, p.Sales)
	}
	return inv.String(), sal.String()
}
