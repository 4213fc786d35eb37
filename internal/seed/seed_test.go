package seed

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kotamart/storefront-backend/internal/products"
)

type fakeCatalog struct {
	items   []products.Product
	listErr error
}

func (c *fakeCatalog) List(ctx context.Context) ([]products.Product, error) {
	if c.listErr != nil {
		return nil, c.listErr
	}
	return c.items, nil
}

func (c *fakeCatalog) Create(ctx context.Context, p *products.Product) (string, error) {
	cp := *p
	cp.ID = fmt.Sprintf("p%d", len(c.items)+1)
	c.items = append(c.items, cp)
	return cp.ID, nil
}

func TestSeederRun(t *testing.T) {
	t.Run("fills an empty catalogue", func(t *testing.T) {
		catalog := &fakeCatalog{}

		n, err := NewSeeder(catalog).Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, len(demoProducts), n)
		assert.Len(t, catalog.items, len(demoProducts))
	})

	t.Run("skips a non-empty catalogue", func(t *testing.T) {
		catalog := &fakeCatalog{items: []products.Product{{ID: "p1", Name: "Existing", SKU: "X-1"}}}

		n, err := NewSeeder(catalog).Run(context.Background())
		require.NoError(t, err)
		assert.Zero(t, n)
		assert.Len(t, catalog.items, 1)
	})

	t.Run("running twice does not duplicate", func(t *testing.T) {
		catalog := &fakeCatalog{}
		s := NewSeeder(catalog)

		_, err := s.Run(context.Background())
		require.NoError(t, err)
		n, err := s.Run(context.Background())
		require.NoError(t, err)

		assert.Zero(t, n)
		assert.Len(t, catalog.items, len(demoProducts))
	})

	t.Run("catalogue check failure", func(t *testing.T) {
		catalog := &fakeCatalog{listErr: errors.New("backend down")}

		_, err := NewSeeder(catalog).Run(context.Background())
		assert.Error(t, err)
	})
}

func TestDemoProductsAreValid(t *testing.T) {
	seen := make(map[string]bool)
	for _, p := range demoProducts {
		assert.NoError(t, p.Validate(), p.SKU)
		assert.False(t, seen[p.SKU], "duplicate sku %s", p.SKU)
		seen[p.SKU] = true
	}
}
