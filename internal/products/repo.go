package products

import (
	"context"
	"errors"
	"fmt"
	"log"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const productsCollection = "products"

var ErrNotFound = errors.New("product not found")

// ImageStore is the slice of the object store the catalogue needs.
type ImageStore interface {
	Delete(ctx context.Context, url string) error
}

type Repo struct {
	db     *firestore.Client
	cache  *ListCache
	images ImageStore
}

func NewRepo(db *firestore.Client, cache *ListCache, images ImageStore) *Repo {
	return &Repo{db: db, cache: cache, images: images}
}

func (r *Repo) col() *firestore.CollectionRef {
	return r.db.Collection(productsCollection)
}

// List returns the whole catalogue, serving the cached listing when
// one is present.
func (r *Repo) List(ctx context.Context) ([]Product, error) {
	if cached, ok := r.cache.Get(ctx); ok {
		return cached, nil
	}

	iter := r.col().Documents(ctx)
	defer iter.Stop()

	out := make([]Product, 0, 16)
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list products: %w", err)
		}

		var p Product
		if err := snap.DataTo(&p); err != nil {
			return nil, fmt.Errorf("decode product %s: %w", snap.Ref.ID, err)
		}
		p.ID = snap.Ref.ID
		out = append(out, p)
	}

	r.cache.Set(ctx, out)
	return out, nil
}

func (r *Repo) Get(ctx context.Context, id string) (*Product, error) {
	snap, err := r.col().Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}

	var p Product
	if err := snap.DataTo(&p); err != nil {
		return nil, fmt.Errorf("decode product %s: %w", id, err)
	}
	p.ID = snap.Ref.ID
	return &p, nil
}

func (r *Repo) Create(ctx context.Context, p *Product) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}

	ref := r.col().NewDoc()
	if _, err := ref.Set(ctx, p); err != nil {
		return "", fmt.Errorf("create product: %w", err)
	}
	p.ID = ref.ID

	r.cache.Invalidate(ctx)
	return ref.ID, nil
}

func (r *Repo) Update(ctx context.Context, id string, u Update) error {
	if err := u.Validate(); err != nil {
		return err
	}

	updates := make([]firestore.Update, 0, 7)
	add := func(path string, v any) {
		updates = append(updates, firestore.Update{Path: path, Value: v})
	}
	if u.Name != nil {
		add("name", *u.Name)
	}
	if u.SKU != nil {
		add("sku", *u.SKU)
	}
	if u.Stock != nil {
		add("stock", *u.Stock)
	}
	if u.LowStockThreshold != nil {
		add("lowStockThreshold", *u.LowStockThreshold)
	}
	if u.Price != nil {
		add("price", *u.Price)
	}
	if u.Image != nil {
		add("image", *u.Image)
	}
	if u.Sales != nil {
		add("sales", *u.Sales)
	}
	if len(updates) == 0 {
		return fmt.Errorf("nothing to update")
	}

	_, err := r.col().Doc(id).Update(ctx, updates)
	if status.Code(err) == codes.NotFound {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update product %s: %w", id, err)
	}

	r.cache.Invalidate(ctx)
	return nil
}

// Delete removes the product and, best effort, its stored image. A
// missing image object counts as success.
func (r *Repo) Delete(ctx context.Context, id string) error {
	p, err := r.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	if _, err := r.col().Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}

	if p.Image != "" && r.images != nil {
		if err := r.images.Delete(ctx, p.Image); err != nil {
			log.Printf("[products] delete image for %s: %v", id, err)
		}
	}

	r.cache.Invalidate(ctx)
	return nil
}
