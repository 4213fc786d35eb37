package orders

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ordersCollection = "orders"

var ErrNotFound = errors.New("order not found")

type Repo struct {
	db *firestore.Client
}

func NewRepo(db *firestore.Client) *Repo {
	return &Repo{db: db}
}

func (r *Repo) col() *firestore.CollectionRef {
	return r.db.Collection(ordersCollection)
}

func (r *Repo) Create(ctx context.Context, o *Order) (string, error) {
	if err := o.CheckTotal(); err != nil {
		return "", err
	}

	ref := r.col().NewDoc()
	if _, err := ref.Set(ctx, o); err != nil {
		return "", fmt.Errorf("create order: %w", err)
	}
	o.ID = ref.ID
	return ref.ID, nil
}

func (r *Repo) Get(ctx context.Context, id string) (*Order, error) {
	snap, err := r.col().Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w", id, err)
	}
	return decode(snap)
}

// ListAll returns every order, newest first. Owner dashboard view.
func (r *Repo) ListAll(ctx context.Context) ([]Order, error) {
	return r.collect(r.col().OrderBy("date", firestore.Desc).Documents(ctx))
}

// ListByUser returns a customer's own orders, newest first.
func (r *Repo) ListByUser(ctx context.Context, uid string) ([]Order, error) {
	q := r.col().Where("userId", "==", uid).OrderBy("date", firestore.Desc)
	return r.collect(q.Documents(ctx))
}

// UpdateStatus overwrites the status unconditionally. There is no
// transition validation: any status may replace any other, including
// backward moves.
func (r *Repo) UpdateStatus(ctx context.Context, id string, s Status) error {
	if !s.Valid() {
		return fmt.Errorf("unknown status %q", s)
	}

	_, err := r.col().Doc(id).Update(ctx, []firestore.Update{
		{Path: "status", Value: s},
	})
	if status.Code(err) == codes.NotFound {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update order %s status: %w", id, err)
	}
	return nil
}

func (r *Repo) collect(iter *firestore.DocumentIterator) ([]Order, error) {
	defer iter.Stop()

	out := make([]Order, 0, 16)
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list orders: %w", err)
		}

		o, err := decode(snap)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, nil
}

func decode(snap *firestore.DocumentSnapshot) (*Order, error) {
	var o Order
	if err := snap.DataTo(&o); err != nil {
		return nil, fmt.Errorf("decode order %s: %w", snap.Ref.ID, err)
	}
	o.ID = snap.Ref.ID
	return &o, nil
}
